package mender_test

import (
	"context"
	"fmt"
	"log"

	"github.com/aretw0/mender"
	"github.com/aretw0/mender/pkg/delegate"
	"github.com/aretw0/mender/pkg/tools"
)

// ExampleNew runs the canned two-node outage with a scripted planner.
func ExampleNew() {
	decision := `{"thoughts": "both nodes are critical", "action": "assign_repair_crew",
		"arguments": {"node_ids": ["node1", "node2"], "crew_ids": ["crew1", "crew2"]}}`

	engine, err := mender.New(
		mender.WithScenario(tools.DefaultScenario()),
		mender.WithDelegate(delegate.NewTextScript([]string{decision})),
	)
	if err != nil {
		log.Fatal(err)
	}

	summary, err := engine.Run(context.Background())
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(summary.State)
	for _, entry := range engine.History() {
		fmt.Printf("%s -> %s (%s)\n", entry.FromState, entry.ToState, entry.Action)
	}
	// Output:
	// FINAL
	// INIT -> FAILURE_DETECTION (initialize)
	// FAILURE_DETECTION -> IMPACT_ANALYSIS (failures_detected)
	// IMPACT_ANALYSIS -> REPAIR_PLANNING (impact_analyzed)
	// REPAIR_PLANNING -> EXECUTION (llm_decision_assign_crew)
	// EXECUTION -> RESCHEDULING (assignments_succeeded)
	// RESCHEDULING -> FINAL (repairs_completed)
}
