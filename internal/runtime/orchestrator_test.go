package runtime_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/mender/internal/runtime"
	"github.com/aretw0/mender/pkg/delegate"
	"github.com/aretw0/mender/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stepTo(t *testing.T, o *runtime.Orchestrator, want domain.State) {
	t.Helper()
	ctx := context.Background()
	for i := 0; i < 20 && o.State() != want; i++ {
		require.NoError(t, o.Step(ctx))
	}
	require.Equal(t, want, o.State())
}

func TestOrchestrator_InitResetsMemory(t *testing.T) {
	o := runtime.NewOrchestrator(newFakeOps(), delegate.NewScript())
	require.Equal(t, domain.StateInit, o.State())

	require.NoError(t, o.Step(context.Background()))

	assert.Equal(t, domain.StateFailureDetection, o.State())
	mem := o.Memory()
	assert.Equal(t, []string{}, mem.Failures)
	assert.Equal(t, map[string]domain.Impact{}, mem.ImpactReport)
	assert.Equal(t, []domain.PlanEntry{}, mem.PlanHistory)
	assert.Nil(t, mem.PendingAction)
	assert.Nil(t, mem.ExecutionResult)

	h := o.History()
	require.Len(t, h, 1)
	assert.Equal(t, domain.StateInit, h[0].From)
	assert.Equal(t, domain.StateFailureDetection, h[0].To)
	assert.Equal(t, domain.TagInitialize, h[0].Action)
	assert.Empty(t, h[0].Data)
}

func TestOrchestrator_NoFailures(t *testing.T) {
	o := runtime.NewOrchestrator(newFakeOps([]string{}), delegate.NewScript())
	stepTo(t, o, domain.StateFailureDetection)

	require.NoError(t, o.Step(context.Background()))

	assert.Equal(t, domain.StateFinal, o.State())
	assert.Equal(t, domain.TagNoFailuresDetected, lastTag(o.History()))
	assert.Len(t, o.History(), 2)
}

func TestOrchestrator_ImpactReportCoversFailures(t *testing.T) {
	tests := []struct {
		name     string
		failures []string
	}{
		{"Single Node", []string{"node1"}},
		{"Several Nodes", []string{"node1", "node2", "node3"}},
		{"Duplicates Collapse", []string{"node1", "node1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ops := newFakeOps(tt.failures)
			ops.critical["node1"] = true
			o := runtime.NewOrchestrator(ops, delegate.NewScript())
			stepTo(t, o, domain.StateRepairPlanning)

			mem := o.Memory()
			want := map[string]bool{}
			for _, f := range tt.failures {
				want[f] = true
			}
			got := map[string]bool{}
			for k := range mem.ImpactReport {
				got[k] = true
			}
			assert.Equal(t, want, got)
			assert.Equal(t, domain.CriticalityHigh, mem.ImpactReport["node1"].Criticality)

			h := o.History()
			assert.Equal(t, []string{domain.TagInitialize, domain.TagFailuresDetected, domain.TagImpactAnalyzed}, tags(h))
			assert.Equal(t, tt.failures, h[1].Data[domain.KeyFailures])
			assert.Contains(t, h[2].Data, domain.KeyImpactReport)
		})
	}
}

func TestOrchestrator_HappyPath(t *testing.T) {
	ops := newFakeOps([]string{"node1"})
	o := runtime.NewOrchestrator(ops, delegate.NewScript(assignNode1))

	summary, err := o.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, domain.StateFinal, o.State())
	assert.True(t, summary.Done())
	assert.Equal(t, []string{
		domain.TagInitialize,
		domain.TagFailuresDetected,
		domain.TagImpactAnalyzed,
		domain.TagDecisionAssignCrew,
		domain.TagAssignmentsSucceeded,
		domain.TagRepairsCompleted,
	}, tags(o.History()))
	assert.Equal(t, 6, summary.Transitions)
	assert.Equal(t, []string{"node1"}, summary.Failures)
	require.NotNil(t, summary.ExecutionResult)
	assert.Equal(t, domain.OutcomeAssigned, summary.ExecutionResult.Details["node1"])
	assert.Equal(t, [][]string{{"node1"}}, ops.assigned)

	decision, ok := o.History()[3].Data[domain.KeyDecision].(domain.Decision)
	require.True(t, ok)
	assert.Equal(t, domain.ActionAssignRepairCrew, decision.Action)
	assert.Equal(t, "go", decision.Thoughts)
}

func TestOrchestrator_PartialAssignmentFailure(t *testing.T) {
	ops := newFakeOps([]string{"node1", "node2"})
	ops.refuse["node2"] = true
	o := runtime.NewOrchestrator(ops, delegate.NewScript(assignBoth))
	stepTo(t, o, domain.StateExecution)

	require.NoError(t, o.Step(context.Background()))

	assert.Equal(t, domain.StateRepairPlanning, o.State())
	mem := o.Memory()
	assert.Equal(t, []string{"node2"}, mem.Failures)
	assert.Nil(t, mem.PendingAction)
	require.NotNil(t, mem.ExecutionResult)
	assert.Equal(t, domain.OutcomeFailed, mem.ExecutionResult.Details["node2"])
	assert.Len(t, mem.ImpactReport, 1)
	assert.Contains(t, mem.ImpactReport, "node2", "impact report follows the narrowed failures")
	assert.NotContains(t, mem.ImpactReport, "node1")

	last := o.History()[len(o.History())-1]
	assert.Equal(t, domain.TagAssignmentsFailed, last.Action)
	assert.Equal(t, []string{"node2"}, last.Data[domain.KeyFailedNodes])
	assert.Len(t, last.Data, 2, "payload is exactly failed_nodes and details")

	note := mem.PlanHistory[len(mem.PlanHistory)-1]
	assert.Equal(t, domain.RoleExecutionResult, note.Role)
	assert.Contains(t, note.Message, "node2")
}

func TestOrchestrator_NarrowingKeepsOriginalOrder(t *testing.T) {
	ops := newFakeOps([]string{"c", "a", "b"})
	ops.refuse["a"] = true
	ops.refuse["c"] = true
	assign := `{"action":"assign_repair_crew","arguments":{"node_ids":["a","b","c"],"crew_ids":["x","y","z"]}}`
	o := runtime.NewOrchestrator(ops, delegate.NewScript(assign))
	stepTo(t, o, domain.StateExecution)

	require.NoError(t, o.Step(context.Background()))

	assert.Equal(t, []string{"c", "a"}, o.Memory().Failures)
}

func TestOrchestrator_AllAssignedGoesToRescheduling(t *testing.T) {
	ops := newFakeOps([]string{"node1", "node2"})
	o := runtime.NewOrchestrator(ops, delegate.NewScript(assignBoth))
	stepTo(t, o, domain.StateExecution)

	require.NoError(t, o.Step(context.Background()))

	assert.Equal(t, domain.StateRescheduling, o.State())
	last := o.History()[len(o.History())-1]
	assert.Equal(t, domain.TagAssignmentsSucceeded, last.Action)
	assert.Equal(t, map[string]domain.AssignmentOutcome{
		"node1": domain.OutcomeAssigned,
		"node2": domain.OutcomeAssigned,
	}, last.Data[domain.KeyDetails])
}

func TestOrchestrator_CascadingFailures(t *testing.T) {
	ops := newFakeOps([]string{"node1"}, []string{"node1", "node3", "node1"})
	o := runtime.NewOrchestrator(ops, delegate.NewScript(assignNode1))
	stepTo(t, o, domain.StateRescheduling)

	require.NoError(t, o.Step(context.Background()))

	assert.Equal(t, domain.StateFailureDetection, o.State())
	last := o.History()[len(o.History())-1]
	assert.Equal(t, domain.TagCascadingFailures, last.Action)
	assert.Equal(t, []string{"node3"}, last.Data[domain.KeyNewFailures])

	require.NoError(t, o.Step(context.Background()))
	assert.Equal(t, []string{"node1", "node3", "node1"}, o.Memory().Failures)
}

func TestOrchestrator_StepAfterFinal(t *testing.T) {
	o := runtime.NewOrchestrator(newFakeOps(), delegate.NewScript())
	_, err := o.Run(context.Background())
	require.NoError(t, err)

	before := len(o.History())
	err = o.Step(context.Background())
	assert.ErrorIs(t, err, domain.ErrTerminated)
	assert.Len(t, o.History(), before)
}

func TestOrchestrator_StepBudget(t *testing.T) {
	useTool := `{"action":"ping","arguments":{}}`
	o := runtime.NewOrchestrator(newFakeOps([]string{"node1"}), delegate.NewScript(useTool),
		runtime.WithRegistry(pingRegistry()),
		runtime.WithMaxSteps(5),
	)

	summary, err := o.Run(context.Background())

	assert.ErrorIs(t, err, domain.ErrStepBudgetExhausted)
	assert.Equal(t, domain.StateRepairPlanning.String(), summary.State)
	assert.Equal(t, 5, summary.Steps)

	_, err = o.Run(context.Background())
	assert.ErrorIs(t, err, domain.ErrStepBudgetExhausted, "the budget is a run total")
	assert.Equal(t, 5, o.Summary().Steps)
}

func TestOrchestrator_StepBudgetCountsManualSteps(t *testing.T) {
	useTool := `{"action":"ping","arguments":{}}`
	o := runtime.NewOrchestrator(newFakeOps([]string{"node1"}), delegate.NewScript(useTool),
		runtime.WithRegistry(pingRegistry()),
		runtime.WithMaxSteps(5),
	)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		require.NoError(t, o.Step(ctx))
	}

	summary, err := o.Run(ctx)

	assert.ErrorIs(t, err, domain.ErrStepBudgetExhausted)
	assert.Equal(t, 5, summary.Steps)
}

func TestOrchestrator_ContextCancelled(t *testing.T) {
	o := runtime.NewOrchestrator(newFakeOps(), delegate.NewScript())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := o.Step(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, domain.StateInit, o.State())
	assert.Empty(t, o.History())
}

func TestOrchestrator_CollaboratorErrorsPropagate(t *testing.T) {
	boom := errors.New("scanner offline")
	ops := newFakeOps([]string{"node1"})
	o := runtime.NewOrchestrator(ops, delegate.NewScript())
	stepTo(t, o, domain.StateFailureDetection)
	ops.detectErr = boom

	err := o.Step(context.Background())

	require.ErrorIs(t, err, boom)
	var ce *domain.CollaboratorError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "detect_failure_nodes", ce.Op)
	assert.Equal(t, domain.StateFailureDetection, o.State(), "state is unchanged")
	assert.Len(t, o.History(), 1)
}

func TestOrchestrator_AssignmentErrorPropagates(t *testing.T) {
	ops := newFakeOps([]string{"node1"})
	ops.assignErr = errors.New("dispatch down")
	o := runtime.NewOrchestrator(ops, delegate.NewScript(assignNode1),
		runtime.WithCollaboratorErrorPolicy(domain.PolicyCountAsPlanningFailure))
	stepTo(t, o, domain.StateExecution)

	err := o.Step(context.Background())

	var ce *domain.CollaboratorError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, domain.ActionAssignRepairCrew, ce.Op)
	assert.Equal(t, domain.StateExecution, o.State())
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name     string
		from, to domain.State
		want     bool
	}{
		{"Init To Detection", domain.StateInit, domain.StateFailureDetection, true},
		{"Init Cannot Skip", domain.StateInit, domain.StateFinal, false},
		{"Planning Self Loop", domain.StateRepairPlanning, domain.StateRepairPlanning, true},
		{"Execution Replans", domain.StateExecution, domain.StateRepairPlanning, true},
		{"Execution Cannot Finish", domain.StateExecution, domain.StateFinal, false},
		{"Rescheduling Restarts", domain.StateRescheduling, domain.StateFailureDetection, true},
		{"Final Is A Sink", domain.StateFinal, domain.StateInit, false},
		{"Final Has No Self Loop", domain.StateFinal, domain.StateFinal, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, runtime.CanTransition(tt.from, tt.to))
		})
	}
}

func TestOrchestrator_HistoryMonotonic(t *testing.T) {
	ops := newFakeOps([]string{"node1", "node2"}, []string{"node1", "node2", "node4"}, []string{})
	ops.refuse["node2"] = true
	script := delegate.NewScript(
		`{"action":"ping","arguments":{}}`,
		garbage,
		assignBoth,
		`{"action":"assign_repair_crew","arguments":{"node_ids":["node2"],"crew_ids":["crew2"]}}`,
	)
	o := runtime.NewOrchestrator(ops, script, runtime.WithRegistry(pingRegistry()), runtime.WithMaxSteps(40))
	ctx := context.Background()

	prevLen := 0
	for i := 0; i < 40 && o.State() != domain.StateFinal; i++ {
		before := o.State()
		retries := o.RetryCount()
		require.NoError(t, o.Step(ctx))
		n := len(o.History())
		require.GreaterOrEqual(t, n, prevLen)

		recordedFailure := before == domain.StateRepairPlanning && o.State() == before && o.RetryCount() == retries+1
		if recordedFailure {
			assert.Equal(t, prevLen, n, "failed planning attempts record nothing")
		} else {
			assert.Equal(t, prevLen+1, n, "step %d from %s must record", i, before)
		}
		prevLen = n
	}
	assert.Equal(t, domain.StateFinal, o.State())
}
