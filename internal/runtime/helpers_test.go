package runtime_test

import (
	"context"
	"sync"

	"github.com/aretw0/mender/pkg/domain"
	"github.com/aretw0/mender/pkg/registry"
)

const (
	assignNode1 = `{"thoughts":"go","action":"assign_repair_crew","arguments":{"node_ids":["node1"],"crew_ids":["crew1"]}}`
	assignBoth  = `{"action":"assign_repair_crew","arguments":{"node_ids":["node1","node2"],"crew_ids":["crew1","crew2"]}}`
	garbage     = `this is not json`
)

// fakeOps is a scripted SystemOperations.
type fakeOps struct {
	mu        sync.Mutex
	waves     [][]string
	detects   int
	critical  map[string]bool
	refuse    map[string]bool
	detectErr error
	assignErr error
	assigned  [][]string
}

func newFakeOps(waves ...[]string) *fakeOps {
	return &fakeOps{waves: waves, critical: map[string]bool{}, refuse: map[string]bool{}}
}

func (f *fakeOps) DetectFailureNodes(context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.detectErr != nil {
		return nil, f.detectErr
	}
	if len(f.waves) == 0 {
		return []string{}, nil
	}
	i := min(f.detects, len(f.waves)-1)
	f.detects++
	return append([]string{}, f.waves[i]...), nil
}

func (f *fakeOps) EstimateImpact(_ context.Context, node string) (domain.Impact, error) {
	if f.critical[node] {
		return domain.Impact{PopulationAffected: 5000, Criticality: domain.CriticalityHigh}, nil
	}
	return domain.Impact{PopulationAffected: 100, Criticality: domain.CriticalityLow}, nil
}

func (f *fakeOps) AssignRepairCrew(_ context.Context, nodes, crews []string) (domain.AssignmentResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.assignErr != nil {
		return domain.AssignmentResult{}, f.assignErr
	}
	f.assigned = append(f.assigned, append([]string{}, nodes...))
	details := map[string]domain.AssignmentOutcome{}
	for i := 0; i < len(nodes) && i < len(crews); i++ {
		if f.refuse[nodes[i]] {
			// A refusal applies to the first dispatch only.
			delete(f.refuse, nodes[i])
			details[nodes[i]] = domain.OutcomeFailed
		} else {
			details[nodes[i]] = domain.OutcomeAssigned
		}
	}
	return domain.AssignmentResult{Status: "completed", Details: details}, nil
}

func pingRegistry() *registry.Registry {
	r := registry.NewRegistry()
	r.Register(domain.Tool{Name: "ping", Description: "Answers pong."}, func(context.Context, map[string]any) (any, error) {
		return "pong", nil
	})
	return r
}

func tags(records []domain.TransitionRecord) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Action
	}
	return out
}

func lastTag(records []domain.TransitionRecord) string {
	if len(records) == 0 {
		return ""
	}
	return records[len(records)-1].Action
}
