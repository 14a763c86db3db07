package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewWorkingMemory_EmptyShape(t *testing.T) {
	m := NewWorkingMemory()
	assert.Equal(t, []string{}, m.Failures)
	assert.Equal(t, map[string]Impact{}, m.ImpactReport)
	assert.Equal(t, []PlanEntry{}, m.PlanHistory)
	assert.Nil(t, m.PendingAction)
	assert.Nil(t, m.ExecutionResult)
}

func TestWorkingMemory_RecentHistory(t *testing.T) {
	m := NewWorkingMemory()
	for _, msg := range []string{"a", "b", "c", "d"} {
		m.PlanHistory = append(m.PlanHistory, PlanEntry{Role: RoleError, Message: msg})
	}

	t.Run("Oldest Dropped First", func(t *testing.T) {
		got := m.RecentHistory(2)
		assert.Equal(t, []string{"c", "d"}, messages(got))
	})

	t.Run("Window Larger Than History", func(t *testing.T) {
		assert.Len(t, m.RecentHistory(10), 4)
	})

	t.Run("Zero Means Unlimited", func(t *testing.T) {
		assert.Len(t, m.RecentHistory(0), 4)
	})

	t.Run("Stored History Untouched", func(t *testing.T) {
		got := m.RecentHistory(1)
		got[0].Message = "mutated"
		assert.Len(t, m.PlanHistory, 4)
		assert.Equal(t, "d", m.PlanHistory[3].Message)
	})
}

func TestAssignmentResult_FailedNodes(t *testing.T) {
	r := &AssignmentResult{
		Status: "completed",
		Details: map[string]AssignmentOutcome{
			"node-1": OutcomeAssigned,
			"node-3": OutcomeFailed,
			"node-2": OutcomeFailed,
			"extra":  OutcomeFailed,
		},
	}

	assert.Equal(t, []string{"node-2", "node-3", "extra"}, r.FailedNodes([]string{"node-1", "node-2", "node-3"}))
	assert.Nil(t, (*AssignmentResult)(nil).FailedNodes(nil))
}

func TestWorkingMemory_CloneIsIndependent(t *testing.T) {
	m := NewWorkingMemory()
	m.Failures = append(m.Failures, "n1")
	m.ImpactReport["n1"] = Impact{PopulationAffected: 10, Criticality: CriticalityLow}
	m.ExecutionResult = &AssignmentResult{Details: map[string]AssignmentOutcome{"n1": OutcomeAssigned}}

	c := m.Clone()
	c.Failures[0] = "other"
	c.ImpactReport["n2"] = Impact{}
	c.ExecutionResult.Details["n1"] = OutcomeFailed

	assert.Equal(t, "n1", m.Failures[0])
	assert.NotContains(t, m.ImpactReport, "n2")
	assert.Equal(t, OutcomeAssigned, m.ExecutionResult.Details["n1"])
}

func messages(entries []PlanEntry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Message)
	}
	return out
}
