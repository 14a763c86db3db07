package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestState_Names(t *testing.T) {
	want := []string{
		"INIT", "FAILURE_DETECTION", "IMPACT_ANALYSIS", "REPAIR_PLANNING",
		"EXECUTION", "RESCHEDULING", "FINAL",
	}
	for i, s := range States() {
		assert.Equal(t, want[i], s.String())

		parsed, err := ParseState(want[i])
		require.NoError(t, err)
		assert.Equal(t, s, parsed)
	}

	_, err := ParseState("PANIC")
	assert.Error(t, err)
	assert.Equal(t, "State(42)", State(42).String())
}

func TestState_OnlyFinalIsTerminal(t *testing.T) {
	for _, s := range States() {
		assert.Equal(t, s == StateFinal, s.Terminal(), s.String())
	}
}

func TestState_JSONRoundTrip(t *testing.T) {
	rec := TransitionRecord{From: StateRepairPlanning, To: StateExecution, Action: TagDecisionAssignCrew}
	b, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"from_state":"REPAIR_PLANNING"`)

	var back TransitionRecord
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, StateExecution, back.To)
}
