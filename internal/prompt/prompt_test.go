package prompt_test

import (
	"strings"
	"testing"

	"github.com/aretw0/mender/internal/prompt"
	"github.com/aretw0/mender/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIncludeContext(t *testing.T) {
	got, err := prompt.IncludeContext("Base", map[string]any{"failures": []string{"node1"}})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(got, "Base\n\nContext:\n"))
	assert.Contains(t, got, `"failures": [`)
	assert.Contains(t, got, `"node1"`)
}

func TestIncludeContext_Unencodable(t *testing.T) {
	_, err := prompt.IncludeContext("Base", map[string]any{"ch": make(chan int)})
	assert.Error(t, err)
}

func TestIncludeResponseFormat(t *testing.T) {
	got := prompt.IncludeResponseFormat("Base")
	assert.Contains(t, got, "Response Format:")
	assert.Contains(t, got, `"thoughts"`)
	assert.Contains(t, got, `"action"`)
	assert.Contains(t, got, `"arguments"`)
}

func TestIncludeTools(t *testing.T) {
	got := prompt.IncludeTools("Base", "tool_a() - does a")
	assert.Equal(t, "Base\n\nAvailable Tools:\ntool_a() - does a\n", got)
}

func TestBuild_SectionOrder(t *testing.T) {
	req := domain.DecisionRequest{
		Instructions: "Instructions here",
		Context: domain.PlanningContext{
			Failures:            []string{"node1"},
			ImpactReport:        map[string]domain.Impact{"node1": {PopulationAffected: 5000, Criticality: domain.CriticalityHigh}},
			ConversationHistory: []domain.PlanEntry{},
		},
		ToolDescriptions: "get_time_of_day() - bucket",
	}

	got, err := prompt.Build(req)
	require.NoError(t, err)

	idx := func(s string) int { return strings.Index(got, s) }
	assert.Equal(t, 0, idx("Instructions here"))
	assert.Less(t, idx("Instructions here"), idx("Context:"))
	assert.Less(t, idx("Context:"), idx("Response Format:"))
	assert.Less(t, idx("Response Format:"), idx("Available Tools:"))
	assert.Contains(t, got, `"population_affected": 5000`)
}

func TestBuild_DefaultsToPlanningInstructions(t *testing.T) {
	got, err := prompt.Build(domain.DecisionRequest{})
	require.NoError(t, err)
	assert.Contains(t, got, "REPAIR PLANNING")
}

func TestForState(t *testing.T) {
	assert.Contains(t, prompt.ForState(domain.StateRescheduling), "RESCHEDULING")
	assert.Equal(t, prompt.SystemPrompt(), prompt.ForState(domain.StateInit))
	assert.Equal(t, prompt.SystemPrompt(), prompt.ForState(domain.StateFinal))
}
