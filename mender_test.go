package mender_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aretw0/mender"
	"github.com/aretw0/mender/pkg/delegate"
	"github.com/aretw0/mender/pkg/domain"
	"github.com/aretw0/mender/pkg/ports"
	"github.com/aretw0/mender/pkg/tools"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const assignBoth = `{"action": "assign_repair_crew", "arguments": {"node_ids": ["node1", "node2"], "crew_ids": ["crew1", "crew2"]}}`

func TestFacade_RequiresDelegate(t *testing.T) {
	_, err := mender.New()
	assert.ErrorIs(t, err, mender.ErrNoDelegate)
}

func TestFacade_Integration(t *testing.T) {
	var toolCalls []string
	hooks := domain.LifecycleHooks{
		OnToolCall: func(_ context.Context, e *domain.ToolEvent) {
			toolCalls = append(toolCalls, e.ToolName)
		},
	}

	engine, err := mender.New(
		mender.WithDelegate(delegate.NewTextScript([]string{
			`{"action": "get_available_crews", "arguments": {}}`,
			assignBoth,
		})),
		mender.WithLifecycleHooks(hooks),
		mender.WithRunID("facade"),
	)
	require.NoError(t, err)
	assert.Len(t, engine.Tools(), 11, "3 system tools and 8 informational tools")

	summary, err := engine.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "FINAL", summary.State)
	assert.Equal(t, "facade", summary.RunID)
	assert.Equal(t, []string{"get_available_crews"}, toolCalls)
	require.NotNil(t, summary.ExecutionResult)
	assert.Equal(t, domain.OutcomeAssigned, summary.ExecutionResult.Details["node2"])

	actions := make([]string, 0, len(engine.History()))
	for _, h := range engine.History() {
		actions = append(actions, h.Action)
	}
	assert.Contains(t, actions, domain.TagDecisionUseTool)

	report := engine.Report()
	assert.Equal(t, summary.Transitions, len(report.History))
}

func TestFacade_RejectedNodeKeepsPlanning(t *testing.T) {
	scenario := tools.DefaultScenario()
	scenario.Reject = []string{"node2"}

	engine, err := mender.New(
		mender.WithScenario(scenario),
		mender.WithDelegate(delegate.NewTextScript([]string{assignBoth})),
		mender.WithMaxSteps(8),
	)
	require.NoError(t, err)

	summary, err := engine.Run(context.Background())
	assert.ErrorIs(t, err, domain.ErrStepBudgetExhausted)
	assert.Equal(t, []string{"node2"}, summary.Failures)
	assert.NotEqual(t, domain.StateFinal, engine.State())
}

func TestFacade_CollaboratorErrorPolicy(t *testing.T) {
	failing := ports.DecisionFunc(func(context.Context, domain.DecisionRequest) (any, error) {
		return nil, errors.New("model unavailable")
	})

	t.Run("propagates by default", func(t *testing.T) {
		engine, err := mender.New(mender.WithDelegate(failing))
		require.NoError(t, err)

		_, err = engine.Run(context.Background())
		var ce *domain.CollaboratorError
		require.ErrorAs(t, err, &ce)
		assert.Equal(t, domain.StateRepairPlanning, engine.State())
	})

	t.Run("counts as planning failure", func(t *testing.T) {
		engine, err := mender.New(
			mender.WithDelegate(failing),
			mender.WithCollaboratorErrorPolicy(domain.PolicyCountAsPlanningFailure),
		)
		require.NoError(t, err)

		summary, err := engine.Run(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "FINAL", summary.State)
		history := engine.History()
		assert.Equal(t, domain.TagMaxRetriesReached, history[len(history)-1].Action)
	})
}

func TestFacade_HistoryWindow(t *testing.T) {
	var seen []int
	calls := 0
	planner := ports.DecisionFunc(func(_ context.Context, req domain.DecisionRequest) (any, error) {
		seen = append(seen, len(req.Context.ConversationHistory))
		calls++
		if calls < 4 {
			return `{"action": "get_available_crews", "arguments": {}}`, nil
		}
		return assignBoth, nil
	})

	engine, err := mender.New(
		mender.WithDelegate(planner),
		mender.WithHistoryWindow(2),
		mender.WithMaxSteps(20),
	)
	require.NoError(t, err)

	_, err = engine.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2, 2}, seen)
}

func TestFacade_Mermaid(t *testing.T) {
	engine, err := mender.New(mender.WithDelegate(delegate.NewTextScript([]string{assignBoth})))
	require.NoError(t, err)

	assert.Contains(t, engine.Mermaid(), "No execution history")

	require.NoError(t, engine.Step(context.Background()))
	code := engine.Mermaid()
	assert.True(t, strings.HasPrefix(code, "graph TD"))
	assert.Contains(t, code, "FAILURE_DETECTION")

	_, err = engine.Run(context.Background())
	require.NoError(t, err)
	assert.Contains(t, engine.Mermaid(), "FINAL([FINAL])")
}

func TestVersion(t *testing.T) {
	assert.NotEmpty(t, mender.Version)
	assert.NotContains(t, mender.Version, "\n")
}
