package delegate_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aretw0/mender/pkg/delegate"
	"github.com/aretw0/mender/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

// fakeModel is an in-process llms.Model that records prompts.
type fakeModel struct {
	reply   string
	err     error
	prompts []string
}

func (f *fakeModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	for _, m := range messages {
		for _, p := range m.Parts {
			if tc, ok := p.(llms.TextContent); ok {
				f.prompts = append(f.prompts, tc.Text)
			}
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: f.reply}}}, nil
}

func (f *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, f, prompt, options...)
}

func planningRequest() domain.DecisionRequest {
	return domain.DecisionRequest{
		Instructions: "Plan repairs.",
		Context: domain.PlanningContext{
			Failures:            []string{"node1"},
			ImpactReport:        map[string]domain.Impact{"node1": {PopulationAffected: 100, Criticality: domain.CriticalityLow}},
			ConversationHistory: []domain.PlanEntry{},
		},
		ToolDescriptions: "get_time_of_day() - bucket",
	}
}

func TestLLM_ReturnsRawCompletion(t *testing.T) {
	reply := `{"thoughts":"go","action":"assign_repair_crew","arguments":{"node_ids":["node1"],"crew_ids":["crew1"]}}`
	model := &fakeModel{reply: reply}
	d := delegate.NewLLM(model)

	got, err := d.Decide(context.Background(), planningRequest())
	require.NoError(t, err)
	assert.Equal(t, reply, got)

	require.Len(t, model.prompts, 1)
	p := model.prompts[0]
	assert.True(t, strings.HasPrefix(p, "Plan repairs."))
	assert.Contains(t, p, "Available Tools:\nget_time_of_day() - bucket")
	assert.Contains(t, p, `"node1"`)

	decision, err := domain.ParseDecision(got)
	require.NoError(t, err)
	assert.Equal(t, domain.ActionAssignRepairCrew, decision.Action)
}

func TestLLM_EmptyCompletionIsExplicitFailure(t *testing.T) {
	d := delegate.NewLLM(&fakeModel{reply: "   "})

	_, err := d.Decide(context.Background(), planningRequest())
	assert.ErrorIs(t, err, domain.ErrEmptyDecision)
}

func TestLLM_ModelErrorIsWrapped(t *testing.T) {
	boom := errors.New("connection refused")
	d := delegate.NewLLM(&fakeModel{err: boom})

	_, err := d.Decide(context.Background(), planningRequest())
	assert.ErrorIs(t, err, boom)
}

func TestLimitContext(t *testing.T) {
	ctx := planningRequest().Context
	for i := 0; i < 50; i++ {
		ctx.ConversationHistory = append(ctx.ConversationHistory, domain.PlanEntry{
			Role:    domain.RoleToolOutput,
			Tool:    "get_time_of_day",
			Message: strings.Repeat("x", 40),
		})
	}
	original := len(ctx.ConversationHistory)

	t.Run("Drops Oldest Until It Fits", func(t *testing.T) {
		got := delegate.LimitContext(ctx, 600)
		assert.Less(t, len(got.ConversationHistory), original)
		assert.Greater(t, len(got.ConversationHistory), 0)
		assert.Equal(t, ctx.ConversationHistory[original-1], got.ConversationHistory[len(got.ConversationHistory)-1])
		assert.Equal(t, ctx.Failures, got.Failures)
	})

	t.Run("Caller Slice Untouched", func(t *testing.T) {
		_ = delegate.LimitContext(ctx, 600)
		assert.Len(t, ctx.ConversationHistory, original)
	})

	t.Run("Disabled", func(t *testing.T) {
		got := delegate.LimitContext(ctx, 0)
		assert.Len(t, got.ConversationHistory, original)
	})

	t.Run("Budget Too Small Empties History", func(t *testing.T) {
		got := delegate.LimitContext(ctx, 10)
		assert.Empty(t, got.ConversationHistory)
		assert.NotNil(t, got.ConversationHistory)
	})
}
