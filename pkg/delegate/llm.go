package delegate

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aretw0/mender/internal/logging"
	"github.com/aretw0/mender/internal/prompt"
	"github.com/aretw0/mender/pkg/domain"
	"github.com/tmc/langchaingo/llms"
)

// DefaultMaxContextChars bounds the encoded planning context sent to the model.
const DefaultMaxContextChars = 2000

// LLM is a decision delegate backed by a langchaingo model.
// It renders the prompt pipeline, trims the conversation history until the
// context fits, and returns the raw completion for the orchestrator to parse.
type LLM struct {
	model           llms.Model
	maxContextChars int
	temperature     float64
	logger          *slog.Logger
}

// LLMOption configures an LLM delegate.
type LLMOption func(*LLM)

// WithMaxContextChars sets the context budget in characters (<= 0 disables trimming).
func WithMaxContextChars(n int) LLMOption {
	return func(l *LLM) {
		l.maxContextChars = n
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) LLMOption {
	return func(l *LLM) {
		l.temperature = t
	}
}

// WithLogger sets a structured logger.
func WithLogger(logger *slog.Logger) LLMOption {
	return func(l *LLM) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// NewLLM wraps a langchaingo model.
func NewLLM(model llms.Model, opts ...LLMOption) *LLM {
	l := &LLM{
		model:           model,
		maxContextChars: DefaultMaxContextChars,
		logger:          logging.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Decide asks the model for the next action.
// A blank completion is reported as domain.ErrEmptyDecision.
func (l *LLM) Decide(ctx context.Context, req domain.DecisionRequest) (any, error) {
	req.Context = LimitContext(req.Context, l.maxContextChars)

	text, err := prompt.Build(req)
	if err != nil {
		return nil, err
	}

	completion, err := llms.GenerateFromSinglePrompt(ctx, l.model, text, llms.WithTemperature(l.temperature))
	if err != nil {
		return nil, fmt.Errorf("llm generation failed: %w", err)
	}
	l.logger.Debug("Raw LLM response", "response", completion)

	if strings.TrimSpace(completion) == "" {
		return nil, domain.ErrEmptyDecision
	}
	return completion, nil
}

// LimitContext drops the oldest conversation entries until the JSON form of
// the context fits in maxChars. Failures and the impact report are never cut.
func LimitContext(ctx domain.PlanningContext, maxChars int) domain.PlanningContext {
	if maxChars <= 0 || encodedLen(ctx) <= maxChars {
		return ctx
	}
	history := ctx.ConversationHistory
	for len(history) > 0 {
		history = history[1:]
		ctx.ConversationHistory = history
		if encodedLen(ctx) <= maxChars {
			break
		}
	}
	if ctx.ConversationHistory == nil {
		ctx.ConversationHistory = []domain.PlanEntry{}
	}
	return ctx
}

func encodedLen(v any) int {
	raw, err := json.Marshal(v)
	if err != nil {
		return 0
	}
	return len(raw)
}
