package ports

import (
	"context"

	"github.com/aretw0/mender/pkg/domain"
)

// DecisionDelegate chooses the next planning action.
//
// The returned value is either a structured decision (domain.Decision,
// *domain.Decision, map[string]any) or raw text carrying the JSON wire shape.
// Implementations must return domain.ErrEmptyDecision (or an empty string)
// rather than inventing a no-op when they have nothing to say.
type DecisionDelegate interface {
	Decide(ctx context.Context, req domain.DecisionRequest) (any, error)
}

// DecisionFunc adapts an ordinary function to DecisionDelegate.
type DecisionFunc func(ctx context.Context, req domain.DecisionRequest) (any, error)

// Decide calls f.
func (f DecisionFunc) Decide(ctx context.Context, req domain.DecisionRequest) (any, error) {
	return f(ctx, req)
}
