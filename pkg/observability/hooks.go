package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/mender/pkg/domain"
)

// LoggingHooks logs every lifecycle event at Debug, and planning failures at Warn.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTransition: func(ctx context.Context, e *domain.TransitionEvent) {
			logger.DebugContext(ctx, "transition_event",
				"run_id", e.RunID,
				"from", e.Record.From.String(),
				"to", e.Record.To.String(),
				"action", e.Record.Action,
			)
		},
		OnToolCall: func(ctx context.Context, e *domain.ToolEvent) {
			logger.DebugContext(ctx, "tool_call", "run_id", e.RunID, "tool_name", e.ToolName)
		},
		OnToolReturn: func(ctx context.Context, e *domain.ToolEvent) {
			logger.DebugContext(ctx, "tool_return",
				"run_id", e.RunID,
				"tool_name", e.ToolName,
				"is_error", e.IsError,
				"duration", e.Duration,
			)
		},
		OnPlanningFailure: func(ctx context.Context, e *domain.PlanningFailureEvent) {
			logger.WarnContext(ctx, "planning_failure",
				"run_id", e.RunID,
				"reason", e.Reason,
				"retry_count", e.RetryCount,
			)
		},
	}
}

// Combine fans each event out to every hook set, in order.
func Combine(sets ...domain.LifecycleHooks) domain.LifecycleHooks {
	var out domain.LifecycleHooks
	for _, h := range sets {
		if h.OnTransition != nil {
			prev, next := out.OnTransition, h.OnTransition
			out.OnTransition = func(ctx context.Context, e *domain.TransitionEvent) {
				if prev != nil {
					prev(ctx, e)
				}
				next(ctx, e)
			}
		}
		if h.OnToolCall != nil {
			prev, next := out.OnToolCall, h.OnToolCall
			out.OnToolCall = func(ctx context.Context, e *domain.ToolEvent) {
				if prev != nil {
					prev(ctx, e)
				}
				next(ctx, e)
			}
		}
		if h.OnToolReturn != nil {
			prev, next := out.OnToolReturn, h.OnToolReturn
			out.OnToolReturn = func(ctx context.Context, e *domain.ToolEvent) {
				if prev != nil {
					prev(ctx, e)
				}
				next(ctx, e)
			}
		}
		if h.OnPlanningFailure != nil {
			prev, next := out.OnPlanningFailure, h.OnPlanningFailure
			out.OnPlanningFailure = func(ctx context.Context, e *domain.PlanningFailureEvent) {
				if prev != nil {
					prev(ctx, e)
				}
				next(ctx, e)
			}
		}
	}
	return out
}
