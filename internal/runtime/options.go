package runtime

import (
	"log/slog"
	"time"

	"github.com/aretw0/mender/pkg/domain"
	"github.com/aretw0/mender/pkg/registry"
)

// Defaults applied by NewOrchestrator.
const (
	DefaultMaxRetries    = 3
	DefaultMaxSteps      = 10
	DefaultHistoryWindow = 10
)

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithRegistry sets the tools the planner may call by name.
func WithRegistry(r *registry.Registry) Option {
	return func(o *Orchestrator) {
		o.registry = r
	}
}

// WithMaxRetries sets how many consecutive planning failures end the run.
func WithMaxRetries(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.maxRetries = n
		}
	}
}

// WithMaxSteps bounds a single Run call.
func WithMaxSteps(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.maxSteps = n
		}
	}
}

// WithHistoryWindow sets how many recent plan entries the delegate sees.
func WithHistoryWindow(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.historyWindow = n
		}
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(o *Orchestrator) {
		o.hooks = hooks
	}
}

// WithInstructions replaces the role text handed to the delegate.
func WithInstructions(text string) Option {
	return func(o *Orchestrator) {
		o.instructions = text
	}
}

// WithStepTimeout bounds every collaborator call. Zero leaves only the caller's context.
func WithStepTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		o.stepTimeout = d
	}
}

// WithCollaboratorErrorPolicy chooses how planning-time collaborator errors are handled.
func WithCollaboratorErrorPolicy(p domain.CollaboratorErrorPolicy) Option {
	return func(o *Orchestrator) {
		o.errorPolicy = p
	}
}

// WithClock overrides time.Now for transition timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
	}
}

// WithRunID labels the run in summaries, events and logs.
func WithRunID(id string) Option {
	return func(o *Orchestrator) {
		o.runID = id
	}
}
