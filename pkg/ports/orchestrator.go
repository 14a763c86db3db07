package ports

import (
	"context"

	"github.com/aretw0/mender/pkg/domain"
)

// Orchestrator is one triage run as seen by the drivers that own it: the
// session manager and the HTTP API. *mender.Engine implements it.
type Orchestrator interface {
	// Step advances exactly one step.
	Step(ctx context.Context) error
	// Run steps until FINAL or until the run's step budget is spent.
	Run(ctx context.Context) (domain.Summary, error)
	State() domain.State
	Summary() domain.Summary
	// Report bundles the summary with the exported history.
	Report() *domain.RunReport
}
