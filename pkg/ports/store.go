package ports

import (
	"context"

	"github.com/aretw0/mender/pkg/domain"
)

// ReportStore archives the reports of finished runs for later diagnostics.
// It is write-once-per-run storage, not a mechanism to resume orchestration.
type ReportStore interface {
	// Save persists the report for a given run ID, replacing any previous one.
	Save(ctx context.Context, runID string, report *domain.RunReport) error

	// Load retrieves the report for a given run ID.
	// Returns domain.ErrReportNotFound if the run was never archived.
	Load(ctx context.Context, runID string) (*domain.RunReport, error)

	// Delete removes the report for a given run ID.
	Delete(ctx context.Context, runID string) error

	// List returns the archived run IDs.
	List(ctx context.Context) ([]string, error)
}
