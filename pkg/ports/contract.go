package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/mender/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func contractReport(runID string) *domain.RunReport {
	return &domain.RunReport{
		Summary: domain.Summary{
			RunID:       runID,
			State:       domain.StateFinal.String(),
			Transitions: 2,
			Failures:    []string{"node-1"},
			ExecutionResult: &domain.AssignmentResult{
				Status:  "completed",
				Details: map[string]domain.AssignmentOutcome{"node-1": domain.OutcomeAssigned},
			},
		},
		History: []domain.HistoryEntry{
			{FromState: "INIT", ToState: "FAILURE_DETECTION", Action: domain.TagInitialize, Data: map[string]any{}},
			{FromState: "FAILURE_DETECTION", ToState: "FINAL", Action: domain.TagNoFailuresDetected, Data: map[string]any{}},
		},
	}
}

// RunReportStoreContract runs a suite of tests to verify that a ReportStore implementation
// adheres to the defined interface contract.
func RunReportStoreContract(t *testing.T, store ReportStore) {
	ctx := context.Background()
	runID := "contract-test-run-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		report := contractReport(runID)

		err := store.Save(ctx, runID, report)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, runID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, report.Summary.State, loaded.Summary.State)
		assert.Equal(t, report.Summary.Failures, loaded.Summary.Failures)
		assert.Equal(t, domain.OutcomeAssigned, loaded.Summary.ExecutionResult.Details["node-1"])
		require.Len(t, loaded.History, 2)
		assert.Equal(t, domain.TagNoFailuresDetected, loaded.History[1].Action)
	})

	t.Run("Load Returns Copy", func(t *testing.T) {
		loaded, err := store.Load(ctx, runID)
		require.NoError(t, err)
		loaded.Summary.Failures[0] = "mutated"

		again, err := store.Load(ctx, runID)
		require.NoError(t, err)
		assert.Equal(t, "node-1", again.Summary.Failures[0])
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+runID)
		assert.ErrorIs(t, err, domain.ErrReportNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		err := store.Save(ctx, runID, contractReport(runID))
		require.NoError(t, err)

		err = store.Delete(ctx, runID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, runID)
		assert.ErrorIs(t, err, domain.ErrReportNotFound, "Load after Delete should return ErrReportNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := runID + "-1"
		id2 := runID + "-2"
		_ = store.Save(ctx, id1, contractReport(id1))
		_ = store.Save(ctx, id2, contractReport(id2))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		runs, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, runs, id1)
		assert.Contains(t, runs, id2)
	})
}
