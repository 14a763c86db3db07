package tui_test

import (
	"bytes"
	"testing"

	"github.com/aretw0/mender/internal/presentation/tui"
	"github.com/aretw0/mender/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportMarkdown(t *testing.T) {
	report := &domain.RunReport{
		Summary: domain.Summary{
			RunID:       "r1",
			State:       "FINAL",
			Transitions: 2,
			Failures:    []string{"node1"},
			ExecutionResult: &domain.AssignmentResult{
				Status:  "completed",
				Details: map[string]domain.AssignmentOutcome{"node1": domain.OutcomeAssigned},
			},
		},
		History: []domain.HistoryEntry{
			{FromState: "INIT", ToState: "FAILURE_DETECTION", Action: domain.TagInitialize},
			{FromState: "FAILURE_DETECTION", ToState: "FINAL", Action: domain.TagNoFailuresDetected},
		},
	}

	md := tui.ReportMarkdown(report)

	assert.Contains(t, md, "# Triage run `r1`")
	assert.Contains(t, md, "- **State:** FINAL")
	assert.Contains(t, md, "- **Failures:** node1")
	assert.Contains(t, md, "| node1 | Assigned |")
	assert.Contains(t, md, "| 2 | FAILURE_DETECTION | FINAL | no_failures_detected |")
}

func TestReportMarkdown_NoFailures(t *testing.T) {
	md := tui.ReportMarkdown(&domain.RunReport{Summary: domain.Summary{State: "FINAL"}})
	assert.Contains(t, md, "- **Failures:** none")
	assert.NotContains(t, md, "## Assignments")
	assert.NotContains(t, md, "## Transitions")
}

func TestPlainRenderer(t *testing.T) {
	render := tui.NewRenderer(true)
	out, err := render("# title")
	require.NoError(t, err)
	assert.Equal(t, "# title", out)
}

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	tui.PrintBanner(&buf)
	assert.Contains(t, buf.String(), "|_| |_| |_|")
}
