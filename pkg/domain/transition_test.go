package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExportHistory(t *testing.T) {
	records := []TransitionRecord{
		{From: StateInit, To: StateFailureDetection, Action: TagInitialize},
		{From: StateFailureDetection, To: StateImpactAnalysis, Action: "failures_detected",
			Data: map[string]any{"failures": []string{"node1"}}},
	}

	got := ExportHistory(records)

	assert.Equal(t, []HistoryEntry{
		{FromState: "INIT", ToState: "FAILURE_DETECTION", Action: "initialize", Data: map[string]any{}},
		{FromState: "FAILURE_DETECTION", ToState: "IMPACT_ANALYSIS", Action: "failures_detected",
			Data: map[string]any{"failures": []string{"node1"}}},
	}, got)
	assert.Empty(t, ExportHistory(nil))
	assert.NotNil(t, ExportHistory(nil))
}
