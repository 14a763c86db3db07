package graph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/aretw0/mender/pkg/domain"
)

// Overlay highlights the state a live run is currently in.
type Overlay struct {
	CurrentState string
}

// GenerateMermaid renders an exported history as a Mermaid flowchart.
//
// Each distinct state becomes one node, in first-seen order; FINAL is drawn
// as a stadium with the finalState class. Each entry becomes one edge
// labelled with the short action name and the notable data it carried.
func GenerateMermaid(history []domain.HistoryEntry, overlay *Overlay) string {
	if len(history) == 0 {
		return "graph TD\n    Start[No execution history]"
	}

	lines := []string{"graph TD"}
	seen := make(map[string]bool)
	declare := func(state string) {
		if seen[state] {
			return
		}
		seen[state] = true
		id := sanitizeMermaidID(state)
		if state == domain.StateFinal.String() {
			lines = append(lines, fmt.Sprintf("    %s([%s])", id, state))
			return
		}
		lines = append(lines, fmt.Sprintf("    %s[%s]", id, state))
	}

	for _, h := range history {
		declare(h.FromState)
		declare(h.ToState)
		lines = append(lines, fmt.Sprintf("    %s -->|%s| %s",
			sanitizeMermaidID(h.FromState), edgeLabel(h.Action, h.Data), sanitizeMermaidID(h.ToState)))
	}

	lines = append(lines,
		"",
		"    classDef finalState fill:#90EE90,stroke:#2E8B57,stroke-width:3px",
		"    class FINAL finalState",
	)
	if overlay != nil && overlay.CurrentState != "" && overlay.CurrentState != domain.StateFinal.String() {
		lines = append(lines,
			"    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000",
			fmt.Sprintf("    class %s current", sanitizeMermaidID(overlay.CurrentState)),
		)
	}
	return strings.Join(lines, "\n")
}

// GenerateFromRecords is GenerateMermaid over raw transition records.
func GenerateFromRecords(records []domain.TransitionRecord, overlay *Overlay) string {
	return GenerateMermaid(domain.ExportHistory(records), overlay)
}

func edgeLabel(action string, data map[string]any) string {
	short := strings.ReplaceAll(strings.TrimPrefix(action, "llm_decision_"), "_", " ")

	var details []string
	if failures := toStrings(data[domain.KeyFailures]); len(failures) > 0 {
		details = append(details, "failures: "+strings.Join(failures, ", "))
	}
	if fresh := toStrings(data[domain.KeyNewFailures]); len(fresh) > 0 {
		details = append(details, "new: "+strings.Join(fresh, ", "))
	}
	if d, ok := decisionOf(data[domain.KeyDecision]); ok {
		if nodes := toStrings(d.Arguments["node_ids"]); len(nodes) > 0 {
			details = append(details, "nodes: "+strings.Join(nodes, ", "))
		}
	}
	if assigned := assignedNodes(data[domain.KeyDetails]); len(assigned) > 0 {
		details = append(details, "assigned: "+strings.Join(assigned, ", "))
	}

	label := short
	if len(details) > 0 {
		label = short + "<br/>" + strings.Join(details, ", ")
	}
	// A pipe would close the edge label early.
	return strings.ReplaceAll(label, "|", "/")
}

// toStrings accepts the typed slices the orchestrator records as well as
// the []any produced by a JSON round trip.
func toStrings(v any) []string {
	switch s := v.(type) {
	case []string:
		return s
	case []any:
		out := make([]string, 0, len(s))
		for _, item := range s {
			out = append(out, fmt.Sprint(item))
		}
		return out
	default:
		return nil
	}
}

func decisionOf(v any) (domain.Decision, bool) {
	switch d := v.(type) {
	case domain.Decision:
		return d, true
	case *domain.Decision:
		if d == nil {
			return domain.Decision{}, false
		}
		return *d, true
	case map[string]any:
		var out domain.Decision
		if err := mapstructure.Decode(d, &out); err != nil {
			return domain.Decision{}, false
		}
		return out, true
	default:
		return domain.Decision{}, false
	}
}

func assignedNodes(v any) []string {
	var assigned []string
	switch d := v.(type) {
	case map[string]domain.AssignmentOutcome:
		for node, outcome := range d {
			if outcome == domain.OutcomeAssigned {
				assigned = append(assigned, node)
			}
		}
	case map[string]any:
		for node, outcome := range d {
			if fmt.Sprint(outcome) == string(domain.OutcomeAssigned) {
				assigned = append(assigned, node)
			}
		}
	}
	sort.Strings(assigned)
	return assigned
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}
