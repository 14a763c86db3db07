package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aretw0/mender/pkg/domain"
)

// ReportMarkdown formats a run report as markdown for terminal rendering.
func ReportMarkdown(r *domain.RunReport) string {
	var sb strings.Builder
	s := r.Summary

	sb.WriteString("# Triage run")
	if s.RunID != "" {
		fmt.Fprintf(&sb, " `%s`", s.RunID)
	}
	sb.WriteString("\n\n")

	fmt.Fprintf(&sb, "- **State:** %s\n", s.State)
	fmt.Fprintf(&sb, "- **Transitions:** %d\n", s.Transitions)
	fmt.Fprintf(&sb, "- **Steps:** %d\n", s.Steps)
	fmt.Fprintf(&sb, "- **Retries:** %d\n", s.RetryCount)
	if len(s.Failures) > 0 {
		fmt.Fprintf(&sb, "- **Failures:** %s\n", strings.Join(s.Failures, ", "))
	} else {
		sb.WriteString("- **Failures:** none\n")
	}

	if s.ExecutionResult != nil && len(s.ExecutionResult.Details) > 0 {
		sb.WriteString("\n## Assignments\n\n| Node | Outcome |\n|---|---|\n")
		nodes := make([]string, 0, len(s.ExecutionResult.Details))
		for n := range s.ExecutionResult.Details {
			nodes = append(nodes, n)
		}
		sort.Strings(nodes)
		for _, n := range nodes {
			fmt.Fprintf(&sb, "| %s | %s |\n", n, s.ExecutionResult.Details[n])
		}
	}

	if len(r.History) > 0 {
		sb.WriteString("\n## Transitions\n\n| # | From | To | Action |\n|---|---|---|---|\n")
		for i, h := range r.History {
			fmt.Fprintf(&sb, "| %d | %s | %s | %s |\n", i+1, h.FromState, h.ToState, h.Action)
		}
	}
	return sb.String()
}
