package domain

import "sort"

// Criticality is the qualitative severity attached to an impact estimate.
type Criticality string

const (
	CriticalityHigh Criticality = "High"
	CriticalityLow  Criticality = "Low"
)

// Impact is the estimated effect of one failed node.
type Impact struct {
	PopulationAffected int         `json:"population_affected" mapstructure:"population_affected"`
	Criticality        Criticality `json:"criticality" mapstructure:"criticality"`
}

// AssignmentOutcome is the per-node result of a crew dispatch.
type AssignmentOutcome string

const (
	OutcomeAssigned AssignmentOutcome = "Assigned"
	OutcomeFailed   AssignmentOutcome = "Failed"
)

// AssignmentResult is what assign_repair_crew returns.
type AssignmentResult struct {
	Status  string                       `json:"status" mapstructure:"status"`
	Details map[string]AssignmentOutcome `json:"details" mapstructure:"details"`
}

// FailedNodes lists the nodes whose outcome is Failed.
// Ids present in order come first, in that order; any remaining failed ids
// follow in lexical order so the result is deterministic.
func (r *AssignmentResult) FailedNodes(order []string) []string {
	if r == nil {
		return nil
	}
	failed := make([]string, 0)
	seen := make(map[string]bool, len(order))
	for _, id := range order {
		if seen[id] {
			continue
		}
		seen[id] = true
		if r.Details[id] == OutcomeFailed {
			failed = append(failed, id)
		}
	}
	var rest []string
	for id, outcome := range r.Details {
		if !seen[id] && outcome == OutcomeFailed {
			rest = append(rest, id)
		}
	}
	sort.Strings(rest)
	return append(failed, rest...)
}

// Clone returns a deep copy.
func (r *AssignmentResult) Clone() *AssignmentResult {
	if r == nil {
		return nil
	}
	out := &AssignmentResult{Status: r.Status, Details: make(map[string]AssignmentOutcome, len(r.Details))}
	for k, v := range r.Details {
		out.Details[k] = v
	}
	return out
}

// PlanEntry is one item of the rolling log consulted by the planning delegate.
type PlanEntry struct {
	Role    string `json:"role"`
	Tool    string `json:"tool,omitempty"`
	Result  any    `json:"result,omitempty"`
	Message string `json:"message,omitempty"`
}

// WorkingMemory is the mutable scratchpad of one orchestration run.
type WorkingMemory struct {
	Failures        []string          `json:"failures"`
	ImpactReport    map[string]Impact `json:"impact_report"`
	PlanHistory     []PlanEntry       `json:"plan_history"`
	PendingAction   *Decision         `json:"pending_action,omitempty"`
	ExecutionResult *AssignmentResult `json:"execution_result,omitempty"`
}

// NewWorkingMemory returns the empty shape: no failures, no report, no history.
func NewWorkingMemory() WorkingMemory {
	return WorkingMemory{
		Failures:     []string{},
		ImpactReport: map[string]Impact{},
		PlanHistory:  []PlanEntry{},
	}
}

// RecentHistory returns at most window of the newest plan entries.
// The stored history is left untouched; window <= 0 means no limit.
func (m *WorkingMemory) RecentHistory(window int) []PlanEntry {
	h := m.PlanHistory
	if window > 0 && len(h) > window {
		h = h[len(h)-window:]
	}
	out := make([]PlanEntry, len(h))
	copy(out, h)
	return out
}

// Clone returns a deep copy safe to hand outside the orchestrator.
func (m *WorkingMemory) Clone() WorkingMemory {
	out := WorkingMemory{
		Failures:        append([]string(nil), m.Failures...),
		PlanHistory:     append([]PlanEntry(nil), m.PlanHistory...),
		ExecutionResult: m.ExecutionResult.Clone(),
		PendingAction:   m.PendingAction.Clone(),
	}
	if m.Failures != nil && out.Failures == nil {
		out.Failures = []string{}
	}
	if m.PlanHistory != nil && out.PlanHistory == nil {
		out.PlanHistory = []PlanEntry{}
	}
	if m.ImpactReport != nil {
		out.ImpactReport = make(map[string]Impact, len(m.ImpactReport))
		for k, v := range m.ImpactReport {
			out.ImpactReport[k] = v
		}
	}
	return out
}

// PlanningContext is the view of memory handed to the decision delegate.
type PlanningContext struct {
	Failures            []string          `json:"failures"`
	ImpactReport        map[string]Impact `json:"impact_report"`
	ConversationHistory []PlanEntry       `json:"conversation_history"`
}
