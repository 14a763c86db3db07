package domain

// Summary is a read-only snapshot of an orchestration run.
type Summary struct {
	RunID           string            `json:"run_id,omitempty"`
	State           string            `json:"state"`
	Transitions     int               `json:"total_transitions"`
	Failures        []string          `json:"failures"`
	ExecutionResult *AssignmentResult `json:"execution_result,omitempty"`
	RetryCount      int               `json:"retry_count"`
	Steps           int               `json:"steps"`
}

// Done reports whether the run reached the terminal state.
func (s Summary) Done() bool {
	return s.State == StateFinal.String()
}

// RunReport is the archived outcome of a finished run.
type RunReport struct {
	Summary Summary        `json:"summary"`
	History []HistoryEntry `json:"history"`
}
