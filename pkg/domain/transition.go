package domain

import "time"

// TransitionRecord is one immutable entry of the trace.
// From == To is allowed: tool calls during planning are recorded as self-loops.
type TransitionRecord struct {
	From   State          `json:"from_state"`
	To     State          `json:"to_state"`
	Action string         `json:"action"`
	Data   map[string]any `json:"data"`
	At     time.Time      `json:"at"`
}

// HistoryEntry is the export shape consumed by diagram renderers and APIs.
type HistoryEntry struct {
	FromState string         `json:"from_state"`
	ToState   string         `json:"to_state"`
	Action    string         `json:"action"`
	Data      map[string]any `json:"data"`
}

// ExportHistory converts records into the renderer-facing shape, preserving order.
func ExportHistory(records []TransitionRecord) []HistoryEntry {
	out := make([]HistoryEntry, 0, len(records))
	for _, r := range records {
		data := r.Data
		if data == nil {
			data = map[string]any{}
		}
		out = append(out, HistoryEntry{
			FromState: r.From.String(),
			ToState:   r.To.String(),
			Action:    r.Action,
			Data:      data,
		})
	}
	return out
}
