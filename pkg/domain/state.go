package domain

import (
	"fmt"
)

// State is a phase of the triage lifecycle.
// The set is closed: the zero value is Init and Final is the only sink.
type State int

const (
	StateInit State = iota
	StateFailureDetection
	StateImpactAnalysis
	StateRepairPlanning
	StateExecution
	StateRescheduling
	StateFinal
)

var stateNames = [...]string{
	StateInit:             "INIT",
	StateFailureDetection: "FAILURE_DETECTION",
	StateImpactAnalysis:   "IMPACT_ANALYSIS",
	StateRepairPlanning:   "REPAIR_PLANNING",
	StateExecution:        "EXECUTION",
	StateRescheduling:     "RESCHEDULING",
	StateFinal:            "FINAL",
}

// States returns every state in lifecycle order.
func States() []State {
	return []State{
		StateInit,
		StateFailureDetection,
		StateImpactAnalysis,
		StateRepairPlanning,
		StateExecution,
		StateRescheduling,
		StateFinal,
	}
}

// String returns the canonical upper-case name (e.g. "REPAIR_PLANNING").
func (s State) String() string {
	if !s.Valid() {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateNames[s]
}

// Valid reports whether s is one of the declared states.
func (s State) Valid() bool {
	return s >= StateInit && s <= StateFinal
}

// Terminal reports whether no transition may leave s.
func (s State) Terminal() bool {
	return s == StateFinal
}

// ParseState resolves a canonical state name.
func ParseState(name string) (State, error) {
	for i, n := range stateNames {
		if n == name {
			return State(i), nil
		}
	}
	return StateInit, fmt.Errorf("unknown state %q", name)
}

// MarshalText encodes the state by name so JSON and YAML payloads stay readable.
func (s State) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid state %d", int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText decodes a state name.
func (s *State) UnmarshalText(text []byte) error {
	parsed, err := ParseState(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
