package domain

import (
	"errors"
	"fmt"
)

// ErrEmptyDecision is returned when the delegate produced no output at all.
var ErrEmptyDecision = errors.New("empty decision")

// ErrMalformedDecision is returned when delegate output cannot be read as a decision.
var ErrMalformedDecision = errors.New("malformed decision")

// ErrToolNotFound is returned when an action name is not in the registry.
var ErrToolNotFound = errors.New("tool not found")

// ErrIllegalTransition is returned when a step tries a move the transition table forbids.
var ErrIllegalTransition = errors.New("illegal transition")

// ErrTerminated is returned when stepping a run that already reached FINAL.
var ErrTerminated = errors.New("orchestration already terminated")

// ErrStepBudgetExhausted is returned when Run stops on the step limit before FINAL.
var ErrStepBudgetExhausted = errors.New("step budget exhausted")

// ErrRunNotFound is returned when a run ID is unknown to the manager.
var ErrRunNotFound = errors.New("run not found")

// ErrReportNotFound is returned when a report ID cannot be found in the store.
var ErrReportNotFound = errors.New("report not found")

// CollaboratorError wraps a failure raised by a domain operation or the
// decision delegate. Op names the call ("detect_failure_nodes", "decide", ...).
type CollaboratorError struct {
	Op  string
	Err error
}

func (e *CollaboratorError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *CollaboratorError) Unwrap() error {
	return e.Err
}

// CollaboratorErrorPolicy decides what happens when a collaborator call
// fails while planning.
type CollaboratorErrorPolicy int

const (
	// PolicyPropagate returns the error from Step and leaves the state untouched.
	PolicyPropagate CollaboratorErrorPolicy = iota
	// PolicyCountAsPlanningFailure records delegate and tool errors raised in
	// REPAIR_PLANNING as error plan entries and counts them against the retry budget.
	// Detection, impact and assignment errors still propagate.
	PolicyCountAsPlanningFailure
)

func (p CollaboratorErrorPolicy) String() string {
	switch p {
	case PolicyPropagate:
		return "propagate"
	case PolicyCountAsPlanningFailure:
		return "count_as_planning_failure"
	default:
		return "unknown"
	}
}

// ParseCollaboratorErrorPolicy reverses String. The empty string is PolicyPropagate.
func ParseCollaboratorErrorPolicy(s string) (CollaboratorErrorPolicy, error) {
	switch s {
	case "", PolicyPropagate.String():
		return PolicyPropagate, nil
	case PolicyCountAsPlanningFailure.String():
		return PolicyCountAsPlanningFailure, nil
	default:
		return PolicyPropagate, fmt.Errorf("unknown error policy %q", s)
	}
}
