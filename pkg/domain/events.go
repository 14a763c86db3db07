package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventTransition      EventType = "transition"
	EventToolCall        EventType = "tool_call"
	EventToolReturn      EventType = "tool_return"
	EventPlanningFailure EventType = "planning_failure"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	RunID     string    `json:"run_id,omitempty"`
}

// TransitionEvent is emitted after a record is appended to the history.
type TransitionEvent struct {
	EventBase
	Record TransitionRecord `json:"record"`
}

// ToolEvent represents a tool execution during planning.
type ToolEvent struct {
	EventBase
	ToolName string        `json:"tool_name"`
	Input    any           `json:"input,omitempty"`
	Output   any           `json:"output,omitempty"`
	IsError  bool          `json:"is_error,omitempty"`
	Duration time.Duration `json:"duration,omitempty"`
}

// PlanningFailureEvent is emitted each time a planning step fails.
type PlanningFailureEvent struct {
	EventBase
	Reason     string `json:"reason"`
	RetryCount int    `json:"retry_count"`
}

// LifecycleHooks defines callbacks for orchestrator observability.
// Every field is optional.
type LifecycleHooks struct {
	OnTransition      func(context.Context, *TransitionEvent)
	OnToolCall        func(context.Context, *ToolEvent)
	OnToolReturn      func(context.Context, *ToolEvent)
	OnPlanningFailure func(context.Context, *PlanningFailureEvent)
}
