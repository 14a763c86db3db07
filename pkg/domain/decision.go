package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// Decision is the structured output of the planning delegate.
// Thoughts is informational only.
type Decision struct {
	Thoughts  string         `json:"thoughts,omitempty" mapstructure:"thoughts"`
	Action    string         `json:"action" mapstructure:"action"`
	Arguments map[string]any `json:"arguments" mapstructure:"arguments"`
}

// DecisionRequest is everything a delegate gets to choose the next action.
type DecisionRequest struct {
	Instructions     string          `json:"instructions"`
	Context          PlanningContext `json:"context"`
	ToolDescriptions string          `json:"tool_descriptions"`
}

// Clone returns a deep-enough copy (arguments map is copied one level).
func (d *Decision) Clone() *Decision {
	if d == nil {
		return nil
	}
	out := *d
	if d.Arguments != nil {
		out.Arguments = make(map[string]any, len(d.Arguments))
		for k, v := range d.Arguments {
			out.Arguments[k] = v
		}
	}
	return &out
}

// ParseDecision normalizes whatever a delegate returned into a Decision.
// Text (string, []byte, json.RawMessage) must hold the JSON wire shape
// {"thoughts", "action", "arguments"}; maps are decoded field by field.
// Blank text yields ErrEmptyDecision. Anything that does not carry an
// action name yields ErrMalformedDecision.
func ParseDecision(raw any) (*Decision, error) {
	switch v := raw.(type) {
	case nil:
		return nil, ErrEmptyDecision
	case *Decision:
		if v == nil {
			return nil, ErrEmptyDecision
		}
		return validateDecision(v.Clone())
	case Decision:
		return validateDecision(v.Clone())
	case string:
		return parseDecisionText([]byte(v))
	case []byte:
		return parseDecisionText(v)
	case json.RawMessage:
		return parseDecisionText(v)
	case map[string]any:
		var d Decision
		if err := mapstructure.Decode(v, &d); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedDecision, err)
		}
		return validateDecision(&d)
	default:
		return nil, fmt.Errorf("%w: unsupported response type %T", ErrMalformedDecision, raw)
	}
}

func parseDecisionText(text []byte) (*Decision, error) {
	text = bytes.TrimSpace(text)
	if len(text) == 0 {
		return nil, ErrEmptyDecision
	}
	var d Decision
	if err := json.Unmarshal(text, &d); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDecision, err)
	}
	return validateDecision(&d)
}

func validateDecision(d *Decision) (*Decision, error) {
	d.Action = strings.TrimSpace(d.Action)
	if d.Action == "" {
		return nil, fmt.Errorf("%w: missing action", ErrMalformedDecision)
	}
	if d.Arguments == nil {
		d.Arguments = map[string]any{}
	}
	return d, nil
}

// AssignmentArgs are the arguments of an assign_repair_crew decision.
type AssignmentArgs struct {
	NodeIDs []string `mapstructure:"node_ids"`
	CrewIDs []string `mapstructure:"crew_ids"`
}

// DecodeAssignment reads assign_repair_crew arguments. Both lists must be
// present and non-empty; extra keys are ignored.
func DecodeAssignment(args map[string]any) (nodeIDs, crewIDs []string, err error) {
	var a AssignmentArgs
	if err := mapstructure.WeakDecode(args, &a); err != nil {
		return nil, nil, fmt.Errorf("invalid tool arguments: %w", err)
	}
	if len(a.NodeIDs) == 0 {
		return nil, nil, fmt.Errorf("node_ids is empty")
	}
	if len(a.CrewIDs) == 0 {
		return nil, nil, fmt.Errorf("crew_ids is empty")
	}
	return a.NodeIDs, a.CrewIDs, nil
}
