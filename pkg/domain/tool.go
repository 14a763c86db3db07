package domain

import (
	"fmt"
	"strings"
)

// Param describes one named argument of a tool.
type Param struct {
	Name        string `json:"name" yaml:"name" mapstructure:"name"`
	Type        string `json:"type" yaml:"type" mapstructure:"type"` // e.g. "string", "list[string]"
	Description string `json:"description,omitempty" yaml:"description,omitempty" mapstructure:"description"`
	Required    bool   `json:"required,omitempty" yaml:"required,omitempty" mapstructure:"required"`
}

// Tool is the static registration entry for a callable operation.
// It is what the planning prompt lists; the implementation lives in the registry.
type Tool struct {
	Name        string  `json:"name" yaml:"name" mapstructure:"name"`
	Description string  `json:"description" yaml:"description" mapstructure:"description"`
	Parameters  []Param `json:"parameters,omitempty" yaml:"parameters,omitempty" mapstructure:"parameters"`
}

// Signature renders "name(param: type, ...)".
func (t Tool) Signature() string {
	parts := make([]string, 0, len(t.Parameters))
	for _, p := range t.Parameters {
		s := fmt.Sprintf("%s: %s", p.Name, p.Type)
		if !p.Required {
			s += " = None"
		}
		parts = append(parts, s)
	}
	return fmt.Sprintf("%s(%s)", t.Name, strings.Join(parts, ", "))
}
