// Package prompt builds the text handed to a language-model decision delegate.
//
// Every function is pure: inputs in, text out. The composition order is fixed:
// base instructions, then context, then the response format, then the tool list.
package prompt

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aretw0/mender/pkg/domain"
)

// ResponseFormat is the JSON shape the delegate must answer with.
const ResponseFormat = `{
    "thoughts": "<ideas behind the decision>",
    "action": "<tool name>",
    "arguments": {<tool arguments as object>}
}`

// IncludeContext appends the planning context as indented JSON.
func IncludeContext(prompt string, ctx any) (string, error) {
	raw, err := json.MarshalIndent(ctx, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode prompt context: %w", err)
	}
	return section(prompt, "Context", string(raw)), nil
}

// IncludeResponseFormat appends the decision wire format.
func IncludeResponseFormat(prompt string) string {
	return section(prompt, "Response Format", ResponseFormat)
}

// IncludeTools appends the tool descriptions.
func IncludeTools(prompt, toolDescriptions string) string {
	return section(prompt, "Available Tools", toolDescriptions)
}

// Build runs the full pipeline for one decision request.
func Build(req domain.DecisionRequest) (string, error) {
	instructions := req.Instructions
	if strings.TrimSpace(instructions) == "" {
		instructions = ForState(domain.StateRepairPlanning)
	}
	withCtx, err := IncludeContext(instructions, req.Context)
	if err != nil {
		return "", err
	}
	return IncludeTools(IncludeResponseFormat(withCtx), req.ToolDescriptions), nil
}

func section(prompt, title, body string) string {
	var sb strings.Builder
	sb.WriteString(strings.TrimRight(prompt, "\n "))
	sb.WriteString("\n\n")
	sb.WriteString(title)
	sb.WriteString(":\n")
	sb.WriteString(body)
	sb.WriteString("\n")
	return sb.String()
}
