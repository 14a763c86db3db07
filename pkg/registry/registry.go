package registry

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/aretw0/mender/pkg/domain"
)

// ToolFunction defines the signature for a tool implementation.
// It receives a context and a map of arguments, and returns a result or error.
type ToolFunction func(ctx context.Context, args map[string]any) (any, error)

type entry struct {
	tool domain.Tool
	fn   ToolFunction
}

// Registry manages the available tools.
// Tools are declared explicitly with their name, parameters and description;
// nothing is derived from function signatures at runtime.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]entry
	order []string
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]entry),
	}
}

// Register adds a tool to the registry.
// If a tool with the same name exists, it is overwritten in place (its position is kept).
func (r *Registry) Register(tool domain.Tool, fn ToolFunction) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[tool.Name]; !exists {
		r.order = append(r.order, tool.Name)
	}
	r.tools[tool.Name] = entry{tool: tool, fn: fn}
}

// Lookup resolves a tool by exact name. The boolean is false for unknown names.
func (r *Registry) Lookup(name string) (ToolFunction, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.tools[name]
	if !ok {
		return nil, false
	}
	return e.fn, true
}

// Execute looks up a tool by name and executes it.
// Returns domain.ErrToolNotFound if the tool is not registered.
func (r *Registry) Execute(ctx context.Context, name string, args map[string]any) (any, error) {
	fn, ok := r.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrToolNotFound, name)
	}
	return fn(ctx, args)
}

// Tools returns the registered tool declarations in registration order.
func (r *Registry) Tools() []domain.Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Tool, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name].tool)
	}
	return out
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Describe renders one "signature - description" line per tool, for prompts.
func (r *Registry) Describe() string {
	tools := r.Tools()
	lines := make([]string, 0, len(tools))
	for _, t := range tools {
		lines = append(lines, fmt.Sprintf("%s - %s", t.Signature(), t.Description))
	}
	return strings.Join(lines, "\n")
}
