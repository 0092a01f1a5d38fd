// Package tools holds the text-in/text-out capabilities a reasoning agent may call.
package tools

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrDuplicateTool is returned when two tools share a name.
var ErrDuplicateTool = errors.New("duplicate tool name")

// Tool is a named capability. Invoke never fails: every failure is encoded
// in the returned text so the reasoning loop can observe it.
type Tool interface {
	Name() string
	Description() string
	Invoke(ctx context.Context, input string) string
}

// Registry is the static set of tools available to agents.
type Registry struct {
	tools  []Tool
	byName map[string]Tool
}

// NewRegistry indexes tools by name, preserving registration order.
func NewRegistry(tools ...Tool) (*Registry, error) {
	r := &Registry{byName: make(map[string]Tool, len(tools))}
	for _, t := range tools {
		name := t.Name()
		if _, exists := r.byName[name]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateTool, name)
		}
		r.byName[name] = t
		r.tools = append(r.tools, t)
	}
	return r, nil
}

// Lookup resolves a tool by exact name, then case-insensitively.
func (r *Registry) Lookup(name string) (Tool, bool) {
	name = strings.TrimSpace(name)
	if t, ok := r.byName[name]; ok {
		return t, true
	}
	for _, t := range r.tools {
		if strings.EqualFold(t.Name(), name) {
			return t, true
		}
	}
	return nil, false
}

// Names lists tool names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.tools))
	for _, t := range r.tools {
		names = append(names, t.Name())
	}
	return names
}

// Describe renders "Name: description" lines for prompts.
func (r *Registry) Describe() string {
	var b strings.Builder
	for i, t := range r.tools {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(t.Name())
		b.WriteString(": ")
		b.WriteString(t.Description())
	}
	return b.String()
}

// Len returns the number of registered tools.
func (r *Registry) Len() int { return len(r.tools) }

// Func adapts a plain function into a Tool. Errors and panics are rendered as
// "<name> failed: <reason>".
type Func struct {
	ToolName        string
	ToolDescription string
	Fn              func(ctx context.Context, input string) (string, error)
}

func (f Func) Name() string        { return f.ToolName }
func (f Func) Description() string { return f.ToolDescription }

func (f Func) Invoke(ctx context.Context, input string) string {
	return contain(ctx, f.ToolName, input, f.Fn, func(err error) string {
		return fmt.Sprintf("%s failed: %v", f.ToolName, err)
	})
}

// contain runs fn, converting errors and panics into text and recording the outcome.
func contain(ctx context.Context, name, input string, fn func(context.Context, string) (string, error), render func(error) string) (out string) {
	defer func() {
		if r := recover(); r != nil {
			recordInvocation(name, statusPanic)
			out = render(fmt.Errorf("panic: %v", r))
		}
	}()
	result, err := fn(ctx, input)
	if err != nil {
		recordInvocation(name, statusError)
		return render(err)
	}
	recordInvocation(name, statusOK)
	return result
}

// sortedKeys is used for deterministic error messages.
func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
