// In file: internal/tools/registry.go
package tools

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Registry holds the executors available to the dispatcher. It is built once
// at startup and is safe for concurrent reads.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]ToolExecutor
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]ToolExecutor)}
}

// Register adds a tool. Names must be unique.
func (r *Registry) Register(tool ToolExecutor) error {
	if tool == nil {
		return errors.New("tool is nil")
	}
	name := tool.Definition().Function.Name
	if name == "" {
		return errors.New("tool name is empty")
	}
	if t := tool.Definition().Function.Parameters.Type; t != "object" {
		return fmt.Errorf("tool %q: parameters must be an object schema, got %q", name, t)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[name]; exists {
		return fmt.Errorf("tool %q already registered", name)
	}
	r.tools[name] = tool
	return nil
}

// Get returns the named tool or a *NotFoundError.
func (r *Registry) Get(name string) (ToolExecutor, error) {
	r.mu.RLock()
	tool, ok := r.tools[name]
	r.mu.RUnlock()
	if !ok {
		return nil, &NotFoundError{Name: name, Available: r.Names()}
	}
	return tool, nil
}

// Definitions returns every tool schema sorted by name.
func (r *Registry) Definitions() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	defs := make([]Tool, 0, len(r.tools))
	for _, tool := range r.tools {
		defs = append(defs, tool.Definition())
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Function.Name < defs[j].Function.Name })
	return defs
}

// Names returns the registered tool names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Count returns the number of registered tools.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}
