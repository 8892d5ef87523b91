package engine

import (
	"sync"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/lagoonfi/lagoon-go-sdk/core"
)

// ToolRegistry holds the tools available to the engine, keyed by name.
// Registration order is preserved for the API tool list.
type ToolRegistry struct {
	mu    sync.RWMutex
	tools map[string]core.Tool
	order []string
}

// NewToolRegistry creates an empty registry.
func NewToolRegistry() *ToolRegistry {
	return &ToolRegistry{tools: make(map[string]core.Tool)}
}

// Register adds a tool, replacing any previous tool with the same name.
func (r *ToolRegistry) Register(t core.Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[t.Name()]; !exists {
		r.order = append(r.order, t.Name())
	}
	r.tools[t.Name()] = t
}

// RegisterAll adds every tool in the slice.
func (r *ToolRegistry) RegisterAll(tools []core.Tool) {
	for _, t := range tools {
		r.Register(t)
	}
}

// Get returns the named tool.
func (r *ToolRegistry) Get(name string) (core.Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// Names returns the registered tool names in registration order.
func (r *ToolRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// Filter selects a subset of tools for one run.
type Filter func(core.Tool) bool

// FilterByNames keeps only the named tools.
func FilterByNames(names ...string) Filter {
	allowed := make(map[string]bool, len(names))
	for _, n := range names {
		allowed[n] = true
	}
	return func(t core.Tool) bool { return allowed[t.Name()] }
}

// ToAPITools converts every registered tool to the Anthropic API shape.
func (r *ToolRegistry) ToAPITools() []anthropic.ToolUnionParam {
	return r.ToAPIToolsFiltered(func(core.Tool) bool { return true })
}

// ToAPIToolsFiltered converts the tools passing the filter.
func (r *ToolRegistry) ToAPIToolsFiltered(keep Filter) []anthropic.ToolUnionParam {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]anthropic.ToolUnionParam, 0, len(r.order))
	for _, name := range r.order {
		t := r.tools[name]
		if !keep(t) {
			continue
		}
		out = append(out, toAPITool(t))
	}
	return out
}

func toAPITool(t core.Tool) anthropic.ToolUnionParam {
	schema := t.InputSchema()
	in := anthropic.ToolInputSchemaParam{}
	if props, ok := schema["properties"]; ok {
		in.Properties = props
	}
	switch req := schema["required"].(type) {
	case []string:
		in.Required = req
	case []interface{}:
		for _, item := range req {
			if s, ok := item.(string); ok {
				in.Required = append(in.Required, s)
			}
		}
	}
	return anthropic.ToolUnionParam{
		OfTool: &anthropic.ToolParam{
			Name:        t.Name(),
			Description: anthropic.String(t.Description()),
			InputSchema: in,
		},
	}
}
