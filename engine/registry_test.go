package engine_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/lagoonfi/lagoon-go-sdk/core"
	"github.com/lagoonfi/lagoon-go-sdk/engine"
)

// stubTool is a minimal core.Tool for registry tests.
type stubTool struct {
	name string
}

func (s *stubTool) Name() string                        { return s.name }
func (s *stubTool) Description() string                 { return s.name + " description" }
func (s *stubTool) InputSchema() map[string]interface{} { return nil }
func (s *stubTool) RequiresConfirmation() bool          { return false }
func (s *stubTool) GetSummary(json.RawMessage) string   { return s.name }
func (s *stubTool) Execute(ctx context.Context, params *core.ToolParams) (*core.ToolResult, error) {
	return &core.ToolResult{Success: true}, nil
}

func TestToolRegistry(t *testing.T) {
	r := engine.NewToolRegistry()
	r.Register(&stubTool{name: "get_asset"})
	r.Register(&stubTool{name: "open_cdp"})

	if _, ok := r.Get("get_asset"); !ok {
		t.Error("registered tool not found")
	}
	if _, ok := r.Get("missing"); ok {
		t.Error("unregistered tool found")
	}

	names := r.Names()
	if len(names) != 2 || names[0] != "get_asset" || names[1] != "open_cdp" {
		t.Errorf("names = %v, want registration order", names)
	}
}

// Re-registering a name replaces the tool without duplicating the order
// entry.
func TestToolRegistry_ReplaceKeepsOrder(t *testing.T) {
	r := engine.NewToolRegistry()
	r.Register(&stubTool{name: "a"})
	r.Register(&stubTool{name: "b"})
	r.Register(&stubTool{name: "a"})

	names := r.Names()
	if len(names) != 2 {
		t.Fatalf("names = %v, want 2 entries", names)
	}
}

func TestToolRegistry_ToAPITools(t *testing.T) {
	r := engine.NewToolRegistry()
	r.RegisterAll([]core.Tool{
		&stubTool{name: "get_asset"},
		&stubTool{name: "open_cdp"},
	})

	apiTools := r.ToAPITools()
	if len(apiTools) != 2 {
		t.Fatalf("got %d API tools", len(apiTools))
	}
	if apiTools[0].OfTool == nil || apiTools[0].OfTool.Name != "get_asset" {
		t.Errorf("first API tool = %+v", apiTools[0])
	}

	filtered := r.ToAPIToolsFiltered(engine.FilterByNames("open_cdp"))
	if len(filtered) != 1 || filtered[0].OfTool.Name != "open_cdp" {
		t.Errorf("filtered tools = %d", len(filtered))
	}
}
