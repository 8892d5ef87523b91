package tools_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/lagoonfi/lagoon-go-sdk/core"
	"github.com/lagoonfi/lagoon-go-sdk/tools"
)

func noopHandler(ctx context.Context, params *core.ToolParams) (*core.ToolResult, error) {
	return &core.ToolResult{Success: true}, nil
}

func TestBuilder(t *testing.T) {
	tool := tools.New("open_cdp").
		Description("Open a position").
		Schema(tools.ObjectSchema(map[string]interface{}{
			"asset": tools.StringProperty("asset symbol"),
		}, "asset")).
		RequiresConfirmation("Open a {{.asset}} CDP minting {{.mint_amount}}").
		Handler(noopHandler).
		Build()

	if tool.Name() != "open_cdp" {
		t.Errorf("name = %q", tool.Name())
	}
	if tool.Description() != "Open a position" {
		t.Errorf("description = %q", tool.Description())
	}
	if !tool.RequiresConfirmation() {
		t.Error("RequiresConfirmation = false")
	}

	got := tool.GetSummary(json.RawMessage(`{"asset":"iUSD","mint_amount":"100"}`))
	want := "Open a iUSD CDP minting 100"
	if got != want {
		t.Errorf("summary = %q, want %q", got, want)
	}
}

// A presentation failure never blocks confirmation; the summary degrades to
// the tool name.
func TestBuilder_SummaryFallback(t *testing.T) {
	tool := tools.New("burn_cdp").
		RequiresConfirmation("Burn {{.amount}}").
		Handler(noopHandler).
		Build()

	if got := tool.GetSummary(json.RawMessage(`not json`)); got != "burn_cdp" {
		t.Errorf("summary on bad input = %q, want tool name", got)
	}
}

func TestBuilder_NoTemplateUsesName(t *testing.T) {
	tool := tools.New("get_asset").Handler(noopHandler).Build()

	if got := tool.GetSummary(json.RawMessage(`{"asset":"iUSD"}`)); got != "get_asset" {
		t.Errorf("summary = %q, want tool name", got)
	}
	if tool.RequiresConfirmation() {
		t.Error("read tool requires confirmation")
	}
}

func TestBuilder_PanicsOnMissingHandler(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Build without handler did not panic")
		}
	}()
	tools.New("broken").Build()
}

func TestDefinitions(t *testing.T) {
	catalog := []core.Tool{
		tools.New("a").Handler(noopHandler).Build(),
		tools.New("b").RequiresConfirmation("b summary").Handler(noopHandler).Build(),
	}

	defs := tools.Definitions(catalog)
	if len(defs) != 2 {
		t.Fatalf("got %d definitions", len(defs))
	}
	if defs[0].ToolName != "a" || defs[1].ToolName != "b" {
		t.Errorf("order = %s, %s", defs[0].ToolName, defs[1].ToolName)
	}
	if !defs[1].RequiresUserConfirmation {
		t.Error("definition lost confirmation flag")
	}
}
