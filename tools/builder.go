package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"

	"github.com/lagoonfi/lagoon-go-sdk/core"
)

// Handler executes one tool invocation.
type Handler func(ctx context.Context, params *core.ToolParams) (*core.ToolResult, error)

// Builder assembles a core.Tool fluently:
//
//	tool := tools.New("get_asset").
//		Description("Look up one listed asset.").
//		Schema(tools.BuildSchemaWithThought(props, false, "asset")).
//		Handler(h).
//		Build()
type Builder struct {
	def     core.ToolDefinition
	handler Handler
}

// New starts a builder for the named tool.
func New(name string) *Builder {
	return &Builder{def: core.ToolDefinition{ToolName: name}}
}

// Description sets the description shown to the model.
func (b *Builder) Description(d string) *Builder {
	b.def.ToolDescription = d
	return b
}

// Schema sets the JSON input schema.
func (b *Builder) Schema(s map[string]interface{}) *Builder {
	b.def.InputSchema = s
	return b
}

// RequiresConfirmation marks the tool as needing user approval and sets the
// summary template rendered for the confirmation prompt. Template fields
// refer to the raw JSON input, e.g. "Open a {{.asset}} CDP".
func (b *Builder) RequiresConfirmation(summaryTemplate string) *Builder {
	b.def.RequiresUserConfirmation = true
	b.def.SummaryTemplate = summaryTemplate
	return b
}

// Handler sets the execution function.
func (b *Builder) Handler(h Handler) *Builder {
	b.handler = h
	return b
}

// Build returns the finished tool. Panics on a missing name or handler: both
// are programming errors in the catalog, not runtime conditions.
func (b *Builder) Build() core.Tool {
	if b.def.ToolName == "" {
		panic("tools: Build called without a name")
	}
	if b.handler == nil {
		panic(fmt.Sprintf("tools: tool %s built without a handler", b.def.ToolName))
	}
	t := &builtTool{def: b.def, handler: b.handler}
	if b.def.SummaryTemplate != "" {
		tpl, err := template.New(b.def.ToolName).Parse(b.def.SummaryTemplate)
		if err != nil {
			panic(fmt.Sprintf("tools: tool %s has a bad summary template: %v", b.def.ToolName, err))
		}
		t.summary = tpl
	}
	return t
}

type builtTool struct {
	def     core.ToolDefinition
	handler Handler
	summary *template.Template
}

func (t *builtTool) Name() string                        { return t.def.ToolName }
func (t *builtTool) Description() string                 { return t.def.ToolDescription }
func (t *builtTool) InputSchema() map[string]interface{} { return t.def.InputSchema }
func (t *builtTool) RequiresConfirmation() bool          { return t.def.RequiresUserConfirmation }

// GetSummary renders the summary template against the raw input. A template
// or JSON failure falls back to the tool name so confirmation is never
// blocked on a presentation problem.
func (t *builtTool) GetSummary(input json.RawMessage) string {
	if t.summary == nil {
		return t.def.ToolName
	}
	var data map[string]interface{}
	if err := json.Unmarshal(input, &data); err != nil {
		return t.def.ToolName
	}
	var sb strings.Builder
	if err := t.summary.Execute(&sb, data); err != nil {
		return t.def.ToolName
	}
	return sb.String()
}

func (t *builtTool) Execute(ctx context.Context, params *core.ToolParams) (*core.ToolResult, error) {
	return t.handler(ctx, params)
}

// Definitions extracts the declarative definitions from built tools, in
// catalog order.
func Definitions(tools []core.Tool) []core.ToolDefinition {
	defs := make([]core.ToolDefinition, 0, len(tools))
	for _, t := range tools {
		if bt, ok := t.(*builtTool); ok {
			defs = append(defs, bt.def)
			continue
		}
		defs = append(defs, core.ToolDefinition{
			ToolName:                 t.Name(),
			ToolDescription:          t.Description(),
			InputSchema:              t.InputSchema(),
			RequiresUserConfirmation: t.RequiresConfirmation(),
		})
	}
	return defs
}
