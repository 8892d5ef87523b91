package core

import (
	"context"
	"encoding/json"
)

// Tool is a single capability the agent can invoke. Implementations are
// usually produced by the tools package builder; the engine only sees this
// interface.
type Tool interface {
	Name() string
	Description() string
	InputSchema() map[string]interface{}

	// RequiresConfirmation reports whether the tool drafts a state-changing
	// transaction and therefore needs explicit user approval before running.
	RequiresConfirmation() bool

	// GetSummary renders a short human-readable summary of an invocation,
	// shown to the user when confirmation is requested.
	GetSummary(input json.RawMessage) string

	Execute(ctx context.Context, params *ToolParams) (*ToolResult, error)
}

// ToolParams carries the per-invocation inputs to a tool.
type ToolParams struct {
	// UserID identifies the requesting user for namespacing and audit.
	UserID string

	// Input is the raw JSON arguments produced by the model.
	Input json.RawMessage

	// ConfirmationID is set when this call resumes a confirmed action.
	ConfirmationID string

	// RequestID correlates the invocation with its session.
	RequestID string
}

// ToolResult is the uniform result envelope every tool returns. Failures are
// reported through Success=false and Error; tools never panic or propagate
// raw errors past this boundary on a bad request.
type ToolResult struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// ToolDefinition describes a tool declaratively. Catalog packages return
// definitions; the builder turns them into Tool instances.
type ToolDefinition struct {
	ToolName                 string
	ToolDescription          string
	InputSchema              map[string]interface{}
	RequiresUserConfirmation bool
	SummaryTemplate          string
}

// ToolExecution records one tool invocation for the engine's output.
type ToolExecution struct {
	Tool       string      `json:"tool"`
	Input      interface{} `json:"input"`
	Result     interface{} `json:"result,omitempty"`
	Error      string      `json:"error,omitempty"`
	DurationMs int64       `json:"duration_ms"`
}

// TokenUsage tracks model token consumption for a run.
type TokenUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}
