package core

import "time"

// BaseInput provides common fields for all tool inputs.
// Tools embed this struct to automatically include ReAct thought support.
type BaseInput struct {
	// Thought contains the agent's reasoning about why it's using this tool.
	// Optional for read operations, required for draft operations.
	Thought string `json:"thought,omitempty"`
}

// Context carries user identity and execution limits into an agent run.
type Context struct {
	UserID         string
	ConversationID string
	Limits         *ExecutionLimits

	// AuditParentID links this run's audit entries to a parent request.
	AuditParentID *string
}

// ExecutionLimits bounds a single agent run.
type ExecutionLimits struct {
	MaxTurns   int
	MaxTokens  int64
	CanConfirm bool
	Timeout    time.Duration
}
