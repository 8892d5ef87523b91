package engine

import (
	"context"
	"encoding/json"
)

// AuditEntry records one tool invocation for compliance review. Draft
// operations are flagged with IsWriteOp.
type AuditEntry struct {
	ID         string          `json:"id"`
	UserID     string          `json:"user_id"`
	SessionID  string          `json:"session_id"`
	RequestID  string          `json:"request_id"`
	ParentID   *string         `json:"parent_id,omitempty"`
	AgentName  string          `json:"agent_name"`
	ToolName   string          `json:"tool_name"`
	ToolInput  json.RawMessage `json:"tool_input,omitempty"`
	ToolOutput json.RawMessage `json:"tool_output,omitempty"`
	Error      *string         `json:"error,omitempty"`
	DurationMs int64           `json:"duration_ms"`
	IsWriteOp  bool            `json:"is_write_op"`
	Timestamp  int64           `json:"timestamp"`
}

// AuditLogger persists audit entries. Implementations should not block the
// agent loop; drop or buffer on backpressure.
type AuditLogger interface {
	Log(ctx context.Context, entry *AuditEntry)
}
