package core

import (
	"encoding/json"
	"fmt"
)

// Trace records one ReAct step: the agent's thought, the action it took and
// what it observed. Traces feed the audit log and the memory subsystem.
type Trace struct {
	ID          string            `json:"id"`
	SessionID   string            `json:"session_id"`
	TurnNumber  int               `json:"turn_number"`
	Thought     string            `json:"thought,omitempty"`
	Action      string            `json:"action"`
	ActionInput json.RawMessage   `json:"action_input,omitempty"`
	Observation string            `json:"observation"`
	Success     bool              `json:"success"`
	Timestamp   int64             `json:"timestamp"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// String renders a single-line trace for logging.
func (t *Trace) String() string {
	status := "ok"
	if !t.Success {
		status = "failed"
	}
	if t.Thought != "" {
		return fmt.Sprintf("turn=%d action=%s status=%s thought=%q obs=%q",
			t.TurnNumber, t.Action, status, t.Thought, t.Observation)
	}
	return fmt.Sprintf("turn=%d action=%s status=%s obs=%q",
		t.TurnNumber, t.Action, status, t.Observation)
}

// PendingAction is a draft operation awaiting user confirmation.
type PendingAction struct {
	ID             string          `json:"id"`
	IdempotencyKey string          `json:"idempotency_key"`
	SessionID      string          `json:"session_id"`
	UserID         string          `json:"user_id"`
	Tool           string          `json:"tool"`
	Input          json.RawMessage `json:"input"`
	Thought        string          `json:"thought,omitempty"`
	Summary        string          `json:"summary"`
	BlockID        string          `json:"block_id"`
	CreatedAt      int64           `json:"created_at"`
	ExpiresAt      int64           `json:"expires_at"`
}
