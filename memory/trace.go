package memory

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lagoonfi/lagoon-go-sdk/core"
)

// TraceMemory stores one thought-action-observation step so the agent can
// learn from past protocol interactions: which drafts were confirmed, which
// preconditions failed, what a health analysis concluded.
type TraceMemory struct {
	id             string
	ownerID        string
	conversationID string
	createdAt      time.Time
	embedding      []float32
	importance     float64
	metadata       map[string]interface{}

	Thought     string
	Action      string
	Observation string
	Success     bool
}

// NewTraceMemory creates a TraceMemory from a core.Trace.
func NewTraceMemory(ownerID string, conversationID string, trace *core.Trace) *TraceMemory {
	metadata := map[string]interface{}{
		"action":  trace.Action,
		"success": trace.Success,
	}
	for k, v := range trace.Metadata {
		metadata[k] = v
	}

	return &TraceMemory{
		id:             uuid.New().String(),
		ownerID:        ownerID,
		conversationID: conversationID,
		createdAt:      time.Now(),
		importance:     assessTraceImportance(trace),
		metadata:       metadata,
		Thought:        trace.Thought,
		Action:         trace.Action,
		Observation:    trace.Observation,
		Success:        trace.Success,
	}
}

// NewTraceMemoryFromStorage rebuilds a TraceMemory from stored fields. Used
// by Store implementations when deserializing.
func NewTraceMemoryFromStorage(
	id string,
	ownerID string,
	conversationID string,
	createdAt time.Time,
	embedding []float32,
	thought string,
	action string,
	observation string,
	success bool,
	metadata map[string]interface{},
) *TraceMemory {
	return &TraceMemory{
		id:             id,
		ownerID:        ownerID,
		conversationID: conversationID,
		createdAt:      createdAt,
		embedding:      embedding,
		importance:     0.5,
		metadata:       metadata,
		Thought:        thought,
		Action:         action,
		Observation:    observation,
		Success:        success,
	}
}

func (t *TraceMemory) ID() string             { return t.id }
func (t *TraceMemory) OwnerID() string        { return t.ownerID }
func (t *TraceMemory) ConversationID() string { return t.conversationID }
func (t *TraceMemory) Type() string           { return "trace" }

func (t *TraceMemory) Content() interface{} {
	return map[string]interface{}{
		"thought":     t.Thought,
		"action":      t.Action,
		"observation": t.Observation,
		"success":     t.Success,
	}
}

func (t *TraceMemory) Metadata() map[string]interface{} { return t.metadata }
func (t *TraceMemory) CreatedAt() time.Time             { return t.createdAt }
func (t *TraceMemory) Embedding() []float32             { return t.embedding }
func (t *TraceMemory) SetEmbedding(emb []float32)       { t.embedding = emb }

// Format renders the trace for prompt injection: status, action, and as
// much of the thought and observation as the length budget allows.
func (t *TraceMemory) Format(ctx FormatContext) string {
	var parts []string

	status := "Success"
	if !t.Success {
		status = "Failed"
	}
	parts = append(parts, fmt.Sprintf("[%s] %s", status, t.Action))

	if len(t.Thought) > 0 {
		parts = append(parts, fmt.Sprintf("  Thought: %q", truncate(t.Thought, ctx.MaxLength/4)))
	}
	if len(t.Observation) > 0 {
		parts = append(parts, fmt.Sprintf("  Observation: %q", truncate(t.Observation, ctx.MaxLength/2)))
	}
	if !t.Success {
		if prevention, ok := t.metadata["prevention"]; ok {
			parts = append(parts, fmt.Sprintf("  Prevention: %s", prevention))
		}
	}

	return strings.Join(parts, "\n")
}

// FormatForEmbedding returns the text the Manager embeds for this trace.
func (t *TraceMemory) FormatForEmbedding() string {
	return fmt.Sprintf("Thought: %s\nAction: %s\nObservation: %s",
		t.Thought, t.Action, t.Observation)
}

// Importance returns the retrieval priority score.
func (t *TraceMemory) Importance() float64 {
	return t.importance
}

// assessTraceImportance scores a trace in [0.0, 1.0]. Confirmed drafts and
// failures matter most; routine reads start at the base.
func assessTraceImportance(trace *core.Trace) float64 {
	importance := 0.5

	if !trace.Success {
		importance += 0.3
	}
	if trace.Metadata != nil && trace.Metadata["confirmed"] == "true" {
		importance += 0.2
	}
	if len(trace.Thought) > 50 {
		importance += 0.1
	}

	if importance > 1.0 {
		importance = 1.0
	}
	return importance
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen < 3 {
		return "..."
	}
	return s[:maxLen-3] + "..."
}
