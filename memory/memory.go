package memory

import (
	"context"
	"time"

	"github.com/lagoonfi/lagoon-go-sdk/core"
)

// Memory is one stored item. The SDK provides TraceMemory (agent reasoning
// steps) and ConversationMemory (plain exchanges); hosts can define their
// own types with custom content and formatting.
type Memory interface {
	ID() string
	OwnerID() string        // user ID; empty means global
	ConversationID() string // empty when not conversation-specific
	Type() string           // e.g. "trace", "conversation"

	Content() interface{}
	Metadata() map[string]interface{}

	CreatedAt() time.Time

	// Format renders this memory for prompt injection.
	Format(ctx FormatContext) string

	Embedding() []float32
	SetEmbedding([]float32)
}

// FormatContext tells a memory how much room it has and what it is being
// recalled for.
type FormatContext struct {
	UserID    string
	Query     string
	MaxLength int // max characters for this memory's output
}

// Manager orchestrates memory operations. The engine is opinionated about
// WHEN memory runs (retrieve before the loop, record after); the Manager
// decides HOW: what to query, what to keep, and how to format it.
type Manager interface {
	// Retrieve finds memories relevant to the user's message and returns a
	// string ready for prompt injection, or empty when nothing applies.
	Retrieve(ctx context.Context, userID string, userMessage string) (string, error)

	// RecordTraces stores the run's reasoning traces. The Manager filters;
	// not every lookup is worth remembering.
	RecordTraces(ctx context.Context, userID string, traces []*core.Trace) error

	// RecordConversation stores a plain exchange. Captures context that
	// never touched a tool, like stated preferences.
	RecordConversation(ctx context.Context, userID string, userMessage string, assistantResponse string) error
}

// Store is the vector storage backend.
type Store interface {
	// Store saves a memory. The embedding must already be set.
	Store(ctx context.Context, mem Memory) error

	// Query returns memories by vector similarity, highest first.
	Query(ctx context.Context, userID string, embedding []float32, limit int) ([]Memory, error)

	// Get retrieves one memory by ID and owner.
	Get(ctx context.Context, ownerID string, memoryID string) (Memory, error)

	// Delete removes a memory permanently.
	Delete(ctx context.Context, ownerID string, memoryID string) error

	Close() error
}

// Embedder converts text to embedding vectors. It is an implementation
// detail of the Manager; the engine never sees it.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimensions() int
}
