package memory

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/lagoonfi/lagoon-go-sdk/core"
)

// SimpleManager is the SDK-provided Manager. It embeds with the configured
// Embedder, stores in the configured Store, and keeps the traces that carry
// signal: confirmed drafts, failures, health analyses, and anything with
// substantive reasoning.
//
// Hosts that need fact extraction or contradiction resolution implement
// Manager themselves.
type SimpleManager struct {
	store    Store
	embedder Embedder
	config   *Config
}

// NewSimpleManager creates a SimpleManager. A nil config uses DefaultConfig.
func NewSimpleManager(store Store, embedder Embedder, config *Config) *SimpleManager {
	if config == nil {
		config = DefaultConfig
	}
	return &SimpleManager{store: store, embedder: embedder, config: config}
}

// Retrieve finds relevant memories and returns them formatted for prompt
// injection.
func (m *SimpleManager) Retrieve(ctx context.Context, userID string, userMessage string) (string, error) {
	if !m.config.Enabled {
		return "", nil
	}

	embedding, err := m.embedder.Embed(ctx, userMessage)
	if err != nil {
		return "", fmt.Errorf("embed query: %w", err)
	}

	memories, err := m.store.Query(ctx, userID, embedding, m.config.RetrievalLimit)
	if err != nil {
		return "", fmt.Errorf("query store: %w", err)
	}
	if len(memories) == 0 {
		return "", nil
	}

	return m.formatMemories(memories, userID, userMessage), nil
}

// RecordTraces stores the traces worth keeping.
func (m *SimpleManager) RecordTraces(ctx context.Context, userID string, traces []*core.Trace) error {
	if !m.config.Enabled {
		return nil
	}

	storable := m.filterStorableTraces(traces)
	if len(storable) == 0 {
		return nil
	}

	for i, trace := range storable {
		mem := NewTraceMemory(userID, trace.SessionID, trace)

		embedding, err := m.embedder.Embed(ctx, mem.FormatForEmbedding())
		if err != nil {
			log.Printf("[MEMORY] failed to embed trace #%d: %v", i+1, err)
			continue
		}
		mem.SetEmbedding(embedding)

		if err := m.store.Store(ctx, mem); err != nil {
			log.Printf("[MEMORY] failed to store trace #%d: %v", i+1, err)
		}
	}
	return nil
}

// RecordConversation stores an exchange when it looks substantive enough to
// matter later.
func (m *SimpleManager) RecordConversation(ctx context.Context, userID string, userMessage string, assistantResponse string) error {
	if !m.config.Enabled {
		return nil
	}
	// Short exchanges carry no durable context.
	if len(userMessage)+len(assistantResponse) < m.config.MinConversationLength {
		return nil
	}

	mem := NewConversationMemory(userID, userMessage, assistantResponse)
	embedding, err := m.embedder.Embed(ctx, mem.FormatForEmbedding())
	if err != nil {
		return fmt.Errorf("embed conversation: %w", err)
	}
	mem.SetEmbedding(embedding)

	return m.store.Store(ctx, mem)
}

// formatMemories renders retrieved memories under a shared length budget.
func (m *SimpleManager) formatMemories(memories []Memory, userID string, query string) string {
	if len(memories) == 0 {
		return ""
	}

	parts := []string{"=== RELEVANT PAST ACTIVITY ===\n"}

	maxLengthPerMemory := 2000 / len(memories)
	if maxLengthPerMemory < 100 {
		maxLengthPerMemory = 100
	}

	for i, mem := range memories {
		formatted := mem.Format(FormatContext{
			UserID:    userID,
			Query:     query,
			MaxLength: maxLengthPerMemory,
		})
		parts = append(parts, fmt.Sprintf("%d. %s\n", i+1, formatted))
	}

	return strings.Join(parts, "\n")
}

// filterStorableTraces selects the traces worth keeping.
func (m *SimpleManager) filterStorableTraces(traces []*core.Trace) []*core.Trace {
	// Multi-step runs are kept whole; the sequence is the signal.
	if len(traces) > 1 {
		return traces
	}
	if len(traces) == 0 {
		return nil
	}

	trace := traces[0]

	// Failures teach the agent what to check first next time.
	if !trace.Success {
		return traces
	}

	// Confirmed drafts are the highest-value actions.
	if trace.Metadata != nil && trace.Metadata["confirmed"] == "true" {
		return traces
	}

	// Analyses and position listings carry durable portfolio context.
	switch trace.Action {
	case "analyze_cdp_health", "get_cdps", "get_redemption_positions", "get_staking_position":
		return traces
	}

	// Substantive reasoning is worth keeping even on a routine read.
	if len(trace.Thought) > 30 {
		return traces
	}

	// Skip trivial lookups like a single price check.
	return nil
}

// Config holds SimpleManager settings.
type Config struct {
	// Enabled toggles the memory system. Off by default; hosts opt in.
	Enabled bool

	// RetrievalLimit caps memories returned per query.
	RetrievalLimit int

	// MinConversationLength is the combined message length below which an
	// exchange is not stored.
	MinConversationLength int

	// MaxMemoriesPerUser caps total memories per user.
	MaxMemoriesPerUser int
}

// DefaultConfig is the SDK default.
var DefaultConfig = &Config{
	Enabled:               false,
	RetrievalLimit:        10,
	MinConversationLength: 40,
	MaxMemoriesPerUser:    1000,
}
