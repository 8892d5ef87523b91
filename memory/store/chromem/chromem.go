// Package chromem implements memory.Store over chromem-go, a pure Go
// embedded vector database. Suitable for local development and tests;
// everything lives in process memory.
package chromem

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	chromem "github.com/philippgille/chromem-go"

	"github.com/lagoonfi/lagoon-go-sdk/memory"
)

// ChromemStore wraps chromem-go. Each user gets an isolated collection.
type ChromemStore struct {
	db          *chromem.DB
	collections map[string]*chromem.Collection
	mu          sync.RWMutex
}

// New creates an in-memory store.
func New() (*ChromemStore, error) {
	return &ChromemStore{
		db:          chromem.NewDB(),
		collections: make(map[string]*chromem.Collection),
	}, nil
}

func (s *ChromemStore) getOrCreateCollection(userID string) (*chromem.Collection, error) {
	s.mu.RLock()
	col, exists := s.collections[userID]
	s.mu.RUnlock()
	if exists {
		return col, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if col, exists := s.collections[userID]; exists {
		return col, nil
	}

	collectionName := fmt.Sprintf("user_%s", userID)
	if userID == "" {
		collectionName = "global"
	}

	// Embeddings are provided by the Manager; no embedding func here.
	col, err := s.db.CreateCollection(collectionName, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}

	s.collections[userID] = col
	return col, nil
}

// Store saves a memory with its embedding.
func (s *ChromemStore) Store(ctx context.Context, mem memory.Memory) error {
	col, err := s.getOrCreateCollection(mem.OwnerID())
	if err != nil {
		return err
	}

	stored, err := serializeMemory(mem)
	if err != nil {
		return fmt.Errorf("serialize memory: %w", err)
	}

	doc := chromem.Document{
		ID:        mem.ID(),
		Content:   stored.ContentJSON,
		Embedding: mem.Embedding(),
		Metadata:  stored.Metadata,
	}
	if err := col.AddDocument(ctx, doc); err != nil {
		return fmt.Errorf("add document: %w", err)
	}
	return nil
}

// Query retrieves memories by vector similarity.
func (s *ChromemStore) Query(ctx context.Context, userID string, embedding []float32, limit int) ([]memory.Memory, error) {
	col, err := s.getOrCreateCollection(userID)
	if err != nil {
		return nil, err
	}

	where := map[string]string{"owner_id": userID}

	// chromem-go requires nResults <= collection size; back off until the
	// query fits or the collection proves empty.
	var results []chromem.Result
	for currentLimit := limit; currentLimit >= 1; currentLimit-- {
		results, err = col.QueryEmbedding(ctx, embedding, currentLimit, where, nil)
		if err == nil {
			break
		}
		if isInsufficientDocsError(err) {
			if currentLimit == 1 {
				return nil, nil
			}
			continue
		}
		return nil, fmt.Errorf("chromem query: %w", err)
	}

	var memories []memory.Memory
	for _, result := range results {
		mem, err := deserializeMemory(result)
		if err != nil {
			continue
		}
		memories = append(memories, mem)
	}
	return memories, nil
}

// Get is not supported: chromem-go has no lookup by ID.
func (s *ChromemStore) Get(ctx context.Context, ownerID string, memoryID string) (memory.Memory, error) {
	return nil, fmt.Errorf("get by ID not supported by the chromem store, use Query")
}

// Delete is a no-op: chromem-go does not expose delete by ID.
func (s *ChromemStore) Delete(ctx context.Context, ownerID string, memoryID string) error {
	return nil
}

// Close releases resources. Everything is in process memory.
func (s *ChromemStore) Close() error {
	return nil
}

type storedMemory struct {
	ContentJSON string
	Metadata    map[string]string
}

func serializeMemory(mem memory.Memory) (*storedMemory, error) {
	contentBytes, err := json.Marshal(mem.Content())
	if err != nil {
		return nil, fmt.Errorf("marshal content: %w", err)
	}

	metadata := map[string]string{
		"type":            mem.Type(),
		"owner_id":        mem.OwnerID(),
		"conversation_id": mem.ConversationID(),
		"created_at":      mem.CreatedAt().Format(time.RFC3339),
	}
	for k, v := range mem.Metadata() {
		if str, ok := v.(string); ok {
			metadata[k] = str
			continue
		}
		if bytes, err := json.Marshal(v); err == nil {
			metadata[k] = string(bytes)
		}
	}

	return &storedMemory{
		ContentJSON: string(contentBytes),
		Metadata:    metadata,
	}, nil
}

func deserializeMemory(result chromem.Result) (memory.Memory, error) {
	switch result.Metadata["type"] {
	case "trace":
		return deserializeTraceMemory(result)
	case "conversation":
		return deserializeConversationMemory(result)
	default:
		return nil, fmt.Errorf("unknown memory type: %s", result.Metadata["type"])
	}
}

func deserializeTraceMemory(result chromem.Result) (*memory.TraceMemory, error) {
	var content map[string]interface{}
	if err := json.Unmarshal([]byte(result.Content), &content); err != nil {
		return nil, fmt.Errorf("unmarshal content: %w", err)
	}

	thought, _ := content["thought"].(string)
	action, _ := content["action"].(string)
	observation, _ := content["observation"].(string)
	success, _ := content["success"].(bool)
	createdAt, _ := time.Parse(time.RFC3339, result.Metadata["created_at"])

	return memory.NewTraceMemoryFromStorage(
		result.ID,
		result.Metadata["owner_id"],
		result.Metadata["conversation_id"],
		createdAt,
		result.Embedding,
		thought,
		action,
		observation,
		success,
		customMetadata(result.Metadata),
	), nil
}

func deserializeConversationMemory(result chromem.Result) (*memory.ConversationMemory, error) {
	var content map[string]interface{}
	if err := json.Unmarshal([]byte(result.Content), &content); err != nil {
		return nil, fmt.Errorf("unmarshal content: %w", err)
	}

	userMessage, _ := content["user_message"].(string)
	assistantResponse, _ := content["assistant_response"].(string)
	createdAt, _ := time.Parse(time.RFC3339, result.Metadata["created_at"])

	return memory.NewConversationMemoryFromStorage(
		result.ID,
		result.Metadata["owner_id"],
		createdAt,
		result.Embedding,
		userMessage,
		assistantResponse,
		customMetadata(result.Metadata),
	), nil
}

func customMetadata(raw map[string]string) map[string]interface{} {
	metadata := make(map[string]interface{})
	for k, v := range raw {
		switch k {
		case "type", "owner_id", "conversation_id", "created_at":
		default:
			metadata[k] = v
		}
	}
	return metadata
}

func isInsufficientDocsError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "nResults must be") || strings.Contains(msg, "number of documents")
}
