package memory

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ConversationMemory stores a plain exchange between the user and the
// agent. It captures context that never touched a tool, like "treat my CDPs
// as long-term positions" or a stated risk tolerance.
type ConversationMemory struct {
	id        string
	ownerID   string
	createdAt time.Time
	embedding []float32
	metadata  map[string]interface{}

	UserMessage       string
	AssistantResponse string
}

// NewConversationMemory creates a ConversationMemory for one exchange.
func NewConversationMemory(ownerID, userMessage, assistantResponse string) *ConversationMemory {
	return &ConversationMemory{
		id:                uuid.New().String(),
		ownerID:           ownerID,
		createdAt:         time.Now(),
		metadata:          map[string]interface{}{},
		UserMessage:       userMessage,
		AssistantResponse: assistantResponse,
	}
}

// NewConversationMemoryFromStorage rebuilds a ConversationMemory from
// stored fields.
func NewConversationMemoryFromStorage(
	id string,
	ownerID string,
	createdAt time.Time,
	embedding []float32,
	userMessage string,
	assistantResponse string,
	metadata map[string]interface{},
) *ConversationMemory {
	return &ConversationMemory{
		id:                id,
		ownerID:           ownerID,
		createdAt:         createdAt,
		embedding:         embedding,
		metadata:          metadata,
		UserMessage:       userMessage,
		AssistantResponse: assistantResponse,
	}
}

func (c *ConversationMemory) ID() string             { return c.id }
func (c *ConversationMemory) OwnerID() string        { return c.ownerID }
func (c *ConversationMemory) ConversationID() string { return "" }
func (c *ConversationMemory) Type() string           { return "conversation" }

func (c *ConversationMemory) Content() interface{} {
	return map[string]interface{}{
		"user_message":       c.UserMessage,
		"assistant_response": c.AssistantResponse,
	}
}

func (c *ConversationMemory) Metadata() map[string]interface{} { return c.metadata }
func (c *ConversationMemory) CreatedAt() time.Time             { return c.createdAt }
func (c *ConversationMemory) Embedding() []float32             { return c.embedding }
func (c *ConversationMemory) SetEmbedding(emb []float32)       { c.embedding = emb }

// Format renders the exchange for prompt injection.
func (c *ConversationMemory) Format(ctx FormatContext) string {
	half := ctx.MaxLength / 2
	if c.UserMessage == "" {
		return fmt.Sprintf("[Exchange] Assistant: %q", truncate(c.AssistantResponse, half))
	}
	return fmt.Sprintf("[Exchange] User: %q / Assistant: %q",
		truncate(c.UserMessage, half), truncate(c.AssistantResponse, half))
}

// FormatForEmbedding returns the text the Manager embeds for this exchange.
func (c *ConversationMemory) FormatForEmbedding() string {
	return fmt.Sprintf("User: %s\nAssistant: %s", c.UserMessage, c.AssistantResponse)
}
