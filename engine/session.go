package engine

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/google/uuid"
	"github.com/lagoonfi/lagoon-go-sdk/core"
)

// Session accumulates the message history and traces of one agent run.
type Session struct {
	ID             string
	UserID         string
	ConversationID string
	TurnCount      int
	Traces         []*core.Trace

	messages []anthropic.MessageParam
}

// NewSession creates a session with a fresh ID.
func NewSession(userID, conversationID string) *Session {
	return &Session{
		ID:             uuid.New().String(),
		UserID:         userID,
		ConversationID: conversationID,
	}
}

// Messages returns the conversation in API shape.
func (s *Session) Messages() []anthropic.MessageParam {
	return s.messages
}

func (s *Session) IncrementTurnCount() {
	s.TurnCount++
}

// AddTrace records one reasoning/action/observation step.
func (s *Session) AddTrace(t *core.Trace) {
	s.Traces = append(s.Traces, t)
}

// AddUserMessage appends a plain-text user message.
func (s *Session) AddUserMessage(text string) {
	s.messages = append(s.messages, anthropic.NewUserMessage(anthropic.NewTextBlock(text)))
}

// AddAssistantMessage appends a plain-text assistant message.
func (s *Session) AddAssistantMessage(text string) {
	s.messages = append(s.messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(text)))
}

// AddAssistantResponse appends a full API response, preserving tool_use
// blocks.
func (s *Session) AddAssistantResponse(resp *anthropic.Message) {
	s.messages = append(s.messages, resp.ToParam())
}

// AddToolResults appends tool results as a user message, the shape the API
// expects for the next turn.
func (s *Session) AddToolResults(results []anthropic.ContentBlockParamUnion) {
	s.messages = append(s.messages, anthropic.NewUserMessage(results...))
}

// RestoreHistory rebuilds the API message list from persisted messages.
// Unknown block types are dropped.
func (s *Session) RestoreHistory(history []core.Message) {
	for _, msg := range history {
		var blocks []anthropic.ContentBlockParamUnion
		for _, block := range msg.Content {
			switch block.Type {
			case "text":
				blocks = append(blocks, anthropic.NewTextBlock(block.Text))
			case "tool_use":
				var input interface{}
				if len(block.Input) > 0 {
					if err := json.Unmarshal(block.Input, &input); err != nil {
						continue
					}
				}
				blocks = append(blocks, anthropic.NewToolUseBlock(block.ID, input, block.Name))
			case "tool_result":
				blocks = append(blocks, anthropic.NewToolResultBlock(block.ToolUseID, block.Result, block.IsError))
			}
		}
		if len(blocks) == 0 {
			continue
		}
		if msg.Role == "assistant" {
			s.messages = append(s.messages, anthropic.NewAssistantMessage(blocks...))
		} else {
			s.messages = append(s.messages, anthropic.NewUserMessage(blocks...))
		}
	}
}

// GenerateIdempotencyKey derives a stable key for a pending action so a
// repeated confirmation of the same request cannot draft twice.
func GenerateIdempotencyKey(userID, tool string, input json.RawMessage) string {
	h := sha256.New()
	h.Write([]byte(userID))
	h.Write([]byte{0})
	h.Write([]byte(tool))
	h.Write([]byte{0})
	h.Write(input)
	return hex.EncodeToString(h.Sum(nil))[:32]
}
