// Package server exposes the agent over a WebSocket chat endpoint. It is
// the fastest way to put the SDK in front of a UI: create a server, add
// tools, Run.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/gorilla/websocket"

	"github.com/lagoonfi/lagoon-go-sdk/core"
	"github.com/lagoonfi/lagoon-go-sdk/engine"
	"github.com/lagoonfi/lagoon-go-sdk/memory"
)

// Config configures the server.
type Config struct {
	// AnthropicKey is the API key. Required.
	AnthropicKey string

	// SystemPrompt overrides the engine default when set.
	SystemPrompt string

	// Model is the Claude model to use.
	Model string

	// MaxTokens is the maximum response tokens per turn.
	MaxTokens int64

	// Memory optionally enables the memory system.
	Memory memory.Manager

	// MaxTurns bounds the agent loop per message. Defaults to 20.
	MaxTurns int
}

// Server runs the agent behind /ws and reports liveness on /health.
type Server struct {
	cfg      Config
	engine   *engine.Engine
	upgrader websocket.Upgrader
}

// New creates a server with an empty tool registry.
func New(cfg Config) (*Server, error) {
	if cfg.AnthropicKey == "" {
		return nil, fmt.Errorf("server: AnthropicKey is required")
	}
	if cfg.MaxTurns == 0 {
		cfg.MaxTurns = 20
	}

	client := anthropic.NewClient(option.WithAPIKey(cfg.AnthropicKey))

	var opts []engine.Option
	if cfg.Memory != nil {
		opts = append(opts, engine.WithMemory(cfg.Memory))
	}
	eng := engine.NewEngine(&client, engine.NewToolRegistry(), opts...)

	return &Server{
		cfg:    cfg,
		engine: eng,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// The SDK server is for local development; hosts put their own
			// origin policy in front.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}, nil
}

// AddTool registers one tool.
func (s *Server) AddTool(t core.Tool) {
	s.engine.Registry().Register(t)
}

// AddTools registers several tools.
func (s *Server) AddTools(tools ...core.Tool) {
	for _, t := range tools {
		s.engine.Registry().Register(t)
	}
}

// Run serves until the listener fails.
func (s *Server) Run(addr string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/health", s.handleHealth)

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	log.Printf("[SERVER] listening on %s", addr)
	return srv.ListenAndServe()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// clientMessage is what the browser sends.
type clientMessage struct {
	Type           string `json:"type"` // "message" or "confirm"
	Content        string `json:"content,omitempty"`
	UserID         string `json:"user_id,omitempty"`
	ConfirmationID string `json:"confirmation_id,omitempty"`
	Approved       bool   `json:"approved,omitempty"`
}

// serverMessage is what the server sends back.
type serverMessage struct {
	Type           string `json:"type"` // "response", "confirmation_needed", "error"
	Content        string `json:"content,omitempty"`
	ConfirmationID string `json:"confirmation_id,omitempty"`
	Summary        string `json:"summary,omitempty"`
	Tool           string `json:"tool,omitempty"`
	Error          string `json:"error,omitempty"`
}

// connState is per-connection conversation state.
type connState struct {
	userID  string
	history []core.Message
	pending map[string]*core.PendingAction
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[SERVER] upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	state := &connState{pending: make(map[string]*core.PendingAction)}

	for {
		var msg clientMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[SERVER] read failed: %v", err)
			}
			return
		}

		switch msg.Type {
		case "message":
			s.handleUserMessage(r.Context(), conn, state, &msg)
		case "confirm":
			s.handleConfirmation(r.Context(), conn, state, &msg)
		default:
			writeJSON(conn, serverMessage{Type: "error", Error: fmt.Sprintf("unknown message type: %s", msg.Type)})
		}
	}
}

func (s *Server) handleUserMessage(ctx context.Context, conn *websocket.Conn, state *connState, msg *clientMessage) {
	if msg.UserID != "" {
		state.userID = msg.UserID
	}

	output, err := s.engine.Run(ctx, s.engineInput(state, msg.Content))
	if err != nil {
		writeJSON(conn, serverMessage{Type: "error", Error: err.Error()})
		return
	}
	if output.Type == engine.OutputError {
		writeJSON(conn, serverMessage{Type: "error", Error: output.Error.Error()})
		return
	}

	state.history = append(state.history, core.Message{
		Role:    "user",
		Content: []core.ContentBlock{core.NewTextBlock(msg.Content)},
	})
	if len(output.ResponseBlocks) > 0 {
		state.history = append(state.history, core.Message{Role: "assistant", Content: output.ResponseBlocks})
	}

	if output.Type == engine.OutputConfirmationNeeded {
		action := output.PendingAction
		state.pending[action.ID] = action
		writeJSON(conn, serverMessage{
			Type:           "confirmation_needed",
			Content:        output.Text,
			ConfirmationID: action.ID,
			Summary:        action.Summary,
			Tool:           action.Tool,
		})
		return
	}

	writeJSON(conn, serverMessage{Type: "response", Content: output.Text})
}

func (s *Server) handleConfirmation(ctx context.Context, conn *websocket.Conn, state *connState, msg *clientMessage) {
	action, ok := state.pending[msg.ConfirmationID]
	if !ok {
		writeJSON(conn, serverMessage{Type: "error", Error: "unknown or expired confirmation"})
		return
	}
	delete(state.pending, msg.ConfirmationID)

	if time.Now().Unix() > action.ExpiresAt {
		writeJSON(conn, serverMessage{Type: "error", Error: "confirmation expired"})
		return
	}
	if !msg.Approved {
		// Tell the model its draft was declined so it can respond in context.
		state.history = append(state.history, core.Message{
			Role:    "user",
			Content: []core.ContentBlock{core.NewToolResultBlock(action.BlockID, "user declined the operation", true)},
		})
		output, err := s.engine.Run(ctx, s.engineInput(state, ""))
		if err != nil || output.Type == engine.OutputError {
			writeJSON(conn, serverMessage{Type: "response", Content: "Okay, I won't proceed with that."})
			return
		}
		if len(output.ResponseBlocks) > 0 {
			state.history = append(state.history, core.Message{Role: "assistant", Content: output.ResponseBlocks})
		}
		writeJSON(conn, serverMessage{Type: "response", Content: output.Text})
		return
	}

	output, err := s.engine.RunConfirmedAction(ctx, s.engineInput(state, ""), action)
	if err != nil {
		writeJSON(conn, serverMessage{Type: "error", Error: err.Error()})
		return
	}
	if len(output.ResponseBlocks) > 0 {
		state.history = append(state.history, core.Message{Role: "assistant", Content: output.ResponseBlocks})
	}
	writeJSON(conn, serverMessage{Type: "response", Content: output.Text})
}

func (s *Server) engineInput(state *connState, userMessage string) *engine.Input {
	return &engine.Input{
		UserMessage:  userMessage,
		SystemPrompt: s.cfg.SystemPrompt,
		Model:        s.cfg.Model,
		MaxTokens:    s.cfg.MaxTokens,
		History:      state.history,
		Context: &core.Context{
			UserID: state.userID,
			Limits: &core.ExecutionLimits{
				MaxTurns:   s.cfg.MaxTurns,
				CanConfirm: true,
			},
		},
	}
}

func writeJSON(conn *websocket.Conn, msg serverMessage) {
	if err := conn.WriteJSON(msg); err != nil {
		log.Printf("[SERVER] write failed: %v", err)
	}
}
