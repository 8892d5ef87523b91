package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/google/uuid"
	"github.com/lagoonfi/lagoon-go-sdk/core"
	"github.com/lagoonfi/lagoon-go-sdk/memory"
)

// Engine runs the agent loop: call the model, execute the tools it asks
// for, feed results back, and stop when the model answers in text or a
// draft needs user confirmation.
type Engine struct {
	client     *anthropic.Client
	registry   *ToolRegistry
	guardrails Guardrails     // optional
	audit      AuditLogger    // optional
	memory     memory.Manager // optional
}

// Option configures the engine.
type Option func(*Engine)

// WithGuardrails sets the per-user rate limiting implementation.
func WithGuardrails(g Guardrails) Option {
	return func(e *Engine) { e.guardrails = g }
}

// WithAudit sets the audit logger.
func WithAudit(a AuditLogger) Option {
	return func(e *Engine) { e.audit = a }
}

// WithMemory sets the memory manager used to enrich prompts and record
// traces.
func WithMemory(m memory.Manager) Option {
	return func(e *Engine) { e.memory = m }
}

// NewEngine creates an engine over the given Anthropic client and registry.
func NewEngine(client *anthropic.Client, registry *ToolRegistry, opts ...Option) *Engine {
	e := &Engine{client: client, registry: registry}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Registry returns the engine's tool registry.
func (e *Engine) Registry() *ToolRegistry {
	return e.registry
}

// Input is one agent run request.
type Input struct {
	// UserMessage is the user's message to process.
	UserMessage string

	// Context carries user identity and execution limits.
	Context *core.Context

	// History contains previous messages in the conversation.
	History []core.Message

	// SystemPrompt overrides DefaultSystemPrompt when set.
	SystemPrompt string

	// Model is the Claude model to use.
	Model string

	// MaxTokens is the maximum response tokens.
	MaxTokens int64

	// AgentName identifies the agent for audit logging.
	AgentName string

	// AvailableTools restricts the registry for this run. Empty means all.
	AvailableTools []string

	// StreamCallback receives text chunks when streaming.
	StreamCallback func(chunk string, done bool)
}

// Output is the result of an agent run.
type Output struct {
	Type OutputType

	// Text is the agent's final text response.
	Text string

	// PendingAction is set when Type is OutputConfirmationNeeded.
	PendingAction *core.PendingAction

	// ToolsUsed records every tool invoked during the run.
	ToolsUsed []core.ToolExecution

	// ResponseBlocks holds the full response for persistence.
	ResponseBlocks []core.ContentBlock

	// TokensUsed tracks model token consumption.
	TokensUsed core.TokenUsage

	// Error is set when Type is OutputError.
	Error error
}

// OutputType indicates how a run ended.
type OutputType int

const (
	// OutputComplete indicates the agent finished with a text answer.
	OutputComplete OutputType = iota

	// OutputConfirmationNeeded indicates a draft awaits user approval.
	OutputConfirmationNeeded

	// OutputError indicates the run failed.
	OutputError
)

const defaultModel = "claude-sonnet-4-20250514"

// Run executes the agent loop until completion or a draft needs
// confirmation. Drafting tools are never executed inside Run; they surface
// as a PendingAction for the caller to confirm.
func (e *Engine) Run(ctx context.Context, input *Input) (*Output, error) {
	if e.guardrails != nil && input.Context != nil {
		check, err := e.guardrails.Check(ctx, input.Context.UserID)
		if err != nil {
			return &Output{Type: OutputError, Error: fmt.Errorf("guardrails check failed: %w", err)}, nil
		}
		if !check.Allowed {
			return &Output{Type: OutputError, Error: fmt.Errorf("request blocked by guardrails: %s", check.Warning)}, nil
		}
	}

	var enrichment string
	if e.memory != nil && input.UserMessage != "" && input.Context != nil {
		var err error
		enrichment, err = e.memory.Retrieve(ctx, input.Context.UserID, input.UserMessage)
		if err != nil {
			log.Printf("[MEMORY] retrieval failed: %v", err)
			enrichment = "" // non-fatal
		}
	}

	model := input.Model
	if model == "" {
		model = defaultModel
	}
	maxTokens := input.MaxTokens
	if maxTokens == 0 {
		maxTokens = 4096
	}
	systemPrompt := input.SystemPrompt
	if systemPrompt == "" {
		systemPrompt = DefaultSystemPrompt
	}
	if enrichment != "" {
		systemPrompt += "\n\n" + enrichment
	}

	maxTurns := 20
	canConfirm := true
	if input.Context != nil && input.Context.Limits != nil {
		maxTurns = input.Context.Limits.MaxTurns
		canConfirm = input.Context.Limits.CanConfirm
		if input.Context.Limits.Timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, input.Context.Limits.Timeout)
			defer cancel()
		}
	}

	userID := ""
	conversationID := ""
	if input.Context != nil {
		userID = input.Context.UserID
		conversationID = input.Context.ConversationID
	}
	session := NewSession(userID, conversationID)
	session.RestoreHistory(input.History)
	if input.UserMessage != "" {
		session.AddUserMessage(input.UserMessage)
	}

	var apiTools []anthropic.ToolUnionParam
	if len(input.AvailableTools) > 0 {
		apiTools = e.registry.ToAPIToolsFiltered(FilterByNames(input.AvailableTools...))
	} else {
		apiTools = e.registry.ToAPITools()
	}

	agentName := input.AgentName
	if agentName == "" {
		agentName = "default"
	}
	var auditParentID *string
	if input.Context != nil {
		auditParentID = input.Context.AuditParentID
	}

	var totalTokens core.TokenUsage

	for {
		if ctx.Err() != nil {
			return &Output{
				Type:       OutputError,
				Error:      fmt.Errorf("timed out: %w", ctx.Err()),
				TokensUsed: totalTokens,
			}, nil
		}
		if session.TurnCount >= maxTurns {
			return &Output{
				Type:       OutputError,
				Error:      fmt.Errorf("exceeded maximum turns (%d)", maxTurns),
				TokensUsed: totalTokens,
			}, nil
		}
		session.IncrementTurnCount()

		params := anthropic.MessageNewParams{
			Model:     anthropic.Model(model),
			MaxTokens: maxTokens,
			Messages:  session.Messages(),
			System:    []anthropic.TextBlockParam{{Text: systemPrompt}},
		}
		if len(apiTools) > 0 {
			params.Tools = apiTools
		}

		var resp *anthropic.Message
		var err error
		if input.StreamCallback != nil {
			resp, err = e.createMessageStreaming(ctx, params, input.StreamCallback)
		} else {
			resp, err = e.client.Messages.New(ctx, params)
		}
		if err != nil {
			return &Output{
				Type:       OutputError,
				Error:      fmt.Errorf("claude API error: %w", err),
				TokensUsed: totalTokens,
			}, err
		}

		totalTokens.InputTokens += int(resp.Usage.InputTokens)
		totalTokens.OutputTokens += int(resp.Usage.OutputTokens)

		var toolResults []anthropic.ContentBlockParamUnion
		var textResponse string
		var toolsUsed []core.ToolExecution
		var confirmationNeeded *core.PendingAction

		for _, block := range resp.Content {
			switch block.Type {
			case "text":
				textResponse += block.Text

			case "tool_use":
				toolName := block.Name
				toolInput := block.Input

				var baseInput struct {
					Thought string `json:"thought,omitempty"`
				}
				if err := json.Unmarshal(toolInput, &baseInput); err != nil {
					toolResults = append(toolResults, anthropic.NewToolResultBlock(
						block.ID, fmt.Sprintf("invalid tool input JSON: %s", err.Error()), true))
					continue
				}
				thought := strings.TrimSpace(baseInput.Thought)

				tool, ok := e.registry.Get(toolName)
				if !ok {
					toolResults = append(toolResults, anthropic.NewToolResultBlock(
						block.ID, fmt.Sprintf("unknown tool: %s", toolName), true))
					continue
				}

				// Drafting tools must carry explicit reasoning before a
				// confirmation is even offered.
				if tool.RequiresConfirmation() && thought == "" {
					toolResults = append(toolResults, anthropic.NewToolResultBlock(
						block.ID,
						`Error: Missing or empty "thought" field. Drafting operations require explicit reasoning.
Please explain:
1. What you've verified (e.g., "The CDP holds 300 ADA collateral against 100 iUSD debt")
2. Why you're taking this action (e.g., "User asked to repay half the debt")
3. What you expect to happen (e.g., "This drafts an unsigned burn transaction")`,
						true,
					))
					continue
				}

				inputBytes, _ := json.Marshal(toolInput)
				trace := &core.Trace{
					ID:          uuid.New().String(),
					SessionID:   session.ID,
					TurnNumber:  session.TurnCount,
					Thought:     thought,
					Action:      toolName,
					ActionInput: inputBytes,
					Timestamp:   time.Now().Unix(),
					Metadata:    make(map[string]string),
				}

				if tool.RequiresConfirmation() {
					if !canConfirm {
						trace.Success = false
						trace.Observation = "Operation blocked: confirmation not allowed in this context"
						trace.Metadata["error"] = "confirmation_disabled"
						session.AddTrace(trace)
						log.Printf("[REACT TRACE] %s", trace.String())

						toolResults = append(toolResults, anthropic.NewToolResultBlock(
							block.ID, "error: this operation requires user confirmation", true))
						continue
					}

					confirmationNeeded = &core.PendingAction{
						ID:             uuid.New().String(),
						IdempotencyKey: GenerateIdempotencyKey(session.UserID, toolName, inputBytes),
						SessionID:      session.ID,
						UserID:         session.UserID,
						Tool:           toolName,
						Input:          inputBytes,
						Thought:        thought,
						Summary:        tool.GetSummary(inputBytes),
						BlockID:        block.ID,
						CreatedAt:      time.Now().Unix(),
						ExpiresAt:      time.Now().Add(10 * time.Minute).Unix(),
					}

					trace.Success = false
					trace.Observation = "Awaiting user confirmation"
					trace.Metadata["confirmation_id"] = confirmationNeeded.ID
					trace.Metadata["status"] = "pending_confirmation"
					session.AddTrace(trace)
					log.Printf("[REACT TRACE] %s", trace.String())
					break
				}

				startTime := time.Now()
				result, err := tool.Execute(ctx, &core.ToolParams{
					UserID:    session.UserID,
					Input:     inputBytes,
					RequestID: session.ID,
				})
				durationMs := time.Since(startTime).Milliseconds()

				execution := core.ToolExecution{
					Tool:       toolName,
					Input:      toolInput,
					DurationMs: durationMs,
				}

				trace.Success = err == nil && result != nil && result.Success
				trace.Observation = formatObservation(tool, result, err)
				if !trace.Success {
					if err != nil {
						trace.Metadata["error"] = err.Error()
						execution.Error = err.Error()
					} else if result != nil && !result.Success {
						trace.Metadata["error"] = result.Error
						execution.Error = result.Error
					}
					errorType := categorizeError(trace.Metadata["error"])
					trace.Metadata["error_type"] = errorType
					trace.Metadata["prevention"] = generatePrevention(toolName, errorType)
				}
				session.AddTrace(trace)
				log.Printf("[REACT TRACE] %s", trace.String())

				if e.audit != nil {
					var outputBytes json.RawMessage
					var errStr *string
					if result != nil {
						outputBytes, _ = json.Marshal(result.Data)
						if result.Error != "" {
							errStr = &result.Error
						}
					}
					if err != nil {
						errMsg := err.Error()
						errStr = &errMsg
					}
					e.audit.Log(ctx, &AuditEntry{
						ID:         uuid.New().String(),
						UserID:     session.UserID,
						SessionID:  session.ID,
						RequestID:  session.ID,
						ParentID:   auditParentID,
						AgentName:  agentName,
						ToolName:   toolName,
						ToolInput:  inputBytes,
						ToolOutput: outputBytes,
						Error:      errStr,
						DurationMs: durationMs,
						IsWriteOp:  tool.RequiresConfirmation(),
						Timestamp:  startTime.Unix(),
					})
				}

				if err != nil {
					toolResults = append(toolResults, anthropic.NewToolResultBlock(block.ID, err.Error(), true))
				} else if result != nil && !result.Success {
					toolResults = append(toolResults, anthropic.NewToolResultBlock(block.ID, result.Error, true))
				} else {
					if result != nil {
						execution.Result = result.Data
					}
					resultBytes, _ := json.Marshal(result.Data)
					toolResults = append(toolResults, anthropic.NewToolResultBlock(block.ID, string(resultBytes), false))
				}

				toolsUsed = append(toolsUsed, execution)
			}

			if confirmationNeeded != nil {
				break
			}
		}

		responseBlocks := responseToBlocks(resp)

		if confirmationNeeded != nil {
			session.AddAssistantResponse(resp)
			return &Output{
				Type:           OutputConfirmationNeeded,
				Text:           textResponse,
				PendingAction:  confirmationNeeded,
				ToolsUsed:      toolsUsed,
				ResponseBlocks: responseBlocks,
				TokensUsed:     totalTokens,
			}, nil
		}

		if len(toolResults) == 0 {
			session.AddAssistantMessage(textResponse)

			if input.StreamCallback != nil {
				input.StreamCallback("", true)
			}
			if e.guardrails != nil && input.Context != nil {
				e.guardrails.RecordSuccess(ctx, input.Context.UserID)
			}
			if e.memory != nil && len(session.Traces) > 0 && input.Context != nil {
				if err := e.memory.RecordTraces(ctx, input.Context.UserID, session.Traces); err != nil {
					log.Printf("[MEMORY] failed to record traces: %v", err)
				}
			}
			if e.memory != nil && input.Context != nil && input.UserMessage != "" && textResponse != "" {
				if err := e.memory.RecordConversation(ctx, input.Context.UserID, input.UserMessage, textResponse); err != nil {
					log.Printf("[MEMORY] failed to record conversation: %v", err)
				}
			}

			return &Output{
				Type:           OutputComplete,
				Text:           textResponse,
				ToolsUsed:      toolsUsed,
				ResponseBlocks: responseBlocks,
				TokensUsed:     totalTokens,
			}, nil
		}

		session.AddAssistantResponse(resp)
		session.AddToolResults(toolResults)
	}
}

// ExecuteTool runs a confirmed drafting tool directly.
func (e *Engine) ExecuteTool(ctx context.Context, userID, toolName string, input json.RawMessage, confirmationID string) (*core.ToolResult, error) {
	tool, ok := e.registry.Get(toolName)
	if !ok {
		return nil, fmt.Errorf("unknown tool: %s", toolName)
	}
	return tool.Execute(ctx, &core.ToolParams{
		UserID:         userID,
		Input:          input,
		ConfirmationID: confirmationID,
		RequestID:      confirmationID,
	})
}

// RunConfirmedAction resumes the loop for a confirmed drafting tool: execute
// it, feed the result to the model, and return the model's contextual
// response.
func (e *Engine) RunConfirmedAction(ctx context.Context, input *Input, action *core.PendingAction) (*Output, error) {
	userID := ""
	conversationID := ""
	if input.Context != nil {
		userID = input.Context.UserID
		conversationID = input.Context.ConversationID
	}
	session := NewSession(userID, conversationID)

	// History already contains the original tool_use block.
	session.RestoreHistory(input.History)

	tool, ok := e.registry.Get(action.Tool)
	if !ok {
		return nil, fmt.Errorf("unknown tool: %s", action.Tool)
	}

	trace := &core.Trace{
		ID:          uuid.New().String(),
		SessionID:   session.ID,
		TurnNumber:  session.TurnCount,
		Thought:     action.Thought,
		Action:      action.Tool,
		ActionInput: action.Input,
		Timestamp:   time.Now().Unix(),
		Metadata: map[string]string{
			"confirmed":       "true",
			"confirmation_id": action.ID,
		},
	}

	startTime := time.Now()
	result, toolErr := tool.Execute(ctx, &core.ToolParams{
		UserID: action.UserID,
		Input:  action.Input,
		// Empty ConfirmationID means already confirmed, execute directly.
		ConfirmationID: "",
		RequestID:      session.ID,
	})
	durationMs := time.Since(startTime).Milliseconds()

	trace.Success = toolErr == nil && result != nil && result.Success
	trace.Observation = formatObservation(tool, result, toolErr)
	if !trace.Success {
		if toolErr != nil {
			trace.Metadata["error"] = toolErr.Error()
		} else if result != nil && !result.Success {
			trace.Metadata["error"] = result.Error
		}
		errorType := categorizeError(trace.Metadata["error"])
		trace.Metadata["error_type"] = errorType
		trace.Metadata["prevention"] = generatePrevention(action.Tool, errorType)
	}
	session.AddTrace(trace)
	log.Printf("[REACT TRACE] %s", trace.String())

	var toolResult anthropic.ContentBlockParamUnion
	if toolErr != nil {
		toolResult = anthropic.NewToolResultBlock(action.BlockID, toolErr.Error(), true)
	} else if result != nil && !result.Success {
		toolResult = anthropic.NewToolResultBlock(action.BlockID, result.Error, true)
	} else {
		resultBytes, _ := json.Marshal(result.Data)
		toolResult = anthropic.NewToolResultBlock(action.BlockID, string(resultBytes), false)
	}
	session.AddToolResults([]anthropic.ContentBlockParamUnion{toolResult})

	model := input.Model
	if model == "" {
		model = defaultModel
	}
	maxTokens := input.MaxTokens
	if maxTokens == 0 {
		maxTokens = 4096
	}
	systemPrompt := input.SystemPrompt
	if systemPrompt == "" {
		systemPrompt = DefaultSystemPrompt
	}

	resp, err := e.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: maxTokens,
		Messages:  session.Messages(),
		System:    []anthropic.TextBlockParam{{Text: systemPrompt}},
	})
	if err != nil {
		return nil, fmt.Errorf("claude api error after confirmation: %w", err)
	}

	var textResponse string
	for _, block := range resp.Content {
		if block.Type == "text" {
			textResponse += block.Text
		}
	}
	session.AddAssistantResponse(resp)

	var toolInput interface{}
	json.Unmarshal(action.Input, &toolInput)
	execution := core.ToolExecution{
		Tool:       action.Tool,
		Input:      toolInput,
		DurationMs: durationMs,
	}
	if toolErr != nil {
		execution.Error = toolErr.Error()
	} else if result != nil {
		if !result.Success {
			execution.Error = result.Error
		} else {
			execution.Result = result.Data
		}
	}

	if e.memory != nil && len(session.Traces) > 0 && input.Context != nil {
		if err := e.memory.RecordTraces(ctx, input.Context.UserID, session.Traces); err != nil {
			log.Printf("[MEMORY] failed to record traces: %v", err)
		}
	}
	if e.memory != nil && input.Context != nil && textResponse != "" {
		if err := e.memory.RecordConversation(ctx, input.Context.UserID, "", textResponse); err != nil {
			log.Printf("[MEMORY] failed to record conversation: %v", err)
		}
	}

	return &Output{
		Type:           OutputComplete,
		Text:           textResponse,
		ToolsUsed:      []core.ToolExecution{execution},
		ResponseBlocks: responseToBlocks(resp),
	}, nil
}

// createMessageStreaming makes a streaming API call, forwarding text deltas
// to the callback while accumulating the full message.
func (e *Engine) createMessageStreaming(ctx context.Context, params anthropic.MessageNewParams, callback func(string, bool)) (*anthropic.Message, error) {
	stream := e.client.Messages.NewStreaming(ctx, params)
	defer stream.Close()

	message := anthropic.Message{}
	for stream.Next() {
		event := stream.Current()
		if err := message.Accumulate(event); err != nil {
			// Accumulation errors are non-fatal; the stream error below is
			// authoritative.
			continue
		}
		switch evt := event.AsAny().(type) {
		case anthropic.ContentBlockDeltaEvent:
			if delta, ok := evt.Delta.AsAny().(anthropic.TextDelta); ok {
				callback(delta.Text, false)
			}
		}
	}
	if err := stream.Err(); err != nil {
		return nil, err
	}
	return &message, nil
}

// responseToBlocks converts an API response into persistable blocks.
func responseToBlocks(resp *anthropic.Message) []core.ContentBlock {
	blocks := make([]core.ContentBlock, 0, len(resp.Content))
	for _, block := range resp.Content {
		switch block.Type {
		case "text":
			blocks = append(blocks, core.NewTextBlock(block.Text))
		case "tool_use":
			inputBytes, _ := json.Marshal(block.Input)
			blocks = append(blocks, core.NewToolUseBlock(block.ID, block.Name, inputBytes))
		}
	}
	return blocks
}

// formatObservation renders a tool outcome for the trace log.
func formatObservation(tool core.Tool, result *core.ToolResult, err error) string {
	type ObservationFormatter interface {
		FormatObservation(result *core.ToolResult, err error) string
	}
	if formatter, ok := tool.(ObservationFormatter); ok {
		return formatter.FormatObservation(result, err)
	}

	if err != nil {
		return fmt.Sprintf("Error: %s", err.Error())
	}
	if result == nil {
		return "No result returned"
	}
	if !result.Success {
		return fmt.Sprintf("Failed: %s", result.Error)
	}

	switch v := result.Data.(type) {
	case map[string]interface{}:
		if msg, ok := v["message"].(string); ok {
			return msg
		}
		bytes, _ := json.Marshal(v)
		return string(bytes)
	case string:
		return v
	default:
		return fmt.Sprintf("Success: %v", v)
	}
}

// categorizeError maps a tool error message to a category. Lagoon tools
// prefix failures with their category ("not_found: ..."), so the prefix is
// checked first and heuristics are the fallback.
func categorizeError(errMsg string) string {
	if errMsg == "" {
		return "unknown"
	}

	for _, cat := range []string{
		"not_found", "ambiguous", "invalid_selector",
		"precondition_failed", "configuration_error",
		"upstream_timeout", "upstream_error",
	} {
		if strings.HasPrefix(errMsg, cat+":") {
			return cat
		}
	}

	errLower := strings.ToLower(errMsg)
	switch {
	case strings.Contains(errLower, "not found"), strings.Contains(errLower, "does not exist"):
		return "not_found"
	case strings.Contains(errLower, "invalid"), strings.Contains(errLower, "malformed"):
		return "invalid_selector"
	case strings.Contains(errLower, "delisted"), strings.Contains(errLower, "precondition"):
		return "precondition_failed"
	case strings.Contains(errLower, "timeout"), strings.Contains(errLower, "deadline"):
		return "upstream_timeout"
	case strings.Contains(errLower, "network"), strings.Contains(errLower, "connection"):
		return "upstream_error"
	default:
		return "unknown"
	}
}

// generatePrevention suggests how the model can avoid repeating an error.
func generatePrevention(action, errorType string) string {
	preventionMap := map[string]string{
		"open_cdp:precondition_failed":      "Check the asset with get_asset first; delisted assets cannot open CDPs",
		"open_cdp:not_found":                "List supported assets with list_assets before opening",
		"withdraw_cdp:precondition_failed":  "Check the position with analyze_cdp_health before withdrawing collateral",
		"burn_cdp:not_found":                "List the owner's positions with get_cdps to get a valid reference",
		"merge_cdps:precondition_failed":    "Merging needs at least two positions; list them with get_cdps",
		"adjust_stability_pool:not_found":   "Check the account with get_stability_pool_account before withdrawing",
		"adjust_stake:precondition_failed":  "Check the staked balance with get_staking_position before unstaking",
		"liquidate_cdp:precondition_failed": "Confirm the position is liquidatable with analyze_cdp_health first",
	}
	if prevention, ok := preventionMap[action+":"+errorType]; ok {
		return prevention
	}

	switch errorType {
	case "not_found":
		return "Verify the record exists with a read tool before referencing it"
	case "ambiguous":
		return "Narrow the selector; the current one matches more than one record"
	case "invalid_selector":
		return "Check the address or reference format before submitting"
	case "precondition_failed":
		return "Read the current protocol state before drafting this operation"
	case "configuration_error":
		return "The deployment is missing configuration; drafting is unavailable"
	case "upstream_timeout", "upstream_error":
		return "Retry the operation; the upstream service failed"
	default:
		return "Review the error message and adjust the approach"
	}
}

// DefaultSystemPrompt is used when the caller does not provide one.
const DefaultSystemPrompt = `You are a helpful assistant for the Lagoon lending protocol. You can inspect
iAssets, collateralized debt positions (CDPs), stability pools, staking and
redemption positions, and you can draft transactions for the user to sign.

GUIDELINES:
- Be conversational and precise with numbers
- All amounts are integers in the smallest unit (lovelace for collateral)
- Drafted transactions are unsigned; the user signs and submits them
- Every drafting operation requires user confirmation

REASONING PATTERN:
When using tools, include a "thought" field explaining your reasoning:
1. What you've verified (e.g., "The CDP holds 300 ADA against 100 iUSD")
2. Why you're taking this action (e.g., "User asked to repay half the debt")
3. What you expect to happen (e.g., "This drafts an unsigned burn transaction")

For drafting operations the thought field is REQUIRED.

Good thought examples:
- "Position abc#0 is at 145% collateral ratio, below the 150% maintenance
  requirement. Depositing 50 ADA will bring it back above maintenance."
- "User holds 200 iUSD and asked to exit the stability pool. The account
  deposit covers the withdrawal."

Bad thought examples:
- "Drafting transaction" (too vague)
- "User asked" (doesn't verify or explain)

AVAILABLE ACTIONS:
- List assets, prices and interest rates
- Inspect CDPs and analyze their health
- Inspect stability pool, staking and redemption positions
- Draft CDP, stability pool, staking and redemption transactions`
