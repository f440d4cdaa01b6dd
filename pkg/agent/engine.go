package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/brixta-dev/cemtemchat/pkg/logger"
	"github.com/brixta-dev/cemtemchat/pkg/metrics"
	"github.com/brixta-dev/cemtemchat/pkg/providers"
	"github.com/brixta-dev/cemtemchat/pkg/session"
)

// ToolCaller is the slice of the MCP gateway the engine needs.
type ToolCaller interface {
	CallTool(ctx context.Context, name string, args map[string]interface{}) (string, error)
	ToProviderDefs() []providers.ToolDefinition
}

// Engine runs the tool-call round-trip loop for one user turn and executes
// confirmed staged writes. It is safe for concurrent use; turns within a
// session are serialized by the session's turn lock.
type Engine struct {
	provider providers.LLMProvider
	gateway  ToolCaller
	tracker  *metrics.Tracker

	model             string
	maxRounds         int
	maxTokens         int
	temperature       float64
	completionTimeout time.Duration
	toolTimeout       time.Duration
}

type EngineConfig struct {
	Model             string
	MaxRounds         int
	MaxTokens         int
	Temperature       float64
	CompletionTimeout time.Duration
	ToolTimeout       time.Duration
}

func NewEngine(provider providers.LLMProvider, gateway ToolCaller, cfg EngineConfig) *Engine {
	if cfg.MaxRounds <= 0 {
		cfg.MaxRounds = 8
	}
	if cfg.Model == "" {
		cfg.Model = provider.GetDefaultModel()
	}
	return &Engine{
		provider:          provider,
		gateway:           gateway,
		model:             cfg.Model,
		maxRounds:         cfg.MaxRounds,
		maxTokens:         cfg.MaxTokens,
		temperature:       cfg.Temperature,
		completionTimeout: cfg.CompletionTimeout,
		toolTimeout:       cfg.ToolTimeout,
	}
}

// SetTracker enables token usage accounting. Nil disables it.
func (e *Engine) SetTracker(t *metrics.Tracker) {
	e.tracker = t
}

// Handle processes one user turn: append the message, run the model, execute
// any requested read tools, repeat until the model produces text, then stage
// a write payload if the reply carries one. Returns the user-facing reply
// and whether a staged write now awaits confirmation.
func (e *Engine) Handle(ctx context.Context, sess *session.Session, text string) (string, bool, error) {
	sess.Lock()
	defer sess.Unlock()

	if len(sess.History()) == 0 {
		sess.AddMessage(providers.Message{Role: "system", Content: SystemPrompt()})
	}
	sess.AddMessage(providers.Message{Role: "user", Content: text})

	textID, hasTextID := rescueIDFromText(text)
	if hasTextID {
		logger.DebugCF("agent", "Found potential ID in user text", map[string]interface{}{
			"id":      textID,
			"session": sess.Key,
		})
	}

	tools := e.gateway.ToProviderDefs()
	options := map[string]interface{}{}
	if e.maxTokens > 0 {
		options["max_tokens"] = e.maxTokens
	}
	if e.temperature > 0 {
		options["temperature"] = e.temperature
	}

	for round := 0; round < e.maxRounds; round++ {
		resp, err := e.chat(ctx, sess.History(), tools, options)
		if err != nil {
			return "", false, err
		}
		if resp == nil || (resp.Content == "" && len(resp.ToolCalls) == 0) {
			return "Model returned nothing. Try again.", false, nil
		}

		e.recordUsage(sess.Key, resp)

		sess.AddMessage(assistantMessage(resp))

		if len(resp.ToolCalls) == 0 {
			reply := resp.Content
			if reply == "" {
				reply = "..."
			}
			display, tool, payload, staged := ExtractPending(reply)
			if staged {
				sess.SetPending(tool, payload)
				logger.InfoCF("agent", "Staged write payload", map[string]interface{}{
					"tool":    tool,
					"session": sess.Key,
				})
			}
			return display, staged, nil
		}

		for _, tc := range resp.ToolCalls {
			result := e.executeToolCall(ctx, tc, textID, hasTextID)
			sess.AddMessage(providers.Message{
				Role:       "tool",
				Content:    result,
				ToolCallID: tc.ID,
			})
		}
	}

	return "", false, fmt.Errorf("tool call loop exceeded %d rounds", e.maxRounds)
}

// Confirm executes the staged write for this session, if any. The boolean
// reports whether an execution was attempted; false means nothing was
// staged and the caller decides what to tell the user.
func (e *Engine) Confirm(ctx context.Context, sess *session.Session) (string, bool) {
	sess.Lock()
	defer sess.Unlock()

	tool, payload, ok := sess.PopPending()
	if !ok {
		return "", false
	}

	logger.InfoCF("agent", "Executing confirmed write", map[string]interface{}{
		"tool":    tool,
		"session": sess.Key,
	})

	callCtx := ctx
	if e.toolTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, e.toolTimeout)
		defer cancel()
	}

	result, err := e.gateway.CallTool(callCtx, tool, payload)
	if err != nil {
		logger.ErrorCF("agent", "Confirmed write failed", map[string]interface{}{
			"tool":  tool,
			"error": err.Error(),
		})
		return formatSubmitFailure(tool, err), true
	}
	return formatSubmitSuccess(tool, result), true
}

// HasPending reports whether the session holds a staged write.
func (e *Engine) HasPending(sess *session.Session) bool {
	return sess.HasPending()
}

func (e *Engine) recordUsage(sessionKey string, resp *providers.LLMResponse) {
	if e.tracker == nil || resp.Usage == nil {
		return
	}
	e.tracker.Record(metrics.TokenEvent{
		Timestamp:    time.Now(),
		SessionKey:   sessionKey,
		Model:        e.model,
		InputTokens:  resp.Usage.PromptTokens,
		OutputTokens: resp.Usage.CompletionTokens,
		ToolCalls:    len(resp.ToolCalls),
	})
}

func (e *Engine) chat(ctx context.Context, messages []providers.Message, tools []providers.ToolDefinition, options map[string]interface{}) (*providers.LLMResponse, error) {
	chatCtx := ctx
	if e.completionTimeout > 0 {
		var cancel context.CancelFunc
		chatCtx, cancel = context.WithTimeout(ctx, e.completionTimeout)
		defer cancel()
	}
	return e.provider.Chat(chatCtx, messages, tools, e.model, options)
}

// executeToolCall resolves one tool call into its tool-result content.
// Failures come back as text so the model can read the error and recover.
func (e *Engine) executeToolCall(ctx context.Context, tc providers.ToolCall, textID int, hasTextID bool) string {
	name, raw := resolveToolCall(tc)

	cleaned := SanitizeArgs(raw)
	if !applyIDRescue(name, raw, cleaned, textID, hasTextID) {
		logger.WarnCF("agent", "Model failed to provide required ID", map[string]interface{}{"tool": name})
		return fmt.Sprintf("Error executing tool %s: required ID parameter missing. Please extract the ID from the user's message and provide it as an integer.", name)
	}

	logger.InfoCF("agent", "Calling tool", map[string]interface{}{
		"tool": name,
		"args": len(cleaned),
	})

	callCtx := ctx
	if e.toolTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, e.toolTimeout)
		defer cancel()
	}

	result, err := e.gateway.CallTool(callCtx, name, cleaned)
	if err != nil {
		logger.WarnCF("agent", "Tool call failed", map[string]interface{}{
			"tool":  name,
			"error": err.Error(),
		})
		return fmt.Sprintf("Error executing tool %s: %v", name, err)
	}
	return result
}

// resolveToolCall extracts the function name and argument map from a tool
// call, whichever form the provider populated. Malformed argument JSON
// degrades to empty arguments.
func resolveToolCall(tc providers.ToolCall) (string, map[string]interface{}) {
	name := tc.Name
	args := tc.Arguments

	if tc.Function != nil {
		if name == "" {
			name = tc.Function.Name
		}
		if args == nil && tc.Function.Arguments != "" {
			if err := json.Unmarshal([]byte(tc.Function.Arguments), &args); err != nil {
				args = map[string]interface{}{}
			}
		}
	}
	if args == nil {
		args = map[string]interface{}{}
	}
	return name, args
}

func assistantMessage(resp *providers.LLMResponse) providers.Message {
	return providers.Message{
		Role:      "assistant",
		Content:   resp.Content,
		ToolCalls: resp.ToolCalls,
	}
}
