package providers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// OpenRouterProvider talks to OpenRouter's OpenAI-compatible chat completions
// API via the official OpenAI Go SDK with a custom base URL.
type OpenRouterProvider struct {
	client       openai.Client
	defaultModel string
}

// OpenRouterOptions configures the provider. SiteURL and SiteName become the
// HTTP-Referer / X-Title attribution headers OpenRouter asks integrators to
// send; both are optional.
type OpenRouterOptions struct {
	BaseURL  string
	APIKey   string
	Model    string
	SiteURL  string
	SiteName string
}

func NewOpenRouterProvider(opts OpenRouterOptions) (*OpenRouterProvider, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("OpenRouter API key is required")
	}
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = "https://openrouter.ai/api/v1"
	}
	model := opts.Model
	if model == "" {
		model = "deepseek/deepseek-chat-v3.1:free"
	}

	clientOpts := []option.RequestOption{
		option.WithBaseURL(baseURL),
		option.WithAPIKey(opts.APIKey),
		option.WithMaxRetries(4),
	}
	if opts.SiteURL != "" {
		clientOpts = append(clientOpts, option.WithHeader("HTTP-Referer", opts.SiteURL))
	}
	if opts.SiteName != "" {
		clientOpts = append(clientOpts, option.WithHeader("X-Title", opts.SiteName))
	}

	return &OpenRouterProvider{
		client:       openai.NewClient(clientOpts...),
		defaultModel: model,
	}, nil
}

func (p *OpenRouterProvider) GetDefaultModel() string {
	return p.defaultModel
}

func (p *OpenRouterProvider) Chat(ctx context.Context, messages []Message, tools []ToolDefinition, model string, options map[string]interface{}) (*LLMResponse, error) {
	if model == "" {
		model = p.defaultModel
	}

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(model),
		Messages: toOpenAIMessages(messages),
	}
	if mt, ok := options["max_tokens"].(int); ok && mt > 0 {
		params.MaxTokens = openai.Int(int64(mt))
	}
	if temp, ok := options["temperature"].(float64); ok {
		params.Temperature = openai.Float(temp)
	}
	if len(tools) > 0 {
		params.Tools = toOpenAITools(tools)
	}

	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openrouter chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openrouter response has no choices")
	}

	return parseOpenAIChoice(resp), nil
}

func toOpenAIMessages(messages []Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case "system":
			out = append(out, openai.SystemMessage(msg.Content))
		case "user":
			out = append(out, openai.UserMessage(msg.Content))
		case "assistant":
			if len(msg.ToolCalls) == 0 {
				out = append(out, openai.AssistantMessage(msg.Content))
				continue
			}
			assistant := openai.ChatCompletionAssistantMessageParam{}
			if msg.Content != "" {
				assistant.Content = openai.ChatCompletionAssistantMessageParamContentUnion{
					OfString: openai.String(msg.Content),
				}
			}
			for _, tc := range msg.ToolCalls {
				name, args := resolveCall(tc)
				if name == "" {
					continue
				}
				assistant.ToolCalls = append(assistant.ToolCalls, openai.ChatCompletionMessageToolCallUnionParam{
					OfFunction: &openai.ChatCompletionMessageFunctionToolCallParam{
						ID: tc.ID,
						Function: openai.ChatCompletionMessageFunctionToolCallFunctionParam{
							Name:      name,
							Arguments: args,
						},
					},
				})
			}
			out = append(out, openai.ChatCompletionMessageParamUnion{OfAssistant: &assistant})
		case "tool":
			out = append(out, openai.ToolMessage(msg.Content, msg.ToolCallID))
		}
	}
	return out
}

// resolveCall returns the function name and raw JSON argument string for a
// tool call, preferring the wire form and falling back to re-serializing the
// parsed map.
func resolveCall(tc ToolCall) (string, string) {
	name := tc.Name
	args := ""
	if tc.Function != nil {
		if name == "" {
			name = tc.Function.Name
		}
		args = tc.Function.Arguments
	}
	if args == "" {
		if len(tc.Arguments) > 0 {
			data, err := json.Marshal(tc.Arguments)
			if err == nil {
				args = string(data)
			}
		}
	}
	if args == "" || !json.Valid([]byte(args)) {
		args = "{}"
	}
	return name, args
}

func toOpenAITools(tools []ToolDefinition) []openai.ChatCompletionToolUnionParam {
	out := make([]openai.ChatCompletionToolUnionParam, 0, len(tools))
	for _, t := range tools {
		fn := openai.FunctionDefinitionParam{
			Name: t.Function.Name,
		}
		if t.Function.Description != "" {
			fn.Description = openai.String(t.Function.Description)
		}
		if len(t.Function.Parameters) > 0 {
			fn.Parameters = openai.FunctionParameters(t.Function.Parameters)
		}
		out = append(out, openai.ChatCompletionFunctionTool(fn))
	}
	return out
}

func parseOpenAIChoice(resp *openai.ChatCompletion) *LLMResponse {
	choice := resp.Choices[0]

	var toolCalls []ToolCall
	for _, tc := range choice.Message.ToolCalls {
		var args map[string]interface{}
		raw := tc.Function.Arguments
		if raw != "" {
			// Parse failures are tolerated here; the engine treats a call
			// with unparseable arguments as an empty-argument call.
			_ = json.Unmarshal([]byte(raw), &args)
		}
		toolCalls = append(toolCalls, ToolCall{
			ID:        tc.ID,
			Type:      "function",
			Name:      tc.Function.Name,
			Arguments: args,
			Function: &FunctionCall{
				Name:      tc.Function.Name,
				Arguments: raw,
			},
		})
	}

	out := &LLMResponse{
		Content:      choice.Message.Content,
		ToolCalls:    toolCalls,
		FinishReason: string(choice.FinishReason),
	}
	if resp.Usage.TotalTokens > 0 {
		out.Usage = &UsageInfo{
			PromptTokens:     int(resp.Usage.PromptTokens),
			CompletionTokens: int(resp.Usage.CompletionTokens),
			TotalTokens:      int(resp.Usage.TotalTokens),
		}
	}
	return out
}
