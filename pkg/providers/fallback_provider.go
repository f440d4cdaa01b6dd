package providers

import (
	"context"
	"fmt"

	"github.com/brixta-dev/cemtemchat/pkg/logger"
)

// FallbackProvider wraps a primary and a fallback LLMProvider. If the
// primary fails, the same request is retried once against the fallback with
// the fallback's own model.
type FallbackProvider struct {
	primary       LLMProvider
	fallback      LLMProvider
	fallbackModel string
}

func NewFallbackProvider(primary, fallback LLMProvider, fallbackModel string) *FallbackProvider {
	if fallbackModel == "" {
		fallbackModel = fallback.GetDefaultModel()
	}
	return &FallbackProvider{
		primary:       primary,
		fallback:      fallback,
		fallbackModel: fallbackModel,
	}
}

func (p *FallbackProvider) GetDefaultModel() string {
	return p.primary.GetDefaultModel()
}

func (p *FallbackProvider) Chat(ctx context.Context, messages []Message, tools []ToolDefinition, model string, options map[string]interface{}) (*LLMResponse, error) {
	resp, err := p.primary.Chat(ctx, messages, tools, model, options)
	if err == nil {
		return resp, nil
	}

	logger.WarnCF("fallback", fmt.Sprintf("Primary provider failed, retrying with %s", p.fallbackModel),
		map[string]interface{}{"error": err.Error()})

	fbResp, fbErr := p.fallback.Chat(ctx, messages, tools, p.fallbackModel, options)
	if fbErr != nil {
		return nil, fmt.Errorf("primary failed: %w; fallback also failed: %v", err, fbErr)
	}
	return fbResp, nil
}
