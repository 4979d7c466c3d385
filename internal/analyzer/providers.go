package analyzer

import (
	"context"

	"github.com/sells-group/chatlead/pkg/anthropic"
	"github.com/sells-group/chatlead/pkg/openrouter"
)

// AnthropicProvider is the primary analysis provider.
type AnthropicProvider struct {
	client    anthropic.Client
	model     string
	maxTokens int64
}

// NewAnthropicProvider creates the primary provider.
func NewAnthropicProvider(client anthropic.Client, model string, maxTokens int64) *AnthropicProvider {
	if maxTokens <= 0 {
		maxTokens = 2048
	}
	return &AnthropicProvider{client: client, model: model, maxTokens: maxTokens}
}

func (p *AnthropicProvider) Name() string { return "anthropic" }

func (p *AnthropicProvider) Analyze(ctx context.Context, req Request) (string, error) {
	resp, err := p.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     p.model,
		MaxTokens: p.maxTokens,
		System:    systemPrompt,
		Messages: []anthropic.Message{
			{Role: "user", Content: buildUserContent(req)},
		},
	})
	if err != nil {
		return "", err
	}
	resp.Usage.LogUsage(p.model)
	return resp.Text, nil
}

// OpenRouterProvider is the fallback analysis provider.
type OpenRouterProvider struct {
	client openrouter.Client
	model  string
}

// NewOpenRouterProvider creates the fallback provider.
func NewOpenRouterProvider(client openrouter.Client, model string) *OpenRouterProvider {
	return &OpenRouterProvider{client: client, model: model}
}

func (p *OpenRouterProvider) Name() string { return "openrouter" }

func (p *OpenRouterProvider) Analyze(ctx context.Context, req Request) (string, error) {
	return p.client.CreateChatCompletion(ctx, openrouter.ChatRequest{
		Model: p.model,
		Messages: []openrouter.ChatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: buildUserContent(req)},
		},
	})
}
