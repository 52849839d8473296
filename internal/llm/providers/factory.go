package providers

import (
	"context"
	"fmt"

	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/llm"
	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/types"
)

// NewProvider creates a new LLM provider based on the configuration
func NewProvider(ctx context.Context, cfg llm.ProviderConfig) (llm.LLMProvider, error) {
	switch cfg.Type {
	case llm.ProviderAnthropic:
		return NewAnthropicProvider(cfg)

	case llm.ProviderOpenAI:
		return NewOpenAIProvider(cfg)

	case llm.ProviderGoogle:
		return NewGoogleProvider(ctx, cfg)

	case llm.ProviderOllama:
		return NewOllamaProvider(cfg)

	case llm.ProviderMock:
		return NewMockProvider(mockResponses(cfg)), nil

	default:
		return nil, llm.NewInvalidRequestError(fmt.Sprintf("unknown provider type: %s", cfg.Type))
	}
}

// mockResponses reads the optional "responses" list from provider options so
// a dry run can be scripted from the config file.
func mockResponses(cfg llm.ProviderConfig) []string {
	raw, ok := cfg.Options["responses"].([]any)
	if !ok {
		return []string{`{"agreement": true, "message": "Mock response", "solution": "Mock response"}`}
	}
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		out = append(out, fmt.Sprint(r))
	}
	return out
}

// NewRegistry builds every configured provider and registers it under its
// config name.
func NewRegistry(ctx context.Context, cfg llm.LLMConfig) (*llm.ProviderRegistry, error) {
	registry := llm.NewProviderRegistry()
	for name, pc := range cfg.Providers {
		provider, err := NewProvider(ctx, pc)
		if err != nil {
			return nil, types.WrapError(llm.ErrProviderInitFailed, fmt.Sprintf("failed to initialize provider %q", name), err)
		}
		if err := registry.RegisterProvider(name, provider); err != nil {
			return nil, err
		}
	}
	return registry, nil
}
