package providers

import (
	"context"
	"os"

	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/llm"
)

// apiKey returns the configured key, falling back to the provider's
// conventional environment variable.
func apiKey(cfg llm.ProviderConfig, provider, env string) (string, error) {
	if cfg.APIKey != "" {
		return cfg.APIKey, nil
	}
	if key := os.Getenv(env); key != "" {
		return key, nil
	}
	return "", llm.NewAuthError(provider, nil)
}

// NewOpenAIProvider talks to OpenAI or any server speaking its chat API
// (vLLM, llama.cpp) when base_url is set.
func NewOpenAIProvider(cfg llm.ProviderConfig) (llm.LLMProvider, error) {
	key, err := apiKey(cfg, "openai", "OPENAI_API_KEY")
	if err != nil {
		return nil, err
	}
	opts := []openai.Option{openai.WithToken(key)}
	if cfg.DefaultModel != "" {
		opts = append(opts, openai.WithModel(cfg.DefaultModel))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}

	client, err := openai.New(opts...)
	if err != nil {
		return nil, llm.TranslateError("openai", err)
	}
	return newLangchainProvider("openai", client, cfg), nil
}

func NewAnthropicProvider(cfg llm.ProviderConfig) (llm.LLMProvider, error) {
	key, err := apiKey(cfg, "anthropic", "ANTHROPIC_API_KEY")
	if err != nil {
		return nil, err
	}
	opts := []anthropic.Option{anthropic.WithToken(key)}
	if cfg.DefaultModel != "" {
		opts = append(opts, anthropic.WithModel(cfg.DefaultModel))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, anthropic.WithBaseURL(cfg.BaseURL))
	}

	client, err := anthropic.New(opts...)
	if err != nil {
		return nil, llm.TranslateError("anthropic", err)
	}
	return newLangchainProvider("anthropic", client, cfg), nil
}

// NewGoogleProvider serves Gemini models. The client dials during
// construction, hence the context.
func NewGoogleProvider(ctx context.Context, cfg llm.ProviderConfig) (llm.LLMProvider, error) {
	key, err := apiKey(cfg, "google", "GOOGLE_API_KEY")
	if err != nil {
		return nil, err
	}
	opts := []googleai.Option{googleai.WithAPIKey(key)}
	if cfg.DefaultModel != "" {
		opts = append(opts, googleai.WithDefaultModel(cfg.DefaultModel))
	}

	client, err := googleai.New(ctx, opts...)
	if err != nil {
		return nil, llm.TranslateError("google", err)
	}
	return newLangchainProvider("google", client, cfg), nil
}

// NewOllamaProvider serves a local Ollama model; no key is needed.
func NewOllamaProvider(cfg llm.ProviderConfig) (llm.LLMProvider, error) {
	opts := []ollama.Option{ollama.WithServerURL(cfg.GetBaseURL())}
	if cfg.DefaultModel != "" {
		opts = append(opts, ollama.WithModel(cfg.DefaultModel))
	}

	client, err := ollama.New(opts...)
	if err != nil {
		return nil, llm.TranslateError("ollama", err)
	}
	return newLangchainProvider("ollama", client, cfg), nil
}
