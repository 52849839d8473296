package providers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/llm"
	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/types"
)

func TestNewProvider(t *testing.T) {
	ctx := context.Background()

	p, err := NewProvider(ctx, llm.ProviderConfig{Type: llm.ProviderMock})
	require.NoError(t, err)
	assert.Equal(t, "mock", p.Name())

	p, err = NewProvider(ctx, llm.ProviderConfig{Type: llm.ProviderOllama, DefaultModel: "llama3"})
	require.NoError(t, err)
	assert.Equal(t, "ollama", p.Name())

	t.Setenv("OPENAI_API_KEY", "")
	_, err = NewProvider(ctx, llm.ProviderConfig{Type: llm.ProviderOpenAI, DefaultModel: "gpt-4o-mini"})
	assert.True(t, types.HasCode(err, llm.ErrProviderUnauthorized))

	_, err = NewProvider(ctx, llm.ProviderConfig{Type: "bedrock"})
	assert.True(t, types.HasCode(err, llm.ErrInvalidRequest))
}

func TestNewProvider_MockResponsesFromOptions(t *testing.T) {
	p, err := NewProvider(context.Background(), llm.ProviderConfig{
		Type:    llm.ProviderMock,
		Options: map[string]any{"responses": []any{"one", "two"}},
	})
	require.NoError(t, err)

	resp, err := p.Complete(context.Background(), llm.CompletionRequest{})
	require.NoError(t, err)
	assert.Equal(t, "one", resp.Message.Content)
}

func TestNewRegistry(t *testing.T) {
	registry, err := NewRegistry(context.Background(), llm.LLMConfig{
		DefaultProvider: "dry",
		Providers: map[string]llm.ProviderConfig{
			"dry":   {Type: llm.ProviderMock},
			"local": {Type: llm.ProviderOllama, DefaultModel: "llama3"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"dry", "local"}, registry.ListProviders())

	_, err = NewRegistry(context.Background(), llm.LLMConfig{
		Providers: map[string]llm.ProviderConfig{"bad": {Type: "bedrock"}},
	})
	assert.True(t, types.HasCode(err, llm.ErrProviderInitFailed))
}

func TestAPIKeyFallback(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "sk-env")

	key, err := apiKey(llm.ProviderConfig{APIKey: "sk-config"}, "anthropic", "ANTHROPIC_API_KEY")
	require.NoError(t, err)
	assert.Equal(t, "sk-config", key)

	key, err = apiKey(llm.ProviderConfig{}, "anthropic", "ANTHROPIC_API_KEY")
	require.NoError(t, err)
	assert.Equal(t, "sk-env", key)

	t.Setenv("ANTHROPIC_API_KEY", "")
	_, err = apiKey(llm.ProviderConfig{}, "anthropic", "ANTHROPIC_API_KEY")
	assert.True(t, types.HasCode(err, llm.ErrProviderUnauthorized))
}
