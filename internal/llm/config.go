package llm

import (
	"fmt"
	"strings"

	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/types"
)

// ProviderType represents the type of LLM provider.
type ProviderType string

const (
	ProviderAnthropic ProviderType = "anthropic"
	ProviderOpenAI    ProviderType = "openai"
	ProviderGoogle    ProviderType = "google"
	ProviderOllama    ProviderType = "ollama"
	ProviderMock      ProviderType = "mock"
)

// LLMConfig contains the root LLM provider configuration.
// It specifies which provider backs discussion agents and the sampling
// defaults applied to every request.
type LLMConfig struct {
	DefaultProvider string                    `mapstructure:"default_provider" yaml:"default_provider" validate:"required"`
	Providers       map[string]ProviderConfig `mapstructure:"providers" yaml:"providers" validate:"required,dive"`
	Temperature     float64                   `mapstructure:"temperature" yaml:"temperature" validate:"min=0,max=2"`
	MaxTokens       int                       `mapstructure:"max_tokens" yaml:"max_tokens" validate:"min=0"`
	Stream          bool                      `mapstructure:"stream" yaml:"stream"`
}

// Validate performs validation on the LLMConfig.
// It ensures that the default provider exists in the providers map
// and that all provider configurations are valid.
func (c *LLMConfig) Validate() error {
	if c.DefaultProvider == "" {
		return types.NewError(types.CONFIG_VALIDATION_FAILED, "default_provider cannot be empty")
	}

	if len(c.Providers) == 0 {
		return types.NewError(types.CONFIG_VALIDATION_FAILED, "providers map cannot be empty")
	}

	if _, exists := c.Providers[c.DefaultProvider]; !exists {
		return types.NewError(
			types.CONFIG_VALIDATION_FAILED,
			fmt.Sprintf("default_provider '%s' not found in providers map", c.DefaultProvider),
		)
	}

	if c.Temperature < 0 || c.Temperature > 2 {
		return types.NewError(
			types.CONFIG_VALIDATION_FAILED,
			fmt.Sprintf("temperature must be between 0 and 2, got %f", c.Temperature),
		)
	}

	for name, provider := range c.Providers {
		if err := provider.Validate(); err != nil {
			return types.WrapError(
				types.CONFIG_VALIDATION_FAILED,
				fmt.Sprintf("provider '%s' validation failed", name),
				err,
			)
		}
	}

	return nil
}

// DefaultProviderConfig returns the configuration of the default provider.
func (c *LLMConfig) DefaultProviderConfig() (ProviderConfig, error) {
	p, ok := c.Providers[c.DefaultProvider]
	if !ok {
		return ProviderConfig{}, NewProviderNotFoundError(c.DefaultProvider)
	}
	return p, nil
}

// ProviderConfig contains configuration for a specific LLM provider.
type ProviderConfig struct {
	Type         ProviderType   `mapstructure:"type" yaml:"type" validate:"required,oneof=anthropic openai google ollama mock"`
	APIKey       string         `mapstructure:"api_key" yaml:"api_key"`
	BaseURL      string         `mapstructure:"base_url" yaml:"base_url"`
	DefaultModel string         `mapstructure:"default_model" yaml:"default_model"`
	Options      map[string]any `mapstructure:"options" yaml:"options"`
}

// RequiresAPIKey reports whether the provider type authenticates with an API key.
func (p *ProviderConfig) RequiresAPIKey() bool {
	switch p.Type {
	case ProviderOllama, ProviderMock:
		return false
	default:
		return true
	}
}

// Validate performs validation on the ProviderConfig.
func (p *ProviderConfig) Validate() error {
	if p.Type == "" {
		return types.NewError(types.CONFIG_VALIDATION_FAILED, "provider type cannot be empty")
	}

	validTypes := map[ProviderType]bool{
		ProviderAnthropic: true,
		ProviderOpenAI:    true,
		ProviderGoogle:    true,
		ProviderOllama:    true,
		ProviderMock:      true,
	}
	if !validTypes[p.Type] {
		return types.NewError(
			types.CONFIG_VALIDATION_FAILED,
			fmt.Sprintf("invalid provider type '%s', must be one of: anthropic, openai, google, ollama, mock", p.Type),
		)
	}

	if p.RequiresAPIKey() && p.APIKey == "" {
		return types.NewError(types.CONFIG_VALIDATION_FAILED, "api_key cannot be empty")
	}

	if p.Type != ProviderMock && p.DefaultModel == "" {
		return types.NewError(types.CONFIG_VALIDATION_FAILED, "default_model cannot be empty")
	}

	return nil
}

// GetBaseURL returns the base URL for a provider, with defaults for known providers.
func (p *ProviderConfig) GetBaseURL() string {
	if p.BaseURL != "" {
		return p.BaseURL
	}

	switch p.Type {
	case ProviderAnthropic:
		return "https://api.anthropic.com"
	case ProviderOpenAI:
		return "https://api.openai.com/v1"
	case ProviderGoogle:
		return "https://generativelanguage.googleapis.com/v1beta"
	case ProviderOllama:
		return "http://localhost:11434"
	default:
		return ""
	}
}

// NormalizeProviderName normalizes provider names to lowercase for consistent lookup.
func NormalizeProviderName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
