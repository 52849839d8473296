package config

import (
	"time"

	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/llm"
	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/observability"
	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/retry"
)

// DefaultConfigFile is looked up in the working directory when no
// --config flag is given.
const DefaultConfigFile = "mallm.yaml"

// DefaultConfig returns a Config with the documented defaults.
func DefaultConfig() *Config {
	return &Config{
		Run: RunConfig{
			Concurrency:       4,
			RequestsPerSecond: 10,
			Output:            "results.json",
		},
		Discussion: DiscussionConfig{
			Paradigm:                   "memory",
			DecisionProtocol:           "hybrid_consensus",
			ResponseGenerator:          "json",
			PersonaGenerator:           "expert",
			NumAgents:                  3,
			MaxTurns:                   10,
			ContextLength:              3,
			IncludeCurrentTurnInMemory: true,
			DebateRounds:               2,
			FeedbackSentences:          []int{3, 4},
		},
		Decision: DecisionConfig{
			VoteTurn:       3,
			DecodeAttempts: retry.DefaultAttempts,
		},
		LLM: llm.LLMConfig{
			DefaultProvider: "openai",
			Providers: map[string]llm.ProviderConfig{
				"openai": {
					Type:         llm.ProviderOpenAI,
					APIKey:       "${OPENAI_API_KEY}",
					DefaultModel: "gpt-4o-mini",
				},
			},
			Temperature: 0.7,
			MaxTokens:   1024,
		},
		Archive: ArchiveConfig{
			Path: "mallm.db",
		},
		Logging: observability.LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Tracing: observability.TracingConfig{
			ServiceName: "mallm",
			SampleRate:  1.0,
			Insecure:    true,
		},
		Metrics: observability.MetricsConfig{
			Interval: 15 * time.Second,
			Insecure: true,
		},
	}
}
