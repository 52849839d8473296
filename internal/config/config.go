// Package config loads and validates the mallm configuration file.
package config

import (
	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/coordinator"
	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/decision"
	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/discourse"
	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/llm"
	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/observability"
	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/persona"
)

// Config is the root configuration for a batch run.
type Config struct {
	Run        RunConfig                   `mapstructure:"run" yaml:"run"`
	Discussion DiscussionConfig            `mapstructure:"discussion" yaml:"discussion"`
	Decision   DecisionConfig              `mapstructure:"decision" yaml:"decision"`
	LLM        llm.LLMConfig               `mapstructure:"llm" yaml:"llm"`
	Archive    ArchiveConfig               `mapstructure:"archive" yaml:"archive"`
	Logging    observability.LoggingConfig `mapstructure:"logging" yaml:"logging"`
	Tracing    observability.TracingConfig `mapstructure:"tracing" yaml:"tracing"`
	Metrics    observability.MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
}

// RunConfig controls the batch scheduler.
type RunConfig struct {
	Concurrency       int     `mapstructure:"concurrency" yaml:"concurrency" validate:"min=1,max=256"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second" yaml:"requests_per_second" validate:"min=0"`
	Output            string  `mapstructure:"output" yaml:"output" validate:"required"`
	Resume            bool    `mapstructure:"resume" yaml:"resume"`
}

// DiscussionConfig selects the components of every session.
type DiscussionConfig struct {
	Paradigm          string `mapstructure:"paradigm" yaml:"paradigm" validate:"required"`
	DecisionProtocol  string `mapstructure:"decision_protocol" yaml:"decision_protocol" validate:"required"`
	ResponseGenerator string `mapstructure:"response_generator" yaml:"response_generator" validate:"required"`
	PersonaGenerator  string `mapstructure:"persona_generator" yaml:"persona_generator" validate:"required"`

	NumAgents        int `mapstructure:"num_agents" yaml:"num_agents" validate:"min=1,max=32"`
	NumNeutralAgents int `mapstructure:"num_neutral_agents" yaml:"num_neutral_agents" validate:"min=0,max=1"`

	MaxTurns                   int  `mapstructure:"max_turns" yaml:"max_turns" validate:"min=1"`
	ContextLength              int  `mapstructure:"context_length" yaml:"context_length" validate:"min=-1"`
	IncludeCurrentTurnInMemory bool `mapstructure:"include_current_turn_in_memory" yaml:"include_current_turn_in_memory"`
	DebateRounds               int  `mapstructure:"debate_rounds" yaml:"debate_rounds" validate:"min=0"`
	FeedbackOnly               bool `mapstructure:"feedback_only" yaml:"feedback_only"`

	// FeedbackSentences is the [min, max] sentence hint for feedback.
	FeedbackSentences []int `mapstructure:"feedback_sentences" yaml:"feedback_sentences" validate:"omitempty,len=2,dive,min=1"`

	StaticPersonas []persona.Persona `mapstructure:"static_personas" yaml:"static_personas" validate:"dive"`

	// PromptDir holds *.tmpl files replacing the built-in prompts.
	PromptDir string `mapstructure:"prompt_dir" yaml:"prompt_dir,omitempty"`
}

// DecisionConfig tunes the decision protocols.
type DecisionConfig struct {
	VoteTurn         int     `mapstructure:"vote_turn" yaml:"vote_turn" validate:"min=0"`
	Alterations      bool    `mapstructure:"voting_alterations" yaml:"voting_alterations"`
	ThresholdTurn    int     `mapstructure:"threshold_turn" yaml:"threshold_turn" validate:"min=0"`
	ThresholdAgents  int     `mapstructure:"threshold_agents" yaml:"threshold_agents" validate:"min=0"`
	ThresholdPercent float64 `mapstructure:"threshold_percent" yaml:"threshold_percent" validate:"min=0,max=1"`
	DecodeAttempts   int     `mapstructure:"decode_attempts" yaml:"decode_attempts" validate:"min=1,max=100"`
}

// ArchiveConfig enables the SQLite session archive.
type ArchiveConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Path    string `mapstructure:"path" yaml:"path" validate:"required_if=Enabled true"`
}

// Settings converts the discussion and decision sections into coordinator
// settings. Runtime collaborators (clients, loggers, providers) are added
// by the coordinator itself.
func (c *Config) Settings() coordinator.Settings {
	d := c.Discussion
	s := coordinator.Settings{
		Paradigm:          d.Paradigm,
		DecisionProtocol:  d.DecisionProtocol,
		ResponseGenerator: d.ResponseGenerator,
		PersonaGenerator:  d.PersonaGenerator,
		NumAgents:         d.NumAgents,
		NumNeutralAgents:  d.NumNeutralAgents,
		StaticPersonas:    d.StaticPersonas,
		Attempts:          c.Decision.DecodeAttempts,
		Discourse: discourse.Config{
			MaxTurns:           d.MaxTurns,
			ContextLength:      d.ContextLength,
			IncludeCurrentTurn: d.IncludeCurrentTurnInMemory,
			DebateRounds:       d.DebateRounds,
			FeedbackOnly:       d.FeedbackOnly,
		},
		Decision: decision.Params{
			VoteTurn:         c.Decision.VoteTurn,
			Alterations:      c.Decision.Alterations,
			ThresholdTurn:    c.Decision.ThresholdTurn,
			ThresholdAgents:  c.Decision.ThresholdAgents,
			ThresholdPercent: c.Decision.ThresholdPercent,
		},
	}
	if len(d.FeedbackSentences) == 2 {
		s.Discourse.MinSentences = d.FeedbackSentences[0]
		s.Discourse.MaxSentences = d.FeedbackSentences[1]
	}
	return s
}
