package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/agent"
	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/decision"
	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/discourse"
	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/persona"
	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/types"
)

// ConfigValidator validates configuration values.
type ConfigValidator interface {
	Validate(cfg *Config) error
}

// validatorImpl implements ConfigValidator using go-playground/validator.
type validatorImpl struct {
	validate *validator.Validate
}

// NewValidator creates a new ConfigValidator instance.
func NewValidator() ConfigValidator {
	return &validatorImpl{validate: validator.New()}
}

// Validate checks struct tags first, then component names against their
// registries, then the rules that span several fields. Unknown component
// names keep their CONFIG_UNKNOWN_* codes; everything else is reported as
// CONFIG_VALIDATION_FAILED.
func (v *validatorImpl) Validate(cfg *Config) error {
	if cfg == nil {
		return types.NewError(types.CONFIG_VALIDATION_FAILED, "configuration is nil")
	}

	if err := v.validate.Struct(cfg); err != nil {
		var validationErrs validator.ValidationErrors
		if !errors.As(err, &validationErrs) {
			return types.WrapError(types.CONFIG_VALIDATION_FAILED, "validation error", err)
		}
		messages := make([]string, 0, len(validationErrs))
		for _, e := range validationErrs {
			messages = append(messages, formatValidationError(e))
		}
		return failed(messages)
	}

	if err := checkComponents(cfg.Discussion); err != nil {
		return err
	}

	var messages []string
	d := cfg.Discussion
	if len(d.FeedbackSentences) == 2 && d.FeedbackSentences[0] > d.FeedbackSentences[1] {
		messages = append(messages, fmt.Sprintf("discussion.feedback_sentences minimum %d exceeds maximum %d",
			d.FeedbackSentences[0], d.FeedbackSentences[1]))
	}
	if strings.EqualFold(d.PersonaGenerator, "static") && len(d.StaticPersonas) == 0 {
		messages = append(messages, "discussion.static_personas must be non-empty when persona_generator is 'static'")
	}
	if strings.EqualFold(d.Paradigm, "debate") && d.NumAgents+d.NumNeutralAgents < 2 {
		messages = append(messages, "discussion.num_agents must leave at least two participants for the debate paradigm")
	}
	for name, p := range cfg.LLM.Providers {
		if ref, ok := unresolvedEnv(p.APIKey); ok {
			messages = append(messages, fmt.Sprintf("llm.providers.%s.api_key references unset environment variable %s", name, ref))
		}
	}
	if len(messages) > 0 {
		return failed(messages)
	}

	sections := []struct {
		name  string
		check func() error
	}{
		{"llm", cfg.LLM.Validate},
		{"logging", cfg.Logging.Validate},
		{"tracing", cfg.Tracing.Validate},
		{"metrics", cfg.Metrics.Validate},
	}
	for _, s := range sections {
		if err := s.check(); err != nil {
			return types.WrapError(types.CONFIG_VALIDATION_FAILED, fmt.Sprintf("invalid %s section", s.name), err)
		}
	}
	return nil
}

func checkComponents(d DiscussionConfig) error {
	if _, err := discourse.Paradigms.Get(d.Paradigm); err != nil {
		return err
	}
	if _, err := decision.Protocols.Get(d.DecisionProtocol); err != nil {
		return err
	}
	if _, err := agent.Generators.Get(d.ResponseGenerator); err != nil {
		return err
	}
	if _, err := persona.Generators.Get(d.PersonaGenerator); err != nil {
		return err
	}
	return nil
}

func failed(messages []string) error {
	return types.NewError(types.CONFIG_VALIDATION_FAILED,
		"configuration validation failed:\n  - "+strings.Join(messages, "\n  - "))
}

// formatValidationError formats a single validation error with field path and details.
func formatValidationError(e validator.FieldError) string {
	fieldPath := formatFieldPath(e.Namespace())

	switch e.Tag() {
	case "required", "required_if":
		return fmt.Sprintf("%s is required", fieldPath)
	case "min":
		return fmt.Sprintf("%s must be at least %s (got: %v)", fieldPath, e.Param(), e.Value())
	case "max":
		return fmt.Sprintf("%s must be at most %s (got: %v)", fieldPath, e.Param(), e.Value())
	case "len":
		return fmt.Sprintf("%s must have exactly %s items", fieldPath, e.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s] (got: %v)", fieldPath, e.Param(), e.Value())
	default:
		return fmt.Sprintf("%s failed validation '%s' (got: %v)", fieldPath, e.Tag(), e.Value())
	}
}

// formatFieldPath converts a validator namespace to a config key path.
// Example: "Config.Run.RequestsPerSecond" -> "run.requests_per_second"
func formatFieldPath(namespace string) string {
	parts := strings.Split(namespace, ".")
	if len(parts) <= 1 {
		return namespace
	}

	result := make([]string, 0, len(parts)-1)
	for _, p := range parts[1:] {
		result = append(result, camelToSnake(p))
	}
	return strings.Join(result, ".")
}

// camelToSnake converts CamelCase to snake_case. Runs of capitals such as
// "LLM" stay together.
func camelToSnake(s string) string {
	runes := []rune(s)
	var result strings.Builder
	for i, r := range runes {
		upper := r >= 'A' && r <= 'Z'
		if upper && i > 0 {
			prevLower := runes[i-1] >= 'a' && runes[i-1] <= 'z'
			nextLower := i+1 < len(runes) && runes[i+1] >= 'a' && runes[i+1] <= 'z'
			prevUpper := runes[i-1] >= 'A' && runes[i-1] <= 'Z'
			if prevLower || (prevUpper && nextLower) {
				result.WriteRune('_')
			}
		}
		result.WriteRune(r)
	}
	return strings.ToLower(result.String())
}
