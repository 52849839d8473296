package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"strings"

	"github.com/spf13/viper"

	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/types"
	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/util"
)

// ConfigLoader handles loading configuration from files.
type ConfigLoader interface {
	Load(path string) (*Config, error)
	LoadWithDefaults(path string) (*Config, error)
}

// viperConfigLoader implements ConfigLoader using Viper.
type viperConfigLoader struct {
	validator ConfigValidator
}

// NewConfigLoader creates a new ConfigLoader instance.
func NewConfigLoader(validator ConfigValidator) ConfigLoader {
	return &viperConfigLoader{validator: validator}
}

// Load reads path over the defaults, expands ${VAR} references and
// validates the result. Keys missing from the file keep their defaults.
func (l *viperConfigLoader) Load(path string) (*Config, error) {
	raw := viper.New()
	raw.SetConfigFile(path)
	raw.SetConfigType("yaml")
	if err := raw.ReadInConfig(); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, types.WrapError(types.CONFIG_NOT_FOUND, fmt.Sprintf("config file %s not found", path), err)
		}
		return nil, types.WrapError(types.CONFIG_LOAD_FAILED, "failed to read config file", err)
	}

	// Interpolate on the raw tree so strings nested in lists are covered too.
	v := viper.New()
	interpolated, _ := interpolateEnvVars(raw.AllSettings()).(map[string]any)
	if err := v.MergeConfigMap(interpolated); err != nil {
		return nil, types.WrapError(types.CONFIG_PARSE_FAILED, "failed to merge config", err)
	}

	cfg := DefaultConfig()
	if v.IsSet("llm.providers") {
		cfg.LLM.Providers = nil
	}
	if v.IsSet("discussion.feedback_sentences") {
		cfg.Discussion.FeedbackSentences = nil
	}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, types.WrapError(types.CONFIG_PARSE_FAILED, "failed to unmarshal config", err)
	}
	expandDefaults(cfg)
	if err := expandPaths(cfg); err != nil {
		return nil, types.WrapError(types.CONFIG_PARSE_FAILED, "failed to expand paths", err)
	}

	if err := l.validator.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadWithDefaults loads path, or returns the validated defaults when the
// file does not exist.
func (l *viperConfigLoader) LoadWithDefaults(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := DefaultConfig()
		expandDefaults(cfg)
		if err := l.validator.Validate(cfg); err != nil {
			return nil, err
		}
		return cfg, nil
	}
	return l.Load(path)
}

// expandDefaults interpolates the ${VAR} references that DefaultConfig
// itself carries.
func expandDefaults(cfg *Config) {
	for name, p := range cfg.LLM.Providers {
		p.APIKey = interpolateString(p.APIKey)
		p.BaseURL = interpolateString(p.BaseURL)
		cfg.LLM.Providers[name] = p
	}
}

// expandPaths resolves a leading "~" in every file-valued setting.
func expandPaths(cfg *Config) error {
	paths := []*string{&cfg.Run.Output, &cfg.Archive.Path, &cfg.Discussion.PromptDir}
	if !util.IsStream(cfg.Logging.Output) {
		paths = append(paths, &cfg.Logging.Output)
	}
	for _, p := range paths {
		expanded, err := util.ExpandHome(*p)
		if err != nil {
			return err
		}
		*p = expanded
	}
	return nil
}

// interpolateEnvVars recursively interpolates environment variables in the
// config tree.
func interpolateEnvVars(data any) any {
	switch v := data.(type) {
	case map[string]any:
		result := make(map[string]any, len(v))
		for key, value := range v {
			result[key] = interpolateEnvVars(value)
		}
		return result
	case []any:
		result := make([]any, len(v))
		for i, value := range v {
			result[i] = interpolateEnvVars(value)
		}
		return result
	case string:
		return interpolateString(v)
	default:
		return v
	}
}

var envRef = regexp.MustCompile(`\$\{([^}]+)\}`)

// interpolateString replaces ${VAR_NAME} with the variable's value. Unset
// variables are left as written so validation can name them.
func interpolateString(s string) string {
	return envRef.ReplaceAllStringFunc(s, func(match string) string {
		name := strings.TrimSuffix(strings.TrimPrefix(match, "${"), "}")
		if value := os.Getenv(name); value != "" {
			return value
		}
		return match
	})
}

// unresolvedEnv returns the first ${VAR} reference left in s.
func unresolvedEnv(s string) (string, bool) {
	m := envRef.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	return m[1], true
}
