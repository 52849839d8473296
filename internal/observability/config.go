package observability

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/util"
)

// TracingConfig contains distributed tracing configuration.
type TracingConfig struct {
	Enabled     bool    `yaml:"enabled" mapstructure:"enabled"`
	Endpoint    string  `yaml:"endpoint" mapstructure:"endpoint"`
	ServiceName string  `yaml:"service_name" mapstructure:"service_name"`
	SampleRate  float64 `yaml:"sample_rate" mapstructure:"sample_rate"`
	Insecure    bool    `yaml:"insecure" mapstructure:"insecure"`
}

// Validate checks the sample rate and, when tracing is on, the endpoint.
func (c *TracingConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.SampleRate < 0.0 || c.SampleRate > 1.0 {
		return fmt.Errorf("invalid sample rate: %f (must be between 0.0 and 1.0)", c.SampleRate)
	}
	if c.Endpoint == "" {
		return fmt.Errorf("endpoint is required when tracing is enabled")
	}
	return nil
}

// MetricsConfig contains OTLP metrics export configuration.
type MetricsConfig struct {
	Enabled  bool          `yaml:"enabled" mapstructure:"enabled"`
	Endpoint string        `yaml:"endpoint" mapstructure:"endpoint"`
	Interval time.Duration `yaml:"interval" mapstructure:"interval"`
	Insecure bool          `yaml:"insecure" mapstructure:"insecure"`
}

// Validate checks the endpoint and export interval when metrics are on.
func (c *MetricsConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Endpoint == "" {
		return fmt.Errorf("endpoint is required when metrics are enabled")
	}
	if c.Interval < 0 {
		return fmt.Errorf("invalid export interval: %s", c.Interval)
	}
	return nil
}

// LoggingConfig contains structured logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
	// Output is stdout, stderr or an absolute file path. Empty means stderr.
	Output string `yaml:"output" mapstructure:"output"`
}

var (
	validLevels  = []string{"debug", "info", "warn", "error"}
	validFormats = []string{"json", "text"}
)

// Validate checks level, format and output.
func (c *LoggingConfig) Validate() error {
	if !slices.Contains(validLevels, strings.ToLower(c.Level)) {
		return fmt.Errorf("invalid log level: %s (must be one of: %s)", c.Level, strings.Join(validLevels, ", "))
	}
	if !slices.Contains(validFormats, strings.ToLower(c.Format)) {
		return fmt.Errorf("invalid log format: %s (must be one of: %s)", c.Format, strings.Join(validFormats, ", "))
	}

	if !util.IsStream(c.Output) && !strings.HasPrefix(c.Output, "/") {
		return fmt.Errorf("invalid log output: %s (must be 'stdout', 'stderr', or an absolute file path)", c.Output)
	}
	return nil
}
