package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/config"
	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/database"
	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/llm"
	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/llm/providers"
	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/observability"
)

func newConfigCmd(flags *GlobalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and validate configuration",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Display the effective configuration",
		Long: `Display the configuration after defaults and environment variables are
applied. Secrets are redacted. Use --format json for JSON output.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.load()
			if err != nil {
				return err
			}
			format, _ := cmd.Flags().GetString("format")
			return printConfig(cmd, redactConfig(cfg), format)
		},
	}
	show.Flags().String("format", "yaml", "Output format (yaml or json)")

	validate := &cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration file",
		Long: `Validate the configuration file for correctness.

This checks:
  - YAML syntax is valid
  - Values are within acceptable ranges
  - Paradigm, protocol and generator names are registered
  - Referenced environment variables are set

With --probe every configured provider answers a one-token request and the
session archive, when enabled, is opened and queried.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := flags.configPath()
			cfg, err := config.NewConfigLoader(config.NewValidator()).Load(path)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Configuration %s is valid\n", path)
			if probe, _ := cmd.Flags().GetBool("probe"); probe {
				return probeBackends(cmd, cfg)
			}
			return nil
		},
	}
	validate.Flags().Bool("probe", false, "Also check that providers and the archive are reachable")

	cmd.AddCommand(show, validate)
	return cmd
}

// probeBackends reports the health of every provider and of the archive.
// Any unhealthy backend fails the command.
func probeBackends(cmd *cobra.Command, cfg *config.Config) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	registry, err := providers.NewRegistry(ctx, cfg.LLM)
	if err != nil {
		return err
	}
	probes := registry.Probe(ctx)
	var unhealthy []string
	for _, name := range registry.ListProviders() {
		status := probes[name]
		fmt.Fprintf(out, "provider %-12s %s %s\n", name, status.State, status.Message)
		if !status.IsHealthy() {
			unhealthy = append(unhealthy, "provider "+name)
		}
	}

	if cfg.Archive.Enabled {
		db, err := database.Open(ctx, cfg.Archive.Path)
		if err != nil {
			return err
		}
		defer db.Close()
		status := db.Health(ctx)
		fmt.Fprintf(out, "archive  %-12s %s %s\n", db.Path(), status.State, status.Message)
		if !status.IsHealthy() {
			unhealthy = append(unhealthy, "archive")
		}
	}

	if len(unhealthy) > 0 {
		return fmt.Errorf("unhealthy backends: %s", strings.Join(unhealthy, ", "))
	}
	return nil
}

// redactConfig returns a copy of cfg with provider keys masked.
func redactConfig(cfg *config.Config) *config.Config {
	out := *cfg
	out.LLM.Providers = make(map[string]llm.ProviderConfig, len(cfg.LLM.Providers))
	for name, p := range cfg.LLM.Providers {
		if p.APIKey != "" {
			p.APIKey = observability.Redacted
		}
		out.LLM.Providers[name] = p
	}
	return &out
}

func printConfig(cmd *cobra.Command, cfg *config.Config, format string) error {
	var (
		output []byte
		err    error
	)
	switch strings.ToLower(format) {
	case "json":
		output, err = json.MarshalIndent(cfg, "", "  ")
	case "yaml", "":
		output, err = yaml.Marshal(cfg)
	default:
		return fmt.Errorf("unsupported output format: %s (use yaml or json)", format)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), strings.TrimRight(string(output), "\n"))
	return nil
}
