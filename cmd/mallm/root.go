package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/config"
)

// GlobalFlags holds flags available to all commands.
type GlobalFlags struct {
	ConfigFile string
	Verbose    bool
	Quiet      bool
}

// newRootCmd builds the command tree. Each call returns fresh flag state.
func newRootCmd() *cobra.Command {
	flags := &GlobalFlags{}

	root := &cobra.Command{
		Use:   "mallm",
		Short: "mallm - multi-agent LLM discussions",
		Long: `mallm coordinates discussions between several language-model agents
with distinct personas. Agents draft, improve and criticize a shared
solution turn by turn until a decision protocol declares agreement or
the turn budget runs out.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&flags.ConfigFile, "config", "", "Path to config file (default: ./"+config.DefaultConfigFile+")")
	root.PersistentFlags().BoolVarP(&flags.Verbose, "verbose", "v", false, "Enable debug logging")
	root.PersistentFlags().BoolVarP(&flags.Quiet, "quiet", "q", false, "Suppress the run summary")
	root.MarkFlagsMutuallyExclusive("verbose", "quiet")

	root.AddCommand(
		newRunCmd(flags),
		newListCmd(),
		newConfigCmd(flags),
		newVersionCmd(),
	)
	return root
}

// Execute runs root with SIGINT and SIGTERM cancelling the context.
func Execute(ctx context.Context, root *cobra.Command) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	return root.ExecuteContext(ctx)
}

// configPath resolves the config file from flags or the environment.
func (f *GlobalFlags) configPath() string {
	if f.ConfigFile != "" {
		return f.ConfigFile
	}
	if path := os.Getenv("MALLM_CONFIG"); path != "" {
		return path
	}
	return config.DefaultConfigFile
}

// load reads the config file, falling back to defaults when the file was
// not named explicitly and does not exist.
func (f *GlobalFlags) load() (*config.Config, error) {
	loader := config.NewConfigLoader(config.NewValidator())
	if f.ConfigFile != "" {
		return loader.Load(f.ConfigFile)
	}
	return loader.LoadWithDefaults(f.configPath())
}
