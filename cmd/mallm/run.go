package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/artifact"
	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/config"
	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/coordinator"
	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/database"
	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/dataset"
	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/llm"
	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/llm/providers"
	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/observability"
	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/prompt"
	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/scheduler"
)

// runFlags override config values when set.
type runFlags struct {
	output      string
	concurrency int
	resume      bool
	paradigm    string
	protocol    string
	agents      int
	maxTurns    int
	archive     string
	limit       int
}

func newRunCmd(global *GlobalFlags) *cobra.Command {
	f := &runFlags{}

	cmd := &cobra.Command{
		Use:   "run <dataset>",
		Short: "Discuss every instance of a dataset file",
		Long: `Run one discussion session per instance in a .json, .jsonl or .yaml
dataset file. Results are rewritten to the output file after every
finished instance, so an interrupted run can continue with --resume.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := global.load()
			if err != nil {
				return err
			}
			if err := f.apply(cmd, cfg); err != nil {
				return err
			}
			return runBatch(cmd, global, cfg, args[0], f.limit)
		},
	}

	fl := cmd.Flags()
	fl.StringVarP(&f.output, "output", "o", "", "Results file (overrides run.output)")
	fl.IntVarP(&f.concurrency, "concurrency", "c", 0, "Sessions run in parallel (overrides run.concurrency)")
	fl.BoolVar(&f.resume, "resume", false, "Skip instances already answered in the results file")
	fl.StringVar(&f.paradigm, "paradigm", "", "Discourse paradigm (overrides discussion.paradigm)")
	fl.StringVar(&f.protocol, "protocol", "", "Decision protocol (overrides discussion.decision_protocol)")
	fl.IntVar(&f.agents, "agents", 0, "Number of persona agents (overrides discussion.num_agents)")
	fl.IntVar(&f.maxTurns, "max-turns", 0, "Turn budget per session (overrides discussion.max_turns)")
	fl.StringVar(&f.archive, "archive", "", "SQLite archive path; enables the session archive")
	fl.IntVar(&f.limit, "limit", 0, "Only run the first N instances")
	return cmd
}

// apply copies changed flags into cfg and revalidates it.
func (f *runFlags) apply(cmd *cobra.Command, cfg *config.Config) error {
	changed := cmd.Flags().Changed
	if changed("output") {
		cfg.Run.Output = f.output
	}
	if changed("concurrency") {
		cfg.Run.Concurrency = f.concurrency
	}
	if changed("resume") {
		cfg.Run.Resume = f.resume
	}
	if changed("paradigm") {
		cfg.Discussion.Paradigm = f.paradigm
	}
	if changed("protocol") {
		cfg.Discussion.DecisionProtocol = f.protocol
	}
	if changed("agents") {
		cfg.Discussion.NumAgents = f.agents
	}
	if changed("max-turns") {
		cfg.Discussion.MaxTurns = f.maxTurns
	}
	if changed("archive") {
		cfg.Archive.Enabled = true
		cfg.Archive.Path = f.archive
	}
	return config.NewValidator().Validate(cfg)
}

func runBatch(cmd *cobra.Command, global *GlobalFlags, cfg *config.Config, datasetPath string, limit int) error {
	ctx := cmd.Context()
	start := time.Now()

	if global.Verbose {
		cfg.Logging.Level = "debug"
	}
	out, closeLog, err := observability.OpenOutput(cfg.Logging.Output)
	if err != nil {
		return err
	}
	defer closeLog()
	logger, err := observability.NewLogger(cfg.Logging, out)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	telemetry, err := observability.InitTelemetry(ctx, cfg.Tracing, cfg.Metrics)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			logger.Warn("telemetry shutdown failed", "error", err)
		}
	}()

	instances, err := dataset.Load(datasetPath)
	if err != nil {
		return err
	}
	if limit > 0 && limit < len(instances) {
		instances = instances[:limit]
	}

	client, err := newClient(ctx, cfg, logger, telemetry)
	if err != nil {
		return err
	}

	renderer, err := prompt.NewRenderer()
	if err != nil {
		return err
	}
	if err := renderer.LoadDir(cfg.Discussion.PromptDir); err != nil {
		return err
	}

	coord, err := coordinator.New(client, cfg.Settings(),
		coordinator.WithPrompts(prompt.NewBuilder(renderer)),
		coordinator.WithLogger(logger),
		coordinator.WithTracerProvider(telemetry.TracerProvider),
		coordinator.WithMeterProvider(telemetry.MeterProvider),
	)
	if err != nil {
		return err
	}

	opts := []scheduler.Option{
		scheduler.WithConcurrency(cfg.Run.Concurrency),
		scheduler.WithLogger(logger),
	}

	var existing []coordinator.Result
	if cfg.Run.Resume {
		previous, err := artifact.Load(cfg.Run.Output)
		if err != nil {
			return err
		}
		keep, done := artifact.Resume(previous)
		existing = keep
		opts = append(opts, scheduler.WithCompleted(done))
		logger.Info("resuming run", "output", cfg.Run.Output, "completed", len(done))
	}
	writer := artifact.NewWriter(cfg.Run.Output, existing)
	opts = append(opts, scheduler.WithSink(writer))

	if cfg.Archive.Enabled {
		db, err := database.Open(ctx, cfg.Archive.Path)
		if err != nil {
			return err
		}
		defer db.Close()
		opts = append(opts, scheduler.WithArchive(scheduler.NewSessionArchive(database.NewSessionDAO(db))))
	}

	logger.Info("starting run",
		"dataset", datasetPath,
		"instances", len(instances),
		"paradigm", cfg.Discussion.Paradigm,
		"protocol", cfg.Discussion.DecisionProtocol,
		"concurrency", cfg.Run.Concurrency)

	_, summary, runErr := scheduler.New(coord, opts...).Run(ctx, instances)

	// An empty or fully resumed batch still leaves a valid results file.
	if err := writer.Flush(); err != nil && runErr == nil {
		runErr = err
	}

	if !global.Quiet {
		fmt.Fprintln(cmd.OutOrStdout(), renderSummary(summary, cfg.Run.Output, time.Since(start).Seconds()))
	}
	return runErr
}

// newClient builds the language model client for the default provider.
func newClient(ctx context.Context, cfg *config.Config, logger *slog.Logger, telemetry *observability.Telemetry) (*llm.Client, error) {
	registry, err := providers.NewRegistry(ctx, cfg.LLM)
	if err != nil {
		return nil, err
	}
	provider, err := registry.GetProvider(cfg.LLM.DefaultProvider)
	if err != nil {
		return nil, err
	}
	pc, err := cfg.LLM.DefaultProviderConfig()
	if err != nil {
		return nil, err
	}

	defaults := []llm.CompletionOption{llm.WithTemperature(cfg.LLM.Temperature)}
	if cfg.LLM.MaxTokens > 0 {
		defaults = append(defaults, llm.WithMaxTokens(cfg.LLM.MaxTokens))
	}

	return llm.NewClient(provider,
		llm.WithModel(pc.DefaultModel),
		llm.WithDefaults(defaults...),
		llm.WithStreaming(cfg.LLM.Stream),
		llm.WithLimiter(llm.NewLimiter(cfg.Run.RequestsPerSecond)),
		llm.WithLogger(logger),
		llm.WithTracerProvider(telemetry.TracerProvider),
		llm.WithMeterProvider(telemetry.MeterProvider),
	), nil
}
