// Package scheduler runs one discussion session per dataset instance on a
// bounded pool of workers and persists every finished result.
package scheduler

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/coordinator"
	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/dataset"
	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/types"
)

// DefaultConcurrency is the worker count used when none is configured.
const DefaultConcurrency = 4

// Runner discusses a single instance. *coordinator.Coordinator implements it.
type Runner interface {
	Run(ctx context.Context, inst dataset.Instance) (coordinator.Result, error)
}

// Sink receives every finished result. Implementations must be safe for
// concurrent use.
type Sink interface {
	Add(r coordinator.Result) error
}

// Archive stores a finished session. Archive failures are logged and never
// fail the batch.
type Archive interface {
	Archive(ctx context.Context, r coordinator.Result) error
}

// Summary describes a finished batch.
type Summary struct {
	Total     int
	Skipped   int
	Converged int
	Exhausted int
	Failed    int
}

// Scheduler fans instances out to a Runner.
type Scheduler struct {
	runner      Runner
	sink        Sink
	archive     Archive
	concurrency int
	done        map[string]bool
	logger      *slog.Logger
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithConcurrency bounds the number of sessions running at once.
func WithConcurrency(n int) Option {
	return func(s *Scheduler) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithSink sets where finished results are written.
func WithSink(sink Sink) Option {
	return func(s *Scheduler) { s.sink = sink }
}

// WithArchive stores every finished session in archive as well.
func WithArchive(archive Archive) Option {
	return func(s *Scheduler) { s.archive = archive }
}

// WithCompleted skips instances whose example id is in done.
func WithCompleted(done map[string]bool) Option {
	return func(s *Scheduler) { s.done = done }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates a scheduler over runner.
func New(runner Runner, opts ...Option) *Scheduler {
	s := &Scheduler{
		runner:      runner,
		concurrency: DefaultConcurrency,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run discusses every instance and returns the results in input order,
// leaving out skipped instances. A failing session never stops the batch;
// it is recorded as a failed result. Run only returns an error when the
// sink cannot be written or ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context, instances []dataset.Instance) ([]coordinator.Result, Summary, error) {
	summary := Summary{Total: len(instances)}
	slots := make([]*coordinator.Result, len(instances))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i, inst := range instances {
		if s.done[inst.ExampleID] {
			summary.Skipped++
			s.logger.DebugContext(ctx, "skipping completed instance", "example_id", inst.ExampleID)
			continue
		}

		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			result := s.runOne(gctx, inst)

			mu.Lock()
			slots[i] = &result
			switch {
			case result.Failed():
				summary.Failed++
			case result.Converged:
				summary.Converged++
			default:
				summary.Exhausted++
			}
			mu.Unlock()

			if s.sink != nil {
				if err := s.sink.Add(result); err != nil {
					return types.WrapError(types.ARTIFACT_WRITE_FAILED, "failed to write results", err)
				}
			}
			return nil
		})
	}

	err := g.Wait()

	results := make([]coordinator.Result, 0, len(instances))
	for _, r := range slots {
		if r != nil {
			results = append(results, *r)
		}
	}

	s.logger.InfoContext(ctx, "batch finished",
		"total", summary.Total,
		"skipped", summary.Skipped,
		"converged", summary.Converged,
		"exhausted", summary.Exhausted,
		"failed", summary.Failed)
	return results, summary, err
}

func (s *Scheduler) runOne(ctx context.Context, inst dataset.Instance) coordinator.Result {
	result, err := s.runner.Run(ctx, inst)
	if err != nil {
		if result.ExampleID == "" {
			result = coordinator.NewFailedResult(inst, result.Paradigm, result.DecisionProtocol, err)
		}
		result.Answer = nil
		result.Error = err.Error()
		s.logger.WarnContext(ctx, "instance failed",
			"example_id", inst.ExampleID,
			"dataset_id", inst.DatasetID,
			"code", types.CodeOf(err),
			"error", err)
	}

	if s.archive != nil {
		if err := s.archive.Archive(ctx, result); err != nil {
			s.logger.WarnContext(ctx, "failed to archive session",
				"example_id", inst.ExampleID,
				"session_id", result.SessionID.String(),
				"error", err)
		}
	}
	return result
}
