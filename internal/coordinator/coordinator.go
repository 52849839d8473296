// Package coordinator assembles and runs one discussion session per task
// instance.
package coordinator

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/agent"
	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/contextkeys"
	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/dataset"
	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/decision"
	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/discourse"
	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/llm"
	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/memory"
	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/observability"
	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/persona"
	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/prompt"
	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/types"
)

const instrumentationName = "github.com/Multi-Agent-LLMs/mallm-sub000/internal/coordinator"

// Moderator persona used for the neutral participant.
const (
	ModeratorPersona     = "Moderator"
	ModeratorDescription = "A neutral moderator who keeps the draft up to date with the discussion and does not vote."
)

// Settings selects the components of a session by name.
type Settings struct {
	Paradigm          string
	DecisionProtocol  string
	ResponseGenerator string
	PersonaGenerator  string

	NumAgents        int
	NumNeutralAgents int
	StaticPersonas   []persona.Persona

	// Attempts is the decode retry budget for every model reply.
	Attempts int

	Discourse discourse.Config
	Decision  decision.Params
}

// Coordinator runs sessions. It is safe for concurrent use: each Run builds
// its own participants and discussion state.
type Coordinator struct {
	client   *llm.Client
	settings Settings
	prompts  *prompt.Builder

	paradigm discourse.Paradigm
	personas persona.Generator

	logger         *slog.Logger
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
	tracer         trace.Tracer
	sessions       metric.Int64Counter
	duration       metric.Float64Histogram
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithPrompts sets the prompt builder shared by all sessions.
func WithPrompts(b *prompt.Builder) Option {
	return func(c *Coordinator) {
		if b != nil {
			c.prompts = b
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithTracerProvider overrides the global tracer provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *Coordinator) {
		if tp != nil {
			c.tracerProvider = tp
		}
	}
}

// WithMeterProvider overrides the global meter provider.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(c *Coordinator) {
		if mp != nil {
			c.meterProvider = mp
		}
	}
}

// New resolves every named component up front so that configuration
// errors surface before the first session starts.
func New(client *llm.Client, settings Settings, opts ...Option) (*Coordinator, error) {
	c := &Coordinator{
		client:         client,
		settings:       settings,
		logger:         slog.Default(),
		tracerProvider: otel.GetTracerProvider(),
		meterProvider:  otel.GetMeterProvider(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.prompts == nil {
		c.prompts = prompt.NewBuilder(prompt.MustRenderer())
	}

	c.tracer = c.tracerProvider.Tracer(instrumentationName)
	meter := c.meterProvider.Meter(instrumentationName)
	c.sessions, _ = meter.Int64Counter(observability.MetricSessions,
		metric.WithDescription("Discussion sessions finished, by status"))
	c.duration, _ = meter.Float64Histogram(observability.MetricSessionDuration,
		metric.WithDescription("Discussion session wall time"),
		metric.WithUnit("s"))

	if settings.NumNeutralAgents < 0 || settings.NumNeutralAgents > 1 {
		return nil, types.NewError(types.CONFIG_VALIDATION_FAILED, "num_neutral_agents must be 0 or 1")
	}

	var err error
	if c.paradigm, err = discourse.Lookup(settings.Paradigm); err != nil {
		return nil, err
	}
	if _, err = c.protocol(); err != nil {
		return nil, err
	}
	if _, err = agent.NewGenerator(settings.ResponseGenerator); err != nil {
		return nil, err
	}
	c.personas, err = persona.New(settings.PersonaGenerator, persona.Deps{
		Client:   client,
		Prompts:  c.prompts,
		Static:   settings.StaticPersonas,
		Attempts: settings.Attempts,
		Logger:   c.logger,
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Coordinator) protocol() (decision.Protocol, error) {
	params := c.settings.Decision
	params.Attempts = c.settings.Attempts
	params.Judge = c.client
	params.Prompts = c.prompts
	params.Logger = c.logger
	params.TracerProvider = c.tracerProvider
	params.MeterProvider = c.meterProvider
	return decision.New(c.settings.DecisionProtocol, params)
}

// Run discusses inst. On failure the returned Result still identifies the
// instance and carries whatever the session produced before the error.
func (c *Coordinator) Run(ctx context.Context, inst dataset.Instance) (Result, error) {
	start := time.Now()
	result := baseResult(inst, c.settings.Paradigm, c.settings.DecisionProtocol)
	result.SessionID = types.NewID()

	// Participants and the model client log with ctx; the handler reads
	// the ids back from it.
	ctx = contextkeys.WithSession(ctx, result.SessionID.String(), inst.ExampleID)

	ctx, span := c.tracer.Start(ctx, "coordinator.session", trace.WithAttributes(
		attribute.String("session.id", result.SessionID.String()),
		attribute.String("dataset.id", inst.DatasetID),
		attribute.String("dataset.example_id", inst.ExampleID),
		attribute.String("discourse.paradigm", c.settings.Paradigm),
		attribute.String("decision.protocol", c.settings.DecisionProtocol),
	))
	defer span.End()

	err := c.run(ctx, inst, &result)

	elapsed := time.Since(start)
	result.ElapsedSeconds = elapsed.Seconds()
	status := "converged"
	switch {
	case err != nil:
		status = "failed"
		result.Error = err.Error()
		result.Answer = nil
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.logger.ErrorContext(ctx, "session failed", "error", err, "code", types.CodeOf(err))
	case !result.Converged:
		status = "exhausted"
	}

	attrs := metric.WithAttributes(attribute.String("status", status))
	c.sessions.Add(ctx, 1, attrs)
	c.duration.Record(ctx, elapsed.Seconds(), attrs)
	span.SetAttributes(attribute.String("session.status", status), attribute.Int("discourse.turns", result.Turns))

	if err == nil {
		c.logger.InfoContext(ctx, "session finished",
			"status", status,
			"turns", result.Turns,
			"elapsed", elapsed.Round(time.Millisecond))
	}
	return result, err
}

func (c *Coordinator) run(ctx context.Context, inst dataset.Instance, result *Result) error {
	protocol, err := c.protocol()
	if err != nil {
		return err
	}
	generator, err := agent.NewGenerator(c.settings.ResponseGenerator)
	if err != nil {
		return err
	}

	task := inst.Task()
	personas, err := c.personas.Generate(ctx, task, c.settings.NumAgents)
	if err != nil {
		return err
	}
	if len(personas) < 2 {
		return NewNoDiscussionError(inst.ExampleID, len(personas))
	}
	result.Personas = personas

	participants := c.participants(personas, generator)
	d := agent.NewDiscussion(len(participants))

	outcome, err := c.paradigm.Discuss(ctx, &discourse.Session{
		Task:           task,
		Participants:   participants,
		Discussion:     d,
		Protocol:       protocol,
		Config:         c.settings.Discourse,
		Logger:         c.logger,
		TracerProvider: c.tracerProvider,
		MeterProvider:  c.meterProvider,
	})

	result.Turns = outcome.Turns
	result.Converged = outcome.Converged
	result.Agreements = outcome.Agreements
	result.VotesEachTurn = outcome.Voting
	result.GlobalMemory = d.Log.Snapshot()
	result.AgentMemory = make([][]memory.Entry, len(participants))
	for i, p := range participants {
		result.AgentMemory[i] = d.Log.AgentSnapshot(p.Agent().ID)
	}
	if err != nil {
		return err
	}

	answer := outcome.Answer
	result.Answer = &answer
	return nil
}

func (c *Coordinator) participants(personas []persona.Persona, generator agent.ResponseGenerator) []agent.Participant {
	opts := []agent.Option{
		agent.WithGenerator(generator),
		agent.WithPrompts(c.prompts),
		agent.WithAttempts(c.settings.Attempts),
		agent.WithLogger(c.logger),
		agent.WithTracerProvider(c.tracerProvider),
		agent.WithMeterProvider(c.meterProvider),
	}

	out := make([]agent.Participant, 0, len(personas)+c.settings.NumNeutralAgents)
	if c.settings.NumNeutralAgents > 0 {
		out = append(out, agent.NewModerator(agent.New(ModeratorPersona, ModeratorDescription, c.client, opts...)))
	}
	for _, p := range personas {
		out = append(out, agent.NewPanelist(agent.New(p.Role, p.Description, c.client, opts...)))
	}
	return out
}
