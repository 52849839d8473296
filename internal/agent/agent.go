// Package agent implements discussion participants: an Agent binds a
// persona to a language model and turns draft, improve and feedback calls
// into recorded memory entries.
package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/llm"
	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/memory"
	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/observability"
	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/prompt"
	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/retry"
	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/types"
)

const instrumentationName = "github.com/Multi-Agent-LLMs/mallm-sub000/internal/agent"

// Task is the problem under discussion.
type Task struct {
	Instruction string
	Input       []string
	Context     []string
}

// Capabilities describes what a participant may do.
type Capabilities struct {
	CanDraft bool `json:"canDraft"`
	CanVote  bool `json:"canVote"`
}

// Discussion is the shared state contributions are written to.
type Discussion struct {
	Log    *memory.Log
	Window *memory.Window
}

// NewDiscussion creates empty shared state for totalAgents participants.
func NewDiscussion(totalAgents int) *Discussion {
	return &Discussion{Log: memory.NewLog(), Window: memory.NewWindow(totalAgents)}
}

// Turn is everything a single contribution depends on. The paradigm fills
// it in before each call.
type Turn struct {
	Number int
	Task   Task
	Draft  string

	// Memories is the agent's bounded view of the log; their ids become
	// the recorded entry's causal references.
	Memories []memory.Entry

	// VisibleTo restricts who sees the recorded entry. Empty broadcasts.
	VisibleTo []types.ID

	// PreferFeedback makes panelists criticize an existing draft instead of
	// rewriting it.
	PreferFeedback bool

	MinSentences int
	MaxSentences int

	DebateRound  int
	DebateRounds int
}

// Agent is one discussion participant.
type Agent struct {
	ID                 types.ID
	Persona            string
	PersonaDescription string
	Capabilities       Capabilities

	client    *llm.Client
	generator ResponseGenerator
	prompts   *prompt.Builder
	attempts  int
	logger    *slog.Logger
	tracer    trace.Tracer
	retries   metric.Int64Counter
}

// Option configures an Agent.
type Option func(*Agent)

// WithID sets the agent id instead of generating one.
func WithID(id types.ID) Option {
	return func(a *Agent) { a.ID = id }
}

// WithGenerator sets the response generator. The default is "json".
func WithGenerator(g ResponseGenerator) Option {
	return func(a *Agent) { a.generator = g }
}

// WithPrompts sets the prompt builder.
func WithPrompts(b *prompt.Builder) Option {
	return func(a *Agent) { a.prompts = b }
}

// WithAttempts sets the decode retry budget.
func WithAttempts(n int) Option {
	return func(a *Agent) { a.attempts = n }
}

// WithCapabilities overrides the default capabilities.
func WithCapabilities(c Capabilities) Option {
	return func(a *Agent) { a.Capabilities = c }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Agent) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithTracerProvider overrides the global tracer provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(a *Agent) {
		if tp != nil {
			a.tracer = tp.Tracer(instrumentationName)
		}
	}
}

// WithMeterProvider overrides the global meter provider.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(a *Agent) {
		if mp != nil {
			a.retries, _ = mp.Meter(instrumentationName).Int64Counter(observability.MetricDecodeRetries)
		}
	}
}

// New creates an agent speaking as persona through client.
func New(persona, description string, client *llm.Client, opts ...Option) *Agent {
	a := &Agent{
		ID:                 types.NewID(),
		Persona:            persona,
		PersonaDescription: description,
		Capabilities:       Capabilities{CanDraft: true, CanVote: true},
		client:             client,
		generator:          jsonGenerator{},
		attempts:           retry.DefaultAttempts,
		logger:             slog.Default(),
		tracer:             otel.Tracer(instrumentationName),
	}
	a.retries, _ = otel.Meter(instrumentationName).Int64Counter(observability.MetricDecodeRetries,
		metric.WithDescription("Replies rejected by the decoder and requested again"))

	for _, opt := range opts {
		opt(a)
	}
	if a.prompts == nil {
		a.prompts = prompt.NewBuilder(prompt.MustRenderer())
	}
	return a
}

// Generator returns the agent's response generator.
func (a *Agent) Generator() ResponseGenerator {
	return a.generator
}

// String identifies the agent in log lines.
func (a *Agent) String() string {
	return fmt.Sprintf("%s(%s)", a.Persona, a.ID.Short())
}

// Draft proposes a first solution.
func (a *Agent) Draft(ctx context.Context, d *Discussion, t Turn) (memory.Entry, error) {
	return a.contribute(ctx, d, t, OpDraft, true)
}

// Improve rewrites the current draft and states agreement with it.
func (a *Agent) Improve(ctx context.Context, d *Discussion, t Turn) (memory.Entry, error) {
	return a.contribute(ctx, d, t, OpImprove, false)
}

// Feedback comments on the current draft without replacing it.
func (a *Agent) Feedback(ctx context.Context, d *Discussion, t Turn) (memory.Entry, error) {
	return a.contribute(ctx, d, t, OpFeedback, false)
}

// contribute runs op, records exactly one entry and one stance. When
// selfDrafted is set the stance is "agree" whatever the reply said.
func (a *Agent) contribute(ctx context.Context, d *Discussion, t Turn, op Op, selfDrafted bool) (memory.Entry, error) {
	ctx, span := a.tracer.Start(ctx, "agent."+string(op), trace.WithAttributes(
		attribute.String("agent.id", a.ID.String()),
		attribute.String("agent.persona", a.Persona),
		attribute.Int("discussion.turn", t.Number),
		attribute.Int("agent.memories", len(t.Memories)),
	))
	defer span.End()

	entry, err := a.run(ctx, d, t, op, selfDrafted)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return memory.Entry{}, err
	}
	span.SetAttributes(
		attribute.Int("memory.message_id", entry.MessageID),
		attribute.String("memory.agreement", entry.Agreement.String()),
	)
	return entry, nil
}

func (a *Agent) run(ctx context.Context, d *Discussion, t Turn, op Op, selfDrafted bool) (memory.Entry, error) {
	msgs, err := a.prompts.Discussion(op.template(), prompt.Discussion{
		Instruction:        t.Task.Instruction,
		Input:              t.Task.Input,
		Context:            t.Task.Context,
		Draft:              t.Draft,
		Persona:            a.Persona,
		PersonaDescription: a.PersonaDescription,
		Memories:           t.Memories,
		Format:             a.generator.Format(),
		Critical:           a.generator.Critical(),
		MinSentences:       t.MinSentences,
		MaxSentences:       t.MaxSentences,
		DebateRound:        t.DebateRound,
		DebateRounds:       t.DebateRounds,
	})
	if err != nil {
		return memory.Entry{}, err
	}

	resp, err := a.respond(ctx, op, msgs, t)
	if err != nil {
		return memory.Entry{}, err
	}

	solution := resp.Solution
	if op == OpFeedback {
		solution = t.Draft
	}

	entry := memory.Entry{
		Turn:       t.Number,
		AgentID:    a.ID,
		Persona:    a.Persona,
		Kind:       op.Kind(),
		Message:    resp.Message,
		Agreement:  resp.Agreement,
		Solution:   solution,
		CausalRefs: memory.IDs(t.Memories),
	}
	if t.DebateRound > 0 {
		entry.Context = map[string]string{"debateRound": fmt.Sprint(t.DebateRound)}
	}

	recorded, err := d.Log.Append(entry, t.VisibleTo...)
	if err != nil {
		return memory.Entry{}, err
	}

	stance := resp.Agreement
	if selfDrafted {
		stance = memory.StanceAgree
	}
	d.Window.Add(memory.Agreement{
		AgentID:   a.ID,
		Persona:   a.Persona,
		Agreement: stance,
		Response:  resp.Message,
		Solution:  solution,
		MessageID: recorded.MessageID,
	})

	a.logger.DebugContext(ctx, "contribution recorded",
		"agent", a.String(),
		"op", op,
		"turn", t.Number,
		"message_id", recorded.MessageID,
		"agreement", stance.String())

	return recorded, nil
}

// respond invokes the model and decodes the reply, retrying decode
// failures. Transport failures end the loop immediately.
func (a *Agent) respond(ctx context.Context, op Op, msgs []llm.Message, t Turn) (Response, error) {
	resp, err := retry.Do(ctx, a.attempts, func(ctx context.Context, attempt int) (Response, error) {
		raw, err := a.client.Invoke(ctx, msgs, llm.WithStage(string(op)))
		if err != nil {
			return Response{}, retry.Permanent(err)
		}

		resp, err := a.generator.Decode(op, raw)
		if err != nil {
			return Response{}, err
		}

		if a.generator.ExtractsSolution() && op != OpFeedback {
			solution, err := a.extractSolution(ctx, t, raw)
			if err != nil {
				return Response{}, err
			}
			resp.Solution = solution
		}
		return finish(op, resp)
	}, retry.WithOnFailure(func(attempt int, err error) {
		a.retries.Add(ctx, 1, metric.WithAttributes(attribute.String("stage", string(op))))
		a.logger.WarnContext(ctx, "rejected participant reply",
			"agent", a.String(),
			"op", op,
			"attempt", attempt,
			"error", err)
	}))

	if errors.Is(err, retry.ErrExhausted) {
		return Response{}, NewResponseDecodeError(string(op), a.Persona, err)
	}
	return resp, err
}

// extractSolution asks the model to copy the solution out of a free-text
// reply. Transport failures are permanent; an empty answer is retried.
func (a *Agent) extractSolution(ctx context.Context, t Turn, raw string) (string, error) {
	msgs, err := a.prompts.Extraction(prompt.Extraction{
		Instruction: t.Task.Instruction,
		Input:       t.Task.Input,
		Response:    raw,
	})
	if err != nil {
		return "", retry.Permanent(err)
	}

	solution, err := a.client.Invoke(ctx, msgs, llm.WithStage("extract"))
	if err != nil {
		return "", retry.Permanent(err)
	}
	solution = strings.TrimSpace(solution)
	if solution == "" {
		return "", errDecode("solution extraction returned nothing")
	}
	return solution, nil
}

// Invoke sends msgs through the agent's client. Voting and judging use it
// to ask for ballots in the agent's voice.
func (a *Agent) Invoke(ctx context.Context, msgs []llm.Message, stage string) (string, error) {
	return a.client.Invoke(ctx, msgs, llm.WithStage(stage))
}
