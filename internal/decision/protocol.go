// Package decision implements the protocols that decide whether a
// discussion has converged: threshold consensus over the agreement window
// and several voting schemes over the participants' final answers.
package decision

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/agent"
	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/llm"
	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/memory"
	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/prompt"
	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/registry"
	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/types"
)

const instrumentationName = "github.com/Multi-Agent-LLMs/mallm-sub000/internal/decision"

// Input is the state a protocol decides over. It is taken after the
// contribution of Participants[AgentIndex] in Turn.
type Input struct {
	Discussion   *agent.Discussion
	Participants []agent.Participant
	Turn         int
	AgentIndex   int
	Task         agent.Task
	Draft        string
}

// TotalAgents is the number of seats in the discussion.
func (in Input) TotalAgents() int {
	return len(in.Participants)
}

func (in Input) lastSlot() bool {
	return in.AgentIndex == in.TotalAgents()-1
}

// Outcome is a protocol's verdict.
type Outcome struct {
	Candidate string
	Converged bool

	// Window holds the stances the decision was taken over, oldest first.
	Window []memory.Agreement

	// Voting is set only when a voting protocol actually held a vote.
	Voting VotingResults
}

// Protocol decides convergence. Decide must not invoke a participant unless
// the protocol holds a vote.
type Protocol interface {
	Name() string
	Decide(ctx context.Context, in Input) (Outcome, error)
}

// Params configures protocol construction. Zero threshold fields keep the
// named variant's defaults.
type Params struct {
	VoteTurn         int
	Alterations      bool
	ThresholdTurn    int
	ThresholdAgents  int
	ThresholdPercent float64
	Attempts         int

	// Judge is the model the judge protocol consults.
	Judge   *llm.Client
	Prompts *prompt.Builder

	Logger         *slog.Logger
	TracerProvider trace.TracerProvider
	MeterProvider  metric.MeterProvider
}

func (p Params) withDefaults() Params {
	if p.VoteTurn <= 0 {
		p.VoteTurn = 3
	}
	if p.Prompts == nil {
		p.Prompts = prompt.NewBuilder(prompt.MustRenderer())
	}
	if p.Logger == nil {
		p.Logger = slog.Default()
	}
	if p.TracerProvider == nil {
		p.TracerProvider = otel.GetTracerProvider()
	}
	if p.MeterProvider == nil {
		p.MeterProvider = otel.GetMeterProvider()
	}
	return p
}

// Factory builds a protocol.
type Factory func(p Params) (Protocol, error)

// Protocols holds the built-in decision protocols.
var Protocols = registry.New[Factory]("decision protocol", types.CONFIG_UNKNOWN_PROTOCOL)

func init() {
	for _, v := range thresholdVariants {
		Protocols.MustRegister(v.name, func(p Params) (Protocol, error) { return newThreshold(v, p), nil })
	}
	for _, m := range []Method{MethodPlain, MethodApproval, MethodCumulative, MethodRanked} {
		Protocols.MustRegister(m.protocolName(), func(p Params) (Protocol, error) { return newVoting(m, p), nil })
	}
	Protocols.MustRegister("judge", newJudge)
}

// New resolves and builds the protocol called name.
func New(name string, p Params) (Protocol, error) {
	factory, err := Protocols.Get(name)
	if err != nil {
		return nil, err
	}
	return factory(p.withDefaults())
}

// traced wraps a Decide body in a span.
func traced(ctx context.Context, tracer trace.Tracer, name string, in Input, fn func(context.Context) (Outcome, error)) (Outcome, error) {
	ctx, span := tracer.Start(ctx, "decision.decide", trace.WithAttributes(
		attribute.String("decision.protocol", name),
		attribute.Int("discussion.turn", in.Turn),
		attribute.Int("decision.agent_index", in.AgentIndex),
	))
	defer span.End()

	out, err := fn(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return out, err
	}
	span.SetAttributes(attribute.Bool("decision.converged", out.Converged))
	return out, nil
}

func moderatorIDs(participants []agent.Participant) map[types.ID]bool {
	ids := make(map[types.ID]bool)
	for _, p := range participants {
		if p.IsModerator() {
			ids[p.Agent().ID] = true
		}
	}
	return ids
}
