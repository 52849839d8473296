// Package discourse implements the turn-taking paradigms that decide which
// participant speaks when, and who hears it.
package discourse

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/agent"
	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/decision"
	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/memory"
	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/observability"
	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/registry"
	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/types"
)

const instrumentationName = "github.com/Multi-Agent-LLMs/mallm-sub000/internal/discourse"

// Config holds the per-session discussion settings.
type Config struct {
	MaxTurns int

	// ContextLength bounds each participant's view to the last turns. A
	// negative value shows the whole discussion.
	ContextLength      int
	IncludeCurrentTurn bool

	DebateRounds int

	// FeedbackOnly stops panelists from rewriting an existing draft.
	FeedbackOnly bool

	MinSentences int
	MaxSentences int
}

// Session is one discussion ready to run. A moderator, if any, is the first
// participant.
type Session struct {
	Task         agent.Task
	Participants []agent.Participant
	Discussion   *agent.Discussion
	Protocol     decision.Protocol
	Config       Config

	Logger         *slog.Logger
	TracerProvider trace.TracerProvider
	MeterProvider  metric.MeterProvider
}

// HasModerator reports whether the first seat is a moderator.
func (s *Session) HasModerator() bool {
	return len(s.Participants) > 0 && s.Participants[0].IsModerator()
}

// Outcome is the result of a discussion.
type Outcome struct {
	Answer    string
	Turns     int
	Converged bool

	// Agreements holds every stance in the order it was taken.
	Agreements []memory.Agreement

	// Voting holds the votes held, by turn.
	Voting map[int]decision.VotingResults
}

// Paradigm runs a session to convergence or to its turn limit.
type Paradigm interface {
	Name() string
	Discuss(ctx context.Context, s *Session) (Outcome, error)
}

// Paradigms holds the built-in paradigms.
var Paradigms = registry.New[Paradigm]("discourse paradigm", types.CONFIG_UNKNOWN_PARADIGM)

func init() {
	Paradigms.MustRegister("memory", Memory{})
	Paradigms.MustRegister("report", Report{})
	Paradigms.MustRegister("relay", Relay{})
	Paradigms.MustRegister("debate", Debate{})
}

// Lookup returns the paradigm called name.
func Lookup(name string) (Paradigm, error) {
	return Paradigms.Get(name)
}

// run drives the shared turn loop. turn performs one turn and reports
// whether the protocol declared convergence.
func run(ctx context.Context, name string, s *Session, turn func(ctx context.Context, st *state) (bool, error)) (Outcome, error) {
	st := newState(s)

	ctx, span := st.tracer.Start(ctx, "discourse.discuss", trace.WithAttributes(
		attribute.String("discourse.paradigm", name),
		attribute.Int("discourse.participants", len(s.Participants)),
		attribute.Int("discourse.max_turns", s.Config.MaxTurns),
	))
	defer span.End()

	for !st.decided && st.turn < s.Config.MaxTurns {
		st.turn++
		st.turns.Add(ctx, 1, metric.WithAttributes(attribute.String("paradigm", name)))

		turnCtx, turnSpan := st.tracer.Start(ctx, "discourse.turn", trace.WithAttributes(
			attribute.Int("discussion.turn", st.turn)))
		decided, err := turn(turnCtx, st)
		if err != nil {
			turnSpan.RecordError(err)
			turnSpan.SetStatus(codes.Error, err.Error())
			turnSpan.End()
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return st.outcome(), err
		}
		turnSpan.SetAttributes(attribute.Bool("decision.converged", decided))
		turnSpan.End()

		st.decided = decided
		st.logger.DebugContext(ctx, "turn finished",
			"paradigm", name,
			"turn", st.turn,
			"converged", decided,
			"entries", s.Discussion.Log.Len())
	}

	out := st.outcome()
	span.SetAttributes(
		attribute.Int("discourse.turns", out.Turns),
		attribute.Bool("discourse.converged", out.Converged),
	)
	return out, nil
}

// state is the mutable part of a running discussion.
type state struct {
	s       *Session
	turn    int
	decided bool
	draft   string
	answer  string
	history []memory.Agreement
	voting  map[int]decision.VotingResults

	logger *slog.Logger
	tracer trace.Tracer
	turns  metric.Int64Counter
}

func newState(s *Session) *state {
	tp := s.TracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	mp := s.MeterProvider
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}

	st := &state{s: s, logger: logger, tracer: tp.Tracer(instrumentationName)}
	st.turns, _ = mp.Meter(instrumentationName).Int64Counter(observability.MetricTurns,
		metric.WithDescription("Discussion turns started"))
	return st
}

// step lets participant idx contribute with the given audience and then
// asks the protocol for a decision unless skipDecision is set. A step with
// keepDraft leaves the running draft untouched; its solution reaches others
// only through the log.
type step struct {
	idx          int
	visibleTo    []types.ID
	feedback     bool
	debateRound  int
	skipDecision bool
	keepDraft    bool
}

func (st *state) contribute(ctx context.Context, sp step) (bool, error) {
	p := st.s.Participants[sp.idx]
	a := p.Agent()
	cfg := st.s.Config

	_, err := p.Participate(ctx, st.s.Discussion, agent.Turn{
		Number:         st.turn,
		Task:           st.s.Task,
		Draft:          st.draft,
		Memories:       st.s.Discussion.Log.View(a.ID, st.turn, cfg.ContextLength, cfg.IncludeCurrentTurn),
		VisibleTo:      sp.visibleTo,
		PreferFeedback: sp.feedback || cfg.FeedbackOnly,
		MinSentences:   cfg.MinSentences,
		MaxSentences:   cfg.MaxSentences,
		DebateRound:    sp.debateRound,
		DebateRounds:   debateRounds(sp.debateRound, cfg.DebateRounds),
	})
	if err != nil {
		return false, err
	}

	if stance, ok := st.s.Discussion.Window.Latest(a.ID); ok {
		st.history = append(st.history, stance)
		if stance.Solution != "" && !sp.keepDraft {
			st.draft = stance.Solution
		}
	}

	if sp.skipDecision {
		return false, nil
	}
	return st.decide(ctx, sp.idx)
}

func (st *state) decide(ctx context.Context, idx int) (bool, error) {
	out, err := st.s.Protocol.Decide(ctx, decision.Input{
		Discussion:   st.s.Discussion,
		Participants: st.s.Participants,
		Turn:         st.turn,
		AgentIndex:   idx,
		Task:         st.s.Task,
		Draft:        st.draft,
	})
	if err != nil {
		return false, err
	}

	if out.Voting != nil {
		if st.voting == nil {
			st.voting = make(map[int]decision.VotingResults)
		}
		st.voting[st.turn] = out.Voting
	}
	if out.Converged {
		st.answer = out.Candidate
	}
	return out.Converged, nil
}

func (st *state) outcome() Outcome {
	out := Outcome{
		Answer:     st.draft,
		Turns:      st.turn,
		Converged:  st.decided,
		Agreements: st.history,
		Voting:     st.voting,
	}
	if st.decided && st.answer != "" {
		out.Answer = st.answer
	}
	return out
}

func debateRounds(round, rounds int) int {
	if round == 0 {
		return 0
	}
	return rounds
}

func ids(participants []agent.Participant, idx ...int) []types.ID {
	out := make([]types.ID, len(idx))
	for i, j := range idx {
		out[i] = participants[j].Agent().ID
	}
	return out
}
