package decision

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/agent"
	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/observability"
	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/prompt"
	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/retry"
)

// Alteration varies what voters are shown.
type Alteration string

const (
	AlterationAnonymous  Alteration = "anonymous"
	AlterationFacts      Alteration = "facts"
	AlterationConfidence Alteration = "confidence"
	AlterationPublic     Alteration = "public"
)

// Alterations lists every alteration; anonymous comes first.
var Alterations = []Alteration{AlterationAnonymous, AlterationFacts, AlterationConfidence, AlterationPublic}

func (a Alteration) apply(b *prompt.Ballot) {
	b.ShowFacts = a == AlterationFacts
	b.ShowConfidence = a == AlterationConfidence
	b.ShowPersonas = a == AlterationPublic
}

// VotingResult is the outcome of one vote under one alteration.
type VotingResult struct {
	Votes          []Vote `json:"votes"`
	Scores         []int  `json:"scores"`
	MostVotedIndex int    `json:"mostVotedIndex"`
	FinalAnswer    string `json:"finalAnswer"`

	// Agreed is set once any ballot counted. Tied records that the winner
	// came from the tie-break because several options shared the top score.
	Agreed bool `json:"agreed"`
	Tied   bool `json:"tied"`
}

// VotingResults holds one result per alteration that was run.
type VotingResults map[Alteration]VotingResult

// Authoritative returns the anonymous result.
func (r VotingResults) Authoritative() (VotingResult, bool) {
	res, ok := r[AlterationAnonymous]
	return res, ok
}

// Voting asks every voting participant for a final answer and then for a
// ballot over all final answers. A vote is held only in the last slot of a
// turn once VoteTurn is reached.
type Voting struct {
	method      Method
	voteTurn    int
	alterations bool
	attempts    int
	prompts     *prompt.Builder
	logger      *slog.Logger
	tracer      trace.Tracer
	dropped     metric.Int64Counter
}

func newVoting(m Method, p Params) *Voting {
	v := &Voting{
		method:      m,
		voteTurn:    p.VoteTurn,
		alterations: p.Alterations,
		attempts:    p.Attempts,
		prompts:     p.Prompts,
		logger:      p.Logger,
		tracer:      p.TracerProvider.Tracer(instrumentationName),
	}
	v.dropped, _ = p.MeterProvider.Meter(instrumentationName).Int64Counter(observability.MetricVotesDropped,
		metric.WithDescription("Ballots dropped after exhausting decode attempts"))
	return v
}

// Name returns the registered protocol name.
func (v *Voting) Name() string { return v.method.protocolName() }

// Decide holds a vote when due.
func (v *Voting) Decide(ctx context.Context, in Input) (Outcome, error) {
	in.Discussion.Window.Truncate(in.TotalAgents())
	out := Outcome{Window: in.Discussion.Window.Items()}
	if in.Turn < v.voteTurn || !in.lastSlot() {
		return out, nil
	}

	return traced(ctx, v.tracer, v.Name(), in, func(ctx context.Context) (Outcome, error) {
		voters := agent.Voters(in.Participants)
		options, err := finalAnswers(ctx, in, voters)
		if err != nil {
			return out, err
		}
		if len(options) == 0 {
			return out, nil
		}

		alterations := Alterations[:1]
		if v.alterations {
			alterations = Alterations
		}

		out.Voting = make(VotingResults, len(alterations))
		for _, alt := range alterations {
			res, err := v.vote(ctx, in, voters, options, alt)
			if err != nil {
				return out, err
			}
			out.Voting[alt] = res
		}

		res, _ := out.Voting.Authoritative()
		out.Candidate = res.FinalAnswer
		out.Converged = res.Agreed

		v.logger.InfoContext(ctx, "vote held",
			"protocol", v.Name(),
			"turn", in.Turn,
			"scores", res.Scores,
			"agreed", res.Agreed,
			"tied", res.Tied)
		return out, nil
	})
}

func (v *Voting) vote(ctx context.Context, in Input, voters []agent.Participant, options []prompt.Option, alt Alteration) (VotingResult, error) {
	var votes []Vote
	for _, p := range voters {
		a := p.Agent()
		ballot := prompt.Ballot{
			Instruction:        in.Task.Instruction,
			Input:              in.Task.Input,
			Context:            in.Task.Context,
			Persona:            a.Persona,
			PersonaDescription: a.PersonaDescription,
			Options:            options,
			Method:             string(v.method),
			Points:             CumulativePoints,
			Ranks:              min(RankedDepth, len(options)),
		}
		alt.apply(&ballot)

		msgs, err := v.prompts.Ballot(ballot)
		if err != nil {
			return VotingResult{}, err
		}

		vote, err := retry.Do(ctx, v.attempts, func(ctx context.Context, attempt int) (Vote, error) {
			raw, err := a.Invoke(ctx, msgs, "vote")
			if err != nil {
				return Vote{}, retry.Permanent(err)
			}
			return DecodeBallot(v.method, raw, len(options))
		})
		if errors.Is(err, retry.ErrExhausted) {
			v.dropped.Add(ctx, 1, metric.WithAttributes(attribute.String("alteration", string(alt))))
			v.logger.WarnContext(ctx, "ballot dropped",
				"agent", a.String(),
				"alteration", alt,
				"error", NewVoteDecodeError(a.Persona, alt, err))
			continue
		}
		if err != nil {
			return VotingResult{}, err
		}

		vote.AgentID = a.ID
		vote.Persona = a.Persona
		votes = append(votes, vote)
	}

	scores := Tally(v.method, votes, len(options))
	idx, unique := Winner(scores, v.method.lastWins())
	res := VotingResult{Votes: votes, Scores: scores, MostVotedIndex: idx, Agreed: idx >= 0, Tied: idx >= 0 && !unique}
	if idx >= 0 {
		res.FinalAnswer = options[idx].Answer
	}
	return res, nil
}

// finalAnswers asks each voter to restate its answer, starting from its
// newest stance or the running draft.
func finalAnswers(ctx context.Context, in Input, voters []agent.Participant) ([]prompt.Option, error) {
	options := make([]prompt.Option, 0, len(voters))
	for _, p := range voters {
		a := p.Agent()
		solution := in.Draft
		if stance, ok := in.Discussion.Window.Latest(a.ID); ok && stance.Solution != "" {
			solution = stance.Solution
		}

		final, err := a.FinalAnswer(ctx, in.Task, solution)
		if err != nil {
			return nil, err
		}
		options = append(options, prompt.Option{Persona: a.Persona, Answer: final.Answer, Confidence: final.Confidence})
	}
	return options, nil
}
