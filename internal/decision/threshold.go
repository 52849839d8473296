package decision

import (
	"context"

	"go.opentelemetry.io/otel/trace"

	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/memory"
	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/types"
)

type thresholdVariant struct {
	name    string
	percent float64
	agents  int
	turn    int
}

var thresholdVariants = []thresholdVariant{
	{name: "majority_consensus", percent: 0.5},
	{name: "supermajority_consensus", percent: 0.66},
	{name: "unanimity_consensus", percent: 1.0},
	{name: "hybrid_consensus", percent: 0.75, agents: 3, turn: 5},
}

// Threshold is consensus by agreement count. While the panel is small
// (at most Agents seats) or the discussion is young (before Turn), every
// participant has to agree; afterwards more than Percent of them suffice.
type Threshold struct {
	name    string
	Percent float64
	Agents  int
	Turn    int
	tracer  trace.Tracer
}

func newThreshold(v thresholdVariant, p Params) *Threshold {
	t := &Threshold{
		name:    v.name,
		Percent: v.percent,
		Agents:  v.agents,
		Turn:    v.turn,
		tracer:  p.TracerProvider.Tracer(instrumentationName),
	}
	if p.ThresholdPercent > 0 {
		t.Percent = p.ThresholdPercent
	}
	if p.ThresholdAgents > 0 {
		t.Agents = p.ThresholdAgents
	}
	if p.ThresholdTurn > 0 {
		t.Turn = p.ThresholdTurn
	}
	return t
}

// Name returns the registered protocol name.
func (t *Threshold) Name() string { return t.name }

// Decide counts agreeing stances in the window.
func (t *Threshold) Decide(ctx context.Context, in Input) (Outcome, error) {
	return traced(ctx, t.tracer, t.name, in, func(context.Context) (Outcome, error) {
		return t.decide(in), nil
	})
}

func (t *Threshold) decide(in Input) Outcome {
	total := in.TotalAgents()
	window := in.Discussion.Window
	window.Truncate(total)
	items := window.Items()

	out := Outcome{Window: items}

	candidate, ok := newestAgreeing(items)
	if !ok {
		out.Candidate = fallbackSolution(items, moderatorIDs(in.Participants))
		return out
	}
	out.Candidate = candidate

	if len(items) < total {
		return out
	}

	agree := window.Count(memory.StanceAgree)
	if total <= t.Agents || in.Turn < t.Turn {
		out.Converged = agree == total
		return out
	}
	out.Converged = agree == total || float64(agree) > t.Percent*float64(total)
	return out
}

func newestAgreeing(items []memory.Agreement) (string, bool) {
	for i := len(items) - 1; i >= 0; i-- {
		if items[i].Agreement == memory.StanceAgree {
			return items[i].Solution, true
		}
	}
	return "", false
}

// fallbackSolution prefers the moderator's newest solution, else the newest
// solution in the window.
func fallbackSolution(items []memory.Agreement, moderators map[types.ID]bool) string {
	for i := len(items) - 1; i >= 0; i-- {
		if moderators[items[i].AgentID] {
			return items[i].Solution
		}
	}
	if len(items) == 0 {
		return ""
	}
	return items[len(items)-1].Solution
}
