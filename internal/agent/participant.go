package agent

import (
	"context"

	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/memory"
)

// Participant is a seat in the discussion. Paradigms drive participants
// only through this interface.
type Participant interface {
	// Agent returns the underlying agent.
	Agent() *Agent

	// Participate performs the participant's contribution for the turn and
	// returns the recorded entry.
	Participate(ctx context.Context, d *Discussion, t Turn) (memory.Entry, error)

	// IsModerator reports whether the participant is a neutral moderator.
	IsModerator() bool
}

// Panelist is a regular discussion member. It drafts when there is no
// draft yet, otherwise gives feedback or improves.
type Panelist struct {
	agent *Agent
}

// NewPanelist wraps a as a panelist.
func NewPanelist(a *Agent) *Panelist {
	a.Capabilities = Capabilities{CanDraft: true, CanVote: true}
	return &Panelist{agent: a}
}

// Agent returns the underlying agent.
func (p *Panelist) Agent() *Agent { return p.agent }

// IsModerator always returns false.
func (p *Panelist) IsModerator() bool { return false }

// Participate drafts, gives feedback or improves depending on the turn.
func (p *Panelist) Participate(ctx context.Context, d *Discussion, t Turn) (memory.Entry, error) {
	switch {
	case t.Draft == "":
		return p.agent.Draft(ctx, d, t)
	case t.PreferFeedback:
		return p.agent.Feedback(ctx, d, t)
	default:
		return p.agent.Improve(ctx, d, t)
	}
}

// Moderator is a neutral participant that maintains the draft. It never
// votes and always supports its own rewrite.
type Moderator struct {
	agent *Agent
}

// NewModerator wraps a as a moderator.
func NewModerator(a *Agent) *Moderator {
	a.Capabilities = Capabilities{CanDraft: true, CanVote: false}
	return &Moderator{agent: a}
}

// Agent returns the underlying agent.
func (m *Moderator) Agent() *Agent { return m.agent }

// IsModerator always returns true.
func (m *Moderator) IsModerator() bool { return true }

// Participate drafts when there is no draft, otherwise improves it.
func (m *Moderator) Participate(ctx context.Context, d *Discussion, t Turn) (memory.Entry, error) {
	if t.Draft == "" {
		return m.agent.Draft(ctx, d, t)
	}
	return m.agent.contribute(ctx, d, t, OpImprove, true)
}

// Voters returns the participants allowed to vote, in order.
func Voters(participants []Participant) []Participant {
	out := make([]Participant, 0, len(participants))
	for _, p := range participants {
		if p.Agent().Capabilities.CanVote {
			out = append(out, p)
		}
	}
	return out
}
