package discourse

import (
	"context"
	"fmt"

	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/types"
)

// Memory shares one draft between everyone. The moderator, if present,
// rewrites the draft first and panelists comment on it; without one,
// panelists take turns improving it. Every contribution is broadcast.
type Memory struct{}

// Name returns "memory".
func (Memory) Name() string { return "memory" }

// Discuss runs the session.
func (m Memory) Discuss(ctx context.Context, s *Session) (Outcome, error) {
	moderated := s.HasModerator()
	return run(ctx, m.Name(), s, func(ctx context.Context, st *state) (bool, error) {
		for idx, p := range s.Participants {
			decided, err := st.contribute(ctx, step{
				idx:      idx,
				feedback: moderated && !p.IsModerator(),
			})
			if err != nil || decided {
				return decided, err
			}
		}
		return false, nil
	})
}

// Report makes the first participant the hub. Only the hub writes the draft
// and its contributions are broadcast; everyone else talks only to the hub.
type Report struct{}

// Name returns "report".
func (Report) Name() string { return "report" }

// Discuss runs the session.
func (r Report) Discuss(ctx context.Context, s *Session) (Outcome, error) {
	return run(ctx, r.Name(), s, func(ctx context.Context, st *state) (bool, error) {
		for idx := range s.Participants {
			sp := step{idx: idx}
			if idx > 0 {
				sp.visibleTo = ids(s.Participants, idx, 0)
				sp.keepDraft = true
			}
			decided, err := st.contribute(ctx, sp)
			if err != nil || decided {
				return decided, err
			}
		}
		return false, nil
	})
}

// Relay passes the draft around a ring. Each contribution is seen only by
// its author and the next participant.
type Relay struct{}

// Name returns "relay".
func (Relay) Name() string { return "relay" }

// Discuss runs the session.
func (r Relay) Discuss(ctx context.Context, s *Session) (Outcome, error) {
	n := len(s.Participants)
	return run(ctx, r.Name(), s, func(ctx context.Context, st *state) (bool, error) {
		for idx := range s.Participants {
			decided, err := st.contribute(ctx, step{
				idx:       idx,
				visibleTo: ids(s.Participants, idx, (idx+1)%n),
			})
			if err != nil || decided {
				return decided, err
			}
		}
		return false, nil
	})
}

// Debate has the first participant maintain a broadcast draft while the
// others argue about it in a ring for DebateRounds rounds. Only the last
// round reaches the first participant, and only the last round is put to a
// decision.
type Debate struct{}

// Name returns "debate".
func (Debate) Name() string { return "debate" }

// Discuss runs the session.
func (d Debate) Discuss(ctx context.Context, s *Session) (Outcome, error) {
	n := len(s.Participants)
	if n < 2 {
		return Outcome{}, types.NewError(types.CONFIG_VALIDATION_FAILED,
			fmt.Sprintf("debate needs at least 2 participants, got %d", n))
	}
	rounds := max(s.Config.DebateRounds, 1)

	return run(ctx, d.Name(), s, func(ctx context.Context, st *state) (bool, error) {
		decided, err := st.contribute(ctx, step{idx: 0})
		if err != nil || decided {
			return decided, err
		}

		for round := 1; round <= rounds; round++ {
			last := round == rounds
			for idx := 1; idx < n; idx++ {
				next := idx + 1
				if next == n {
					next = 1
				}
				audience := []int{idx, next}
				if last {
					audience = append(audience, 0)
				}

				decided, err := st.contribute(ctx, step{
					idx:          idx,
					visibleTo:    ids(s.Participants, audience...),
					debateRound:  round,
					skipDecision: !last,
				})
				if err != nil || decided {
					return decided, err
				}
			}
		}
		return false, nil
	})
}
