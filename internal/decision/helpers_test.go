package decision

import (
	"testing"

	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/agent"
	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/llm"
	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/llm/providers"
	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/memory"
)

var testTask = agent.Task{
	Instruction: "Answer the question.",
	Input:       []string{"What is the capital of Australia?"},
	Context:     []string{"Australia's parliament sits in Canberra."},
}

// scriptedVoter replies to final answer requests with final and to ballots
// with ballot.
func scriptedVoter(persona, final, ballot string) (agent.Participant, *providers.MockProvider) {
	p := providers.NewMockProvider(nil, providers.WithResponder(func(req llm.CompletionRequest, _ int) (string, error) {
		if req.Stage == "final_answer" {
			return final, nil
		}
		return ballot, nil
	}))
	return agent.NewPanelist(agent.New(persona, "", llm.NewClient(p))), p
}

func idlePanel(n int) []agent.Participant {
	out := make([]agent.Participant, n)
	for i := range out {
		out[i] = agent.NewPanelist(agent.New("Panelist", "", llm.NewClient(providers.NewMockProvider(nil))))
	}
	return out
}

func discussionWith(t *testing.T, participants []agent.Participant, stances ...memory.Stance) *agent.Discussion {
	t.Helper()
	d := agent.NewDiscussion(len(participants))
	for i, s := range stances {
		a := participants[i%len(participants)].Agent()
		d.Window.Add(memory.Agreement{
			AgentID:   a.ID,
			Persona:   a.Persona,
			Agreement: s,
			Solution:  "solution " + string(rune('A'+i)),
			MessageID: i,
		})
	}
	return d
}

func calls(ps ...*providers.MockProvider) int {
	n := 0
	for _, p := range ps {
		n += len(p.GetCalls())
	}
	return n
}
