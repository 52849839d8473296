package decision

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/agent"
	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/llm"
	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/llm/providers"
	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/memory"
	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/types"
)

const (
	agree    = memory.StanceAgree
	disagree = memory.StanceDisagree
)

func TestNew_UnknownProtocol(t *testing.T) {
	_, err := New("coin_flip", Params{})
	assert.True(t, types.HasCode(err, types.CONFIG_UNKNOWN_PROTOCOL))
}

func TestProtocols_Registered(t *testing.T) {
	assert.Equal(t, []string{
		"approval_voting",
		"cumulative_voting",
		"hybrid_consensus",
		"judge",
		"majority_consensus",
		"ranked_voting",
		"simple_voting",
		"supermajority_consensus",
		"unanimity_consensus",
	}, Protocols.Names())
}

func TestThreshold_SmallPanelEarlyTurn(t *testing.T) {
	panel := idlePanel(3)
	d := discussionWith(t, panel, agree, agree, agree)

	p, err := New("hybrid_consensus", Params{ThresholdAgents: 3, ThresholdTurn: 5})
	require.NoError(t, err)

	out, err := p.Decide(context.Background(), Input{Discussion: d, Participants: panel, Turn: 1, AgentIndex: 2})
	require.NoError(t, err)
	assert.True(t, out.Converged)
	assert.Equal(t, "solution C", out.Candidate)
	assert.Len(t, out.Window, 3)
}

func TestThreshold_SmallPanelNeedsEveryone(t *testing.T) {
	panel := idlePanel(3)
	d := discussionWith(t, panel, agree, disagree, agree)

	p, err := New("majority_consensus", Params{ThresholdAgents: 3, ThresholdTurn: 5})
	require.NoError(t, err)

	out, err := p.Decide(context.Background(), Input{Discussion: d, Participants: panel, Turn: 8, AgentIndex: 2})
	require.NoError(t, err)
	assert.False(t, out.Converged, "a panel no larger than threshold_agents needs unanimity")
}

func TestThreshold_MajorityAfterGate(t *testing.T) {
	tests := []struct {
		protocol string
		want     bool
	}{
		{"majority_consensus", true},
		{"supermajority_consensus", false},
		{"unanimity_consensus", false},
	}

	for _, tt := range tests {
		t.Run(tt.protocol, func(t *testing.T) {
			panel := idlePanel(5)
			d := discussionWith(t, panel, agree, disagree, agree, disagree, agree)

			p, err := New(tt.protocol, Params{ThresholdAgents: 3, ThresholdTurn: 5})
			require.NoError(t, err)

			out, err := p.Decide(context.Background(), Input{Discussion: d, Participants: panel, Turn: 6, AgentIndex: 4})
			require.NoError(t, err)
			assert.Equal(t, tt.want, out.Converged)
			assert.Equal(t, "solution E", out.Candidate)
		})
	}
}

func TestThreshold_EarlyTurnNeedsUnanimity(t *testing.T) {
	panel := idlePanel(5)
	d := discussionWith(t, panel, agree, agree, agree, agree, disagree)

	p, err := New("hybrid_consensus", Params{})
	require.NoError(t, err)

	out, err := p.Decide(context.Background(), Input{Discussion: d, Participants: panel, Turn: 2, AgentIndex: 4})
	require.NoError(t, err)
	assert.False(t, out.Converged)
	assert.Equal(t, "solution D", out.Candidate, "candidate skips the newest disagreement")

	out, err = p.Decide(context.Background(), Input{Discussion: d, Participants: panel, Turn: 5, AgentIndex: 4})
	require.NoError(t, err)
	assert.True(t, out.Converged, "4 of 5 exceeds 0.75 once the turn gate is passed")
}

func TestThreshold_WaitsForEveryStance(t *testing.T) {
	panel := idlePanel(3)
	d := discussionWith(t, panel, agree, agree)

	p, err := New("majority_consensus", Params{})
	require.NoError(t, err)

	out, err := p.Decide(context.Background(), Input{Discussion: d, Participants: panel, Turn: 1, AgentIndex: 1})
	require.NoError(t, err)
	assert.False(t, out.Converged)
	assert.Equal(t, "solution B", out.Candidate)
}

func TestThreshold_FallsBackToModerator(t *testing.T) {
	mod := agent.NewModerator(agent.New("Moderator", "", llm.NewClient(providers.NewMockProvider(nil))))
	panel := append([]agent.Participant{mod}, idlePanel(2)...)
	d := discussionWith(t, panel, disagree, disagree, disagree)

	p, err := New("majority_consensus", Params{})
	require.NoError(t, err)

	out, err := p.Decide(context.Background(), Input{Discussion: d, Participants: panel, Turn: 1, AgentIndex: 2})
	require.NoError(t, err)
	assert.False(t, out.Converged)
	assert.Equal(t, "solution A", out.Candidate)
}

func TestThreshold_TruncatesWindow(t *testing.T) {
	panel := idlePanel(2)
	d := agent.NewDiscussion(4)
	for i, s := range []memory.Stance{disagree, disagree, agree, agree} {
		d.Window.Add(memory.Agreement{AgentID: panel[i%2].Agent().ID, Agreement: s, Solution: "s"})
	}

	p, err := New("unanimity_consensus", Params{})
	require.NoError(t, err)

	out, err := p.Decide(context.Background(), Input{Discussion: d, Participants: panel, Turn: 3, AgentIndex: 1})
	require.NoError(t, err)
	assert.True(t, out.Converged)
	assert.Equal(t, 2, d.Window.Len())
}
