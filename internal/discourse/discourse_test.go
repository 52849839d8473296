package discourse

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/agent"
	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/decision"
	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/llm"
	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/llm/providers"
	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/memory"
	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/types"
)

var testTask = agent.Task{Instruction: "Summarize the text.", Input: []string{"The quick brown fox jumps over the lazy dog."}}

func reply(agreement, message, solution string) string {
	return fmt.Sprintf(`{"agreement": %s, "message": %q, "solution": %q}`, agreement, message, solution)
}

// recordingProtocol never converges and records every decision request.
type recordingProtocol struct {
	inputs []decision.Input
}

func (p *recordingProtocol) Name() string { return "recording" }

func (p *recordingProtocol) Decide(_ context.Context, in decision.Input) (decision.Outcome, error) {
	p.inputs = append(p.inputs, in)
	return decision.Outcome{}, nil
}

type panel struct {
	participants []agent.Participant
	providers    []*providers.MockProvider
}

// newPanel creates n panelists; participant i answers every call with
// reply("false", "msg-i-<call>", "sol-i-<call>").
func newPanel(n int) *panel {
	pn := &panel{}
	for i := 0; i < n; i++ {
		p := providers.NewMockProvider(nil, providers.WithResponder(func(_ llm.CompletionRequest, call int) (string, error) {
			return reply("false", fmt.Sprintf("msg-%d-%d", i, call), fmt.Sprintf("sol-%d-%d", i, call)), nil
		}))
		a := agent.New(fmt.Sprintf("P%d", i), "", llm.NewClient(p))
		pn.participants = append(pn.participants, agent.NewPanelist(a))
		pn.providers = append(pn.providers, p)
	}
	return pn
}

func (pn *panel) session(protocol decision.Protocol, cfg Config) *Session {
	return &Session{
		Task:         testTask,
		Participants: pn.participants,
		Discussion:   agent.NewDiscussion(len(pn.participants)),
		Protocol:     protocol,
		Config:       cfg,
	}
}

func (pn *panel) id(i int) types.ID {
	return pn.participants[i].Agent().ID
}

// promptText joins every message of the call-th request sent to p.
func promptText(p *providers.MockProvider, call int) string {
	var b strings.Builder
	for _, m := range p.GetCalls()[call].Request.Messages {
		b.WriteString(m.Content)
		b.WriteString("\n")
	}
	return b.String()
}

func containsMessage(entries []memory.Entry, message string) bool {
	for _, e := range entries {
		if e.Message == message {
			return true
		}
	}
	return false
}

func TestLookup(t *testing.T) {
	for _, name := range []string{"memory", "report", "relay", "debate"} {
		p, err := Lookup(name)
		require.NoError(t, err)
		assert.Equal(t, name, p.Name())
	}

	_, err := Lookup("town_hall")
	assert.True(t, types.HasCode(err, types.CONFIG_UNKNOWN_PARADIGM))
}

func TestRelay_Visibility(t *testing.T) {
	pn := newPanel(4)
	s := pn.session(&recordingProtocol{}, Config{MaxTurns: 1, ContextLength: 3, IncludeCurrentTurn: true})

	out, err := Relay{}.Discuss(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, 1, out.Turns)
	assert.False(t, out.Converged)

	log := s.Discussion.Log
	assert.True(t, containsMessage(log.View(pn.id(2), 1, 3, true), "msg-1-0"))
	assert.False(t, containsMessage(log.View(pn.id(3), 1, 3, true), "msg-1-0"))
	assert.False(t, containsMessage(log.View(pn.id(0), 1, 3, true), "msg-1-0"))

	prompt2 := pn.providers[2].GetCalls()[0].Request.Messages[1].Content
	prompt3 := pn.providers[3].GetCalls()[0].Request.Messages[1].Content
	assert.Contains(t, prompt2, "msg-1-0")
	assert.NotContains(t, prompt3, "msg-1-0")
	assert.Contains(t, prompt3, "msg-2-0")

	assert.Equal(t, "sol-3-0", out.Answer, "the draft travels around the ring")
}

func TestMemory_NonConvergingRunIsDeterministic(t *testing.T) {
	runOnce := func() Outcome {
		pn := newPanel(3)
		protocol, err := decision.New("unanimity_consensus", decision.Params{})
		require.NoError(t, err)

		out, err := Memory{}.Discuss(context.Background(), pn.session(protocol, Config{MaxTurns: 3, ContextLength: 3, IncludeCurrentTurn: true}))
		require.NoError(t, err)
		return out
	}

	first, second := runOnce(), runOnce()

	assert.False(t, first.Converged)
	assert.Equal(t, 3, first.Turns)
	assert.Equal(t, "sol-2-2", first.Answer)
	require.Len(t, first.Agreements, 9)

	assert.Equal(t, first.Answer, second.Answer)
	assert.Equal(t, first.Turns, second.Turns)
	require.Len(t, second.Agreements, len(first.Agreements))
	for i := range first.Agreements {
		assert.Equal(t, first.Agreements[i].Solution, second.Agreements[i].Solution)
		assert.Equal(t, first.Agreements[i].Agreement, second.Agreements[i].Agreement)
		assert.Equal(t, first.Agreements[i].MessageID, second.Agreements[i].MessageID)
	}
}

func TestMemory_StopsAsSoonAsConverged(t *testing.T) {
	scripts := [][]string{
		{reply("null", "draft", "v1"), reply("true", "fine", "v1")},
		{reply("false", "no", "v2"), reply("true", "ok", "v2")},
		{reply("false", "no", "v3"), reply("true", "never asked", "v4")},
	}

	var participants []agent.Participant
	var provs []*providers.MockProvider
	for i, script := range scripts {
		p := providers.NewMockProvider(script)
		participants = append(participants, agent.NewPanelist(agent.New(fmt.Sprintf("P%d", i), "", llm.NewClient(p))))
		provs = append(provs, p)
	}

	protocol, err := decision.New("majority_consensus", decision.Params{})
	require.NoError(t, err)

	s := &Session{
		Task:         testTask,
		Participants: participants,
		Discussion:   agent.NewDiscussion(3),
		Protocol:     protocol,
		Config:       Config{MaxTurns: 5, ContextLength: 3, IncludeCurrentTurn: true},
	}
	out, err := Memory{}.Discuss(context.Background(), s)
	require.NoError(t, err)

	assert.True(t, out.Converged)
	assert.Equal(t, 2, out.Turns)
	assert.Equal(t, "v2", out.Answer)
	assert.Len(t, provs[2].GetCalls(), 1, "the third panelist does not speak once the decision is made")
	assert.Equal(t, 5, s.Discussion.Log.Len())
}

func TestMemory_ModeratedPanelGivesFeedback(t *testing.T) {
	mp := providers.NewMockProvider([]string{reply("null", "draft", "v1"), reply("true", "rewrite", "v2")})
	mod := agent.NewModerator(agent.New("Moderator", "", llm.NewClient(mp)))
	pn := newPanel(2)

	s := &Session{
		Task:         testTask,
		Participants: append([]agent.Participant{mod}, pn.participants...),
		Discussion:   agent.NewDiscussion(3),
		Protocol:     &recordingProtocol{},
		Config:       Config{MaxTurns: 2, ContextLength: -1, IncludeCurrentTurn: true},
	}
	out, err := Memory{}.Discuss(context.Background(), s)
	require.NoError(t, err)

	entries := s.Discussion.Log.Snapshot()
	require.Len(t, entries, 6)
	kinds := make([]memory.Kind, len(entries))
	for i, e := range entries {
		kinds[i] = e.Kind
		assert.True(t, e.IsBroadcast())
	}
	assert.Equal(t, []memory.Kind{
		memory.KindDraft, memory.KindFeedback, memory.KindFeedback,
		memory.KindImprove, memory.KindFeedback, memory.KindFeedback,
	}, kinds)
	assert.Equal(t, "v2", out.Answer, "feedback keeps the moderator's draft")
}

func TestReport_HubAndSpoke(t *testing.T) {
	pn := newPanel(3)
	s := pn.session(&recordingProtocol{}, Config{MaxTurns: 1, ContextLength: 3, IncludeCurrentTurn: true})

	_, err := Report{}.Discuss(context.Background(), s)
	require.NoError(t, err)

	entries := s.Discussion.Log.Snapshot()
	require.Len(t, entries, 3)
	assert.True(t, entries[0].IsBroadcast())
	assert.ElementsMatch(t, []types.ID{pn.id(1), pn.id(0)}, entries[1].VisibleTo)
	assert.ElementsMatch(t, []types.ID{pn.id(2), pn.id(0)}, entries[2].VisibleTo)
	assert.False(t, containsMessage(s.Discussion.Log.View(pn.id(2), 1, 3, true), "msg-1-0"))
}

func TestReport_SpokesKeepTheirSolutionsPrivate(t *testing.T) {
	pn := newPanel(3)
	s := pn.session(&recordingProtocol{}, Config{MaxTurns: 2, ContextLength: 3, IncludeCurrentTurn: true})

	out, err := Report{}.Discuss(context.Background(), s)
	require.NoError(t, err)
	assert.False(t, out.Converged)
	assert.Equal(t, "sol-0-1", out.Answer, "the hub writes the answer")

	spoke := promptText(pn.providers[2], 0)
	assert.Contains(t, spoke, "sol-0-0")
	assert.NotContains(t, spoke, "sol-1-0")
	assert.NotContains(t, spoke, "msg-1-0")

	hub := promptText(pn.providers[0], 1)
	assert.Contains(t, hub, "msg-1-0")
	assert.Contains(t, hub, "msg-2-0")
}

func TestDebate_RoundsAndDecisionPoints(t *testing.T) {
	pn := newPanel(3)
	protocol := &recordingProtocol{}
	s := pn.session(protocol, Config{MaxTurns: 1, ContextLength: 3, IncludeCurrentTurn: true, DebateRounds: 2})

	_, err := Debate{}.Discuss(context.Background(), s)
	require.NoError(t, err)

	entries := s.Discussion.Log.Snapshot()
	require.Len(t, entries, 5)
	assert.True(t, entries[0].IsBroadcast())
	for _, e := range entries[1:3] {
		assert.Equal(t, "1", e.Context["debateRound"])
		assert.NotContains(t, e.VisibleTo, pn.id(0))
	}
	for _, e := range entries[3:] {
		assert.Equal(t, "2", e.Context["debateRound"])
		assert.Contains(t, e.VisibleTo, pn.id(0))
	}

	var indexes []int
	for _, in := range protocol.inputs {
		indexes = append(indexes, in.AgentIndex)
	}
	assert.Equal(t, []int{0, 1, 2}, indexes, "decisions after the drafter and after each final-round contribution")

	roundPrompt := pn.providers[1].GetCalls()[1].Request.Messages[1].Content
	assert.True(t, strings.Contains(roundPrompt, "debate round 2 of 2"))
}

func TestDebate_NeedsTwoParticipants(t *testing.T) {
	pn := newPanel(1)
	_, err := Debate{}.Discuss(context.Background(), pn.session(&recordingProtocol{}, Config{MaxTurns: 1}))
	assert.True(t, types.HasCode(err, types.CONFIG_VALIDATION_FAILED))
}

func TestDiscuss_DecodeFailureEndsSession(t *testing.T) {
	p := providers.NewMockProvider([]string{"no json here"})
	a := agent.New("P0", "", llm.NewClient(p), agent.WithAttempts(2))
	pn := newPanel(1)
	participants := append([]agent.Participant{agent.NewPanelist(a)}, pn.participants...)

	s := &Session{
		Task:         testTask,
		Participants: participants,
		Discussion:   agent.NewDiscussion(2),
		Protocol:     &recordingProtocol{},
		Config:       Config{MaxTurns: 3},
	}
	out, err := Memory{}.Discuss(context.Background(), s)
	assert.True(t, types.HasCode(err, agent.ErrCodeResponseDecode))
	assert.Equal(t, 1, out.Turns)
	assert.Empty(t, pn.providers[0].GetCalls())
}
