package agent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/memory"
)

const agreeReply = `{"agreement": true, "message": "m", "solution": "4"}`
const disagreeReply = `{"agreement": false, "message": "m", "solution": "5"}`

func TestPanelist_Dispatch(t *testing.T) {
	tests := []struct {
		name string
		turn Turn
		want memory.Kind
	}{
		{name: "no draft", turn: Turn{Number: 1}, want: memory.KindDraft},
		{name: "draft exists", turn: Turn{Number: 1, Draft: "3"}, want: memory.KindImprove},
		{name: "prefers feedback", turn: Turn{Number: 1, Draft: "3", PreferFeedback: true}, want: memory.KindFeedback},
		{name: "feedback preference ignored without draft", turn: Turn{Number: 1, PreferFeedback: true}, want: memory.KindDraft},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPanelist(newTestAgent(scripted(agreeReply)))
			tt.turn.Task = testTask

			entry, err := p.Participate(context.Background(), NewDiscussion(2), tt.turn)
			require.NoError(t, err)
			assert.Equal(t, tt.want, entry.Kind)
			assert.False(t, p.IsModerator())
			assert.True(t, p.Agent().Capabilities.CanVote)
		})
	}
}

func TestModerator_AlwaysAgreesWithOwnRewrite(t *testing.T) {
	m := NewModerator(newTestAgent(scripted(disagreeReply)))
	d := NewDiscussion(2)

	entry, err := m.Participate(context.Background(), d, Turn{Number: 1, Task: testTask, Draft: "3", PreferFeedback: true})
	require.NoError(t, err)

	assert.Equal(t, memory.KindImprove, entry.Kind, "moderators never give feedback")
	assert.Equal(t, memory.StanceDisagree, entry.Agreement, "the recorded reply is kept verbatim")
	assert.Equal(t, memory.StanceAgree, d.Window.Items()[0].Agreement)
	assert.True(t, m.IsModerator())
	assert.False(t, m.Agent().Capabilities.CanVote)
}

func TestVoters(t *testing.T) {
	m := NewModerator(newTestAgent(scripted(agreeReply)))
	p1 := NewPanelist(newTestAgent(scripted(agreeReply)))
	p2 := NewPanelist(newTestAgent(scripted(agreeReply)))

	voters := Voters([]Participant{m, p1, p2})
	require.Len(t, voters, 2)
	assert.Same(t, p1, voters[0])
	assert.Same(t, p2, voters[1])
}
