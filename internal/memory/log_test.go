package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/types"
)

func entry(agent types.ID, turn int, kind Kind) Entry {
	return Entry{AgentID: agent, Turn: turn, Kind: kind, Persona: "p-" + agent.Short(), Message: "m"}
}

func TestLog_AppendAssignsMonotonicIDs(t *testing.T) {
	log := NewLog()
	a := types.NewID()

	for i := 0; i < 25; i++ {
		e := entry(a, i/5+1, KindImprove)
		e.MessageID = 999 // ignored
		got, err := log.Append(e)
		require.NoError(t, err)
		assert.Equal(t, i, got.MessageID)
	}

	snap := log.Snapshot()
	require.Len(t, snap, 25)
	for i := 1; i < len(snap); i++ {
		assert.Equal(t, snap[i-1].MessageID+1, snap[i].MessageID)
	}
	assert.Equal(t, 25, log.NextID())
}

func TestLog_AppendRejectsInvalidEntries(t *testing.T) {
	log := NewLog()

	_, err := log.Append(Entry{AgentID: types.NewID(), Kind: "shout"})
	assert.True(t, types.HasCode(err, ErrCodeInvalidEntry))

	_, err = log.Append(Entry{Kind: KindDraft})
	assert.True(t, types.HasCode(err, ErrCodeInvalidEntry))

	_, err = log.Append(Entry{AgentID: types.NewID(), Kind: KindDraft, Turn: -1})
	assert.True(t, types.HasCode(err, ErrCodeInvalidEntry))

	assert.Equal(t, 0, log.Len(), "rejected entries consume no id")
}

func TestLog_Visibility(t *testing.T) {
	log := NewLog()
	a, b, c := types.NewID(), types.NewID(), types.NewID()

	_, _ = log.Append(entry(a, 1, KindDraft))       // 0 broadcast
	_, _ = log.Append(entry(b, 1, KindFeedback), b, a) // 1 b+a
	_, _ = log.Append(entry(c, 1, KindFeedback), c)    // 2 c only
	_, _ = log.Append(entry(a, 2, KindImprove))     // 3 broadcast

	assert.Equal(t, []int{0, 1, 3}, IDs(log.AgentSnapshot(a)))
	assert.Equal(t, []int{0, 1, 3}, IDs(log.AgentSnapshot(b)))
	assert.Equal(t, []int{0, 2, 3}, IDs(log.AgentSnapshot(c)))
	assert.Equal(t, []int{0, 3}, IDs(log.AgentSnapshot(types.NewID())))
}

func TestLog_ViewTurnWindow(t *testing.T) {
	log := NewLog()
	a := types.NewID()
	for turn := 1; turn <= 5; turn++ {
		_, err := log.Append(entry(a, turn, KindImprove))
		require.NoError(t, err)
	}

	tests := []struct {
		name          string
		currentTurn   int
		contextLength int
		includeCur    bool
		want          []int
	}{
		{name: "last two turns plus current", currentTurn: 5, contextLength: 2, includeCur: true, want: []int{2, 3, 4}},
		{name: "exclude current turn", currentTurn: 5, contextLength: 2, includeCur: false, want: []int{2, 3}},
		{name: "zero context keeps current only", currentTurn: 5, contextLength: 0, includeCur: true, want: []int{4}},
		{name: "unbounded", currentTurn: 5, contextLength: -1, includeCur: true, want: []int{0, 1, 2, 3, 4}},
		{name: "early turn", currentTurn: 1, contextLength: 3, includeCur: true, want: []int{0, 1, 2, 3, 4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := log.View(a, tt.currentTurn, tt.contextLength, tt.includeCur)
			assert.Equal(t, tt.want, IDs(got))
		})
	}
}

func TestLog_ViewReturnsCopies(t *testing.T) {
	log := NewLog()
	a := types.NewID()
	e := entry(a, 1, KindDraft)
	e.CausalRefs = []int{}
	e.Context = map[string]string{"k": "v"}
	_, _ = log.Append(e)

	view := log.View(a, 1, 1, true)
	view[0].Context["k"] = "changed"
	view[0].Message = "changed"

	snap := log.Snapshot()
	assert.Equal(t, "v", snap[0].Context["k"])
	assert.Equal(t, "m", snap[0].Message)
}

func TestLog_SnapshotRestoreRoundTrip(t *testing.T) {
	log := NewLog()
	a, b := types.NewID(), types.NewID()

	draft := entry(a, 1, KindDraft)
	draft.Solution = "x = 4"
	_, _ = log.Append(draft)

	fb := entry(b, 1, KindFeedback)
	fb.Agreement = StanceDisagree
	fb.CausalRefs = []int{0}
	_, _ = log.Append(fb, b, a)

	imp := entry(a, 2, KindImprove)
	imp.Agreement = StanceAgree
	imp.Solution = "x = 5"
	imp.CausalRefs = []int{0, 1}
	_, _ = log.Append(imp)

	data, err := MarshalEntries(log.Snapshot())
	require.NoError(t, err)

	decoded, err := UnmarshalEntries(data)
	require.NoError(t, err)

	restored, err := Restore(decoded)
	require.NoError(t, err)

	want := log.Snapshot()
	got := restored.Snapshot()
	require.Len(t, got, len(want))
	for i := range want {
		assert.Equal(t, want[i].MessageID, got[i].MessageID)
		assert.Equal(t, want[i].Turn, got[i].Turn)
		assert.Equal(t, want[i].Kind, got[i].Kind)
		assert.Equal(t, want[i].Agreement, got[i].Agreement)
		assert.Equal(t, want[i].Solution, got[i].Solution)
		assert.Equal(t, want[i].CausalRefs, got[i].CausalRefs)
	}
	assert.Equal(t, IDs(log.AgentSnapshot(b)), IDs(restored.AgentSnapshot(b)))
	assert.Equal(t, 3, restored.NextID())
}

func TestRestore_RejectsGaps(t *testing.T) {
	a := types.NewID()
	_, err := Restore([]Entry{
		{MessageID: 0, AgentID: a, Kind: KindDraft},
		{MessageID: 2, AgentID: a, Kind: KindImprove},
	})
	assert.True(t, types.HasCode(err, ErrCodeInvalidSnapshot))
}

func TestLog_Last(t *testing.T) {
	log := NewLog()
	_, ok := log.Last()
	assert.False(t, ok)

	_, _ = log.Append(entry(types.NewID(), 1, KindDraft))
	last, ok := log.Last()
	assert.True(t, ok)
	assert.Equal(t, 0, last.MessageID)
}
