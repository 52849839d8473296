package artifact

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/coordinator"
	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/decision"
	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/memory"
	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/types"
)

func ok(exampleID, answer string) coordinator.Result {
	return coordinator.Result{ExampleID: exampleID, Answer: &answer}
}

func failed(exampleID string) coordinator.Result {
	return coordinator.Result{ExampleID: exampleID, Error: "boom"}
}

func TestWriter_RewritesAfterEveryAdd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "results.json")
	w := NewWriter(path, nil)

	require.NoError(t, w.Add(ok("a", "1")))
	got, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	require.NoError(t, w.Add(failed("b")))
	got, err = Load(path)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Nil(t, got[1].Answer)
	assert.Equal(t, "boom", got[1].Error)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files are left behind")
}

func TestWriter_ConcurrentAdds(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.json")
	w := NewWriter(path, nil)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, w.Add(ok(string(rune('a'+i)), "x")))
		}(i)
	}
	wg.Wait()

	got, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, got, 16)
	assert.Equal(t, got, w.Results())
}

func TestLoad_MissingFile(t *testing.T) {
	got, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestLoad_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.json")
	require.NoError(t, os.WriteFile(path, []byte("[{"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestResume(t *testing.T) {
	keep, done := Resume([]coordinator.Result{ok("a", "1"), failed("b"), ok("c", "3"), ok("a", "again")})
	assert.Equal(t, map[string]bool{"a": true, "c": true}, done)
	require.Len(t, keep, 2)
	assert.Equal(t, "1", *keep[0].Answer)
}

func TestMemoryRoundTripThroughArtifact(t *testing.T) {
	a, b := types.NewID(), types.NewID()
	log := memory.NewLog()
	_, err := log.Append(memory.Entry{Turn: 1, AgentID: a, Persona: "A", Kind: memory.KindDraft, Message: "d", Solution: "s0"})
	require.NoError(t, err)
	_, err = log.Append(memory.Entry{Turn: 1, AgentID: b, Persona: "B", Kind: memory.KindImprove, Message: "i",
		Agreement: memory.StanceDisagree, Solution: "s1", CausalRefs: []int{0}}, b, a)
	require.NoError(t, err)
	_, err = log.Append(memory.Entry{Turn: 2, AgentID: a, Persona: "A", Kind: memory.KindFeedback, Message: "f",
		Agreement: memory.StanceAgree, Solution: "s1", CausalRefs: []int{0, 1}})
	require.NoError(t, err)

	answer := "s1"
	result := coordinator.Result{
		ExampleID:    "ex",
		Answer:       &answer,
		GlobalMemory: log.Snapshot(),
		AgentMemory:  [][]memory.Entry{log.AgentSnapshot(a), log.AgentSnapshot(b)},
		VotesEachTurn: map[int]decision.VotingResults{
			2: {decision.AlterationAnonymous: {Scores: []int{1, 0}, MostVotedIndex: 0, FinalAnswer: "s1", Agreed: true}},
		},
	}

	path := filepath.Join(t.TempDir(), "results.json")
	require.NoError(t, WriteFile(path, []coordinator.Result{result}))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Len(t, loaded, 1)

	restored, err := memory.Restore(loaded[0].GlobalMemory)
	require.NoError(t, err)
	assert.Equal(t, log.Snapshot(), restored.Snapshot())
	assert.Equal(t, log.AgentSnapshot(a), restored.AgentSnapshot(a))
	assert.Equal(t, result.VotesEachTurn, loaded[0].VotesEachTurn)
}
