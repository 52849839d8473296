package persona

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/agent"
	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/llm"
	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/llm/providers"
	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/types"
)

var task = agent.Task{Instruction: "Translate the sentence.", Input: []string{"Guten Morgen"}}

func TestNew_Unknown(t *testing.T) {
	_, err := New("celebrity", Deps{})
	assert.True(t, types.HasCode(err, types.CONFIG_UNKNOWN_PERSONA_GENERATOR))
}

func TestNoPersona(t *testing.T) {
	g, err := New("nopersona", Deps{})
	require.NoError(t, err)

	got, err := g.Generate(context.Background(), task, 3)
	require.NoError(t, err)
	assert.Equal(t, []Persona{{Role: "Participant 1"}, {Role: "Participant 2"}, {Role: "Participant 3"}}, got)
}

func TestStatic(t *testing.T) {
	_, err := New("static", Deps{})
	assert.True(t, types.HasCode(err, types.CONFIG_VALIDATION_FAILED))

	g, err := New("static", Deps{Static: []Persona{{Role: "Linguist"}, {Role: "Editor"}}})
	require.NoError(t, err)

	got, err := g.Generate(context.Background(), task, 1)
	require.NoError(t, err)
	assert.Equal(t, []Persona{{Role: "Linguist"}}, got)

	got, err = g.Generate(context.Background(), task, 5)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestExpert_SkipsDuplicatesAndBlanks(t *testing.T) {
	p := providers.NewMockProvider([]string{
		`{"role": "Linguist", "description": "Studies language."}`,
		`{"role": "linguist", "description": "Duplicate."}`,
		`{"role": "  ", "description": "Blank."}`,
		"```json\n{\"role\": \"Translator\", \"description\": \"Translates for a living.\"}\n```",
	})
	g, err := New("expert", Deps{Client: llm.NewClient(p)})
	require.NoError(t, err)

	got, err := g.Generate(context.Background(), task, 2)
	require.NoError(t, err)
	assert.Equal(t, []Persona{
		{Role: "Linguist", Description: "Studies language."},
		{Role: "Translator", Description: "Translates for a living."},
	}, got)
	assert.Len(t, p.GetCalls(), 4)
	assert.Contains(t, p.GetCalls()[1].Request.Messages[0].Content, "Linguist", "later requests list existing experts")
}

func TestExpert_ExhaustionReturnsPartialList(t *testing.T) {
	p := providers.NewMockProvider([]string{`{"role": "Linguist"}`})
	g, err := New("expert", Deps{Client: llm.NewClient(p), Attempts: 2})
	require.NoError(t, err)

	got, err := g.Generate(context.Background(), task, 3)
	require.NoError(t, err)
	assert.Equal(t, []Persona{{Role: "Linguist"}}, got)
	assert.Len(t, p.GetCalls(), 3)
}

func TestExpert_TransportFailure(t *testing.T) {
	p := providers.NewMockProvider(nil, providers.WithResponder(func(llm.CompletionRequest, int) (string, error) {
		return "", errors.New("503 service unavailable")
	}))
	g, err := New("expert", Deps{Client: llm.NewClient(p)})
	require.NoError(t, err)

	_, err = g.Generate(context.Background(), task, 3)
	assert.True(t, types.HasCode(err, llm.ErrTransportFailed))
}

func TestExpert_RequiresClient(t *testing.T) {
	_, err := New("expert", Deps{})
	assert.True(t, types.HasCode(err, types.CONFIG_VALIDATION_FAILED))
}
