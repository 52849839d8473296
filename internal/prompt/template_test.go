package prompt

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/types"
)

func TestNewRenderer_BuiltinsPresent(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	for _, name := range []string{
		TemplateSystem, TemplateDraft, TemplateImprove, TemplateFeedback, TemplateExtract,
		TemplateFinalAnswer, TemplateBallot, TemplateJudge, TemplatePersona,
	} {
		assert.True(t, r.Has(name), name)
	}
}

func TestRenderer_RenderUnknown(t *testing.T) {
	_, err := MustRenderer().Render("nope", nil)
	assert.True(t, types.HasCode(err, ErrCodeTemplateNotFound))
}

func TestRenderer_Register(t *testing.T) {
	r := MustRenderer()

	require.NoError(t, r.Register("greeting", `Hello {{.Instruction}}. {{template "task" .}}`))
	out, err := r.Render("greeting", Extraction{Instruction: "add", Input: []string{"1+1"}})
	require.NoError(t, err)
	assert.Equal(t, "Hello add. Task: add\nInput: 1+1", out)

	err = r.Register("broken", "{{if}}")
	assert.True(t, types.HasCode(err, ErrCodeInvalidTemplate))

	err = r.Register("unknown_func", "{{shout .}}")
	assert.True(t, types.HasCode(err, ErrCodeInvalidTemplate))
}

func TestRenderer_RenderExecutionError(t *testing.T) {
	r := MustRenderer()
	require.NoError(t, r.Register("missing_field", "{{.DoesNotExist}}"))

	_, err := r.Render("missing_field", Extraction{})
	assert.True(t, types.HasCode(err, ErrCodeTemplateRender))
}

func TestRenderer_LoadDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "extract.tmpl"), []byte("EXTRACT {{.Response}}"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o600))

	r := MustRenderer()
	require.NoError(t, r.LoadDir(dir))
	require.NoError(t, r.LoadDir(""))

	out, err := r.Render(TemplateExtract, Extraction{Response: "x=2"})
	require.NoError(t, err)
	assert.Equal(t, "EXTRACT x=2", out)
	assert.False(t, r.Has("notes"))
}

func TestFuncs(t *testing.T) {
	assert.Equal(t, "  a\n\n  b", indent(2, "a\n\nb"))
	assert.Equal(t, "fallback", defaultFunc("fallback", "  "))
	assert.Equal(t, "value", defaultFunc("fallback", "value"))
	assert.Equal(t, 3, inc(2))
	assert.Equal(t, "Solution 0", label(0))
	assert.Equal(t, `{"a":1}`, toJSON(map[string]int{"a": 1}))
	assert.Equal(t, "a, b", join(", ", []string{"a", "b"}))
	assert.Equal(t, `"q"`, quote("q"))
}

func TestRenderer_OverrideUsesHelpers(t *testing.T) {
	dir := t.TempDir()
	ballot := `{{default "Voter" .Persona | toLower}} votes by {{.Method | quote}}.
{{range $i, $o := .Options}}{{inc $i}}. {{label $i}}: {{trim $o.Answer}}
{{end}}Input: {{join "; " .Input}}
{{indent 2 (toJSON .Input)}}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ballot.tmpl"), []byte(ballot), 0o600))

	r := MustRenderer()
	require.NoError(t, r.LoadDir(dir))

	out, err := r.Render(TemplateBallot, Ballot{
		Method:  "ranked",
		Input:   []string{"a", "b"},
		Options: []Option{{Answer: " Canberra "}, {Answer: "Sydney"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "voter votes by \"ranked\".\n1. Solution 0: Canberra\n2. Solution 1: Sydney\nInput: a; b\n  [\"a\",\"b\"]", out)
}
