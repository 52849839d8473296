package prompt

import (
	"bytes"
	"embed"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"text/template"
)

//go:embed templates/*.tmpl
var builtinTemplates embed.FS

// Renderer executes named prompt templates. The built-in set is parsed once
// at construction; Register and LoadDir replace individual templates so a
// deployment can reword prompts without rebuilding.
type Renderer struct {
	mu   sync.RWMutex
	root *template.Template
}

// NewRenderer creates a renderer loaded with the built-in templates.
func NewRenderer() (*Renderer, error) {
	root, err := template.New("prompts").Funcs(DefaultFuncMap()).ParseFS(builtinTemplates, "templates/*.tmpl")
	if err != nil {
		return nil, NewInvalidTemplateError("builtin", err)
	}
	return &Renderer{root: root}, nil
}

// MustRenderer is NewRenderer for callers that treat a broken built-in
// template set as a programming error.
func MustRenderer() *Renderer {
	r, err := NewRenderer()
	if err != nil {
		panic(err)
	}
	return r
}

// Register adds or replaces the template called name. The content may use
// the shared blocks defined by the built-in set ("task", "memories", ...).
func (r *Renderer) Register(name, content string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	clone, err := r.root.Clone()
	if err != nil {
		return NewInvalidTemplateError(name, err)
	}
	if _, err := clone.New(templateFile(name)).Parse(content); err != nil {
		return NewInvalidTemplateError(name, err)
	}
	r.root = clone
	return nil
}

// LoadDir registers every *.tmpl file in dir under its base name. A missing
// or empty dir is not an error.
func (r *Renderer) LoadDir(dir string) error {
	if dir == "" {
		return nil
	}

	paths, err := filepath.Glob(filepath.Join(dir, "*.tmpl"))
	if err != nil {
		return NewInvalidTemplateError(dir, err)
	}

	for _, path := range paths {
		content, err := os.ReadFile(path)
		if err != nil {
			return NewInvalidTemplateError(path, err)
		}
		name := strings.TrimSuffix(filepath.Base(path), ".tmpl")
		if err := r.Register(name, string(content)); err != nil {
			return err
		}
	}
	return nil
}

// Render executes the template called name with data and trims the result.
func (r *Renderer) Render(name string, data any) (string, error) {
	r.mu.RLock()
	tmpl := r.root.Lookup(templateFile(name))
	r.mu.RUnlock()

	if tmpl == nil {
		return "", NewTemplateNotFoundError(name)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", NewTemplateRenderError(name, err)
	}
	return strings.TrimSpace(buf.String()), nil
}

// Has reports whether a template called name is registered.
func (r *Renderer) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.root.Lookup(templateFile(name)) != nil
}

func templateFile(name string) string {
	return name + ".tmpl"
}
