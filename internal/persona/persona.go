// Package persona generates the identities discussion participants speak
// with.
package persona

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/agent"
	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/llm"
	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/prompt"
	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/registry"
	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/types"
)

// Persona is a participant identity.
type Persona struct {
	Role        string `json:"role" yaml:"role" mapstructure:"role"`
	Description string `json:"description" yaml:"description" mapstructure:"description"`
}

func (p Persona) String() string {
	return p.Role
}

// Generator produces n personas for a task. It may return fewer when it
// cannot come up with enough distinct ones.
type Generator interface {
	Generate(ctx context.Context, task agent.Task, n int) ([]Persona, error)
}

// Deps are the collaborators a generator may need.
type Deps struct {
	Client   *llm.Client
	Prompts  *prompt.Builder
	Static   []Persona
	Attempts int
	Logger   *slog.Logger
}

// Factory builds a generator from deps.
type Factory func(deps Deps) (Generator, error)

// Generators holds the built-in persona generators.
var Generators = registry.New[Factory]("persona generator", types.CONFIG_UNKNOWN_PERSONA_GENERATOR)

func init() {
	Generators.MustRegister("expert", newExpert)
	Generators.MustRegister("nopersona", func(Deps) (Generator, error) { return NoPersona{}, nil })
	Generators.MustRegister("static", newStatic)
}

// New resolves and builds a persona generator by name.
func New(name string, deps Deps) (Generator, error) {
	factory, err := Generators.Get(name)
	if err != nil {
		return nil, err
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return factory(deps)
}

// NoPersona names participants generically.
type NoPersona struct{}

// Generate returns "Participant 1" .. "Participant n".
func (NoPersona) Generate(_ context.Context, _ agent.Task, n int) ([]Persona, error) {
	out := make([]Persona, n)
	for i := range out {
		out[i] = Persona{Role: fmt.Sprintf("Participant %d", i+1)}
	}
	return out, nil
}

// Static hands out a fixed list.
type Static struct {
	personas []Persona
}

func newStatic(deps Deps) (Generator, error) {
	if len(deps.Static) == 0 {
		return nil, types.NewError(types.CONFIG_VALIDATION_FAILED, "static persona generator needs discussion.static_personas")
	}
	return &Static{personas: deps.Static}, nil
}

// Generate returns the first n configured personas.
func (s *Static) Generate(_ context.Context, _ agent.Task, n int) ([]Persona, error) {
	if n > len(s.personas) {
		n = len(s.personas)
	}
	return append([]Persona(nil), s.personas[:n]...), nil
}
