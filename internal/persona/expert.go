package persona

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/agent"
	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/llm"
	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/prompt"
	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/retry"
	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/types"
)

// Expert asks the model for task-specific experts, one at a time, so each
// request can steer away from the experts already chosen.
type Expert struct {
	client   *llm.Client
	prompts  *prompt.Builder
	attempts int
	logger   *slog.Logger
}

func newExpert(deps Deps) (Generator, error) {
	if deps.Client == nil {
		return nil, types.NewError(types.CONFIG_VALIDATION_FAILED, "expert persona generator needs a language model")
	}
	prompts := deps.Prompts
	if prompts == nil {
		prompts = prompt.NewBuilder(prompt.MustRenderer())
	}
	return &Expert{client: deps.Client, prompts: prompts, attempts: deps.Attempts, logger: deps.Logger}, nil
}

// Generate requests n experts. A persona whose replies cannot be decoded
// within the retry budget is skipped; transport failures abort.
func (e *Expert) Generate(ctx context.Context, task agent.Task, n int) ([]Persona, error) {
	out := make([]Persona, 0, n)
	for len(out) < n {
		p, err := e.next(ctx, task, out)
		if errors.Is(err, retry.ErrExhausted) {
			e.logger.WarnContext(ctx, "giving up on persona", "index", len(out), "error", err)
			break
		}
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (e *Expert) next(ctx context.Context, task agent.Task, existing []Persona) (Persona, error) {
	roles := make([]string, len(existing))
	for i, p := range existing {
		roles[i] = p.Role
	}

	msgs, err := e.prompts.Persona(prompt.Persona{
		Instruction: task.Instruction,
		Input:       task.Input,
		Existing:    roles,
	})
	if err != nil {
		return Persona{}, err
	}

	return retry.Do(ctx, e.attempts, func(ctx context.Context, attempt int) (Persona, error) {
		raw, err := e.client.Invoke(ctx, msgs, llm.WithStage("persona"))
		if err != nil {
			return Persona{}, retry.Permanent(err)
		}
		return decodePersona(raw, roles)
	}, retry.WithOnFailure(func(attempt int, err error) {
		e.logger.DebugContext(ctx, "rejected persona reply", "attempt", attempt, "error", err)
	}))
}

func decodePersona(raw string, existing []string) (Persona, error) {
	body, err := llm.ExtractJSON(raw)
	if err != nil {
		return Persona{}, err
	}

	var p Persona
	if err := json.Unmarshal([]byte(body), &p); err != nil {
		return Persona{}, fmt.Errorf("persona is not an object: %w", err)
	}

	p.Role = strings.TrimSpace(p.Role)
	p.Description = strings.TrimSpace(p.Description)
	if p.Role == "" {
		return Persona{}, fmt.Errorf("persona has no role")
	}
	for _, r := range existing {
		if strings.EqualFold(r, p.Role) {
			return Persona{}, fmt.Errorf("persona %q already taken", p.Role)
		}
	}
	return p, nil
}
