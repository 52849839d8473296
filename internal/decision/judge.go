package decision

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel/trace"

	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/agent"
	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/llm"
	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/memory"
	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/prompt"
	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/retry"
	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/types"
)

// JudgePersona is the persona recorded on verdict entries.
const JudgePersona = "Judge"

// Verdict is a decoded judge reply.
type Verdict struct {
	Choice int    `json:"choice"`
	Reason string `json:"reason"`
}

// Judge lets a neutral model pick among the participants' final answers.
// It is due at the same points as a vote and records its verdict in the
// discussion log.
type Judge struct {
	id       types.ID
	client   *llm.Client
	voteTurn int
	attempts int
	prompts  *prompt.Builder
	logger   *slog.Logger
	tracer   trace.Tracer
}

func newJudge(p Params) (Protocol, error) {
	if p.Judge == nil {
		return nil, types.NewError(types.CONFIG_VALIDATION_FAILED, "judge protocol needs a language model")
	}
	return &Judge{
		id:       types.NewID(),
		client:   p.Judge,
		voteTurn: p.VoteTurn,
		attempts: p.Attempts,
		prompts:  p.Prompts,
		logger:   p.Logger,
		tracer:   p.TracerProvider.Tracer(instrumentationName),
	}, nil
}

// Name returns "judge".
func (j *Judge) Name() string { return "judge" }

// Decide asks the judge when due. An undecodable verdict leaves the
// discussion running.
func (j *Judge) Decide(ctx context.Context, in Input) (Outcome, error) {
	in.Discussion.Window.Truncate(in.TotalAgents())
	out := Outcome{Window: in.Discussion.Window.Items()}
	if in.Turn < j.voteTurn || !in.lastSlot() {
		return out, nil
	}

	return traced(ctx, j.tracer, j.Name(), in, func(ctx context.Context) (Outcome, error) {
		options, err := finalAnswers(ctx, in, agent.Voters(in.Participants))
		if err != nil || len(options) == 0 {
			return out, err
		}

		msgs, err := j.prompts.Judge(prompt.Judge{
			Instruction: in.Task.Instruction,
			Input:       in.Task.Input,
			Options:     options,
		})
		if err != nil {
			return out, err
		}

		verdict, err := retry.Do(ctx, j.attempts, func(ctx context.Context, attempt int) (Verdict, error) {
			raw, err := j.client.Invoke(ctx, msgs, llm.WithStage("judge"))
			if err != nil {
				return Verdict{}, retry.Permanent(err)
			}
			return DecodeVerdict(raw, len(options))
		})
		if errors.Is(err, retry.ErrExhausted) {
			j.logger.WarnContext(ctx, "judge verdict dropped", "error", NewVoteDecodeError(JudgePersona, AlterationAnonymous, err))
			return out, nil
		}
		if err != nil {
			return out, err
		}

		answer := options[verdict.Choice].Answer
		if _, err := in.Discussion.Log.Append(memory.Entry{
			Turn:      in.Turn,
			AgentID:   j.id,
			Persona:   JudgePersona,
			Kind:      memory.KindJudge,
			Message:   verdict.Reason,
			Agreement: memory.StanceNone,
			Solution:  answer,
		}); err != nil {
			return out, err
		}

		out.Candidate = answer
		out.Converged = true
		return out, nil
	})
}

// DecodeVerdict decodes a judge reply over n options.
func DecodeVerdict(raw string, n int) (Verdict, error) {
	body, err := llm.ExtractJSON(raw)
	if err != nil {
		return Verdict{}, errBallot("no JSON object")
	}

	var payload struct {
		Choice json.RawMessage `json:"choice"`
		Reason string          `json:"reason"`
	}
	if err := json.Unmarshal([]byte(body), &payload); err != nil {
		return Verdict{}, errBallot("%v", err)
	}

	choice, err := parseOption(payload.Choice, n)
	if err != nil {
		return Verdict{}, err
	}
	return Verdict{Choice: choice, Reason: strings.TrimSpace(payload.Reason)}, nil
}
