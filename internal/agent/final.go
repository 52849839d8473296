package agent

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/llm"
	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/prompt"
	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/retry"
)

// Final is a participant's answer restated before a vote.
type Final struct {
	Answer     string `json:"answer"`
	Confidence int    `json:"confidence"`
}

// DecodeFinal decodes a final answer reply. Confidence must lie in 0..100.
func DecodeFinal(raw string) (Final, error) {
	body, err := llm.ExtractJSON(raw)
	if err != nil {
		return Final{}, errDecode("final answer contains no JSON object")
	}

	var payload struct {
		Answer     string          `json:"answer"`
		Confidence json.RawMessage `json:"confidence"`
	}
	if err := json.Unmarshal([]byte(body), &payload); err != nil {
		return Final{}, errDecode("final answer is not an object: %v", err)
	}

	answer := strings.TrimSpace(payload.Answer)
	if answer == "" {
		return Final{}, errDecode("final answer is empty")
	}

	var confidence float64
	if err := json.Unmarshal(payload.Confidence, &confidence); err != nil {
		return Final{}, errDecode("final answer confidence is not a number: %s", payload.Confidence)
	}
	if confidence < 0 || confidence > 100 {
		return Final{}, errDecode("final answer confidence %v out of range", confidence)
	}

	return Final{Answer: answer, Confidence: int(confidence)}, nil
}

// FinalAnswer asks the agent to restate its answer, starting from the
// solution it last supported, together with a confidence score. Running out
// of attempts is fatal for the session.
func (a *Agent) FinalAnswer(ctx context.Context, task Task, solution string) (Final, error) {
	ctx, span := a.tracer.Start(ctx, "agent.final_answer")
	defer span.End()

	msgs, err := a.prompts.FinalAnswer(prompt.FinalAnswer{
		Instruction:        task.Instruction,
		Input:              task.Input,
		Persona:            a.Persona,
		PersonaDescription: a.PersonaDescription,
		Solution:           solution,
	})
	if err != nil {
		return Final{}, err
	}

	final, err := retry.Do(ctx, a.attempts, func(ctx context.Context, attempt int) (Final, error) {
		raw, err := a.client.Invoke(ctx, msgs, llm.WithStage("final_answer"))
		if err != nil {
			return Final{}, retry.Permanent(err)
		}
		return DecodeFinal(raw)
	}, retry.WithOnFailure(func(attempt int, err error) {
		a.logger.WarnContext(ctx, "rejected final answer",
			"agent", a.String(),
			"attempt", attempt,
			"error", err)
	}))

	if errors.Is(err, retry.ErrExhausted) {
		return Final{}, NewResponseDecodeError("final_answer", a.Persona, err)
	}
	return final, err
}
