package agent

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/llm"
	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/memory"
	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/prompt"
)

// Op is a discussion operation a participant can perform.
type Op string

const (
	OpDraft    Op = "draft"
	OpImprove  Op = "improve"
	OpFeedback Op = "feedback"
)

// Kind returns the memory kind recorded for the operation.
func (o Op) Kind() memory.Kind {
	return memory.Kind(o)
}

func (o Op) template() string {
	switch o {
	case OpDraft:
		return prompt.TemplateDraft
	case OpFeedback:
		return prompt.TemplateFeedback
	default:
		return prompt.TemplateImprove
	}
}

// Response is a decoded participant reply.
type Response struct {
	Agreement memory.Stance
	Message   string
	Solution  string
}

type jsonResponse struct {
	Agreement json.RawMessage `json:"agreement"`
	Message   string          `json:"message"`
	Solution  string          `json:"solution"`
}

// DecodeJSON decodes a structured reply. Drafts carry no agreement; every
// other operation must state one. Drafts and improvements must carry a
// solution.
func DecodeJSON(op Op, raw string) (Response, error) {
	body, err := llm.ExtractJSON(raw)
	if err != nil {
		return Response{}, errDecode("%s reply contains no JSON object", op)
	}

	var payload jsonResponse
	if err := json.Unmarshal([]byte(body), &payload); err != nil {
		return Response{}, errDecode("%s reply is not a response object: %v", op, err)
	}

	resp := Response{
		Message:  strings.TrimSpace(payload.Message),
		Solution: strings.TrimSpace(payload.Solution),
	}

	if op != OpDraft {
		stance, ok := parseAgreement(payload.Agreement)
		if !ok {
			return Response{}, errDecode("%s reply has no usable agreement: %s", op, payload.Agreement)
		}
		resp.Agreement = stance
	}

	return finish(op, resp)
}

// DecodeFreeText decodes an unstructured reply. Agreement comes from an
// [AGREE] or [DISAGREE] marker; exactly one must be present unless op is a
// draft. The solution is filled in separately.
func DecodeFreeText(op Op, raw string) (Response, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return Response{}, errDecode("%s reply is empty", op)
	}

	upper := strings.ToUpper(text)
	agree := strings.Contains(upper, "[AGREE]")
	disagree := strings.Contains(upper, "[DISAGREE]")

	resp := Response{Message: stripMarkers(text)}
	if op != OpDraft {
		switch {
		case agree && !disagree:
			resp.Agreement = memory.StanceAgree
		case disagree && !agree:
			resp.Agreement = memory.StanceDisagree
		default:
			return Response{}, errDecode("%s reply must contain exactly one of [AGREE] or [DISAGREE]", op)
		}
	}
	return resp, nil
}

func finish(op Op, resp Response) (Response, error) {
	if op != OpFeedback && resp.Solution == "" {
		return Response{}, errDecode("%s reply has no solution", op)
	}
	if resp.Message == "" {
		resp.Message = resp.Solution
	}
	if resp.Message == "" {
		return Response{}, errDecode("%s reply has no message", op)
	}
	return resp, nil
}

func parseAgreement(raw json.RawMessage) (memory.Stance, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return memory.StanceNone, false
	}

	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return memory.StanceOf(b), true
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "true", "agree", "yes":
			return memory.StanceAgree, true
		case "false", "disagree", "no":
			return memory.StanceDisagree, true
		}
	}
	return memory.StanceNone, false
}

func stripMarkers(text string) string {
	replacer := strings.NewReplacer("[AGREE]", "", "[DISAGREE]", "", "[agree]", "", "[disagree]", "")
	return strings.TrimSpace(replacer.Replace(text))
}
