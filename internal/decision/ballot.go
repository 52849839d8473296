package decision

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/llm"
	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/types"
)

// Method is a ballot format.
type Method string

const (
	MethodPlain      Method = "plain"
	MethodApproval   Method = "approval"
	MethodCumulative Method = "cumulative"
	MethodRanked     Method = "ranked"
)

// CumulativePoints is the exact number of points a cumulative ballot
// distributes.
const CumulativePoints = 10

// RankedDepth is the longest ranking counted. The top rank scores
// RankedDepth points, each following rank one less.
const RankedDepth = 5

func (m Method) protocolName() string {
	if m == MethodPlain {
		return "simple_voting"
	}
	return string(m) + "_voting"
}

// lastWins reports whether ties go to the highest index.
func (m Method) lastWins() bool {
	return m == MethodCumulative || m == MethodRanked
}

// Vote is one decoded ballot. Choices holds the single vote (plain), the
// approved options (approval) or the ranking (ranked); Points holds a
// cumulative distribution.
type Vote struct {
	AgentID types.ID    `json:"agentId"`
	Persona string      `json:"persona"`
	Choices []int       `json:"choices,omitempty"`
	Points  map[int]int `json:"points,omitempty"`
}

// DecodeBallot decodes a ballot over n options.
func DecodeBallot(method Method, raw string, n int) (Vote, error) {
	body, err := llm.ExtractJSON(raw)
	if err != nil {
		return Vote{}, errBallot("no JSON object")
	}

	var payload struct {
		Vote      json.RawMessage            `json:"vote"`
		Approvals []json.RawMessage          `json:"approvals"`
		Points    map[string]json.RawMessage `json:"points"`
		Ranking   []json.RawMessage          `json:"ranking"`
	}
	if err := json.Unmarshal([]byte(body), &payload); err != nil {
		return Vote{}, errBallot("%v", err)
	}

	switch method {
	case MethodPlain:
		c, err := parseOption(payload.Vote, n)
		if err != nil {
			return Vote{}, err
		}
		return Vote{Choices: []int{c}}, nil

	case MethodApproval:
		choices, err := parseOptions(payload.Approvals, n)
		if err != nil {
			return Vote{}, err
		}
		if len(choices) == 0 {
			return Vote{}, errBallot("no approvals")
		}
		return Vote{Choices: choices}, nil

	case MethodCumulative:
		return decodePoints(payload.Points, n)

	case MethodRanked:
		ranking, err := parseOptions(payload.Ranking, n)
		if err != nil {
			return Vote{}, err
		}
		if len(ranking) == 0 {
			return Vote{}, errBallot("empty ranking")
		}
		if len(ranking) != len(payload.Ranking) {
			return Vote{}, errBallot("ranking repeats an option")
		}
		if len(ranking) > RankedDepth {
			ranking = ranking[:RankedDepth]
		}
		return Vote{Choices: ranking}, nil
	}
	return Vote{}, errBallot("unknown method %q", method)
}

func decodePoints(raw map[string]json.RawMessage, n int) (Vote, error) {
	if len(raw) == 0 {
		return Vote{}, errBallot("no points")
	}

	points := make(map[int]int, len(raw))
	sum := 0
	for key, value := range raw {
		idx, err := parseIndex(key, n)
		if err != nil {
			return Vote{}, err
		}
		var f float64
		if err := json.Unmarshal(value, &f); err != nil {
			return Vote{}, errBallot("points for %q are not a number", key)
		}
		if f < 0 || f != float64(int(f)) {
			return Vote{}, errBallot("points for %q must be a non-negative integer, got %v", key, f)
		}
		if _, dup := points[idx]; dup {
			return Vote{}, errBallot("option %d listed twice", idx)
		}
		points[idx] = int(f)
		sum += int(f)
	}
	if sum != CumulativePoints {
		return Vote{}, errBallot("points sum to %d, want %d", sum, CumulativePoints)
	}
	return Vote{Points: points}, nil
}

func parseOptions(raw []json.RawMessage, n int) ([]int, error) {
	seen := make(map[int]bool, len(raw))
	out := make([]int, 0, len(raw))
	for _, r := range raw {
		c, err := parseOption(r, n)
		if err != nil {
			return nil, err
		}
		if seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out, nil
}

// parseOption accepts 2, "2" and "Solution 2".
func parseOption(raw json.RawMessage, n int) (int, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, errBallot("missing option")
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return parseIndex(s, n)
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil || f != float64(int(f)) {
		return 0, errBallot("option %s is not an index", raw)
	}
	return checkIndex(int(f), n)
}

func parseIndex(s string, n int) (int, error) {
	s = strings.TrimSpace(s)
	if len(s) >= len("solution") && strings.EqualFold(s[:len("solution")], "solution") {
		s = strings.TrimSpace(s[len("solution"):])
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0, errBallot("option %q is not an index", s)
	}
	return checkIndex(i, n)
}

func checkIndex(i, n int) (int, error) {
	if i < 0 || i >= n {
		return 0, errBallot("option %d out of range [0, %d)", i, n)
	}
	return i, nil
}

// Tally scores n options.
func Tally(method Method, votes []Vote, n int) []int {
	scores := make([]int, n)
	for _, v := range votes {
		switch method {
		case MethodPlain:
			if len(v.Choices) > 0 {
				scores[v.Choices[0]]++
			}
		case MethodApproval:
			for _, c := range v.Choices {
				scores[c]++
			}
		case MethodCumulative:
			for c, pts := range v.Points {
				scores[c] += pts
			}
		case MethodRanked:
			for pos, c := range v.Choices {
				scores[c] += RankedDepth - pos
			}
		}
	}
	return scores
}

// Winner returns the index with the highest score and whether no other
// index shares it. Ties go to the lowest index, or to the highest when
// lastWins is set. It returns -1 when nothing scored.
func Winner(scores []int, lastWins bool) (int, bool) {
	best, top, count := -1, 0, 0
	for i, s := range scores {
		switch {
		case s <= 0:
		case s > top:
			best, top, count = i, s, 1
		case s == top:
			count++
			if lastWins {
				best = i
			}
		}
	}
	return best, best >= 0 && count == 1
}
