package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// fencePattern matches markdown code fences with an optional language tag.
var fencePattern = regexp.MustCompile("(?s)```([A-Za-z]*)[ \t]*\n(.*?)\n?```")

// ExtractJSON pulls the first JSON value out of a model reply. Models wrap
// structured answers in prose or markdown fences, so the search order is:
//  1. the body of a ```json (or untagged) fence that parses as JSON;
//  2. the first balanced {...} or [...] span in the raw text that parses.
func ExtractJSON(response string) (string, error) {
	for _, match := range fencePattern.FindAllStringSubmatch(response, -1) {
		lang := strings.ToLower(match[1])
		if lang != "" && lang != "json" {
			continue
		}
		body := strings.TrimSpace(match[2])
		if json.Valid([]byte(body)) && (strings.HasPrefix(body, "{") || strings.HasPrefix(body, "[")) {
			return body, nil
		}
	}

	for start := 0; start < len(response); start++ {
		c := response[start]
		if c != '{' && c != '[' {
			continue
		}
		if candidate := balancedSpan(response[start:]); candidate != "" && json.Valid([]byte(candidate)) {
			return candidate, nil
		}
	}

	return "", fmt.Errorf("no valid JSON value found in response")
}

// balancedSpan returns the prefix of s that closes the bracket s starts
// with, honoring JSON string escapes. Empty when unbalanced.
func balancedSpan(s string) string {
	open := s[0]
	closing := byte('}')
	if open == '[' {
		closing = ']'
	}

	depth := 0
	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case escaped:
			escaped = false
		case inString && c == '\\':
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == open:
			depth++
		case c == closing:
			depth--
			if depth == 0 {
				return s[:i+1]
			}
		}
	}
	return ""
}

// ExtractJSONAs extracts JSON and unmarshals it into T.
func ExtractJSONAs[T any](response string) (T, error) {
	var result T

	raw, err := ExtractJSON(response)
	if err != nil {
		return result, err
	}

	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return result, fmt.Errorf("failed to unmarshal JSON: %w", err)
	}

	return result, nil
}
