package prompt

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/template"
)

// DefaultFuncMap returns the functions available to every prompt template.
func DefaultFuncMap() template.FuncMap {
	return template.FuncMap{
		// String functions
		"trim":    strings.TrimSpace,
		"toLower": strings.ToLower,
		"join":    join,
		"indent":  indent,
		"quote":   quote,

		// Utility functions
		"default": defaultFunc,
		"inc":     inc,
		"label":   label,

		// JSON functions
		"toJSON": toJSON,
	}
}

// join concatenates a slice of strings with the specified separator.
func join(sep string, items []string) string {
	return strings.Join(items, sep)
}

// indent indents each line of the string by the specified number of spaces.
func indent(spaces int, s string) string {
	if s == "" {
		return s
	}

	padding := strings.Repeat(" ", spaces)
	lines := strings.Split(s, "\n")

	for i, line := range lines {
		if line != "" {
			lines[i] = padding + line
		}
	}

	return strings.Join(lines, "\n")
}

// quote wraps a string in double quotes and escapes internal quotes.
func quote(s string) string {
	return fmt.Sprintf("%q", s)
}

// defaultFunc returns val unless it is the empty string, then def.
func defaultFunc(def, val string) string {
	if strings.TrimSpace(val) == "" {
		return def
	}
	return val
}

// inc turns a zero-based index into a one-based ordinal.
func inc(i int) int {
	return i + 1
}

// label names the i-th option on a ballot. Options are numbered from zero
// so the index a voter returns is the index of the answer.
func label(i int) string {
	return fmt.Sprintf("Solution %d", i)
}

// toJSON marshals a value to JSON string.
// Returns an empty string if marshaling fails.
func toJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(data)
}
