package types

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// ID is an opaque identifier backed by a UUID v4 string. Agents and
// discussion sessions are keyed by ID.
type ID string

// NewID generates a new random ID.
func NewID() ID {
	return ID(uuid.New().String())
}

// ParseID parses and validates a string as a UUID, returning an ID.
func ParseID(s string) (ID, error) {
	if s == "" {
		return "", fmt.Errorf("ID cannot be empty")
	}

	parsed, err := uuid.Parse(s)
	if err != nil {
		return "", fmt.Errorf("invalid UUID format: %w", err)
	}

	return ID(parsed.String()), nil
}

// String returns the string representation of the ID.
func (id ID) String() string {
	return string(id)
}

// Short returns the first eight characters of the ID, which is enough to
// tell participants apart in log lines.
func (id ID) Short() string {
	if len(id) <= 8 {
		return string(id)
	}
	return string(id[:8])
}

// IsZero checks if the ID is empty.
func (id ID) IsZero() bool {
	return id == ""
}

// MarshalJSON serializes the ID as a JSON string, or null when empty.
func (id ID) MarshalJSON() ([]byte, error) {
	if id.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(string(id))
}

// UnmarshalJSON accepts a JSON string or null. Non-empty values must be UUIDs.
func (id *ID) UnmarshalJSON(data []byte) error {
	var s *string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("failed to unmarshal ID: %w", err)
	}
	if s == nil || *s == "" {
		*id = ""
		return nil
	}

	parsed, err := ParseID(*s)
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
