// Package contextkeys provides the context keys shared by the session
// layers and the log handler. It has no dependencies so that both sides can
// import it.
package contextkeys

import "context"

// Key is the type for all mallm context keys.
type Key string

const (
	// SessionID stores the id of the discussion session in progress.
	SessionID Key = "mallm.session_id"

	// ExampleID stores the dataset example the session discusses.
	ExampleID Key = "mallm.example_id"
)

// WithSession returns a context carrying the session and example ids.
func WithSession(ctx context.Context, sessionID, exampleID string) context.Context {
	ctx = context.WithValue(ctx, SessionID, sessionID)
	return context.WithValue(ctx, ExampleID, exampleID)
}

// GetSessionID retrieves the session id from ctx.
// Returns empty string if not set.
func GetSessionID(ctx context.Context) string {
	v, _ := ctx.Value(SessionID).(string)
	return v
}

// GetExampleID retrieves the example id from ctx.
func GetExampleID(ctx context.Context) string {
	v, _ := ctx.Value(ExampleID).(string)
	return v
}
