package observability

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"go.opentelemetry.io/otel/trace"

	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/contextkeys"
)

// Redacted replaces the value of sensitive log attributes.
const Redacted = "[REDACTED]"

// sensitiveKeys are compared after lowercasing and dropping underscores.
var sensitiveKeys = map[string]bool{
	"prompt":     true,
	"prompts":    true,
	"apikey":     true,
	"secret":     true,
	"secretkey":  true,
	"password":   true,
	"token":      true,
	"credential": true,
}

// NewLogger builds the process logger described by cfg, writing to w.
// Records carry trace correlation ids and are redacted by TracedHandler.
func NewLogger(cfg LoggingConfig, w io.Writer) (*slog.Logger, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	level := ParseLevel(cfg.Level)
	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		handler = NewJSONHandler(w, level)
	} else {
		handler = NewTextHandler(w, level)
	}
	return slog.New(NewTracedHandler(handler)), nil
}

// OpenOutput resolves a LoggingConfig output to a writer. The returned
// close function is a no-op for the standard streams.
func OpenOutput(output string) (io.Writer, func() error, error) {
	switch strings.ToLower(output) {
	case "", "stderr":
		return os.Stderr, func() error { return nil }, nil
	case "stdout":
		return os.Stdout, func() error { return nil }, nil
	}

	f, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return f, f.Close, nil
}

// ParseLevel maps a level name to a slog level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewJSONHandler creates a JSON log handler.
func NewJSONHandler(w io.Writer, level slog.Level) slog.Handler {
	return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
}

// NewTextHandler creates a human-readable log handler.
func NewTextHandler(w io.Writer, level slog.Level) slog.Handler {
	return slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
}

// TracedHandler decorates records with the trace and span ids of the span
// in the record's context, adds the session and example ids carried by
// that context, and redacts sensitive attributes at info and
// above. Debug records keep every value.
type TracedHandler struct {
	next slog.Handler
}

// NewTracedHandler wraps next.
func NewTracedHandler(next slog.Handler) *TracedHandler {
	return &TracedHandler{next: next}
}

// Enabled implements slog.Handler.
func (h *TracedHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

// Handle implements slog.Handler.
func (h *TracedHandler) Handle(ctx context.Context, r slog.Record) error {
	out := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)

	redact := r.Level >= slog.LevelInfo
	r.Attrs(func(a slog.Attr) bool {
		if redact {
			a = redactAttr(a)
		}
		out.AddAttrs(a)
		return true
	})

	if id := contextkeys.GetSessionID(ctx); id != "" {
		out.AddAttrs(slog.String("session_id", id))
	}
	if id := contextkeys.GetExampleID(ctx); id != "" {
		out.AddAttrs(slog.String("example_id", id))
	}
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		out.AddAttrs(
			slog.String("trace_id", sc.TraceID().String()),
			slog.String("span_id", sc.SpanID().String()),
		)
	}
	return h.next.Handle(ctx, out)
}

// WithAttrs implements slog.Handler. Logger-scoped attributes are always
// redacted since their level is unknown.
func (h *TracedHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	redacted := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		redacted[i] = redactAttr(a)
	}
	return &TracedHandler{next: h.next.WithAttrs(redacted)}
}

// WithGroup implements slog.Handler.
func (h *TracedHandler) WithGroup(name string) slog.Handler {
	return &TracedHandler{next: h.next.WithGroup(name)}
}

func redactAttr(a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindGroup {
		group := a.Value.Group()
		out := make([]any, len(group))
		for i, g := range group {
			out[i] = redactAttr(g)
		}
		return slog.Group(a.Key, out...)
	}
	if IsSensitiveKey(a.Key) {
		return slog.String(a.Key, Redacted)
	}
	return a
}

// IsSensitiveKey reports whether values logged under key are redacted.
func IsSensitiveKey(key string) bool {
	return sensitiveKeys[strings.ToLower(strings.ReplaceAll(key, "_", ""))]
}
