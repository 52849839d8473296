package llm

import (
	"context"

	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/types"
)

// LLMProvider is the language model boundary. A provider turns an ordered
// list of role/content messages into text; it may fail at the transport
// level or return content the caller cannot decode.
type LLMProvider interface {
	// Name returns the provider name (e.g., "openai", "ollama", "mock").
	Name() string

	// Complete sends a completion request and blocks until the full
	// response is available.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)

	// Stream sends a completion request and emits the response in chunks.
	// The channel is closed when the response is complete; a chunk with a
	// non-nil Error terminates the stream.
	Stream(ctx context.Context, req CompletionRequest) (<-chan StreamChunk, error)

	// Health probes connectivity to the provider.
	Health(ctx context.Context) types.HealthStatus
}
