package llm

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/types"
)

// fakeProvider answers with a fixed reply and records requests.
type fakeProvider struct {
	name    string
	reply   string
	err     error
	healthy bool

	mu       sync.Mutex
	requests []CompletionRequest
}

func newFakeProvider(name, reply string) *fakeProvider {
	return &fakeProvider{name: name, reply: reply, healthy: true}
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}
	return &CompletionResponse{
		Model:        req.Model,
		Message:      NewAssistantMessage(f.reply),
		FinishReason: FinishReasonStop,
	}, nil
}

func (f *fakeProvider) Stream(ctx context.Context, req CompletionRequest) (<-chan StreamChunk, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}
	ch := make(chan StreamChunk, len(f.reply)+1)
	for _, word := range strings.SplitAfter(f.reply, " ") {
		ch <- StreamChunk{Delta: word}
	}
	ch <- StreamChunk{FinishReason: FinishReasonStop}
	close(ch)
	return ch, nil
}

func (f *fakeProvider) Health(ctx context.Context) types.HealthStatus {
	if f.healthy {
		return types.Healthy(f.name + " is healthy")
	}
	return types.Unhealthy(f.name + " is unhealthy")
}

func (f *fakeProvider) lastRequest() CompletionRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

var errBoom = errors.New("connection reset by peer")
