package providers

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/llm"
	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/types"
)

// MockCall represents a recorded call to the mock provider
type MockCall struct {
	Request llm.CompletionRequest
}

// Responder computes a scripted reply for one request. The call index is
// zero-based and counts every Complete and Stream call.
type Responder func(req llm.CompletionRequest, call int) (string, error)

// MockProvider implements LLMProvider for tests and dry runs. It replies
// from a fixed response list (cycling) or from a Responder.
type MockProvider struct {
	mu            sync.Mutex
	responses     []string
	responder     Responder
	responseIndex int
	calls         []MockCall
}

// MockOption configures a MockProvider.
type MockOption func(*MockProvider)

// WithResponder scripts replies with fn instead of the response list.
func WithResponder(fn Responder) MockOption {
	return func(p *MockProvider) { p.responder = fn }
}

// NewMockProvider creates a new mock provider
func NewMockProvider(responses []string, opts ...MockOption) *MockProvider {
	p := &MockProvider{
		responses: responses,
		calls:     make([]MockCall, 0),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name returns the provider name
func (p *MockProvider) Name() string {
	return "mock"
}

func (p *MockProvider) next(req llm.CompletionRequest) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.calls = append(p.calls, MockCall{Request: req})
	call := p.responseIndex
	p.responseIndex++

	if p.responder != nil {
		return p.responder(req, call)
	}
	if len(p.responses) == 0 {
		return "", llm.NewProviderError("mock", fmt.Errorf("no responses configured"))
	}
	return p.responses[call%len(p.responses)], nil
}

// Complete generates a completion
func (p *MockProvider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	response, err := p.next(req)
	if err != nil {
		return nil, err
	}

	return &llm.CompletionResponse{
		ID:    uuid.New().String(),
		Model: req.Model,
		Message: llm.Message{
			Role:    llm.RoleAssistant,
			Content: response,
		},
		FinishReason: llm.FinishReasonStop,
		Usage: llm.TokenUsage{
			PromptTokens:     10,
			CompletionTokens: len(response) / 4,
			TotalTokens:      10 + len(response)/4,
		},
	}, nil
}

// Stream generates a streaming completion
func (p *MockProvider) Stream(ctx context.Context, req llm.CompletionRequest) (<-chan llm.StreamChunk, error) {
	response, err := p.next(req)
	if err != nil {
		return nil, err
	}

	chunkChan := make(chan llm.StreamChunk, 10)

	go func() {
		defer close(chunkChan)

		chunkSize := 5
		for i := 0; i < len(response); i += chunkSize {
			end := min(i+chunkSize, len(response))

			select {
			case <-ctx.Done():
				select {
				case chunkChan <- llm.StreamChunk{Error: ctx.Err()}:
				default:
				}
				return
			case chunkChan <- llm.StreamChunk{Delta: response[i:end]}:
			}
		}

		select {
		case <-ctx.Done():
		case chunkChan <- llm.StreamChunk{FinishReason: llm.FinishReasonStop}:
		}
	}()

	return chunkChan, nil
}

// Health checks the provider health
func (p *MockProvider) Health(ctx context.Context) types.HealthStatus {
	return types.Healthy("mock provider")
}

// GetCalls returns all recorded calls (thread-safe)
func (p *MockProvider) GetCalls() []MockCall {
	p.mu.Lock()
	defer p.mu.Unlock()

	calls := make([]MockCall, len(p.calls))
	copy(calls, p.calls)
	return calls
}

// Reset resets the mock provider state
func (p *MockProvider) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.calls = make([]MockCall, 0)
	p.responseIndex = 0
}

// SetResponses replaces all responses
func (p *MockProvider) SetResponses(responses []string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.responses = responses
	p.responseIndex = 0
}
