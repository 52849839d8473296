package providers

import (
	"context"

	"github.com/tmc/langchaingo/llms"

	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/llm"
	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/types"
)

// langchainProvider adapts any langchaingo llms.Model to llm.LLMProvider.
// The concrete backends only differ in how the model is constructed.
type langchainProvider struct {
	name   string
	model  llms.Model
	config llm.ProviderConfig
}

func newLangchainProvider(name string, model llms.Model, cfg llm.ProviderConfig) *langchainProvider {
	return &langchainProvider{name: name, model: model, config: cfg}
}

// Name returns the provider name
func (p *langchainProvider) Name() string {
	return p.name
}

func (p *langchainProvider) requestModel(req llm.CompletionRequest) llm.CompletionRequest {
	if req.Model == "" {
		req.Model = p.config.DefaultModel
	}
	return req
}

// Complete sends a completion request
func (p *langchainProvider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	req = p.requestModel(req)

	resp, err := p.model.GenerateContent(ctx, toSchemaMessages(req.Messages), buildCallOptions(req)...)
	if err != nil {
		return nil, llm.TranslateError(p.name, err)
	}

	return fromLangchainResponse(resp, req.Model), nil
}

// Stream sends a streaming completion request
func (p *langchainProvider) Stream(ctx context.Context, req llm.CompletionRequest) (<-chan llm.StreamChunk, error) {
	req = p.requestModel(req)
	chunkChan := make(chan llm.StreamChunk, 10)

	callOpts := append(buildCallOptions(req), llms.WithStreamingFunc(func(ctx context.Context, chunk []byte) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case chunkChan <- llm.StreamChunk{Delta: string(chunk)}:
			return nil
		}
	}))

	go func() {
		defer close(chunkChan)
		if _, err := p.model.GenerateContent(ctx, toSchemaMessages(req.Messages), callOpts...); err != nil {
			chunkChan <- llm.StreamChunk{Error: llm.TranslateError(p.name, err)}
			return
		}
		chunkChan <- llm.StreamChunk{FinishReason: llm.FinishReasonStop}
	}()

	return chunkChan, nil
}

// Health issues a one-token completion against the default model.
func (p *langchainProvider) Health(ctx context.Context) types.HealthStatus {
	req := llm.CompletionRequest{
		Messages:  []llm.Message{llm.NewUserMessage("ping")},
		MaxTokens: 1,
	}

	_, err := p.Complete(ctx, req)
	return types.HealthFromError(err, p.name+" reachable")
}
