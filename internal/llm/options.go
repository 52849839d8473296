package llm

// CompletionOption adjusts one completion request. Client defaults are
// applied first, then the per-call options.
type CompletionOption func(*CompletionRequest)

func WithTemperature(temperature float64) CompletionOption {
	return func(req *CompletionRequest) { req.Temperature = temperature }
}

func WithMaxTokens(maxTokens int) CompletionOption {
	return func(req *CompletionRequest) { req.MaxTokens = maxTokens }
}

// WithTopP sets nucleus sampling (0.0 - 1.0).
func WithTopP(topP float64) CompletionOption {
	return func(req *CompletionRequest) { req.TopP = topP }
}

func WithStopSequences(sequences ...string) CompletionOption {
	return func(req *CompletionRequest) { req.StopSequences = sequences }
}

// WithStage tags the request with the discussion step that issued it. The
// client names spans, metrics and transport errors after it.
func WithStage(stage string) CompletionOption {
	return func(req *CompletionRequest) { req.Stage = stage }
}

func newRequest(model string, messages []Message, opts ...[]CompletionOption) CompletionRequest {
	req := CompletionRequest{Model: model, Messages: messages}
	for _, group := range opts {
		for _, opt := range group {
			opt(&req)
		}
	}
	if req.Stage == "" {
		req.Stage = "completion"
	}
	return req
}
