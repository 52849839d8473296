package providers

import (
	"github.com/google/uuid"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/schema"

	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/llm"
)

// toSchemaMessages converts discussion messages to langchaingo MessageContent
func toSchemaMessages(messages []llm.Message) []llms.MessageContent {
	result := make([]llms.MessageContent, 0, len(messages))

	for _, msg := range messages {
		role := schema.ChatMessageTypeHuman
		switch msg.Role {
		case llm.RoleSystem:
			role = schema.ChatMessageTypeSystem
		case llm.RoleAssistant:
			role = schema.ChatMessageTypeAI
		}

		result = append(result, llms.MessageContent{
			Role:  role,
			Parts: []llms.ContentPart{llms.TextPart(msg.Content)},
		})
	}

	return result
}

// fromLangchainResponse converts a langchaingo response into a completion response
func fromLangchainResponse(resp *llms.ContentResponse, model string) *llm.CompletionResponse {
	out := &llm.CompletionResponse{
		ID:           uuid.New().String(),
		Model:        model,
		Message:      llm.Message{Role: llm.RoleAssistant},
		FinishReason: llm.FinishReasonStop,
	}
	if resp == nil || len(resp.Choices) == 0 {
		return out
	}

	choice := resp.Choices[0]
	out.Message.Content = choice.Content

	switch choice.StopReason {
	case "length", "max_tokens", "MAX_TOKENS":
		out.FinishReason = llm.FinishReasonLength
	case "content_filter", "SAFETY":
		out.FinishReason = llm.FinishReasonContentFilter
	}

	// Providers report usage under different keys in GenerationInfo.
	out.Usage.PromptTokens = intInfo(choice.GenerationInfo, "PromptTokens", "InputTokens", "input_tokens")
	out.Usage.CompletionTokens = intInfo(choice.GenerationInfo, "CompletionTokens", "OutputTokens", "output_tokens")
	out.Usage.TotalTokens = out.Usage.PromptTokens + out.Usage.CompletionTokens

	return out
}

func intInfo(info map[string]any, keys ...string) int {
	for _, k := range keys {
		switch v := info[k].(type) {
		case int:
			return v
		case int32:
			return int(v)
		case int64:
			return int(v)
		case float64:
			return int(v)
		}
	}
	return 0
}

// buildCallOptions converts a completion request to langchaingo call options
func buildCallOptions(req llm.CompletionRequest) []llms.CallOption {
	callOpts := make([]llms.CallOption, 0, 5)

	if req.Temperature > 0 {
		callOpts = append(callOpts, llms.WithTemperature(req.Temperature))
	}

	if req.MaxTokens > 0 {
		callOpts = append(callOpts, llms.WithMaxTokens(req.MaxTokens))
	}

	if req.TopP > 0 {
		callOpts = append(callOpts, llms.WithTopP(req.TopP))
	}

	if len(req.StopSequences) > 0 {
		callOpts = append(callOpts, llms.WithStopWords(req.StopSequences))
	}

	if req.Model != "" {
		callOpts = append(callOpts, llms.WithModel(req.Model))
	}

	return callOpts
}
