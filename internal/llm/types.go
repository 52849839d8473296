package llm

import "fmt"

// Role is the speaker of one prompt message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single {role, content} element of a structured prompt.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

func NewSystemMessage(content string) Message    { return Message{Role: RoleSystem, Content: content} }
func NewUserMessage(content string) Message      { return Message{Role: RoleUser, Content: content} }
func NewAssistantMessage(content string) Message { return Message{Role: RoleAssistant, Content: content} }

// Validate rejects unknown roles and empty content.
func (m Message) Validate() error {
	switch m.Role {
	case RoleSystem, RoleUser, RoleAssistant:
	default:
		return fmt.Errorf("invalid role: %q", m.Role)
	}
	if m.Content == "" {
		return fmt.Errorf("%s message must have content", m.Role)
	}
	return nil
}

// CompletionRequest is one prompt sent to a provider. Stage names the
// discussion step that issued it ("draft", "feedback", "vote", ...);
// providers ignore it.
type CompletionRequest struct {
	Model         string    `json:"model"`
	Messages      []Message `json:"messages"`
	Temperature   float64   `json:"temperature,omitempty"`
	MaxTokens     int       `json:"max_tokens,omitempty"`
	TopP          float64   `json:"top_p,omitempty"`
	StopSequences []string  `json:"stop_sequences,omitempty"`
	Stream        bool      `json:"stream,omitempty"`
	Stage         string    `json:"stage,omitempty"`
}

// Validate checks messages and sampling bounds. The model may be empty;
// providers then fall back to their configured default.
func (r CompletionRequest) Validate() error {
	if len(r.Messages) == 0 {
		return fmt.Errorf("at least one message is required")
	}
	for i, msg := range r.Messages {
		if err := msg.Validate(); err != nil {
			return fmt.Errorf("message %d: %w", i, err)
		}
	}

	switch {
	case r.Temperature < 0 || r.Temperature > 2:
		return fmt.Errorf("temperature must be between 0 and 2, got %g", r.Temperature)
	case r.TopP < 0 || r.TopP > 1:
		return fmt.Errorf("top_p must be between 0 and 1, got %g", r.TopP)
	case r.MaxTokens < 0:
		return fmt.Errorf("max_tokens must be non-negative, got %d", r.MaxTokens)
	}
	return nil
}

// CompletionResponse is a provider's reply.
type CompletionResponse struct {
	ID           string       `json:"id"`
	Model        string       `json:"model"`
	Message      Message      `json:"message"`
	FinishReason FinishReason `json:"finish_reason"`
	Usage        TokenUsage   `json:"usage"`
}

// FinishReason indicates why generation stopped.
type FinishReason string

const (
	FinishReasonStop          FinishReason = "stop"
	FinishReasonLength        FinishReason = "length"
	FinishReasonContentFilter FinishReason = "content_filter"
)

// StreamChunk is one piece of a streamed reply. A chunk with Error set
// ends the stream.
type StreamChunk struct {
	Delta        string       `json:"delta,omitempty"`
	FinishReason FinishReason `json:"finish_reason,omitempty"`
	Error        error        `json:"-"`
}

// TokenUsage counts the tokens of one completion.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}
