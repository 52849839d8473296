package llm

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/types"
)

// LLM error codes
const (
	ErrProviderNotFound      types.ErrorCode = "LLM_PROVIDER_NOT_FOUND"
	ErrProviderInitFailed    types.ErrorCode = "LLM_PROVIDER_INIT_FAILED"
	ErrProviderUnavailable   types.ErrorCode = "LLM_PROVIDER_UNAVAILABLE"
	ErrProviderUnauthorized  types.ErrorCode = "LLM_PROVIDER_UNAUTHORIZED"
	ErrProviderRateLimited   types.ErrorCode = "LLM_PROVIDER_RATE_LIMITED"
	ErrProviderAlreadyExists types.ErrorCode = "LLM_PROVIDER_ALREADY_EXISTS"
	ErrInvalidRequest        types.ErrorCode = "LLM_INVALID_REQUEST"
	ErrEmptyResponse         types.ErrorCode = "LLM_EMPTY_RESPONSE"
	ErrNetworkFailed         types.ErrorCode = "LLM_NETWORK_FAILED"
	ErrTimeoutExceeded       types.ErrorCode = "LLM_TIMEOUT_EXCEEDED"

	// ErrTransportFailed wraps any provider failure surfaced to a
	// discussion session together with the stage that issued the call.
	ErrTransportFailed types.ErrorCode = "LLM_TRANSPORT_FAILED"
)

// IsRetryable determines if an error is transient at the provider level.
// Discussion code does not retry these; the flag only informs logging.
func IsRetryable(err error) bool {
	var mallmErr *types.MallmError
	if !errors.As(err, &mallmErr) {
		return false
	}

	if mallmErr.Retryable {
		return true
	}

	switch mallmErr.Code {
	case ErrNetworkFailed, ErrTimeoutExceeded, ErrProviderRateLimited, ErrProviderUnavailable:
		return true
	default:
		return false
	}
}

// NewProviderNotFoundError creates an error for when a provider is not found
func NewProviderNotFoundError(providerName string) *types.MallmError {
	return types.NewError(ErrProviderNotFound, "provider not found: "+providerName)
}

// NewProviderUnavailableError creates a retryable error for when a provider is temporarily unavailable
func NewProviderUnavailableError(providerName string, cause error) *types.MallmError {
	return &types.MallmError{
		Code:      ErrProviderUnavailable,
		Message:   "provider temporarily unavailable: " + providerName,
		Retryable: true,
		Cause:     cause,
	}
}

// NewRateLimitError creates a retryable error for rate limiting
func NewRateLimitError(providerName string) *types.MallmError {
	return types.NewRetryableError(ErrProviderRateLimited, "rate limit exceeded for provider: "+providerName)
}

// NewInvalidRequestError creates an error for invalid requests
func NewInvalidRequestError(message string) *types.MallmError {
	return types.NewError(ErrInvalidRequest, message)
}

// NewNetworkError creates a retryable error for network failures
func NewNetworkError(message string, cause error) *types.MallmError {
	return &types.MallmError{
		Code:      ErrNetworkFailed,
		Message:   message,
		Retryable: true,
		Cause:     cause,
	}
}

// NewTimeoutError creates a retryable error for timeout failures
func NewTimeoutError(message string) *types.MallmError {
	return types.NewRetryableError(ErrTimeoutExceeded, message)
}

// NewAuthError creates an authentication error for provider integration
func NewAuthError(provider string, err error) error {
	return &types.MallmError{
		Code:    ErrProviderUnauthorized,
		Message: fmt.Sprintf("provider '%s' authentication failed", provider),
		Cause:   err,
	}
}

// NewProviderError creates a generic provider error
func NewProviderError(provider string, err error) error {
	if err == nil {
		err = fmt.Errorf("unknown error")
	}
	return NewProviderUnavailableError(provider, err)
}

// NewTransportError attaches the calling stage (e.g. "draft", "vote",
// "persona") to a provider failure so a failed session can be diagnosed
// from its log line alone.
func NewTransportError(stage string, cause error) *types.MallmError {
	return types.WrapError(ErrTransportFailed, "language model call failed during "+stage, cause)
}

// TranslateError translates generic provider errors into coded errors based
// on the error message.
func TranslateError(provider string, err error) error {
	if err == nil {
		return nil
	}

	var mallmErr *types.MallmError
	if errors.As(err, &mallmErr) {
		return err
	}

	errMsg := err.Error()
	lowerMsg := strings.ToLower(errMsg)

	switch {
	case strings.Contains(lowerMsg, "unauthorized") || strings.Contains(lowerMsg, "authentication") || strings.Contains(lowerMsg, "api key"):
		return NewAuthError(provider, err)
	case strings.Contains(lowerMsg, "rate limit") || strings.Contains(lowerMsg, "too many requests"):
		return NewRateLimitError(provider)
	case strings.Contains(lowerMsg, "timeout") || strings.Contains(lowerMsg, "deadline"):
		return NewTimeoutError(errMsg)
	case strings.Contains(lowerMsg, "network") || strings.Contains(lowerMsg, "connection"):
		return NewNetworkError(errMsg, err)
	default:
		return NewProviderUnavailableError(provider, err)
	}
}

// NewEmptyResponseError creates an error for a provider that returned no response
func NewEmptyResponseError(provider string) *types.MallmError {
	return types.NewError(ErrEmptyResponse, "provider returned no response: "+provider)
}
