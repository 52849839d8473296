package types

import (
	"errors"
	"fmt"
)

// ErrorCode represents a namespaced error code for mallm errors.
type ErrorCode string

// Configuration error codes
const (
	CONFIG_LOAD_FAILED       ErrorCode = "CONFIG_LOAD_FAILED"
	CONFIG_PARSE_FAILED      ErrorCode = "CONFIG_PARSE_FAILED"
	CONFIG_VALIDATION_FAILED ErrorCode = "CONFIG_VALIDATION_FAILED"
	CONFIG_NOT_FOUND         ErrorCode = "CONFIG_NOT_FOUND"
)

// Registry error codes. These are raised while a session is being
// constructed and are never retried.
const (
	CONFIG_UNKNOWN_PARADIGM          ErrorCode = "CONFIG_UNKNOWN_PARADIGM"
	CONFIG_UNKNOWN_PROTOCOL          ErrorCode = "CONFIG_UNKNOWN_PROTOCOL"
	CONFIG_UNKNOWN_GENERATOR         ErrorCode = "CONFIG_UNKNOWN_GENERATOR"
	CONFIG_UNKNOWN_PERSONA_GENERATOR ErrorCode = "CONFIG_UNKNOWN_PERSONA_GENERATOR"
)

// Database error codes
const (
	DB_OPEN_FAILED      ErrorCode = "DB_OPEN_FAILED"
	DB_MIGRATION_FAILED ErrorCode = "DB_MIGRATION_FAILED"
	DB_QUERY_FAILED     ErrorCode = "DB_QUERY_FAILED"
)

// Dataset error codes
const (
	DATASET_READ_FAILED  ErrorCode = "DATASET_READ_FAILED"
	DATASET_PARSE_FAILED ErrorCode = "DATASET_PARSE_FAILED"
)

// Output error codes
const (
	ARTIFACT_WRITE_FAILED ErrorCode = "ARTIFACT_WRITE_FAILED"
)

// Observability error codes
const (
	OBSERVABILITY_INIT_FAILED     ErrorCode = "OBSERVABILITY_INIT_FAILED"
	OBSERVABILITY_SHUTDOWN_FAILED ErrorCode = "OBSERVABILITY_SHUTDOWN_FAILED"
)

// MallmError represents a structured error with error code, message, and optional cause.
// It supports error wrapping and retryability hints for error handling logic.
type MallmError struct {
	Code      ErrorCode
	Message   string
	Retryable bool
	Cause     error
}

// Error implements the error interface, returning a formatted error message.
// Format: "[CODE] message" or "[CODE] message: cause" if cause exists.
func (e *MallmError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause error for error unwrapping chains.
func (e *MallmError) Unwrap() error {
	return e.Cause
}

// Is checks if the target error matches this error by error code.
// Returns true if target is a MallmError with the same Code.
func (e *MallmError) Is(target error) bool {
	var mallmErr *MallmError
	if errors.As(target, &mallmErr) {
		return e.Code == mallmErr.Code
	}
	return false
}

// NewError creates a new non-retryable MallmError with the given code and message.
func NewError(code ErrorCode, message string) *MallmError {
	return &MallmError{
		Code:    code,
		Message: message,
	}
}

// NewRetryableError creates a new retryable MallmError with the given code and message.
// Use this for transient errors that may succeed on retry (e.g., network timeouts).
func NewRetryableError(code ErrorCode, message string) *MallmError {
	return &MallmError{
		Code:      code,
		Message:   message,
		Retryable: true,
	}
}

// WrapError creates a new non-retryable MallmError that wraps an existing error.
func WrapError(code ErrorCode, message string, cause error) *MallmError {
	return &MallmError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// CodeOf returns the code of the first MallmError in err's chain, or an empty
// code when the chain carries none.
func CodeOf(err error) ErrorCode {
	var mallmErr *MallmError
	if errors.As(err, &mallmErr) {
		return mallmErr.Code
	}
	return ""
}

// HasCode reports whether err's chain contains a MallmError with the given code.
func HasCode(err error, code ErrorCode) bool {
	return errors.Is(err, &MallmError{Code: code})
}
