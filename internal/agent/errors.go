package agent

import (
	"fmt"

	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/types"
)

// ErrCodeResponseDecode is returned when a participant's reply could not be
// decoded within the retry budget. It ends the session.
const ErrCodeResponseDecode types.ErrorCode = "RESPONSE_DECODE_FAILED"

// NewResponseDecodeError creates the session-fatal error for an exhausted
// decode loop.
func NewResponseDecodeError(stage, persona string, cause error) *types.MallmError {
	return types.WrapError(
		ErrCodeResponseDecode,
		fmt.Sprintf("could not decode %s response from %q", stage, persona),
		cause,
	)
}

// decodeError describes why a single reply was rejected. It is retried.
type decodeError struct {
	reason string
}

func (e *decodeError) Error() string { return e.reason }

func errDecode(format string, args ...any) error {
	return &decodeError{reason: fmt.Sprintf(format, args...)}
}
