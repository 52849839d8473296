package memory

import "github.com/Multi-Agent-LLMs/mallm-sub000/internal/types"

// Memory error codes
const (
	ErrCodeInvalidEntry    types.ErrorCode = "MEMORY_INVALID_ENTRY"
	ErrCodeInvalidSnapshot types.ErrorCode = "MEMORY_INVALID_SNAPSHOT"
)

// NewInvalidEntryError creates an error for an entry that cannot be recorded
func NewInvalidEntryError(message string) *types.MallmError {
	return types.NewError(ErrCodeInvalidEntry, message)
}

// NewInvalidSnapshotError creates an error for a snapshot that cannot be restored
func NewInvalidSnapshotError(message string, cause error) *types.MallmError {
	return types.WrapError(ErrCodeInvalidSnapshot, message, cause)
}
