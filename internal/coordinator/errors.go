package coordinator

import (
	"fmt"

	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/types"
)

// ErrCodeNoDiscussion is returned when fewer than two personas could be
// generated. The instance is skipped, not retried.
const ErrCodeNoDiscussion types.ErrorCode = "NO_DISCUSSION_POSSIBLE"

// NewNoDiscussionError reports an underpopulated panel.
func NewNoDiscussionError(exampleID string, personas int) *types.MallmError {
	return types.NewError(ErrCodeNoDiscussion,
		fmt.Sprintf("instance %s: %d usable persona(s), a discussion needs at least 2", exampleID, personas))
}
