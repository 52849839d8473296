package decision

import (
	"fmt"

	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/types"
)

// ErrCodeVoteDecode marks a ballot that could not be decoded within the
// retry budget. The ballot is dropped and the decision continues.
const ErrCodeVoteDecode types.ErrorCode = "VOTE_DECODE_FAILED"

// NewVoteDecodeError reports a dropped ballot.
func NewVoteDecodeError(persona string, alteration Alteration, cause error) *types.MallmError {
	return types.WrapError(
		ErrCodeVoteDecode,
		fmt.Sprintf("dropping %s ballot from %q", alteration, persona),
		cause,
	)
}

func errBallot(format string, args ...any) error {
	return fmt.Errorf("malformed ballot: "+format, args...)
}
