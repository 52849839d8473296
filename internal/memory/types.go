package memory

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/types"
)

// Kind identifies the operation that produced a memory entry.
type Kind string

const (
	KindDraft    Kind = "draft"
	KindImprove  Kind = "improve"
	KindFeedback Kind = "feedback"
	KindJudge    Kind = "judge"
)

// IsValid checks if the kind is one of the recorded operations.
func (k Kind) IsValid() bool {
	switch k {
	case KindDraft, KindImprove, KindFeedback, KindJudge:
		return true
	default:
		return false
	}
}

// Stance is a participant's position on the current draft. StanceNone is
// used for drafts, which have nothing to agree with yet.
type Stance int8

const (
	StanceNone Stance = iota
	StanceAgree
	StanceDisagree
)

// StanceOf converts a boolean agreement into a Stance.
func StanceOf(agree bool) Stance {
	if agree {
		return StanceAgree
	}
	return StanceDisagree
}

func (s Stance) String() string {
	switch s {
	case StanceAgree:
		return "agree"
	case StanceDisagree:
		return "disagree"
	default:
		return "none"
	}
}

// MarshalJSON encodes the stance as true, false or null.
func (s Stance) MarshalJSON() ([]byte, error) {
	switch s {
	case StanceAgree:
		return []byte("true"), nil
	case StanceDisagree:
		return []byte("false"), nil
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON accepts true, false or null.
func (s *Stance) UnmarshalJSON(data []byte) error {
	switch string(bytes.TrimSpace(data)) {
	case "true":
		*s = StanceAgree
	case "false":
		*s = StanceDisagree
	case "null":
		*s = StanceNone
	default:
		return fmt.Errorf("invalid agreement %s: want true, false or null", data)
	}
	return nil
}

// Entry is one recorded contribution. Entries are immutable once appended;
// MessageID is assigned by the Log and is the only ordering key.
type Entry struct {
	MessageID  int               `json:"messageId"`
	Turn       int               `json:"turn"`
	AgentID    types.ID          `json:"agentId"`
	Persona    string            `json:"persona"`
	Kind       Kind              `json:"contribution"`
	Message    string            `json:"text"`
	Agreement  Stance            `json:"agreement"`
	Solution   string            `json:"solution,omitempty"`
	CausalRefs []int             `json:"memoryIds"`
	Context    map[string]string `json:"additionalArgs,omitempty"`

	// VisibleTo lists the agents that may see the entry. Empty means every
	// participant.
	VisibleTo []types.ID `json:"visibleTo,omitempty"`
}

// IsBroadcast reports whether the entry is visible to every participant.
func (e Entry) IsBroadcast() bool {
	return len(e.VisibleTo) == 0
}

// VisibleToAgent reports whether agent may see the entry.
func (e Entry) VisibleToAgent(agent types.ID) bool {
	if e.IsBroadcast() {
		return true
	}
	for _, id := range e.VisibleTo {
		if id == agent {
			return true
		}
	}
	return false
}

func (e Entry) clone() Entry {
	out := e
	if e.CausalRefs != nil {
		out.CausalRefs = append([]int(nil), e.CausalRefs...)
	}
	if e.VisibleTo != nil {
		out.VisibleTo = append([]types.ID(nil), e.VisibleTo...)
	}
	if e.Context != nil {
		out.Context = make(map[string]string, len(e.Context))
		for k, v := range e.Context {
			out.Context[k] = v
		}
	}
	return out
}

// MarshalEntries encodes entries in the artifact format.
func MarshalEntries(entries []Entry) ([]byte, error) {
	return json.Marshal(entries)
}

// UnmarshalEntries decodes entries written by MarshalEntries.
func UnmarshalEntries(data []byte) ([]Entry, error) {
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, NewInvalidSnapshotError("failed to decode memory entries", err)
	}
	return entries, nil
}
