package memory

import (
	"fmt"
	"sync"

	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/types"
)

// Log is the append-only record of a discussion. It owns every entry and
// keeps, per agent, the positions of the entries addressed to that agent;
// broadcast entries are indexed once and merged into every view.
//
// Message ids start at 0 and grow by exactly one per Append.
type Log struct {
	mu        sync.RWMutex
	entries   []Entry
	broadcast []int
	targeted  map[types.ID][]int
}

// NewLog creates an empty log.
func NewLog() *Log {
	return &Log{targeted: make(map[types.ID][]int)}
}

// Append records e and returns the stored copy. The log assigns the message
// id; any id already set on e is overwritten. visibleTo restricts the
// audience; with no ids the entry is broadcast.
func (l *Log) Append(e Entry, visibleTo ...types.ID) (Entry, error) {
	if !e.Kind.IsValid() {
		return Entry{}, NewInvalidEntryError(fmt.Sprintf("invalid contribution kind %q", e.Kind))
	}
	if e.AgentID.IsZero() {
		return Entry{}, NewInvalidEntryError("entry has no agent id")
	}
	if e.Turn < 0 {
		return Entry{}, NewInvalidEntryError(fmt.Sprintf("negative turn %d", e.Turn))
	}

	e = e.clone()
	e.VisibleTo = dedupe(visibleTo)

	l.mu.Lock()
	defer l.mu.Unlock()

	e.MessageID = len(l.entries)
	l.insert(e)
	return e.clone(), nil
}

func (l *Log) insert(e Entry) {
	pos := len(l.entries)
	l.entries = append(l.entries, e)

	if e.IsBroadcast() {
		l.broadcast = append(l.broadcast, pos)
		return
	}
	for _, id := range e.VisibleTo {
		l.targeted[id] = append(l.targeted[id], pos)
	}
}

// NextID returns the id the next appended entry will receive.
func (l *Log) NextID() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Len returns the number of recorded entries.
func (l *Log) Len() int {
	return l.NextID()
}

// View returns the entries agent may see whose turn lies within
// contextLength turns of currentTurn, oldest first. A negative contextLength
// disables the turn bound. Entries of currentTurn itself are dropped when
// includeCurrentTurn is false.
func (l *Log) View(agent types.ID, currentTurn, contextLength int, includeCurrentTurn bool) []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	minTurn := currentTurn - contextLength
	var out []Entry
	for _, pos := range l.positionsFor(agent) {
		e := l.entries[pos]
		if contextLength >= 0 && e.Turn < minTurn {
			continue
		}
		if !includeCurrentTurn && e.Turn == currentTurn {
			continue
		}
		out = append(out, e.clone())
	}
	return out
}

// positionsFor merges broadcast and targeted positions in ascending order.
// Caller holds the read lock.
func (l *Log) positionsFor(agent types.ID) []int {
	a, b := l.broadcast, l.targeted[agent]
	out := make([]int, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		if a[i] < b[j] {
			out = append(out, a[i])
			i++
		} else {
			out = append(out, b[j])
			j++
		}
	}
	out = append(out, a[i:]...)
	return append(out, b[j:]...)
}

// Snapshot returns a copy of every entry in message-id order.
func (l *Log) Snapshot() []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Entry, len(l.entries))
	for i, e := range l.entries {
		out[i] = e.clone()
	}
	return out
}

// AgentSnapshot returns every entry visible to agent in message-id order.
func (l *Log) AgentSnapshot(agent types.ID) []Entry {
	return l.View(agent, 0, -1, true)
}

// Last returns the most recent entry, if any.
func (l *Log) Last() (Entry, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if len(l.entries) == 0 {
		return Entry{}, false
	}
	return l.entries[len(l.entries)-1].clone(), true
}

// Restore rebuilds a log from a snapshot. Entries must carry the contiguous
// ids 0..n-1 in order, which holds for anything produced by Snapshot.
func Restore(entries []Entry) (*Log, error) {
	l := NewLog()
	for i, e := range entries {
		if e.MessageID != i {
			return nil, NewInvalidSnapshotError(
				fmt.Sprintf("entry %d has message id %d", i, e.MessageID), nil)
		}
		if !e.Kind.IsValid() {
			return nil, NewInvalidSnapshotError(
				fmt.Sprintf("entry %d has invalid contribution kind %q", i, e.Kind), nil)
		}
		l.insert(e.clone())
	}
	return l, nil
}

// IDs returns the message ids of entries, preserving order.
func IDs(entries []Entry) []int {
	ids := make([]int, len(entries))
	for i, e := range entries {
		ids[i] = e.MessageID
	}
	return ids
}

func dedupe(ids []types.ID) []types.ID {
	if len(ids) == 0 {
		return nil
	}
	seen := make(map[types.ID]struct{}, len(ids))
	out := make([]types.ID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
