package memory

import "github.com/Multi-Agent-LLMs/mallm-sub000/internal/types"

// Agreement is one participant's latest stance toward the running draft.
type Agreement struct {
	AgentID   types.ID `json:"agentId"`
	Persona   string   `json:"persona"`
	Agreement Stance   `json:"agreement"`
	Response  string   `json:"response"`
	Solution  string   `json:"solution"`
	MessageID int      `json:"messageId"`
}

// Window holds the most recent stances, at most one slot per participant.
// Adding to a full window evicts the oldest stance. A Window belongs to a
// single session and is not safe for concurrent use.
type Window struct {
	capacity int
	items    []Agreement
}

// NewWindow creates a window holding at most capacity stances. A capacity
// below one is treated as one.
func NewWindow(capacity int) *Window {
	if capacity < 1 {
		capacity = 1
	}
	return &Window{capacity: capacity, items: make([]Agreement, 0, capacity)}
}

// Add appends a stance, evicting the oldest entries beyond capacity.
func (w *Window) Add(a Agreement) {
	w.items = append(w.items, a)
	w.Truncate(w.capacity)
}

// Truncate keeps only the n most recent stances.
func (w *Window) Truncate(n int) {
	if n < 0 {
		n = 0
	}
	if over := len(w.items) - n; over > 0 {
		w.items = append(w.items[:0:0], w.items[over:]...)
	}
}

// Len returns the number of stances held.
func (w *Window) Len() int {
	return len(w.items)
}

// Cap returns the window capacity.
func (w *Window) Cap() int {
	return w.capacity
}

// Full reports whether every slot holds a stance.
func (w *Window) Full() bool {
	return len(w.items) >= w.capacity
}

// Items returns a copy of the stances, oldest first.
func (w *Window) Items() []Agreement {
	return append([]Agreement(nil), w.items...)
}

// Latest returns the newest stance held for agent.
func (w *Window) Latest(agent types.ID) (Agreement, bool) {
	for i := len(w.items) - 1; i >= 0; i-- {
		if w.items[i].AgentID == agent {
			return w.items[i], true
		}
	}
	return Agreement{}, false
}

// Count returns how many held stances equal s.
func (w *Window) Count(s Stance) int {
	n := 0
	for _, a := range w.items {
		if a.Agreement == s {
			n++
		}
	}
	return n
}
