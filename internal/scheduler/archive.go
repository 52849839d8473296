package scheduler

import (
	"context"

	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/coordinator"
	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/database"
)

// SessionArchive stores results in the SQLite session archive.
type SessionArchive struct {
	dao *database.SessionDAO
}

// NewSessionArchive wraps dao.
func NewSessionArchive(dao *database.SessionDAO) *SessionArchive {
	return &SessionArchive{dao: dao}
}

// Archive saves r with its global memory log. Results that never got a
// session id, such as a cancelled instance, are not archived.
func (a *SessionArchive) Archive(ctx context.Context, r coordinator.Result) error {
	if r.SessionID.IsZero() {
		return nil
	}
	return a.dao.Save(ctx, SessionFromResult(r))
}

// SessionFromResult maps a result onto an archive row.
func SessionFromResult(r coordinator.Result) database.Session {
	roles := make([]string, len(r.Personas))
	for i, p := range r.Personas {
		roles[i] = p.Role
	}
	return database.Session{
		ID:               r.SessionID,
		ExampleID:        r.ExampleID,
		DatasetID:        r.DatasetID,
		Paradigm:         r.Paradigm,
		DecisionProtocol: r.DecisionProtocol,
		Instruction:      r.Instruction,
		Personas:         roles,
		Answer:           r.Answer,
		Converged:        r.Converged,
		Turns:            r.Turns,
		ElapsedSeconds:   r.ElapsedSeconds,
		Error:            r.Error,
		Entries:          r.GlobalMemory,
	}
}
