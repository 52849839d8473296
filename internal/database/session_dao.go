package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/memory"
	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/types"
)

// Session is an archived discussion session.
type Session struct {
	ID               types.ID
	ExampleID        string
	DatasetID        string
	Paradigm         string
	DecisionProtocol string
	Instruction      string
	Personas         []string
	Answer           *string
	Converged        bool
	Turns            int
	ElapsedSeconds   float64
	Error            string
	CreatedAt        time.Time

	// Entries is the session's full memory log. Get fills it; List does not.
	Entries []memory.Entry
}

// SessionDAO stores sessions and their memory logs.
type SessionDAO struct {
	db *DB
}

// NewSessionDAO creates a DAO over db.
func NewSessionDAO(db *DB) *SessionDAO {
	return &SessionDAO{db: db}
}

// Save writes s and its entries in one transaction, replacing any earlier
// archive of the same session id.
func (d *SessionDAO) Save(ctx context.Context, s Session) error {
	if s.ID.IsZero() {
		return types.NewError(types.DB_QUERY_FAILED, "session has no id")
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}

	personas, err := json.Marshal(nonNil(s.Personas))
	if err != nil {
		return fmt.Errorf("failed to marshal personas: %w", err)
	}

	err = d.db.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM sessions WHERE id = ?", s.ID.String()); err != nil {
			return err
		}

		_, err := tx.ExecContext(ctx, `
			INSERT INTO sessions (
				id, example_id, dataset_id, paradigm, decision_protocol, instruction,
				personas, answer, converged, turns, elapsed_seconds, error, created_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			s.ID.String(), s.ExampleID, s.DatasetID, s.Paradigm, s.DecisionProtocol, s.Instruction,
			string(personas), s.Answer, s.Converged, s.Turns, s.ElapsedSeconds, s.Error, s.CreatedAt,
		)
		if err != nil {
			return err
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO memory_entries (
				session_id, message_id, turn, agent_id, persona, contribution, message,
				agreement, solution, memory_ids, additional_args, visible_to
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, e := range s.Entries {
			refs, _ := json.Marshal(nonNil(e.CausalRefs))
			args, _ := json.Marshal(e.Context)
			visible, _ := json.Marshal(nonNil(e.VisibleTo))
			if e.Context == nil {
				args = []byte("{}")
			}

			if _, err := stmt.ExecContext(ctx,
				s.ID.String(), e.MessageID, e.Turn, e.AgentID.String(), e.Persona, string(e.Kind), e.Message,
				stanceColumn(e.Agreement), e.Solution, string(refs), string(args), string(visible),
			); err != nil {
				return fmt.Errorf("entry %d: %w", e.MessageID, err)
			}
		}
		return nil
	})
	if err != nil {
		return types.WrapError(types.DB_QUERY_FAILED, fmt.Sprintf("failed to archive session %s", s.ID), err)
	}
	return nil
}

const sessionColumns = `id, example_id, dataset_id, paradigm, decision_protocol, instruction,
	personas, answer, converged, turns, elapsed_seconds, error, created_at`

// Get loads one session with its entries.
func (d *SessionDAO) Get(ctx context.Context, id types.ID) (Session, error) {
	row := d.db.conn.QueryRowContext(ctx, "SELECT "+sessionColumns+" FROM sessions WHERE id = ?", id.String())
	s, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, types.NewError(types.DB_QUERY_FAILED, fmt.Sprintf("session %s not found", id))
	}
	if err != nil {
		return Session{}, types.WrapError(types.DB_QUERY_FAILED, "failed to load session", err)
	}

	s.Entries, err = d.entries(ctx, id)
	if err != nil {
		return Session{}, types.WrapError(types.DB_QUERY_FAILED, "failed to load memory entries", err)
	}
	return s, nil
}

// LoadLog restores the memory log of session id.
func (d *SessionDAO) LoadLog(ctx context.Context, id types.ID) (*memory.Log, error) {
	entries, err := d.entries(ctx, id)
	if err != nil {
		return nil, types.WrapError(types.DB_QUERY_FAILED, "failed to load memory entries", err)
	}
	return memory.Restore(entries)
}

// ListByExample returns the archived sessions of one example, newest first,
// without their entries.
func (d *SessionDAO) ListByExample(ctx context.Context, exampleID string) ([]Session, error) {
	rows, err := d.db.conn.QueryContext(ctx,
		"SELECT "+sessionColumns+" FROM sessions WHERE example_id = ? ORDER BY created_at DESC, rowid DESC", exampleID)
	if err != nil {
		return nil, types.WrapError(types.DB_QUERY_FAILED, "failed to list sessions", err)
	}
	defer rows.Close()

	var out []Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, types.WrapError(types.DB_QUERY_FAILED, "failed to scan session", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner) (Session, error) {
	var (
		s        Session
		id       string
		personas string
		answer   sql.NullString
	)
	err := row.Scan(&id, &s.ExampleID, &s.DatasetID, &s.Paradigm, &s.DecisionProtocol, &s.Instruction,
		&personas, &answer, &s.Converged, &s.Turns, &s.ElapsedSeconds, &s.Error, &s.CreatedAt)
	if err != nil {
		return Session{}, err
	}

	s.ID = types.ID(id)
	if answer.Valid {
		s.Answer = &answer.String
	}
	if err := json.Unmarshal([]byte(personas), &s.Personas); err != nil {
		return Session{}, fmt.Errorf("personas: %w", err)
	}
	return s, nil
}

func (d *SessionDAO) entries(ctx context.Context, id types.ID) ([]memory.Entry, error) {
	rows, err := d.db.conn.QueryContext(ctx, `
		SELECT message_id, turn, agent_id, persona, contribution, message, agreement,
		       solution, memory_ids, additional_args, visible_to
		FROM memory_entries WHERE session_id = ? ORDER BY message_id`, id.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []memory.Entry
	for rows.Next() {
		var (
			e                     memory.Entry
			agentID, kind         string
			agreement             sql.NullBool
			refs, args, visibleTo string
		)
		if err := rows.Scan(&e.MessageID, &e.Turn, &agentID, &e.Persona, &kind, &e.Message, &agreement,
			&e.Solution, &refs, &args, &visibleTo); err != nil {
			return nil, err
		}

		e.AgentID = types.ID(agentID)
		e.Kind = memory.Kind(kind)
		if agreement.Valid {
			e.Agreement = memory.StanceOf(agreement.Bool)
		}
		if err := json.Unmarshal([]byte(refs), &e.CausalRefs); err != nil {
			return nil, fmt.Errorf("entry %d memory ids: %w", e.MessageID, err)
		}
		if err := json.Unmarshal([]byte(args), &e.Context); err != nil {
			return nil, fmt.Errorf("entry %d additional args: %w", e.MessageID, err)
		}
		if len(e.Context) == 0 {
			e.Context = nil
		}
		if err := json.Unmarshal([]byte(visibleTo), &e.VisibleTo); err != nil {
			return nil, fmt.Errorf("entry %d visibility: %w", e.MessageID, err)
		}
		if len(e.VisibleTo) == 0 {
			e.VisibleTo = nil
		}
		if len(e.CausalRefs) == 0 {
			e.CausalRefs = nil
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func stanceColumn(s memory.Stance) any {
	switch s {
	case memory.StanceAgree:
		return true
	case memory.StanceDisagree:
		return false
	default:
		return nil
	}
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
