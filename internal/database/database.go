// Package database archives finished discussion sessions in SQLite.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/types"
)

// DB wraps the SQLite connection.
type DB struct {
	conn *sql.DB
	path string
}

const (
	maxOpenConns = 4
	busyTimeout  = 5 * time.Second
)

// Open opens the archive at path in WAL mode with foreign keys enforced
// and brings its schema up to date. The file is created when missing.
func Open(ctx context.Context, path string) (*DB, error) {
	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=%d",
		path, busyTimeout.Milliseconds())

	conn, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, types.WrapError(types.DB_OPEN_FAILED, "failed to open archive", err)
	}
	conn.SetMaxOpenConns(maxOpenConns)

	pingCtx, cancel := context.WithTimeout(ctx, busyTimeout)
	defer cancel()
	if err := conn.PingContext(pingCtx); err != nil {
		conn.Close()
		return nil, types.WrapError(types.DB_OPEN_FAILED, fmt.Sprintf("archive %s unreachable", path), err)
	}

	db := &DB{conn: conn, path: path}

	var journalMode string
	if err := conn.QueryRowContext(ctx, "PRAGMA journal_mode").Scan(&journalMode); err != nil || journalMode != "wal" {
		conn.Close()
		return nil, types.NewError(types.DB_OPEN_FAILED, fmt.Sprintf("archive %s: WAL mode not enabled (got %q, %v)", path, journalMode, err))
	}

	if err := db.migrate(ctx); err != nil {
		conn.Close()
		return nil, types.WrapError(types.DB_MIGRATION_FAILED, "failed to migrate archive", err)
	}
	return db, nil
}

// Close closes the connection.
func (db *DB) Close() error {
	if db.conn == nil {
		return nil
	}
	return db.conn.Close()
}

// Path returns the archive file path.
func (db *DB) Path() string {
	return db.path
}

// Health counts archived sessions, which exercises both the connection and
// the schema.
func (db *DB) Health(ctx context.Context) types.HealthStatus {
	var sessions int
	err := db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM sessions").Scan(&sessions)
	return types.HealthFromError(err, fmt.Sprintf("%d sessions archived", sessions))
}

// WithTx runs fn in a transaction, committing only when fn succeeds.
func (db *DB) WithTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("transaction error: %w, rollback error: %v", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
