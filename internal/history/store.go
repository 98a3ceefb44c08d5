// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package history is the append-only session archive. Every processed
// session is stored whole, so past work survives restarts and can be
// reopened read-only later.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/apeiro/ace/pkg/types"
)

const dbFile = "sessions.db"

// Store archives completed sessions.
type Store interface {
	// Append persists one session. Appending an already-archived session
	// ID is an error; archives are never rewritten.
	Append(ctx context.Context, session *types.HistoricalSession) error

	// LoadAll returns every readable archived session, oldest first.
	// Unreadable rows are skipped, not fatal: one corrupt session must
	// not hide the rest of the archive.
	LoadAll(ctx context.Context) ([]types.HistoricalSession, error)

	Close() error
}

// SQLiteStore keeps the archive in a single SQLite database. Each session
// is one row with its full JSON payload; the schema stays trivial because
// sessions are only ever appended and listed.
type SQLiteStore struct {
	db *sql.DB
}

// NewStore opens or creates the archive database at dir/sessions.db.
func NewStore(cfg types.HistoryConfig) (*SQLiteStore, error) {
	if err := os.MkdirAll(cfg.Path, 0o755); err != nil {
		return nil, fmt.Errorf("creating archive directory: %w", err)
	}

	dbPath := filepath.Join(cfg.Path, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening archive: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) createSchema() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS sessions (
		session_id TEXT PRIMARY KEY,
		created_at TEXT NOT NULL,
		payload TEXT NOT NULL
	)`)
	return err
}

// Append persists one session.
func (s *SQLiteStore) Append(ctx context.Context, session *types.HistoricalSession) error {
	if session == nil || session.SessionID == "" {
		return fmt.Errorf("archive: empty session")
	}

	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encoding session %s: %w", session.SessionID, err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO sessions (session_id, created_at, payload) VALUES (?, ?, ?)`,
		session.SessionID, session.Timestamp.UTC().Format("2006-01-02T15:04:05Z"), string(payload))
	if err != nil {
		return fmt.Errorf("archiving session %s: %w", session.SessionID, err)
	}
	return nil
}

// LoadAll returns the archive oldest first.
func (s *SQLiteStore) LoadAll(ctx context.Context) ([]types.HistoricalSession, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT session_id, payload FROM sessions ORDER BY created_at, session_id`)
	if err != nil {
		return nil, fmt.Errorf("reading archive: %w", err)
	}
	defer rows.Close()

	var sessions []types.HistoricalSession
	for rows.Next() {
		var id, payload string
		if err := rows.Scan(&id, &payload); err != nil {
			continue
		}
		var session types.HistoricalSession
		if err := json.Unmarshal([]byte(payload), &session); err != nil {
			// Skip the damaged row. The rest of the archive still loads.
			continue
		}
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}
