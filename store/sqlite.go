package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/goccy/go-json"
	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS transcripts (
	run_id   TEXT PRIMARY KEY,
	payload  TEXT NOT NULL,
	saved_at INTEGER NOT NULL
);`

// SQLite archives transcripts in a single table, one JSON payload per run.
// The driver is pure Go, so the archive works without cgo.
type SQLite struct {
	mu sync.Mutex
	db *sql.DB
}

var _ Store = (*SQLite)(nil)

// NewSQLite opens, or creates, the archive database at path.
func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open archive %s: %w", path, err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create archive schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Save(ctx context.Context, tr Transcript) error {
	tr, err := prepare(tr)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(tr)
	if err != nil {
		return fmt.Errorf("marshal transcript %s: %w", tr.RunID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO transcripts (run_id, payload, saved_at) VALUES (?, ?, ?)
		ON CONFLICT(run_id) DO UPDATE SET payload = excluded.payload, saved_at = excluded.saved_at
	`, tr.RunID, string(payload), time.Time(tr.SavedAt).UnixMilli())
	return err
}

func (s *SQLite) Load(ctx context.Context, runID string) (Transcript, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var payload string
	err := s.db.QueryRowContext(ctx, "SELECT payload FROM transcripts WHERE run_id = ?", runID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return Transcript{}, ErrNotFound
	}
	if err != nil {
		return Transcript{}, err
	}

	var tr Transcript
	if err := json.Unmarshal([]byte(payload), &tr); err != nil {
		return Transcript{}, fmt.Errorf("unmarshal transcript %s: %w", runID, err)
	}
	return tr, nil
}

func (s *SQLite) List(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx, "SELECT run_id FROM transcripts ORDER BY saved_at, run_id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *SQLite) Delete(ctx context.Context, runID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, "DELETE FROM transcripts WHERE run_id = ?", runID)
	return err
}

func (s *SQLite) Close() error { return s.db.Close() }
