// Package store provides a SQLite-backed transcript of answered questions.
// Each chat session has its own thread of turns, kept across server
// restarts and served back to the chat front-end on reload.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // register "sqlite" driver

	"github.com/54b3r/alertrag-go/internal/docstore"
)

// Turn is one answered question in a session.
type Turn struct {
	SessionID  string              `json:"sessionId"`
	Question   string              `json:"question"`
	Answer     string              `json:"answer"`
	Intent     string              `json:"intent,omitempty"`
	References []docstore.Document `json:"references"`
	CreatedAt  time.Time           `json:"createdAt"`
}

// TranscriptStore persists and retrieves turns keyed by session.
// Implementations must be safe for concurrent use.
type TranscriptStore interface {
	// Append persists a turn. A zero CreatedAt is set to now.
	Append(ctx context.Context, turn Turn) error
	// Recent returns the most recent n turns for the session, oldest-first.
	// If fewer than n turns exist, all are returned.
	Recent(ctx context.Context, sessionID string, n int) ([]Turn, error)
	// Close releases any resources held by the store.
	Close() error
}

// SQLiteStore is a TranscriptStore backed by a local SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// DefaultDBPath returns ~/.alertrag/history.db, creating the directory if
// needed.
func DefaultDBPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("store: could not determine home directory: %w", err)
	}
	dir := filepath.Join(home, ".alertrag")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("store: could not create %s: %w", dir, err)
	}
	return filepath.Join(dir, "history.db"), nil
}

// Open opens (or creates) a SQLiteStore at the given path and runs the schema
// migration. Use ":memory:" for an in-memory database in tests.
func Open(path string) (*SQLiteStore, error) {
	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	// Single connection: avoids SQLITE_BUSY and keeps ":memory:" on one database.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	const ddl = `
CREATE TABLE IF NOT EXISTS turns (
    id           INTEGER PRIMARY KEY AUTOINCREMENT,
    session      TEXT    NOT NULL,
    question     TEXT    NOT NULL,
    answer       TEXT    NOT NULL,
    intent       TEXT    NOT NULL DEFAULT '',
    refs         TEXT    NOT NULL DEFAULT '[]', -- JSON array of documents
    created_at   INTEGER NOT NULL               -- Unix timestamp (seconds)
);
CREATE INDEX IF NOT EXISTS idx_turns_session_created
    ON turns (session, created_at);
`
	if _, err := s.db.Exec(ddl); err != nil {
		return fmt.Errorf("store: migrate: %w", err)
	}
	return nil
}

// Append persists a turn.
func (s *SQLiteStore) Append(ctx context.Context, turn Turn) error {
	if turn.SessionID == "" {
		return fmt.Errorf("store: append: session id is required")
	}
	refs := turn.References
	if refs == nil {
		refs = []docstore.Document{}
	}
	raw, err := json.Marshal(refs)
	if err != nil {
		return fmt.Errorf("store: append: encode references: %w", err)
	}
	created := turn.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}

	const q = `INSERT INTO turns (session, question, answer, intent, refs, created_at) VALUES (?, ?, ?, ?, ?, ?)`
	if _, err := s.db.ExecContext(ctx, q, turn.SessionID, turn.Question, turn.Answer, turn.Intent, string(raw), created.Unix()); err != nil {
		return fmt.Errorf("store: append: %w", err)
	}
	return nil
}

// Recent returns the most recent n turns for the session, oldest-first.
func (s *SQLiteStore) Recent(ctx context.Context, sessionID string, n int) ([]Turn, error) {
	const q = `
SELECT question, answer, intent, refs, created_at FROM (
    SELECT id, question, answer, intent, refs, created_at
    FROM   turns
    WHERE  session = ?
    ORDER  BY created_at DESC, id DESC
    LIMIT  ?
) ORDER BY created_at ASC, id ASC`

	rows, err := s.db.QueryContext(ctx, q, sessionID, n)
	if err != nil {
		return nil, fmt.Errorf("store: recent: %w", err)
	}
	defer rows.Close()

	turns := []Turn{}
	for rows.Next() {
		t := Turn{SessionID: sessionID}
		var (
			ts   int64
			refs string
		)
		if err := rows.Scan(&t.Question, &t.Answer, &t.Intent, &refs, &ts); err != nil {
			return nil, fmt.Errorf("store: recent scan: %w", err)
		}
		if err := json.Unmarshal([]byte(refs), &t.References); err != nil {
			return nil, fmt.Errorf("store: recent: decode references: %w", err)
		}
		t.CreatedAt = time.Unix(ts, 0)
		turns = append(turns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: recent rows: %w", err)
	}
	return turns, nil
}

// Ping checks the database connection.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("store: ping: %w", err)
	}
	return nil
}

// Close releases the database connection pool.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("store: close: %w", err)
	}
	return nil
}
