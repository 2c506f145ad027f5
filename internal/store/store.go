// Package store implements the durable session store backed by SQLite.
//
// One row per session holds the application/user key, the serialized state
// blob, and the serialized conversation history. A unique index on
// (app_name, user_id) backs the idempotent get-or-create lookup. Writes run
// in WAL mode, so a crash mid-write never leaves a torn blob: readers always
// see the last committed value.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// Sentinel errors for the storage taxonomy.
var (
	// ErrNotFound means the session row does not exist.
	ErrNotFound = errors.New("store: session not found")
	// ErrStorage means the durability layer failed after exhausting retries.
	ErrStorage = errors.New("store: storage failure")
)

// ─── Config ──────────────────────────────────────────────────────────────────

// Config holds session store configuration.
type Config struct {
	// DataDir is the directory holding the database file.
	DataDir string
	// RetryAttempts is the aggregate write-attempt budget for transient
	// failures (busy database, I/O hiccups).
	RetryAttempts int
	// RetryBackoff is the initial delay between attempts; it doubles per
	// retry.
	RetryBackoff time.Duration
	// BusyTimeout is how long a statement waits on a locked database
	// before reporting busy.
	BusyTimeout time.Duration
}

// DefaultConfig returns the default store configuration.
func DefaultConfig() Config {
	home, _ := os.UserHomeDir()
	return Config{
		DataDir:       filepath.Join(home, ".taskpilot"),
		RetryAttempts: 3,
		RetryBackoff:  50 * time.Millisecond,
		BusyTimeout:   5 * time.Second,
	}
}

// ─── Types ───────────────────────────────────────────────────────────────────

// Record is one persisted session row. State and History are self-describing
// JSON documents owned by the session manager.
type Record struct {
	ID        string `json:"id"`
	AppName   string `json:"app_name"`
	UserID    string `json:"user_id"`
	State     []byte `json:"state"`
	History   []byte `json:"history"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// Store is the durable session store.
type Store struct {
	db  *sql.DB
	cfg Config
}

// New opens (or creates) the database, applies pragmas, and runs migrations.
func New(cfg Config) (*Store, error) {
	if cfg.RetryAttempts <= 0 {
		cfg.RetryAttempts = 1
	}
	if cfg.BusyTimeout <= 0 {
		cfg.BusyTimeout = 5 * time.Second
	}
	if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
		return nil, fmt.Errorf("store: create data dir: %w", err)
	}

	dbPath := filepath.Join(cfg.DataDir, "sessions.db")
	db, err := openDB("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("store: open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		fmt.Sprintf("PRAGMA busy_timeout = %d", cfg.BusyTimeout.Milliseconds()),
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return nil, fmt.Errorf("store: pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db, cfg: cfg}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("store: migration: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS sessions (
			id         TEXT PRIMARY KEY,
			app_name   TEXT NOT NULL,
			user_id    TEXT NOT NULL,
			state      TEXT NOT NULL,
			history    TEXT NOT NULL DEFAULT '[]',
			created_at TEXT NOT NULL DEFAULT (datetime('now')),
			updated_at TEXT NOT NULL DEFAULT (datetime('now'))
		);

		CREATE UNIQUE INDEX IF NOT EXISTS idx_sessions_key ON sessions(app_name, user_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// ─── Reads ───────────────────────────────────────────────────────────────────

// Get retrieves a session row by identifier.
func (s *Store) Get(id string) (*Record, error) {
	return s.scanOne(s.db.QueryRow(
		`SELECT id, app_name, user_id, state, history, created_at, updated_at
		 FROM sessions WHERE id = ?`, id,
	))
}

// Find retrieves the session row for an (app, user) key.
func (s *Store) Find(appName, userID string) (*Record, error) {
	return s.scanOne(s.db.QueryRow(
		`SELECT id, app_name, user_id, state, history, created_at, updated_at
		 FROM sessions WHERE app_name = ? AND user_id = ?`, appName, userID,
	))
}

func (s *Store) scanOne(row *sql.Row) (*Record, error) {
	var r Record
	var state, history string
	err := row.Scan(&r.ID, &r.AppName, &r.UserID, &state, &history, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: scan session: %v", ErrStorage, err)
	}
	r.State = []byte(state)
	r.History = []byte(history)
	return &r, nil
}

// ─── Writes ──────────────────────────────────────────────────────────────────

// Create inserts a new session row. If a row for the same (app, user) key
// already exists the insert is a no-op and Create reports created=false, so
// concurrent get-or-create races converge on a single row.
func (s *Store) Create(r Record) (created bool, err error) {
	err = s.withRetry(func() error {
		res, err := s.db.Exec(
			`INSERT INTO sessions (id, app_name, user_id, state, history)
			 VALUES (?, ?, ?, ?, ?)
			 ON CONFLICT(app_name, user_id) DO NOTHING`,
			r.ID, r.AppName, r.UserID, string(r.State), historyOrEmpty(r.History),
		)
		if err != nil {
			return err
		}
		n, _ := res.RowsAffected()
		created = n > 0
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("%w: create session: %v", ErrStorage, err)
	}
	return created, nil
}

// SaveState durably replaces the state blob for a session. The single UPDATE
// commits atomically; concurrent readers never observe a partial blob.
func (s *Store) SaveState(id string, blob []byte) error {
	return s.update(id, "state", blob)
}

// SaveHistory durably replaces the conversation history for a session.
func (s *Store) SaveHistory(id string, blob []byte) error {
	return s.update(id, "history", blob)
}

func (s *Store) update(id, column string, blob []byte) error {
	var n int64
	err := s.withRetry(func() error {
		res, err := s.db.Exec(
			// column is one of two compile-time constants, never user input
			`UPDATE sessions SET `+column+` = ?, updated_at = datetime('now') WHERE id = ?`,
			string(blob), id,
		)
		if err != nil {
			return err
		}
		n, _ = res.RowsAffected()
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: save %s: %v", ErrStorage, column, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// withRetry runs fn up to cfg.RetryAttempts times with doubling backoff.
func (s *Store) withRetry(fn func() error) error {
	backoff := s.cfg.RetryBackoff
	var err error
	for attempt := 0; attempt < s.cfg.RetryAttempts; attempt++ {
		if attempt > 0 {
			time.Sleep(backoff)
			backoff *= 2
		}
		if err = fn(); err == nil {
			return nil
		}
	}
	return err
}

func historyOrEmpty(b []byte) string {
	if len(b) == 0 {
		return "[]"
	}
	return string(b)
}
