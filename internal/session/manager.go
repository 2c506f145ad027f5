// Package session implements session lifecycle and write-serialization.
//
// A session binds one (application, user) pair to its domain state and
// conversation history. The manager is the sole sanctioned mutation path:
// every state change goes through UpdateState, which holds an exclusive
// per-session lock for the read-modify-write and nothing else. Sessions for
// different keys proceed independently.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/avictorio/taskpilot/internal/state"
	"github.com/avictorio/taskpilot/internal/store"
)

// ErrConflict is returned when a mutation could not be persisted. The
// in-memory result is discarded; the durable value remains the last
// successfully written state, so the caller can safely retry the turn.
var ErrConflict = errors.New("session: write conflict")

// DefaultHistoryWindow is the retained conversation window in turns.
const DefaultHistoryWindow = 20

// Session is a loaded snapshot of one session. State and History are deep
// copies: mutating them does not affect the durable value.
type Session struct {
	ID        string
	AppName   string
	UserID    string
	State     *state.State
	History   []state.Turn
	CreatedAt string
	UpdatedAt string
	IsNew     bool
}

// Manager creates, loads, and serializes writes to sessions.
type Manager struct {
	store  *store.Store
	window int

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewManager creates a Manager over the given store. historyWindow <= 0
// falls back to DefaultHistoryWindow.
func NewManager(st *store.Store, historyWindow int) *Manager {
	if historyWindow <= 0 {
		historyWindow = DefaultHistoryWindow
	}
	return &Manager{
		store:  st,
		window: historyWindow,
		locks:  make(map[string]*sync.Mutex),
	}
}

// lockFor returns the exclusive lock for one session, creating it on first
// use. The outer mutex only guards the map, never the session work.
func (m *Manager) lockFor(id string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.locks[id]
	if !ok {
		l = &sync.Mutex{}
		m.locks[id] = l
	}
	return l
}

// ─── Lifecycle ───────────────────────────────────────────────────────────────

// GetOrCreate returns the session for (appName, userID), creating and
// persisting one with initial state if none exists. It is idempotent: when a
// session already exists its stored state is returned unmodified and initial
// is discarded. Concurrent calls for the same key converge on one row via
// the store's unique (app_name, user_id) index.
func (m *Manager) GetOrCreate(appName, userID string, initial *state.State) (*Session, error) {
	rec, err := m.store.Find(appName, userID)
	if err == nil {
		return m.decode(rec, false)
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("session: lookup: %w", err)
	}

	if initial == nil {
		initial = state.New()
	}
	blob, err := json.Marshal(initial)
	if err != nil {
		return nil, fmt.Errorf("session: encode initial state: %w", err)
	}

	created, err := m.store.Create(store.Record{
		ID:      uuid.NewString(),
		AppName: appName,
		UserID:  userID,
		State:   blob,
		History: []byte("[]"),
	})
	if err != nil {
		return nil, fmt.Errorf("session: create: %w", err)
	}

	// Lost the insert race or won it — either way the row exists now.
	rec, err = m.store.Find(appName, userID)
	if err != nil {
		return nil, fmt.Errorf("session: lookup after create: %w", err)
	}
	return m.decode(rec, created)
}

// Get loads a session by identifier.
func (m *Manager) Get(sessionID string) (*Session, error) {
	rec, err := m.store.Get(sessionID)
	if err != nil {
		return nil, err
	}
	return m.decode(rec, false)
}

// ─── Mutation ────────────────────────────────────────────────────────────────

// UpdateState applies mutate to the current state under the session's
// exclusive lock, persists the result, and returns the new state. Only one
// UpdateState runs per session at a time. If mutate returns an error nothing
// is persisted. If persisting fails after a successful mutation, the change
// is discarded — the durable value stays the last written state — and the
// error satisfies both ErrConflict and the underlying storage error.
func (m *Manager) UpdateState(sessionID string, mutate func(*state.State) error) (*state.State, error) {
	l := m.lockFor(sessionID)
	l.Lock()
	defer l.Unlock()

	rec, err := m.store.Get(sessionID)
	if err != nil {
		return nil, err
	}

	st, err := decodeState(rec.State)
	if err != nil {
		return nil, fmt.Errorf("session: decode state: %w", err)
	}

	if err := mutate(st); err != nil {
		return nil, err
	}

	blob, err := json.Marshal(st)
	if err != nil {
		return nil, fmt.Errorf("session: encode state: %w", err)
	}
	if err := m.store.SaveState(sessionID, blob); err != nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, errors.Join(ErrConflict, err))
	}
	return st, nil
}

// AppendHistory appends turns to the session's conversation history and
// trims it to the retention window, oldest first, in one durable write.
func (m *Manager) AppendHistory(sessionID string, turns ...state.Turn) error {
	l := m.lockFor(sessionID)
	l.Lock()
	defer l.Unlock()

	rec, err := m.store.Get(sessionID)
	if err != nil {
		return err
	}

	history, err := decodeHistory(rec.History)
	if err != nil {
		return fmt.Errorf("session: decode history: %w", err)
	}

	history = append(history, turns...)
	if len(history) > m.window {
		history = history[len(history)-m.window:]
	}

	blob, err := json.Marshal(history)
	if err != nil {
		return fmt.Errorf("session: encode history: %w", err)
	}
	if err := m.store.SaveHistory(sessionID, blob); err != nil {
		return fmt.Errorf("session %s: %w", sessionID, errors.Join(ErrConflict, err))
	}
	return nil
}

// ─── Decoding ────────────────────────────────────────────────────────────────

func (m *Manager) decode(rec *store.Record, isNew bool) (*Session, error) {
	st, err := decodeState(rec.State)
	if err != nil {
		return nil, fmt.Errorf("session: decode state: %w", err)
	}
	history, err := decodeHistory(rec.History)
	if err != nil {
		return nil, fmt.Errorf("session: decode history: %w", err)
	}
	return &Session{
		ID:        rec.ID,
		AppName:   rec.AppName,
		UserID:    rec.UserID,
		State:     st,
		History:   history,
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
		IsNew:     isNew,
	}, nil
}

func decodeState(blob []byte) (*state.State, error) {
	st := state.New()
	if err := json.Unmarshal(blob, st); err != nil {
		return nil, err
	}
	return st, nil
}

func decodeHistory(blob []byte) ([]state.Turn, error) {
	history := []state.Turn{}
	if len(blob) == 0 {
		return history, nil
	}
	if err := json.Unmarshal(blob, &history); err != nil {
		return nil, err
	}
	return history, nil
}
