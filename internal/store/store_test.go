package store_test

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avictorio/taskpilot/internal/store"
)

func newStore(t *testing.T, dir string) *store.Store {
	t.Helper()
	s, err := store.New(store.Config{
		DataDir:       dir,
		RetryAttempts: 3,
		RetryBackoff:  time.Millisecond,
	})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCreateAndFind(t *testing.T) {
	s := newStore(t, t.TempDir())

	created, err := s.Create(store.Record{
		ID:      "sess-1",
		AppName: "taskpilot",
		UserID:  "alice",
		State:   []byte(`{"user_name":"Alice","projects":[],"team_members":[]}`),
	})
	require.NoError(t, err)
	assert.True(t, created)

	r, err := s.Find("taskpilot", "alice")
	require.NoError(t, err)
	assert.Equal(t, "sess-1", r.ID)
	assert.JSONEq(t, `{"user_name":"Alice","projects":[],"team_members":[]}`, string(r.State))
	assert.JSONEq(t, `[]`, string(r.History), "history defaults to an empty document")

	byID, err := s.Get("sess-1")
	require.NoError(t, err)
	assert.Equal(t, r.ID, byID.ID)
}

func TestFindMissing(t *testing.T) {
	s := newStore(t, t.TempDir())

	_, err := s.Find("taskpilot", "nobody")
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = s.Get("no-such-id")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestCreateIsIdempotentPerKey(t *testing.T) {
	s := newStore(t, t.TempDir())

	created, err := s.Create(store.Record{ID: "first", AppName: "app", UserID: "u", State: []byte(`{}`)})
	require.NoError(t, err)
	require.True(t, created)

	// Losing racer: same key, different id. The row must be untouched.
	created, err = s.Create(store.Record{ID: "second", AppName: "app", UserID: "u", State: []byte(`{"x":1}`)})
	require.NoError(t, err)
	assert.False(t, created)

	r, err := s.Find("app", "u")
	require.NoError(t, err)
	assert.Equal(t, "first", r.ID)
	assert.JSONEq(t, `{}`, string(r.State))
}

func TestSaveStateRoundTrip(t *testing.T) {
	s := newStore(t, t.TempDir())

	_, err := s.Create(store.Record{ID: "sess-1", AppName: "app", UserID: "u", State: []byte(`{}`)})
	require.NoError(t, err)

	blob := []byte(`{"user_name":"Project Manager","projects":[{"name":"Website Redesign","description":"No description provided","due_date":"2026-08-30","tasks":[],"created_at":"2026-08-30"}],"team_members":[]}`)
	require.NoError(t, s.SaveState("sess-1", blob))

	r, err := s.Get("sess-1")
	require.NoError(t, err)
	assert.Equal(t, blob, r.State, "the stored blob must read back byte-for-byte")
}

func TestSaveHistory(t *testing.T) {
	s := newStore(t, t.TempDir())

	_, err := s.Create(store.Record{ID: "sess-1", AppName: "app", UserID: "u", State: []byte(`{}`)})
	require.NoError(t, err)

	blob := []byte(`[{"role":"user","content":"hi"},{"role":"assistant","content":"hello"}]`)
	require.NoError(t, s.SaveHistory("sess-1", blob))

	r, err := s.Get("sess-1")
	require.NoError(t, err)
	assert.Equal(t, blob, r.History)
}

func TestSaveMissingSession(t *testing.T) {
	s := newStore(t, t.TempDir())
	assert.ErrorIs(t, s.SaveState("ghost", []byte(`{}`)), store.ErrNotFound)
	assert.ErrorIs(t, s.SaveHistory("ghost", []byte(`[]`)), store.ErrNotFound)
}

func TestNewOpenFailure(t *testing.T) {
	restore := store.SetOpenDB(func(driverName, dataSourceName string) (*sql.DB, error) {
		return nil, errors.New("disk on fire")
	})
	t.Cleanup(restore)

	_, err := store.New(store.Config{DataDir: t.TempDir()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open database")
}

func TestWritesSurfaceStorageErrorAfterRetries(t *testing.T) {
	s := newStore(t, t.TempDir())
	_, err := s.Create(store.Record{ID: "sess-1", AppName: "app", UserID: "u", State: []byte(`{}`)})
	require.NoError(t, err)

	// Every attempt fails once the database is closed; after the retry
	// budget is spent the storage sentinel surfaces.
	require.NoError(t, s.Close())

	err = s.SaveState("sess-1", []byte(`{"user_name":"X"}`))
	assert.ErrorIs(t, err, store.ErrStorage)

	err = s.SaveHistory("sess-1", []byte(`[]`))
	assert.ErrorIs(t, err, store.ErrStorage)

	_, err = s.Create(store.Record{ID: "sess-2", AppName: "app", UserID: "v", State: []byte(`{}`)})
	assert.ErrorIs(t, err, store.ErrStorage)
}

func TestReopenPersists(t *testing.T) {
	dir := t.TempDir()

	s := newStore(t, dir)
	_, err := s.Create(store.Record{ID: "sess-1", AppName: "app", UserID: "u", State: []byte(`{"user_name":"X"}`)})
	require.NoError(t, err)
	require.NoError(t, s.SaveState("sess-1", []byte(`{"user_name":"Y"}`)))
	require.NoError(t, s.Close())

	reopened := newStore(t, dir)
	r, err := reopened.Get("sess-1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"user_name":"Y"}`, string(r.State))
}
