package sqlite

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nwestfall/bookforge/internal/workflow/domain"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "bookforge.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestSessionStore_LoadEmpty(t *testing.T) {
	store := newTestDB(t).SessionStore()

	stored, err := store.Load()
	require.NoError(t, err)
	require.Nil(t, stored)
}

func TestSessionStore_SaveLoadRoundTrip(t *testing.T) {
	store := newTestDB(t).SessionStore()

	require.NoError(t, store.Save("abc123", domain.PhaseQuestions))

	stored, err := store.Load()
	require.NoError(t, err)
	require.NotNil(t, stored)
	require.Equal(t, "abc123", stored.SessionID)
	require.Equal(t, domain.PhaseQuestions, stored.Phase)
	require.False(t, stored.CreatedAt.IsZero())
}

func TestSessionStore_SaveReplacesPrevious(t *testing.T) {
	store := newTestDB(t).SessionStore()

	require.NoError(t, store.Save("abc123", domain.PhaseQuestions))
	require.NoError(t, store.Save("abc123", domain.PhaseDraft))

	stored, err := store.Load()
	require.NoError(t, err)
	require.Equal(t, domain.PhaseDraft, stored.Phase)

	// A new session id replaces the old snapshot entirely.
	require.NoError(t, store.Save("def456", domain.PhaseForm))
	stored, err = store.Load()
	require.NoError(t, err)
	require.Equal(t, "def456", stored.SessionID)
}

func TestSessionStore_ClearIsIdempotent(t *testing.T) {
	store := newTestDB(t).SessionStore()

	require.NoError(t, store.Save("abc123", domain.PhaseWriting))
	require.NoError(t, store.Clear())
	require.NoError(t, store.Clear())

	stored, err := store.Load()
	require.NoError(t, err)
	require.Nil(t, stored)
}

func TestOpen_ReopenKeepsData(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bookforge.db")

	db, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, db.SessionStore().Save("abc123", domain.PhaseSummary))
	require.NoError(t, db.Close())

	db, err = Open(path)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	stored, err := db.SessionStore().Load()
	require.NoError(t, err)
	require.NotNil(t, stored)
	require.Equal(t, "abc123", stored.SessionID)
	require.Equal(t, domain.PhaseSummary, stored.Phase)
}
