package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/nwestfall/bookforge/internal/workflow/domain"
)

// SessionStore persists the single live workflow session. The table is
// constrained to one row; saving replaces any previous snapshot.
type SessionStore struct {
	db *sql.DB
}

// Ensure SessionStore implements domain.SessionStore.
var _ domain.SessionStore = (*SessionStore)(nil)

// newSessionStore creates a SessionStore over an open connection.
func newSessionStore(db *sql.DB) *SessionStore {
	return &SessionStore{db: db}
}

// Save upserts the snapshot. CreatedAt is preserved when the same session
// id is re-saved with a new phase.
func (s *SessionStore) Save(sessionID string, phase domain.Phase) error {
	now := time.Now().Unix()
	_, err := s.db.Exec(
		`INSERT INTO workflow_session (id, session_id, phase, created_at, updated_at)
		 VALUES (1, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   session_id = excluded.session_id,
		   phase = excluded.phase,
		   created_at = CASE WHEN workflow_session.session_id = excluded.session_id
		                     THEN workflow_session.created_at
		                     ELSE excluded.created_at END,
		   updated_at = excluded.updated_at`,
		sessionID, phase.String(), now, now,
	)
	if err != nil {
		return fmt.Errorf("saving session snapshot: %w", err)
	}
	return nil
}

// Load returns the persisted snapshot, or nil if none exists.
func (s *SessionStore) Load() (*domain.StoredSession, error) {
	var (
		sessionID string
		phase     string
		createdAt int64
		updatedAt int64
	)
	err := s.db.QueryRow(
		`SELECT session_id, phase, created_at, updated_at FROM workflow_session WHERE id = 1`,
	).Scan(&sessionID, &phase, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading session snapshot: %w", err)
	}
	return &domain.StoredSession{
		SessionID: sessionID,
		Phase:     domain.ParsePhase(phase),
		CreatedAt: time.Unix(createdAt, 0),
		UpdatedAt: time.Unix(updatedAt, 0),
	}, nil
}

// Clear removes the persisted snapshot. Clearing an empty store is not an
// error.
func (s *SessionStore) Clear() error {
	if _, err := s.db.Exec(`DELETE FROM workflow_session`); err != nil {
		return fmt.Errorf("clearing session snapshot: %w", err)
	}
	return nil
}
