package domain

import "time"

// StoredSession is the minimal persisted snapshot: the backend-issued
// session id and the phase it was last seen in. All other state is
// reconstructed from the backend on restore.
type StoredSession struct {
	SessionID string
	Phase     Phase
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SessionStore is the durable persistence boundary for the single live
// workflow session.
type SessionStore interface {
	// Save upserts the snapshot, replacing any previous one.
	Save(sessionID string, phase Phase) error

	// Load returns the persisted snapshot, or nil if none exists.
	Load() (*StoredSession, error)

	// Clear removes the snapshot. Clearing an empty store is not an error.
	Clear() error
}
