package workflow

import "github.com/nwestfall/bookforge/internal/workflow/domain"

// EventType identifies what changed in the workflow session.
type EventType string

// Workflow event types published on the orchestrator's broker.
const (
	// EventPhaseChanged fires after every successful phase transition,
	// including resets back to the form.
	EventPhaseChanged EventType = "phase_changed"

	// EventDraftUpdated fires whenever the local draft is replaced: first
	// generation, an accepted modification, validation, or a refresh after
	// a version conflict.
	EventDraftUpdated EventType = "draft_updated"

	// EventOutlineUpdated fires when the outline is generated or edited.
	EventOutlineUpdated EventType = "outline_updated"

	// EventProgress fires for every writing-phase progress snapshot.
	EventProgress EventType = "progress"

	// EventWritingCompleted fires exactly once when the writing job
	// reaches terminal success.
	EventWritingCompleted EventType = "writing_completed"

	// EventWritingFailed fires when the writing job fails server-side or
	// polling gives up after consecutive transport failures.
	EventWritingFailed EventType = "writing_failed"
)

// Event is published on the orchestrator's broker so the UI can react
// without polling orchestrator state.
type Event struct {
	Type     EventType
	Phase    domain.Phase
	Progress *domain.Progress
	Err      error
}
