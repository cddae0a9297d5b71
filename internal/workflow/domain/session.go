// Package domain holds the workflow value objects and error taxonomy for
// bookforge. It has no dependencies on transport or persistence; the api
// and sqlite packages convert to and from these types at their boundaries.
package domain

// FormPayload is the user-entered book configuration. It is immutable once
// submitted. Attributes carries the optional narrative fields declared by
// the server-provided field config, keyed by field name.
type FormPayload struct {
	LLMModel   string
	Plot       string
	Attributes map[string]string
}

// Question is a single clarifying question generated by the backend.
type Question struct {
	ID   string
	Text string
}

// QuestionAnswer is the user's answer to one generated question.
// A nil Answer records an intentional skip, distinct from an empty string.
type QuestionAnswer struct {
	QuestionID string
	Answer     *string
}

// Draft is the extended plot draft under negotiation. Version starts at 1
// on first generation and increments by exactly 1 per accepted
// modification. Once Validated, no further modifications are permitted.
type Draft struct {
	Title     string
	Text      string
	Version   int
	Validated bool
}

// JobStatus is the backend's view of the writing job.
type JobStatus string

// Writing-job statuses reported by the progress endpoint.
const (
	JobPending   JobStatus = "pending"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

// Terminal reports whether the status ends polling.
func (s JobStatus) Terminal() bool {
	return s == JobCompleted || s == JobFailed
}

// Progress is the latest writing-phase snapshot returned by the poller.
type Progress struct {
	Status            JobStatus
	CurrentStep       int
	TotalSteps        int
	CompletedChapters []string
	IsComplete        bool
	Error             string
}

// WorkflowSession is the unit of resumable state: the canonical in-memory
// view of one book's journey through the pipeline. Exactly one session is
// live client-side at a time.
type WorkflowSession struct {
	SessionID string
	Phase     Phase
	Form      *FormPayload
	Questions []Question
	Answers   []QuestionAnswer
	Draft     *Draft
	Outline   string
	Progress  *Progress
}

// NewSession returns a fresh session positioned at the form phase.
func NewSession() WorkflowSession {
	return WorkflowSession{Phase: PhaseForm}
}

// HasOutline reports whether a non-empty outline is present, the
// precondition for starting the writing phase.
func (s *WorkflowSession) HasOutline() bool {
	return s.Outline != ""
}

// Reset clears every field and returns the session to the form phase.
func (s *WorkflowSession) Reset() {
	*s = NewSession()
}
