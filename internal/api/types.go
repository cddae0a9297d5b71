package api

// Wire types for the book-writing service API. Field names match the
// backend contract exactly; conversions to domain types happen in the
// client methods.

// ServiceConfig is returned by POST /config. It is read at startup to
// render the form and validate submissions.
type ServiceConfig struct {
	LLMModels      []string    `json:"llm_models"`
	Fields         []FieldSpec `json:"fields"`
	PollIntervalMS int         `json:"poll_interval_ms,omitempty"`
}

// FieldSpec describes one form field declared by the server.
type FieldSpec struct {
	Name     string   `json:"name"`
	Label    string   `json:"label"`
	Type     string   `json:"type"`
	Required bool     `json:"required"`
	Options  []string `json:"options,omitempty"`
}

// SubmissionRequest is the body of POST /submissions.
type SubmissionRequest struct {
	LLMModel   string            `json:"llm_model"`
	Plot       string            `json:"plot"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// QuestionsResponse is returned by POST /questions/generate. This call is
// the sole issuer of session_id.
type QuestionsResponse struct {
	SessionID string     `json:"session_id"`
	Questions []Question `json:"questions"`
}

// Question is one generated clarifying question.
type Question struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// AnswersRequest is the body of POST /questions/answers.
type AnswersRequest struct {
	SessionID string   `json:"session_id"`
	Answers   []Answer `json:"answers"`
}

// Answer carries one optional answer. A nil Answer marks a skipped
// question on the wire (omitted rather than sent as "").
type Answer struct {
	QuestionID string  `json:"question_id"`
	Answer     *string `json:"answer,omitempty"`
}

// DraftRequest is the body of POST /draft/generate and /draft/validate.
type DraftRequest struct {
	SessionID string `json:"session_id"`
}

// DraftModifyRequest is the body of POST /draft/modify. CurrentVersion
// lets the backend detect a stale edit.
type DraftModifyRequest struct {
	SessionID      string `json:"session_id"`
	UserFeedback   string `json:"user_feedback"`
	CurrentVersion int    `json:"current_version"`
}

// DraftResponse is returned by the draft endpoints.
type DraftResponse struct {
	SessionID string `json:"session_id"`
	DraftText string `json:"draft_text"`
	Title     string `json:"title,omitempty"`
	Version   int    `json:"version"`
}

// OutlineRequest is the body of POST /outline/generate.
type OutlineRequest struct {
	SessionID string `json:"session_id"`
}

// OutlineUpdateRequest is the body of POST /outline/update.
type OutlineUpdateRequest struct {
	SessionID   string `json:"session_id"`
	OutlineText string `json:"outline_text"`
}

// OutlineResponse is returned by the outline endpoints.
type OutlineResponse struct {
	SessionID   string `json:"session_id"`
	OutlineText string `json:"outline_text"`
	Version     int    `json:"version"`
}

// BookGenerateRequest is the body of POST /book/generate.
type BookGenerateRequest struct {
	SessionID string `json:"session_id"`
}

// ProgressResponse is returned by GET /book/progress/{session_id} and
// polled during the writing phase.
type ProgressResponse struct {
	Status            string   `json:"status"`
	CurrentStep       int      `json:"current_step"`
	TotalSteps        int      `json:"total_steps"`
	CompletedChapters []string `json:"completed_chapters"`
	IsComplete        bool     `json:"is_complete"`
	Error             string   `json:"error,omitempty"`
}

// SessionSnapshot is returned by GET /sessions/{session_id}. It is the
// backend's authoritative view of a session, used to reconcile local
// state on restore.
type SessionSnapshot struct {
	SessionID       string             `json:"session_id"`
	CurrentStep     string             `json:"current_step"`
	FormData        *SubmissionRequest `json:"form_data,omitempty"`
	Questions       []Question         `json:"questions,omitempty"`
	QuestionAnswers []Answer           `json:"question_answers,omitempty"`
	Draft           *DraftResponse     `json:"draft,omitempty"`
	DraftValidated  bool               `json:"draft_validated,omitempty"`
	Outline         string             `json:"outline,omitempty"`
}

// APIError is the backend's error envelope for non-2xx responses.
type APIError struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}
