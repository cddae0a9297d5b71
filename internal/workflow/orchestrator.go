// Package workflow implements the client-side state machine that walks a
// book project through form, questions, draft negotiation, outline review,
// and writing. The Orchestrator owns the single live session, serializes
// phase transitions, persists a resume snapshot after each one, and drives
// the writing-phase poller.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/nwestfall/bookforge/internal/api"
	"github.com/nwestfall/bookforge/internal/log"
	"github.com/nwestfall/bookforge/internal/polling"
	"github.com/nwestfall/bookforge/internal/pubsub"
	"github.com/nwestfall/bookforge/internal/workflow/domain"
)

// ErrNoBackEdge is returned by Back when the current phase has no prior
// phase to return to.
var ErrNoBackEdge = errors.New("no prior phase to return to")

// minPollInterval floors server-suggested poll intervals so a
// misconfigured backend cannot make the client hammer itself.
const minPollInterval = 500 * time.Millisecond

// Timeouts bounds each class of backend call. Zero fields take defaults.
type Timeouts struct {
	// Submit bounds quick calls: form submission, writing kickoff,
	// session restore.
	Submit time.Duration

	// Questions bounds question generation and answer submission.
	Questions time.Duration

	// Generation bounds the heavyweight LLM calls: draft generate and
	// modify, outline generate and update.
	Generation time.Duration

	// Progress bounds a single writing-progress fetch.
	Progress time.Duration
}

// DefaultTimeouts returns the standard per-call deadlines.
func DefaultTimeouts() Timeouts {
	return Timeouts{
		Submit:     30 * time.Second,
		Questions:  60 * time.Second,
		Generation: 120 * time.Second,
		Progress:   10 * time.Second,
	}
}

func (t *Timeouts) applyDefaults() {
	def := DefaultTimeouts()
	if t.Submit <= 0 {
		t.Submit = def.Submit
	}
	if t.Questions <= 0 {
		t.Questions = def.Questions
	}
	if t.Generation <= 0 {
		t.Generation = def.Generation
	}
	if t.Progress <= 0 {
		t.Progress = def.Progress
	}
}

// Config configures an Orchestrator.
type Config struct {
	Gateway api.Gateway
	Store   domain.SessionStore

	// Events receives workflow events. Optional; a private broker is
	// created when nil.
	Events *pubsub.Broker[Event]

	// Timeouts for backend calls. Zero fields take DefaultTimeouts.
	Timeouts Timeouts

	// PollInterval is the base delay between progress polls, usually the
	// server-suggested poll_interval_ms. Values below 500ms are floored;
	// zero takes the polling default.
	PollInterval time.Duration

	// PollTimer overrides the poller's delay scheduling for tests.
	PollTimer func(time.Duration) <-chan time.Time
}

// Orchestrator owns the live workflow session. All phase-advancing
// operations are serialized through a busy flag: invoking one while
// another is in flight returns *domain.BusyError instead of queueing.
type Orchestrator struct {
	gateway    api.Gateway
	store      domain.SessionStore
	negotiator *DraftNegotiator
	events     *pubsub.Broker[Event]
	timeouts   Timeouts
	poller     *polling.Poller[*domain.Progress]

	mu      sync.Mutex
	busyOp  string
	session domain.WorkflowSession
}

// New creates an orchestrator positioned at the form phase.
func New(cfg Config) *Orchestrator {
	cfg.Timeouts.applyDefaults()
	if cfg.Events == nil {
		cfg.Events = pubsub.NewBroker[Event]()
	}

	interval := cfg.PollInterval
	if interval > 0 && interval < minPollInterval {
		interval = minPollInterval
	}

	o := &Orchestrator{
		gateway:    cfg.Gateway,
		store:      cfg.Store,
		negotiator: NewDraftNegotiator(cfg.Gateway),
		events:     cfg.Events,
		timeouts:   cfg.Timeouts,
		session:    domain.NewSession(),
	}
	o.poller = polling.New(polling.Config[*domain.Progress]{
		BaseInterval: interval,
		Classify:     classifyProgress,
		OnUpdate:     o.onProgress,
		OnComplete:   o.onWritingComplete,
		OnError:      o.onWritingError,
		Timer:        cfg.PollTimer,
	})
	return o
}

// Session returns a copy of the current session for rendering. Slice and
// pointer fields are shared; treat the returned value as read-only.
func (o *Orchestrator) Session() domain.WorkflowSession {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.session
}

// Events returns the broker carrying workflow events.
func (o *Orchestrator) Events() *pubsub.Broker[Event] {
	return o.events
}

// SubmitForm validates and submits the book configuration, then fetches
// the clarifying questions. On success the backend issues the session id
// and the workflow advances to the questions phase.
func (o *Orchestrator) SubmitForm(ctx context.Context, payload domain.FormPayload, fields []domain.FieldSpec) error {
	if err := o.begin("form.submit", domain.PhaseForm); err != nil {
		return err
	}
	defer o.end()

	if err := domain.ValidateForm(payload, fields); err != nil {
		return err
	}

	submitCtx, cancel := context.WithTimeout(ctx, o.timeouts.Submit)
	defer cancel()
	if err := o.gateway.SubmitForm(submitCtx, payload); err != nil {
		return err
	}

	questionsCtx, cancel := context.WithTimeout(ctx, o.timeouts.Questions)
	defer cancel()
	sessionID, questions, err := o.gateway.GenerateQuestions(questionsCtx, payload)
	if err != nil {
		return err
	}

	o.mu.Lock()
	o.session.SessionID = sessionID
	o.session.Form = &payload
	o.session.Questions = questions
	o.session.Answers = nil
	o.session.Draft = nil
	o.session.Outline = ""
	o.session.Progress = nil
	err = o.setPhase(domain.PhaseQuestions)
	o.mu.Unlock()
	if err != nil {
		return err
	}

	o.persist()
	o.publishPhase()
	log.Info(log.CatWorkflow, "Form submitted", "session", sessionID, "questions", len(questions))
	return nil
}

// SubmitAnswers records the user's answers (nil answers are skips) and
// advances to the draft phase. Any earlier draft or outline is discarded
// because new answers invalidate them.
func (o *Orchestrator) SubmitAnswers(ctx context.Context, answers []domain.QuestionAnswer) error {
	if err := o.begin("questions.answers", domain.PhaseQuestions); err != nil {
		return err
	}
	defer o.end()

	sessionID := o.Session().SessionID
	if sessionID == "" {
		return &domain.PreconditionError{Op: "questions.answers", Missing: "a session id"}
	}

	callCtx, cancel := context.WithTimeout(ctx, o.timeouts.Questions)
	defer cancel()
	if err := o.gateway.SubmitAnswers(callCtx, sessionID, answers); err != nil {
		return err
	}

	o.mu.Lock()
	o.session.Answers = answers
	o.session.Draft = nil
	o.session.Outline = ""
	err := o.setPhase(domain.PhaseDraft)
	o.mu.Unlock()
	if err != nil {
		return err
	}

	o.persist()
	o.publishPhase()
	return nil
}

// Back returns to the previous editable phase: questions back to the
// form, draft back to the questions. State entered so far is kept; a
// later re-submission replaces whatever it invalidates.
func (o *Orchestrator) Back() error {
	if err := o.begin("back"); err != nil {
		return err
	}
	defer o.end()

	o.mu.Lock()
	var target domain.Phase
	switch o.session.Phase {
	case domain.PhaseQuestions:
		target = domain.PhaseForm
	case domain.PhaseDraft:
		target = domain.PhaseQuestions
	default:
		o.mu.Unlock()
		return ErrNoBackEdge
	}
	err := o.setPhase(target)
	o.mu.Unlock()
	if err != nil {
		return err
	}

	o.persist()
	o.publishPhase()
	return nil
}

// GenerateDraft produces the first draft version. A no-op if a draft
// already exists for the current answers.
func (o *Orchestrator) GenerateDraft(ctx context.Context) error {
	if err := o.begin("draft.generate", domain.PhaseDraft); err != nil {
		return err
	}
	defer o.end()

	current := o.Session()
	if current.Draft != nil {
		return nil
	}

	callCtx, cancel := context.WithTimeout(ctx, o.timeouts.Generation)
	defer cancel()
	draft, err := o.negotiator.Generate(callCtx, current.SessionID)
	if err != nil {
		return err
	}

	o.mu.Lock()
	o.session.Draft = draft
	o.mu.Unlock()
	o.publish(Event{Type: EventDraftUpdated})
	return nil
}

// ModifyDraft submits feedback against the current draft version. On a
// version conflict the local draft is refreshed from the backend and the
// conflict is returned so the UI can tell the user to re-review.
func (o *Orchestrator) ModifyDraft(ctx context.Context, feedback string) error {
	if err := o.begin("draft.modify", domain.PhaseDraft); err != nil {
		return err
	}
	defer o.end()

	current := o.Session()

	callCtx, cancel := context.WithTimeout(ctx, o.timeouts.Generation)
	defer cancel()
	next, err := o.negotiator.Modify(callCtx, current.SessionID, current.Draft, feedback)
	if err != nil {
		var conflict *domain.ConflictError
		if errors.As(err, &conflict) {
			o.refreshDraft(ctx, current.SessionID)
		}
		return err
	}

	o.mu.Lock()
	o.session.Draft = next
	o.mu.Unlock()
	o.publish(Event{Type: EventDraftUpdated})
	return nil
}

// refreshDraft replaces the local draft with the backend's copy after a
// version conflict. Failures are logged and swallowed; the conflict
// itself is what the caller reports.
func (o *Orchestrator) refreshDraft(ctx context.Context, sessionID string) {
	callCtx, cancel := context.WithTimeout(ctx, o.timeouts.Submit)
	defer cancel()
	fresh, err := o.negotiator.Refresh(callCtx, sessionID)
	if err != nil {
		log.ErrorErr(log.CatWorkflow, "Failed to refresh draft after conflict", err, "session", sessionID)
		return
	}
	o.mu.Lock()
	o.session.Draft = fresh
	o.mu.Unlock()
	o.publish(Event{Type: EventDraftUpdated})
}

// FinalizeDraft validates (freezes) the draft and generates the outline,
// advancing to the summary phase. If outline generation fails after a
// successful validation the workflow stays in the draft phase with the
// draft frozen; RetryOutline repeats only the outline step.
func (o *Orchestrator) FinalizeDraft(ctx context.Context) error {
	if err := o.begin("draft.finalize", domain.PhaseDraft); err != nil {
		return err
	}
	defer o.end()
	return o.validateAndOutline(ctx)
}

// RetryOutline retries outline generation for an already-validated
// draft, the recovery path when FinalizeDraft froze the draft but the
// outline call failed.
func (o *Orchestrator) RetryOutline(ctx context.Context) error {
	if err := o.begin("outline.generate", domain.PhaseDraft); err != nil {
		return err
	}
	defer o.end()

	if d := o.Session().Draft; d == nil || !d.Validated {
		return &domain.PreconditionError{Op: "outline.generate", Missing: "a validated draft"}
	}
	return o.validateAndOutline(ctx)
}

// validateAndOutline runs the validate-then-outline tail shared by
// FinalizeDraft and RetryOutline. Caller holds the busy flag.
func (o *Orchestrator) validateAndOutline(ctx context.Context) error {
	current := o.Session()

	validateCtx, cancel := context.WithTimeout(ctx, o.timeouts.Generation)
	defer cancel()
	frozen, err := o.negotiator.Validate(validateCtx, current.SessionID, current.Draft)
	if err != nil {
		return err
	}

	// Swap in the frozen copy under the lock; the previous draft pointer
	// may be held by a concurrent renderer.
	o.mu.Lock()
	o.session.Draft = frozen
	o.mu.Unlock()
	o.publish(Event{Type: EventDraftUpdated})

	outlineCtx, cancel := context.WithTimeout(ctx, o.timeouts.Generation)
	defer cancel()
	outline, err := o.gateway.GenerateOutline(outlineCtx, current.SessionID)
	if err != nil {
		log.Warn(log.CatWorkflow, "Outline generation failed after validation", "session", current.SessionID, "error", err)
		return err
	}

	o.mu.Lock()
	o.session.Outline = outline
	perr := o.setPhase(domain.PhaseSummary)
	o.mu.Unlock()
	if perr != nil {
		return perr
	}

	o.persist()
	o.publish(Event{Type: EventOutlineUpdated})
	o.publishPhase()
	return nil
}

// EditOutline replaces the outline wholesale with the user's edited
// markdown. The phase does not change.
func (o *Orchestrator) EditOutline(ctx context.Context, outlineText string) error {
	if err := o.begin("outline.update", domain.PhaseSummary); err != nil {
		return err
	}
	defer o.end()

	if strings.TrimSpace(outlineText) == "" {
		return &domain.ValidationError{Field: "outline", Reason: "outline must not be empty"}
	}

	callCtx, cancel := context.WithTimeout(ctx, o.timeouts.Generation)
	defer cancel()
	updated, err := o.gateway.UpdateOutline(callCtx, o.Session().SessionID, outlineText)
	if err != nil {
		return err
	}

	o.mu.Lock()
	o.session.Outline = updated
	o.mu.Unlock()
	o.publish(Event{Type: EventOutlineUpdated})
	return nil
}

// StartWriting kicks off the server-side writing job and hands control
// to the progress poller. Requires an approved, non-empty outline.
func (o *Orchestrator) StartWriting(ctx context.Context) error {
	if err := o.begin("book.generate", domain.PhaseSummary); err != nil {
		return err
	}
	defer o.end()

	current := o.Session()
	if !current.HasOutline() {
		return &domain.PreconditionError{Op: "book.generate", Missing: "a non-empty outline"}
	}

	callCtx, cancel := context.WithTimeout(ctx, o.timeouts.Submit)
	defer cancel()
	if err := o.gateway.StartBookGeneration(callCtx, current.SessionID); err != nil {
		return err
	}

	o.mu.Lock()
	o.session.Progress = &domain.Progress{Status: domain.JobPending}
	err := o.setPhase(domain.PhaseWriting)
	o.mu.Unlock()
	if err != nil {
		return err
	}

	o.persist()
	o.publishPhase()
	return o.startPolling(current.SessionID)
}

// StartPolling begins (or resumes) progress polling for the writing
// phase. Used after restoring a session that was mid-writing, and to
// retry after polling gave up on consecutive transport failures.
// Resuming does not reset progress already reported.
func (o *Orchestrator) StartPolling() error {
	current := o.Session()
	if current.Phase != domain.PhaseWriting {
		return &domain.PreconditionError{Op: "book.progress", Missing: "the writing phase"}
	}
	return o.startPolling(current.SessionID)
}

func (o *Orchestrator) startPolling(sessionID string) error {
	fetch := func(ctx context.Context) (*domain.Progress, error) {
		callCtx, cancel := context.WithTimeout(ctx, o.timeouts.Progress)
		defer cancel()
		return o.gateway.FetchProgress(callCtx, sessionID)
	}
	// The loop outlives the call that started it; Stop cancels it.
	return o.poller.Start(context.Background(), sessionID, fetch)
}

// SetPollInterval changes the base delay between progress polls, used
// when the config file is edited while the app runs. Values below the
// floor are raised to it.
func (o *Orchestrator) SetPollInterval(interval time.Duration) {
	if interval <= 0 {
		return
	}
	if interval < minPollInterval {
		interval = minPollInterval
	}
	o.poller.SetBaseInterval(interval)
}

// StopPolling halts progress polling without touching session state.
func (o *Orchestrator) StopPolling() {
	o.poller.Stop()
}

// Polling reports whether the progress poller is active.
func (o *Orchestrator) Polling() bool {
	return o.poller.Running()
}

// Restore loads the persisted snapshot and reconciles against the
// backend. The backend's phase wins over the persisted one. A session
// unknown to the backend clears the snapshot and starts fresh; that is
// not an error. Transient failures leave the snapshot intact so a later
// launch can retry.
func (o *Orchestrator) Restore(ctx context.Context) error {
	if err := o.begin("sessions.restore"); err != nil {
		return err
	}
	defer o.end()

	stored, err := o.store.Load()
	if err != nil {
		return fmt.Errorf("loading persisted session: %w", err)
	}
	if stored == nil {
		return nil
	}

	callCtx, cancel := context.WithTimeout(ctx, o.timeouts.Submit)
	defer cancel()
	snap, err := o.gateway.RestoreSession(callCtx, stored.SessionID)
	if err != nil {
		var notFound *domain.SessionNotFoundError
		if errors.As(err, &notFound) {
			log.Info(log.CatWorkflow, "Persisted session unknown to backend, starting fresh", "session", stored.SessionID)
			if cerr := o.store.Clear(); cerr != nil {
				return cerr
			}
			o.mu.Lock()
			o.session.Reset()
			o.mu.Unlock()
			o.publishPhase()
			return nil
		}
		return err
	}

	restored := sessionFromSnapshot(snap)
	o.mu.Lock()
	o.session = restored
	o.mu.Unlock()

	o.persist()
	o.publishPhase()
	log.Info(log.CatWorkflow, "Session restored", "session", restored.SessionID, "phase", restored.Phase.String())
	return nil
}

// Reset abandons the current session from any phase: polling stops, the
// snapshot is cleared, and the workflow returns to an empty form.
func (o *Orchestrator) Reset() error {
	if err := o.begin("reset"); err != nil {
		return err
	}
	defer o.end()

	o.poller.Stop()

	if err := o.store.Clear(); err != nil {
		return err
	}
	o.mu.Lock()
	o.session.Reset()
	o.mu.Unlock()
	o.publishPhase()
	return nil
}

// Acknowledge records that the user has seen the finished book. The
// snapshot is destroyed and the workflow returns to an empty form, ready
// for the next book.
func (o *Orchestrator) Acknowledge() error {
	if err := o.begin("acknowledge"); err != nil {
		return err
	}
	defer o.end()

	if err := o.store.Clear(); err != nil {
		return err
	}
	o.mu.Lock()
	o.session.Reset()
	o.mu.Unlock()
	o.publishPhase()
	return nil
}

// Close stops background work. The broker is left to its owner.
func (o *Orchestrator) Close() {
	o.poller.Stop()
}

// begin acquires the busy flag, optionally checking the current phase.
// Callers must pair it with end.
func (o *Orchestrator) begin(op string, want ...domain.Phase) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.busyOp != "" {
		return &domain.BusyError{Op: op, Running: o.busyOp}
	}
	if len(want) > 0 {
		ok := false
		for _, w := range want {
			if o.session.Phase == w {
				ok = true
				break
			}
		}
		if !ok {
			return &domain.PreconditionError{Op: op, Missing: "phase " + want[0].String()}
		}
	}
	o.busyOp = op
	return nil
}

func (o *Orchestrator) end() {
	o.mu.Lock()
	o.busyOp = ""
	o.mu.Unlock()
}

// setPhase applies a transition, refusing any edge the phase order does
// not allow. Caller holds o.mu.
func (o *Orchestrator) setPhase(next domain.Phase) error {
	if !o.session.Phase.CanTransition(next) {
		return &domain.PreconditionError{
			Op:      "phase.transition",
			Missing: fmt.Sprintf("a legal edge from %s to %s", o.session.Phase.String(), next.String()),
		}
	}
	log.Debug(log.CatWorkflow, "Phase transition", "from", o.session.Phase.String(), "to", next.String())
	o.session.Phase = next
	return nil
}

// persist writes the resume snapshot. Persistence failures are logged
// and absorbed: losing resume capability must not block the workflow.
func (o *Orchestrator) persist() {
	o.mu.Lock()
	sessionID, phase := o.session.SessionID, o.session.Phase
	o.mu.Unlock()

	var err error
	if sessionID == "" {
		err = o.store.Clear()
	} else {
		err = o.store.Save(sessionID, phase)
	}
	if err != nil {
		log.ErrorErr(log.CatWorkflow, "Failed to persist session snapshot", err, "session", sessionID)
	}
}

func (o *Orchestrator) publish(event Event) {
	o.events.Publish(event)
}

func (o *Orchestrator) publishPhase() {
	o.mu.Lock()
	phase := o.session.Phase
	o.mu.Unlock()
	o.publish(Event{Type: EventPhaseChanged, Phase: phase})
}

// onProgress runs on the poller goroutine for each non-terminal snapshot.
func (o *Orchestrator) onProgress(progress *domain.Progress) {
	o.mu.Lock()
	o.session.Progress = progress
	o.mu.Unlock()
	o.publish(Event{Type: EventProgress, Progress: progress})
}

// onWritingComplete runs exactly once when the job finishes. The
// snapshot survives until the user acknowledges the finished book.
func (o *Orchestrator) onWritingComplete(progress *domain.Progress) {
	o.mu.Lock()
	o.session.Progress = progress
	o.mu.Unlock()
	o.publish(Event{Type: EventProgress, Progress: progress})
	o.publish(Event{Type: EventWritingCompleted, Progress: progress})
}

// onWritingError runs once per poll run, for a server-side job failure
// or a fatal transport-failure streak.
func (o *Orchestrator) onWritingError(err error) {
	var jobErr *polling.JobFailedError
	if errors.As(err, &jobErr) {
		o.mu.Lock()
		if o.session.Progress != nil {
			failed := *o.session.Progress
			failed.Status = domain.JobFailed
			failed.Error = jobErr.Message
			o.session.Progress = &failed
		} else {
			o.session.Progress = &domain.Progress{Status: domain.JobFailed, Error: jobErr.Message}
		}
		o.mu.Unlock()
	}
	o.publish(Event{Type: EventWritingFailed, Err: err})
}

// classifyProgress maps a progress snapshot onto the poller's outcome.
func classifyProgress(progress *domain.Progress) (polling.Outcome, string) {
	switch {
	case progress.Status == domain.JobFailed:
		return polling.OutcomeFailed, progress.Error
	case progress.Status == domain.JobCompleted || progress.IsComplete:
		return polling.OutcomeCompleted, ""
	default:
		return polling.OutcomeContinue, ""
	}
}
