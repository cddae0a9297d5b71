// Package ui implements the bookforge terminal interface: one screen per
// workflow phase, driven by orchestrator events.
package ui

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"

	"github.com/nwestfall/bookforge/internal/api"
	"github.com/nwestfall/bookforge/internal/log"
	"github.com/nwestfall/bookforge/internal/polling"
	"github.com/nwestfall/bookforge/internal/pubsub"
	"github.com/nwestfall/bookforge/internal/ui/styles"
	"github.com/nwestfall/bookforge/internal/workflow"
	"github.com/nwestfall/bookforge/internal/workflow/domain"
)

// phaseTabs is the rendering order of the workflow phases.
var phaseTabs = []domain.Phase{
	domain.PhaseForm,
	domain.PhaseQuestions,
	domain.PhaseDraft,
	domain.PhaseSummary,
	domain.PhaseWriting,
}

// Model is the root bubbletea model.
type Model struct {
	orchestrator *workflow.Orchestrator
	events       <-chan pubsub.Event[workflow.Event]
	zones        *zone.Manager
	fields       []domain.FieldSpec
	llmModels    []string

	phase     domain.Phase
	form      formModel
	questions questionsModel
	draft     draftModel
	summary   summaryModel
	writing   writingModel

	inflight string
	errText  string
	width    int
	height   int
}

// New creates the root model. The service config drives the form; the
// orchestrator must already be restored (or fresh).
func New(o *workflow.Orchestrator, svc *api.ServiceConfig) Model {
	fields := fieldSpecsFromConfig(svc)

	m := Model{
		orchestrator: o,
		events:       o.Events().Subscribe(context.Background()),
		zones:        zone.New(),
		fields:       fields,
		llmModels:    svc.LLMModels,
		form:         newFormModel(svc.LLMModels, fields),
		draft:        newDraftModel(),
		summary:      newSummaryModel(),
		writing:      newWritingModel(),
	}
	m.syncFromSession()
	return m
}

// syncFromSession aligns the step models with a restored session so the
// UI opens mid-workflow when a snapshot was resumed.
func (m *Model) syncFromSession() {
	session := m.orchestrator.Session()
	m.phase = session.Phase
	if len(session.Questions) > 0 {
		m.questions = newQuestionsModel(session.Questions)
	}
	m.draft.SetDraft(session.Draft)
	if session.HasOutline() {
		m.summary.SetOutline(session.Outline)
	}
	m.writing.SetProgress(session.Progress)
}

// fieldSpecsFromConfig converts wire field specs to domain specs.
func fieldSpecsFromConfig(svc *api.ServiceConfig) []domain.FieldSpec {
	specs := make([]domain.FieldSpec, len(svc.Fields))
	for i, f := range svc.Fields {
		specs[i] = domain.FieldSpec{
			Name:     f.Name,
			Label:    f.Label,
			Type:     domain.FieldType(f.Type),
			Required: f.Required,
			Options:  f.Options,
		}
	}
	return specs
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		waitForEvent(m.events),
		m.writing.Init(),
		textinput.Blink,
	)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		content := maxInt(20, msg.Width-4)
		m.draft.SetSize(content, msg.Height-6)
		m.summary.SetSize(content, msg.Height-6)
		m.writing.SetSize(content, msg.Height-6)
		return m, nil

	case eventsClosedMsg:
		return m, tea.Quit

	case eventMsg:
		return m.handleEvent(workflow.Event(msg))

	case opResultMsg:
		return m.handleOpResult(msg)

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m.updateStep(msg)
}

func (m Model) handleEvent(evt workflow.Event) (tea.Model, tea.Cmd) {
	session := m.orchestrator.Session()
	cmds := []tea.Cmd{waitForEvent(m.events)}

	switch evt.Type {
	case workflow.EventPhaseChanged:
		m.phase = session.Phase
		m.errText = ""
		switch session.Phase {
		case domain.PhaseForm:
			m.form = newFormModel(m.llmModels, m.fields)
		case domain.PhaseQuestions:
			m.questions = newQuestionsModel(session.Questions)
		case domain.PhaseDraft:
			m.draft.SetDraft(session.Draft)
			// Entering the draft phase kicks off generation when no
			// draft exists yet for the current answers.
			if session.Draft == nil && m.inflight == "" {
				m.inflight = "draft.generate"
				cmds = append(cmds, generateDraftCmd(m.orchestrator))
			}
		case domain.PhaseSummary:
			m.summary.SetOutline(session.Outline)
		case domain.PhaseWriting:
			m.writing.SetProgress(session.Progress)
			cmds = append(cmds, m.writing.Init())
		}

	case workflow.EventDraftUpdated:
		m.draft.SetDraft(session.Draft)

	case workflow.EventOutlineUpdated:
		m.summary.SetOutline(session.Outline)

	case workflow.EventProgress, workflow.EventWritingCompleted:
		m.writing.SetProgress(session.Progress)

	case workflow.EventWritingFailed:
		m.writing.SetProgress(session.Progress)
		var jobErr *polling.JobFailedError
		if !errors.As(evt.Err, &jobErr) {
			m.writing.SetFailed(evt.Err)
		}
	}

	return m, tea.Batch(cmds...)
}

func (m Model) handleOpResult(msg opResultMsg) (tea.Model, tea.Cmd) {
	m.inflight = ""
	if msg.err == nil {
		m.errText = ""
		return m, nil
	}
	log.Warn(log.CatUI, "Operation failed", "op", msg.op, "error", msg.err)
	m.errText = friendlyError(msg.err)
	return m, nil
}

func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if msg.Action != tea.MouseActionRelease || msg.Button != tea.MouseButtonLeft {
		return m, nil
	}
	// Tabs for earlier phases act as back buttons where a back edge
	// exists.
	for _, p := range phaseTabs {
		if !m.zones.Get("tab-" + p.String()).InBounds(msg) {
			continue
		}
		switch {
		case m.phase == domain.PhaseQuestions && p == domain.PhaseForm,
			m.phase == domain.PhaseDraft && p == domain.PhaseQuestions:
			return m.startOp("back", backCmd(m.orchestrator))
		}
		break
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "ctrl+n":
		return m.startOp("reset", resetCmd(m.orchestrator))
	}

	if m.inflight != "" {
		// One transition at a time; remaining keys are dropped while a
		// call is in flight.
		return m, nil
	}

	switch m.phase {
	case domain.PhaseForm:
		if msg.String() == "enter" {
			payload := m.form.Payload()
			return m.startOp("form.submit", submitFormCmd(m.orchestrator, payload, m.fields))
		}

	case domain.PhaseQuestions:
		switch msg.String() {
		case "enter":
			return m.startOp("questions.answers", submitAnswersCmd(m.orchestrator, m.questions.Answers()))
		case "esc":
			return m.startOp("back", backCmd(m.orchestrator))
		}

	case domain.PhaseDraft:
		session := m.orchestrator.Session()
		switch msg.String() {
		case "ctrl+d":
			if fb := m.draft.Feedback(); fb != "" {
				return m.startOp("draft.modify", modifyDraftCmd(m.orchestrator, fb))
			}
		case "ctrl+a":
			return m.startOp("draft.finalize", finalizeDraftCmd(m.orchestrator))
		case "ctrl+o":
			if session.Draft != nil && session.Draft.Validated {
				return m.startOp("outline.generate", retryOutlineCmd(m.orchestrator))
			}
		case "esc":
			return m.startOp("back", backCmd(m.orchestrator))
		}

	case domain.PhaseSummary:
		switch msg.String() {
		case "ctrl+w":
			if !m.summary.Editing() {
				return m.startOp("book.generate", startWritingCmd(m.orchestrator))
			}
		case "ctrl+d":
			if m.summary.Editing() {
				return m.startOp("outline.update", editOutlineCmd(m.orchestrator, m.summary.EditedOutline()))
			}
		}

	case domain.PhaseWriting:
		session := m.orchestrator.Session()
		done := session.Progress != nil &&
			(session.Progress.Status == domain.JobCompleted || session.Progress.IsComplete)
		switch msg.String() {
		case "enter":
			if done {
				return m.startOp("acknowledge", acknowledgeCmd(m.orchestrator))
			}
		case "ctrl+r":
			if !m.orchestrator.Polling() && !done {
				return m.startOp("book.progress", resumePollingCmd(m.orchestrator))
			}
		case "q":
			if done {
				return m, tea.Quit
			}
		}
	}

	return m.updateStep(msg)
}

// startOp records the in-flight operation and runs its command.
func (m Model) startOp(op string, cmd tea.Cmd) (tea.Model, tea.Cmd) {
	m.inflight = op
	m.errText = ""
	return m, cmd
}

// updateStep routes a message to the active phase's model.
func (m Model) updateStep(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.phase {
	case domain.PhaseForm:
		m.form, cmd = m.form.Update(msg)
	case domain.PhaseQuestions:
		m.questions, cmd = m.questions.Update(msg)
	case domain.PhaseDraft:
		m.draft, cmd = m.draft.Update(msg)
	case domain.PhaseSummary:
		m.summary, cmd = m.summary.Update(msg)
	case domain.PhaseWriting:
		m.writing, cmd = m.writing.Update(msg)
	}
	return m, cmd
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(m.renderTabs())
	b.WriteString("\n\n")

	switch m.phase {
	case domain.PhaseForm:
		b.WriteString(m.form.View())
	case domain.PhaseQuestions:
		b.WriteString(m.questions.View())
	case domain.PhaseDraft:
		b.WriteString(m.draft.View())
	case domain.PhaseSummary:
		b.WriteString(m.summary.View())
	case domain.PhaseWriting:
		b.WriteString(m.writing.View())
	}

	b.WriteString("\n\n")
	b.WriteString(m.renderStatus())

	return m.zones.Scan(b.String())
}

func (m Model) renderTabs() string {
	tabs := make([]string, 0, len(phaseTabs))
	for _, p := range phaseTabs {
		label := p.String()
		var rendered string
		switch {
		case p == m.phase:
			rendered = styles.ActiveTab.Render(label)
		case p < m.phase:
			rendered = styles.DoneTab.Render(label)
		default:
			rendered = styles.Tab.Render(label)
		}
		tabs = append(tabs, m.zones.Mark("tab-"+p.String(), rendered))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m Model) renderStatus() string {
	if m.errText != "" {
		return styles.Error.Render(styles.Truncate(m.errText, maxInt(20, m.width-2)))
	}
	if m.inflight != "" {
		return styles.StatusBar.Render("working: " + m.inflight + "…")
	}
	return styles.StatusBar.Render("ctrl+n: new book • ctrl+c: quit")
}

// friendlyError maps the error taxonomy onto user-facing text.
func friendlyError(err error) string {
	var validationErr *domain.ValidationError
	if errors.As(err, &validationErr) {
		return validationErr.Error()
	}

	var conflictErr *domain.ConflictError
	if errors.As(err, &conflictErr) {
		return "The draft changed elsewhere; the latest version was loaded. Review it and resend your feedback."
	}

	if errors.Is(err, domain.ErrDraftFrozen) {
		return "The draft is already approved and can no longer be changed."
	}

	var busyErr *domain.BusyError
	if errors.As(err, &busyErr) {
		return "Still working on the previous action."
	}

	var upstreamErr *domain.UpstreamError
	if errors.As(err, &upstreamErr) {
		if upstreamErr.Timeout {
			return "The backend took too long to answer. Try again."
		}
		return "The backend call failed. Try again. (" + upstreamErr.Op + ")"
	}

	return err.Error()
}
