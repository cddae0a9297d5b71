package ui

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/require"

	"github.com/nwestfall/bookforge/internal/api"
	"github.com/nwestfall/bookforge/internal/workflow"
	"github.com/nwestfall/bookforge/internal/workflow/domain"
)

// fakeGateway serves the happy path for UI tests.
type fakeGateway struct{}

func (fakeGateway) FetchConfig(context.Context) (*api.ServiceConfig, error) {
	return &api.ServiceConfig{LLMModels: []string{"gpt-4"}}, nil
}
func (fakeGateway) SubmitForm(context.Context, domain.FormPayload) error { return nil }
func (fakeGateway) GenerateQuestions(context.Context, domain.FormPayload) (string, []domain.Question, error) {
	return "sess-1", []domain.Question{{ID: "q1", Text: "Who?"}}, nil
}
func (fakeGateway) SubmitAnswers(context.Context, string, []domain.QuestionAnswer) error { return nil }
func (fakeGateway) GenerateDraft(context.Context, string) (*domain.Draft, error) {
	return &domain.Draft{Title: "T", Text: "draft text", Version: 1}, nil
}
func (fakeGateway) ModifyDraft(_ context.Context, _, _ string, v int) (*domain.Draft, error) {
	return &domain.Draft{Title: "T", Text: "revised", Version: v + 1}, nil
}
func (fakeGateway) ValidateDraft(context.Context, string) error { return nil }
func (fakeGateway) GenerateOutline(context.Context, string) (string, error) {
	return "# Outline", nil
}
func (fakeGateway) UpdateOutline(_ context.Context, _, text string) (string, error) {
	return text, nil
}
func (fakeGateway) StartBookGeneration(context.Context, string) error { return nil }
func (fakeGateway) FetchProgress(context.Context, string) (*domain.Progress, error) {
	return &domain.Progress{Status: domain.JobRunning, CurrentStep: 1, TotalSteps: 2}, nil
}
func (fakeGateway) RestoreSession(_ context.Context, id string) (*api.SessionSnapshot, error) {
	return nil, &domain.SessionNotFoundError{SessionID: id}
}

// fakeStore is an in-memory session store.
type fakeStore struct {
	mu     sync.Mutex
	stored *domain.StoredSession
}

func (s *fakeStore) Save(id string, phase domain.Phase) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stored = &domain.StoredSession{SessionID: id, Phase: phase}
	return nil
}

func (s *fakeStore) Load() (*domain.StoredSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stored, nil
}

func (s *fakeStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stored = nil
	return nil
}

func newTestModel() Model {
	o := workflow.New(workflow.Config{
		Gateway: fakeGateway{},
		Store:   &fakeStore{},
	})
	svc := &api.ServiceConfig{
		LLMModels: []string{"gpt-4", "claude"},
		Fields: []api.FieldSpec{
			{Name: "genre", Label: "Genre", Type: "text", Required: false},
		},
	}
	return New(o, svc)
}

func TestFormModel_PayloadCollectsFields(t *testing.T) {
	form := newFormModel([]string{"gpt-4", "claude"}, []domain.FieldSpec{
		{Name: "genre", Label: "Genre", Type: domain.FieldText},
	})

	// Select the second model.
	form, _ = form.Update(tea.KeyMsg{Type: tea.KeyRight})
	// Move to plot and type.
	form, _ = form.Update(tea.KeyMsg{Type: tea.KeyTab})
	for _, r := range "a plot" {
		form, _ = form.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	// Move to genre and type.
	form, _ = form.Update(tea.KeyMsg{Type: tea.KeyTab})
	for _, r := range "noir" {
		form, _ = form.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}

	payload := form.Payload()
	require.Equal(t, "claude", payload.LLMModel)
	require.Equal(t, "a plot", payload.Plot)
	require.Equal(t, "noir", payload.Attributes["genre"])
}

func TestQuestionsModel_SkipRecordsNilAnswer(t *testing.T) {
	qm := newQuestionsModel([]domain.Question{
		{ID: "q1", Text: "Who?"},
		{ID: "q2", Text: "Where?"},
		{ID: "q3", Text: "Why?"},
	})

	for _, r := range "the narrator" {
		qm, _ = qm.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	// Skip the second explicitly, leave the third untouched.
	qm, _ = qm.Update(tea.KeyMsg{Type: tea.KeyTab})
	qm, _ = qm.Update(tea.KeyMsg{Type: tea.KeyCtrlS})

	answers := qm.Answers()
	require.Len(t, answers, 3)
	require.NotNil(t, answers[0].Answer)
	require.Equal(t, "the narrator", *answers[0].Answer)
	require.Nil(t, answers[1].Answer)
	require.Nil(t, answers[2].Answer)
}

func TestDraftModel_DiffTracksPreviousVersion(t *testing.T) {
	dm := newDraftModel()
	dm.SetDraft(&domain.Draft{Text: "the cat sat", Version: 1})
	require.Empty(t, dm.prevText)

	dm.SetDraft(&domain.Draft{Text: "the dog sat", Version: 2})
	require.Equal(t, "the cat sat", dm.prevText)

	// Regeneration at version 1 clears the diff base.
	dm.SetDraft(&domain.Draft{Text: "fresh start", Version: 1})
	require.Empty(t, dm.prevText)
}

func TestRenderDiff_MarksInsertionsAndDeletions(t *testing.T) {
	out := renderDiff("the cat sat", "the dog sat")
	require.Contains(t, out, "dog")
	require.Contains(t, out, "cat")
	require.Contains(t, out, "the")
}

func TestFriendlyError(t *testing.T) {
	require.Contains(t, friendlyError(&domain.ConflictError{SubmittedVersion: 2}), "latest version was loaded")
	require.Contains(t, friendlyError(&domain.UpstreamError{Op: "x", Timeout: true}), "too long")
	require.Contains(t, friendlyError(domain.ErrDraftFrozen), "already approved")
	require.Equal(t, "plain", friendlyError(errors.New("plain")))
}

func TestWritingModel_FailedStateOffersRetry(t *testing.T) {
	wm := newWritingModel()
	wm.SetSize(80, 24)
	wm.SetProgress(&domain.Progress{
		Status: domain.JobFailed,
		Error:  "critique timeout",
	})

	view := ansi.Strip(wm.View())
	require.Contains(t, view, "critique timeout")
	require.Contains(t, view, "ctrl+r: retry")
}

func TestModel_ViewShowsPhaseTabs(t *testing.T) {
	var model tea.Model = newTestModel()
	model, _ = model.Update(tea.WindowSizeMsg{Width: 100, Height: 30})

	view := ansi.Strip(model.View())
	for _, tab := range []string{"form", "questions", "draft", "summary", "writing"} {
		require.Contains(t, view, tab)
	}
	require.Contains(t, view, "Configure your book")
}

func TestModel_SubmitFormAdvancesToQuestions(t *testing.T) {
	m := newTestModel()
	require.Equal(t, domain.PhaseForm, m.phase)

	// Fill the plot field.
	var model tea.Model = m
	model, _ = model.Update(tea.KeyMsg{Type: tea.KeyTab})
	for _, r := range "a plot" {
		model, _ = model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}

	// Submit and run the resulting command synchronously.
	model, cmd := model.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	result := cmd()
	op, ok := result.(opResultMsg)
	require.True(t, ok)
	require.NoError(t, op.err)

	model, _ = model.Update(result)
	m = model.(Model)
	require.Empty(t, m.errText)

	// The orchestrator advanced; drain the phase event.
	require.Eventually(t, func() bool {
		return m.orchestrator.Session().Phase == domain.PhaseQuestions
	}, time.Second, 10*time.Millisecond)
}
