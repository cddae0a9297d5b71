package workflow

import (
	"github.com/nwestfall/bookforge/internal/api"
	"github.com/nwestfall/bookforge/internal/workflow/domain"
)

// sessionFromSnapshot rebuilds the in-memory session from the backend's
// authoritative view. The server decides the phase; local state is only
// normalized downward when the snapshot would land in a phase whose
// entry requirement it cannot satisfy.
func sessionFromSnapshot(snap *api.SessionSnapshot) domain.WorkflowSession {
	s := domain.WorkflowSession{
		SessionID: snap.SessionID,
		Phase:     domain.ParsePhase(snap.CurrentStep),
		Outline:   snap.Outline,
	}

	if snap.FormData != nil {
		s.Form = &domain.FormPayload{
			LLMModel:   snap.FormData.LLMModel,
			Plot:       snap.FormData.Plot,
			Attributes: snap.FormData.Attributes,
		}
	}
	for _, q := range snap.Questions {
		s.Questions = append(s.Questions, domain.Question{ID: q.ID, Text: q.Text})
	}
	for _, a := range snap.QuestionAnswers {
		s.Answers = append(s.Answers, domain.QuestionAnswer{QuestionID: a.QuestionID, Answer: a.Answer})
	}
	if snap.Draft != nil {
		s.Draft = &domain.Draft{
			Title:     snap.Draft.Title,
			Text:      snap.Draft.DraftText,
			Version:   snap.Draft.Version,
			Validated: snap.DraftValidated,
		}
	}

	if s.Phase >= domain.PhaseSummary && !s.HasOutline() {
		s.Phase = domain.PhaseDraft
	}
	if s.Phase >= domain.PhaseDraft && s.Draft == nil {
		s.Phase = domain.PhaseQuestions
	}
	if s.Phase >= domain.PhaseQuestions && len(s.Questions) == 0 {
		s.Phase = domain.PhaseForm
	}
	return s
}
