package domain

// Phase is one discrete stage of the book-generation workflow.
// Phases form a fixed total order; comparison by integer value is the
// ordering the orchestrator enforces.
type Phase int

const (
	// PhaseForm is the initial configuration form.
	PhaseForm Phase = iota
	// PhaseQuestions is the clarifying-question round.
	PhaseQuestions
	// PhaseDraft is the iterative draft negotiation.
	PhaseDraft
	// PhaseSummary is the outline review step.
	PhaseSummary
	// PhaseWriting is the long-running server-side writing job.
	PhaseWriting
)

// String returns the wire/display name of the phase.
func (p Phase) String() string {
	switch p {
	case PhaseForm:
		return "form"
	case PhaseQuestions:
		return "questions"
	case PhaseDraft:
		return "draft"
	case PhaseSummary:
		return "summary"
	case PhaseWriting:
		return "writing"
	default:
		return "unknown"
	}
}

// ParsePhase maps a wire name (the backend's current_step) to a Phase.
// Unknown names map to PhaseForm so a corrupt snapshot degrades to a
// fresh start rather than an invalid state.
func ParsePhase(s string) Phase {
	switch s {
	case "questions":
		return PhaseQuestions
	case "draft":
		return PhaseDraft
	case "summary":
		return PhaseSummary
	case "writing":
		return PhaseWriting
	default:
		return PhaseForm
	}
}

// CanTransition reports whether moving from p to next is a legal edge.
// Legal edges are: one step forward in the fixed order, the two
// user-initiated back edges (Questions->Form, Draft->Questions), and a
// reset to Form from anywhere.
func (p Phase) CanTransition(next Phase) bool {
	if next == PhaseForm {
		return true // reset or back from Questions
	}
	if next == p+1 {
		return true
	}
	// Back edge Draft -> Questions.
	return p == PhaseDraft && next == PhaseQuestions
}
