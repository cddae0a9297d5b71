package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestPhase_String(t *testing.T) {
	require.Equal(t, "form", PhaseForm.String())
	require.Equal(t, "questions", PhaseQuestions.String())
	require.Equal(t, "draft", PhaseDraft.String())
	require.Equal(t, "summary", PhaseSummary.String())
	require.Equal(t, "writing", PhaseWriting.String())
	require.Equal(t, "unknown", Phase(99).String())
}

func TestParsePhase_RoundTrip(t *testing.T) {
	for _, p := range []Phase{PhaseForm, PhaseQuestions, PhaseDraft, PhaseSummary, PhaseWriting} {
		require.Equal(t, p, ParsePhase(p.String()))
	}
}

func TestParsePhase_UnknownFallsBackToForm(t *testing.T) {
	require.Equal(t, PhaseForm, ParsePhase("garbage"))
	require.Equal(t, PhaseForm, ParsePhase(""))
}

func TestPhase_CanTransition_ForwardEdges(t *testing.T) {
	require.True(t, PhaseForm.CanTransition(PhaseQuestions))
	require.True(t, PhaseQuestions.CanTransition(PhaseDraft))
	require.True(t, PhaseDraft.CanTransition(PhaseSummary))
	require.True(t, PhaseSummary.CanTransition(PhaseWriting))
}

func TestPhase_CanTransition_BackEdges(t *testing.T) {
	require.True(t, PhaseQuestions.CanTransition(PhaseForm))
	require.True(t, PhaseDraft.CanTransition(PhaseQuestions))

	// Summary and Writing have no back edge other than reset.
	require.False(t, PhaseSummary.CanTransition(PhaseDraft))
	require.False(t, PhaseWriting.CanTransition(PhaseSummary))
}

func TestPhase_CanTransition_NoSkipping(t *testing.T) {
	require.False(t, PhaseForm.CanTransition(PhaseDraft))
	require.False(t, PhaseForm.CanTransition(PhaseWriting))
	require.False(t, PhaseQuestions.CanTransition(PhaseSummary))
	require.False(t, PhaseDraft.CanTransition(PhaseWriting))
}

func TestPhase_CanTransition_ResetAlwaysAllowed(t *testing.T) {
	for _, p := range []Phase{PhaseForm, PhaseQuestions, PhaseDraft, PhaseSummary, PhaseWriting} {
		require.True(t, p.CanTransition(PhaseForm))
	}
}

// Property: walking any sequence of legal transitions never skips a phase
// in the fixed order; each step moves at most one phase forward.
func TestPhase_TransitionsNeverSkip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		current := PhaseForm
		steps := rapid.IntRange(1, 50).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			next := Phase(rapid.IntRange(0, 4).Draw(t, "next"))
			if !current.CanTransition(next) {
				continue
			}
			if next > current {
				require.Equal(t, current+1, next,
					"forward transition from %s skipped to %s", current, next)
			}
			current = next
		}
	})
}
