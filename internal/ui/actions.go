package ui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nwestfall/bookforge/internal/pubsub"
	"github.com/nwestfall/bookforge/internal/workflow"
	"github.com/nwestfall/bookforge/internal/workflow/domain"
)

// eventMsg carries one workflow event into the bubbletea loop.
type eventMsg workflow.Event

// eventsClosedMsg signals the broker shut down.
type eventsClosedMsg struct{}

// opResultMsg reports the outcome of an orchestrator call.
type opResultMsg struct {
	op  string
	err error
}

// waitForEvent blocks on the broker subscription until the next event.
// The returned command is re-issued after each delivery.
func waitForEvent(events <-chan pubsub.Event[workflow.Event]) tea.Cmd {
	return func() tea.Msg {
		evt, ok := <-events
		if !ok {
			return eventsClosedMsg{}
		}
		return eventMsg(evt.Payload)
	}
}

// run wraps an orchestrator call in a command. The orchestrator applies
// its own per-call deadlines.
func run(op string, fn func(context.Context) error) tea.Cmd {
	return func() tea.Msg {
		return opResultMsg{op: op, err: fn(context.Background())}
	}
}

func submitFormCmd(o *workflow.Orchestrator, payload domain.FormPayload, fields []domain.FieldSpec) tea.Cmd {
	return run("form.submit", func(ctx context.Context) error {
		return o.SubmitForm(ctx, payload, fields)
	})
}

func submitAnswersCmd(o *workflow.Orchestrator, answers []domain.QuestionAnswer) tea.Cmd {
	return run("questions.answers", func(ctx context.Context) error {
		return o.SubmitAnswers(ctx, answers)
	})
}

func generateDraftCmd(o *workflow.Orchestrator) tea.Cmd {
	return run("draft.generate", o.GenerateDraft)
}

func modifyDraftCmd(o *workflow.Orchestrator, feedback string) tea.Cmd {
	return run("draft.modify", func(ctx context.Context) error {
		return o.ModifyDraft(ctx, feedback)
	})
}

func finalizeDraftCmd(o *workflow.Orchestrator) tea.Cmd {
	return run("draft.finalize", o.FinalizeDraft)
}

func retryOutlineCmd(o *workflow.Orchestrator) tea.Cmd {
	return run("outline.generate", o.RetryOutline)
}

func editOutlineCmd(o *workflow.Orchestrator, outline string) tea.Cmd {
	return run("outline.update", func(ctx context.Context) error {
		return o.EditOutline(ctx, outline)
	})
}

func startWritingCmd(o *workflow.Orchestrator) tea.Cmd {
	return run("book.generate", o.StartWriting)
}

func resumePollingCmd(o *workflow.Orchestrator) tea.Cmd {
	return run("book.progress", func(context.Context) error {
		return o.StartPolling()
	})
}

func backCmd(o *workflow.Orchestrator) tea.Cmd {
	return run("back", func(context.Context) error {
		return o.Back()
	})
}

func resetCmd(o *workflow.Orchestrator) tea.Cmd {
	return run("reset", func(context.Context) error {
		return o.Reset()
	})
}

func acknowledgeCmd(o *workflow.Orchestrator) tea.Cmd {
	return run("acknowledge", func(context.Context) error {
		return o.Acknowledge()
	})
}
