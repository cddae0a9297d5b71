package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nwestfall/bookforge/internal/ui/styles"
	"github.com/nwestfall/bookforge/internal/workflow/domain"
)

// questionsModel collects answers to the generated clarifying questions.
// Every question may be answered or skipped; a skip is recorded as a nil
// answer, distinct from an empty string.
type questionsModel struct {
	questions []domain.Question
	inputs    []textinput.Model
	skipped   []bool
	focused   int
	width     int
}

func newQuestionsModel(questions []domain.Question) questionsModel {
	inputs := make([]textinput.Model, len(questions))
	for i := range questions {
		in := textinput.New()
		in.Placeholder = "Your answer (ctrl+s to skip)"
		in.CharLimit = 1000
		in.Width = 60
		inputs[i] = in
	}
	m := questionsModel{
		questions: questions,
		inputs:    inputs,
		skipped:   make([]bool, len(questions)),
	}
	if len(inputs) > 0 {
		m.inputs[0].Focus()
	}
	return m
}

// Answers returns the collected answers in question order.
func (m questionsModel) Answers() []domain.QuestionAnswer {
	answers := make([]domain.QuestionAnswer, len(m.questions))
	for i, q := range m.questions {
		answers[i] = domain.QuestionAnswer{QuestionID: q.ID}
		if m.skipped[i] {
			continue
		}
		text := strings.TrimSpace(m.inputs[i].Value())
		if text == "" {
			// An untouched question counts as skipped.
			continue
		}
		answers[i].Answer = &text
	}
	return answers
}

func (m *questionsModel) focus(i int) {
	for j := range m.inputs {
		m.inputs[j].Blur()
	}
	m.focused = i
	if !m.skipped[i] {
		m.inputs[i].Focus()
	}
}

func (m questionsModel) Update(msg tea.Msg) (questionsModel, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok || len(m.questions) == 0 {
		return m, nil
	}

	switch key.String() {
	case "tab", "down":
		m.focus((m.focused + 1) % len(m.questions))
		return m, nil
	case "shift+tab", "up":
		m.focus((m.focused - 1 + len(m.questions)) % len(m.questions))
		return m, nil
	case "ctrl+s":
		m.skipped[m.focused] = !m.skipped[m.focused]
		if m.skipped[m.focused] {
			m.inputs[m.focused].Blur()
		} else {
			m.inputs[m.focused].Focus()
		}
		return m, nil
	}

	if !m.skipped[m.focused] {
		var cmd tea.Cmd
		m.inputs[m.focused], cmd = m.inputs[m.focused].Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m questionsModel) View() string {
	var b strings.Builder
	b.WriteString(styles.Title.Render("A few questions about your story"))
	b.WriteString("\n")
	b.WriteString(styles.Subtitle.Render("Answer what you like; skipped questions leave the choice to the model."))
	b.WriteString("\n\n")

	for i, q := range m.questions {
		marker := "  "
		if i == m.focused {
			marker = styles.SelectionIndicator.Render("> ")
		}
		b.WriteString(marker + styles.Label.Render(fmt.Sprintf("%d. %s", i+1, q.Text)) + "\n")
		if m.skipped[i] {
			b.WriteString("  " + styles.Warning.Render("(skipped)") + "\n\n")
			continue
		}
		b.WriteString("  " + m.inputs[i].View() + "\n\n")
	}

	b.WriteString(styles.Help.Render("tab: next question • ctrl+s: skip/unskip • enter: submit all • esc: back to form"))
	return b.String()
}
