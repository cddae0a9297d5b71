package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/nwestfall/bookforge/internal/ui/styles"
	"github.com/nwestfall/bookforge/internal/workflow/domain"
)

// draftModel renders the draft under negotiation with a feedback box.
// Toggling the diff view marks what changed since the previous accepted
// version.
type draftModel struct {
	draft    *domain.Draft
	prevText string // text of the version before the current one

	body     viewport.Model
	feedback textarea.Model
	showDiff bool
	width    int
	height   int
}

func newDraftModel() draftModel {
	fb := textarea.New()
	fb.Placeholder = "What should change? (ctrl+d to send)"
	fb.SetHeight(3)
	fb.CharLimit = 2000

	return draftModel{
		body:     viewport.New(80, 16),
		feedback: fb,
	}
}

// SetDraft installs a new draft version, remembering the previous text
// for the diff view. A version reset (regeneration) clears the history.
func (m *draftModel) SetDraft(draft *domain.Draft) {
	if draft == nil {
		m.draft = nil
		m.prevText = ""
		m.body.SetContent("")
		return
	}
	switch {
	case m.draft == nil || draft.Version <= m.draft.Version:
		m.prevText = ""
	default:
		m.prevText = m.draft.Text
	}
	m.draft = draft
	m.refreshBody()
	m.feedback.Reset()
}

// Feedback returns the trimmed feedback text.
func (m draftModel) Feedback() string {
	return strings.TrimSpace(m.feedback.Value())
}

func (m *draftModel) SetSize(width, height int) {
	m.width = width
	m.height = height
	bodyHeight := height - 9
	if bodyHeight < 3 {
		bodyHeight = 3
	}
	m.body.Width = width
	m.body.Height = bodyHeight
	m.feedback.SetWidth(width)
	m.refreshBody()
}

func (m *draftModel) refreshBody() {
	if m.draft == nil {
		return
	}
	text := m.draft.Text
	if m.showDiff && m.prevText != "" {
		text = renderDiff(m.prevText, m.draft.Text)
	}
	m.body.SetContent(styles.Wrap(text, maxInt(1, m.body.Width-2)))
}

func (m draftModel) Update(msg tea.Msg) (draftModel, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "ctrl+v":
			m.showDiff = !m.showDiff
			m.refreshBody()
			return m, nil
		case "up", "down", "pgup", "pgdown":
			if !m.feedback.Focused() {
				var cmd tea.Cmd
				m.body, cmd = m.body.Update(msg)
				return m, cmd
			}
		case "ctrl+f":
			if m.feedback.Focused() {
				m.feedback.Blur()
			} else {
				return m, m.feedback.Focus()
			}
			return m, nil
		}
	}

	if m.feedback.Focused() {
		var cmd tea.Cmd
		m.feedback, cmd = m.feedback.Update(msg)
		return m, cmd
	}
	var cmd tea.Cmd
	m.body, cmd = m.body.Update(msg)
	return m, cmd
}

func (m draftModel) View() string {
	if m.draft == nil {
		return styles.Subtitle.Render("Generating the first draft…")
	}

	var b strings.Builder
	title := m.draft.Title
	if title == "" {
		title = "Draft"
	}
	b.WriteString(styles.Title.Render(title))
	b.WriteString(styles.Subtitle.Render(fmt.Sprintf("  v%d", m.draft.Version)))
	if m.draft.Validated {
		b.WriteString("  " + styles.Success.Render("validated"))
	}
	if m.showDiff && m.prevText != "" {
		b.WriteString("  " + styles.Warning.Render(fmt.Sprintf("diff v%d → v%d", m.draft.Version-1, m.draft.Version)))
	}
	b.WriteString("\n\n")
	b.WriteString(m.body.View())
	b.WriteString("\n\n")

	if m.draft.Validated {
		b.WriteString(styles.Subtitle.Render("Draft is frozen; the outline is being prepared."))
	} else {
		b.WriteString(styles.Label.Render("Feedback") + "\n")
		b.WriteString(m.feedback.View() + "\n")
		b.WriteString(styles.Help.Render("ctrl+d: send feedback • ctrl+a: approve draft • ctrl+v: toggle diff • ctrl+f: focus feedback • esc: back"))
	}
	return b.String()
}

// renderDiff produces a word-level diff with additions and deletions
// colored inline.
func renderDiff(before, after string) string {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(before, after, false)
	diffs = dmp.DiffCleanupSemantic(diffs)

	var b strings.Builder
	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			b.WriteString(styles.DiffAdd.Render(d.Text))
		case diffmatchpatch.DiffDelete:
			b.WriteString(styles.DiffDel.Render(d.Text))
		default:
			b.WriteString(d.Text)
		}
	}
	return b.String()
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
