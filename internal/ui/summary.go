package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/nwestfall/bookforge/internal/log"
	"github.com/nwestfall/bookforge/internal/ui/styles"
)

// summaryModel shows the generated outline rendered as markdown, with an
// edit mode that replaces the outline wholesale.
type summaryModel struct {
	outline string

	body    viewport.Model
	editor  textarea.Model
	editing bool
	width   int
	height  int
}

func newSummaryModel() summaryModel {
	ed := textarea.New()
	ed.CharLimit = 0
	ed.SetHeight(16)

	return summaryModel{
		body:   viewport.New(80, 18),
		editor: ed,
	}
}

// SetOutline installs outline markdown and re-renders the preview.
func (m *summaryModel) SetOutline(outline string) {
	m.outline = outline
	m.editing = false
	m.refreshBody()
}

// Editing reports whether the raw-markdown editor is open.
func (m summaryModel) Editing() bool { return m.editing }

// EditedOutline returns the editor's current text.
func (m summaryModel) EditedOutline() string {
	return strings.TrimSpace(m.editor.Value())
}

func (m *summaryModel) SetSize(width, height int) {
	m.width = width
	m.height = height
	bodyHeight := maxInt(3, height-6)
	m.body.Width = width
	m.body.Height = bodyHeight
	m.editor.SetWidth(width)
	m.editor.SetHeight(bodyHeight)
	m.refreshBody()
}

func (m *summaryModel) refreshBody() {
	rendered, err := glamour.Render(m.outline, "auto")
	if err != nil {
		// Fall back to the raw markdown rather than hiding the outline.
		log.Warn(log.CatUI, "Outline markdown render failed", "error", err)
		rendered = m.outline
	}
	m.body.SetContent(rendered)
}

func (m summaryModel) Update(msg tea.Msg) (summaryModel, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "ctrl+e" {
		if m.editing {
			m.editing = false
			m.refreshBody()
			return m, nil
		}
		m.editing = true
		m.editor.SetValue(m.outline)
		return m, m.editor.Focus()
	}

	var cmd tea.Cmd
	if m.editing {
		m.editor, cmd = m.editor.Update(msg)
	} else {
		m.body, cmd = m.body.Update(msg)
	}
	return m, cmd
}

func (m summaryModel) View() string {
	var b strings.Builder
	b.WriteString(styles.Title.Render("Book outline"))
	b.WriteString("\n\n")

	if m.editing {
		b.WriteString(m.editor.View())
		b.WriteString("\n")
		b.WriteString(styles.Help.Render("ctrl+d: save outline • ctrl+e: cancel edit"))
		return b.String()
	}

	b.WriteString(m.body.View())
	b.WriteString("\n")
	b.WriteString(styles.Help.Render("ctrl+w: start writing • ctrl+e: edit outline • ↑/↓: scroll"))
	return b.String()
}
