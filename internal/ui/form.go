package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nwestfall/bookforge/internal/ui/styles"
	"github.com/nwestfall/bookforge/internal/workflow/domain"
)

// formField is one rendered row of the form: either the model selector,
// the plot input, or a server-declared attribute field.
type formField struct {
	spec  domain.FieldSpec
	input textinput.Model

	// selectIndex is the chosen option for select fields.
	selectIndex int
}

// formModel renders the book configuration form from the server field
// config and collects a domain.FormPayload.
type formModel struct {
	fields  []formField
	focused int
	width   int
}

// newFormModel builds the form from the server config. llm_model and
// plot lead; declared attribute fields follow in server order.
func newFormModel(llmModels []string, specs []domain.FieldSpec) formModel {
	fields := []formField{
		{spec: domain.FieldSpec{
			Name:     "llm_model",
			Label:    "Model",
			Type:     domain.FieldSelect,
			Required: true,
			Options:  llmModels,
		}},
	}

	plot := textinput.New()
	plot.Placeholder = "One-paragraph plot idea"
	plot.CharLimit = 2000
	plot.Width = 60
	fields = append(fields, formField{
		spec: domain.FieldSpec{Name: "plot", Label: "Plot", Type: domain.FieldText, Required: true},

		input: plot,
	})

	for _, spec := range specs {
		if spec.Name == "llm_model" || spec.Name == "plot" {
			continue
		}
		if spec.Type == domain.FieldSelect {
			fields = append(fields, formField{spec: spec})
			continue
		}
		in := textinput.New()
		in.Placeholder = spec.Label
		in.CharLimit = 500
		in.Width = 60
		fields = append(fields, formField{spec: spec, input: in})
	}

	m := formModel{fields: fields}
	m.focus(0)
	return m
}

func (m *formModel) focus(i int) {
	for j := range m.fields {
		m.fields[j].input.Blur()
	}
	m.focused = i
	if m.fields[i].spec.Type != domain.FieldSelect {
		m.fields[i].input.Focus()
	}
}

// Payload assembles the current inputs into a form payload.
func (m formModel) Payload() domain.FormPayload {
	payload := domain.FormPayload{Attributes: map[string]string{}}
	for _, f := range m.fields {
		value := m.fieldValue(f)
		switch f.spec.Name {
		case "llm_model":
			payload.LLMModel = value
		case "plot":
			payload.Plot = value
		default:
			if value != "" {
				payload.Attributes[f.spec.Name] = value
			}
		}
	}
	return payload
}

func (m formModel) fieldValue(f formField) string {
	if f.spec.Type == domain.FieldSelect {
		if len(f.spec.Options) == 0 {
			return ""
		}
		return f.spec.Options[f.selectIndex]
	}
	return strings.TrimSpace(f.input.Value())
}

func (m formModel) Update(msg tea.Msg) (formModel, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	cur := &m.fields[m.focused]
	switch key.String() {
	case "tab", "down":
		m.focus((m.focused + 1) % len(m.fields))
		return m, nil
	case "shift+tab", "up":
		m.focus((m.focused - 1 + len(m.fields)) % len(m.fields))
		return m, nil
	case "left", "right":
		if cur.spec.Type == domain.FieldSelect && len(cur.spec.Options) > 0 {
			delta := 1
			if key.String() == "left" {
				delta = len(cur.spec.Options) - 1
			}
			cur.selectIndex = (cur.selectIndex + delta) % len(cur.spec.Options)
			return m, nil
		}
	}

	if cur.spec.Type != domain.FieldSelect {
		var cmd tea.Cmd
		cur.input, cmd = cur.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m formModel) View() string {
	var b strings.Builder
	b.WriteString(styles.Title.Render("Configure your book"))
	b.WriteString("\n\n")

	for i, f := range m.fields {
		label := f.spec.Label
		if f.spec.Required {
			label += " *"
		}
		marker := "  "
		if i == m.focused {
			marker = styles.SelectionIndicator.Render("> ")
		}
		b.WriteString(marker + styles.Label.Render(label) + "\n")

		if f.spec.Type == domain.FieldSelect {
			b.WriteString("  " + m.renderSelect(f, i == m.focused) + "\n\n")
			continue
		}
		b.WriteString("  " + f.input.View() + "\n\n")
	}

	b.WriteString(styles.Help.Render("tab: next field • ←/→: change selection • enter: submit"))
	return b.String()
}

func (m formModel) renderSelect(f formField, focused bool) string {
	if len(f.spec.Options) == 0 {
		return styles.Subtitle.Render("(no options)")
	}
	choice := f.spec.Options[f.selectIndex]
	position := fmt.Sprintf(" %d/%d", f.selectIndex+1, len(f.spec.Options))
	if focused {
		return lipgloss.JoinHorizontal(lipgloss.Left,
			styles.ActiveTab.Render("◂ "+choice+" ▸"),
			styles.Subtitle.Render(position),
		)
	}
	return choice + styles.Subtitle.Render(position)
}
