package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nwestfall/bookforge/internal/ui/styles"
	"github.com/nwestfall/bookforge/internal/workflow/domain"
)

// writingModel shows the long-running writing job: a progress bar, the
// chapters finished so far, and the terminal success or failure state.
type writingModel struct {
	progress *domain.Progress
	failed   error

	bar   progress.Model
	spin  spinner.Model
	width int
}

func newWritingModel() writingModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.SelectionIndicator

	return writingModel{
		bar:  progress.New(progress.WithDefaultGradient()),
		spin: sp,
	}
}

// Init starts the spinner ticking.
func (m writingModel) Init() tea.Cmd {
	return m.spin.Tick
}

// SetProgress installs the latest progress snapshot.
func (m *writingModel) SetProgress(p *domain.Progress) {
	m.progress = p
	if p != nil && p.Status != domain.JobFailed {
		m.failed = nil
	}
}

// SetFailed records a polling failure to display alongside retry help.
func (m *writingModel) SetFailed(err error) {
	m.failed = err
}

func (m *writingModel) SetSize(width, _ int) {
	m.width = width
	m.bar.Width = maxInt(10, width-8)
}

func (m writingModel) Update(msg tea.Msg) (writingModel, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	case progress.FrameMsg:
		bar, cmd := m.bar.Update(msg)
		m.bar = bar.(progress.Model)
		return m, cmd
	}
	return m, nil
}

func (m writingModel) View() string {
	var b strings.Builder
	b.WriteString(styles.Title.Render("Writing your book"))
	b.WriteString("\n\n")

	p := m.progress
	if p == nil {
		b.WriteString(m.spin.View() + " Starting the writing job…\n")
		return b.String()
	}

	switch {
	case p.Status == domain.JobCompleted || p.IsComplete:
		b.WriteString(styles.Success.Render("✓ Your book is finished!"))
		b.WriteString("\n\n")
		m.writeChapters(&b, p)
		b.WriteString("\n" + styles.Help.Render("enter: start a new book • q: quit"))

	case p.Status == domain.JobFailed:
		b.WriteString(styles.Error.Render("✗ Writing failed"))
		if p.Error != "" {
			b.WriteString("\n" + styles.Error.Render(styles.Wrap(p.Error, maxInt(20, m.width-2))))
		}
		b.WriteString("\n\n" + styles.Help.Render("ctrl+r: retry • ctrl+n: start over • q: quit"))

	default:
		percent := 0.0
		if p.TotalSteps > 0 {
			percent = float64(p.CurrentStep) / float64(p.TotalSteps)
		}
		b.WriteString(fmt.Sprintf("%s step %d of %d\n\n", m.spin.View(), p.CurrentStep, p.TotalSteps))
		b.WriteString(m.bar.ViewAs(percent))
		b.WriteString("\n\n")
		m.writeChapters(&b, p)
		if m.failed != nil {
			b.WriteString("\n" + styles.Warning.Render("Lost contact with the backend: "+m.failed.Error()))
			b.WriteString("\n" + styles.Help.Render("ctrl+r: resume polling"))
		}
	}
	return b.String()
}

func (m writingModel) writeChapters(b *strings.Builder, p *domain.Progress) {
	if len(p.CompletedChapters) == 0 {
		return
	}
	b.WriteString(styles.Label.Render("Chapters") + "\n")
	for _, ch := range p.CompletedChapters {
		b.WriteString(styles.Success.Render("  ✓ ") + styles.Truncate(ch, maxInt(10, m.width-4)) + "\n")
	}
}
