// Package styles contains Lip Gloss style definitions for the bookforge
// TUI.
package styles

import (
	"github.com/charmbracelet/lipgloss"
)

// Color tokens. Adaptive pairs pick per terminal background unless the
// theme config forces a mode.
var (
	AccentColor    = lipgloss.AdaptiveColor{Light: "#5A56E0", Dark: "#7D79F6"}
	SubtleColor    = lipgloss.AdaptiveColor{Light: "#9B9B9B", Dark: "#5C5C5C"}
	TextColor      = lipgloss.AdaptiveColor{Light: "#1A1A1A", Dark: "#DDDDDD"}
	ErrorColor     = lipgloss.AdaptiveColor{Light: "#D70000", Dark: "#FF5F5F"}
	SuccessColor   = lipgloss.AdaptiveColor{Light: "#008700", Dark: "#5FD75F"}
	WarningColor   = lipgloss.AdaptiveColor{Light: "#AF8700", Dark: "#FFD75F"}
	DiffAddColor   = lipgloss.AdaptiveColor{Light: "#008700", Dark: "#73F59F"}
	DiffDelColor   = lipgloss.AdaptiveColor{Light: "#D70000", Dark: "#FF8787"}
	BorderColor    = lipgloss.AdaptiveColor{Light: "#C0C0C0", Dark: "#3C3C3C"}
	HighlightColor = lipgloss.AdaptiveColor{Light: "#EEEEEE", Dark: "#262626"}
)

// Shared styles.
var (
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(AccentColor)

	Subtitle = lipgloss.NewStyle().
			Foreground(SubtleColor)

	Error = lipgloss.NewStyle().
		Foreground(ErrorColor)

	Success = lipgloss.NewStyle().
		Foreground(SuccessColor)

	Warning = lipgloss.NewStyle().
		Foreground(WarningColor)

	Help = lipgloss.NewStyle().
		Foreground(SubtleColor)

	Box = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(BorderColor).
		Padding(0, 1)

	Tab = lipgloss.NewStyle().
		Foreground(SubtleColor).
		Padding(0, 1)

	ActiveTab = lipgloss.NewStyle().
			Bold(true).
			Foreground(AccentColor).
			Background(HighlightColor).
			Padding(0, 1)

	DoneTab = lipgloss.NewStyle().
		Foreground(SuccessColor).
		Padding(0, 1)

	StatusBar = lipgloss.NewStyle().
			Foreground(SubtleColor)

	DiffAdd = lipgloss.NewStyle().
		Foreground(DiffAddColor)

	DiffDel = lipgloss.NewStyle().
		Foreground(DiffDelColor).
		Strikethrough(true)

	Label = lipgloss.NewStyle().
		Bold(true).
		Foreground(TextColor)

	SelectionIndicator = lipgloss.NewStyle().
				Bold(true).
				Foreground(AccentColor)
)
