package tui

import "github.com/charmbracelet/lipgloss"

var (
	// Colors
	ColorPrimary = lipgloss.Color("#7D56F4")
	ColorSuccess = lipgloss.Color("#04B575")
	ColorDanger  = lipgloss.Color("#FF4672")
	ColorMuted   = lipgloss.Color("#626262")
	ColorBorder  = lipgloss.Color("#3C3C3C")

	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	StatusBarStyle = lipgloss.NewStyle().
			Foreground(ColorMuted).
			BorderTop(true).
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(ColorBorder)

	StatusKeyStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary)

	TableHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Underline(true)

	SelectedItemStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(ColorPrimary)

	UnselectedItemStyle = lipgloss.NewStyle()

	CheaperStyle = lipgloss.NewStyle().Foreground(ColorSuccess)
	DearerStyle  = lipgloss.NewStyle().Foreground(ColorDanger)

	ErrorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorDanger)
)
