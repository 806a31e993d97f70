package output

import "github.com/charmbracelet/lipgloss"

var (
	colorPrimary = lipgloss.Color("#7D56F4")
	colorSuccess = lipgloss.Color("#04B575")
	colorDanger  = lipgloss.Color("#FF5F87")
	colorWarning = lipgloss.Color("#FFB86C")
	colorMuted   = lipgloss.Color("#6C6C6C")
	colorBorder  = lipgloss.Color("#444444")

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary)

	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Underline(true)

	labelStyle = lipgloss.NewStyle().
			Foreground(colorMuted).
			Width(24)

	valueStyle = lipgloss.NewStyle().
			Bold(true)

	mutedStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	positiveStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorSuccess)

	negativeStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorDanger)

	warningStyle = lipgloss.NewStyle().
			Foreground(colorWarning)

	summaryBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(0, 2)
)

// keyValue renders one aligned label/value line
func keyValue(label, value string) string {
	return labelStyle.Render(label) + valueStyle.Render(value)
}
