package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/rgehrsitz/medrate/internal/compare"
)

// View renders the current state of the application
func (m Model) View() string {
	if m.err != nil {
		return m.renderError()
	}
	if m.loading {
		return fmt.Sprintf("\n  %s Pricing plans...\n", m.spinner.View())
	}

	var content string
	switch m.currentScene {
	case ScenePlans:
		content = m.renderPlans()
	case SceneQuote:
		content = m.quoteView.View()
	case SceneHelp:
		content = m.renderHelp()
	default:
		content = "Unknown scene"
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.renderTitleBar(),
		content,
		m.renderStatusBar(),
	)
}

// renderTitleBar renders the application title and breadcrumb
func (m Model) renderTitleBar() string {
	title := TitleStyle.Render("MEDRATE - Plan Browser")

	breadcrumb := m.currentScene.String()
	if p := m.SelectedPlan(); p != nil && m.currentScene == SceneQuote {
		breadcrumb = fmt.Sprintf("%s / %s", breadcrumb, p.PlanID)
	}

	return lipgloss.JoinVertical(lipgloss.Left, title, SubtitleStyle.Render(breadcrumb))
}

func (m Model) renderPlans() string {
	if len(m.plans) == 0 {
		return SubtitleStyle.Render("No quotable plans in the catalog")
	}

	var sb strings.Builder
	sb.WriteString(TableHeaderStyle.Render(fmt.Sprintf("  %-22s %-14s %14s %14s %12s", "Plan", "Rate card", "Annual", "Billed", "vs base")))
	sb.WriteString("\n")

	for i, p := range m.plans {
		name := p.PlanID
		if m.compSet != nil && p.PlanID == m.compSet.BasePlanID {
			name += " (base)"
		}
		line := fmt.Sprintf("%-22s %-14s %14s %14s %12s",
			name, p.RateCardID, p.AnnualGross.StringFixed(2), p.Billed.StringFixed(2), deltaLabel(p))

		if i == m.selectedIndex {
			sb.WriteString(SelectedItemStyle.Render("> " + line))
		} else {
			sb.WriteString(UnselectedItemStyle.Render("  " + line))
		}
		sb.WriteString("\n")
	}

	if m.compSet != nil && len(m.compSet.Recommendations) > 0 {
		sb.WriteString("\n")
		for _, rec := range m.compSet.Recommendations {
			sb.WriteString(SubtitleStyle.Render("• " + rec))
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

func deltaLabel(p compare.PlanResult) string {
	switch {
	case p.DiffFromBase.IsNegative():
		return CheaperStyle.Render(p.PctFromBase.StringFixed(1) + "%")
	case p.DiffFromBase.IsPositive():
		return DearerStyle.Render("+" + p.PctFromBase.StringFixed(1) + "%")
	}
	return "-"
}

func (m Model) renderHelp() string {
	bindings := []key.Binding{m.keys.Up, m.keys.Down, m.keys.Top, m.keys.Enter, m.keys.Back, m.keys.Quit}
	var sb strings.Builder
	for _, b := range bindings {
		h := b.Help()
		sb.WriteString(fmt.Sprintf("  %-8s %s\n", StatusKeyStyle.Render(h.Key), h.Desc))
	}
	return sb.String()
}

// renderStatusBar renders the bottom status bar with keyboard shortcuts
func (m Model) renderStatusBar() string {
	shortcuts := []string{
		formatShortcut("enter", "quote"),
		formatShortcut("esc", "back"),
		formatShortcut("?", "help"),
		formatShortcut("q", "quit"),
	}
	return StatusBarStyle.Width(m.width).Render(strings.Join(shortcuts, " • "))
}

// formatShortcut formats a keyboard shortcut with key and description
func formatShortcut(k, desc string) string {
	return StatusKeyStyle.Render(k) + " " + desc
}

func (m Model) renderError() string {
	return lipgloss.JoinVertical(
		lipgloss.Left,
		ErrorStyle.Render("Error"),
		m.err.Error(),
		"",
		SubtitleStyle.Render("Press q to quit"),
	)
}
