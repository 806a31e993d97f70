package tui

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// Update handles all messages and updates the model state
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.quoteView.Width = msg.Width
		m.quoteView.Height = max(1, msg.Height-5) // title (2) + status (2) + padding
		return m, nil

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case NavigateMsg:
		m.previousScene = m.currentScene
		m.currentScene = msg.Scene
		return m, nil

	case ErrorMsg:
		m.loading = false
		m.err = msg.Err
		return m, nil

	case ComparisonLoadedMsg:
		m.loading = false
		m.compSet = msg.Set
		m.plans = msg.Set.All()
		if m.selectedIndex >= len(m.plans) {
			m.selectedIndex = 0
		}
		return m, nil
	}

	if m.currentScene == SceneQuote {
		var cmd tea.Cmd
		m.quoteView, cmd = m.quoteView.Update(msg)
		return m, cmd
	}
	return m, nil
}

// handleKeyPress processes keyboard input
func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		return m, navigate(SceneHelp)

	case key.Matches(msg, m.keys.Back):
		if m.currentScene != ScenePlans {
			return m, navigate(ScenePlans)
		}
		return m, nil
	}

	switch m.currentScene {
	case ScenePlans:
		return m.updatePlans(msg)
	case SceneQuote:
		var cmd tea.Cmd
		m.quoteView, cmd = m.quoteView.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) updatePlans(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.selectedIndex > 0 {
			m.selectedIndex--
		}
	case key.Matches(msg, m.keys.Down):
		if m.selectedIndex < len(m.plans)-1 {
			m.selectedIndex++
		}
	case key.Matches(msg, m.keys.Top):
		m.selectedIndex = 0
	case key.Matches(msg, m.keys.Enter):
		text, err := m.renderQuote()
		if err != nil {
			m.err = err
			return m, nil
		}
		m.quoteView.SetContent(text)
		m.quoteView.GotoTop()
		return m, navigate(SceneQuote)
	}
	return m, nil
}

func navigate(scene Scene) tea.Cmd {
	return func() tea.Msg {
		return NavigateMsg{Scene: scene}
	}
}
