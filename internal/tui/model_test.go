package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testCatalog = "../config/testdata/catalog.yaml"
	testQuote   = "../config/testdata/quote.yaml"
)

func loadedModel(t *testing.T) Model {
	t.Helper()
	m := NewModel(Options{CatalogPath: testCatalog, RequestPath: testQuote})

	msg := loadComparisonCmd(m.opts)()
	loaded, ok := msg.(ComparisonLoadedMsg)
	require.True(t, ok, "expected ComparisonLoadedMsg, got %#v", msg)

	updated, _ := m.Update(loaded)
	return updated.(Model)
}

// send applies msg and then any NavigateMsg the resulting command produces
func send(m Model, msg tea.Msg) (Model, tea.Cmd) {
	updated, cmd := m.Update(msg)
	m = updated.(Model)
	if cmd != nil {
		if nav, ok := cmd().(NavigateMsg); ok {
			updated, _ = m.Update(nav)
			return updated.(Model), nil
		}
	}
	return m, cmd
}

func TestModel_LoadsEveryQuotablePlan(t *testing.T) {
	m := loadedModel(t)

	assert.False(t, m.loading)
	require.Len(t, m.plans, 3)
	assert.Equal(t, "gold", m.plans[0].PlanID)
	assert.Equal(t, "167670.00", m.plans[0].AnnualGross.StringFixed(2))

	view := m.View()
	assert.Contains(t, view, "gold (base)")
	assert.Contains(t, view, "silver")
	assert.Contains(t, view, "family-flat")
	assert.Contains(t, view, "Lowest Premium")
}

func TestModel_Navigation(t *testing.T) {
	m := loadedModel(t)

	m, _ = send(m, tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 1, m.selectedIndex)
	assert.Equal(t, "silver", m.SelectedPlan().PlanID)

	m, _ = send(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("j")})
	m, _ = send(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("j")})
	assert.Equal(t, 2, m.selectedIndex, "selection stops at the last plan")

	m, _ = send(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("g")})
	assert.Equal(t, 0, m.selectedIndex)

	m, _ = send(m, tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, 0, m.selectedIndex)
}

func TestModel_QuoteScene(t *testing.T) {
	m := loadedModel(t)
	m, _ = send(m, tea.WindowSizeMsg{Width: 120, Height: 60})

	m, _ = send(m, tea.KeyMsg{Type: tea.KeyEnter})
	require.Equal(t, SceneQuote, m.currentScene)

	view := m.View()
	assert.Contains(t, view, "Quote / gold")
	assert.Contains(t, view, "PREMIUM QUOTE")
	assert.Contains(t, view, "rc-gold-2025")

	m, _ = send(m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, ScenePlans, m.currentScene)
}

func TestModel_HelpAndQuit(t *testing.T) {
	m := loadedModel(t)

	m, _ = send(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("?")})
	assert.Equal(t, SceneHelp, m.currentScene)
	assert.Contains(t, m.View(), "quote")

	_, cmd := send(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	_, ok := cmd().(tea.QuitMsg)
	assert.True(t, ok)
}

func TestModel_LoadError(t *testing.T) {
	m := NewModel(Options{CatalogPath: "missing.yaml", RequestPath: testQuote})
	assert.Contains(t, m.View(), "Pricing plans")

	msg := loadComparisonCmd(m.opts)()
	_, ok := msg.(ErrorMsg)
	require.True(t, ok)

	m, _ = send(m, msg)
	assert.False(t, m.loading)
	assert.Contains(t, m.View(), "Error")
}

func TestScene_String(t *testing.T) {
	assert.Equal(t, "Plans", ScenePlans.String())
	assert.Equal(t, "Quote", SceneQuote.String())
	assert.Equal(t, "Help", SceneHelp.String())
	assert.Equal(t, "Unknown", Scene(42).String())
}
