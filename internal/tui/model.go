package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/rgehrsitz/medrate/internal/calculation"
	"github.com/rgehrsitz/medrate/internal/compare"
	"github.com/rgehrsitz/medrate/internal/config"
	"github.com/rgehrsitz/medrate/internal/output"
)

// Options configures the plan browser
type Options struct {
	CatalogPath string
	RequestPath string
	Engine      *calculation.Engine
	AsOf        time.Time // used when the request has no as_of
}

type keyMap struct {
	Up    key.Binding
	Down  key.Binding
	Top   key.Binding
	Enter key.Binding
	Back  key.Binding
	Help  key.Binding
	Quit  key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Up:    key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:  key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Top:   key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "top")),
		Enter: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "quote")),
		Back:  key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		Help:  key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:  key.NewBinding(key.WithKeys("ctrl+c", "q"), key.WithHelp("q", "quit")),
	}
}

// Model represents the entire application state
type Model struct {
	// Navigation
	currentScene  Scene
	previousScene Scene
	keys          keyMap

	// Terminal dimensions
	width  int
	height int

	opts Options

	// Comparison data
	compSet       *compare.ComparisonSet
	plans         []compare.PlanResult
	selectedIndex int

	quoteView viewport.Model
	spinner   spinner.Model

	// Error state
	err error

	// Loading state
	loading bool
}

// NewModel creates a new application model
func NewModel(opts Options) Model {
	if opts.Engine == nil {
		opts.Engine = calculation.NewEngine()
	}
	return Model{
		currentScene: ScenePlans,
		keys:         defaultKeys(),
		opts:         opts,
		quoteView:    viewport.New(80, 20),
		spinner:      spinner.New(spinner.WithSpinner(spinner.Dot)),
		loading:      true,
		width:        80,
		height:       24,
	}
}

// Init initializes the model (required by tea.Model interface)
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, loadComparisonCmd(m.opts))
}

// loadComparisonCmd prices the request's household against every plan in
// the catalog that has an active rate card
func loadComparisonCmd(opts Options) tea.Cmd {
	return func() tea.Msg {
		parser := config.NewInputParser()
		cat, err := parser.LoadCatalog(opts.CatalogPath)
		if err != nil {
			return ErrorMsg{Err: err}
		}
		req, err := parser.LoadQuoteRequest(opts.RequestPath)
		if err != nil {
			return ErrorMsg{Err: err}
		}
		if req.AsOf.IsZero() {
			req.AsOf = opts.AsOf
		}

		var planIDs []string
		for _, p := range cat.Plans {
			if _, err := opts.Engine.Rates.ActiveRateCard(cat.RateCards, p.ID, req.AsOf); err != nil {
				opts.Engine.Logger.Debugf("browse: skipping plan %s: %v", p.ID, err)
				continue
			}
			planIDs = append(planIDs, p.ID)
		}

		compSet, err := compare.NewCompareEngine(opts.Engine).Compare(context.Background(), cat, *req, compare.CompareOptions{
			BasePlanID:  req.PlanID,
			PlanIDs:     planIDs,
			CatalogPath: opts.CatalogPath,
		})
		if err != nil {
			return ErrorMsg{Err: fmt.Errorf("comparison failed: %w", err)}
		}
		return ComparisonLoadedMsg{Set: compSet}
	}
}

// SelectedPlan returns the highlighted plan, or nil before loading
func (m Model) SelectedPlan() *compare.PlanResult {
	if m.selectedIndex >= 0 && m.selectedIndex < len(m.plans) {
		return &m.plans[m.selectedIndex]
	}
	return nil
}

// renderQuote formats the selected plan's quote the way the quote command does
func (m Model) renderQuote() (string, error) {
	p := m.SelectedPlan()
	if p == nil || p.Quote == nil {
		return "", fmt.Errorf("no quote for the selected plan")
	}
	data, err := output.ConsoleFormatter{}.Format(output.NewQuoteReport(m.opts.RequestPath, p.Quote))
	if err != nil {
		return "", err
	}
	return string(data), nil
}
