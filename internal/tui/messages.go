package tui

import (
	"github.com/rgehrsitz/medrate/internal/compare"
)

// Scene represents different screens in the TUI
type Scene int

const (
	ScenePlans Scene = iota
	SceneQuote
	SceneHelp
)

// String returns a human-readable name for a scene
func (s Scene) String() string {
	switch s {
	case ScenePlans:
		return "Plans"
	case SceneQuote:
		return "Quote"
	case SceneHelp:
		return "Help"
	default:
		return "Unknown"
	}
}

// Message types for the Bubble Tea update cycle

// NavigateMsg switches to a different scene
type NavigateMsg struct {
	Scene Scene
}

// ErrorMsg displays an error to the user
type ErrorMsg struct {
	Err error
}

// ComparisonLoadedMsg carries every catalog plan priced for the household
type ComparisonLoadedMsg struct {
	Set *compare.ComparisonSet
}
