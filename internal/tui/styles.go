package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/jtsunne/esreshard/internal/reshard"
)

// Color constants.
var (
	colorGreen  = lipgloss.Color("#10b981")
	colorYellow = lipgloss.Color("#f59e0b")
	colorRed    = lipgloss.Color("#ef4444")
	colorGray   = lipgloss.Color("#6b7280")
	colorBlue   = lipgloss.Color("#3b82f6")
	colorCyan   = lipgloss.Color("#06b6d4")
	colorPurple = lipgloss.Color("#8b5cf6")
	colorWhite  = lipgloss.Color("#f8fafc")
	colorDark   = lipgloss.Color("#1e293b")
)

// StyleHeader is the full-width dark header bar.
var StyleHeader = lipgloss.NewStyle().
	Background(colorDark).
	Foreground(colorWhite).
	Padding(0, 1)

// Table styles.
var (
	StyleTableHeader = lipgloss.NewStyle().
				Bold(true).
				Underline(true).
				Foreground(colorGray)

	StyleTableRow = lipgloss.NewStyle().
			Foreground(colorWhite)

	StyleTableRowAlt = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#cbd5e1"))
)

// Utility styles.
var (
	StyleError = lipgloss.NewStyle().Foreground(colorRed).Bold(true)
	StyleDim   = lipgloss.NewStyle().Foreground(colorGray)
	StyleOK    = lipgloss.NewStyle().Foreground(colorGreen).Bold(true)
)

// Named color styles for table cell coloring.
var (
	StyleGreen  = lipgloss.NewStyle().Foreground(colorGreen)
	StyleYellow = lipgloss.NewStyle().Foreground(colorYellow)
	StyleBlue   = lipgloss.NewStyle().Foreground(colorBlue)
	StyleCyan   = lipgloss.NewStyle().Foreground(colorCyan)
	StylePurple = lipgloss.NewStyle().Foreground(colorPurple)
	StyleRed    = lipgloss.NewStyle().Foreground(colorRed)
)

// StateStyle returns the cell style for a workflow state.
func StateStyle(s reshard.State) lipgloss.Style {
	switch s {
	case reshard.StateCompacted:
		return StyleGreen
	case reshard.StateAborted:
		return StyleRed
	case reshard.StateReplacementCreated, reshard.StateReindexed:
		return StyleYellow
	case reshard.StateRepointed:
		return StyleCyan
	case reshard.StateConfigFetched, reshard.StatePlanned:
		return StyleBlue
	default:
		return StyleDim
	}
}

// OutcomeStyle returns the cell style for a finished workflow.
func OutcomeStyle(o reshard.Outcome) lipgloss.Style {
	switch o {
	case reshard.OutcomeResharded:
		return StyleGreen
	case reshard.OutcomePlanned:
		return StylePurple
	default:
		return StyleDim
	}
}
