// Package ui renders board output for the terminal. All colors use
// lipgloss ANSI 256-color codes for broad terminal compatibility.
package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/Inna0915/jiraflow/internal/board"
)

// Theme defines the color palette for jiraflow's terminal output.
type Theme struct {
	NormalText lipgloss.Color
	FaintText  lipgloss.Color

	// Column group colors.
	ColumnUpstream lipgloss.Color // intake through backlog
	ColumnActive   lipgloss.Color // execution through validation
	ColumnTerminal lipgloss.Color // resolved, done, closed

	// Swimlane colors.
	LaneOverdue     lipgloss.Color
	LaneOnSchedule  lipgloss.Color
	LaneUnscheduled lipgloss.Color

	HeaderForeground lipgloss.Color
	BorderColor      lipgloss.Color

	Pass lipgloss.Color
	Warn lipgloss.Color
	Fail lipgloss.Color
}

// DefaultTheme is the built-in dark-terminal color scheme.
var DefaultTheme = Theme{
	NormalText: lipgloss.Color("252"),
	FaintText:  lipgloss.Color("245"),

	ColumnUpstream: lipgloss.Color("245"), // gray
	ColumnActive:   lipgloss.Color("220"), // amber
	ColumnTerminal: lipgloss.Color("114"), // green

	LaneOverdue:     lipgloss.Color("196"), // red
	LaneOnSchedule:  lipgloss.Color("114"), // green
	LaneUnscheduled: lipgloss.Color("245"), // gray

	HeaderForeground: lipgloss.Color("255"),
	BorderColor:      lipgloss.Color("240"),

	Pass: lipgloss.Color("114"),
	Warn: lipgloss.Color("220"),
	Fail: lipgloss.Color("196"),
}

// ColumnColor returns the color for a board column.
func (theme Theme) ColumnColor(col board.ColumnID) lipgloss.Color {
	switch {
	case board.Terminal(col):
		return theme.ColumnTerminal
	case board.ColumnPosition(col) >= board.ColumnPosition(board.ColumnExecution):
		return theme.ColumnActive
	default:
		return theme.ColumnUpstream
	}
}

// LaneColor returns the color for a swimlane.
func (theme Theme) LaneColor(lane board.Swimlane) lipgloss.Color {
	switch lane {
	case board.LaneOverdue:
		return theme.LaneOverdue
	case board.LaneOnSchedule:
		return theme.LaneOnSchedule
	default:
		return theme.LaneUnscheduled
	}
}
