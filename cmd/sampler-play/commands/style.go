package commands

import "github.com/charmbracelet/lipgloss"

var (
	primary = lipgloss.Color("#00ff9f")
	dim     = lipgloss.Color("#6e7681")

	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(primary)
	labelStyle = lipgloss.NewStyle().Foreground(primary)
	helpStyle  = lipgloss.NewStyle().Foreground(dim)
)
