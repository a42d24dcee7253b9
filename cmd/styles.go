package cmd

import "github.com/charmbracelet/lipgloss"

var (
	checkMark = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).SetString("✓")
	xMark     = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).SetString("✗")
	dimStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)
