package tui

import "github.com/charmbracelet/lipgloss"

var (
	frameStyle   = lipgloss.NewStyle().Padding(1, 2)
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7EE8C7"))
	balanceStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFFFFF"))
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5A56E0"))
	affordStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#767676"))
	bellStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F2A900"))
	statusStyle  = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("#FF5F87"))
)
