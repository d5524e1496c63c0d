package tui

import "github.com/charmbracelet/lipgloss"

var (
	lavender   = lipgloss.Color("#F3E5F5")
	purple     = lipgloss.Color("#9575CD")
	deepPurple = lipgloss.Color("#673AB7")
	darkPurple = lipgloss.Color("#512DA8")
	paleYellow = lipgloss.Color("#FFF8E1")
	errorRed   = lipgloss.Color("#C62828")
	warnAmber  = lipgloss.Color("#EF6C00")
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(purple).
			Align(lipgloss.Center).
			Padding(1, 0)
	summaryStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Italic(true)
	labelStyle     = lipgloss.NewStyle().Foreground(deepPurple).Bold(true)
	queryBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(purple).Padding(0, 1)
	resultBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(deepPurple).Padding(0, 1)
	statusStyle    = lipgloss.NewStyle().Foreground(purple)
	footerStyle    = lipgloss.NewStyle().Italic(true).Foreground(darkPurple).Align(lipgloss.Center)
	highlightStyle = lipgloss.NewStyle().Foreground(darkPurple).Background(paleYellow).Bold(true)
	dialogStyle    = lipgloss.NewStyle().Border(lipgloss.DoubleBorder()).Padding(1, 3).Background(lavender)
)
