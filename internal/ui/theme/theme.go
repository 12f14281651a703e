package theme

import "github.com/charmbracelet/lipgloss"

var (
	Base    = lipgloss.Color("#0b1210")
	Surface = lipgloss.Color("#1f2b27")
	Text    = lipgloss.Color("#e6f4ef")
	Subtext = lipgloss.Color("#8fa9a0")
	Emerald = lipgloss.Color("#34d399")
	Cyan    = lipgloss.Color("#22d3ee")
	Amber   = lipgloss.Color("#fbbf24")
	Red     = lipgloss.Color("#f87171")

	App = lipgloss.NewStyle().
		Foreground(Text).
		Padding(1, 2)

	Pane = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Surface).
		Padding(1, 2)

	Overlay = Pane.BorderForeground(Emerald)

	Title    = lipgloss.NewStyle().Foreground(Emerald).Bold(true)
	Muted    = lipgloss.NewStyle().Foreground(Subtext)
	Selected = lipgloss.NewStyle().Foreground(Cyan).Bold(true)
	Warn     = lipgloss.NewStyle().Foreground(Amber).Bold(true)
	Error    = lipgloss.NewStyle().Foreground(Red)
	Big      = lipgloss.NewStyle().Foreground(Emerald).Bold(true).Padding(0, 1)
)
