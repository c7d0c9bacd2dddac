// Package themes holds the color palettes of the list browser.
package themes

import "github.com/charmbracelet/lipgloss"

// Theme defines the visual style for the TUI.
type Theme struct {
	Title         lipgloss.Style
	Subtitle      lipgloss.Style
	Normal        lipgloss.Style
	Skeleton      lipgloss.Style
	Header        lipgloss.Style
	Selected      lipgloss.Style
	Toast         lipgloss.Style
	ErrorBox      lipgloss.Style
	StatusError   lipgloss.Style
	StatusWarning lipgloss.Style
	StatusInfo    lipgloss.Style
	Primary       lipgloss.Color
	Muted         lipgloss.Color
	Border        lipgloss.Color
}

// Default is the default theme.
var Default = Theme{
	Primary: lipgloss.Color("#3b82f6"),
	Muted:   lipgloss.Color("#737373"),
	Border:  lipgloss.Color("#404040"),

	Title: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#fafafa")),
	Subtitle: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#a3a3a3")),
	Normal: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#fafafa")),
	Skeleton: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#404040")),
	Header: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#3b82f6")).
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderForeground(lipgloss.Color("#404040")),
	Selected: lipgloss.NewStyle().
		Background(lipgloss.Color("#1d4ed8")).
		Foreground(lipgloss.Color("#fafafa")).
		Bold(true),
	Toast: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#f59e0b")).
		Padding(0, 1),
	ErrorBox: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#ef4444")).
		Padding(1, 2),

	StatusError: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#ef4444")).
		Bold(true),
	StatusWarning: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#f59e0b")).
		Bold(true),
	StatusInfo: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#3b82f6")).
		Bold(true),
}
