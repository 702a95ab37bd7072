package tui

import "github.com/charmbracelet/lipgloss"

var (
	accent = lipgloss.AdaptiveColor{Light: "#7C3AED", Dark: "#C4B5FD"}
	muted  = lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#9CA3AF"}
	danger = lipgloss.AdaptiveColor{Light: "#B91C1C", Dark: "#FCA5A5"}

	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(accent)
	subtitleStyle = lipgloss.NewStyle().Foreground(muted)
	headerStyle   = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(muted)

	userLabelStyle      = lipgloss.NewStyle().Bold(true)
	companionLabelStyle = lipgloss.NewStyle().Bold(true).Foreground(accent)
	errorMessageStyle   = lipgloss.NewStyle().Foreground(danger)

	quickStartStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(muted).
			Padding(0, 1)

	statusStyle = lipgloss.NewStyle().Italic(true).Foreground(accent)
	bannerStyle = lipgloss.NewStyle().Bold(true).Foreground(danger)
)
