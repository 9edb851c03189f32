package ui

import "github.com/charmbracelet/lipgloss"

var (
	Amber   = lipgloss.AdaptiveColor{Light: "#B45309", Dark: "#FBBF24"}
	Cyan    = lipgloss.AdaptiveColor{Light: "#0E7490", Dark: "#22D3EE"}
	Emerald = lipgloss.AdaptiveColor{Light: "#047857", Dark: "#34D399"}
	Rose    = lipgloss.AdaptiveColor{Light: "#BE123C", Dark: "#FB7185"}
	Muted   = lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#9CA3AF"}
)

var (
	HeaderStyle = lipgloss.NewStyle().
			Bold(true)

	ModelStyle = lipgloss.NewStyle().
			Foreground(Cyan)

	SelectedStyle = lipgloss.NewStyle().
			Foreground(Amber).
			Bold(true)

	LabelStyle = lipgloss.NewStyle().
			Foreground(Muted)

	OKStyle = lipgloss.NewStyle().
		Foreground(Emerald)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(Rose)

	SeparatorStyle = lipgloss.NewStyle().
			Foreground(Muted)
)

// Check renders a present or missing mark.
func Check(ok bool) string {
	if ok {
		return OKStyle.Render("✓")
	}
	return ErrorStyle.Render("✗")
}
