package ui

import "github.com/charmbracelet/lipgloss"

// Adaptive colors for light and dark terminals.
var (
	colorText      = lipgloss.AdaptiveColor{Light: "#1A1A1A", Dark: "#F8F8F2"}
	colorSubtext   = lipgloss.AdaptiveColor{Light: "#555555", Dark: "#BFBFBF"}
	colorMuted     = lipgloss.AdaptiveColor{Light: "#666666", Dark: "#6272A4"}
	colorPrimary   = lipgloss.AdaptiveColor{Light: "#6B47D9", Dark: "#BD93F9"}
	colorHighlight = lipgloss.AdaptiveColor{Light: "#D0D0D0", Dark: "#44475A"}
	colorWarn      = lipgloss.AdaptiveColor{Light: "#B45309", Dark: "#FFB86C"}
)

// Theme bundles the styles the viewer renders with.
type Theme struct {
	Header   lipgloss.Style
	Row      lipgloss.Style
	Selected lipgloss.Style
	Branch   lipgloss.Style
	Muted    lipgloss.Style
	Status   lipgloss.Style
	Error    lipgloss.Style
}

// DefaultTheme returns the standard adaptive theme.
func DefaultTheme() Theme {
	return Theme{
		Header:   lipgloss.NewStyle().Bold(true).Foreground(colorPrimary),
		Row:      lipgloss.NewStyle().Foreground(colorText),
		Selected: lipgloss.NewStyle().Foreground(colorText).Background(colorHighlight).Bold(true),
		Branch:   lipgloss.NewStyle().Foreground(colorPrimary),
		Muted:    lipgloss.NewStyle().Foreground(colorMuted),
		Status:   lipgloss.NewStyle().Foreground(colorSubtext),
		Error:    lipgloss.NewStyle().Foreground(colorWarn).Bold(true),
	}
}
