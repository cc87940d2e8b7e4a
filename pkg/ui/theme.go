package ui

import "github.com/charmbracelet/lipgloss"

// Theme holds the colors and renderer every picker component draws with.
// Components build their styles from Renderer so tests can render without a
// terminal.
type Theme struct {
	Renderer *lipgloss.Renderer

	Primary   lipgloss.AdaptiveColor
	Secondary lipgloss.AdaptiveColor
	Subtext   lipgloss.AdaptiveColor
	Muted     lipgloss.AdaptiveColor
	Border    lipgloss.AdaptiveColor
	Highlight lipgloss.AdaptiveColor
	Disabled  lipgloss.AdaptiveColor

	Base lipgloss.Style
}

// DefaultTheme returns the default palette bound to r.
func DefaultTheme(r *lipgloss.Renderer) Theme {
	t := Theme{
		Renderer:  r,
		Primary:   lipgloss.AdaptiveColor{Light: "#006080", Dark: "#8BE9FD"},
		Secondary: lipgloss.AdaptiveColor{Light: "#7D56F4", Dark: "#BD93F9"},
		Subtext:   lipgloss.AdaptiveColor{Light: "#555555", Dark: "#BFBFBF"},
		Muted:     lipgloss.AdaptiveColor{Light: "#999999", Dark: "#6272A4"},
		Border:    lipgloss.AdaptiveColor{Light: "#CCCCCC", Dark: "#44475A"},
		Highlight: lipgloss.AdaptiveColor{Light: "#E6F4F8", Dark: "#343746"},
		Disabled:  lipgloss.AdaptiveColor{Light: "#BBBBBB", Dark: "#4D4D4D"},
	}
	t.Base = r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#1A1A1A", Dark: "#F8F8F2"})
	return t
}

// muted returns a copy of the theme where every accent is replaced by the
// muted color. Closing pickers render with it.
func (t Theme) muted() Theme {
	m := t
	m.Primary = t.Muted
	m.Secondary = t.Muted
	m.Subtext = t.Muted
	m.Border = t.Muted
	m.Highlight = lipgloss.AdaptiveColor{}
	m.Base = t.Renderer.NewStyle().Foreground(t.Muted)
	return m
}
