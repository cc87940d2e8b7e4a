package ui

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

// helpMarkdown is the keyboard reference shown by the ? overlay.
const helpMarkdown = `## Keyboard

### Columns

- j/k or ↑/↓: move within a column
- g/G: first or last row
- PgUp/PgDn: jump one page
- h/l or ←/→: previous or next column
- Tab: cycle columns

### Actions

- Enter: confirm the selection
- Esc: cancel
- ?: toggle this help

### Mouse

- Wheel: scroll the column under the pointer. The choice settles when scrolling stops or on Enter.

Dimmed rows are disabled and are skipped while moving. Changing a column
rebuilds every column to its right.`

// renderHelpMarkdown renders the help text with glamour, falling back to the
// raw markdown if the renderer cannot be built.
func renderHelpMarkdown(wrap int) string {
	if wrap < 20 {
		wrap = 20
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("notty"),
		glamour.WithWordWrap(wrap),
	)
	if err != nil {
		return helpMarkdown
	}
	out, err := r.Render(helpMarkdown)
	if err != nil {
		return helpMarkdown
	}
	return strings.TrimSpace(out)
}

// RenderHelp renders the keyboard reference modal centered in width x height.
func RenderHelp(theme Theme, width, height int) string {
	r := theme.Renderer

	modalWidth := 64
	if width > 0 && modalWidth > width-4 {
		modalWidth = width - 4
	}
	if modalWidth < 24 {
		modalWidth = 24
	}

	titleStyle := r.NewStyle().
		Bold(true).
		Foreground(theme.Primary)
	footerStyle := r.NewStyle().
		Foreground(theme.Muted).
		Italic(true)

	var b strings.Builder
	b.WriteString(titleStyle.Render("Quick Reference"))
	b.WriteString("\n")
	b.WriteString(r.NewStyle().Foreground(theme.Border).Render(strings.Repeat("─", modalWidth-4)))
	b.WriteString("\n")
	b.WriteString(renderHelpMarkdown(modalWidth - 4))
	b.WriteString("\n\n")
	b.WriteString(footerStyle.Render("? or Esc to close"))

	modal := r.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.Secondary).
		Padding(1, 2).
		Width(modalWidth).
		Render(b.String())

	if width == 0 || height == 0 {
		return modal
	}
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, modal)
}
