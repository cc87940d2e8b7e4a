package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-runewidth"

	"github.com/vanderheijden86/cpick/pkg/cascade"
	"github.com/vanderheijden86/cpick/pkg/model"
)

const (
	// wheelSettleDelay is how long a burst of mouse wheel frames must pause
	// before the column reports a settle.
	wheelSettleDelay = 150 * time.Millisecond

	defaultVisibleRows = 5
	defaultMaxLabel    = 24

	emptyColumn = "(empty)"
)

// wheelSettleMsg fires after a mouse scroll burst. Stale generations are
// ignored.
type wheelSettleMsg struct {
	column int
	gen    int
}

// WheelModel renders one column of rows and reports the row the user
// settled on. It owns its cursor; the cascade coordinator corrects it through
// SetRows and SetActiveIndex.
type WheelModel struct {
	rows    model.Level
	cursor  int
	column  int
	visible int
	maxW    int
	focused bool

	keys      wheelKeyMap
	theme     Theme
	onSettled func(column, row int)

	// mouse debounce
	gen     int
	pending bool
}

var _ cascade.Wheel = (*WheelModel)(nil)

// NewWheel creates a column. An active index of -1 places the cursor on the
// first enabled row without reporting a settle.
func NewWheel(rows model.Level, active, column int, theme Theme, onSettled func(column, row int)) *WheelModel {
	w := &WheelModel{
		rows:      append(model.Level(nil), rows...),
		column:    column,
		visible:   defaultVisibleRows,
		maxW:      defaultMaxLabel,
		keys:      defaultWheelKeys(),
		theme:     theme,
		onSettled: onSettled,
	}
	if active >= 0 && active < len(w.rows) {
		w.cursor = active
	} else if first := w.rows.FirstEnabled(); first >= 0 {
		w.cursor = first
	}
	return w
}

// Column returns the column id the wheel reports settles for
func (w *WheelModel) Column() int { return w.column }

// Rows returns the rows currently displayed
func (w *WheelModel) Rows() model.Level { return w.rows }

// ActiveIndex returns the cursor row
func (w *WheelModel) ActiveIndex() int { return w.cursor }

// SetFocused toggles the focus highlight
func (w *WheelModel) SetFocused(focused bool) { w.focused = focused }

// SetVisibleRows sets the height of the window. Even counts are rounded up
// so the cursor can sit in the middle.
func (w *WheelModel) SetVisibleRows(n int) {
	if n < 1 {
		n = 1
	}
	if n%2 == 0 {
		n++
	}
	w.visible = n
}

// SetMaxLabelWidth caps the column width; longer labels are truncated.
func (w *WheelModel) SetMaxLabelWidth(n int) {
	if n < 1 {
		n = 1
	}
	w.maxW = n
}

// SetRows replaces the rows. The cursor is clamped into range and any pending
// mouse settle is dropped. It never reports a settle.
func (w *WheelModel) SetRows(rows model.Level) error {
	w.rows = append(model.Level(nil), rows...)
	if w.cursor >= len(w.rows) {
		w.cursor = len(w.rows) - 1
	}
	if w.cursor < 0 {
		w.cursor = 0
	}
	w.cancelPending()
	return nil
}

// SetActiveIndex moves the cursor to row. It never reports a settle.
func (w *WheelModel) SetActiveIndex(row int) error {
	if row < 0 || row >= len(w.rows) {
		return fmt.Errorf("column %d has %d rows, cannot select %d: %w", w.column, len(w.rows), row, cascade.ErrRowOutOfRange)
	}
	w.cursor = row
	w.cancelPending()
	return nil
}

func (w *WheelModel) cancelPending() {
	if w.pending {
		w.gen++
		w.pending = false
	}
}

// Flush settles a pending mouse scroll now instead of waiting for the
// debounce tick. It reports whether there was one.
func (w *WheelModel) Flush() bool {
	if !w.pending {
		return false
	}
	w.cancelPending()
	w.settle()
	return true
}

// Update handles keys, mouse wheel frames and the debounce tick.
func (w *WheelModel) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return w.handleKey(msg)

	case tea.MouseMsg:
		if msg.Action != tea.MouseActionPress {
			return nil
		}
		var moved bool
		switch msg.Button {
		case tea.MouseButtonWheelUp:
			moved = w.step(-1)
		case tea.MouseButtonWheelDown:
			moved = w.step(1)
		}
		if !moved {
			return nil
		}
		w.gen++
		w.pending = true
		column, gen := w.column, w.gen
		return tea.Tick(wheelSettleDelay, func(time.Time) tea.Msg {
			return wheelSettleMsg{column: column, gen: gen}
		})

	case wheelSettleMsg:
		if msg.column != w.column || msg.gen != w.gen || !w.pending {
			return nil
		}
		w.pending = false
		w.settle()
	}
	return nil
}

func (w *WheelModel) handleKey(msg tea.KeyMsg) tea.Cmd {
	var moved bool
	switch {
	case key.Matches(msg, w.keys.Up):
		moved = w.step(-1)
	case key.Matches(msg, w.keys.Down):
		moved = w.step(1)
	case key.Matches(msg, w.keys.Top):
		moved = w.jumpTo(0, 1)
	case key.Matches(msg, w.keys.Bottom):
		moved = w.jumpTo(len(w.rows)-1, -1)
	case key.Matches(msg, w.keys.PageUp):
		moved = w.jumpTo(w.cursor-w.visible, 1)
	case key.Matches(msg, w.keys.PageDown):
		moved = w.jumpTo(w.cursor+w.visible, -1)
	}
	if moved {
		w.cancelPending()
		w.settle()
	}
	return nil
}

// step moves to the next enabled row in dir. Returns false if there is none.
func (w *WheelModel) step(dir int) bool {
	for i := w.cursor + dir; i >= 0 && i < len(w.rows); i += dir {
		if !w.rows[i].Disabled {
			w.cursor = i
			return true
		}
	}
	return false
}

// jumpTo moves to target, or the nearest enabled row from target walking in
// dir without passing the cursor.
func (w *WheelModel) jumpTo(target, dir int) bool {
	if len(w.rows) == 0 {
		return false
	}
	if target < 0 {
		target = 0
	}
	if target > len(w.rows)-1 {
		target = len(w.rows) - 1
	}
	for i := target; i >= 0 && i < len(w.rows); i += dir {
		if i == w.cursor {
			return false
		}
		if !w.rows[i].Disabled {
			w.cursor = i
			return true
		}
	}
	return false
}

func (w *WheelModel) settle() {
	if w.onSettled != nil && w.cursor >= 0 && w.cursor < len(w.rows) {
		w.onSettled(w.column, w.cursor)
	}
}

// Width returns the display width of the column including the cursor gutter
func (w *WheelModel) Width() int {
	width := 1
	if len(w.rows) == 0 {
		width = runewidth.StringWidth(emptyColumn)
	}
	for _, r := range w.rows {
		if lw := runewidth.StringWidth(r.Label); lw > width {
			width = lw
		}
	}
	if width > w.maxW {
		width = w.maxW
	}
	return width + 2
}

// window returns the first row index shown
func (w *WheelModel) window() int {
	start := w.cursor - w.visible/2
	if start > len(w.rows)-w.visible {
		start = len(w.rows) - w.visible
	}
	if start < 0 {
		start = 0
	}
	return start
}

// View renders the visible window of rows with the cursor row highlighted.
func (w *WheelModel) View() string {
	return w.render(w.theme)
}

func (w *WheelModel) render(t Theme) string {
	labelW := w.Width() - 2

	if len(w.rows) == 0 {
		empty := t.Renderer.NewStyle().Foreground(t.Muted).Italic(true)
		lines := make([]string, w.visible)
		for i := range lines {
			lines[i] = strings.Repeat(" ", labelW+2)
		}
		lines[w.visible/2] = empty.Render("  " + runewidth.FillRight(runewidth.Truncate(emptyColumn, labelW, "…"), labelW))
		return strings.Join(lines, "\n")
	}

	normal := t.Base
	disabled := t.Renderer.NewStyle().Foreground(t.Disabled)
	selected := t.Renderer.NewStyle().Foreground(t.Primary).Bold(true)
	if w.focused {
		selected = selected.Background(t.Highlight)
	}

	start := w.window()
	lines := make([]string, 0, w.visible)
	for i := start; i < start+w.visible; i++ {
		if i >= len(w.rows) {
			lines = append(lines, strings.Repeat(" ", labelW+2))
			continue
		}
		row := w.rows[i]
		label := runewidth.FillRight(runewidth.Truncate(row.Label, labelW, "…"), labelW)

		switch {
		case i == w.cursor:
			prefix := "  "
			if w.focused {
				prefix = "› "
			}
			lines = append(lines, selected.Render(prefix+label))
		case row.Disabled:
			lines = append(lines, disabled.Render("  "+label))
		default:
			lines = append(lines, normal.Render("  "+label))
		}
	}
	return strings.Join(lines, "\n")
}
