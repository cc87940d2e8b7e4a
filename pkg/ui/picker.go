package ui

import (
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/cpick/pkg/cascade"
	"github.com/vanderheijden86/cpick/pkg/model"
)

// DefaultCloseDelay is how long a picker stays in Closing before the action's
// callback runs.
const DefaultCloseDelay = 300 * time.Millisecond

// Visibility is the display state of a picker.
type Visibility int

const (
	Hidden Visibility = iota
	Visible
	Closing
)

func (v Visibility) String() string {
	switch v {
	case Hidden:
		return "hidden"
	case Visible:
		return "visible"
	case Closing:
		return "closing"
	}
	return "unknown"
}

// PickerConfirmedMsg is sent after the close delay when the default confirm
// action runs without an OnChange callback.
type PickerConfirmedMsg struct {
	Selected []int
}

// PickerCancelledMsg is sent after the close delay when the picker is
// cancelled or dismissed without an OnCancel callback.
type PickerCancelledMsg struct{}

// FaultMsg carries an error raised while handling a column change. It means a
// column widget broke its contract; the picker state is no longer trusted.
type FaultMsg struct {
	Err error
}

// closeElapsedMsg ends the Closing state of one picker.
type closeElapsedMsg struct {
	picker int64
	seq    int
}

var pickerIDs atomic.Int64

// Action is one button in the picker header. OnActivate runs once the close
// delay has elapsed and receives the selected indices at activation time.
type Action struct {
	Label      string
	Binding    key.Binding
	OnActivate func(selected []int) tea.Cmd
}

// PickerLang holds the labels of the default actions.
type PickerLang struct {
	Cancel  string `yaml:"cancel,omitempty" json:"cancel,omitempty"`
	Confirm string `yaml:"confirm,omitempty" json:"confirm,omitempty"`
}

// DefaultLang returns the default action labels
func DefaultLang() PickerLang {
	return PickerLang{Cancel: "Cancel", Confirm: "Ok"}
}

// GroupChange describes one settled column edit.
type GroupChange struct {
	Item     model.Row
	Row      int
	Column   int
	Selected []int
	Shell    *PickerShell
}

// PickerOptions configures a PickerShell. Every field is optional.
type PickerOptions struct {
	Title string
	// Actions replaces the default cancel/confirm pair.
	Actions       []Action
	DefaultSelect []int
	Lang          PickerLang
	CloseDelay    time.Duration
	VisibleRows   int
	MaxLabelWidth int
	// Preview, if set, renders a status line under the columns.
	Preview func() string

	OnChange      func(selected []int) tea.Cmd
	OnCancel      func() tea.Cmd
	OnGroupChange func(GroupChange) error
}

// closeTimer tracks the pending deferred callback. Bumping seq invalidates
// any tick already in flight.
type closeTimer struct {
	seq      int
	pending  bool
	fire     func(selected []int) tea.Cmd
	selected []int
}

// PickerShell is a multi-column picker. It owns the visibility state, the
// action buttons and the selected index of every column, and hands column
// edits to OnGroupChange.
type PickerShell struct {
	id         int64
	visibility Visibility
	disposed   bool

	wheels   []*WheelModel
	selected []int
	focus    int

	title   string
	preview func() string
	actions []Action
	dismiss func(selected []int) tea.Cmd
	delay   time.Duration
	rows    int
	maxW    int
	timer   closeTimer

	onGroupChange func(GroupChange) error
	fault         error

	keys   pickerKeyMap
	help   help.Model
	theme  Theme
	width  int
	height int
	// left edge of the box in the last View
	originX int
}

// NewPickerShell creates a hidden picker with one column per group.
func NewPickerShell(groups []model.Level, opts PickerOptions, theme Theme) *PickerShell {
	s := &PickerShell{
		id:            pickerIDs.Add(1),
		title:         opts.Title,
		preview:       opts.Preview,
		delay:         opts.CloseDelay,
		rows:          opts.VisibleRows,
		maxW:          opts.MaxLabelWidth,
		onGroupChange: opts.OnGroupChange,
		keys:          defaultPickerKeys(),
		help:          help.New(),
		theme:         theme,
	}
	if s.delay <= 0 {
		s.delay = DefaultCloseDelay
	}

	onCancel := opts.OnCancel
	if onCancel == nil {
		onCancel = func() tea.Cmd {
			return func() tea.Msg { return PickerCancelledMsg{} }
		}
	}
	s.dismiss = func([]int) tea.Cmd { return onCancel() }

	s.actions = opts.Actions
	if len(s.actions) == 0 {
		s.actions = defaultActions(opts, onCancel)
	}
	for _, a := range s.actions {
		s.keys.actions = append(s.keys.actions, a.Binding)
	}

	s.selected = make([]int, len(groups))
	for i := range s.selected {
		s.selected[i] = -1
		if i < len(opts.DefaultSelect) {
			s.selected[i] = opts.DefaultSelect[i]
		}
	}
	for i, g := range groups {
		s.wheels = append(s.wheels, s.newWheel(g, s.selected[i], i))
	}
	s.refocus()
	return s
}

func defaultActions(opts PickerOptions, onCancel func() tea.Cmd) []Action {
	lang := DefaultLang()
	if opts.Lang.Cancel != "" {
		lang.Cancel = opts.Lang.Cancel
	}
	if opts.Lang.Confirm != "" {
		lang.Confirm = opts.Lang.Confirm
	}

	onChange := opts.OnChange
	if onChange == nil {
		onChange = func(selected []int) tea.Cmd {
			return func() tea.Msg { return PickerConfirmedMsg{Selected: selected} }
		}
	}

	return []Action{
		{
			Label:      lang.Cancel,
			Binding:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", strings.ToLower(lang.Cancel))),
			OnActivate: func([]int) tea.Cmd { return onCancel() },
		},
		{
			Label:      lang.Confirm,
			Binding:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", strings.ToLower(lang.Confirm))),
			OnActivate: onChange,
		},
	}
}

func (s *PickerShell) newWheel(rows model.Level, active, column int) *WheelModel {
	w := NewWheel(rows, active, column, s.theme, s.onWheelSettled)
	if s.rows > 0 {
		w.SetVisibleRows(s.rows)
	}
	if s.maxW > 0 {
		w.SetMaxLabelWidth(s.maxW)
	}
	return w
}

// onWheelSettled records the settle and runs the group change hook. Errors are
// kept until Update can turn them into a FaultMsg.
func (s *PickerShell) onWheelSettled(column, row int) {
	if column < 0 || column >= len(s.selected) {
		return
	}
	s.selected[column] = row
	if s.onGroupChange == nil {
		return
	}

	var item model.Row
	if w := s.wheels[column]; row >= 0 && row < len(w.rows) {
		item = w.rows[row]
	}
	err := s.onGroupChange(GroupChange{
		Item:     item,
		Row:      row,
		Column:   column,
		Selected: s.Selected(),
		Shell:    s,
	})
	if err != nil && s.fault == nil {
		s.fault = err
	}
	s.refocus()
}

// Show makes a hidden picker visible. A closing or disposed picker is left
// alone.
func (s *PickerShell) Show() {
	if s.disposed {
		return
	}
	if s.visibility == Hidden {
		s.visibility = Visible
	}
}

// Hide hides the picker and cancels a pending close callback.
func (s *PickerShell) Hide() {
	s.cancelTimer()
	s.visibility = Hidden
}

// Dispose tears the picker down. A pending close callback will never run and
// the picker ignores all further input.
func (s *PickerShell) Dispose() {
	s.cancelTimer()
	s.disposed = true
	s.visibility = Hidden
}

func (s *PickerShell) cancelTimer() {
	s.timer.seq++
	s.timer.pending = false
	s.timer.fire = nil
	s.timer.selected = nil
}

// Visibility returns the current display state
func (s *PickerShell) Visibility() Visibility { return s.visibility }

// Disposed reports whether Dispose was called
func (s *PickerShell) Disposed() bool { return s.disposed }

// Selected returns a copy of the selected index of every column; -1 marks a
// column the user has not settled yet.
func (s *PickerShell) Selected() []int {
	return append([]int(nil), s.selected...)
}

// SetSelected overwrites the bookkeeping and moves the wheels to match.
// Entries without a column, or -1, are skipped.
func (s *PickerShell) SetSelected(selected []int) {
	for i := range s.selected {
		if i >= len(selected) {
			break
		}
		s.selected[i] = selected[i]
		if selected[i] >= 0 {
			_ = s.wheels[i].SetActiveIndex(selected[i])
		}
	}
}

// EnsureColumns grows or shrinks the picker to n columns. New columns start
// empty with nothing selected.
func (s *PickerShell) EnsureColumns(n int) {
	if n < 0 {
		n = 0
	}
	for len(s.wheels) < n {
		s.wheels = append(s.wheels, s.newWheel(nil, -1, len(s.wheels)))
		s.selected = append(s.selected, -1)
	}
	s.wheels = s.wheels[:n]
	s.selected = s.selected[:n]
	s.refocus()
}

// Wheel returns the widget for column, or nil.
func (s *PickerShell) Wheel(column int) cascade.Wheel {
	if column < 0 || column >= len(s.wheels) {
		return nil
	}
	return s.wheels[column]
}

// Columns returns the number of columns
func (s *PickerShell) Columns() int { return len(s.wheels) }

// Focus returns the focused column
func (s *PickerShell) Focus() int { return s.focus }

// SetSize updates the area the picker is centered in
func (s *PickerShell) SetSize(width, height int) {
	s.width = width
	s.height = height
	s.help.Width = width
}

func (s *PickerShell) refocus() {
	if s.focus >= len(s.wheels) {
		s.focus = len(s.wheels) - 1
	}
	if s.focus < 0 {
		s.focus = 0
	}
	for i, w := range s.wheels {
		w.SetFocused(i == s.focus)
	}
}

func (s *PickerShell) moveFocus(delta int, wrap bool) {
	n := len(s.wheels)
	if n == 0 {
		return
	}
	next := s.focus + delta
	if wrap {
		next = (next + n) % n
	} else if next < 0 || next >= n {
		return
	}
	s.focus = next
	s.refocus()
}

// activate enters Closing and schedules fire after the close delay. Scrolls
// still waiting on their debounce are settled first so the callback sees the
// rows on screen.
func (s *PickerShell) activate(fire func([]int) tea.Cmd) tea.Cmd {
	// settling can reshape the columns
	for i := 0; i < len(s.wheels); i++ {
		s.wheels[i].Flush()
	}

	s.visibility = Closing
	s.timer.seq++
	s.timer.pending = true
	s.timer.fire = fire
	s.timer.selected = s.Selected()

	id, seq := s.id, s.timer.seq
	return tea.Tick(s.delay, func(time.Time) tea.Msg {
		return closeElapsedMsg{picker: id, seq: seq}
	})
}

// Update handles input while visible and the close timer while closing. The
// returned command may carry the deferred action callback or a FaultMsg.
func (s *PickerShell) Update(msg tea.Msg) tea.Cmd {
	if s.disposed {
		return nil
	}

	if msg, ok := msg.(closeElapsedMsg); ok {
		return s.closeElapsed(msg)
	}
	if msg, ok := msg.(tea.WindowSizeMsg); ok {
		s.SetSize(msg.Width, msg.Height)
		return nil
	}
	if s.visibility != Visible {
		return nil
	}

	var cmd tea.Cmd
	switch msg := msg.(type) {
	case tea.KeyMsg:
		cmd = s.handleKey(msg)
	case tea.MouseMsg:
		if len(s.wheels) == 0 {
			break
		}
		// Scrolling over a column focuses it; elsewhere the focused column scrolls.
		if col := s.columnAt(msg.X); col >= 0 && col != s.focus {
			s.focus = col
			s.refocus()
		}
		cmd = s.wheels[s.focus].Update(msg)
	case wheelSettleMsg:
		for _, w := range s.wheels {
			if w.column == msg.column {
				cmd = w.Update(msg)
				break
			}
		}
	}
	return tea.Batch(cmd, s.takeFault())
}

// columnAt maps a screen column to the wheel drawn there, or -1. It uses the
// position of the last View.
func (s *PickerShell) columnAt(x int) int {
	// border and padding
	x -= s.originX + 2
	if x < 0 {
		return -1
	}
	for i, w := range s.wheels {
		if x < w.Width() {
			return i
		}
		x -= w.Width() + 1
		if x < 0 {
			// separator
			return -1
		}
	}
	return -1
}

// takeOverClose moves a close pending on old onto s, so the tick already in
// flight for old ends the Closing state of s and fires the callback once.
func (s *PickerShell) takeOverClose(old *PickerShell) {
	if old.visibility != Closing || !old.timer.pending {
		return
	}
	s.id = old.id
	s.timer = old.timer
	s.visibility = Closing
}

func (s *PickerShell) closeElapsed(msg closeElapsedMsg) tea.Cmd {
	if msg.picker != s.id || msg.seq != s.timer.seq || !s.timer.pending {
		return nil
	}
	fire, selected := s.timer.fire, s.timer.selected
	s.timer.pending = false
	s.timer.fire = nil
	s.timer.selected = nil
	if s.visibility == Closing {
		s.visibility = Visible
	}
	if fire == nil {
		return nil
	}
	return fire(selected)
}

func (s *PickerShell) handleKey(msg tea.KeyMsg) tea.Cmd {
	for _, a := range s.actions {
		if key.Matches(msg, a.Binding) {
			return s.activate(a.OnActivate)
		}
	}
	if msg.String() == "esc" {
		return s.activate(s.dismiss)
	}

	switch {
	case key.Matches(msg, s.keys.Left):
		s.moveFocus(-1, false)
	case key.Matches(msg, s.keys.Right):
		s.moveFocus(1, false)
	case key.Matches(msg, s.keys.Next):
		s.moveFocus(1, true)
	case key.Matches(msg, s.keys.Prev):
		s.moveFocus(-1, true)
	default:
		if len(s.wheels) > 0 {
			return s.wheels[s.focus].Update(msg)
		}
	}
	return nil
}

func (s *PickerShell) takeFault() tea.Cmd {
	if s.fault == nil {
		return nil
	}
	err := s.fault
	s.fault = nil
	return func() tea.Msg { return FaultMsg{Err: err} }
}

// View renders the picker centered in its area. Hidden pickers render
// nothing; closing pickers render muted.
func (s *PickerShell) View() string {
	if s.visibility == Hidden {
		return ""
	}
	t := s.theme
	if s.visibility == Closing {
		t = t.muted()
	}

	var sections []string

	// Header: first action left, the rest right, title between.
	actionStyle := t.Renderer.NewStyle().Foreground(t.Subtext)
	confirmStyle := t.Renderer.NewStyle().Foreground(t.Primary).Bold(true)
	titleStyle := t.Renderer.NewStyle().Foreground(t.Secondary).Bold(true)

	var left, right []string
	for i, a := range s.actions {
		if i == 0 {
			left = append(left, actionStyle.Render(a.Label))
			continue
		}
		right = append(right, confirmStyle.Render(a.Label))
	}
	header := strings.Join(left, "  ")
	if s.title != "" {
		header += "  " + titleStyle.Render(s.title)
	}
	if len(right) > 0 {
		header += "  " + strings.Join(right, "  ")
	}
	sections = append(sections, header, "")

	// Columns
	sepStyle := t.Renderer.NewStyle().Foreground(t.Border)
	var cols []string
	for i, w := range s.wheels {
		if i > 0 {
			height := lipgloss.Height(cols[len(cols)-1])
			sep := strings.TrimSuffix(strings.Repeat("│\n", height), "\n")
			cols = append(cols, sepStyle.Render(sep))
		}
		cols = append(cols, w.render(t))
	}
	if len(cols) == 0 {
		cols = append(cols, t.Renderer.NewStyle().Foreground(t.Muted).Italic(true).Render(emptyColumn))
	}
	sections = append(sections, lipgloss.JoinHorizontal(lipgloss.Top, cols...))

	if s.preview != nil {
		previewStyle := t.Renderer.NewStyle().Foreground(t.Subtext)
		sections = append(sections, "", previewStyle.Render(s.preview()))
	}

	// Footer
	if s.visibility == Visible {
		sections = append(sections, "", s.help.View(s.keys))
	}

	box := t.Renderer.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Border).
		Padding(0, 1).
		Render(strings.Join(sections, "\n"))

	if s.width == 0 || s.height == 0 {
		s.originX = 0
		return box
	}
	s.originX = max((s.width-lipgloss.Width(box))/2, 0)
	return lipgloss.Place(s.width, s.height, lipgloss.Center, lipgloss.Center, box)
}
