package ui

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/vanderheijden86/cpick/pkg/model"
)

func testGroups() []model.Level {
	return []model.Level{
		{{Label: "A"}, {Label: "B"}},
		{{Label: "x"}, {Label: "y"}, {Label: "z"}},
	}
}

func newTestShell(opts PickerOptions) *PickerShell {
	if opts.CloseDelay == 0 {
		opts.CloseDelay = 5 * time.Millisecond
	}
	return NewPickerShell(testGroups(), opts, testTheme())
}

// settleClose runs the close tick returned by an action and feeds it back.
func settleClose(t *testing.T, s *PickerShell, cmd tea.Cmd) []tea.Msg {
	t.Helper()
	msgs := runCmd(cmd)
	if len(msgs) != 1 {
		t.Fatalf("expected a single close tick, got %v", msgs)
	}
	if _, ok := msgs[0].(closeElapsedMsg); !ok {
		t.Fatalf("expected closeElapsedMsg, got %T", msgs[0])
	}
	return runCmd(s.Update(msgs[0]))
}

func TestNewPickerShell_DefaultSelect(t *testing.T) {
	s := newTestShell(PickerOptions{DefaultSelect: []int{1}})

	sel := s.Selected()
	if len(sel) != 2 || sel[0] != 1 || sel[1] != -1 {
		t.Errorf("Selected = %v, want [1 -1]", sel)
	}
	if s.wheels[0].ActiveIndex() != 1 {
		t.Errorf("wheel 0 cursor = %d, want 1", s.wheels[0].ActiveIndex())
	}
	if s.Visibility() != Hidden {
		t.Errorf("new pickers start hidden, got %v", s.Visibility())
	}

	sel[0] = 9
	if s.Selected()[0] != 1 {
		t.Error("Selected must return a copy")
	}
}

func TestPickerShell_ShowHide(t *testing.T) {
	s := newTestShell(PickerOptions{})
	if s.View() != "" {
		t.Error("hidden picker should render nothing")
	}
	if cmd := s.Update(runeKey("j")); cmd != nil {
		t.Error("hidden picker should ignore keys")
	}

	s.Show()
	if s.Visibility() != Visible {
		t.Fatalf("Show: visibility = %v", s.Visibility())
	}
	s.Hide()
	if s.Visibility() != Hidden {
		t.Errorf("Hide: visibility = %v", s.Visibility())
	}
}

func TestPickerShell_GroupChange(t *testing.T) {
	var changes []GroupChange
	s := newTestShell(PickerOptions{
		OnGroupChange: func(ch GroupChange) error {
			changes = append(changes, ch)
			return nil
		},
	})
	s.Show()

	s.Update(runeKey("j"))
	if len(changes) != 1 {
		t.Fatalf("expected one group change, got %d", len(changes))
	}
	ch := changes[0]
	if ch.Column != 0 || ch.Row != 1 || ch.Item.Label != "B" || ch.Shell != s {
		t.Errorf("unexpected change: %+v", ch)
	}
	if ch.Selected[0] != 1 || ch.Selected[1] != -1 {
		t.Errorf("change should carry the updated selection, got %v", ch.Selected)
	}
}

func TestPickerShell_ConfirmIsDeferred(t *testing.T) {
	var confirmed []int
	s := newTestShell(PickerOptions{
		DefaultSelect: []int{1, 2},
		OnChange: func(selected []int) tea.Cmd {
			confirmed = selected
			return nil
		},
	})
	s.Show()

	cmd := s.Update(specialKey(tea.KeyEnter))
	if s.Visibility() != Closing {
		t.Fatalf("confirm should enter Closing, got %v", s.Visibility())
	}
	if confirmed != nil {
		t.Fatal("OnChange must not run before the close delay")
	}

	// Input is ignored while closing.
	if c := s.Update(runeKey("j")); c != nil {
		t.Error("closing picker should ignore keys")
	}

	settleClose(t, s, cmd)
	if len(confirmed) != 2 || confirmed[0] != 1 || confirmed[1] != 2 {
		t.Errorf("OnChange got %v, want [1 2]", confirmed)
	}
	if s.Visibility() != Visible {
		t.Errorf("after the delay the picker should be visible again, got %v", s.Visibility())
	}
}

func TestPickerShell_DefaultCloseDelay(t *testing.T) {
	if DefaultCloseDelay != 300*time.Millisecond {
		t.Fatalf("DefaultCloseDelay = %v, want 300ms", DefaultCloseDelay)
	}

	confirmed := false
	s := NewPickerShell(testGroups(), PickerOptions{
		OnChange: func([]int) tea.Cmd { confirmed = true; return nil },
	}, testTheme())
	if s.delay != DefaultCloseDelay {
		t.Fatalf("delay = %v, want the default", s.delay)
	}
	s.Show()

	start := time.Now()
	msgs := runCmd(s.Update(specialKey(tea.KeyEnter)))
	if elapsed := time.Since(start); elapsed < DefaultCloseDelay {
		t.Errorf("close tick delivered after %v, before the delay", elapsed)
	}
	if len(msgs) != 1 {
		t.Fatalf("expected one close tick, got %v", msgs)
	}
	if confirmed || s.Visibility() != Closing {
		t.Fatalf("nothing should fire until the tick is handled (confirmed=%v, %v)", confirmed, s.Visibility())
	}
	s.Update(msgs[0])
	if !confirmed {
		t.Error("OnChange should run once the tick is handled")
	}
}

func TestPickerShell_DisposeMidDelay(t *testing.T) {
	confirmed := false
	s := NewPickerShell(testGroups(), PickerOptions{
		OnChange: func([]int) tea.Cmd { confirmed = true; return nil },
	}, testTheme())
	s.Show()

	cmd := s.Update(specialKey(tea.KeyEnter))
	time.Sleep(100 * time.Millisecond)
	s.Dispose()
	for _, msg := range runCmd(cmd) {
		s.Update(msg)
	}
	if confirmed {
		t.Error("OnChange ran after Dispose")
	}
}

func TestPickerShell_DefaultMessages(t *testing.T) {
	s := newTestShell(PickerOptions{DefaultSelect: []int{0, 1}})
	s.Show()

	msgs := settleClose(t, s, s.Update(specialKey(tea.KeyEnter)))
	if len(msgs) != 1 {
		t.Fatalf("expected one message, got %v", msgs)
	}
	picked, ok := msgs[0].(PickerConfirmedMsg)
	if !ok || picked.Selected[1] != 1 {
		t.Errorf("expected PickerConfirmedMsg{[0 1]}, got %#v", msgs[0])
	}

	msgs = settleClose(t, s, s.Update(specialKey(tea.KeyEscape)))
	if len(msgs) != 1 {
		t.Fatalf("expected one message, got %v", msgs)
	}
	if _, ok := msgs[0].(PickerCancelledMsg); !ok {
		t.Errorf("expected PickerCancelledMsg, got %T", msgs[0])
	}
}

func TestPickerShell_DisposeCancelsPendingClose(t *testing.T) {
	called := false
	s := newTestShell(PickerOptions{
		OnChange: func([]int) tea.Cmd {
			called = true
			return nil
		},
	})
	s.Show()

	msgs := runCmd(s.Update(specialKey(tea.KeyEnter)))
	s.Dispose()
	for _, msg := range msgs {
		s.Update(msg)
	}
	if called {
		t.Error("a disposed picker must never fire its callback")
	}
	if !s.Disposed() || s.Visibility() != Hidden {
		t.Errorf("unexpected state after Dispose: %v", s.Visibility())
	}

	s.Show()
	if s.Visibility() != Hidden {
		t.Error("Show must not revive a disposed picker")
	}
}

func TestPickerShell_HideCancelsPendingClose(t *testing.T) {
	calls := 0
	s := newTestShell(PickerOptions{
		OnChange: func([]int) tea.Cmd {
			calls++
			return nil
		},
	})
	s.Show()

	stale := runCmd(s.Update(specialKey(tea.KeyEnter)))
	s.Hide()
	s.Show()
	fresh := runCmd(s.Update(specialKey(tea.KeyEnter)))

	s.Update(stale[0])
	if calls != 0 {
		t.Fatal("the tick from before Hide must be ignored")
	}
	s.Update(fresh[0])
	if calls != 1 {
		t.Errorf("expected the fresh tick to fire once, got %d calls", calls)
	}
	s.Update(fresh[0])
	if calls != 1 {
		t.Errorf("a tick fires at most once, got %d calls", calls)
	}
}

func TestPickerShell_IgnoresOtherPickersTicks(t *testing.T) {
	calls := 0
	opts := PickerOptions{OnChange: func([]int) tea.Cmd { calls++; return nil }}
	a := newTestShell(opts)
	b := newTestShell(opts)
	a.Show()
	b.Show()

	msgs := runCmd(a.Update(specialKey(tea.KeyEnter)))
	b.Update(specialKey(tea.KeyEnter))
	b.Update(msgs[0])
	if calls != 0 {
		t.Error("picker b fired on picker a's tick")
	}
}

func TestPickerShell_CustomActions(t *testing.T) {
	type wentMsg struct{ selected []int }
	s := newTestShell(PickerOptions{
		Actions: []Action{
			{
				Label:   "Go",
				Binding: key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "go")),
				OnActivate: func(selected []int) tea.Cmd {
					return func() tea.Msg { return wentMsg{selected} }
				},
			},
		},
		DefaultSelect: []int{1, 0},
	})
	s.Show()

	msgs := settleClose(t, s, s.Update(runeKey("x")))
	if len(msgs) != 1 {
		t.Fatalf("expected one message, got %v", msgs)
	}
	if went, ok := msgs[0].(wentMsg); !ok || went.selected[0] != 1 {
		t.Errorf("expected wentMsg, got %#v", msgs[0])
	}

	// Esc still dismisses when no action binds it.
	msgs = settleClose(t, s, s.Update(specialKey(tea.KeyEscape)))
	if len(msgs) != 1 {
		t.Fatalf("expected one message, got %v", msgs)
	}
	if _, ok := msgs[0].(PickerCancelledMsg); !ok {
		t.Errorf("expected PickerCancelledMsg from dismiss, got %T", msgs[0])
	}
}

func TestPickerShell_GroupChangeErrorBecomesFault(t *testing.T) {
	boom := errors.New("boom")
	s := newTestShell(PickerOptions{
		OnGroupChange: func(GroupChange) error { return boom },
	})
	s.Show()

	msgs := runCmd(s.Update(runeKey("j")))
	if len(msgs) != 1 {
		t.Fatalf("expected a fault message, got %v", msgs)
	}
	fault, ok := msgs[0].(FaultMsg)
	if !ok || !errors.Is(fault.Err, boom) {
		t.Errorf("expected FaultMsg{boom}, got %#v", msgs[0])
	}

	// The fault is reported once.
	if msgs := runCmd(s.Update(runeKey("l"))); len(msgs) != 0 {
		t.Errorf("fault reported twice: %v", msgs)
	}
}

func TestPickerShell_FocusKeys(t *testing.T) {
	s := newTestShell(PickerOptions{})
	s.Show()

	steps := []struct {
		msg  tea.KeyMsg
		want int
	}{
		{runeKey("l"), 1},
		{specialKey(tea.KeyRight), 1},
		{runeKey("h"), 0},
		{specialKey(tea.KeyLeft), 0},
		{specialKey(tea.KeyShiftTab), 1},
		{specialKey(tea.KeyTab), 0},
	}
	for i, step := range steps {
		s.Update(step.msg)
		if s.Focus() != step.want {
			t.Errorf("step %d (%s): focus = %d, want %d", i, step.msg, s.Focus(), step.want)
		}
	}
	if !s.wheels[0].focused || s.wheels[1].focused {
		t.Error("only the focused wheel should be highlighted")
	}

	// Keys go to the focused wheel.
	s.Update(runeKey("l"))
	s.Update(runeKey("j"))
	if s.Selected()[1] != 1 || s.Selected()[0] != -1 {
		t.Errorf("Selected = %v, want [-1 1]", s.Selected())
	}
}

func TestPickerShell_MouseTargetsColumnUnderPointer(t *testing.T) {
	s := newTestShell(PickerOptions{})
	s.Show()
	_ = s.View()

	scroll := func(x int) {
		s.Update(tea.MouseMsg{X: x, Action: tea.MouseActionPress, Button: tea.MouseButtonWheelDown})
	}

	// first cell of the second column: border, padding, column 0, separator
	scroll(2 + s.wheels[0].Width() + 1)
	if s.Focus() != 1 {
		t.Fatalf("scrolling over column 1 should focus it, focus=%d", s.Focus())
	}
	if s.wheels[1].ActiveIndex() != 1 || s.wheels[0].ActiveIndex() != 0 {
		t.Errorf("only column 1 should move: %d, %d", s.wheels[0].ActiveIndex(), s.wheels[1].ActiveIndex())
	}

	// outside the columns the focused column scrolls
	scroll(0)
	if s.Focus() != 1 || s.wheels[1].ActiveIndex() != 2 {
		t.Errorf("focus=%d cursor=%d, want 1 and 2", s.Focus(), s.wheels[1].ActiveIndex())
	}

	// centered placement shifts the columns
	s.SetSize(80, 24)
	_ = s.View()
	if s.originX == 0 {
		t.Fatal("a centered box should start right of the edge")
	}
	scroll(s.originX + 2)
	if s.Focus() != 0 || s.wheels[0].ActiveIndex() != 1 {
		t.Errorf("focus=%d cursor=%d, want column 0 on row 1", s.Focus(), s.wheels[0].ActiveIndex())
	}
}

func TestPickerShell_EnsureColumns(t *testing.T) {
	s := newTestShell(PickerOptions{DefaultSelect: []int{1, 2}})
	s.Show()
	s.Update(runeKey("l"))

	s.EnsureColumns(3)
	if s.Columns() != 3 || s.Wheel(2) == nil {
		t.Fatalf("expected 3 columns, got %d", s.Columns())
	}
	if s.Selected()[2] != -1 {
		t.Errorf("new column should start unselected, got %v", s.Selected())
	}
	if s.Wheel(3) != nil || s.Wheel(-1) != nil {
		t.Error("Wheel out of range should be nil")
	}

	s.EnsureColumns(1)
	if s.Columns() != 1 || len(s.Selected()) != 1 {
		t.Errorf("shrink failed: %d columns, selected %v", s.Columns(), s.Selected())
	}
	if s.Focus() != 0 {
		t.Errorf("focus should clamp into range, got %d", s.Focus())
	}
}

func TestPickerShell_SetSelected(t *testing.T) {
	s := newTestShell(PickerOptions{})
	s.SetSelected([]int{1, -1, 7})
	if got := s.Selected(); got[0] != 1 || got[1] != -1 {
		t.Errorf("Selected = %v", got)
	}
	if s.wheels[0].ActiveIndex() != 1 {
		t.Errorf("wheel 0 should follow SetSelected, cursor=%d", s.wheels[0].ActiveIndex())
	}
}

func TestPickerShell_View(t *testing.T) {
	s := newTestShell(PickerOptions{
		Title:   "Region",
		Lang:    PickerLang{Cancel: "Back"},
		Preview: func() string { return "A x" },
	})
	s.Show()

	view := s.View()
	for _, want := range []string{"Back", "Ok", "Region", "A x", "│", "next column"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}

	s.Update(specialKey(tea.KeyEnter))
	closing := s.View()
	if strings.Contains(closing, "next column") {
		t.Errorf("closing view should drop the help footer:\n%s", closing)
	}
	if !strings.Contains(closing, "Region") {
		t.Errorf("closing view should still show the picker:\n%s", closing)
	}
}

func TestPickerShell_WindowSize(t *testing.T) {
	s := newTestShell(PickerOptions{})
	s.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	s.Show()
	view := s.View()
	if lines := strings.Count(view, "\n") + 1; lines != 24 {
		t.Errorf("picker should fill the window height, got %d lines", lines)
	}
}

func TestVisibility_String(t *testing.T) {
	tests := []struct {
		v    Visibility
		want string
	}{
		{Hidden, "hidden"},
		{Visible, "visible"},
		{Closing, "closing"},
		{Visibility(9), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.v.String(); got != tt.want {
			t.Errorf("%d.String() = %q, want %q", tt.v, got, tt.want)
		}
	}
}
