package ui

import "github.com/charmbracelet/bubbles/key"

// wheelKeyMap moves the cursor inside one column.
type wheelKeyMap struct {
	Up       key.Binding
	Down     key.Binding
	Top      key.Binding
	Bottom   key.Binding
	PageUp   key.Binding
	PageDown key.Binding
}

func defaultWheelKeys() wheelKeyMap {
	return wheelKeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Top: key.NewBinding(
			key.WithKeys("home", "g"),
			key.WithHelp("g", "first"),
		),
		Bottom: key.NewBinding(
			key.WithKeys("end", "G"),
			key.WithHelp("G", "last"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup"),
			key.WithHelp("pgup", "page up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown"),
			key.WithHelp("pgdn", "page down"),
		),
	}
}

// pickerKeyMap moves focus between columns. Actions carry their own bindings.
type pickerKeyMap struct {
	Left  key.Binding
	Right key.Binding
	Next  key.Binding
	Prev  key.Binding
	Help  key.Binding

	wheel   wheelKeyMap
	actions []key.Binding
}

func defaultPickerKeys() pickerKeyMap {
	return pickerKeyMap{
		Left: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←/h", "prev column"),
		),
		Right: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("→/l", "next column"),
		),
		Next: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "next column"),
		),
		Prev: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("shift+tab", "prev column"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		wheel: defaultWheelKeys(),
	}
}

// ShortHelp implements help.KeyMap
func (k pickerKeyMap) ShortHelp() []key.Binding {
	short := []key.Binding{k.wheel.Up, k.wheel.Down, k.Left, k.Right}
	short = append(short, k.actions...)
	return append(short, k.Help)
}

// FullHelp implements help.KeyMap
func (k pickerKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.wheel.Up, k.wheel.Down, k.wheel.Top, k.wheel.Bottom, k.wheel.PageUp, k.wheel.PageDown},
		{k.Left, k.Right, k.Next, k.Prev},
		append(append([]key.Binding{}, k.actions...), k.Help),
	}
}
