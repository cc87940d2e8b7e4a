package ui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/cpick/pkg/model"
)

// Result is what the app hands back once it quits.
type Result struct {
	Confirmed bool
	Text      string
	Path      model.Path
	Labels    []string
	// Err is set when the picker faulted or a reload could not be applied
	Err error
}

// App is the top-level program: one city picker, the help overlay and a
// status line for reload problems.
type App struct {
	picker *CityPickerModel
	theme  Theme

	showHelp bool
	status   string
	statusOK bool

	width  int
	height int

	result   Result
	quitting bool
}

// NewApp builds the picker over tree and opens it. opts.OnChange and
// opts.OnCancel are ignored; the app listens for the default messages.
func NewApp(tree []model.Node, opts CityPickerOptions, theme Theme) (App, error) {
	opts.OnChange = nil
	opts.OnCancel = nil
	picker, err := NewCityPicker(tree, opts, theme)
	if err != nil {
		return App{}, err
	}
	picker.Show()
	return App{picker: picker, theme: theme}, nil
}

// Result returns the outcome. It is only meaningful after the program exits.
func (m App) Result() Result { return m.result }

// Picker returns the embedded city picker
func (m App) Picker() *CityPickerModel { return m.picker }

func (m App) Init() tea.Cmd {
	return nil
}

func (m App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.picker.SetSize(msg.Width, max(msg.Height-1, 0))
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m.quit(Result{})
		case "?":
			m.showHelp = !m.showHelp
			return m, nil
		}
		if m.showHelp {
			if s := msg.String(); s == "esc" || s == "q" {
				m.showHelp = false
			}
			return m, nil
		}

	case CityPickedMsg:
		return m.quit(Result{
			Confirmed: true,
			Text:      msg.Text,
			Path:      msg.Path,
			Labels:    msg.Labels,
		})

	case PickerCancelledMsg:
		return m.quit(Result{})

	case FaultMsg:
		return m.quit(Result{Err: msg.Err})

	case TreeReloadedMsg:
		if err := m.picker.SetTree(msg.Tree); err != nil {
			return m.quit(Result{Err: fmt.Errorf("applying reloaded tree: %w", err)})
		}
		m.status = fmt.Sprintf("reloaded (%d roots)", len(msg.Tree))
		m.statusOK = true
		return m, nil

	case TreeErrorMsg:
		m.status = fmt.Sprintf("reload failed: %v", msg.Err)
		m.statusOK = false
		return m, nil
	}

	return m, m.picker.Update(msg)
}

func (m App) quit(r Result) (tea.Model, tea.Cmd) {
	m.result = r
	m.quitting = true
	m.picker.Dispose()
	return m, tea.Quit
}

func (m App) View() string {
	if m.quitting {
		return ""
	}
	if m.showHelp {
		return RenderHelp(m.theme, m.width, m.height)
	}

	body := m.picker.View()
	if m.status == "" {
		return body
	}
	color := m.theme.Primary
	if !m.statusOK {
		color = lipgloss.AdaptiveColor{Light: "#C0392B", Dark: "#FF5555"}
	}
	footer := m.theme.Renderer.NewStyle().Foreground(color).Render(m.status)
	return lipgloss.JoinVertical(lipgloss.Left, body, footer)
}
