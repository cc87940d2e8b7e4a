package ui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vanderheijden86/cpick/pkg/cascade"
	"github.com/vanderheijden86/cpick/pkg/model"
)

// CityPickedMsg is sent after the close delay when a city picker without an
// OnChange callback is confirmed.
type CityPickedMsg struct {
	Text   string
	Path   model.Path
	Labels []string
}

// CityPickerOptions configures a CityPickerModel.
type CityPickerOptions struct {
	Title         string
	Separator     string
	Initial       model.Path
	Lang          PickerLang
	CloseDelay    time.Duration
	VisibleRows   int
	MaxLabelWidth int

	OnChange func(text string, path model.Path) tea.Cmd
	OnCancel func() tea.Cmd
}

// CityPickerModel is a hierarchical picker: a PickerShell whose columns are
// kept consistent with one path through a tree.
type CityPickerModel struct {
	coord *cascade.Coordinator
	shell *PickerShell
	opts  CityPickerOptions
	theme Theme

	width  int
	height int
}

// NewCityPicker builds a hidden picker over tree.
func NewCityPicker(tree []model.Node, opts CityPickerOptions, theme Theme) (*CityPickerModel, error) {
	c := &CityPickerModel{opts: opts, theme: theme}
	if err := c.build(tree, opts.Initial); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *CityPickerModel) build(tree []model.Node, path model.Path) error {
	coord := cascade.NewCoordinator(tree, path, c.opts.Separator)
	shell := NewPickerShell(nil, PickerOptions{
		Title:         c.opts.Title,
		Lang:          c.opts.Lang,
		CloseDelay:    c.opts.CloseDelay,
		VisibleRows:   c.opts.VisibleRows,
		MaxLabelWidth: c.opts.MaxLabelWidth,
		Preview:       c.preview,
		OnChange:      c.confirm,
		OnCancel:      c.opts.OnCancel,
		OnGroupChange: c.onGroupChange,
	}, c.theme)

	if err := coord.Attach(shell); err != nil {
		shell.Dispose()
		return fmt.Errorf("attaching columns: %w", err)
	}
	shell.SetSelected(coord.Model().Path)
	shell.SetSize(c.width, c.height)

	c.coord = coord
	c.shell = shell
	return nil
}

// onGroupChange runs the cascade for a settled column and writes the
// corrected path back into the shell.
func (c *CityPickerModel) onGroupChange(ch GroupChange) error {
	if err := c.coord.OnColumnChanged(ch.Column, ch.Row); err != nil {
		return err
	}
	ch.Shell.SetSelected(c.coord.Model().Path)
	return nil
}

func (c *CityPickerModel) confirm([]int) tea.Cmd {
	m := c.coord.Model()
	if c.opts.OnChange != nil {
		return c.opts.OnChange(m.DisplayText, m.Path.Clone())
	}
	picked := CityPickedMsg{
		Text:   m.DisplayText,
		Path:   m.Path.Clone(),
		Labels: m.SelectedLabels(),
	}
	return func() tea.Msg { return picked }
}

func (c *CityPickerModel) preview() string {
	text := c.coord.Model().DisplayText
	if text == "" {
		return "Nothing to pick"
	}
	return text
}

// SetTree swaps in a new tree, keeping the current path where it still
// exists. A pending close carries over to the new shell and still fires once.
func (c *CityPickerModel) SetTree(tree []model.Node) error {
	path := c.coord.Model().Path
	wasVisible := c.shell.Visibility() != Hidden
	focus := c.shell.Focus()

	old := c.shell
	if err := c.build(tree, path); err != nil {
		return err
	}
	c.shell.takeOverClose(old)
	old.Dispose()

	c.shell.focus = focus
	c.shell.refocus()
	if wasVisible {
		c.shell.Show()
	}
	return nil
}

// Model returns the live picker model
func (c *CityPickerModel) Model() model.PickerModel { return c.coord.Model() }

// Shell returns the underlying picker
func (c *CityPickerModel) Shell() *PickerShell { return c.shell }

// Show opens the picker
func (c *CityPickerModel) Show() { c.shell.Show() }

// Hide hides the picker and cancels a pending close
func (c *CityPickerModel) Hide() { c.shell.Hide() }

// Dispose tears the picker down
func (c *CityPickerModel) Dispose() { c.shell.Dispose() }

// SetSize updates the area the picker is drawn in
func (c *CityPickerModel) SetSize(width, height int) {
	c.width = width
	c.height = height
	c.shell.SetSize(width, height)
}

// Update forwards to the shell
func (c *CityPickerModel) Update(msg tea.Msg) tea.Cmd {
	return c.shell.Update(msg)
}

// View renders the picker
func (c *CityPickerModel) View() string {
	return c.shell.View()
}
