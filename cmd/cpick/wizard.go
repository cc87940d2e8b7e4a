package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/charmbracelet/huh"

	"github.com/vanderheijden86/cpick/pkg/config"
)

var errWizardAborted = errors.New("config wizard aborted")

// wizardAnswers holds the form fields as strings, the way huh edits them.
type wizardAnswers struct {
	labelKey    string
	childrenKey string
	separator   string
	cancel      string
	confirm     string
	closeDelay  string
	visibleRows string
	mouse       bool
	altScreen   bool
	watch       bool
	history     bool
}

func answersFrom(cfg config.Config) wizardAnswers {
	return wizardAnswers{
		labelKey:    cfg.Keys.Label,
		childrenKey: cfg.Keys.Children,
		separator:   cfg.Separator,
		cancel:      cfg.Lang.Cancel,
		confirm:     cfg.Lang.Confirm,
		closeDelay:  cfg.CloseDelay.String(),
		visibleRows: strconv.Itoa(cfg.UI.VisibleRows),
		mouse:       cfg.MouseEnabled(),
		altScreen:   cfg.AltScreenEnabled(),
		watch:       cfg.WatchEnabled(),
		history:     cfg.HistoryEnabled(),
	}
}

// apply writes the answers over base and validates the result.
func (a wizardAnswers) apply(base config.Config) (config.Config, error) {
	cfg := base
	cfg.Keys.Label = a.labelKey
	cfg.Keys.Children = a.childrenKey
	cfg.Separator = a.separator
	cfg.Lang.Cancel = a.cancel
	cfg.Lang.Confirm = a.confirm

	delay, err := time.ParseDuration(a.closeDelay)
	if err != nil {
		return cfg, fmt.Errorf("close delay: %w", err)
	}
	cfg.CloseDelay = delay

	rows, err := strconv.Atoi(a.visibleRows)
	if err != nil {
		return cfg, fmt.Errorf("visible rows: %w", err)
	}
	cfg.UI.VisibleRows = rows

	mouse, alt, watch, hist := a.mouse, a.altScreen, a.watch, a.history
	cfg.UI.Mouse = &mouse
	cfg.UI.AltScreen = &alt
	cfg.Watch = &watch
	cfg.History.Enabled = &hist

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func validateDuration(s string) error {
	_, err := time.ParseDuration(s)
	return err
}

func validateRows(s string) error {
	n, err := strconv.Atoi(s)
	if err != nil {
		return errors.New("must be a number")
	}
	if n < 1 || n > 99 {
		return errors.New("must be between 1 and 99")
	}
	return nil
}

func notEmpty(s string) error {
	if s == "" {
		return errors.New("required")
	}
	return nil
}

// runInitWizard asks for the common settings, starting from the config
// already at path if there is one, and saves the result there.
func runInitWizard(path string, out io.Writer) error {
	base := config.Default()
	if existing, err := config.Load(path); err == nil {
		base = config.Merge(base, *existing)
	}
	a := answersFrom(base)

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Label field").Description("Key holding each node's label").Value(&a.labelKey).Validate(notEmpty),
			huh.NewInput().Title("Children field").Description("Key holding each node's children").Value(&a.childrenKey).Validate(notEmpty),
			huh.NewInput().Title("Separator").Description("Joins the selected labels").Value(&a.separator),
		),
		huh.NewGroup(
			huh.NewInput().Title("Cancel label").Value(&a.cancel).Validate(notEmpty),
			huh.NewInput().Title("Confirm label").Value(&a.confirm).Validate(notEmpty),
			huh.NewInput().Title("Close delay").Description("e.g. 300ms").Value(&a.closeDelay).Validate(validateDuration),
			huh.NewInput().Title("Visible rows").Value(&a.visibleRows).Validate(validateRows),
		),
		huh.NewGroup(
			huh.NewConfirm().Title("Enable mouse wheel?").Value(&a.mouse),
			huh.NewConfirm().Title("Use the alternate screen?").Value(&a.altScreen),
			huh.NewConfirm().Title("Reload when data files change?").Value(&a.watch),
			huh.NewConfirm().Title("Remember picks?").Value(&a.history),
		),
	)
	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return errWizardAborted
		}
		return fmt.Errorf("config wizard: %w", err)
	}

	cfg, err := a.apply(base)
	if err != nil {
		return err
	}
	if err := config.Save(path, cfg); err != nil {
		return err
	}
	fmt.Fprintf(out, "Wrote %s\n", path)
	return nil
}
