// Command cpick opens a cascading multi-column picker over tree-shaped data
// files and prints the chosen path.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/goccy/go-json"
	"golang.org/x/term"

	"github.com/vanderheijden86/cpick/pkg/cascade"
	"github.com/vanderheijden86/cpick/pkg/config"
	"github.com/vanderheijden86/cpick/pkg/history"
	"github.com/vanderheijden86/cpick/pkg/loader"
	"github.com/vanderheijden86/cpick/pkg/model"
	"github.com/vanderheijden86/cpick/pkg/ui"
	"github.com/vanderheijden86/cpick/pkg/version"
)

// Exit codes
const (
	exitOK        = 0
	exitCancelled = 1
	exitError     = 2
)

type options struct {
	configPath   string
	initConfig   bool
	selectPath   string
	separator    string
	separatorSet bool
	title        string
	jsonOut      bool
	copyOut      bool
	resume       bool
	historyN     int
	noWatch      bool
	printColumns bool
	showVersion  bool
	showHelp     bool
	files        []string
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func parseFlags(args []string, stderr io.Writer) (options, *flag.FlagSet, error) {
	var opts options
	fs := flag.NewFlagSet("cpick", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.configPath, "config", "", "Config file (default: $CPICK_CONFIG, .cpick.yaml, ~/.config/cpick/config.yaml)")
	fs.BoolVar(&opts.initConfig, "init", false, "Write a config file interactively")
	fs.StringVar(&opts.selectPath, "select", "", "Initial path as comma separated row indices (e.g. 0,2,1)")
	fs.StringVar(&opts.separator, "separator", "", "Separator between selected labels")
	fs.StringVar(&opts.title, "title", "", "Title shown in the picker header")
	fs.BoolVar(&opts.jsonOut, "json", false, "Print the result as JSON")
	fs.BoolVar(&opts.copyOut, "copy", false, "Copy the selected text to the clipboard")
	fs.BoolVar(&opts.resume, "resume", false, "Start from the last pick made over the same files")
	fs.IntVar(&opts.historyN, "history", 0, "Print the N most recent picks and exit")
	fs.BoolVar(&opts.noWatch, "no-watch", false, "Do not reload when the data files change")
	fs.BoolVar(&opts.printColumns, "print-columns", false, "Print the columns for the initial path without opening the picker")
	fs.BoolVar(&opts.showVersion, "version", false, "Show version")
	fs.BoolVar(&opts.showHelp, "help", false, "Show help")
	if err := fs.Parse(args); err != nil {
		return opts, fs, err
	}
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "separator" {
			opts.separatorSet = true
		}
	})
	opts.files = fs.Args()
	return opts, fs, nil
}

func usage(w io.Writer, fs *flag.FlagSet) {
	fmt.Fprintln(w, "Usage: cpick [options] FILE...")
	fmt.Fprintln(w, "\nPick a path through tree-shaped JSON or YAML data, one column per level.")
	fmt.Fprintln(w, "Use - to read JSON from stdin.")
	fmt.Fprintln(w, "\nExit status: 0 confirmed, 1 cancelled, 2 error.")
	fmt.Fprintln(w, "\nOptions:")
	fs.SetOutput(w)
	fs.PrintDefaults()
}

func run(args []string, stdout, stderr io.Writer) int {
	opts, fs, err := parseFlags(args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		usage(stdout, fs)
		return exitOK
	}
	if err != nil {
		return exitError
	}
	if opts.showHelp {
		usage(stdout, fs)
		return exitOK
	}
	if opts.showVersion {
		fmt.Fprintf(stdout, "cpick %s\n", version.Version)
		return exitOK
	}

	closeLog, err := setupLogging()
	if err != nil {
		fmt.Fprintf(stderr, "Warning: debug log disabled: %v\n", err)
	}
	defer closeLog()

	if opts.initConfig {
		path := opts.configPath
		if path == "" {
			path = config.UserConfigPath()
		}
		if err := runInitWizard(path, stdout); err != nil {
			if errors.Is(err, errWizardAborted) {
				return exitCancelled
			}
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return exitError
		}
		return exitOK
	}

	cfg, sources, err := config.LoadDefault(opts.configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error loading config: %v\n", err)
		return exitError
	}
	log.Printf("config sources: %v", sources)
	if opts.separatorSet {
		cfg.Separator = opts.separator
	}

	ctx := context.Background()

	if opts.historyN > 0 {
		if err := printHistory(ctx, stdout, cfg.HistoryPath(), opts.historyN, opts.jsonOut); err != nil {
			fmt.Fprintf(stderr, "Error reading history: %v\n", err)
			return exitError
		}
		return exitOK
	}

	if len(opts.files) == 0 {
		fmt.Fprintln(stderr, "Error: no data files given")
		usage(stderr, fs)
		return exitError
	}

	tree, err := loader.LoadTrees(ctx, opts.files, cfg.Keys)
	if err != nil {
		fmt.Fprintf(stderr, "Error loading data: %v\n", err)
		return exitError
	}

	source := history.SourceKey(opts.files)
	initial, err := initialPath(ctx, opts, &cfg, source)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitError
	}

	if opts.printColumns {
		printColumns(stdout, cascade.ComputeModelSep(tree, initial, cfg.Separator))
		return exitOK
	}

	res, err := runPicker(tree, initial, opts, &cfg)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitError
	}
	if res.Err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", res.Err)
		return exitError
	}
	if !res.Confirmed {
		return exitCancelled
	}

	if err := writeResult(stdout, res, opts.jsonOut); err != nil {
		fmt.Fprintf(stderr, "Error writing result: %v\n", err)
		return exitError
	}
	if opts.copyOut {
		if err := clipboard.WriteAll(res.Text); err != nil {
			fmt.Fprintf(stderr, "Warning: could not copy to clipboard: %v\n", err)
		}
	}
	if cfg.HistoryEnabled() {
		recordPick(ctx, cfg.HistoryPath(), history.Pick{
			Source: source,
			Path:   res.Path,
			Labels: res.Labels,
			Text:   res.Text,
		})
	}
	return exitOK
}

// setupLogging sends log output to a file when CPICK_DEBUG is set and drops
// it otherwise, since the TUI owns the terminal.
func setupLogging() (func(), error) {
	if os.Getenv("CPICK_DEBUG") == "" {
		log.SetOutput(io.Discard)
		return func() {}, nil
	}
	path := os.Getenv("CPICK_LOG")
	if path == "" {
		path = "cpick-debug.log"
	}
	f, err := tea.LogToFile(path, "cpick")
	if err != nil {
		log.SetOutput(io.Discard)
		return func() {}, err
	}
	return func() { _ = f.Close() }, nil
}

// initialPath resolves --select, then --resume, then the empty path.
func initialPath(ctx context.Context, opts options, cfg *config.Config, source string) (model.Path, error) {
	if opts.selectPath != "" {
		path, err := model.ParsePath(opts.selectPath)
		if err != nil {
			return nil, fmt.Errorf("--select: %w", err)
		}
		return path, nil
	}
	if !opts.resume {
		return nil, nil
	}
	if !cfg.HistoryEnabled() {
		log.Printf("warning: --resume ignored, history is disabled")
		return nil, nil
	}

	store, err := history.Open(cfg.HistoryPath())
	if err != nil {
		return nil, err
	}
	defer store.Close()

	last, err := store.Last(ctx, source)
	if errors.Is(err, history.ErrNoPicks) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return last.Path, nil
}

func runPicker(tree []model.Node, initial model.Path, opts options, cfg *config.Config) (ui.Result, error) {
	var out io.Writer = os.Stdout
	progOpts := []tea.ProgramOption{}

	// Keep stdout clean for the result when it is piped.
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		out = os.Stderr
		progOpts = append(progOpts, tea.WithOutput(os.Stderr))
	}
	if readsStdin(opts.files) || !term.IsTerminal(int(os.Stdin.Fd())) {
		progOpts = append(progOpts, tea.WithInputTTY())
	}
	if cfg.AltScreenEnabled() {
		progOpts = append(progOpts, tea.WithAltScreen())
	}
	if cfg.MouseEnabled() {
		progOpts = append(progOpts, tea.WithMouseCellMotion())
	}

	theme := ui.DefaultTheme(lipgloss.NewRenderer(out))
	app, err := ui.NewApp(tree, ui.CityPickerOptions{
		Title:     pickerTitle(opts),
		Separator: cfg.Separator,
		Initial:   initial,
		Lang: ui.PickerLang{
			Cancel:  cfg.Lang.Cancel,
			Confirm: cfg.Lang.Confirm,
		},
		CloseDelay:    cfg.CloseDelay,
		VisibleRows:   cfg.UI.VisibleRows,
		MaxLabelWidth: cfg.UI.MaxLabelWidth,
	}, theme)
	if err != nil {
		return ui.Result{}, err
	}

	p := tea.NewProgram(app, progOpts...)

	if cfg.WatchEnabled() && !opts.noWatch {
		worker, err := ui.NewTreeWorker(ui.WorkerConfig{
			Paths:   opts.files,
			Keys:    cfg.Keys,
			Program: p,
		})
		if err != nil {
			log.Printf("warning: live reload disabled: %v", err)
		} else {
			if err := worker.Start(); err != nil {
				log.Printf("warning: live reload disabled: %v", err)
			}
			defer worker.Stop()
		}
	}

	final, err := p.Run()
	if err != nil {
		return ui.Result{}, fmt.Errorf("running picker: %w", err)
	}
	finalApp, ok := final.(ui.App)
	if !ok {
		return ui.Result{}, fmt.Errorf("unexpected model %T", final)
	}
	return finalApp.Result(), nil
}

func readsStdin(files []string) bool {
	for _, f := range files {
		if f == loader.Stdin {
			return true
		}
	}
	return false
}

func pickerTitle(opts options) string {
	if opts.title != "" {
		return opts.title
	}
	if len(opts.files) == 1 && opts.files[0] != loader.Stdin {
		return filepath.Base(opts.files[0])
	}
	return ""
}

// jsonResult is the --json output shape
type jsonResult struct {
	Text   string     `json:"text"`
	Path   model.Path `json:"path"`
	Labels []string   `json:"labels"`
}

func writeResult(w io.Writer, res ui.Result, asJSON bool) error {
	if !asJSON {
		_, err := fmt.Fprintln(w, res.Text)
		return err
	}
	out := jsonResult{Text: res.Text, Path: res.Path, Labels: res.Labels}
	if out.Path == nil {
		out.Path = model.Path{}
	}
	if out.Labels == nil {
		out.Labels = []string{}
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(out)
}

// printColumns writes one line per column with the selected row in brackets,
// followed by the display text.
func printColumns(w io.Writer, m model.PickerModel) {
	if len(m.Levels) == 0 {
		fmt.Fprintln(w, "(no data)")
		return
	}
	for i, level := range m.Levels {
		cells := make([]string, len(level))
		for j, row := range level {
			label := row.Label
			if row.Disabled {
				label = "~" + label
			}
			if j == m.Path[i] {
				label = "[" + label + "]"
			}
			cells[j] = label
		}
		fmt.Fprintf(w, "%d: %s\n", i, strings.Join(cells, " "))
	}
	fmt.Fprintf(w, "path: %s\n", m.Path)
	fmt.Fprintf(w, "text: %s\n", m.DisplayText)
}

func printHistory(ctx context.Context, w io.Writer, dbPath string, n int, asJSON bool) error {
	store, err := history.Open(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	picks, err := store.Recent(ctx, n)
	if err != nil {
		return err
	}
	if asJSON {
		if picks == nil {
			picks = []history.Pick{}
		}
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(picks)
	}
	for _, p := range picks {
		fmt.Fprintf(w, "%s  %-12s  %s\n", p.PickedAt.Local().Format(time.DateTime), p.Path, p.Text)
	}
	return nil
}

func recordPick(ctx context.Context, dbPath string, p history.Pick) {
	store, err := history.Open(dbPath)
	if err != nil {
		log.Printf("warning: recording pick: %v", err)
		return
	}
	defer store.Close()
	if _, err := store.Record(ctx, p); err != nil {
		log.Printf("warning: recording pick: %v", err)
	}
}
