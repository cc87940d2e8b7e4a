// Package config loads cpick settings from YAML files.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vanderheijden86/cpick/pkg/model"
)

const (
	// EnvConfig names an explicit config file
	EnvConfig = "CPICK_CONFIG"
	// ProjectFile is looked up from the working directory upwards
	ProjectFile = ".cpick.yaml"

	maxCloseDelay  = 10 * time.Second
	maxVisibleRows = 99
)

// Config holds every user-tunable setting. Zero values mean "not set" so that
// configs can be layered with Merge.
type Config struct {
	Keys       model.KeyMapping `yaml:"keys,omitempty" json:"keys,omitempty"`
	Separator  string           `yaml:"separator,omitempty" json:"separator,omitempty"`
	Lang       Lang             `yaml:"lang,omitempty" json:"lang,omitempty"`
	CloseDelay time.Duration    `yaml:"close_delay,omitempty" json:"close_delay,omitempty"`
	UI         UIConfig         `yaml:"ui,omitempty" json:"ui,omitempty"`
	History    HistoryConfig    `yaml:"history,omitempty" json:"history,omitempty"`
	Watch      *bool            `yaml:"watch,omitempty" json:"watch,omitempty"`
}

// Lang holds the action button labels
type Lang struct {
	Cancel  string `yaml:"cancel,omitempty" json:"cancel,omitempty"`
	Confirm string `yaml:"confirm,omitempty" json:"confirm,omitempty"`
}

// UIConfig controls the terminal presentation
type UIConfig struct {
	VisibleRows   int   `yaml:"visible_rows,omitempty" json:"visible_rows,omitempty"`
	MaxLabelWidth int   `yaml:"max_label_width,omitempty" json:"max_label_width,omitempty"`
	AltScreen     *bool `yaml:"alt_screen,omitempty" json:"alt_screen,omitempty"`
	Mouse         *bool `yaml:"mouse,omitempty" json:"mouse,omitempty"`
}

// HistoryConfig controls the pick history database
type HistoryConfig struct {
	Enabled *bool  `yaml:"enabled,omitempty" json:"enabled,omitempty"`
	Path    string `yaml:"path,omitempty" json:"path,omitempty"`
}

func boolPtr(b bool) *bool { return &b }

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Keys:       model.DefaultKeyMapping(),
		Separator:  " ",
		Lang:       Lang{Cancel: "Cancel", Confirm: "Ok"},
		CloseDelay: 300 * time.Millisecond,
		UI: UIConfig{
			VisibleRows:   5,
			MaxLabelWidth: 24,
			AltScreen:     boolPtr(true),
			Mouse:         boolPtr(true),
		},
		History: HistoryConfig{
			Enabled: boolPtr(true),
			Path:    DefaultHistoryPath(),
		},
		Watch: boolPtr(true),
	}
}

// Validate checks the configuration for errors
func (c *Config) Validate() error {
	if c.CloseDelay < 0 || c.CloseDelay > maxCloseDelay {
		return fmt.Errorf("close_delay %v out of range (0 to %v)", c.CloseDelay, maxCloseDelay)
	}
	if c.UI.VisibleRows < 0 || c.UI.VisibleRows > maxVisibleRows {
		return fmt.Errorf("ui.visible_rows %d out of range (0 to %d)", c.UI.VisibleRows, maxVisibleRows)
	}
	if c.UI.MaxLabelWidth < 0 {
		return fmt.Errorf("ui.max_label_width must not be negative")
	}
	k := c.Keys.WithDefaults()
	if k.Label == k.Children || k.Label == k.Disabled || k.Children == k.Disabled {
		return fmt.Errorf("keys must name three different fields, got %q/%q/%q", k.Label, k.Children, k.Disabled)
	}
	return nil
}

// AltScreenEnabled reports whether the TUI takes over the full screen
func (c *Config) AltScreenEnabled() bool { return c.UI.AltScreen == nil || *c.UI.AltScreen }

// MouseEnabled reports whether mouse wheel input is enabled
func (c *Config) MouseEnabled() bool { return c.UI.Mouse == nil || *c.UI.Mouse }

// HistoryEnabled reports whether picks are recorded
func (c *Config) HistoryEnabled() bool { return c.History.Enabled == nil || *c.History.Enabled }

// WatchEnabled reports whether data files are reloaded on change
func (c *Config) WatchEnabled() bool { return c.Watch == nil || *c.Watch }

// HistoryPath returns the history database path with ~ expanded
func (c *Config) HistoryPath() string {
	if c.History.Path == "" {
		return DefaultHistoryPath()
	}
	return expandHome(c.History.Path)
}

// Merge returns base with every field set in override applied on top.
func Merge(base, override Config) Config {
	out := base
	if override.Keys.Label != "" {
		out.Keys.Label = override.Keys.Label
	}
	if override.Keys.Children != "" {
		out.Keys.Children = override.Keys.Children
	}
	if override.Keys.Disabled != "" {
		out.Keys.Disabled = override.Keys.Disabled
	}
	if override.Separator != "" {
		out.Separator = override.Separator
	}
	if override.Lang.Cancel != "" {
		out.Lang.Cancel = override.Lang.Cancel
	}
	if override.Lang.Confirm != "" {
		out.Lang.Confirm = override.Lang.Confirm
	}
	if override.CloseDelay != 0 {
		out.CloseDelay = override.CloseDelay
	}
	if override.UI.VisibleRows != 0 {
		out.UI.VisibleRows = override.UI.VisibleRows
	}
	if override.UI.MaxLabelWidth != 0 {
		out.UI.MaxLabelWidth = override.UI.MaxLabelWidth
	}
	if override.UI.AltScreen != nil {
		out.UI.AltScreen = override.UI.AltScreen
	}
	if override.UI.Mouse != nil {
		out.UI.Mouse = override.UI.Mouse
	}
	if override.History.Enabled != nil {
		out.History.Enabled = override.History.Enabled
	}
	if override.History.Path != "" {
		out.History.Path = override.History.Path
	}
	if override.Watch != nil {
		out.Watch = override.Watch
	}
	return out
}

// Load reads one config file. Unset fields stay zero.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return &cfg, nil
}

// LoadDefault resolves the effective configuration and the files it came
// from. An explicit path (or $CPICK_CONFIG) is used alone; otherwise the user
// config is layered under the nearest project config.
func LoadDefault(explicit string) (Config, []string, error) {
	cfg := Default()

	if explicit == "" {
		explicit = os.Getenv(EnvConfig)
	}
	if explicit != "" {
		path := expandHome(explicit)
		loaded, err := Load(path)
		if err != nil {
			return cfg, nil, err
		}
		return Merge(cfg, *loaded), []string{path}, nil
	}

	var sources []string
	candidates := []string{UserConfigPath()}
	if wd, err := os.Getwd(); err == nil {
		if project, ok := FindProjectConfig(wd); ok {
			candidates = append(candidates, project)
		}
	}
	for _, path := range candidates {
		if path == "" {
			continue
		}
		loaded, err := Load(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return cfg, sources, err
		}
		cfg = Merge(cfg, *loaded)
		sources = append(sources, path)
	}
	return cfg, sources, nil
}

// Save writes cfg as YAML, creating parent directories.
func Save(path string, cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	path = expandHome(path)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// configDir is $XDG_CONFIG_HOME/cpick or ~/.config/cpick
func configDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "cpick")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "cpick")
}

// UserConfigPath returns the per-user config file location
func UserConfigPath() string {
	dir := configDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// DefaultHistoryPath returns the per-user history database location
func DefaultHistoryPath() string {
	dir := configDir()
	if dir == "" {
		return "cpick-history.db"
	}
	return filepath.Join(dir, "history.db")
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
