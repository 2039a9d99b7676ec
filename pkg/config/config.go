// Package config handles loading and saving foldview configuration.
//
// Configuration follows the XDG Base Directory specification:
//   - Config: ~/.config/fv/config.yaml
//   - State:  ~/.local/state/fv/
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// UIConfig holds viewer preference settings.
type UIConfig struct {
	PageSize    int    `yaml:"page_size,omitempty"`    // Rows fetched per window (default: terminal height)
	IndentWidth int    `yaml:"indent_width,omitempty"` // Cells per depth level (default 2)
	SortField   string `yaml:"sort_field,omitempty"`   // Initial backend sort field
	SortDesc    bool   `yaml:"sort_desc,omitempty"`    // Initial sort direction
}

// WatchConfig controls the database file watcher.
type WatchConfig struct {
	Disabled     bool          `yaml:"disabled,omitempty"`
	ForcePoll    bool          `yaml:"force_poll,omitempty"`
	PollInterval time.Duration `yaml:"poll_interval,omitempty"`
}

// Config is the top-level configuration for fv.
type Config struct {
	// DatabasePath points at the nodes database. Empty means discover the
	// freshest candidate under the data directory.
	DatabasePath string `yaml:"database_path,omitempty"`
	// DataDir is the directory scanned during discovery (default .foldview).
	DataDir string `yaml:"data_dir,omitempty"`
	// LockRoots forbids collapsing root-level branches via the
	// collapse-allowed predicate.
	LockRoots bool        `yaml:"lock_roots,omitempty"`
	UI        UIConfig    `yaml:"ui,omitempty"`
	Watch     WatchConfig `yaml:"watch,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		UI: UIConfig{
			IndentWidth: 2,
		},
	}
}

// ConfigDir returns the XDG config directory for fv.
func ConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "fv")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "fv")
}

// ConfigPath returns the full path to config.yaml.
func ConfigPath() string {
	dir := ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// Load reads the config file from the XDG config directory.
// Returns DefaultConfig if the file doesn't exist.
func Load() (Config, error) {
	path := ConfigPath()
	if path == "" {
		return DefaultConfig(), nil
	}
	return LoadFrom(path)
}

// LoadFrom reads config from a specific path.
// Returns DefaultConfig if the file doesn't exist.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	cfg.DatabasePath = expandHome(cfg.DatabasePath)
	cfg.DataDir = expandHome(cfg.DataDir)
	if cfg.UI.IndentWidth <= 0 {
		cfg.UI.IndentWidth = 2
	}

	return cfg, nil
}

// Save writes the config to the XDG config directory.
func Save(cfg Config) error {
	path := ConfigPath()
	if path == "" {
		return fmt.Errorf("cannot determine config directory")
	}
	return SaveTo(cfg, path)
}

// SaveTo writes the config to a specific path.
func SaveTo(cfg Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// expandHome replaces a leading ~ with the user's home directory.
func expandHome(path string) string {
	if path == "" || !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	if path == "~" {
		return home
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(home, path[2:])
	}
	return path
}
