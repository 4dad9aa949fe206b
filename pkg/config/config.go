// Package config handles loading and saving expandable configuration.
//
// Configuration follows the XDG Base Directory specification:
//   - Config:  ~/.config/expandable/config.yaml
//   - State:   ~/.local/state/expandable/ (saved sticky header and collapse state)
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/vanderheijden86/expandable/pkg/grouping"
	"github.com/vanderheijden86/expandable/pkg/model"
)

const appName = "expandable"

// HeaderConfig overrides the header generated for one grouping key.
type HeaderConfig struct {
	Key       string   `yaml:"key"`
	Name      string   `yaml:"name,omitempty"`
	Rules     []string `yaml:"rules,omitempty"` // e.g. drag_in_disabled, temporary
	Collapsed bool     `yaml:"collapsed,omitempty"`
}

// Config is the top-level configuration.
type Config struct {
	Drag            bool           `yaml:"drag"`
	Swipe           bool           `yaml:"swipe"`
	StickyHeader    bool           `yaml:"sticky_header"`
	HeaderHeight    int            `yaml:"header_height,omitempty"` // rows
	InitialHeaders  []string       `yaml:"initial_headers,omitempty"`
	UnkeyedHeader   string         `yaml:"unkeyed_header,omitempty"` // key for items without one
	Headers         []HeaderConfig `yaml:"headers,omitempty"`
	PersistState    bool           `yaml:"persist_state"`
	WatchDebounceMs int            `yaml:"watch_debounce_ms,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Drag:            true,
		Swipe:           true,
		StickyHeader:    true,
		HeaderHeight:    1,
		UnkeyedHeader:   "(none)",
		PersistState:    true,
		WatchDebounceMs: 200,
	}
}

// ConfigDir returns the XDG config directory.
func ConfigDir() string {
	return xdgDir("XDG_CONFIG_HOME", ".config")
}

// StateDir returns the XDG state directory.
func StateDir() string {
	return xdgDir("XDG_STATE_HOME", filepath.Join(".local", "state"))
}

func xdgDir(env, fallback string) string {
	if dir := os.Getenv(env); dir != "" {
		return filepath.Join(dir, appName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, fallback, appName)
}

// ConfigPath returns the full path to config.yaml.
func ConfigPath() string {
	dir := ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// StatePath returns the path of the saved list state for the items file
// at itemsPath. Each items file gets its own state file.
func StatePath(itemsPath string) string {
	dir := StateDir()
	if dir == "" {
		return ""
	}
	base := strings.TrimSuffix(filepath.Base(itemsPath), filepath.Ext(itemsPath))
	if base == "" || base == "." {
		base = "default"
	}
	return filepath.Join(dir, base+".state.json")
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
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks header rules and sizes.
func (c Config) Validate() error {
	if c.HeaderHeight < 0 {
		return fmt.Errorf("header_height must not be negative, got %d", c.HeaderHeight)
	}
	seen := make(map[string]bool, len(c.Headers))
	for _, h := range c.Headers {
		if seen[h.Key] {
			return fmt.Errorf("duplicate header key %q", h.Key)
		}
		seen[h.Key] = true
		if _, err := model.ParseRules(h.Rules); err != nil {
			return fmt.Errorf("header %q: %w", h.Key, err)
		}
	}
	return nil
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

// FindHeader returns the override for key, or nil.
func (c Config) FindHeader(key string) *HeaderConfig {
	for i := range c.Headers {
		if c.Headers[i].Key == key {
			return &c.Headers[i]
		}
	}
	return nil
}

// HeaderFunc returns a header generator applying the configured overrides.
// Items without a key are grouped under UnkeyedHeader.
func (c Config) HeaderFunc() grouping.HeaderFunc[string] {
	return func(key string, hasKey bool) model.HeaderSpec[string] {
		if !hasKey {
			key = c.UnkeyedHeader
		}
		spec := model.HeaderSpec[string]{Name: key, Key: key}
		if h := c.FindHeader(key); h != nil {
			if h.Name != "" {
				spec.Name = h.Name
			}
			// Validate rejects unknown rules.
			spec.Rules, _ = model.ParseRules(h.Rules)
			spec.Collapsed = h.Collapsed
		}
		return spec
	}
}
