// Package config reads and writes the cxburn configuration and the pricing
// seed file, both TOML under the XDG config directory.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config holds all cxburn configuration.
type Config struct {
	General GeneralConfig `toml:"general"`
}

// GeneralConfig holds general preferences.
type GeneralConfig struct {
	CodexHome    string `toml:"codex_home,omitempty"`
	DBPath       string `toml:"db_path,omitempty"`
	DefaultRange string `toml:"default_range,omitempty"`
}

// ConfigDir returns the XDG-compliant config directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "cxburn")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "cxburn")
}

// DataDir returns the XDG-compliant data directory, where the database lives.
func DataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "cxburn")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "cxburn")
}

// ConfigPath returns the full path to the config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// DBPath returns the database path, honoring the config override.
func (c Config) DBPath() string {
	if c.General.DBPath != "" {
		return c.General.DBPath
	}
	return filepath.Join(DataDir(), "cxburn.db")
}

// CodexHome returns the usage home to ingest from: the config value, then
// $CODEX_HOME, then ~/.codex.
func (c Config) CodexHome() string {
	if c.General.CodexHome != "" {
		return c.General.CodexHome
	}
	if env := os.Getenv("CODEX_HOME"); env != "" {
		return env
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".codex")
}

// Load reads the config file, returning defaults if it doesn't exist.
func Load() (Config, error) {
	var cfg Config

	data, err := os.ReadFile(ConfigPath())
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// Save writes the config to disk.
func Save(cfg Config) error {
	if err := os.MkdirAll(ConfigDir(), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(ConfigPath(), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer func() { _ = f.Close() }()

	enc := toml.NewEncoder(f)
	return enc.Encode(cfg)
}
