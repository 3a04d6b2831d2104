// Package config loads and saves the CLI/REPL's user-facing settings as
// a TOML file: history size, color output, prompt strings, and default
// register sizing.
package config

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

// Config holds every user-tunable setting for the isb CLI and REPL.
type Config struct {
	REPL struct {
		HistorySize int    `toml:"history_size"`
		ColorOutput bool   `toml:"color_output"`
		Prompt      string `toml:"prompt"`
		ContPrompt  string `toml:"continuation_prompt"`
	} `toml:"repl"`

	Engine struct {
		InitialRegisterCount int `toml:"initial_register_count"`
	} `toml:"engine"`
}

// DefaultConfig returns the configuration used when no config file is
// present, or as the base a loaded file's settings are merged onto.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.REPL.HistorySize = 1000
	cfg.REPL.ColorOutput = true
	cfg.REPL.Prompt = "] "
	cfg.REPL.ContPrompt = "> "
	cfg.Engine.InitialRegisterCount = 16
	return cfg
}

// GetConfigPath returns the platform-specific default config file path,
// creating its containing directory if necessary.
func GetConfigPath() string {
	var dir string

	switch runtime.GOOS {
	case "windows":
		dir = os.Getenv("APPDATA")
		if dir == "" {
			dir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		dir = filepath.Join(dir, "isb")

	case "darwin", "linux":
		home, err := os.UserHomeDir()
		if err != nil {
			return "isb.toml"
		}
		dir = filepath.Join(home, ".config", "isb")

	default:
		return "isb.toml"
	}

	if err := os.MkdirAll(dir, 0750); err != nil {
		return "isb.toml"
	}
	return filepath.Join(dir, "config.toml")
}

// Load loads configuration from the default config file path.
func Load() (*Config, error) {
	return LoadFrom(GetConfigPath())
}

// LoadFrom loads configuration from path. A missing file is not an
// error: it yields DefaultConfig unchanged.
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse config file")
	}
	return cfg, nil
}

// Save writes c to the default config file path.
func (c *Config) Save() error {
	return c.SaveTo(GetConfigPath())
}

// SaveTo writes c to path in TOML format.
func (c *Config) SaveTo(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return errors.Wrap(err, "failed to create config directory")
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "failed to create config file")
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(c)
}
