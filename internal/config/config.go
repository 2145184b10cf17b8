// Package config handles TOML-based configuration loading and validation.
// Defaults are merged with the config file; CLI flags override both.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Timeout bounds for the browser session, in seconds.
const (
	MinTimeoutSeconds = 5
	MaxTimeoutSeconds = 600
)

// DefaultTimeoutSeconds is how long the sniffer waits for media responses.
const DefaultTimeoutSeconds = 35

// Config holds all application configuration.
type Config struct {
	OutputDir      string `toml:"output_dir"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	Headful        bool   `toml:"headful"`
	UserDataDir    string `toml:"user_data_dir"`
	FFmpegPath     string `toml:"ffmpeg_path"`
	Debug          bool   `toml:"debug"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		OutputDir:      "~/Downloads",
		TimeoutSeconds: DefaultTimeoutSeconds,
		Headful:        false,
		UserDataDir:    "",
		FFmpegPath:     "ffmpeg",
		Debug:          false,
	}
}

// configDir returns the XDG-compliant config directory.
func configDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "tvd"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".config", "tvd"), nil
}

// ConfigPath returns the path to the config file.
func ConfigPath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load reads the config file and merges with defaults.
// If the config file doesn't exist, defaults are returned.
func Load() (*Config, error) {
	cfg := Default()

	path, err := ConfigPath()
	if err != nil {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Validate checks config values are within acceptable bounds.
func (c *Config) Validate() error {
	if c.TimeoutSeconds < MinTimeoutSeconds || c.TimeoutSeconds > MaxTimeoutSeconds {
		return fmt.Errorf("timeout_seconds %d out of range (%d..%d)",
			c.TimeoutSeconds, MinTimeoutSeconds, MaxTimeoutSeconds)
	}
	if c.OutputDir == "" {
		return fmt.Errorf("output_dir cannot be empty")
	}
	if c.FFmpegPath == "" {
		return fmt.Errorf("ffmpeg_path cannot be empty")
	}
	return nil
}

// ExpandOutputDir resolves ~ in the output directory path.
func (c *Config) ExpandOutputDir() (string, error) {
	dir := c.OutputDir
	if strings.HasPrefix(dir, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("expanding home dir: %w", err)
		}
		dir = filepath.Join(home, dir[2:])
	}
	return filepath.Abs(dir)
}
