// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config manages surya configuration.
//
// Configuration is loaded from ~/.surya/config.toml, with environment
// variables taking precedence over file values. A missing file is not an
// error; defaults apply.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
)

// =============================================================================
// CONFIGURATION TYPES
// =============================================================================

// Config is the root configuration.
type Config struct {
	// Backend configures the HTTP API client.
	Backend BackendConfig `toml:"backend" json:"backend"`

	// Server configures the reference backend server.
	Server ServerConfig `toml:"server" json:"server"`

	// UI configures the terminal interface.
	UI UIConfig `toml:"ui" json:"ui"`
}

// BackendConfig configures how the client reaches the backend.
type BackendConfig struct {
	// BaseURL is the backend base URL; /api is appended per request.
	BaseURL string `toml:"base_url" json:"base_url"`

	// TimeoutSecs bounds every call except message sends.
	TimeoutSecs int `toml:"timeout_secs" json:"timeout_secs"`

	// Mock switches to the in-process simulated backend.
	Mock bool `toml:"mock" json:"mock"`
}

// ServerConfig configures `surya serve`.
type ServerConfig struct {
	// Port the server listens on.
	Port int `toml:"port" json:"port"`

	// DatabasePath is the SQLite database location.
	DatabasePath string `toml:"database_path" json:"database_path"`

	// ThinkingDelayMs is the simulated inference latency in milliseconds.
	ThinkingDelayMs int `toml:"thinking_delay_ms" json:"thinking_delay_ms"`
}

// UIConfig configures the terminal interface.
type UIConfig struct {
	// Theme is "dark" or "light".
	Theme string `toml:"theme" json:"theme"`

	// ShowTimestamps toggles per-message timestamps in the transcript.
	ShowTimestamps bool `toml:"show_timestamps" json:"show_timestamps"`

	// SidebarWidth is the chat list width in columns.
	SidebarWidth int `toml:"sidebar_width" json:"sidebar_width"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Backend: BackendConfig{
			BaseURL:     "http://127.0.0.1:8787",
			TimeoutSecs: 30,
		},
		Server: ServerConfig{
			Port:            8787,
			DatabasePath:    "", // resolved to ~/.surya/surya.db at load
			ThinkingDelayMs: 2000,
		},
		UI: UIConfig{
			Theme:          "dark",
			ShowTimestamps: false,
			SidebarWidth:   32,
		},
	}
}

// =============================================================================
// PATHS
// =============================================================================

// ConfigDir returns ~/.surya.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".surya"), nil
}

// ConfigPath returns ~/.surya/config.toml.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// EnsureConfigDir creates ~/.surya if missing.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0700)
}

// =============================================================================
// LOADING
// =============================================================================

// Load reads the config file, fills defaults, and applies environment
// overrides. A missing file yields defaults with no error.
func Load() (*Config, error) {
	cfg := Default()

	path, err := ConfigPath()
	if err == nil {
		if _, statErr := os.Stat(path); statErr == nil {
			if err := LoadFromPath(cfg, path); err != nil {
				return nil, err
			}
		}
	}

	cfg.ApplyEnvOverrides()
	if err := cfg.fillDefaults(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadFromPath decodes a TOML file into cfg.
func LoadFromPath(cfg *Config, path string) error {
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	return nil
}

// Save writes the config as TOML to the default path.
func Save(cfg *Config) error {
	if err := EnsureConfigDir(); err != nil {
		return err
	}
	path, err := ConfigPath()
	if err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// fillDefaults resolves values that depend on the environment.
func (c *Config) fillDefaults() error {
	if c.Server.DatabasePath == "" {
		dir, err := ConfigDir()
		if err != nil {
			return err
		}
		c.Server.DatabasePath = filepath.Join(dir, "surya.db")
	}
	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies SURYA_* environment variables over file values.
func (c *Config) ApplyEnvOverrides() {
	if url := os.Getenv("SURYA_BACKEND_URL"); url != "" {
		c.Backend.BaseURL = url
	}
	if mock := os.Getenv("SURYA_MOCK"); mock != "" {
		c.Backend.Mock = mock == "1" || strings.ToLower(mock) == "true"
	}
	if port := os.Getenv("SURYA_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Server.Port = p
		}
	}
	if db := os.Getenv("SURYA_DB"); db != "" {
		c.Server.DatabasePath = db
	}
	if theme := os.Getenv("SURYA_THEME"); theme != "" {
		c.UI.Theme = theme
	}
}

// =============================================================================
// VALIDATION
// =============================================================================

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.Backend.TimeoutSecs <= 0 {
		return fmt.Errorf("backend.timeout_secs must be positive, got %d", c.Backend.TimeoutSecs)
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if c.Server.ThinkingDelayMs < 0 {
		return fmt.Errorf("server.thinking_delay_ms must not be negative, got %d", c.Server.ThinkingDelayMs)
	}
	switch c.UI.Theme {
	case "dark", "light":
	default:
		return fmt.Errorf("ui.theme must be dark or light, got %q", c.UI.Theme)
	}
	if c.UI.SidebarWidth < 16 {
		return fmt.Errorf("ui.sidebar_width too small: %d", c.UI.SidebarWidth)
	}
	return nil
}

// =============================================================================
// SINGLETON PATTERN (THREAD-SAFE)
// =============================================================================

var (
	globalConfig     *Config
	globalConfigOnce sync.Once
	globalConfigMu   sync.RWMutex
)

// Global returns the global configuration, loading it on first access.
func Global() *Config {
	globalConfigOnce.Do(func() {
		if globalConfig != nil {
			// Already injected via SetGlobal.
			return
		}
		cfg, err := Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
			cfg = Default()
			cfg.ApplyEnvOverrides()
			if err := cfg.fillDefaults(); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: %v (database path unset)\n", err)
			}
		}
		globalConfig = cfg
	})

	globalConfigMu.RLock()
	defer globalConfigMu.RUnlock()
	return globalConfig
}

// ReloadGlobal reloads the global configuration from disk.
func ReloadGlobal() error {
	cfg, err := Load()
	if err != nil {
		return err
	}
	globalConfigMu.Lock()
	globalConfig = cfg
	globalConfigMu.Unlock()
	return nil
}

// SetGlobal replaces the global configuration.
func SetGlobal(cfg *Config) {
	globalConfigMu.Lock()
	globalConfig = cfg
	globalConfigMu.Unlock()
}

// ResetGlobalForTesting resets singleton state between test runs.
func ResetGlobalForTesting() {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = nil
	globalConfigOnce = sync.Once{}
}
