// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Backend.BaseURL != "http://127.0.0.1:8787" {
		t.Errorf("BaseURL = %q", cfg.Backend.BaseURL)
	}
	if cfg.Backend.TimeoutSecs != 30 {
		t.Errorf("TimeoutSecs = %d, want 30", cfg.Backend.TimeoutSecs)
	}
	if cfg.Server.ThinkingDelayMs != 2000 {
		t.Errorf("ThinkingDelayMs = %d, want 2000", cfg.Server.ThinkingDelayMs)
	}

	cfg.Server.DatabasePath = "x.db"
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoadFromPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[backend]
base_url = "http://example.test:9000"
timeout_secs = 10

[ui]
theme = "light"
sidebar_width = 40
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg := Default()
	if err := LoadFromPath(cfg, path); err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}

	if cfg.Backend.BaseURL != "http://example.test:9000" {
		t.Errorf("BaseURL = %q", cfg.Backend.BaseURL)
	}
	if cfg.Backend.TimeoutSecs != 10 {
		t.Errorf("TimeoutSecs = %d, want 10", cfg.Backend.TimeoutSecs)
	}
	if cfg.UI.Theme != "light" {
		t.Errorf("Theme = %q, want light", cfg.UI.Theme)
	}
	// Untouched sections keep their defaults.
	if cfg.Server.Port != 8787 {
		t.Errorf("Port = %d, want default 8787", cfg.Server.Port)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("SURYA_BACKEND_URL", "http://override.test:1234")
	t.Setenv("SURYA_MOCK", "true")
	t.Setenv("SURYA_PORT", "9999")

	cfg := Default()
	cfg.ApplyEnvOverrides()

	if cfg.Backend.BaseURL != "http://override.test:1234" {
		t.Errorf("BaseURL = %q", cfg.Backend.BaseURL)
	}
	if !cfg.Backend.Mock {
		t.Error("Mock should be set from env")
	}
	if cfg.Server.Port != 9999 {
		t.Errorf("Port = %d, want 9999", cfg.Server.Port)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"valid", func(c *Config) {}, true},
		{"zero timeout", func(c *Config) { c.Backend.TimeoutSecs = 0 }, false},
		{"bad port", func(c *Config) { c.Server.Port = 0 }, false},
		{"negative delay", func(c *Config) { c.Server.ThinkingDelayMs = -1 }, false},
		{"unknown theme", func(c *Config) { c.UI.Theme = "solarized" }, false},
		{"narrow sidebar", func(c *Config) { c.UI.SidebarWidth = 5 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Server.DatabasePath = "x.db"
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.ok && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tt.ok && err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestGlobalSingleton(t *testing.T) {
	ResetGlobalForTesting()
	t.Cleanup(ResetGlobalForTesting)

	cfg := Default()
	cfg.UI.Theme = "light"
	SetGlobal(cfg)

	if Global().UI.Theme != "light" {
		t.Error("SetGlobal should replace the global instance")
	}
}
