// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"testing"
)

// =============================================================================
// DEFAULTS TESTS
// =============================================================================

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.API.BaseURL != "http://127.0.0.1:8000" {
		t.Errorf("default base_url = %q", cfg.API.BaseURL)
	}
	if cfg.API.Token != "" {
		t.Error("default token should be empty")
	}
	if cfg.Chat.HistoryLimit != 0 {
		t.Errorf("default history_limit = %d, want 0 (uncapped)", cfg.Chat.HistoryLimit)
	}
	if !cfg.UI.ShowThoughts {
		t.Error("thoughts should be shown by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

// =============================================================================
// VALIDATION TESTS
// =============================================================================

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid defaults", func(c *Config) {}, false},
		{"https url", func(c *Config) { c.API.BaseURL = "https://api.example.com" }, false},
		{"empty url", func(c *Config) { c.API.BaseURL = "" }, true},
		{"no scheme", func(c *Config) { c.API.BaseURL = "localhost:8000" }, true},
		{"bad scheme", func(c *Config) { c.API.BaseURL = "ftp://example.com" }, true},
		{"negative history limit", func(c *Config) { c.Chat.HistoryLimit = -1 }, true},
		{"negative wrap width", func(c *Config) { c.UI.WrapWidth = -5 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

// =============================================================================
// ENVIRONMENT OVERRIDE TESTS
// =============================================================================

func TestApplyEnv(t *testing.T) {
	t.Setenv("CREATY_API_URL", "https://creaty.example.com")
	t.Setenv("CREATY_TOKEN", "env-token")
	t.Setenv("CREATY_PROJECT_ID", "proj-42")
	t.Setenv("CREATY_HISTORY_LIMIT", "12")

	cfg := Default()
	applyEnv(cfg)

	if cfg.API.BaseURL != "https://creaty.example.com" {
		t.Errorf("base_url = %q", cfg.API.BaseURL)
	}
	if cfg.API.Token != "env-token" {
		t.Errorf("token = %q", cfg.API.Token)
	}
	if cfg.API.ProjectID != "proj-42" {
		t.Errorf("project_id = %q", cfg.API.ProjectID)
	}
	if cfg.Chat.HistoryLimit != 12 {
		t.Errorf("history_limit = %d", cfg.Chat.HistoryLimit)
	}
}

func TestApplyEnv_InvalidHistoryLimitIgnored(t *testing.T) {
	t.Setenv("CREATY_HISTORY_LIMIT", "not-a-number")

	cfg := Default()
	applyEnv(cfg)
	if cfg.Chat.HistoryLimit != 0 {
		t.Errorf("invalid env override changed history_limit to %d", cfg.Chat.HistoryLimit)
	}

	t.Setenv("CREATY_HISTORY_LIMIT", "-3")
	applyEnv(cfg)
	if cfg.Chat.HistoryLimit != 0 {
		t.Errorf("negative env override changed history_limit to %d", cfg.Chat.HistoryLimit)
	}
}
