// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading for the Creaty client.
//
// Configuration is TOML, with environment variable overrides and built-in
// defaults. Locations in order of precedence:
//   - CREATY_* environment variables
//   - ~/.creaty/config.toml
//   - Built-in defaults
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"

	"github.com/BurntSushi/toml"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete client configuration.
type Config struct {
	// API contains backend connection settings.
	API APIConfig `toml:"api"`

	// Chat contains conversation behavior settings.
	Chat ChatConfig `toml:"chat"`

	// UI contains rendering settings.
	UI UIConfig `toml:"ui"`
}

// APIConfig contains backend connection configuration.
type APIConfig struct {
	// BaseURL is the Creaty backend base URL.
	BaseURL string `toml:"base_url"`
	// Token is the bearer credential issued by the auth provider. Empty
	// means unauthenticated: chat works, standalone persistence is skipped.
	Token string `toml:"token"`
	// ProjectID, when set, scopes the conversation to that project's
	// workspace chat document instead of standalone sessions.
	ProjectID string `toml:"project_id"`
}

// ChatConfig contains conversation behavior configuration.
type ChatConfig struct {
	// HistoryLimit caps how many prior turns are sent with each request.
	// 0 sends the full history.
	HistoryLimit int `toml:"history_limit"`
}

// UIConfig contains rendering configuration.
type UIConfig struct {
	// ShowThoughts expands the reasoning channel by default.
	ShowThoughts bool `toml:"show_thoughts"`
	// WrapWidth is the markdown render width (0 = terminal width).
	WrapWidth int `toml:"wrap_width"`
}

// =============================================================================
// DEFAULTS AND LOADING
// =============================================================================

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		API: APIConfig{
			BaseURL: "http://127.0.0.1:8000",
		},
		Chat: ChatConfig{
			HistoryLimit: 0,
		},
		UI: UIConfig{
			ShowThoughts: true,
			WrapWidth:    0,
		},
	}
}

// Path returns the configuration file path (~/.creaty/config.toml).
func Path() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".creaty", "config.toml"), nil
}

// Load reads the configuration, applying file values over defaults and
// environment overrides over both. A missing file is not an error.
func Load() (*Config, error) {
	cfg := Default()

	path, err := Path()
	if err == nil {
		if _, err := toml.DecodeFile(path, cfg); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides config fields from CREATY_* environment variables.
func applyEnv(cfg *Config) {
	if v := os.Getenv("CREATY_API_URL"); v != "" {
		cfg.API.BaseURL = v
	}
	if v := os.Getenv("CREATY_TOKEN"); v != "" {
		cfg.API.Token = v
	}
	if v := os.Getenv("CREATY_PROJECT_ID"); v != "" {
		cfg.API.ProjectID = v
	}
	if v := os.Getenv("CREATY_HISTORY_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.Chat.HistoryLimit = n
		}
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid api.base_url %q", c.API.BaseURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("api.base_url must be http or https, got %q", u.Scheme)
	}
	if c.Chat.HistoryLimit < 0 {
		return fmt.Errorf("chat.history_limit must be >= 0, got %d", c.Chat.HistoryLimit)
	}
	if c.UI.WrapWidth < 0 {
		return fmt.Errorf("ui.wrap_width must be >= 0, got %d", c.UI.WrapWidth)
	}
	return nil
}

// Save writes the configuration back to disk, creating ~/.creaty if needed.
func (c *Config) Save() error {
	path, err := Path()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(c)
}
