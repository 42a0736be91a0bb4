// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrNotConfigured is returned by Load when config.json does not exist yet.
var ErrNotConfigured = errors.New("config: not configured")

// Loader reads and writes the strict-JSON config.json file. Unlike the
// teacher's HJSON loader, touchgrass's config file is machine-written (by
// "tg setup"/"tg pair") rather than hand-authored, so the relaxed HJSON
// syntax has no reader to serve; see DESIGN.md.
type Loader struct{}

// NewLoader creates a new config loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load reads and parses config.json at path.
func (l *Loader) Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotConfigured
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

// LoadWithDefaults loads config.json, returning a fresh zero-valued Config
// (with defaults applied) rather than an error when the file is absent --
// used by "tg setup" on first run.
func (l *Loader) LoadWithDefaults(path string) (*Config, error) {
	cfg, err := l.Load(path)
	if err != nil {
		if errors.Is(err, ErrNotConfigured) {
			cfg = &Config{}
			applyDefaults(cfg)
			return cfg, nil
		}
		return nil, err
	}
	return cfg, nil
}

// Save writes cfg to path atomically (write to a temp file, then rename),
// matching the teacher's index-file save pattern, with 0600 permissions per
// the spec's file-layout requirement.
func (l *Loader) Save(path string, cfg *Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("write temp config: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename temp config: %w", err)
	}
	return nil
}

// applyDefaults sets default values for missing config fields.
func applyDefaults(cfg *Config) {
	if cfg.Channels == nil {
		cfg.Channels = make(map[string]*Channel)
	}
	if cfg.ChatPreferences == nil {
		cfg.ChatPreferences = make(map[string]*ChatPreference)
	}

	if cfg.Settings.OutputBatchMinMs == 0 {
		cfg.Settings.OutputBatchMinMs = 400
	}
	if cfg.Settings.OutputBatchMaxMs == 0 {
		cfg.Settings.OutputBatchMaxMs = 2000
	}
	if cfg.Settings.OutputBufferMaxChars == 0 {
		cfg.Settings.OutputBufferMaxChars = 3500
	}
	if cfg.Settings.MaxSessions == 0 {
		cfg.Settings.MaxSessions = 20
	}
	if cfg.Settings.DefaultShell == "" {
		cfg.Settings.DefaultShell = "/bin/sh"
	}
}
