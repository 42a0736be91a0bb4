// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package config

import "fmt"

// PreflightResult is returned by Preflight.
type PreflightResult struct {
	OK      bool
	Message string
}

// Preflight checks the minimal configuration requirements from §4.3.1: at
// least one channel with a non-empty bot token and at least one paired
// user, across any channel.
func Preflight(cfg *Config) PreflightResult {
	if cfg == nil || len(cfg.Channels) == 0 {
		return PreflightResult{OK: false, Message: "no channels configured; run \"tg setup\" first"}
	}
	if !cfg.HasAnyBotToken() {
		return PreflightResult{OK: false, Message: "Telegram setup is incomplete: no bot token configured"}
	}
	if !cfg.HasAnyPairedUser() {
		return PreflightResult{OK: false, Message: "no paired user; run \"tg pair\" from the bot chat first"}
	}
	return PreflightResult{OK: true}
}

// Validate returns an error describing the first structural problem found
// in cfg, or nil if cfg is well-formed enough to save.
func Validate(cfg *Config) error {
	for name, ch := range cfg.Channels {
		if ch == nil {
			return fmt.Errorf("channel %q: nil entry", name)
		}
		switch ch.Type {
		case "telegram", "slack", "internal":
		default:
			return fmt.Errorf("channel %q: unknown type %q", name, ch.Type)
		}
	}
	for chatID, pref := range cfg.ChatPreferences {
		if pref == nil {
			continue
		}
		switch pref.OutputMode {
		case "", "simple", "verbose":
		default:
			return fmt.Errorf("chatPreferences[%q]: invalid outputMode %q", chatID, pref.OutputMode)
		}
	}
	return nil
}
