// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPreflightIncompleteTelegram(t *testing.T) {
	cfg := &Config{
		Channels: map[string]*Channel{
			"telegram": {
				Type:        "telegram",
				Credentials: Credentials{},
				PairedUsers: []PairedUser{{UserID: "telegram:1"}},
			},
		},
	}
	res := Preflight(cfg)
	assert.False(t, res.OK)
	assert.Contains(t, res.Message, "Telegram setup is incomplete")
}

func TestPreflightOK(t *testing.T) {
	cfg := &Config{
		Channels: map[string]*Channel{
			"telegram": {
				Type:        "telegram",
				Credentials: Credentials{BotToken: "123:abc"},
				PairedUsers: []PairedUser{{UserID: "telegram:1"}},
			},
		},
	}
	res := Preflight(cfg)
	assert.True(t, res.OK)
}

func TestPreflightNoPairedUser(t *testing.T) {
	cfg := &Config{
		Channels: map[string]*Channel{
			"telegram": {Type: "telegram", Credentials: Credentials{BotToken: "123:abc"}},
		},
	}
	res := Preflight(cfg)
	assert.False(t, res.OK)
	assert.Contains(t, res.Message, "paired user")
}

func TestValidateRejectsUnknownChannelType(t *testing.T) {
	cfg := &Config{Channels: map[string]*Channel{"x": {Type: "discord"}}}
	err := Validate(cfg)
	assert.Error(t, err)
}

func TestValidateRejectsBadOutputMode(t *testing.T) {
	cfg := &Config{
		Channels:        map[string]*Channel{},
		ChatPreferences: map[string]*ChatPreference{"telegram:1": {OutputMode: "chatty"}},
	}
	err := Validate(cfg)
	assert.Error(t, err)
}
