// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoaderSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")

	cfg := &Config{
		Channels: map[string]*Channel{
			"telegram": {
				Type:        "telegram",
				Credentials: Credentials{BotToken: "123:abc"},
				PairedUsers: []PairedUser{
					{UserID: "telegram:42", Username: "alice", PairedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)},
				},
				LinkedGroups: []LinkedGroup{
					{ChatID: "telegram:-100555", Title: "eng", LinkedAt: time.Date(2026, 1, 3, 0, 0, 0, 0, time.UTC)},
				},
			},
		},
	}

	l := NewLoader()
	require.NoError(t, l.Save(path, cfg))

	loaded, err := l.Load(path)
	require.NoError(t, err)

	require.Len(t, loaded.Channels, 1)
	tg := loaded.Channels["telegram"]
	require.NotNil(t, tg)
	assert.Equal(t, "123:abc", tg.Credentials.BotToken)
	require.Len(t, tg.PairedUsers, 1)
	assert.Equal(t, "alice", tg.PairedUsers[0].Username)
	assert.True(t, tg.PairedUsers[0].PairedAt.Equal(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)))
	require.Len(t, tg.LinkedGroups, 1)
	assert.Equal(t, "eng", tg.LinkedGroups[0].Title)
}

func TestLoaderLoadMissingFile(t *testing.T) {
	l := NewLoader()
	_, err := l.Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestLoaderLoadWithDefaultsOnMissingFile(t *testing.T) {
	l := NewLoader()
	cfg, err := l.LoadWithDefaults(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)
	assert.Equal(t, 400, cfg.Settings.OutputBatchMinMs)
	assert.Equal(t, 20, cfg.Settings.MaxSessions)
	assert.NotNil(t, cfg.Channels)
}

func TestApplyDefaultsDoesNotOverrideSetValues(t *testing.T) {
	cfg := &Config{Settings: Settings{MaxSessions: 5}}
	applyDefaults(cfg)
	assert.Equal(t, 5, cfg.Settings.MaxSessions)
	assert.Equal(t, 400, cfg.Settings.OutputBatchMinMs)
}
