// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package config loads and saves the daemon's config.json file.
package config

import "time"

// Config is the root shape of <TOUCHGRASS_HOME>/config.json.
type Config struct {
	Channels        map[string]*Channel          `json:"channels"`
	Settings        Settings                     `json:"settings"`
	ChatPreferences map[string]*ChatPreference   `json:"chatPreferences"`
}

// Channel is one configured chat account (Telegram, Slack, or the internal
// test channel).
type Channel struct {
	Type         string        `json:"type"` // "telegram" | "slack" | "internal"
	Credentials  Credentials   `json:"credentials"`
	PairedUsers  []PairedUser  `json:"pairedUsers"`
	LinkedGroups []LinkedGroup `json:"linkedGroups"`
}

// Credentials holds the per-channel-type fields. Unused fields are left
// zero-valued; the schema is shared across channel types rather than
// modeled as a sum type so that config.json stays a plain JSON object.
type Credentials struct {
	BotToken      string `json:"botToken,omitempty"`
	AppToken      string `json:"appToken,omitempty"`
	BotUsername   string `json:"botUsername,omitempty"`
	BotFirstName  string `json:"botFirstName,omitempty"`
	BotUserID     string `json:"botUserId,omitempty"`
	TeamID        string `json:"teamId,omitempty"`
	TeamName      string `json:"teamName,omitempty"`
	WebAppURL     string `json:"webAppUrl,omitempty"`
}

// PairedUser is a human allowed to drive sessions through this channel.
type PairedUser struct {
	UserID   string    `json:"userId"`
	Username string    `json:"username,omitempty"`
	PairedAt time.Time `json:"pairedAt"`
}

// LinkedGroup is a group/topic chat that has run /link.
type LinkedGroup struct {
	ChatID   string    `json:"chatId"`
	Title    string    `json:"title,omitempty"`
	LinkedAt time.Time `json:"linkedAt"`
}

// Settings are daemon-wide tunables.
type Settings struct {
	OutputBatchMinMs    int    `json:"outputBatchMinMs"`
	OutputBatchMaxMs    int    `json:"outputBatchMaxMs"`
	OutputBufferMaxChars int   `json:"outputBufferMaxChars"`
	MaxSessions         int    `json:"maxSessions"`
	DefaultShell        string `json:"defaultShell"`
}

// ChatPreference holds per-chat display preferences, keyed by ChatId string.
type ChatPreference struct {
	OutputMode string `json:"outputMode,omitempty"` // "simple" | "verbose"
	Thinking   bool   `json:"thinking,omitempty"`
}

// HasAnyBotToken reports whether at least one channel carries a non-empty
// bot token, one of the preflight requirements in §4.3.1.
func (c *Config) HasAnyBotToken() bool {
	for _, ch := range c.Channels {
		if ch != nil && ch.Credentials.BotToken != "" {
			return true
		}
	}
	return false
}

// HasAnyPairedUser reports whether at least one channel has a paired user.
func (c *Config) HasAnyPairedUser() bool {
	for _, ch := range c.Channels {
		if ch != nil && len(ch.PairedUsers) > 0 {
			return true
		}
	}
	return false
}

// FirstPairedUser returns the channel name and user id of some paired user,
// for single-tenant callers (the wrapper) that need an owner id but have no
// chat context of their own yet. Map iteration order is randomized, but
// touchgrass's Non-goals exclude multi-tenant hosting so in practice there
// is exactly one paired user to find.
func (c *Config) FirstPairedUser() (channelName, userID string, ok bool) {
	for name, ch := range c.Channels {
		if ch == nil || len(ch.PairedUsers) == 0 {
			continue
		}
		return name, ch.PairedUsers[0].UserID, true
	}
	return "", "", false
}

// PreferenceFor returns the stored preference for chatID, or a zero value.
func (c *Config) PreferenceFor(chatID string) ChatPreference {
	if c.ChatPreferences == nil {
		return ChatPreference{}
	}
	if p, ok := c.ChatPreferences[chatID]; ok && p != nil {
		return *p
	}
	return ChatPreference{}
}

// SetPreference stores a chat's output-mode/thinking preference, creating
// the map on first use.
func (c *Config) SetPreference(chatID string, pref ChatPreference) {
	if c.ChatPreferences == nil {
		c.ChatPreferences = make(map[string]*ChatPreference)
	}
	p := pref
	c.ChatPreferences[chatID] = &p
}

// IsPairedUser reports whether userID is paired under the named channel.
func (c *Config) IsPairedUser(channelName, userID string) bool {
	ch, ok := c.Channels[channelName]
	if !ok || ch == nil {
		return false
	}
	for _, u := range ch.PairedUsers {
		if u.UserID == userID {
			return true
		}
	}
	return false
}

// AddPairedUser pairs userID under the named channel, creating the channel
// entry if one doesn't already exist (it should, from setup, but /pair
// must not panic on a half-configured channel).
func (c *Config) AddPairedUser(channelName, userID, username string) {
	if c.Channels == nil {
		c.Channels = make(map[string]*Channel)
	}
	ch, ok := c.Channels[channelName]
	if !ok || ch == nil {
		ch = &Channel{}
		c.Channels[channelName] = ch
	}
	for _, u := range ch.PairedUsers {
		if u.UserID == userID {
			return
		}
	}
	ch.PairedUsers = append(ch.PairedUsers, PairedUser{UserID: userID, Username: username, PairedAt: time.Now()})
}

// IsLinkedChat reports whether chatID (a group or topic) has run /link
// under the named channel.
func (c *Config) IsLinkedChat(channelName, chatID string) bool {
	ch, ok := c.Channels[channelName]
	if !ok || ch == nil {
		return false
	}
	for _, g := range ch.LinkedGroups {
		if g.ChatID == chatID {
			return true
		}
	}
	return false
}

// AddLinkedChat links chatID under the named channel.
func (c *Config) AddLinkedChat(channelName, chatID, title string) {
	if c.Channels == nil {
		c.Channels = make(map[string]*Channel)
	}
	ch, ok := c.Channels[channelName]
	if !ok || ch == nil {
		ch = &Channel{}
		c.Channels[channelName] = ch
	}
	for _, g := range ch.LinkedGroups {
		if g.ChatID == chatID {
			return
		}
	}
	ch.LinkedGroups = append(ch.LinkedGroups, LinkedGroup{ChatID: chatID, Title: title, LinkedAt: time.Now()})
}

// RemoveLinkedChat unlinks chatID under the named channel.
func (c *Config) RemoveLinkedChat(channelName, chatID string) {
	ch, ok := c.Channels[channelName]
	if !ok || ch == nil {
		return
	}
	kept := ch.LinkedGroups[:0]
	for _, g := range ch.LinkedGroups {
		if g.ChatID != chatID {
			kept = append(kept, g)
		}
	}
	ch.LinkedGroups = kept
}
