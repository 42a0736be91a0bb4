// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"context"
	"encoding/json"
	"fmt"
)

// ChannelsClient provides channel discovery and config CRUD (§4.2
// "Channel discovery").
//
// Access this client through [Client.Channels]:
//
//	list, err := c.Channels.List(ctx)
type ChannelsClient struct {
	c *Client
}

// ChannelEntry is one row of GET /channels.
type ChannelEntry struct {
	Name  string `json:"name"`
	Type  string `json:"type,omitempty"`
	Title string `json:"title,omitempty"`
	Busy  bool   `json:"busy"`
}

// List calls GET /channels.
func (ch *ChannelsClient) List(ctx context.Context) ([]ChannelEntry, error) {
	data, err := ch.c.get(ctx, "/channels")
	if err != nil {
		return nil, err
	}
	var out []ChannelEntry
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("client: parse channels: %w", err)
	}
	return out, nil
}

// Credentials mirrors internal/config.Credentials.
type Credentials struct {
	BotToken     string `json:"botToken,omitempty"`
	AppToken     string `json:"appToken,omitempty"`
	BotUsername  string `json:"botUsername,omitempty"`
	BotFirstName string `json:"botFirstName,omitempty"`
	BotUserID    string `json:"botUserId,omitempty"`
	TeamID       string `json:"teamId,omitempty"`
	TeamName     string `json:"teamName,omitempty"`
	WebAppURL    string `json:"webAppUrl,omitempty"`
}

// PairedUser mirrors internal/config.PairedUser.
type PairedUser struct {
	UserID   string `json:"userId"`
	Username string `json:"username,omitempty"`
}

// LinkedGroup mirrors internal/config.LinkedGroup.
type LinkedGroup struct {
	ChatID string `json:"chatId"`
	Title  string `json:"title,omitempty"`
}

// ChannelConfig mirrors internal/config.Channel for CRUD round-trips.
type ChannelConfig struct {
	Type         string        `json:"type"`
	Credentials  Credentials   `json:"credentials"`
	PairedUsers  []PairedUser  `json:"pairedUsers"`
	LinkedGroups []LinkedGroup `json:"linkedGroups"`
}

// GetConfig calls GET /config/channels.
func (ch *ChannelsClient) GetConfig(ctx context.Context) (map[string]ChannelConfig, error) {
	data, err := ch.c.get(ctx, "/config/channels")
	if err != nil {
		return nil, err
	}
	var out map[string]ChannelConfig
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("client: parse config channels: %w", err)
	}
	return out, nil
}

// Upsert calls POST /config/channels/:name.
func (ch *ChannelsClient) Upsert(ctx context.Context, name string, cfg ChannelConfig) error {
	_, err := ch.c.postJSON(ctx, "/config/channels/"+name, cfg)
	return err
}

// Delete calls DELETE /config/channels/:name.
func (ch *ChannelsClient) Delete(ctx context.Context, name string) error {
	_, err := ch.c.delete(ctx, "/config/channels/"+name)
	return err
}

// AddPairedUser calls POST /config/channels/:name/paired-users.
func (ch *ChannelsClient) AddPairedUser(ctx context.Context, name string, user PairedUser) error {
	_, err := ch.c.postJSON(ctx, "/config/channels/"+name+"/paired-users", user)
	return err
}

// RemovePairedUser calls DELETE /config/channels/:name/paired-users/:userId.
func (ch *ChannelsClient) RemovePairedUser(ctx context.Context, name, userID string) error {
	_, err := ch.c.delete(ctx, "/config/channels/"+name+"/paired-users/"+userID)
	return err
}

// AddLinkedGroup calls POST /config/channels/:name/linked-groups.
func (ch *ChannelsClient) AddLinkedGroup(ctx context.Context, name string, group LinkedGroup) error {
	_, err := ch.c.postJSON(ctx, "/config/channels/"+name+"/linked-groups", group)
	return err
}

// RemoveLinkedGroup calls DELETE /config/channels/:name/linked-groups/:chatId.
func (ch *ChannelsClient) RemoveLinkedGroup(ctx context.Context, name, chatID string) error {
	_, err := ch.c.delete(ctx, "/config/channels/"+name+"/linked-groups/"+chatID)
	return err
}
