// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// SessionsClient provides the user-driven session actions and read-only
// queries CLI subcommands and the command router use (§4.2 "User-driven
// actions").
//
// Access this client through [Client.Sessions]:
//
//	err := c.Sessions.Stop(ctx, id)
type SessionsClient struct {
	c *Client
}

// Stop requests a graceful stop (Ctrl-C) for sessionID.
func (s *SessionsClient) Stop(ctx context.Context, sessionID string) error {
	_, err := s.c.post(ctx, fmt.Sprintf("/session/%s/stop", sessionID))
	return err
}

// Kill requests a hard kill (SIGINT then SIGKILL) for sessionID.
func (s *SessionsClient) Kill(ctx context.Context, sessionID string) error {
	_, err := s.c.post(ctx, fmt.Sprintf("/session/%s/kill", sessionID))
	return err
}

// Restart merges a resume control action carrying ref for sessionID
// (§4.6 "Restart command").
func (s *SessionsClient) Restart(ctx context.Context, sessionID, ref string) error {
	_, err := s.c.postJSON(ctx, fmt.Sprintf("/session/%s/restart", sessionID), map[string]string{"ref": ref})
	return err
}

// Recent calls GET /sessions/recent, backing the resume picker (§3).
func (s *SessionsClient) Recent(ctx context.Context, tool, cwd string) ([]RemoteSession, error) {
	path := "/sessions/recent?tool=" + tool + "&cwd=" + cwd
	data, err := s.c.get(ctx, path)
	if err != nil {
		return nil, err
	}
	var out []RemoteSession
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("client: parse recent sessions: %w", err)
	}
	return out, nil
}

// BackgroundJobSummary is one row of GET /background-jobs.
type BackgroundJobSummary struct {
	SessionID string    `json:"sessionId"`
	TaskID    string    `json:"taskId"`
	Status    string    `json:"status"`
	Command   string    `json:"command"`
	URLs      []string  `json:"urls"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// BackgroundJobs calls GET /background-jobs[?cwd=].
func (s *SessionsClient) BackgroundJobs(ctx context.Context, cwd string) ([]BackgroundJobSummary, error) {
	path := "/background-jobs"
	if cwd != "" {
		path += "?cwd=" + cwd
	}
	data, err := s.c.get(ctx, path)
	if err != nil {
		return nil, err
	}
	var out []BackgroundJobSummary
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("client: parse background jobs: %w", err)
	}
	return out, nil
}

// Skills calls GET /skills?cwd=, listing discoverable skill names.
func (s *SessionsClient) Skills(ctx context.Context, cwd string) ([]string, error) {
	data, err := s.c.get(ctx, "/skills?cwd="+cwd)
	if err != nil {
		return nil, err
	}
	var out []string
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("client: parse skills: %w", err)
	}
	return out, nil
}

// AgentSoul calls GET /agent-soul?cwd=.
func (s *SessionsClient) AgentSoul(ctx context.Context, cwd string) (string, error) {
	data, err := s.c.get(ctx, "/agent-soul?cwd="+cwd)
	if err != nil {
		return "", err
	}
	var out struct {
		Content string `json:"content"`
	}
	_ = json.Unmarshal(data, &out)
	return out.Content, nil
}

// SetAgentSoul calls POST /agent-soul?cwd= with content as the raw body.
func (s *SessionsClient) SetAgentSoul(ctx context.Context, cwd, content string) error {
	_, err := s.c.do(ctx, http.MethodPost, "/agent-soul?cwd="+cwd, strings.NewReader(content))
	return err
}

// Status is the body returned by GET /status.
type Status struct {
	PID      int              `json:"pid"`
	Sessions []StatusSession  `json:"sessions"`
}

// StatusSession is one session summary within Status.
type StatusSession struct {
	ID          string    `json:"id"`
	Command     []string  `json:"command"`
	Cwd         string    `json:"cwd"`
	OwnerUserID string    `json:"ownerUserId"`
	BoundChat   string    `json:"boundChat"`
	Attached    bool      `json:"attached"`
	LastSeenAt  time.Time `json:"lastSeenAt"`
}

// Health calls GET /health.
func (c *Client) Health(ctx context.Context) (pid int, startedAt time.Time, err error) {
	data, err := c.get(ctx, "/health")
	if err != nil {
		return 0, time.Time{}, err
	}
	var out struct {
		PID       int       `json:"pid"`
		StartedAt time.Time `json:"startedAt"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return 0, time.Time{}, fmt.Errorf("client: parse health: %w", err)
	}
	return out.PID, out.StartedAt, nil
}

// Status calls GET /status.
func (c *Client) Status(ctx context.Context) (Status, error) {
	data, err := c.get(ctx, "/status")
	if err != nil {
		return Status{}, err
	}
	var out Status
	if err := json.Unmarshal(data, &out); err != nil {
		return Status{}, fmt.Errorf("client: parse status: %w", err)
	}
	return out, nil
}

// Shutdown calls POST /shutdown.
func (c *Client) Shutdown(ctx context.Context) error {
	_, err := c.post(ctx, "/shutdown")
	return err
}

// GenerateCode calls POST /generate-code, minting a pairing code.
func (c *Client) GenerateCode(ctx context.Context) (code string, expiresInSeconds int, err error) {
	data, err := c.post(ctx, "/generate-code")
	if err != nil {
		return "", 0, err
	}
	var out struct {
		Code             string `json:"code"`
		ExpiresInSeconds int    `json:"expiresInSeconds"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return "", 0, fmt.Errorf("client: parse generate-code: %w", err)
	}
	return out.Code, out.ExpiresInSeconds, nil
}
