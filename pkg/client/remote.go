// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// RemoteClient provides access to the wrapper<->daemon session-registration
// and event-ingestion endpoints (§4.2 "Session registration", "Event
// ingestion").
//
// Access this client through [Client.Remote]:
//
//	sess, err := c.Remote.Register(ctx, client.RegisterRequest{...})
type RemoteClient struct {
	c *Client
}

// RegisterRequest is the body posted to /remote/register.
type RegisterRequest struct {
	Command     []string `json:"command"`
	Cwd         string   `json:"cwd"`
	ChatID      string   `json:"chatId,omitempty"`
	OwnerUserID string   `json:"ownerUserId"`
	ExistingID  string   `json:"existingId,omitempty"`
}

// ControlAction mirrors internal/session.ControlAction.
type ControlAction struct {
	Kind       string `json:"kind"`
	SessionRef string `json:"sessionRef,omitempty"`
}

// RemoteSession mirrors the subset of internal/session.RemoteSession the
// wrapper and CLI need from registration/listing responses.
type RemoteSession struct {
	ID            string          `json:"ID"`
	Command       []string        `json:"Command"`
	Cwd           string          `json:"Cwd"`
	ChatID        string          `json:"ChatID"`
	OwnerUserID   string          `json:"OwnerUserID"`
	ControlAction *ControlAction  `json:"ControlAction"`
	LastSeenAt    time.Time       `json:"LastSeenAt"`
	CreatedAt     time.Time       `json:"CreatedAt"`
}

// Register calls POST /remote/register, idempotent on req.ExistingID
// (§4.1 RegisterRemote, §4.8 recovery).
func (r *RemoteClient) Register(ctx context.Context, req RegisterRequest) (*RemoteSession, error) {
	data, err := r.c.postJSON(ctx, "/remote/register", req)
	if err != nil {
		return nil, err
	}
	var sess RemoteSession
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("client: parse register response: %w", err)
	}
	return &sess, nil
}

// BindChat calls POST /remote/bind-chat.
func (r *RemoteClient) BindChat(ctx context.Context, sessionID, chatID string) error {
	_, err := r.c.postJSON(ctx, "/remote/bind-chat", map[string]string{
		"id": sessionID, "chatId": chatID,
	})
	return err
}

// Exit calls POST /remote/:id/exit.
func (r *RemoteClient) Exit(ctx context.Context, sessionID string, exitCode int) error {
	_, err := r.c.postJSON(ctx, fmt.Sprintf("/remote/%s/exit", sessionID), map[string]int{"exitCode": exitCode})
	return err
}

// InputResponse is the body returned by GET /remote/:id/input.
type InputResponse struct {
	Unknown       bool            `json:"unknown"`
	Input         []string        `json:"input"`
	ControlAction *ControlAction  `json:"controlAction"`
}

// Input long-polls GET /remote/:id/input. The server holds the request
// open for up to ~25s (§9 "server-side long-poll"); callers loop this in
// place of a fixed-interval client poll.
func (r *RemoteClient) Input(ctx context.Context, sessionID string) (InputResponse, error) {
	data, err := r.c.get(ctx, fmt.Sprintf("/remote/%s/input", sessionID))
	if err != nil {
		return InputResponse{}, err
	}
	var resp InputResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return InputResponse{}, fmt.Errorf("client: parse input response: %w", err)
	}
	return resp, nil
}

// SendInput calls POST /remote/:id/send-input (the `tg write` path).
func (r *RemoteClient) SendInput(ctx context.Context, sessionID, text string) error {
	_, err := r.c.postJSON(ctx, fmt.Sprintf("/remote/%s/send-input", sessionID), map[string]string{"text": text})
	return err
}

// SendMessage calls POST /remote/:id/send-message, delivering text to the
// bound chat directly, bypassing the PTY (the `tg send` path).
func (r *RemoteClient) SendMessage(ctx context.Context, sessionID, text string) error {
	_, err := r.c.postJSON(ctx, fmt.Sprintf("/remote/%s/send-message", sessionID), map[string]string{"text": text})
	return err
}

// SendFile calls POST /remote/:id/send-file.
func (r *RemoteClient) SendFile(ctx context.Context, sessionID, path, caption string) error {
	_, err := r.c.postJSON(ctx, fmt.Sprintf("/remote/%s/send-file", sessionID), map[string]string{
		"path": path, "caption": caption,
	})
	return err
}

// Assistant posts an assistant-text event (§4.4).
func (r *RemoteClient) Assistant(ctx context.Context, sessionID, text string) error {
	_, err := r.c.postJSON(ctx, fmt.Sprintf("/remote/%s/assistant", sessionID), map[string]string{"text": text})
	return err
}

// Thinking posts a thinking-text fragment.
func (r *RemoteClient) Thinking(ctx context.Context, sessionID, text string) error {
	_, err := r.c.postJSON(ctx, fmt.Sprintf("/remote/%s/thinking", sessionID), map[string]string{"text": text})
	return err
}

// ToolCallPayload is the body posted to /remote/:id/tool-call.
type ToolCallPayload struct {
	ID    string         `json:"ID"`
	Name  string         `json:"Name"`
	Input map[string]any `json:"Input"`
}

// ToolCall posts a normalized tool-call event.
func (r *RemoteClient) ToolCall(ctx context.Context, sessionID string, tc ToolCallPayload) error {
	_, err := r.c.postJSON(ctx, fmt.Sprintf("/remote/%s/tool-call", sessionID), tc)
	return err
}

// ToolResultPayload is the body posted to /remote/:id/tool-result.
type ToolResultPayload struct {
	ToolUseID string   `json:"ToolUseID"`
	ToolName  string   `json:"ToolName"`
	Text      string   `json:"Text"`
	IsError   bool     `json:"IsError"`
	URLs      []string `json:"URLs"`
}

// ToolResult posts a normalized tool-result event.
func (r *RemoteClient) ToolResult(ctx context.Context, sessionID string, tr ToolResultPayload) error {
	_, err := r.c.postJSON(ctx, fmt.Sprintf("/remote/%s/tool-result", sessionID), tr)
	return err
}

// Question posts a lifted AskUserQuestion item, returning the ephemeral
// poll id the channel adapter created.
func (r *RemoteClient) Question(ctx context.Context, sessionID, prompt string, options []string, multiSelect bool) (string, error) {
	data, err := r.c.postJSON(ctx, fmt.Sprintf("/remote/%s/question", sessionID), map[string]any{
		"Prompt": prompt, "Options": options, "MultiSelect": multiSelect,
	})
	if err != nil {
		return "", err
	}
	var out struct {
		PollID string `json:"pollId"`
	}
	_ = json.Unmarshal(data, &out)
	return out.PollID, nil
}

// ApprovalNeeded posts a PTY-scanned (or Claude-hook-sourced) approval
// prompt, returning the poll id.
func (r *RemoteClient) ApprovalNeeded(ctx context.Context, sessionID, prompt string, options []string) (string, error) {
	data, err := r.c.postJSON(ctx, fmt.Sprintf("/remote/%s/approval-needed", sessionID), map[string]any{
		"prompt": prompt, "options": options,
	})
	if err != nil {
		return "", err
	}
	var out struct {
		PollID string `json:"pollId"`
	}
	_ = json.Unmarshal(data, &out)
	return out.PollID, nil
}

// BackgroundJobEvent is the body posted to /remote/:id/background-job,
// matching transcript.BackgroundJobEvent's default (untagged) field names.
type BackgroundJobEvent struct {
	TaskID  string   `json:"TaskID"`
	Status  string   `json:"Status"`
	Command string   `json:"Command"`
	URLs    []string `json:"URLs"`
}

// BackgroundJob posts a background-job lifecycle update.
func (r *RemoteClient) BackgroundJob(ctx context.Context, sessionID string, ev BackgroundJobEvent) error {
	_, err := r.c.postJSON(ctx, fmt.Sprintf("/remote/%s/background-job", sessionID), ev)
	return err
}

// Typing posts a typing-indicator toggle to /remote/:id/typing (in addition
// to the output pipeline's own typing calls).
func (r *RemoteClient) Typing(ctx context.Context, sessionID string, active bool) error {
	_, err := r.c.postJSON(ctx, fmt.Sprintf("/remote/%s/typing", sessionID), map[string]bool{"active": active})
	return err
}

// Hook posts a Claude Code hook invocation to POST /hook/:id (§6).
func (r *RemoteClient) Hook(ctx context.Context, sessionID string, body any) error {
	_, err := r.c.postJSON(ctx, fmt.Sprintf("/hook/%s", sessionID), body)
	return err
}
