// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package client provides a Go client library for touchgrass's control
// server.
//
// The control server is the daemon's local, authenticated HTTP surface
// (spec §4.2): CLI subcommands and the wrapper process both talk to the
// daemon exclusively through this client rather than reaching into daemon
// internals directly.
//
// # Getting Started
//
// Create a client pointing at the daemon's control server and the shared
// secret read from TOUCHGRASS_HOME/daemon.auth:
//
//	c := client.New("http://127.0.0.1:4719", authToken)
//
// The client exposes the endpoint groups through sub-clients:
//
//	sess, err := c.Remote.Register(ctx, client.RegisterRequest{...})
//	jobs, err := c.Sessions.BackgroundJobs(ctx, cwd)
//	chans, err := c.Channels.List(ctx)
//
// # Error Handling
//
// Failures surfaced by the control server's {ok,data,error} envelope are
// returned as *APIError, carrying the machine-readable code from §4.2's
// error mapping table.
//
//	_, err := c.Sessions.Stop(ctx, id)
//	if err != nil {
//	    if apiErr, ok := err.(*client.APIError); ok && apiErr.Code == "NOT_FOUND" {
//	        // session already exited
//	    }
//	}
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// AuthHeader is the header name carrying the shared secret (§4.2).
const AuthHeader = "X-Touchgrass-Auth"

// Client is a touchgrass control-server API client. Safe for concurrent use.
type Client struct {
	baseURL    string
	authToken  string
	httpClient *http.Client

	// Remote provides wrapper<->daemon session registration, input
	// long-polling, and event ingestion.
	Remote *RemoteClient

	// Sessions provides user-driven session actions and recent/job queries.
	Sessions *SessionsClient

	// Channels provides channel discovery and config CRUD.
	Channels *ChannelsClient
}

// Option configures a [Client].
type Option func(*Client)

// New creates a client pointed at baseURL (e.g. "http://127.0.0.1:4719" or
// "http://unix" when dialing a Unix domain socket via WithHTTPClient),
// authenticating every request but /health with authToken.
func New(baseURL, authToken string, opts ...Option) *Client {
	c := &Client{
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		authToken: authToken,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}

	c.Remote = &RemoteClient{c: c}
	c.Sessions = &SessionsClient{c: c}
	c.Channels = &ChannelsClient{c: c}
	return c
}

// WithHTTPClient swaps the underlying *http.Client, e.g. to dial a Unix
// domain socket with a custom DialContext.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the HTTP client timeout. It also bounds the long-poll in
// RemoteClient.Input, whose ~25s server-side hold fits under the 30s
// default.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// BaseURL returns the configured base URL.
func (c *Client) BaseURL() string { return c.baseURL }

// envelope mirrors internal/control's response shape.
type envelope struct {
	OK    bool            `json:"ok"`
	Data  json.RawMessage `json:"data,omitempty"`
	Error *APIError       `json:"error,omitempty"`
}

// APIError is an error reported by the control server's {ok,error} envelope.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return e.Message
}

func (c *Client) get(ctx context.Context, path string) (json.RawMessage, error) {
	return c.do(ctx, http.MethodGet, path, nil)
}

func (c *Client) post(ctx context.Context, path string) (json.RawMessage, error) {
	return c.do(ctx, http.MethodPost, path, nil)
}

func (c *Client) postJSON(ctx context.Context, path string, body any) (json.RawMessage, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("client: marshal request: %w", err)
	}
	return c.do(ctx, http.MethodPost, path, bytes.NewReader(data))
}

func (c *Client) delete(ctx context.Context, path string) (json.RawMessage, error) {
	return c.do(ctx, http.MethodDelete, path, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("client: build request: %w", err)
	}
	req.Header.Set(AuthHeader, c.authToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("client: request failed: %w", err)
	}
	defer resp.Body.Close()

	return c.parseResponse(resp)
}

func (c *Client) parseResponse(resp *http.Response) (json.RawMessage, error) {
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("client: read response: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(respBody, &env); err != nil {
		if resp.StatusCode >= 400 {
			return nil, fmt.Errorf("client: request failed with status %d: %s", resp.StatusCode, string(respBody))
		}
		return respBody, nil
	}

	if env.Error != nil {
		return nil, env.Error
	}
	return env.Data, nil
}
