// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package control

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomtev/touchgrass/internal/config"
	"github.com/tomtev/touchgrass/internal/session"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	cfg := &config.Config{Channels: map[string]*config.Channel{}}
	cfgPath := filepath.Join(t.TempDir(), "config.json")
	srv := New(session.NewManager(), cfg, cfgPath, "test-secret")
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return srv, ts
}

func doRequest(t *testing.T, ts *httptest.Server, method, path, token string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, ts.URL+path, reader)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("X-Touchgrass-Auth", token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var parsed map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&parsed)
	return resp, parsed
}

func TestHealthDoesNotRequireAuth(t *testing.T) {
	_, ts := newTestServer(t)
	resp, body := doRequest(t, ts, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotNil(t, body["data"])
}

func TestAuthMiddlewareRejectsBadToken(t *testing.T) {
	_, ts := newTestServer(t)
	resp, body := doRequest(t, ts, http.MethodGet, "/status", "wrong", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, false, body["ok"])
}

func TestRegisterBindAndDrainInputRoundTrip(t *testing.T) {
	_, ts := newTestServer(t)

	resp, body := doRequest(t, ts, http.MethodPost, "/remote/register", "test-secret", registerRequest{
		Command:     []string{"claude"},
		Cwd:         "/tmp/proj",
		OwnerUserID: "telegram:1",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data := body["data"].(map[string]any)
	sessionID := data["ID"].(string)
	require.NotEmpty(t, sessionID)

	resp, _ = doRequest(t, ts, http.MethodPost, "/remote/"+sessionID+"/send-input", "test-secret", map[string]string{"text": "hello"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = doRequest(t, ts, http.MethodGet, "/remote/"+sessionID+"/input", "test-secret", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data = body["data"].(map[string]any)
	lines := data["input"].([]any)
	require.Len(t, lines, 1)
	assert.Equal(t, "hello", lines[0])

	// P3: a second immediate drain is idempotent (empty).
	resp, body = doRequest(t, ts, http.MethodGet, "/remote/"+sessionID+"/input", "test-secret", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data = body["data"].(map[string]any)
	assert.Empty(t, data["input"])
}

func TestRemoteInputUnknownSessionReportsUnknown(t *testing.T) {
	_, ts := newTestServer(t)
	resp, body := doRequest(t, ts, http.MethodGet, "/remote/r-doesnotexist/input", "test-secret", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data := body["data"].(map[string]any)
	assert.Equal(t, true, data["unknown"])
}

func TestConfigChannelCRUD(t *testing.T) {
	_, ts := newTestServer(t)

	resp, _ := doRequest(t, ts, http.MethodPost, "/config/channels/mybot", "test-secret", map[string]any{
		"type":        "telegram",
		"credentials": map[string]any{"botToken": "abc123"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := doRequest(t, ts, http.MethodGet, "/config/channels", "test-secret", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	channels := body["data"].(map[string]any)
	require.Contains(t, channels, "mybot")

	resp, _ = doRequest(t, ts, http.MethodPost, "/config/channels/mybot/paired-users", "test-secret", map[string]string{"userId": "telegram:1"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = doRequest(t, ts, http.MethodDelete, "/config/channels/mybot", "test-secret", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = doRequest(t, ts, http.MethodDelete, "/config/channels/mybot", "test-secret", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSessionActionsOnUnknownSessionReturn404(t *testing.T) {
	_, ts := newTestServer(t)
	resp, _ := doRequest(t, ts, http.MethodPost, "/session/r-nope/stop", "test-secret", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
