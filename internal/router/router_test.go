// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomtev/touchgrass/internal/addressing"
	"github.com/tomtev/touchgrass/internal/channel"
	"github.com/tomtev/touchgrass/internal/config"
	"github.com/tomtev/touchgrass/internal/control"
	"github.com/tomtev/touchgrass/internal/session"
	"github.com/tomtev/touchgrass/pkg/client"
)

type plainFormatter struct{}

func (plainFormatter) Bold(s string) string        { return "*" + s + "*" }
func (plainFormatter) Italic(s string) string       { return "_" + s + "_" }
func (plainFormatter) Code(s string) string         { return "`" + s + "`" }
func (plainFormatter) Pre(s string) string          { return "```" + s + "```" }
func (plainFormatter) Link(text, url string) string { return text + "(" + url + ")" }
func (plainFormatter) Escape(s string) string       { return s }
func (plainFormatter) FromMarkdown(s string) string { return s }

type fakeChannel struct {
	name  string
	sent  []string
	polls []string
}

func newFakeChannel(name string) *fakeChannel { return &fakeChannel{name: name} }

func (f *fakeChannel) Name() string          { return f.name }
func (f *fakeChannel) Fmt() channel.Formatter { return plainFormatter{} }

func (f *fakeChannel) Send(ctx context.Context, chatID addressing.ChatID, html string) (string, error) {
	f.sent = append(f.sent, html)
	return "msg-1", nil
}
func (f *fakeChannel) SendOutput(ctx context.Context, chatID addressing.ChatID, rawAnsi string) (string, error) {
	return f.Send(ctx, chatID, rawAnsi)
}
func (f *fakeChannel) SendDocument(ctx context.Context, chatID addressing.ChatID, filePath, caption string) error {
	return nil
}
func (f *fakeChannel) SendPoll(ctx context.Context, chatID addressing.ChatID, question string, options []string, multiSelect bool) (string, string, error) {
	f.polls = append(f.polls, question)
	return "poll-1", "msg-poll", nil
}
func (f *fakeChannel) ClosePoll(ctx context.Context, chatID addressing.ChatID, messageID string) error {
	return nil
}
func (f *fakeChannel) UpsertStatusBoard(ctx context.Context, chatID addressing.ChatID, boardKey, html string, opts channel.StatusBoardOptions) (channel.StatusBoardResult, error) {
	return channel.StatusBoardResult{MessageID: "board-1"}, nil
}
func (f *fakeChannel) ClearStatusBoard(ctx context.Context, chatID addressing.ChatID, boardKey string, opts channel.ClearStatusBoardOptions) error {
	return nil
}
func (f *fakeChannel) SetTyping(ctx context.Context, chatID addressing.ChatID, active bool) {}
func (f *fakeChannel) SyncCommandMenu(ctx context.Context, chatID addressing.ChatID, userID addressing.UserID, menuCtx channel.MenuContext) error {
	return nil
}
func (f *fakeChannel) OnPollAnswer(func(channel.PollAnswer))                      {}
func (f *fakeChannel) OnDeadChat(func(channel.DeadChatEvent))                     {}
func (f *fakeChannel) StartReceiving(onMessage func(channel.InboundMessage)) error { return nil }
func (f *fakeChannel) StopReceiving()                                             {}

func newTestRouter(t *testing.T) (*Router, *fakeChannel, *config.Config) {
	t.Helper()
	mgr := session.NewManager()
	cfg := &config.Config{
		Channels: map[string]*config.Channel{
			"telegram": {Type: "telegram"},
		},
	}
	cfgPath := filepath.Join(t.TempDir(), "config.json")
	srv := control.New(mgr, cfg, cfgPath, "test-token")
	ch := newFakeChannel("telegram")
	return New(srv), ch, cfg
}

func TestUnpairedUserIsRejectedExceptPairStartHelp(t *testing.T) {
	rt, ch, _ := newTestRouter(t)
	ctx := context.Background()
	msg := channel.InboundMessage{UserID: "telegram:1", ChatID: "telegram:1", Text: "hello"}

	rt.RouteMessage(ctx, ch, msg)
	require.Len(t, ch.sent, 1)
	assert.Contains(t, ch.sent[0], "not paired")

	ch.sent = nil
	msg.Text = "/help"
	rt.RouteMessage(ctx, ch, msg)
	require.Len(t, ch.sent, 1)
	assert.Contains(t, ch.sent[0], "touchgrass")
}

// generatePairingCode mints a code the same way "tg pair" would, by
// calling the control server's real /generate-code endpoint in-process.
func generatePairingCode(t *testing.T, srv *control.Server) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/generate-code", nil)
	req.Header.Set(client.AuthHeader, "test-token")
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data struct {
			Code string `json:"code"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotEmpty(t, body.Data.Code)
	return body.Data.Code
}

func TestPairCommandRedeemsCodeAndPersists(t *testing.T) {
	rt, ch, cfg := newTestRouter(t)
	ctx := context.Background()
	code := generatePairingCode(t, rt.srv)

	msg := channel.InboundMessage{UserID: "telegram:1", ChatID: "telegram:1", Text: "/pair " + code}
	rt.RouteMessage(ctx, ch, msg)

	require.Len(t, ch.sent, 1)
	assert.Contains(t, ch.sent[0], "Paired")
	assert.True(t, cfg.IsPairedUser("telegram", "telegram:1"))
}

func TestGroupChatRequiresLinkExceptLinkCommand(t *testing.T) {
	rt, ch, cfg := newTestRouter(t)
	cfg.AddPairedUser("telegram", "telegram:1", "alice")
	ctx := context.Background()

	msg := channel.InboundMessage{UserID: "telegram:1", ChatID: "telegram:-100", IsGroup: true, Text: "hello"}
	rt.RouteMessage(ctx, ch, msg)
	require.Len(t, ch.sent, 1)
	assert.Contains(t, ch.sent[0], "Not linked")

	ch.sent = nil
	msg.Text = "/link"
	rt.RouteMessage(ctx, ch, msg)
	require.Len(t, ch.sent, 1)
	assert.True(t, cfg.IsLinkedChat("telegram", "telegram:-100"))
}

func TestStdinInputQueuesToAttachedSession(t *testing.T) {
	rt, ch, cfg := newTestRouter(t)
	cfg.AddPairedUser("telegram", "telegram:1", "alice")
	cfg.AddLinkedChat("telegram", "telegram:1", "")
	ctx := context.Background()

	sess := rt.mgr.RegisterRemote([]string{"claude"}, "", "telegram:1", "/tmp", "")
	rt.mgr.Attach("telegram:1", sess.ID)

	msg := channel.InboundMessage{UserID: "telegram:1", ChatID: "telegram:1", Text: "do the thing"}
	rt.RouteMessage(ctx, ch, msg)

	lines, ok := rt.mgr.DrainRemoteInput(sess.ID)
	require.True(t, ok)
	require.Equal(t, []string{"do the thing"}, lines)
}

func TestStdinInputWithPendingMentionsPrefixesText(t *testing.T) {
	rt, ch, cfg := newTestRouter(t)
	cfg.AddPairedUser("telegram", "telegram:1", "alice")
	cfg.AddLinkedChat("telegram", "telegram:1", "")
	ctx := context.Background()

	sess := rt.mgr.RegisterRemote([]string{"claude"}, "", "telegram:1", "/tmp", "")
	rt.mgr.Attach("telegram:1", sess.ID)
	rt.mgr.SetPendingFileMentions(sess.ID, "telegram:1", "telegram:1", []string{"@auth.ts"})

	msg := channel.InboundMessage{UserID: "telegram:1", ChatID: "telegram:1", Text: "fix this"}
	rt.RouteMessage(ctx, ch, msg)

	lines, _ := rt.mgr.DrainRemoteInput(sess.ID)
	require.Equal(t, []string{"@auth.ts - fix this"}, lines)
}

func TestStopCommandRequestsControlAction(t *testing.T) {
	rt, ch, cfg := newTestRouter(t)
	cfg.AddPairedUser("telegram", "telegram:1", "alice")
	cfg.AddLinkedChat("telegram", "telegram:1", "")
	ctx := context.Background()

	sess := rt.mgr.RegisterRemote([]string{"claude"}, "", "telegram:1", "/tmp", "")
	rt.mgr.Attach("telegram:1", sess.ID)

	msg := channel.InboundMessage{UserID: "telegram:1", ChatID: "telegram:1", Text: "/stop"}
	rt.RouteMessage(ctx, ch, msg)

	action, ok := rt.mgr.DrainRemoteControl(sess.ID)
	require.True(t, ok)
	require.NotNil(t, action)
	assert.Equal(t, session.ControlStop, action.Kind)
}
