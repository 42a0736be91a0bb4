// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package outputpipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomtev/touchgrass/internal/addressing"
	"github.com/tomtev/touchgrass/internal/channel"
	"github.com/tomtev/touchgrass/internal/config"
	"github.com/tomtev/touchgrass/internal/session"
	"github.com/tomtev/touchgrass/internal/transcript"
)

type plainFormatter struct{}

func (plainFormatter) Bold(s string) string         { return "*" + s + "*" }
func (plainFormatter) Italic(s string) string        { return "_" + s + "_" }
func (plainFormatter) Code(s string) string          { return "`" + s + "`" }
func (plainFormatter) Pre(s string) string           { return "```" + s + "```" }
func (plainFormatter) Link(text, url string) string  { return text + "(" + url + ")" }
func (plainFormatter) Escape(s string) string        { return s }
func (plainFormatter) FromMarkdown(s string) string  { return s }

type fakeChannel struct {
	name         string
	sent         []string
	polls        []string
	typingActive map[addressing.ChatID]bool
	boards       map[string]channel.StatusBoardResult
	upsertCalls  int
}

func newFakeChannel(name string) *fakeChannel {
	return &fakeChannel{name: name, typingActive: map[addressing.ChatID]bool{}, boards: map[string]channel.StatusBoardResult{}}
}

func (f *fakeChannel) Name() string            { return f.name }
func (f *fakeChannel) Fmt() channel.Formatter   { return plainFormatter{} }

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
	f.upsertCalls++
	result := channel.StatusBoardResult{MessageID: "board-1", Pinned: opts.Pin}
	f.boards[boardKey] = result
	return result, nil
}
func (f *fakeChannel) ClearStatusBoard(ctx context.Context, chatID addressing.ChatID, boardKey string, opts channel.ClearStatusBoardOptions) error {
	delete(f.boards, boardKey)
	return nil
}
func (f *fakeChannel) SetTyping(ctx context.Context, chatID addressing.ChatID, active bool) {
	f.typingActive[chatID] = active
}
func (f *fakeChannel) SyncCommandMenu(ctx context.Context, chatID addressing.ChatID, userID addressing.UserID, menuCtx channel.MenuContext) error {
	return nil
}
func (f *fakeChannel) OnPollAnswer(func(channel.PollAnswer)) {}
func (f *fakeChannel) OnDeadChat(func(channel.DeadChatEvent)) {}
func (f *fakeChannel) StartReceiving(onMessage func(channel.InboundMessage)) error { return nil }
func (f *fakeChannel) StopReceiving()                                             {}

type fakeResolver struct {
	ch *fakeChannel
}

func (r *fakeResolver) ChannelForChat(chatID addressing.ChatID) (channel.Channel, bool) {
	return r.ch, true
}

func newTestPipeline(t *testing.T) (*Pipeline, *session.Manager, *fakeChannel) {
	t.Helper()
	mgr := session.NewManager()
	cfg := &config.Config{ChatPreferences: map[string]*config.ChatPreference{}}
	ch := newFakeChannel("telegram")
	p := New(mgr, cfg, &fakeResolver{ch: ch})
	return p, mgr, ch
}

func TestAssistantForwardsToBoundChat(t *testing.T) {
	p, mgr, ch := newTestPipeline(t)
	sess := mgr.RegisterRemote([]string{"claude"}, "", "telegram:1", "/tmp", "")
	mgr.Attach("telegram:1", sess.ID)

	p.Assistant(sess.ID, "hello world")
	require.Len(t, ch.sent, 1)
	assert.Equal(t, "hello world", ch.sent[0])
}

func TestAssistantDropsWhenNoTarget(t *testing.T) {
	p, mgr, ch := newTestPipeline(t)
	sess := mgr.RegisterRemote([]string{"claude"}, "", "telegram:1", "/tmp", "")

	p.Assistant(sess.ID, "unbound")
	assert.Empty(t, ch.sent)
}

func TestToolCallSuppressedInSimpleMode(t *testing.T) {
	p, mgr, ch := newTestPipeline(t)
	sess := mgr.RegisterRemote([]string{"claude"}, "", "telegram:1", "/tmp", "")
	mgr.Attach("telegram:1", sess.ID)
	p.cfg.ChatPreferences["telegram:1"] = &config.ChatPreference{OutputMode: "simple"}

	p.ToolCall(sess.ID, transcript.ToolCall{Name: "Bash", Input: map[string]any{"command": "ls"}})
	assert.Empty(t, ch.sent)

	p.ToolCall(sess.ID, transcript.ToolCall{Name: "Edit", Input: map[string]any{"file_path": "a.go"}})
	require.Len(t, ch.sent, 1)
}

func TestQuestionPostsPollAndRegistersFlow(t *testing.T) {
	p, mgr, ch := newTestPipeline(t)
	sess := mgr.RegisterRemote([]string{"claude"}, "", "telegram:1", "/tmp", "")
	mgr.Attach("telegram:1", sess.ID)

	pollID, err := p.Question(sess.ID, transcript.Question{Prompt: "Pick one", Options: []string{"a", "b"}})
	require.NoError(t, err)
	assert.Equal(t, "poll-1", pollID)
	require.Len(t, ch.polls, 1)

	flow, ok := mgr.GetFlow(pollID)
	require.True(t, ok)
	assert.Equal(t, session.FlowQuestionSet, flow.Kind)
	assert.Equal(t, sess.ID, flow.SessionID)
}

func TestBackgroundJobPinsBoardOnFirstRunningUpdate(t *testing.T) {
	p, mgr, _ := newTestPipeline(t)
	sess := mgr.RegisterRemote([]string{"claude"}, "", "telegram:1", "/tmp", "")
	mgr.Attach("telegram:1", sess.ID)

	p.BackgroundJob(sess.ID, transcript.BackgroundJobEvent{TaskID: "t1", Status: "running", Command: "npm run dev"})
	board, ok := mgr.GetBoard("telegram:1", "background-jobs")
	require.True(t, ok)
	assert.True(t, board.Pinned)

	p.BackgroundJob(sess.ID, transcript.BackgroundJobEvent{TaskID: "t1", Status: "completed"})
	_, stillThere := mgr.GetBoard("telegram:1", "background-jobs")
	assert.False(t, stillThere)
}

func TestBackgroundJobBoardRefreshIsNoOpWhenHTMLUnchanged(t *testing.T) {
	p, mgr, ch := newTestPipeline(t)
	sess := mgr.RegisterRemote([]string{"claude"}, "", "telegram:1", "/tmp", "")
	mgr.Attach("telegram:1", sess.ID)

	p.BackgroundJob(sess.ID, transcript.BackgroundJobEvent{TaskID: "t1", Status: "running", Command: "npm run dev"})
	assert.Equal(t, 1, ch.upsertCalls)

	p.BackgroundJob(sess.ID, transcript.BackgroundJobEvent{TaskID: "t1", Status: "running", Command: "npm run dev"})
	assert.Equal(t, 1, ch.upsertCalls, "repeating an identical board update must not call the channel again")
}

func TestTypingTogglesOnTargetChats(t *testing.T) {
	p, mgr, ch := newTestPipeline(t)
	sess := mgr.RegisterRemote([]string{"claude"}, "", "telegram:1", "/tmp", "")
	mgr.Attach("telegram:1", sess.ID)

	p.Typing(sess.ID, true)
	assert.True(t, ch.typingActive["telegram:1"])
	p.Typing(sess.ID, false)
	assert.False(t, ch.typingActive["telegram:1"])
}
