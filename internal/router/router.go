// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package router implements the single inbound-message entry point the
// daemon dispatches every chat message through (§4.6): pairing, group
// linking, the picker-and-poll commands, and the stdin-input fallback that
// forwards free text to the session a chat is currently talking to.
package router

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/tomtev/touchgrass/internal/addressing"
	"github.com/tomtev/touchgrass/internal/channel"
	"github.com/tomtev/touchgrass/internal/config"
	"github.com/tomtev/touchgrass/internal/control"
	"github.com/tomtev/touchgrass/internal/session"
)

// Router dispatches InboundMessages against the daemon's shared session
// manager and config, addressing replies through whichever Channel the
// message arrived on.
type Router struct {
	srv *control.Server
	mgr *session.Manager
	cfg *config.Config

	pairLimiter *rateLimiter
}

// New constructs a Router sharing srv's Manager and Config.
func New(srv *control.Server) *Router {
	return &Router{
		srv:         srv,
		mgr:         srv.Manager(),
		cfg:         srv.Config(),
		pairLimiter: newRateLimiter(5, time.Minute),
	}
}

// command is a parsed "/name arg1 arg2..." or "tg name arg1 arg2..." line.
type command struct {
	name string
	args []string
	raw  string
}

// parseCommand recognizes both native slash commands and the "tg <sub>"
// shorthand alias form (§4.6 step 6); ok is false for plain text.
func parseCommand(text string) (command, bool) {
	trimmed := strings.TrimSpace(text)
	switch {
	case strings.HasPrefix(trimmed, "/"):
		fields := strings.Fields(trimmed)
		name := strings.ToLower(strings.TrimPrefix(fields[0], "/"))
		if idx := strings.IndexByte(name, '@'); idx >= 0 {
			name = name[:idx] // strip Telegram's @botname command suffix
		}
		return command{name: name, args: fields[1:], raw: trimmed}, true
	case strings.HasPrefix(trimmed, "tg "):
		fields := strings.Fields(trimmed)
		if len(fields) < 2 {
			return command{}, false
		}
		return command{name: strings.ToLower(fields[1]), args: fields[2:], raw: trimmed}, true
	default:
		return command{}, false
	}
}

// RouteMessage is routeMessage(msg, ctx) from §4.6: the single entry point
// every inbound chat message passes through, in precedence order.
func (rt *Router) RouteMessage(ctx context.Context, ch channel.Channel, msg channel.InboundMessage) {
	cmd, isCmd := parseCommand(msg.Text)

	// 1. /pair is always accepted, even from an unpaired user, and is
	// rate-limited per user rather than rejected outright.
	if isCmd && cmd.name == "pair" {
		rt.handlePair(ctx, ch, msg, cmd)
		return
	}

	// 2. /start and /help.
	if isCmd && (cmd.name == "start" || cmd.name == "help") {
		rt.reply(ctx, ch, msg.ChatID, helpText)
		return
	}

	// 3. Any other input from an unpaired user is rejected.
	if !rt.cfg.IsPairedUser(ch.Name(), string(msg.UserID)) {
		rt.reply(ctx, ch, msg.ChatID, "You're not paired yet. Send /pair <code> from this chat first.")
		return
	}

	// 4. Unlinked group chats get a terse response, except /link itself.
	if msg.IsGroup && !rt.cfg.IsLinkedChat(ch.Name(), string(msg.ChatID)) && !(isCmd && cmd.name == "link") {
		rt.reply(ctx, ch, msg.ChatID, "Not linked. Run /link to connect this chat.")
		return
	}

	// 5. /link and /unlink.
	if isCmd && cmd.name == "link" {
		rt.handleLink(ctx, ch, msg, cmd)
		return
	}
	if isCmd && cmd.name == "unlink" {
		rt.handleUnlink(ctx, ch, msg)
		return
	}

	// 6. Picker-and-poll commands (native or "tg <sub>" shorthand).
	if isCmd {
		if handler, ok := rt.pickerCommands()[cmd.name]; ok {
			handler(ctx, ch, msg, cmd)
			return
		}
	}

	// 7. Otherwise: stdin input to whichever session this chat is
	// currently talking to.
	rt.handleStdinInput(ctx, ch, msg)
}

func (rt *Router) pickerCommands() map[string]func(context.Context, channel.Channel, channel.InboundMessage, command) {
	return map[string]func(context.Context, channel.Channel, channel.InboundMessage, command){
		"files":           rt.handleFiles,
		"resume":          rt.handleResume,
		"output_mode":     rt.handleOutputMode,
		"thinking":        rt.handleThinking,
		"session":         rt.handleSession,
		"restart":         rt.handleRestart,
		"sessions":        rt.handleSessions,
		"attach":          rt.handleAttach,
		"detach":          rt.handleDetach,
		"stop":            rt.handleStop,
		"kill":            rt.handleKill,
		"background_jobs": rt.handleBackgroundJobs,
	}
}

func (rt *Router) reply(ctx context.Context, ch channel.Channel, chatID addressing.ChatID, text string) {
	_, _ = ch.Send(ctx, chatID, ch.Fmt().Escape(text))
}

const helpText = "touchgrass bridges your local coding tool sessions to this chat.\n" +
	"/pair <code> - link this account\n" +
	"/link - connect this chat to receive output\n" +
	"/sessions - list your running sessions\n" +
	"/attach <id> - route this chat's input to a session\n" +
	"/resume - pick a past session to resume\n" +
	"/restart - restart the current session in place\n" +
	"/stop, /kill - interrupt the current session\n" +
	"/files <query> - look up a repo file to @mention\n" +
	"/output_mode, /thinking - adjust how much output you see\n" +
	"/background_jobs - list running background jobs"

func (rt *Router) handlePair(ctx context.Context, ch channel.Channel, msg channel.InboundMessage, cmd command) {
	if !rt.pairLimiter.Allow(string(msg.UserID)) {
		rt.reply(ctx, ch, msg.ChatID, "Too many pairing attempts; wait a bit and try again.")
		return
	}
	if len(cmd.args) == 0 {
		rt.reply(ctx, ch, msg.ChatID, "Usage: /pair <code>")
		return
	}
	if !rt.srv.RedeemPairingCode(cmd.args[0]) {
		rt.reply(ctx, ch, msg.ChatID, "That code is invalid or has expired.")
		return
	}
	rt.cfg.AddPairedUser(ch.Name(), string(msg.UserID), msg.Username)
	if err := rt.srv.PersistConfig(); err != nil {
		rt.reply(ctx, ch, msg.ChatID, "Paired, but could not save config: "+err.Error())
		return
	}
	rt.reply(ctx, ch, msg.ChatID, "Paired. Send /help to see what's available.")
}

func (rt *Router) handleLink(ctx context.Context, ch channel.Channel, msg channel.InboundMessage, cmd command) {
	parent := addressing.GetParentChatID(msg.ChatID)
	if parent != msg.ChatID && !rt.cfg.IsLinkedChat(ch.Name(), string(parent)) {
		rt.cfg.AddLinkedChat(ch.Name(), string(parent), msg.ChatTitle)
	}

	title := msg.ChatTitle
	if msg.TopicTitle != "" {
		title = msg.TopicTitle
	}
	if len(cmd.args) > 0 {
		title = strings.Join(cmd.args, " ")
	}
	rt.cfg.AddLinkedChat(ch.Name(), string(msg.ChatID), title)

	if err := rt.srv.PersistConfig(); err != nil {
		rt.reply(ctx, ch, msg.ChatID, "Linked, but could not save config: "+err.Error())
		return
	}
	rt.reply(ctx, ch, msg.ChatID, "This chat is now linked.")
}

func (rt *Router) handleUnlink(ctx context.Context, ch channel.Channel, msg channel.InboundMessage) {
	rt.cfg.RemoveLinkedChat(ch.Name(), string(msg.ChatID))
	if err := rt.srv.PersistConfig(); err != nil {
		rt.reply(ctx, ch, msg.ChatID, "Unlinked, but could not save config: "+err.Error())
		return
	}
	rt.reply(ctx, ch, msg.ChatID, "This chat is no longer linked.")
}

// resolveTargetSession implements §4.6 step 7's target-session resolution:
// the session attached to this chat, else the sole session this user owns
// in a DM, else ambiguous (caller should ask the user to pick).
func (rt *Router) resolveTargetSession(msg channel.InboundMessage) (session.RemoteSession, bool) {
	if id, ok := rt.mgr.AttachedSession(msg.ChatID); ok {
		if sess, ok := rt.mgr.Get(id); ok {
			return *sess, true
		}
	}
	if !msg.IsGroup {
		owned := rt.mgr.SessionsForOwner(msg.UserID)
		if len(owned) == 1 {
			return owned[0], true
		}
	}
	return session.RemoteSession{}, false
}

// handleStdinInput implements §4.6 step 7.
func (rt *Router) handleStdinInput(ctx context.Context, ch channel.Channel, msg channel.InboundMessage) {
	sess, ok := rt.resolveTargetSession(msg)
	if !ok {
		rt.reply(ctx, ch, msg.ChatID, "No active session for this chat. Start one, or use /sessions to attach to one.")
		return
	}

	if flow, ok := rt.mgr.FlowForSession(sess.ID, session.FlowApprovalPoll); ok {
		rt.mgr.QueueInput(sess.ID, session.InputPollOther)
		rt.mgr.QueueInput(sess.ID, msg.Text)
		_ = ch.ClosePoll(ctx, flow.ChatID, flow.MessageID)
		rt.mgr.ClearFlow(flow.PollID)
		return
	}

	mentions := rt.mgr.ConsumePendingFileMentions(sess.ID, msg.ChatID, msg.UserID)
	text := msg.Text
	if len(mentions) > 0 {
		text = fmt.Sprintf("%s - %s", strings.Join(mentions, " "), msg.Text)
	}
	rt.mgr.QueueInput(sess.ID, text)
}

// rateLimiter is a per-key sliding-window limiter used to throttle /pair
// attempts: Allow admits at most limit calls per key within any trailing
// window. It is not a token bucket; no capacity comes back until the oldest
// admitted call leaves the window.
type rateLimiter struct {
	mu     sync.Mutex
	limit  int
	window time.Duration
	hits   map[string][]time.Time
}

func newRateLimiter(limit int, window time.Duration) *rateLimiter {
	return &rateLimiter{limit: limit, window: window, hits: make(map[string][]time.Time)}
}

func (r *rateLimiter) Allow(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	cutoff := now.Add(-r.window)
	kept := r.hits[key][:0]
	for _, t := range r.hits[key] {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	if len(kept) >= r.limit {
		r.hits[key] = kept
		return false
	}
	r.hits[key] = append(kept, now)
	return true
}
