// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package router

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/tomtev/touchgrass/internal/addressing"
	"github.com/tomtev/touchgrass/internal/channel"
	"github.com/tomtev/touchgrass/internal/outputpipeline"
	"github.com/tomtev/touchgrass/internal/session"
)

// pendingSelection is what a picker poll's PendingFlow.Data carries: the
// action to apply once the user answers, and the session ids matching the
// poll options 1:1.
type pendingSelection struct {
	action     string
	sessionIDs []string
}

func (rt *Router) candidateSessions(msg channel.InboundMessage) []session.RemoteSession {
	sessions := rt.mgr.SessionsForOwner(msg.UserID)
	sort.Slice(sessions, func(i, j int) bool { return sessions[i].LastSeenAt.After(sessions[j].LastSeenAt) })
	return sessions
}

func sessionLabel(s session.RemoteSession) string {
	label := strings.Join(s.Command, " ")
	if s.Cwd != "" {
		label = fmt.Sprintf("%s (%s)", label, s.Cwd)
	}
	if label == "" {
		label = s.ID
	}
	return label
}

// askToPickSession posts a poll over msg's owned sessions and records a
// pendingSelection flow so the answer can be applied by action.
func (rt *Router) askToPickSession(ctx context.Context, ch channel.Channel, msg channel.InboundMessage, action string) {
	candidates := rt.candidateSessions(msg)
	if len(candidates) == 0 {
		rt.reply(ctx, ch, msg.ChatID, "You have no running sessions.")
		return
	}
	options := make([]string, len(candidates))
	ids := make([]string, len(candidates))
	for i, s := range candidates {
		options[i] = sessionLabel(s)
		ids[i] = s.ID
	}
	rt.postSelectionPoll(ctx, ch, msg, "", "Which session?", options, pendingSelection{action: action, sessionIDs: ids})
}

func (rt *Router) postSelectionPoll(ctx context.Context, ch channel.Channel, msg channel.InboundMessage, sessionID, prompt string, options []string, sel pendingSelection) {
	pollID, messageID, err := ch.SendPoll(ctx, msg.ChatID, prompt, options, false)
	if err != nil {
		rt.reply(ctx, ch, msg.ChatID, "Could not present options: "+err.Error())
		return
	}
	rt.mgr.PutFlow(&session.PendingFlow{
		PollID:    pollID,
		Kind:      session.FlowRemoteControlPicker,
		SessionID: sessionID,
		ChatID:    msg.ChatID,
		UserID:    msg.UserID,
		MessageID: messageID,
		Data:      sel,
	})
}

// findSessionByIDOrPrefix resolves cmd.args[0] against the user's own
// sessions by exact id or unambiguous prefix.
func (rt *Router) findSessionByIDOrPrefix(msg channel.InboundMessage, ref string) (session.RemoteSession, bool) {
	var match session.RemoteSession
	found := 0
	for _, s := range rt.candidateSessions(msg) {
		if s.ID == ref {
			return s, true
		}
		if strings.HasPrefix(s.ID, ref) {
			match, found = s, found+1
		}
	}
	return match, found == 1
}

// handleSessions lists the caller's sessions.
func (rt *Router) handleSessions(ctx context.Context, ch channel.Channel, msg channel.InboundMessage, cmd command) {
	candidates := rt.candidateSessions(msg)
	if len(candidates) == 0 {
		rt.reply(ctx, ch, msg.ChatID, "You have no running sessions.")
		return
	}
	var b strings.Builder
	b.WriteString("Your sessions:\n")
	for _, s := range candidates {
		fmt.Fprintf(&b, "%s - %s\n", s.ID, sessionLabel(s))
	}
	rt.reply(ctx, ch, msg.ChatID, strings.TrimRight(b.String(), "\n"))
}

// handleSession targets this chat's attention at a specific session id.
func (rt *Router) handleSession(ctx context.Context, ch channel.Channel, msg channel.InboundMessage, cmd command) {
	rt.handleAttach(ctx, ch, msg, cmd)
}

func (rt *Router) handleAttach(ctx context.Context, ch channel.Channel, msg channel.InboundMessage, cmd command) {
	if len(cmd.args) == 0 {
		rt.askToPickSession(ctx, ch, msg, "attach")
		return
	}
	sess, ok := rt.findSessionByIDOrPrefix(msg, cmd.args[0])
	if !ok {
		rt.reply(ctx, ch, msg.ChatID, "No matching session.")
		return
	}
	rt.mgr.Attach(msg.ChatID, sess.ID)
	rt.reply(ctx, ch, msg.ChatID, "Attached to "+sess.ID+".")
}

func (rt *Router) handleDetach(ctx context.Context, ch channel.Channel, msg channel.InboundMessage, cmd command) {
	if rt.mgr.Detach(msg.ChatID) {
		rt.reply(ctx, ch, msg.ChatID, "Detached.")
		return
	}
	rt.reply(ctx, ch, msg.ChatID, "This chat wasn't attached to anything.")
}

func (rt *Router) handleStop(ctx context.Context, ch channel.Channel, msg channel.InboundMessage, cmd command) {
	rt.applyIDOrPick(ctx, ch, msg, cmd, "stop")
}

func (rt *Router) handleKill(ctx context.Context, ch channel.Channel, msg channel.InboundMessage, cmd command) {
	rt.applyIDOrPick(ctx, ch, msg, cmd, "kill")
}

func (rt *Router) handleRestart(ctx context.Context, ch channel.Channel, msg channel.InboundMessage, cmd command) {
	rt.applyIDOrPick(ctx, ch, msg, cmd, "restart")
}

func (rt *Router) applyIDOrPick(ctx context.Context, ch channel.Channel, msg channel.InboundMessage, cmd command, action string) {
	if len(cmd.args) > 0 {
		target, ok := rt.findSessionByIDOrPrefix(msg, cmd.args[0])
		if !ok {
			rt.reply(ctx, ch, msg.ChatID, "No session matches "+cmd.args[0]+".")
			return
		}
		rt.applyAction(ctx, ch, msg.ChatID, target, action)
		return
	}
	if target, ok := rt.resolveTargetSession(msg); ok {
		rt.applyAction(ctx, ch, msg.ChatID, target, action)
		return
	}
	rt.askToPickSession(ctx, ch, msg, action)
}

// applyAction performs one of stop/kill/restart/attach against a resolved
// session, replying with the outcome.
func (rt *Router) applyAction(ctx context.Context, ch channel.Channel, chatID addressing.ChatID, sess session.RemoteSession, action string) {
	switch action {
	case "stop":
		rt.mgr.RequestRemoteStop(sess.ID)
		rt.reply(ctx, ch, chatID, "Stop requested for "+sess.ID+".")
	case "kill":
		rt.mgr.RequestRemoteKill(sess.ID)
		rt.reply(ctx, ch, chatID, "Kill requested for "+sess.ID+".")
	case "attach":
		rt.mgr.Attach(chatID, sess.ID)
		rt.reply(ctx, ch, chatID, "Attached to "+sess.ID+".")
	case "restart":
		tool := ""
		if len(sess.Command) > 0 {
			tool = sess.Command[0]
		}
		ref := outputpipeline.ExtractResumeRef(tool, sess.Command)
		if ref.ResumeID == "" {
			rt.reply(ctx, ch, chatID, "Couldn't infer a resume reference from this session's command line.")
			return
		}
		rt.mgr.RequestRemoteResume(sess.ID, ref.ResumeID)
		rt.reply(ctx, ch, chatID, "Restarting "+sess.ID+" from "+ref.ResumeID+".")
	}
}

// handleResume lets the user pick one of their own sessions to attach this
// chat to and resume talking to, reusing the same selection-poll flow as
// attach/stop/kill.
func (rt *Router) handleResume(ctx context.Context, ch channel.Channel, msg channel.InboundMessage, cmd command) {
	if len(cmd.args) > 0 {
		rt.applyIDOrPick(ctx, ch, msg, cmd, "attach")
		return
	}
	rt.askToPickSession(ctx, ch, msg, "attach")
}

func (rt *Router) handleOutputMode(ctx context.Context, ch channel.Channel, msg channel.InboundMessage, cmd command) {
	if len(cmd.args) > 0 {
		mode := strings.ToLower(cmd.args[0])
		if mode != "simple" && mode != "verbose" {
			rt.reply(ctx, ch, msg.ChatID, "Usage: /output_mode simple|verbose")
			return
		}
		rt.setOutputMode(ctx, ch, msg.ChatID, mode)
		return
	}
	rt.postSelectionPoll(ctx, ch, msg, "", "Output mode?", []string{"simple", "verbose"}, pendingSelection{action: "output_mode", sessionIDs: []string{"simple", "verbose"}})
}

func (rt *Router) setOutputMode(ctx context.Context, ch channel.Channel, chatID addressing.ChatID, mode string) {
	pref := rt.cfg.PreferenceFor(string(chatID))
	pref.OutputMode = mode
	rt.cfg.SetPreference(string(chatID), pref)
	if err := rt.srv.PersistConfig(); err != nil {
		rt.reply(ctx, ch, chatID, "Set, but could not save config: "+err.Error())
		return
	}
	rt.reply(ctx, ch, chatID, "Output mode set to "+mode+".")
}

func (rt *Router) handleThinking(ctx context.Context, ch channel.Channel, msg channel.InboundMessage, cmd command) {
	if len(cmd.args) > 0 {
		on := strings.EqualFold(cmd.args[0], "on")
		off := strings.EqualFold(cmd.args[0], "off")
		if !on && !off {
			rt.reply(ctx, ch, msg.ChatID, "Usage: /thinking on|off")
			return
		}
		rt.setThinking(ctx, ch, msg.ChatID, on)
		return
	}
	rt.postSelectionPoll(ctx, ch, msg, "", "Show thinking?", []string{"on", "off"}, pendingSelection{action: "thinking", sessionIDs: []string{"on", "off"}})
}

func (rt *Router) setThinking(ctx context.Context, ch channel.Channel, chatID addressing.ChatID, on bool) {
	pref := rt.cfg.PreferenceFor(string(chatID))
	pref.Thinking = on
	rt.cfg.SetPreference(string(chatID), pref)
	if err := rt.srv.PersistConfig(); err != nil {
		rt.reply(ctx, ch, chatID, "Set, but could not save config: "+err.Error())
		return
	}
	state := "off"
	if on {
		state = "on"
	}
	rt.reply(ctx, ch, chatID, "Thinking output is now "+state+".")
}

func (rt *Router) handleBackgroundJobs(ctx context.Context, ch channel.Channel, msg channel.InboundMessage, cmd command) {
	sess, ok := rt.resolveTargetSession(msg)
	if !ok {
		rt.reply(ctx, ch, msg.ChatID, "No active session for this chat.")
		return
	}
	jobs := rt.mgr.JobsForSession(sess.ID)
	if len(jobs) == 0 {
		rt.reply(ctx, ch, msg.ChatID, "No background jobs for this session.")
		return
	}
	var b strings.Builder
	for _, j := range jobs {
		fmt.Fprintf(&b, "%s: %s\n", j.Status, j.Command)
	}
	rt.reply(ctx, ch, msg.ChatID, strings.TrimRight(b.String(), "\n"))
}

// handleFiles ranks the target session's repo files against a query and
// records the ranked list as a pending file-mention pick (§8 Scenario 5).
func (rt *Router) handleFiles(ctx context.Context, ch channel.Channel, msg channel.InboundMessage, cmd command) {
	sess, ok := rt.resolveTargetSession(msg)
	if !ok {
		rt.reply(ctx, ch, msg.ChatID, "No active session for this chat.")
		return
	}
	query := strings.Join(cmd.args, " ")
	files := ListRepoFiles(sess.Cwd)
	matches := RankFiles(files, query)
	if len(matches) == 0 {
		rt.reply(ctx, ch, msg.ChatID, "No matching files.")
		return
	}
	const maxShown = 10
	if len(matches) > maxShown {
		matches = matches[:maxShown]
	}
	rt.mgr.SetPendingFileMentions(sess.ID, msg.ChatID, msg.UserID, []string{"@" + matches[0]})
	rt.postSelectionPoll(ctx, ch, msg, sess.ID, "Which file?", matches, pendingSelection{action: "file", sessionIDs: matches})
}

// HandlePollAnswer applies the outcome of a selection poll created by the
// handlers above, wired from each Channel's OnPollAnswer callback.
func (rt *Router) HandlePollAnswer(ctx context.Context, ch channel.Channel, pa channel.PollAnswer) {
	flow, ok := rt.mgr.GetFlow(pa.PollID)
	if !ok {
		return
	}
	if flow.Kind == session.FlowApprovalPoll || flow.Kind == session.FlowQuestionSet {
		rt.handleToolOriginatedPollAnswer(ctx, ch, flow, pa)
		return
	}
	if flow.Kind != session.FlowRemoteControlPicker {
		return
	}
	rt.mgr.ClearFlow(pa.PollID)
	sel, ok := flow.Data.(pendingSelection)
	if !ok || len(pa.OptionIDs) == 0 {
		return
	}
	idx := pa.OptionIDs[0]
	if idx < 0 || idx >= len(sel.sessionIDs) {
		return
	}
	choice := sel.sessionIDs[idx]

	switch sel.action {
	case "output_mode":
		rt.setOutputMode(ctx, ch, flow.ChatID, choice)
	case "thinking":
		rt.setThinking(ctx, ch, flow.ChatID, choice == "on")
	case "file":
		rt.mgr.SetPendingFileMentions(flow.SessionID, flow.ChatID, flow.UserID, []string{"@" + choice})
		rt.reply(ctx, ch, flow.ChatID, "Queued "+choice+" to mention in your next message.")
	default:
		sess, ok := rt.mgr.Get(choice)
		if !ok {
			rt.reply(ctx, ch, flow.ChatID, "That session has already exited.")
			return
		}
		rt.applyAction(ctx, ch, flow.ChatID, *sess, sel.action)
	}
}

// handleToolOriginatedPollAnswer translates a chat answer to an
// AskUserQuestion poll or an approval poll into the sentinel input frames
// the wrapper's long-poll loop understands (§3, §4.3 step 9): "POLL:ids:multi"
// for the option selection itself, followed by a bare POLL_SUBMIT when more
// than one option was picked (a native multi-select poll submits all
// choices at once, unlike a single-select inline keyboard tap which the
// wrapper treats as self-submitting).
func (rt *Router) handleToolOriginatedPollAnswer(ctx context.Context, ch channel.Channel, flow *session.PendingFlow, pa channel.PollAnswer) {
	rt.mgr.ClearFlow(pa.PollID)
	if len(pa.OptionIDs) == 0 {
		return
	}
	ids := make([]string, len(pa.OptionIDs))
	for i, id := range pa.OptionIDs {
		ids[i] = strconv.Itoa(id)
	}
	multi := len(pa.OptionIDs) > 1
	rt.mgr.QueueInput(flow.SessionID, fmt.Sprintf("POLL:%s:%t", strings.Join(ids, ","), multi))
	if multi {
		rt.mgr.QueueInput(flow.SessionID, session.InputPollSubmit)
	}
	_ = ch.ClosePoll(ctx, flow.ChatID, flow.MessageID)
}
