// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package outputpipeline

import (
	"context"
	"fmt"

	"github.com/tomtev/touchgrass/internal/addressing"
	"github.com/tomtev/touchgrass/internal/channel"
	"github.com/tomtev/touchgrass/internal/config"
	"github.com/tomtev/touchgrass/internal/control"
	"github.com/tomtev/touchgrass/internal/session"
	"github.com/tomtev/touchgrass/internal/transcript"
)

var _ control.EventSink = (*Pipeline)(nil)

// ChannelResolver is the narrow slice of control.Server the pipeline
// needs: resolving which adapter owns a given chat. Declared locally as an
// interface so the pipeline depends on this one method rather than on the
// whole control.Server (the EventSink interface it implements is control's).
type ChannelResolver interface {
	ChannelForChat(chatID addressing.ChatID) (channel.Channel, bool)
}

// Pipeline fans normalized transcript events out to every chat bound or
// subscribed to a session (§4.7), implementing control.EventSink.
type Pipeline struct {
	mgr      *session.Manager
	cfg      *config.Config
	channels ChannelResolver
}

// New constructs a Pipeline. Register it with the control server via
// control.Server.SetEventSink once both exist.
func New(mgr *session.Manager, cfg *config.Config, channels ChannelResolver) *Pipeline {
	return &Pipeline{mgr: mgr, cfg: cfg, channels: channels}
}

// targets returns every chat that should receive sessionID's events: the
// bound chat, if any, plus every subscribed group (§4.7 "target set").
func (p *Pipeline) targets(sessionID string) []addressing.ChatID {
	bound, hasBound, groups := p.mgr.BoundAndGroups(sessionID)
	out := groups
	if hasBound {
		out = append(out, bound)
	}
	return out
}

func (p *Pipeline) outputModeFor(chatID addressing.ChatID) string {
	pref := p.cfg.PreferenceFor(string(chatID))
	if pref.OutputMode == "" {
		return "verbose"
	}
	return pref.OutputMode
}

func (p *Pipeline) thinkingEnabledFor(chatID addressing.ChatID) bool {
	return p.cfg.PreferenceFor(string(chatID)).Thinking
}

// Assistant forwards an assistant-text event to every target (§4.7:
// "every forwarded assistant message is sent to all targets").
func (p *Pipeline) Assistant(sessionID, text string) {
	if text == "" {
		return
	}
	ctx := context.Background()
	for _, chatID := range p.targets(sessionID) {
		ch, ok := p.channels.ChannelForChat(chatID)
		if !ok {
			continue
		}
		ch.SetTyping(ctx, chatID, false)
		_, _ = ch.Send(ctx, chatID, ch.Fmt().FromMarkdown(text))
	}
}

// Thinking forwards a thinking-text fragment, but only to chats that have
// opted into seeing it.
func (p *Pipeline) Thinking(sessionID, text string) {
	if text == "" {
		return
	}
	ctx := context.Background()
	for _, chatID := range p.targets(sessionID) {
		if !p.thinkingEnabledFor(chatID) {
			continue
		}
		ch, ok := p.channels.ChannelForChat(chatID)
		if !ok {
			continue
		}
		_, _ = ch.Send(ctx, chatID, ch.Fmt().Italic(text))
	}
}

// ToolCall renders and forwards a tool call, honoring each target chat's
// output mode independently.
func (p *Pipeline) ToolCall(sessionID string, tc transcript.ToolCall) {
	ctx := context.Background()
	for _, chatID := range p.targets(sessionID) {
		mode := p.outputModeFor(chatID)
		if !ShouldShowToolCall(mode, tc.Name) {
			continue
		}
		ch, ok := p.channels.ChannelForChat(chatID)
		if !ok {
			continue
		}
		_, _ = ch.Send(ctx, chatID, RenderToolCall(ch.Fmt(), mode, tc))
	}
}

// ToolResult renders and forwards a tool result, honoring output mode.
func (p *Pipeline) ToolResult(sessionID string, tr transcript.ToolResult) {
	ctx := context.Background()
	for _, chatID := range p.targets(sessionID) {
		mode := p.outputModeFor(chatID)
		if !ShouldShowToolResult(mode, tr.ToolName, tr.IsError) {
			continue
		}
		ch, ok := p.channels.ChannelForChat(chatID)
		if !ok {
			continue
		}
		_, _ = ch.Send(ctx, chatID, RenderToolResult(ch.Fmt(), tr))
	}
}

// Question posts a lifted AskUserQuestion as a poll on the session's
// primary bound chat and records a pending flow so the answer can be
// routed back.
func (p *Pipeline) Question(sessionID string, q transcript.Question) (string, error) {
	return p.postPoll(sessionID, q.Prompt, q.Options, q.MultiSelect, session.FlowQuestionSet)
}

// ApprovalNeeded posts a non-Claude approval prompt as a single-select
// poll with a free-form "Other" fallback handled by the command router.
func (p *Pipeline) ApprovalNeeded(sessionID string, prompt string, options []string) (string, error) {
	return p.postPoll(sessionID, prompt, options, false, session.FlowApprovalPoll)
}

func (p *Pipeline) postPoll(sessionID, prompt string, options []string, multiSelect bool, kind session.FlowKind) (string, error) {
	bound, hasBound, _ := p.mgr.BoundAndGroups(sessionID)
	if !hasBound {
		return "", fmt.Errorf("outputpipeline: session %s has no bound chat to poll", sessionID)
	}
	ch, ok := p.channels.ChannelForChat(bound)
	if !ok {
		return "", fmt.Errorf("outputpipeline: no channel for chat %s", bound)
	}

	ctx := context.Background()
	pollID, messageID, err := ch.SendPoll(ctx, bound, prompt, options, multiSelect)
	if err != nil {
		return "", err
	}

	sess, _ := p.mgr.Get(sessionID)
	var owner addressing.UserID
	if sess != nil {
		owner = sess.OwnerUserID
	}
	p.mgr.PutFlow(&session.PendingFlow{
		PollID:    pollID,
		Kind:      kind,
		SessionID: sessionID,
		ChatID:    bound,
		UserID:    owner,
		MessageID: messageID,
	})
	return pollID, nil
}

// BackgroundJob records the job's lifecycle update and refreshes the
// status board for every target, pinning on first creation and unpinning
// on clear (§4.7).
func (p *Pipeline) BackgroundJob(sessionID string, ev transcript.BackgroundJobEvent) {
	p.mgr.UpsertJob(sessionID, session.BackgroundJob{
		TaskID:  ev.TaskID,
		Status:  session.JobStatus(ev.Status),
		Command: ev.Command,
		URLs:    ev.URLs,
	})

	ctx := context.Background()
	const boardKey = "background-jobs"
	for _, chatID := range p.targets(sessionID) {
		ch, ok := p.channels.ChannelForChat(chatID)
		if !ok {
			continue
		}
		html := renderJobBoard(ch.Fmt(), p.mgr.JobsForSession(sessionID))
		if ev.Status == string(session.JobKilled) || ev.Status == string(session.JobCompleted) || ev.Status == string(session.JobFailed) {
			if stillRunning(p.mgr.JobsForSession(sessionID)) {
				p.refreshBoard(ctx, ch, chatID, boardKey, html)
				continue
			}
			p.clearBoard(ctx, ch, chatID, boardKey)
			continue
		}
		p.refreshBoard(ctx, ch, chatID, boardKey, html)
	}
}

func stillRunning(jobs []session.BackgroundJob) bool {
	for _, j := range jobs {
		if j.Status == session.JobRunning {
			return true
		}
	}
	return false
}

func renderJobBoard(fmtr channel.Formatter, jobs []session.BackgroundJob) string {
	out := fmtr.Bold("Background jobs")
	for _, j := range jobs {
		out += "\n" + string(j.Status) + " " + fmtr.Code(j.Command)
	}
	return out
}

func (p *Pipeline) refreshBoard(ctx context.Context, ch channel.Channel, chatID addressing.ChatID, key, html string) {
	existing, has := p.mgr.GetBoard(chatID, key)
	if has && existing.LastHTML == html {
		return
	}
	opts := channel.StatusBoardOptions{Pin: !has}
	if has {
		opts.MessageID = existing.MessageID
		opts.Pinned = existing.Pinned
	}
	result, err := ch.UpsertStatusBoard(ctx, chatID, key, html, opts)
	if err != nil {
		return
	}
	p.mgr.UpsertBoard(chatID, key, session.StatusBoardState{
		ChatID: chatID, BoardKey: key,
		MessageID: result.MessageID, Pinned: result.Pinned, LastHTML: html,
	})
}

func (p *Pipeline) clearBoard(ctx context.Context, ch channel.Channel, chatID addressing.ChatID, key string) {
	existing, has := p.mgr.GetBoard(chatID, key)
	if !has {
		return
	}
	_ = ch.ClearStatusBoard(ctx, chatID, key, channel.ClearStatusBoardOptions{
		Unpin: true, MessageID: existing.MessageID, Pinned: existing.Pinned,
	})
	p.mgr.ClearBoard(chatID, key)
}

// Typing turns a typing indicator on or off on every target chat.
func (p *Pipeline) Typing(sessionID string, active bool) {
	ctx := context.Background()
	for _, chatID := range p.targets(sessionID) {
		ch, ok := p.channels.ChannelForChat(chatID)
		if !ok {
			continue
		}
		ch.SetTyping(ctx, chatID, active)
	}
}
