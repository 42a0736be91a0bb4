// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package session holds the daemon's in-memory registry of remote
// sessions, chat attachments, group subscriptions, and pending interactive
// flows -- the hot state described in the data model.
package session

import (
	"time"

	"github.com/tomtev/touchgrass/internal/addressing"
)

// ControlKind names the three control signals a wrapper can be told to act
// on over its next long-poll.
type ControlKind string

const (
	ControlStop   ControlKind = "stop"
	ControlKill   ControlKind = "kill"
	ControlResume ControlKind = "resume"
)

// ControlAction is at most one pending stop/kill/resume signal for a
// session. SessionRef is only meaningful when Kind is ControlResume.
type ControlAction struct {
	Kind       ControlKind `json:"kind"`
	SessionRef string      `json:"sessionRef,omitempty"`
}

// mergeControlAction implements the precedence rule from §3 (I-invariant on
// controlAction): resume beats kill beats stop; a newer resume always
// replaces an older one.
func mergeControlAction(existing *ControlAction, incoming ControlAction) *ControlAction {
	if incoming.Kind == ControlResume {
		a := incoming
		return &a
	}
	if existing != nil && existing.Kind == ControlResume {
		return existing
	}
	if incoming.Kind == ControlKill {
		a := incoming
		return &a
	}
	if existing != nil && existing.Kind == ControlKill {
		return existing
	}
	a := incoming
	return &a
}

// Input queue sentinel frames understood by the wrapper's long-poll loop.
const (
	InputPollSubmit = "POLL_SUBMIT"
	InputPollOther  = "POLL_OTHER"
)

// RemoteSession is the daemon-side record of one live wrapper-managed tool.
type RemoteSession struct {
	ID            string
	Command       []string
	Cwd           string
	ChatID        addressing.ChatID
	OwnerUserID   addressing.UserID
	InputQueue    []string
	ControlAction *ControlAction
	LastSeenAt    time.Time
	CreatedAt     time.Time
}

// JobStatus is the lifecycle state of a background job reported by a tool.
type JobStatus string

const (
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
	JobKilled    JobStatus = "killed"
)

// BackgroundJob tracks one long-running shell process spawned by a tool.
type BackgroundJob struct {
	TaskID    string
	Status    JobStatus
	Command   string
	URLs      []string
	UpdatedAt time.Time
}

// StatusBoardState is the daemon's record of a pinned/inline status-board
// message so it can be edited in place rather than re-sent.
type StatusBoardState struct {
	ChatID    addressing.ChatID
	BoardKey  string
	MessageID string
	Pinned    bool
	LastHTML  string
}

// FlowKind enumerates the pending interactive flow variants from §3.
type FlowKind string

const (
	FlowFilePicker          FlowKind = "file_picker"
	FlowResumePicker        FlowKind = "resume_picker"
	FlowOutputModePicker    FlowKind = "output_mode_picker"
	FlowRemoteControlPicker FlowKind = "remote_control_picker"
	FlowQuestionSet         FlowKind = "question_set"
	FlowApprovalPoll        FlowKind = "approval_poll"
	FlowRecentMessagesPoll  FlowKind = "recent_messages_poll"
)

// PendingFlow is one outstanding poll/keyboard the user has not yet
// answered, keyed by the ephemeral pollId the channel adapter returned.
type PendingFlow struct {
	PollID    string
	Kind      FlowKind
	SessionID string
	ChatID    addressing.ChatID
	UserID    addressing.UserID
	MessageID string
	CreatedAt time.Time
	Data      any
}

type mentionKey struct {
	SessionID string
	ChatID    addressing.ChatID
	UserID    addressing.UserID
}

type boardKey struct {
	ChatID   addressing.ChatID
	BoardKey string
}

// ReapedSession is returned by Manager.ReapStaleRemotes for each session
// that was removed, carrying the chat it had been bound to (if any) so the
// caller can notify it.
type ReapedSession struct {
	Session      RemoteSession
	BoundChatID  addressing.ChatID
	WasAttached  bool
}
