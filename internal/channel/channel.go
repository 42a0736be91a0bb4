// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package channel defines the capability boundary between adapter-specific
// chat-backend code (Telegram today, Slack or others later) and the rest
// of the daemon (§4.5).
package channel

import (
	"context"

	"github.com/tomtev/touchgrass/internal/addressing"
)

// Formatter renders normalized text into a channel's markup dialect.
type Formatter interface {
	Bold(s string) string
	Italic(s string) string
	Code(s string) string
	Pre(s string) string
	Link(text, url string) string
	Escape(s string) string
	FromMarkdown(s string) string
}

// InboundMessage is the normalized shape every adapter emits for a chat
// message, regardless of wire format.
type InboundMessage struct {
	UserID      addressing.UserID
	ChatID      addressing.ChatID
	Username    string
	Text        string
	FileURLs    []string
	IsGroup     bool
	ChatTitle   string
	TopicTitle  string
	ReplyToRef  string
}

// PollAnswer is delivered to OnPollAnswer when a user responds to a
// sendPoll/inline-keyboard poll.
type PollAnswer struct {
	ChatID     addressing.ChatID
	UserID     addressing.UserID
	PollID     string
	OptionIDs  []int
}

// DeadChatEvent is delivered to OnDeadChat when a send fails with one of
// the restricted allowlisted "chat can no longer receive messages" errors.
type DeadChatEvent struct {
	ChatID addressing.ChatID
	Reason string
}

// StatusBoardOptions customizes UpsertStatusBoard behavior.
type StatusBoardOptions struct {
	Pin       bool
	MessageID string
	Pinned    bool
}

// StatusBoardResult is returned by UpsertStatusBoard.
type StatusBoardResult struct {
	MessageID string
	Pinned    bool
	PinError  string
}

// ClearStatusBoardOptions customizes ClearStatusBoard behavior.
type ClearStatusBoardOptions struct {
	Unpin     bool
	MessageID string
	Pinned    bool
}

// MenuContext describes the chat+user state syncCommandMenu needs to pick
// the right slash-command menu.
type MenuContext struct {
	Paired          bool
	IsGroup         bool
	IsLinkedGroup   bool
	HasActiveSession bool
}

// Channel is the full capability surface an adapter may implement. Callers
// degrade gracefully when a capability is unavailable (e.g. Slack lacking
// native polls); this interface is the contract every method must satisfy
// when present, not a promise every adapter implements all of it.
type Channel interface {
	Name() string
	Fmt() Formatter

	Send(ctx context.Context, chatID addressing.ChatID, html string) (messageID string, err error)
	SendOutput(ctx context.Context, chatID addressing.ChatID, rawAnsi string) (messageID string, err error)
	SendDocument(ctx context.Context, chatID addressing.ChatID, filePath, caption string) error
	SendPoll(ctx context.Context, chatID addressing.ChatID, question string, options []string, multiSelect bool) (pollID, messageID string, err error)
	ClosePoll(ctx context.Context, chatID addressing.ChatID, messageID string) error

	UpsertStatusBoard(ctx context.Context, chatID addressing.ChatID, boardKey, html string, opts StatusBoardOptions) (StatusBoardResult, error)
	ClearStatusBoard(ctx context.Context, chatID addressing.ChatID, boardKey string, opts ClearStatusBoardOptions) error

	SetTyping(ctx context.Context, chatID addressing.ChatID, active bool)
	SyncCommandMenu(ctx context.Context, chatID addressing.ChatID, userID addressing.UserID, menuCtx MenuContext) error

	OnPollAnswer(func(PollAnswer))
	OnDeadChat(func(DeadChatEvent))

	StartReceiving(onMessage func(InboundMessage)) error
	StopReceiving()
}
