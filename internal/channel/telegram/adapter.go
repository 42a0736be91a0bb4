// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package telegram adapts go-telegram/bot to the Channel interface,
// grounded on Ricochet's internal/telegram/bot.go (allowedUserIDs gate,
// chat-scoped send/edit caching, AskUser-style poll plumbing).
package telegram

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/tomtev/touchgrass/internal/addressing"
	"github.com/tomtev/touchgrass/internal/channel"
	"github.com/tomtev/touchgrass/internal/paths"
)

const (
	typingHeartbeat = 4500 * time.Millisecond
	typingTimeout   = 2 * time.Minute
	maxChunkBytes   = 4000
)

// Adapter implements channel.Channel for Telegram.
type Adapter struct {
	bot   *tgbot.Bot
	token string
	lock  *paths.FileLock

	mu              sync.Mutex
	lastOutputMsgID map[addressing.ChatID]string
	lastOutputText  map[addressing.ChatID]string
	typingCancel    map[addressing.ChatID]context.CancelFunc
	menuSynced      map[string]bool
	topicTitles     map[addressing.ChatID]string

	onPollAnswer func(channel.PollAnswer)
	onDeadChat   func(channel.DeadChatEvent)
	onMessage    func(channel.InboundMessage)

	cancelReceive context.CancelFunc
}

// New constructs an Adapter for the given bot token, taking the
// single-writer poller lock described in spec §5 before starting.
func New(token, lockDir string) (*Adapter, error) {
	lockPath := lockDir + "/telegram-" + paths.TokenFingerprint(token) + ".lock"
	lock := paths.NewFileLock(lockPath)
	if err := lock.Acquire(); err != nil {
		return nil, fmt.Errorf("telegram: acquire poller lock: %w", err)
	}

	a := &Adapter{
		token:           token,
		lock:            lock,
		lastOutputMsgID: make(map[addressing.ChatID]string),
		lastOutputText:  make(map[addressing.ChatID]string),
		typingCancel:    make(map[addressing.ChatID]context.CancelFunc),
		menuSynced:      make(map[string]bool),
		topicTitles:     make(map[addressing.ChatID]string),
	}

	b, err := tgbot.New(token, tgbot.WithDefaultHandler(a.handleUpdate))
	if err != nil {
		_ = lock.Release()
		return nil, fmt.Errorf("telegram: new bot: %w", err)
	}
	a.bot = b
	return a, nil
}

func (a *Adapter) Name() string          { return "telegram" }
func (a *Adapter) Fmt() channel.Formatter { return htmlFormatter{} }

// StartReceiving begins the long-poll loop. Exactly one poller may run per
// token; callers rely on New's lock acquisition to enforce that.
func (a *Adapter) StartReceiving(onMessage func(channel.InboundMessage)) error {
	ctx, cancel := context.WithCancel(context.Background())
	a.cancelReceive = cancel
	a.onMessage = onMessage
	go a.bot.Start(ctx)
	return nil
}

// StopReceiving stops the long-poll loop and releases the poller lock.
func (a *Adapter) StopReceiving() {
	if a.cancelReceive != nil {
		a.cancelReceive()
	}
	_ = a.lock.Release()
}

func (a *Adapter) OnPollAnswer(fn func(channel.PollAnswer)) { a.onPollAnswer = fn }
func (a *Adapter) OnDeadChat(fn func(channel.DeadChatEvent)) { a.onDeadChat = fn }

func chatIDToTelegram(chatID addressing.ChatID) (int64, error) {
	addr, err := addressing.ParseChatID(chatID)
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(addr.IDPart, 10, 64)
}

// Send delivers a single HTML message, clearing any edit-in-place cache
// for the chat (a plain Send always starts a fresh message thread).
func (a *Adapter) Send(ctx context.Context, chatID addressing.ChatID, html string) (string, error) {
	id, err := chatIDToTelegram(chatID)
	if err != nil {
		return "", err
	}
	msg, err := a.bot.SendMessage(ctx, &tgbot.SendMessageParams{
		ChatID:    id,
		Text:      html,
		ParseMode: models.ParseModeHTML,
	})
	if err != nil {
		a.reportIfDeadChat(chatID, err)
		return "", fmt.Errorf("telegram: send: %w", err)
	}

	a.mu.Lock()
	delete(a.lastOutputMsgID, chatID)
	delete(a.lastOutputText, chatID)
	a.mu.Unlock()

	return strconv.Itoa(msg.ID), nil
}

// SendOutput strips ANSI, HTML-escapes, chunks, and sends raw tool output
// as <pre> blocks, editing the previous message in place when it still
// fits (§4.5).
func (a *Adapter) SendOutput(ctx context.Context, chatID addressing.ChatID, rawAnsi string) (string, error) {
	clean := stripANSI(rawAnsi)
	escaped := htmlFormatter{}.Escape(clean)

	a.mu.Lock()
	prevID, hasPrev := a.lastOutputMsgID[chatID]
	prevText := a.lastOutputText[chatID]
	a.mu.Unlock()

	combined := prevText + escaped
	if hasPrev && len(combined) <= maxChunkBytes {
		id, err := chatIDToTelegram(chatID)
		if err != nil {
			return "", err
		}
		msgID, _ := strconv.Atoi(prevID)
		_, err = a.bot.EditMessageText(ctx, &tgbot.EditMessageTextParams{
			ChatID:    id,
			MessageID: msgID,
			Text:      "<pre>" + combined + "</pre>",
			ParseMode: models.ParseModeHTML,
		})
		if err != nil && !isNotModifiedError(err) {
			a.reportIfDeadChat(chatID, err)
			return "", fmt.Errorf("telegram: edit output: %w", err)
		}
		a.mu.Lock()
		a.lastOutputText[chatID] = combined
		a.mu.Unlock()
		return prevID, nil
	}

	var lastID string
	for _, chunk := range chunkText(escaped, maxChunkBytes) {
		id, err := a.Send(ctx, chatID, "<pre>"+chunk+"</pre>")
		if err != nil {
			return "", err
		}
		lastID = id
	}
	a.mu.Lock()
	a.lastOutputMsgID[chatID] = lastID
	a.lastOutputText[chatID] = escaped
	a.mu.Unlock()
	return lastID, nil
}

func (a *Adapter) SendDocument(ctx context.Context, chatID addressing.ChatID, filePath, caption string) error {
	id, err := chatIDToTelegram(chatID)
	if err != nil {
		return err
	}
	_, err = a.bot.SendDocument(ctx, &tgbot.SendDocumentParams{
		ChatID:   id,
		Document: &models.InputFileUpload{Filename: baseName(filePath), Data: nil},
		Caption:  caption,
	})
	if err != nil {
		a.reportIfDeadChat(chatID, err)
		return fmt.Errorf("telegram: send document: %w", err)
	}
	return nil
}

func baseName(path string) string {
	if idx := strings.LastIndexByte(path, '/'); idx >= 0 {
		return path[idx+1:]
	}
	return path
}

func isNotModifiedError(err error) bool {
	return strings.Contains(strings.ToLower(err.Error()), "message is not modified")
}

// deadChatAllowlist mirrors the restricted error-substring allowlist from
// §5: only these conditions mark a chat dead.
var deadChatAllowlist = []string{
	"chat not found", "bot was blocked", "forbidden",
	"chat_write_forbidden", "not enough rights",
	"group chat was deactivated", "bot was kicked",
}

func (a *Adapter) reportIfDeadChat(chatID addressing.ChatID, err error) {
	msg := strings.ToLower(err.Error())
	for _, needle := range deadChatAllowlist {
		if strings.Contains(msg, needle) {
			log.Printf("telegram: chat %s marked dead: %s", chatID, needle)
			if a.onDeadChat != nil {
				a.onDeadChat(channel.DeadChatEvent{ChatID: chatID, Reason: needle})
			}
			return
		}
	}
}
