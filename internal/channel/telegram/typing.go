// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package telegram

import (
	"context"
	"time"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/tomtev/touchgrass/internal/addressing"
)

// SetTyping asserts a typing indicator on a heartbeat interval (idempotent
// on repeated true) and auto-clears after a hard timeout (§4.5, §5).
func (a *Adapter) SetTyping(ctx context.Context, chatID addressing.ChatID, active bool) {
	a.mu.Lock()
	cancel, running := a.typingCancel[chatID]
	a.mu.Unlock()

	if !active {
		if running {
			cancel()
			a.mu.Lock()
			delete(a.typingCancel, chatID)
			a.mu.Unlock()
		}
		return
	}
	if running {
		return // idempotent on repeated true
	}

	heartbeatCtx, cancel := context.WithTimeout(context.Background(), typingTimeout)
	a.mu.Lock()
	a.typingCancel[chatID] = cancel
	a.mu.Unlock()

	go a.runTypingHeartbeat(heartbeatCtx, chatID)
}

func (a *Adapter) runTypingHeartbeat(ctx context.Context, chatID addressing.ChatID) {
	id, err := chatIDToTelegram(chatID)
	if err != nil {
		return
	}
	ticker := time.NewTicker(typingHeartbeat)
	defer ticker.Stop()

	send := func() {
		_, _ = a.bot.SendChatAction(ctx, &tgbot.SendChatActionParams{
			ChatID: id,
			Action: models.ChatActionTyping,
		})
	}
	send()
	for {
		select {
		case <-ctx.Done():
			a.mu.Lock()
			delete(a.typingCancel, chatID)
			a.mu.Unlock()
			return
		case <-ticker.C:
			send()
		}
	}
}
