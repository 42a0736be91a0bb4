// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package telegram

import (
	"context"
	"strconv"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/tomtev/touchgrass/internal/addressing"
	"github.com/tomtev/touchgrass/internal/channel"
)

// UpsertStatusBoard edits the board message in place when it exists and
// its content changed, falls back to a new message when the previous one
// isn't editable, and tolerates a pin failure without failing the whole
// operation (§4.5, and the "pinError but still succeeds" scenario in §8).
func (a *Adapter) UpsertStatusBoard(ctx context.Context, chatID addressing.ChatID, boardKey, html string, opts channel.StatusBoardOptions) (channel.StatusBoardResult, error) {
	id, err := chatIDToTelegram(chatID)
	if err != nil {
		return channel.StatusBoardResult{}, err
	}

	if opts.MessageID != "" {
		msgID, _ := strconv.Atoi(opts.MessageID)
		_, err := a.bot.EditMessageText(ctx, &tgbot.EditMessageTextParams{
			ChatID:    id,
			MessageID: msgID,
			Text:      html,
			ParseMode: models.ParseModeHTML,
		})
		if err == nil || isNotModifiedError(err) {
			return channel.StatusBoardResult{MessageID: opts.MessageID, Pinned: opts.Pinned}, nil
		}
		// Previous message isn't editable any more (deleted, too old);
		// fall through to sending a fresh one.
	}

	msg, err := a.bot.SendMessage(ctx, &tgbot.SendMessageParams{
		ChatID:    id,
		Text:      html,
		ParseMode: models.ParseModeHTML,
	})
	if err != nil {
		return channel.StatusBoardResult{}, err
	}
	result := channel.StatusBoardResult{MessageID: strconv.Itoa(msg.ID)}

	if opts.MessageID != "" && opts.Pinned {
		oldID, _ := strconv.Atoi(opts.MessageID)
		_, _ = a.bot.UnpinChatMessage(ctx, &tgbot.UnpinChatMessageParams{ChatID: id, MessageID: oldID})
	}

	if opts.Pin {
		_, err := a.bot.PinChatMessage(ctx, &tgbot.PinChatMessageParams{
			ChatID:              id,
			MessageID:           msg.ID,
			DisableNotification: true,
		})
		if err != nil {
			result.PinError = err.Error()
			result.Pinned = false
		} else {
			result.Pinned = true
		}
	}
	return result, nil
}

// ClearStatusBoard unpins (if requested) and deletes the board message.
func (a *Adapter) ClearStatusBoard(ctx context.Context, chatID addressing.ChatID, boardKey string, opts channel.ClearStatusBoardOptions) error {
	id, err := chatIDToTelegram(chatID)
	if err != nil || opts.MessageID == "" {
		return err
	}
	msgID, _ := strconv.Atoi(opts.MessageID)

	if opts.Unpin && opts.Pinned {
		_, _ = a.bot.UnpinChatMessage(ctx, &tgbot.UnpinChatMessageParams{ChatID: id, MessageID: msgID})
	}
	_, err = a.bot.DeleteMessage(ctx, &tgbot.DeleteMessageParams{ChatID: id, MessageID: msgID})
	return err
}
