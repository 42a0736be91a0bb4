// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/google/uuid"

	"github.com/tomtev/touchgrass/internal/addressing"
)

// callbackPrefix namespaces the inline-keyboard callback data this adapter
// produces: "tgp:<localPollId>:<optionId>" (§4.5).
const callbackPrefix = "tgp"

// SendPoll renders a single-select poll as an inline keyboard (so the
// option text stays visible and editable) and a multi-select poll as a
// native Telegram poll.
func (a *Adapter) SendPoll(ctx context.Context, chatID addressing.ChatID, question string, options []string, multiSelect bool) (string, string, error) {
	id, err := chatIDToTelegram(chatID)
	if err != nil {
		return "", "", err
	}
	pollID := uuid.NewString()

	if multiSelect {
		var tgOptions []models.InputPollOption
		for _, opt := range options {
			tgOptions = append(tgOptions, models.InputPollOption{Text: truncateOptionLabel(opt)})
		}
		msg, err := a.bot.SendPoll(ctx, &tgbot.SendPollParams{
			ChatID:                id,
			Question:              question,
			Options:               tgOptions,
			AllowsMultipleAnswers: true,
		})
		if err != nil {
			return "", "", fmt.Errorf("telegram: send poll: %w", err)
		}
		return pollID, strconv.Itoa(msg.ID), nil
	}

	var rows [][]models.InlineKeyboardButton
	for i, opt := range options {
		rows = append(rows, []models.InlineKeyboardButton{{
			Text:         truncateOptionLabel(opt),
			CallbackData: fmt.Sprintf("%s:%s:%d", callbackPrefix, pollID, i),
		}})
	}
	msg, err := a.bot.SendMessage(ctx, &tgbot.SendMessageParams{
		ChatID:      id,
		Text:        htmlFormatter{}.Bold(question),
		ParseMode:   models.ParseModeHTML,
		ReplyMarkup: &models.InlineKeyboardMarkup{InlineKeyboard: rows},
	})
	if err != nil {
		return "", "", fmt.Errorf("telegram: send poll keyboard: %w", err)
	}
	return pollID, strconv.Itoa(msg.ID), nil
}

// truncateOptionLabel enforces the 100-char boundary from §8: exactly 100
// chars pass through unchanged, 101+ get a single trailing ellipsis.
func truncateOptionLabel(s string) string {
	const max = 100
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "…"
}

func (a *Adapter) ClosePoll(ctx context.Context, chatID addressing.ChatID, messageID string) error {
	id, err := chatIDToTelegram(chatID)
	if err != nil {
		return err
	}
	msgID, _ := strconv.Atoi(messageID)
	_, err = a.bot.EditMessageReplyMarkup(ctx, &tgbot.EditMessageReplyMarkupParams{
		ChatID:      id,
		MessageID:   msgID,
		ReplyMarkup: &models.InlineKeyboardMarkup{},
	})
	if err != nil && !isNotModifiedError(err) {
		return fmt.Errorf("telegram: close poll: %w", err)
	}
	return nil
}

// parseCallbackData extracts (localPollID, optionIndex) from a
// "tgp:<id>:<option>" callback payload.
func parseCallbackData(data string) (pollID string, optionIndex int, ok bool) {
	parts := strings.Split(data, ":")
	if len(parts) != 3 || parts[0] != callbackPrefix {
		return "", 0, false
	}
	idx, err := strconv.Atoi(parts[2])
	if err != nil {
		return "", 0, false
	}
	return parts[1], idx, true
}
