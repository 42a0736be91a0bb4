// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package telegram

import (
	"context"
	"fmt"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/tomtev/touchgrass/internal/addressing"
	"github.com/tomtev/touchgrass/internal/channel"
)

// SyncCommandMenu installs the context-appropriate slash-command menu,
// caching by (chatID,userID) to avoid redundant SetMyCommands calls.
func (a *Adapter) SyncCommandMenu(ctx context.Context, chatID addressing.ChatID, userID addressing.UserID, menuCtx channel.MenuContext) error {
	cacheKey := fmt.Sprintf("%s|%s|%v|%v|%v|%v", chatID, userID, menuCtx.Paired, menuCtx.IsGroup, menuCtx.IsLinkedGroup, menuCtx.HasActiveSession)

	a.mu.Lock()
	already := a.menuSynced[cacheKey]
	a.mu.Unlock()
	if already {
		return nil
	}

	commands := commandsFor(menuCtx)
	scope := &models.BotCommandScopeChat{ChatID: mustTelegramID(chatID)}
	if menuCtx.IsGroup {
		scope2 := &models.BotCommandScopeChatMember{ChatID: mustTelegramID(chatID), UserID: mustTelegramID(addressing.ChatID(userID))}
		_, err := a.bot.SetMyCommands(ctx, &tgbot.SetMyCommandsParams{Commands: commands, Scope: scope2})
		if err != nil {
			return fmt.Errorf("telegram: sync group menu: %w", err)
		}
	} else {
		_, err := a.bot.SetMyCommands(ctx, &tgbot.SetMyCommandsParams{Commands: commands, Scope: scope})
		if err != nil {
			return fmt.Errorf("telegram: sync dm menu: %w", err)
		}
	}

	a.mu.Lock()
	a.menuSynced[cacheKey] = true
	a.mu.Unlock()
	return nil
}

func mustTelegramID(chatID addressing.ChatID) int64 {
	id, _ := chatIDToTelegram(chatID)
	return id
}

// commandsFor picks menu contents based on {paired?, isGroup?,
// isLinkedGroup?, hasActiveSession?} as described in §4.5.
func commandsFor(ctx channel.MenuContext) []models.BotCommand {
	if !ctx.Paired {
		return []models.BotCommand{{Command: "pair", Description: "Pair this chat with a touchgrass code"}}
	}
	if ctx.IsGroup && !ctx.IsLinkedGroup {
		return []models.BotCommand{{Command: "link", Description: "Link this group to touchgrass"}}
	}

	cmds := []models.BotCommand{
		{Command: "help", Description: "Show available commands"},
		{Command: "resume", Description: "Resume a previous session"},
		{Command: "sessions", Description: "List your running sessions"},
		{Command: "attach", Description: "Attach this chat to a session"},
	}
	if ctx.HasActiveSession {
		cmds = append(cmds,
			models.BotCommand{Command: "files", Description: "Mention files from the repo"},
			models.BotCommand{Command: "output_mode", Description: "Toggle compact/verbose output"},
			models.BotCommand{Command: "stop", Description: "Stop the attached session"},
			models.BotCommand{Command: "kill", Description: "Kill the attached session"},
			models.BotCommand{Command: "restart", Description: "Restart the attached session"},
			models.BotCommand{Command: "background_jobs", Description: "List background jobs"},
		)
	}
	if ctx.IsGroup {
		cmds = append(cmds, models.BotCommand{Command: "unlink", Description: "Unlink this group"})
	}
	return cmds
}
