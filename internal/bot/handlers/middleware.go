// Package handlers contains Telegram bot command handlers, along with their
// registration logic and middleware.
package handlers

import (
	"context"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/commitly/commitlybot/internal/messenger"
)

// Track records the chat of every command as a broadcast recipient. A
// registry failure is logged and the command still runs.
func Track(deps HandlerDeps) tgbot.Middleware {
	return func(next tgbot.HandlerFunc) tgbot.HandlerFunc {
		return func(ctx context.Context, bot *tgbot.Bot, update *models.Update) {
			if update.Message != nil {
				chatID := update.Message.Chat.ID
				if _, err := deps.Registry.Track(ctx, chatID); err != nil {
					deps.Logger.With("middleware", "Track").WarnContext(ctx,
						"Failed to track recipient", "chat_id", chatID, "error", err)
				}
			}
			next(ctx, bot, update)
		}
	}
}

// DebugOnly stops the command with a short notice unless debug commands
// are enabled in the config.
func DebugOnly(deps HandlerDeps) tgbot.Middleware {
	return func(next tgbot.HandlerFunc) tgbot.HandlerFunc {
		return func(ctx context.Context, bot *tgbot.Bot, update *models.Update) {
			if deps.Config.Telegram.DebugCommands || update.Message == nil {
				next(ctx, bot, update)
				return
			}

			chatID := update.Message.Chat.ID
			deps.Logger.With("middleware", "DebugOnly").InfoContext(ctx,
				"Debug command rejected", "chat_id", chatID, "text", update.Message.Text)
			deps.reply(ctx, chatID, messenger.Message{Text: deps.Config.Messages.DebugDisabled})
		}
	}
}
