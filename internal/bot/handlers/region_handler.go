package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/commitly/commitlybot/internal/messenger"
	"github.com/commitly/commitlybot/internal/news"
)

// NewRegionHandler returns a handler for the /region command.
func NewRegionHandler(deps HandlerDeps) bot.HandlerFunc {
	return regionHandler{deps}.Handle
}

// regionHandler shows or changes the chat's news region.
type regionHandler struct {
	deps HandlerDeps
}

func (h regionHandler) Handle(ctx context.Context, _ *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "region")

	if update.Message == nil {
		log.WarnContext(ctx, "Region handler received update with nil message", "update_id", update.ID)
		return
	}

	chatID := update.Message.Chat.ID
	msgs := h.deps.Config.Messages
	arg := strings.ToLower(commandArgs(update.Message.Text))

	if arg == "" {
		region, ok := h.deps.Registry.Region(ctx, chatID)
		if !ok {
			region = h.deps.Config.News.DefaultRegion
		}
		h.deps.reply(ctx, chatID, messenger.Message{Text: fmt.Sprintf(msgs.RegionCurrent, region)})
		return
	}

	if !news.ValidRegion(arg) {
		log.InfoContext(ctx, "Rejected unknown region", "chat_id", chatID, "region", arg)
		h.deps.reply(ctx, chatID, messenger.Message{Text: fmt.Sprintf(msgs.RegionInvalid, arg)})
		return
	}

	if err := h.deps.Registry.SetRegion(ctx, chatID, arg); err != nil {
		log.ErrorContext(ctx, "Failed to store region", "chat_id", chatID, "error", err)
		h.deps.reply(ctx, chatID, messenger.Message{Text: msgs.GeneralError})
		return
	}

	log.InfoContext(ctx, "News region updated", "chat_id", chatID, "region", arg)
	h.deps.reply(ctx, chatID, messenger.Message{Text: fmt.Sprintf(msgs.RegionUpdated, arg)})
}
