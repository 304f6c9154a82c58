package handlers

import (
	"context"
	"errors"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/commitly/commitlybot/internal/messenger"
	"github.com/commitly/commitlybot/internal/news"
)

// NewNewsHandler returns a handler for the /news command.
func NewNewsHandler(deps HandlerDeps) bot.HandlerFunc {
	return newsHandler{deps}.Handle
}

// newsHandler replies with one headline for the chat's region.
type newsHandler struct {
	deps HandlerDeps
}

func (h newsHandler) Handle(ctx context.Context, _ *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "news")

	if update.Message == nil {
		log.WarnContext(ctx, "News handler received update with nil message", "update_id", update.ID)
		return
	}

	chatID := update.Message.Chat.ID
	topic := commandArgs(update.Message.Text)
	region, ok := h.deps.Registry.Region(ctx, chatID)
	if !ok {
		region = h.deps.Config.News.DefaultRegion
	}
	log = log.With("chat_id", chatID, "region", region, "topic", topic)
	log.InfoContext(ctx, "Handling /news command")

	headline, err := h.deps.News.Headline(ctx, topic, region)
	switch {
	case errors.Is(err, news.ErrNoAPIKey):
		log.WarnContext(ctx, "News requested but no API key is configured")
		h.deps.reply(ctx, chatID, messenger.Message{Text: h.deps.Config.Messages.NewsUnavailable})
		return
	case err != nil:
		log.WarnContext(ctx, "No news to send", "error", err)
		h.deps.reply(ctx, chatID, messenger.Message{Text: h.deps.Config.Messages.NewsNotFound})
		return
	}

	h.deps.reply(ctx, chatID, messenger.Message{Text: headline.Text()})
}
