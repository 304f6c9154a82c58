package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/commitly/commitlybot/internal/messenger"
	"github.com/commitly/commitlybot/internal/templates"
)

// staticHandler answers a command with a fixed text.
type staticHandler struct {
	deps    HandlerDeps
	name    string
	message func() messenger.Message
}

// NewAboutHandler returns a handler for the /about command.
func NewAboutHandler(deps HandlerDeps) bot.HandlerFunc {
	return staticHandler{deps: deps, name: "about", message: templates.About}.Handle
}

// NewContactsHandler returns a handler for the /contacts command.
func NewContactsHandler(deps HandlerDeps) bot.HandlerFunc {
	return staticHandler{deps: deps, name: "contacts", message: templates.Contacts}.Handle
}

// NewRateHandler returns a handler for the /rate command.
func NewRateHandler(deps HandlerDeps) bot.HandlerFunc {
	return staticHandler{deps: deps, name: "rate", message: templates.Rate}.Handle
}

func (h staticHandler) Handle(ctx context.Context, _ *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", h.name)

	if update.Message == nil {
		log.WarnContext(ctx, "Handler received update with nil message", "update_id", update.ID)
		return
	}

	chatID := update.Message.Chat.ID
	log.InfoContext(ctx, "Handling command", "command", "/"+h.name, "chat_id", chatID)
	h.deps.reply(ctx, chatID, h.message())
}
