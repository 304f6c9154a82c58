package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/commitly/commitlybot/internal/bot/tasks"
	"github.com/commitly/commitlybot/internal/templates"
)

// NewTestHandler returns a handler for the /test command.
func NewTestHandler(deps HandlerDeps) bot.HandlerFunc {
	return testHandler{deps}.Handle
}

// testHandler checks delivery to the calling chat.
type testHandler struct {
	deps HandlerDeps
}

func (h testHandler) Handle(ctx context.Context, _ *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "test")

	if update.Message == nil {
		log.WarnContext(ctx, "Test handler received update with nil message", "update_id", update.ID)
		return
	}

	chatID := update.Message.Chat.ID
	log.InfoContext(ctx, "Handling /test command", "chat_id", chatID)

	now := h.deps.Clock.Now().In(h.deps.Config.Location())
	if !h.deps.reply(ctx, chatID, templates.SelfTest(now)) {
		return
	}
	h.deps.reply(ctx, chatID, templates.SelfTestQuote(h.deps.Tasks.Quotes.Pick()))
}

// NewTestRemindersHandler returns a handler for the /test_reminders command.
func NewTestRemindersHandler(deps HandlerDeps) bot.HandlerFunc {
	return testRemindersHandler{deps}.Handle
}

// testRemindersHandler broadcasts every reminder immediately.
type testRemindersHandler struct {
	deps HandlerDeps
}

func (h testRemindersHandler) Handle(ctx context.Context, _ *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "test_reminders")

	if update.Message == nil {
		log.WarnContext(ctx, "Test reminders handler received update with nil message", "update_id", update.ID)
		return
	}

	chatID := update.Message.Chat.ID
	log.InfoContext(ctx, "Handling /test_reminders command", "chat_id", chatID)

	h.deps.reply(ctx, chatID, templates.RemindersStarted())
	delivered, total := tasks.RunReminders(ctx, h.deps.Tasks)

	if ctx.Err() != nil {
		log.WarnContext(ctx, "Reminder test interrupted", "error", ctx.Err())
		return
	}
	if total > 0 && delivered == 0 {
		h.deps.reply(ctx, chatID, templates.RemindersFailed())
		return
	}
	h.deps.reply(ctx, chatID, templates.RemindersFinished(delivered, total))
}
