package handlers

import (
	"context"
	"log/slog"

	"github.com/jonboulle/clockwork"

	"github.com/commitly/commitlybot/internal/bot/tasks"
	"github.com/commitly/commitlybot/internal/config"
	"github.com/commitly/commitlybot/internal/messenger"
	"github.com/commitly/commitlybot/internal/news"
)

// Replier sends a command reply with fallbacks.
type Replier interface {
	Reply(ctx context.Context, chatID int64, msg messenger.Message, apology string) bool
}

// Registry is the part of the recipient registry handlers use.
type Registry interface {
	Track(ctx context.Context, id int64) (bool, error)
	Region(ctx context.Context, id int64) (string, bool)
	SetRegion(ctx context.Context, id int64, region string) error
}

// NewsSource finds a headline for /news.
type NewsSource interface {
	Headline(ctx context.Context, topic, region string) (news.Headline, error)
}

// HandlerDeps provides dependencies for Telegram command handlers.
type HandlerDeps struct {
	Logger    *slog.Logger
	Config    *config.Config
	Registry  Registry
	Messenger Replier
	News      NewsSource
	// Tasks backs the debug commands that trigger broadcasts by hand.
	Tasks tasks.TaskDeps
	Clock clockwork.Clock
}

// reply sends msg to the chat of the current command with the configured
// apology as the last resort.
func (d HandlerDeps) reply(ctx context.Context, chatID int64, msg messenger.Message) bool {
	return d.Messenger.Reply(ctx, chatID, msg, d.Config.Messages.GeneralError)
}
