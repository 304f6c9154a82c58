// Package tasks defines the bot's scheduled reminder and motivation tasks
// and registers them with the scheduler.
package tasks

import (
	"context"
	"log/slog"

	"github.com/jonboulle/clockwork"

	"github.com/commitly/commitlybot/internal/broadcast"
	"github.com/commitly/commitlybot/internal/config"
)

// Broadcaster sends one message to every recipient.
type Broadcaster interface {
	Broadcast(ctx context.Context, name string, compose broadcast.Compose) broadcast.Report
}

// QuotePicker chooses the quote of the day.
type QuotePicker interface {
	Pick() string
}

// TaskDeps contains all dependencies required by scheduled tasks.
type TaskDeps struct {
	Logger      *slog.Logger
	Config      *config.Config
	Broadcaster Broadcaster
	Quotes      QuotePicker
	Clock       clockwork.Clock
}
