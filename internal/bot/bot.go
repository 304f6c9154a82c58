// Package bot wires the Telegram listener and the reminder scheduler
// together and manages their lifecycle.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// errListenerStopped is returned when the update listener exits while the
// bot is still supposed to run.
var errListenerStopped = errors.New("telegram listener stopped unexpectedly")

// Listener receives Telegram updates until ctx is done. *bot.Bot satisfies it.
type Listener interface {
	Start(ctx context.Context)
}

// Scheduler runs the scheduled tasks.
type Scheduler interface {
	Start(ctx context.Context) error
	Stop() error
}

// Bot owns the listener and the scheduler for one process lifetime.
type Bot struct {
	logger    *slog.Logger
	listener  Listener
	scheduler Scheduler
}

// NewBot creates a new orchestrator over the listener and scheduler.
func NewBot(logger *slog.Logger, listener Listener, scheduler Scheduler) *Bot {
	return &Bot{
		logger:    logger.With("component", "bot"),
		listener:  listener,
		scheduler: scheduler,
	}
}

// Run starts the listener and the scheduler and blocks until ctx is
// cancelled or one of them fails.
func (b *Bot) Run(ctx context.Context) error {
	b.logger.Info("Running Commitly bot")

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		b.logger.Info("Listening for Telegram updates")

		b.listener.Start(gCtx)
		b.logger.Info("Update listener returned")

		if gCtx.Err() == nil {
			return errListenerStopped
		}
		return nil
	})

	g.Go(func() error {
		b.logger.Info("Starting reminder scheduler")
		if err := b.scheduler.Start(gCtx); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}

		<-gCtx.Done()
		b.logger.Info("Stopping reminder scheduler")

		if err := b.scheduler.Stop(); err != nil {
			b.logger.Error("Reminder scheduler did not stop cleanly", "error", err)
		}
		return nil
	})

	err := g.Wait()

	if err != nil && !errors.Is(err, context.Canceled) {
		b.logger.Error("Commitly bot stopped with error", "error", err)
		return err
	}

	b.logger.Info("Commitly bot stopped")
	return nil
}
