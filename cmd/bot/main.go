// Package main contains the entrypoint for the Commitly Telegram bot.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbot "github.com/go-telegram/bot"
	"github.com/jonboulle/clockwork"
	"github.com/spf13/afero"

	"github.com/commitly/commitlybot/internal/bot"
	"github.com/commitly/commitlybot/internal/bot/handlers"
	"github.com/commitly/commitlybot/internal/bot/tasks"
	"github.com/commitly/commitlybot/internal/broadcast"
	"github.com/commitly/commitlybot/internal/config"
	"github.com/commitly/commitlybot/internal/logger"
	"github.com/commitly/commitlybot/internal/messenger"
	"github.com/commitly/commitlybot/internal/news"
	"github.com/commitly/commitlybot/internal/registry"
	"github.com/commitly/commitlybot/internal/scheduler"
	"github.com/commitly/commitlybot/internal/telegram"
	"github.com/commitly/commitlybot/internal/templates"

	_ "time/tzdata"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	exitCode := run(ctx)
	stop()
	os.Exit(exitCode)
}

// openStore returns the registry backend selected in the config.
func openStore(cfg config.StorageConfig, log *slog.Logger) (registry.Store, error) {
	switch cfg.Driver {
	case "sqlite":
		return registry.OpenSQLite(cfg.Path, log)
	case "json":
		return registry.NewFileStore(afero.NewOsFs(), cfg.Path), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// run initializes and starts all application components, handles graceful
// shutdown, and returns an exit code (0 for success, 1 for failure).
func run(ctx context.Context) int {
	configPath := flag.String("config", "./config.yaml", "Path to configuration file")
	envPath := flag.String("env", ".env", "Path to dotenv file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath, *envPath)
	if err != nil {
		slog.Error("Failed to load configuration", "path", *configPath, "error", err)
		return 1
	}

	log := logger.NewLogger(cfg.Logger.Level, cfg.Logger.JSON)
	log.Info("Logger initialized", "level", cfg.Logger.Level, "json", cfg.Logger.JSON)

	store, err := openStore(cfg.Storage, log)
	if err != nil {
		log.Error("Failed to open registry storage", "driver", cfg.Storage.Driver, "path", cfg.Storage.Path, "error", err)
		return 1
	}
	reg := registry.New(store, log)
	defer func() {
		if err := reg.Close(); err != nil {
			log.Error("Error closing registry", "error", err)
		}
	}()
	log.Info("Registry ready", "driver", cfg.Storage.Driver, "recipients", len(reg.Recipients(ctx)))

	tg, err := telegram.NewTelegramBot(cfg.Telegram.Token, log, tgbot.WithMiddlewares(logger.Middleware(log)))
	if err != nil {
		log.Error("Failed to create Telegram bot", "error", err)
		return 1
	}

	cfg.Telegram.BotInfo, err = tg.GetMe(ctx)
	if err != nil {
		log.Error("Failed to get bot info", "error", err)
		return 1
	}
	log.Info("Retrieved bot info", "bot_id", cfg.Telegram.BotInfo.ID, "bot_username", cfg.Telegram.BotInfo.Username)

	clock := clockwork.NewRealClock()
	msgr := messenger.New(tg, log)
	dispatcher := broadcast.NewDispatcher(reg, msgr, broadcast.Options{
		Concurrency:   cfg.Broadcast.Concurrency,
		RatePerSecond: cfg.Broadcast.RatePerSecond,
		Burst:         cfg.Broadcast.Burst,
	}, log)

	tDeps := tasks.TaskDeps{
		Logger:      log,
		Config:      cfg,
		Broadcaster: dispatcher,
		Quotes:      templates.QuotePicker{},
		Clock:       clock,
	}
	newsAPI := news.NewBreaker(
		news.NewClient(cfg.News.BaseURL, cfg.News.APIKey, cfg.News.Timeout),
		news.BreakerConfig{MaxFailures: cfg.News.BreakerFailures, Cooldown: cfg.News.BreakerCooldown},
		log)
	hDeps := handlers.HandlerDeps{
		Logger:    log,
		Config:    cfg,
		Registry:  reg,
		Messenger: msgr,
		News:      news.NewService(newsAPI, cfg.News.PageSize, log),
		Tasks:     tDeps,
		Clock:     clock,
	}
	if cfg.News.APIKey == "" {
		log.Warn("NEWSAPI_KEY is not set, /news will report that news are unavailable")
	}

	cmdHandlers := handlers.RegisterAllCommands(hDeps)
	if err := telegram.RegisterHandlers(tg, log, cmdHandlers); err != nil {
		log.Error("Failed to register Telegram handlers", "error", err)
		return 1
	}
	if err := telegram.SetCommands(ctx, tg, cmdHandlers); err != nil {
		log.Warn("Failed to publish command menu", "error", err)
	}

	sched, err := scheduler.New(scheduler.Options{
		Clock:        clock,
		Location:     cfg.Location(),
		PollInterval: cfg.Scheduler.PollInterval,
		Completions:  reg,
		Logger:       log,
	})
	if err != nil {
		log.Error("Failed to create scheduler", "error", err)
		return 1
	}
	defs, err := tasks.RegisterAllTasks(tDeps)
	if err != nil {
		log.Error("Invalid scheduled task table", "error", err)
		return 1
	}
	if err := tasks.ScheduleAll(sched, defs); err != nil {
		log.Error("Failed to register scheduled tasks", "error", err)
		return 1
	}

	app := bot.NewBot(log, tg, sched)

	log.Info("Starting bot...")
	runErr := app.Run(ctx)
	log.Info("Bot run loop finished. Initiating shutdown...")

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		log.Error("Bot stopped due to error", "error", runErr)
		// Allow logs to flush before exiting on error
		time.Sleep(time.Second)
		return 1
	}

	log.Info("Bot stopped gracefully.")
	return 0
}
