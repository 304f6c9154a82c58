// Package config provides configuration loading, validation, and defaults
// for the Commitly bot. Values come from config.yaml, a .env file and
// environment variables, in increasing order of precedence.
package config

import (
	"time"

	"github.com/go-telegram/bot/models"
)

// Config defines the application configuration for all bot components.
type Config struct {
	Logger    LoggerConfig    `mapstructure:"logger"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	News      NewsConfig      `mapstructure:"news"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Broadcast BroadcastConfig `mapstructure:"broadcast"`
	Messages  MessagesConfig  `mapstructure:"messages"`
}

// LoggerConfig controls the slog handler.
type LoggerConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

// TelegramConfig holds the bot credential and command surface switches.
type TelegramConfig struct {
	Token string `mapstructure:"token" validate:"required"`
	// DebugCommands enables /test and /test_reminders.
	DebugCommands bool `mapstructure:"debug_commands"`

	// BotInfo is filled at runtime from getMe.
	BotInfo *models.User `mapstructure:"-"`
}

// NewsConfig configures the NewsAPI client used by /news.
type NewsConfig struct {
	APIKey        string        `mapstructure:"api_key"`
	BaseURL       string        `mapstructure:"base_url"       validate:"required,url"`
	Timeout       time.Duration `mapstructure:"timeout"        validate:"min=1s,max=2m"`
	PageSize      int           `mapstructure:"page_size"      validate:"min=1,max=100"`
	DefaultRegion string        `mapstructure:"default_region" validate:"oneof=ru us eu"`

	// BreakerFailures consecutive upstream failures open the circuit for
	// BreakerCooldown.
	BreakerFailures int           `mapstructure:"breaker_failures" validate:"min=1,max=100"`
	BreakerCooldown time.Duration `mapstructure:"breaker_cooldown" validate:"min=1s,max=1h"`
}

// StorageConfig selects the recipient registry backend.
type StorageConfig struct {
	Driver string `mapstructure:"driver" validate:"oneof=json sqlite"`
	Path   string `mapstructure:"path"   validate:"required"`
}

// SchedulerConfig configures the reminder scheduler.
type SchedulerConfig struct {
	Timezone     string        `mapstructure:"timezone"      validate:"required,timezone"`
	PollInterval time.Duration `mapstructure:"poll_interval" validate:"min=1s,max=1h"`
	// TestTaskDelay schedules a one-shot self-test broadcast this long after
	// startup. Zero disables it.
	TestTaskDelay time.Duration         `mapstructure:"test_task_delay" validate:"min=0"`
	Tasks         map[string]TaskConfig `mapstructure:"tasks"           validate:"dive"`
}

// BroadcastConfig bounds the fan-out of a single broadcast.
type BroadcastConfig struct {
	Concurrency   int     `mapstructure:"concurrency"     validate:"min=1,max=100"`
	RatePerSecond float64 `mapstructure:"rate_per_second" validate:"gt=0,max=30"`
	Burst         int     `mapstructure:"burst"           validate:"min=1"`
}

// MessagesConfig holds short operational replies. Long informational texts
// live in the templates package.
type MessagesConfig struct {
	GeneralError    string `mapstructure:"general_error"    validate:"required"`
	NewsNotFound    string `mapstructure:"news_not_found"   validate:"required"`
	NewsUnavailable string `mapstructure:"news_unavailable" validate:"required"`
	RegionUsage     string `mapstructure:"region_usage"     validate:"required"`
	RegionInvalid   string `mapstructure:"region_invalid"   validate:"required"`
	RegionUpdated   string `mapstructure:"region_updated"   validate:"required"`
	RegionCurrent   string `mapstructure:"region_current"   validate:"required"`
	DebugDisabled   string `mapstructure:"debug_disabled"   validate:"required"`
}

// Location returns the scheduler timezone. Validation guarantees the name
// resolves, so the UTC fallback is only reachable for hand-built configs.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Scheduler.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
