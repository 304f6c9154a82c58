package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("BOT_TOKEN", "123:abc")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"), "")
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Telegram.Token != "123:abc" {
		t.Errorf("token = %q, want value from BOT_TOKEN", cfg.Telegram.Token)
	}
	if cfg.Scheduler.Timezone != DefaultTimezone {
		t.Errorf("timezone = %q, want %q", cfg.Scheduler.Timezone, DefaultTimezone)
	}
	if cfg.Scheduler.PollInterval != time.Minute {
		t.Errorf("poll interval = %v, want 1m", cfg.Scheduler.PollInterval)
	}
	if cfg.Storage.Driver != "json" || cfg.Storage.Path != DefaultStoragePath {
		t.Errorf("storage = %+v, want json at %s", cfg.Storage, DefaultStoragePath)
	}
	if diff := cmp.Diff(DefaultMessages, cfg.Messages); diff != "" {
		t.Errorf("messages mismatch (-want +got):\n%s", diff)
	}
	if got := cfg.Location().String(); got != DefaultTimezone {
		t.Errorf("Location() = %s, want %s", got, DefaultTimezone)
	}
}

func TestLoadConfigMissingTokenIsFatal(t *testing.T) {
	t.Setenv("BOT_TOKEN", "")

	_, err := LoadConfig("", "")
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("LoadConfig() error = %v, want ErrValidation", err)
	}
}

func TestLoadConfigFileAndEnvPrecedence(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "config.yaml", `
telegram:
  token: "from-file"
  debug_commands: true
news:
  default_region: us
  page_size: 5
scheduler:
  timezone: UTC
  poll_interval: 30s
  tasks:
    daily_motivation:
      time: "20:15"
    meeting_prep_reminder:
      enabled: false
      weekdays: [wed, Friday]
storage:
  driver: sqlite
  path: data/bot.db
`)
	envPath := writeFile(t, dir, ".env", "NEWSAPI_KEY=dotenv-key\n")
	t.Setenv("BOT_TIMEZONE", "Europe/Berlin")
	t.Setenv("NEWSAPI_KEY", "")
	os.Unsetenv("NEWSAPI_KEY")

	cfg, err := LoadConfig(cfgPath, envPath)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Telegram.Token != "from-file" || !cfg.Telegram.DebugCommands {
		t.Errorf("telegram = %+v", cfg.Telegram)
	}
	if cfg.News.APIKey != "dotenv-key" {
		t.Errorf("api key = %q, want value from .env", cfg.News.APIKey)
	}
	if cfg.Scheduler.Timezone != "Europe/Berlin" {
		t.Errorf("timezone = %q, env should win over file", cfg.Scheduler.Timezone)
	}
	if cfg.Scheduler.PollInterval != 30*time.Second {
		t.Errorf("poll interval = %v, want 30s", cfg.Scheduler.PollInterval)
	}
	if cfg.News.DefaultRegion != "us" || cfg.News.PageSize != 5 {
		t.Errorf("news = %+v", cfg.News)
	}
	if cfg.Storage.Driver != "sqlite" {
		t.Errorf("storage driver = %q, want sqlite", cfg.Storage.Driver)
	}

	motivation := cfg.Scheduler.Tasks["daily_motivation"]
	if motivation.Time != "20:15" || motivation.Enabled != nil {
		t.Errorf("daily_motivation override = %+v", motivation)
	}
	prep := cfg.Scheduler.Tasks["meeting_prep_reminder"]
	if prep.Enabled == nil || *prep.Enabled {
		t.Errorf("meeting_prep_reminder should be disabled, got %+v", prep)
	}
	days, err := prep.ParsedWeekdays()
	if err != nil {
		t.Fatalf("ParsedWeekdays() error = %v", err)
	}
	if diff := cmp.Diff([]time.Weekday{time.Wednesday, time.Friday}, days); diff != "" {
		t.Errorf("weekdays mismatch (-want +got):\n%s", diff)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown region", func(c *Config) { c.News.DefaultRegion = "asia" }},
		{"bad timezone", func(c *Config) { c.Scheduler.Timezone = "Mars/Olympus" }},
		{"zero poll interval", func(c *Config) { c.Scheduler.PollInterval = 0 }},
		{"bad task time", func(c *Config) {
			c.Scheduler.Tasks = map[string]TaskConfig{"daily_motivation": {Time: "25:99"}}
		}},
		{"bad weekday", func(c *Config) {
			c.Scheduler.Tasks = map[string]TaskConfig{"daily_motivation": {Weekdays: []string{"someday"}}}
		}},
		{"unknown storage driver", func(c *Config) { c.Storage.Driver = "redis" }},
		{"zero broadcast rate", func(c *Config) { c.Broadcast.RatePerSecond = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrValidation) {
				t.Fatalf("Validate() error = %v, want ErrValidation", err)
			}
		})
	}

	if err := validConfig().Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
}

func TestParseWeekday(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]time.Weekday{"tue": time.Tuesday, " Thursday ": time.Thursday, "SUN": time.Sunday} {
		got, err := ParseWeekday(in)
		if err != nil || got != want {
			t.Errorf("ParseWeekday(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseWeekday("funday"); err == nil {
		t.Error("ParseWeekday(funday) expected error")
	}
}

func validConfig() *Config {
	return &Config{
		Logger:   LoggerConfig{Level: "info"},
		Telegram: TelegramConfig{Token: "t"},
		News: NewsConfig{
			BaseURL:         DefaultNewsBaseURL,
			Timeout:         DefaultNewsTimeout,
			PageSize:        DefaultNewsPageSize,
			DefaultRegion:   DefaultRegion,
			BreakerFailures: DefaultNewsBreakerFailures,
			BreakerCooldown: DefaultNewsBreakerCooldown,
		},
		Storage: StorageConfig{Driver: "json", Path: "x.json"},
		Scheduler: SchedulerConfig{
			Timezone:     DefaultTimezone,
			PollInterval: DefaultPollInterval,
		},
		Broadcast: BroadcastConfig{
			Concurrency:   DefaultBroadcastConcurrency,
			RatePerSecond: DefaultBroadcastRate,
			Burst:         DefaultBroadcastBurst,
		},
		Messages: DefaultMessages,
	}
}
