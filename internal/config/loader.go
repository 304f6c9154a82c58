package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// envAliases binds the variable names used by earlier deployments in
// addition to the BOT_ prefixed automatic names.
var envAliases = map[string][]string{
	"telegram.token":      {"BOT_TOKEN", "BOT_TELEGRAM_TOKEN"},
	"news.api_key":        {"NEWSAPI_KEY", "BOT_NEWS_API_KEY"},
	"scheduler.timezone":  {"BOT_TIMEZONE", "BOT_SCHEDULER_TIMEZONE"},
	"news.default_region": {"BOT_REGION", "BOT_NEWS_DEFAULT_REGION"},
}

// LoadConfig loads and validates configuration from:
// 1. Default values
// 2. the YAML file at configPath (optional)
// 3. the dotenv file at envPath (optional, never overrides real environment)
// 4. environment variables
func LoadConfig(configPath, envPath string) (*Config, error) {
	if envPath != "" {
		if err := godotenv.Load(envPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load env file %s: %w", envPath, err)
		}
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("BOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, names := range envAliases {
		if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
			return nil, fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
			}
			slog.Info("Configuration file not found, using defaults and environment", "path", configPath)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}
