package config

import (
	"time"

	"github.com/spf13/viper"
)

// Default values for configuration
const (
	DefaultLogLevel = "info"

	DefaultNewsBaseURL  = "https://newsapi.org"
	DefaultNewsTimeout  = 15 * time.Second
	DefaultNewsPageSize = 10
	DefaultRegion       = "ru"

	DefaultNewsBreakerFailures = 5
	DefaultNewsBreakerCooldown = time.Minute

	DefaultStorageDriver = "json"
	DefaultStoragePath   = "bot_data.json"

	DefaultTimezone     = "Europe/Moscow"
	DefaultPollInterval = time.Minute

	DefaultBroadcastConcurrency = 4
	DefaultBroadcastRate        = 25.0 // Telegram allows about 30 messages per second per bot
	DefaultBroadcastBurst       = 5
)

// DefaultMessages are the built-in operational replies.
var DefaultMessages = MessagesConfig{
	GeneralError:    "Произошла ошибка. Попробуйте позже.",
	NewsNotFound:    "Новости не найдены. Попробуйте позже.",
	NewsUnavailable: "NEWSAPI_KEY не задан. Добавьте ключ в .env.",
	RegionUsage:     "Использование: /region ru|us|eu",
	RegionInvalid:   "Неизвестный регион %q. Доступные регионы: ru, us, eu.",
	RegionUpdated:   "Регион новостей изменён на %s.",
	RegionCurrent:   "Текущий регион новостей: %s. Изменить: /region ru|us|eu",
	DebugDisabled:   "Отладочные команды отключены.",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", DefaultLogLevel)
	v.SetDefault("logger.json", false)

	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.debug_commands", false)

	v.SetDefault("news.api_key", "")
	v.SetDefault("news.base_url", DefaultNewsBaseURL)
	v.SetDefault("news.timeout", DefaultNewsTimeout)
	v.SetDefault("news.page_size", DefaultNewsPageSize)
	v.SetDefault("news.default_region", DefaultRegion)
	v.SetDefault("news.breaker_failures", DefaultNewsBreakerFailures)
	v.SetDefault("news.breaker_cooldown", DefaultNewsBreakerCooldown)

	v.SetDefault("storage.driver", DefaultStorageDriver)
	v.SetDefault("storage.path", DefaultStoragePath)

	v.SetDefault("scheduler.timezone", DefaultTimezone)
	v.SetDefault("scheduler.poll_interval", DefaultPollInterval)
	v.SetDefault("scheduler.test_task_delay", time.Duration(0))

	v.SetDefault("broadcast.concurrency", DefaultBroadcastConcurrency)
	v.SetDefault("broadcast.rate_per_second", DefaultBroadcastRate)
	v.SetDefault("broadcast.burst", DefaultBroadcastBurst)

	v.SetDefault("messages.general_error", DefaultMessages.GeneralError)
	v.SetDefault("messages.news_not_found", DefaultMessages.NewsNotFound)
	v.SetDefault("messages.news_unavailable", DefaultMessages.NewsUnavailable)
	v.SetDefault("messages.region_usage", DefaultMessages.RegionUsage)
	v.SetDefault("messages.region_invalid", DefaultMessages.RegionInvalid)
	v.SetDefault("messages.region_updated", DefaultMessages.RegionUpdated)
	v.SetDefault("messages.region_current", DefaultMessages.RegionCurrent)
	v.SetDefault("messages.debug_disabled", DefaultMessages.DebugDisabled)
}
