package config

import (
	"errors"
	"fmt"
	"slices"

	"golang.org/x/text/language"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateTMDB(); err != nil {
		return err
	}
	if err := c.validateAlerts(); err != nil {
		return err
	}
	if err := c.validateScheduler(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateTMDB() error {
	if c.TMDB.APIKey == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/premiere/config.toml"
		}
		return fmt.Errorf("tmdb.api_key is required. Set TMDB_API_KEY env var or edit %s (create with 'premiere config init')", defaultPath)
	}
	if _, err := language.Parse(c.TMDB.Language); err != nil {
		return fmt.Errorf("tmdb.language %q is not a BCP 47 tag: %w", c.TMDB.Language, err)
	}
	return ensurePositiveMap(map[string]int{
		"tmdb.request_timeout":       c.TMDB.RequestTimeout,
		"metadata.retry_attempts":    c.Metadata.RetryAttempts,
		"metadata.cache_size":        c.Metadata.CacheSize,
		"metadata.cache_ttl_seconds": c.Metadata.CacheTTLSeconds,
	})
}

func (c *Config) validateAlerts() error {
	if c.Alerts.SearchLimit > maxSearchLimit {
		return fmt.Errorf("alerts.search_limit must be at most %d", maxSearchLimit)
	}
	if c.Alerts.RecheckDays <= 0 {
		return errors.New("alerts.recheck_days must be positive")
	}
	return nil
}

func (c *Config) validateScheduler() error {
	if _, _, err := parseClock(c.Scheduler.RunAt); err != nil {
		return fmt.Errorf("scheduler.run_at: %w", err)
	}
	return nil
}

func (c *Config) validateNotifications() error {
	channels := []string{notificationChannelTelegram, notificationChannelNtfy, notificationChannelLogOnly}
	if !slices.Contains(channels, c.Notifications.Channel) {
		return fmt.Errorf("notifications.channel: unsupported value %q (expected telegram, ntfy, or log)", c.Notifications.Channel)
	}
	if c.Notifications.Channel == notificationChannelTelegram && c.Notifications.TelegramToken == "" {
		return errors.New("notifications.telegram_token must be set when notifications.channel is telegram (or set TELEGRAM_BOT_TOKEN)")
	}
	return ensurePositiveMap(map[string]int{
		"notifications.request_timeout": c.Notifications.RequestTimeout,
	})
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return ensurePositiveMap(map[string]int{
		"logging.max_size_mb": c.Logging.MaxSizeMB,
	})
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
