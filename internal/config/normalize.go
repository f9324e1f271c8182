package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeTMDB()
	c.normalizeAlerts()
	if err := c.normalizeScheduler(); err != nil {
		return err
	}
	c.normalizeAPI()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeTMDB() {
	c.TMDB.APIKey = strings.TrimSpace(c.TMDB.APIKey)
	if c.TMDB.APIKey == "" {
		if value, ok := os.LookupEnv("TMDB_API_KEY"); ok {
			c.TMDB.APIKey = strings.TrimSpace(value)
		}
	}
	c.TMDB.BaseURL = strings.TrimRight(strings.TrimSpace(c.TMDB.BaseURL), "/")
	if c.TMDB.BaseURL == "" {
		c.TMDB.BaseURL = defaultTMDBBaseURL
	}
	c.TMDB.Language = strings.TrimSpace(c.TMDB.Language)
	if c.TMDB.Language == "" {
		c.TMDB.Language = defaultTMDBLanguage
	}
}

func (c *Config) normalizeAlerts() {
	regions := make([]string, 0, len(c.Alerts.Regions))
	seen := make(map[string]struct{}, len(c.Alerts.Regions))
	for _, region := range c.Alerts.Regions {
		region = strings.TrimSpace(region)
		if region == "" {
			continue
		}
		key := strings.ToLower(region)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		regions = append(regions, region)
	}
	if len(regions) == 0 {
		regions = append(regions, defaultRegions...)
	}
	c.Alerts.Regions = regions
	if c.Alerts.SearchLimit <= 0 {
		c.Alerts.SearchLimit = defaultSearchLimit
	}
}

func (c *Config) normalizeScheduler() error {
	c.Scheduler.RunAt = strings.TrimSpace(c.Scheduler.RunAt)
	if c.Scheduler.RunAt == "" {
		c.Scheduler.RunAt = defaultRunAt
	}
	c.Scheduler.Timezone = strings.TrimSpace(c.Scheduler.Timezone)
	if c.Scheduler.Timezone == "" {
		c.Scheduler.Timezone = defaultTimezone
	}
	loc, err := time.LoadLocation(c.Scheduler.Timezone)
	if err != nil {
		return fmt.Errorf("scheduler.timezone: %w", err)
	}
	c.location = loc
	return nil
}

func (c *Config) normalizeAPI() {
	c.API.Bind = strings.TrimSpace(c.API.Bind)
	if c.API.Bind == "" {
		c.API.Bind = defaultAPIBind
	}
	c.API.Token = strings.TrimSpace(c.API.Token)
	if c.API.Token == "" {
		if value, ok := os.LookupEnv("PREMIERE_API_TOKEN"); ok {
			c.API.Token = strings.TrimSpace(value)
		}
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.Channel = strings.ToLower(strings.TrimSpace(c.Notifications.Channel))
	if c.Notifications.Channel == "" {
		c.Notifications.Channel = defaultNotificationChannel
	}
	c.Notifications.TelegramToken = strings.TrimSpace(c.Notifications.TelegramToken)
	if c.Notifications.TelegramToken == "" {
		if value, ok := os.LookupEnv("TELEGRAM_BOT_TOKEN"); ok {
			c.Notifications.TelegramToken = strings.TrimSpace(value)
		}
	}
	c.Notifications.TelegramBaseURL = strings.TrimRight(strings.TrimSpace(c.Notifications.TelegramBaseURL), "/")
	if c.Notifications.TelegramBaseURL == "" {
		c.Notifications.TelegramBaseURL = defaultTelegramBaseURL
	}
	c.Notifications.NtfyServer = strings.TrimRight(strings.TrimSpace(c.Notifications.NtfyServer), "/")
	if c.Notifications.NtfyServer == "" {
		c.Notifications.NtfyServer = defaultNtfyServer
	}
	c.Notifications.NtfyTopicPrefix = strings.TrimSpace(c.Notifications.NtfyTopicPrefix)
	if c.Notifications.Concurrency <= 0 {
		c.Notifications.Concurrency = defaultNotifyConcurrency
	}
	if c.Notifications.RetryAttempts <= 0 {
		c.Notifications.RetryAttempts = defaultNotifyRetryAttempts
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func parseClock(value string) (int, int, error) {
	parts := strings.Split(strings.TrimSpace(value), ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("expected HH:MM, got %q", value)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid hour in %q", value)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid minute in %q", value)
	}
	return hour, minute, nil
}
