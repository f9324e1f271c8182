package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	StateDir string `toml:"state_dir"`
	LogDir   string `toml:"log_dir"`
}

// TMDB contains configuration for The Movie Database API.
type TMDB struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Language       string `toml:"language"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Metadata controls provider caching and retries.
type Metadata struct {
	CacheSize       int `toml:"cache_size"`
	CacheTTLSeconds int `toml:"cache_ttl_seconds"`
	RetryAttempts   int `toml:"retry_attempts"`
}

// Alerts contains release resolution settings.
type Alerts struct {
	// Regions lists the aliases accepted as the target release region. The
	// first entry is used in user-facing messages.
	Regions     []string `toml:"regions"`
	SearchLimit int      `toml:"search_limit"`
	RecheckDays int      `toml:"recheck_days"`
}

// Scheduler contains daily cycle timing.
type Scheduler struct {
	RunAt      string `toml:"run_at"`
	Timezone   string `toml:"timezone"`
	RunOnStart bool   `toml:"run_on_start"`
}

// API contains HTTP API settings.
type API struct {
	Bind  string `toml:"bind"`
	Token string `toml:"token"`
}

// Notifications contains delivery channel settings.
type Notifications struct {
	Channel         string `toml:"channel"`
	TelegramToken   string `toml:"telegram_token"`
	TelegramBaseURL string `toml:"telegram_base_url"`
	NtfyServer      string `toml:"ntfy_server"`
	NtfyTopicPrefix string `toml:"ntfy_topic_prefix"`
	RequestTimeout  int    `toml:"request_timeout"`
	Concurrency     int    `toml:"concurrency"`
	RetryAttempts   int    `toml:"retry_attempts"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format     string `toml:"format"`
	Level      string `toml:"level"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days"`
}

// Config encapsulates all configuration values for premiere.
//
// Configuration sections by subsystem:
//   - Paths: alert database and log directories
//   - TMDB: metadata provider credentials and endpoint
//   - Metadata: provider response cache and retry policy
//   - Alerts: release region, search size, deferred recheck interval
//   - Scheduler: daily cycle time and time zone
//   - API: HTTP bind address and bearer token
//   - Notifications: Telegram or ntfy delivery
//   - Logging: log format, level, and rotation
type Config struct {
	Paths         Paths         `toml:"paths"`
	TMDB          TMDB          `toml:"tmdb"`
	Metadata      Metadata      `toml:"metadata"`
	Alerts        Alerts        `toml:"alerts"`
	Scheduler     Scheduler     `toml:"scheduler"`
	API           API           `toml:"api"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`

	location *time.Location
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/premiere/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.Finalize(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

// Finalize normalizes and validates a config built in code.
func (c *Config) Finalize() error {
	if err := c.normalize(); err != nil {
		return err
	}
	return c.Validate()
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("premiere.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// DatabasePath returns the alert database location.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.StateDir, "alerts.db")
}

// LockPath returns the daemon single-instance lock file.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, "premiere.lock")
}

// Location returns the scheduler time zone. Calendar-day comparisons and
// release dates are evaluated in this location.
func (c *Config) Location() *time.Location {
	if c.location != nil {
		return c.location
	}
	loc, err := time.LoadLocation(strings.TrimSpace(c.Scheduler.Timezone))
	if err != nil || strings.TrimSpace(c.Scheduler.Timezone) == "" {
		return time.UTC
	}
	return loc
}

// RunAt returns the configured daily cycle time as hour and minute.
func (c *Config) RunAt() (int, int) {
	hour, minute, err := parseClock(c.Scheduler.RunAt)
	if err != nil {
		hour, minute, _ = parseClock(defaultRunAt)
	}
	return hour, minute
}

// PrimaryRegion returns the display name of the target release region.
func (c *Config) PrimaryRegion() string {
	if len(c.Alerts.Regions) == 0 {
		return defaultRegions[0]
	}
	return c.Alerts.Regions[0]
}

// RecheckInterval is the delay applied when a next episode has no usable air date.
func (c *Config) RecheckInterval() time.Duration {
	return time.Duration(c.Alerts.RecheckDays) * 24 * time.Hour
}

// TMDBTimeout returns the provider HTTP timeout.
func (c *Config) TMDBTimeout() time.Duration {
	return time.Duration(c.TMDB.RequestTimeout) * time.Second
}

// NotificationTimeout returns the delivery HTTP timeout.
func (c *Config) NotificationTimeout() time.Duration {
	return time.Duration(c.Notifications.RequestTimeout) * time.Second
}

// CacheTTL returns how long provider responses stay cached.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Metadata.CacheTTLSeconds) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
