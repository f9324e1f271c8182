package config

const (
	defaultStateDir             = "~/.local/share/premiere"
	defaultLogDir               = "~/.local/share/premiere/logs"
	defaultTMDBLanguage         = "en-US"
	defaultTMDBBaseURL          = "https://api.themoviedb.org/3"
	defaultTMDBRequestTimeout   = 15
	defaultCacheSize            = 512
	defaultCacheTTLSeconds      = 900
	defaultRetryAttempts        = 3
	defaultSearchLimit          = 10
	defaultRecheckDays          = 7
	defaultRunAt                = "09:30"
	defaultTimezone             = "UTC"
	defaultAPIBind              = "127.0.0.1:7489"
	defaultNotificationChannel  = "log"
	defaultTelegramBaseURL      = "https://api.telegram.org"
	defaultNtfyServer           = "https://ntfy.sh"
	defaultNtfyTopicPrefix      = "premiere-"
	defaultNotifyRequestTimeout = 10
	defaultNotifyConcurrency    = 4
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
	defaultLogMaxSizeMB         = 20
	defaultLogMaxBackups        = 5
	defaultLogMaxAgeDays        = 60
	defaultNotifyRetryAttempts  = 3
	maxSearchLimit              = 50
	notificationChannelTelegram = "telegram"
	notificationChannelNtfy     = "ntfy"
	notificationChannelLogOnly  = "log"
)

var defaultRegions = []string{"US", "USA", "United States"}

// Default returns a Config populated with repository defaults.
func Default() Config {
	regions := make([]string, len(defaultRegions))
	copy(regions, defaultRegions)
	return Config{
		Paths: Paths{
			StateDir: defaultStateDir,
			LogDir:   defaultLogDir,
		},
		TMDB: TMDB{
			BaseURL:        defaultTMDBBaseURL,
			Language:       defaultTMDBLanguage,
			RequestTimeout: defaultTMDBRequestTimeout,
		},
		Metadata: Metadata{
			CacheSize:       defaultCacheSize,
			CacheTTLSeconds: defaultCacheTTLSeconds,
			RetryAttempts:   defaultRetryAttempts,
		},
		Alerts: Alerts{
			Regions:     regions,
			SearchLimit: defaultSearchLimit,
			RecheckDays: defaultRecheckDays,
		},
		Scheduler: Scheduler{
			RunAt:    defaultRunAt,
			Timezone: defaultTimezone,
		},
		API: API{
			Bind: defaultAPIBind,
		},
		Notifications: Notifications{
			Channel:         defaultNotificationChannel,
			TelegramBaseURL: defaultTelegramBaseURL,
			NtfyServer:      defaultNtfyServer,
			NtfyTopicPrefix: defaultNtfyTopicPrefix,
			RequestTimeout:  defaultNotifyRequestTimeout,
			Concurrency:     defaultNotifyConcurrency,
			RetryAttempts:   defaultNotifyRetryAttempts,
		},
		Logging: Logging{
			Format:     defaultLogFormat,
			Level:      defaultLogLevel,
			MaxSizeMB:  defaultLogMaxSizeMB,
			MaxBackups: defaultLogMaxBackups,
			MaxAgeDays: defaultLogMaxAgeDays,
		},
	}
}
