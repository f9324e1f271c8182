package daemonrun

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"strings"
	"syscall"

	"premiere/internal/alerts"
	"premiere/internal/api"
	"premiere/internal/config"
	"premiere/internal/daemon"
	"premiere/internal/logging"
	"premiere/internal/metadata"
	"premiere/internal/metadata/tmdb"
	"premiere/internal/notifications"
	"premiere/internal/preflight"
	"premiere/internal/tracker"
)

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel    string
	Development bool
}

// Components is the wired application graph shared by the daemon and the CLI.
type Components struct {
	Config    *config.Config
	Logger    *slog.Logger
	Store     *alerts.Store
	Provider  metadata.Provider
	Service   *tracker.Service
	Scheduler *tracker.Scheduler
	Deliverer notifications.Deliverer
	Daemon    *daemon.Daemon
}

// Close releases the daemon lock and the alert store.
func (c *Components) Close() error {
	if c == nil {
		return nil
	}
	var errs []error
	if c.Daemon != nil {
		errs = append(errs, c.Daemon.Close())
	}
	if c.Store != nil {
		errs = append(errs, c.Store.Close())
	}
	return errors.Join(errs...)
}

// Build opens the alert store and wires provider, tracker, deliverer and
// daemon from cfg. The daemon is constructed but not started.
func Build(cfg *config.Config, logger *slog.Logger) (*Components, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	store, err := alerts.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open alert store: %w", err)
	}

	client, err := tmdb.New(cfg.TMDB.APIKey, cfg.TMDB.BaseURL, cfg.TMDB.Language,
		tmdb.WithTimeout(cfg.TMDBTimeout()),
		tmdb.WithRetry(cfg.Metadata.RetryAttempts, 0),
		tmdb.WithLogger(logger),
	)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("create tmdb client: %w", err)
	}
	provider := metadata.NewCachedProvider(tmdb.NewProvider(client, cfg.Alerts.SearchLimit), cfg.Metadata.CacheSize, cfg.CacheTTL())

	service, scheduler := tracker.Build(cfg, store, provider, logger)

	deliverer, err := notifications.New(cfg, logger)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("create deliverer: %w", err)
	}

	d, err := daemon.New(cfg, scheduler, store, deliverer, logger)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("create daemon: %w", err)
	}

	return &Components{
		Config:    cfg,
		Logger:    logger,
		Store:     store,
		Provider:  provider,
		Service:   service,
		Scheduler: scheduler,
		Deliverer: deliverer,
		Daemon:    d,
	}, nil
}

// NewLogger builds the process logger, applying a level override when set.
func NewLogger(cfg *config.Config, opts Options) (*slog.Logger, error) {
	effective := *cfg
	if level := strings.TrimSpace(opts.LogLevel); level != "" {
		effective.Logging.Level = strings.ToLower(level)
	}
	if opts.Development {
		effective.Logging.Level = "debug"
	}
	return logging.NewFromConfig(&effective)
}

// Run starts the premiere daemon runtime loop and the HTTP API, returning
// after SIGINT or SIGTERM once both have drained.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}
	if failed := preflight.Failed(preflight.CheckDirectories(cfg)); len(failed) > 0 {
		return fmt.Errorf("preflight: %s: %s", failed[0].Name, failed[0].Detail)
	}

	logger, err := NewLogger(cfg, opts)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logStartupSnapshot(logger, cfg)

	components, err := Build(cfg, logger)
	if err != nil {
		logger.Error("wire components", logging.Error(err))
		return err
	}
	defer components.Close()

	if err := components.Daemon.Start(signalCtx); err != nil {
		return fmt.Errorf("start daemon: %w", err)
	}

	server, err := api.New(cfg, components.Service, components.Daemon, logger)
	if err != nil {
		return fmt.Errorf("create api server: %w", err)
	}
	if err := server.Start(signalCtx); err != nil {
		logging.WarnWithContext(logger, "api server start failed", "api_start_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "daemon runs scheduled cycles but cannot be controlled over HTTP"),
		)
	} else {
		defer server.Stop()
	}

	<-signalCtx.Done()
	logger.Info("premiere daemon shutting down")
	return nil
}

func logStartupSnapshot(logger *slog.Logger, cfg *config.Config) {
	if logger == nil || cfg == nil {
		return
	}
	logger.Info("startup snapshot",
		logging.String(logging.FieldEventType, "startup_snapshot"),
		logging.Bool("tmdb_key_present", strings.TrimSpace(cfg.TMDB.APIKey) != ""),
		logging.String("tmdb_base_url", cfg.TMDB.BaseURL),
		logging.String("regions", strings.Join(cfg.Alerts.Regions, ",")),
		logging.Int("recheck_days", cfg.Alerts.RecheckDays),
		logging.String("run_at", cfg.Scheduler.RunAt),
		logging.String("timezone", cfg.Location().String()),
		logging.String("notification_channel", cfg.Notifications.Channel),
		logging.String("api_bind", cfg.API.Bind),
		logging.Bool("api_token_set", cfg.API.Token != ""),
	)
}
