package tracker

import (
	"context"
	"log/slog"
	"time"

	"premiere/internal/alerts"
	"premiere/internal/config"
	"premiere/internal/logging"
	"premiere/internal/metadata"
)

// Store is the persistence contract consumed by the tracker.
type Store interface {
	Insert(ctx context.Context, rec alerts.Record) (*alerts.Record, error)
	Update(ctx context.Context, key alerts.Key, expectedRevision int64, episodeID string, releaseDate time.Time) (*alerts.Record, error)
	Delete(ctx context.Context, key alerts.Key) (bool, error)
	DeleteRevision(ctx context.Context, key alerts.Key, revision int64) error
	Get(ctx context.Context, key alerts.Key) (*alerts.Record, error)
	QueryByUser(ctx context.Context, userID string) ([]alerts.Record, error)
	QueryDue(ctx context.Context, asOf time.Time) ([]alerts.Record, error)
	TitleIDs(ctx context.Context, userID string) (map[string]struct{}, error)
}

// Option customizes tracker components.
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Build wires a Service and Scheduler from configuration, sharing one set of
// key locks so interactive calls and cycles never interleave on a record.
func Build(cfg *config.Config, store Store, provider metadata.Provider, logger *slog.Logger, opts ...Option) (*Service, *Scheduler) {
	loc := cfg.Location()
	locks := NewKeyLocks()
	resolver := NewResolver(provider, cfg.Alerts.Regions, loc, logging.NewComponentLogger(logger, "resolver"), opts...)
	advancer := NewAdvancer(provider, cfg.RecheckInterval(), loc, opts...)
	scheduler := NewScheduler(store, provider, advancer, locks, loc, logging.NewComponentLogger(logger, "scheduler"), opts...)
	service := NewService(store, provider, resolver, locks, loc, logging.NewComponentLogger(logger, "tracker"), opts...)
	return service, scheduler
}
