package tracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"premiere/internal/alerts"
	"premiere/internal/logging"
	"premiere/internal/metadata"
	"premiere/internal/releasedate"
	"premiere/internal/services"
)

// NotificationKind classifies a release event.
type NotificationKind string

const (
	NotificationMovieReleased NotificationKind = "movie_released"
	NotificationEpisodeAired  NotificationKind = "episode_aired"
	NotificationSeriesFinale  NotificationKind = "series_finale"
)

// Notification is a message owed to one user.
type Notification struct {
	UserID  string
	TitleID string
	Kind    NotificationKind
	Message string
}

// CycleResult summarizes one scheduling pass. Notifications are in the order
// the due records were loaded.
type CycleResult struct {
	AsOf          time.Time
	Due           int
	Processed     int
	Skipped       int
	Failed        int
	Notifications []Notification
}

// Scheduler advances or retires due records.
type Scheduler struct {
	store    Store
	provider metadata.Provider
	advancer *Advancer
	locks    *KeyLocks
	loc      *time.Location
	logger   *slog.Logger
	now      func() time.Time
}

// NewScheduler builds a Scheduler.
func NewScheduler(store Store, provider metadata.Provider, advancer *Advancer, locks *KeyLocks, loc *time.Location, logger *slog.Logger, opts ...Option) *Scheduler {
	o := buildOptions(opts)
	if loc == nil {
		loc = time.UTC
	}
	if locks == nil {
		locks = NewKeyLocks()
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Scheduler{
		store:    store,
		provider: provider,
		advancer: advancer,
		locks:    locks,
		loc:      loc,
		logger:   logger,
		now:      o.now,
	}
}

// Now returns the scheduler's current time.
func (s *Scheduler) Now() time.Time {
	return s.now()
}

// Location returns the time zone in which calendar days are evaluated.
func (s *Scheduler) Location() *time.Location {
	return s.loc
}

// RunCycle processes every record due on the calendar day of asOf. A failure
// on one record is logged and counted; only a failure to load the due records
// fails the cycle.
func (s *Scheduler) RunCycle(ctx context.Context, asOf time.Time) (CycleResult, error) {
	day := releasedate.StartOfDay(asOf, s.loc)
	result := CycleResult{AsOf: day}
	logger := logging.WithContext(ctx, s.logger)

	if purger, ok := s.provider.(interface{ Purge() }); ok {
		purger.Purge()
	}

	due, err := s.store.QueryDue(ctx, day)
	if err != nil {
		return result, fmt.Errorf("load due alerts: %w", err)
	}
	result.Due = len(due)
	logger.Info("cycle started", logging.Time("as_of", day), logging.Int("due", len(due)))

	for _, rec := range due {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		note, err := s.processRecord(ctx, rec, day)
		switch {
		case errors.Is(err, alerts.ErrConflict):
			result.Skipped++
			logger.Info("alert changed during cycle, skipping",
				logging.String(logging.FieldUserID, rec.UserID),
				logging.String(logging.FieldTitleID, rec.TitleID),
			)
		case err != nil:
			result.Failed++
			logging.WarnWithContext(logger, "alert processing failed", "alert_failed",
				logging.String(logging.FieldUserID, rec.UserID),
				logging.String(logging.FieldTitleID, rec.TitleID),
				logging.String(logging.FieldEpisodeID, rec.EpisodeID),
				logging.String(logging.FieldImpact, "alert retried next cycle"),
				logging.Error(err),
			)
		default:
			result.Processed++
			if note != nil {
				result.Notifications = append(result.Notifications, *note)
			}
		}
	}

	logger.Info("cycle finished",
		logging.Int("processed", result.Processed),
		logging.Int("skipped", result.Skipped),
		logging.Int("failed", result.Failed),
		logging.Int("notifications", len(result.Notifications)),
	)
	return result, nil
}

func (s *Scheduler) processRecord(ctx context.Context, rec alerts.Record, day time.Time) (*Notification, error) {
	unlock := s.locks.Lock(rec.Key())
	defer unlock()

	ctx = services.WithTitleID(services.WithUserID(ctx, rec.UserID), rec.TitleID)
	if rec.IsMovie() {
		return s.retireMovie(ctx, rec)
	}
	return s.advanceSeries(ctx, rec, day)
}

func (s *Scheduler) retireMovie(ctx context.Context, rec alerts.Record) (*Notification, error) {
	card := FormatRecordCard(rec)
	if title, err := s.provider.GetTitle(ctx, rec.TitleID); err == nil {
		card = FormatTitleCard(*title)
	} else {
		logging.WithContext(ctx, s.logger).Warn("title lookup failed, using stored name",
			logging.Operation("retire movie"),
			logging.Error(err),
		)
	}

	if err := s.store.DeleteRevision(ctx, rec.Key(), rec.Revision); err != nil {
		return nil, err
	}
	return &Notification{
		UserID:  rec.UserID,
		TitleID: rec.TitleID,
		Kind:    NotificationMovieReleased,
		Message: MessageMovieOut + "\n\n" + card,
	}, nil
}

func (s *Scheduler) advanceSeries(ctx context.Context, rec alerts.Record, day time.Time) (*Notification, error) {
	current, err := s.provider.GetEpisode(ctx, rec.EpisodeID)
	if err != nil {
		return nil, fmt.Errorf("current episode %s: %w", rec.EpisodeID, err)
	}

	adv, err := s.advancer.Advance(ctx, rec, current, day)
	if err != nil {
		return nil, err
	}

	logger := logging.WithContext(ctx, s.logger)
	if adv.State == StateRetired {
		if err := s.store.DeleteRevision(ctx, rec.Key(), rec.Revision); err != nil {
			return nil, err
		}
		logger.Info("series finished, alert retired", logging.String(logging.FieldEpisodeID, rec.EpisodeID))
		return &Notification{
			UserID:  rec.UserID,
			TitleID: rec.TitleID,
			Kind:    NotificationSeriesFinale,
			Message: MessageSeriesFinale + "\n\n" + FormatEpisodeCard(*current),
		}, nil
	}

	if _, err := s.store.Update(ctx, rec.Key(), rec.Revision, adv.EpisodeID, adv.ReleaseDate); err != nil {
		return nil, err
	}
	logger.Info("alert advanced",
		logging.String("state", adv.State.String()),
		logging.String(logging.FieldEpisodeID, adv.EpisodeID),
		logging.Time("release_date", adv.ReleaseDate),
	)

	// A record can stay due across cycles while the next date is unknown.
	// Only the cycle on the episode's own air date announces it.
	aired, err := releasedate.ParseLoose(current.AirDate, s.loc)
	if err != nil || !releasedate.SameDay(aired, day, s.loc) {
		return nil, nil
	}
	return &Notification{
		UserID:  rec.UserID,
		TitleID: rec.TitleID,
		Kind:    NotificationEpisodeAired,
		Message: MessageEpisodeOut + "\n\n" + FormatEpisodeCard(*current),
	}, nil
}
