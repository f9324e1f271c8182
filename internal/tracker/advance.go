package tracker

import (
	"context"
	"fmt"
	"time"

	"premiere/internal/alerts"
	"premiere/internal/metadata"
	"premiere/internal/releasedate"
)

// State is the outcome of advancing a series record.
type State int

const (
	// StateResolvedNext moves the record to the next episode and its air date.
	StateResolvedNext State = iota + 1
	// StateDeferredRecheck keeps the current episode and looks again later
	// because the next episode has no usable air date yet.
	StateDeferredRecheck
	// StateRetired means the series has no further episode.
	StateRetired
)

func (s State) String() string {
	switch s {
	case StateResolvedNext:
		return "resolved_next"
	case StateDeferredRecheck:
		return "deferred_recheck"
	case StateRetired:
		return "retired"
	default:
		return "unknown"
	}
}

// Advancement is the next state of a series record. EpisodeID and ReleaseDate
// are empty for StateRetired.
type Advancement struct {
	State       State
	EpisodeID   string
	ReleaseDate time.Time
}

// Advancer computes the next tracked episode for series records.
type Advancer struct {
	provider metadata.Provider
	recheck  time.Duration
	loc      *time.Location
	now      func() time.Time
}

// NewAdvancer builds an Advancer that defers by recheck when the next
// episode's air date is unknown.
func NewAdvancer(provider metadata.Provider, recheck time.Duration, loc *time.Location, opts ...Option) *Advancer {
	o := buildOptions(opts)
	if loc == nil {
		loc = time.UTC
	}
	if recheck <= 0 {
		recheck = 7 * 24 * time.Hour
	}
	return &Advancer{provider: provider, recheck: recheck, loc: loc, now: o.now}
}

// Advance determines what rec should track after current, the details of the
// episode rec currently points at, during the cycle for asOf. A deferred
// recheck is scheduled relative to asOf, or to the clock when asOf is zero.
// Provider failures are returned unchanged. The resulting date is never
// earlier than the record's stored date.
func (a *Advancer) Advance(ctx context.Context, rec alerts.Record, current *metadata.EpisodeDetail, asOf time.Time) (Advancement, error) {
	if rec.IsMovie() {
		return Advancement{}, fmt.Errorf("advance %s: record tracks a movie", rec.TitleID)
	}
	if current == nil || current.NextEpisodeID == "" {
		return Advancement{State: StateRetired}, nil
	}

	next, err := a.provider.GetEpisode(ctx, current.NextEpisodeID)
	if err != nil {
		return Advancement{}, fmt.Errorf("next episode %s: %w", current.NextEpisodeID, err)
	}

	if airDate, err := releasedate.ParseLoose(next.AirDate, a.loc); err == nil {
		return Advancement{
			State:       StateResolvedNext,
			EpisodeID:   next.ID,
			ReleaseDate: laterOf(airDate, rec.ReleaseDate),
		}, nil
	}

	if asOf.IsZero() {
		asOf = a.now()
	}
	recheckAt := releasedate.StartOfDay(asOf.Add(a.recheck), a.loc)
	return Advancement{
		State:       StateDeferredRecheck,
		EpisodeID:   rec.EpisodeID,
		ReleaseDate: laterOf(recheckAt, rec.ReleaseDate),
	}, nil
}

func laterOf(a, b time.Time) time.Time {
	if b.After(a) {
		return b
	}
	return a
}
