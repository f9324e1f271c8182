package tracker

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"premiere/internal/alerts"
	"premiere/internal/logging"
	"premiere/internal/metadata"
	"premiere/internal/releasedate"
	"premiere/internal/services"
)

// Terminal messages returned by Resolve when no record is created.
const (
	MessageNoReleaseDate      = "No release date found"
	MessageNoEpisodes         = "Unable to get series episodes"
	MessageNoEpisodeDate      = "Unable to get episode release date"
	messageRegionUnavailable  = "Unable to find %s release date"
	messageAlreadyReleased    = "Released on %s in %s"
	messageSeasonFinaleAired  = "Season %d finale aired %s"
	defaultRegionDisplayLabel = "US"
)

// Resolver classifies titles and finds the next release worth tracking.
type Resolver struct {
	provider metadata.Provider
	regions  []string
	loc      *time.Location
	logger   *slog.Logger
	now      func() time.Time
}

// NewResolver builds a Resolver. regions lists the accepted names of the
// target release region; the first entry is used in messages.
func NewResolver(provider metadata.Provider, regions []string, loc *time.Location, logger *slog.Logger, opts ...Option) *Resolver {
	o := buildOptions(opts)
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Resolver{
		provider: provider,
		regions:  append([]string(nil), regions...),
		loc:      loc,
		logger:   logger,
		now:      o.now,
	}
}

// Resolve returns the record to persist for titleID, or nil and a terminal
// message explaining why nothing will be tracked. Failures are logged and
// degrade to a message; Resolve never returns an error.
func (r *Resolver) Resolve(ctx context.Context, userID, userName, titleID string) (*alerts.Record, string) {
	ctx = services.WithTitleID(services.WithUserID(ctx, userID), titleID)
	logger := logging.WithContext(ctx, r.logger)

	title, err := r.provider.GetTitle(ctx, titleID)
	if err != nil {
		logger.Error("title lookup failed", logging.Operation("resolve"), logging.Error(err))
		return nil, services.FailureMessage(err)
	}

	base := alerts.Record{
		UserID:    userID,
		UserName:  userName,
		TitleID:   titleID,
		TitleName: title.LongTitle(),
	}
	if title.IsSeries() {
		return r.resolveSeries(ctx, logger, base)
	}
	if title.Kind == metadata.KindSeries {
		// Announced shows and specials-only shows have no regular season yet.
		logger.Info("series lists no regular season", logging.Operation("resolve"))
		return nil, MessageNoEpisodes
	}
	return r.resolveMovie(ctx, logger, base)
}

func (r *Resolver) resolveMovie(ctx context.Context, logger *slog.Logger, base alerts.Record) (*alerts.Record, string) {
	dates, err := r.provider.GetMovieReleaseDates(ctx, base.TitleID)
	if err != nil {
		logger.Error("release date lookup failed", logging.Operation("resolve movie"), logging.Error(err))
		return nil, services.FailureMessage(err)
	}
	if len(dates) == 0 {
		return nil, MessageNoReleaseDate
	}

	unavailable := fmt.Sprintf(messageRegionUnavailable, r.regionLabel())
	entry, ok := r.regionalRelease(dates)
	if !ok {
		return nil, unavailable
	}
	release, err := releasedate.ParseStrict(entry.Date, r.loc)
	if err != nil {
		logger.Warn("release date not recognized",
			logging.Operation("resolve movie"),
			logging.String("value", entry.Date),
			logging.Error(err),
		)
		return nil, unavailable
	}
	if !release.After(r.now()) {
		return nil, fmt.Sprintf(messageAlreadyReleased, releasedate.FormatLong(release), r.regionLabel())
	}

	rec := base
	rec.ReleaseDate = release
	return &rec, ""
}

func (r *Resolver) resolveSeries(ctx context.Context, logger *slog.Logger, base alerts.Record) (*alerts.Record, string) {
	seasons, err := r.provider.GetSeriesEpisodes(ctx, base.TitleID)
	if err != nil {
		logger.Error("episode listing failed", logging.Operation("resolve series"), logging.Error(err))
		return nil, services.FailureMessage(err)
	}
	season, ok := metadata.LatestSeason(seasons)
	if !ok || len(season.Episodes) == 0 {
		return nil, MessageNoEpisodes
	}

	now := r.now()
	last := len(season.Episodes) - 1
	for i, ep := range season.Episodes {
		airDate, err := releasedate.ParseLoose(ep.AirDate, r.loc)
		if err != nil {
			logger.Debug("episode air date not recognized", logging.String(logging.FieldEpisodeID, ep.ID), logging.Error(err))
			continue
		}
		if airDate.After(now) {
			rec := base
			rec.EpisodeID = ep.ID
			rec.ReleaseDate = airDate
			return &rec, ""
		}
		if i == last {
			return nil, fmt.Sprintf(messageSeasonFinaleAired, season.Number, releasedate.FormatShort(airDate))
		}
	}

	logger.Info("no episode with a usable air date",
		logging.Operation("resolve series"),
		logging.Int("season", season.Number),
		logging.Int("episodes", len(season.Episodes)),
	)
	return nil, MessageNoEpisodeDate
}

// regionalRelease returns the first general release in the target region.
// Entries carrying a note (premiere, limited, digital) are not general
// releases.
func (r *Resolver) regionalRelease(dates []metadata.ReleaseDate) (metadata.ReleaseDate, bool) {
	for _, entry := range dates {
		if strings.TrimSpace(entry.Note) != "" {
			continue
		}
		if r.matchesRegion(entry.Region) {
			return entry, true
		}
	}
	return metadata.ReleaseDate{}, false
}

func (r *Resolver) matchesRegion(region string) bool {
	region = strings.TrimSpace(region)
	for _, alias := range r.regions {
		if strings.EqualFold(region, alias) {
			return true
		}
	}
	return false
}

func (r *Resolver) regionLabel() string {
	if len(r.regions) == 0 {
		return defaultRegionDisplayLabel
	}
	return r.regions[0]
}
