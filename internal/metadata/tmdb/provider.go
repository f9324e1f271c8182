package tmdb

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/sourcegraph/conc/pool"

	"premiere/internal/logging"
	"premiere/internal/metadata"
	"premiere/internal/services"
)

const (
	imageBaseURL   = "https://image.tmdb.org/t/p/"
	websiteBaseURL = "https://www.themoviedb.org"
	castLimit      = 4
	detailLookups  = 4
)

// TMDB release types; only theatrical releases count as the general release.
var releaseTypeNotes = map[int]string{
	1: "premiere",
	2: "limited",
	4: "digital",
	5: "physical",
	6: "tv",
}

// Provider adapts Client to metadata.Provider.
type Provider struct {
	client *Client
	limit  int
}

var _ metadata.Provider = (*Provider)(nil)

// NewProvider wraps client. Search results are truncated to limit.
func NewProvider(client *Client, limit int) *Provider {
	if limit <= 0 {
		limit = 10
	}
	return &Provider{client: client, limit: limit}
}

// SearchTitles returns movie and series matches for query. Series matches
// carry EndYear once the show has ended, which needs one details lookup per
// show; a failed lookup only leaves EndYear unset.
func (p *Provider) SearchTitles(ctx context.Context, query string) ([]metadata.TitleSummary, error) {
	resp, err := p.client.SearchMulti(ctx, query)
	if err != nil {
		return nil, services.Wrap(services.ErrProvider, "tmdb", "search titles", query, err)
	}
	out := make([]metadata.TitleSummary, 0, min(len(resp.Results), p.limit))
	var shows []int64
	for _, r := range resp.Results {
		if len(out) == p.limit {
			break
		}
		switch r.MediaType {
		case "movie":
			out = append(out, metadata.TitleSummary{
				ID:       MovieKey(r.ID),
				Title:    r.Title,
				Year:     yearOf(r.ReleaseDate),
				Kind:     metadata.KindMovie,
				Overview: r.Overview,
				CoverURL: imageURL("w92", r.PosterPath),
			})
			shows = append(shows, 0)
		case "tv":
			out = append(out, metadata.TitleSummary{
				ID:       SeriesKey(r.ID),
				Title:    r.Name,
				Year:     yearOf(r.FirstAirDate),
				Kind:     metadata.KindSeries,
				Overview: r.Overview,
				CoverURL: imageURL("w92", r.PosterPath),
			})
			shows = append(shows, r.ID)
		}
	}
	p.fillEndYears(ctx, out, shows)
	return out, nil
}

// fillEndYears looks up show status for every non-zero entry of shows, which
// is index-aligned with out.
func (p *Provider) fillEndYears(ctx context.Context, out []metadata.TitleSummary, shows []int64) {
	workers := pool.New().WithMaxGoroutines(detailLookups)
	for i, showID := range shows {
		if showID == 0 {
			continue
		}
		workers.Go(func() {
			show, err := p.client.GetTVDetails(ctx, showID)
			if err != nil {
				p.client.logger.Debug("series status lookup failed",
					logging.String(logging.FieldTitleID, out[i].ID),
					logging.Error(err),
				)
				return
			}
			if seriesEnded(show) {
				out[i].EndYear = yearOf(show.LastAirDate)
			}
		})
	}
	workers.Wait()
}

// GetTitle fetches movie or series details.
func (p *Provider) GetTitle(ctx context.Context, titleID string) (*metadata.TitleDetail, error) {
	kind, id, err := ParseTitleKey(titleID)
	if err != nil {
		return nil, err
	}
	if kind == metadata.KindMovie {
		movie, err := p.client.GetMovieDetails(ctx, id)
		if err != nil {
			return nil, services.Wrap(services.ErrProvider, "tmdb", "get title", titleID, err)
		}
		return &metadata.TitleDetail{
			ID:           titleID,
			Title:        movie.Title,
			Kind:         metadata.KindMovie,
			Year:         yearOf(movie.ReleaseDate),
			Genres:       genreNames(movie.Genres),
			Rating:       movie.VoteAverage,
			Plot:         movie.Overview,
			Cast:         castNames(movie.Credits.Cast),
			CoverURL:     imageURL("w500", movie.PosterPath),
			FullCoverURL: imageURL("original", movie.PosterPath),
		}, nil
	}

	show, err := p.client.GetTVDetails(ctx, id)
	if err != nil {
		return nil, services.Wrap(services.ErrProvider, "tmdb", "get title", titleID, err)
	}
	detail := &metadata.TitleDetail{
		ID:           titleID,
		Title:        show.Name,
		Kind:         metadata.KindSeries,
		Year:         yearOf(show.FirstAirDate),
		Seasons:      regularSeasons(show.Seasons),
		Genres:       genreNames(show.Genres),
		Rating:       show.VoteAverage,
		Plot:         show.Overview,
		Cast:         castNames(show.Credits.Cast),
		CoverURL:     imageURL("w500", show.PosterPath),
		FullCoverURL: imageURL("original", show.PosterPath),
	}
	if seriesEnded(show) {
		detail.EndYear = yearOf(show.LastAirDate)
	}
	return detail, nil
}

// GetMovieReleaseDates lists regional releases. Each TMDB release type other
// than theatrical is reported as a note so it does not count as the general
// release.
func (p *Provider) GetMovieReleaseDates(ctx context.Context, titleID string) ([]metadata.ReleaseDate, error) {
	kind, id, err := ParseTitleKey(titleID)
	if err != nil {
		return nil, err
	}
	if kind != metadata.KindMovie {
		return nil, services.Wrap(services.ErrValidation, "tmdb", "get release dates", fmt.Sprintf("%s is not a movie", titleID), nil)
	}
	movie, err := p.client.GetMovieDetails(ctx, id)
	if err != nil {
		return nil, services.Wrap(services.ErrProvider, "tmdb", "get release dates", titleID, err)
	}
	var out []metadata.ReleaseDate
	for _, country := range movie.ReleaseDates.Results {
		entries := append([]ReleaseDateEntry(nil), country.ReleaseDates...)
		sort.SliceStable(entries, func(i, j int) bool { return entries[i].ReleaseDate < entries[j].ReleaseDate })
		for _, entry := range entries {
			note := strings.TrimSpace(entry.Note)
			if typeNote, ok := releaseTypeNotes[entry.Type]; ok {
				note = strings.TrimSpace(typeNote + " " + note)
			}
			out = append(out, metadata.ReleaseDate{
				Region: country.Country,
				Date:   datePart(entry.ReleaseDate),
				Note:   note,
			})
		}
	}
	return out, nil
}

// GetSeriesEpisodes returns the latest regular season with its episodes.
func (p *Provider) GetSeriesEpisodes(ctx context.Context, titleID string) ([]metadata.Season, error) {
	kind, id, err := ParseTitleKey(titleID)
	if err != nil {
		return nil, err
	}
	if kind != metadata.KindSeries {
		return nil, services.Wrap(services.ErrValidation, "tmdb", "get series episodes", fmt.Sprintf("%s is not a series", titleID), nil)
	}
	show, err := p.client.GetTVDetails(ctx, id)
	if err != nil {
		return nil, services.Wrap(services.ErrProvider, "tmdb", "get series episodes", titleID, err)
	}
	seasons := regularSeasons(show.Seasons)
	if len(seasons) == 0 {
		return nil, nil
	}
	latest := seasons[len(seasons)-1]
	details, err := p.client.GetSeasonDetails(ctx, id, latest)
	if err != nil {
		return nil, services.Wrap(services.ErrProvider, "tmdb", "get series episodes", titleID, err)
	}
	season := metadata.Season{Number: latest}
	for _, ep := range details.Episodes {
		season.Episodes = append(season.Episodes, metadata.EpisodeRef{
			Number:  ep.EpisodeNumber,
			ID:      EpisodeKey(id, latest, ep.EpisodeNumber),
			AirDate: ep.AirDate,
		})
	}
	return []metadata.Season{season}, nil
}

// GetEpisode fetches an episode and derives the key of the episode after it:
// the next episode in the same season, otherwise the first episode of the
// following season when the show lists one.
func (p *Provider) GetEpisode(ctx context.Context, episodeID string) (*metadata.EpisodeDetail, error) {
	showID, seasonNumber, episodeNumber, err := ParseEpisodeKey(episodeID)
	if err != nil {
		return nil, err
	}
	show, err := p.client.GetTVDetails(ctx, showID)
	if err != nil {
		return nil, services.Wrap(services.ErrProvider, "tmdb", "get episode", episodeID, err)
	}
	season, err := p.client.GetSeasonDetails(ctx, showID, seasonNumber)
	if err != nil {
		return nil, services.Wrap(services.ErrProvider, "tmdb", "get episode", episodeID, err)
	}

	var (
		current *Episode
		next    string
	)
	for i := range season.Episodes {
		ep := &season.Episodes[i]
		if ep.EpisodeNumber == episodeNumber {
			current = ep
			continue
		}
		if current != nil && ep.EpisodeNumber > episodeNumber && next == "" {
			next = EpisodeKey(showID, seasonNumber, ep.EpisodeNumber)
		}
	}
	if current == nil {
		return nil, services.Wrap(services.ErrNotFound, "tmdb", "get episode", episodeID, nil)
	}
	if next == "" {
		for _, s := range regularSeasons(show.Seasons) {
			if s > seasonNumber {
				next = EpisodeKey(showID, s, 1)
				break
			}
		}
	}

	return &metadata.EpisodeDetail{
		ID:            episodeID,
		SeriesID:      SeriesKey(showID),
		SeriesTitle:   show.Name,
		Title:         current.Name,
		Season:        seasonNumber,
		Episode:       episodeNumber,
		Year:          yearOf(current.AirDate),
		AirDate:       current.AirDate,
		NextEpisodeID: next,
		Plot:          current.Overview,
		Rating:        current.VoteAverage,
		CoverURL:      imageURL("w500", current.StillPath),
		FullCoverURL:  imageURL("original", current.StillPath),
	}, nil
}

// TitleURL links to the title page on themoviedb.org.
func (p *Provider) TitleURL(titleID string) string {
	kind, id, err := ParseTitleKey(titleID)
	if err != nil {
		return ""
	}
	segment := "movie"
	if kind == metadata.KindSeries {
		segment = "tv"
	}
	return fmt.Sprintf("%s/%s/%d", websiteBaseURL, segment, id)
}

func regularSeasons(seasons []SeasonSummary) []int {
	out := make([]int, 0, len(seasons))
	for _, s := range seasons {
		if s.SeasonNumber > 0 {
			out = append(out, s.SeasonNumber)
		}
	}
	sort.Ints(out)
	return out
}

func seriesEnded(show *TVDetails) bool {
	switch strings.ToLower(strings.TrimSpace(show.Status)) {
	case "ended", "canceled", "cancelled":
		return true
	}
	return false
}

func genreNames(genres []Genre) []string {
	out := make([]string, 0, len(genres))
	for _, g := range genres {
		if name := strings.TrimSpace(g.Name); name != "" {
			out = append(out, name)
		}
	}
	return out
}

func castNames(cast []CastMember) []string {
	sorted := append([]CastMember(nil), cast...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Order < sorted[j].Order })
	out := make([]string, 0, castLimit)
	for _, member := range sorted {
		if len(out) == castLimit {
			break
		}
		if name := strings.TrimSpace(member.Name); name != "" {
			out = append(out, name)
		}
	}
	return out
}

func imageURL(size, path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return ""
	}
	return imageBaseURL + size + path
}

func datePart(value string) string {
	value = strings.TrimSpace(value)
	if len(value) >= len("2006-01-02") {
		return value[:len("2006-01-02")]
	}
	return value
}

func yearOf(date string) int {
	if len(date) < 4 {
		return 0
	}
	year, err := strconv.Atoi(date[:4])
	if err != nil {
		return 0
	}
	return year
}
