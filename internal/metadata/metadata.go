package metadata

import (
	"context"
	"fmt"
	"strings"
)

// Kind distinguishes movies from episodic series.
type Kind string

const (
	KindMovie  Kind = "movie"
	KindSeries Kind = "series"
)

// TitleSummary is a single search match.
type TitleSummary struct {
	ID       string
	Title    string
	Year     int
	EndYear  int
	Kind     Kind
	Overview string
	CoverURL string
}

// TitleDetail describes a movie or series.
type TitleDetail struct {
	ID           string
	Title        string
	Kind         Kind
	Year         int
	EndYear      int
	Seasons      []int
	Genres       []string
	Rating       float64
	Plot         string
	Cast         []string
	CoverURL     string
	FullCoverURL string
}

// IsSeries reports whether the title exposes seasons.
func (t TitleDetail) IsSeries() bool {
	return len(t.Seasons) > 0
}

// LongTitle renders "Title (Year)" when the year is known.
func (t TitleDetail) LongTitle() string {
	return longTitle(t.Title, t.Year)
}

// LongTitle renders "Title (Year)" when the year is known.
func (t TitleSummary) LongTitle() string {
	return longTitle(t.Title, t.Year)
}

// ReleaseDate is one regional release entry. Note carries qualifiers such as
// "premiere" or "limited"; only entries without a note count as the general
// release.
type ReleaseDate struct {
	Region string
	Date   string
	Note   string
}

// EpisodeRef is an episode listed within a season.
type EpisodeRef struct {
	Number  int
	ID      string
	AirDate string
}

// Season groups episodes in catalogue order.
type Season struct {
	Number   int
	Episodes []EpisodeRef
}

// EpisodeDetail describes a single episode. NextEpisodeID is empty when the
// provider knows of no later episode.
type EpisodeDetail struct {
	ID            string
	SeriesID      string
	SeriesTitle   string
	Title         string
	Season        int
	Episode       int
	Year          int
	AirDate       string
	NextEpisodeID string
	Plot          string
	Rating        float64
	CoverURL      string
	FullCoverURL  string
}

// Provider is the catalogue consumed by the tracker.
type Provider interface {
	SearchTitles(ctx context.Context, query string) ([]TitleSummary, error)
	GetTitle(ctx context.Context, titleID string) (*TitleDetail, error)
	GetMovieReleaseDates(ctx context.Context, titleID string) ([]ReleaseDate, error)
	GetSeriesEpisodes(ctx context.Context, titleID string) ([]Season, error)
	GetEpisode(ctx context.Context, episodeID string) (*EpisodeDetail, error)
	TitleURL(titleID string) string
}

// LatestSeason returns the season with the highest number, or false when
// seasons is empty.
func LatestSeason(seasons []Season) (Season, bool) {
	if len(seasons) == 0 {
		return Season{}, false
	}
	latest := seasons[0]
	for _, season := range seasons[1:] {
		if season.Number > latest.Number {
			latest = season
		}
	}
	return latest, true
}

func longTitle(title string, year int) string {
	title = strings.TrimSpace(title)
	if year <= 0 {
		return title
	}
	return fmt.Sprintf("%s (%d)", title, year)
}
