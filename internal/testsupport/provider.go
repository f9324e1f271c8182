package testsupport

import (
	"context"
	"strings"
	"sync"

	"premiere/internal/metadata"
	"premiere/internal/services"
)

// FakeProvider is an in-memory metadata.Provider. Failures can be injected per
// operation and id; unknown ids return services.ErrNotFound.
type FakeProvider struct {
	mu       sync.Mutex
	titles   map[string]*metadata.TitleDetail
	releases map[string][]metadata.ReleaseDate
	seasons  map[string][]metadata.Season
	episodes map[string]*metadata.EpisodeDetail
	search   []metadata.TitleSummary
	failures map[string]error
	calls    map[string]int
}

// NewFakeProvider returns an empty catalogue.
func NewFakeProvider() *FakeProvider {
	return &FakeProvider{
		titles:   make(map[string]*metadata.TitleDetail),
		releases: make(map[string][]metadata.ReleaseDate),
		seasons:  make(map[string][]metadata.Season),
		episodes: make(map[string]*metadata.EpisodeDetail),
		failures: make(map[string]error),
		calls:    make(map[string]int),
	}
}

// AddMovie registers a movie and its regional release dates.
func (f *FakeProvider) AddMovie(id, title string, year int, releases ...metadata.ReleaseDate) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.titles[id] = &metadata.TitleDetail{ID: id, Title: title, Kind: metadata.KindMovie, Year: year}
	f.releases[id] = releases
	f.search = append(f.search, metadata.TitleSummary{ID: id, Title: title, Year: year, Kind: metadata.KindMovie})
}

// AddSeries registers a series with the given seasons. Episode refs in the
// seasons are also registered as episode details chained through
// NextEpisodeID in listing order.
func (f *FakeProvider) AddSeries(id, title string, year int, seasons ...metadata.Season) {
	f.mu.Lock()
	defer f.mu.Unlock()
	numbers := make([]int, 0, len(seasons))
	var refs []metadata.EpisodeRef
	var seasonOf []int
	for _, season := range seasons {
		numbers = append(numbers, season.Number)
		for _, ep := range season.Episodes {
			refs = append(refs, ep)
			seasonOf = append(seasonOf, season.Number)
		}
	}
	f.titles[id] = &metadata.TitleDetail{ID: id, Title: title, Kind: metadata.KindSeries, Year: year, Seasons: numbers}
	f.seasons[id] = seasons
	f.search = append(f.search, metadata.TitleSummary{ID: id, Title: title, Year: year, Kind: metadata.KindSeries})
	for i, ref := range refs {
		next := ""
		if i+1 < len(refs) {
			next = refs[i+1].ID
		}
		f.episodes[ref.ID] = &metadata.EpisodeDetail{
			ID:            ref.ID,
			SeriesID:      id,
			SeriesTitle:   title,
			Title:         "Episode " + ref.ID,
			Season:        seasonOf[i],
			Episode:       ref.Number,
			AirDate:       ref.AirDate,
			NextEpisodeID: next,
		}
	}
}

// SetEpisode registers or replaces an episode detail.
func (f *FakeProvider) SetEpisode(ep metadata.EpisodeDetail) {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := ep
	f.episodes[ep.ID] = &copied
}

// SetEndYear marks a title as ended.
func (f *FakeProvider) SetEndYear(id string, year int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if title, ok := f.titles[id]; ok {
		title.EndYear = year
	}
}

// Fail makes op ("search", "title", "releases", "episodes", "episode") fail
// for id. An empty id matches every call of op.
func (f *FakeProvider) Fail(op, id string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[op+":"+id] = err
}

// Calls returns how many times op was invoked.
func (f *FakeProvider) Calls(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *FakeProvider) begin(op, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[op]++
	if err, ok := f.failures[op+":"+id]; ok {
		return err
	}
	if err, ok := f.failures[op+":"]; ok {
		return err
	}
	return nil
}

func notFound(op, id string) error {
	return services.Wrap(services.ErrNotFound, "fake", op, id, nil)
}

func (f *FakeProvider) SearchTitles(_ context.Context, query string) ([]metadata.TitleSummary, error) {
	if err := f.begin("search", query); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	needle := strings.ToLower(strings.TrimSpace(query))
	var out []metadata.TitleSummary
	for _, summary := range f.search {
		if title, ok := f.titles[summary.ID]; ok {
			summary.EndYear = title.EndYear
		}
		if strings.Contains(strings.ToLower(summary.Title), needle) {
			out = append(out, summary)
		}
	}
	return out, nil
}

func (f *FakeProvider) GetTitle(_ context.Context, titleID string) (*metadata.TitleDetail, error) {
	if err := f.begin("title", titleID); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	title, ok := f.titles[titleID]
	if !ok {
		return nil, notFound("title", titleID)
	}
	copied := *title
	return &copied, nil
}

func (f *FakeProvider) GetMovieReleaseDates(_ context.Context, titleID string) ([]metadata.ReleaseDate, error) {
	if err := f.begin("releases", titleID); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.titles[titleID]; !ok {
		return nil, notFound("releases", titleID)
	}
	return append([]metadata.ReleaseDate(nil), f.releases[titleID]...), nil
}

func (f *FakeProvider) GetSeriesEpisodes(_ context.Context, titleID string) ([]metadata.Season, error) {
	if err := f.begin("episodes", titleID); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.titles[titleID]; !ok {
		return nil, notFound("episodes", titleID)
	}
	return append([]metadata.Season(nil), f.seasons[titleID]...), nil
}

func (f *FakeProvider) GetEpisode(_ context.Context, episodeID string) (*metadata.EpisodeDetail, error) {
	if err := f.begin("episode", episodeID); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	ep, ok := f.episodes[episodeID]
	if !ok {
		return nil, notFound("episode", episodeID)
	}
	copied := *ep
	return &copied, nil
}

func (f *FakeProvider) TitleURL(titleID string) string {
	return "https://example.test/title/" + titleID
}
