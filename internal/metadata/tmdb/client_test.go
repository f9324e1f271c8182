package tmdb_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"premiere/internal/metadata"
	"premiere/internal/metadata/tmdb"
	"premiere/internal/services"
)

const showPayload = `{
	"id": 1399,
	"name": "Example Show",
	"first_air_date": "2019-04-01",
	"last_air_date": "2026-05-01",
	"status": "Returning Series",
	"overview": "A show.",
	"genres": [{"id": 1, "name": "Drama"}],
	"seasons": [
		{"season_number": 0, "episode_count": 3},
		{"season_number": 1, "episode_count": 2},
		{"season_number": 2, "episode_count": 3}
	],
	"credits": {"cast": [
		{"name": "E", "order": 4}, {"name": "A", "order": 0}, {"name": "B", "order": 1},
		{"name": "C", "order": 2}, {"name": "D", "order": 3}
	]}
}`

const seasonTwoPayload = `{
	"season_number": 2,
	"episodes": [
		{"episode_number": 1, "name": "One", "air_date": "2026-04-17", "overview": "First."},
		{"episode_number": 2, "name": "Two", "air_date": "2026-04-24"},
		{"episode_number": 3, "name": "Three", "air_date": null}
	]
}`

const seasonOnePayload = `{
	"season_number": 1,
	"episodes": [
		{"episode_number": 1, "name": "Pilot", "air_date": "2019-04-01"},
		{"episode_number": 2, "name": "Finale", "air_date": "2019-04-08"}
	]
}`

func newTestProvider(t *testing.T, handler http.HandlerFunc) *tmdb.Provider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client, err := tmdb.New("key", server.URL, "en-US", tmdb.WithRetry(3, time.Millisecond))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	return tmdb.NewProvider(client, 2)
}

func showHandler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("api_key") != "key" {
			t.Errorf("expected api_key query parameter, got %q", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/tv/1399":
			_, _ = w.Write([]byte(showPayload))
		case "/tv/1399/season/1":
			_, _ = w.Write([]byte(seasonOnePayload))
		case "/tv/1399/season/2":
			_, _ = w.Write([]byte(seasonTwoPayload))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}
}

func TestNewRequiresAPIKey(t *testing.T) {
	if _, err := tmdb.New("", "https://example.com", "en-US"); err == nil {
		t.Fatal("expected error when api key missing")
	}
	if _, err := tmdb.New("key", " ", "en-US"); err == nil {
		t.Fatal("expected error when base url missing")
	}
}

func TestSearchTitlesFiltersAndLimits(t *testing.T) {
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/search/multi":
			if r.URL.Query().Get("query") != "example" {
				t.Errorf("unexpected query %q", r.URL.RawQuery)
			}
			_, _ = w.Write([]byte(`{"page":1,"results":[
				{"id":7,"name":"Person","media_type":"person"},
				{"id":1,"title":"Example","release_date":"2026-12-18","media_type":"movie","poster_path":"/m1.jpg"},
				{"id":2,"name":"Example Show","first_air_date":"2019-04-01","media_type":"tv"},
				{"id":3,"title":"Example 2","media_type":"movie"}
			]}`))
		case "/tv/2":
			_, _ = w.Write([]byte(`{"id": 2, "name": "Example Show", "status": "Returning Series"}`))
		default:
			t.Errorf("unexpected request %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	})

	results, err := provider.SearchTitles(context.Background(), "example")
	if err != nil {
		t.Fatalf("SearchTitles returned error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results after limit, got %d", len(results))
	}
	if results[0].ID != "movie-1" || results[0].Year != 2026 || results[0].Kind != metadata.KindMovie {
		t.Fatalf("unexpected movie result: %+v", results[0])
	}
	if results[0].CoverURL != "https://image.tmdb.org/t/p/w92/m1.jpg" {
		t.Fatalf("unexpected cover url %q", results[0].CoverURL)
	}
	if results[1].ID != "tv-2" || results[1].Title != "Example Show" || results[1].Kind != metadata.KindSeries {
		t.Fatalf("unexpected series result: %+v", results[1])
	}
	if results[1].EndYear != 0 || results[1].CoverURL != "" {
		t.Fatalf("expected running show without end year or cover, got %+v", results[1])
	}
}

func TestSearchTitlesMarksEndedSeries(t *testing.T) {
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/search/multi":
			_, _ = w.Write([]byte(`{"page":1,"results":[
				{"id":1399,"name":"Example Show","first_air_date":"2011-04-17","media_type":"tv"},
				{"id":404,"name":"Gone Show","first_air_date":"2001-01-01","media_type":"tv"}
			]}`))
		case "/tv/1399":
			_, _ = w.Write([]byte(`{"id": 1399, "name": "Example Show", "status": "Ended", "last_air_date": "2019-05-19"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	results, err := provider.SearchTitles(context.Background(), "show")
	if err != nil {
		t.Fatalf("SearchTitles returned error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected both series, got %+v", results)
	}
	if results[0].EndYear != 2019 {
		t.Fatalf("expected ended series to report 2019, got %+v", results[0])
	}
	if results[1].EndYear != 0 {
		t.Fatalf("expected failed status lookup to leave end year unset, got %+v", results[1])
	}
}

func TestSearchTitlesEmptyQuery(t *testing.T) {
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("unexpected request for empty query")
	})
	if _, err := provider.SearchTitles(context.Background(), "  "); err == nil {
		t.Fatal("expected error for empty query")
	}
}

func TestGetTitleSeries(t *testing.T) {
	provider := newTestProvider(t, showHandler(t))
	detail, err := provider.GetTitle(context.Background(), "tv-1399")
	if err != nil {
		t.Fatalf("GetTitle returned error: %v", err)
	}
	if !detail.IsSeries() || len(detail.Seasons) != 2 || detail.Seasons[1] != 2 {
		t.Fatalf("expected regular seasons [1 2], got %v", detail.Seasons)
	}
	if detail.EndYear != 0 {
		t.Fatalf("expected running show to have no end year, got %d", detail.EndYear)
	}
	if strings.Join(detail.Cast, ",") != "A,B,C,D" {
		t.Fatalf("expected top four billed cast, got %v", detail.Cast)
	}
	if detail.LongTitle() != "Example Show (2019)" {
		t.Fatalf("unexpected long title %q", detail.LongTitle())
	}
}

func TestGetTitleMovieAndReleaseDates(t *testing.T) {
	var calls atomic.Int32
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.URL.Path != "/movie/603" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if !strings.Contains(r.URL.Query().Get("append_to_response"), "release_dates") {
			t.Errorf("expected release_dates to be appended, got %q", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`{
			"id": 603, "title": "The Example", "release_date": "2026-11-20",
			"genres": [{"id": 2, "name": "Action"}],
			"release_dates": {"results": [
				{"iso_3166_1": "GB", "release_dates": [{"release_date": "2026-11-18T00:00:00.000Z", "type": 3, "note": ""}]},
				{"iso_3166_1": "US", "release_dates": [
					{"release_date": "2026-11-20T00:00:00.000Z", "type": 3, "note": ""},
					{"release_date": "2026-11-01T00:00:00.000Z", "type": 1, "note": "Los Angeles"}
				]}
			]}
		}`))
	})

	detail, err := provider.GetTitle(context.Background(), "movie-603")
	if err != nil {
		t.Fatalf("GetTitle returned error: %v", err)
	}
	if detail.IsSeries() || detail.Kind != metadata.KindMovie || detail.Year != 2026 {
		t.Fatalf("unexpected movie detail: %+v", detail)
	}

	dates, err := provider.GetMovieReleaseDates(context.Background(), "movie-603")
	if err != nil {
		t.Fatalf("GetMovieReleaseDates returned error: %v", err)
	}
	want := []metadata.ReleaseDate{
		{Region: "GB", Date: "2026-11-18"},
		{Region: "US", Date: "2026-11-01", Note: "premiere Los Angeles"},
		{Region: "US", Date: "2026-11-20"},
	}
	if len(dates) != len(want) {
		t.Fatalf("expected %d release dates, got %+v", len(want), dates)
	}
	for i := range want {
		if dates[i] != want[i] {
			t.Fatalf("release date %d = %+v, want %+v", i, dates[i], want[i])
		}
	}
	if calls.Load() != 2 {
		t.Fatalf("expected 2 requests, got %d", calls.Load())
	}
}

func TestGetSeriesEpisodesReturnsLatestSeason(t *testing.T) {
	provider := newTestProvider(t, showHandler(t))
	seasons, err := provider.GetSeriesEpisodes(context.Background(), "tv-1399")
	if err != nil {
		t.Fatalf("GetSeriesEpisodes returned error: %v", err)
	}
	if len(seasons) != 1 || seasons[0].Number != 2 {
		t.Fatalf("expected latest season only, got %+v", seasons)
	}
	eps := seasons[0].Episodes
	if len(eps) != 3 || eps[0].ID != "tv-1399-s02e01" || eps[0].AirDate != "2026-04-17" || eps[2].AirDate != "" {
		t.Fatalf("unexpected episodes: %+v", eps)
	}
	if _, err := provider.GetSeriesEpisodes(context.Background(), "movie-1"); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for movie key, got %v", err)
	}
}

func TestGetEpisodeNextEpisodeDerivation(t *testing.T) {
	provider := newTestProvider(t, showHandler(t))
	tests := []struct {
		id       string
		wantNext string
		wantAir  string
	}{
		{id: "tv-1399-s02e01", wantNext: "tv-1399-s02e02", wantAir: "2026-04-17"},
		{id: "tv-1399-s02e03", wantNext: "", wantAir: ""},
		{id: "tv-1399-s01e02", wantNext: "tv-1399-s02e01", wantAir: "2019-04-08"},
	}
	for _, tc := range tests {
		t.Run(tc.id, func(t *testing.T) {
			ep, err := provider.GetEpisode(context.Background(), tc.id)
			if err != nil {
				t.Fatalf("GetEpisode returned error: %v", err)
			}
			if ep.NextEpisodeID != tc.wantNext || ep.AirDate != tc.wantAir {
				t.Fatalf("GetEpisode(%s) next=%q air=%q, want next=%q air=%q", tc.id, ep.NextEpisodeID, ep.AirDate, tc.wantNext, tc.wantAir)
			}
			if ep.SeriesTitle != "Example Show" || ep.SeriesID != "tv-1399" {
				t.Fatalf("unexpected series fields: %+v", ep)
			}
		})
	}

	if _, err := provider.GetEpisode(context.Background(), "tv-1399-s02e09"); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found for missing episode, got %v", err)
	}
}

func TestNotFoundIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	})
	_, err := provider.GetTitle(context.Background(), "movie-9")
	if !errors.Is(err, services.ErrNotFound) || !errors.Is(err, services.ErrProvider) {
		t.Fatalf("expected provider not-found error, got %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected single request for 404, got %d", calls.Load())
	}
}

func TestServerErrorsAreRetried(t *testing.T) {
	var calls atomic.Int32
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"id": 5, "title": "Late"}`))
	})
	detail, err := provider.GetTitle(context.Background(), "movie-5")
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if detail.Title != "Late" || calls.Load() != 3 {
		t.Fatalf("unexpected result %q after %d calls", detail.Title, calls.Load())
	}
}

func TestPersistentServerErrorFails(t *testing.T) {
	var calls atomic.Int32
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	})
	if _, err := provider.GetTitle(context.Background(), "movie-5"); !errors.Is(err, services.ErrProvider) {
		t.Fatalf("expected provider error, got %v", err)
	}
	if calls.Load() != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls.Load())
	}
}

func TestTitleURLAndKeys(t *testing.T) {
	provider := tmdb.NewProvider(nil, 0)
	if got := provider.TitleURL("tv-1399"); got != "https://www.themoviedb.org/tv/1399" {
		t.Fatalf("unexpected url %q", got)
	}
	if got := provider.TitleURL("movie-603"); got != "https://www.themoviedb.org/movie/603" {
		t.Fatalf("unexpected url %q", got)
	}
	if provider.TitleURL("bogus") != "" {
		t.Fatal("expected empty url for invalid key")
	}

	show, season, episode, err := tmdb.ParseEpisodeKey("tv-1399-s08e06")
	if err != nil || show != 1399 || season != 8 || episode != 6 {
		t.Fatalf("ParseEpisodeKey = %d %d %d %v", show, season, episode, err)
	}
	for _, bad := range []string{"tv-1399", "movie-1-s01e01", "tv-1-s1e1", "tv-x-s01e01"} {
		if _, _, _, err := tmdb.ParseEpisodeKey(bad); !errors.Is(err, services.ErrValidation) {
			t.Fatalf("expected validation error for %q, got %v", bad, err)
		}
	}
	if _, _, err := tmdb.ParseTitleKey("tv-0"); err == nil {
		t.Fatal("expected error for zero id")
	}
}
