package tracker_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"premiere/internal/alerts"
	"premiere/internal/logging"
	"premiere/internal/metadata"
	"premiere/internal/testsupport"
	"premiere/internal/tracker"
)

func mustGet(t *testing.T, store *alerts.Store, userID, titleID string) *alerts.Record {
	t.Helper()
	rec, err := store.Get(context.Background(), alerts.Key{UserID: userID, TitleID: titleID})
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	return rec
}

func runCycle(t *testing.T, f *fixture, asOf time.Time) tracker.CycleResult {
	t.Helper()
	f.clock.Set(asOf.Add(9 * time.Hour))
	result, err := f.scheduler.RunCycle(context.Background(), asOf)
	if err != nil {
		t.Fatalf("RunCycle failed: %v", err)
	}
	return result
}

func TestCycleAnnouncesEpisodeAiringToday(t *testing.T) {
	f := newFixture(t)
	f.provider.AddSeries("tv-1", "Severance", 2022, season(1,
		episode(1, "tv-1-s01e01", "1 Mar 2025"),
		episode(2, "tv-1-s01e02", "8 Mar 2025"),
	))
	testsupport.MustInsert(t, f.store, "u1", "tv-1", "tv-1-s01e01", date(2025, 3, 1))

	result := runCycle(t, f, date(2025, 3, 1))
	if len(result.Notifications) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(result.Notifications))
	}
	note := result.Notifications[0]
	if note.UserID != "u1" || note.Kind != tracker.NotificationEpisodeAired {
		t.Fatalf("unexpected notification %+v", note)
	}
	if !strings.HasPrefix(note.Message, tracker.MessageEpisodeOut+"\n\n") {
		t.Fatalf("unexpected message %q", note.Message)
	}

	rec := mustGet(t, f.store, "u1", "tv-1")
	if rec.EpisodeID != "tv-1-s01e02" || !rec.ReleaseDate.Equal(date(2025, 3, 8)) {
		t.Fatalf("record not advanced: %+v", rec)
	}
}

func TestCycleDoesNotReannounceDeferredEpisode(t *testing.T) {
	f := newFixture(t)
	f.provider.AddSeries("tv-1", "Severance", 2022, season(1,
		episode(1, "tv-1-s01e01", "1 Mar 2025"),
		episode(2, "tv-1-s01e02", ""),
	))
	testsupport.MustInsert(t, f.store, "u1", "tv-1", "tv-1-s01e01", date(2025, 3, 1))

	first := runCycle(t, f, date(2025, 3, 1))
	if len(first.Notifications) != 1 {
		t.Fatalf("expected announcement on air date, got %d", len(first.Notifications))
	}
	rec := mustGet(t, f.store, "u1", "tv-1")
	if rec.EpisodeID != "tv-1-s01e01" || !rec.ReleaseDate.Equal(date(2025, 3, 8)) {
		t.Fatalf("expected deferred recheck on current episode, got %+v", rec)
	}

	second := runCycle(t, f, date(2025, 3, 8))
	if len(second.Notifications) != 0 {
		t.Fatalf("episode announced twice: %+v", second.Notifications)
	}
	if second.Processed != 1 {
		t.Fatalf("expected the record to be processed, got %+v", second)
	}
	rec = mustGet(t, f.store, "u1", "tv-1")
	if rec.EpisodeID != "tv-1-s01e01" || !rec.ReleaseDate.Equal(date(2025, 3, 15)) {
		t.Fatalf("expected another deferral, got %+v", rec)
	}

	f.provider.SetEpisode(metadata.EpisodeDetail{ID: "tv-1-s01e02", SeriesID: "tv-1", AirDate: "20 Mar 2025"})
	third := runCycle(t, f, date(2025, 3, 15))
	if len(third.Notifications) != 0 {
		t.Fatalf("unexpected notification %+v", third.Notifications)
	}
	rec = mustGet(t, f.store, "u1", "tv-1")
	if rec.EpisodeID != "tv-1-s01e02" || !rec.ReleaseDate.Equal(date(2025, 3, 20)) {
		t.Fatalf("expected advance once the date was published, got %+v", rec)
	}
}

func TestCycleRetiresReleasedMovieOnce(t *testing.T) {
	f := newFixture(t)
	f.provider.AddMovie("movie-1", "Arrival", 2025)
	testsupport.MustInsert(t, f.store, "u1", "movie-1", "", date(2025, 3, 1))

	first := runCycle(t, f, date(2025, 3, 1))
	if len(first.Notifications) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(first.Notifications))
	}
	note := first.Notifications[0]
	if note.Kind != tracker.NotificationMovieReleased || !strings.Contains(note.Message, "Arrival (2025) | movie") {
		t.Fatalf("unexpected notification %+v", note)
	}
	if rec := mustGet(t, f.store, "u1", "movie-1"); rec != nil {
		t.Fatalf("movie record not deleted: %+v", rec)
	}

	for _, asOf := range []time.Time{date(2025, 3, 1), date(2025, 3, 2)} {
		again := runCycle(t, f, asOf)
		if len(again.Notifications) != 0 || again.Due != 0 {
			t.Fatalf("second cycle on %v emitted %+v", asOf, again)
		}
	}
}

func TestCycleMovieFallsBackToStoredName(t *testing.T) {
	f := newFixture(t)
	f.provider.AddMovie("movie-1", "Arrival", 2025)
	f.provider.Fail("title", "movie-1", errors.New("timeout"))
	testsupport.MustInsert(t, f.store, "u1", "movie-1", "", date(2025, 3, 1))

	result := runCycle(t, f, date(2025, 3, 1))
	if len(result.Notifications) != 1 {
		t.Fatalf("expected 1 notification, got %+v", result)
	}
	if !strings.Contains(result.Notifications[0].Message, "Title movie-1") {
		t.Fatalf("expected stored title name, got %q", result.Notifications[0].Message)
	}
}

func TestCycleSeriesFinale(t *testing.T) {
	f := newFixture(t)
	f.provider.AddSeries("tv-1", "Severance", 2022, season(1,
		episode(1, "tv-1-s01e01", "1 Feb 2025"),
		episode(2, "tv-1-s01e02", "1 Mar 2025"),
	))
	testsupport.MustInsert(t, f.store, "u1", "tv-1", "tv-1-s01e02", date(2025, 3, 1))

	result := runCycle(t, f, date(2025, 3, 1))
	if len(result.Notifications) != 1 {
		t.Fatalf("expected finale notification, got %d", len(result.Notifications))
	}
	note := result.Notifications[0]
	if note.Kind != tracker.NotificationSeriesFinale || !strings.HasPrefix(note.Message, tracker.MessageSeriesFinale) {
		t.Fatalf("unexpected notification %+v", note)
	}
	if !strings.Contains(note.Message, "Severance") {
		t.Fatalf("finale card missing series title: %q", note.Message)
	}
	if rec := mustGet(t, f.store, "u1", "tv-1"); rec != nil {
		t.Fatalf("finale record not deleted: %+v", rec)
	}
}

func TestCycleIsolatesRecordFailures(t *testing.T) {
	f := newFixture(t)
	f.provider.AddSeries("tv-1", "Broken", 2022, season(1,
		episode(1, "tv-1-s01e01", "1 Mar 2025"),
		episode(2, "tv-1-s01e02", "8 Mar 2025"),
	))
	f.provider.AddSeries("tv-2", "Working", 2022, season(1,
		episode(1, "tv-2-s01e01", "1 Mar 2025"),
		episode(2, "tv-2-s01e02", "8 Mar 2025"),
	))
	f.provider.AddMovie("movie-3", "Arrival", 2025)
	f.provider.Fail("episode", "tv-1-s01e01", errors.New("provider down"))

	testsupport.MustInsert(t, f.store, "u1", "tv-1", "tv-1-s01e01", date(2025, 2, 28))
	testsupport.MustInsert(t, f.store, "u1", "tv-2", "tv-2-s01e01", date(2025, 3, 1))
	testsupport.MustInsert(t, f.store, "u2", "movie-3", "", date(2025, 3, 1))

	result := runCycle(t, f, date(2025, 3, 1))
	if result.Due != 3 || result.Failed != 1 || result.Processed != 2 {
		t.Fatalf("unexpected counts %+v", result)
	}
	if len(result.Notifications) != 2 {
		t.Fatalf("expected 2 notifications, got %+v", result.Notifications)
	}
	if result.Notifications[0].TitleID != "tv-2" || result.Notifications[1].TitleID != "movie-3" {
		t.Fatalf("notifications out of load order: %+v", result.Notifications)
	}

	failed := mustGet(t, f.store, "u1", "tv-1")
	if failed == nil || failed.EpisodeID != "tv-1-s01e01" || failed.Revision != 1 {
		t.Fatalf("failed record should be untouched, got %+v", failed)
	}
}

// faultyStore fails or conflicts on selected titles.
type faultyStore struct {
	*alerts.Store
	failUpdate     map[string]error
	conflictDelete map[string]bool
}

func (s *faultyStore) Update(ctx context.Context, key alerts.Key, rev int64, episodeID string, release time.Time) (*alerts.Record, error) {
	if err, ok := s.failUpdate[key.TitleID]; ok {
		return nil, err
	}
	return s.Store.Update(ctx, key, rev, episodeID, release)
}

func (s *faultyStore) DeleteRevision(ctx context.Context, key alerts.Key, rev int64) error {
	if s.conflictDelete[key.TitleID] {
		return alerts.ErrConflict
	}
	return s.Store.DeleteRevision(ctx, key, rev)
}

func TestCycleStoreFailuresAndConflicts(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	base := testsupport.MustOpenStore(t, cfg)
	store := &faultyStore{
		Store:          base,
		failUpdate:     map[string]error{"tv-1": errors.New("disk full")},
		conflictDelete: map[string]bool{"movie-2": true},
	}
	provider := testsupport.NewFakeProvider()
	provider.AddSeries("tv-1", "Severance", 2022, season(1,
		episode(1, "tv-1-s01e01", "1 Mar 2025"),
		episode(2, "tv-1-s01e02", "8 Mar 2025"),
	))
	provider.AddMovie("movie-2", "Arrival", 2025)
	provider.AddMovie("movie-3", "Heat", 2025)
	testsupport.MustInsert(t, base, "u1", "tv-1", "tv-1-s01e01", date(2025, 3, 1))
	testsupport.MustInsert(t, base, "u1", "movie-2", "", date(2025, 3, 1))
	testsupport.MustInsert(t, base, "u1", "movie-3", "", date(2025, 3, 1))

	_, scheduler := tracker.Build(cfg, store, provider, logging.NewNop(),
		tracker.WithClock(func() time.Time { return startTime }))
	result, err := scheduler.RunCycle(context.Background(), date(2025, 3, 1))
	if err != nil {
		t.Fatalf("RunCycle failed: %v", err)
	}
	if result.Failed != 1 || result.Skipped != 1 || result.Processed != 1 {
		t.Fatalf("unexpected counts %+v", result)
	}
	if len(result.Notifications) != 1 || result.Notifications[0].TitleID != "movie-3" {
		t.Fatalf("only the clean record should notify, got %+v", result.Notifications)
	}
}

func TestCycleFailsWhenDueQueryFails(t *testing.T) {
	f := newFixture(t)
	if err := f.store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if _, err := f.scheduler.RunCycle(context.Background(), date(2025, 3, 1)); err == nil {
		t.Fatal("expected error from closed store")
	}
}

func TestEpisodeScenarioTenAndSeventeenDays(t *testing.T) {
	f := newFixture(t)
	enableDay := date(2025, 3, 1)
	e1Day := enableDay.AddDate(0, 0, 10)
	e2Day := enableDay.AddDate(0, 0, 17)
	f.provider.AddSeries("tv-100", "Andor", 2022, season(2,
		episode(1, "tv-100-s02e01", e1Day.Format("2 Jan 2006")),
		episode(2, "tv-100-s02e02", e2Day.Format("2 Jan 2006")),
		episode(3, "tv-100-s02e03", ""),
	))

	if _, err := f.service.Enable(context.Background(), "u1", "Ann", "tv-100"); err != nil {
		t.Fatalf("Enable failed: %v", err)
	}
	rec := mustGet(t, f.store, "u1", "tv-100")
	if rec == nil || rec.EpisodeID != "tv-100-s02e01" || !rec.ReleaseDate.Equal(e1Day) {
		t.Fatalf("unexpected record after enable: %+v", rec)
	}

	total := 0
	for d := enableDay.AddDate(0, 0, 1); d.Before(e1Day); d = d.AddDate(0, 0, 1) {
		total += len(runCycle(t, f, d).Notifications)
	}
	if total != 0 {
		t.Fatalf("expected no notifications before air date, got %d", total)
	}

	result := runCycle(t, f, e1Day)
	if len(result.Notifications) != 1 || result.Notifications[0].Kind != tracker.NotificationEpisodeAired {
		t.Fatalf("expected one episode notification on day 10, got %+v", result.Notifications)
	}
	rec = mustGet(t, f.store, "u1", "tv-100")
	if rec.EpisodeID != "tv-100-s02e02" || !rec.ReleaseDate.Equal(e2Day) {
		t.Fatalf("expected E2 at day 17, got %+v", rec)
	}

	for d := e1Day.AddDate(0, 0, 1); d.Before(e2Day); d = d.AddDate(0, 0, 1) {
		if n := len(runCycle(t, f, d).Notifications); n != 0 {
			t.Fatalf("unexpected notification on %v", d)
		}
	}
}
