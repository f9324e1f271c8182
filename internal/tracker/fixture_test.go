package tracker_test

import (
	"testing"
	"time"

	"premiere/internal/alerts"
	"premiere/internal/logging"
	"premiere/internal/metadata"
	"premiere/internal/testsupport"
	"premiere/internal/tracker"
)

var startTime = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

type fixture struct {
	store     *alerts.Store
	provider  *testsupport.FakeProvider
	clock     *testsupport.Clock
	service   *tracker.Service
	scheduler *tracker.Scheduler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	provider := testsupport.NewFakeProvider()
	clock := testsupport.NewClock(startTime)
	service, scheduler := tracker.Build(cfg, store, provider, logging.NewNop(), tracker.WithClock(clock.Now))
	return &fixture{
		store:     store,
		provider:  provider,
		clock:     clock,
		service:   service,
		scheduler: scheduler,
	}
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func season(number int, episodes ...metadata.EpisodeRef) metadata.Season {
	return metadata.Season{Number: number, Episodes: episodes}
}

func episode(number int, id, airDate string) metadata.EpisodeRef {
	return metadata.EpisodeRef{Number: number, ID: id, AirDate: airDate}
}
