package main

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"premiere/internal/api"
	"premiere/internal/logging"
	"premiere/internal/testsupport"
)

func TestCycleDeliversLocally(t *testing.T) {
	env := setupCLITestEnv(t)
	env.provider.AddMovie("movie-1", "Arrival", 2025)
	store := testsupport.MustOpenStore(t, env.cfg)
	testsupport.MustInsert(t, store, "u1", "movie-1", "", time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC))

	out, _, err := env.run(t, "cycle", "--date", "2025-03-02")
	if err != nil {
		t.Fatalf("cycle: %v", err)
	}
	requireContains(t, out, "for 2025-03-02")
	requireContains(t, out, "Due: 0")
	if len(env.deliverer.messages()) != 0 {
		t.Fatalf("expected no deliveries before the release day")
	}

	out, _, err = env.run(t, "cycle", "--date", "2025-03-03")
	if err != nil {
		t.Fatalf("cycle: %v", err)
	}
	requireContains(t, out, "Due: 1  Processed: 1")
	requireContains(t, out, "Delivered: 1")
	sent := env.deliverer.messages()
	if len(sent) != 1 || sent[0].UserID != "u1" || !strings.HasPrefix(sent[0].Message, "Movie is out!") {
		t.Fatalf("unexpected deliveries %+v", sent)
	}

	records, err := store.QueryByUser(context.Background(), "u1")
	if err != nil {
		t.Fatalf("QueryByUser: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected released movie to be retired, got %+v", records)
	}
}

func TestCycleRejectsMalformedDate(t *testing.T) {
	env := setupCLITestEnv(t)
	_, _, err := env.run(t, "cycle", "--date", "03/03/2025")
	if err == nil || !strings.Contains(err.Error(), "expected YYYY-MM-DD") {
		t.Fatalf("expected date error, got %v", err)
	}
}

func TestCycleUsesRunningDaemonAPI(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithAPIToken("s3cret"))
	env.provider.AddMovie("movie-1", "Arrival", 2025)

	components, err := env.build(env.cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	t.Cleanup(func() { _ = components.Close() })
	if err := components.Daemon.Start(context.Background()); err != nil {
		t.Fatalf("daemon start: %v", err)
	}
	srv, err := api.New(env.cfg, components.Service, components.Daemon, logging.NewNop(), api.WithClock(env.clock.Now))
	if err != nil {
		t.Fatalf("api.New: %v", err)
	}
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	env.cfg.API.Bind = ts.URL
	env.writeConfig(t)
	testsupport.MustInsert(t, components.Store, "u1", "movie-1", "", time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC))

	out, _, err := env.run(t, "cycle", "--date", "2025-03-03")
	if err != nil {
		t.Fatalf("cycle: %v", err)
	}
	requireContains(t, out, "Cycle ran in the running daemon")
	requireContains(t, out, "Delivered: 1")

	out, _, err = env.run(t, "status", "--skip-checks")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "[OK] running")
	requireContains(t, out, "daemon API")
	requireContains(t, out, "2025-03-03")
}
