package testsupport

import (
	"context"
	"testing"
	"time"

	"premiere/internal/alerts"
	"premiere/internal/config"
)

// MustOpenStore opens an alerts.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *alerts.Store {
	t.Helper()

	store, err := alerts.Open(cfg)
	if err != nil {
		t.Fatalf("alerts.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// MustInsert stores an alert and returns the persisted record.
func MustInsert(t testing.TB, store *alerts.Store, userID, titleID, episodeID string, release time.Time) *alerts.Record {
	t.Helper()

	rec, err := store.Insert(context.Background(), alerts.Record{
		UserID:      userID,
		UserName:    "user-" + userID,
		TitleID:     titleID,
		TitleName:   "Title " + titleID,
		EpisodeID:   episodeID,
		ReleaseDate: release,
	})
	if err != nil {
		t.Fatalf("store.Insert: %v", err)
	}
	return rec
}
