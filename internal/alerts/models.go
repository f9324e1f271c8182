package alerts

import "time"

// Key identifies a record.
type Key struct {
	UserID  string
	TitleID string
}

// Record is one pending alert.
type Record struct {
	UserID      string
	UserName    string
	TitleID     string
	TitleName   string
	EpisodeID   string
	ReleaseDate time.Time
	Revision    int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Key returns the record's identity.
func (r Record) Key() Key {
	return Key{UserID: r.UserID, TitleID: r.TitleID}
}

// IsMovie reports whether the record tracks a movie release.
func (r Record) IsMovie() bool {
	return r.EpisodeID == ""
}

// Stats summarizes stored alerts.
type Stats struct {
	Total  int
	Movies int
	Series int
	Due    int
}
