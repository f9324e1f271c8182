package alerts

import (
	"database/sql"
	"errors"
	"time"
)

const recordColumns = "user_id, user_name, title_id, title_name, episode_id, release_date, revision, created_at, updated_at"

// releaseLayout is fixed width so stored dates compare correctly as text.
const releaseLayout = "2006-01-02T15:04:05Z"

func scanRecord(scanner interface{ Scan(dest ...any) error }) (*Record, error) {
	var (
		rec        Record
		episodeID  sql.NullString
		releaseRaw string
		createdRaw string
		updatedRaw string
	)
	if err := scanner.Scan(
		&rec.UserID,
		&rec.UserName,
		&rec.TitleID,
		&rec.TitleName,
		&episodeID,
		&releaseRaw,
		&rec.Revision,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}
	rec.EpisodeID = episodeID.String

	release, err := time.Parse(releaseLayout, releaseRaw)
	if err != nil {
		return nil, err
	}
	rec.ReleaseDate = release
	if created, err := parseTimeString(createdRaw); err == nil {
		rec.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		rec.UpdatedAt = updated
	}
	return &rec, nil
}

func scanRecords(rows *sql.Rows) ([]Record, error) {
	defer rows.Close()
	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

func formatRelease(t time.Time) string {
	return t.UTC().Truncate(time.Second).Format(releaseLayout)
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	return time.Parse(time.RFC3339Nano, value)
}
