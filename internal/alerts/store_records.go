package alerts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"premiere/internal/services"
)

func storeError(op string, err error) error {
	return services.Wrap(services.ErrStore, "alerts", op, "", err)
}

// Insert creates or replaces the record for (UserID, TitleID). Replacing an
// existing record bumps its revision so in-flight conditional writes lose.
func (s *Store) Insert(ctx context.Context, rec Record) (*Record, error) {
	rec.UserID = strings.TrimSpace(rec.UserID)
	rec.TitleID = strings.TrimSpace(rec.TitleID)
	if rec.UserID == "" || rec.TitleID == "" {
		return nil, services.Wrap(services.ErrValidation, "alerts", "insert", "user and title are required", nil)
	}
	if rec.ReleaseDate.IsZero() {
		return nil, services.Wrap(services.ErrValidation, "alerts", "insert", "release date is required", nil)
	}
	now := formatTimestamp(s.now())
	_, err := s.execWithRetry(ctx, `
		INSERT INTO alerts (user_id, user_name, title_id, title_name, episode_id, release_date, revision, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, 1, ?, ?)
		ON CONFLICT(user_id, title_id) DO UPDATE SET
			user_name = excluded.user_name,
			title_name = excluded.title_name,
			episode_id = excluded.episode_id,
			release_date = excluded.release_date,
			revision = alerts.revision + 1,
			updated_at = excluded.updated_at`,
		rec.UserID,
		rec.UserName,
		rec.TitleID,
		rec.TitleName,
		nullableString(rec.EpisodeID),
		formatRelease(rec.ReleaseDate),
		now,
		now,
	)
	if err != nil {
		return nil, storeError("insert", err)
	}
	return s.Get(ctx, rec.Key())
}

// Update advances a series record to episodeID when its revision still equals
// expectedRevision. The stored release date never decreases. ErrConflict is
// returned when the revision moved or the record is gone.
func (s *Store) Update(ctx context.Context, key Key, expectedRevision int64, episodeID string, releaseDate time.Time) (*Record, error) {
	if strings.TrimSpace(episodeID) == "" {
		return nil, services.Wrap(services.ErrValidation, "alerts", "update", "episode id is required", nil)
	}
	res, err := s.execWithRetry(ctx, `
		UPDATE alerts
		SET episode_id = ?,
			release_date = MAX(release_date, ?),
			revision = revision + 1,
			updated_at = ?
		WHERE user_id = ? AND title_id = ? AND revision = ? AND episode_id IS NOT NULL`,
		episodeID,
		formatRelease(releaseDate),
		formatTimestamp(s.now()),
		key.UserID,
		key.TitleID,
		expectedRevision,
	)
	if err != nil {
		return nil, storeError("update", err)
	}
	if err := expectOneRow(res, "update"); err != nil {
		return nil, err
	}
	return s.Get(ctx, key)
}

// Delete removes the record for key and reports whether one existed.
func (s *Store) Delete(ctx context.Context, key Key) (bool, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM alerts WHERE user_id = ? AND title_id = ?`, key.UserID, key.TitleID)
	if err != nil {
		return false, storeError("delete", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, storeError("delete", err)
	}
	return affected > 0, nil
}

// DeleteRevision removes the record only if it still has the given revision.
func (s *Store) DeleteRevision(ctx context.Context, key Key, revision int64) error {
	res, err := s.execWithRetry(ctx,
		`DELETE FROM alerts WHERE user_id = ? AND title_id = ? AND revision = ?`,
		key.UserID, key.TitleID, revision,
	)
	if err != nil {
		return storeError("delete", err)
	}
	return expectOneRow(res, "delete")
}

// Get returns the record for key, or nil when absent.
func (s *Store) Get(ctx context.Context, key Key) (*Record, error) {
	var rec *Record
	err := retryOnBusy(ctx, func() error {
		row := s.db.QueryRowContext(ctx,
			`SELECT `+recordColumns+` FROM alerts WHERE user_id = ? AND title_id = ?`,
			key.UserID, key.TitleID,
		)
		var scanErr error
		rec, scanErr = scanRecord(row)
		return scanErr
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storeError("get", err)
	}
	return rec, nil
}

// QueryByUser lists a user's alerts ordered by title name.
func (s *Store) QueryByUser(ctx context.Context, userID string) ([]Record, error) {
	return s.query(ctx, "query by user",
		`SELECT `+recordColumns+` FROM alerts WHERE user_id = ? ORDER BY title_name COLLATE NOCASE, title_id`,
		userID,
	)
}

// QueryDue lists alerts whose release date is at or before asOf, oldest first.
func (s *Store) QueryDue(ctx context.Context, asOf time.Time) ([]Record, error) {
	return s.query(ctx, "query due",
		`SELECT `+recordColumns+` FROM alerts WHERE release_date <= ? ORDER BY release_date, user_id, title_id`,
		formatRelease(asOf),
	)
}

// List returns every stored alert.
func (s *Store) List(ctx context.Context) ([]Record, error) {
	return s.query(ctx, "list",
		`SELECT `+recordColumns+` FROM alerts ORDER BY user_id, title_name COLLATE NOCASE, title_id`,
	)
}

// TitleIDs returns the set of titles a user has alerts for.
func (s *Store) TitleIDs(ctx context.Context, userID string) (map[string]struct{}, error) {
	ids := make(map[string]struct{})
	err := retryOnBusy(ctx, func() error {
		rows, err := s.db.QueryContext(ctx, `SELECT title_id FROM alerts WHERE user_id = ?`, userID)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				return err
			}
			ids[id] = struct{}{}
		}
		return rows.Err()
	})
	if err != nil {
		return nil, storeError("title ids", err)
	}
	return ids, nil
}

// Stats counts stored alerts by kind and how many are due at asOf.
func (s *Store) Stats(ctx context.Context, asOf time.Time) (Stats, error) {
	var (
		stats                 Stats
		total, movies, series sql.NullInt64
		due                   sql.NullInt64
	)
	err := retryOnBusy(ctx, func() error {
		return s.db.QueryRowContext(ctx, `
			SELECT
				COUNT(*),
				SUM(CASE WHEN episode_id IS NULL THEN 1 ELSE 0 END),
				SUM(CASE WHEN episode_id IS NOT NULL THEN 1 ELSE 0 END),
				SUM(CASE WHEN release_date <= ? THEN 1 ELSE 0 END)
			FROM alerts`, formatRelease(asOf)).Scan(&total, &movies, &series, &due)
	})
	if err != nil {
		return Stats{}, storeError("stats", err)
	}
	stats.Total = int(total.Int64)
	stats.Movies = int(movies.Int64)
	stats.Series = int(series.Int64)
	stats.Due = int(due.Int64)
	return stats, nil
}

func (s *Store) query(ctx context.Context, op, query string, args ...any) ([]Record, error) {
	var out []Record
	err := retryOnBusy(ctx, func() error {
		rows, err := s.db.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		out, err = scanRecords(rows)
		return err
	})
	if err != nil {
		return nil, storeError(op, err)
	}
	return out, nil
}

func expectOneRow(res sql.Result, op string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return storeError(op, err)
	}
	if affected == 0 {
		return fmt.Errorf("%s: %w", op, ErrConflict)
	}
	return nil
}
