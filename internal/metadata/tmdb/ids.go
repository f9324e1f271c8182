package tmdb

import (
	"fmt"
	"strconv"
	"strings"

	"premiere/internal/metadata"
	"premiere/internal/services"
)

const (
	moviePrefix = "movie-"
	tvPrefix    = "tv-"
)

// MovieKey builds the title key for a TMDB movie id.
func MovieKey(id int64) string { return moviePrefix + strconv.FormatInt(id, 10) }

// SeriesKey builds the title key for a TMDB tv id.
func SeriesKey(id int64) string { return tvPrefix + strconv.FormatInt(id, 10) }

// EpisodeKey builds an episode key.
func EpisodeKey(showID int64, season, episode int) string {
	return fmt.Sprintf("%s%d-s%02de%02d", tvPrefix, showID, season, episode)
}

// ParseTitleKey splits a title key into kind and TMDB id.
func ParseTitleKey(key string) (metadata.Kind, int64, error) {
	key = strings.TrimSpace(key)
	var (
		kind metadata.Kind
		raw  string
	)
	switch {
	case strings.HasPrefix(key, moviePrefix):
		kind, raw = metadata.KindMovie, strings.TrimPrefix(key, moviePrefix)
	case strings.HasPrefix(key, tvPrefix):
		kind, raw = metadata.KindSeries, strings.TrimPrefix(key, tvPrefix)
	default:
		return "", 0, services.Wrap(services.ErrValidation, "tmdb", "parse title key", fmt.Sprintf("unknown key %q", key), nil)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return "", 0, services.Wrap(services.ErrValidation, "tmdb", "parse title key", fmt.Sprintf("invalid id in %q", key), nil)
	}
	return kind, id, nil
}

// ParseEpisodeKey splits an episode key into show id, season, and episode.
func ParseEpisodeKey(key string) (int64, int, int, error) {
	key = strings.TrimSpace(key)
	var (
		showID          int64
		season, episode int
	)
	if _, err := fmt.Sscanf(key, "tv-%d-s%de%d", &showID, &season, &episode); err != nil || showID <= 0 || season < 0 || episode <= 0 {
		return 0, 0, 0, services.Wrap(services.ErrValidation, "tmdb", "parse episode key", fmt.Sprintf("invalid key %q", key), nil)
	}
	if key != EpisodeKey(showID, season, episode) {
		return 0, 0, 0, services.Wrap(services.ErrValidation, "tmdb", "parse episode key", fmt.Sprintf("non-canonical key %q", key), nil)
	}
	return showID, season, episode, nil
}
