package metadata

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// CachedProvider memoizes title and episode lookups. Search and release-date
// lookups pass through because their results change with the query or matter
// only once per enable.
type CachedProvider struct {
	Provider
	titles   *expirable.LRU[string, *TitleDetail]
	episodes *expirable.LRU[string, *EpisodeDetail]
	seasons  *expirable.LRU[string, []Season]
}

// NewCachedProvider wraps inner with caches holding up to size entries each
// for ttl.
func NewCachedProvider(inner Provider, size int, ttl time.Duration) *CachedProvider {
	if size <= 0 {
		size = 128
	}
	return &CachedProvider{
		Provider: inner,
		titles:   expirable.NewLRU[string, *TitleDetail](size, nil, ttl),
		episodes: expirable.NewLRU[string, *EpisodeDetail](size, nil, ttl),
		seasons:  expirable.NewLRU[string, []Season](size, nil, ttl),
	}
}

// GetTitle returns a cached title or fetches it.
func (c *CachedProvider) GetTitle(ctx context.Context, titleID string) (*TitleDetail, error) {
	if detail, ok := c.titles.Get(titleID); ok {
		return detail, nil
	}
	detail, err := c.Provider.GetTitle(ctx, titleID)
	if err != nil {
		return nil, err
	}
	c.titles.Add(titleID, detail)
	return detail, nil
}

// GetSeriesEpisodes returns cached season listings or fetches them.
func (c *CachedProvider) GetSeriesEpisodes(ctx context.Context, titleID string) ([]Season, error) {
	if seasons, ok := c.seasons.Get(titleID); ok {
		return seasons, nil
	}
	seasons, err := c.Provider.GetSeriesEpisodes(ctx, titleID)
	if err != nil {
		return nil, err
	}
	c.seasons.Add(titleID, seasons)
	return seasons, nil
}

// GetEpisode returns a cached episode or fetches it.
func (c *CachedProvider) GetEpisode(ctx context.Context, episodeID string) (*EpisodeDetail, error) {
	if detail, ok := c.episodes.Get(episodeID); ok {
		return detail, nil
	}
	detail, err := c.Provider.GetEpisode(ctx, episodeID)
	if err != nil {
		return nil, err
	}
	c.episodes.Add(episodeID, detail)
	return detail, nil
}

// Purge drops every cached entry. The scheduler calls it before each cycle so
// a cycle never acts on data fetched for a previous day.
func (c *CachedProvider) Purge() {
	c.titles.Purge()
	c.episodes.Purge()
	c.seasons.Purge()
}
