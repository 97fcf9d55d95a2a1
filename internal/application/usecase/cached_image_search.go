package usecase

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"

	"github.com/dreschagin/event-media-fetcher/internal/application/port"
	"github.com/dreschagin/event-media-fetcher/pkg/logger"
)

// CachedImageSearch serves repeated queries from a cache. Search errors are never cached.
type CachedImageSearch struct {
	next   port.ImageSearcher
	cache  port.Cache
	logger *logger.Logger
}

func NewCachedImageSearch(next port.ImageSearcher, cache port.Cache, log *logger.Logger) *CachedImageSearch {
	return &CachedImageSearch{
		next:   next,
		cache:  cache,
		logger: log,
	}
}

func (s *CachedImageSearch) Search(ctx context.Context, query string) ([]string, error) {
	if s.cache == nil {
		return s.next.Search(ctx, query)
	}

	key := searchCacheKey(query)

	var cached []string
	err := s.cache.Get(ctx, key, &cached)
	if err == nil {
		s.logger.Debug("Cache hit for image search", "query", query, "count", len(cached))
		return cached, nil
	}
	if !errors.Is(err, port.ErrCacheMiss) {
		s.logger.Warn("Image search cache read failed", "error", err.Error())
	}

	urls, err := s.next.Search(ctx, query)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, key, urls); err != nil {
		s.logger.Warn("Failed to cache image search result", "error", err.Error())
	}

	return urls, nil
}

func searchCacheKey(query string) string {
	sum := sha1.Sum([]byte(query))
	return "search:images:" + hex.EncodeToString(sum[:])
}
