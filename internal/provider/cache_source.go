package provider

import (
	"context"
	"errors"

	"fxchain/internal/cache"
	"fxchain/internal/rates"
)

var _ Source = (*CacheSource)(nil)

// CacheName is the source name of the cache-only source.
const CacheName = "cache_only"

// CacheSource answers from the rate cache alone. Its results are never
// written back to the cache.
type CacheSource struct {
	cache *cache.RateCache
}

// NewCacheSource creates a CacheSource over c.
func NewCacheSource(c *cache.RateCache) *CacheSource {
	return &CacheSource{cache: c}
}

// Name implements Source.
func (s *CacheSource) Name() string { return CacheName }

// CacheOnly reports that the source holds no data of its own.
func (s *CacheSource) CacheOnly() bool { return true }

// Fetch returns every cached rate for base.
func (s *CacheSource) Fetch(ctx context.Context, base rates.Currency) (*rates.Result, error) {
	if s.cache == nil {
		return nil, cache.ErrCacheEmpty
	}
	res := s.cache.Read(ctx, base, nil)
	if !res.Success {
		return nil, errors.New(res.Errors[cache.SourceName])
	}
	return res, nil
}
