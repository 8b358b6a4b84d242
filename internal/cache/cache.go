// Package cache implements the TTL rate cache. Rates are stored rebased to a
// single canonical currency and re-projected to the requested base on read.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"fxchain/internal/rates"
)

// SourceName identifies the cache in a result's error log.
const SourceName = "cache"

// Defaults used when Options leaves a field unset.
const (
	DefaultTTL          = 12 * time.Hour
	DefaultScanInterval = time.Second
	DefaultCanonical    = rates.Currency("EUR")
)

// ErrCacheEmpty is recorded when there is no live cached set.
var ErrCacheEmpty = errors.New("cache empty or not initialized")

// ErrCurrencyNotCached is recorded when the requested base cannot be pivoted
// from the cached set.
var ErrCurrencyNotCached = errors.New("currency was not found in cache")

// RateSet is the canonical cached set. It is either absent or non-empty.
type RateSet struct {
	Base      rates.Currency
	Rates     map[rates.Currency]decimal.Decimal
	Date      time.Time
	ExpiresAt time.Time
}

func (s *RateSet) clone() *RateSet {
	out := *s
	out.Rates = make(map[rates.Currency]decimal.Decimal, len(s.Rates))
	for c, v := range s.Rates {
		out.Rates[c] = v
	}
	return &out
}

// Store persists the canonical set. Implementations must make Merge atomic
// with respect to other writers.
type Store interface {
	// Load returns the live set, or nil when it is absent or expired.
	Load(ctx context.Context) (*RateSet, error)
	// Merge adds the currencies of set missing from the stored set (replacing
	// it when absent or based on another currency) and sets expiry to now+ttl.
	Merge(ctx context.Context, set *RateSet, ttl time.Duration) error
	// Clear drops the stored set immediately.
	Clear(ctx context.Context) error
}

// Options configures a RateCache.
type Options struct {
	TTL       time.Duration
	Canonical rates.Currency
}

// RateCache serves cached rates for any base currency.
type RateCache struct {
	store     Store
	ttl       time.Duration
	canonical rates.Currency
	log       *zap.SugaredLogger
}

// New creates a RateCache over store.
func New(store Store, opts Options, logger *zap.SugaredLogger) *RateCache {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.Canonical == "" {
		opts.Canonical = DefaultCanonical
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &RateCache{
		store:     store,
		ttl:       opts.TTL,
		canonical: opts.Canonical,
		log:       logger,
	}
}

// Canonical returns the currency the cache stores rates against.
func (c *RateCache) Canonical() rates.Currency { return c.canonical }

// TTL returns the lifetime of a write.
func (c *RateCache) TTL() time.Duration { return c.ttl }

// Read returns every cached rate rebased to base. The result is not filtered
// to wanted; trimming happens at the top-level caller.
func (c *RateCache) Read(ctx context.Context, base rates.Currency, _ []rates.Currency) *rates.Result {
	res := rates.NewResult(base)

	set, err := c.store.Load(ctx)
	if err != nil {
		c.log.Warnw("Cache load failed", "error", err)
		res.RecordError(SourceName, fmt.Sprintf("cache store unavailable: %v", err))
		return res
	}
	if set == nil || len(set.Rates) == 0 {
		res.RecordError(SourceName, ErrCacheEmpty.Error())
		return res
	}

	rebased := rates.Rebase(set.Base, base, set.Rates)
	if len(rebased) == 0 {
		res.RecordError(SourceName, fmt.Sprintf("%s: %s", ErrCurrencyNotCached, base))
		return res
	}

	res.Rates = rebased
	if !set.Date.IsZero() {
		res.Date = set.Date
	}
	res.Success = true
	res.FromCache = true
	return res
}

// Write merges the successful results into the cached set. Currencies already
// cached keep their value; within one call the first result wins.
func (c *RateCache) Write(ctx context.Context, results ...*rates.Result) error {
	fresh := &RateSet{
		Base:  c.canonical,
		Rates: make(map[rates.Currency]decimal.Decimal),
	}

	for _, r := range results {
		if r == nil || !r.Success {
			continue
		}
		quoted := r.Rates
		if r.Base != c.canonical {
			quoted = rates.Rebase(r.Base, c.canonical, r.Rates)
		}
		for cur, v := range quoted {
			if cur == c.canonical {
				continue
			}
			if _, ok := fresh.Rates[cur]; !ok {
				fresh.Rates[cur] = v
			}
		}
		if fresh.Date.IsZero() {
			fresh.Date = r.Date
		}
	}

	if len(fresh.Rates) == 0 {
		return nil
	}
	if err := c.store.Merge(ctx, fresh, c.ttl); err != nil {
		return fmt.Errorf("merge cached rates: %w", err)
	}
	return nil
}

// Clear empties the cache so the next read reports ErrCacheEmpty.
func (c *RateCache) Clear(ctx context.Context) error {
	if err := c.store.Clear(ctx); err != nil {
		return fmt.Errorf("clear cached rates: %w", err)
	}
	c.log.Infow("Rate cache cleared")
	return nil
}
