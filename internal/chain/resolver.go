// Package chain resolves rates through an ordered chain of sources. Each
// link consults the shared cache, then its own source, and hands whatever is
// still missing to the next link.
package chain

import (
	"context"
	"time"

	"go.uber.org/zap"

	"fxchain/internal/cache"
	"fxchain/internal/metrics"
	"fxchain/internal/provider"
	"fxchain/internal/rates"
)

// Resolver resolves the rates of base against wanted.
type Resolver interface {
	Resolve(ctx context.Context, base rates.Currency, wanted []rates.Currency) *rates.Result
}

var _ Resolver = (*link)(nil)

// link is one position of a resolution pass. Links are built from a snapshot
// of the chain by EntryPoint and discarded after the pass.
type link struct {
	source  provider.Source
	next    *link
	cache   *cache.RateCache
	metrics *metrics.Metrics
	log     *zap.SugaredLogger
}

// Resolve runs cache read, fetch, cache write and delegation for this link.
// Data from earlier links always wins over data from later ones.
func (l *link) Resolve(ctx context.Context, base rates.Currency, wanted []rates.Currency) *rates.Result {
	cached := l.readCache(ctx, base, wanted)
	if cached.Success && cached.CheckComplete(wanted) {
		return cached
	}

	fetched, err := l.fetch(ctx, base)
	if err != nil {
		l.log.Warnw("Rate source fetch failed",
			"source", l.source.Name(),
			"base", base,
			"error", err,
		)
		failed := rates.NewFailedResult(base, l.source.Name(), err)
		failed.MergeResults(cached)
		if cached.Success {
			failed.FromCache = true
			failed.Date = cached.Date
		}
		return l.delegate(ctx, base, wanted, failed)
	}

	// Store the source's own contribution before anything is merged into it.
	if fetched.Success && l.writesCache() {
		l.writeCache(ctx, fetched)
	}

	fetched.MergeResults(cached)
	if fetched.Success && fetched.CheckComplete(wanted) {
		return fetched
	}
	return l.delegate(ctx, base, wanted, fetched)
}

// delegate merges the next link's result under acc. acc keeps its own keys;
// success, date and cache origin follow the last contributing layer.
func (l *link) delegate(ctx context.Context, base rates.Currency, wanted []rates.Currency, acc *rates.Result) *rates.Result {
	if l.next == nil {
		return acc
	}
	l.log.Debugw("Delegating to next rate source",
		"from", l.source.Name(),
		"to", l.next.source.Name(),
		"base", base,
	)

	next := l.next.Resolve(ctx, base, wanted)
	acc.MergeResults(next)
	if next.Success {
		acc.Date = next.Date
	}
	acc.Success = next.Success
	acc.FromCache = next.FromCache
	acc.CheckComplete(wanted)
	return acc
}

func (l *link) readCache(ctx context.Context, base rates.Currency, wanted []rates.Currency) *rates.Result {
	if l.cache == nil {
		return rates.NewFailedResult(base, cache.SourceName, cache.ErrCacheEmpty)
	}
	res := l.cache.Read(ctx, base, wanted)
	l.metrics.ObserveCacheRead(res.Success)
	return res
}

// writesCache reports whether this link's fetched rates are fresh enough to cache.
func (l *link) writesCache() bool {
	return !provider.IsCacheOnly(l.source) && !provider.IsPersisted(l.source)
}

func (l *link) writeCache(ctx context.Context, res *rates.Result) {
	if l.cache == nil {
		return
	}
	if err := l.cache.Write(ctx, res); err != nil {
		l.log.Warnw("Rate cache write failed",
			"source", l.source.Name(),
			"error", err,
		)
	}
}

// fetch calls the source and rejects unusable results.
func (l *link) fetch(ctx context.Context, base rates.Currency) (res *rates.Result, err error) {
	started := time.Now()
	defer func() { l.metrics.ObserveFetch(l.source.Name(), started, err) }()

	res, err = l.source.Fetch(ctx, base)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, errNilResult
	}
	if err := res.Validate(); err != nil {
		return nil, err
	}
	if res.Base == "" {
		res.Base = base
	}
	return res, nil
}
