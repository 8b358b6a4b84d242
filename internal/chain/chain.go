package chain

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"fxchain/internal/cache"
	"fxchain/internal/metrics"
	"fxchain/internal/provider"
	"fxchain/internal/rates"
)

var errNilResult = errors.New("source returned no result")

// Chain is the ordered list of sources; the first source has the highest
// priority. Successors are computed from a snapshot on every EntryPoint call,
// so edits between resolution passes never leave stale links behind.
type Chain struct {
	mu      sync.RWMutex
	sources []provider.Source

	cache   *cache.RateCache
	metrics *metrics.Metrics
	log     *zap.SugaredLogger
}

// New creates a Chain sharing rateCache across every link. rateCache may be
// nil, in which case every cache read fails and nothing is written.
func New(rateCache *cache.RateCache, m *metrics.Metrics, logger *zap.SugaredLogger, sources ...provider.Source) *Chain {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Chain{
		sources: append([]provider.Source(nil), sources...),
		cache:   rateCache,
		metrics: m,
		log:     logger,
	}
}

// EntryPoint links a snapshot of the sources and returns the first link, or
// nil for an empty chain.
func (c *Chain) EntryPoint() Resolver {
	snapshot := c.Sources()
	if len(snapshot) == 0 {
		return nil
	}

	var next *link
	for i := len(snapshot) - 1; i >= 0; i-- {
		next = &link{
			source:  snapshot[i],
			next:    next,
			cache:   c.cache,
			metrics: c.metrics,
			log:     c.log,
		}
	}
	return next
}

// Validate fails with rates.ErrConfiguration when the chain is empty or holds
// only cache-only sources.
func (c *Chain) Validate() error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if len(c.sources) == 0 {
		return fmt.Errorf("%w: no rate sources configured", rates.ErrConfiguration)
	}
	for _, src := range c.sources {
		if !provider.IsCacheOnly(src) {
			return nil
		}
	}
	return fmt.Errorf("%w: every rate source is cache-only", rates.ErrConfiguration)
}

// Add appends sources at the lowest priority.
func (c *Chain) Add(sources ...provider.Source) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sources = append(c.sources, sources...)
}

// Insert places src at index, shifting later sources down. An index past the
// end appends.
func (c *Chain) Insert(index int, src provider.Source) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if index < 0 {
		return fmt.Errorf("insert rate source at %d: negative index", index)
	}
	if index >= len(c.sources) {
		c.sources = append(c.sources, src)
		return nil
	}
	c.sources = append(c.sources[:index], append([]provider.Source{src}, c.sources[index:]...)...)
	return nil
}

// RemoveSources drops every source named name and reports how many were removed.
func (c *Chain) RemoveSources(name string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	kept := c.sources[:0:0]
	for _, src := range c.sources {
		if src.Name() != name {
			kept = append(kept, src)
		}
	}
	removed := len(c.sources) - len(kept)
	c.sources = kept
	return removed
}

// Clear removes every source.
func (c *Chain) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sources = nil
}

// Sources returns a copy of the ordered sources.
func (c *Chain) Sources() []provider.Source {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]provider.Source(nil), c.sources...)
}

// Names returns the source names in chain order.
func (c *Chain) Names() []string {
	srcs := c.Sources()
	names := make([]string, len(srcs))
	for i, s := range srcs {
		names[i] = s.Name()
	}
	return names
}
