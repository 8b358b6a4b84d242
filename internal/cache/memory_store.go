package cache

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"fxchain/internal/rates"
)

var _ Store = (*MemoryStore)(nil)

// MemoryStore keeps the canonical set in process memory. A background scan
// purges the set once it expires; reads check expiry themselves and do not
// depend on the scan.
type MemoryStore struct {
	mu   sync.RWMutex
	set  *RateSet
	now  func() time.Time
	done chan struct{}
	once sync.Once
}

// NewMemoryStore creates a MemoryStore scanning for expiry every scanInterval.
// A non-positive interval disables the scan.
func NewMemoryStore(scanInterval time.Duration) *MemoryStore {
	s := &MemoryStore{
		now:  time.Now,
		done: make(chan struct{}),
	}
	if scanInterval > 0 {
		go s.scan(scanInterval)
	}
	return s
}

// Load returns a copy of the live set.
func (s *MemoryStore) Load(_ context.Context) (*RateSet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.live() {
		return nil, nil
	}
	return s.set.clone(), nil
}

// Merge adds the missing currencies of set under a single lock.
func (s *MemoryStore) Merge(_ context.Context, set *RateSet, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.live() || s.set.Base != set.Base {
		s.set = set.clone()
	} else {
		for c, v := range set.Rates {
			if _, ok := s.set.Rates[c]; !ok {
				s.set.Rates[c] = v
			}
		}
	}
	s.set.ExpiresAt = s.now().Add(ttl)
	return nil
}

// Clear replaces the set with an empty one that is already expired.
func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.set = &RateSet{
		Rates:     make(map[rates.Currency]decimal.Decimal),
		ExpiresAt: s.now(),
	}
	return nil
}

// Close stops the background scan.
func (s *MemoryStore) Close() {
	s.once.Do(func() { close(s.done) })
}

// live must be called with mu held.
func (s *MemoryStore) live() bool {
	return s.set != nil && len(s.set.Rates) > 0 && !s.now().After(s.set.ExpiresAt)
}

func (s *MemoryStore) scan(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.mu.Lock()
			if s.set != nil && !s.live() {
				s.set = nil
			}
			s.mu.Unlock()
		}
	}
}
