package data

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Bing4Ever/quant-trading-sub000/pkg/market"
)

// CachedSource memoizes another source's results per symbol/window/interval.
// Safe for concurrent use; callers must not mutate returned slices.
type CachedSource struct {
	inner Source

	mu    sync.RWMutex
	cache map[string][]market.Bar
}

// NewCachedSource wraps a source with an in-memory cache.
func NewCachedSource(inner Source) *CachedSource {
	return &CachedSource{
		inner: inner,
		cache: make(map[string][]market.Bar),
	}
}

func (s *CachedSource) Name() string {
	return fmt.Sprintf("cached(%s)", s.inner.Name())
}

func (s *CachedSource) GetBars(ctx context.Context, symbol string, start, end time.Time, interval string) ([]market.Bar, error) {
	key := cacheKey(symbol, start, end, interval)

	s.mu.RLock()
	bars, ok := s.cache[key]
	s.mu.RUnlock()
	if ok {
		return bars, nil
	}

	bars, err := s.inner.GetBars(ctx, symbol, start, end, interval)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.cache[key] = bars
	s.mu.Unlock()
	return bars, nil
}

// Clear drops all cached entries.
func (s *CachedSource) Clear() {
	s.mu.Lock()
	s.cache = make(map[string][]market.Bar)
	s.mu.Unlock()
}

// Size returns the number of cached entries.
func (s *CachedSource) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.cache)
}

func cacheKey(symbol string, start, end time.Time, interval string) string {
	return fmt.Sprintf("%s|%d|%d|%s", symbol, start.UnixNano(), end.UnixNano(), interval)
}
