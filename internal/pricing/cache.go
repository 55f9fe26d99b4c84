package pricing

import (
	"context"
	"sync"
	"time"
)

const cacheSweepInterval = 5 * time.Minute

type cacheEntry struct {
	quote    Quote
	storedAt time.Time
}

// quoteCache keeps quotes for a fixed TTL. Expired entries are skipped on read
// and removed by the janitor.
type quoteCache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
	ttl     time.Duration
	now     func() time.Time
}

func newQuoteCache(ttl time.Duration, now func() time.Time) *quoteCache {
	return &quoteCache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		now:     now,
	}
}

func (c *quoteCache) get(key string) (Quote, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok || c.now().Sub(e.storedAt) >= c.ttl {
		return Quote{}, false
	}
	return e.quote, true
}

func (c *quoteCache) set(key string, q Quote) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{quote: q, storedAt: c.now()}
}

func (c *quoteCache) sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	for key, e := range c.entries {
		if c.now().Sub(e.storedAt) >= c.ttl {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

func (c *quoteCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// StartJanitor periodically evicts expired quotes until ctx is cancelled.
func (s *Service) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = cacheSweepInterval
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		s.logger.Info("Quote cache janitor started", "interval", interval, "ttl", s.cache.ttl)

		for {
			select {
			case <-ticker.C:
				if removed := s.cache.sweep(); removed > 0 {
					s.logger.Debug("Quote cache swept", "removed", removed, "remaining", s.cache.len())
				}
			case <-ctx.Done():
				s.logger.Info("Quote cache janitor shutting down", "reason", ctx.Err())
				return
			}
		}
	}()
}
