package marketdata

import (
	"context"
	"sync"
	"time"
)

// Cache wraps an Oracle with an in-process TTL cache keyed by symbol.
// A stale entry is refetched; a fetch failure falls back to the stale
// entry if one exists, so a flapping upstream degrades to old prices
// rather than no prices.
type Cache struct {
	next Oracle
	ttl  time.Duration

	mu      sync.RWMutex
	entries map[string]cacheEntry
}

type cacheEntry struct {
	quote     Quote
	fetchedAt time.Time
}

func NewCache(next Oracle, ttl time.Duration) *Cache {
	return &Cache{next: next, ttl: ttl, entries: make(map[string]cacheEntry)}
}

func (c *Cache) GetQuote(ctx context.Context, symbol string) (Quote, error) {
	c.mu.RLock()
	entry, ok := c.entries[symbol]
	c.mu.RUnlock()
	if ok && time.Since(entry.fetchedAt) < c.ttl {
		return entry.quote, nil
	}

	q, err := c.next.GetQuote(ctx, symbol)
	if err != nil {
		if ok {
			return entry.quote, nil
		}
		return Quote{}, err
	}

	c.mu.Lock()
	c.entries[symbol] = cacheEntry{quote: q, fetchedAt: time.Now()}
	c.mu.Unlock()
	return q, nil
}
