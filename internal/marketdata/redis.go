package marketdata

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache is a read-through quote cache shared across instances.
// Reads check Redis first and fall back to the wrapped Oracle; Redis
// faults are treated as cache misses, never as quote failures.
type RedisCache struct {
	next Oracle
	rdb  *redis.Client
	ttl  time.Duration
}

func NewRedisCache(next Oracle, rdb *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{next: next, rdb: rdb, ttl: ttl}
}

func quoteKey(symbol string) string {
	return "quote:" + symbol
}

func (c *RedisCache) GetQuote(ctx context.Context, symbol string) (Quote, error) {
	data, err := c.rdb.Get(ctx, quoteKey(symbol)).Bytes()
	if err == nil {
		var q Quote
		if json.Unmarshal(data, &q) == nil {
			return q, nil
		}
	}

	q, err := c.next.GetQuote(ctx, symbol)
	if err != nil {
		return Quote{}, err
	}

	if data, err := json.Marshal(q); err == nil {
		c.rdb.Set(ctx, quoteKey(symbol), data, c.ttl)
	}
	return q, nil
}
