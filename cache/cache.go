// Package cache memoizes subquery and CTE result sets. Raw-text
// subqueries are parsed lazily each time they are evaluated; Cache keys
// a cached result by (sql text, outer-row fingerprint) so a correlated
// subquery re-evaluated across many outer rows with the same effective
// inputs can skip re-execution.
package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kruemmel-python/worldsql/wire"
)

// Cache wraps an optional Redis client with an always-present in-process
// map, mirroring client.go's WrapRedis constructor shape: a cache works
// standalone (New) or backed by Redis (WrapRedis) with the same API
// either way.
type Cache struct {
	rdb *redis.Client
	ttl time.Duration

	mu  sync.Mutex
	mem map[string][]byte
}

// New builds an in-process-only cache.
func New() *Cache {
	return &Cache{mem: make(map[string][]byte)}
}

// WrapRedis builds a cache that also mirrors entries to rdb with the
// given TTL (zero means no expiry).
func WrapRedis(rdb *redis.Client, ttl time.Duration) *Cache {
	return &Cache{rdb: rdb, ttl: ttl, mem: make(map[string][]byte)}
}

// Key derives a stable cache key from a subquery's raw text and a
// fingerprint of the outer row driving it (callers typically join the
// outer row's sorted key=value pairs).
func Key(sqlText, outerFingerprint string) string {
	h := sha1.New()
	h.Write([]byte(sqlText))
	h.Write([]byte{0})
	h.Write([]byte(outerFingerprint))
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns a previously cached result set, checking the in-process map
// first and falling back to Redis when wired.
func (c *Cache) Get(ctx context.Context, key string) (columns []string, rows [][]string, ok bool) {
	c.mu.Lock()
	data, hit := c.mem[key]
	c.mu.Unlock()
	if hit {
		cols, rws, err := wire.Decode(data)
		if err == nil {
			return cols, rws, true
		}
	}
	if c.rdb == nil {
		return nil, nil, false
	}
	data, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return nil, nil, false
	}
	cols, rws, err := wire.Decode(data)
	if err != nil {
		return nil, nil, false
	}
	c.mu.Lock()
	c.mem[key] = data
	c.mu.Unlock()
	return cols, rws, true
}

// Set stores a result set under key, in-process and (if wired) in Redis.
func (c *Cache) Set(ctx context.Context, key string, columns []string, rows [][]string) {
	data := wire.Encode(columns, rows)
	c.mu.Lock()
	c.mem[key] = data
	c.mu.Unlock()
	if c.rdb != nil {
		c.rdb.Set(ctx, key, data, c.ttl)
	}
}

// Invalidate drops key from both tiers, used after a write statement that
// may have changed the rows a cached subquery would see.
func (c *Cache) Invalidate(ctx context.Context, key string) {
	c.mu.Lock()
	delete(c.mem, key)
	c.mu.Unlock()
	if c.rdb != nil {
		c.rdb.Del(ctx, key)
	}
}
