package prices

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/vmihailenco/msgpack/v5"
)

const keyPrefix = "allocga:prices:"

// RedisTableCache caches parsed price tables in Redis, keyed by source digest
type RedisTableCache struct {
	client *redis.Client
	ttl    time.Duration
}

type cachedTable struct {
	Days     []Day    `msgpack:"days"`
	Universe []string `msgpack:"universe"`
}

// NewRedisTableCache creates a Redis-backed table cache.
// If client is nil, returns nil (optional Redis support)
func NewRedisTableCache(client *redis.Client, ttl time.Duration) *RedisTableCache {
	if client == nil {
		return nil
	}

	if ttl == 0 {
		ttl = 24 * time.Hour
	}

	return &RedisTableCache{
		client: client,
		ttl:    ttl,
	}
}

// Get returns the cached table for key.
// Misses and errors both report false; the caller falls back to parsing.
func (c *RedisTableCache) Get(ctx context.Context, key string) (*Table, Universe, bool) {
	if c == nil || c.client == nil {
		return nil, nil, false
	}

	cacheCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	data, err := c.client.Get(cacheCtx, c.buildKey(key)).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Debug().
				Err(err).
				Str("key", key).
				Msg("Redis get error - treating as cache miss")
		}
		return nil, nil, false
	}

	var entry cachedTable
	if err := msgpack.Unmarshal(data, &entry); err != nil {
		log.Warn().
			Err(err).
			Str("key", key).
			Msg("Failed to decode cached price table")
		return nil, nil, false
	}

	return &Table{Days: entry.Days}, Universe(entry.Universe), true
}

// Set stores a table under key with the configured TTL
func (c *RedisTableCache) Set(ctx context.Context, key string, table *Table, universe Universe) error {
	if c == nil || c.client == nil {
		return fmt.Errorf("cache not initialized")
	}

	data, err := msgpack.Marshal(cachedTable{Days: table.Days, Universe: universe})
	if err != nil {
		return fmt.Errorf("failed to encode price table: %w", err)
	}

	cacheCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := c.client.Set(cacheCtx, c.buildKey(key), data, c.ttl).Err(); err != nil {
		log.Warn().
			Err(err).
			Str("key", key).
			Msg("Failed to cache price table")
		return err
	}

	log.Debug().
		Str("key", key).
		Int("days", table.Len()).
		Int("bytes", len(data)).
		Dur("ttl", c.ttl).
		Msg("Cached price table")

	return nil
}

// Delete removes a cached table
func (c *RedisTableCache) Delete(ctx context.Context, key string) error {
	if c == nil || c.client == nil {
		return fmt.Errorf("cache not initialized")
	}

	cacheCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := c.client.Del(cacheCtx, c.buildKey(key)).Err(); err != nil {
		return fmt.Errorf("failed to delete cache key: %w", err)
	}
	return nil
}

func (c *RedisTableCache) buildKey(key string) string {
	return keyPrefix + key
}
