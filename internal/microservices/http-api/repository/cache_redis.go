package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"comichub/internal/metrics"

	"github.com/redis/go-redis/v9"
)

// Cache wraps the Redis features used outside history: JSON caching,
// first-seen markers and daily counters. A nil client disables every method.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// Enabled reports whether a Redis client is configured.
func (c *Cache) Enabled() bool {
	return c != nil && c.client != nil
}

// GetJSON decodes key into dst. found is false on a miss or when disabled.
func (c *Cache) GetJSON(ctx context.Context, name, key string, dst any) (bool, error) {
	if !c.Enabled() {
		return false, nil
	}
	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		metrics.ObserveCache(name, "miss")
		return false, nil
	}
	if err != nil {
		metrics.ObserveCache(name, "error")
		return false, fmt.Errorf("cache get %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		metrics.ObserveCache(name, "error")
		return false, fmt.Errorf("cache decode %s: %w", key, err)
	}
	metrics.ObserveCache(name, "hit")
	return true, nil
}

// SetJSON stores v under key for the cache TTL.
func (c *Cache) SetJSON(ctx context.Context, key string, v any) error {
	if !c.Enabled() {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if err := c.client.Set(ctx, key, b, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set %s: %w", key, err)
	}
	return nil
}

func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	if !c.Enabled() || len(keys) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("cache delete: %w", err)
	}
	return nil
}

// FirstSeen marks key for window and reports whether it was unmarked before.
// Without Redis every call is a first sighting.
func (c *Cache) FirstSeen(ctx context.Context, key string, window time.Duration) (bool, error) {
	if !c.Enabled() {
		return true, nil
	}
	ok, err := c.client.SetNX(ctx, key, 1, window).Result()
	if err != nil {
		return true, fmt.Errorf("mark %s: %w", key, err)
	}
	return ok, nil
}

// IncrUntil increments a counter that expires at expireAt and returns the new value.
func (c *Cache) IncrUntil(ctx context.Context, key string, expireAt time.Time) (int64, error) {
	if !c.Enabled() {
		return 0, ErrStoreDisabled
	}
	n, err := c.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("incr %s: %w", key, err)
	}
	if n == 1 {
		if err := c.client.ExpireAt(ctx, key, expireAt).Err(); err != nil {
			return n, fmt.Errorf("expire %s: %w", key, err)
		}
	}
	return n, nil
}

// Cache keys.
const CatalogEntriesKey = "catalog:entries"

func FollowersKey(slug string) string {
	return "stats:followers:" + slug
}

func ViewSeenKey(viewer string, chapterID int64) string {
	return fmt.Sprintf("views:seen:%s:%d", viewer, chapterID)
}

func ResetAttemptsKey(email, day string) string {
	return fmt.Sprintf("reset:attempts:%s:%s", email, day)
}
