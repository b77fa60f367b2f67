package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"comichub/internal/history"

	"github.com/redis/go-redis/v9"
)

// ErrStoreDisabled is returned by Redis-backed stores when Redis is not configured.
var ErrStoreDisabled = errors.New("redis store disabled")

// DeviceHistoryRedisRepo keeps anonymous reading history in one hash per
// device: field = comic slug, value = JSON history item.
type DeviceHistoryRedisRepo struct {
	client *redis.Client
	ttl    time.Duration
}

func NewDeviceHistoryRedisRepo(client *redis.Client, ttl time.Duration) *DeviceHistoryRedisRepo {
	return &DeviceHistoryRedisRepo{client: client, ttl: ttl}
}

func deviceKey(deviceID string) string {
	return fmt.Sprintf("history:device:%s", deviceID)
}

func (r *DeviceHistoryRedisRepo) enabled() bool {
	return r != nil && r.client != nil
}

func (r *DeviceHistoryRedisRepo) List(ctx context.Context, deviceID string) ([]history.Item, error) {
	if !r.enabled() {
		return nil, ErrStoreDisabled
	}
	fields, err := r.client.HGetAll(ctx, deviceKey(deviceID)).Result()
	if err != nil {
		return nil, fmt.Errorf("load device history: %w", err)
	}

	items := make([]history.Item, 0, len(fields))
	for _, raw := range fields {
		var it history.Item
		// skip entries written by an incompatible client instead of failing the list
		if err := json.Unmarshal([]byte(raw), &it); err != nil {
			continue
		}
		items = append(items, it)
	}
	history.SortNewest(items)
	return items, nil
}

func (r *DeviceHistoryRedisRepo) Add(ctx context.Context, deviceID string, item history.Item) (history.Item, error) {
	if !r.enabled() {
		return history.Item{}, ErrStoreDisabled
	}
	key := deviceKey(deviceID)

	var existing []history.Item
	raw, err := r.client.HGet(ctx, key, item.Slug).Result()
	switch {
	case errors.Is(err, redis.Nil):
	case err != nil:
		return history.Item{}, fmt.Errorf("load device history item: %w", err)
	default:
		var it history.Item
		if json.Unmarshal([]byte(raw), &it) == nil {
			existing = []history.Item{it}
		}
	}
	merged := history.AddChapter(existing, item)[0]

	b, err := json.Marshal(merged)
	if err != nil {
		return history.Item{}, err
	}
	if err := r.client.HSet(ctx, key, item.Slug, b).Err(); err != nil {
		return history.Item{}, fmt.Errorf("save device history: %w", err)
	}
	// every write pushes the expiry of the whole device history forward
	if err := r.client.Expire(ctx, key, r.ttl).Err(); err != nil {
		return history.Item{}, fmt.Errorf("expire device history: %w", err)
	}
	return merged, nil
}

func (r *DeviceHistoryRedisRepo) Remove(ctx context.Context, deviceID, slug string) error {
	if !r.enabled() {
		return ErrStoreDisabled
	}
	n, err := r.client.HDel(ctx, deviceKey(deviceID), slug).Result()
	if err != nil {
		return fmt.Errorf("remove device history: %w", err)
	}
	if n == 0 {
		return ErrHistoryItemNotFound
	}
	return nil
}

func (r *DeviceHistoryRedisRepo) Clear(ctx context.Context, deviceID string) error {
	if !r.enabled() {
		return ErrStoreDisabled
	}
	if err := r.client.Del(ctx, deviceKey(deviceID)).Err(); err != nil {
		return fmt.Errorf("clear device history: %w", err)
	}
	return nil
}

// ErrHistoryItemNotFound is returned when removing a comic that is not in the history.
var ErrHistoryItemNotFound = errors.New("history item not found")
