package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// SlotCache stores computed day availability per field and date.
type SlotCache interface {
	Get(ctx context.Context, fieldID string, date time.Time) (*DayAvailability, bool, error)
	Set(ctx context.Context, day *DayAvailability) error
	Invalidate(ctx context.Context, fieldID string, dates ...time.Time) error
	InvalidateField(ctx context.Context, fieldID string) error
}

type RedisSlotCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisSlotCache(client *redis.Client, ttl time.Duration) *RedisSlotCache {
	return &RedisSlotCache{client: client, ttl: ttl}
}

func slotKey(fieldID string, date time.Time) string {
	return fmt.Sprintf("slots:%s:%s", fieldID, date.Format(time.DateOnly))
}

func (c *RedisSlotCache) Get(ctx context.Context, fieldID string, date time.Time) (*DayAvailability, bool, error) {
	val, err := c.client.Get(ctx, slotKey(fieldID, date)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get slots from redis: %w", err)
	}

	var day DayAvailability
	if err := json.Unmarshal(val, &day); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal slots: %w", err)
	}
	return &day, true, nil
}

func (c *RedisSlotCache) Set(ctx context.Context, day *DayAvailability) error {
	data, err := json.Marshal(day)
	if err != nil {
		return fmt.Errorf("failed to marshal slots: %w", err)
	}
	if err := c.client.Set(ctx, slotKey(day.FieldID, day.Date), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set slots in redis: %w", err)
	}
	return nil
}

func (c *RedisSlotCache) Invalidate(ctx context.Context, fieldID string, dates ...time.Time) error {
	if len(dates) == 0 {
		return nil
	}
	keys := make([]string, len(dates))
	for i, d := range dates {
		keys[i] = slotKey(fieldID, d)
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to delete slots from redis: %w", err)
	}
	return nil
}

func (c *RedisSlotCache) InvalidateField(ctx context.Context, fieldID string) error {
	iter := c.client.Scan(ctx, 0, fmt.Sprintf("slots:%s:*", fieldID), 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan slot keys: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to delete slots from redis: %w", err)
	}
	return nil
}

// NopSlotCache never stores anything. It is used when redis is not configured.
type NopSlotCache struct{}

func (NopSlotCache) Get(context.Context, string, time.Time) (*DayAvailability, bool, error) {
	return nil, false, nil
}

func (NopSlotCache) Set(context.Context, *DayAvailability) error { return nil }

func (NopSlotCache) Invalidate(context.Context, string, ...time.Time) error { return nil }

func (NopSlotCache) InvalidateField(context.Context, string) error { return nil }
