package rates

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/openpos/totals-api/internal/tax"
)

// Cache stores rate tables as JSON payloads in Redis keyed per store.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache constructs a rate cache helper.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

func cacheKey(storeID string) string {
	return "tax:rates:" + storeID
}

// Get reads a cached rate table. It reports whether the key existed.
func (c *Cache) Get(ctx context.Context, storeID string) ([]tax.Rate, bool, error) {
	if c == nil || c.client == nil || storeID == "" {
		return nil, false, nil
	}
	data, err := c.client.Get(ctx, cacheKey(storeID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, false, nil
		}
		return nil, false, err
	}
	var list []tax.Rate
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, false, err
	}
	return list, true, nil
}

// Set serialises a rate table and stores it with the configured TTL.
func (c *Cache) Set(ctx context.Context, storeID string, list []tax.Rate) error {
	if c == nil || c.client == nil || storeID == "" {
		return nil
	}
	data, err := json.Marshal(list)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, cacheKey(storeID), data, c.ttl).Err()
}

// Invalidate drops the cached table for a store, forcing the next lookup
// through the upstream client.
func (c *Cache) Invalidate(ctx context.Context, storeID string) error {
	if c == nil || c.client == nil || storeID == "" {
		return nil
	}
	return c.client.Del(ctx, cacheKey(storeID)).Err()
}
