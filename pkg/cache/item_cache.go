package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/ghuser/itemlocations/services/item/domain/models"
)

const (
	// ItemCacheTTL is the time-to-live for cached items.
	ItemCacheTTL = 24 * time.Hour

	itemCacheKeyPrefix = "item"
)

// ItemCache is the read model for GET /items/{id}.
// Each entry is a Redis hash with the item JSON and the time it was cached.
// Key format: "item:{itemID}"
type ItemCache struct {
	client *RedisClient
}

// NewItemCache creates a new ItemCache backed by the given RedisClient.
func NewItemCache(r *RedisClient) *ItemCache {
	return &ItemCache{client: r}
}

// Get retrieves a cached item by ID.
// Returns redis.Nil error when the key does not exist or has expired.
func (c *ItemCache) Get(ctx context.Context, itemID uuid.UUID) (*models.Item, error) {
	vals, err := c.client.Client().HGetAll(ctx, c.key(itemID)).Result()
	if err != nil {
		return nil, fmt.Errorf("cache get: %w", err)
	}
	payload, ok := vals["payload"]
	if !ok {
		return nil, redis.Nil // key not found
	}

	var item models.Item
	if err := json.Unmarshal([]byte(payload), &item); err != nil {
		return nil, fmt.Errorf("cache decode item: %w", err)
	}
	return &item, nil
}

// Set writes an item as a Redis hash with a 24-hour TTL.
// Uses a pipeline to set all fields and the TTL atomically.
func (c *ItemCache) Set(ctx context.Context, item *models.Item) error {
	payload, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("cache encode item: %w", err)
	}
	key := c.key(item.ID)
	pipe := c.client.Client().TxPipeline()
	pipe.HSet(ctx, key,
		"payload", payload,
		"cached_at", time.Now().UTC().Format(time.RFC3339Nano),
	)
	pipe.Expire(ctx, key, ItemCacheTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

// Delete removes a cached item.
func (c *ItemCache) Delete(ctx context.Context, itemID uuid.UUID) error {
	if err := c.client.Client().Del(ctx, c.key(itemID)).Err(); err != nil {
		return fmt.Errorf("cache delete: %w", err)
	}
	return nil
}

// key builds the Redis key: "item:{itemID}"
func (c *ItemCache) key(itemID uuid.UUID) string {
	return fmt.Sprintf("%s:%s", itemCacheKeyPrefix, itemID)
}
