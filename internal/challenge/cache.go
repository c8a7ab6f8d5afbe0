package challenge

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const defaultCacheTTL = 30 * time.Minute

// Cache is a Redis read-through cache for challenge rows. Challenges are
// immutable, so a stale hit can only ever equal the stored row.
type Cache struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewCache creates a challenge cache. ttl <= 0 uses the default.
func NewCache(redisClient *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &Cache{redis: redisClient, ttl: ttl}
}

func (c *Cache) key(id uuid.UUID) string {
	return fmt.Sprintf("challenge:%s", id.String())
}

// Get returns the cached challenge or nil on a miss.
func (c *Cache) Get(ctx context.Context, id uuid.UUID) (*Challenge, error) {
	data, err := c.redis.Get(ctx, c.key(id)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get cached challenge: %w", err)
	}

	var ch Challenge
	if err := json.Unmarshal(data, &ch); err != nil {
		return nil, fmt.Errorf("unmarshal cached challenge: %w", err)
	}
	return &ch, nil
}

// Set stores the challenge under its id.
func (c *Cache) Set(ctx context.Context, ch Challenge) error {
	data, err := json.Marshal(ch)
	if err != nil {
		return fmt.Errorf("marshal challenge: %w", err)
	}
	return c.redis.Set(ctx, c.key(ch.ID), data, c.ttl).Err()
}
