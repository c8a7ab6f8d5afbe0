package rating

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	lockTTL        = 10 * time.Second
	lockRetryDelay = 50 * time.Millisecond
	lockRetries    = 40
)

// RedisLocker serializes rating updates per user. Two duels finalizing for
// the same user must not interleave their read-modify-write cycles.
type RedisLocker struct {
	redis *redis.Client
}

// NewRedisLocker creates a per-user rating lock backed by Redis.
func NewRedisLocker(redisClient *redis.Client) *RedisLocker {
	return &RedisLocker{redis: redisClient}
}

// Lock acquires the user's rating lock, retrying briefly under contention.
// Returns an unlock function.
func (l *RedisLocker) Lock(ctx context.Context, userID uuid.UUID) (func() error, error) {
	key := fmt.Sprintf("rating:lock:%s", userID.String())
	lockValue := uuid.New().String()

	for attempt := 0; attempt < lockRetries; attempt++ {
		acquired, err := l.redis.SetNX(ctx, key, lockValue, lockTTL).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire rating lock: %w", err)
		}
		if acquired {
			unlock := func() error {
				// Lua script ensures we only delete our own lock
				script := `
					if redis.call("get", KEYS[1]) == ARGV[1] then
						return redis.call("del", KEYS[1])
					else
						return 0
					end
				`
				return l.redis.Eval(ctx, script, []string{key}, lockValue).Err()
			}
			return unlock, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(lockRetryDelay):
		}
	}

	return nil, fmt.Errorf("rating lock for %s held too long", userID)
}
