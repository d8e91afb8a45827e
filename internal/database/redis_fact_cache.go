package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"infinite-pages/internal/interfaces"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Compile-time check to ensure redisFactCache implements FactCache
var _ interfaces.FactCache = (*redisFactCache)(nil)

type redisFactCache struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisFactCache creates a Redis mirror for SFSL-encoded story facts.
// Postgres stays the source of truth; the mirror saves a query per
// generation call.
func NewRedisFactCache(client *redis.Client, logger *zap.Logger) interfaces.FactCache {
	return &redisFactCache{
		client: client,
		logger: logger.Named("RedisFactCache"),
	}
}

func factKey(storyID string) string {
	return fmt.Sprintf("story_facts:%s", storyID)
}

// GetFacts returns the encoded fact block for the story, if cached.
func (c *redisFactCache) GetFacts(ctx context.Context, storyID string) (string, bool, error) {
	encoded, err := c.client.Get(ctx, factKey(storyID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		c.logger.Warn("Fact cache read failed", zap.Error(err), zap.String("storyID", storyID))
		return "", false, fmt.Errorf("fact cache read failed: %w", err)
	}
	return encoded, true, nil
}

// SetFacts stores the encoded fact block with the given TTL.
func (c *redisFactCache) SetFacts(ctx context.Context, storyID string, encoded string, ttl time.Duration) error {
	if err := c.client.Set(ctx, factKey(storyID), encoded, ttl).Err(); err != nil {
		c.logger.Warn("Fact cache write failed", zap.Error(err), zap.String("storyID", storyID))
		return fmt.Errorf("fact cache write failed: %w", err)
	}
	return nil
}
