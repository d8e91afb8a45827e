package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"infinite-pages/internal/interfaces"
	"infinite-pages/internal/models"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Compile-time check to ensure redisResponseCache implements ResponseCache
var _ interfaces.ResponseCache = (*redisResponseCache)(nil)

type cachedResponse struct {
	Text  string           `json:"text"`
	Usage models.UsageInfo `json:"usage"`
}

type redisResponseCache struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisResponseCache creates a Redis-backed completion cache. Keys are
// prompt hashes computed by the caller; only non-personalized prompts are
// ever cached.
func NewRedisResponseCache(client *redis.Client, logger *zap.Logger) interfaces.ResponseCache {
	return &redisResponseCache{
		client: client,
		logger: logger.Named("RedisResponseCache"),
	}
}

func responseKey(key string) string {
	return fmt.Sprintf("ai_response:%s", key)
}

// Get returns the cached completion for the key, if any. Cache failures are
// reported as misses plus an error so generation can proceed regardless.
func (c *redisResponseCache) Get(ctx context.Context, key string) (string, models.UsageInfo, bool, error) {
	raw, err := c.client.Get(ctx, responseKey(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", models.UsageInfo{}, false, nil
		}
		c.logger.Warn("Response cache read failed", zap.Error(err), zap.String("key", key))
		return "", models.UsageInfo{}, false, fmt.Errorf("response cache read failed: %w", err)
	}

	var cached cachedResponse
	if err := json.Unmarshal([]byte(raw), &cached); err != nil {
		c.logger.Warn("Corrupt response cache entry, dropping", zap.Error(err), zap.String("key", key))
		c.client.Del(ctx, responseKey(key))
		return "", models.UsageInfo{}, false, nil
	}
	c.logger.Debug("Response cache hit", zap.String("key", key))
	return cached.Text, cached.Usage, true, nil
}

// Set stores a completion under the key with the given TTL.
func (c *redisResponseCache) Set(ctx context.Context, key string, text string, usage models.UsageInfo, ttl time.Duration) error {
	raw, err := json.Marshal(cachedResponse{Text: text, Usage: usage})
	if err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}
	if err := c.client.Set(ctx, responseKey(key), raw, ttl).Err(); err != nil {
		c.logger.Warn("Response cache write failed", zap.Error(err), zap.String("key", key))
		return fmt.Errorf("response cache write failed: %w", err)
	}
	return nil
}
