// internal/resultcache/cache.go

// Package resultcache keeps recent evaluation results in Redis so repeated
// requests for the same unchanged loan document skip the full engine pass.
// The cache degrades silently: any Redis failure is logged and treated as a
// miss.
package resultcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"loan-conditions-engine/internal/common/logger"
	"loan-conditions-engine/internal/models"
)

const keyPrefix = "evaluation:"

// Cache stores evaluation results keyed by a digest of the loan document,
// so a changed document never serves a stale result.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

func New(client *redis.Client, ttl time.Duration, log logger.Logger) *Cache {
	return &Cache{client: client, ttl: ttl, logger: log}
}

// Key derives the cache key for a raw loan document.
func Key(document []byte) string {
	sum := sha256.Sum256(document)
	return keyPrefix + hex.EncodeToString(sum[:])
}

// Get returns the cached result for the key, or nil on miss or error.
func (c *Cache) Get(ctx context.Context, key string) *models.EvaluationResult {
	if c.client == nil {
		return nil
	}
	raw, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		c.logger.Warn("result cache read failed", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
		return nil
	}

	var result models.EvaluationResult
	if err := json.Unmarshal(raw, &result); err != nil {
		c.logger.Warn("result cache entry corrupt, dropping", map[string]interface{}{
			"key": key,
		})
		c.client.Del(ctx, key)
		return nil
	}
	return &result
}

// Set stores a result under the key for the configured TTL.
func (c *Cache) Set(ctx context.Context, key string, result *models.EvaluationResult) {
	if c.client == nil {
		return
	}
	raw, err := json.Marshal(result)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.logger.Warn("result cache write failed", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
	}
}

// InvalidateAll drops every cached evaluation, used after a catalog reload
// since any cached result may reflect the previous catalog generation.
func (c *Cache) InvalidateAll(ctx context.Context) {
	if c.client == nil {
		return
	}
	var cursor uint64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, keyPrefix+"*", 100).Result()
		if err != nil {
			c.logger.Warn("result cache invalidation failed", map[string]interface{}{
				"error": err.Error(),
			})
			return
		}
		if len(keys) > 0 {
			c.client.Del(ctx, keys...)
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	c.logger.Info("result cache invalidated", nil)
}

// Stats reports cache entry count for introspection.
func (c *Cache) Stats(ctx context.Context) (int, error) {
	if c.client == nil {
		return 0, fmt.Errorf("cache not configured")
	}
	var count int
	var cursor uint64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, keyPrefix+"*", 100).Result()
		if err != nil {
			return 0, err
		}
		count += len(keys)
		cursor = next
		if cursor == 0 {
			return count, nil
		}
	}
}
