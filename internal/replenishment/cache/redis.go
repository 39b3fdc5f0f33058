package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tair/replenishment/pkg/logger"
)

const keyPrefix = "replenishment:suggestions:"

// SuggestionCache stores evaluated suggestion reports in redis for one
// evaluation cycle. A nil client turns every call into a miss.
type SuggestionCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSuggestionCache creates a new suggestion cache
func NewSuggestionCache(client *redis.Client, ttl time.Duration) *SuggestionCache {
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &SuggestionCache{client: client, ttl: ttl}
}

// Key hashes the parts of a query into a cache key
func Key(parts ...string) string {
	hash := sha256.Sum256([]byte(strings.Join(parts, ":")))
	return keyPrefix + hex.EncodeToString(hash[:])
}

// Get decodes the cached value for key into dst
func (c *SuggestionCache) Get(ctx context.Context, key string, dst any) bool {
	if c == nil || c.client == nil {
		return false
	}

	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.Warn(ctx).Err(err).Str("cache_key", key).Msg("Cache read failed")
		}
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		logger.Warn(ctx).Err(err).Str("cache_key", key).Msg("Cache entry undecodable")
		return false
	}

	logger.Debug(ctx).Str("cache_key", key).Msg("Cache hit")
	return true
}

// Set stores v under key with the configured TTL. Failures are logged only.
func (c *SuggestionCache) Set(ctx context.Context, key string, v any) {
	if c == nil || c.client == nil {
		return
	}

	raw, err := json.Marshal(v)
	if err != nil {
		logger.Warn(ctx).Err(err).Str("cache_key", key).Msg("Failed to encode cache entry")
		return
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		logger.Warn(ctx).Err(err).Str("cache_key", key).Msg("Failed to cache suggestions")
		return
	}

	logger.Debug(ctx).
		Str("cache_key", key).
		Dur("ttl", c.ttl).
		Int("size", len(raw)).
		Msg("Suggestions cached")
}

// Invalidate drops every cached suggestion report
func (c *SuggestionCache) Invalidate(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}

	iter := c.client.Scan(ctx, 0, keyPrefix+"*", 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scan suggestion cache: %w", err)
	}

	if len(keys) > 0 {
		if err := c.client.Del(ctx, keys...).Err(); err != nil {
			return fmt.Errorf("delete suggestion cache: %w", err)
		}
		logger.Info(ctx).Int("count", len(keys)).Msg("Suggestion cache invalidated")
	}
	return nil
}
