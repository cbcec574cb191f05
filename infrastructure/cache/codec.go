package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"storyfront-backend/pkg/observability"

	"go.uber.org/zap"
)

// TTLPolicy assigns a time-to-live per entity class. Single content items
// turn over faster than aggregate views because a stale list is cheaper
// than a stale article body.
type TTLPolicy struct {
	// Item covers a single blog post or product projection.
	Item time.Duration
	// List covers aggregate views: latest, related, search results,
	// paginated listings, the home strip.
	List time.Duration
	// User covers cached user identity records.
	User time.Duration
}

// DefaultTTLPolicy returns the production TTL tiers.
func DefaultTTLPolicy() TTLPolicy {
	return TTLPolicy{
		Item: 5 * time.Minute,
		List: 60 * time.Minute,
		User: 60 * time.Minute,
	}
}

// Codec serializes domain projections into the cache store and owns the
// TTL policy. Every method is best-effort: a backend failure is counted,
// logged at debug, and reported to the caller as a miss (Get) or a no-op
// (Put), never as a request failure.
type Codec struct {
	store   Store
	ttl     TTLPolicy
	logger  *zap.Logger
	metrics *observability.Metrics
}

// NewCodec creates a cache codec over the given store.
func NewCodec(store Store, ttl TTLPolicy, logger *zap.Logger, metrics *observability.Metrics) *Codec {
	return &Codec{store: store, ttl: ttl, logger: logger, metrics: metrics}
}

// TTL exposes the policy so callers pick the tier for the entity they cache.
func (c *Codec) TTL() TTLPolicy { return c.ttl }

// Get loads and decodes the value under key into dest. It returns true only
// on a clean hit; misses, decode failures and backend errors all read as
// "absent" so the caller falls through to the document store.
func (c *Codec) Get(ctx context.Context, key string, dest any) bool {
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			c.metrics.CacheError("get")
			c.logger.Debug("cache get failed", zap.String("key", key), zap.Error(err))
		}
		c.metrics.CacheMiss(keyNamespace(key))
		return false
	}
	if err := json.Unmarshal(data, dest); err != nil {
		// A payload we can no longer decode is treated as absent and
		// dropped so the next write repopulates it cleanly.
		c.logger.Warn("cache payload undecodable, evicting", zap.String("key", key), zap.Error(err))
		_ = c.store.Delete(ctx, key)
		c.metrics.CacheMiss(keyNamespace(key))
		return false
	}
	c.metrics.CacheHit(keyNamespace(key))
	return true
}

// Put encodes v and stores it under key with the given TTL, overwriting any
// existing entry. Failures are swallowed.
func (c *Codec) Put(ctx context.Context, key string, v any, ttl time.Duration) {
	data, err := json.Marshal(v)
	if err != nil {
		c.logger.Warn("cache marshal failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.store.Set(ctx, key, data, ttl); err != nil {
		c.metrics.CacheError("set")
		c.logger.Debug("cache set failed", zap.String("key", key), zap.Error(err))
	}
}

func keyNamespace(key string) string {
	if i := strings.IndexByte(key, ':'); i > 0 {
		return key[:i]
	}
	return key
}
