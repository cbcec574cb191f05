package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// tokenBucketScript performs an atomic token-bucket check in Redis so all
// backend instances share one budget per key. It refills proportionally to
// elapsed time, deducts one token when available, and expires idle buckets.
//
// Keys: KEYS[1] = bucket key
// Args: ARGV[1] = max_tokens, ARGV[2] = refill_rate/sec, ARGV[3] = now (unix micros)
var tokenBucketScript = redis.NewScript(`
local key = KEYS[1]
local max_tokens = tonumber(ARGV[1])
local refill_rate = tonumber(ARGV[2])
local now = tonumber(ARGV[3])

local bucket = redis.call("HMGET", key, "tokens", "last_refill")
local tokens = tonumber(bucket[1])
local last_refill = tonumber(bucket[2])

if tokens == nil then
    tokens = max_tokens
    last_refill = now
end

local elapsed = (now - last_refill) / 1000000.0
if elapsed > 0 then
    tokens = math.min(max_tokens, tokens + elapsed * refill_rate)
end

local allowed = 0
if tokens >= 1 then
    tokens = tokens - 1
    allowed = 1
end

redis.call("HMSET", key, "tokens", tostring(tokens), "last_refill", tostring(now))
local ttl = math.ceil(max_tokens / refill_rate * 2)
if ttl < 60 then ttl = 60 end
redis.call("EXPIRE", key, ttl)

return allowed
`)

// RedisRateLimiter is a distributed token-bucket limiter sharing state
// across instances through Redis. It satisfies RateLimiter so the IP/user
// wrappers can swap it in transparently.
type RedisRateLimiter struct {
	client     *redis.Client
	prefix     string
	maxTokens  int
	refillRate float64
}

// NewRedisRateLimiter creates a limiter allowing requestsPerMinute per key.
func NewRedisRateLimiter(client *redis.Client, requestsPerMinute int) *RedisRateLimiter {
	return &RedisRateLimiter{
		client:     client,
		prefix:     "storyfront:rl:",
		maxTokens:  requestsPerMinute,
		refillRate: float64(requestsPerMinute) / 60.0,
	}
}

// Allow performs the atomic bucket check. A Redis failure fails open:
// losing rate limiting briefly is better than rejecting all traffic.
func (l *RedisRateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	now := time.Now().UnixMicro()
	result, err := tokenBucketScript.Run(ctx, l.client,
		[]string{l.prefix + key},
		l.maxTokens, fmt.Sprintf("%f", l.refillRate), now,
	).Int64()
	if err != nil {
		return true, nil
	}
	return result == 1, nil
}

// Reset clears the bucket for a key.
func (l *RedisRateLimiter) Reset(ctx context.Context, key string) error {
	return l.client.Del(ctx, l.prefix+key).Err()
}
