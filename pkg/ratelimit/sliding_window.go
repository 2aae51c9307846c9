package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// RedisSlidingWindowRateLimiter keeps one sorted set of hit timestamps per
// key in Redis, so every instance shares the same budget.
type RedisSlidingWindowRateLimiter struct {
	client    *redis.Client
	requests  int
	window    time.Duration
	keyPrefix string
	logger    Logger
	now       func() time.Time
}

// slidingWindowScript trims hits older than the window, then records the
// current hit only if the budget allows it. Scores are unix milliseconds.
var slidingWindowScript = redis.NewScript(`
	local key = KEYS[1]
	local now = tonumber(ARGV[1])
	local window = tonumber(ARGV[2])
	local limit = tonumber(ARGV[3])

	redis.call('ZREMRANGEBYSCORE', key, 0, now - window)
	if redis.call('ZCARD', key) >= limit then
		return 1
	end

	redis.call('ZADD', key, now, ARGV[4])
	redis.call('PEXPIRE', key, window * 2)
	return 0
`)

func NewRedisSlidingWindowRateLimiter(client *redis.Client, requests int, window time.Duration, keyPrefix string, logger Logger) *RedisSlidingWindowRateLimiter {
	if keyPrefix == "" {
		keyPrefix = "ratelimit:sliding:"
	}

	return &RedisSlidingWindowRateLimiter{
		client:    client,
		requests:  requests,
		window:    window,
		keyPrefix: keyPrefix,
		logger:    logger,
		now:       time.Now,
	}
}

func (r *RedisSlidingWindowRateLimiter) GetLimitDetails() (int, time.Duration) {
	return r.requests, r.window
}

func (r *RedisSlidingWindowRateLimiter) IsLimited(key string) (bool, error) {
	fullKey := r.redisKey(key)

	limited, err := slidingWindowScript.Run(
		context.Background(),
		r.client,
		[]string{fullKey},
		r.now().UnixMilli(),
		r.window.Milliseconds(),
		r.requests,
		uuid.NewString(),
	).Int64()
	if err != nil {
		if r.logger != nil {
			r.logger.Error("Redis sliding window script execution failed", "key", fullKey, "error", err)
		}
		// Limiting is a security control; the caller decides whether to fail open.
		return false, fmt.Errorf("rate limiter Redis error: %w", err)
	}

	return limited == 1, nil
}

func (r *RedisSlidingWindowRateLimiter) redisKey(key string) string {
	key = normalizeKey(key)
	if strings.HasPrefix(key, r.keyPrefix) {
		return key
	}
	return r.keyPrefix + key
}

// Close is a no-op; the Redis client belongs to the application cache.
func (r *RedisSlidingWindowRateLimiter) Close() error {
	return nil
}
