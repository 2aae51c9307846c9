package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// FixedWindowRateLimiter allows up to requests hits per key in a window that
// starts on the key's first hit. The (requests+1)-th hit inside the window is
// limited until the window elapses, at which point the counter starts over.
type FixedWindowRateLimiter struct {
	requests int
	window   time.Duration
	now      func() time.Time

	mu      sync.Mutex
	windows map[string]*fixedWindow
	ops     uint64
}

type fixedWindow struct {
	count   int
	resetAt time.Time
}

type FixedWindowOption func(*FixedWindowRateLimiter)

// WithClock overrides time.Now, mainly for tests.
func WithClock(now func() time.Time) FixedWindowOption {
	return func(r *FixedWindowRateLimiter) {
		r.now = now
	}
}

func NewFixedWindowRateLimiter(requests int, window time.Duration, opts ...FixedWindowOption) *FixedWindowRateLimiter {
	r := &FixedWindowRateLimiter{
		requests: requests,
		window:   window,
		now:      time.Now,
		windows:  make(map[string]*fixedWindow),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

func (r *FixedWindowRateLimiter) GetLimitDetails() (int, time.Duration) {
	return r.requests, r.window
}

func (r *FixedWindowRateLimiter) IsLimited(key string) (bool, error) {
	key = normalizeKey(key)
	now := r.now()

	r.mu.Lock()
	defer r.mu.Unlock()

	w, ok := r.windows[key]
	if !ok || !now.Before(w.resetAt) {
		w = &fixedWindow{resetAt: now.Add(r.window)}
		r.windows[key] = w
	}

	r.ops++
	if r.ops%sweepEvery == 0 {
		for k, v := range r.windows {
			if !now.Before(v.resetAt) {
				delete(r.windows, k)
			}
		}
	}

	if w.count >= r.requests {
		return true, nil
	}

	w.count++
	return false, nil
}

// Reset forgets every counter.
func (r *FixedWindowRateLimiter) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.windows = make(map[string]*fixedWindow)
}

func (r *FixedWindowRateLimiter) Close() error {
	return nil
}

// RedisFixedWindowRateLimiter shares the fixed-window counter between
// processes. The expiry is only set on the hit that creates the key.
type RedisFixedWindowRateLimiter struct {
	client    *redis.Client
	requests  int
	window    time.Duration
	keyPrefix string
	logger    Logger
}

var fixedWindowScript = redis.NewScript(`
	local count = redis.call('INCR', KEYS[1])
	if count == 1 then
		redis.call('PEXPIRE', KEYS[1], ARGV[1])
	end
	return count
`)

func NewRedisFixedWindowRateLimiter(client *redis.Client, requests int, window time.Duration, keyPrefix string, logger Logger) *RedisFixedWindowRateLimiter {
	if keyPrefix == "" {
		keyPrefix = "ratelimit:fixed:"
	}

	return &RedisFixedWindowRateLimiter{
		client:    client,
		requests:  requests,
		window:    window,
		keyPrefix: keyPrefix,
		logger:    logger,
	}
}

func (r *RedisFixedWindowRateLimiter) GetLimitDetails() (int, time.Duration) {
	return r.requests, r.window
}

func (r *RedisFixedWindowRateLimiter) IsLimited(key string) (bool, error) {
	key = normalizeKey(key)
	fullKey := key
	if !strings.HasPrefix(key, r.keyPrefix) {
		fullKey = r.keyPrefix + key
	}

	count, err := fixedWindowScript.Run(context.Background(), r.client, []string{fullKey}, r.window.Milliseconds()).Int64()
	if err != nil {
		if r.logger != nil {
			r.logger.Error("Redis fixed window script execution failed", "key", fullKey, "error", err)
		}
		return false, fmt.Errorf("rate limiter Redis error: %w", err)
	}

	return count > int64(r.requests), nil
}

func (r *RedisFixedWindowRateLimiter) Close() error {
	return nil
}
