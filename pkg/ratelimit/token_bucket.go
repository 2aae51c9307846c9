package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// sweepEvery is how many hits pass between sweeps of idle buckets.
const sweepEvery = 1024

// TokenBucketRateLimiter refills requests tokens per window for every key
// and allows bursts of up to requests hits. Counters live in process memory.
type TokenBucketRateLimiter struct {
	requests int
	window   time.Duration
	now      func() time.Time

	mu      sync.Mutex
	buckets map[string]*bucket
	hits    uint64
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type TokenBucketOption func(*TokenBucketRateLimiter)

func WithTokenBucketClock(now func() time.Time) TokenBucketOption {
	return func(r *TokenBucketRateLimiter) {
		r.now = now
	}
}

func NewTokenBucketRateLimiter(requests int, window time.Duration, opts ...TokenBucketOption) *TokenBucketRateLimiter {
	r := &TokenBucketRateLimiter{
		requests: requests,
		window:   window,
		now:      time.Now,
		buckets:  make(map[string]*bucket),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

func (r *TokenBucketRateLimiter) GetLimitDetails() (int, time.Duration) {
	return r.requests, r.window
}

func (r *TokenBucketRateLimiter) IsLimited(key string) (bool, error) {
	key = normalizeKey(key)
	now := r.now()

	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.buckets[key]
	if !ok {
		perSecond := float64(r.requests) / r.window.Seconds()
		b = &bucket{limiter: rate.NewLimiter(rate.Limit(perSecond), r.requests)}
		r.buckets[key] = b
	}
	b.lastSeen = now

	r.hits++
	if r.hits%sweepEvery == 0 {
		r.sweep(now)
	}

	return !b.limiter.AllowN(now, 1), nil
}

// sweep drops buckets idle for two windows; by then they are full again.
func (r *TokenBucketRateLimiter) sweep(now time.Time) {
	cutoff := now.Add(-2 * r.window)
	for key, b := range r.buckets {
		if b.lastSeen.Before(cutoff) {
			delete(r.buckets, key)
		}
	}
}

// Len reports how many keys currently hold a bucket.
func (r *TokenBucketRateLimiter) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.buckets)
}

func (r *TokenBucketRateLimiter) Close() error {
	return nil
}
