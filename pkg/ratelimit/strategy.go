package ratelimit

import (
	"time"

	"github.com/go-redis/redis/v8"
)

type Logger interface {
	Error(msg string, args ...interface{})
}

// RateLimiter answers whether a client key has spent its budget. IsLimited
// counts the hit when it is allowed.
type RateLimiter interface {
	GetLimitDetails() (int, time.Duration)
	IsLimited(key string) (bool, error)
	Close() error
}

// Strategy selects the counting algorithm.
type Strategy string

const (
	// StrategyTokenBucket smooths bursts; used for the router-wide default.
	StrategyTokenBucket Strategy = "token_bucket"
	// StrategyFixedWindow counts hits per window; used for abuse budgets.
	StrategyFixedWindow Strategy = "fixed_window"
)

const (
	defaultRequests = 100
	defaultWindow   = time.Minute
	emptyKey        = "__empty__"
)

type RateLimitConfig struct {
	Requests int
	Window   time.Duration
	// Strategy defaults to StrategyTokenBucket.
	Strategy Strategy
	// KeyPrefix namespaces Redis keys. Each strategy has its own default.
	KeyPrefix string
	// Redis switches to the shared implementation of the strategy.
	Redis  *redis.Client
	Logger Logger
}

func (c RateLimitConfig) withDefaults() RateLimitConfig {
	if c.Requests <= 0 {
		c.Requests = defaultRequests
	}
	if c.Window <= 0 {
		c.Window = defaultWindow
	}
	if c.Strategy == "" {
		c.Strategy = StrategyTokenBucket
	}
	return c
}

// NewRateLimiter builds the limiter for config. Redis-backed variants are
// chosen whenever a client is supplied.
func NewRateLimiter(config *RateLimitConfig) RateLimiter {
	cfg := RateLimitConfig{}
	if config != nil {
		cfg = *config
	}
	cfg = cfg.withDefaults()

	switch cfg.Strategy {
	case StrategyFixedWindow:
		if cfg.Redis != nil {
			return NewRedisFixedWindowRateLimiter(cfg.Redis, cfg.Requests, cfg.Window, cfg.KeyPrefix, cfg.Logger)
		}
		return NewFixedWindowRateLimiter(cfg.Requests, cfg.Window)
	default:
		if cfg.Redis != nil {
			return NewRedisSlidingWindowRateLimiter(cfg.Redis, cfg.Requests, cfg.Window, cfg.KeyPrefix, cfg.Logger)
		}
		return NewTokenBucketRateLimiter(cfg.Requests, cfg.Window)
	}
}

func normalizeKey(key string) string {
	if key == "" {
		return emptyKey
	}
	return key
}
