package factory

import (
	"context"
	"time"

	"github.com/carbiooai/carbioo-api/internal/log"
	"github.com/carbiooai/carbioo-api/pkg/ratelimit"
	"github.com/go-redis/redis/v8"
)

type Cache interface {
	Ping(ctx context.Context) error
}

type RedisClientProvider interface {
	GetClient() *redis.Client
}

type RateLimitConfig struct {
	Requests int
	Window   time.Duration
	Strategy ratelimit.Strategy
	// KeyPrefix namespaces Redis counters so separate budgets never collide.
	KeyPrefix string
	Logger    ratelimit.Logger
}

type RateLimiterFactory interface {
	CreateRateLimiter() ratelimit.RateLimiter
}

type DefaultRateLimiterFactory struct {
	config *ratelimit.RateLimitConfig
}

// NewDefaultRateLimiterFactory uses Redis when cache exposes a client and
// falls back to in-memory counters otherwise.
func NewDefaultRateLimiterFactory(cfg *RateLimitConfig, cache Cache) *DefaultRateLimiterFactory {
	var redisClient *redis.Client
	if cache != nil {
		if provider, ok := cache.(RedisClientProvider); ok {
			redisClient = provider.GetClient()
		}
	}

	return &DefaultRateLimiterFactory{
		config: &ratelimit.RateLimitConfig{
			Requests:  cfg.Requests,
			Window:    cfg.Window,
			Strategy:  cfg.Strategy,
			KeyPrefix: cfg.KeyPrefix,
			Redis:     redisClient,
			Logger:    cfg.Logger,
		},
	}
}

func (f *DefaultRateLimiterFactory) CreateRateLimiter() ratelimit.RateLimiter {
	return ratelimit.NewRateLimiter(f.config)
}

type FactoryContainer struct {
	// WaitlistLimiterFactory builds the fixed-window budget shared by
	// signup and resend-verification.
	WaitlistLimiterFactory RateLimiterFactory
	// FormLimiterFactory builds the budget for contact and investor forms.
	FormLimiterFactory RateLimiterFactory
	// HealthLimiterFactory builds the token bucket in front of /health.
	HealthLimiterFactory RateLimiterFactory
}

const healthRequestsPerMinute = 60

func NewFactoryContainer(logger *log.Logger, waitlistLimit *RateLimitConfig, cache Cache) *FactoryContainer {
	if waitlistLimit.Logger == nil {
		waitlistLimit.Logger = logger
	}
	waitlistLimit.Strategy = ratelimit.StrategyFixedWindow
	if waitlistLimit.KeyPrefix == "" {
		waitlistLimit.KeyPrefix = "ratelimit:waitlist:"
	}

	formLimit := &RateLimitConfig{
		Requests:  waitlistLimit.Requests * 2,
		Window:    waitlistLimit.Window,
		Strategy:  ratelimit.StrategyFixedWindow,
		KeyPrefix: "ratelimit:forms:",
		Logger:    waitlistLimit.Logger,
	}

	// Health checks are polled by the orchestrator, so they stay per instance.
	healthLimit := &RateLimitConfig{
		Requests: healthRequestsPerMinute,
		Window:   time.Minute,
		Strategy: ratelimit.StrategyTokenBucket,
		Logger:   waitlistLimit.Logger,
	}

	return &FactoryContainer{
		WaitlistLimiterFactory: NewDefaultRateLimiterFactory(waitlistLimit, cache),
		FormLimiterFactory:     NewDefaultRateLimiterFactory(formLimit, cache),
		HealthLimiterFactory:   NewDefaultRateLimiterFactory(healthLimit, nil),
	}
}
