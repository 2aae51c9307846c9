package router

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/carbiooai/carbioo-api/internal/log"
	apperrors "github.com/carbiooai/carbioo-api/pkg/errors"
	"github.com/carbiooai/carbioo-api/pkg/ratelimit"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

const (
	DefaultTimeoutDuration = 30 * time.Second
	DefaultPort            = "8080"
	DefaultMaxBodyBytes    = int64(1 << 20)
	DefaultHSTSMaxAge      = 365 * 24 * time.Hour
)

// RouterConfig carries every HTTP-layer setting. The config package fills it
// from the environment; zero values fall back to the defaults above.
type RouterConfig struct {
	RateLimitRequests int
	RateLimitWindow   time.Duration
	RequestTimeout    time.Duration

	Port    string
	GinMode string
	// TracingServiceName turns on otelgin spans under that name.
	TracingServiceName string
	// TrustedProxies are CIDRs allowed to set X-Forwarded-For; "*" trusts all.
	// Empty means ClientIP is always the socket peer.
	TrustedProxies []string
	// AllowedOrigins lists CORS origins; "*" echoes any origin.
	AllowedOrigins []string
	MaxBodyBytes   int64
	DisableMetrics bool
	HSTS           HSTSConfig
}

type HSTSConfig struct {
	Enabled           bool
	MaxAge            time.Duration
	IncludeSubdomains bool
}

func (c RouterConfig) withDefaults() RouterConfig {
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = DefaultTimeoutDuration
	}
	if c.Port == "" {
		c.Port = DefaultPort
	}
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if c.HSTS.MaxAge <= 0 {
		c.HSTS.MaxAge = DefaultHSTSMaxAge
	}
	return c
}

type Cache interface {
	Ping(ctx context.Context) error
}

type RedisClientProvider interface {
	GetClient() *redis.Client
}

type RouterService struct {
	engine      *gin.Engine
	server      *http.Server
	logger      *log.Logger
	config      RouterConfig
	rateLimiter ratelimit.RateLimiter
	redisClient *redis.Client
	registry    *prometheus.Registry

	handlerToControllerMap map[string]*RESTController
	rateLimitOverrides     map[string]ratelimit.RateLimiter
}

func CreateRouterService(logger *log.Logger, cache Cache, routerConfig *RouterConfig) *RouterService {
	cfg := RouterConfig{}
	if routerConfig != nil {
		cfg = *routerConfig
	}
	cfg = cfg.withDefaults()

	if cfg.GinMode != "" {
		logger.Info("Setting Gin mode", "mode", cfg.GinMode)
		gin.SetMode(cfg.GinMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())

	if cfg.TracingServiceName != "" {
		engine.Use(otelgin.Middleware(cfg.TracingServiceName))
		logger.Info("Tracing middleware enabled", "service", cfg.TracingServiceName)
	}

	configureTrustedProxies(engine, logger, cfg.TrustedProxies)

	rs := &RouterService{
		engine:                 engine,
		logger:                 logger,
		config:                 cfg,
		redisClient:            redisClientFrom(cache),
		handlerToControllerMap: make(map[string]*RESTController),
		rateLimitOverrides:     make(map[string]ratelimit.RateLimiter),
	}

	rs.initRateLimiting()
	rs.mountMetrics()

	if len(cfg.AllowedOrigins) == 0 {
		logger.Warn("CORS_ALLOWED_ORIGIN not set; cross-origin requests get no CORS headers")
	}

	engine.Use(
		rs.securityHeadersMiddleware(),
		rs.maxBodySizeMiddleware(),
		rs.corsMiddleware(),
		rs.rateLimitMiddleware(),
		rs.timeoutMiddleware(),
		rs.correlationIDMiddleware(),
		rs.loggerInjectionMiddleware(),
		rs.requestLoggingMiddleware(),
	)

	engine.HandleMethodNotAllowed = true
	engine.RedirectTrailingSlash = true
	engine.NoRoute(rs.fallbackHandler(http.StatusNotFound, "Route not found"))
	engine.NoMethod(rs.fallbackHandler(http.StatusMethodNotAllowed, "Method not allowed"))

	// Handlers run on the request goroutine; the server timeouts bound them.
	rs.server = &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.RequestTimeout,
		WriteTimeout:      cfg.RequestTimeout,
		IdleTimeout:       60 * time.Second,
	}

	logger.Info("Router service initialized", "addr", rs.server.Addr)
	return rs
}

func configureTrustedProxies(engine *gin.Engine, logger *log.Logger, proxies []string) {
	trusted := expandTrustedProxies(proxies)
	if err := engine.SetTrustedProxies(trusted); err != nil {
		logger.Error("Invalid TRUSTED_PROXIES; disabling trusted proxies", "error", err)
		_ = engine.SetTrustedProxies(nil)
		return
	}
	if trusted == nil {
		logger.Info("Trusted proxies disabled; client IP is the socket peer")
	}
}

// expandTrustedProxies drops blanks and turns "*" into every address.
func expandTrustedProxies(proxies []string) []string {
	var trusted []string
	for _, proxy := range proxies {
		switch proxy = strings.TrimSpace(proxy); proxy {
		case "":
		case "*":
			return []string{"0.0.0.0/0", "::/0"}
		default:
			trusted = append(trusted, proxy)
		}
	}
	return trusted
}

func redisClientFrom(cache Cache) *redis.Client {
	if provider, ok := cache.(RedisClientProvider); ok {
		return provider.GetClient()
	}
	return nil
}

// initRateLimiting builds the router-wide limiter. An unreachable Redis
// degrades to in-memory counters instead of failing startup.
func (routerService *RouterService) initRateLimiting() {
	client := routerService.redisClient
	if client != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		err := client.Ping(ctx).Err()
		cancel()
		if err != nil {
			routerService.logger.Warn("Redis unreachable for rate limiting; using in-memory limiter", "error", err)
			client = nil
		}
	}

	routerService.rateLimiter = ratelimit.NewRateLimiter(&ratelimit.RateLimitConfig{
		Requests: routerService.config.RateLimitRequests,
		Window:   routerService.config.RateLimitWindow,
		Redis:    client,
		Logger:   routerService.logger,
	})

	requests, window := routerService.rateLimiter.GetLimitDetails()
	routerService.logger.Info("Default rate limiter ready",
		"backend", fmt.Sprintf("%T", routerService.rateLimiter),
		"requests", requests,
		"window", window,
	)
}

func (routerService *RouterService) fallbackHandler(status int, message string) gin.HandlerFunc {
	return func(c *gin.Context) {
		routerService.logger.WithCorrelationID(c.Request.Context()).Warn(message,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
		)
		c.JSON(status, ErrorResult(status, message, nil).ToJSON())
	}
}

func (routerService *RouterService) GetEngine() *gin.Engine {
	return routerService.engine
}

func (routerService *RouterService) GetLogger(c *RequestContext) *log.Logger {
	return routerService.logger.WithCorrelationID(c.Request.Context())
}

func (routerService *RouterService) Cleanup() {
	if routerService.rateLimiter != nil {
		if err := routerService.rateLimiter.Close(); err != nil {
			routerService.logger.Error("Failed to close rate limiter", "error", err)
		}
	}
	routerService.logger.Info("Router service cleanup completed")
}

func (routerService *RouterService) MountController(controller *RESTController) {
	controller.prepare(routerService, controller)

	routerService.logger.Info("Controller mounted",
		"name", controller.name,
		"path", controller.mountPoint,
		"version", controller.version,
		"handlers", controller.handlerCount,
	)
}

func (routerService *RouterService) RunHTTPServer() error {
	routerService.logger.Info("Starting HTTP server", "addr", routerService.server.Addr)

	if err := routerService.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		routerService.logger.Error("Failed to start HTTP server", "error", err)
		return apperrors.NewInternalServerError("failed to start HTTP server", err)
	}

	return nil
}

func (routerService *RouterService) Shutdown(ctx context.Context) error {
	routerService.logger.Info("Shutting down HTTP server gracefully")
	return routerService.server.Shutdown(ctx)
}
