package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/carbiooai/carbioo-api/config/router"
	"github.com/ilyakaznacheev/cleanenv"
)

// HTTPConfig is the public HTTP surface: port, global rate limit and the
// browser-facing middleware.
type HTTPConfig struct {
	Port              string        `env:"APP_PORT" env-default:"8080"`
	GinMode           string        `env:"GIN_MODE"`
	RequestTimeout    time.Duration `env:"REQUEST_TIMEOUT" env-default:"30s"`
	RateLimitRequests int           `env:"RATE_LIMIT_REQUESTS" env-default:"100"`
	RateLimitWindow   time.Duration `env:"RATE_LIMIT_WINDOW" env-default:"1m"`
	TrustedProxies    []string      `env:"TRUSTED_PROXIES" env-separator:","`
	AllowedOrigins    []string      `env:"CORS_ALLOWED_ORIGIN" env-separator:","`
	MaxBodyBytes      int64         `env:"MAX_REQUEST_BODY_BYTES" env-default:"1048576"`
	MetricsEnabled    bool          `env:"METRICS_ENABLED" env-default:"true"`
	// HSTSEnabled is a string so that unset can mean "on in production".
	HSTSEnabled           string        `env:"HSTS_ENABLED"`
	HSTSMaxAge            time.Duration `env:"HSTS_MAX_AGE" env-default:"8760h"`
	HSTSIncludeSubdomains bool          `env:"HSTS_INCLUDE_SUBDOMAINS" env-default:"true"`
}

func LoadHTTPConfig() (*HTTPConfig, error) {
	var cfg HTTPConfig
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read http config: %w", err)
	}

	cfg.TrustedProxies = trimList(cfg.TrustedProxies)
	cfg.AllowedOrigins = trimList(cfg.AllowedOrigins)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *HTTPConfig) Validate() error {
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive, got %s", c.RequestTimeout)
	}
	if c.RateLimitRequests <= 0 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be positive, got %d", c.RateLimitRequests)
	}
	if c.RateLimitWindow <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be positive, got %s", c.RateLimitWindow)
	}
	if c.MaxBodyBytes <= 0 {
		return fmt.Errorf("MAX_REQUEST_BODY_BYTES must be positive, got %d", c.MaxBodyBytes)
	}
	if _, err := c.hstsEnabled(EnvDevelopment); err != nil {
		return err
	}
	return nil
}

func (c *HTTPConfig) hstsEnabled(env Environment) (bool, error) {
	raw := strings.TrimSpace(c.HSTSEnabled)
	if raw == "" {
		return env.IsProduction(), nil
	}
	enabled, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid HSTS_ENABLED %q: %w", c.HSTSEnabled, err)
	}
	return enabled, nil
}

// RouterConfig maps the env settings onto the router. tracingService is
// empty when tracing is off.
func (c *HTTPConfig) RouterConfig(env Environment, tracingService string) *router.RouterConfig {
	hsts, _ := c.hstsEnabled(env)

	return &router.RouterConfig{
		RateLimitRequests:  c.RateLimitRequests,
		RateLimitWindow:    c.RateLimitWindow,
		RequestTimeout:     c.RequestTimeout,
		Port:               c.Port,
		GinMode:            c.GinMode,
		TracingServiceName: tracingService,
		TrustedProxies:     c.TrustedProxies,
		AllowedOrigins:     c.AllowedOrigins,
		MaxBodyBytes:       c.MaxBodyBytes,
		DisableMetrics:     !c.MetricsEnabled,
		HSTS: router.HSTSConfig{
			Enabled:           hsts,
			MaxAge:            c.HSTSMaxAge,
			IncludeSubdomains: c.HSTSIncludeSubdomains,
		},
	}
}

func trimList(values []string) []string {
	out := values[:0]
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
