package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// WaitlistConfig holds the verification funnel settings.
type WaitlistConfig struct {
	FrontendURL              string        `env:"FRONTEND_URL" env-default:"https://carbiooai.com" env-description:"public site root used in verification links and redirects"`
	VerificationTokenTTL     time.Duration `env:"VERIFICATION_TOKEN_TTL" env-default:"24h" env-description:"lifetime of a verification token"`
	RateLimitRequests        int           `env:"WAITLIST_RATE_LIMIT_REQUESTS" env-default:"5" env-description:"signup and resend attempts allowed per client and window"`
	RateLimitWindow          time.Duration `env:"WAITLIST_RATE_LIMIT_WINDOW" env-default:"1h" env-description:"fixed window for the signup and resend budget"`
	VerificationRedirectPath string        `env:"VERIFICATION_REDIRECT_PATH" env-default:"/" env-description:"frontend path the verify link redirects to"`
}

func LoadWaitlistConfig() (*WaitlistConfig, error) {
	var cfg WaitlistConfig
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read waitlist config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *WaitlistConfig) Validate() error {
	if _, err := url.ParseRequestURI(c.FrontendURL); err != nil {
		return fmt.Errorf("invalid FRONTEND_URL %q: %w", c.FrontendURL, err)
	}
	if c.VerificationTokenTTL <= 0 {
		return fmt.Errorf("VERIFICATION_TOKEN_TTL must be positive, got %s", c.VerificationTokenTTL)
	}
	if c.RateLimitRequests <= 0 {
		return fmt.Errorf("WAITLIST_RATE_LIMIT_REQUESTS must be positive, got %d", c.RateLimitRequests)
	}
	if c.RateLimitWindow <= 0 {
		return fmt.Errorf("WAITLIST_RATE_LIMIT_WINDOW must be positive, got %s", c.RateLimitWindow)
	}
	return nil
}

// VerificationRedirectURL is where GET /waitlist/verify sends the browser,
// before the outcome query parameter is added.
func (c *WaitlistConfig) VerificationRedirectURL() string {
	path := strings.TrimSpace(c.VerificationRedirectPath)
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return strings.TrimRight(c.FrontendURL, "/") + path
}
