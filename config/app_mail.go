package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/carbiooai/carbioo-api/internal/log"
	"github.com/carbiooai/carbioo-api/pkg/circuitbreaker"
	"github.com/carbiooai/carbioo-api/pkg/mail"
	"github.com/carbiooai/carbioo-api/pkg/retry"
	"github.com/ilyakaznacheev/cleanenv"
)

const (
	MailDriverSMTP     = "smtp"
	MailDriverLog      = "log"
	MailDriverDisabled = "disabled"
)

// MailConfig targets Resend's SMTP relay by default; the API key is the SMTP password.
type MailConfig struct {
	Driver     string        `env:"MAIL_DRIVER" env-default:"smtp" env-description:"smtp, log or disabled"`
	Host       string        `env:"SMTP_HOST" env-default:"smtp.resend.com"`
	Port       int           `env:"SMTP_PORT" env-default:"587"`
	Username   string        `env:"SMTP_USERNAME" env-default:"resend"`
	APIKey     string        `env:"RESEND_API_KEY" env-description:"email provider credential"`
	From       string        `env:"MAIL_FROM" env-default:"Carbioo AI <hello@carbiooai.com>"`
	AdminEmail string        `env:"ADMIN_EMAIL" env-default:"hello@carbiooai.com" env-description:"recipient of contact form notifications"`
	Timeout    time.Duration `env:"MAIL_TIMEOUT" env-default:"10s"`
}

func LoadMailConfig() (*MailConfig, error) {
	var cfg MailConfig
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read mail config: %w", err)
	}
	cfg.Driver = strings.ToLower(strings.TrimSpace(cfg.Driver))
	return &cfg, nil
}

// NewMailer builds the configured driver. SMTP delivery is wrapped with
// retries and a circuit breaker. Without an API key the SMTP driver degrades
// to disabled, so every send reports mail.ErrMailDisabled.
func NewMailer(cfg *MailConfig, logger *log.Logger) (mail.Mailer, error) {
	switch cfg.Driver {
	case MailDriverDisabled:
		logger.Warn("Email delivery disabled (MAIL_DRIVER=disabled)")
		return mail.NewDisabledMailer(), nil
	case MailDriverLog:
		logger.Info("Email delivery set to log only (MAIL_DRIVER=log)")
		return mail.NewLogMailer(cfg.From, logger), nil
	case MailDriverSMTP, "":
	default:
		return nil, fmt.Errorf("unknown MAIL_DRIVER %q (allowed: smtp, log, disabled)", cfg.Driver)
	}

	if strings.TrimSpace(cfg.APIKey) == "" {
		logger.Warn("RESEND_API_KEY not set; email delivery disabled")
		return mail.NewDisabledMailer(), nil
	}

	smtpMailer, err := mail.NewSMTPMailer(mail.SMTPSettings{
		Host:     cfg.Host,
		Port:     cfg.Port,
		Username: cfg.Username,
		Password: cfg.APIKey,
		From:     cfg.From,
		Timeout:  cfg.Timeout,
		Logger:   logger,
	})
	if err != nil {
		return nil, err
	}

	breakerConfig := circuitbreaker.DefaultConfig()
	breakerConfig.OnStateChange = func(from, to circuitbreaker.CircuitState) {
		logger.Warn("Mail circuit breaker state changed", "from", from.String(), "to", to.String())
	}

	logger.Info("Email delivery via SMTP", "host", cfg.Host, "port", cfg.Port)

	return mail.NewResilientMailer(
		smtpMailer,
		retry.NewExponentialBackoff(retry.DefaultConfig()),
		circuitbreaker.NewCircuitBreaker(breakerConfig),
		logger,
	), nil
}
