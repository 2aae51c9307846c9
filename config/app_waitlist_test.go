package config

import (
	"testing"
	"time"

	"github.com/carbiooai/carbioo-api/internal/log"
	"github.com/carbiooai/carbioo-api/pkg/mail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadWaitlistConfig_Defaults(t *testing.T) {
	cfg, err := LoadWaitlistConfig()
	require.NoError(t, err)

	assert.Equal(t, "https://carbiooai.com", cfg.FrontendURL)
	assert.Equal(t, 24*time.Hour, cfg.VerificationTokenTTL)
	assert.Equal(t, 5, cfg.RateLimitRequests)
	assert.Equal(t, time.Hour, cfg.RateLimitWindow)
	assert.Equal(t, "https://carbiooai.com/", cfg.VerificationRedirectURL())
}

func TestLoadWaitlistConfig_FromEnv(t *testing.T) {
	t.Setenv("FRONTEND_URL", "http://localhost:3000/")
	t.Setenv("WAITLIST_RATE_LIMIT_REQUESTS", "7")
	t.Setenv("WAITLIST_RATE_LIMIT_WINDOW", "30m")
	t.Setenv("VERIFICATION_REDIRECT_PATH", "verify")

	cfg, err := LoadWaitlistConfig()
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.RateLimitRequests)
	assert.Equal(t, 30*time.Minute, cfg.RateLimitWindow)
	assert.Equal(t, "http://localhost:3000/verify", cfg.VerificationRedirectURL())
}

func TestLoadWaitlistConfig_RejectsNonPositiveBudget(t *testing.T) {
	t.Setenv("WAITLIST_RATE_LIMIT_REQUESTS", "0")

	_, err := LoadWaitlistConfig()
	assert.Error(t, err)
}

func TestNewMailer_Drivers(t *testing.T) {
	logger := log.NewDiscardLogger()

	t.Run("disabled", func(t *testing.T) {
		mailer, err := NewMailer(&MailConfig{Driver: MailDriverDisabled}, logger)
		require.NoError(t, err)
		assert.ErrorIs(t, mailer.Send(t.Context(), mail.Message{}), mail.ErrMailDisabled)
	})

	t.Run("smtp without api key degrades to disabled", func(t *testing.T) {
		mailer, err := NewMailer(&MailConfig{Driver: MailDriverSMTP, Host: "smtp.resend.com", Port: 587}, logger)
		require.NoError(t, err)
		assert.ErrorIs(t, mailer.Send(t.Context(), mail.Message{}), mail.ErrMailDisabled)
	})

	t.Run("smtp with api key", func(t *testing.T) {
		mailer, err := NewMailer(&MailConfig{
			Driver:   MailDriverSMTP,
			Host:     "smtp.resend.com",
			Port:     587,
			Username: "resend",
			APIKey:   "re_test",
			From:     "Carbioo AI <hello@carbiooai.com>",
		}, logger)
		require.NoError(t, err)
		assert.NotNil(t, mailer)
	})

	t.Run("unknown driver", func(t *testing.T) {
		_, err := NewMailer(&MailConfig{Driver: "pigeon"}, logger)
		assert.Error(t, err)
	})
}
