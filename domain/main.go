package domain

import (
	"github.com/carbiooai/carbioo-api/config"
	"github.com/carbiooai/carbioo-api/domain/contact"
	"github.com/carbiooai/carbioo-api/domain/investor"
	"github.com/carbiooai/carbioo-api/domain/monitoring"
	"github.com/carbiooai/carbioo-api/domain/waitlist"
	"github.com/carbiooai/carbioo-api/internal/notifications"
	"github.com/carbiooai/carbioo-api/pkg/factory"
)

func SetupCoreDomain(appConfig *config.ApplicationConfig) error {
	notifier, err := NewNotifier(appConfig)
	if err != nil {
		return err
	}

	limiters := factory.NewFactoryContainer(appConfig.Logger, &factory.RateLimitConfig{
		Requests: appConfig.Waitlist.RateLimitRequests,
		Window:   appConfig.Waitlist.RateLimitWindow,
	}, appConfig.Cache)

	waitlistFactory := waitlist.NewWaitlistServiceFactory(
		appConfig.DB,
		appConfig.Logger,
		notifier,
		waitlist.ControllerConfig{
			TokenTTL:    appConfig.Waitlist.VerificationTokenTTL,
			RedirectURL: appConfig.Waitlist.VerificationRedirectURL(),
		},
		limiters.WaitlistLimiterFactory.CreateRateLimiter(),
	)

	// contact and investor share one form budget per client.
	formLimiter := limiters.FormLimiterFactory.CreateRateLimiter()

	health := monitoring.NewHealthControllerFactory(monitoring.Dependencies{
		DB:      appConfig.DB,
		Logger:  appConfig.Logger,
		Cache:   appConfig.Cache,
		Limiter: limiters.HealthLimiterFactory.CreateRateLimiter(),
	})

	appConfig.RouterService.MountController(health.CreateController())
	appConfig.RouterService.MountController(waitlistFactory.CreateController())
	appConfig.RouterService.MountController(contact.NewContactController(appConfig.DB, appConfig.Logger, notifier, formLimiter))
	appConfig.RouterService.MountController(investor.NewInvestorController(appConfig.DB, appConfig.Logger, notifier, formLimiter))

	return nil
}

func NewNotifier(appConfig *config.ApplicationConfig) (notifications.Sender, error) {
	return notifications.NewEmailSender(appConfig.Mailer, notifications.Config{
		FrontendURL: appConfig.Waitlist.FrontendURL,
		AdminEmail:  appConfig.Mail.AdminEmail,
		TokenTTL:    appConfig.Waitlist.VerificationTokenTTL,
	})
}
