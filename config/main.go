package config

import (
	"context"
	"time"

	"github.com/carbiooai/carbioo-api/config/router"
	"github.com/carbiooai/carbioo-api/internal/log"
	"github.com/carbiooai/carbioo-api/internal/models"
	"github.com/carbiooai/carbioo-api/pkg/mail"
	"github.com/carbiooai/carbioo-api/pkg/validation"
	"gorm.io/gorm"
)

type ApplicationConfig struct {
	DB              *gorm.DB
	RouterService   *router.RouterService
	Logger          *log.Logger
	Cache           Cache
	Env             Environment
	HTTP            *HTTPConfig
	Waitlist        *WaitlistConfig
	Mail            *MailConfig
	Mailer          mail.Mailer
	TracingShutdown func(context.Context) error
}

func (ac *ApplicationConfig) Cleanup() {
	if ac.TracingShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := ac.TracingShutdown(ctx); err != nil {
			ac.Logger.Error("Failed to shutdown tracer provider", "error", err)
		}
	}

	if ac.DB != nil {
		CloseDatabase(ac.DB, ac.Logger)
	}

	if ac.RouterService != nil {
		ac.RouterService.Cleanup()
	}

	if ac.Cache != nil {
		CloseCache(ac.Cache, ac.Logger)
	}

	ac.Logger.Info("Application cleanup completed")
}

func LoadApplicationConfiguration(logger *log.Logger, autoMigrate bool) (*ApplicationConfig, error) {
	InitializeEnvFile(logger)

	env := CurrentEnvironment()
	if autoMigrate {
		if err := ValidateAutoMigrateAllowed(env); err != nil {
			return nil, err
		}
	}

	if err := validation.RegisterWithGin(); err != nil {
		return nil, err
	}

	waitlistConfig, err := LoadWaitlistConfig()
	if err != nil {
		return nil, err
	}

	mailConfig, err := LoadMailConfig()
	if err != nil {
		return nil, err
	}

	mailer, err := NewMailer(mailConfig, logger)
	if err != nil {
		return nil, err
	}

	httpConfig, err := LoadHTTPConfig()
	if err != nil {
		return nil, err
	}

	cacheConfig, err := LoadCacheConfig()
	if err != nil {
		return nil, err
	}

	dbConfig, err := LoadDatabaseConfig()
	if err != nil {
		return nil, err
	}

	tracingConfig, err := LoadTracingConfig()
	if err != nil {
		return nil, err
	}

	tracingShutdown, err := SetupTracing(logger, tracingConfig, env)
	if err != nil {
		return nil, err
	}

	db, err := NewDatabase(logger, dbConfig)
	if err != nil {
		return nil, err
	}

	if autoMigrate {
		if err := AutoMigrate(logger, db, models.ModelRegistry...); err != nil {
			return nil, err
		}
	}

	cache := cacheConfig.NewCacheOrNil(logger)

	routerService := router.CreateRouterService(logger, cache, httpConfig.RouterConfig(env, tracingConfig.RouterServiceName()))

	logger.Info("Application configuration loaded successfully", "env", string(env))

	return &ApplicationConfig{
		DB:              db,
		RouterService:   routerService,
		Logger:          logger,
		Cache:           cache,
		Env:             env,
		HTTP:            httpConfig,
		Waitlist:        waitlistConfig,
		Mail:            mailConfig,
		Mailer:          mailer,
		TracingShutdown: tracingShutdown,
	}, nil
}
