package waitlist

import (
	"github.com/carbiooai/carbioo-api/config/router"
	"github.com/carbiooai/carbioo-api/internal/log"
	"github.com/carbiooai/carbioo-api/internal/notifications"
	"github.com/carbiooai/carbioo-api/pkg/ratelimit"
	"gorm.io/gorm"
)

type WaitlistServiceFactory interface {
	CreateService(opts ...ServiceOption) WaitlistService
	CreateController() *router.RESTController
}

type DefaultWaitlistServiceFactory struct {
	db       *gorm.DB
	logger   *log.Logger
	notifier notifications.Sender
	config   ControllerConfig
	limiter  ratelimit.RateLimiter
}

func NewWaitlistServiceFactory(
	db *gorm.DB,
	logger *log.Logger,
	notifier notifications.Sender,
	config ControllerConfig,
	limiter ratelimit.RateLimiter,
) WaitlistServiceFactory {
	return &DefaultWaitlistServiceFactory{
		db:       db,
		logger:   logger,
		notifier: notifier,
		config:   config,
		limiter:  limiter,
	}
}

func (f *DefaultWaitlistServiceFactory) CreateService(opts ...ServiceOption) WaitlistService {
	repository := NewWaitlistRepository(f.db)
	return NewWaitlistService(f.logger, repository, f.notifier, f.config.TokenTTL, opts...)
}

func (f *DefaultWaitlistServiceFactory) CreateController() *router.RESTController {
	return NewWaitlistController(f.db, f.logger, f.notifier, f.config, f.limiter)
}
