package monitoring

import (
	"github.com/carbiooai/carbioo-api/config/router"
	"github.com/carbiooai/carbioo-api/internal/log"
	"github.com/carbiooai/carbioo-api/pkg/ratelimit"
	"gorm.io/gorm"
)

// Dependencies are the things /health reports on. Cache may be nil when
// Redis is not configured; Limiter may be nil to fall back to the global one.
type Dependencies struct {
	DB      *gorm.DB
	Logger  *log.Logger
	Cache   Cache
	Limiter ratelimit.RateLimiter
}

type HealthControllerFactory struct {
	deps Dependencies
}

func NewHealthControllerFactory(deps Dependencies) *HealthControllerFactory {
	return &HealthControllerFactory{deps: deps}
}

func (f *HealthControllerFactory) CreateController() *router.RESTController {
	return NewMonitoringController(f.deps.DB, f.deps.Logger, f.deps.Cache, f.deps.Limiter)
}
