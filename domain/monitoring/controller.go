package monitoring

import (
	"context"
	"net/http"
	"time"

	"github.com/carbiooai/carbioo-api/config/router"
	"github.com/carbiooai/carbioo-api/internal/log"
	"github.com/carbiooai/carbioo-api/pkg/ratelimit"
	"gorm.io/gorm"
)

const healthCheckTimeout = 2 * time.Second

type Cache interface {
	Ping(ctx context.Context) error
}

type HealthStatus struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Database  int       `json:"database"` // 1 = healthy, 0 = unhealthy
	Cache     int       `json:"cache"`    // 1 = healthy, 0 = unhealthy/not configured
	Uptime    int       `json:"uptime"`   // seconds
}

type MonitoringController struct {
	db        *gorm.DB
	logger    *log.Logger
	cache     Cache
	startTime time.Time
	now       func() time.Time
}

func NewMonitoringController(db *gorm.DB, logger *log.Logger, cache Cache, limiter ratelimit.RateLimiter) *router.RESTController {
	ctrl := &MonitoringController{
		db:        db,
		logger:    logger,
		cache:     cache,
		startTime: time.Now(),
		now:       time.Now,
	}

	return router.NewRESTController(
		"MonitoringController",
		"/",
		func(routerService *router.RouterService, controller *router.RESTController) {
			routerService.AddGetHandler(controller, limiter, "health", func(c *router.RequestContext) *router.ServiceResult {
				return ctrl.healthCheck(routerService, c)
			})
		},
	)
}

// healthCheck always answers 200 with status "ok" while the process serves
// requests; dependency state is reported alongside for dashboards.
func (ctrl *MonitoringController) healthCheck(
	routerService *router.RouterService,
	c *router.RequestContext,
) *router.ServiceResult {
	logger := routerService.GetLogger(c)

	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	return router.JSONResult(http.StatusOK, ctrl.performHealthChecks(ctx, logger))
}

func (ctrl *MonitoringController) performHealthChecks(ctx context.Context, logger *log.Logger) HealthStatus {
	status := HealthStatus{
		Status:    "ok",
		Timestamp: ctrl.now().UTC(),
		Uptime:    int(time.Since(ctrl.startTime).Seconds()),
	}

	checkDatabaseConnectivity(ctx, ctrl, &status, logger)

	checkCacheConnectivity(ctx, ctrl, &status, logger)

	return status
}

func checkCacheConnectivity(ctx context.Context, ctrl *MonitoringController, status *HealthStatus, logger *log.Logger) {
	if ctrl.cache == nil {
		status.Cache = 0
		logger.Debug("Cache not configured, cache health check skipped")
		return
	}

	if ctrl.checkCache(ctx) {
		status.Cache = 1
		return
	}

	status.Cache = 0
	logger.Error("Cache health check failed")
}

func checkDatabaseConnectivity(ctx context.Context, ctrl *MonitoringController, status *HealthStatus, logger *log.Logger) {
	if ctrl.checkDatabase(ctx) {
		status.Database = 1
		return
	}

	status.Database = 0
	logger.Error("Database health check failed")
}

func (ctrl *MonitoringController) checkDatabase(ctx context.Context) bool {
	if ctrl.db == nil {
		return false
	}

	sqlDB, err := ctrl.db.DB()
	if err != nil {
		return false
	}

	return sqlDB.PingContext(ctx) == nil
}

func (ctrl *MonitoringController) checkCache(ctx context.Context) bool {
	return ctrl.cache.Ping(ctx) == nil
}
