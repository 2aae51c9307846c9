package investor

import (
	"net/http"

	"github.com/carbiooai/carbioo-api/config/router"
	"github.com/carbiooai/carbioo-api/internal/log"
	"github.com/carbiooai/carbioo-api/internal/notifications"
	apperrors "github.com/carbiooai/carbioo-api/pkg/errors"
	"github.com/carbiooai/carbioo-api/pkg/ratelimit"
	"gorm.io/gorm"
)

func NewInvestorController(
	db *gorm.DB,
	logger *log.Logger,
	notifier notifications.Sender,
	limiter ratelimit.RateLimiter,
) *router.RESTController {

	return router.NewRESTController(
		"InvestorController",
		"/investor",
		func(rs *router.RouterService, c *router.RESTController) {
			repository := NewInvestorRepository(db)
			service := NewInvestorService(logger, repository, notifier)

			rs.AddPostHandler(c, limiter, "", createInvestorInterestHandler(service))
		},
	)
}

func createInvestorInterestHandler(service InvestorService) router.HandlerFunction {
	return func(ctx *router.RequestContext) *router.ServiceResult {
		logger := router.GetLogger(ctx)

		var req CreateInvestorInterestRequest

		if err := router.DecodeJSON(ctx, &req); err != nil {
			logger.Warn("Failed to decode investor request", "error", err)
			return router.BadRequestResult("Invalid request body", apperrors.FormatValidationErrors(err, &req))
		}

		response, err := service.RecordInterest(ctx.Request.Context(), &req)
		if err != nil {
			return router.AppErrorResult(err, &req)
		}

		return router.JSONResult(http.StatusCreated, response)
	}
}
