package contact

import (
	"net/http"

	"github.com/carbiooai/carbioo-api/config/router"
	"github.com/carbiooai/carbioo-api/internal/log"
	"github.com/carbiooai/carbioo-api/internal/notifications"
	apperrors "github.com/carbiooai/carbioo-api/pkg/errors"
	"github.com/carbiooai/carbioo-api/pkg/ratelimit"
	"gorm.io/gorm"
)

func NewContactController(
	db *gorm.DB,
	logger *log.Logger,
	notifier notifications.Sender,
	limiter ratelimit.RateLimiter,
) *router.RESTController {

	return router.NewRESTController(
		"ContactController",
		"/contact",
		func(rs *router.RouterService, c *router.RESTController) {
			repository := NewContactRepository(db)
			service := NewContactService(logger, repository, notifier)

			rs.AddPostHandler(c, limiter, "", createContactMessageHandler(service))
		},
	)
}

func createContactMessageHandler(service ContactService) router.HandlerFunction {
	return func(ctx *router.RequestContext) *router.ServiceResult {
		logger := router.GetLogger(ctx)

		var req CreateContactMessageRequest

		if err := router.DecodeJSON(ctx, &req); err != nil {
			logger.Warn("Failed to decode contact request", "error", err)
			return router.BadRequestResult("Invalid request body", apperrors.FormatValidationErrors(err, &req))
		}

		response, err := service.Submit(ctx.Request.Context(), &req)
		if err != nil {
			return router.AppErrorResult(err, &req)
		}

		return router.JSONResult(http.StatusCreated, response)
	}
}
