package waitlist

import (
	"net/http"
	"net/url"
	"time"

	"github.com/carbiooai/carbioo-api/config/router"
	"github.com/carbiooai/carbioo-api/internal/log"
	"github.com/carbiooai/carbioo-api/internal/notifications"
	"github.com/carbiooai/carbioo-api/pkg/constants"
	apperrors "github.com/carbiooai/carbioo-api/pkg/errors"
	"github.com/carbiooai/carbioo-api/pkg/ratelimit"
	"gorm.io/gorm"
)

type ControllerConfig struct {
	TokenTTL time.Duration
	// RedirectURL is the frontend page GET /waitlist/verify lands on.
	RedirectURL string
}

// NewWaitlistController mounts the waitlist routes. limiter is bound to both
// signup and resend-verification, so they draw from one budget per client.
func NewWaitlistController(
	db *gorm.DB,
	logger *log.Logger,
	notifier notifications.Sender,
	cfg ControllerConfig,
	limiter ratelimit.RateLimiter,
) *router.RESTController {

	return router.NewRESTController(
		"WaitlistController",
		"/waitlist",
		func(rs *router.RouterService, c *router.RESTController) {
			repository := NewWaitlistRepository(db)
			service := NewWaitlistService(logger, repository, notifier, cfg.TokenTTL,
				WithMetrics(NewMetrics(rs.MetricsRegisterer())),
			)

			mountWaitlistHandlers(rs, c, service, cfg.RedirectURL, limiter)
		},
	)
}

func mountWaitlistHandlers(rs *router.RouterService, c *router.RESTController, service WaitlistService, redirectURL string, limiter ratelimit.RateLimiter) {
	rs.AddPostHandler(c, limiter, "", signupHandler(service))
	rs.AddPostHandler(c, nil, "/check-email", checkEmailHandler(service))
	rs.AddGetHandler(c, nil, "/verify", verifyLinkHandler(service, redirectURL))
	rs.AddPostHandler(c, nil, "/verify-token", verifyTokenHandler(service))
	rs.AddPostHandler(c, limiter, "/resend-verification", resendVerificationHandler(service))
	rs.AddGetHandler(c, nil, "/count", countHandler(service))
}

func signupHandler(service WaitlistService) router.HandlerFunction {
	return func(ctx *router.RequestContext) *router.ServiceResult {
		logger := router.GetLogger(ctx)

		var req SignupRequest

		if err := router.DecodeJSON(ctx, &req); err != nil {
			logger.Warn("Failed to decode signup request", "error", err)
			return badRequestFromDecodeError(err, &req)
		}

		response, err := service.Signup(ctx.Request.Context(), &req)
		if err != nil {
			return router.AppErrorResult(err, &req)
		}

		if response.Created {
			return router.JSONResult(http.StatusCreated, response)
		}

		return router.JSONResult(http.StatusOK, response)
	}
}

func checkEmailHandler(service WaitlistService) router.HandlerFunction {
	return func(ctx *router.RequestContext) *router.ServiceResult {
		var req CheckEmailRequest

		if err := router.DecodeJSON(ctx, &req); err != nil {
			router.GetLogger(ctx).Warn("Failed to decode check-email request", "error", err)
			return router.JSONResult(http.StatusBadRequest, &CheckEmailResponse{
				Valid:   false,
				Message: invalidEmailMessage(req.Email),
			})
		}

		response, err := service.CheckEmail(ctx.Request.Context(), &req)
		if err != nil {
			return router.AppErrorResult(err, nil)
		}

		if !response.Valid {
			return router.JSONResult(http.StatusBadRequest, response)
		}

		return router.JSONResult(http.StatusOK, response)
	}
}

func verifyLinkHandler(service WaitlistService, redirectURL string) router.HandlerFunction {
	return func(ctx *router.RequestContext) *router.ServiceResult {
		result := service.VerifyToken(ctx.Request.Context(), ctx.Query("token"))
		return router.RedirectResult(verificationRedirect(redirectURL, result.Status))
	}
}

func verifyTokenHandler(service WaitlistService) router.HandlerFunction {
	return func(ctx *router.RequestContext) *router.ServiceResult {
		var req VerifyTokenRequest

		// A malformed body is treated like a missing token.
		if err := router.DecodeJSON(ctx, &req); err != nil {
			router.GetLogger(ctx).Warn("Failed to decode verify-token request", "error", err)
		}

		result := service.VerifyToken(ctx.Request.Context(), req.Token)
		return router.JSONResult(verificationHTTPStatus(result.Status), result)
	}
}

func resendVerificationHandler(service WaitlistService) router.HandlerFunction {
	return func(ctx *router.RequestContext) *router.ServiceResult {
		logger := router.GetLogger(ctx)

		var req ResendVerificationRequest

		if err := router.DecodeJSON(ctx, &req); err != nil {
			logger.Warn("Failed to decode resend request", "error", err)
			return badRequestFromDecodeError(err, &req)
		}

		response, err := service.ResendVerification(ctx.Request.Context(), &req)
		if err != nil {
			return router.AppErrorResult(err, &req)
		}

		return router.JSONResult(http.StatusOK, response)
	}
}

func countHandler(service WaitlistService) router.HandlerFunction {
	return func(ctx *router.RequestContext) *router.ServiceResult {
		response, err := service.CountVerified(ctx.Request.Context())
		if err != nil {
			return router.AppErrorResult(err, nil)
		}

		return router.JSONResult(http.StatusOK, response)
	}
}

func verificationHTTPStatus(status VerificationStatus) int {
	switch status {
	case VerificationSuccess, VerificationAlready:
		return http.StatusOK
	case VerificationExpired, VerificationInvalid:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func verificationRedirect(base string, status VerificationStatus) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}

	query := u.Query()
	query.Set(constants.VerificationQueryParam, string(status))
	u.RawQuery = query.Encode()

	return u.String()
}

// badRequestFromDecodeError reports a body that is not valid JSON for model.
// Type mismatches name the offending field.
func badRequestFromDecodeError(err error, model any) *router.ServiceResult {
	if details := apperrors.FormatValidationErrors(err, model); len(details) > 0 {
		return router.BadRequestResult(apperrors.FirstValidationMessage(err, model), details)
	}

	return router.BadRequestResult("Invalid request body", nil)
}
