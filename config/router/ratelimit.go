package router

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/carbiooai/carbioo-api/pkg/ratelimit"
	"github.com/gin-gonic/gin"
)

// limiterFor resolves the budget for a matched route: a handler override
// beats its controller's override, which beats the router-wide limiter.
// Unmatched routes draw from the router-wide limiter.
func (routerService *RouterService) limiterFor(route, method string) ratelimit.RateLimiter {
	key := routerService.keyForPathAndMethod(route, method)

	if limiter, ok := routerService.rateLimitOverrides[key]; ok {
		return limiter
	}

	if controller, ok := routerService.handlerToControllerMap[key]; ok && controller != nil {
		if limiter, ok := routerService.rateLimitOverrides[controller.mountPoint]; ok {
			return limiter
		}
	}

	return routerService.rateLimiter
}

func (routerService *RouterService) rateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		limiter := routerService.limiterFor(c.FullPath(), c.Request.Method)
		if limiter == nil {
			c.Next()
			return
		}

		clientIP := c.ClientIP()
		limit, window := limiter.GetLimitDetails()
		c.Header("X-RateLimit-Limit", strconv.Itoa(limit))
		c.Header("X-RateLimit-Window", window.String())

		limited, err := limiter.IsLimited(clientIP)
		if err != nil {
			// Fail open: an unavailable counter store must not take the API down.
			routerService.logger.Error("Rate limiter error", "error", err, "client_ip", clientIP)
			c.Next()
			return
		}

		if !limited {
			c.Next()
			return
		}

		retryAfter := retryAfterSeconds(window)
		routerService.logger.Warn("Rate limit exceeded",
			"client_ip", clientIP,
			"route", c.FullPath(),
			"limit", limit,
			"window", window,
		)
		c.Header("Retry-After", retryAfter)
		c.AbortWithStatusJSON(http.StatusTooManyRequests, TooManyRequestsResult(RateLimitResponse{
			Limit:      limit,
			Window:     window.String(),
			RetryAfter: retryAfter,
		}).ToJSON())
	}
}

// retryAfterSeconds rounds the window up to whole seconds, at least one.
func retryAfterSeconds(window time.Duration) string {
	seconds := int(math.Ceil(window.Seconds()))
	if seconds < 1 {
		seconds = 1
	}
	return strconv.Itoa(seconds)
}
