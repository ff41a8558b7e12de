package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/famcase/caseview/common/ratelimit"
)

// RequesterRateLimitMiddleware checks per-requester rate limits.
// Requires the requester id to be set in context by ExtractRequester.
func RequesterRateLimitMiddleware(rateLimiter *ratelimit.RateLimiter, limit int64) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			// Get requester from context (set by ExtractRequester middleware)
			requester, ok := c.Get(string(RequesterKey)).(string)
			if !ok || requester == "" {
				// No requester, nothing to key the limit on
				return next(c)
			}

			result, err := rateLimiter.CheckRequesterLimit(c.Request().Context(), requester, limit)
			if err != nil {
				// On error, allow request (fail open for availability)
				return next(c)
			}

			if !result.Allowed {
				return c.JSON(http.StatusTooManyRequests, map[string]interface{}{
					"error":   "rate_limit_exceeded",
					"message": "Too many requests. Please try again later.",
					"details": map[string]interface{}{
						"limit":               result.Limit,
						"window":              "60 seconds",
						"retry_after_seconds": result.RetryAfterSeconds,
					},
				})
			}

			return next(c)
		}
	}
}
