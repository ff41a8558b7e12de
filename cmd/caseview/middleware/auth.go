package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	commonmw "github.com/famcase/caseview/common/middleware"
)

// RequesterKey is shared with the rate limiter, which reads the same
// context entry
const RequesterKey = commonmw.RequesterKey

// ExtractRequester extracts the X-Requester-ID header and stores it in
// the request context. Token validation happens upstream at the gateway;
// this service trusts the forwarded identity.
//
// Usage:
//
//	e := echo.New()
//	e.Use(middleware.ExtractRequester())
func ExtractRequester() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			requester := c.Request().Header.Get("X-Requester-ID")
			if requester != "" {
				c.Set(string(RequesterKey), requester)
			}
			return next(c)
		}
	}
}

// ExtractRequesterStrict rejects requests without an X-Requester-ID
// header. Used on the custody-gated case routes.
func ExtractRequesterStrict() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			requester := c.Request().Header.Get("X-Requester-ID")

			if requester == "" {
				return c.JSON(http.StatusUnauthorized, map[string]interface{}{
					"error": "X-Requester-ID header is required",
				})
			}

			c.Set(string(RequesterKey), requester)
			return next(c)
		}
	}
}

// GetRequester retrieves the requester id from the request context.
// Returns empty string if not set.
func GetRequester(c echo.Context) string {
	requester, ok := c.Get(string(RequesterKey)).(string)
	if !ok {
		return ""
	}
	return requester
}
