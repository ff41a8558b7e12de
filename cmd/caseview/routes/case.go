package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/famcase/caseview/cmd/caseview/container"
	"github.com/famcase/caseview/cmd/caseview/handlers"
	"github.com/famcase/caseview/cmd/caseview/middleware"
	commonmw "github.com/famcase/caseview/common/middleware"
)

// RegisterCaseRoutes registers merged case view routes
func RegisterCaseRoutes(e *echo.Echo, c *container.Container) {
	h := handlers.NewCaseHandler(c.CaseService, c.Components)

	cases := e.Group("/api/v1/cases")
	cases.Use(middleware.ExtractRequesterStrict())
	if c.RateLimiter != nil {
		cases.Use(commonmw.RequesterRateLimitMiddleware(c.RateLimiter, c.Components.Config.RateLimit.PerMinute))
	}
	{
		cases.GET("", h.ListCases)                  // GET /api/v1/cases
		cases.GET("/:subjectId", h.GetCase)         // GET /api/v1/cases/{subject_id}
		cases.GET("/:subjectId/debug", h.DebugCase) // GET /api/v1/cases/{subject_id}/debug
	}
}
