package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/seat-reservation/internal/handler"
	"github.com/iliyamo/seat-reservation/internal/middleware"
)

// customerGuard admits a valid JWT carrying the CUSTOMER role.
func customerGuard(jwtSecret string) []echo.MiddlewareFunc {
	return []echo.MiddlewareFunc{
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(middleware.RoleCustomer),
	}
}

// staffGuard admits a valid JWT carrying the REVIEWER role whose user
// is also listed in the reviewer directory.
func staffGuard(jwtSecret string, isReviewer middleware.ReviewerChecker) []echo.MiddlewareFunc {
	return []echo.MiddlewareFunc{
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(middleware.RoleReviewer),
		middleware.RequireReviewer(isReviewer),
	}
}

// RegisterRoutes registers routes that need no authentication: the
// health check.
func RegisterRoutes(e *echo.Echo, h *handler.HealthHandler) {
	e.GET("/healthz", h.Health)
}

// RegisterPublic registers the unauthenticated browse endpoints.  The
// event list sits behind the response cache; seat maps change with
// every claim and are always served fresh.
func RegisterPublic(e *echo.Echo, p *handler.PublicHandler, cache echo.MiddlewareFunc) {
	e.GET("/v1/events", p.ListEvents, cache)
	e.GET("/v1/events/:event_id/seats", p.ListSeats)
}
