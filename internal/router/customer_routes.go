package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/seat-reservation/internal/handler"
)

// RegisterCustomer registers customer-scoped endpoints under /v1.  All
// routes require a valid JWT and the CUSTOMER role.  Claims additionally
// pass through the rate limiter.
func RegisterCustomer(e *echo.Echo, h *handler.CustomerHandler, jwtSecret string, limiter echo.MiddlewareFunc) {
	g := e.Group("/v1", customerGuard(jwtSecret)...)
	g.POST("/events/:event_id/seats/:seat_id/claim", h.Claim, limiter)
	g.POST("/evidence", h.SubmitEvidence)
	g.GET("/me/reservation", h.MyReservation)
}
