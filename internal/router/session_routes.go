package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/seat-reservation/internal/handler"
	"github.com/iliyamo/seat-reservation/internal/middleware"
)

// RegisterSessions mounts the pending-input session for both roles:
// customers at /v1/me/session, reviewers at /v1/admin/session.  The
// handler restricts which kinds each role may store.
func RegisterSessions(e *echo.Echo, h *handler.SessionHandler, jwtSecret string, isReviewer middleware.ReviewerChecker) {
	mount := func(g *echo.Group) {
		g.GET("", h.Get)
		g.PUT("", h.Put)
		g.DELETE("", h.Delete)
	}
	mount(e.Group("/v1/me/session", customerGuard(jwtSecret)...))
	mount(e.Group("/v1/admin/session", staffGuard(jwtSecret, isReviewer)...))
}
