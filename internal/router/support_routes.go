package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/seat-reservation/internal/handler"
	"github.com/iliyamo/seat-reservation/internal/middleware"
)

// RegisterSupport mounts the support inbox.  Customers post messages;
// reviewers page through, answer and resolve them.
func RegisterSupport(e *echo.Echo, h *handler.SupportHandler, jwtSecret string, isReviewer middleware.ReviewerChecker) {
	e.POST("/v1/support", h.Submit, customerGuard(jwtSecret)...)

	inbox := e.Group("/v1/admin/support", staffGuard(jwtSecret, isReviewer)...)
	inbox.GET("", h.List)
	inbox.GET("/:id", h.Get)
	inbox.GET("/users/:user_id", h.History)
	inbox.POST("/:id/reply", h.Reply)
	inbox.POST("/:id/resolve", h.Resolve)
}
