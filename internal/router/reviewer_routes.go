package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/seat-reservation/internal/handler"
)

// RegisterReviewer registers staff endpoints.  A caller needs a JWT with
// the REVIEWER role and must also be listed in the reviewer directory.
func RegisterReviewer(e *echo.Echo, h *handler.ReviewerHandler, jwtSecret string) {
	guard := staffGuard(jwtSecret, h.Approvals.IsReviewer)

	reviews := e.Group("/v1/reviews", guard...)
	reviews.POST("/:event_id/:seat_id/:user_id/:decision", h.Decide)

	admin := e.Group("/v1/admin", guard...)
	// ---- Prices ----
	admin.PUT("/events/:event_id/seats/:seat_id/price", h.SetPrice)
	// ---- Reports ----
	admin.GET("/reports", h.Report)
	// ---- Reviewer directory ----
	admin.GET("/reviewers", h.ListReviewers)
	admin.POST("/reviewers", h.AddReviewer)
	admin.DELETE("/reviewers/:user_id", h.RemoveReviewer)
}
