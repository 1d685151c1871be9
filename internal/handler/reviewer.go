package handler

import (
    "net/http"
    "strconv"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/seat-reservation/internal/service"
)

// ReviewerHandler serves staff endpoints: payment decisions, seat
// prices, financial reports and the reviewer directory.  Routes are
// guarded by the REVIEWER role and a directory lookup.
type ReviewerHandler struct {
    Approvals *service.Approvals
    Res       *service.Reservations
    Agg       *service.Aggregator
}

func NewReviewerHandler(approvals *service.Approvals, res *service.Reservations, agg *service.Aggregator) *ReviewerHandler {
    if approvals == nil || res == nil || agg == nil {
        panic("nil dependency passed to NewReviewerHandler")
    }
    return &ReviewerHandler{Approvals: approvals, Res: res, Agg: agg}
}

// Decide handles POST /v1/reviews/:event_id/:seat_id/:user_id/:decision
// where decision is approve or reject.
func (h *ReviewerHandler) Decide(c echo.Context) error {
    eventID, ok := pathInt64(c, "event_id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
    }
    seatID, ok := seatParam(c)
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid seat id"})
    }
    userID, ok := pathInt64(c, "user_id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
    }
    d, err := service.ParseDecision(c.Param("decision"))
    if err != nil {
        return writeError(c, err)
    }
    if err := h.Approvals.Decide(c.Request().Context(), eventID, seatID, userID, d); err != nil {
        return writeError(c, err)
    }
    status := "approved"
    if d == service.DecisionReject {
        status = "rejected"
    }
    return c.JSON(http.StatusOK, echo.Map{"event_id": eventID, "seat_id": seatID, "user_id": userID, "status": status})
}

// SetPrice handles PUT /v1/admin/events/:event_id/seats/:seat_id/price
// with body {"price": n}.
func (h *ReviewerHandler) SetPrice(c echo.Context) error {
    eventID, ok := pathInt64(c, "event_id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
    }
    seatID, ok := seatParam(c)
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid seat id"})
    }
    var body struct {
        Price int64 `json:"price"`
    }
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    ctx := c.Request().Context()
    if err := h.Res.SetPrice(ctx, eventID, seatID, body.Price); err != nil {
        return writeError(c, err)
    }
    seat, err := h.Res.GetSeat(ctx, eventID, seatID)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, seat)
}

// Report handles GET /v1/admin/reports with an optional ?event_id=.
func (h *ReviewerHandler) Report(c echo.Context) error {
    var eventID int64
    if q := strings.TrimSpace(c.QueryParam("event_id")); q != "" {
        n, err := strconv.ParseInt(q, 10, 64)
        if err != nil || n <= 0 {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event_id"})
        }
        eventID = n
    }
    rep, err := h.Agg.Report(c.Request().Context(), eventID)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, rep)
}

// ListReviewers handles GET /v1/admin/reviewers.
func (h *ReviewerHandler) ListReviewers(c echo.Context) error {
    list, err := h.Approvals.ListReviewers(c.Request().Context())
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"reviewers": list})
}

// AddReviewer handles POST /v1/admin/reviewers with body
// {"user_id": n, "username": "..."}.
func (h *ReviewerHandler) AddReviewer(c echo.Context) error {
    actor, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var body struct {
        UserID   int64  `json:"user_id"`
        Username string `json:"username"`
    }
    if err := c.Bind(&body); err != nil || body.UserID <= 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "user_id is required"})
    }
    if err := h.Approvals.AddReviewer(c.Request().Context(), body.UserID, actor, strings.TrimSpace(body.Username)); err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusCreated, echo.Map{"user_id": body.UserID, "added_by": actor})
}

// RemoveReviewer handles DELETE /v1/admin/reviewers/:user_id.  Reviewers
// cannot remove themselves.
func (h *ReviewerHandler) RemoveReviewer(c echo.Context) error {
    actor, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    target, ok := pathInt64(c, "user_id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
    }
    if target == actor {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "cannot remove yourself"})
    }
    if err := h.Approvals.RemoveReviewer(c.Request().Context(), target); err != nil {
        return writeError(c, err)
    }
    return c.NoContent(http.StatusNoContent)
}
