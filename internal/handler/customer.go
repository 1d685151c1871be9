package handler

import (
    "log"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/seat-reservation/internal/model"
    "github.com/iliyamo/seat-reservation/internal/repository"
    "github.com/iliyamo/seat-reservation/internal/service"
)

// CustomerHandler serves the front-end collaborator acting for a
// customer: claiming a seat and submitting payment evidence.  Both move
// the caller's pending-input session along.  JWT and role checks happen
// in middleware.
type CustomerHandler struct {
    Res         *service.Reservations
    Approvals   *service.Approvals
    Sessions    *repository.SessionRepo
    ExpireAfter time.Duration // used to report when a claim lapses
}

func NewCustomerHandler(res *service.Reservations, approvals *service.Approvals, sessions *repository.SessionRepo, expireAfter time.Duration) *CustomerHandler {
    if res == nil || approvals == nil || sessions == nil {
        panic("nil dependency passed to NewCustomerHandler")
    }
    return &CustomerHandler{Res: res, Approvals: approvals, Sessions: sessions, ExpireAfter: expireAfter}
}

type reservationResponse struct {
    EventID    int64            `json:"event_id"`
    SeatID     string           `json:"seat_id"`
    Status     model.SeatStatus `json:"status"`
    Price      int64            `json:"price"`
    ReservedAt *time.Time       `json:"reserved_at,omitempty"`
    ExpiresAt  *time.Time       `json:"expires_at,omitempty"`
}

func (h *CustomerHandler) reservation(s *model.Seat) reservationResponse {
    r := reservationResponse{EventID: s.EventID, SeatID: s.SeatID, Status: s.Status, Price: s.Price, ReservedAt: s.ReservedAt}
    if s.ReservedAt != nil && h.ExpireAfter > 0 {
        exp := s.ReservedAt.Add(h.ExpireAfter)
        r.ExpiresAt = &exp
    }
    return r
}

// Claim handles POST /v1/events/:event_id/seats/:seat_id/claim.  It
// returns 201 with the reservation, or 409 when the seat is taken.  The
// caller's session moves to awaiting_evidence.
func (h *CustomerHandler) Claim(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    eventID, ok := pathInt64(c, "event_id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
    }
    seatID, ok := seatParam(c)
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid seat id"})
    }
    ctx := c.Request().Context()
    if err := h.Res.Claim(ctx, eventID, seatID, userID); err != nil {
        return writeError(c, err)
    }
    seat, err := h.Res.GetSeat(ctx, eventID, seatID)
    if err != nil {
        return writeError(c, err)
    }
    st := model.SessionState{UserID: userID, Kind: model.SessionAwaitingEvidence, EventID: eventID, SeatID: seatID}
    if err := h.Sessions.Save(ctx, st); err != nil {
        log.Printf("handler: save session for user %d: %v", userID, err)
    }
    return c.JSON(http.StatusCreated, h.reservation(seat))
}

// MyReservation handles GET /v1/me/reservation.
func (h *CustomerHandler) MyReservation(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    seat, err := h.Res.FindActiveReservation(c.Request().Context(), userID)
    if err != nil {
        return writeError(c, err)
    }
    if seat == nil {
        return c.JSON(http.StatusNotFound, echo.Map{"error": "no active reservation"})
    }
    return c.JSON(http.StatusOK, h.reservation(seat))
}

// SubmitEvidence handles POST /v1/evidence.  The body carries an opaque
// evidence_ref produced by the front end.  Reviewers are notified and
// 202 is returned; the decision arrives later.
func (h *CustomerHandler) SubmitEvidence(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var body struct {
        EvidenceRef string `json:"evidence_ref"`
    }
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    body.EvidenceRef = strings.TrimSpace(body.EvidenceRef)
    if body.EvidenceRef == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "evidence_ref is required"})
    }
    ctx := c.Request().Context()
    seat, err := h.Approvals.SubmitEvidence(ctx, userID, body.EvidenceRef)
    if err != nil {
        return writeError(c, err)
    }
    if err := h.Sessions.Clear(ctx, userID); err != nil {
        log.Printf("handler: clear session for user %d: %v", userID, err)
    }
    return c.JSON(http.StatusAccepted, echo.Map{
        "event_id": seat.EventID,
        "seat_id":  seat.SeatID,
        "status":   "pending_review",
    })
}
