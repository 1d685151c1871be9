package handler

import (
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/seat-reservation/internal/model"
    "github.com/iliyamo/seat-reservation/internal/service"
)

// PublicHandler serves unauthenticated browse endpoints.
type PublicHandler struct {
    Res *service.Reservations
}

func NewPublicHandler(res *service.Reservations) *PublicHandler {
    if res == nil {
        panic("nil reservations passed to NewPublicHandler")
    }
    return &PublicHandler{Res: res}
}

// ListEvents handles GET /v1/events.
func (h *PublicHandler) ListEvents(c echo.Context) error {
    events, err := h.Res.ListEvents(c.Request().Context())
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"events": events})
}

// publicSeat hides who holds a seat.
type publicSeat struct {
    SeatID string           `json:"seat_id"`
    Row    int              `json:"row"`
    Col    int              `json:"col"`
    Status model.SeatStatus `json:"status"`
    Price  int64            `json:"price"`
}

// ListSeats handles GET /v1/events/:event_id/seats and returns the seat
// map ordered by row and column.
func (h *PublicHandler) ListSeats(c echo.Context) error {
    eventID, ok := pathInt64(c, "event_id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
    }
    seats, err := h.Res.ListSeats(c.Request().Context(), eventID)
    if err != nil {
        return writeError(c, err)
    }
    out := make([]publicSeat, 0, len(seats))
    for _, s := range seats {
        out = append(out, publicSeat{SeatID: s.SeatID, Row: s.Row, Col: s.Col, Status: s.Status, Price: s.Price})
    }
    return c.JSON(http.StatusOK, echo.Map{"event_id": eventID, "seats": out})
}
