package handler // handler defines http handlers

import (
    "errors"
    "log"
    "net/http"
    "strconv"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/seat-reservation/internal/middleware"
    "github.com/iliyamo/seat-reservation/internal/model"
    "github.com/iliyamo/seat-reservation/internal/repository"
    "github.com/iliyamo/seat-reservation/internal/service"
)

// getUserID returns the authenticated user id set by JWTAuth.
func getUserID(c echo.Context) (int64, error) {
    id, ok := middleware.UserID(c)
    if !ok {
        return 0, errors.New("invalid user_id in context")
    }
    return id, nil
}

// pathInt64 parses a positive integer path parameter.
func pathInt64(c echo.Context, name string) (int64, bool) {
    n, err := strconv.ParseInt(c.Param(name), 10, 64)
    if err != nil || n <= 0 {
        return 0, false
    }
    return n, true
}

// seatParam normalises a seat id such as "r1c2" to "R1C2".
func seatParam(c echo.Context) (string, bool) {
    s := strings.ToUpper(strings.TrimSpace(c.Param("seat_id")))
    return s, s != ""
}

// writeError maps the service error taxonomy onto HTTP statuses.
func writeError(c echo.Context, err error) error {
    switch {
    case errors.Is(err, service.ErrConflict):
        return c.JSON(http.StatusConflict, echo.Map{"error": "seat unavailable"})
    case errors.Is(err, service.ErrNotFound):
        return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
    case errors.Is(err, service.ErrStaleDecision):
        return c.JSON(http.StatusConflict, echo.Map{"error": "already released, no action taken"})
    case errors.Is(err, service.ErrNoActiveReservation):
        return c.JSON(http.StatusConflict, echo.Map{"error": "no active reservation"})
    case errors.Is(err, service.ErrInvalidPrice):
        return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
    case errors.Is(err, service.ErrInvalidDecision):
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "decision must be approve or reject"})
    case errors.Is(err, service.ErrInvalidMessage):
        return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
    case errors.Is(err, service.ErrAlreadyHandled):
        return c.JSON(http.StatusConflict, echo.Map{"error": "support message already handled"})
    case errors.Is(err, model.ErrInvalidSession):
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid session state"})
    case errors.Is(err, repository.ErrSessionNotFound):
        return c.JSON(http.StatusNotFound, echo.Map{"error": "no pending session"})
    }
    log.Printf("handler: %s %s: %v", c.Request().Method, c.Path(), err)
    return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}
