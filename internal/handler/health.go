package handler // declare the package name; contains HTTP handlers

import (
    "context"
    "net/http"
    "time"

    "github.com/jmoiron/sqlx"
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/seat-reservation/internal/notify"
)

// HealthHandler reports whether the store answers and how notification
// delivery is doing.
type HealthHandler struct {
    DB    *sqlx.DB
    Stats func() notify.Stats // optional
}

// Health handles GET /healthz.  It returns 503 when the database ping
// fails so load balancers stop routing to this instance.
func (h *HealthHandler) Health(c echo.Context) error {
    ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
    defer cancel()
    if err := h.DB.PingContext(ctx); err != nil {
        return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "unavailable", "error": "database unreachable"})
    }
    resp := echo.Map{"status": "ok"}
    if h.Stats != nil {
        resp["notifications"] = h.Stats()
    }
    return c.JSON(http.StatusOK, resp)
}
