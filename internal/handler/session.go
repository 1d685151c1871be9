package handler

import (
    "errors"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/seat-reservation/internal/middleware"
    "github.com/iliyamo/seat-reservation/internal/model"
    "github.com/iliyamo/seat-reservation/internal/repository"
)

// SessionHandler exposes the caller's pending-input session.  It is
// mounted for both roles; each role may only store the kinds of its own
// flows.
type SessionHandler struct {
    Sessions *repository.SessionRepo
}

func NewSessionHandler(sessions *repository.SessionRepo) *SessionHandler {
    if sessions == nil {
        panic("nil dependency passed to NewSessionHandler")
    }
    return &SessionHandler{Sessions: sessions}
}

// kindAllowed reports whether role may hold a session of kind k.
func kindAllowed(role string, k model.SessionKind) bool {
    switch role {
    case middleware.RoleCustomer:
        return !k.StaffOnly()
    case middleware.RoleReviewer:
        return !k.CustomerOnly()
    }
    return false
}

// Get handles GET /v1/me/session and GET /v1/admin/session.
func (h *SessionHandler) Get(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    st, err := h.Sessions.Get(c.Request().Context(), userID)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, st)
}

// Put handles PUT on the session path.  The body is a session state
// without user_id; the kind decides which payload fields are required
// and must belong to the caller's role, otherwise 403.
func (h *SessionHandler) Put(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var st model.SessionState
    if err := c.Bind(&st); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    if !kindAllowed(middleware.Role(c), st.Kind) {
        return c.JSON(http.StatusForbidden, echo.Map{"error": "session kind not allowed for this role"})
    }
    st.UserID = userID
    st.SeatID = strings.ToUpper(strings.TrimSpace(st.SeatID))
    st.UpdatedAt = time.Now().UTC()
    if err := h.Sessions.Save(c.Request().Context(), st); err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, st)
}

// Delete handles DELETE on the session path.
func (h *SessionHandler) Delete(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    if err := h.Sessions.Clear(c.Request().Context(), userID); err != nil && !errors.Is(err, repository.ErrSessionNotFound) {
        return writeError(c, err)
    }
    return c.NoContent(http.StatusNoContent)
}
