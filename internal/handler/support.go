package handler

import (
    "log"
    "net/http"
    "strconv"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/seat-reservation/internal/model"
    "github.com/iliyamo/seat-reservation/internal/repository"
    "github.com/iliyamo/seat-reservation/internal/service"
)

// SupportHandler serves the support inbox: customers write in through
// Submit, reviewers work the inbox through the rest.
type SupportHandler struct {
    Support  *service.Support
    Sessions *repository.SessionRepo
}

func NewSupportHandler(support *service.Support, sessions *repository.SessionRepo) *SupportHandler {
    if support == nil || sessions == nil {
        panic("nil dependency passed to NewSupportHandler")
    }
    return &SupportHandler{Support: support, Sessions: sessions}
}

type textBody struct {
    Text string `json:"text"`
}

// clearSession drops the caller's pending-input session if it is of
// kind k.  Failures are logged only.
func (h *SupportHandler) clearSession(c echo.Context, userID int64, k model.SessionKind) {
    ctx := c.Request().Context()
    st, err := h.Sessions.Get(ctx, userID)
    if err != nil || st.Kind != k {
        return
    }
    if err := h.Sessions.Clear(ctx, userID); err != nil {
        log.Printf("handler: clear session for user %d: %v", userID, err)
    }
}

// Submit handles POST /v1/support with body {"text": "..."}.
func (h *SupportHandler) Submit(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var body textBody
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    m, err := h.Support.Submit(c.Request().Context(), userID, body.Text)
    if err != nil {
        return writeError(c, err)
    }
    h.clearSession(c, userID, model.SessionAwaitingSupportMessage)
    return c.JSON(http.StatusCreated, m)
}

// List handles GET /v1/admin/support?page=0&size=5.
func (h *SupportHandler) List(c echo.Context) error {
    page, _ := strconv.Atoi(c.QueryParam("page"))
    size, _ := strconv.Atoi(c.QueryParam("size"))
    p, err := h.Support.Pending(c.Request().Context(), page, size)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, p)
}

// Get handles GET /v1/admin/support/:id.
func (h *SupportHandler) Get(c echo.Context) error {
    id, ok := pathInt64(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid message id"})
    }
    m, err := h.Support.Get(c.Request().Context(), id)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, m)
}

// History handles GET /v1/admin/support/users/:user_id.
func (h *SupportHandler) History(c echo.Context) error {
    userID, ok := pathInt64(c, "user_id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
    }
    list, err := h.Support.History(c.Request().Context(), userID)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, list)
}

// Reply handles POST /v1/admin/support/:id/reply with body
// {"text": "..."}.  The message is closed and the answer sent to its
// author.
func (h *SupportHandler) Reply(c echo.Context) error {
    reviewerID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id, ok := pathInt64(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid message id"})
    }
    var body textBody
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    m, err := h.Support.Reply(c.Request().Context(), id, reviewerID, body.Text)
    if err != nil {
        return writeError(c, err)
    }
    h.clearSession(c, reviewerID, model.SessionAwaitingSupportReply)
    return c.JSON(http.StatusOK, m)
}

// Resolve handles POST /v1/admin/support/:id/resolve.
func (h *SupportHandler) Resolve(c echo.Context) error {
    reviewerID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id, ok := pathInt64(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid message id"})
    }
    m, err := h.Support.Resolve(c.Request().Context(), id, reviewerID)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, m)
}
