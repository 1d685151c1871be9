package middleware

// identity.go holds the context keys JWTAuth fills in and the helpers
// that read them back.

import (
    "fmt"
    "strconv"

    "github.com/labstack/echo/v4"
)

const (
    ctxUserID = "user_id"
    ctxRole   = "role"
)

// Roles carried in the "role" claim.
const (
    RoleCustomer = "CUSTOMER"
    RoleReviewer = "REVIEWER"
)

// UserID returns the authenticated user's numeric id.
func UserID(c echo.Context) (int64, bool) {
    id, ok := c.Get(ctxUserID).(int64)
    return id, ok && id > 0
}

// Role returns the authenticated user's role claim.
func Role(c echo.Context) string {
    r, _ := c.Get(ctxRole).(string)
    return r
}

// parseSubject accepts the subject either as a decimal string (the
// registered "sub" form) or as a JSON number.
func parseSubject(v interface{}) (int64, error) {
    switch t := v.(type) {
    case string:
        return strconv.ParseInt(t, 10, 64)
    case float64:
        if t != float64(int64(t)) {
            return 0, fmt.Errorf("subject %v is not an integer", t)
        }
        return int64(t), nil
    case nil:
        return 0, fmt.Errorf("missing subject")
    }
    return 0, fmt.Errorf("unsupported subject type %T", v)
}

// rateIdentity is the user part of rate limit and cache keys.
func rateIdentity(c echo.Context) string {
    if id, ok := UserID(c); ok {
        return strconv.FormatInt(id, 10)
    }
    return "anon"
}
