package middleware // middleware provides shared request processing for handlers

import (
    "context"
    "log"
    "net/http"

    "github.com/labstack/echo/v4"
)

// RequireRole returns a middleware function that enforces that the
// authenticated user has one of the specified roles.  It assumes JWTAuth
// ran first.  Other roles get 403 Forbidden.
func RequireRole(roles ...string) echo.MiddlewareFunc {
    allowed := make(map[string]bool, len(roles))
    for _, r := range roles {
        allowed[r] = true
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            if !allowed[Role(c)] {
                return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
            }
            return next(c)
        }
    }
}

// ReviewerChecker reports whether a user is in the reviewer directory.
type ReviewerChecker func(ctx context.Context, userID int64) (bool, error)

// RequireReviewer admits only users listed in the reviewer directory,
// so removing a reviewer takes effect before their token expires.
func RequireReviewer(isReviewer ReviewerChecker) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            uid, ok := UserID(c)
            if !ok {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
            }
            ok, err := isReviewer(c.Request().Context(), uid)
            if err != nil {
                log.Printf("middleware: reviewer lookup for %d: %v", uid, err)
                return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
            }
            if !ok {
                return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
            }
            return next(c)
        }
    }
}
