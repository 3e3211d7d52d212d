package middleware // middleware provides shared request processing for handlers

import (
    "net/http" // http package defines standard HTTP status codes

    "github.com/labstack/echo/v4" // echo provides middleware chaining and context
)

// RequireRole returns a middleware function that enforces that the caller
// resolved by Session holds at least one of the given roles.  Anonymous
// callers get 401 Unauthorized, authenticated callers without any of the
// roles get 403 Forbidden.
func RequireRole(roles ...string) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            caller := CallerFrom(c)
            if !caller.Authenticated() {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
            }
            for _, r := range roles {
                if caller.HasRole(r) {
                    return next(c)
                }
            }
            return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
        }
    }
}
