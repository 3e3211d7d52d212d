package middleware // middleware provides shared request processing for handlers

import (
    "context"
    "errors"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/sirupsen/logrus"

    "github.com/iliyamo/theater-management/internal/authz"
    "github.com/iliyamo/theater-management/internal/service"
)

// callerKey is the echo context key holding the resolved authz.Caller.
const callerKey = "caller"

// SessionResolver turns the raw cookie value into a caller.  It is
// implemented by service.AuthService.
type SessionResolver interface {
    Resolve(ctx context.Context, token string) (authz.Caller, *service.IssuedSession, error)
}

// SessionCookie reads and writes the HTTP-only session cookie.
type SessionCookie struct {
    Name   string
    Secure bool
}

// Read returns the raw cookie value or "".
func (sc SessionCookie) Read(c echo.Context) string {
    ck, err := c.Cookie(sc.Name)
    if err != nil {
        return ""
    }
    return ck.Value
}

// Write sets the cookie so that it expires together with the session.
func (sc SessionCookie) Write(c echo.Context, s service.IssuedSession) {
    c.SetCookie(&http.Cookie{
        Name:     sc.Name,
        Value:    s.Token,
        Path:     "/",
        Expires:  s.ExpiresAt,
        MaxAge:   int(time.Until(s.ExpiresAt).Seconds()),
        HttpOnly: true,
        Secure:   sc.Secure,
        SameSite: http.SameSiteLaxMode,
    })
}

// Clear expires the cookie in the browser.
func (sc SessionCookie) Clear(c echo.Context) {
    c.SetCookie(&http.Cookie{
        Name:     sc.Name,
        Value:    "",
        Path:     "/",
        Expires:  time.Unix(0, 0),
        MaxAge:   -1,
        HttpOnly: true,
        Secure:   sc.Secure,
        SameSite: http.SameSiteLaxMode,
    })
}

// Session resolves the session cookie on every request and stores the
// caller in the context.  It never rejects a request: a missing or invalid
// session simply yields an anonymous caller, and routes that need a session
// add RequireSession.  Renewed sessions are written back as a fresh cookie.
func Session(resolver SessionResolver, cookie SessionCookie, log *logrus.Logger) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            raw := cookie.Read(c)
            caller, renewed, err := resolver.Resolve(c.Request().Context(), raw)
            switch {
            case errors.Is(err, service.ErrUnauthorized):
                // stale or tampered cookie; drop it
                cookie.Clear(c)
            case err != nil:
                log.WithError(err).Error("session lookup failed")
            case renewed != nil:
                cookie.Write(c, *renewed)
            }
            c.Set(callerKey, caller)
            return next(c)
        }
    }
}

// RequireSession rejects anonymous callers with 401.  It must run after
// Session.
func RequireSession() echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            if !CallerFrom(c).Authenticated() {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
            }
            return next(c)
        }
    }
}

// CallerFrom returns the caller stored by Session, or the anonymous caller.
func CallerFrom(c echo.Context) authz.Caller {
    if v, ok := c.Get(callerKey).(authz.Caller); ok {
        return v
    }
    return authz.Caller{}
}
