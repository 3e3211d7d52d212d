package handler

import (
    "context"  // service calls take a context
    "net/http" // HTTP status codes

    "github.com/labstack/echo/v4" // Echo framework for HTTP routing

    "github.com/iliyamo/theater-management/internal/authz"
    "github.com/iliyamo/theater-management/internal/metrics"
    "github.com/iliyamo/theater-management/internal/middleware"
    "github.com/iliyamo/theater-management/internal/service"
)

// Authenticator is implemented by service.AuthService.
type Authenticator interface {
    Login(ctx context.Context, dto service.LoginDTO) (service.UserDTO, service.IssuedSession, error)
    CurrentUser(ctx context.Context, caller authz.Caller) (service.UserDTO, error)
    Logout(ctx context.Context, token string)
}

// AuthHandler serves /api/authentication.
type AuthHandler struct {
    Auth    Authenticator
    Cookie  middleware.SessionCookie
    Metrics *metrics.Metrics
    Errors  Errors
}

func NewAuthHandler(auth Authenticator, cookie middleware.SessionCookie, m *metrics.Metrics, errs Errors) *AuthHandler {
    return &AuthHandler{Auth: auth, Cookie: cookie, Metrics: m, Errors: errs}
}

// Login: verify credentials, set the session cookie and return the user.
func (h *AuthHandler) Login(c echo.Context) error {
    var req service.LoginDTO
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }

    ctx, cancel := requestCtx(c)
    defer cancel()

    user, session, err := h.Auth.Login(ctx, req)
    if h.Metrics != nil {
        h.Metrics.LoginAttemptsTotal.WithLabelValues(outcome(err)).Inc()
    }
    if err != nil {
        return h.Errors.respond(c, err)
    }
    h.Cookie.Write(c, session)
    return c.JSON(http.StatusOK, user)
}

// Me: return the caller behind the session cookie.
func (h *AuthHandler) Me(c echo.Context) error {
    ctx, cancel := requestCtx(c)
    defer cancel()

    user, err := h.Auth.CurrentUser(ctx, middleware.CallerFrom(c))
    if err != nil {
        return h.Errors.respond(c, err)
    }
    return c.JSON(http.StatusOK, user)
}

// Logout: revoke the session if there is one and clear the cookie.  Always 200.
func (h *AuthHandler) Logout(c echo.Context) error {
    ctx, cancel := requestCtx(c)
    defer cancel()

    h.Auth.Logout(ctx, h.Cookie.Read(c))
    h.Cookie.Clear(c)
    return c.NoContent(http.StatusOK)
}
