package router // package router defines how HTTP routes are registered for the API

import (
	"net/http"

	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/iliyamo/theater-management/internal/handler"
	"github.com/iliyamo/theater-management/internal/middleware"
	"github.com/iliyamo/theater-management/internal/model"
)

// RegisterOps exposes liveness, readiness and Prometheus endpoints.  None of
// them require a session.
func RegisterOps(e *echo.Echo, db handler.Pinger, metricsHandler http.Handler) {
	e.GET("/healthz", handler.Health)
	e.GET("/readyz", handler.Ready(db))
	e.GET("/metrics", echo.WrapHandler(metricsHandler))
}

// RegisterAuth registers the session endpoints under /api/authentication.
// Login is guarded by the rate limiter; /me needs a session; logout always
// succeeds so it carries no guard.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, limiter echo.MiddlewareFunc) {
	g := e.Group("/api/authentication")
	g.POST("/login", a.Login, limiter)
	g.GET("/me", a.Me, middleware.RequireSession())
	g.POST("/logout", a.Logout)
}

// RegisterTheaters registers /api/theaters.  Reads are public and go through
// the response cache.  Writes carry no route guard: the theater service
// validates the body before it checks the session, so the route must not
// answer 401 first.
func RegisterTheaters(e *echo.Echo, t *handler.TheaterHandler, cache echo.MiddlewareFunc) {
	g := e.Group("/api/theaters")
	g.GET("", t.List, cache)
	g.GET("/:id", t.Get, cache)
	g.POST("", t.Create)
	g.PUT("/:id", t.Update)
	g.DELETE("/:id", t.Delete)
}

// RegisterUsers registers admin user provisioning.
func RegisterUsers(e *echo.Echo, u *handler.UserHandler) {
	g := e.Group("/api/users", middleware.RequireRole(model.RoleAdmin))
	g.POST("/create", u.Create)
}
