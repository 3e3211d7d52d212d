package handler

import (
    "context"
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/theater-management/internal/authz"
    "github.com/iliyamo/theater-management/internal/middleware"
    "github.com/iliyamo/theater-management/internal/service"
)

// Provisioner is implemented by service.UserService.
type Provisioner interface {
    CreateUser(ctx context.Context, dto service.CreateUserDTO, caller authz.Caller) (service.UserDTO, error)
}

// UserHandler serves /api/users.
type UserHandler struct {
    Users  Provisioner
    Errors Errors
}

func NewUserHandler(users Provisioner, errs Errors) *UserHandler {
    return &UserHandler{Users: users, Errors: errs}
}

// Create provisions an account (admins only) and returns it.
func (h *UserHandler) Create(c echo.Context) error {
    var req service.CreateUserDTO
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    ctx, cancel := requestCtx(c)
    defer cancel()

    user, err := h.Users.CreateUser(ctx, req, middleware.CallerFrom(c))
    if err != nil {
        return h.Errors.respond(c, err)
    }
    return c.JSON(http.StatusOK, user)
}
