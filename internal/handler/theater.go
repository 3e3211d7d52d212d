package handler

import (
    "context"
    "fmt"
    "iter"
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/theater-management/internal/authz"
    "github.com/iliyamo/theater-management/internal/metrics"
    "github.com/iliyamo/theater-management/internal/middleware"
    "github.com/iliyamo/theater-management/internal/service"
)

// Theaters is implemented by service.TheaterService.
type Theaters interface {
    List(ctx context.Context) iter.Seq2[service.TheaterDTO, error]
    GetByID(ctx context.Context, id int64) (service.TheaterDTO, error)
    Create(ctx context.Context, dto service.TheaterDTO, caller authz.Caller) (service.TheaterDTO, error)
    Update(ctx context.Context, id int64, dto service.TheaterDTO, caller authz.Caller) (service.TheaterDTO, error)
    Delete(ctx context.Context, id int64, caller authz.Caller) error
}

// CachePurger drops cached theater reads.  Implemented by
// middleware.ResponseCache.
type CachePurger interface {
    Purge(ctx context.Context) error
}

// TheaterHandler serves /api/theaters.  Reads are public; the service decides
// who may write.
type TheaterHandler struct {
    Theaters Theaters
    Cache    CachePurger
    Metrics  *metrics.Metrics
    Errors   Errors
}

func NewTheaterHandler(theaters Theaters, cache CachePurger, m *metrics.Metrics, errs Errors) *TheaterHandler {
    return &TheaterHandler{Theaters: theaters, Cache: cache, Metrics: m, Errors: errs}
}

// List returns every theater.
func (h *TheaterHandler) List(c echo.Context) error {
    ctx, cancel := requestCtx(c)
    defer cancel()

    out := []service.TheaterDTO{}
    for dto, err := range h.Theaters.List(ctx) {
        if err != nil {
            return h.Errors.respond(c, err)
        }
        out = append(out, dto)
    }
    return c.JSON(http.StatusOK, out)
}

// Get returns one theater by id.
func (h *TheaterHandler) Get(c echo.Context) error {
    id, ok := parseID(c)
    if !ok {
        return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
    }
    ctx, cancel := requestCtx(c)
    defer cancel()

    dto, err := h.Theaters.GetByID(ctx, id)
    if err != nil {
        return h.Errors.respond(c, err)
    }
    return c.JSON(http.StatusOK, dto)
}

// Create adds a theater and answers 201 with its location.
func (h *TheaterHandler) Create(c echo.Context) error {
    var req service.TheaterDTO
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    ctx, cancel := requestCtx(c)
    defer cancel()

    dto, err := h.Theaters.Create(ctx, req, middleware.CallerFrom(c))
    h.record("create", err)
    if err != nil {
        return h.Errors.respond(c, err)
    }
    h.purge(c)
    c.Response().Header().Set(echo.HeaderLocation, fmt.Sprintf("/api/theaters/%d", dto.ID))
    return c.JSON(http.StatusCreated, dto)
}

// Update replaces name, address and seat count, and the manager when an
// admin asks for it.
func (h *TheaterHandler) Update(c echo.Context) error {
    id, ok := parseID(c)
    if !ok {
        return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
    }
    var req service.TheaterDTO
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    ctx, cancel := requestCtx(c)
    defer cancel()

    dto, err := h.Theaters.Update(ctx, id, req, middleware.CallerFrom(c))
    h.record("update", err)
    if err != nil {
        return h.Errors.respond(c, err)
    }
    h.purge(c)
    return c.JSON(http.StatusOK, dto)
}

// Delete removes a theater.
func (h *TheaterHandler) Delete(c echo.Context) error {
    id, ok := parseID(c)
    if !ok {
        return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
    }
    ctx, cancel := requestCtx(c)
    defer cancel()

    err := h.Theaters.Delete(ctx, id, middleware.CallerFrom(c))
    h.record("delete", err)
    if err != nil {
        return h.Errors.respond(c, err)
    }
    h.purge(c)
    return c.NoContent(http.StatusOK)
}

func (h *TheaterHandler) record(op string, err error) {
    if h.Metrics != nil {
        h.Metrics.TheaterMutationsTotal.WithLabelValues(op, outcome(err)).Inc()
    }
}

func (h *TheaterHandler) purge(c echo.Context) {
    if h.Cache == nil {
        return
    }
    if err := h.Cache.Purge(c.Request().Context()); err != nil {
        h.Errors.Log.WithError(err).Warn("theater cache purge failed")
    }
}
