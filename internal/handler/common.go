package handler // handler defines http handlers

import (
    "context"  // bounded contexts for service calls
    "errors"   // errors.Is/As for the service error taxonomy
    "net/http" // status codes
    "strconv"  // strconv converts path params
    "time"     // request timeout

    "github.com/labstack/echo/v4"  // echo defines request context types
    "github.com/sirupsen/logrus"   // structured logging of internal faults

    "github.com/iliyamo/theater-management/internal/authz"
    "github.com/iliyamo/theater-management/internal/metrics"
    "github.com/iliyamo/theater-management/internal/service"
)

// requestTimeout bounds every storage round trip started by a handler.
const requestTimeout = 5 * time.Second

func requestCtx(c echo.Context) (context.Context, context.CancelFunc) {
    return context.WithTimeout(c.Request().Context(), requestTimeout)
}

// parseID reads the :id path parameter as a positive integer.
func parseID(c echo.Context) (int64, bool) {
    id, err := strconv.ParseInt(c.Param("id"), 10, 64)
    if err != nil || id <= 0 {
        return 0, false
    }
    return id, true
}

// Errors maps service errors to HTTP responses.  Internal faults are logged
// and answered with a generic 500; the detail is only exposed when Dev is set.
type Errors struct {
    Log *logrus.Logger
    Dev bool
}

func (e Errors) respond(c echo.Context, err error) error {
    var verr *service.ValidationError
    switch {
    case errors.As(err, &verr):
        return c.JSON(http.StatusBadRequest, echo.Map{"error": verr.Error(), "field": verr.Field})
    case errors.Is(err, service.ErrValidation), errors.Is(err, service.ErrInvalidCredentials):
        return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
    case errors.Is(err, service.ErrUnauthorized):
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
    case errors.Is(err, service.ErrForbidden):
        body := echo.Map{"error": err.Error()}
        if deny, ok := authz.IsDenyError(err); ok {
            body["code"] = deny.Code
        }
        return c.JSON(http.StatusForbidden, body)
    case errors.Is(err, service.ErrNotFound):
        return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
    }

    e.Log.WithError(err).WithFields(logrus.Fields{
        "method": c.Request().Method,
        "path":   c.Path(),
    }).Error("internal error")
    body := echo.Map{"error": "internal server error"}
    if e.Dev {
        body["detail"] = err.Error()
    }
    return c.JSON(http.StatusInternalServerError, body)
}

// outcome labels an operation result for the business counters.
func outcome(err error) string {
    switch {
    case err == nil:
        return metrics.OutcomeSuccess
    case errors.Is(err, service.ErrValidation), errors.Is(err, service.ErrInvalidCredentials):
        return metrics.OutcomeInvalid
    case errors.Is(err, service.ErrUnauthorized):
        return metrics.OutcomeUnauthorized
    case errors.Is(err, service.ErrForbidden):
        return metrics.OutcomeForbidden
    case errors.Is(err, service.ErrNotFound):
        return metrics.OutcomeNotFound
    default:
        return metrics.OutcomeError
    }
}
