package handler // handler defines the HTTP endpoints of the API

import (
    "errors"
    "net/http"
    "strconv"

    "github.com/labstack/echo/v4"

    "eventia/internal/model"
    "eventia/internal/repository"
    "eventia/internal/service"
)

// getUserID extracts the authenticated user's ID from the context.  The
// JWT middleware stores it as uint64, but claims that skipped the
// middleware's conversion can surface as other numeric types.
func getUserID(c echo.Context) (uint64, error) {
    switch t := c.Get("user_id").(type) {
    case uint64:
        return t, nil
    case int64:
        return uint64(t), nil
    case int:
        return uint64(t), nil
    case float64:
        return uint64(t), nil
    case string:
        if n, err := strconv.ParseUint(t, 10, 64); err == nil {
            return n, nil
        }
    }
    return 0, errors.New("invalid user_id in context")
}

// getRole returns the role claim, empty when absent.
func getRole(c echo.Context) string {
    role, _ := c.Get("role").(string)
    return role
}

// paramID parses a numeric path parameter.
func paramID(c echo.Context, name string) (uint64, error) {
    return strconv.ParseUint(c.Param(name), 10, 64)
}

// fail maps a domain error onto an HTTP response.  Unknown errors are
// reported as 500 without leaking internals.
func fail(c echo.Context, err error) error {
    status := http.StatusInternalServerError
    msg := "internal error"
    switch {
    case errors.Is(err, repository.ErrEventNotFound):
        status, msg = http.StatusNotFound, "event not found"
    case errors.Is(err, repository.ErrBookingNotFound):
        status, msg = http.StatusNotFound, "booking not found"
    case errors.Is(err, repository.ErrUserNotFound):
        status, msg = http.StatusNotFound, "user not found"
    case errors.Is(err, repository.ErrEmailExists):
        status, msg = http.StatusConflict, "email already exists"
    case errors.Is(err, repository.ErrConflict):
        status, msg = http.StatusConflict, "conflicts with existing bookings"
    case errors.Is(err, service.ErrForbidden):
        status, msg = http.StatusForbidden, "forbidden"
    case errors.Is(err, service.ErrInvalidQuantity):
        status, msg = http.StatusBadRequest, "quantity must be a positive integer"
    case errors.Is(err, service.ErrClosed):
        status, msg = http.StatusConflict, "event has already started"
    case errors.Is(err, service.ErrSoldOut):
        status, msg = http.StatusConflict, "not enough seats remaining"
    case errors.Is(err, service.ErrPaymentRequired):
        status, msg = http.StatusPaymentRequired, "this event requires payment"
    case errors.Is(err, service.ErrFreeEvent):
        status, msg = http.StatusBadRequest, "free events do not use checkout"
    case errors.Is(err, service.ErrPaymentIncomplete):
        status, msg = http.StatusPaymentRequired, "payment has not been completed"
    case errors.Is(err, service.ErrMalformedSession):
        status, msg = http.StatusBadRequest, "checkout session is malformed"
    case errors.Is(err, service.ErrSessionNotFound):
        status, msg = http.StatusNotFound, "checkout session not found"
    case errors.Is(err, service.ErrPaymentsDisabled):
        status, msg = http.StatusServiceUnavailable, "payments are not configured"
    case errors.Is(err, service.ErrUpstream):
        status, msg = http.StatusBadGateway, "payment provider error"
    case errors.Is(err, model.ErrInvalidTransition):
        status, msg = http.StatusConflict, "booking cannot be cancelled in its current state"
    }
    return c.JSON(status, echo.Map{"error": msg})
}
