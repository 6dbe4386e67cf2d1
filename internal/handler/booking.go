package handler

import (
    "context"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "eventia/internal/service"
)

// BookingHandler exposes the booking endpoints on top of the admission
// controller.  Longer timeouts than the CRUD handlers: admission holds a
// row lock and may queue behind concurrent requests for a hot event.
type BookingHandler struct {
    Bookings *service.BookingService
}

func NewBookingHandler(b *service.BookingService) *BookingHandler {
    if b == nil {
        panic("nil service passed to NewBookingHandler")
    }
    return &BookingHandler{Bookings: b}
}

type bookReq struct {
    EventID  uint64 `json:"event_id"`
    Quantity int64  `json:"quantity"`
}

// Create books seats on a free event for the authenticated user.  Paid
// events are rejected here with 402 and must go through checkout.
func (h *BookingHandler) Create(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var req bookReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
    defer cancel()

    detail, err := h.Bookings.Admit(ctx, uid, getRole(c), req.EventID, req.Quantity)
    if err != nil {
        return fail(c, err)
    }
    return c.JSON(http.StatusCreated, detail)
}

// Mine lists the caller's bookings, newest first.
func (h *BookingHandler) Mine(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    details, err := h.Bookings.ListForUser(ctx, uid)
    if err != nil {
        return fail(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"bookings": details})
}

// All lists every booking in the ledger.  Admin only; the route guard
// enforces the role.
func (h *BookingHandler) All(c echo.Context) error {
    ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
    defer cancel()

    details, err := h.Bookings.ListAll(ctx)
    if err != nil {
        return fail(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"bookings": details})
}

// Cancel transitions a booking to cancelled.  Owners cancel their own;
// admins may cancel any.  Cancelling twice is a 409.
func (h *BookingHandler) Cancel(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id, err := paramID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    detail, err := h.Bookings.Cancel(ctx, uid, getRole(c), id)
    if err != nil {
        return fail(c, err)
    }
    return c.JSON(http.StatusOK, detail)
}
