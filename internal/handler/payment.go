package handler

import (
    "context"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "eventia/internal/service"
)

// PaymentHandler exposes checkout creation and payment confirmation.
type PaymentHandler struct {
    Payments *service.PaymentService
}

func NewPaymentHandler(p *service.PaymentService) *PaymentHandler {
    if p == nil {
        panic("nil service passed to NewPaymentHandler")
    }
    return &PaymentHandler{Payments: p}
}

type checkoutReq struct {
    EventID  uint64 `json:"event_id"`
    Quantity int64  `json:"quantity"`
}

// Checkout opens a hosted payment session for a priced event and
// returns the URL to redirect the client to.
func (h *PaymentHandler) Checkout(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var req checkoutReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 15*time.Second)
    defer cancel()

    url, err := h.Payments.CreateCheckout(ctx, uid, getRole(c), req.EventID, req.Quantity)
    if err != nil {
        return fail(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"url": url})
}

// Confirm reconciles a completed checkout session into a booking.  The
// session ID arrives as a query parameter because the payment provider
// redirects the browser here with ?session_id=...; calling it again
// with the same session returns the same booking.
func (h *PaymentHandler) Confirm(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    sessionID := strings.TrimSpace(c.QueryParam("session_id"))
    if sessionID == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "session_id required"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 15*time.Second)
    defer cancel()

    detail, err := h.Payments.Reconcile(ctx, uid, sessionID)
    if err != nil {
        return fail(c, err)
    }
    return c.JSON(http.StatusOK, detail)
}
