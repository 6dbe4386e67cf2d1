package handler

import (
    "context"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "eventia/internal/model"
    "eventia/internal/repository"
)

// AdminHandler covers administrative operations that act on other
// accounts, currently just managed-events assignment.
type AdminHandler struct {
    Users *repository.UserRepo
}

func NewAdminHandler(u *repository.UserRepo) *AdminHandler {
    if u == nil {
        panic("nil repository passed to NewAdminHandler")
    }
    return &AdminHandler{Users: u}
}

type managedEventsReq struct {
    EventIDs []uint64 `json:"event_ids"`
}

// SetManagedEvents replaces an admin's managed-events set.  The target
// must be an admin account; granting management to a regular user would
// be meaningless since only admins pass the organizer route guard.
func (h *AdminHandler) SetManagedEvents(c echo.Context) error {
    id, err := paramID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
    }
    var req managedEventsReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    u, err := h.Users.GetByID(ctx, id)
    if err != nil {
        return fail(c, err)
    }
    if u.Role != model.RoleAdmin {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "target user is not an admin"})
    }
    if err := h.Users.ReplaceManagedEvents(ctx, id, req.EventIDs); err != nil {
        return fail(c, err)
    }
    u, err = h.Users.GetByID(ctx, id)
    if err != nil {
        return fail(c, err)
    }
    return c.JSON(http.StatusOK, u)
}
