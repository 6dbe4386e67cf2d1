package handler

import (
    "context"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "eventia/internal/model"
    "eventia/internal/repository"
)

// EventHandler serves the public catalog and the organizer CRUD.
// Organizer mutations are scoped by the managed-events capability: an
// admin may only touch events in their managed set.
type EventHandler struct {
    Events   *repository.EventRepo
    Users    *repository.UserRepo
    Bookings *repository.BookingRepo
}

func NewEventHandler(e *repository.EventRepo, u *repository.UserRepo, b *repository.BookingRepo) *EventHandler {
    if e == nil || u == nil || b == nil {
        panic("nil repository passed to NewEventHandler")
    }
    return &EventHandler{Events: e, Users: u, Bookings: b}
}

type eventReq struct {
    Title       string    `json:"title"`
    Description string    `json:"description"`
    Category    string    `json:"category"`
    EventType   string    `json:"event_type"`
    Location    string    `json:"location"`
    StartTime   time.Time `json:"start_time"`
    EndTime     time.Time `json:"end_time"`
    Capacity    int64     `json:"capacity"`
    PriceCents  int64     `json:"price_cents"`
    IsFree      bool      `json:"is_free"`
    ImageURL    string    `json:"image_url"`
    IsPublished bool      `json:"is_published"`
}

// validate normalizes and checks an event payload, returning a
// client-facing message when it is unusable.
func (r *eventReq) validate() string {
    r.Title = strings.TrimSpace(r.Title)
    r.Location = strings.TrimSpace(r.Location)
    r.Category = strings.ToLower(strings.TrimSpace(r.Category))
    r.EventType = strings.ToLower(strings.TrimSpace(r.EventType))
    switch {
    case r.Title == "":
        return "title is required"
    case r.Location == "":
        return "location is required"
    case !model.EventCategories[r.Category]:
        return "unknown category"
    case !model.EventTypes[r.EventType]:
        return "unknown event type"
    case r.StartTime.IsZero() || r.EndTime.IsZero():
        return "start_time and end_time are required"
    case !r.EndTime.After(r.StartTime):
        return "end_time must be after start_time"
    case r.Capacity <= 0:
        return "capacity must be positive"
    case r.PriceCents < 0:
        return "price_cents cannot be negative"
    }
    // A free event never carries a price; a zero price means free.
    if r.IsFree {
        r.PriceCents = 0
    }
    if r.PriceCents == 0 {
        r.IsFree = true
    }
    return ""
}

func (r *eventReq) apply(ev *model.Event) {
    ev.Title = r.Title
    ev.Description = r.Description
    ev.Category = r.Category
    ev.EventType = r.EventType
    ev.Location = r.Location
    ev.StartTime = r.StartTime.UTC()
    ev.EndTime = r.EndTime.UTC()
    ev.Capacity = r.Capacity
    ev.PriceCents = r.PriceCents
    ev.IsFree = r.IsFree
    ev.ImageURL = strings.TrimSpace(r.ImageURL)
    ev.IsPublished = r.IsPublished
}

// List returns all published events, soonest first.
func (h *EventHandler) List(c echo.Context) error {
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    events, err := h.Events.ListPublished(ctx)
    if err != nil {
        return fail(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"events": events})
}

// Get returns one event by ID.  Unpublished events are visible only
// through the managed listing, not here.
func (h *EventHandler) Get(c echo.Context) error {
    id, err := paramID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    ev, err := h.Events.GetByID(ctx, id)
    if err != nil {
        return fail(c, err)
    }
    if !ev.IsPublished {
        return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
    }
    return c.JSON(http.StatusOK, ev)
}

// Availability returns the live seat snapshot for an event.
func (h *EventHandler) Availability(c echo.Context) error {
    id, err := paramID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    av, err := h.Bookings.Availability(ctx, id)
    if err != nil {
        return fail(c, err)
    }
    return c.JSON(http.StatusOK, av)
}

// Managed returns the events in the calling admin's managed set,
// published or not.
func (h *EventHandler) Managed(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    ids, err := h.Users.ManagedEventIDs(ctx, uid)
    if err != nil {
        return fail(c, err)
    }
    events, err := h.Events.ListByIDs(ctx, ids)
    if err != nil {
        return fail(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"events": events})
}

// Create inserts a new event and grants the creating admin management
// of it, so a fresh organizer can immediately edit what they created.
func (h *EventHandler) Create(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var req eventReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    if msg := req.validate(); msg != "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    var ev model.Event
    req.apply(&ev)
    if err := h.Events.Create(ctx, &ev); err != nil {
        return fail(c, err)
    }
    if err := h.Users.AddManagedEvent(ctx, uid, ev.ID); err != nil {
        return fail(c, err)
    }
    return c.JSON(http.StatusCreated, ev)
}

// Update applies an organizer edit to a managed event.  Capacity can
// never drop below the already booked total; the repository enforces
// that inside the write transaction.
func (h *EventHandler) Update(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id, err := paramID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
    }
    var req eventReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    if msg := req.validate(); msg != "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    ok, err := h.Users.ManagesEvent(ctx, uid, id)
    if err != nil {
        return fail(c, err)
    }
    if !ok {
        return c.JSON(http.StatusForbidden, echo.Map{"error": "you do not manage this event"})
    }
    ev, err := h.Events.GetByID(ctx, id)
    if err != nil {
        return fail(c, err)
    }
    req.apply(&ev)
    if err := h.Events.Update(ctx, &ev); err != nil {
        return fail(c, err)
    }
    return c.JSON(http.StatusOK, ev)
}

// Delete removes a managed event.  Events with non-cancelled bookings
// cannot be deleted.
func (h *EventHandler) Delete(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id, err := paramID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    ok, err := h.Users.ManagesEvent(ctx, uid, id)
    if err != nil {
        return fail(c, err)
    }
    if !ok {
        return c.JSON(http.StatusForbidden, echo.Map{"error": "you do not manage this event"})
    }
    if err := h.Events.Delete(ctx, id); err != nil {
        return fail(c, err)
    }
    return c.NoContent(http.StatusNoContent)
}
