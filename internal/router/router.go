package router // router wires the API route tree onto an Echo instance

import (
    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"

    "eventia/internal/config"
    "eventia/internal/handler"
    "eventia/internal/middleware"
    "eventia/internal/model"
)

// Handlers groups every handler the route tree needs.
type Handlers struct {
    Auth     *handler.AuthHandler
    Events   *handler.EventHandler
    Bookings *handler.BookingHandler
    Payments *handler.PaymentHandler
    Admin    *handler.AdminHandler
}

// Register wires the full API under /api.  The public catalog routes are
// cached and everything is rate limited; both middlewares become no-ops
// when Redis is unavailable.
//
// Route map:
//
//  GET    /api/health                            liveness probe
//  POST   /api/auth/register                     create account
//  POST   /api/auth/login                        obtain access token
//  GET    /api/auth/me                           own profile
//  PUT    /api/auth/me                           partial profile update
//  GET    /api/events                            published events
//  GET    /api/events/:id                        one published event
//  GET    /api/events/:id/availability           live seat snapshot
//  GET    /api/events/manage                     admin: own managed events
//  POST   /api/events                            admin: create event
//  PUT    /api/events/:id                        admin: edit managed event
//  DELETE /api/events/:id                        admin: delete managed event
//  POST   /api/bookings                          user: book a free event
//  GET    /api/bookings/me                       user: own bookings
//  GET    /api/bookings                          admin: full ledger
//  PATCH  /api/bookings/:id/cancel               owner or admin: cancel
//  POST   /api/payments/stripe/checkout          user: open checkout session
//  GET    /api/payments/stripe/confirm           user: reconcile payment
//  PUT    /api/admin/admins/:id/managed-events   admin: replace managed set
func Register(e *echo.Echo, h Handlers, cfg config.Config, rdb *redis.Client) {
    api := e.Group("/api")
    api.Use(middleware.RateLimit(config.LoadRateLimitConfig(), rdb))

    api.GET("/health", handler.Health)

    auth := api.Group("/auth")
    auth.POST("/register", h.Auth.Register)
    auth.POST("/login", h.Auth.Login)
    auth.GET("/me", h.Auth.Me, middleware.JWTAuth(cfg.JWTSecret))
    auth.PUT("/me", h.Auth.UpdateMe, middleware.JWTAuth(cfg.JWTSecret))

    // Public catalog, cached.  Registration order matters: /manage must
    // be declared before /:id so it is not swallowed by the param route.
    cache := middleware.ResponseCache(config.LoadCacheConfig(), rdb)
    api.GET("/events", h.Events.List, cache)
    api.GET("/events/manage", h.Events.Managed,
        middleware.JWTAuth(cfg.JWTSecret), middleware.RequireRole(model.RoleAdmin))
    api.GET("/events/:id", h.Events.Get, cache)
    api.GET("/events/:id/availability", h.Events.Availability)

    // Organizer mutations.
    organizer := api.Group("/events",
        middleware.JWTAuth(cfg.JWTSecret), middleware.RequireRole(model.RoleAdmin))
    organizer.POST("", h.Events.Create)
    organizer.PUT("/:id", h.Events.Update)
    organizer.DELETE("/:id", h.Events.Delete)

    // Booking and payment routes require a session; role checks beyond
    // that live in the services (admins cannot book) and route guards.
    bookings := api.Group("/bookings", middleware.JWTAuth(cfg.JWTSecret))
    bookings.POST("", h.Bookings.Create, middleware.RequireRole(model.RoleUser))
    bookings.GET("/me", h.Bookings.Mine)
    bookings.GET("", h.Bookings.All, middleware.RequireRole(model.RoleAdmin))
    bookings.PATCH("/:id/cancel", h.Bookings.Cancel)

    payments := api.Group("/payments/stripe",
        middleware.JWTAuth(cfg.JWTSecret), middleware.RequireRole(model.RoleUser))
    payments.POST("/checkout", h.Payments.Checkout)
    payments.GET("/confirm", h.Payments.Confirm)

    admin := api.Group("/admin",
        middleware.JWTAuth(cfg.JWTSecret), middleware.RequireRole(model.RoleAdmin))
    admin.PUT("/admins/:id/managed-events", h.Admin.SetManagedEvents)
}
