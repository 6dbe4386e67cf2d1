package main // API server entry point

import (
    "log"

    "github.com/joho/godotenv"
    "github.com/labstack/echo/v4"
    echomw "github.com/labstack/echo/v4/middleware"

    "eventia/internal/config"
    "eventia/internal/database"
    "eventia/internal/handler"
    "eventia/internal/queue"
    "eventia/internal/repository"
    "eventia/internal/router"
    "eventia/internal/service"
)

func main() {
    // .env is optional; in production everything comes from the real
    // environment.
    if err := godotenv.Load(); err != nil {
        log.Println("no .env file found, using environment")
    }
    cfg := config.Load()

    db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
    if err != nil {
        log.Fatalf("database connect failed: %v", err)
    }
    defer db.Close()

    rdb := config.NewRedisClient()
    if rdb == nil {
        log.Println("redis unavailable; rate limiting and response cache disabled")
    }

    users := repository.NewUserRepo(db)
    events := repository.NewEventRepo(db)
    bookings := repository.NewBookingRepo(db)

    notifier := service.NewNotifier(cfg)
    provider := service.NewStripeProvider(cfg.StripeSecret, cfg.ClientURL)
    if provider == nil {
        log.Println("stripe secret missing; paid checkout disabled")
    }

    bookingSvc := service.NewBookingService(events, bookings, users, notifier, queue.PublishBookingConfirmed)

    // Keep the interface nil when Stripe is off; a typed nil pointer
    // would defeat the provider == nil checks in the service.
    var checkout service.CheckoutProvider
    if provider != nil {
        checkout = provider
    }
    paymentSvc := service.NewPaymentService(events, bookings, bookingSvc, checkout)

    // Hourly expiry and reminder sweeps.
    maintenance := service.NewMaintenance(events, bookings, notifier)
    cronRunner := maintenance.Start()
    defer cronRunner.Stop()

    // Broker consumer writes the booking audit log; it reconnects on its
    // own and never brings the API down.
    go func() {
        if err := queue.StartBookingConsumer(); err != nil {
            log.Printf("booking consumer stopped: %v", err)
        }
    }()

    e := echo.New()
    e.HideBanner = true
    e.Use(echomw.Recover())
    e.Use(echomw.Logger())
    e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
        AllowOrigins:     []string{cfg.ClientURL},
        AllowMethods:     []string{echo.GET, echo.POST, echo.PUT, echo.PATCH, echo.DELETE},
        AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAuthorization},
        AllowCredentials: true,
    }))

    router.Register(e, router.Handlers{
        Auth:     handler.NewAuthHandler(cfg, users),
        Events:   handler.NewEventHandler(events, users, bookings),
        Bookings: handler.NewBookingHandler(bookingSvc),
        Payments: handler.NewPaymentHandler(paymentSvc),
        Admin:    handler.NewAdminHandler(users),
    }, cfg, rdb)

    addr := ":" + cfg.Port
    log.Printf("listening on %s (env=%s)", addr, cfg.Env)
    if err := e.Start(addr); err != nil {
        log.Fatal(err)
    }
}
