package service

import "eventia/internal/repository"

// The SQL repositories must satisfy the storage interfaces the services
// are wired with in cmd/server.  These assertions catch a drifted
// method set at compile time, before the in-memory fakes can mask it.
var (
    _ EventStore    = (*repository.EventRepo)(nil)
    _ BookingLedger = (*repository.BookingRepo)(nil)
    _ UserDirectory = (*repository.UserRepo)(nil)

    _ CheckoutProvider = (*StripeProvider)(nil)
    _ Notifier         = (*SMTPNotifier)(nil)
    _ Notifier         = LogNotifier{}
)
