package service

import (
    "context"
    "time"

    "eventia/internal/model"
    "eventia/internal/repository"
)

// EventStore is the read/maintenance surface of the event table that the
// core services need.  Implemented by repository.EventRepo.
type EventStore interface {
    GetByID(ctx context.Context, id uint64) (model.Event, error)
    ExpireEnded(ctx context.Context, now time.Time) (int64, error)
}

// BookingLedger is the booking table surface.  Implemented by
// repository.BookingRepo.  Admit must be atomic with respect to
// concurrent admissions on the same event (capacity re-read and insert
// under one lock); Create inserts without the capacity gate and is used
// by payment reconciliation, where the charge is already captured.
// Both report repository.ErrDuplicatePayment on a payment_intent_id
// collision.
type BookingLedger interface {
    Availability(ctx context.Context, eventID uint64) (repository.Availability, error)
    Admit(ctx context.Context, rec repository.AdmitRecord) (model.Booking, error)
    Create(ctx context.Context, rec repository.AdmitRecord) (model.Booking, error)
    GetByID(ctx context.Context, id uint64) (model.Booking, error)
    FindByPaymentIntent(ctx context.Context, intentID string) (model.Booking, error)
    UpdateStatus(ctx context.Context, id uint64, from, to model.BookingStatus) error
    ListByUser(ctx context.Context, userID uint64) ([]repository.BookingDetail, error)
    ListAll(ctx context.Context) ([]repository.BookingDetail, error)
    DueReminders(ctx context.Context, now time.Time, window time.Duration) ([]repository.ReminderDue, error)
    MarkReminderSent(ctx context.Context, bookingID uint64) error
}

// UserDirectory resolves booking owners for notifications.  Implemented
// by repository.UserRepo.
type UserDirectory interface {
    GetByID(ctx context.Context, id uint64) (model.User, error)
}

// Attachment is a file attached to an outgoing email (calendar invites).
type Attachment struct {
    Filename    string
    ContentType string
    Content     []byte
}

// Notifier sends email best-effort.  Failures are logged by callers and
// never affect the outcome of the operation that triggered the send.
type Notifier interface {
    Send(to, subject, text, html string, attachments []Attachment) error
}

// CheckoutSession is the provider-neutral view of a hosted checkout
// session used by reconciliation.
type CheckoutSession struct {
    ID              string
    Paid            bool
    PaymentIntentID string
    Metadata        map[string]string
}

// CheckoutProvider abstracts the external payment provider.  The
// production implementation is Stripe Checkout.
type CheckoutProvider interface {
    // CreateSession opens a hosted checkout for quantity tickets to the
    // event and returns the redirect URL.  Metadata must round-trip
    // eventId, quantity and userId for reconciliation.
    CreateSession(ctx context.Context, ev model.Event, quantity int64, userID uint64) (string, error)
    // GetSession retrieves a session by ID; ErrSessionNotFound when the
    // provider does not know it.
    GetSession(ctx context.Context, id string) (CheckoutSession, error)
}
