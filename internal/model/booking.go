package model

import (
    "errors"
    "time"
)

// BookingStatus is the lifecycle state of a booking.  The state machine
// is small and strictly monotonic:
//
//  pending   → confirmed
//  pending   → cancelled
//  confirmed → cancelled
//
// Cancelled is terminal.  Confirmed holds seats; cancelled releases them.
type BookingStatus string

const (
    BookingPending   BookingStatus = "pending"
    BookingConfirmed BookingStatus = "confirmed"
    BookingCancelled BookingStatus = "cancelled"
)

// ErrInvalidTransition is returned when a status change is not in the
// transition table above (e.g. cancelling an already cancelled booking).
var ErrInvalidTransition = errors.New("invalid booking status transition")

var bookingTransitions = map[BookingStatus]map[BookingStatus]bool{
    BookingPending:   {BookingConfirmed: true, BookingCancelled: true},
    BookingConfirmed: {BookingCancelled: true},
    BookingCancelled: {},
}

// CanTransitionTo reports whether moving from s to next is legal.
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
    return bookingTransitions[s][next]
}

// Valid reports whether s is a known status value.
func (s BookingStatus) Valid() bool {
    _, ok := bookingTransitions[s]
    return ok
}

// PaymentProvider identifies how a booking was paid for.
type PaymentProvider string

const (
    ProviderStripe PaymentProvider = "stripe"
    ProviderPaypal PaymentProvider = "paypal"
    ProviderFree   PaymentProvider = "free"
)

// Booking represents a row in the `bookings` table.  The user and event
// references are immutable after creation.  TotalPriceCents snapshots
// price × quantity at creation time and is never recomputed.
// PaymentIntentID carries the external payment reference and is UNIQUE
// in the schema; it is the idempotency key for payment reconciliation.
// ReminderSent flips false→true exactly once, on a successful reminder.
type Booking struct {
    ID              uint64          `json:"id"`
    UserID          uint64          `json:"user_id"`
    EventID         uint64          `json:"event_id"`
    Quantity        int64           `json:"quantity"`
    TotalPriceCents int64           `json:"total_price_cents"`
    Status          BookingStatus   `json:"status"`
    PaymentProvider PaymentProvider `json:"payment_provider"`
    PaymentIntentID string          `json:"payment_intent_id,omitempty"`
    ReminderSent    bool            `json:"reminder_sent"`
    CreatedAt       time.Time       `json:"created_at"`
    UpdatedAt       time.Time       `json:"updated_at"`
}
