// Package queue defines message payloads exchanged over the message
// broker and the background consumer that drains them.
package queue

// BookingConfirmedEvent is published when a booking is successfully
// admitted.  It carries enough information for downstream consumers to
// log, notify, or feed analytics without querying the primary database.
type BookingConfirmedEvent struct {
    BookingID       uint64 `json:"booking_id"`
    UserID          uint64 `json:"user_id"`
    EventID         uint64 `json:"event_id"`
    EventTitle      string `json:"event_title"`
    Location        string `json:"location"`
    StartsAt        string `json:"starts_at"`
    EndsAt          string `json:"ends_at"`
    Quantity        int64  `json:"quantity"`
    TotalPriceCents int64  `json:"total_price_cents"`
    Provider        string `json:"provider"`
    ConfirmedAt     string `json:"confirmed_at"`
}
