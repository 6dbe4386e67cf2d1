package model

import "time"

// Event categories and types accepted by the API.  Anything outside
// these sets is rejected at the handler boundary.
var (
    EventCategories = map[string]bool{
        "concert": true, "conference": true, "sports": true, "workshop": true,
        "webinar": true, "meetup": true, "festival": true, "other": true,
    }
    EventTypes = map[string]bool{
        "in-person": true, "online": true, "hybrid": true, "other": true,
    }
)

// Event represents a row in the `events` table.  Times are stored and
// served in UTC.  Prices are integer cents.  IsExpired flips false→true
// exactly once (by the maintenance sweep) and never reverts.
//
// Fields:
//  ID          – primary key identifier.
//  Title       – display title.
//  Description – display description.
//  Category    – one of EventCategories.
//  EventType   – one of EventTypes.
//  Location    – free-form venue text (also used on calendar invites).
//  StartTime   – when the event begins; bookings close at this instant.
//  EndTime     – when the event ends; expiry happens after this instant.
//  Capacity    – total seats sellable for the event.
//  PriceCents  – ticket price in cents; 0 together with IsFree means free.
//  IsFree      – explicit free flag; free iff IsFree or PriceCents == 0.
//  ImageURL    – optional hosted image reference.
//  IsPublished – whether the event appears in public listings.
//  IsExpired   – set by the expiry sweep once EndTime has passed.
type Event struct {
    ID          uint64    `json:"id"`
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
    ImageURL    string    `json:"image_url,omitempty"`
    IsPublished bool      `json:"is_published"`
    IsExpired   bool      `json:"is_expired"`
    CreatedAt   time.Time `json:"created_at"`
    UpdatedAt   time.Time `json:"updated_at"`
}

// Free reports whether the event requires no payment.
func (e Event) Free() bool {
    return e.IsFree || e.PriceCents == 0
}

// Started reports whether bookings are closed because the event has begun.
func (e Event) Started(now time.Time) bool {
    return !e.StartTime.After(now)
}
