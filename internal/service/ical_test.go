package service

import (
    "strings"
    "testing"
    "time"

    "eventia/internal/model"
)

func TestCalendarInviteFormat(t *testing.T) {
    ev := model.Event{
        Title:     "Go Conference",
        Location:  "Hall 4",
        StartTime: time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
        EndTime:   time.Date(2026, 3, 14, 17, 0, 0, 0, time.UTC),
    }
    b := model.Booking{ID: 42, Quantity: 3}
    now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

    got := CalendarInvite(ev, b, now)

    if got.Filename != "Go Conference.ics" {
        t.Fatalf("filename = %q", got.Filename)
    }
    if got.ContentType != "text/calendar" {
        t.Fatalf("content type = %q", got.ContentType)
    }

    want := strings.Join([]string{
        "BEGIN:VCALENDAR",
        "VERSION:2.0",
        "PRODID:-//Eventia//EN",
        "BEGIN:VEVENT",
        "UID:42@eventia",
        "DTSTAMP:20260301T120000Z",
        "DTSTART:20260314T093000Z",
        "DTEND:20260314T170000Z",
        "SUMMARY:Go Conference",
        "DESCRIPTION:You booked 3 ticket(s).",
        "LOCATION:Hall 4",
        "END:VEVENT",
        "END:VCALENDAR",
    }, "\r\n")
    if string(got.Content) != want {
        t.Fatalf("invite body mismatch:\n%q\nwant:\n%q", got.Content, want)
    }
}

func TestCalendarInviteUntitledEvent(t *testing.T) {
    got := CalendarInvite(model.Event{}, model.Booking{ID: 1, Quantity: 1}, time.Now().UTC())
    if got.Filename != "event.ics" {
        t.Fatalf("filename = %q, want event.ics fallback", got.Filename)
    }
}
