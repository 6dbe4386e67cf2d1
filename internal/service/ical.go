package service

import (
    "fmt"
    "strings"
    "time"

    "eventia/internal/model"
)

// icalTime is the iCalendar UTC basic format (RFC 5545 DATE-TIME, form 2).
const icalTime = "20060102T150405Z"

// CalendarInvite builds the VCALENDAR attachment for a booking.  The
// output is byte-compatible with what calendar clients already accept
// from Eventia: fixed property order, CRLF line endings, UID of the form
// {bookingID}@eventia.  Do not reorder lines or switch the separator.
func CalendarInvite(ev model.Event, b model.Booking, now time.Time) Attachment {
    lines := []string{
        "BEGIN:VCALENDAR",
        "VERSION:2.0",
        "PRODID:-//Eventia//EN",
        "BEGIN:VEVENT",
        fmt.Sprintf("UID:%d@eventia", b.ID),
        "DTSTAMP:" + now.UTC().Format(icalTime),
        "DTSTART:" + ev.StartTime.UTC().Format(icalTime),
        "DTEND:" + ev.EndTime.UTC().Format(icalTime),
        "SUMMARY:" + ev.Title,
        fmt.Sprintf("DESCRIPTION:You booked %d ticket(s).", b.Quantity),
        "LOCATION:" + ev.Location,
        "END:VEVENT",
        "END:VCALENDAR",
    }
    name := ev.Title
    if name == "" {
        name = "event"
    }
    return Attachment{
        Filename:    name + ".ics",
        ContentType: "text/calendar",
        Content:     []byte(strings.Join(lines, "\r\n")),
    }
}
