package service

import (
    "context"
    "log"
    "time"

    "github.com/robfig/cron/v3"
)

// reminderWindow is how far ahead of an event's start the reminder
// sweep looks.
const reminderWindow = 24 * time.Hour

// Maintenance runs the periodic housekeeping sweeps: expiring events
// whose end time has passed and sending reminders for events starting
// within the next day.  Both sweeps are idempotent; failures are logged
// and retried by the next run, never fatal to the process.
type Maintenance struct {
    events   EventStore
    ledger   BookingLedger
    notifier Notifier
}

// NewMaintenance constructs the scheduler's worker.
func NewMaintenance(events EventStore, ledger BookingLedger, notifier Notifier) *Maintenance {
    if events == nil || ledger == nil {
        panic("nil store passed to NewMaintenance")
    }
    return &Maintenance{events: events, ledger: ledger, notifier: notifier}
}

// Start runs one sweep immediately and schedules an hourly cadence.
// The returned cron can be stopped on shutdown.
func (m *Maintenance) Start() *cron.Cron {
    m.sweep()
    c := cron.New()
    if _, err := c.AddFunc("@hourly", m.sweep); err != nil {
        log.Printf("maintenance: schedule failed: %v", err)
    }
    c.Start()
    return c
}

func (m *Maintenance) sweep() {
    ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
    defer cancel()
    now := time.Now().UTC()
    if err := m.ExpireSweep(ctx, now); err != nil {
        log.Printf("maintenance: expire sweep failed: %v", err)
    }
    if err := m.RemindSweep(ctx, now); err != nil {
        log.Printf("maintenance: remind sweep failed: %v", err)
    }
}

// ExpireSweep flips is_expired (and unpublishes) every event whose end
// time has passed.  Already-expired events are never revisited, so
// running the sweep twice has no additional effect.
func (m *Maintenance) ExpireSweep(ctx context.Context, now time.Time) error {
    n, err := m.events.ExpireEnded(ctx, now)
    if err != nil {
        return err
    }
    if n > 0 {
        log.Printf("maintenance: expired %d event(s)", n)
    }
    return nil
}

// RemindSweep sends a reminder for every confirmed, not-yet-reminded
// booking whose event starts within the next 24 hours.  Each booking is
// handled in isolation: one failed send neither blocks the others nor
// is retried in this sweep. reminder_sent is only set on success, so
// the next hourly run picks the failure up again (at-least-once).
func (m *Maintenance) RemindSweep(ctx context.Context, now time.Time) error {
    due, err := m.ledger.DueReminders(ctx, now, reminderWindow)
    if err != nil {
        return err
    }
    for _, d := range due {
        if m.notifier != nil {
            subject, text, html := ReminderEmail(d.Name, d.Event, d.Booking)
            if err := m.notifier.Send(d.Email, subject, text, html, nil); err != nil {
                log.Printf("maintenance: reminder for booking %d failed: %v", d.Booking.ID, err)
                continue
            }
        }
        if err := m.ledger.MarkReminderSent(ctx, d.Booking.ID); err != nil {
            log.Printf("maintenance: mark reminder for booking %d failed: %v", d.Booking.ID, err)
        }
    }
    return nil
}
