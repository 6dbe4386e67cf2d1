package repository

import (
    "context"
    "database/sql"
    "errors"
    "strings"
    "time"

    "eventia/internal/model"
)

// BookingRepo is the booking ledger: the source of truth for seat
// consumption.  Bookings are never physically deleted; cancellation is a
// status transition and seats free up because availability aggregation
// skips cancelled rows.
type BookingRepo struct {
    db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// Availability is a point-in-time seat snapshot for one event.
// Remaining is floored at zero even if a past race overbooked.
type Availability struct {
    Capacity  int64 `json:"capacity"`
    Booked    int64 `json:"booked"`
    Remaining int64 `json:"remaining"`
}

// AdmitRecord carries the fields of a booking about to be created.  The
// admission decision itself (capacity check + insert) happens inside
// Admit so concurrent requests cannot interleave between check and write.
type AdmitRecord struct {
    UserID          uint64
    EventID         uint64
    Quantity        int64
    TotalPriceCents int64
    Status          model.BookingStatus
    Provider        model.PaymentProvider
    PaymentIntentID string
}

// BookingDetail is a booking joined with its event, the shape returned
// to clients after admission and on ledger views.
type BookingDetail struct {
    model.Booking
    Event model.Event `json:"event"`
}

const bookingColumns = `id, user_id, event_id, quantity, total_price_cents,
       status, payment_provider, payment_intent_id, reminder_sent, created_at, updated_at`

func scanBooking(row interface{ Scan(...interface{}) error }) (model.Booking, error) {
    var b model.Booking
    var intentID sql.NullString
    err := row.Scan(
        &b.ID, &b.UserID, &b.EventID, &b.Quantity, &b.TotalPriceCents,
        &b.Status, &b.PaymentProvider, &intentID, &b.ReminderSent, &b.CreatedAt, &b.UpdatedAt,
    )
    if err != nil {
        return b, err
    }
    b.PaymentIntentID = intentID.String
    return b, nil
}

// Availability aggregates the booked quantity for an event from
// non-cancelled bookings.  Read-only and safe to call concurrently; the
// result is advisory for displays, the binding check happens in Admit.
func (r *BookingRepo) Availability(ctx context.Context, eventID uint64) (Availability, error) {
    var av Availability
    err := r.db.QueryRowContext(ctx, `SELECT capacity FROM events WHERE id = ?`, eventID).Scan(&av.Capacity)
    if errors.Is(err, sql.ErrNoRows) {
        return av, ErrEventNotFound
    }
    if err != nil {
        return av, err
    }
    err = r.db.QueryRowContext(ctx,
        `SELECT COALESCE(SUM(quantity),0) FROM bookings WHERE event_id = ? AND status <> 'cancelled'`,
        eventID).Scan(&av.Booked)
    if err != nil {
        return av, err
    }
    av.Remaining = av.Capacity - av.Booked
    if av.Remaining < 0 {
        av.Remaining = 0
    }
    return av, nil
}

// Admit creates a booking atomically with respect to capacity.  The
// event row is locked with SELECT ... FOR UPDATE, the booked total is
// re-read under that lock, and the insert only happens when
// remaining >= quantity.  Two requests racing for the last seats
// serialize on the row lock, so exactly one of them wins.
//
// A UNIQUE key on payment_intent_id makes reconciliation race-safe:
// a concurrent duplicate insert collides at the storage layer and is
// reported as ErrDuplicatePayment instead of creating a second booking.
func (r *BookingRepo) Admit(ctx context.Context, rec AdmitRecord) (model.Booking, error) {
    var b model.Booking
    tx, err := r.db.BeginTx(ctx, nil)
    if err != nil {
        return b, err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    // Row-level exclusive lock on the event: any concurrent admission on
    // the same event blocks here until we commit or roll back.
    var capacity int64
    err = tx.QueryRowContext(ctx, `SELECT capacity FROM events WHERE id = ? FOR UPDATE`, rec.EventID).Scan(&capacity)
    if errors.Is(err, sql.ErrNoRows) {
        return b, ErrEventNotFound
    }
    if err != nil {
        return b, err
    }

    var booked int64
    err = tx.QueryRowContext(ctx,
        `SELECT COALESCE(SUM(quantity),0) FROM bookings WHERE event_id = ? AND status <> 'cancelled'`,
        rec.EventID).Scan(&booked)
    if err != nil {
        return b, err
    }
    if capacity-booked < rec.Quantity {
        return b, ErrNoCapacity
    }

    res, err := tx.ExecContext(ctx,
        `INSERT INTO bookings (user_id, event_id, quantity, total_price_cents,
            status, payment_provider, payment_intent_id)
         VALUES (?,?,?,?,?,?,?)`,
        rec.UserID, rec.EventID, rec.Quantity, rec.TotalPriceCents,
        rec.Status, rec.Provider, nullable(rec.PaymentIntentID))
    if err != nil {
        // 1062 = ER_DUP_ENTRY on the payment_intent_id UNIQUE key
        if strings.Contains(strings.ToLower(err.Error()), "1062") {
            return b, ErrDuplicatePayment
        }
        return b, err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return b, err
    }
    b, err = scanBooking(tx.QueryRowContext(ctx,
        `SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, id))
    if err != nil {
        return b, err
    }
    if err := tx.Commit(); err != nil {
        return b, err
    }
    committed = true
    return b, nil
}

// Create inserts a booking without the capacity gate.  Payment
// reconciliation uses it because the charge is already captured; the
// UNIQUE key on payment_intent_id remains the only guard, so a
// concurrent duplicate surfaces as ErrDuplicatePayment just like in
// Admit.
func (r *BookingRepo) Create(ctx context.Context, rec AdmitRecord) (model.Booking, error) {
    var b model.Booking
    res, err := r.db.ExecContext(ctx,
        `INSERT INTO bookings (user_id, event_id, quantity, total_price_cents,
            status, payment_provider, payment_intent_id)
         VALUES (?,?,?,?,?,?,?)`,
        rec.UserID, rec.EventID, rec.Quantity, rec.TotalPriceCents,
        rec.Status, rec.Provider, nullable(rec.PaymentIntentID))
    if err != nil {
        // 1062 = ER_DUP_ENTRY on the payment_intent_id UNIQUE key
        if strings.Contains(strings.ToLower(err.Error()), "1062") {
            return b, ErrDuplicatePayment
        }
        return b, err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return b, err
    }
    return scanBooking(r.db.QueryRowContext(ctx,
        `SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, id))
}

// GetByID returns a single booking or ErrBookingNotFound.
func (r *BookingRepo) GetByID(ctx context.Context, id uint64) (model.Booking, error) {
    b, err := scanBooking(r.db.QueryRowContext(ctx,
        `SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, id))
    if errors.Is(err, sql.ErrNoRows) {
        return b, ErrBookingNotFound
    }
    return b, err
}

// FindByPaymentIntent looks a booking up by its idempotency key.
func (r *BookingRepo) FindByPaymentIntent(ctx context.Context, intentID string) (model.Booking, error) {
    b, err := scanBooking(r.db.QueryRowContext(ctx,
        `SELECT `+bookingColumns+` FROM bookings WHERE payment_intent_id = ?`, intentID))
    if errors.Is(err, sql.ErrNoRows) {
        return b, ErrBookingNotFound
    }
    return b, err
}

// UpdateStatus transitions a booking from one status to another with a
// conditional write.  When the row is no longer in the expected prior
// status, no row matches and ErrStaleStatus is returned, so two
// concurrent cancels cannot both report success.
func (r *BookingRepo) UpdateStatus(ctx context.Context, id uint64, from, to model.BookingStatus) error {
    res, err := r.db.ExecContext(ctx,
        `UPDATE bookings SET status = ? WHERE id = ? AND status = ?`, to, id, from)
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        return ErrStaleStatus
    }
    return nil
}

// ListByUser returns the user's bookings joined with their events,
// newest first.
func (r *BookingRepo) ListByUser(ctx context.Context, userID uint64) ([]BookingDetail, error) {
    return r.list(ctx, `WHERE b.user_id = ?`, userID)
}

// ListAll returns every booking joined with its event, newest first.
// Admin ledger view.
func (r *BookingRepo) ListAll(ctx context.Context) ([]BookingDetail, error) {
    return r.list(ctx, ``)
}

func (r *BookingRepo) list(ctx context.Context, where string, args ...interface{}) ([]BookingDetail, error) {
    q := `SELECT b.id, b.user_id, b.event_id, b.quantity, b.total_price_cents,
                 b.status, b.payment_provider, b.payment_intent_id, b.reminder_sent,
                 b.created_at, b.updated_at,
                 e.id, e.title, e.description, e.category, e.event_type, e.location,
                 e.start_time, e.end_time, e.capacity, e.price_cents, e.is_free, e.image_url,
                 e.is_published, e.is_expired, e.created_at, e.updated_at
          FROM bookings b
          JOIN events e ON e.id = b.event_id ` + where + `
          ORDER BY b.created_at DESC`
    rows, err := r.db.QueryContext(ctx, q, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    details := make([]BookingDetail, 0)
    for rows.Next() {
        var d BookingDetail
        var intentID, imageURL sql.NullString
        if err := rows.Scan(
            &d.ID, &d.UserID, &d.EventID, &d.Quantity, &d.TotalPriceCents,
            &d.Status, &d.PaymentProvider, &intentID, &d.ReminderSent,
            &d.CreatedAt, &d.UpdatedAt,
            &d.Event.ID, &d.Event.Title, &d.Event.Description, &d.Event.Category,
            &d.Event.EventType, &d.Event.Location, &d.Event.StartTime, &d.Event.EndTime,
            &d.Event.Capacity, &d.Event.PriceCents, &d.Event.IsFree, &imageURL,
            &d.Event.IsPublished, &d.Event.IsExpired, &d.Event.CreatedAt, &d.Event.UpdatedAt,
        ); err != nil {
            return nil, err
        }
        d.PaymentIntentID = intentID.String
        d.Event.ImageURL = imageURL.String
        details = append(details, d)
    }
    return details, rows.Err()
}

// ReminderDue is a confirmed, not-yet-reminded booking whose event
// starts inside the reminder window, with the recipient resolved.
type ReminderDue struct {
    Booking model.Booking
    Event   model.Event
    Name    string
    Email   string
}

// DueReminders returns bookings that need a reminder: confirmed, not yet
// reminded, event starting within the window and not yet started.
func (r *BookingRepo) DueReminders(ctx context.Context, now time.Time, window time.Duration) ([]ReminderDue, error) {
    q := `SELECT b.id, b.user_id, b.event_id, b.quantity, b.total_price_cents,
                 b.status, b.payment_provider, b.payment_intent_id, b.reminder_sent,
                 b.created_at, b.updated_at,
                 e.id, e.title, e.description, e.category, e.event_type, e.location,
                 e.start_time, e.end_time, e.capacity, e.price_cents, e.is_free, e.image_url,
                 e.is_published, e.is_expired, e.created_at, e.updated_at,
                 u.name, u.email
          FROM bookings b
          JOIN events e ON e.id = b.event_id
          JOIN users u ON u.id = b.user_id
          WHERE b.status = 'confirmed' AND b.reminder_sent = 0
            AND e.start_time > ? AND e.start_time <= ?`
    rows, err := r.db.QueryContext(ctx, q, now.UTC(), now.UTC().Add(window))
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    due := make([]ReminderDue, 0)
    for rows.Next() {
        var d ReminderDue
        var intentID, imageURL sql.NullString
        if err := rows.Scan(
            &d.Booking.ID, &d.Booking.UserID, &d.Booking.EventID, &d.Booking.Quantity,
            &d.Booking.TotalPriceCents, &d.Booking.Status, &d.Booking.PaymentProvider,
            &intentID, &d.Booking.ReminderSent, &d.Booking.CreatedAt, &d.Booking.UpdatedAt,
            &d.Event.ID, &d.Event.Title, &d.Event.Description, &d.Event.Category,
            &d.Event.EventType, &d.Event.Location, &d.Event.StartTime, &d.Event.EndTime,
            &d.Event.Capacity, &d.Event.PriceCents, &d.Event.IsFree, &imageURL,
            &d.Event.IsPublished, &d.Event.IsExpired, &d.Event.CreatedAt, &d.Event.UpdatedAt,
            &d.Name, &d.Email,
        ); err != nil {
            return nil, err
        }
        d.Booking.PaymentIntentID = intentID.String
        d.Event.ImageURL = imageURL.String
        due = append(due, d)
    }
    return due, rows.Err()
}

// MarkReminderSent flips reminder_sent after a successful send.  Only
// called on success, so a failed send is retried by the next sweep.
func (r *BookingRepo) MarkReminderSent(ctx context.Context, bookingID uint64) error {
    _, err := r.db.ExecContext(ctx,
        `UPDATE bookings SET reminder_sent = 1 WHERE id = ? AND reminder_sent = 0`, bookingID)
    return err
}
