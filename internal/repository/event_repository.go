package repository

import (
    "context"
    "database/sql"
    "errors"
    "strings"
    "time"

    "eventia/internal/model"
)

// EventRepo provides CRUD operations for events.  All timestamps are
// stored in UTC.  Capacity edits and deletions are guarded against the
// booking ledger inside transactions so they can never strand seats.
type EventRepo struct {
    db *sql.DB
}

// NewEventRepo returns a new EventRepo bound to the given database.
func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db} }

// DB exposes the underlying handle for callers that coordinate
// transactions across repositories.
func (r *EventRepo) DB() *sql.DB { return r.db }

const eventColumns = `id, title, description, category, event_type, location,
       start_time, end_time, capacity, price_cents, is_free, image_url,
       is_published, is_expired, created_at, updated_at`

func scanEvent(row interface{ Scan(...interface{}) error }) (model.Event, error) {
    var ev model.Event
    var imageURL sql.NullString
    err := row.Scan(
        &ev.ID, &ev.Title, &ev.Description, &ev.Category, &ev.EventType, &ev.Location,
        &ev.StartTime, &ev.EndTime, &ev.Capacity, &ev.PriceCents, &ev.IsFree, &imageURL,
        &ev.IsPublished, &ev.IsExpired, &ev.CreatedAt, &ev.UpdatedAt,
    )
    if err != nil {
        return ev, err
    }
    ev.ImageURL = imageURL.String
    return ev, nil
}

// GetByID returns a single event or ErrEventNotFound.
func (r *EventRepo) GetByID(ctx context.Context, id uint64) (model.Event, error) {
    ev, err := scanEvent(r.db.QueryRowContext(ctx,
        `SELECT `+eventColumns+` FROM events WHERE id = ?`, id))
    if errors.Is(err, sql.ErrNoRows) {
        return ev, ErrEventNotFound
    }
    return ev, err
}

// ListPublished returns all published events ordered by start time, the
// public browse listing.
func (r *EventRepo) ListPublished(ctx context.Context) ([]model.Event, error) {
    rows, err := r.db.QueryContext(ctx,
        `SELECT `+eventColumns+` FROM events WHERE is_published = 1 ORDER BY start_time ASC`)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    return collectEvents(rows)
}

// ListByIDs returns the events with the given IDs ordered by start time.
// Used for an admin's managed-events view.  An empty input returns an
// empty slice without touching the database.
func (r *EventRepo) ListByIDs(ctx context.Context, ids []uint64) ([]model.Event, error) {
    if len(ids) == 0 {
        return []model.Event{}, nil
    }
    placeholders := make([]string, len(ids))
    args := make([]interface{}, len(ids))
    for i, id := range ids {
        placeholders[i] = "?"
        args[i] = id
    }
    rows, err := r.db.QueryContext(ctx,
        `SELECT `+eventColumns+` FROM events WHERE id IN (`+strings.Join(placeholders, ",")+`) ORDER BY start_time ASC`,
        args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    return collectEvents(rows)
}

func collectEvents(rows *sql.Rows) ([]model.Event, error) {
    events := make([]model.Event, 0)
    for rows.Next() {
        ev, err := scanEvent(rows)
        if err != nil {
            return nil, err
        }
        events = append(events, ev)
    }
    return events, rows.Err()
}

// Create inserts a new event and returns it with generated fields
// populated.  Callers are expected to have validated fields and forced
// price to zero for free events.
func (r *EventRepo) Create(ctx context.Context, ev *model.Event) error {
    res, err := r.db.ExecContext(ctx,
        `INSERT INTO events (title, description, category, event_type, location,
            start_time, end_time, capacity, price_cents, is_free, image_url, is_published)
         VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`,
        ev.Title, ev.Description, ev.Category, ev.EventType, ev.Location,
        ev.StartTime.UTC(), ev.EndTime.UTC(), ev.Capacity, ev.PriceCents,
        ev.IsFree, nullable(ev.ImageURL), ev.IsPublished)
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    created, err := r.GetByID(ctx, uint64(id))
    if err != nil {
        return err
    }
    *ev = created
    return nil
}

// Update applies an organizer edit.  The capacity guard runs inside the
// same transaction that writes the row: when the new capacity is below
// the currently booked (non-cancelled) total, the edit fails with
// ErrConflict and nothing changes.
func (r *EventRepo) Update(ctx context.Context, ev *model.Event) error {
    tx, err := r.db.BeginTx(ctx, nil)
    if err != nil {
        return err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()
    // Lock the row first so the booked total cannot grow under us while
    // we compare it against the new capacity.
    var currentID uint64
    err = tx.QueryRowContext(ctx, `SELECT id FROM events WHERE id = ? FOR UPDATE`, ev.ID).Scan(&currentID)
    if errors.Is(err, sql.ErrNoRows) {
        return ErrEventNotFound
    }
    if err != nil {
        return err
    }
    var booked int64
    err = tx.QueryRowContext(ctx,
        `SELECT COALESCE(SUM(quantity),0) FROM bookings WHERE event_id = ? AND status <> 'cancelled'`,
        ev.ID).Scan(&booked)
    if err != nil {
        return err
    }
    if ev.Capacity < booked {
        return ErrConflict
    }
    _, err = tx.ExecContext(ctx,
        `UPDATE events SET title=?, description=?, category=?, event_type=?, location=?,
            start_time=?, end_time=?, capacity=?, price_cents=?, is_free=?, image_url=?, is_published=?
         WHERE id=?`,
        ev.Title, ev.Description, ev.Category, ev.EventType, ev.Location,
        ev.StartTime.UTC(), ev.EndTime.UTC(), ev.Capacity, ev.PriceCents,
        ev.IsFree, nullable(ev.ImageURL), ev.IsPublished, ev.ID)
    if err != nil {
        return err
    }
    if err := tx.Commit(); err != nil {
        return err
    }
    committed = true
    updated, err := r.GetByID(ctx, ev.ID)
    if err != nil {
        return err
    }
    *ev = updated
    return nil
}

// Delete removes an event.  Events still referenced by non-cancelled
// bookings cannot be deleted (ErrConflict); cancelled history does not
// block deletion.
func (r *EventRepo) Delete(ctx context.Context, id uint64) error {
    tx, err := r.db.BeginTx(ctx, nil)
    if err != nil {
        return err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()
    var active int64
    err = tx.QueryRowContext(ctx,
        `SELECT COUNT(*) FROM bookings WHERE event_id = ? AND status <> 'cancelled'`, id).Scan(&active)
    if err != nil {
        return err
    }
    if active > 0 {
        return ErrConflict
    }
    res, err := tx.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id)
    if err != nil {
        return err
    }
    if n, _ := res.RowsAffected(); n == 0 {
        return ErrEventNotFound
    }
    if _, err := tx.ExecContext(ctx, `DELETE FROM managed_events WHERE event_id = ?`, id); err != nil {
        return err
    }
    if err := tx.Commit(); err != nil {
        return err
    }
    committed = true
    return nil
}

// ExpireEnded flips is_expired and unpublishes every event whose end
// time has passed and that is not yet expired.  It returns the number of
// rows flipped; running it again immediately is a no-op.
func (r *EventRepo) ExpireEnded(ctx context.Context, now time.Time) (int64, error) {
    res, err := r.db.ExecContext(ctx,
        `UPDATE events SET is_expired = 1, is_published = 0
         WHERE end_time < ? AND is_expired = 0`, now.UTC())
    if err != nil {
        return 0, err
    }
    return res.RowsAffected()
}

func nullable(s string) sql.NullString {
    return sql.NullString{String: s, Valid: s != ""}
}
