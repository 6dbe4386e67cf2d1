package service

import (
    "context"
    "errors"
    "log"
    "time"

    "eventia/internal/model"
    "eventia/internal/queue"
    "eventia/internal/repository"
)

// PublishFunc delivers a booking-confirmed event to the message broker.
// It may be nil when no broker is configured.
type PublishFunc func(ctx context.Context, ev queue.BookingConfirmedEvent) error

// BookingService is the booking admission controller.  It decides
// whether a booking request may be admitted (role, quantity, existence,
// timing, capacity, free-vs-paid routing) and creates the booking record
// atomically with respect to capacity.  Notification dispatch is
// fire-and-forget: a failed email or broker publish is logged and the
// booking stands.
type BookingService struct {
    events   EventStore
    ledger   BookingLedger
    users    UserDirectory
    notifier Notifier
    publish  PublishFunc
}

// NewBookingService constructs a BookingService.  notifier and publish
// are optional side channels; pass nil to disable either.
func NewBookingService(events EventStore, ledger BookingLedger, users UserDirectory, notifier Notifier, publish PublishFunc) *BookingService {
    if events == nil || ledger == nil || users == nil {
        panic("nil store passed to NewBookingService")
    }
    return &BookingService{events: events, ledger: ledger, users: users, notifier: notifier, publish: publish}
}

// Availability derives the remaining seats for an event from the ledger.
// Pure read-side aggregation, safe to call concurrently and repeatedly.
func (s *BookingService) Availability(ctx context.Context, eventID uint64) (repository.Availability, error) {
    return s.ledger.Availability(ctx, eventID)
}

// Admit runs the free-path admission decision.  Preconditions are
// checked in a fixed order and the first failure wins:
//
//  1. admins cannot book (organizers and attendees are disjoint)
//  2. quantity must be positive
//  3. the event must exist
//  4. bookings close at event start
//  5. remaining capacity must cover the quantity
//  6. priced events must go through checkout
//
// The capacity check here is advisory (it picks the right error before
// any side effects); the binding check runs inside the ledger's
// admission transaction, so two requests racing for the last seats
// cannot both succeed.
func (s *BookingService) Admit(ctx context.Context, userID uint64, role string, eventID uint64, quantity int64) (repository.BookingDetail, error) {
    var detail repository.BookingDetail
    if role == model.RoleAdmin {
        return detail, ErrForbidden
    }
    if quantity <= 0 {
        return detail, ErrInvalidQuantity
    }
    ev, err := s.events.GetByID(ctx, eventID)
    if err != nil {
        return detail, err
    }
    if ev.Started(time.Now().UTC()) {
        return detail, ErrClosed
    }
    av, err := s.ledger.Availability(ctx, eventID)
    if err != nil {
        return detail, err
    }
    if av.Remaining < quantity {
        return detail, ErrSoldOut
    }
    if !ev.Free() {
        return detail, ErrPaymentRequired
    }

    b, err := s.ledger.Admit(ctx, repository.AdmitRecord{
        UserID:          userID,
        EventID:         eventID,
        Quantity:        quantity,
        TotalPriceCents: ev.PriceCents * quantity,
        Status:          model.BookingConfirmed,
        Provider:        model.ProviderFree,
    })
    if errors.Is(err, repository.ErrNoCapacity) {
        return detail, ErrSoldOut
    }
    if err != nil {
        return detail, err
    }
    s.dispatchConfirmed(ev, b)
    return repository.BookingDetail{Booking: b, Event: ev}, nil
}

// admitPaid is the payment-already-verified creation path used by
// reconciliation.  The external provider has captured the charge, so no
// capacity gate is applied here; the unique payment_intent_id key still
// guards against duplicate bookings from one payment.
func (s *BookingService) admitPaid(ctx context.Context, userID uint64, ev model.Event, quantity int64, intentID string) (repository.BookingDetail, error) {
    var detail repository.BookingDetail
    b, err := s.ledger.Create(ctx, repository.AdmitRecord{
        UserID:          userID,
        EventID:         ev.ID,
        Quantity:        quantity,
        TotalPriceCents: ev.PriceCents * quantity,
        Status:          model.BookingConfirmed,
        Provider:        model.ProviderStripe,
        PaymentIntentID: intentID,
    })
    if err != nil {
        return detail, err
    }
    s.dispatchConfirmed(ev, b)
    return repository.BookingDetail{Booking: b, Event: ev}, nil
}

// Cancel transitions a booking to cancelled.  Only the owning user or an
// admin may cancel.  The transition is validated against the booking
// state machine; cancelling twice is an invalid transition.  Freeing the
// seat is observed by the next availability read; there is no
// synchronous release signal.
func (s *BookingService) Cancel(ctx context.Context, callerID uint64, role string, bookingID uint64) (repository.BookingDetail, error) {
    var detail repository.BookingDetail
    b, err := s.ledger.GetByID(ctx, bookingID)
    if err != nil {
        return detail, err
    }
    if b.UserID != callerID && role != model.RoleAdmin {
        return detail, ErrForbidden
    }
    if !b.Status.CanTransitionTo(model.BookingCancelled) {
        return detail, model.ErrInvalidTransition
    }
    if err := s.ledger.UpdateStatus(ctx, b.ID, b.Status, model.BookingCancelled); err != nil {
        if errors.Is(err, repository.ErrStaleStatus) {
            // Lost a concurrent cancel; report it as the transition error.
            return detail, model.ErrInvalidTransition
        }
        return detail, err
    }
    b.Status = model.BookingCancelled
    ev, err := s.events.GetByID(ctx, b.EventID)
    if err != nil {
        return detail, err
    }
    return repository.BookingDetail{Booking: b, Event: ev}, nil
}

// ListForUser returns the caller's bookings joined with their events.
func (s *BookingService) ListForUser(ctx context.Context, userID uint64) ([]repository.BookingDetail, error) {
    return s.ledger.ListByUser(ctx, userID)
}

// ListAll returns the full ledger, for admins.
func (s *BookingService) ListAll(ctx context.Context) ([]repository.BookingDetail, error) {
    return s.ledger.ListAll(ctx)
}

// dispatchConfirmed sends the confirmation email and publishes the
// broker event in the background.  Errors are logged, never surfaced:
// booking success is not contingent on either side channel.
func (s *BookingService) dispatchConfirmed(ev model.Event, b model.Booking) {
    go func() {
        ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
        defer cancel()
        u, err := s.users.GetByID(ctx, b.UserID)
        if err != nil {
            log.Printf("booking %d: load user for confirmation failed: %v", b.ID, err)
            return
        }
        if s.notifier != nil {
            subject, text, html := ConfirmationEmail(u, ev, b)
            invite := CalendarInvite(ev, b, time.Now().UTC())
            if err := s.notifier.Send(u.Email, subject, text, html, []Attachment{invite}); err != nil {
                log.Printf("booking %d: confirmation email failed: %v", b.ID, err)
            }
        }
        if s.publish != nil {
            evt := queue.BookingConfirmedEvent{
                BookingID:       b.ID,
                UserID:          b.UserID,
                EventID:         ev.ID,
                EventTitle:      ev.Title,
                Location:        ev.Location,
                StartsAt:        ev.StartTime.UTC().Format(time.RFC3339),
                EndsAt:          ev.EndTime.UTC().Format(time.RFC3339),
                Quantity:        b.Quantity,
                TotalPriceCents: b.TotalPriceCents,
                Provider:        string(b.PaymentProvider),
                ConfirmedAt:     time.Now().UTC().Format(time.RFC3339),
            }
            if err := s.publish(ctx, evt); err != nil {
                log.Printf("booking %d: publish confirmed event failed: %v", b.ID, err)
            }
        }
    }()
}
