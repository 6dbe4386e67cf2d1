package service

import (
    "context"
    "errors"
    "strconv"
    "time"

    "eventia/internal/model"
    "eventia/internal/repository"
)

// PaymentService bridges hosted checkout sessions to confirmed bookings.
// Reconciliation maps a completed payment to at most one booking: the
// session's payment intent is the idempotency key, so retried
// confirmation calls (browser back-button, duplicate webhooks) return
// the same booking instead of creating another.
type PaymentService struct {
    events   EventStore
    ledger   BookingLedger
    bookings *BookingService
    provider CheckoutProvider
}

// NewPaymentService constructs a PaymentService.  provider may be nil
// when no payment secret is configured; both operations then fail with
// ErrPaymentsDisabled.
func NewPaymentService(events EventStore, ledger BookingLedger, bookings *BookingService, provider CheckoutProvider) *PaymentService {
    if events == nil || ledger == nil || bookings == nil {
        panic("nil dependency passed to NewPaymentService")
    }
    return &PaymentService{events: events, ledger: ledger, bookings: bookings, provider: provider}
}

// CreateCheckout opens a hosted checkout session for a priced event and
// returns the redirect URL.  The capacity check here is a best-effort
// pre-check at session creation time, not a hold: seats are only
// consumed when the payment is reconciled.
func (s *PaymentService) CreateCheckout(ctx context.Context, userID uint64, role string, eventID uint64, quantity int64) (string, error) {
    if s.provider == nil {
        return "", ErrPaymentsDisabled
    }
    // Organizers never buy tickets; the route guard enforces this too,
    // but the service rejects on its own, same as Admit.
    if role == model.RoleAdmin {
        return "", ErrForbidden
    }
    if quantity <= 0 {
        return "", ErrInvalidQuantity
    }
    ev, err := s.events.GetByID(ctx, eventID)
    if err != nil {
        return "", err
    }
    if ev.Free() {
        return "", ErrFreeEvent
    }
    if ev.Started(time.Now().UTC()) {
        return "", ErrClosed
    }
    av, err := s.ledger.Availability(ctx, eventID)
    if err != nil {
        return "", err
    }
    if av.Remaining < quantity {
        return "", ErrSoldOut
    }
    url, err := s.provider.CreateSession(ctx, ev, quantity, userID)
    if err != nil {
        return "", err
    }
    return url, nil
}

// Reconcile converts a completed checkout session into a confirmed
// booking, exactly once.  Steps, in order: retrieve the session; require
// captured payment; extract the metadata written at checkout creation;
// refuse to confirm someone else's session; return the existing booking
// when this payment intent was already reconciled; otherwise re-verify
// the event is still open and run the payment-verified creation path.
//
// Capacity is deliberately not re-checked here because the provider
// already captured the charge.  Concurrent checkouts for the same seats can
// therefore overbook a priced event; availability floors at zero.
func (s *PaymentService) Reconcile(ctx context.Context, callerID uint64, sessionID string) (repository.BookingDetail, error) {
    var detail repository.BookingDetail
    if s.provider == nil {
        return detail, ErrPaymentsDisabled
    }
    sess, err := s.provider.GetSession(ctx, sessionID)
    if err != nil {
        return detail, err
    }
    if !sess.Paid {
        return detail, ErrPaymentIncomplete
    }
    eventID, quantity, payerID, err := parseSessionMetadata(sess.Metadata)
    if err != nil {
        return detail, err
    }
    if payerID != callerID {
        return detail, ErrForbidden
    }

    // Idempotency fast path: this payment was already turned into a
    // booking by an earlier confirmation call or webhook.
    if existing, err := s.ledger.FindByPaymentIntent(ctx, sess.PaymentIntentID); err == nil {
        return s.withEvent(ctx, existing.EventID, existing)
    } else if !errors.Is(err, repository.ErrBookingNotFound) {
        return detail, err
    }

    ev, err := s.events.GetByID(ctx, eventID)
    if err != nil {
        return detail, err
    }
    if ev.Started(time.Now().UTC()) {
        return detail, ErrClosed
    }

    detail, err = s.bookings.admitPaid(ctx, callerID, ev, quantity, sess.PaymentIntentID)
    if errors.Is(err, repository.ErrDuplicatePayment) {
        // A concurrent reconcile won the unique-key race; return its row.
        winner, ferr := s.ledger.FindByPaymentIntent(ctx, sess.PaymentIntentID)
        if ferr != nil {
            return detail, ferr
        }
        return s.withEvent(ctx, winner.EventID, winner)
    }
    return detail, err
}

// withEvent joins a ledger row with its event for the response shape.
func (s *PaymentService) withEvent(ctx context.Context, eventID uint64, b model.Booking) (repository.BookingDetail, error) {
    ev, err := s.events.GetByID(ctx, eventID)
    if err != nil {
        return repository.BookingDetail{}, err
    }
    return repository.BookingDetail{Booking: b, Event: ev}, nil
}

// parseSessionMetadata extracts the eventId/quantity/userId triple set
// when the checkout session was created.
func parseSessionMetadata(md map[string]string) (eventID uint64, quantity int64, userID uint64, err error) {
    ev, q, u := md["eventId"], md["quantity"], md["userId"]
    if ev == "" || q == "" || u == "" {
        return 0, 0, 0, ErrMalformedSession
    }
    if eventID, err = strconv.ParseUint(ev, 10, 64); err != nil {
        return 0, 0, 0, ErrMalformedSession
    }
    if quantity, err = strconv.ParseInt(q, 10, 64); err != nil || quantity <= 0 {
        return 0, 0, 0, ErrMalformedSession
    }
    if userID, err = strconv.ParseUint(u, 10, 64); err != nil {
        return 0, 0, 0, ErrMalformedSession
    }
    return eventID, quantity, userID, nil
}
