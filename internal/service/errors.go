// Package service implements Eventia's core business logic: availability
// computation, booking admission, payment reconciliation, notification
// dispatch and the maintenance sweeps.  Handlers talk to services;
// services talk to narrow storage interfaces implemented by the
// repository layer.
package service

import "errors"

// Admission and reconciliation failure taxonomy.  Handlers translate
// these into HTTP statuses; each is specific enough to drive distinct UI
// messaging (sold out vs closed vs not eligible).
var (
    // ErrForbidden: role or ownership violation (admins booking, or a
    // caller confirming someone else's checkout session).
    ErrForbidden = errors.New("forbidden")

    // ErrInvalidQuantity: quantity was zero or negative.
    ErrInvalidQuantity = errors.New("quantity must be a positive integer")

    // ErrClosed: the event has already started; bookings close at start
    // time, not end time.
    ErrClosed = errors.New("event has already started")

    // ErrSoldOut: remaining capacity is smaller than the requested
    // quantity.
    ErrSoldOut = errors.New("not enough availability")

    // ErrPaymentRequired: direct admission was attempted for a priced
    // event; the client must go through hosted checkout.
    ErrPaymentRequired = errors.New("paid event requires checkout")

    // ErrFreeEvent: checkout was requested for a free event.
    ErrFreeEvent = errors.New("event is free; no payment needed")

    // ErrPaymentIncomplete: the checkout session exists but payment was
    // not captured.
    ErrPaymentIncomplete = errors.New("payment not completed")

    // ErrMalformedSession: the checkout session lacks the metadata set
    // at creation time (eventId, quantity, userId).
    ErrMalformedSession = errors.New("missing session metadata")

    // ErrSessionNotFound: no checkout session with the given ID.
    ErrSessionNotFound = errors.New("checkout session not found")

    // ErrPaymentsDisabled: no payment provider secret is configured.
    ErrPaymentsDisabled = errors.New("payments not configured")

    // ErrUpstream: the payment provider was unreachable or errored.
    ErrUpstream = errors.New("payment provider unavailable")
)
