// Package repository implements MySQL persistence for Eventia.  This
// file defines sentinel errors shared across repositories.  Handlers and
// services compare against them with errors.Is and translate them into
// HTTP statuses or service-level failures.
package repository

import "errors"

// ErrEventNotFound is returned when an event ID does not exist.
var ErrEventNotFound = errors.New("event not found")

// ErrBookingNotFound is returned when a booking ID does not exist.
var ErrBookingNotFound = errors.New("booking not found")

// ErrUserNotFound is returned when a user ID or email does not exist.
var ErrUserNotFound = errors.New("user not found")

// ErrEmailExists is returned when registering with an email that is
// already taken (UNIQUE key on users.email).
var ErrEmailExists = errors.New("email already exists")

// ErrNoCapacity is returned by the admission transaction when the
// event's remaining capacity is smaller than the requested quantity.
var ErrNoCapacity = errors.New("insufficient capacity")

// ErrDuplicatePayment is returned when inserting a booking whose
// payment_intent_id already exists (UNIQUE key).  Reconciliation
// resolves it by returning the booking that won the race.
var ErrDuplicatePayment = errors.New("payment already reconciled")

// ErrConflict is returned when a mutation cannot proceed because of
// dependent state: deleting an event that still has active bookings, or
// reducing capacity below the currently booked total.
var ErrConflict = errors.New("conflict")

// ErrStaleStatus is returned by conditional status updates when the row
// was not in the expected prior status (lost a cancel/confirm race).
var ErrStaleStatus = errors.New("booking status changed concurrently")
