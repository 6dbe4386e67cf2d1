package model

import "testing"

func TestBookingStatusTransitions(t *testing.T) {
    cases := []struct {
        from, to BookingStatus
        ok       bool
    }{
        {BookingPending, BookingConfirmed, true},
        {BookingPending, BookingCancelled, true},
        {BookingConfirmed, BookingCancelled, true},
        {BookingConfirmed, BookingPending, false},
        {BookingConfirmed, BookingConfirmed, false},
        {BookingCancelled, BookingConfirmed, false},
        {BookingCancelled, BookingPending, false},
        {BookingCancelled, BookingCancelled, false},
        {BookingStatus("bogus"), BookingConfirmed, false},
    }
    for _, tc := range cases {
        if got := tc.from.CanTransitionTo(tc.to); got != tc.ok {
            t.Errorf("%s -> %s = %v, want %v", tc.from, tc.to, got, tc.ok)
        }
    }
}

func TestBookingStatusValid(t *testing.T) {
    for _, s := range []BookingStatus{BookingPending, BookingConfirmed, BookingCancelled} {
        if !s.Valid() {
            t.Errorf("%s should be valid", s)
        }
    }
    if BookingStatus("refunded").Valid() {
        t.Error("unknown status reported valid")
    }
}
