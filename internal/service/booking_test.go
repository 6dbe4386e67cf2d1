package service

import (
    "context"
    "errors"
    "sync"
    "testing"
    "time"

    "eventia/internal/model"
    "eventia/internal/repository"
)

func futureEvent(capacity, priceCents int64) model.Event {
    now := time.Now().UTC()
    return model.Event{
        Title:       "Go Meetup",
        Category:    "meetup",
        EventType:   "in-person",
        Location:    "Main Hall",
        StartTime:   now.Add(48 * time.Hour),
        EndTime:     now.Add(50 * time.Hour),
        Capacity:    capacity,
        PriceCents:  priceCents,
        IsFree:      priceCents == 0,
        IsPublished: true,
    }
}

func newBookingFixture(t *testing.T) (*memStore, *fakeNotifier, *BookingService) {
    t.Helper()
    store := newMemStore()
    notifier := newFakeNotifier()
    svc := NewBookingService(memEvents{store}, store, memDirectory{store}, notifier, nil)
    return store, notifier, svc
}

func TestAdmitPreconditions(t *testing.T) {
    store, _, svc := newBookingFixture(t)
    u := store.addUser(model.User{Name: "Ada", Email: "ada@example.com", Role: model.RoleUser})
    ev := store.addEvent(futureEvent(10, 0))
    started := futureEvent(10, 0)
    started.StartTime = time.Now().UTC().Add(-time.Hour)
    started.EndTime = time.Now().UTC().Add(time.Hour)
    startedEv := store.addEvent(started)
    paidEv := store.addEvent(futureEvent(10, 2500))

    ctx := context.Background()
    cases := []struct {
        name    string
        role    string
        eventID uint64
        qty     int64
        want    error
    }{
        {"admin cannot book", model.RoleAdmin, ev.ID, 1, ErrForbidden},
        {"zero quantity", model.RoleUser, ev.ID, 0, ErrInvalidQuantity},
        {"negative quantity", model.RoleUser, ev.ID, -3, ErrInvalidQuantity},
        {"unknown event", model.RoleUser, 9999, 1, repository.ErrEventNotFound},
        {"started event", model.RoleUser, startedEv.ID, 1, ErrClosed},
        {"over capacity", model.RoleUser, ev.ID, 11, ErrSoldOut},
        {"paid event", model.RoleUser, paidEv.ID, 1, ErrPaymentRequired},
    }
    for _, tc := range cases {
        t.Run(tc.name, func(t *testing.T) {
            _, err := svc.Admit(ctx, u.ID, tc.role, tc.eventID, tc.qty)
            if !errors.Is(err, tc.want) {
                t.Fatalf("got %v, want %v", err, tc.want)
            }
        })
    }
    if n := store.bookingCount(); n != 0 {
        t.Fatalf("rejected admissions created %d bookings", n)
    }
}

func TestAdmitExactRemainingSucceeds(t *testing.T) {
    store, _, svc := newBookingFixture(t)
    u := store.addUser(model.User{Name: "Ada", Email: "ada@example.com", Role: model.RoleUser})
    ev := store.addEvent(futureEvent(5, 0))
    ctx := context.Background()

    if _, err := svc.Admit(ctx, u.ID, model.RoleUser, ev.ID, 3); err != nil {
        t.Fatalf("first admit: %v", err)
    }
    // Remaining is exactly 2: a request for 2 fits, a request for 3 does not.
    detail, err := svc.Admit(ctx, u.ID, model.RoleUser, ev.ID, 2)
    if err != nil {
        t.Fatalf("boundary admit: %v", err)
    }
    if detail.Status != model.BookingConfirmed || detail.Quantity != 2 {
        t.Fatalf("unexpected booking: %+v", detail.Booking)
    }
    if _, err := svc.Admit(ctx, u.ID, model.RoleUser, ev.ID, 1); !errors.Is(err, ErrSoldOut) {
        t.Fatalf("got %v, want ErrSoldOut at zero remaining", err)
    }

    av, err := svc.Availability(ctx, ev.ID)
    if err != nil {
        t.Fatalf("availability: %v", err)
    }
    if av.Booked != 5 || av.Remaining != 0 {
        t.Fatalf("availability = %+v, want booked 5 remaining 0", av)
    }
}

func TestAdmitConcurrentLastSeat(t *testing.T) {
    store, _, svc := newBookingFixture(t)
    ev := store.addEvent(futureEvent(1, 0))
    u := store.addUser(model.User{Name: "u", Email: "u@example.com", Role: model.RoleUser})

    var wg sync.WaitGroup
    var mu sync.Mutex
    wins, soldOut := 0, 0
    for i := 0; i < 20; i++ {
        wg.Add(1)
        go func() {
            defer wg.Done()
            _, err := svc.Admit(context.Background(), u.ID, model.RoleUser, ev.ID, 1)
            mu.Lock()
            defer mu.Unlock()
            switch {
            case err == nil:
                wins++
            case errors.Is(err, ErrSoldOut):
                soldOut++
            default:
                t.Errorf("unexpected error: %v", err)
            }
        }()
    }
    wg.Wait()

    if wins != 1 || soldOut != 19 {
        t.Fatalf("wins=%d soldOut=%d, want exactly one winner", wins, soldOut)
    }
    if n := store.bookingCount(); n != 1 {
        t.Fatalf("ledger holds %d bookings, want 1", n)
    }
}

func TestCancelFreesSeatsForRebooking(t *testing.T) {
    store, _, svc := newBookingFixture(t)
    alice := store.addUser(model.User{Name: "Alice", Email: "alice@example.com", Role: model.RoleUser})
    bob := store.addUser(model.User{Name: "Bob", Email: "bob@example.com", Role: model.RoleUser})
    ev := store.addEvent(futureEvent(2, 0))
    ctx := context.Background()

    first, err := svc.Admit(ctx, alice.ID, model.RoleUser, ev.ID, 2)
    if err != nil {
        t.Fatalf("alice admit: %v", err)
    }
    if _, err := svc.Admit(ctx, bob.ID, model.RoleUser, ev.ID, 2); !errors.Is(err, ErrSoldOut) {
        t.Fatalf("bob should be sold out, got %v", err)
    }

    cancelled, err := svc.Cancel(ctx, alice.ID, model.RoleUser, first.ID)
    if err != nil {
        t.Fatalf("cancel: %v", err)
    }
    if cancelled.Status != model.BookingCancelled {
        t.Fatalf("status after cancel = %s", cancelled.Status)
    }

    if _, err := svc.Admit(ctx, bob.ID, model.RoleUser, ev.ID, 2); err != nil {
        t.Fatalf("bob rebook after cancel: %v", err)
    }
}

func TestCancelAuthorization(t *testing.T) {
    store, _, svc := newBookingFixture(t)
    owner := store.addUser(model.User{Name: "Owner", Email: "o@example.com", Role: model.RoleUser})
    other := store.addUser(model.User{Name: "Other", Email: "x@example.com", Role: model.RoleUser})
    admin := store.addUser(model.User{Name: "Admin", Email: "a@example.com", Role: model.RoleAdmin})
    ev := store.addEvent(futureEvent(10, 0))
    ctx := context.Background()

    b1, err := svc.Admit(ctx, owner.ID, model.RoleUser, ev.ID, 1)
    if err != nil {
        t.Fatalf("admit: %v", err)
    }
    if _, err := svc.Cancel(ctx, other.ID, model.RoleUser, b1.ID); !errors.Is(err, ErrForbidden) {
        t.Fatalf("stranger cancel: got %v, want ErrForbidden", err)
    }
    if _, err := svc.Cancel(ctx, admin.ID, model.RoleAdmin, b1.ID); err != nil {
        t.Fatalf("admin cancel: %v", err)
    }
    // Cancelled is terminal, a second cancel must fail.
    if _, err := svc.Cancel(ctx, owner.ID, model.RoleUser, b1.ID); !errors.Is(err, model.ErrInvalidTransition) {
        t.Fatalf("double cancel: got %v, want ErrInvalidTransition", err)
    }
    if _, err := svc.Cancel(ctx, owner.ID, model.RoleUser, 9999); !errors.Is(err, repository.ErrBookingNotFound) {
        t.Fatalf("unknown booking: got %v", err)
    }
}

func TestAdmitDispatchesConfirmation(t *testing.T) {
    store, notifier, svc := newBookingFixture(t)
    u := store.addUser(model.User{Name: "Ada", Email: "ada@example.com", Role: model.RoleUser})
    ev := store.addEvent(futureEvent(10, 0))

    if _, err := svc.Admit(context.Background(), u.ID, model.RoleUser, ev.ID, 2); err != nil {
        t.Fatalf("admit: %v", err)
    }
    if !waitFor(2*time.Second, func() bool { return notifier.count() == 1 }) {
        t.Fatal("confirmation email was not dispatched")
    }
    mail := notifier.last()
    if mail.to != "ada@example.com" || mail.attachments != 1 {
        t.Fatalf("unexpected mail %+v, want calendar invite attached", mail)
    }
}

func TestNotifierFailureDoesNotAffectBooking(t *testing.T) {
    store, notifier, svc := newBookingFixture(t)
    u := store.addUser(model.User{Name: "Ada", Email: "ada@example.com", Role: model.RoleUser})
    ev := store.addEvent(futureEvent(10, 0))
    notifier.failTo["ada@example.com"] = errors.New("smtp down")

    detail, err := svc.Admit(context.Background(), u.ID, model.RoleUser, ev.ID, 1)
    if err != nil {
        t.Fatalf("admit: %v", err)
    }
    if got, err := store.GetByID(context.Background(), detail.ID); err != nil || got.Status != model.BookingConfirmed {
        t.Fatalf("booking not confirmed after notifier failure: %+v %v", got, err)
    }
}
