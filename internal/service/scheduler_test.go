package service

import (
    "context"
    "errors"
    "testing"
    "time"

    "eventia/internal/model"
)

func newMaintenanceFixture(t *testing.T) (*memStore, *fakeNotifier, *Maintenance) {
    t.Helper()
    store := newMemStore()
    notifier := newFakeNotifier()
    m := NewMaintenance(memEvents{store}, store, notifier)
    return store, notifier, m
}

func TestExpireSweepIsIdempotent(t *testing.T) {
    store, _, m := newMaintenanceFixture(t)
    now := time.Now().UTC()

    ended := futureEvent(10, 0)
    ended.StartTime = now.Add(-4 * time.Hour)
    ended.EndTime = now.Add(-2 * time.Hour)
    endedEv := store.addEvent(ended)
    upcoming := store.addEvent(futureEvent(10, 0))
    ctx := context.Background()

    if err := m.ExpireSweep(ctx, now); err != nil {
        t.Fatalf("sweep: %v", err)
    }
    got, _ := memEvents{store}.GetByID(ctx, endedEv.ID)
    if !got.IsExpired || got.IsPublished {
        t.Fatalf("ended event not expired and unpublished: %+v", got)
    }
    fresh, _ := memEvents{store}.GetByID(ctx, upcoming.ID)
    if fresh.IsExpired {
        t.Fatal("upcoming event was expired")
    }

    // Second run must find nothing to flip.
    n, err := memEvents{store}.ExpireEnded(ctx, now)
    if err != nil || n != 0 {
        t.Fatalf("second sweep flipped %d events (err %v), want 0", n, err)
    }
}

func TestRemindSweepSendsAndMarks(t *testing.T) {
    store, notifier, m := newMaintenanceFixture(t)
    now := time.Now().UTC()
    u := store.addUser(model.User{Name: "Ada", Email: "ada@example.com", Role: model.RoleUser})

    soon := futureEvent(10, 0)
    soon.StartTime = now.Add(2 * time.Hour)
    soon.EndTime = now.Add(4 * time.Hour)
    soonEv := store.addEvent(soon)
    farEv := store.addEvent(futureEvent(10, 0)) // starts in 48h

    ctx := context.Background()
    due, _ := store.Create(ctx, admitRecord(u.ID, soonEv.ID, 1))
    notDue, _ := store.Create(ctx, admitRecord(u.ID, farEv.ID, 1))

    if err := m.RemindSweep(ctx, now); err != nil {
        t.Fatalf("sweep: %v", err)
    }
    if notifier.count() != 1 {
        t.Fatalf("sent %d reminders, want 1", notifier.count())
    }
    if b, _ := store.GetByID(ctx, due.ID); !b.ReminderSent {
        t.Fatal("due booking not marked reminded")
    }
    if b, _ := store.GetByID(ctx, notDue.ID); b.ReminderSent {
        t.Fatal("out-of-window booking was marked reminded")
    }

    // A second sweep inside the same window sends nothing new.
    if err := m.RemindSweep(ctx, now); err != nil {
        t.Fatalf("second sweep: %v", err)
    }
    if notifier.count() != 1 {
        t.Fatalf("second sweep re-sent reminders, total %d", notifier.count())
    }
}

func TestRemindSweepIsolatesFailures(t *testing.T) {
    store, notifier, m := newMaintenanceFixture(t)
    now := time.Now().UTC()
    broken := store.addUser(model.User{Name: "Broken", Email: "broken@example.com", Role: model.RoleUser})
    fine := store.addUser(model.User{Name: "Fine", Email: "fine@example.com", Role: model.RoleUser})
    notifier.failTo["broken@example.com"] = errors.New("mailbox on fire")

    soon := futureEvent(10, 0)
    soon.StartTime = now.Add(2 * time.Hour)
    soon.EndTime = now.Add(4 * time.Hour)
    ev := store.addEvent(soon)

    ctx := context.Background()
    failed, _ := store.Create(ctx, admitRecord(broken.ID, ev.ID, 1))
    ok, _ := store.Create(ctx, admitRecord(fine.ID, ev.ID, 1))

    if err := m.RemindSweep(ctx, now); err != nil {
        t.Fatalf("sweep returned %v, want nil despite send failure", err)
    }
    if b, _ := store.GetByID(ctx, ok.ID); !b.ReminderSent {
        t.Fatal("healthy recipient was not reminded")
    }
    // The failed send must stay unmarked so the next sweep retries it.
    if b, _ := store.GetByID(ctx, failed.ID); b.ReminderSent {
        t.Fatal("failed send was marked reminded")
    }

    delete(notifier.failTo, "broken@example.com")
    if err := m.RemindSweep(ctx, now); err != nil {
        t.Fatalf("retry sweep: %v", err)
    }
    if b, _ := store.GetByID(ctx, failed.ID); !b.ReminderSent {
        t.Fatal("recovered recipient was not reminded on retry")
    }
}
