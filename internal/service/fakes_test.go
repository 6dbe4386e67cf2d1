package service

import (
    "context"
    "sync"
    "time"

    "eventia/internal/model"
    "eventia/internal/repository"
)

// memStore is an in-memory stand-in for the repository layer.  It
// implements BookingLedger directly and EventStore/UserDirectory through
// the memEvents and memDirectory adapters, all behind one mutex, which
// gives Admit the same atomicity contract as the SQL implementation:
// capacity re-read and insert under a single lock.
type memStore struct {
    mu       sync.Mutex
    seq      uint64
    events   map[uint64]model.Event
    users    map[uint64]model.User
    bookings map[uint64]model.Booking
}

func newMemStore() *memStore {
    return &memStore{
        events:   map[uint64]model.Event{},
        users:    map[uint64]model.User{},
        bookings: map[uint64]model.Booking{},
    }
}

func (m *memStore) addEvent(ev model.Event) model.Event {
    m.mu.Lock()
    defer m.mu.Unlock()
    if ev.ID == 0 {
        m.seq++
        ev.ID = m.seq
    }
    m.events[ev.ID] = ev
    return ev
}

func (m *memStore) addUser(u model.User) model.User {
    m.mu.Lock()
    defer m.mu.Unlock()
    if u.ID == 0 {
        m.seq++
        u.ID = m.seq
    }
    m.users[u.ID] = u
    return u
}

// admitRecord is shorthand for a confirmed free booking record.
func admitRecord(userID, eventID uint64, qty int64) repository.AdmitRecord {
    return repository.AdmitRecord{
        UserID:   userID,
        EventID:  eventID,
        Quantity: qty,
        Status:   model.BookingConfirmed,
        Provider: model.ProviderFree,
    }
}

func (m *memStore) bookingCount() int {
    m.mu.Lock()
    defer m.mu.Unlock()
    return len(m.bookings)
}

// memEvents adapts memStore to the EventStore interface.  A separate
// type because the ledger's GetByID returns a booking while the event
// store's returns an event.
type memEvents struct{ s *memStore }

func (e memEvents) GetByID(ctx context.Context, id uint64) (model.Event, error) {
    e.s.mu.Lock()
    defer e.s.mu.Unlock()
    ev, ok := e.s.events[id]
    if !ok {
        return model.Event{}, repository.ErrEventNotFound
    }
    return ev, nil
}

func (e memEvents) ExpireEnded(ctx context.Context, now time.Time) (int64, error) {
    e.s.mu.Lock()
    defer e.s.mu.Unlock()
    var n int64
    for id, ev := range e.s.events {
        if !ev.IsExpired && ev.EndTime.Before(now) {
            ev.IsExpired = true
            ev.IsPublished = false
            e.s.events[id] = ev
            n++
        }
    }
    return n, nil
}

// ----- BookingLedger -----

func (m *memStore) bookedLocked(eventID uint64) int64 {
    var sum int64
    for _, b := range m.bookings {
        if b.EventID == eventID && b.Status != model.BookingCancelled {
            sum += b.Quantity
        }
    }
    return sum
}

func (m *memStore) insertLocked(rec repository.AdmitRecord) (model.Booking, error) {
    if rec.PaymentIntentID != "" {
        for _, b := range m.bookings {
            if b.PaymentIntentID == rec.PaymentIntentID {
                return model.Booking{}, repository.ErrDuplicatePayment
            }
        }
    }
    m.seq++
    b := model.Booking{
        ID:              m.seq,
        UserID:          rec.UserID,
        EventID:         rec.EventID,
        Quantity:        rec.Quantity,
        TotalPriceCents: rec.TotalPriceCents,
        Status:          rec.Status,
        PaymentProvider: rec.Provider,
        PaymentIntentID: rec.PaymentIntentID,
        CreatedAt:       time.Now().UTC(),
        UpdatedAt:       time.Now().UTC(),
    }
    m.bookings[b.ID] = b
    return b, nil
}

func (m *memStore) Availability(ctx context.Context, eventID uint64) (repository.Availability, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    ev, ok := m.events[eventID]
    if !ok {
        return repository.Availability{}, repository.ErrEventNotFound
    }
    av := repository.Availability{Capacity: ev.Capacity, Booked: m.bookedLocked(eventID)}
    av.Remaining = av.Capacity - av.Booked
    if av.Remaining < 0 {
        av.Remaining = 0
    }
    return av, nil
}

func (m *memStore) Admit(ctx context.Context, rec repository.AdmitRecord) (model.Booking, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    ev, ok := m.events[rec.EventID]
    if !ok {
        return model.Booking{}, repository.ErrEventNotFound
    }
    if ev.Capacity-m.bookedLocked(rec.EventID) < rec.Quantity {
        return model.Booking{}, repository.ErrNoCapacity
    }
    return m.insertLocked(rec)
}

func (m *memStore) Create(ctx context.Context, rec repository.AdmitRecord) (model.Booking, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    return m.insertLocked(rec)
}

func (m *memStore) GetByID(ctx context.Context, id uint64) (model.Booking, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    b, ok := m.bookings[id]
    if !ok {
        return model.Booking{}, repository.ErrBookingNotFound
    }
    return b, nil
}

func (m *memStore) FindByPaymentIntent(ctx context.Context, intentID string) (model.Booking, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    for _, b := range m.bookings {
        if b.PaymentIntentID == intentID && intentID != "" {
            return b, nil
        }
    }
    return model.Booking{}, repository.ErrBookingNotFound
}

func (m *memStore) UpdateStatus(ctx context.Context, id uint64, from, to model.BookingStatus) error {
    m.mu.Lock()
    defer m.mu.Unlock()
    b, ok := m.bookings[id]
    if !ok || b.Status != from {
        return repository.ErrStaleStatus
    }
    b.Status = to
    b.UpdatedAt = time.Now().UTC()
    m.bookings[id] = b
    return nil
}

func (m *memStore) ListByUser(ctx context.Context, userID uint64) ([]repository.BookingDetail, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    out := []repository.BookingDetail{}
    for _, b := range m.bookings {
        if b.UserID == userID {
            out = append(out, repository.BookingDetail{Booking: b, Event: m.events[b.EventID]})
        }
    }
    return out, nil
}

func (m *memStore) ListAll(ctx context.Context) ([]repository.BookingDetail, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    out := []repository.BookingDetail{}
    for _, b := range m.bookings {
        out = append(out, repository.BookingDetail{Booking: b, Event: m.events[b.EventID]})
    }
    return out, nil
}

func (m *memStore) DueReminders(ctx context.Context, now time.Time, window time.Duration) ([]repository.ReminderDue, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    due := []repository.ReminderDue{}
    for _, b := range m.bookings {
        ev := m.events[b.EventID]
        if b.Status != model.BookingConfirmed || b.ReminderSent {
            continue
        }
        if !ev.StartTime.After(now) || ev.StartTime.After(now.Add(window)) {
            continue
        }
        u := m.users[b.UserID]
        due = append(due, repository.ReminderDue{Booking: b, Event: ev, Name: u.Name, Email: u.Email})
    }
    return due, nil
}

func (m *memStore) MarkReminderSent(ctx context.Context, bookingID uint64) error {
    m.mu.Lock()
    defer m.mu.Unlock()
    b, ok := m.bookings[bookingID]
    if !ok {
        return repository.ErrBookingNotFound
    }
    b.ReminderSent = true
    m.bookings[bookingID] = b
    return nil
}

// memDirectory adapts memStore to the UserDirectory interface.

type memDirectory struct{ s *memStore }

func (d memDirectory) GetByID(ctx context.Context, id uint64) (model.User, error) {
    d.s.mu.Lock()
    defer d.s.mu.Unlock()
    u, ok := d.s.users[id]
    if !ok {
        return model.User{}, repository.ErrUserNotFound
    }
    return u, nil
}

// ----- Notifier -----

type sentMail struct {
    to          string
    subject     string
    attachments int
}

type fakeNotifier struct {
    mu     sync.Mutex
    sent   []sentMail
    failTo map[string]error
}

func newFakeNotifier() *fakeNotifier {
    return &fakeNotifier{failTo: map[string]error{}}
}

func (n *fakeNotifier) Send(to, subject, text, html string, attachments []Attachment) error {
    n.mu.Lock()
    defer n.mu.Unlock()
    if err := n.failTo[to]; err != nil {
        return err
    }
    n.sent = append(n.sent, sentMail{to: to, subject: subject, attachments: len(attachments)})
    return nil
}

func (n *fakeNotifier) count() int {
    n.mu.Lock()
    defer n.mu.Unlock()
    return len(n.sent)
}

func (n *fakeNotifier) last() sentMail {
    n.mu.Lock()
    defer n.mu.Unlock()
    return n.sent[len(n.sent)-1]
}

// waitFor polls cond until it holds or the deadline passes.  Used for
// the fire-and-forget notification path.
func waitFor(timeout time.Duration, cond func() bool) bool {
    deadline := time.Now().Add(timeout)
    for time.Now().Before(deadline) {
        if cond() {
            return true
        }
        time.Sleep(5 * time.Millisecond)
    }
    return cond()
}

// ----- CheckoutProvider -----

type fakeProvider struct {
    mu       sync.Mutex
    sessions map[string]CheckoutSession
    created  int
}

func newFakeProvider() *fakeProvider {
    return &fakeProvider{sessions: map[string]CheckoutSession{}}
}

func (p *fakeProvider) put(s CheckoutSession) {
    p.mu.Lock()
    defer p.mu.Unlock()
    p.sessions[s.ID] = s
}

func (p *fakeProvider) CreateSession(ctx context.Context, ev model.Event, quantity int64, userID uint64) (string, error) {
    p.mu.Lock()
    defer p.mu.Unlock()
    p.created++
    return "https://checkout.test/session", nil
}

func (p *fakeProvider) GetSession(ctx context.Context, id string) (CheckoutSession, error) {
    p.mu.Lock()
    defer p.mu.Unlock()
    s, ok := p.sessions[id]
    if !ok {
        return CheckoutSession{}, ErrSessionNotFound
    }
    return s, nil
}
