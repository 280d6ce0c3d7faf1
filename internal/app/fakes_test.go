package app_test

import (
	"context"
	"sync"
	"time"

	"voyager_booking/internal/domain"
)

// ---- fakes ----

type fakeVoyager struct {
	mu sync.Mutex

	catalog      []map[string]any
	catalogErr   error
	catalogGate  chan struct{} // when set, ListHotels blocks until closed
	catalogEnter chan struct{} // signalled (non-blocking) when ListHotels is entered

	avail      domain.AvailabilityResult
	availErr   error
	availGate  chan struct{} // when set, AvailableHotels blocks until closed
	availCalls int

	conf       domain.BookingConfirmation
	confErr    error
	submitted  []domain.BookingSubmission
	receiptErr error
	receipts   []domain.Receipt

	orders []int64

	login    domain.LoginResult
	loginErr error
	logins   int
}

func (f *fakeVoyager) ListHotels(ctx context.Context, token string) ([]map[string]any, error) {
	f.mu.Lock()
	gate, enter := f.catalogGate, f.catalogEnter
	f.mu.Unlock()
	if enter != nil {
		select {
		case enter <- struct{}{}:
		default:
		}
	}
	if gate != nil {
		<-gate
	}
	return f.catalog, f.catalogErr
}

func (f *fakeVoyager) AvailableHotels(ctx context.Context, token string, q domain.AvailabilityQuery) (domain.AvailabilityResult, error) {
	f.mu.Lock()
	f.availCalls++
	gate := f.availGate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	return f.avail, f.availErr
}

func (f *fakeVoyager) SubmitBooking(ctx context.Context, token string, b domain.BookingSubmission) (domain.BookingConfirmation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitted = append(f.submitted, b)
	return f.conf, f.confErr
}

func (f *fakeVoyager) SendReceipt(ctx context.Context, r domain.Receipt) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.receipts = append(f.receipts, r)
	return f.receiptErr
}

func (f *fakeVoyager) CreateOrder(ctx context.Context, hotelID string, amount int64) (domain.PaymentOrder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orders = append(f.orders, amount)
	return domain.PaymentOrder{ID: "order_1", Amount: amount, Currency: "INR"}, nil
}

func (f *fakeVoyager) Login(ctx context.Context, c domain.Credentials) (domain.LoginResult, error) {
	f.logins++
	return f.login, f.loginErr
}

func (f *fakeVoyager) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.availCalls
}

type memStore struct {
	mu sync.Mutex
	m  map[string]domain.Session
}

func newMemStore() *memStore { return &memStore{m: map[string]domain.Session{}} }

func (s *memStore) Save(ctx context.Context, sess domain.Session, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[sess.ID] = sess
	return nil
}

func (s *memStore) Load(ctx context.Context, id string) (domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.m[id]
	if !ok {
		return domain.Session{}, domain.ErrNoSession
	}
	return sess, nil
}

func (s *memStore) Update(ctx context.Context, id string, ttl time.Duration, fn func(*domain.Session) error) (domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.m[id]
	if !ok {
		return domain.Session{}, domain.ErrNoSession
	}
	if err := fn(&sess); err != nil {
		return domain.Session{}, err
	}
	s.m[id] = sess
	return sess, nil
}

func (s *memStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, id)
	return nil
}

type fakeAudit struct {
	mu        sync.Mutex
	fallbacks []domain.FallbackEvent
	bookings  []domain.BookingEvent
}

func (a *fakeAudit) LogFallback(ctx context.Context, e domain.FallbackEvent) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.fallbacks = append(a.fallbacks, e)
	return nil
}

func (a *fakeAudit) LogBooking(ctx context.Context, e domain.BookingEvent) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.bookings = append(a.bookings, e)
	return nil
}

// ---- fixtures ----

var fixedNow = time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)

func rawCatalog() []map[string]any {
	return []map[string]any{
		{
			"_id": "h1", "name": "Alpine Lodge", "location": "Manali", "price": 3000.0,
			"standard_rooms": []any{map[string]any{"price": 1000.0, "features": []any{"Balcony"}}},
			"deluxe_rooms":   []any{map[string]any{"price": 2000.0}},
		},
		{"_id": "h2", "name": "Beach House", "place": "Goa", "price": "1800"},
	}
}

func day(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

func readySession() domain.Session {
	return domain.Session{
		ID:              "s1",
		Token:           "tok",
		Email:           "ana@example.com",
		Name:            "Ana",
		SelectedHotelID: "h1",
		Stay: domain.StayDraft{
			CheckIn:  day(2026, 10, 20),
			CheckOut: day(2026, 10, 22),
			RoomType: domain.RoomStandard,
			Rooms:    1,
			Guests:   2,
		},
	}
}

func pct(f float64) *float64 { return &f }
