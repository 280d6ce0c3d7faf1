package voyager_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"voyager_booking/internal/adapters/voyager"
	"voyager_booking/internal/domain"
)

func newClient(t *testing.T, url string, opts ...voyager.Option) *voyager.Client {
	t.Helper()
	cl, err := voyager.New(url, 100, opts...) // high RPS for tests
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	return cl
}

func kindOf(t *testing.T, err error) *domain.Error {
	t.Helper()
	var de *domain.Error
	if !errors.As(err, &de) {
		t.Fatalf("expected *domain.Error, got %T: %v", err, err)
	}
	return de
}

func TestClient_ListHotels_RetriesOn429ThenSuccess(t *testing.T) {
	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/owner/hotel/all" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		switch atomic.AddInt32(&hits, 1) {
		case 1:
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
		default:
			_ = json.NewEncoder(w).Encode([]map[string]any{{"_id": "h1", "name": "Alpine Lodge"}})
		}
	}))
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	got, err := newClient(t, ts.URL).ListHotels(ctx, "")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(got) != 1 || got[0]["_id"] != "h1" {
		t.Fatalf("unexpected payload: %+v", got)
	}
	if atomic.LoadInt32(&hits) != 2 {
		t.Fatalf("expected 2 calls, got %d", hits)
	}
}

func TestClient_ListHotels_ServerErrorNotRetried(t *testing.T) {
	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer ts.Close()

	_, err := newClient(t, ts.URL).ListHotels(context.Background(), "")
	if de := kindOf(t, err); de.Kind != domain.KindServer || de.Status != http.StatusBadGateway {
		t.Fatalf("unexpected error: %v", err)
	}
	if atomic.LoadInt32(&hits) != 1 {
		t.Fatalf("server errors must not be retried, got %d calls", hits)
	}
}

func TestClient_AvailableHotels_WireShape(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/bookings/available-hotels" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("authorization header: %q", got)
		}
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["room_type"] != "deluxe" || body["check_in_date"] != "2026-10-20" ||
			body["check_out_date"] != "2026-10-22" || body["num_rooms"] != 2.0 {
			t.Errorf("unexpected body: %+v", body)
		}
		_, _ = w.Write([]byte(`{"success":true,"availableHotels":[{"hotelId":"h1","hotelName":"Alpine Lodge"}]}`))
	}))
	defer ts.Close()

	res, err := newClient(t, ts.URL).AvailableHotels(context.Background(), "tok", domain.AvailabilityQuery{
		RoomType: domain.RoomDeluxe,
		CheckIn:  time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC),
		CheckOut: time.Date(2026, 10, 22, 0, 0, 0, 0, time.UTC),
		Rooms:    2,
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if !res.Success || len(res.Hotels) != 1 || res.Hotels[0].HotelID != "h1" {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestClient_AvailableHotels_StatusKinds(t *testing.T) {
	cases := map[int]domain.ErrorKind{
		http.StatusBadRequest:          domain.KindRequest,
		http.StatusUnauthorized:        domain.KindAuthorization,
		http.StatusForbidden:           domain.KindAuthorization,
		http.StatusNotFound:            domain.KindNotFound,
		http.StatusInternalServerError: domain.KindServer,
	}
	for status, want := range cases {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"message":"nope"}`))
		}))
		_, err := newClient(t, ts.URL).AvailableHotels(context.Background(), "", domain.AvailabilityQuery{RoomType: domain.RoomStandard, Rooms: 1})
		ts.Close()

		de := kindOf(t, err)
		if de.Kind != want || de.Status != status || de.Message != "nope" {
			t.Fatalf("status %d: unexpected error %+v", status, de)
		}
	}
}

func TestClient_NetworkError(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close() // nothing listens any more

	_, err := newClient(t, url).AvailableHotels(context.Background(), "", domain.AvailabilityQuery{Rooms: 1})
	if de := kindOf(t, err); de.Kind != domain.KindNetwork {
		t.Fatalf("expected network error, got %v", err)
	}
}

func TestClient_Login_TimesOut(t *testing.T) {
	release := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer ts.Close()
	defer close(release)

	_, err := newClient(t, ts.URL, voyager.WithLoginTimeout(50*time.Millisecond)).
		Login(context.Background(), domain.Credentials{Email: "a@b.co", Password: "x"})
	de := kindOf(t, err)
	if de.Kind != domain.KindTimeout || de.Message != "Request timed out. Please try again." {
		t.Fatalf("unexpected error: %+v", de)
	}
}

func TestClient_Login(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var cr domain.Credentials
		_ = json.NewDecoder(r.Body).Decode(&cr)
		if cr.Password != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"token":"t.k.n","user":{"role":"Owner","email":"o@x.io","name":"Olga"}}`))
	}))
	defer ts.Close()
	cl := newClient(t, ts.URL)

	res, err := cl.Login(context.Background(), domain.Credentials{Email: "o@x.io", Password: "secret"})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if res.Token != "t.k.n" || res.Role != "Owner" || res.Name != "Olga" {
		t.Fatalf("unexpected result: %+v", res)
	}

	_, err = cl.Login(context.Background(), domain.Credentials{Email: "o@x.io", Password: "wrong"})
	if de := kindOf(t, err); de.Kind != domain.KindAuthorization || de.Message != "Invalid email or password." {
		t.Fatalf("unexpected error: %+v", de)
	}
}

func TestClient_SubmitBooking_NumericID(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["persons"] != 1.0 || body["hotel_name"] != "Alpine Lodge" {
			t.Errorf("unexpected body: %+v", body)
		}
		_, _ = w.Write([]byte(`{"success":true,"message":"Rooms booked successfully!","booking_id":98765}`))
	}))
	defer ts.Close()

	conf, err := newClient(t, ts.URL).SubmitBooking(context.Background(), "tok", domain.BookingSubmission{
		HotelName: "Alpine Lodge",
		Stay:      domain.StayRequest{RoomType: domain.RoomSuite, Rooms: 1},
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if !conf.Success || conf.BookingID != "98765" {
		t.Fatalf("unexpected confirmation: %+v", conf)
	}
}
