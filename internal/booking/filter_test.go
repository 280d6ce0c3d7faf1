package booking_test

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voyager_booking/internal/booking"
	"voyager_booking/internal/domain"
)

// ---- fakes ----

type fakeChecker struct {
	res   domain.AvailabilityResult
	err   error
	calls int
	last  domain.AvailabilityQuery
}

func (f *fakeChecker) AvailableHotels(ctx context.Context, token string, q domain.AvailabilityQuery) (domain.AvailabilityResult, error) {
	f.calls++
	f.last = q
	return f.res, f.err
}

var fixedNow = time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)

func newFilter(c domain.AvailabilityChecker) *booking.Filter {
	return booking.NewFilter(c, time.UTC).WithClock(func() time.Time { return fixedNow })
}

func sampleCatalog() []domain.Hotel {
	return []domain.Hotel{
		{ID: "a", Name: "Alpine Lodge", Location: "Manali", BasePrice: 3000,
			Offerings: []domain.RoomOffering{{Type: domain.RoomDeluxe, Price: 2000}}},
		{ID: "b", Name: "Beach House", Location: "Goa", BasePrice: 1000,
			Offerings: []domain.RoomOffering{{Type: domain.RoomStandard, Price: 1800}}},
		{ID: "c", Name: "City Inn", Location: "Mumbai", BasePrice: 500,
			Offerings: []domain.RoomOffering{{Type: domain.RoomStandard, Price: 500}, {Type: domain.RoomDeluxe, Price: 900}}},
		{ID: "d", Name: "Desert Camp", Location: "Jaisalmer", BasePrice: 700},
	}
}

func criteria() booking.Criteria {
	return booking.Criteria{
		CheckIn:  time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC),
		CheckOut: time.Date(2026, 10, 22, 0, 0, 0, 0, time.UTC),
		RoomType: domain.RoomDeluxe,
		Rooms:    1,
		Band:     booking.DefaultPriceBand,
	}
}

func ids(hs []domain.Hotel) []string {
	out := make([]string, 0, len(hs))
	for _, h := range hs {
		out = append(out, h.ID)
	}
	return out
}

// ---- tests ----

func TestFilter_PrimaryIntersectsThenFiltersByBand(t *testing.T) {
	chk := &fakeChecker{res: domain.AvailabilityResult{Success: true, Hotels: []domain.AvailableHotel{
		{HotelID: "a", HotelName: "Alpine Lodge"}, {HotelID: "b", HotelName: "Beach House"},
	}}}
	c := criteria()
	c.Band = booking.PriceBand{Min: 0, Max: 1500}

	out, err := newFilter(chk).Apply(context.Background(), "tok", sampleCatalog(), c)
	require.NoError(t, err)
	assert.Equal(t, booking.PathApplied, out.Path)
	assert.Empty(t, out.Hotels, "a is priced out, b too, c and d were not returned")
	assert.Equal(t, []booking.State{
		booking.StateIdle, booking.StateValidating, booking.StateQuerying, booking.StateApplied, booking.StateIdle,
	}, out.States)

	assert.Equal(t, 1, chk.calls)
	assert.Equal(t, domain.RoomDeluxe, chk.last.RoomType)
	assert.Equal(t, 1, chk.last.Rooms)
}

func TestFilter_PrimaryKeepsCatalogOrderAndText(t *testing.T) {
	chk := &fakeChecker{res: domain.AvailabilityResult{Success: true, Hotels: []domain.AvailableHotel{
		{HotelID: "c"}, {HotelID: "d"}, {HotelID: "a"},
	}}}
	c := criteria()

	out, err := newFilter(chk).Apply(context.Background(), "", sampleCatalog(), c)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c", "d"}, ids(out.Hotels))

	c.Text = "MUMB"
	out, err = newFilter(chk).Apply(context.Background(), "", sampleCatalog(), c)
	require.NoError(t, err)
	assert.Equal(t, []string{"c"}, ids(out.Hotels), "location substring, case-insensitive")
}

func TestFilter_PrimaryMatchesByNameWhenIDMissing(t *testing.T) {
	chk := &fakeChecker{res: domain.AvailabilityResult{Success: true, Hotels: []domain.AvailableHotel{
		{HotelName: "Desert Camp"},
	}}}
	out, err := newFilter(chk).Apply(context.Background(), "", sampleCatalog(), criteria())
	require.NoError(t, err)
	assert.Equal(t, []string{"d"}, ids(out.Hotels))
}

func TestFilter_EmptyPrimaryDoesNotFallBack(t *testing.T) {
	for _, res := range []domain.AvailabilityResult{
		{Success: true},
		{Success: false, Hotels: []domain.AvailableHotel{{HotelID: "a"}}},
	} {
		out, err := newFilter(&fakeChecker{res: res}).Apply(context.Background(), "", sampleCatalog(), criteria())
		require.NoError(t, err)
		assert.Equal(t, booking.PathApplied, out.Path)
		assert.NotNil(t, out.Hotels)
		assert.Empty(t, out.Hotels)
	}
}

func TestFilter_FallbackTriggers(t *testing.T) {
	cases := map[string]error{
		"unauthorized": &domain.Error{Kind: domain.KindAuthorization, Op: "voyager.available-hotels", Status: 401},
		"forbidden":    &domain.Error{Kind: domain.KindAuthorization, Op: "voyager.available-hotels", Status: 403},
		"bad request":  &domain.Error{Kind: domain.KindRequest, Op: "voyager.available-hotels", Status: 400},
		"network":      &domain.Error{Kind: domain.KindNetwork, Op: "voyager.available-hotels", Err: &net.OpError{Op: "dial", Err: errors.New("refused")}},
		"timeout":      context.DeadlineExceeded,
	}
	for name, cause := range cases {
		t.Run(name, func(t *testing.T) {
			catalog := sampleCatalog()
			c := criteria()
			out, err := newFilter(&fakeChecker{err: cause}).Apply(context.Background(), "", catalog, c)
			require.NoError(t, err)
			assert.Equal(t, booking.PathFallback, out.Path)
			assert.Equal(t, booking.Fallback(catalog, c), out.Hotels, "observably equal to explicit fallback")
			assert.ErrorIs(t, out.Cause, cause)
			assert.Equal(t, booking.StateFallback, out.States[len(out.States)-2])
		})
	}
}

func TestFilter_ServerErrorSurfaces(t *testing.T) {
	cause := &domain.Error{Kind: domain.KindServer, Op: "voyager.available-hotels", Status: 503}
	out, err := newFilter(&fakeChecker{err: cause}).Apply(context.Background(), "", sampleCatalog(), criteria())
	require.Error(t, err)
	assert.Equal(t, domain.KindServer, domain.KindOf(err))
	assert.Equal(t, booking.PathNone, out.Path)
	assert.Nil(t, out.Hotels)
}

func TestFilter_ValidatingFailsClosed(t *testing.T) {
	mutations := map[string]func(*booking.Criteria){
		"no check-in":  func(c *booking.Criteria) { c.CheckIn = time.Time{} },
		"no check-out": func(c *booking.Criteria) { c.CheckOut = time.Time{} },
		"no room type": func(c *booking.Criteria) { c.RoomType = "" },
		"no rooms":     func(c *booking.Criteria) { c.Rooms = 0 },
		"same day":     func(c *booking.Criteria) { c.CheckOut = c.CheckIn },
		"in the past":  func(c *booking.Criteria) { c.CheckIn = fixedNow.AddDate(0, 0, -2) },
	}
	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			chk := &fakeChecker{res: domain.AvailabilityResult{Success: true}}
			c := criteria()
			mutate(&c)
			out, err := newFilter(chk).Apply(context.Background(), "", sampleCatalog(), c)
			require.Error(t, err)
			assert.Equal(t, domain.KindValidation, domain.KindOf(err))
			assert.Zero(t, chk.calls, "no network call")
			assert.Equal(t, []booking.State{booking.StateIdle, booking.StateValidating, booking.StateIdle}, out.States)
		})
	}
}

func TestFilter_IdempotentAndNonMutating(t *testing.T) {
	chk := &fakeChecker{res: domain.AvailabilityResult{Success: true, Hotels: []domain.AvailableHotel{
		{HotelID: "a"}, {HotelID: "c"},
	}}}
	catalog := sampleCatalog()
	before := sampleCatalog()
	f := newFilter(chk)

	first, err := f.Apply(context.Background(), "", catalog, criteria())
	require.NoError(t, err)
	second, err := f.Apply(context.Background(), "", catalog, criteria())
	require.NoError(t, err)

	assert.Equal(t, first.Hotels, second.Hotels)
	assert.Equal(t, before, catalog)
}

func TestFallback_Predicates(t *testing.T) {
	catalog := sampleCatalog()
	c := criteria()

	// deluxe: a (2000) and c have it, d has no offerings so passes the type check
	assert.Equal(t, []string{"a", "c", "d"}, ids(booking.Fallback(catalog, c)))

	c.RoomType = domain.RoomSuite
	assert.Equal(t, []string{"d"}, ids(booking.Fallback(catalog, c)))

	c.RoomType = domain.RoomStandard
	c.Band = booking.PriceBand{Min: 1000, Max: 2000}
	assert.Equal(t, []string{"b"}, ids(booking.Fallback(catalog, c)))

	c.CheckOut = c.CheckIn
	assert.Empty(t, booking.Fallback(catalog, c), "bad dates exclude everything")

	c.CheckIn, c.CheckOut = time.Time{}, time.Time{}
	assert.Equal(t, []string{"b"}, ids(booking.Fallback(catalog, c)), "missing dates are not checked")
}

func TestMatchBasic(t *testing.T) {
	catalog := sampleCatalog()
	assert.Equal(t, []string{"a", "b", "c", "d"}, ids(booking.MatchBasic(catalog, "", booking.DefaultPriceBand)))
	assert.Equal(t, []string{"b"}, ids(booking.MatchBasic(catalog, "beach", booking.DefaultPriceBand)))
	assert.Equal(t, []string{"c", "d"}, ids(booking.MatchBasic(catalog, "", booking.PriceBand{Min: 0, Max: 900})))
}
