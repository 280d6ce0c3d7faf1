package booking_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"voyager_booking/internal/booking"
	"voyager_booking/internal/domain"
)

func pct(f float64) *float64 { return &f }

func TestComputeFinalPrice(t *testing.T) {
	cases := []struct {
		name     string
		base     float64
		nights   int
		rooms    int
		discount *float64
		want     int64
	}{
		{"no discount", 1000, 2, 1, nil, 2240},
		{"ten percent", 1000, 2, 1, pct(10), 2016},
		{"three rooms quarter off", 500, 1, 3, pct(25), 1260},
		{"zero discount same as none", 1000, 2, 1, pct(0), 2240},
		{"full discount", 1000, 2, 1, pct(100), 0},
		{"rounds to nearest", 333, 1, 1, nil, 373},       // 372.96
		{"fractional nightly", 99.5, 3, 2, pct(5), 635}, // 597*0.95*1.12 = 635.208
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, booking.ComputeFinalPrice(tc.base, tc.nights, tc.rooms, tc.discount))
		})
	}
}

func TestNights(t *testing.T) {
	in := time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 3, booking.Nights(in, in.AddDate(0, 0, 3)))
	assert.Equal(t, 3, booking.Nights(in.AddDate(0, 0, 3), in), "absolute distance")
	assert.Equal(t, 1, booking.Nights(in, in), "same day floors to one")
	assert.Equal(t, 1, booking.Nights(time.Time{}, in), "missing date")
	assert.Equal(t, 2, booking.Nights(in, in.Add(25*time.Hour)), "partial day rounds up")
}

func TestNights_IgnoresDSTShift(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skip("tzdata not available")
	}
	// 2026-11-01 is the fall-back day: the local day is 25h long
	in := time.Date(2026, 10, 31, 0, 0, 0, 0, ny)
	out := time.Date(2026, 11, 2, 0, 0, 0, 0, ny)
	assert.Equal(t, 2, booking.Nights(in, out))
}

func TestQuote_Breakdown(t *testing.T) {
	h := domain.Hotel{
		ID:        "h1",
		BasePrice: 800,
		Offerings: []domain.RoomOffering{
			{Type: domain.RoomStandard, Price: 1000},
			{Type: domain.RoomDeluxe, Price: 2500},
			{Type: domain.RoomStandard, Price: 1200},
		},
	}
	in := time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC)
	stay := domain.StayRequest{CheckIn: in, CheckOut: in.AddDate(0, 0, 2), RoomType: domain.RoomStandard, Rooms: 1}

	pb := booking.Quote(h, stay, pct(10))
	assert.Equal(t, 1000.0, pb.BasePrice, "first standard offering wins")
	assert.Equal(t, 2, pb.Nights)
	assert.Equal(t, 2000.0, pb.Subtotal)
	assert.Equal(t, int64(200), pb.DiscountAmount)
	assert.Equal(t, int64(216), pb.TaxAmount)
	assert.Equal(t, int64(2016), pb.Final)

	stay.RoomType = domain.RoomSuite
	pb = booking.Quote(h, stay, nil)
	assert.Equal(t, 800.0, pb.BasePrice, "no suite offering falls back to hotel price")
	assert.Equal(t, int64(0), pb.DiscountAmount)
	assert.Equal(t, int64(1792), pb.Final)
}
