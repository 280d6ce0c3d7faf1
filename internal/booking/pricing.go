package booking

import (
	"math"
	"time"

	"voyager_booking/internal/domain"
)

// TaxRate is applied after discount on every quote.
const TaxRate = 0.12

type PriceBreakdown struct {
	BasePrice       float64 `json:"base_price"`
	Nights          int     `json:"nights"`
	Rooms           int     `json:"rooms"`
	Subtotal        float64 `json:"subtotal"`
	DiscountPercent float64 `json:"discount_percent"`
	DiscountAmount  int64   `json:"discount_amount"`
	TaxAmount       int64   `json:"tax_amount"`
	Final           int64   `json:"final"`
}

// Nights is the ceiling of the day distance between the two dates, at least 1.
// Missing dates count as a single night.
func Nights(checkIn, checkOut time.Time) int {
	if checkIn.IsZero() || checkOut.IsZero() {
		return 1
	}
	d := wallUTC(checkOut).Sub(wallUTC(checkIn))
	if d < 0 {
		d = -d
	}
	n := int(math.Ceil(d.Hours() / 24))
	if n < 1 {
		return 1
	}
	return n
}

// wallUTC re-anchors the wall clock in UTC so DST shifts don't add an hour.
func wallUTC(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

// ComputeFinalPrice returns round((base*nights*rooms) * (1 - discount/100) * 1.12).
// Inputs are not range-checked; callers validate rooms and discount at the boundary.
func ComputeFinalPrice(basePrice float64, nights, rooms int, discountPercent *float64) int64 {
	return int64(math.Round(discounted(subtotal(basePrice, nights, rooms), discountPercent) * (1 + TaxRate)))
}

func subtotal(basePrice float64, nights, rooms int) float64 {
	return basePrice * float64(nights) * float64(rooms)
}

func discounted(total float64, discountPercent *float64) float64 {
	if discountPercent == nil || *discountPercent == 0 {
		return total
	}
	return total * (1 - *discountPercent/100)
}

// BasePrice is the nightly price of the hotel's first offering of type t,
// or the hotel's base price when it has none.
func BasePrice(h domain.Hotel, t domain.RoomType) float64 {
	if o, ok := h.Offering(t); ok {
		return o.Price
	}
	return h.BasePrice
}

// Quote derives a fresh breakdown for the stay.
func Quote(h domain.Hotel, stay domain.StayRequest, discountPercent *float64) PriceBreakdown {
	base := BasePrice(h, stay.RoomType)
	nights := Nights(stay.CheckIn, stay.CheckOut)
	total := subtotal(base, nights, stay.Rooms)

	pb := PriceBreakdown{
		BasePrice: base,
		Nights:    nights,
		Rooms:     stay.Rooms,
		Subtotal:  total,
		TaxAmount: int64(math.Round(discounted(total, discountPercent) * TaxRate)),
		Final:     ComputeFinalPrice(base, nights, stay.Rooms, discountPercent),
	}
	if discountPercent != nil {
		pb.DiscountPercent = *discountPercent
		pb.DiscountAmount = int64(math.Round(total * (*discountPercent / 100)))
	}
	return pb
}
