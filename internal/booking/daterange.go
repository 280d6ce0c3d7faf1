// Package booking holds the stay computations: date-range validation, pricing
// and the availability filter. Nothing here performs I/O except through the
// AvailabilityChecker handed to Filter.
package booking

import (
	"time"

	"voyager_booking/internal/domain"
)

// Today returns the caller's calendar day in loc, at midnight.
func Today(now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	return domain.DateOnly(now.In(loc))
}

// ValidateRange rejects same-day or reversed stays and check-ins before today.
// Time-of-day on every argument is ignored.
func ValidateRange(checkIn, checkOut, today time.Time) error {
	in, out := domain.DateOnly(checkIn), domain.DateOnly(checkOut)
	if !out.After(in) {
		return domain.ErrInvalidOrder
	}
	if in.Before(domain.DateOnly(today)) {
		return domain.ErrPastCheckIn
	}
	return nil
}
