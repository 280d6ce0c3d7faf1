package booking

import (
	"context"
	"errors"
	"strings"
	"time"

	"voyager_booking/internal/domain"
)

type PriceBand struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// DefaultPriceBand is the slider range the booking page starts with.
var DefaultPriceBand = PriceBand{Min: 0, Max: 15000}

func (b PriceBand) Contains(p float64) bool { return p >= b.Min && p <= b.Max }

// Criteria is one "apply filters" action. Zero stay fields mean "not filled in".
type Criteria struct {
	CheckIn  time.Time
	CheckOut time.Time
	RoomType domain.RoomType
	Rooms    int
	Text     string
	Band     PriceBand
}

type State string

const (
	StateIdle       State = "idle"
	StateValidating State = "validating"
	StateQuerying   State = "querying"
	StateApplied    State = "applied"
	StateFallback   State = "fallback"
)

type Path string

const (
	PathNone     Path = ""
	PathApplied  Path = "applied"
	PathFallback Path = "fallback"
)

type Outcome struct {
	Hotels []domain.Hotel
	Path   Path
	States []State
	Cause  error // why the fallback path was taken
}

// Filter runs the two-tier availability strategy: the remote availability
// service first, client-side predicates when that service can't be consulted.
type Filter struct {
	checker domain.AvailabilityChecker
	loc     *time.Location
	now     func() time.Time
}

func NewFilter(c domain.AvailabilityChecker, loc *time.Location) *Filter {
	if loc == nil {
		loc = time.Local
	}
	return &Filter{checker: c, loc: loc, now: time.Now}
}

// WithClock swaps the clock used for "today".
func (f *Filter) WithClock(now func() time.Time) *Filter {
	cp := *f
	cp.now = now
	return &cp
}

// Apply never mutates catalog; results keep catalog order.
func (f *Filter) Apply(ctx context.Context, token string, catalog []domain.Hotel, c Criteria) (Outcome, error) {
	out := Outcome{States: []State{StateIdle, StateValidating}}

	if err := f.validate(c); err != nil {
		out.States = append(out.States, StateIdle)
		return out, err
	}

	out.States = append(out.States, StateQuerying)
	res, err := f.checker.AvailableHotels(ctx, token, domain.AvailabilityQuery{
		RoomType: c.RoomType,
		CheckIn:  c.CheckIn,
		CheckOut: c.CheckOut,
		Rooms:    c.Rooms,
	})
	if err != nil {
		if !ShouldFallback(err) {
			out.States = append(out.States, StateIdle)
			return out, err
		}
		out.Hotels = Fallback(catalog, c)
		out.Path = PathFallback
		out.Cause = err
		out.States = append(out.States, StateFallback, StateIdle)
		return out, nil
	}

	out.Path = PathApplied
	out.States = append(out.States, StateApplied, StateIdle)
	if !res.Success {
		out.Hotels = []domain.Hotel{}
		return out, nil
	}
	out.Hotels = applyPrimary(catalog, res.Hotels, c)
	return out, nil
}

func (f *Filter) validate(c Criteria) error {
	var missing []string
	if c.CheckIn.IsZero() {
		missing = append(missing, "check-in")
	}
	if c.CheckOut.IsZero() {
		missing = append(missing, "check-out")
	}
	if c.RoomType == "" {
		missing = append(missing, "room type")
	}
	if c.Rooms <= 0 {
		missing = append(missing, "number of rooms")
	}
	if len(missing) > 0 {
		return domain.Validation("filters",
			"Please fill in all filter criteria ("+strings.Join(missing, ", ")+")")
	}
	if err := ValidateRange(c.CheckIn, c.CheckOut, Today(f.now(), f.loc)); err != nil {
		return &domain.Error{Kind: domain.KindValidation, Op: "filters", Message: err.Error(), Err: err}
	}
	return nil
}

// ShouldFallback reports whether a failed availability query degrades to client-side filtering.
// Server errors are surfaced instead; a cancelled caller gets nothing.
func ShouldFallback(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	switch domain.KindOf(err) {
	case domain.KindServer, domain.KindValidation:
		return false
	}
	return true
}

func applyPrimary(catalog []domain.Hotel, avail []domain.AvailableHotel, c Criteria) []domain.Hotel {
	ids := make(map[string]struct{}, len(avail))
	names := make(map[string]struct{})
	for _, a := range avail {
		if a.HotelID != "" {
			ids[a.HotelID] = struct{}{}
		} else if a.HotelName != "" {
			names[a.HotelName] = struct{}{}
		}
	}

	q := normalizeQuery(c.Text)
	out := make([]domain.Hotel, 0, len(avail))
	for _, h := range catalog {
		_, byID := ids[h.ID]
		_, byName := names[h.Name]
		if !byID && !byName {
			continue
		}
		if matchesText(h, q) && matchesBand(h, c.Band) {
			out = append(out, h)
		}
	}
	return out
}

// Fallback applies the client-side predicate set to the full catalog without touching the network.
func Fallback(catalog []domain.Hotel, c Criteria) []domain.Hotel {
	q := normalizeQuery(c.Text)
	out := make([]domain.Hotel, 0, len(catalog))
	for _, h := range catalog {
		if matchesText(h, q) &&
			matchesBand(h, c.Band) &&
			matchesRoomType(h, c.RoomType) &&
			matchesDates(c.CheckIn, c.CheckOut) {
			out = append(out, h)
		}
	}
	return out
}

// MatchBasic is the browsing filter used before any availability check: text and price band only.
func MatchBasic(catalog []domain.Hotel, text string, band PriceBand) []domain.Hotel {
	q := normalizeQuery(text)
	out := make([]domain.Hotel, 0, len(catalog))
	for _, h := range catalog {
		if matchesText(h, q) && matchesBand(h, band) {
			out = append(out, h)
		}
	}
	return out
}

func normalizeQuery(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func matchesText(h domain.Hotel, q string) bool {
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(h.Name), q) ||
		strings.Contains(strings.ToLower(h.Location), q)
}

// matchesBand checks the offerings when there are any, the base price otherwise.
func matchesBand(h domain.Hotel, b PriceBand) bool {
	if len(h.Offerings) == 0 {
		return b.Contains(h.BasePrice)
	}
	for _, o := range h.Offerings {
		if b.Contains(o.Price) {
			return true
		}
	}
	return false
}

func matchesRoomType(h domain.Hotel, t domain.RoomType) bool {
	if len(h.Offerings) == 0 || t == "" {
		return true
	}
	_, ok := h.Offering(t)
	return ok
}

func matchesDates(in, out time.Time) bool {
	if in.IsZero() || out.IsZero() {
		return true
	}
	return domain.DateOnly(out).After(domain.DateOnly(in))
}
