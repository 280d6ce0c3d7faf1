package domain

import (
	"strings"
	"time"
)

// DateLayout is the wire format of stay dates.
const DateLayout = "2006-01-02"

type StayRequest struct {
	CheckIn  time.Time
	CheckOut time.Time
	RoomType RoomType
	Rooms    int
	Guests   int
}

// StayDraft is the editable stay section of a session. Zero values mean "not chosen yet".
type StayDraft struct {
	CheckIn  time.Time `json:"check_in"`
	CheckOut time.Time `json:"check_out"`
	RoomType RoomType  `json:"room_type"`
	Rooms    int       `json:"rooms"`
	Guests   int       `json:"guests"`
}

// NewStayDraft mirrors the booking form defaults: standard room, one room, two guests.
func NewStayDraft() StayDraft {
	return StayDraft{RoomType: RoomStandard, Rooms: 1, Guests: 2}
}

// SetCheckIn updates check-in and drops a checkout that no longer follows it.
func (d *StayDraft) SetCheckIn(t time.Time) {
	d.CheckIn = t
	if !d.CheckOut.IsZero() && !t.IsZero() && !DateOnly(d.CheckOut).After(DateOnly(t)) {
		d.CheckOut = time.Time{}
	}
}

func (d *StayDraft) SetCheckOut(t time.Time) { d.CheckOut = t }

// Request validates the draft at the submission boundary.
func (d StayDraft) Request() (StayRequest, error) {
	var missing []string
	if d.CheckIn.IsZero() {
		missing = append(missing, "check-in")
	}
	if d.CheckOut.IsZero() {
		missing = append(missing, "check-out")
	}
	if d.RoomType == "" {
		missing = append(missing, "room type")
	}
	if d.Rooms <= 0 {
		missing = append(missing, "number of rooms")
	}
	if len(missing) > 0 {
		return StayRequest{}, Validation("stay", "Please fill in all booking details ("+strings.Join(missing, ", ")+")")
	}
	guests := d.Guests
	if guests <= 0 {
		guests = 1
	}
	return StayRequest{
		CheckIn:  d.CheckIn,
		CheckOut: d.CheckOut,
		RoomType: d.RoomType,
		Rooms:    d.Rooms,
		Guests:   guests,
	}, nil
}

// DateOnly truncates t to midnight in its own location.
func DateOnly(t time.Time) time.Time {
	y, m, day := t.Date()
	return time.Date(y, m, day, 0, 0, 0, 0, t.Location())
}

// ParseDate parses a YYYY-MM-DD value in loc. An empty string yields the zero time.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation(DateLayout, s, loc)
	if err != nil {
		return time.Time{}, Validation("date", "dates must use the YYYY-MM-DD format")
	}
	return t, nil
}

// FormatDate renders t for the wire; the zero time renders as "".
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}
