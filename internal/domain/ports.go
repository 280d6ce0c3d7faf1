package domain

import (
	"context"
	"time"
)

// AvailabilityChecker is the remote availability query used by the filter's primary path.
type AvailabilityChecker interface {
	AvailableHotels(ctx context.Context, token string, q AvailabilityQuery) (AvailabilityResult, error)
}

type VoyagerClient interface {
	AvailabilityChecker
	ListHotels(ctx context.Context, token string) ([]map[string]any, error)
	SubmitBooking(ctx context.Context, token string, b BookingSubmission) (BookingConfirmation, error)
	SendReceipt(ctx context.Context, r Receipt) error
	CreateOrder(ctx context.Context, hotelID string, amount int64) (PaymentOrder, error)
	Login(ctx context.Context, c Credentials) (LoginResult, error)
}

type SessionStore interface {
	Save(ctx context.Context, s Session, ttl time.Duration) error
	Load(ctx context.Context, id string) (Session, error)
	Delete(ctx context.Context, id string) error
	// Update applies fn to the current session and saves the result atomically.
	// fn may run more than once when writers race, so it must only touch the session.
	Update(ctx context.Context, id string, ttl time.Duration, fn func(*Session) error) (Session, error)
}

// AuditLog records operational events; nothing in the booking flow reads it back.
type AuditLog interface {
	LogFallback(ctx context.Context, e FallbackEvent) error
	LogBooking(ctx context.Context, e BookingEvent) error
}

// ---- wire models ----

type AvailabilityQuery struct {
	RoomType RoomType
	CheckIn  time.Time
	CheckOut time.Time
	Rooms    int
}

type AvailableHotel struct {
	HotelID   string `json:"hotelId"`
	HotelName string `json:"hotelName"`
}

type AvailabilityResult struct {
	Success bool             `json:"success"`
	Hotels  []AvailableHotel `json:"availableHotels"`
}

type BookingSubmission struct {
	HotelName string
	Stay      StayRequest
}

type BookingConfirmation struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	BookingID string `json:"booking_id"`
}

// Receipt is the flat booking summary dispatched for the confirmation email.
type Receipt struct {
	UserName        string  `json:"userName"`
	UserEmail       string  `json:"userEmail"`
	HotelName       string  `json:"hotelName"`
	HotelLocation   string  `json:"hotelLocation"`
	RoomType        string  `json:"roomType"`
	Rooms           int     `json:"rooms"`
	CheckIn         string  `json:"checkIn"`
	CheckOut        string  `json:"checkOut"`
	Guests          int     `json:"guests"`
	SpecialRequests string  `json:"specialRequests"`
	Price           float64 `json:"price"`
	Discount        float64 `json:"discount"`
	FinalPrice      int64   `json:"finalPrice"`
	PaymentStatus   string  `json:"paymentStatus"`
	BookingDate     string  `json:"bookingDate"`
	BookingID       string  `json:"bookingId"`
}

type PaymentOrder struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}

type LoginResult struct {
	Token string
	Role  string
	Email string
	Name  string
}

// ---- audit events ----

type FallbackEvent struct {
	SessionID string
	Cause     ErrorKind
	Status    int
	RoomType  RoomType
	Results   int
}

type BookingEvent struct {
	SessionID  string
	BookingID  string
	HotelID    string
	HotelName  string
	Stay       StayRequest
	FinalPrice int64
	Success    bool
	Message    string
}
