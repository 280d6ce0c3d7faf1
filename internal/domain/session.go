package domain

import (
	"strings"
	"time"
)

type Role string

const (
	RoleUser   Role = "User"
	RoleOwner  Role = "Owner"
	RoleVendor Role = "Vendor"
)

// ParseRole maps the upstream role string; anything unknown is a regular user.
func ParseRole(s string) Role {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "owner":
		return RoleOwner
	case "vendor":
		return RoleVendor
	}
	return RoleUser
}

// Home is the sub-application a role lands on after login.
func (r Role) Home() string {
	switch r {
	case RoleOwner:
		return "/hotelApp"
	case RoleVendor:
		return "/vendorApp"
	}
	return "/"
}

// Session is created on successful login and removed on logout.
// Each field has one writer in app.SessionService.
type Session struct {
	ID              string    `json:"id"`
	Token           string    `json:"token"`
	UserID          string    `json:"user_id,omitempty"`
	Role            Role      `json:"role"`
	Email           string    `json:"email"`
	Name            string    `json:"name"`
	SelectedHotelID string    `json:"selected_hotel_id,omitempty"`
	Discount        *float64  `json:"discount,omitempty"`
	Stay            StayDraft `json:"stay"`
	CreatedAt       time.Time `json:"created_at"`
}
