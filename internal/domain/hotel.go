package domain

import (
	"fmt"
	"strings"
)

type RoomType string

const (
	RoomStandard RoomType = "standard"
	RoomDeluxe   RoomType = "deluxe"
	RoomSuite    RoomType = "suite"
)

// RoomTypes lists the offered categories in catalog order.
var RoomTypes = []RoomType{RoomStandard, RoomDeluxe, RoomSuite}

// ParseRoomType accepts any casing ("Deluxe", "SUITE").
func ParseRoomType(s string) (RoomType, error) {
	switch RoomType(strings.ToLower(strings.TrimSpace(s))) {
	case RoomStandard:
		return RoomStandard, nil
	case RoomDeluxe:
		return RoomDeluxe, nil
	case RoomSuite:
		return RoomSuite, nil
	}
	return "", Validation("room_type", fmt.Sprintf("unknown room type %q", s))
}

// DefaultAvailable is the per-type inventory shown when the catalog carries none.
func (t RoomType) DefaultAvailable() int {
	switch t {
	case RoomStandard:
		return 5
	case RoomDeluxe:
		return 3
	case RoomSuite:
		return 2
	}
	return 0
}

type RoomOffering struct {
	Type        RoomType `json:"type"`
	Price       float64  `json:"price"`
	Available   int      `json:"available"`
	Description string   `json:"description"`
	Features    []string `json:"features"`
}

type Coords struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type Transport struct {
	Airports []string `json:"airports,omitempty"`
	Rail     []string `json:"rail,omitempty"`
	Bus      []string `json:"bus,omitempty"`
	Ports    []string `json:"ports,omitempty"`
	Local    []string `json:"local,omitempty"`
}

type Hotel struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	Location    string              `json:"location"`
	BasePrice   float64             `json:"price"`
	Rating      *float64            `json:"rating,omitempty"`
	Description string              `json:"description"`
	Image       string              `json:"image"`
	Images      []string            `json:"images"`
	Offerings   []RoomOffering      `json:"room_types"`
	Amenities   map[string][]string `json:"amenities,omitempty"`
	Features    []string            `json:"features,omitempty"`
	Attractions []string            `json:"nearby_attractions,omitempty"`
	Geo         *Coords             `json:"geolocation,omitempty"`
	Transport   Transport           `json:"transport"`
}

// Offering returns the first offering of type t.
func (h Hotel) Offering(t RoomType) (RoomOffering, bool) {
	for _, o := range h.Offerings {
		if o.Type == t {
			return o, true
		}
	}
	return RoomOffering{}, false
}

// FirstAvailable is the offering preselected when a hotel is opened.
func (h Hotel) FirstAvailable() (RoomOffering, bool) {
	for _, o := range h.Offerings {
		if o.Available > 0 {
			return o, true
		}
	}
	return RoomOffering{}, false
}

// FindHotel looks a hotel up by identifier.
func FindHotel(catalog []Hotel, id string) (Hotel, bool) {
	for _, h := range catalog {
		if h.ID == id {
			return h, true
		}
	}
	return Hotel{}, false
}
