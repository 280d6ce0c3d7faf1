package app

import (
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"voyager_booking/internal/domain"
)

/********** alias registries (single source of truth) **********/

var hotelAliases = map[string][]string{
	"id":          {"_id", "id", "hotelId", "hotel_id"},
	"name":        {"name", "hotel_name", "hotelName"},
	"location":    {"location", "place", "city", "address"},
	"description": {"description", "about"},
	"image":       {"main_image", "image", "thumbnail"},
}

// image collections merged into Hotel.Images, in display order
var imagePaths = []string{"images", "hotel_images", "room_images", "amenities_images", "dining_images"}

// room arrays keyed by the room type they list
var roomPaths = map[domain.RoomType]string{
	domain.RoomStandard: "standard_rooms",
	domain.RoomDeluxe:   "deluxe_rooms",
	domain.RoomSuite:    "suite_rooms",
}

const (
	defaultHotelName = "Unnamed Hotel"
	defaultLocation  = "Location not specified"

	defaultRoomDescription = "No description available."
)

/********** tiny helpers **********/

// lookupAny: safe nested lookup with dot paths on maps.
func lookupAny(m map[string]any, path string) any {
	cur := any(m)
	for _, part := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		v, ok := obj[part]
		if !ok {
			return nil
		}
		cur = v
	}
	return cur
}

// lookupStr returns the string at path or "". Numbers are formatted, so an
// upstream that sends numeric ids still maps.
func lookupStr(m map[string]any, path string) string {
	switch v := lookupAny(m, path).(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return ""
}

// firstNonEmptyAlias: first non-empty string for a named alias set.
func firstNonEmptyAlias(m map[string]any, aliases map[string][]string, key string) string {
	for _, p := range aliases[key] {
		if s := lookupStr(m, p); s != "" {
			return s
		}
	}
	return ""
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// getFloatFlexible: number from several paths (float64/int/string like "8,0").
func getFloatFlexible(m map[string]any, paths ...string) *float64 {
	for _, k := range paths {
		switch v := lookupAny(m, k).(type) {
		case float64:
			f := v
			return &f
		case int:
			f := float64(v)
			return &f
		case string:
			s := strings.TrimSpace(strings.ReplaceAll(v, ",", "."))
			if s == "" {
				continue
			}
			if f, err := strconv.ParseFloat(s, 64); err == nil {
				return &f
			}
		}
	}
	return nil
}

// stringsOf accepts []any holding strings or {url/src/name} objects.
func stringsOf(v any) []string {
	raw, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, it := range raw {
		switch t := it.(type) {
		case string:
			if t = strings.TrimSpace(t); t != "" {
				out = append(out, t)
			}
		case map[string]any:
			for _, k := range []string{"url", "src", "name"} {
				if s, ok := t[k].(string); ok && s != "" {
					out = append(out, s)
					break
				}
			}
		}
	}
	return out
}

// firstSliceStrings: first path holding a non-empty list.
func firstSliceStrings(m map[string]any, paths ...string) []string {
	for _, k := range paths {
		if out := stringsOf(lookupAny(m, k)); len(out) > 0 {
			return out
		}
	}
	return nil
}

// mergedSliceStrings concatenates every listed path, dropping duplicates.
func mergedSliceStrings(m map[string]any, paths ...string) []string {
	seen := make(map[string]struct{}, 16)
	var out []string
	for _, k := range paths {
		for _, s := range stringsOf(lookupAny(m, k)) {
			if _, dup := seen[s]; dup {
				continue
			}
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}
	return out
}

/********** hotel mapper **********/

// MapCatalog maps raw catalog records, dropping those without an identifier.
func MapCatalog(raw []map[string]any) []domain.Hotel {
	out := make([]domain.Hotel, 0, len(raw))
	for _, p := range raw {
		h := mapHotel(p)
		if h.ID == "" {
			log.Warn().Str("context", "MapCatalog").Str("name", h.Name).Msg("skipping hotel without id")
			continue
		}
		out = append(out, h)
	}
	return out
}

func mapHotel(p map[string]any) domain.Hotel {
	h := domain.Hotel{
		ID:          firstNonEmptyAlias(p, hotelAliases, "id"),
		Name:        orDefault(firstNonEmptyAlias(p, hotelAliases, "name"), defaultHotelName),
		Location:    orDefault(firstNonEmptyAlias(p, hotelAliases, "location"), defaultLocation),
		Rating:      getFloatFlexible(p, "rating", "stars", "rating.value"),
		Description: firstNonEmptyAlias(p, hotelAliases, "description"),
		Image:       firstNonEmptyAlias(p, hotelAliases, "image"),
		Images:      mergedSliceStrings(p, imagePaths...),
		Offerings:   mapOfferings(p),
		Amenities:   mapAmenities(lookupAny(p, "amenities")),
		Features:    firstSliceStrings(p, "features"),
		Attractions: firstSliceStrings(p, "nearby_attractions", "attractions"),
		Transport: domain.Transport{
			Airports: firstSliceStrings(p, "airports", "transport.airports"),
			Rail:     firstSliceStrings(p, "rail", "transport.rail"),
			Bus:      firstSliceStrings(p, "bus", "transport.bus"),
			Ports:    firstSliceStrings(p, "ports", "transport.ports"),
			Local:    firstSliceStrings(p, "local_transport", "transport.local"),
		},
	}
	if f := getFloatFlexible(p, "price", "base_price"); f != nil {
		h.BasePrice = *f
	}
	if h.Image == "" && len(h.Images) > 0 {
		h.Image = h.Images[0]
	}
	lat := getFloatFlexible(p, "geolocation.latitude", "geolocation.lat", "latitude")
	lon := getFloatFlexible(p, "geolocation.longitude", "geolocation.lng", "longitude")
	if lat != nil && lon != nil {
		h.Geo = &domain.Coords{Lat: *lat, Lon: *lon}
	}
	return h
}

// mapOfferings emits one offering per room listed under each type, in
// standard, deluxe, suite order. A price that is not a JSON number maps to 0.
func mapOfferings(p map[string]any) []domain.RoomOffering {
	var out []domain.RoomOffering
	for _, t := range domain.RoomTypes {
		rooms, ok := lookupAny(p, roomPaths[t]).([]any)
		if !ok {
			continue
		}
		for _, r := range rooms {
			room, ok := r.(map[string]any)
			if !ok {
				continue
			}
			o := domain.RoomOffering{
				Type:        t,
				Price:       numberOrZero(room["price"]),
				Available:   t.DefaultAvailable(),
				Description: orDefault(lookupStr(room, "description"), defaultRoomDescription),
				Features:    firstSliceStrings(room, "features"),
			}
			if n := getFloatFlexible(room, "available", "availability", "count"); n != nil && *n >= 0 {
				o.Available = int(*n)
			}
			out = append(out, o)
		}
	}
	return out
}

func numberOrZero(v any) float64 {
	switch x := v.(type) {
	case float64:
		return x
	case int:
		return float64(x)
	case int64:
		return float64(x)
	}
	return 0
}

// mapAmenities accepts either {category: [items]} or a flat list.
func mapAmenities(v any) map[string][]string {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string][]string, len(t))
		for k, raw := range t {
			if items := stringsOf(raw); len(items) > 0 {
				out[k] = items
			}
		}
		if len(out) == 0 {
			return nil
		}
		return out
	case []any:
		if items := stringsOf(t); len(items) > 0 {
			return map[string][]string{"general": items}
		}
	}
	return nil
}
