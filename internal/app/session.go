package app

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"voyager_booking/internal/domain"
)

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// SessionService is the only writer of session fields. Every write changes one
// section through SessionStore.Update, which also refreshes the expiry.
type SessionService struct {
	voyager domain.VoyagerClient
	store   domain.SessionStore
	catalog *CatalogService
	ttl     time.Duration
	loc     *time.Location
	now     func() time.Time
}

func NewSessionService(v domain.VoyagerClient, st domain.SessionStore, c *CatalogService, ttl time.Duration, loc *time.Location) *SessionService {
	if loc == nil {
		loc = time.Local
	}
	return &SessionService{voyager: v, store: st, catalog: c, ttl: ttl, loc: loc, now: time.Now}
}

// StayPatch carries the stay fields of one edit; nil means unchanged.
type StayPatch struct {
	CheckIn  *string `json:"check_in"`
	CheckOut *string `json:"check_out"`
	RoomType *string `json:"room_type"`
	Rooms    *int    `json:"rooms"`
	Guests   *int    `json:"guests"`
}

func (p StayPatch) Empty() bool {
	return p.CheckIn == nil && p.CheckOut == nil && p.RoomType == nil && p.Rooms == nil && p.Guests == nil
}

func (s *SessionService) Login(ctx context.Context, cr domain.Credentials) (domain.Session, error) {
	cr.Email = strings.TrimSpace(cr.Email)
	if cr.Email == "" || cr.Password == "" {
		return domain.Session{}, domain.Validation("login", "Please enter both email and password.")
	}
	if !emailRe.MatchString(cr.Email) {
		return domain.Session{}, domain.Validation("login", "Please enter a valid email address.")
	}

	res, err := s.voyager.Login(ctx, cr)
	if err != nil {
		return domain.Session{}, err
	}

	claims := tokenClaims(res.Token)
	role := res.Role
	if role == "" {
		role, _ = claims["role"].(string)
	}
	email := res.Email
	if email == "" {
		email = cr.Email
	}
	sess := domain.Session{
		ID:        uuid.NewString(),
		Token:     res.Token,
		UserID:    claimString(claims, "userId", "id", "sub"),
		Role:      domain.ParseRole(role),
		Email:     email,
		Name:      res.Name,
		Stay:      domain.NewStayDraft(),
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.Save(ctx, sess, s.ttl); err != nil {
		return domain.Session{}, fmt.Errorf("save session: %w", err)
	}
	log.Info().Str("session", sess.ID).Str("role", string(sess.Role)).Msg("session started")
	return sess, nil
}

// Logout tears the session down; a missing session is not an error.
func (s *SessionService) Logout(ctx context.Context, id string) error {
	if id == "" {
		return domain.ErrNoSession
	}
	return s.store.Delete(ctx, id)
}

func (s *SessionService) Get(ctx context.Context, id string) (domain.Session, error) {
	return s.store.Load(ctx, id)
}

func (s *SessionService) UpdateStay(ctx context.Context, id string, p StayPatch) (domain.Session, error) {
	return s.update(ctx, id, func(sess *domain.Session) error {
		d := sess.Stay
		if p.CheckIn != nil {
			t, err := domain.ParseDate(*p.CheckIn, s.loc)
			if err != nil {
				return err
			}
			d.SetCheckIn(t)
		}
		if p.CheckOut != nil {
			t, err := domain.ParseDate(*p.CheckOut, s.loc)
			if err != nil {
				return err
			}
			d.SetCheckOut(t)
		}
		if p.RoomType != nil {
			rt, err := domain.ParseRoomType(*p.RoomType)
			if err != nil {
				return err
			}
			d.RoomType = rt
		}
		if p.Rooms != nil {
			if *p.Rooms < 1 {
				return domain.Validation("stay.rooms", "number of rooms must be at least 1")
			}
			d.Rooms = *p.Rooms
		}
		if p.Guests != nil {
			if *p.Guests < 1 {
				return domain.Validation("stay.guests", "number of guests must be at least 1")
			}
			d.Guests = *p.Guests
		}
		sess.Stay = d
		return nil
	})
}

// SelectHotel records the hotel being booked and preselects its first room
// type with availability. Opening a hotel forfeits any discount won for the
// previous one.
func (s *SessionService) SelectHotel(ctx context.Context, id, hotelID string) (domain.Session, error) {
	cur, err := s.store.Load(ctx, id)
	if err != nil {
		return domain.Session{}, err
	}
	h, err := s.catalog.Hotel(ctx, cur.Token, hotelID)
	if err != nil {
		return domain.Session{}, err
	}
	return s.update(ctx, id, func(sess *domain.Session) error {
		sess.SelectedHotelID = h.ID
		sess.Discount = nil
		if o, ok := h.FirstAvailable(); ok {
			sess.Stay.RoomType = o.Type
		}
		return nil
	})
}

// SetDiscount records the mini-game result; nil clears it.
func (s *SessionService) SetDiscount(ctx context.Context, id string, pct *float64) (domain.Session, error) {
	if err := checkDiscount(pct); err != nil {
		return domain.Session{}, err
	}
	return s.update(ctx, id, func(sess *domain.Session) error {
		if sess.SelectedHotelID == "" {
			return domain.ErrHotelNotSelected
		}
		sess.Discount = pct
		return nil
	})
}

func (s *SessionService) update(ctx context.Context, id string, fn func(*domain.Session) error) (domain.Session, error) {
	return s.store.Update(ctx, id, s.ttl, fn)
}

func checkDiscount(pct *float64) error {
	if pct != nil && (*pct < 0 || *pct > 100) {
		return domain.Validation("discount", "discount must be between 0 and 100 percent")
	}
	return nil
}

// tokenClaims reads the login token's claims without verifying the signature;
// the remote API is the only party that can verify it.
func tokenClaims(token string) jwt.MapClaims {
	claims := jwt.MapClaims{}
	if token == "" {
		return claims
	}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		log.Debug().Err(err).Msg("login token is not a readable JWT")
		return jwt.MapClaims{}
	}
	return claims
}

func claimString(c jwt.MapClaims, keys ...string) string {
	for _, k := range keys {
		switch v := c[k].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return fmt.Sprintf("%.0f", v)
		}
	}
	return ""
}
