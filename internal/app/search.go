package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"voyager_booking/internal/adapters/observability"
	"voyager_booking/internal/booking"
	"voyager_booking/internal/domain"
)

type SearchService struct {
	catalog *CatalogService
	filter  *booking.Filter
	audit   domain.AuditLog // optional
	group   singleflight.Group
}

func NewSearchService(c *CatalogService, f *booking.Filter, audit domain.AuditLog) *SearchService {
	return &SearchService{catalog: c, filter: f, audit: audit}
}

// Browse is the catalog page: text and price band only, no availability call.
func (s *SearchService) Browse(ctx context.Context, token, text string, band booking.PriceBand) ([]domain.Hotel, error) {
	hs, err := s.catalog.Hotels(ctx, token)
	if err != nil {
		return nil, err
	}
	return booking.MatchBasic(hs, text, band), nil
}

// Search is "apply filters" over the session's stay draft. Identical actions
// for the same session that overlap share one availability call and result.
func (s *SearchService) Search(ctx context.Context, sess domain.Session, text string, band booking.PriceBand) (booking.Outcome, error) {
	c := booking.Criteria{
		CheckIn:  sess.Stay.CheckIn,
		CheckOut: sess.Stay.CheckOut,
		RoomType: sess.Stay.RoomType,
		Rooms:    sess.Stay.Rooms,
		Text:     text,
		Band:     band,
	}
	key := fmt.Sprintf("%s|%s|%s|%s|%d|%s|%g|%g", sess.ID,
		domain.FormatDate(c.CheckIn), domain.FormatDate(c.CheckOut), c.RoomType, c.Rooms, c.Text, c.Band.Min, c.Band.Max)

	v, err, shared := s.group.Do(key, func() (any, error) {
		return s.search(ctx, sess, c)
	})
	if shared {
		log.Debug().Str("session", sess.ID).Msg("joined in-flight availability search")
	}
	out, _ := v.(booking.Outcome)
	return out, err
}

func (s *SearchService) search(ctx context.Context, sess domain.Session, c booking.Criteria) (booking.Outcome, error) {
	hs, err := s.catalog.Hotels(ctx, sess.Token)
	if err != nil {
		return booking.Outcome{}, err
	}
	out, err := s.filter.Apply(ctx, sess.Token, hs, c)
	if out.Path != booking.PathNone {
		observability.ObserveFilter(string(out.Path), out.Cause)
	}
	if err != nil || out.Path != booking.PathFallback {
		return out, err
	}

	log.Warn().Err(out.Cause).
		Str("session", sess.ID).
		Str("room_type", string(c.RoomType)).
		Int("results", len(out.Hotels)).
		Msg("availability service unusable, applied basic filters instead")

	if s.audit != nil {
		ev := domain.FallbackEvent{
			SessionID: sess.ID,
			Cause:     domain.KindOf(out.Cause),
			RoomType:  c.RoomType,
			Results:   len(out.Hotels),
		}
		var de *domain.Error
		if errors.As(out.Cause, &de) {
			ev.Status = de.Status
		}
		// detached so a client disconnect does not lose the record
		if aerr := s.audit.LogFallback(context.WithoutCancel(ctx), ev); aerr != nil {
			log.Error().Err(aerr).Str("session", sess.ID).Msg("audit fallback failed")
		}
	}
	return out, nil
}
