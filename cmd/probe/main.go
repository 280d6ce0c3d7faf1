// Command probe runs "apply filters" once per room type against the live
// Voyager API and reports which path each search took.
package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"voyager_booking/internal/adapters/observability"
	"voyager_booking/internal/adapters/voyager"
	"voyager_booking/internal/app"
	"voyager_booking/internal/booking"
	"voyager_booking/internal/domain"
	"voyager_booking/internal/shared"
	mysqlrepo "voyager_booking/internal/storage/mysql"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := shared.Load()

	// 1) initialize global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

	checkIn, err := probeCheckIn(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid PROBE_CHECK_IN")
	}
	checkOut := checkIn.AddDate(0, 0, max(cfg.ProbeNights, 1))

	log.Info().
		Str("base", cfg.VoyagerBase).
		Int("workers", cfg.ProbeWorkers).
		Str("check_in", domain.FormatDate(checkIn)).
		Str("check_out", domain.FormatDate(checkOut)).
		Msg("probe starting")

	client, err := voyager.New(cfg.VoyagerBase, cfg.VoyagerRPS, voyager.WithLoginTimeout(cfg.LoginTimeout))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize Voyager client")
	}

	var audit domain.AuditLog
	if cfg.MySQLDSN != "" {
		db, err := mysqlrepo.Open(ctx, cfg.MySQLDSN)
		if err != nil {
			log.Fatal().Err(err).Msg("audit database unavailable")
		}
		defer db.Close()
		audit = mysqlrepo.New(db)
	}

	catalog := app.NewCatalogService(client)
	search := app.NewSearchService(catalog, booking.NewFilter(client, cfg.Location), audit)

	results := make([]booking.Outcome, len(domain.RoomTypes))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(cfg.ProbeWorkers, 1))

	for i, rt := range domain.RoomTypes {
		i, rt := i, rt
		g.Go(func() error {
			sess := domain.Session{
				ID:    "probe-" + uuid.NewString(),
				Token: cfg.ProbeToken,
				Stay: domain.StayDraft{
					CheckIn:  checkIn,
					CheckOut: checkOut,
					RoomType: rt,
					Rooms:    max(cfg.ProbeRooms, 1),
				},
			}
			out, err := search.Search(gctx, sess, "", booking.DefaultPriceBand)
			if err != nil {
				return fmt.Errorf("%s: %w", rt, err)
			}
			results[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Fatal().Err(err).Msg("probe failed")
	}

	stay := domain.StayRequest{CheckIn: checkIn, CheckOut: checkOut, Rooms: max(cfg.ProbeRooms, 1)}
	for i, rt := range domain.RoomTypes {
		out := results[i]
		stay.RoomType = rt
		ev := log.Info().
			Str("room_type", string(rt)).
			Str("path", string(out.Path)).
			Int("hotels", len(out.Hotels))
		if out.Cause != nil {
			ev = ev.Str("cause", domain.KindOf(out.Cause).String())
		}
		if h, pb, ok := cheapest(out.Hotels, stay); ok {
			ev = ev.Str("cheapest", h.Name).Int64("final_price", pb.Final)
		}
		ev.Msg("probe result")
	}
}

func probeCheckIn(cfg shared.Config) (time.Time, error) {
	if cfg.ProbeCheckIn == "" {
		return booking.Today(time.Now(), cfg.Location).AddDate(0, 0, 1), nil
	}
	return domain.ParseDate(cfg.ProbeCheckIn, cfg.Location)
}

func cheapest(hs []domain.Hotel, stay domain.StayRequest) (domain.Hotel, booking.PriceBreakdown, bool) {
	var (
		best   domain.Hotel
		bestPB booking.PriceBreakdown
		found  bool
	)
	for _, h := range hs {
		pb := booking.Quote(h, stay, nil)
		if !found || pb.Final < bestPB.Final {
			best, bestPB, found = h, pb, true
		}
	}
	return best, bestPB, found
}
