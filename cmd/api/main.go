package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	server "voyager_booking/internal/adapters/http_server"
	"voyager_booking/internal/adapters/observability"
	redisad "voyager_booking/internal/adapters/redis"
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

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

	reg := observability.InitRegistry()
	observability.Serve(cfg.MetricsAddr, reg)

	// upstream
	client, err := voyager.New(cfg.VoyagerBase, cfg.VoyagerRPS, voyager.WithLoginTimeout(cfg.LoginTimeout))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize Voyager client")
	}

	// sessions
	sessions := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	if err := sessions.Ping(ctx); err != nil {
		log.Fatal().Err(err).Str("addr", cfg.RedisAddr).Msg("redis ping failed")
	}
	log.Info().Msg("redis connection ok")

	// audit log is optional
	var audit domain.AuditLog
	if cfg.MySQLDSN != "" {
		db, err := mysqlrepo.Open(ctx, cfg.MySQLDSN)
		if err != nil {
			log.Fatal().Err(err).Msg("audit database unavailable")
		}
		defer db.Close()
		audit = mysqlrepo.New(db)
		log.Info().Msg("database connection ok")
	}

	catalog := app.NewCatalogService(client)
	filter := booking.NewFilter(client, cfg.Location)

	srv := server.New(cfg.RequestTimeout)
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{
		Sessions: app.NewSessionService(client, sessions, catalog, cfg.SessionTTL, cfg.Location),
		Search:   app.NewSearchService(catalog, filter, audit),
		Checkout: app.NewCheckoutService(client, catalog, audit, cfg.Location),
		Loc:      cfg.Location,
	})

	httpSrv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           srv.Mux(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Str("upstream", cfg.VoyagerBase).Msg("API listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	log.Info().Msg("API stopped")
}
