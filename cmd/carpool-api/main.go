// README: Entry point; loads config, wires services, starts the HTTP server.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"carpool/internal/config"
	httptransport "carpool/internal/http"
	"carpool/internal/infra"
	"carpool/internal/maps"
	"carpool/internal/modules/booking"
	"carpool/internal/modules/pricing"
	"carpool/internal/modules/ride"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := infra.NewLogger()
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()

	dbPool, err := infra.NewDB(ctx, cfg.DB.DSN)
	if err != nil {
		log.Fatal(err)
	}

	redisClient := infra.NewRedis(cfg.Redis.Addr)

	routeService, err := maps.NewRouteService(cfg.Maps.APIKey)
	if err != nil {
		log.Fatalf("maps init: %v", err)
	}
	routes := maps.NewCachedProvider(routeService, redisClient,
		time.Duration(cfg.Routes.CacheTTLMinutes)*time.Minute)

	pricingStore := pricing.NewStore(dbPool)
	pricingSvc := pricing.NewService(pricingStore, routes)

	rideStore := ride.NewStore(dbPool)
	rideSvc := ride.NewService(rideStore, routes, pricingSvc, cfg.Routes, logger)

	bookingStore := booking.NewStore(dbPool)
	bookingSvc := booking.NewService(bookingStore, rideStore)

	router := httptransport.NewRouter(httptransport.RouterDeps{
		Rides:     rideSvc,
		Bookings:  bookingSvc,
		Pricing:   pricingSvc,
		JWTSecret: cfg.Auth.JWTSecret,
		Log:       logger,
	})

	server := &http.Server{Addr: cfg.HTTP.Addr, Handler: router}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal(err)
	}
}
