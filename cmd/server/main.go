package main // Entry point package

import (
	"context"
	"log" // Logging library
	"time"

	"github.com/joho/godotenv"    // Loads .env files in development
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/snehankitpatil/incubation-portal/internal/config"
	"github.com/snehankitpatil/incubation-portal/internal/database"
	"github.com/snehankitpatil/incubation-portal/internal/engine"
	"github.com/snehankitpatil/incubation-portal/internal/handler"
	"github.com/snehankitpatil/incubation-portal/internal/queue"
	"github.com/snehankitpatil/incubation-portal/internal/repository"
	"github.com/snehankitpatil/incubation-portal/internal/router"
)

func main() {
	_ = godotenv.Load() // .env is optional; real deployments set the environment directly
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database open: %v", err)
	}
	defer func() { _ = db.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := database.Migrate(ctx, db); err != nil {
		cancel()
		log.Fatalf("migrate: %v", err)
	}
	cancel()

	halls := repository.NewHallRepo(db)
	startups := repository.NewStartupRepo(db)
	allocations := repository.NewAllocationRepo(db)
	requests := repository.NewSeatChangeRepo(db)

	eng := engine.New(halls, startups, allocations, requests)
	portal := handler.NewPortalHandler(eng, startups, requests, cfg.BcryptCost)
	auth := handler.NewAuthHandler(cfg, startups)

	// Redis backs the response cache and the rate limiter; both are
	// skipped when no client could be configured.
	rdb := config.NewRedisClient()

	// Consume allocation events in the background; the consumer
	// reconnects on its own and only returns on unrecoverable errors.
	go func() {
		if err := queue.StartAllocationConsumer(); err != nil {
			log.Printf("allocation consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	e.HideBanner = true
	router.RegisterRoutes(e, auth, portal, rdb)
	router.RegisterPortal(e, portal, auth, cfg.JWTSecret, rdb)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
