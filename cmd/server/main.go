package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hotel-room-reservation/internal/config"
	"github.com/iliyamo/hotel-room-reservation/internal/database"
	"github.com/iliyamo/hotel-room-reservation/internal/handler"
	"github.com/iliyamo/hotel-room-reservation/internal/middleware"
	"github.com/iliyamo/hotel-room-reservation/internal/queue"
	"github.com/iliyamo/hotel-room-reservation/internal/repository"
	"github.com/iliyamo/hotel-room-reservation/internal/router"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Redis is optional; caching and rate limiting degrade to no-ops.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable, response cache and rate limiting disabled")
	}

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	categories := repository.NewRoomCategoryRepo(db)
	rooms := repository.NewRoomRepo(db)
	reservations := repository.NewReservationRepo(db)

	// Registration only grants the guest role; the admin account and a
	// default category/room must exist before the first request.
	err = repository.Seed(context.Background(), users, categories, rooms, repository.SeedConfig{
		AdminUsername: cfg.AdminUser,
		AdminPassword: cfg.AdminPass,
		BcryptCost:    cfg.BcryptCost,
	})
	if err != nil {
		log.Fatalf("seed: %v", err)
	}

	auth := handler.NewAuthHandler(cfg, users, tokens)
	userAdmin := handler.NewUserHandler(cfg, users)
	roomH := handler.NewRoomHandler(rooms, categories)
	reservationH := handler.NewReservationHandler(users, rooms, reservations)
	dashboard := handler.NewDashboardHandler(users, rooms, reservations)

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

	listCache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

	router.RegisterRoutes(e)
	router.RegisterAuth(e, auth, cfg.JWTSecret)
	router.RegisterPublic(e, roomH, listCache)
	router.RegisterSession(e, userAdmin, roomH, reservationH, cfg.JWTSecret)
	router.RegisterAdmin(e, dashboard, userAdmin, roomH, reservationH, cfg.JWTSecret)

	// Audit consumer; runs its own reconnect loop for the process lifetime.
	go func() {
		if err := queue.StartReservationConsumer(); err != nil {
			log.Printf("reservation consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
