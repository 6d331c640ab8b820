package main // Entry point package

import (
	"log" // Logging library

	"github.com/joho/godotenv"    // .env loader for local development
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/shaadibazaarhub/marketplace/internal/config"
	"github.com/shaadibazaarhub/marketplace/internal/database"
	"github.com/shaadibazaarhub/marketplace/internal/gateway"
	"github.com/shaadibazaarhub/marketplace/internal/handler"
	"github.com/shaadibazaarhub/marketplace/internal/middleware"
	"github.com/shaadibazaarhub/marketplace/internal/queue"
	"github.com/shaadibazaarhub/marketplace/internal/repository"
	"github.com/shaadibazaarhub/marketplace/internal/router"
)

func main() {
	// Load .env if present; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Redis backs rate limiting and the public response cache; both
	// degrade to pass-throughs when the client is nil.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable; rate limiting and response cache disabled")
	}

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	services := repository.NewServiceRepo(db)
	bookings := repository.NewBookingRepo(db)
	orders := repository.NewPaymentOrderRepo(db)

	rzp := gateway.New(cfg.RazorpayKeyID, cfg.RazorpayKeySecret)
	if !rzp.Configured() {
		log.Printf("razorpay keys not set; payment endpoints will answer 503")
	}

	authH := handler.NewAuthHandler(cfg, users, tokens)
	publicH := handler.NewPublicHandler(services)
	providerH := handler.NewProviderHandler(services)
	paymentH := handler.NewPaymentHandler(rzp, services, orders)
	bookingH := handler.NewBookingHandler(bookings, services, orders)

	e := echo.New()
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

	router.RegisterRoutes(e)
	router.RegisterAuth(e, authH, cfg.JWTSecret)
	router.RegisterPublic(e, publicH, rdb)
	router.RegisterProvider(e, providerH, cfg.JWTSecret)
	router.RegisterPayments(e, paymentH, cfg.JWTSecret)
	router.RegisterBookings(e, bookingH, cfg.JWTSecret)

	// Background consumer turning booking.placed events into provider
	// notifications; it reconnects on broker failures.
	go func() {
		if err := queue.StartBookingConsumer(); err != nil {
			log.Printf("booking consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
