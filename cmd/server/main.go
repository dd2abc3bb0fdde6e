package main // Entry point package

import (
	"context"      // context for startup database calls
	"database/sql" // sentinel error checks during bootstrap
	"errors"       // errors.Is comparisons
	"log"          // Logging library
	"time"         // startup timeouts

	"github.com/joho/godotenv"    // .env loader for local development
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/iliyamo/rehearsal-room-reservation/internal/config"     // Internal config loader
	"github.com/iliyamo/rehearsal-room-reservation/internal/database"   // MySQL connection pool
	"github.com/iliyamo/rehearsal-room-reservation/internal/handler"    // HTTP handlers
	"github.com/iliyamo/rehearsal-room-reservation/internal/middleware" // cache and rate-limit middleware
	"github.com/iliyamo/rehearsal-room-reservation/internal/notify"     // push dispatch
	"github.com/iliyamo/rehearsal-room-reservation/internal/queue"      // push consumer
	"github.com/iliyamo/rehearsal-room-reservation/internal/repository" // DB repositories
	"github.com/iliyamo/rehearsal-room-reservation/internal/router"     // route registration
)

func main() {
	// Load .env if present; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load() // Load environment config

	// Open the MySQL pool and fail fast when the database is unreachable.
	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer func() { _ = db.Close() }()

	// Repositories share the single pool.
	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	deviceTokens := repository.NewDeviceTokenRepo(db)
	rooms := repository.NewRoomRepo(db)
	sessions := repository.NewSessionRepo(db)
	reservations := repository.NewReservationRepo(db)
	availability := repository.NewAvailabilityRepo(db)
	alerts := repository.NewAlertRepo(db)
	evaluations := repository.NewEvaluationRepo(db)

	// Make sure the admin account exists before serving traffic.
	if err := ensureAdmin(cfg, users); err != nil {
		log.Fatalf("admin bootstrap: %v", err)
	}

	// Pushes go through RabbitMQ; the consumer simulates delivery to the
	// registered device tokens.  A broker outage only costs pushes, the
	// consumer reconnects with backoff on its own.
	notifier := notify.NewAMQPNotifier()
	go func() {
		if err := queue.StartPushConsumer(deviceTokens); err != nil {
			log.Printf("push consumer stopped: %v", err)
		}
	}()

	// Redis backs the browse-response cache and the token-bucket rate
	// limiter; both degrade to pass-through when Redis is down.
	rdb := config.NewRedisClient()
	cacheMW := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)
	rateMW := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)

	roomHandler := handler.NewRoomHandler(rooms, alerts, notifier)

	e := echo.New() // Create Echo instance
	router.RegisterRoutes(e)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, users, tokens), cfg.JWTSecret)
	router.RegisterPublic(e, roomHandler, cacheMW)
	router.RegisterMember(e, router.MemberHandlers{
		Rooms:        roomHandler,
		Sessions:     handler.NewSessionHandler(rooms, sessions, reservations, alerts, notifier),
		Availability: handler.NewAvailabilityHandler(rooms, availability),
		Alerts:       handler.NewAlertHandler(alerts),
		DeviceTokens: handler.NewDeviceTokenHandler(deviceTokens),
		Evaluations:  handler.NewEvaluationHandler(rooms, users, evaluations, alerts),
	}, cfg.JWTSecret, rateMW)

	addr := ":" + cfg.Port                                // Address string with port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env) // Print startup info

	if err := e.Start(addr); err != nil { // Start HTTP server
		log.Fatal(err) // Log and exit if server fails
	}
}

// ensureAdmin creates the admin account on first start.  The existence
// check makes the routine idempotent, so restarting the service never
// duplicates or resets the admin.
func ensureAdmin(cfg config.Config, users *repository.UserRepo) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := users.GetByEmail(ctx, cfg.AdminEmail)
	if err == nil {
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return err
	}
	if _, err := users.Create(ctx, cfg.AdminEmail, cfg.AdminPassword, cfg.AdminNickname, "ADMIN", cfg.BcryptCost); err != nil {
		return err
	}
	log.Printf("admin account %s created", cfg.AdminEmail)
	return nil
}
