package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/diagnosis/eventdesk/migrations"
	"github.com/diagnosis/eventdesk/pkg/auth"
	"github.com/diagnosis/eventdesk/pkg/cache"
	"github.com/diagnosis/eventdesk/pkg/config"
	"github.com/diagnosis/eventdesk/pkg/database"
	"github.com/diagnosis/eventdesk/pkg/events"
	"github.com/diagnosis/eventdesk/pkg/logger"
	mw "github.com/diagnosis/eventdesk/pkg/middleware"
	"github.com/diagnosis/eventdesk/services/events/internal/handlers"
	"github.com/diagnosis/eventdesk/services/events/internal/repository"
	"github.com/diagnosis/eventdesk/services/events/internal/service"
)

func main() {
	cfg := config.Load()
	// LOG_LEVEL may only be set in .env, which Load has just read.
	logger.SetDefault(logger.New(os.Stdout, os.Getenv("LOG_LEVEL")))

	ctx := context.Background()
	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if cfg.Database.MigrateOnStart {
		if err := database.Migrate(ctx, pool, migrations.FS); err != nil {
			logger.Error("Failed to apply migrations", "error", err)
			os.Exit(1)
		}
	}

	// Redis backs both the event list cache and idempotent replays when
	// configured; otherwise replays stay in process memory.
	var redisClient *redis.Client
	if cfg.Events.CacheBackend == cache.BackendRedis {
		redisClient, err = cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			logger.Error("Failed to connect to Redis", "error", err)
			os.Exit(1)
		}
		defer redisClient.Close()
	}
	listCache, err := cache.New(cfg.Events.CacheBackend, redisClient)
	if err != nil {
		logger.Error("Failed to set up event cache", "error", err)
		os.Exit(1)
	}
	var replayCache cache.Cache = cache.NewMemory()
	if redisClient != nil {
		replayCache = cache.NewRedis(redisClient, "eventdesk:")
	}

	eventBus, err := events.NewNATSEventBus(cfg.NATS.URL, "eventdesk-events")
	if err != nil {
		logger.Error("Failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer eventBus.Close()

	eventRepo := repository.NewEventRepository(pool)
	regRepo := repository.NewRegistrationRepository(pool)

	opts := []service.Option{service.WithLocation(cfg.Events.Location())}
	eventService := service.NewEventService(eventRepo, regRepo, listCache, cfg.Events.CacheTTL, eventBus, opts...)
	registrationService := service.NewRegistrationService(eventRepo, regRepo, listCache, eventBus, opts...)

	h := handlers.New(eventService, registrationService, auth.NewAuthenticator(cfg.Auth.JWTSecret), replayCache)

	r := chi.NewRouter()
	r.Use(mw.RequestID)
	r.Use(mw.ServiceName("events"))
	r.Use(mw.Logging)
	r.Use(mw.Recoverer)
	r.Use(mw.Health(func(ctx context.Context) (map[string]any, error) {
		n, err := eventRepo.Count(ctx)
		return map[string]any{"service": "events", "events": n}, err
	}))
	h.Routes(r)

	port := os.Getenv("EVENTS_PORT")
	if port == "" {
		port = "8082"
	}
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("Shutting down events service...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Events service shutdown error", "error", err)
		}
	}()

	logger.Info("Starting events service", "port", port, "cache", cfg.Events.CacheBackend, "timezone", cfg.Events.Location().String())
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Events service error", "error", err)
		os.Exit(1)
	}
}
