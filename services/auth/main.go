package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/diagnosis/eventdesk/migrations"
	"github.com/diagnosis/eventdesk/pkg/auth"
	"github.com/diagnosis/eventdesk/pkg/config"
	"github.com/diagnosis/eventdesk/pkg/database"
	"github.com/diagnosis/eventdesk/pkg/logger"
	"github.com/diagnosis/eventdesk/pkg/mailer"
	mw "github.com/diagnosis/eventdesk/pkg/middleware"
	"github.com/diagnosis/eventdesk/services/auth/internal/handlers"
	"github.com/diagnosis/eventdesk/services/auth/internal/repository"
	"github.com/diagnosis/eventdesk/services/auth/internal/service"
)

func main() {
	cfg := config.Load()
	logger.SetDefault(logger.New(os.Stdout, os.Getenv("LOG_LEVEL")))

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

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

	userRepo := repository.NewUserRepository(pool)
	codeRepo := repository.NewCodeRepository(pool)
	rateLimitRepo := repository.NewRateLimitRepository(pool)

	authService := service.NewAuthService(userRepo, codeRepo, mailer.New(cfg.Email), cfg)
	userService := service.NewUserService(userRepo)

	go service.RunCleanup(ctx, time.Hour, codeRepo, rateLimitRepo)

	h := handlers.New(authService, userService, auth.NewAuthenticator(cfg.Auth.JWTSecret), rateLimitRepo, handlers.CodeLimit{
		Requests: cfg.Auth.CodeRequestsLimit,
		Window:   cfg.Auth.CodeRequestWindow,
	})

	r := chi.NewRouter()
	r.Use(mw.RequestID)
	r.Use(mw.ServiceName("auth"))
	r.Use(mw.Logging)
	r.Use(mw.Recoverer)
	r.Use(mw.Health(func(ctx context.Context) (map[string]any, error) {
		n, err := userRepo.Count(ctx)
		return map[string]any{"service": "auth", "users": n}, err
	}))
	h.Routes(r)

	port := os.Getenv("AUTH_PORT")
	if port == "" {
		port = "8081"
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

		logger.Info("Shutting down auth service...")
		stop()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Auth service shutdown error", "error", err)
		}
	}()

	logger.Info("Starting auth service", "port", port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Auth service error", "error", err)
		os.Exit(1)
	}
}
