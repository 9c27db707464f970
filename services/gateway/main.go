package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/diagnosis/eventdesk/pkg/config"
	"github.com/diagnosis/eventdesk/pkg/logger"
	mw "github.com/diagnosis/eventdesk/pkg/middleware"
	"github.com/diagnosis/eventdesk/services/gateway/internal/handlers"
	"github.com/diagnosis/eventdesk/services/gateway/internal/proxy"
)

func main() {
	cfg := config.Load()
	logger.SetDefault(logger.New(os.Stdout, os.Getenv("LOG_LEVEL")))

	authProxy := proxy.NewServiceProxy("auth", getServiceURL("AUTH_SERVICE_URL", "http://localhost:8081"))
	eventsProxy := proxy.NewServiceProxy("events", getServiceURL("EVENTS_SERVICE_URL", "http://localhost:8082"))

	h := handlers.New(authProxy, eventsProxy)

	r := chi.NewRouter()
	r.Use(mw.RequestID)
	r.Use(mw.ServiceName("gateway"))
	r.Use(mw.Logging)
	r.Use(mw.Recoverer)
	r.Use(mw.CORS(cfg.Server.AllowOrigins))
	r.Use(mw.Health(nil))
	h.Routes(r)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("Shutting down gateway service...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Gateway shutdown error", "error", err)
		}
	}()

	logger.Info("Starting gateway service", "port", cfg.Server.Port, "origins", cfg.Server.AllowOrigins)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Gateway server error", "error", err)
		os.Exit(1)
	}
}

func getServiceURL(envKey, fallback string) string {
	if url := os.Getenv(envKey); url != "" {
		return url
	}
	return fallback
}
