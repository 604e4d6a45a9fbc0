package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Dosada05/bracket-of-death/app"
	"github.com/Dosada05/bracket-of-death/brackets"
	"github.com/Dosada05/bracket-of-death/config"
	"github.com/Dosada05/bracket-of-death/events"
	"github.com/Dosada05/bracket-of-death/handlers"
	"github.com/Dosada05/bracket-of-death/logger"
	"github.com/Dosada05/bracket-of-death/metrics"
	api "github.com/Dosada05/bracket-of-death/routes"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Errorw("Server exited with error", "error", err)
		os.Exit(1)
	}
	log.Infow("Application exited")
}

func run(cfg *config.Config, log *zap.SugaredLogger) error {
	if cfg.Auth.JWTSecretKey == "" {
		return errors.New("JWT_SECRET_KEY environment variable is not set")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	bus := events.NewBus(log)
	defer func() {
		if err := bus.Close(); err != nil {
			log.Warnw("Failed to close event bus", "error", err)
		}
	}()

	m := metrics.NewPrometheus()

	a, err := app.New(ctx, cfg, bus, m, log)
	if err != nil {
		return err
	}
	defer a.Close()

	hub := brackets.NewHub(bus, log)
	defer hub.Close()

	router := chi.NewRouter()
	api.SetupRoutes(router,
		api.Options{
			JWTSecret:   []byte(cfg.Auth.JWTSecretKey),
			CORSOrigins: cfg.Server.CORSOrigins,
			Metrics:     m.Handler(),
			Log:         log,
		},
		handlers.NewTournamentHandler(a.Progression, a.Live, a.Matches, log),
		handlers.NewMatchHandler(a.Matches, log),
		handlers.NewWebSocketHandler(hub, a.Live, cfg.Server.CORSOrigins, log),
	)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
		ErrorLog:          zap.NewStdLog(log.Desugar()),
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Infow("Starting server", "address", server.Addr, "store", cfg.Store.Driver)
		serverErrors <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
		log.Infow("Shutdown signal received", "timeout", shutdownTimeout)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		if closeErr := server.Close(); closeErr != nil {
			log.Errorw("Failed to force close server", "error", closeErr)
		}
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	log.Infow("Server shutdown complete")
	return nil
}
