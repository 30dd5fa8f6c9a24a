// Command stepalign-server provides a REST API for step-wise global alignment.
//
// Usage:
//
//	stepalign-server [options]
//
// Options:
//
//	-config   Path to a YAML config file (optional)
//	-port     Port to listen on, overrides the config file
//	-host     Host to bind to, overrides the config file
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aria-lang/stepalign-go/api/handlers"
	"github.com/aria-lang/stepalign-go/api/middleware"
	"github.com/aria-lang/stepalign-go/internal/config"
	"github.com/aria-lang/stepalign-go/internal/logging"
	"github.com/aria-lang/stepalign-go/internal/store"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file")
	port := flag.Int("port", 0, "Port to listen on")
	host := flag.String("host", "", "Host to bind to")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("load config", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *host != "" {
		cfg.Server.Host = *host
	}

	logger := logging.New(cfg.Logging, os.Stderr)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func newStore(limits config.LimitsConfig, logger *slog.Logger) *store.Store {
	return store.New(store.Limits{
		MaxSessions:   limits.MaxSessions,
		MaxTotalCells: limits.MaxTotalCells,
		IdleTimeout:   limits.SessionIdleTimeout,
	}, logger)
}

// newRouter wires middleware, health, metrics and the API.
func newRouter(cfg *config.Config, sessions *store.Store, logger *slog.Logger) (http.Handler, error) {
	costs, err := cfg.Scoring.CostModel()
	if err != nil {
		return nil, err
	}

	h := handlers.New(sessions, costs, cfg.Limits, logger)

	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(cfg.Server.RequestTimeout))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())

	// API routes
	r.Route("/api", h.Routes)

	return r, nil
}

func run(cfg *config.Config, logger *slog.Logger) error {
	sessions := newStore(cfg.Limits, logger)
	router, err := newRouter(cfg, sessions, logger)
	if err != nil {
		return err
	}

	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	go sessions.Run(sweepCtx)

	addr := cfg.Server.Addr()
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Graceful shutdown
	done := make(chan struct{})
	quit := make(chan os.Signal, 1)

	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		logger.Info("server is shutting down")

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		server.SetKeepAlivesEnabled(false)
		if err := server.Shutdown(ctx); err != nil {
			logger.Error("could not gracefully shutdown", slog.String("error", err.Error()))
		}
		close(done)
	}()

	logger.Info("stepalign API server starting", slog.String("addr", "http://"+addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	<-done
	logger.Info("server stopped")
	return nil
}
