package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	bhttp "github.com/batonworks/baton/internal/adapter/http"
	bnats "github.com/batonworks/baton/internal/adapter/nats"
	"github.com/batonworks/baton/internal/adapter/natskv"
	"github.com/batonworks/baton/internal/adapter/otel"
	"github.com/batonworks/baton/internal/adapter/postgres"
	"github.com/batonworks/baton/internal/adapter/ristretto"
	"github.com/batonworks/baton/internal/adapter/tiered"
	"github.com/batonworks/baton/internal/adapter/ws"
	"github.com/batonworks/baton/internal/config"
	"github.com/batonworks/baton/internal/logger"
	"github.com/batonworks/baton/internal/middleware"
	"github.com/batonworks/baton/internal/port/cache"
	"github.com/batonworks/baton/internal/port/messagequeue"
	"github.com/batonworks/baton/internal/service"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	slog.SetDefault(logger.New(cfg.Logging))
	slog.Info("config loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Logging.Level,
		"pg_max_conns", cfg.Postgres.MaxConns,
	)

	ctx := context.Background()

	shutdownTracer := otel.InitTracer(cfg.Logging.Service)
	defer func() { _ = shutdownTracer(ctx) }()

	// --- Infrastructure ---

	pool, err := postgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer pool.Close()
	slog.Info("postgres connected")

	if err := postgres.RunMigrations(ctx, cfg.Postgres.DSN); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	slog.Info("migrations applied")

	store, err := postgres.NewStore(ctx, pool)
	if err != nil {
		return fmt.Errorf("store: %w", err)
	}

	l1, err := ristretto.New(cfg.Cache.MaxSizeMB << 20)
	if err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	defer l1.Close()
	var readCache cache.Cache = l1

	// NATS is optional: with no URL configured the service runs without
	// event publishing and with the in-process cache only.
	var queue messagequeue.Publisher
	if cfg.NATS.URL != "" {
		pub, err := bnats.Connect(ctx, cfg.NATS.URL)
		if err != nil {
			slog.Warn("nats unavailable, events disabled", "error", err)
		} else {
			queue = pub
			defer func() { _ = pub.Close() }()

			l2, err := natskv.New(ctx, pub.JetStream(), 5*time.Minute)
			if err != nil {
				slog.Warn("nats kv cache unavailable", "error", err)
			} else {
				readCache = tiered.New(l1, l2, 30*time.Second)
			}
		}
	}

	metrics, err := otel.NewMetrics()
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	// --- Services ---

	hub := ws.NewHub()
	requirementSvc := service.NewRequirementService(store, readCache, queue, hub)

	handlers := &bhttp.Handlers{
		Requirements: requirementSvc,
		Files:        cfg.Files,
		Metrics:      metrics,
	}

	// --- HTTP ---

	r := chi.NewRouter()
	r.Use(bhttp.CORS(cfg.Server.CORSOrigin))
	r.Use(bhttp.SecurityHeaders)
	r.Use(middleware.RequestID)
	r.Use(bhttp.Logger)
	r.Use(otel.HTTPMiddleware(cfg.Logging.Service))
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))

	bhttp.MountRoutes(r, handlers, hub.HandleWS)

	addr := ":" + cfg.Server.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		slog.Info("starting server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
		}
	}()

	<-done
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}
