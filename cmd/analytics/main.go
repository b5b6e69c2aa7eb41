// Command analytics runs the search-event aggregator as its own service.
//
// It consumes the search-events topic published by the searchers, keeps
// per-mode statistics in memory, snapshots them to the score store when one
// is configured and serves GET /api/v1/analytics.
//
// Usage:
//
//	go run ./cmd/analytics [-config configs/development.yaml] [-port 8082]
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/krishnasharma4415/Mini-Search-Engine/internal/analytics"
	"github.com/krishnasharma4415/Mini-Search-Engine/internal/scorestore"
	"github.com/krishnasharma4415/Mini-Search-Engine/pkg/config"
	"github.com/krishnasharma4415/Mini-Search-Engine/pkg/health"
	"github.com/krishnasharma4415/Mini-Search-Engine/pkg/kafka"
	"github.com/krishnasharma4415/Mini-Search-Engine/pkg/logger"
	"github.com/krishnasharma4415/Mini-Search-Engine/pkg/middleware"
	"github.com/krishnasharma4415/Mini-Search-Engine/pkg/sqldb"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	port := flag.Int("port", 8082, "HTTP port")
	interval := flag.Duration("snapshot-interval", time.Minute, "how often to persist aggregated stats")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	if !cfg.Kafka.Enabled {
		slog.Error("analytics service needs kafka.enabled")
		os.Exit(1)
	}
	slog.Info("starting analytics service", "port", *port)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	checker := health.NewChecker()
	aggregator := analytics.NewAggregator()

	var saved <-chan struct{}
	if cfg.Store.Driver != "" {
		db, err := sqldb.Open(ctx, cfg)
		if err != nil {
			slog.Warn("score store unavailable, analytics will not be persisted", "error", err)
		} else {
			defer db.Close()
			store := scorestore.New(db)
			if err := store.Migrate(ctx); err != nil {
				slog.Error("score store migration failed", "error", err)
				os.Exit(1)
			}
			if last, err := analytics.LatestSnapshot(ctx, store); err == nil && last != nil {
				slog.Info("previous analytics snapshot found", "total_searches", last.TotalSearches)
			}
			checker.Register("score_store", store.HealthCheck())
			saved = analytics.StartPeriodicSave(ctx, store, aggregator, *interval)
		}
	}

	consumer := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.SearchEvents, analytics.HandleEvent(aggregator))
	go func() {
		if err := consumer.Start(ctx); err != nil {
			slog.Error("analytics consumer error", "error", err)
		}
	}()
	slog.Info("analytics aggregator started", "topic", consumer.Topic())

	analyticsHandler := analytics.NewHandler(aggregator)
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/analytics", analyticsHandler.Stats)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	var chain http.Handler = mux
	chain = middleware.RequestID(chain)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      chain,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	slog.Info("analytics service listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
	if saved != nil {
		<-saved
	}
	slog.Info("analytics service stopped")
}
