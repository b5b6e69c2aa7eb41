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
	"github.com/krishnasharma4415/Mini-Search-Engine/internal/searcher/cache"
	"github.com/krishnasharma4415/Mini-Search-Engine/internal/searcher/executor"
	"github.com/krishnasharma4415/Mini-Search-Engine/internal/searcher/handler"
	"github.com/krishnasharma4415/Mini-Search-Engine/internal/snapshot"
	"github.com/krishnasharma4415/Mini-Search-Engine/pkg/config"
	"github.com/krishnasharma4415/Mini-Search-Engine/pkg/health"
	"github.com/krishnasharma4415/Mini-Search-Engine/pkg/kafka"
	"github.com/krishnasharma4415/Mini-Search-Engine/pkg/logger"
	"github.com/krishnasharma4415/Mini-Search-Engine/pkg/metrics"
	"github.com/krishnasharma4415/Mini-Search-Engine/pkg/middleware"
	pkgredis "github.com/krishnasharma4415/Mini-Search-Engine/pkg/redis"
	"github.com/krishnasharma4415/Mini-Search-Engine/pkg/sqldb"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting search service", "port", cfg.Server.Port)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New(nil)
	if cfg.Metrics.Enabled {
		shutdownMetrics := metrics.StartServer(cfg.Metrics.Port)
		defer shutdownMetrics(context.Background())
	}
	checker := health.NewChecker()

	snapshots := snapshot.NewStore(cfg.Data, m)
	checker.Register("snapshot", snapshots.HealthCheck())
	if _, err := snapshots.Reload(ctx); err != nil {
		slog.Error("initial snapshot load failed", "error", err)
		os.Exit(1)
	}

	var scores executor.ScoreStore
	var analyticsStore *scorestore.Store
	if cfg.Store.Driver != "" {
		db, err := sqldb.Open(ctx, cfg)
		if err != nil {
			slog.Warn("score store unavailable, pagerank will not be persisted", "driver", cfg.Store.Driver, "error", err)
		} else {
			defer db.Close()
			store := scorestore.New(db)
			if err := store.Migrate(ctx); err != nil {
				slog.Error("score store migration failed", "error", err)
				os.Exit(1)
			}
			scores = scorestore.Guard(store, 5*time.Second)
			analyticsStore = store
			checker.Register("score_store", store.HealthCheck())
			slog.Info("score store enabled", "driver", cfg.Store.Driver)
		}
	}

	prCache := executor.NewPageRankCache(executor.PageRankConfig(cfg.Ranking), scores, m)
	snapshots.OnSwap(prCache.OnSnapshotSwap)
	exec := executor.New(snapshots, prCache, executor.ConfigFromRanking(cfg.Ranking), m)

	var queryCache *cache.QueryCache
	if cfg.Redis.Enabled {
		redisClient, err := pkgredis.NewClient(cfg.Redis)
		if err != nil {
			slog.Warn("redis unavailable, search caching disabled", "error", err)
		} else {
			defer redisClient.Close()
			queryCache = cache.New(redisClient, cfg.Redis, m)
			checker.Register("redis", redisClient.HealthCheck())
			snapshots.OnSwap(func(old, cur *snapshot.Snapshot) {
				if old == nil {
					return
				}
				if err := queryCache.Invalidate(context.Background()); err != nil {
					slog.Warn("cache invalidation after reload failed", "error", err)
				}
			})
			slog.Info("search cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.CacheTTL)
		}
	}

	aggregator := analytics.NewAggregator()
	var publisher analytics.Publisher = aggregator
	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.SearchEvents)
		defer producer.Close()
		publisher = producer

		eventsConsumer := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.SearchEvents, analytics.HandleEvent(aggregator))
		go func() {
			if err := eventsConsumer.Start(ctx); err != nil {
				slog.Error("analytics consumer error", "error", err)
			}
		}()

		host, _ := os.Hostname()
		snapshotConsumer := kafka.NewGroupConsumer(cfg.Kafka, cfg.Kafka.Topics.SnapshotUpdated,
			fmt.Sprintf("%s-%s-%d", cfg.Kafka.ConsumerGroup, host, os.Getpid()),
			snapshot.HandleUpdateEvent(snapshots))
		go func() {
			if err := snapshotConsumer.Start(ctx); err != nil {
				slog.Error("snapshot consumer error", "error", err)
			}
		}()
		slog.Info("kafka enabled",
			"search_events", cfg.Kafka.Topics.SearchEvents,
			"snapshot_updated", cfg.Kafka.Topics.SnapshotUpdated,
		)
	}
	collector := analytics.NewCollector(publisher, 10000)
	collector.Start(ctx)
	defer collector.Close()

	var analyticsSaved <-chan struct{}
	if analyticsStore != nil {
		analyticsSaved = analytics.StartPeriodicSave(ctx, analyticsStore, aggregator, time.Minute)
	}

	h := handler.New(exec, snapshots, queryCache, collector, cfg.Search.DefaultLimit, cfg.Search.MaxResults)
	analyticsH := analytics.NewHandler(aggregator)

	mux := http.NewServeMux()
	h.Register(mux)
	mux.HandleFunc("GET /api/v1/analytics", analyticsH.Stats)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	var chain http.Handler = mux
	chain = middleware.Timeout(cfg.Server.WriteTimeout)(chain)
	chain = middleware.Metrics(m)(chain)
	chain = middleware.RequestID(chain)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
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

	slog.Info("search service listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
	if analyticsSaved != nil {
		<-analyticsSaved
	}
	slog.Info("search service stopped")
}
