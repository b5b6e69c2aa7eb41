// Command indexer builds the inverted index and link graph from the crawled
// page list and, when Kafka is enabled, announces the new snapshot so that
// running searchers reload it.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/krishnasharma4415/Mini-Search-Engine/internal/corpus"
	"github.com/krishnasharma4415/Mini-Search-Engine/internal/snapshot"
	"github.com/krishnasharma4415/Mini-Search-Engine/pkg/config"
	"github.com/krishnasharma4415/Mini-Search-Engine/pkg/kafka"
	"github.com/krishnasharma4415/Mini-Search-Engine/pkg/logger"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	reason := flag.String("reason", "rebuild", "reason recorded in the snapshot-updated event")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	pages, err := corpus.LoadPages(cfg.Data.PagesPath)
	if err != nil {
		slog.Error("failed to load pages", "path", cfg.Data.PagesPath, "error", err)
		os.Exit(1)
	}
	snap, err := snapshot.FromPages(pages)
	if err != nil {
		slog.Error("failed to build snapshot", "error", err)
		os.Exit(1)
	}
	if err := snapshot.Write(cfg.Data, snap); err != nil {
		slog.Error("failed to write artifacts", "error", err)
		os.Exit(1)
	}
	slog.Info("artifacts written",
		"version", snap.Version,
		"documents", len(pages),
		"terms", snap.Index.TermCount(),
		"nodes", snap.Graph.Len(),
		"edges", snap.Graph.EdgeCount(),
		"index", cfg.Data.IndexPath,
		"graph", cfg.Data.GraphPath,
		"elapsed", time.Since(start),
	)

	if !cfg.Kafka.Enabled {
		return
	}
	producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.SnapshotUpdated)
	defer producer.Close()
	err = producer.Publish(ctx, kafka.Event{
		Key: snap.Version,
		Value: snapshot.UpdatedEvent{
			Reason:    *reason,
			Documents: len(pages),
			Timestamp: time.Now().UTC(),
		},
	})
	if err != nil {
		slog.Error("failed to announce snapshot", "error", err)
		os.Exit(1)
	}
	slog.Info("snapshot announced", "topic", cfg.Kafka.Topics.SnapshotUpdated)
}
