package integration

import (
	"context"
	"fmt"
	"math"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/krishnasharma4415/Mini-Search-Engine/internal/corpus"
	"github.com/krishnasharma4415/Mini-Search-Engine/internal/scorestore"
	"github.com/krishnasharma4415/Mini-Search-Engine/internal/searcher/pagerank"
	"github.com/krishnasharma4415/Mini-Search-Engine/internal/snapshot"
	"github.com/krishnasharma4415/Mini-Search-Engine/pkg/config"
	"github.com/krishnasharma4415/Mini-Search-Engine/pkg/sqldb"
)

// postgresConfig reads the connection from MSE_TEST_POSTGRES_HOST and
// friends. Tests skip when the host is unset.
func postgresConfig(t *testing.T) config.PostgresConfig {
	t.Helper()
	host := os.Getenv("MSE_TEST_POSTGRES_HOST")
	if host == "" {
		t.Skip("MSE_TEST_POSTGRES_HOST not set")
	}
	port, _ := strconv.Atoi(os.Getenv("MSE_TEST_POSTGRES_PORT"))
	if port == 0 {
		port = 5432
	}
	return config.PostgresConfig{
		Host:     host,
		Port:     port,
		Database: envOr("MSE_TEST_POSTGRES_DB", "minisearch"),
		User:     envOr("MSE_TEST_POSTGRES_USER", "postgres"),
		Password: os.Getenv("MSE_TEST_POSTGRES_PASSWORD"),
		SSLMode:  "disable",
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func TestPostgresPageRankRoundTrip(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := sqldb.OpenPostgres(ctx, postgresConfig(t))
	if err != nil {
		t.Fatalf("OpenPostgres: %v", err)
	}
	defer db.Close()

	store := scorestore.New(db)
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("Migrate: %v", err)
	}

	snap, err := snapshot.FromPages(corpus.Pages{
		{URL: "a", Content: "graph ranking", Links: []string{"b", "c"}},
		{URL: "b", Content: "graph", Links: []string{"c"}},
		{URL: "c", Content: "ranking", Links: []string{"a"}},
	})
	if err != nil {
		t.Fatalf("FromPages: %v", err)
	}
	cfg := pagerank.DefaultConfig()
	res := pagerank.Compute(snap.Graph, cfg)
	version := fmt.Sprintf("%s-%d", snap.GraphVersion, time.Now().UnixNano())

	run := scorestore.PageRankRun{
		Version:    version,
		Params:     cfg.Key(),
		Scores:     res.Scores,
		Iterations: res.Iterations,
		Converged:  res.Converged,
	}
	if err := store.SavePageRank(ctx, run); err != nil {
		t.Fatalf("SavePageRank: %v", err)
	}
	got, err := store.LoadPageRank(ctx, version, cfg.Key())
	if err != nil {
		t.Fatalf("LoadPageRank: %v", err)
	}
	if got.Iterations != res.Iterations || got.Converged != res.Converged {
		t.Errorf("run metadata = %d/%v, want %d/%v", got.Iterations, got.Converged, res.Iterations, res.Converged)
	}
	for url, want := range res.Scores {
		if math.Abs(got.Scores[url]-want) > 1e-12 {
			t.Errorf("score[%s] = %v, want %v", url, got.Scores[url], want)
		}
	}
	if _, err := store.LoadPageRank(ctx, version, pagerank.Config{Damping: 0.5}.Key()); err == nil {
		t.Error("vector served for different solver settings")
	}
	latest, err := store.LatestVersion(ctx)
	if err != nil {
		t.Fatalf("LatestVersion: %v", err)
	}
	if latest != version {
		t.Errorf("LatestVersion = %q, want %q", latest, version)
	}

	if err := store.SaveAnalyticsSnapshot(ctx, []byte(`{"total_searches":1}`)); err != nil {
		t.Fatalf("SaveAnalyticsSnapshot: %v", err)
	}
	data, err := store.LatestAnalyticsSnapshot(ctx)
	if err != nil || len(data) == 0 {
		t.Fatalf("LatestAnalyticsSnapshot = %q, %v", data, err)
	}
}
