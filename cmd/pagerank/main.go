// Command pagerank computes PageRank over the link graph on disk, prints
// the top pages and optionally saves the vector to a JSON file or to the
// score store.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/krishnasharma4415/Mini-Search-Engine/internal/graph"
	"github.com/krishnasharma4415/Mini-Search-Engine/internal/scorestore"
	"github.com/krishnasharma4415/Mini-Search-Engine/internal/searcher/combiner"
	"github.com/krishnasharma4415/Mini-Search-Engine/internal/searcher/executor"
	"github.com/krishnasharma4415/Mini-Search-Engine/internal/searcher/pagerank"
	"github.com/krishnasharma4415/Mini-Search-Engine/pkg/config"
	"github.com/krishnasharma4415/Mini-Search-Engine/pkg/logger"
	"github.com/krishnasharma4415/Mini-Search-Engine/pkg/sqldb"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	top := flag.Int("top", 10, "number of pages to print")
	out := flag.String("out", "", "write the full vector as JSON to this file")
	save := flag.Bool("save", false, "save the vector to the configured score store")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Setup(cfg.Logging.Level, "text")

	g, err := graph.Load(cfg.Data.GraphPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load link graph: %v\n", err)
		os.Exit(1)
	}

	prCfg := executor.PageRankConfig(cfg.Ranking)
	start := time.Now()
	res := pagerank.Compute(g, prCfg)
	fmt.Printf("PageRank over %d pages, %d links: %d iterations, converged=%v, %s\n\n",
		g.Len(), g.EdgeCount(), res.Iterations, res.Converged, time.Since(start).Round(time.Microsecond))

	fmt.Printf("Top %d pages by PageRank:\n", *top)
	for i, s := range combiner.TopURLs(res.Scores, *top) {
		fmt.Printf("%2d. %.6f  %s\n", i+1, s.Score, s.URL)
	}

	if *out != "" {
		if err := writeJSON(*out, res.Scores); err != nil {
			fmt.Fprintf(os.Stderr, "failed to write %s: %v\n", *out, err)
			os.Exit(1)
		}
		fmt.Printf("\nscores written to %s\n", *out)
	}

	if *save {
		ctx := context.Background()
		db, err := sqldb.Open(ctx, cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to open score store: %v\n", err)
			os.Exit(1)
		}
		defer db.Close()
		store := scorestore.New(db)
		if err := store.Migrate(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "failed to migrate score store: %v\n", err)
			os.Exit(1)
		}
		run := scorestore.PageRankRun{
			Version:    g.Fingerprint(),
			Params:     prCfg.Key(),
			Scores:     res.Scores,
			Iterations: res.Iterations,
			Converged:  res.Converged,
		}
		if err := store.SavePageRank(ctx, run); err != nil {
			fmt.Fprintf(os.Stderr, "failed to save scores: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("\nscores saved under graph version %s (%s)\n", run.Version, run.Params)
	}
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
