// Command evaluate runs the sample queries through every ranking mode and
// prints a side-by-side comparison.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/krishnasharma4415/Mini-Search-Engine/internal/evaluation"
	"github.com/krishnasharma4415/Mini-Search-Engine/internal/searcher/executor"
	"github.com/krishnasharma4415/Mini-Search-Engine/internal/snapshot"
	"github.com/krishnasharma4415/Mini-Search-Engine/pkg/config"
	"github.com/krishnasharma4415/Mini-Search-Engine/pkg/logger"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	queries := flag.String("queries", "", "comma-separated queries (default: built-in sample set)")
	compare := flag.String("compare", "machine learning", "query for the detailed top-5 comparison")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Setup("warn", "text")

	ctx := context.Background()
	store := snapshot.NewStore(cfg.Data, nil)
	if _, err := store.Reload(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "missing or malformed artifacts, run the indexer first: %v\n", err)
		os.Exit(1)
	}
	exec := executor.New(store,
		executor.NewPageRankCache(executor.PageRankConfig(cfg.Ranking), nil, nil),
		executor.ConfigFromRanking(cfg.Ranking), nil)

	set := evaluation.SampleQueries
	if *queries != "" {
		set = nil
		for _, q := range strings.Split(*queries, ",") {
			if q = strings.TrimSpace(q); q != "" {
				set = append(set, q)
			}
		}
	}

	reports, err := evaluation.Evaluate(ctx, exec, set, cfg.Ranking.TopK)
	if err != nil {
		fmt.Fprintf(os.Stderr, "evaluation failed: %v\n", err)
		os.Exit(1)
	}
	evaluation.WriteReports(os.Stdout, reports)

	cmp, err := evaluation.Compare(ctx, exec, *compare, 5)
	if err != nil {
		fmt.Fprintf(os.Stderr, "comparison failed: %v\n", err)
		os.Exit(1)
	}
	evaluation.WriteComparison(os.Stdout, cmp)
}
