// Command query runs one search against the artifacts on disk and prints
// the ranked results.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/krishnasharma4415/Mini-Search-Engine/internal/searcher/executor"
	"github.com/krishnasharma4415/Mini-Search-Engine/internal/searcher/parser"
	"github.com/krishnasharma4415/Mini-Search-Engine/internal/snapshot"
	"github.com/krishnasharma4415/Mini-Search-Engine/pkg/config"
	"github.com/krishnasharma4415/Mini-Search-Engine/pkg/logger"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	query := flag.String("q", "", "search query")
	mode := flag.String("mode", "tfidf", "ranking mode: tfidf (1), pagerank (2) or hits (3)")
	limit := flag.Int("limit", 10, "maximum number of results")
	asJSON := flag.Bool("json", false, "print the raw JSON result")
	flag.Parse()

	if *query == "" {
		fmt.Fprintln(os.Stderr, "usage: query -q <terms> [-mode tfidf|pagerank|hits] [-limit n]")
		os.Exit(2)
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Setup("warn", "text")

	plan, err := parser.Parse(*query, *mode)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	ctx := context.Background()
	store := snapshot.NewStore(cfg.Data, nil)
	if _, err := store.Reload(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load artifacts: %v\n", err)
		os.Exit(1)
	}
	prCache := executor.NewPageRankCache(executor.PageRankConfig(cfg.Ranking), nil, nil)
	exec := executor.New(store, prCache, executor.ConfigFromRanking(cfg.Ranking), nil)

	res, err := exec.Execute(ctx, plan, *limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "search failed: %v\n", err)
		os.Exit(1)
	}
	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		enc.Encode(res)
		return
	}

	fmt.Printf("Query: %q  mode: %s  terms: %v\n", res.Query, res.Mode, res.Terms)
	fmt.Printf("%d matching documents\n\n", res.TotalHits)
	if res.HITS != nil {
		fmt.Printf("HITS subgraph: %d nodes, %d edges, %d iterations\n\n",
			res.HITS.SubgraphNodes, res.HITS.SubgraphEdges, res.HITS.Iterations)
	}
	for _, hit := range res.Results {
		fmt.Printf("%2d. %s\n", hit.Rank, hit.Title)
		fmt.Printf("    %s\n", hit.URL)
		fmt.Printf("    score %.6f (tf-idf %.6f, link %.6f)\n", hit.Score, hit.TFIDFScore, hit.SecondaryScore)
		if hit.Snippet != "" {
			fmt.Printf("    %s\n", hit.Snippet)
		}
	}
}
