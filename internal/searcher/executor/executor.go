package executor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/krishnasharma4415/Mini-Search-Engine/internal/corpus"
	"github.com/krishnasharma4415/Mini-Search-Engine/internal/graph"
	"github.com/krishnasharma4415/Mini-Search-Engine/internal/searcher/combiner"
	"github.com/krishnasharma4415/Mini-Search-Engine/internal/searcher/hits"
	"github.com/krishnasharma4415/Mini-Search-Engine/internal/searcher/pagerank"
	"github.com/krishnasharma4415/Mini-Search-Engine/internal/searcher/parser"
	"github.com/krishnasharma4415/Mini-Search-Engine/internal/searcher/ranker"
	"github.com/krishnasharma4415/Mini-Search-Engine/internal/snapshot"
	"github.com/krishnasharma4415/Mini-Search-Engine/pkg/config"
	"github.com/krishnasharma4415/Mini-Search-Engine/pkg/metrics"
	"github.com/krishnasharma4415/Mini-Search-Engine/pkg/tracing"
)

// SnapshotSource hands out the snapshot to serve a query from.
type SnapshotSource interface {
	Current() (*snapshot.Snapshot, error)
}

// Hit is one ranked document.
type Hit struct {
	Rank           int          `json:"rank"`
	DocID          corpus.DocID `json:"doc_id"`
	URL            string       `json:"url"`
	Title          string       `json:"title"`
	Snippet        string       `json:"snippet"`
	Score          float64      `json:"score"`
	TFIDFScore     float64      `json:"tfidf_score"`
	SecondaryScore float64      `json:"secondary_score,omitempty"`
}

// HITSInfo describes the subgraph HITS ran over.
type HITSInfo struct {
	SubgraphNodes int  `json:"subgraph_nodes"`
	SubgraphEdges int  `json:"subgraph_edges"`
	RelevantPages int  `json:"relevant_pages"`
	Iterations    int  `json:"iterations"`
	Converged     bool `json:"converged"`
}

type SearchResult struct {
	Query     string         `json:"query"`
	Mode      parser.Mode    `json:"mode"`
	Terms     []string       `json:"terms"`
	TotalHits int            `json:"total_hits"`
	Results   []Hit          `json:"results"`
	TermStats map[string]int `json:"term_stats"`
	HITS      *HITSInfo      `json:"hits,omitempty"`
	Version   string         `json:"snapshot_version"`
}

// Config holds the per-query ranking parameters.
type Config struct {
	HITS    hits.Config
	Combine combiner.Options
}

type Executor struct {
	snapshots SnapshotSource
	pagerank  *PageRankCache
	cfg       Config
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// New creates an Executor. m may be nil.
func New(snapshots SnapshotSource, pr *PageRankCache, cfg Config, m *metrics.Metrics) *Executor {
	return &Executor{
		snapshots: snapshots,
		pagerank:  pr,
		cfg:       cfg,
		metrics:   m,
		logger:    slog.Default().With("component", "query-executor"),
	}
}

// Snapshot returns the snapshot currently served.
func (e *Executor) Snapshot() (*snapshot.Snapshot, error) {
	return e.snapshots.Current()
}

// Execute scores plan's terms with TF-IDF and, depending on the mode,
// blends in PageRank or HITS authority. limit <= 0 uses the configured top K.
func (e *Executor) Execute(ctx context.Context, plan *parser.QueryPlan, limit int) (*SearchResult, error) {
	snap, err := e.snapshots.Current()
	if err != nil {
		e.observe(plan.Mode, "error", time.Now(), 0)
		return nil, err
	}
	return e.ExecuteOn(ctx, snap, plan, limit)
}

// ExecuteOn is Execute against a snapshot the caller already holds.
func (e *Executor) ExecuteOn(ctx context.Context, snap *snapshot.Snapshot, plan *parser.QueryPlan, limit int) (*SearchResult, error) {
	start := time.Now()
	ctx, span := tracing.Start(ctx, "execute")
	span.SetAttr("mode", string(plan.Mode))
	defer func() {
		span.End()
		span.Log(e.logger)
	}()

	result := &SearchResult{
		Query:     plan.RawQuery,
		Mode:      plan.Mode,
		Terms:     plan.Terms,
		Results:   []Hit{},
		TermStats: make(map[string]int),
		Version:   snap.Version,
	}
	if result.Terms == nil {
		result.Terms = []string{}
	}
	if len(plan.Terms) == 0 {
		e.observe(plan.Mode, "zero_result", start, 0)
		return result, nil
	}

	for _, term := range plan.Terms {
		if df := snap.Index.DocumentFrequency(term); df > 0 {
			result.TermStats[term] = df
		}
	}
	_, scoreSpan := tracing.Start(ctx, "tfidf")
	scored := ranker.TFIDF(plan.Terms, snap.Index)
	result.TotalHits = len(scored)
	scoreSpan.SetAttr("candidates", len(scored))
	scoreSpan.End()

	opts := e.cfg.Combine
	if limit > 0 {
		opts.TopK = limit
	}

	var ranked []combiner.Ranked
	switch plan.Mode {
	case parser.ModePageRank:
		prCtx, prSpan := tracing.Start(ctx, "pagerank")
		pr, err := e.pagerank.Get(prCtx, snap)
		prSpan.End()
		if err != nil {
			e.observe(plan.Mode, "error", start, 0)
			return nil, fmt.Errorf("computing pagerank: %w", err)
		}
		ranked = combiner.Combine(scored, pr.Scores, snap.URL, opts)
	case parser.ModeHITS:
		_, hitsSpan := tracing.Start(ctx, "hits")
		sub := graph.Extract(plan.Terms, snap.Index, snap.Graph)
		res := e.runHITS(sub)
		hitsSpan.SetAttr("subgraph_nodes", sub.Len())
		hitsSpan.SetAttr("iterations", res.Iterations)
		hitsSpan.End()
		result.HITS = &HITSInfo{
			SubgraphNodes: sub.Len(),
			SubgraphEdges: sub.EdgeCount(),
			RelevantPages: len(sub.Relevant),
			Iterations:    res.Iterations,
			Converged:     res.Converged,
		}
		ranked = combiner.Combine(scored, res.Authorities, snap.URL, opts)
	default:
		ranked = combiner.Top(scored, snap.URL, opts.TopK)
	}

	for i, r := range ranked {
		page, _ := snap.Pages.Lookup(r.DocID)
		result.Results = append(result.Results, Hit{
			Rank:           i + 1,
			DocID:          r.DocID,
			URL:            r.URL,
			Title:          page.Title,
			Snippet:        page.Snippet(),
			Score:          r.Score,
			TFIDFScore:     r.TFIDF,
			SecondaryScore: r.Secondary,
		})
	}

	outcome := "ok"
	if len(result.Results) == 0 {
		outcome = "zero_result"
	}
	e.observe(plan.Mode, outcome, start, len(result.Results))
	e.logger.Info("query executed",
		"query", plan.RawQuery,
		"mode", plan.Mode,
		"terms", plan.Terms,
		"candidates", result.TotalHits,
		"results", len(result.Results),
	)
	return result, nil
}

// PageRankReport is the standalone PageRank listing.
type PageRankReport struct {
	Version    string              `json:"graph_version"`
	Nodes      int                 `json:"nodes"`
	Iterations int                 `json:"iterations"`
	Converged  bool                `json:"converged"`
	Source     string              `json:"source"`
	Scores     []combiner.URLScore `json:"scores"`
}

// TopPageRank lists the limit highest PageRank pages of the current graph.
func (e *Executor) TopPageRank(ctx context.Context, limit int) (*PageRankReport, error) {
	snap, err := e.snapshots.Current()
	if err != nil {
		return nil, err
	}
	pr, err := e.pagerank.Get(ctx, snap)
	if err != nil {
		return nil, fmt.Errorf("computing pagerank: %w", err)
	}
	return &PageRankReport{
		Version:    pr.Version,
		Nodes:      len(pr.Scores),
		Iterations: pr.Iterations,
		Converged:  pr.Converged,
		Source:     pr.Source,
		Scores:     combiner.TopURLs(pr.Scores, limit),
	}, nil
}

// HITSReport is the standalone hub and authority listing for a query.
type HITSReport struct {
	Query       string              `json:"query"`
	Terms       []string            `json:"terms"`
	Subgraph    HITSInfo            `json:"subgraph"`
	Authorities []combiner.URLScore `json:"authorities"`
	Hubs        []combiner.URLScore `json:"hubs"`
}

// HITS runs HITS for plan's terms and lists the top limit hubs and
// authorities.
func (e *Executor) HITS(ctx context.Context, plan *parser.QueryPlan, limit int) (*HITSReport, error) {
	snap, err := e.snapshots.Current()
	if err != nil {
		return nil, err
	}
	sub := graph.Extract(plan.Terms, snap.Index, snap.Graph)
	res := e.runHITS(sub)
	terms := plan.Terms
	if terms == nil {
		terms = []string{}
	}
	return &HITSReport{
		Query: plan.RawQuery,
		Terms: terms,
		Subgraph: HITSInfo{
			SubgraphNodes: sub.Len(),
			SubgraphEdges: sub.EdgeCount(),
			RelevantPages: len(sub.Relevant),
			Iterations:    res.Iterations,
			Converged:     res.Converged,
		},
		Authorities: combiner.TopURLs(res.Authorities, limit),
		Hubs:        combiner.TopURLs(res.Hubs, limit),
	}, nil
}

// Stats summarises the current snapshot.
func (e *Executor) Stats(ctx context.Context) (*snapshot.Stats, error) {
	snap, err := e.snapshots.Current()
	if err != nil {
		return nil, err
	}
	st := snap.Stats()
	return &st, nil
}

func (e *Executor) runHITS(sub *graph.Subgraph) hits.Result {
	res := hits.Compute(sub.LinkGraph, e.cfg.HITS)
	if e.metrics != nil {
		e.metrics.HITSSubgraphNodes.Observe(float64(sub.Len()))
		e.metrics.HITSIterations.Observe(float64(res.Iterations))
	}
	return res
}

func (e *Executor) observe(mode parser.Mode, outcome string, start time.Time, results int) {
	if e.metrics == nil {
		return
	}
	e.metrics.SearchQueriesTotal.WithLabelValues(string(mode), outcome).Inc()
	e.metrics.SearchLatency.WithLabelValues(string(mode)).Observe(time.Since(start).Seconds())
	e.metrics.SearchResultsCount.WithLabelValues(string(mode)).Observe(float64(results))
}

// ConfigFromRanking maps the ranking section of the service config.
func ConfigFromRanking(rc config.RankingConfig) Config {
	return Config{
		HITS: hits.Config{
			MaxIterations: rc.HITS.MaxIterations,
			Threshold:     rc.HITS.Threshold,
		},
		Combine: combiner.Options{
			TFIDFWeight:     rc.TFIDFWeight,
			SecondaryWeight: rc.SecondaryWeight,
			TopK:            rc.TopK,
		},
	}
}

// PageRankConfig maps the PageRank section of the service config.
func PageRankConfig(rc config.RankingConfig) pagerank.Config {
	return pagerank.Config{
		Damping:       rc.PageRank.Damping,
		MaxIterations: rc.PageRank.MaxIterations,
		Threshold:     rc.PageRank.Threshold,
	}
}
