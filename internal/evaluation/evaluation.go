// Package evaluation runs sample queries through every ranking mode and
// reports how the modes differ.
package evaluation

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/krishnasharma4415/Mini-Search-Engine/internal/searcher/executor"
	"github.com/krishnasharma4415/Mini-Search-Engine/internal/searcher/parser"
)

// SampleQueries is the default evaluation set.
var SampleQueries = []string{
	"deep learning",
	"natural language processing",
	"computer vision",
	"reinforcement learning",
	"neural networks",
	"machine learning algorithms",
	"artificial intelligence",
	"data science",
}

// Searcher executes one query plan.
type Searcher interface {
	Execute(ctx context.Context, plan *parser.QueryPlan, limit int) (*executor.SearchResult, error)
}

type ModeRun struct {
	Mode      parser.Mode
	Results   int
	TotalHits int
	Latency   time.Duration
	Top       *executor.Hit
}

type QueryReport struct {
	Query string
	Runs  []ModeRun
}

// Evaluate runs every query in every mode.
func Evaluate(ctx context.Context, s Searcher, queries []string, limit int) ([]QueryReport, error) {
	reports := make([]QueryReport, 0, len(queries))
	for _, q := range queries {
		report := QueryReport{Query: q}
		for _, mode := range parser.Modes {
			plan, err := parser.Parse(q, string(mode))
			if err != nil {
				return nil, err
			}
			start := time.Now()
			res, err := s.Execute(ctx, plan, limit)
			if err != nil {
				return nil, fmt.Errorf("query %q mode %s: %w", q, mode, err)
			}
			run := ModeRun{
				Mode:      mode,
				Results:   len(res.Results),
				TotalHits: res.TotalHits,
				Latency:   time.Since(start),
			}
			if len(res.Results) > 0 {
				top := res.Results[0]
				run.Top = &top
			}
			report.Runs = append(report.Runs, run)
		}
		reports = append(reports, report)
	}
	return reports, nil
}

// Comparison holds the top results of one query under each mode.
type Comparison struct {
	Query string
	Top   map[parser.Mode][]executor.Hit
}

// Compare runs query in every mode, keeping the top k results.
func Compare(ctx context.Context, s Searcher, query string, k int) (*Comparison, error) {
	cmp := &Comparison{Query: query, Top: make(map[parser.Mode][]executor.Hit, len(parser.Modes))}
	for _, mode := range parser.Modes {
		plan, err := parser.Parse(query, string(mode))
		if err != nil {
			return nil, err
		}
		res, err := s.Execute(ctx, plan, k)
		if err != nil {
			return nil, fmt.Errorf("query %q mode %s: %w", query, mode, err)
		}
		cmp.Top[mode] = res.Results
	}
	return cmp, nil
}

// Overlap returns the fraction of a's URLs that also appear in b's top
// results. Two empty lists overlap fully.
func (c *Comparison) Overlap(a, b parser.Mode) float64 {
	left, right := c.Top[a], c.Top[b]
	if len(left) == 0 {
		if len(right) == 0 {
			return 1
		}
		return 0
	}
	seen := make(map[string]bool, len(right))
	for _, h := range right {
		seen[h.URL] = true
	}
	shared := 0
	for _, h := range left {
		if seen[h.URL] {
			shared++
		}
	}
	return float64(shared) / float64(len(left))
}

var modeNames = map[parser.Mode]string{
	parser.ModeTFIDF:    "TF-IDF",
	parser.ModePageRank: "TF-IDF + PageRank",
	parser.ModeHITS:     "TF-IDF + HITS",
}

// WriteReports prints reports in a human-readable layout.
func WriteReports(w io.Writer, reports []QueryReport) {
	fmt.Fprintln(w, "=== Query Evaluation Results ===")
	fmt.Fprintln(w)
	for _, r := range reports {
		fmt.Fprintf(w, "Query: %q\n", r.Query)
		fmt.Fprintln(w, strings.Repeat("-", 50))
		for _, run := range r.Runs {
			fmt.Fprintf(w, "%s:\n", modeNames[run.Mode])
			fmt.Fprintf(w, "  Results found: %d\n", run.TotalHits)
			fmt.Fprintf(w, "  Search time:   %s\n", run.Latency.Round(time.Microsecond))
			if run.Top != nil {
				fmt.Fprintf(w, "  Top result:    %s\n", run.Top.Title)
				fmt.Fprintf(w, "  Score:         %.6f\n", run.Top.Score)
			}
		}
		fmt.Fprintln(w, strings.Repeat("=", 60))
		fmt.Fprintln(w)
	}
}

// WriteComparison prints the side-by-side top results of c.
func WriteComparison(w io.Writer, c *Comparison) {
	fmt.Fprintf(w, "Detailed comparison for query: %q\n", c.Query)
	fmt.Fprintln(w, strings.Repeat("=", 80))
	for _, mode := range parser.Modes {
		fmt.Fprintf(w, "\n%s - Top %d Results:\n", modeNames[mode], len(c.Top[mode]))
		for _, h := range c.Top[mode] {
			fmt.Fprintf(w, "%d. %s\n", h.Rank, truncate(h.Title, 60))
			fmt.Fprintf(w, "   Score: %.6f\n", h.Score)
			fmt.Fprintf(w, "   URL:   %s\n", h.URL)
		}
		fmt.Fprintln(w, strings.Repeat("-", 80))
	}
	fmt.Fprintf(w, "\nTop-%d overlap with TF-IDF: PageRank %.0f%%, HITS %.0f%%\n",
		len(c.Top[parser.ModeTFIDF]),
		100*c.Overlap(parser.ModeTFIDF, parser.ModePageRank),
		100*c.Overlap(parser.ModeTFIDF, parser.ModeHITS),
	)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
