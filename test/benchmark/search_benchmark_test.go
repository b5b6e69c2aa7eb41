package benchmark

import (
	"context"
	"fmt"
	"testing"

	"github.com/krishnasharma4415/Mini-Search-Engine/internal/corpus"
	"github.com/krishnasharma4415/Mini-Search-Engine/internal/graph"
	"github.com/krishnasharma4415/Mini-Search-Engine/internal/searcher/combiner"
	"github.com/krishnasharma4415/Mini-Search-Engine/internal/searcher/executor"
	"github.com/krishnasharma4415/Mini-Search-Engine/internal/searcher/hits"
	"github.com/krishnasharma4415/Mini-Search-Engine/internal/searcher/pagerank"
	"github.com/krishnasharma4415/Mini-Search-Engine/internal/searcher/parser"
	"github.com/krishnasharma4415/Mini-Search-Engine/internal/searcher/ranker"
	"github.com/krishnasharma4415/Mini-Search-Engine/internal/snapshot"
	"github.com/krishnasharma4415/Mini-Search-Engine/pkg/config"
)

var vocabulary = []string{
	"machine", "learning", "neural", "network", "search", "ranking",
	"graph", "authority", "vision", "language", "data", "science",
}

// syntheticPages builds n pages where page i links to the next fanout pages
// (mod n) and mentions a rotating slice of the vocabulary.
func syntheticPages(n, fanout int) corpus.Pages {
	pages := make(corpus.Pages, n)
	for i := range pages {
		links := make([]string, 0, fanout)
		for j := 1; j <= fanout; j++ {
			links = append(links, pageURL((i+j*7)%n))
		}
		content := ""
		for j := 0; j < 20; j++ {
			content += vocabulary[(i+j*j)%len(vocabulary)] + " "
		}
		pages[i] = corpus.Page{
			URL:     pageURL(i),
			Title:   fmt.Sprintf("Page %d", i),
			Content: content,
			Links:   links,
		}
	}
	return pages
}

func pageURL(i int) string {
	return fmt.Sprintf("https://example.org/p/%d", i)
}

func mustSnapshot(b *testing.B, n, fanout int) *snapshot.Snapshot {
	b.Helper()
	snap, err := snapshot.FromPages(syntheticPages(n, fanout))
	if err != nil {
		b.Fatal(err)
	}
	return snap
}

// BenchmarkQueryParse measures query analysis latency.
func BenchmarkQueryParse(b *testing.B) {
	queries := []struct {
		name  string
		query string
	}{
		{"short", "deep learning"},
		{"stopwords", "the history of the neural networks"},
		{"long", "machine learning algorithms for natural language processing and computer vision"},
	}
	for _, q := range queries {
		b.Run(q.name, func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				if _, err := parser.Parse(q.query, "pagerank"); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// BenchmarkTFIDF measures scoring and sorting for growing corpora.
func BenchmarkTFIDF(b *testing.B) {
	for _, n := range []int{100, 1000, 10000} {
		b.Run(fmt.Sprintf("docs_%d", n), func(b *testing.B) {
			snap := mustSnapshot(b, n, 1)
			plan, _ := parser.Parse("machine learning", "tfidf")
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				_ = ranker.TFIDF(plan.Terms, snap.Index)
			}
		})
	}
}

// BenchmarkPageRank measures power iteration over graphs of growing size.
func BenchmarkPageRank(b *testing.B) {
	for _, n := range []int{100, 1000, 10000} {
		b.Run(fmt.Sprintf("nodes_%d", n), func(b *testing.B) {
			snap := mustSnapshot(b, n, 5)
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				_ = pagerank.Compute(snap.Graph, pagerank.DefaultConfig())
			}
		})
	}
}

// BenchmarkHITS measures subgraph extraction plus hub/authority iteration.
func BenchmarkHITS(b *testing.B) {
	for _, n := range []int{100, 1000, 5000} {
		b.Run(fmt.Sprintf("nodes_%d", n), func(b *testing.B) {
			snap := mustSnapshot(b, n, 5)
			plan, _ := parser.Parse("neural network", "hits")
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				sub := graph.Extract(plan.Terms, snap.Index, snap.Graph)
				_ = hits.Compute(sub.LinkGraph, hits.DefaultConfig())
			}
		})
	}
}

// BenchmarkCombine measures weighted blending with top-K selection.
func BenchmarkCombine(b *testing.B) {
	snap := mustSnapshot(b, 10000, 5)
	plan, _ := parser.Parse("machine learning", "pagerank")
	scored := ranker.TFIDF(plan.Terms, snap.Index)
	pr := pagerank.Compute(snap.Graph, pagerank.DefaultConfig())
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = combiner.Combine(scored, pr.Scores, snap.URL, combiner.DefaultOptions())
	}
}

// BenchmarkExecuteParallel measures end-to-end query throughput with the
// PageRank vector already cached.
func BenchmarkExecuteParallel(b *testing.B) {
	for _, mode := range []string{"tfidf", "pagerank", "hits"} {
		b.Run(mode, func(b *testing.B) {
			store := snapshot.NewStore(config.DataConfig{}, nil)
			store.Set(mustSnapshot(b, 2000, 5))
			exec := executor.New(store, executor.NewPageRankCache(pagerank.DefaultConfig(), nil, nil), executor.Config{}, nil)
			plan, err := parser.Parse("machine learning", mode)
			if err != nil {
				b.Fatal(err)
			}
			if _, err := exec.Execute(context.Background(), plan, 10); err != nil {
				b.Fatal(err)
			}

			b.ReportAllocs()
			b.ResetTimer()
			b.RunParallel(func(pb *testing.PB) {
				for pb.Next() {
					if _, err := exec.Execute(context.Background(), plan, 10); err != nil {
						b.Fatal(err)
					}
				}
			})
		})
	}
}
