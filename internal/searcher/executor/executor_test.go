package executor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/krishnasharma4415/Mini-Search-Engine/internal/corpus"
	"github.com/krishnasharma4415/Mini-Search-Engine/internal/scorestore"
	"github.com/krishnasharma4415/Mini-Search-Engine/internal/searcher/combiner"
	"github.com/krishnasharma4415/Mini-Search-Engine/internal/searcher/hits"
	"github.com/krishnasharma4415/Mini-Search-Engine/internal/searcher/pagerank"
	"github.com/krishnasharma4415/Mini-Search-Engine/internal/searcher/parser"
	"github.com/krishnasharma4415/Mini-Search-Engine/internal/snapshot"
	apperrors "github.com/krishnasharma4415/Mini-Search-Engine/pkg/errors"
)

type staticSource struct {
	snap *snapshot.Snapshot
}

func (s staticSource) Current() (*snapshot.Snapshot, error) {
	if s.snap == nil {
		return nil, apperrors.ErrSnapshotNotLoaded
	}
	return s.snap, nil
}

type memStore struct {
	mu     sync.Mutex
	saved  map[string]scorestore.PageRankRun
	saves  int
	loads  int
	failOn error
}

func runKey(version, params string) string {
	return version + "|" + params
}

func (m *memStore) LoadPageRank(_ context.Context, version, params string) (*scorestore.PageRankRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loads++
	if m.failOn != nil {
		return nil, m.failOn
	}
	run, ok := m.saved[runKey(version, params)]
	if !ok {
		return nil, fmt.Errorf("pagerank %s (%s): %w", version, params, apperrors.ErrNotFound)
	}
	return &run, nil
}

func (m *memStore) SavePageRank(_ context.Context, run scorestore.PageRankRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	if m.saved == nil {
		m.saved = make(map[string]scorestore.PageRankRun)
	}
	m.saved[runKey(run.Version, run.Params)] = run
	return nil
}

func testSnapshot(t *testing.T) *snapshot.Snapshot {
	t.Helper()
	pages := corpus.Pages{
		{URL: "http://site/ml", Title: "Machine Learning", Content: "Machine learning builds models from data.", Links: []string{"http://site/dl", "http://site/ai"}},
		{URL: "http://site/ai", Title: "Artificial Intelligence", Content: "Artificial intelligence includes machine learning.", Links: []string{"http://site/ml"}},
		{URL: "http://site/dl", Title: "Deep Learning", Content: "Deep learning uses neural networks.", Links: []string{"http://site/ml"}},
		{URL: "http://site/cook", Title: "Cooking", Content: "Recipes for pasta and bread.", Links: []string{"http://site/ml"}},
	}
	snap, err := snapshot.FromPages(pages)
	if err != nil {
		t.Fatalf("FromPages: %v", err)
	}
	return snap
}

func newExecutor(t *testing.T, store ScoreStore) *Executor {
	t.Helper()
	cache := NewPageRankCache(pagerank.DefaultConfig(), store, nil)
	return New(staticSource{snap: testSnapshot(t)}, cache, Config{
		HITS:    hits.DefaultConfig(),
		Combine: combiner.DefaultOptions(),
	}, nil)
}

func plan(t *testing.T, query string, mode parser.Mode) *parser.QueryPlan {
	t.Helper()
	p, err := parser.Parse(query, string(mode))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return p
}

func TestNoMatchQueryReturnsEmptyResult(t *testing.T) {
	exec := newExecutor(t, nil)
	for _, mode := range parser.Modes {
		t.Run(string(mode), func(t *testing.T) {
			res, err := exec.Execute(context.Background(), plan(t, "quantum chromodynamics", mode), 0)
			if err != nil {
				t.Fatalf("Execute: %v", err)
			}
			if res.Results == nil || len(res.Results) != 0 || res.TotalHits != 0 {
				t.Errorf("got %d results, %d hits", len(res.Results), res.TotalHits)
			}
		})
	}
}

func TestEmptyQuery(t *testing.T) {
	exec := newExecutor(t, nil)
	res, err := exec.Execute(context.Background(), plan(t, "is a of", parser.ModeTFIDF), 0)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(res.Results) != 0 || len(res.Terms) != 0 {
		t.Errorf("stop-word query returned %+v", res)
	}
}

func TestExecuteModes(t *testing.T) {
	exec := newExecutor(t, nil)
	for _, mode := range parser.Modes {
		t.Run(string(mode), func(t *testing.T) {
			res, err := exec.Execute(context.Background(), plan(t, "deep learning", mode), 0)
			if err != nil {
				t.Fatalf("Execute: %v", err)
			}
			if len(res.Results) == 0 || len(res.Results) > combiner.DefaultTopK {
				t.Fatalf("got %d results", len(res.Results))
			}
			if res.Results[0].URL != "http://site/dl" {
				t.Errorf("top result = %s, want http://site/dl", res.Results[0].URL)
			}
			for i, hit := range res.Results {
				if hit.Rank != i+1 || hit.Title == "" || hit.Snippet == "" {
					t.Errorf("hit %d not enriched: %+v", i, hit)
				}
				if i > 0 && hit.Score > res.Results[i-1].Score {
					t.Errorf("results out of order at %d", i)
				}
			}
			if (mode == parser.ModeHITS) != (res.HITS != nil) {
				t.Errorf("HITS info = %+v for mode %s", res.HITS, mode)
			}
			if res.Version == "" {
				t.Error("missing snapshot version")
			}
		})
	}
}

func TestExecuteLimit(t *testing.T) {
	exec := newExecutor(t, nil)
	res, err := exec.Execute(context.Background(), plan(t, "machine learning", parser.ModePageRank), 1)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(res.Results) != 1 {
		t.Errorf("got %d results, want 1", len(res.Results))
	}
	if res.TotalHits < 2 {
		t.Errorf("TotalHits = %d, want the full match count", res.TotalHits)
	}
}

func TestSnapshotNotLoaded(t *testing.T) {
	exec := New(staticSource{}, NewPageRankCache(pagerank.Config{}, nil, nil), Config{}, nil)
	_, err := exec.Execute(context.Background(), plan(t, "learning", parser.ModeTFIDF), 0)
	if !errors.Is(err, apperrors.ErrSnapshotNotLoaded) {
		t.Fatalf("error = %v, want ErrSnapshotNotLoaded", err)
	}
	if _, err := exec.TopPageRank(context.Background(), 5); !errors.Is(err, apperrors.ErrSnapshotNotLoaded) {
		t.Fatalf("TopPageRank error = %v", err)
	}
}

func TestPageRankComputedOncePerGraph(t *testing.T) {
	store := &memStore{}
	exec := newExecutor(t, store)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := exec.TopPageRank(context.Background(), 3); err != nil {
				t.Errorf("TopPageRank: %v", err)
			}
		}()
	}
	wg.Wait()
	if store.saves != 1 {
		t.Errorf("pagerank saved %d times, want 1", store.saves)
	}

	report, err := exec.TopPageRank(context.Background(), 0)
	if err != nil {
		t.Fatalf("TopPageRank: %v", err)
	}
	if report.Nodes != 4 || len(report.Scores) != 4 {
		t.Errorf("report covers %d nodes, %d scores", report.Nodes, len(report.Scores))
	}
	if report.Scores[0].URL != "http://site/ml" {
		t.Errorf("top page = %s, want http://site/ml", report.Scores[0].URL)
	}
	if report.Source != "computed" {
		t.Errorf("Source = %s", report.Source)
	}
}

func TestPageRankLoadedFromStore(t *testing.T) {
	snap := testSnapshot(t)
	params := pagerank.DefaultConfig().Key()
	store := &memStore{saved: map[string]scorestore.PageRankRun{
		runKey(snap.GraphVersion, params): {
			Version:    snap.GraphVersion,
			Params:     params,
			Scores:     map[string]float64{"http://site/cook": 1},
			Iterations: 30,
			Converged:  false,
		},
	}}
	cache := NewPageRankCache(pagerank.DefaultConfig(), store, nil)
	v, err := cache.Get(context.Background(), snap)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if v.Source != "store" || v.Scores["http://site/cook"] != 1 {
		t.Errorf("vector = %+v", v)
	}
	if v.Converged || v.Iterations != 30 {
		t.Errorf("stored run served as iterations %d converged %v, want 30 false", v.Iterations, v.Converged)
	}
	if store.saves != 0 {
		t.Error("stored vector written back")
	}

	cache.OnSnapshotSwap(snap, snap)
	if cache.lookup(snap.GraphVersion) == nil {
		t.Error("swap to the same graph dropped the cache")
	}
	cache.OnSnapshotSwap(nil, snap)
	if cache.lookup(snap.GraphVersion) != nil {
		t.Error("swap to a new snapshot kept the cache")
	}
}

func TestPageRankStoreSeparatesSolverSettings(t *testing.T) {
	ctx := context.Background()
	snap := testSnapshot(t)
	store := &memStore{}

	standard := NewPageRankCache(pagerank.Config{Damping: 0.85}, store, nil)
	if _, err := standard.Get(ctx, snap); err != nil {
		t.Fatalf("Get: %v", err)
	}

	low := NewPageRankCache(pagerank.Config{Damping: 0.5}, store, nil)
	v, err := low.Get(ctx, snap)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if v.Source != "computed" {
		t.Fatalf("damping 0.5 served the vector stored for damping 0.85")
	}
	want := pagerank.Compute(snap.Graph, pagerank.Config{Damping: 0.5})
	for url, score := range want.Scores {
		if v.Scores[url] != score {
			t.Errorf("score[%s] = %v, want %v", url, v.Scores[url], score)
		}
	}
	if store.saves != 2 {
		t.Errorf("store saved %d runs, want 2", store.saves)
	}

	// A fresh cache with the original settings reuses its own run.
	again, err := NewPageRankCache(pagerank.DefaultConfig(), store, nil).Get(ctx, snap)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if again.Source != "store" {
		t.Errorf("Source = %s, want store", again.Source)
	}
	if again.Scores["http://site/ml"] == v.Scores["http://site/ml"] {
		t.Error("default settings served the damping 0.5 vector")
	}
}

func TestPageRankStoreFailureFallsBackToCompute(t *testing.T) {
	store := &memStore{failOn: errors.New("connection refused")}
	snap := testSnapshot(t)
	cache := NewPageRankCache(pagerank.DefaultConfig(), store, nil)
	v, err := cache.Get(context.Background(), snap)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if v.Source != "computed" || len(v.Scores) != 4 {
		t.Errorf("vector = %+v", v)
	}
}

func TestHITSReport(t *testing.T) {
	exec := newExecutor(t, nil)
	report, err := exec.HITS(context.Background(), plan(t, "neural networks", parser.ModeHITS), 2)
	if err != nil {
		t.Fatalf("HITS: %v", err)
	}
	// dl matches; ml links to it and it links back to ml.
	if report.Subgraph.RelevantPages != 1 || report.Subgraph.SubgraphNodes != 2 {
		t.Errorf("subgraph = %+v", report.Subgraph)
	}
	if len(report.Authorities) != 2 || len(report.Hubs) != 2 {
		t.Errorf("got %d authorities, %d hubs", len(report.Authorities), len(report.Hubs))
	}

	empty, err := exec.HITS(context.Background(), plan(t, "zzzz", parser.ModeHITS), 5)
	if err != nil {
		t.Fatalf("HITS: %v", err)
	}
	if empty.Subgraph.SubgraphNodes != 0 || empty.Subgraph.Iterations != 0 || len(empty.Authorities) != 0 {
		t.Errorf("empty report = %+v", empty)
	}
}

func TestStats(t *testing.T) {
	exec := newExecutor(t, nil)
	st, err := exec.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if st.TotalPages != 4 || st.GraphEdges != 5 {
		t.Errorf("stats = %+v", st)
	}
}
