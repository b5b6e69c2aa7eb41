package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/krishnasharma4415/Mini-Search-Engine/internal/corpus"
	"github.com/krishnasharma4415/Mini-Search-Engine/pkg/config"
	apperrors "github.com/krishnasharma4415/Mini-Search-Engine/pkg/errors"
	"github.com/krishnasharma4415/Mini-Search-Engine/pkg/health"
	"github.com/krishnasharma4415/Mini-Search-Engine/pkg/resilience"
)

func testPages() corpus.Pages {
	return corpus.Pages{
		{URL: "http://site/ml", Title: "Machine Learning", Content: "machine learning models learn from data", Links: []string{"http://site/ai", "http://other/x"}},
		{URL: "http://site/ai", Title: "Artificial Intelligence", Content: "intelligence and learning systems", Links: []string{"http://site/ml", "http://site/dl"}},
		{URL: "http://site/dl", Title: "Deep Learning", Content: "deep neural networks", Links: nil},
	}
}

// writeArtifacts writes the three JSON artifacts for pages into dir.
func writeArtifacts(t *testing.T, dir string, pages corpus.Pages) config.DataConfig {
	t.Helper()
	snap, err := FromPages(pages)
	if err != nil {
		t.Fatalf("FromPages: %v", err)
	}
	cfg := config.DataConfig{
		IndexPath: filepath.Join(dir, "inverted_index.json"),
		GraphPath: filepath.Join(dir, "link_graph.json"),
		PagesPath: filepath.Join(dir, "crawled_pages.json"),
	}
	if err := Write(cfg, snap); err != nil {
		t.Fatalf("Write: %v", err)
	}
	f, err := os.Create(cfg.PagesPath)
	if err != nil {
		t.Fatalf("create pages: %v", err)
	}
	defer f.Close()
	if err := json.NewEncoder(f).Encode(pages); err != nil {
		t.Fatalf("write pages: %v", err)
	}
	return cfg
}

func fastRetry() resilience.RetryConfig {
	return resilience.RetryConfig{MaxAttempts: 1, InitialDelay: time.Millisecond}
}

func TestLoad(t *testing.T) {
	cfg := writeArtifacts(t, t.TempDir(), testPages())
	snap, err := Load(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(snap.Pages) != 3 || snap.Graph.Len() != 3 || snap.Index.TotalDocs() != 3 {
		t.Fatalf("loaded %d pages, %d nodes, %d docs", len(snap.Pages), snap.Graph.Len(), snap.Index.TotalDocs())
	}
	built, _ := FromPages(testPages())
	if snap.Version != built.Version || snap.GraphVersion != built.GraphVersion {
		t.Error("loaded snapshot version differs from the one built in memory")
	}
}

func TestLoadReportsMalformedArtifacts(t *testing.T) {
	dir := t.TempDir()
	cfg := writeArtifacts(t, dir, testPages())
	bad := `{"nodes": ["a"], "edges": {"a": ["b"]}}`
	if err := os.WriteFile(cfg.GraphPath, []byte(bad), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := Load(context.Background(), cfg)
	if !errors.Is(err, apperrors.ErrMalformedGraph) {
		t.Fatalf("error = %v, want ErrMalformedGraph", err)
	}
}

func TestLoadStopsOnCancelledContext(t *testing.T) {
	cfg := writeArtifacts(t, t.TempDir(), testPages())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Load(ctx, cfg)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
	for _, malformed := range []error{apperrors.ErrMalformedIndex, apperrors.ErrMalformedGraph, apperrors.ErrMalformedPages} {
		if errors.Is(err, malformed) {
			t.Errorf("cancellation reported as %v", malformed)
		}
	}
}

func TestCtxReaderStopsMidStream(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r := ctxReader{ctx: ctx, r: strings.NewReader("abcdef")}

	buf := make([]byte, 3)
	if n, err := r.Read(buf); n != 3 || err != nil {
		t.Fatalf("first read = %d, %v", n, err)
	}
	cancel()
	if n, err := r.Read(buf); n != 0 || !errors.Is(err, context.Canceled) {
		t.Fatalf("read after cancel = %d, %v; want 0, context.Canceled", n, err)
	}
}

func TestStats(t *testing.T) {
	snap, err := FromPages(testPages())
	if err != nil {
		t.Fatalf("FromPages: %v", err)
	}
	st := snap.Stats()
	if st.TotalPages != 3 || st.TotalLinks != 4 {
		t.Errorf("TotalPages = %d, TotalLinks = %d", st.TotalPages, st.TotalLinks)
	}
	if st.GraphEdges != 3 {
		t.Errorf("GraphEdges = %d, want 3 (external link dropped)", st.GraphEdges)
	}
	if want := 4.0 / 3; st.AvgLinksPerPage != want {
		t.Errorf("AvgLinksPerPage = %v, want %v", st.AvgLinksPerPage, want)
	}
	if len(st.TopTerms) == 0 || st.TopTerms[0].Term != "learn" {
		t.Errorf("TopTerms = %v, want learn first", st.TopTerms)
	}
	if len(st.TopTerms) > topTermCount {
		t.Errorf("got %d top terms", len(st.TopTerms))
	}
}

func TestStoreLifecycle(t *testing.T) {
	dir := t.TempDir()
	cfg := writeArtifacts(t, dir, testPages())
	store := NewStore(cfg, nil).WithRetry(fastRetry())

	if _, err := store.Current(); !errors.Is(err, apperrors.ErrSnapshotNotLoaded) {
		t.Fatalf("Current before load = %v", err)
	}
	if h := store.HealthCheck()(context.Background()); h.Status != health.StatusDown {
		t.Errorf("health before load = %s, want down", h.Status)
	}

	var swaps int
	store.OnSwap(func(old, cur *Snapshot) {
		swaps++
		if cur == nil {
			t.Error("swap to nil snapshot")
		}
	})

	first, err := store.Reload(context.Background())
	if err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if _, err := store.Reload(context.Background()); err != nil {
		t.Fatalf("second Reload: %v", err)
	}
	if h := store.HealthCheck()(context.Background()); h.Status != health.StatusUp {
		t.Errorf("health after load = %s, want up", h.Status)
	}
	if swaps != 1 {
		t.Errorf("unchanged reload swapped: %d swaps", swaps)
	}

	pages := append(testPages(), corpus.Page{URL: "http://site/new", Title: "Graph Theory", Content: "graphs"})
	writeArtifacts(t, dir, pages)
	second, err := store.Reload(context.Background())
	if err != nil {
		t.Fatalf("Reload after rebuild: %v", err)
	}
	if second.Version == first.Version {
		t.Error("version unchanged after rebuild")
	}
	if swaps != 2 {
		t.Errorf("swaps = %d, want 2", swaps)
	}

	if err := os.WriteFile(cfg.IndexPath, []byte(`{}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Reload(context.Background()); !errors.Is(err, apperrors.ErrMalformedIndex) {
		t.Fatalf("Reload of malformed index = %v", err)
	}
	cur, err := store.Current()
	if err != nil || cur.Version != second.Version {
		t.Error("failed reload replaced the serving snapshot")
	}
}

func TestHandleUpdateEvent(t *testing.T) {
	cfg := writeArtifacts(t, t.TempDir(), testPages())
	store := NewStore(cfg, nil).WithRetry(fastRetry())
	handle := HandleUpdateEvent(store)

	if err := handle(context.Background(), nil, []byte("not json")); err != nil {
		t.Errorf("undecodable event returned %v", err)
	}
	if _, err := store.Current(); err == nil {
		t.Error("undecodable event triggered a reload")
	}
	if err := handle(context.Background(), []byte("k"), []byte(`{"reason":"reindex","documents":3}`)); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if _, err := store.Current(); err != nil {
		t.Errorf("Current after event: %v", err)
	}
}

func TestWriteLeavesNoTempFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	cfg := config.DataConfig{
		IndexPath: filepath.Join(dir, "inverted_index.json"),
		GraphPath: filepath.Join(dir, "link_graph.json"),
	}
	snap, err := FromPages(testPages())
	if err != nil {
		t.Fatal(err)
	}
	if err := Write(cfg, snap); err != nil {
		t.Fatalf("Write: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("directory holds %v, want only the two artifacts", names)
	}
}
