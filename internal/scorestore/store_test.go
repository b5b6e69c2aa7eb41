package scorestore

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	apperrors "github.com/krishnasharma4415/Mini-Search-Engine/pkg/errors"
	"github.com/krishnasharma4415/Mini-Search-Engine/pkg/resilience"
	"github.com/krishnasharma4415/Mini-Search-Engine/pkg/sqldb"
)

func newSQLiteStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()
	db, err := sqldb.OpenSQLite(ctx, filepath.Join(t.TempDir(), "scores.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	s := New(db)
	var tick int64
	s.now = func() time.Time {
		return time.Unix(0, atomic.AddInt64(&tick, 1))
	}
	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("second Migrate: %v", err)
	}
	return s
}

const defaultParams = "d=0.85;iter=30;tol=0.0001"

func TestPageRankRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t)

	if _, err := s.LoadPageRank(ctx, "v1", defaultParams); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("empty store: err = %v, want ErrNotFound", err)
	}
	if _, err := s.LatestVersion(ctx); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("LatestVersion on empty store: err = %v", err)
	}

	v1 := map[string]float64{"a": 0.5, "b": 0.3, "c": 0.2}
	run := PageRankRun{Version: "v1", Params: defaultParams, Scores: v1, Iterations: 30, Converged: false}
	if err := s.SavePageRank(ctx, run); err != nil {
		t.Fatalf("SavePageRank: %v", err)
	}
	got, err := s.LoadPageRank(ctx, "v1", defaultParams)
	if err != nil {
		t.Fatalf("LoadPageRank: %v", err)
	}
	if got.Iterations != 30 || got.Converged {
		t.Errorf("run metadata = iterations %d converged %v, want 30 false", got.Iterations, got.Converged)
	}
	if len(got.Scores) != len(v1) {
		t.Fatalf("loaded %d scores, want %d", len(got.Scores), len(v1))
	}
	for url, want := range v1 {
		if math.Abs(got.Scores[url]-want) > 1e-12 {
			t.Errorf("score[%s] = %v, want %v", url, got.Scores[url], want)
		}
	}

	if err := s.SavePageRank(ctx, PageRankRun{Version: "v2", Params: defaultParams, Scores: map[string]float64{"a": 1}, Converged: true}); err != nil {
		t.Fatal(err)
	}
	latest, err := s.LatestVersion(ctx)
	if err != nil || latest != "v2" {
		t.Fatalf("LatestVersion = %q, %v; want v2", latest, err)
	}

	// Saving v1 again replaces its vector and makes it the latest.
	if err := s.SavePageRank(ctx, PageRankRun{Version: "v1", Params: defaultParams, Scores: map[string]float64{"z": 1}, Iterations: 4, Converged: true}); err != nil {
		t.Fatal(err)
	}
	got, _ = s.LoadPageRank(ctx, "v1", defaultParams)
	if len(got.Scores) != 1 || got.Scores["z"] != 1 || !got.Converged || got.Iterations != 4 {
		t.Errorf("replaced run = %+v", got)
	}
	if latest, _ := s.LatestVersion(ctx); latest != "v1" {
		t.Errorf("LatestVersion = %q, want v1", latest)
	}

	if err := s.SavePageRank(ctx, PageRankRun{Params: defaultParams, Scores: v1}); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Errorf("empty version: err = %v", err)
	}
	if err := s.SavePageRank(ctx, PageRankRun{Version: "v1", Scores: v1}); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Errorf("empty params: err = %v", err)
	}
}

func TestPageRankKeyedByParams(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t)

	const lowDamping = "d=0.5;iter=30;tol=0.0001"
	if err := s.SavePageRank(ctx, PageRankRun{Version: "g", Params: defaultParams, Scores: map[string]float64{"a": 0.7}}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.LoadPageRank(ctx, "g", lowDamping); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("vector saved under other params was served: err = %v", err)
	}
	if err := s.SavePageRank(ctx, PageRankRun{Version: "g", Params: lowDamping, Scores: map[string]float64{"a": 0.4}}); err != nil {
		t.Fatal(err)
	}
	for params, want := range map[string]float64{defaultParams: 0.7, lowDamping: 0.4} {
		got, err := s.LoadPageRank(ctx, "g", params)
		if err != nil {
			t.Fatalf("LoadPageRank(%s): %v", params, err)
		}
		if got.Scores["a"] != want {
			t.Errorf("params %s: score = %v, want %v", params, got.Scores["a"], want)
		}
	}
}

func TestAnalyticsSnapshots(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t)

	data, err := s.LatestAnalyticsSnapshot(ctx)
	if err != nil || data != nil {
		t.Fatalf("empty store: data=%q err=%v", data, err)
	}
	for _, d := range []string{`{"total_searches":1}`, `{"total_searches":2}`} {
		if err := s.SaveAnalyticsSnapshot(ctx, []byte(d)); err != nil {
			t.Fatalf("SaveAnalyticsSnapshot: %v", err)
		}
	}
	data, err = s.LatestAnalyticsSnapshot(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"total_searches":2}` {
		t.Errorf("latest = %s", data)
	}
}

type flakyBackend struct {
	calls atomic.Int32
	err   error
}

func (f *flakyBackend) LoadPageRank(context.Context, string, string) (*PageRankRun, error) {
	f.calls.Add(1)
	return nil, f.err
}

func (f *flakyBackend) SavePageRank(context.Context, PageRankRun) error {
	f.calls.Add(1)
	return f.err
}

func TestGuardedBreaker(t *testing.T) {
	ctx := context.Background()

	missing := &flakyBackend{err: apperrors.New(apperrors.ErrNotFound, 404, "missing")}
	g := Guard(missing, time.Second)
	for i := 0; i < 5; i++ {
		if _, err := g.LoadPageRank(ctx, "v", defaultParams); !errors.Is(err, apperrors.ErrNotFound) {
			t.Fatalf("err = %v", err)
		}
	}
	if g.State() != resilience.StateClosed {
		t.Fatalf("not-found errors opened the breaker")
	}

	down := &flakyBackend{err: errors.New("connection refused")}
	g = Guard(down, time.Second)
	for i := 0; i < 3; i++ {
		_ = g.SavePageRank(ctx, PageRankRun{Version: "v", Params: defaultParams})
	}
	if g.State() != resilience.StateOpen {
		t.Fatalf("state = %v, want open", g.State())
	}
	before := down.calls.Load()
	if _, err := g.LoadPageRank(ctx, "v", defaultParams); !errors.Is(err, resilience.ErrCircuitOpen) {
		t.Errorf("err = %v, want ErrCircuitOpen", err)
	}
	if down.calls.Load() != before {
		t.Error("open breaker reached the backend")
	}
}

func TestGuardedOverStore(t *testing.T) {
	ctx := context.Background()
	g := Guard(newSQLiteStore(t), time.Second)
	if err := g.SavePageRank(ctx, PageRankRun{Version: "v", Params: defaultParams, Scores: map[string]float64{"a": 1}}); err != nil {
		t.Fatal(err)
	}
	got, err := g.LoadPageRank(ctx, "v", defaultParams)
	if err != nil || got.Scores["a"] != 1 {
		t.Fatalf("got %v, %v", got, err)
	}
}
