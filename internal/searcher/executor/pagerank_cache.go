package executor

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/krishnasharma4415/Mini-Search-Engine/internal/scorestore"
	"github.com/krishnasharma4415/Mini-Search-Engine/internal/searcher/pagerank"
	"github.com/krishnasharma4415/Mini-Search-Engine/internal/snapshot"
	apperrors "github.com/krishnasharma4415/Mini-Search-Engine/pkg/errors"
	"github.com/krishnasharma4415/Mini-Search-Engine/pkg/metrics"
)

// ScoreStore persists PageRank runs by graph version and solver params.
// LoadPageRank returns an error wrapping ErrNotFound when nothing is stored
// under that pair.
type ScoreStore interface {
	LoadPageRank(ctx context.Context, version, params string) (*scorestore.PageRankRun, error)
	SavePageRank(ctx context.Context, run scorestore.PageRankRun) error
}

// PageRankVector is the PageRank of one graph version.
type PageRankVector struct {
	Version    string
	Scores     map[string]float64
	Iterations int
	Converged  bool
	// Source is "computed" or "store".
	Source string
}

// PageRankCache keeps the PageRank vector of the most recent graph. The
// first request for a graph version computes it; concurrent requests for
// the same version wait for that computation instead of repeating it.
type PageRankCache struct {
	cfg     pagerank.Config
	params  string
	store   ScoreStore
	metrics *metrics.Metrics
	group   singleflight.Group
	mu      sync.RWMutex
	current *PageRankVector
	logger  *slog.Logger
}

// NewPageRankCache creates a cache. store and m may be nil.
func NewPageRankCache(cfg pagerank.Config, store ScoreStore, m *metrics.Metrics) *PageRankCache {
	return &PageRankCache{
		cfg:     cfg,
		params:  cfg.Key(),
		store:   store,
		metrics: m,
		logger:  slog.Default().With("component", "pagerank-cache"),
	}
}

// Get returns the PageRank vector of snap's graph.
func (c *PageRankCache) Get(ctx context.Context, snap *snapshot.Snapshot) (*PageRankVector, error) {
	if v := c.lookup(snap.GraphVersion); v != nil {
		return v, nil
	}
	val, err, _ := c.group.Do(snap.GraphVersion, func() (interface{}, error) {
		if v := c.lookup(snap.GraphVersion); v != nil {
			return v, nil
		}
		v := c.load(ctx, snap.GraphVersion)
		if v == nil {
			v = c.compute(ctx, snap)
		}
		c.mu.Lock()
		c.current = v
		c.mu.Unlock()
		return v, nil
	})
	if err != nil {
		return nil, err
	}
	return val.(*PageRankVector), nil
}

// Invalidate drops the cached vector.
func (c *PageRankCache) Invalidate() {
	c.mu.Lock()
	c.current = nil
	c.mu.Unlock()
}

// OnSnapshotSwap drops the cached vector when the graph changed. It is
// meant to be registered with snapshot.Store.OnSwap.
func (c *PageRankCache) OnSnapshotSwap(old, cur *snapshot.Snapshot) {
	if old != nil && cur != nil && old.GraphVersion == cur.GraphVersion {
		return
	}
	c.Invalidate()
}

func (c *PageRankCache) lookup(version string) *PageRankVector {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.current != nil && c.current.Version == version {
		return c.current
	}
	return nil
}

func (c *PageRankCache) load(ctx context.Context, version string) *PageRankVector {
	if c.store == nil {
		return nil
	}
	run, err := c.store.LoadPageRank(ctx, version, c.params)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			c.logger.Warn("loading stored pagerank failed", "version", version, "error", err)
		}
		return nil
	}
	c.logger.Info("pagerank loaded from store",
		"version", version,
		"params", c.params,
		"nodes", len(run.Scores),
		"converged", run.Converged,
	)
	return &PageRankVector{
		Version:    version,
		Scores:     run.Scores,
		Iterations: run.Iterations,
		Converged:  run.Converged,
		Source:     "store",
	}
}

func (c *PageRankCache) compute(ctx context.Context, snap *snapshot.Snapshot) *PageRankVector {
	start := time.Now()
	res := pagerank.Compute(snap.Graph, c.cfg)
	took := time.Since(start)
	if c.metrics != nil {
		c.metrics.PageRankIterations.Observe(float64(res.Iterations))
		c.metrics.PageRankDuration.Observe(took.Seconds())
	}
	c.logger.Info("pagerank computed",
		"version", snap.GraphVersion,
		"nodes", snap.Graph.Len(),
		"iterations", res.Iterations,
		"converged", res.Converged,
		"took", took,
	)
	if c.store != nil {
		run := scorestore.PageRankRun{
			Version:    snap.GraphVersion,
			Params:     c.params,
			Scores:     res.Scores,
			Iterations: res.Iterations,
			Converged:  res.Converged,
		}
		if err := c.store.SavePageRank(ctx, run); err != nil {
			c.logger.Warn("saving pagerank failed", "version", snap.GraphVersion, "error", err)
		}
	}
	return &PageRankVector{
		Version:    snap.GraphVersion,
		Scores:     res.Scores,
		Iterations: res.Iterations,
		Converged:  res.Converged,
		Source:     "computed",
	}
}
