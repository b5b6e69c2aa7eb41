package snapshot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/krishnasharma4415/Mini-Search-Engine/pkg/config"
	apperrors "github.com/krishnasharma4415/Mini-Search-Engine/pkg/errors"
	"github.com/krishnasharma4415/Mini-Search-Engine/pkg/health"
	"github.com/krishnasharma4415/Mini-Search-Engine/pkg/metrics"
	"github.com/krishnasharma4415/Mini-Search-Engine/pkg/resilience"
)

// SwapFunc is called after a new snapshot has replaced old. old is nil on
// the first swap.
type SwapFunc func(old, cur *Snapshot)

// Store holds the snapshot currently served. Readers never block: they
// load the pointer and keep using that snapshot for the whole query, even
// if a reload swaps it out underneath them.
type Store struct {
	cur     atomic.Pointer[Snapshot]
	cfg     config.DataConfig
	retry   resilience.RetryConfig
	metrics *metrics.Metrics

	reloadMu sync.Mutex
	hooksMu  sync.RWMutex
	hooks    []SwapFunc
	logger   *slog.Logger
}

// NewStore creates an empty Store that loads from cfg. m may be nil.
func NewStore(cfg config.DataConfig, m *metrics.Metrics) *Store {
	return &Store{
		cfg:     cfg,
		metrics: m,
		logger:  slog.Default().With("component", "snapshot-store"),
	}
}

// WithRetry sets the retry policy used by Reload.
func (s *Store) WithRetry(cfg resilience.RetryConfig) *Store {
	s.retry = cfg
	return s
}

// Current returns the snapshot being served, or ErrSnapshotNotLoaded.
func (s *Store) Current() (*Snapshot, error) {
	snap := s.cur.Load()
	if snap == nil {
		return nil, apperrors.ErrSnapshotNotLoaded
	}
	return snap, nil
}

// HealthCheck reports down until a snapshot has been loaded.
func (s *Store) HealthCheck() health.Check {
	return func(ctx context.Context) health.ComponentHealth {
		snap := s.cur.Load()
		if snap == nil {
			return health.ComponentHealth{Status: health.StatusDown, Message: "no snapshot loaded"}
		}
		return health.ComponentHealth{
			Status:  health.StatusUp,
			Message: fmt.Sprintf("version %s, %d documents", snap.Version, len(snap.Pages)),
		}
	}
}

// OnSwap registers fn to run after every swap.
func (s *Store) OnSwap(fn SwapFunc) {
	s.hooksMu.Lock()
	defer s.hooksMu.Unlock()
	s.hooks = append(s.hooks, fn)
}

// Set installs snap directly.
func (s *Store) Set(snap *Snapshot) {
	old := s.cur.Swap(snap)
	s.observe(snap)
	s.hooksMu.RLock()
	hooks := append([]SwapFunc(nil), s.hooks...)
	s.hooksMu.RUnlock()
	for _, fn := range hooks {
		fn(old, snap)
	}
}

// Reload loads the artifacts again and swaps them in. Malformed artifacts
// are not retried. On failure the previous snapshot keeps serving.
func (s *Store) Reload(ctx context.Context) (*Snapshot, error) {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	var snap *Snapshot
	err := resilience.Retry(ctx, "snapshot-load", s.retry, func() error {
		loaded, err := Load(ctx, s.cfg)
		if err != nil {
			if isMalformed(err) {
				return resilience.Permanent(err)
			}
			return err
		}
		snap = loaded
		return nil
	})
	if err != nil {
		s.countReload("error")
		s.logger.Error("snapshot reload failed", "error", err)
		return nil, fmt.Errorf("reloading snapshot: %w", err)
	}

	if prev := s.cur.Load(); prev != nil && prev.Version == snap.Version {
		s.countReload("unchanged")
		s.logger.Info("snapshot unchanged", "version", snap.Version)
		return prev, nil
	}
	s.Set(snap)
	s.countReload("ok")
	s.logger.Info("snapshot loaded",
		"version", snap.Version,
		"graph_version", snap.GraphVersion,
		"documents", len(snap.Pages),
		"terms", snap.Index.TermCount(),
		"nodes", snap.Graph.Len(),
		"edges", snap.Graph.EdgeCount(),
	)
	return snap, nil
}

func (s *Store) observe(snap *Snapshot) {
	if s.metrics == nil || snap == nil {
		return
	}
	s.metrics.SnapshotDocuments.Set(float64(len(snap.Pages)))
	s.metrics.SnapshotGraphNodes.Set(float64(snap.Graph.Len()))
}

func (s *Store) countReload(status string) {
	if s.metrics != nil {
		s.metrics.SnapshotReloadsTotal.WithLabelValues(status).Inc()
	}
}

func isMalformed(err error) bool {
	return errors.Is(err, apperrors.ErrMalformedIndex) ||
		errors.Is(err, apperrors.ErrMalformedGraph) ||
		errors.Is(err, apperrors.ErrMalformedPages)
}
