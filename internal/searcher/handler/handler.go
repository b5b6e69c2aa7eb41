// Package handler exposes the query executor over HTTP.
package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/krishnasharma4415/Mini-Search-Engine/internal/analytics"
	"github.com/krishnasharma4415/Mini-Search-Engine/internal/searcher/cache"
	"github.com/krishnasharma4415/Mini-Search-Engine/internal/searcher/executor"
	"github.com/krishnasharma4415/Mini-Search-Engine/internal/searcher/parser"
	"github.com/krishnasharma4415/Mini-Search-Engine/internal/snapshot"
	apperrors "github.com/krishnasharma4415/Mini-Search-Engine/pkg/errors"
	"github.com/krishnasharma4415/Mini-Search-Engine/pkg/logger"
	"github.com/krishnasharma4415/Mini-Search-Engine/pkg/middleware"
)

// Engine answers queries against the current snapshot.
type Engine interface {
	Snapshot() (*snapshot.Snapshot, error)
	Execute(ctx context.Context, plan *parser.QueryPlan, limit int) (*executor.SearchResult, error)
	ExecuteOn(ctx context.Context, snap *snapshot.Snapshot, plan *parser.QueryPlan, limit int) (*executor.SearchResult, error)
	TopPageRank(ctx context.Context, limit int) (*executor.PageRankReport, error)
	HITS(ctx context.Context, plan *parser.QueryPlan, limit int) (*executor.HITSReport, error)
	Stats(ctx context.Context) (*snapshot.Stats, error)
}

// Reloader swaps in freshly loaded artifacts.
type Reloader interface {
	Reload(ctx context.Context) (*snapshot.Snapshot, error)
}

type Handler struct {
	engine       Engine
	reloader     Reloader
	cache        *cache.QueryCache
	collector    *analytics.Collector
	defaultLimit int
	maxResults   int
	logger       *slog.Logger
}

// New creates a Handler. queryCache, collector and reloader may be nil.
func New(engine Engine, reloader Reloader, queryCache *cache.QueryCache, collector *analytics.Collector, defaultLimit, maxResults int) *Handler {
	if defaultLimit <= 0 {
		defaultLimit = 10
	}
	if maxResults < defaultLimit {
		maxResults = defaultLimit
	}
	return &Handler{
		engine:       engine,
		reloader:     reloader,
		cache:        queryCache,
		collector:    collector,
		defaultLimit: defaultLimit,
		maxResults:   maxResults,
		logger:       slog.Default().With("component", "search-handler"),
	}
}

// Register mounts every route on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/search", h.Search)
	mux.HandleFunc("GET /api/v1/pagerank", h.PageRank)
	mux.HandleFunc("GET /api/v1/hits", h.HITS)
	mux.HandleFunc("GET /api/v1/stats", h.Stats)
	mux.HandleFunc("GET /api/v1/cache/stats", h.CacheStats)
	mux.HandleFunc("POST /api/v1/cache/invalidate", h.CacheInvalidate)
	mux.HandleFunc("POST /api/v1/snapshot/reload", h.SnapshotReload)
}

// Search serves GET /api/v1/search?q=&mode=&limit=.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	log := logger.FromContext(ctx)

	query := r.URL.Query().Get("q")
	if query == "" {
		h.writeError(w, http.StatusBadRequest, "query parameter 'q' is required")
		return
	}
	limit, ok := h.limit(w, r)
	if !ok {
		return
	}
	plan, err := parser.Parse(query, r.URL.Query().Get("mode"))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	result, cacheHit, err := h.search(ctx, plan, limit)
	if err != nil {
		log.Error("search execution failed", "query", query, "mode", plan.Mode, "error", err)
		h.fail(w, r, err)
		return
	}

	latencyMs := float64(time.Since(start).Microseconds()) / 1000
	log.Info("search completed",
		"query", query,
		"mode", plan.Mode,
		"total_hits", result.TotalHits,
		"returned", len(result.Results),
		"cache_hit", cacheHit,
		"latency_ms", latencyMs,
	)
	if h.collector != nil {
		eventType := analytics.EventSearch
		switch {
		case result.TotalHits == 0:
			eventType = analytics.EventZeroResult
		case h.cache != nil && cacheHit:
			eventType = analytics.EventCacheHit
		case h.cache != nil:
			eventType = analytics.EventCacheMiss
		}
		h.collector.Track(analytics.SearchEvent{
			Type:      eventType,
			Query:     query,
			Mode:      string(plan.Mode),
			Terms:     plan.Terms,
			TotalHits: result.TotalHits,
			Returned:  len(result.Results),
			LatencyMs: latencyMs,
			CacheHit:  cacheHit,
			Timestamp: time.Now().UTC(),
			RequestID: middleware.GetRequestID(ctx),
		})
	}

	h.writeJSON(w, http.StatusOK, result)
}

// search runs plan through the cache when one is configured. The snapshot
// that names the cache key is the one the query runs on. Cached and shared
// results are copied before the raw query is stamped on them.
func (h *Handler) search(ctx context.Context, plan *parser.QueryPlan, limit int) (*executor.SearchResult, bool, error) {
	if h.cache == nil || len(plan.Terms) == 0 {
		res, err := h.engine.Execute(ctx, plan, limit)
		return res, false, err
	}
	snap, err := h.engine.Snapshot()
	if err != nil {
		return nil, false, err
	}
	key := cache.Key{Mode: plan.Mode, Terms: plan.Terms, Limit: limit, Version: snap.Version}
	shared, hit, err := h.cache.GetOrCompute(ctx, key, func() (*executor.SearchResult, error) {
		return h.engine.ExecuteOn(ctx, snap, plan, limit)
	})
	if err != nil {
		return nil, false, err
	}
	res := *shared
	res.Query = plan.RawQuery
	return &res, hit, nil
}

// PageRank serves GET /api/v1/pagerank?limit=.
func (h *Handler) PageRank(w http.ResponseWriter, r *http.Request) {
	limit, ok := h.limit(w, r)
	if !ok {
		return
	}
	report, err := h.engine.TopPageRank(r.Context(), limit)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, report)
}

// HITS serves GET /api/v1/hits?q=&limit=.
func (h *Handler) HITS(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		h.writeError(w, http.StatusBadRequest, "query parameter 'q' is required")
		return
	}
	limit, ok := h.limit(w, r)
	if !ok {
		return
	}
	plan, err := parser.Parse(query, string(parser.ModeHITS))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	report, err := h.engine.HITS(r.Context(), plan, limit)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, report)
}

// Stats serves GET /api/v1/stats.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.engine.Stats(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "disabled"})
		return
	}

	hits, misses := h.cache.Stats()
	total := hits + misses
	var hitRate float64
	if total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"hits":     hits,
		"misses":   misses,
		"total":    total,
		"hit_rate": fmt.Sprintf("%.1f%%", hitRate),
	})
}

func (h *Handler) CacheInvalidate(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeError(w, http.StatusServiceUnavailable, "caching is disabled")
		return
	}
	if err := h.cache.Invalidate(r.Context()); err != nil {
		h.logger.Error("cache invalidation failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "cache invalidation failed")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "invalidated"})
}

// SnapshotReload serves POST /api/v1/snapshot/reload. A failed reload
// leaves the previous snapshot serving.
func (h *Handler) SnapshotReload(w http.ResponseWriter, r *http.Request) {
	if h.reloader == nil {
		h.writeError(w, http.StatusServiceUnavailable, "reload is disabled")
		return
	}
	snap, err := h.reloader.Reload(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"status":        "loaded",
		"version":       snap.Version,
		"graph_version": snap.GraphVersion,
		"documents":     len(snap.Pages),
		"loaded_at":     snap.LoadedAt,
	})
}

func (h *Handler) limit(w http.ResponseWriter, r *http.Request) (int, bool) {
	limitStr := r.URL.Query().Get("limit")
	if limitStr == "" {
		return h.defaultLimit, true
	}
	parsed, err := strconv.Atoi(limitStr)
	if err != nil || parsed < 1 {
		h.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
		return 0, false
	}
	if parsed > h.maxResults {
		parsed = h.maxResults
	}
	return parsed, true
}

// fail maps err to its HTTP status. Internal errors are logged and hidden.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := apperrors.HTTPStatusCode(err)
	if status >= http.StatusInternalServerError && status != http.StatusServiceUnavailable {
		logger.FromContext(r.Context()).Error("request failed", "path", r.URL.Path, "error", err)
		h.writeError(w, status, "internal error")
		return
	}
	h.writeError(w, status, err.Error())
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
