package analytics

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/krishnasharma4415/Mini-Search-Engine/pkg/kafka"
)

const maxLatencySamples = 10000

type AggregatedStats struct {
	TotalSearches     int64                `json:"total_searches"`
	CacheHits         int64                `json:"cache_hits"`
	CacheMisses       int64                `json:"cache_misses"`
	ZeroResultCount   int64                `json:"zero_result_count"`
	AvgLatencyMs      float64              `json:"avg_latency_ms"`
	P50LatencyMs      float64              `json:"p50_latency_ms"`
	P95LatencyMs      float64              `json:"p95_latency_ms"`
	P99LatencyMs      float64              `json:"p99_latency_ms"`
	Modes             map[string]ModeStats `json:"modes"`
	TopQueries        []QueryCount         `json:"top_queries"`
	ZeroResultQueries []QueryCount         `json:"zero_result_queries"`
	QueriesPerMinute  float64              `json:"queries_per_minute"`
}

// ModeStats summarises the searches run with one ranking mode.
type ModeStats struct {
	Searches     int64   `json:"searches"`
	ZeroResults  int64   `json:"zero_results"`
	AvgLatencyMs float64 `json:"avg_latency_ms"`
	P95LatencyMs float64 `json:"p95_latency_ms"`
}

type QueryCount struct {
	Query string `json:"query"`
	Count int64  `json:"count"`
}

type modeCounters struct {
	searches    int64
	zeroResults int64
	latencies   *latencyWindow
}

// Aggregator folds search events into running statistics. It is fed either
// by a Kafka consumer (HandleEvent) or directly as a Collector's Publisher.
type Aggregator struct {
	mu                sync.RWMutex
	totalSearches     int64
	cacheHits         int64
	cacheMisses       int64
	zeroResults       int64
	latencies         *latencyWindow
	modes             map[string]*modeCounters
	queryCounts       map[string]int64
	zeroResultQueries map[string]int64
	startTime         time.Time
	logger            *slog.Logger
}

func NewAggregator() *Aggregator {
	return &Aggregator{
		latencies:         newLatencyWindow(maxLatencySamples),
		modes:             make(map[string]*modeCounters),
		queryCounts:       make(map[string]int64),
		zeroResultQueries: make(map[string]int64),
		startTime:         time.Now(),
		logger:            slog.Default().With("component", "analytics-aggregator"),
	}
}

// HandleEvent returns a Kafka MessageHandler that records search events.
func HandleEvent(agg *Aggregator) kafka.MessageHandler {
	return func(ctx context.Context, key []byte, value []byte) error {
		event, err := kafka.DecodeJSON[SearchEvent](value)
		if err != nil {
			agg.logger.Error("failed to decode analytics event", "error", err)
			return nil
		}
		agg.Record(event)
		return nil
	}
}

// Publish records event.Value in process.
func (a *Aggregator) Publish(_ context.Context, event kafka.Event) error {
	switch v := event.Value.(type) {
	case SearchEvent:
		a.Record(v)
	case *SearchEvent:
		a.Record(*v)
	default:
		return fmt.Errorf("unsupported analytics event %T", event.Value)
	}
	return nil
}

func (a *Aggregator) Record(event SearchEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.totalSearches++
	if event.CacheHit {
		a.cacheHits++
	} else {
		a.cacheMisses++
	}
	a.latencies.add(event.LatencyMs)
	a.queryCounts[event.Query]++

	m, ok := a.modes[event.Mode]
	if !ok {
		m = &modeCounters{latencies: newLatencyWindow(maxLatencySamples / 10)}
		a.modes[event.Mode] = m
	}
	m.searches++
	m.latencies.add(event.LatencyMs)

	if event.TotalHits == 0 {
		a.zeroResults++
		m.zeroResults++
		a.zeroResultQueries[event.Query]++
	}
}

func (a *Aggregator) Stats() AggregatedStats {
	a.mu.RLock()
	defer a.mu.RUnlock()

	stats := AggregatedStats{
		TotalSearches:   a.totalSearches,
		CacheHits:       a.cacheHits,
		CacheMisses:     a.cacheMisses,
		ZeroResultCount: a.zeroResults,
		Modes:           make(map[string]ModeStats, len(a.modes)),
	}
	if sorted := a.latencies.sorted(); len(sorted) > 0 {
		stats.AvgLatencyMs = mean(sorted)
		stats.P50LatencyMs = percentile(sorted, 50)
		stats.P95LatencyMs = percentile(sorted, 95)
		stats.P99LatencyMs = percentile(sorted, 99)
	}
	for mode, m := range a.modes {
		ms := ModeStats{Searches: m.searches, ZeroResults: m.zeroResults}
		if sorted := m.latencies.sorted(); len(sorted) > 0 {
			ms.AvgLatencyMs = mean(sorted)
			ms.P95LatencyMs = percentile(sorted, 95)
		}
		stats.Modes[mode] = ms
	}
	stats.TopQueries = topN(a.queryCounts, 10)
	stats.ZeroResultQueries = topN(a.zeroResultQueries, 10)
	elapsed := time.Since(a.startTime).Minutes()
	if elapsed > 0 {
		stats.QueriesPerMinute = float64(stats.TotalSearches) / elapsed
	}

	return stats
}

// latencyWindow keeps the most recent samples in a ring.
type latencyWindow struct {
	samples []float64
	next    int
	full    bool
}

func newLatencyWindow(size int) *latencyWindow {
	return &latencyWindow{samples: make([]float64, size)}
}

func (w *latencyWindow) add(v float64) {
	w.samples[w.next] = v
	w.next++
	if w.next == len(w.samples) {
		w.next = 0
		w.full = true
	}
}

func (w *latencyWindow) sorted() []float64 {
	n := w.next
	if w.full {
		n = len(w.samples)
	}
	out := make([]float64, n)
	copy(out, w.samples[:n])
	sort.Float64s(out)
	return out
}

func mean(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func percentile(sorted []float64, pct int) float64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := (pct * len(sorted)) / 100
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

func topN(counts map[string]int64, n int) []QueryCount {
	result := make([]QueryCount, 0, len(counts))
	for query, count := range counts {
		result = append(result, QueryCount{Query: query, Count: count})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].Query < result[j].Query
	})
	if len(result) > n {
		result = result[:n]
	}
	return result
}
