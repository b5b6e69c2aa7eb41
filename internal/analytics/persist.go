package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"
)

// SnapshotStore persists JSON-encoded AggregatedStats.
type SnapshotStore interface {
	SaveAnalyticsSnapshot(ctx context.Context, data []byte) error
	LatestAnalyticsSnapshot(ctx context.Context) ([]byte, error)
}

// SaveSnapshot writes the aggregator's current stats to store.
func SaveSnapshot(ctx context.Context, store SnapshotStore, agg *Aggregator) error {
	data, err := json.Marshal(agg.Stats())
	if err != nil {
		return fmt.Errorf("marshaling stats: %w", err)
	}
	return store.SaveAnalyticsSnapshot(ctx, data)
}

// LatestSnapshot returns the most recently saved stats, or nil if none.
func LatestSnapshot(ctx context.Context, store SnapshotStore) (*AggregatedStats, error) {
	data, err := store.LatestAnalyticsSnapshot(ctx)
	if err != nil || data == nil {
		return nil, err
	}
	var stats AggregatedStats
	if err := json.Unmarshal(data, &stats); err != nil {
		return nil, fmt.Errorf("unmarshaling snapshot: %w", err)
	}
	return &stats, nil
}

// StartPeriodicSave snapshots agg every interval until ctx is done, then
// writes one final snapshot. The returned channel closes after that write.
func StartPeriodicSave(ctx context.Context, store SnapshotStore, agg *Aggregator, interval time.Duration) <-chan struct{} {
	logger := slog.Default().With("component", "analytics-store")
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := SaveSnapshot(ctx, store, agg); err != nil {
					logger.Error("periodic snapshot failed", "error", err)
				}
			case <-ctx.Done():
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := SaveSnapshot(shutdownCtx, store, agg); err != nil {
					logger.Error("final snapshot failed", "error", err)
				}
				return
			}
		}
	}()
	logger.Info("periodic snapshot started", "interval", interval)
	return done
}
