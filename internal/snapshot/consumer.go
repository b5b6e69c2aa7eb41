package snapshot

import (
	"context"
	"log/slog"
	"time"

	"github.com/krishnasharma4415/Mini-Search-Engine/pkg/kafka"
)

// UpdatedEvent announces that the indexer has written a new set of
// artifacts.
type UpdatedEvent struct {
	Reason    string    `json:"reason,omitempty"`
	Documents int       `json:"documents"`
	Timestamp time.Time `json:"timestamp"`
}

// HandleUpdateEvent returns a Kafka MessageHandler that reloads store for
// every snapshot-updated event. Undecodable events are logged and skipped;
// a failed reload is returned so the message is not committed.
func HandleUpdateEvent(store *Store) kafka.MessageHandler {
	logger := slog.Default().With("component", "snapshot-consumer")
	return func(ctx context.Context, key []byte, value []byte) error {
		event, err := kafka.DecodeJSON[UpdatedEvent](value)
		if err != nil {
			logger.Error("failed to decode snapshot event",
				"error", err,
				"key", string(key),
			)
			return nil
		}
		logger.Info("snapshot update announced",
			"reason", event.Reason,
			"documents", event.Documents,
		)
		if _, err := store.Reload(ctx); err != nil {
			return err
		}
		return nil
	}
}
