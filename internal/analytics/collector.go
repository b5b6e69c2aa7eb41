package analytics

import (
	"context"
	"log/slog"

	"github.com/krishnasharma4415/Mini-Search-Engine/pkg/kafka"
)

// Publisher receives analytics events. *kafka.Producer publishes them to the
// search-events topic; *Aggregator records them in process.
type Publisher interface {
	Publish(ctx context.Context, event kafka.Event) error
}

// Collector decouples request handling from event delivery: Track never
// blocks, and a background goroutine hands events to the publisher.
type Collector struct {
	publisher Publisher
	eventCh   chan SearchEvent
	logger    *slog.Logger
	done      chan struct{}
}

func NewCollector(publisher Publisher, bufferSize int) *Collector {
	if bufferSize <= 0 {
		bufferSize = 10000
	}
	return &Collector{
		publisher: publisher,
		eventCh:   make(chan SearchEvent, bufferSize),
		logger:    slog.Default().With("component", "analytics-collector"),
		done:      make(chan struct{}),
	}
}

func (c *Collector) Start(ctx context.Context) {
	go func() {
		defer close(c.done)
		for {
			select {
			case event, ok := <-c.eventCh:
				if !ok {
					return
				}
				c.publish(ctx, event)
			case <-ctx.Done():
				c.drainRemaining()
				return
			}
		}
	}()
	c.logger.Info("analytics collector started", "buffer_size", cap(c.eventCh))
}

// Track queues event, dropping it when the buffer is full.
func (c *Collector) Track(event SearchEvent) {
	select {
	case c.eventCh <- event:
	default:
		c.logger.Warn("analytics event dropped (buffer full)", "mode", event.Mode)
	}
}

// Close stops accepting events and waits for queued ones to be delivered.
// Track must not be called after Close.
func (c *Collector) Close() {
	close(c.eventCh)
	<-c.done
}

func (c *Collector) publish(ctx context.Context, event SearchEvent) {
	if err := c.publisher.Publish(ctx, kafka.Event{
		Key:   event.Mode,
		Value: event,
	}); err != nil {
		c.logger.Error("failed to publish analytics event", "error", err)
	}
}

func (c *Collector) drainRemaining() {
	ctx := context.Background()
	for {
		select {
		case event, ok := <-c.eventCh:
			if !ok {
				return
			}
			c.publish(ctx, event)
		default:
			return
		}
	}
}
