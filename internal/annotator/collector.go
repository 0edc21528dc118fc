package annotator

import (
	"context"
	"log/slog"
	"time"

	"github.com/annotext/annotation-platform/pkg/kafka"
)

const publishDrainTimeout = 2 * time.Second

// Collector buffers annotation events and publishes them to Kafka off the
// request path. Events are dropped, not blocked on, when the buffer fills.
type Collector struct {
	producer *kafka.Producer
	eventCh  chan AnnotateEvent
	logger   *slog.Logger
	done     chan struct{}
}

func NewCollector(producer *kafka.Producer, bufferSize int) *Collector {
	if bufferSize <= 0 {
		bufferSize = 10000
	}
	return &Collector{
		producer: producer,
		eventCh:  make(chan AnnotateEvent, bufferSize),
		logger:   slog.Default().With("component", "annotate-collector"),
		done:     make(chan struct{}),
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
				if err := c.producer.Publish(ctx, kafka.Event{
					Key:   event.Dictionary,
					Value: event,
				}); err != nil {
					c.logger.Error("failed to publish annotate event", "error", err)
				}
			case <-ctx.Done():
				c.drainRemaining()
				return
			}
		}
	}()
	c.logger.Info("annotate collector started", "buffer_size", cap(c.eventCh))
}

func (c *Collector) Track(event AnnotateEvent) {
	select {
	case c.eventCh <- event:
	default:
		c.logger.Warn("annotate event dropped (buffer full)")
	}
}

func (c *Collector) drainRemaining() {
	for {
		select {
		case event, ok := <-c.eventCh:
			if !ok {
				return
			}
			ctx, cancel := context.WithTimeout(context.Background(), publishDrainTimeout)
			if err := c.producer.Publish(ctx, kafka.Event{Key: event.Dictionary, Value: event}); err != nil {
				c.logger.Error("failed to drain annotate event", "error", err)
			}
			cancel()
		default:
			return
		}
	}
}

func (c *Collector) Close() {
	close(c.eventCh)
	<-c.done
}
