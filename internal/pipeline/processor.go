package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/annotext/annotation-platform/internal/dictionary"
	"github.com/annotext/annotation-platform/pkg/kafka"
	"github.com/annotext/annotation-platform/pkg/metrics"
	"github.com/annotext/annotation-platform/pkg/resilience"
	"github.com/annotext/annotation-platform/pkg/tracing"
	"golang.org/x/sync/errgroup"
)

// annotateTimeout bounds per-document work so one huge document cannot
// stall the consumer group.
const annotateTimeout = 30 * time.Second

// EventPublisher publishes annotation events; satisfied by kafka.Producer.
type EventPublisher interface {
	PublishBatch(ctx context.Context, events []kafka.Event) error
}

// Processor annotates one document per Kafka message against every loaded
// dictionary in parallel.
type Processor struct {
	registry *dictionary.Registry
	producer EventPublisher
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

func NewProcessor(reg *dictionary.Registry, producer EventPublisher, m *metrics.Metrics) *Processor {
	return &Processor{
		registry: reg,
		producer: producer,
		metrics:  m,
		logger:   slog.Default().With("component", "pipeline-processor"),
	}
}

// Handle is the kafka.MessageHandler for the document-annotate topic.
func (p *Processor) Handle(ctx context.Context, key []byte, value []byte) error {
	doc, err := kafka.DecodeJSON[DocumentEvent](value)
	if err != nil {
		p.count("decode_error")
		return err
	}
	if doc.DocumentID == "" {
		p.count("invalid")
		return fmt.Errorf("document event missing document_id")
	}

	ctx, span := tracing.StartSpan(ctx, "annotate-document", doc.DocumentID)
	var events []kafka.Event
	err = resilience.WithTimeout(ctx, annotateTimeout, "annotate-document", func(ctx context.Context) error {
		annotated, annErr := p.annotate(ctx, doc)
		if annErr != nil {
			return annErr
		}
		events = annotated
		return nil
	})
	if err != nil {
		span.End()
		span.Log()
		p.count("error")
		return err
	}
	span.SetAttr("dictionaries_matched", len(events))
	span.End()
	span.Log()

	if len(events) > 0 {
		if err := p.producer.PublishBatch(ctx, events); err != nil {
			p.count("publish_error")
			return fmt.Errorf("publishing annotations for %s: %w", doc.DocumentID, err)
		}
	}
	p.count("ok")
	p.logger.Info("document annotated",
		"document_id", doc.DocumentID,
		"text_bytes", len(doc.Text),
		"dictionaries_matched", len(events),
	)
	return nil
}

// annotate runs every dictionary over the document concurrently and returns
// one event per dictionary that produced matches.
func (p *Processor) annotate(ctx context.Context, doc DocumentEvent) ([]kafka.Event, error) {
	var (
		mu     sync.Mutex
		events []kafka.Event
	)
	g, ctx := errgroup.WithContext(ctx)
	for _, name := range p.registry.Names() {
		name := name
		g.Go(func() error {
			m, err := p.registry.Matcher(name)
			if err != nil {
				return err
			}
			_, span := tracing.StartChildSpan(ctx, "dictionary:"+name)
			start := time.Now()
			matches := m.Match(doc.Text)
			span.SetAttr("matches", len(matches))
			span.End()
			if len(matches) == 0 {
				return nil
			}
			event := kafka.Event{
				Key: doc.DocumentID,
				Value: AnnotationEvent{
					DocumentID: doc.DocumentID,
					Dictionary: name,
					Matches:    matches,
					LatencyMs:  time.Since(start).Milliseconds(),
					Timestamp:  time.Now().UTC(),
				},
			}
			mu.Lock()
			events = append(events, event)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return events, nil
}

func (p *Processor) count(status string) {
	if p.metrics != nil {
		p.metrics.DocumentsAnnotatedTotal.WithLabelValues(status).Inc()
	}
}
