// Package outbox publishes task events that were committed alongside their
// task changes to Kafka, then marks them published.
package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"fiscaltask/internal/models"
	"fiscaltask/internal/platform/metrics"
	id "fiscaltask/pkg/domain"
)

var tracer = otel.Tracer("fiscaltask/internal/outbox")

const (
	DefaultBatchSize    = 100
	DefaultPollInterval = time.Second
)

type Store interface {
	ListUnpublishedEvents(ctx context.Context, limit int) ([]models.TaskEvent, error)
	MarkEventsPublished(ctx context.Context, eventIDs []id.EventID, at time.Time) error
}

// Producer is the part of *kgo.Client the relay uses.
type Producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
}

// eventPayload is the JSON record value published for each task event.
type eventPayload struct {
	ID         string         `json:"id"`
	TaskID     string         `json:"task_id"`
	Type       string         `json:"type"`
	ActorID    string         `json:"actor_id,omitempty"`
	Before     map[string]any `json:"before,omitempty"`
	After      map[string]any `json:"after,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	OccurredAt string         `json:"occurred_at"`
}

type Relay struct {
	store     Store
	producer  Producer
	topic     string
	batchSize int
	interval  time.Duration
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

type Option func(*Relay)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Relay) {
		r.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Relay) {
		r.metrics = m
	}
}

func WithBatchSize(n int) Option {
	return func(r *Relay) {
		if n > 0 {
			r.batchSize = n
		}
	}
}

func WithPollInterval(d time.Duration) Option {
	return func(r *Relay) {
		if d > 0 {
			r.interval = d
		}
	}
}

func NewRelay(store Store, producer Producer, topic string, opts ...Option) *Relay {
	r := &Relay{
		store:     store,
		producer:  producer,
		topic:     topic,
		batchSize: DefaultBatchSize,
		interval:  DefaultPollInterval,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run polls for unpublished events until ctx is done. Failed batches are
// retried on the next poll.
func (r *Relay) Run(ctx context.Context) error {
	r.logger.InfoContext(ctx, "outbox relay started", "topic", r.topic, "batch_size", r.batchSize)
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			r.logger.InfoContext(ctx, "outbox relay stopped")
			return nil
		case <-ticker.C:
			for {
				n, err := r.RelayOnce(ctx)
				if err != nil {
					if ctx.Err() == nil {
						r.logger.ErrorContext(ctx, "outbox relay batch failed", "error", err)
					}
					break
				}
				if n < r.batchSize {
					break
				}
			}
		}
	}
}

// RelayOnce publishes one batch and returns how many events were marked
// published. Events whose record failed stay pending.
func (r *Relay) RelayOnce(ctx context.Context) (int, error) {
	ctx, span := tracer.Start(ctx, "outbox.RelayOnce",
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(attribute.String("messaging.destination.name", r.topic)),
	)
	defer span.End()

	n, err := r.relayBatch(ctx)
	span.SetAttributes(attribute.Int("events", n))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "relay failed")
	}
	return n, err
}

func (r *Relay) relayBatch(ctx context.Context) (int, error) {
	events, err := r.store.ListUnpublishedEvents(ctx, r.batchSize)
	if err != nil {
		return 0, fmt.Errorf("list unpublished events: %w", err)
	}
	if len(events) == 0 {
		return 0, nil
	}

	records := make([]*kgo.Record, 0, len(events))
	byRecord := make(map[*kgo.Record]id.EventID, len(events))
	var encodeErrs []error
	for _, e := range events {
		rec, err := r.record(e)
		if err != nil {
			encodeErrs = append(encodeErrs, fmt.Errorf("encode event %s: %w", e.ID, err))
			continue
		}
		records = append(records, rec)
		byRecord[rec] = e.ID
	}

	var published []id.EventID
	var produceErr error
	if len(records) > 0 {
		for _, res := range r.producer.ProduceSync(ctx, records...) {
			if res.Err != nil {
				if produceErr == nil {
					produceErr = res.Err
				}
				continue
			}
			published = append(published, byRecord[res.Record])
		}
	}

	if len(published) > 0 {
		if err := r.store.MarkEventsPublished(ctx, published, time.Now().UTC()); err != nil {
			r.fail()
			return 0, fmt.Errorf("mark events published: %w", err)
		}
		if r.metrics != nil {
			r.metrics.AddEventsRelayed(len(published))
		}
	}

	if produceErr != nil {
		encodeErrs = append(encodeErrs, fmt.Errorf("produce %d of %d records: %w", len(records)-len(published), len(records), produceErr))
	}
	if err := errors.Join(encodeErrs...); err != nil {
		r.fail()
		return len(published), err
	}
	r.logger.DebugContext(ctx, "outbox batch relayed", "events", len(published))
	return len(published), nil
}

func (r *Relay) record(e models.TaskEvent) (*kgo.Record, error) {
	payload := eventPayload{
		ID:         e.ID.String(),
		TaskID:     e.TaskID.String(),
		Type:       string(e.Type),
		Before:     e.Before,
		After:      e.After,
		Metadata:   e.Metadata,
		OccurredAt: e.OccurredAt.UTC().Format(time.RFC3339Nano),
	}
	if e.ActorID != nil {
		payload.ActorID = e.ActorID.String()
	}
	value, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &kgo.Record{
		Topic: r.topic,
		Key:   []byte(e.TaskID.String()),
		Value: value,
		Headers: []kgo.RecordHeader{
			{Key: "event_type", Value: []byte(e.Type)},
			{Key: "event_id", Value: []byte(e.ID.String())},
		},
		Timestamp: e.OccurredAt,
	}, nil
}

func (r *Relay) fail() {
	if r.metrics != nil {
		r.metrics.IncrementRelayFailures()
	}
}
