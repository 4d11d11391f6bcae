// Package kafka publishes audit events to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	audit "paralelogram/pkg/platform/audit"
)

const defaultDeliveryTimeout = 10 * time.Second

// Publisher hands each audit event to the client buffer and returns. Delivery
// failures are logged from the produce callback, so a slow or absent broker
// never holds up the request that emitted the event.
type Publisher struct {
	client          *kgo.Client
	topic           string
	logger          *slog.Logger
	deliveryTimeout time.Duration
}

type Option func(*Publisher)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithDeliveryTimeout caps how long a record may wait for the broker. Close
// flushes for at most this long.
func WithDeliveryTimeout(d time.Duration) Option {
	return func(p *Publisher) {
		if d > 0 {
			p.deliveryTimeout = d
		}
	}
}

// New connects a producer to the given brokers.
func New(brokers []string, topic string, opts ...Option) (*Publisher, error) {
	p := &Publisher{
		topic:           topic,
		logger:          slog.Default(),
		deliveryTimeout: defaultDeliveryTimeout,
	}
	for _, opt := range opts {
		opt(p)
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
		kgo.RecordRetries(3),
		kgo.RecordDeliveryTimeout(p.deliveryTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	p.client = client
	return p, nil
}

// Emit serializes the event as JSON keyed by its subject so events about one
// user stay ordered within a partition. It only fails when the event cannot be
// encoded; a full producer buffer drops the event with an error log.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}
	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(event.Subject),
		Value: value,
		Headers: []kgo.RecordHeader{
			{Key: "category", Value: []byte(event.Category)},
		},
	}

	// The record outlives the request, so it must not inherit its cancellation.
	produceCtx := context.WithoutCancel(ctx)
	p.client.TryProduce(produceCtx, record, func(r *kgo.Record, err error) {
		if err == nil {
			return
		}
		p.logger.ErrorContext(produceCtx, "failed to deliver audit event",
			"action", event.Action,
			"subject", event.Subject,
			"topic", r.Topic,
			"error", err,
		)
	})
	return nil
}

// EnsureTopic creates the audit topic if the cluster does not have it yet.
func (p *Publisher) EnsureTopic(ctx context.Context, partitions int32, replicationFactor int16) error {
	adm := kadm.NewClient(p.client)
	resps, err := adm.CreateTopics(ctx, partitions, replicationFactor, nil, p.topic)
	if err != nil {
		return fmt.Errorf("create audit topic: %w", err)
	}
	for _, r := range resps {
		if r.Err != nil && !errors.Is(r.Err, kerr.TopicAlreadyExists) {
			return fmt.Errorf("create audit topic %s: %w", r.Topic, r.Err)
		}
	}
	return nil
}

// Ping checks broker reachability.
func (p *Publisher) Ping(ctx context.Context) error {
	return p.client.Ping(ctx)
}

// Flush waits until every buffered event has been delivered or failed.
func (p *Publisher) Flush(ctx context.Context) error {
	return p.client.Flush(ctx)
}

// Close flushes pending records for at most the delivery timeout and closes
// the client.
func (p *Publisher) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), p.deliveryTimeout)
	defer cancel()
	if err := p.client.Flush(ctx); err != nil {
		p.logger.Warn("audit events left unflushed at shutdown", "error", err)
	}
	p.client.Close()
}
