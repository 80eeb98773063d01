// Package redpanda provides the Redpanda/Kafka transport for lifecycle events
// and sourcing scan tasks. The producer is transactional so a status change is
// either fully published or not at all; the consumer runs scan tasks with
// at-least-once delivery, which is safe because scans are idempotent.
package redpanda

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/clearpathhq/clearpath/internal/domain"
)

const (
	// TopicStatusChanges carries application lifecycle transition events.
	TopicStatusChanges = "application-events"
	// TopicScans carries sourcing scan tasks for the worker.
	TopicScans = "sourcing-scans"
)

// Producer implements domain.EventPublisher over a transactional Kafka client.
type Producer struct {
	client *kgo.Client
	// Transactions on one client must not interleave; this buffered channel
	// serializes them.
	txn chan struct{}
}

// NewProducer constructs a Producer and ensures both topics exist.
func NewProducer(brokers []string) (*Producer, error) {
	return NewProducerWithTransactionalID(brokers, "clearpath-producer")
}

// NewProducerWithTransactionalID constructs a Producer with a custom
// transactional ID, so tests can run multiple producers side by side.
func NewProducerWithTransactionalID(brokers []string, transactionalID string) (*Producer, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("no seed brokers provided")
	}
	slog.Info("creating redpanda producer",
		slog.Any("brokers", brokers),
		slog.String("transactional_id", transactionalID))

	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.TransactionalID(transactionalID),
		kgo.RequestRetries(10),
		kgo.ProducerBatchMaxBytes(1000000),
	)
	if err != nil {
		return nil, fmt.Errorf("redpanda client: %w", err)
	}

	ctx := context.Background()
	for _, topic := range []string{TopicStatusChanges, TopicScans} {
		if err := createTopicIfNotExists(ctx, client, topic, 1, 1); err != nil {
			slog.Warn("failed to create topic, it may already exist",
				slog.String("topic", topic), slog.Any("error", err))
		}
	}

	return &Producer{client: client, txn: make(chan struct{}, 1)}, nil
}

// PublishStatusChange publishes a lifecycle transition event keyed by
// application ID, so per-application ordering is preserved.
func (p *Producer) PublishStatusChange(ctx domain.Context, ev domain.StatusChangeEvent) error {
	record := &kgo.Record{
		Topic: TopicStatusChanges,
		Key:   []byte(ev.ApplicationID),
		Headers: []kgo.RecordHeader{
			{Key: "from", Value: []byte(ev.From)},
			{Key: "to", Value: []byte(ev.To)},
		},
	}
	return p.produce(ctx, record, ev)
}

// EnqueueScan enqueues a sourcing scan task keyed by agent ID and returns a
// fresh task ID.
func (p *Producer) EnqueueScan(ctx domain.Context, task domain.ScanTaskPayload) (string, error) {
	record := &kgo.Record{
		Topic: TopicScans,
		Key:   []byte(task.AgentID),
		Headers: []kgo.RecordHeader{
			{Key: "agent_id", Value: []byte(task.AgentID)},
			{Key: "job_id", Value: []byte(task.JobID)},
		},
	}
	if err := p.produce(ctx, record, task); err != nil {
		return "", err
	}
	return uuid.New().String(), nil
}

func (p *Producer) produce(ctx domain.Context, record *kgo.Record, payload any) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	record.Value = b

	select {
	case p.txn <- struct{}{}:
		defer func() { <-p.txn }()
	case <-ctx.Done():
		return ctx.Err()
	}

	if err := p.client.BeginTransaction(); err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	e := kgo.AbortingFirstErrPromise(p.client)
	p.client.Produce(ctx, record, e.Promise())
	if err := e.Err(); err != nil {
		if abortErr := p.client.EndTransaction(ctx, kgo.TryAbort); abortErr != nil {
			slog.Error("failed to abort transaction", slog.Any("error", abortErr))
		}
		return fmt.Errorf("produce: %w", err)
	}

	if err := p.client.EndTransaction(ctx, kgo.TryCommit); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	slog.Debug("message published",
		slog.String("topic", record.Topic),
		slog.String("key", string(record.Key)))
	return nil
}

// Ping reports broker reachability for readiness probes.
func (p *Producer) Ping(ctx context.Context) error {
	return p.client.Ping(ctx)
}

// Close closes the underlying client.
func (p *Producer) Close() error {
	if p.client != nil {
		p.client.Close()
	}
	return nil
}
