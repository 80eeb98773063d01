package redpanda

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/plugin/kotel"
	"go.opentelemetry.io/otel"

	"github.com/clearpathhq/clearpath/internal/adapter/observability"
	"github.com/clearpathhq/clearpath/internal/domain"
	"github.com/clearpathhq/clearpath/internal/usecase"
)

// Consumer runs the worker side of the queue: it executes sourcing scans and
// fans out lifecycle events.
type Consumer struct {
	client   *kgo.Client
	sourcing usecase.SourcingService
	groupID  string
	// sem bounds concurrent record processing.
	sem chan struct{}
}

// NewConsumer constructs a group consumer over both topics. maxConcurrency
// bounds how many records are processed at once; values below 1 become 1.
func NewConsumer(brokers []string, groupID string, sourcing usecase.SourcingService, maxConcurrency int) (*Consumer, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("no seed brokers provided")
	}
	if groupID == "" {
		return nil, fmt.Errorf("missing required group ID")
	}
	if maxConcurrency < 1 {
		maxConcurrency = 1
	}

	kotelService := kotel.NewKotel(
		kotel.WithTracer(kotel.NewTracer(
			kotel.TracerProvider(otel.GetTracerProvider()),
		)),
	)

	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ConsumerGroup(groupID),
		kgo.ConsumeTopics(TopicStatusChanges, TopicScans),
		kgo.WithHooks(kotelService.Hooks()...),
		kgo.DialTimeout(10*time.Second),
		kgo.SessionTimeout(30*time.Second),
		kgo.HeartbeatInterval(3*time.Second),
		kgo.FetchMaxWait(5*time.Second),
		kgo.AutoCommitMarks(),
		kgo.AutoCommitInterval(time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("redpanda consumer client: %w", err)
	}

	slog.Info("redpanda consumer created",
		slog.String("group_id", groupID),
		slog.Int("max_concurrency", maxConcurrency))
	return &Consumer{
		client:   client,
		sourcing: sourcing,
		groupID:  groupID,
		sem:      make(chan struct{}, maxConcurrency),
	}, nil
}

// Run polls and processes records until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context) error {
	slog.Info("redpanda consumer starting", slog.String("group_id", c.groupID))
	for {
		fetches := c.client.PollFetches(ctx)
		if fetches.IsClientClosed() {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		for _, fetchErr := range fetches.Errors() {
			slog.Error("fetch error",
				slog.String("topic", fetchErr.Topic),
				slog.Int("partition", int(fetchErr.Partition)),
				slog.Any("error", fetchErr.Err))
		}

		fetches.EachRecord(func(record *kgo.Record) {
			select {
			case c.sem <- struct{}{}:
			case <-ctx.Done():
				return
			}
			go func(rec *kgo.Record) {
				defer func() { <-c.sem }()
				if err := c.processRecord(ctx, rec); err != nil {
					slog.Error("failed to process record",
						slog.String("topic", rec.Topic),
						slog.Int64("offset", rec.Offset),
						slog.Any("error", err))
					return
				}
				c.client.MarkCommitRecords(rec)
			}(record)
		})
	}
}

func (c *Consumer) processRecord(ctx context.Context, record *kgo.Record) error {
	tracer := otel.Tracer("queue.consumer")
	switch record.Topic {
	case TopicScans:
		ctx, span := tracer.Start(ctx, "ProcessScanTask")
		defer span.End()
		return c.processScan(ctx, record)
	case TopicStatusChanges:
		ctx, span := tracer.Start(ctx, "ProcessStatusChange")
		defer span.End()
		return c.processStatusChange(ctx, record)
	default:
		slog.Warn("record on unexpected topic", slog.String("topic", record.Topic))
		return nil
	}
}

func (c *Consumer) processScan(ctx context.Context, record *kgo.Record) error {
	var task domain.ScanTaskPayload
	if err := json.Unmarshal(record.Value, &task); err != nil {
		observability.ObserveScanProcessed("malformed", 0)
		return fmt.Errorf("unmarshal scan task: %w", err)
	}

	out, err := c.sourcing.ProcessScan(ctx, task)
	if err != nil {
		observability.ObserveScanProcessed("error", out.Matched)
		return fmt.Errorf("process scan: %w", err)
	}
	for _, score := range out.Scores {
		observability.ObserveMatchScore(score)
	}
	for i := 0; i < out.Matched; i++ {
		observability.ObserveSubmission("sourced")
	}
	observability.ObserveScanProcessed("ok", out.Matched)

	slog.Info("scan task completed",
		slog.String("agent_id", task.AgentID),
		slog.String("job_id", task.JobID),
		slog.Int("scanned", out.Scanned),
		slog.Int("matched", out.Matched),
		slog.Int("skipped", out.Skipped))
	return nil
}

// processStatusChange is the fanout point for downstream notification
// channels. Today it records the event in the worker log only.
func (c *Consumer) processStatusChange(_ context.Context, record *kgo.Record) error {
	var ev domain.StatusChangeEvent
	if err := json.Unmarshal(record.Value, &ev); err != nil {
		return fmt.Errorf("unmarshal status change: %w", err)
	}
	slog.Info("application status changed",
		slog.String("application_id", ev.ApplicationID),
		slog.String("job_id", ev.JobID),
		slog.String("candidate_id", ev.CandidateID),
		slog.String("from", string(ev.From)),
		slog.String("to", string(ev.To)),
		slog.Time("occurred_at", ev.OccurredAt))
	return nil
}

// Close closes the underlying client.
func (c *Consumer) Close() error {
	if c.client != nil {
		c.client.Close()
	}
	return nil
}
