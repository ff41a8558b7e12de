// Package consumer ingests case-change events from the partitioned
// broker into the submission store. One worker per partition, events
// applied in arrival order, each inside a single unit of work with the
// partition's committed read position.
package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/tidwall/gjson"

	"github.com/famcase/caseview/common/broker"
	"github.com/famcase/caseview/common/logger"
	"github.com/famcase/caseview/common/models"
)

// OffsetStore exposes the committed read position per partition
type OffsetStore interface {
	Get(ctx context.Context, partition int) (string, error)
}

// PartitionConsumer processes one broker partition strictly in order
type PartitionConsumer struct {
	broker       broker.Broker
	applier      Applier
	offsets      OffsetStore
	validator    *PayloadValidator
	backoff      Backoff
	pollInterval time.Duration
	log          *logger.Logger
	partition    int

	committed       string
	committedLoaded bool
}

// NewPartitionConsumer creates a consumer for one partition
func NewPartitionConsumer(b broker.Broker, applier Applier, offsets OffsetStore, validator *PayloadValidator, backoff Backoff, pollInterval time.Duration, log *logger.Logger, partition int) *PartitionConsumer {
	return &PartitionConsumer{
		broker:       b,
		applier:      applier,
		offsets:      offsets,
		validator:    validator,
		backoff:      backoff,
		pollInterval: pollInterval,
		log:          log.WithPartition(partition),
		partition:    partition,
	}
}

// Start processes the partition until the context is cancelled
func (c *PartitionConsumer) Start(ctx context.Context) error {
	c.log.Info("partition consumer starting")

	for {
		processed, err := c.RunOnce(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.log.Info("partition consumer stopping")
				return nil
			}
			c.log.Error("partition read failed", "error", err)
		}

		if processed == 0 {
			select {
			case <-ctx.Done():
				c.log.Info("partition consumer stopping")
				return nil
			case <-time.After(c.pollInterval):
			}
		}
	}
}

// RunOnce reads one batch from the partition and applies every entry.
// Returns how many entries were handled (applied or skipped).
func (c *PartitionConsumer) RunOnce(ctx context.Context) (int, error) {
	if !c.committedLoaded {
		committed, err := c.offsets.Get(ctx, c.partition)
		if err != nil {
			return 0, fmt.Errorf("load committed offset: %w", err)
		}
		c.committed = committed
		c.committedLoaded = true
		if committed != "" {
			c.log.Info("resuming partition", "committed", committed)
		}
	}

	msgs, err := c.broker.Read(ctx, c.partition)
	if err != nil {
		return 0, err
	}

	for _, msg := range msgs {
		if c.committed != "" && broker.CompareIDs(msg.ID, c.committed) <= 0 {
			// Already committed in a previous life; the crash happened
			// between commit and ack.
			c.log.Warn("skipping already-committed event", "message_id", msg.ID, "committed", c.committed)
			if err := c.broker.Ack(ctx, c.partition, msg.ID); err != nil {
				return 0, err
			}
			continue
		}

		if err := c.applyWithRetry(ctx, msg); err != nil {
			return 0, err
		}

		if err := c.broker.Ack(ctx, c.partition, msg.ID); err != nil {
			// The mutation is committed; a lost ack only means one
			// redundant redelivery, which the offset check absorbs.
			c.log.Warn("ack failed after commit", "message_id", msg.ID, "error", err)
		}
		c.committed = msg.ID
	}

	return len(msgs), nil
}

// applyWithRetry applies one event, retrying with fixed backoff until it
// lands or the context is cancelled. There is no dead-letter path: a
// poison event blocks the partition.
func (c *PartitionConsumer) applyWithRetry(ctx context.Context, msg broker.Message) error {
	var attempt Attempt

	for {
		err := c.apply(ctx, msg)
		if err == nil {
			return nil
		}

		attempt = c.backoff.Next(attempt)
		c.log.Error("event mutation failed, will retry",
			"message_id", msg.ID,
			"kind", Classify(err),
			"attempt", attempt.Number,
			"retry_in", attempt.Delay,
			"error", err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(attempt.Delay):
		}
	}
}

func (c *PartitionConsumer) apply(ctx context.Context, msg broker.Message) error {
	env, err := c.decode(msg.Value)
	if err != nil {
		return err
	}

	result, err := c.applier.Apply(ctx, c.partition, msg.ID, env)
	if err != nil {
		return err
	}

	if result.DeliveryAttempts > 1 {
		c.log.Warn("event reprocessed for existing submission",
			"message_id", msg.ID,
			"submission_id", env.SubmissionID,
			"delivery_attempts", result.DeliveryAttempts)
	}
	if !result.Applied {
		c.log.Info("event was a no-op", "message_id", msg.ID, "event_kind", env.Kind)
	}

	return nil
}

// decode parses and validates the event envelope. The kind is sniffed
// first so dispatch never depends on decoding fields the kind does not
// carry.
func (c *PartitionConsumer) decode(value []byte) (*models.Envelope, error) {
	kind := gjson.GetBytes(value, "kind")
	if !kind.Exists() || kind.String() == "" {
		return nil, Malformedf("event missing kind field")
	}

	var env models.Envelope
	if err := json.Unmarshal(value, &env); err != nil {
		return nil, Malformedf("event does not decode: %v", err)
	}

	if err := env.Validate(); err != nil {
		return nil, Malformed(err)
	}

	if env.Kind == models.EventSubmissionUpserted {
		if err := c.validator.Validate(env.Payload); err != nil {
			return nil, err
		}
	}

	return &env, nil
}

// Consumer runs one PartitionConsumer per broker partition
type Consumer struct {
	partitions []*PartitionConsumer
	log        *logger.Logger
}

// New creates a consumer covering every partition of the broker
func New(b broker.Broker, applier Applier, offsets OffsetStore, validator *PayloadValidator, backoff Backoff, pollInterval time.Duration, log *logger.Logger) *Consumer {
	partitions := make([]*PartitionConsumer, b.Partitions())
	for p := range partitions {
		partitions[p] = NewPartitionConsumer(b, applier, offsets, validator, backoff, pollInterval, log, p)
	}
	return &Consumer{partitions: partitions, log: log}
}

// Start runs all partition workers until the context is cancelled.
// Workers are independent: a blocked partition never stalls the others.
func (c *Consumer) Start(ctx context.Context) {
	var wg sync.WaitGroup
	for _, pc := range c.partitions {
		wg.Add(1)
		go func(pc *PartitionConsumer) {
			defer wg.Done()
			if err := pc.Start(ctx); err != nil {
				c.log.Error("partition consumer exited", "error", err)
			}
		}(pc)
	}
	wg.Wait()
}
