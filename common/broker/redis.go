package broker

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	rediscommon "github.com/famcase/caseview/common/redis"
)

const eventField = "event"

// RedisBroker implements Broker on Redis streams. Partition p is the
// stream "<prefix>.<p>"; reads go through a consumer group so pending
// entries survive a crash between commit and ack.
type RedisBroker struct {
	client       *rediscommon.Client
	streamPrefix string
	partitions   int
	group        string
	blockTimeout time.Duration

	// drainedPending marks partitions whose pre-crash pending entries
	// have been re-read once at startup.
	drainedPending []bool
}

// NewRedisBroker creates a Redis streams broker
func NewRedisBroker(client *rediscommon.Client, streamPrefix string, partitions int, group string, blockTimeout time.Duration) *RedisBroker {
	return &RedisBroker{
		client:         client,
		streamPrefix:   streamPrefix,
		partitions:     partitions,
		group:          group,
		blockTimeout:   blockTimeout,
		drainedPending: make([]bool, partitions),
	}
}

// EnsureGroups creates the consumer group on every partition stream
func (b *RedisBroker) EnsureGroups(ctx context.Context) error {
	for p := 0; p < b.partitions; p++ {
		if err := b.client.CreateStreamGroup(ctx, b.stream(p), b.group); err != nil {
			return err
		}
	}
	return nil
}

// Publish appends the value to the stream for the key's partition
func (b *RedisBroker) Publish(ctx context.Context, partitionKey string, value []byte) (string, error) {
	partition := PartitionFor(partitionKey, b.partitions)
	id, err := b.client.AddToStream(ctx, b.stream(partition), map[string]interface{}{
		eventField: string(value),
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// Read returns the next entries for the partition. The first read after
// startup drains this consumer's pending entries so nothing is lost
// between a committed transaction and the ack that never happened. The
// drain depends on the consumer name being stable across restarts; a
// per-process name would silently orphan the dead process's pending
// entries.
func (b *RedisBroker) Read(ctx context.Context, partition int) ([]Message, error) {
	stream := b.stream(partition)
	consumer := b.consumerFor(partition)

	if !b.drainedPending[partition] {
		b.drainedPending[partition] = true
		streams, err := b.client.ReadPendingFromStreamGroup(ctx, b.group, consumer, stream, 10)
		if err != nil {
			return nil, err
		}
		if msgs := collect(streams); len(msgs) > 0 {
			return msgs, nil
		}
	}

	streams, err := b.client.ReadFromStreamGroup(ctx, b.group, consumer, stream, 10, b.blockTimeout)
	if err != nil {
		return nil, err
	}
	return collect(streams), nil
}

// Ack acknowledges one entry on the partition stream
func (b *RedisBroker) Ack(ctx context.Context, partition int, messageID string) error {
	return b.client.AckStreamMessage(ctx, b.stream(partition), b.group, messageID)
}

// Partitions returns the partition count
func (b *RedisBroker) Partitions() int {
	return b.partitions
}

func (b *RedisBroker) stream(partition int) string {
	return fmt.Sprintf("%s.%d", b.streamPrefix, partition)
}

// consumerFor derives the consumer name from the group and partition.
// Exactly one worker owns a partition within a group, and the name must
// survive restarts so the startup pending drain re-reads entries the
// previous process left unacked.
func (b *RedisBroker) consumerFor(partition int) string {
	return fmt.Sprintf("%s_p%d", b.group, partition)
}

func collect(streams []redis.XStream) []Message {
	var msgs []Message
	for _, stream := range streams {
		for _, m := range stream.Messages {
			value, _ := m.Values[eventField].(string)
			msgs = append(msgs, Message{ID: m.ID, Value: []byte(value)})
		}
	}
	return msgs
}
