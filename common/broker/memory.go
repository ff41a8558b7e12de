package broker

import (
	"context"
	"fmt"
	"sync"
)

// MemoryBroker is an in-memory Broker for tests. It keeps the transport
// contract honest: per-partition order, at-least-once delivery, unacked
// entries redelivered on the next Read.
type MemoryBroker struct {
	mu         sync.Mutex
	partitions int
	entries    [][]memoryEntry
	seq        int64
}

type memoryEntry struct {
	id    string
	value []byte
	acked bool
}

// NewMemoryBroker creates an in-memory broker with the given partition count
func NewMemoryBroker(partitions int) *MemoryBroker {
	return &MemoryBroker{
		partitions: partitions,
		entries:    make([][]memoryEntry, partitions),
	}
}

// Publish appends the value to the key's partition
func (b *MemoryBroker) Publish(ctx context.Context, partitionKey string, value []byte) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.seq++
	id := fmt.Sprintf("0-%d", b.seq)
	partition := PartitionFor(partitionKey, b.partitions)
	b.entries[partition] = append(b.entries[partition], memoryEntry{id: id, value: value})
	return id, nil
}

// Read returns every unacked entry for the partition, in order. Does not
// block; returns nil when the partition is drained.
func (b *MemoryBroker) Read(ctx context.Context, partition int) ([]Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	var msgs []Message
	for _, e := range b.entries[partition] {
		if !e.acked {
			msgs = append(msgs, Message{ID: e.id, Value: e.value})
		}
	}
	return msgs, nil
}

// Ack marks one entry as delivered
func (b *MemoryBroker) Ack(ctx context.Context, partition int, messageID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i := range b.entries[partition] {
		if b.entries[partition][i].id == messageID {
			b.entries[partition][i].acked = true
			return nil
		}
	}
	return fmt.Errorf("unknown message id %s on partition %d", messageID, partition)
}

// Partitions returns the partition count
func (b *MemoryBroker) Partitions() int {
	return b.partitions
}

// Depth reports how many unacked entries a partition holds. Test helper.
func (b *MemoryBroker) Depth(partition int) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := 0
	for _, e := range b.entries[partition] {
		if !e.acked {
			n++
		}
	}
	return n
}
