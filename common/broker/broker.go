// Package broker abstracts the partitioned, append-only event transport.
// Events for one subject always land on one partition, so per-partition
// order is per-subject order.
package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"strconv"
	"strings"

	"github.com/famcase/caseview/common/models"
)

// Message is one entry read from a partition
type Message struct {
	// ID is the broker-assigned entry id, monotonically increasing
	// within a partition ("<ms>-<seq>" form).
	ID    string
	Value []byte
}

// Broker is a partitioned append-only message transport with
// at-least-once delivery and per-partition ordering
type Broker interface {
	// Publish appends the value to the partition derived from the key
	// and returns the assigned entry id.
	Publish(ctx context.Context, partitionKey string, value []byte) (string, error)

	// Read returns the next unacknowledged entries for a partition, in
	// order. Returns nil when nothing is available within the broker's
	// block window.
	Read(ctx context.Context, partition int) ([]Message, error)

	// Ack marks an entry as delivered. Unacked entries are redelivered.
	Ack(ctx context.Context, partition int, messageID string) error

	// Partitions returns the partition count.
	Partitions() int
}

// PartitionFor derives the partition for a key. FNV-1a keeps the mapping
// stable across processes, which is what preserves intra-subject order.
func PartitionFor(key string, partitions int) int {
	h := fnv.New32a()
	h.Write([]byte(key))
	return int(h.Sum32() % uint32(partitions))
}

// PublishEvent marshals the envelope and publishes it keyed by subject,
// falling back to the submission id for withdrawals that carry no
// subject. Producers built on this helper inherit the subject-keyed
// partitioning the consumer's ordering guarantees depend on.
func PublishEvent(ctx context.Context, b Broker, env *models.Envelope) (string, error) {
	if err := env.Validate(); err != nil {
		return "", fmt.Errorf("invalid event: %w", err)
	}

	key := env.SubjectID
	if key == "" {
		key = env.SubmissionID
	}

	value, err := json.Marshal(env)
	if err != nil {
		return "", fmt.Errorf("marshal event: %w", err)
	}

	return b.Publish(ctx, key, value)
}

// CompareIDs orders two entry ids of the "<ms>-<seq>" form. Returns -1,
// 0, or 1.
func CompareIDs(a, b string) int {
	aMs, aSeq := splitID(a)
	bMs, bSeq := splitID(b)
	switch {
	case aMs != bMs:
		if aMs < bMs {
			return -1
		}
		return 1
	case aSeq != bSeq:
		if aSeq < bSeq {
			return -1
		}
		return 1
	default:
		return 0
	}
}

func splitID(id string) (int64, int64) {
	parts := strings.SplitN(id, "-", 2)
	ms, _ := strconv.ParseInt(parts[0], 10, 64)
	var seq int64
	if len(parts) == 2 {
		seq, _ = strconv.ParseInt(parts[1], 10, 64)
	}
	return ms, seq
}
