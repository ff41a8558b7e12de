package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/famcase/caseview/common/db"
)

// OffsetRepository tracks the consumer's committed read position per
// broker partition. The position only moves inside the same transaction
// as the event's store mutation, which is what makes redelivered events
// observably idempotent.
type OffsetRepository struct {
	db *db.DB
}

// NewOffsetRepository creates a new offset repository
func NewOffsetRepository(database *db.DB) *OffsetRepository {
	return &OffsetRepository{db: database}
}

// Get returns the last committed event id for a partition, or "" when
// the partition has never committed.
func (r *OffsetRepository) Get(ctx context.Context, partition int) (string, error) {
	var lastEventID string
	err := r.db.QueryRow(ctx,
		`SELECT last_event_id FROM consumer_offset WHERE partition = $1`,
		partition,
	).Scan(&lastEventID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return "", nil
		}
		return "", fmt.Errorf("failed to get consumer offset: %w", err)
	}
	return lastEventID, nil
}

// Advance records the event id as committed for the partition. Must run
// on the same transaction as the mutation the event caused.
func (r *OffsetRepository) Advance(ctx context.Context, tx pgx.Tx, partition int, eventID string) error {
	query := `
		INSERT INTO consumer_offset (partition, last_event_id, committed_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (partition) DO UPDATE SET
			last_event_id = EXCLUDED.last_event_id,
			committed_at  = EXCLUDED.committed_at
	`

	_, err := tx.Exec(ctx, query, partition, eventID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to advance consumer offset: %w", err)
	}
	return nil
}
