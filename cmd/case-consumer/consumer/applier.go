package consumer

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/famcase/caseview/common/db"
	"github.com/famcase/caseview/common/logger"
	"github.com/famcase/caseview/common/models"
	"github.com/famcase/caseview/common/repository"
)

// ApplyResult reports what one event did to the store
type ApplyResult struct {
	// DeliveryAttempts is the per-record counter after the write, for
	// submission events. 0 for other kinds.
	DeliveryAttempts int

	// Applied is false when the event was a no-op (withdrawal of an
	// absent key).
	Applied bool
}

// Applier applies one event to the store and advances the partition's
// committed offset, all or nothing.
type Applier interface {
	Apply(ctx context.Context, partition int, messageID string, env *models.Envelope) (*ApplyResult, error)
}

// PGApplier applies events against Postgres. Each call runs one
// transaction covering the mutation and the offset advance.
type PGApplier struct {
	db          *db.DB
	submissions *repository.SubmissionRepository
	custody     *repository.CustodyRepository
	offsets     *repository.OffsetRepository
	log         *logger.Logger
}

// NewPGApplier creates a Postgres-backed applier
func NewPGApplier(database *db.DB, submissions *repository.SubmissionRepository, custody *repository.CustodyRepository, offsets *repository.OffsetRepository, log *logger.Logger) *PGApplier {
	return &PGApplier{
		db:          database,
		submissions: submissions,
		custody:     custody,
		offsets:     offsets,
		log:         log,
	}
}

// Apply performs the event's store mutation and the offset advance as a
// single unit of work. On any error the transaction rolls back, the
// offset does not move, and the broker will redeliver.
func (a *PGApplier) Apply(ctx context.Context, partition int, messageID string, env *models.Envelope) (*ApplyResult, error) {
	result := &ApplyResult{}

	err := a.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		switch env.Kind {
		case models.EventSubmissionUpserted:
			var payload models.Payload
			if err := json.Unmarshal(env.Payload, &payload); err != nil {
				return Malformedf("decode submission payload: %v", err)
			}

			sub := &models.Submission{
				SubmissionID: env.SubmissionID,
				OwnerID:      env.OwnerID,
				SubjectID:    env.SubjectID,
				Payload:      payload,
				UpdatedAt:    env.Timestamp,
			}

			attempts, err := a.submissions.Upsert(ctx, tx, sub)
			if err != nil {
				return err
			}
			result.DeliveryAttempts = attempts
			result.Applied = true

		case models.EventCustodyChanged:
			fact := &models.CustodyFact{
				OwnerID:    env.OwnerID,
				SubjectID:  env.SubjectID,
				HasCustody: *env.HasCustody,
				UpdatedAt:  env.Timestamp,
			}
			if err := a.custody.Upsert(ctx, tx, fact); err != nil {
				return err
			}
			result.Applied = true

		case models.EventSubmissionWithdrawn:
			deleted, err := a.submissions.Delete(ctx, tx, env.SubmissionID)
			if err != nil {
				return err
			}
			result.Applied = deleted

		default:
			return Malformedf("unknown event kind %q", env.Kind)
		}

		return a.offsets.Advance(ctx, tx, partition, messageID)
	})
	if err != nil {
		return nil, fmt.Errorf("apply event %s: %w", messageID, err)
	}

	return result, nil
}
