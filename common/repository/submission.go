package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/famcase/caseview/common/db"
	"github.com/famcase/caseview/common/models"
)

// SubmissionRepository handles database operations for submissions.
// Writes run inside the consumer's unit of work and take the open
// transaction; reads serve the query path off the pool.
type SubmissionRepository struct {
	db *db.DB
}

// NewSubmissionRepository creates a new submission repository
func NewSubmissionRepository(database *db.DB) *SubmissionRepository {
	return &SubmissionRepository{db: database}
}

// Upsert creates or wholly replaces the row for a submission id and
// bumps its delivery-attempt counter. Returns the counter after the
// write so the caller can log reprocessing.
func (r *SubmissionRepository) Upsert(ctx context.Context, tx pgx.Tx, sub *models.Submission) (int, error) {
	payloadJSON, err := json.Marshal(sub.Payload)
	if err != nil {
		return 0, fmt.Errorf("marshal payload: %w", err)
	}

	query := `
		INSERT INTO submission (submission_id, owner_id, subject_id, payload, received_at, updated_at, delivery_attempts)
		VALUES ($1, $2, $3, $4, $5, $5, 1)
		ON CONFLICT (submission_id) DO UPDATE SET
			owner_id          = EXCLUDED.owner_id,
			subject_id        = EXCLUDED.subject_id,
			payload           = EXCLUDED.payload,
			updated_at        = EXCLUDED.updated_at,
			delivery_attempts = submission.delivery_attempts + 1
		RETURNING delivery_attempts
	`

	var attempts int
	err = tx.QueryRow(ctx, query,
		sub.SubmissionID,
		sub.OwnerID,
		sub.SubjectID,
		payloadJSON,
		sub.UpdatedAt,
	).Scan(&attempts)
	if err != nil {
		return 0, fmt.Errorf("failed to upsert submission: %w", err)
	}

	return attempts, nil
}

// Delete removes the row for a withdrawn submission. Deleting an absent
// key is a no-op; the bool reports whether a row existed.
func (r *SubmissionRepository) Delete(ctx context.Context, tx pgx.Tx, submissionID string) (bool, error) {
	tag, err := tx.Exec(ctx, `DELETE FROM submission WHERE submission_id = $1`, submissionID)
	if err != nil {
		return false, fmt.Errorf("failed to delete submission: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// GetByID retrieves one submission by its natural key
func (r *SubmissionRepository) GetByID(ctx context.Context, submissionID string) (*models.Submission, error) {
	query := `
		SELECT submission_id, owner_id, subject_id, payload, received_at, updated_at, delivery_attempts
		FROM submission
		WHERE submission_id = $1
	`

	sub, err := scanSubmission(r.db.QueryRow(ctx, query, submissionID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}
	return sub, nil
}

// Cursor is a forward-only iterator over submission rows. Next returns
// nil at the end of the result set. Close must run on every exit path;
// the merge fold consumes a Cursor directly.
type Cursor interface {
	Next() (*models.Submission, error)
	Close()
}

// CursorBySubject opens a forward-only cursor over every live submission
// for one subject, ordered ascending by (updated_at, submission_id), the
// order the merge fold requires. The caller must Close the cursor on
// every exit path.
func (r *SubmissionRepository) CursorBySubject(ctx context.Context, subjectID string) (Cursor, error) {
	query := `
		SELECT submission_id, owner_id, subject_id, payload, received_at, updated_at, delivery_attempts
		FROM submission
		WHERE subject_id = $1
		ORDER BY updated_at ASC, submission_id ASC
	`

	rows, err := r.db.Query(ctx, query, subjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to open submission cursor: %w", err)
	}

	return &SubmissionCursor{rows: rows}, nil
}

// SubmissionCursor iterates pgx rows as submissions
type SubmissionCursor struct {
	rows   pgx.Rows
	closed bool
}

// Next returns the next submission, or nil at the end of the result set.
// The cursor closes itself on exhaustion and on error.
func (c *SubmissionCursor) Next() (*models.Submission, error) {
	if c.closed {
		return nil, nil
	}

	if !c.rows.Next() {
		err := c.rows.Err()
		c.Close()
		if err != nil {
			return nil, fmt.Errorf("submission cursor: %w", err)
		}
		return nil, nil
	}

	sub, err := scanSubmission(c.rows)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("submission cursor scan: %w", err)
	}
	return sub, nil
}

// Close releases the underlying rows. Safe to call more than once.
func (c *SubmissionCursor) Close() {
	if !c.closed {
		c.rows.Close()
		c.closed = true
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSubmission(row rowScanner) (*models.Submission, error) {
	sub := &models.Submission{}
	var payloadJSON []byte
	var receivedAt, updatedAt time.Time

	err := row.Scan(
		&sub.SubmissionID,
		&sub.OwnerID,
		&sub.SubjectID,
		&payloadJSON,
		&receivedAt,
		&updatedAt,
		&sub.DeliveryAttempts,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(payloadJSON, &sub.Payload); err != nil {
		return nil, fmt.Errorf("unmarshal payload: %w", err)
	}

	sub.ReceivedAt = receivedAt
	sub.UpdatedAt = updatedAt
	return sub, nil
}
