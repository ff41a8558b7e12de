package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/famcase/caseview/common/db"
	"github.com/famcase/caseview/common/models"
)

// CustodyRepository handles database operations for custody facts
type CustodyRepository struct {
	db *db.DB
}

// NewCustodyRepository creates a new custody repository
func NewCustodyRepository(database *db.DB) *CustodyRepository {
	return &CustodyRepository{db: database}
}

// Upsert overwrites the custody fact for (owner, subject) in place
func (r *CustodyRepository) Upsert(ctx context.Context, tx pgx.Tx, fact *models.CustodyFact) error {
	query := `
		INSERT INTO custody (owner_id, subject_id, has_custody, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (owner_id, subject_id) DO UPDATE SET
			has_custody = EXCLUDED.has_custody,
			updated_at  = EXCLUDED.updated_at
	`

	_, err := tx.Exec(ctx, query, fact.OwnerID, fact.SubjectID, fact.HasCustody, fact.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert custody fact: %w", err)
	}
	return nil
}

// HasCustody reports whether the owner currently has a positive custody
// fact for the subject. A missing row means no custody.
func (r *CustodyRepository) HasCustody(ctx context.Context, ownerID, subjectID string) (bool, error) {
	query := `
		SELECT has_custody
		FROM custody
		WHERE owner_id = $1 AND subject_id = $2
	`

	var hasCustody bool
	err := r.db.QueryRow(ctx, query, ownerID, subjectID).Scan(&hasCustody)
	if err != nil {
		if err == pgx.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("failed to get custody fact: %w", err)
	}
	return hasCustody, nil
}

// SubjectsForOwner lists the subjects the owner has positive custody
// facts for, in stable order
func (r *CustodyRepository) SubjectsForOwner(ctx context.Context, ownerID string) ([]string, error) {
	query := `
		SELECT subject_id
		FROM custody
		WHERE owner_id = $1 AND has_custody
		ORDER BY subject_id
	`

	rows, err := r.db.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list custody subjects: %w", err)
	}
	defer rows.Close()

	var subjects []string
	for rows.Next() {
		var subjectID string
		if err := rows.Scan(&subjectID); err != nil {
			return nil, fmt.Errorf("failed to scan custody subject: %w", err)
		}
		subjects = append(subjects, subjectID)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating custody subjects: %w", err)
	}

	return subjects, nil
}
