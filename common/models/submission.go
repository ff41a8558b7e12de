package models

import (
	"time"
)

// Submission is one owner's snapshot of case information concerning a
// subject. At most one live row exists per submission id; a later event
// for the same id replaces the payload wholly, a withdrawal deletes it.
// Maps to: submission table.
type Submission struct {
	// Natural key, typically an archival document id
	SubmissionID string `db:"submission_id" json:"submission_id"`

	// The adult who submitted
	OwnerID string `db:"owner_id" json:"owner_id"`

	// The dependent the submission concerns
	SubjectID string `db:"subject_id" json:"subject_id"`

	// Structured body, wholly replaced on resubmission (JSONB)
	Payload Payload `db:"payload" json:"payload"`

	// When the first event for this id was applied
	ReceivedAt time.Time `db:"received_at" json:"received_at"`

	// Producer-assigned timestamp of the latest applied event; the
	// merge fold orders by this
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`

	// How many events have been applied for this id, for observability
	DeliveryAttempts int `db:"delivery_attempts" json:"-"`
}

// CustodyFact records whether an owner currently has decision-making
// standing over a subject. Upserted in place, one row per key.
// Maps to: custody table.
type CustodyFact struct {
	OwnerID    string    `db:"owner_id" json:"owner_id"`
	SubjectID  string    `db:"subject_id" json:"subject_id"`
	HasCustody bool      `db:"has_custody" json:"has_custody"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}
