package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventKind discriminates case-change events on the broker
type EventKind string

const (
	EventSubmissionUpserted  EventKind = "NEW_OR_UPDATED_SUBMISSION"
	EventCustodyChanged      EventKind = "CUSTODY_CHANGED"
	EventSubmissionWithdrawn EventKind = "SUBMISSION_WITHDRAWN"
)

// Envelope is the broker message shape. Which fields are populated
// depends on Kind: submission events carry a payload, custody events a
// flag, withdrawals only the submission id.
type Envelope struct {
	Kind         EventKind       `json:"kind"`
	SubmissionID string          `json:"submission_id,omitempty"`
	OwnerID      string          `json:"owner_id,omitempty"`
	SubjectID    string          `json:"subject_id,omitempty"`
	HasCustody   *bool           `json:"has_custody,omitempty"`
	Payload      json.RawMessage `json:"payload,omitempty"`
	Timestamp    time.Time       `json:"timestamp"`
}

// Validate checks the envelope carries the fields its kind requires
func (e *Envelope) Validate() error {
	switch e.Kind {
	case EventSubmissionUpserted:
		if e.SubmissionID == "" || e.OwnerID == "" || e.SubjectID == "" {
			return fmt.Errorf("submission event missing identifiers")
		}
		if len(e.Payload) == 0 {
			return fmt.Errorf("submission event missing payload")
		}
		if e.Timestamp.IsZero() {
			return fmt.Errorf("submission event missing timestamp")
		}
	case EventCustodyChanged:
		if e.OwnerID == "" || e.SubjectID == "" {
			return fmt.Errorf("custody event missing identifiers")
		}
		if e.HasCustody == nil {
			return fmt.Errorf("custody event missing has_custody flag")
		}
		if e.Timestamp.IsZero() {
			return fmt.Errorf("custody event missing timestamp")
		}
	case EventSubmissionWithdrawn:
		if e.SubmissionID == "" {
			return fmt.Errorf("withdrawal event missing submission id")
		}
	default:
		return fmt.Errorf("unknown event kind: %q", e.Kind)
	}
	return nil
}
