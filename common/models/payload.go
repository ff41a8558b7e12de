package models

// Payload is the structured body of one submission. It is stored opaque
// (JSONB) and wholly replaced on resubmission, never merged in place.
type Payload struct {
	// Applicant describes the submitting adult. Personal to the owner;
	// stripped when viewed by anyone else.
	Applicant *Applicant `json:"applicant,omitempty"`

	// Dependent describes the child or care-recipient the submission
	// concerns. Subject-scoped, preserved across owners.
	Dependent Dependent `json:"dependent"`

	// Language is the case correspondence language. Last writer wins.
	Language string `json:"language,omitempty"`

	// CareSituation is a free-form classification of the care need.
	// Last writer wins.
	CareSituation string `json:"care_situation,omitempty"`

	// WorkRelationships are keyed by organization number. Each carries
	// the interval-keyed absence periods for that employer.
	WorkRelationships []WorkRelationship `json:"work_relationships,omitempty"`
}

// Applicant holds the submitting adult's personal details
type Applicant struct {
	Name             string `json:"name"`
	Phone            string `json:"phone,omitempty"`
	Email            string `json:"email,omitempty"`
	EmploymentStatus string `json:"employment_status,omitempty"`
}

// Dependent holds the subject's details
type Dependent struct {
	Name      string `json:"name"`
	BirthDate Date   `json:"birth_date"`
}

// WorkRelationship is one employer relationship, identified by its
// organization number
type WorkRelationship struct {
	OrgNumber string       `json:"org_number"`
	OrgName   string       `json:"org_name,omitempty"`
	Periods   []WorkPeriod `json:"periods,omitempty"`
}

// WorkPeriod maps an inclusive date interval to asserted work hours
type WorkPeriod struct {
	Period
	ActualHours float64 `json:"actual_hours"`
	NormalHours float64 `json:"normal_hours"`
}

// Period is an inclusive date interval; To is the last covered day
type Period struct {
	From Date `json:"from"`
	To   Date `json:"to"`
}

// Overlaps reports whether two inclusive intervals share at least one day
func (p Period) Overlaps(other Period) bool {
	return !p.From.After(other.To) && !other.From.After(p.To)
}

// Contains reports whether the interval covers the given day
func (p Period) Contains(d Date) bool {
	return !d.Before(p.From) && !d.After(p.To)
}

// Valid reports whether the interval covers at least one day
func (p Period) Valid() bool {
	return !p.To.Before(p.From)
}
