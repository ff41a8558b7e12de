package merge

import (
	"sort"
	"time"

	"github.com/famcase/caseview/common/models"
)

// MergedView is the consolidated case view for one subject as seen by one
// requesting owner. Derived at query time from the ordered live
// submissions; never persisted or cached.
type MergedView struct {
	SubjectID     string            `json:"subject_id"`
	Dependent     models.Dependent  `json:"dependent"`
	Language      string            `json:"language,omitempty"`
	CareSituation string            `json:"care_situation,omitempty"`

	// Applicant is the requester's own latest applicant block; other
	// owners' blocks never survive redaction.
	Applicant *models.Applicant `json:"applicant,omitempty"`

	// Relationships are unioned by organization number, sorted for
	// deterministic output.
	Relationships []MergedRelationship `json:"work_relationships"`

	// SourceSubmissions lists the submission ids folded in, in order.
	SourceSubmissions []string `json:"source_submissions"`

	// UpdatedAt is the update time of the latest folded submission.
	UpdatedAt time.Time `json:"updated_at"`
}

// MergedRelationship is one employer relationship after the fold, its
// periods pairwise non-overlapping
type MergedRelationship struct {
	OrgNumber string              `json:"org_number"`
	OrgName   string              `json:"org_name,omitempty"`
	Periods   []models.WorkPeriod `json:"periods"`
}

func (v *MergedView) relationship(orgNumber string) *MergedRelationship {
	for i := range v.Relationships {
		if v.Relationships[i].OrgNumber == orgNumber {
			return &v.Relationships[i]
		}
	}
	return nil
}

func (v *MergedView) sortRelationships() {
	sort.Slice(v.Relationships, func(i, j int) bool {
		return v.Relationships[i].OrgNumber < v.Relationships[j].OrgNumber
	})
}
