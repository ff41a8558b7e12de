// Package merge folds an ordered sequence of live submissions for one
// subject into a single consolidated view. The fold is pure and never
// fails on well-formed input.
package merge

import (
	"sort"

	"github.com/famcase/caseview/common/models"
)

// Merge left-folds the submissions into one view as seen by
// requestingOwner. Input must contain every live submission for one
// subject, sorted ascending by updated_at with ties broken by submission
// id. Each submission is redaction-scoped before it is combined, so
// cross-owner personal data never reaches the accumulator.
//
// An empty input returns nil: no data, distinguishable from a populated
// view with no relationships.
func Merge(ordered []models.Submission, requestingOwner string) *MergedView {
	view, _ := MergeFrom(&sliceSource{subs: ordered}, requestingOwner)
	return view
}

// Sort orders submissions ascending by updated_at, ties broken by
// submission id for determinism. The store already returns rows in this
// order; callers holding unordered slices sort before folding.
func Sort(subs []models.Submission) {
	sort.Slice(subs, func(i, j int) bool {
		if subs[i].UpdatedAt.Equal(subs[j].UpdatedAt) {
			return subs[i].SubmissionID < subs[j].SubmissionID
		}
		return subs[i].UpdatedAt.Before(subs[j].UpdatedAt)
	})
}

// combine folds one redaction-scoped submission into the accumulator.
// Scalars are last-writer-wins, relationships union by organization
// number, and interval-keyed periods split on overlap.
func (v *MergedView) combine(sub models.Submission) {
	p := sub.Payload

	if p.Dependent.Name != "" || !p.Dependent.BirthDate.IsZero() {
		v.Dependent = p.Dependent
	}
	if p.Language != "" {
		v.Language = p.Language
	}
	if p.CareSituation != "" {
		v.CareSituation = p.CareSituation
	}
	if p.Applicant != nil {
		applicant := *p.Applicant
		v.Applicant = &applicant
	}

	for _, rel := range p.WorkRelationships {
		existing := v.relationship(rel.OrgNumber)
		if existing == nil {
			v.Relationships = append(v.Relationships, MergedRelationship{
				OrgNumber: rel.OrgNumber,
				OrgName:   rel.OrgName,
				Periods:   overlay(nil, rel.Periods),
			})
			continue
		}

		if rel.OrgName != "" {
			existing.OrgName = rel.OrgName
		}
		existing.Periods = overlay(existing.Periods, rel.Periods)
	}

	v.SourceSubmissions = append(v.SourceSubmissions, sub.SubmissionID)
	if sub.UpdatedAt.After(v.UpdatedAt) {
		v.UpdatedAt = sub.UpdatedAt
	}
}
