// Package redact scopes a submission to a requesting owner before it
// crosses the privacy boundary. It is pure and total: every submission
// passes through Scope on every read path, including debug.
package redact

import (
	"github.com/famcase/caseview/common/models"
)

// Scope returns the submission as the requesting owner may see it. The
// owner's own submissions pass through unchanged. Another owner's
// submission keeps every subject-scoped field verbatim but loses the
// applicant block, which describes the other adult's personal identity.
func Scope(sub models.Submission, requestingOwner string) models.Submission {
	if sub.OwnerID == requestingOwner {
		return sub
	}

	scoped := sub
	scoped.Payload = clonePayload(sub.Payload)
	scoped.Payload.Applicant = nil
	return scoped
}

// clonePayload deep-copies the payload so redaction never mutates the
// caller's copy.
func clonePayload(p models.Payload) models.Payload {
	out := p
	if p.Applicant != nil {
		applicant := *p.Applicant
		out.Applicant = &applicant
	}
	if p.WorkRelationships != nil {
		out.WorkRelationships = make([]models.WorkRelationship, len(p.WorkRelationships))
		for i, rel := range p.WorkRelationships {
			copied := rel
			if rel.Periods != nil {
				copied.Periods = make([]models.WorkPeriod, len(rel.Periods))
				copy(copied.Periods, rel.Periods)
			}
			out.WorkRelationships[i] = copied
		}
	}
	return out
}
