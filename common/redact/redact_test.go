package redact

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/famcase/caseview/common/models"
)

func sampleSubmission(owner string) models.Submission {
	return models.Submission{
		SubmissionID: "doc-1",
		OwnerID:      owner,
		SubjectID:    "subject-1",
		UpdatedAt:    time.Date(2022, 3, 1, 0, 0, 0, 0, time.UTC),
		Payload: models.Payload{
			Applicant: &models.Applicant{
				Name:  "Alex",
				Phone: "555-0101",
				Email: "alex@example.com",
			},
			Dependent: models.Dependent{
				Name:      "Kim",
				BirthDate: models.NewDate(2018, time.March, 9),
			},
			Language: "nb",
			WorkRelationships: []models.WorkRelationship{
				{
					OrgNumber: "999888777",
					OrgName:   "Acme AS",
					Periods: []models.WorkPeriod{
						{
							Period: models.Period{
								From: models.MustDate("2021-08-01"),
								To:   models.MustDate("2021-10-10"),
							},
							ActualHours: 4,
							NormalHours: 8,
						},
					},
				},
			},
		},
	}
}

func TestScope_OwnerSeesEverything(t *testing.T) {
	sub := sampleSubmission("owner-a")

	scoped := Scope(sub, "owner-a")

	require.NotNil(t, scoped.Payload.Applicant)
	assert.Equal(t, "Alex", scoped.Payload.Applicant.Name)
}

func TestScope_OtherOwnerLosesApplicant(t *testing.T) {
	sub := sampleSubmission("owner-a")

	scoped := Scope(sub, "owner-b")

	assert.Nil(t, scoped.Payload.Applicant, "cross-owner personal block must be stripped")

	// Subject-scoped fields survive verbatim
	assert.Equal(t, "Kim", scoped.Payload.Dependent.Name)
	assert.Equal(t, "nb", scoped.Payload.Language)
	require.Len(t, scoped.Payload.WorkRelationships, 1)
	assert.Equal(t, "Acme AS", scoped.Payload.WorkRelationships[0].OrgName)
	assert.Len(t, scoped.Payload.WorkRelationships[0].Periods, 1)
}

func TestScope_DoesNotMutateInput(t *testing.T) {
	sub := sampleSubmission("owner-a")

	_ = Scope(sub, "owner-b")

	require.NotNil(t, sub.Payload.Applicant, "input submission must stay intact")
	assert.Equal(t, "Alex", sub.Payload.Applicant.Name)
}
