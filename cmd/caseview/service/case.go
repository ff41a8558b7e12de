package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	jsonpatch "github.com/evanphx/json-patch/v5"

	"github.com/famcase/caseview/common/bootstrap"
	"github.com/famcase/caseview/common/merge"
	"github.com/famcase/caseview/common/models"
	"github.com/famcase/caseview/common/redact"
	"github.com/famcase/caseview/common/repository"
)

// SubmissionStore is the read surface the assembly needs from the
// submission store
type SubmissionStore interface {
	CursorBySubject(ctx context.Context, subjectID string) (repository.Cursor, error)
}

// CustodyStore is the read surface for custody facts
type CustodyStore interface {
	HasCustody(ctx context.Context, ownerID, subjectID string) (bool, error)
	SubjectsForOwner(ctx context.Context, ownerID string) ([]string, error)
}

// CaseService assembles merged case views: fetch from store, fold, and
// project. It never touches the broker; the consumer owns all writes.
type CaseService struct {
	submissions SubmissionStore
	custody     CustodyStore
	components  *bootstrap.Components
}

// NewCaseService creates a new case service
func NewCaseService(submissions SubmissionStore, custody CustodyStore, components *bootstrap.Components) *CaseService {
	return &CaseService{
		submissions: submissions,
		custody:     custody,
		components:  components,
	}
}

// AssembleAll returns the merged view of every subject the requester has
// a positive custody fact for. No custody facts means an empty slice,
// not an error.
func (s *CaseService) AssembleAll(ctx context.Context, requester string) ([]*merge.MergedView, error) {
	if s.components.Telemetry != nil {
		defer s.components.Telemetry.RecordDuration("assemble_all", time.Now())
	}

	subjects, err := s.custody.SubjectsForOwner(ctx, requester)
	if err != nil {
		return nil, fmt.Errorf("list subjects for requester: %w", err)
	}

	views := make([]*merge.MergedView, 0, len(subjects))
	for _, subjectID := range subjects {
		view, err := s.fold(ctx, subjectID, requester)
		if err != nil {
			return nil, err
		}
		if view != nil {
			views = append(views, view)
		}
	}

	return views, nil
}

// AssembleSubject returns the merged view for one subject as seen by the
// requester. No custody means no visibility: the result is nil, the same
// as no data, never an error and never partial data.
func (s *CaseService) AssembleSubject(ctx context.Context, subjectID, requester string) (*merge.MergedView, error) {
	if s.components.Telemetry != nil {
		defer s.components.Telemetry.RecordDuration("assemble_subject", time.Now())
	}

	hasCustody, err := s.custody.HasCustody(ctx, requester, subjectID)
	if err != nil {
		return nil, fmt.Errorf("check custody: %w", err)
	}
	if !hasCustody {
		s.components.Logger.Debug("no custody fact for requester",
			"subject_id", subjectID)
		return nil, nil
	}

	return s.fold(ctx, subjectID, requester)
}

// fold streams the subject's live submissions through the merge engine.
// The cursor is closed on every exit path; the fold consumes it once.
func (s *CaseService) fold(ctx context.Context, subjectID, requester string) (*merge.MergedView, error) {
	cursor, err := s.submissions.CursorBySubject(ctx, subjectID)
	if err != nil {
		return nil, fmt.Errorf("open submissions for subject: %w", err)
	}
	defer cursor.Close()

	view, err := merge.MergeFrom(cursor, requester)
	if err != nil {
		return nil, fmt.Errorf("merge submissions for subject: %w", err)
	}
	return view, nil
}

// DebugResult carries the merged view together with the ordered,
// redaction-scoped inputs it was folded from. Support/audit use.
type DebugResult struct {
	SubjectID string            `json:"subject_id"`
	Merged    *merge.MergedView `json:"merged"`
	Inputs    []DebugInput      `json:"inputs"`
}

// DebugInput is one redacted submission plus the merge-patch describing
// what it changed relative to the previous input in fold order
type DebugInput struct {
	Submission         models.Submission `json:"submission"`
	ChangeFromPrevious json.RawMessage   `json:"change_from_previous,omitempty"`
}

// AssembleDebug returns the merged view and its ordered raw inputs for
// one subject. Bypasses the custody gate; every input still passes
// through redaction before it leaves the service.
func (s *CaseService) AssembleDebug(ctx context.Context, subjectID, requester string) (*DebugResult, error) {
	cursor, err := s.submissions.CursorBySubject(ctx, subjectID)
	if err != nil {
		return nil, fmt.Errorf("open submissions for subject: %w", err)
	}
	defer cursor.Close()

	var scoped []models.Submission
	for {
		sub, err := cursor.Next()
		if err != nil {
			return nil, fmt.Errorf("read submissions for subject: %w", err)
		}
		if sub == nil {
			break
		}
		scoped = append(scoped, redact.Scope(*sub, requester))
	}

	result := &DebugResult{
		SubjectID: subjectID,
		Merged:    merge.Merge(scoped, requester),
	}

	var prevJSON []byte
	for _, sub := range scoped {
		input := DebugInput{Submission: sub}

		curJSON, err := json.Marshal(sub.Payload)
		if err != nil {
			return nil, fmt.Errorf("marshal payload for diff: %w", err)
		}

		if prevJSON != nil {
			patch, err := jsonpatch.CreateMergePatch(prevJSON, curJSON)
			if err != nil {
				return nil, fmt.Errorf("diff payloads: %w", err)
			}
			input.ChangeFromPrevious = patch
		}
		prevJSON = curJSON

		result.Inputs = append(result.Inputs, input)
	}

	return result, nil
}
