package merge

import (
	"github.com/famcase/caseview/common/models"
	"github.com/famcase/caseview/common/redact"
)

// Source yields submissions in fold order, one at a time. Next returns
// nil at the end of the sequence. The store's cursor implements this, so
// the fold never needs the whole row set in memory.
type Source interface {
	Next() (*models.Submission, error)
}

// MergeFrom folds submissions drawn from src into one view as seen by
// requestingOwner. Semantics are identical to Merge; src must yield
// submissions in ascending (updated_at, submission_id) order. Returns
// nil when src yields nothing.
func MergeFrom(src Source, requestingOwner string) (*MergedView, error) {
	var view *MergedView

	for {
		sub, err := src.Next()
		if err != nil {
			return nil, err
		}
		if sub == nil {
			break
		}

		if view == nil {
			view = &MergedView{SubjectID: sub.SubjectID}
		}
		view.combine(redact.Scope(*sub, requestingOwner))
	}

	if view != nil {
		view.sortRelationships()
	}
	return view, nil
}

type sliceSource struct {
	subs []models.Submission
	pos  int
}

func (s *sliceSource) Next() (*models.Submission, error) {
	if s.pos >= len(s.subs) {
		return nil, nil
	}
	sub := s.subs[s.pos]
	s.pos++
	return &sub, nil
}
