package merge

import (
	"sort"

	"github.com/famcase/caseview/common/models"
)

// overlay folds incoming work periods over the accumulated set. A later
// period takes precedence on overlap: each existing period it touches is
// truncated to its non-overlapping remainders (zero, one, or two), the
// incoming period is inserted unmodified. The result stays pairwise
// non-overlapping and covers exactly the union of all inputs.
func overlay(existing []models.WorkPeriod, incoming []models.WorkPeriod) []models.WorkPeriod {
	acc := existing
	for _, in := range incoming {
		acc = overlayOne(acc, in)
	}
	return acc
}

func overlayOne(acc []models.WorkPeriod, in models.WorkPeriod) []models.WorkPeriod {
	if !in.Valid() {
		return acc
	}

	out := make([]models.WorkPeriod, 0, len(acc)+1)
	for _, ex := range acc {
		if !ex.Overlaps(in.Period) {
			out = append(out, ex)
			continue
		}

		// Remainder before the incoming interval
		if ex.From.Before(in.From) {
			left := ex
			left.To = in.From.AddDays(-1)
			out = append(out, left)
		}

		// Remainder after the incoming interval
		if ex.To.After(in.To) {
			right := ex
			right.From = in.To.AddDays(1)
			out = append(out, right)
		}
	}

	out = append(out, in)
	sortPeriods(out)
	return out
}

func sortPeriods(periods []models.WorkPeriod) {
	sort.Slice(periods, func(i, j int) bool {
		return periods[i].From.Before(periods[j].From)
	})
}
