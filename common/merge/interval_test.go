package merge

import (
	"testing"

	"github.com/famcase/caseview/common/models"
)

func period(from, to string, actual, normal float64) models.WorkPeriod {
	return models.WorkPeriod{
		Period: models.Period{
			From: models.MustDate(from),
			To:   models.MustDate(to),
		},
		ActualHours: actual,
		NormalHours: normal,
	}
}

// TestOverlayOne_SplitOnOverlap exercises the documented split case: a
// later interval truncates the earlier one to its remainder.
func TestOverlayOne_SplitOnOverlap(t *testing.T) {
	existing := []models.WorkPeriod{
		period("2021-08-01", "2021-10-10", 4, 8),
	}
	incoming := period("2021-09-25", "2021-11-30", 2, 8)

	result := overlayOne(existing, incoming)

	if len(result) != 2 {
		t.Fatalf("Expected 2 periods, got %d: %v", len(result), result)
	}

	first := result[0]
	if first.From.String() != "2021-08-01" || first.To.String() != "2021-09-24" {
		t.Errorf("First period: expected [2021-08-01, 2021-09-24], got [%s, %s]", first.From, first.To)
	}
	if first.ActualHours != 4 || first.NormalHours != 8 {
		t.Errorf("First period: expected hours (4, 8), got (%v, %v)", first.ActualHours, first.NormalHours)
	}

	second := result[1]
	if second.From.String() != "2021-09-25" || second.To.String() != "2021-11-30" {
		t.Errorf("Second period: expected [2021-09-25, 2021-11-30], got [%s, %s]", second.From, second.To)
	}
	if second.ActualHours != 2 || second.NormalHours != 8 {
		t.Errorf("Second period: expected hours (2, 8), got (%v, %v)", second.ActualHours, second.NormalHours)
	}
}

// TestOverlayOne_DisjointUnion verifies non-overlapping intervals pass
// through untouched.
func TestOverlayOne_DisjointUnion(t *testing.T) {
	existing := []models.WorkPeriod{
		period("2021-01-01", "2021-02-28", 4, 8),
	}
	incoming := period("2021-06-01", "2021-06-30", 0, 8)

	result := overlayOne(existing, incoming)

	if len(result) != 2 {
		t.Fatalf("Expected 2 periods, got %d", len(result))
	}
	if result[0].From.String() != "2021-01-01" || result[0].To.String() != "2021-02-28" {
		t.Errorf("Existing period modified: [%s, %s]", result[0].From, result[0].To)
	}
	if result[1].From.String() != "2021-06-01" {
		t.Errorf("Incoming period misplaced: [%s, %s]", result[1].From, result[1].To)
	}
}

// TestOverlayOne_ContainedSplitsInTwo verifies an interval strictly
// inside an existing one leaves two remainders.
func TestOverlayOne_ContainedSplitsInTwo(t *testing.T) {
	existing := []models.WorkPeriod{
		period("2021-01-01", "2021-12-31", 8, 8),
	}
	incoming := period("2021-06-01", "2021-06-30", 0, 8)

	result := overlayOne(existing, incoming)

	if len(result) != 3 {
		t.Fatalf("Expected 3 periods, got %d: %v", len(result), result)
	}
	if result[0].To.String() != "2021-05-31" {
		t.Errorf("Left remainder: expected end 2021-05-31, got %s", result[0].To)
	}
	if result[1].ActualHours != 0 {
		t.Errorf("Middle period should carry incoming value, got %v", result[1].ActualHours)
	}
	if result[2].From.String() != "2021-07-01" || result[2].To.String() != "2021-12-31" {
		t.Errorf("Right remainder: got [%s, %s]", result[2].From, result[2].To)
	}
}

// TestOverlayOne_ExactOverlapReplaces verifies identical bounds leave
// only the incoming value.
func TestOverlayOne_ExactOverlapReplaces(t *testing.T) {
	existing := []models.WorkPeriod{
		period("2021-03-01", "2021-03-31", 4, 8),
	}
	incoming := period("2021-03-01", "2021-03-31", 6, 8)

	result := overlayOne(existing, incoming)

	if len(result) != 1 {
		t.Fatalf("Expected 1 period, got %d", len(result))
	}
	if result[0].ActualHours != 6 {
		t.Errorf("Expected incoming value 6, got %v", result[0].ActualHours)
	}
}

// TestOverlayOne_AdjacentNotSplit verifies touching intervals do not
// overlap on inclusive bounds.
func TestOverlayOne_AdjacentNotSplit(t *testing.T) {
	existing := []models.WorkPeriod{
		period("2021-06-01", "2021-06-30", 4, 8),
	}
	incoming := period("2021-07-01", "2021-07-31", 2, 8)

	result := overlayOne(existing, incoming)

	if len(result) != 2 {
		t.Fatalf("Expected 2 periods, got %d", len(result))
	}
	if result[0].To.String() != "2021-06-30" {
		t.Errorf("Adjacent existing period was truncated: end %s", result[0].To)
	}
}

// TestOverlay_NoGapInsideUnion verifies the merged set covers the union
// of both inputs with no overlap and no internal gap.
func TestOverlay_NoGapInsideUnion(t *testing.T) {
	result := overlay(
		[]models.WorkPeriod{period("2021-08-01", "2021-10-10", 4, 8)},
		[]models.WorkPeriod{period("2021-09-25", "2021-11-30", 2, 8)},
	)

	for i := 1; i < len(result); i++ {
		prevEnd := result[i-1].To
		curStart := result[i].From
		if !curStart.After(prevEnd) {
			t.Errorf("Periods %d and %d overlap: %s >= %s", i-1, i, prevEnd, curStart)
		}
		if curStart.String() != prevEnd.AddDays(1).String() {
			t.Errorf("Gap between periods %d and %d: %s .. %s", i-1, i, prevEnd, curStart)
		}
	}
}
