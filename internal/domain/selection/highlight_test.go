package selection

import (
	"testing"

	"staycal/internal/domain/calendar"
)

func TestClassifyStartCalendar(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		start State
		end   State
		date  string
		want  Highlight
	}{
		{"inside committed range", State{Committed: day("2013-01-10")}, State{Committed: day("2013-01-15")}, "2013-01-12", HighlightInterior},
		{"start cap", State{Committed: day("2013-01-10")}, State{Committed: day("2013-01-15")}, "2013-01-10", HighlightStartCap},
		{"end cap", State{Committed: day("2013-01-10")}, State{Committed: day("2013-01-15")}, "2013-01-15", HighlightEndCap},
		{"outside", State{Committed: day("2013-01-10")}, State{Committed: day("2013-01-15")}, "2013-01-16", HighlightNone},
		{"backward hover interior", State{Committed: day("2013-01-10"), Hovered: day("2013-01-05")}, State{}, "2013-01-07", HighlightInterior},
		{"backward hover cap", State{Committed: day("2013-01-10"), Hovered: day("2013-01-05")}, State{}, "2013-01-05", HighlightStartCap},
		{"committed start while dragging back", State{Committed: day("2013-01-10"), Hovered: day("2013-01-05")}, State{}, "2013-01-10", HighlightInterior},
		{"zero-length range", State{Committed: day("2013-01-10")}, State{Committed: day("2013-01-10")}, "2013-01-10", HighlightInterior},
		{"forward hover only caps", State{Committed: day("2013-01-10"), Hovered: day("2013-01-14")}, State{}, "2013-01-12", HighlightNone},
		{"nothing selected", State{}, State{}, "2013-01-12", HighlightNone},
	}
	for _, tc := range cases {
		start, end := tc.start, tc.end
		if got := Classify(&start, &end, RoleStart, true, day(tc.date)); got != tc.want {
			t.Fatalf("%s: got %s, want %s", tc.name, got, tc.want)
		}
	}
}

func TestClassifyEndCalendar(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		start State
		end   State
		date  string
		want  Highlight
	}{
		{"forward hover interior", State{Committed: day("2013-01-10")}, State{Hovered: day("2013-01-14")}, "2013-01-12", HighlightInterior},
		{"forward hover cap", State{Committed: day("2013-01-10")}, State{Hovered: day("2013-01-14")}, "2013-01-14", HighlightEndCap},
		{"hover before start is not a range", State{Committed: day("2013-01-10")}, State{Hovered: day("2013-01-05")}, "2013-01-07", HighlightNone},
		{"committed interior", State{Committed: day("2013-01-10")}, State{Committed: day("2013-01-15")}, "2013-01-11", HighlightInterior},
		{"start cap", State{Committed: day("2013-01-10")}, State{Committed: day("2013-01-15")}, "2013-01-10", HighlightStartCap},
		{"end cap", State{Committed: day("2013-01-10")}, State{Committed: day("2013-01-15")}, "2013-01-15", HighlightEndCap},
		{"zero-length range", State{Committed: day("2013-01-10")}, State{Committed: day("2013-01-10")}, "2013-01-10", HighlightInterior},
	}
	for _, tc := range cases {
		start, end := tc.start, tc.end
		if got := Classify(&start, &end, RoleEnd, true, day(tc.date)); got != tc.want {
			t.Fatalf("%s: got %s, want %s", tc.name, got, tc.want)
		}
	}
}

func TestClassifySingleCalendar(t *testing.T) {
	t.Parallel()

	p := NewPicker("s", false)
	p.Commit(RoleStart, day("2013-05-05"), now)
	p.Hover(RoleStart, day("2013-05-01"))
	if got := p.Classify(RoleStart, day("2013-05-05")); got != HighlightStartCap {
		t.Fatalf("committed day should be marked, got %s", got)
	}
	if got := p.Classify(RoleStart, day("2013-05-03")); got != HighlightNone {
		t.Fatalf("single calendar has no range shading, got %s", got)
	}
	if got := p.Classify(RoleStart, day("2013-05-01")); got != HighlightNone {
		t.Fatalf("hover is not highlighted in single mode, got %s", got)
	}
}

func TestCellTargetDisambiguation(t *testing.T) {
	t.Parallel()

	days := []calendar.DayRecord{
		{Date: day("2013-07-03"), ReservationID: "in", Duration: calendar.DurationPM, Status: calendar.StatusReserve},
		{Date: day("2013-07-03"), ReservationID: "out", Duration: calendar.DurationAM, Status: calendar.StatusHold},
		{Date: day("2013-07-04"), ReservationID: "in", Duration: calendar.DurationFull, Status: calendar.StatusReserve},
	}
	cell := CellFor(days, day("2013-07-03"))
	if cell.Count != 2 || cell.IDs[0] != "out" || cell.IDs[1] != "in" {
		t.Fatalf("morning reservation must come first: %+v", cell)
	}

	if id, _, _ := cell.Target(Pointer{X: 5, Y: 5, Width: 40}); id != "out" {
		t.Fatalf("upper-left should target checkout, got %s", id)
	}
	if id, _, _ := cell.Target(Pointer{X: 30, Y: 5, Width: 40}); id != "in" {
		t.Fatalf("outside upper-left should target checkin, got %s", id)
	}

	cell.Statuses[0] = calendar.StatusInquiry
	if id, status, _ := cell.Target(Pointer{X: 5, Y: 5, Width: 40}); id != "in" || status != calendar.StatusReserve {
		t.Fatalf("inquiry must yield to the other reservation, got %s/%s", id, status)
	}

	single := CellFor(days, day("2013-07-04"))
	if id, _, ok := single.Target(Pointer{X: 39, Y: 39, Width: 40}); !ok || id != "in" {
		t.Fatalf("single reservation cell should always target it, got %s", id)
	}
	if _, _, ok := CellFor(days, day("2013-07-09")).Target(Pointer{}); ok {
		t.Fatalf("empty cell has no target")
	}
	if !cell.Has("out") || cell.Has("nobody") {
		t.Fatalf("Has disagrees with IDs")
	}
}
