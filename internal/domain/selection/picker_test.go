package selection

import (
	"testing"
	"time"

	"staycal/internal/domain/calendar"
)

var now = time.Date(2013, time.January, 20, 12, 0, 0, 0, time.UTC)

func day(raw string) calendar.Date { return calendar.MustParseDate(raw) }

func countRole(changes []Change, role Role) int {
	n := 0
	for _, c := range changes {
		if c.Role == role {
			n++
		}
	}
	return n
}

func TestCommitEndBeforeStartSnapsStart(t *testing.T) {
	t.Parallel()

	p := NewPicker("s1", true)
	p.Commit(RoleStart, day("2013-02-10"), now)
	p.ClearEvents()

	changes := p.Commit(RoleEnd, day("2013-02-01"), now)
	if got := countRole(changes, RoleStart); got != 1 {
		t.Fatalf("expected exactly one start change, got %d (%+v)", got, changes)
	}
	if !p.Start().Committed.Equal(day("2013-02-01")) {
		t.Fatalf("start not snapped: %s", p.Start().Committed)
	}
	if extra := p.Close(RoleEnd, now); len(extra) != 0 {
		t.Fatalf("close after snap should be quiet, got %+v", extra)
	}
	if len(p.PendingEvents()) != len(changes) {
		t.Fatalf("expected one recorded event per change, got %d", len(p.PendingEvents()))
	}
}

func TestCommitStartAfterEndSnapsEnd(t *testing.T) {
	t.Parallel()

	p := NewPicker("s1", true)
	p.Commit(RoleEnd, day("2013-02-05"), now)
	changes := p.Commit(RoleStart, day("2013-02-09"), now)
	if countRole(changes, RoleEnd) != 1 || !p.End().Committed.Equal(day("2013-02-09")) {
		t.Fatalf("end not snapped: %+v", p.End())
	}
}

func TestIdempotentCommitIsSilent(t *testing.T) {
	t.Parallel()

	p := NewPicker("s1", true)
	if len(p.Commit(RoleStart, day("2013-03-01"), now)) != 1 {
		t.Fatalf("first commit should report a change")
	}
	if changes := p.Commit(RoleStart, day("2013-03-01"), now); len(changes) != 0 {
		t.Fatalf("repeated commit should be silent, got %+v", changes)
	}
}

func TestCloseSnapsUnsetPartner(t *testing.T) {
	t.Parallel()

	p := NewPicker("s1", true)
	p.Commit(RoleStart, day("2013-04-04"), now)
	p.Hover(RoleStart, day("2013-04-02"))

	changes := p.Close(RoleStart, now)
	if len(changes) != 1 || changes[0].Role != RoleEnd || !changes[0].To.Equal(day("2013-04-04")) {
		t.Fatalf("expected end to mirror start, got %+v", changes)
	}
	if !p.Start().Hovered.IsZero() {
		t.Fatalf("close must clear hover")
	}

	q := NewPicker("s2", true)
	q.Commit(RoleEnd, day("2013-04-08"), now)
	changes = q.Close(RoleEnd, now)
	if len(changes) != 1 || !q.Start().Committed.Equal(day("2013-04-08")) {
		t.Fatalf("expected start to mirror end, got %+v", changes)
	}
}

func TestCloseWithoutCommitOnlyClearsHover(t *testing.T) {
	t.Parallel()

	p := NewPicker("s1", true)
	p.Hover(RoleEnd, day("2013-04-02"))
	if changes := p.Close(RoleEnd, now); changes != nil {
		t.Fatalf("nothing committed, expected no changes, got %+v", changes)
	}
	if !p.End().Hovered.IsZero() {
		t.Fatalf("hover should reset")
	}
}

func TestSingleCalendarIgnoresEndRole(t *testing.T) {
	t.Parallel()

	p := NewPicker("s1", false)
	if p.Commit(RoleEnd, day("2013-01-01"), now) != nil || p.Hover(RoleEnd, day("2013-01-01")) {
		t.Fatalf("end role must be inert in single-calendar mode")
	}
	if changes := p.Commit(RoleStart, day("2013-01-01"), now); len(changes) != 1 {
		t.Fatalf("start commit should work: %+v", changes)
	}
	if p.Close(RoleStart, now) != nil {
		t.Fatalf("single calendar close never snaps")
	}
}

func TestHoverReportsChange(t *testing.T) {
	t.Parallel()

	p := NewPicker("s1", true)
	if !p.Hover(RoleStart, day("2013-01-05")) {
		t.Fatalf("first hover should change state")
	}
	if p.Hover(RoleStart, day("2013-01-05")) {
		t.Fatalf("same hover should not change state")
	}
	if !p.ClearHover(RoleStart) || p.ClearHover(RoleStart) {
		t.Fatalf("clear hover should change state once")
	}
}

func TestParseRole(t *testing.T) {
	t.Parallel()

	if r, err := ParseRole(" END "); err != nil || r != RoleEnd {
		t.Fatalf("got %q %v", r, err)
	}
	if r, _ := ParseRole(""); r != RoleStart {
		t.Fatalf("empty role should default to start")
	}
	if _, err := ParseRole("middle"); err != ErrUnknownRole {
		t.Fatalf("expected ErrUnknownRole, got %v", err)
	}
}
