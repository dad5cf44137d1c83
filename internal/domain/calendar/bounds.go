package calendar

import (
	"sync"
	"time"
)

// BoundsMonths is how far the fetched window reaches on each side of its anchor.
const BoundsMonths = 12

// Bounds is the date window for which data has been fetched.
type Bounds struct {
	Start  Date `json:"startDate"`
	End    Date `json:"endDate"`
	Anchor Date `json:"defaultDate"`
}

// NewBounds centres a window of ±12 months on anchor.
func NewBounds(anchor Date) Bounds {
	return Bounds{
		Start:  anchor.AddMonths(-BoundsMonths),
		End:    anchor.AddMonths(BoundsMonths),
		Anchor: anchor,
	}
}

// SameRange reports whether b and other cover the same dates, ignoring anchors.
func (b Bounds) SameRange(other Bounds) bool {
	return b.Start.Equal(other.Start) && b.End.Equal(other.End)
}

func (b Bounds) Contains(d Date) bool {
	return !d.Before(b.Start) && !d.After(b.End)
}

// NearEdge reports whether the visible months, starting at year/month and
// spanning monthsShown, leave less than one full month of fetched data on
// either side.
func (b Bounds) NearEdge(year int, month time.Month, monthsShown int) bool {
	if monthsShown < 1 {
		monthsShown = 1
	}
	farLeft := Date{Year: year, Month: month, Day: 1}
	farRight := farLeft.AddMonths(monthsShown - 1)
	monthsToLeft := b.Start.MonthsUntil(farLeft) - 1
	monthsToRight := farRight.MonthsUntil(b.End) - 1
	return monthsToLeft < 1 || monthsToRight < 1
}

// TotalMonths sums a multi-row month layout such as [2, 3].
func TotalMonths(layout ...int) int {
	total := 0
	for _, n := range layout {
		total += n
	}
	if total < 1 {
		return 1
	}
	return total
}

// Window holds the current bounds of one widget instance.
type Window struct {
	mu      sync.RWMutex
	current Bounds
}

// Set recentres the window on anchor and reports whether the covered range
// changed. Callers fetch only when it did.
func (w *Window) Set(anchor Date) (Bounds, bool) {
	next := NewBounds(anchor)
	w.mu.Lock()
	defer w.mu.Unlock()
	changed := !w.current.SameRange(next)
	w.current = next
	return next, changed
}

func (w *Window) Current() Bounds {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// WeekStart returns the first weekday for a locale. Every locale, en_US and
// pt_BR included, starts on Monday.
func WeekStart(string) time.Weekday {
	return time.Monday
}
