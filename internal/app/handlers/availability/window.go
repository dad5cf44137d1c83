package availability

import (
	"errors"
	"fmt"
	"time"

	"staycal/internal/domain/calendar"
)

var ErrInvalidWindow = errors.New("availability: invalid date window")

// windowFor turns the optional startDate/endDate pair of a request into
// bounds. With neither given the default ±12 month window around today is used.
func windowFor(start, end string, now time.Time) (calendar.Bounds, error) {
	if start == "" && end == "" {
		return calendar.NewBounds(calendar.FromTime(now)), nil
	}
	s, err := calendar.ParseDate(start)
	if err != nil {
		return calendar.Bounds{}, fmt.Errorf("%w: startDate %q", ErrInvalidWindow, start)
	}
	e, err := calendar.ParseDate(end)
	if err != nil {
		return calendar.Bounds{}, fmt.Errorf("%w: endDate %q", ErrInvalidWindow, end)
	}
	if e.Before(s) {
		return calendar.Bounds{}, fmt.Errorf("%w: endDate before startDate", ErrInvalidWindow)
	}
	return calendar.Bounds{Start: s, End: e, Anchor: s}, nil
}

func clock(now func() time.Time) time.Time {
	if now == nil {
		return time.Now()
	}
	return now()
}
