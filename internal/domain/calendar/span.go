package calendar

import "errors"

var ErrInvalidSpan = errors.New("calendar: span end must not precede start")

// Span is an inclusive run of calendar days, e.g. a stay from its check-in
// afternoon to its check-out morning.
type Span struct {
	Start Date
	End   Date
}

func NewSpan(start, end Date) (Span, error) {
	s := Span{Start: start, End: end}
	if err := s.Validate(); err != nil {
		return Span{}, err
	}
	return s, nil
}

func (s Span) Validate() error {
	if s.Start.IsZero() || s.End.IsZero() {
		return ErrInvalidSpan
	}
	if s.End.Before(s.Start) {
		return ErrInvalidSpan
	}
	return nil
}

// Nights is the number of nights slept, zero for a same-day span.
func (s Span) Nights() int {
	return s.Start.DaysUntil(s.End)
}

func (s Span) Overlaps(other Span) bool {
	return !s.Start.After(other.End) && !other.Start.After(s.End)
}

func (s Span) ContainsDate(d Date) bool {
	return !d.Before(s.Start) && !d.After(s.End)
}

// Interior reports whether d lies strictly between the two boundaries.
func (s Span) Interior(d Date) bool {
	return d.After(s.Start) && d.Before(s.End)
}
