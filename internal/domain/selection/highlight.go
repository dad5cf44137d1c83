package selection

import "staycal/internal/domain/calendar"

// Highlight is the range shading a displayed day receives.
type Highlight int

const (
	HighlightNone Highlight = iota
	HighlightInterior
	HighlightStartCap
	HighlightEndCap
)

func (h Highlight) String() string {
	switch h {
	case HighlightInterior:
		return "interior"
	case HighlightStartCap:
		return "start"
	case HighlightEndCap:
		return "end"
	default:
		return "none"
	}
}

// Classify shades d as seen from role's calendar.
func (p *Picker) Classify(role Role, d calendar.Date) Highlight {
	return Classify(&p.start, &p.end, role, p.TwoCalendars, d)
}

// Classify is the pure rule set behind Picker.Classify. In single-calendar
// mode only the committed start date is marked.
func Classify(start, end *State, role Role, twoCalendars bool, d calendar.Date) Highlight {
	if d.IsZero() {
		return HighlightNone
	}
	if !twoCalendars {
		if !start.Committed.IsZero() && d.Equal(start.Committed) {
			return HighlightStartCap
		}
		return HighlightNone
	}
	if role == RoleEnd {
		return classifyEnd(start, end, d)
	}
	return classifyStart(start, end, d)
}

func classifyStart(start, end *State, d calendar.Date) Highlight {
	cs, ce, hs := start.Committed, end.Committed, start.Hovered
	switch {
	case between(cs, d, ce),
		between(hs, d, cs),
		set(cs) && cs.Equal(ce) && d.Equal(cs),
		set(hs) && d.Equal(cs) && hs.Before(cs):
		return HighlightInterior
	case set(cs) && d.Equal(cs), set(hs) && d.Equal(hs):
		return HighlightStartCap
	case set(ce) && d.Equal(ce):
		return HighlightEndCap
	}
	return HighlightNone
}

func classifyEnd(start, end *State, d calendar.Date) Highlight {
	cs, ce, he := start.Committed, end.Committed, end.Hovered
	switch {
	case between(cs, d, he),
		between(cs, d, ce),
		set(cs) && cs.Equal(ce) && d.Equal(cs):
		return HighlightInterior
	case set(cs) && d.Equal(cs):
		return HighlightStartCap
	case set(ce) && d.Equal(ce), set(he) && d.Equal(he):
		return HighlightEndCap
	}
	return HighlightNone
}

// between reports lo < d < hi with both bounds set.
func between(lo, d, hi calendar.Date) bool {
	return set(lo) && set(hi) && d.After(lo) && d.Before(hi)
}

func set(d calendar.Date) bool { return !d.IsZero() }
