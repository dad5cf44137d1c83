package selection

import (
	"errors"
	"strings"
	"time"

	"staycal/internal/domain/calendar"
	"staycal/internal/domain/shared/events"
)

var ErrUnknownRole = errors.New("selection: role must be start or end")

// Role names one of the two linked calendars.
type Role string

const (
	RoleStart Role = "start"
	RoleEnd   Role = "end"
)

func ParseRole(raw string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(raw))) {
	case RoleStart, "":
		return RoleStart, nil
	case RoleEnd:
		return RoleEnd, nil
	default:
		return "", ErrUnknownRole
	}
}

// State is the selection of one calendar. Zero dates mean "none".
type State struct {
	Committed calendar.Date `json:"committed"`
	Hovered   calendar.Date `json:"hovered"`
}

// Change reports that a role's committed date moved.
type Change struct {
	Role Role
	From calendar.Date
	To   calendar.Date
}

// Picker tracks hover and committed dates for a start calendar and, in
// two-calendar mode, an end calendar. It is not safe for concurrent use.
type Picker struct {
	ID           string
	TwoCalendars bool
	start        State
	end          State
	events.EventRecorder
}

func NewPicker(id string, twoCalendars bool) *Picker {
	return &Picker{ID: id, TwoCalendars: twoCalendars}
}

func (p *Picker) State(role Role) State {
	if role == RoleEnd {
		return p.end
	}
	return p.start
}

func (p *Picker) Start() State { return p.start }
func (p *Picker) End() State   { return p.end }

// Hover moves role's hovered date and reports whether it changed.
func (p *Picker) Hover(role Role, d calendar.Date) bool {
	s := p.slot(role)
	if s == nil || s.Hovered.Equal(d) {
		return false
	}
	s.Hovered = d
	return true
}

func (p *Picker) ClearHover(role Role) bool {
	return p.Hover(role, calendar.Date{})
}

// Commit accepts d for role. When the pair ends up inverted the other role is
// snapped onto d. Only actual value changes are returned.
func (p *Picker) Commit(role Role, d calendar.Date, now time.Time) []Change {
	if p.slot(role) == nil {
		return nil
	}
	changes := p.set(role, d, now, nil)
	if !p.TwoCalendars {
		return changes
	}
	start, end := p.start.Committed, p.end.Committed
	switch {
	case role == RoleEnd && !start.IsZero() && end.Before(start):
		changes = p.set(RoleStart, end, now, changes)
	case role == RoleStart && !end.IsZero() && start.After(end):
		changes = p.set(RoleEnd, start, now, changes)
	}
	return changes
}

// Close ends interaction with role's calendar: its hover is dropped and an
// unset or inverted partner is snapped onto role's committed date.
func (p *Picker) Close(role Role, now time.Time) []Change {
	s := p.slot(role)
	if s == nil {
		return nil
	}
	s.Hovered = calendar.Date{}
	if !p.TwoCalendars || s.Committed.IsZero() {
		return nil
	}
	start, end := p.start.Committed, p.end.Committed
	switch role {
	case RoleEnd:
		if start.IsZero() || start.After(end) {
			return p.set(RoleStart, end, now, nil)
		}
	case RoleStart:
		if end.IsZero() || end.Before(start) {
			return p.set(RoleEnd, start, now, nil)
		}
	}
	return nil
}

func (p *Picker) set(role Role, d calendar.Date, now time.Time, changes []Change) []Change {
	s := p.slot(role)
	if s.Committed.Equal(d) {
		return changes
	}
	c := Change{Role: role, From: s.Committed, To: d}
	s.Committed = d
	p.Record(ChangedEvent(p.ID, c, now))
	return append(changes, c)
}

func (p *Picker) slot(role Role) *State {
	switch role {
	case RoleStart:
		return &p.start
	case RoleEnd:
		if p.TwoCalendars {
			return &p.end
		}
	}
	return nil
}
