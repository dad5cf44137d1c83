package calendar

import (
	"context"
	"errors"
	"strings"
	"time"

	"staycal/internal/domain/shared/events"
)

var (
	ErrPropertyNotFound = errors.New("calendar: property not found")
	ErrEmptyPropertyID  = errors.New("calendar: property id is required")
	// ErrVersionConflict is returned by repositories when the stored calendar
	// moved on since it was loaded.
	ErrVersionConflict = errors.New("calendar: version conflict")
)

type PropertyID string

func ParsePropertyID(raw string) (PropertyID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrEmptyPropertyID
	}
	return PropertyID(raw), nil
}

// ImportMode decides how an incoming payload meets the stored one.
type ImportMode string

const (
	ImportMerge   ImportMode = "merge"
	ImportReplace ImportMode = "replace"
)

// PropertyCalendar is the stored availability payload of one property.
type PropertyCalendar struct {
	PropertyID PropertyID
	Payload    Payload
	Version    int64
	UpdatedAt  time.Time
	events.EventRecorder
}

type Repository interface {
	Calendar(ctx context.Context, id PropertyID) (*PropertyCalendar, error)
	Save(ctx context.Context, calendar *PropertyCalendar) error
}

func NewPropertyCalendar(id PropertyID) *PropertyCalendar {
	return &PropertyCalendar{PropertyID: id}
}

// Import folds p into the stored payload and records CalendarImported.
func (c *PropertyCalendar) Import(p Payload, mode ImportMode, source string, now time.Time) {
	switch mode {
	case ImportReplace:
		c.Payload = Payload{Calendar: append(Table(nil), p.Calendar...), Reservations: p.Reservations.Clone()}
	default:
		mode = ImportMerge
		c.Payload = c.Payload.Merge(p)
	}
	c.Version++
	c.UpdatedAt = now.UTC()
	c.Record(CalendarImportedEvent(c.PropertyID, mode, source, len(p.Calendar), p.Reservations.Len(), now))
}

// Window returns the stored payload restricted to b.
func (c *PropertyCalendar) Window(b Bounds) Payload {
	return c.Payload.Window(b)
}

// Days resolves the part of the calendar that falls inside b.
func (c *PropertyCalendar) Days(b Bounds) ([]DayRecord, []MalformedEntry) {
	w := c.Window(b)
	return ResolveReport(w.Calendar, w.Reservations)
}

func (c *PropertyCalendar) MarkPublished(location string, now time.Time) {
	c.Record(CalendarPublishedEvent(c.PropertyID, location, now))
}
