package calendar

import "time"

type CalendarImported struct {
	PropertyID   string
	Mode         ImportMode
	Source       string
	Entries      int
	Reservations int
	At           time.Time
}

func (e CalendarImported) EventName() string     { return "calendar.imported" }
func (e CalendarImported) AggregateID() string   { return e.PropertyID }
func (e CalendarImported) OccurredAt() time.Time { return e.At }

type CalendarPublished struct {
	PropertyID string
	Location   string
	At         time.Time
}

func (e CalendarPublished) EventName() string     { return "calendar.published" }
func (e CalendarPublished) AggregateID() string   { return e.PropertyID }
func (e CalendarPublished) OccurredAt() time.Time { return e.At }

func CalendarImportedEvent(id PropertyID, mode ImportMode, source string, entries, reservations int, at time.Time) CalendarImported {
	return CalendarImported{PropertyID: string(id), Mode: mode, Source: source, Entries: entries, Reservations: reservations, At: at.UTC()}
}

func CalendarPublishedEvent(id PropertyID, location string, at time.Time) CalendarPublished {
	return CalendarPublished{PropertyID: string(id), Location: location, At: at.UTC()}
}
