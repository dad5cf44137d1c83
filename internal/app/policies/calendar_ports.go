package policies

import (
	"context"
	"io"

	"staycal/internal/domain/calendar"
)

// CalendarCodec converts between stored payloads and iCalendar documents.
type CalendarCodec interface {
	// Encode renders the reservations found in days as one VEVENT each.
	Encode(id calendar.PropertyID, days []calendar.DayRecord, reservations calendar.Reservations) ([]byte, error)
	// Decode turns a feed into a payload; recurring events are expanded
	// inside window.
	Decode(r io.Reader, window calendar.Bounds) (calendar.Payload, error)
}

// SnapshotStore keeps published calendar documents and returns where they
// can be fetched from.
type SnapshotStore interface {
	Put(ctx context.Context, key string, body []byte, contentType string) (string, error)
}
