package availability

import (
	"context"
	"time"

	"staycal/internal/app/dto"
	"staycal/internal/app/policies"
	"staycal/internal/app/queries"
	"staycal/internal/domain/calendar"
)

const (
	ExportICSKey   = "availability.export_ics"
	ICSContentType = "text/calendar; charset=utf-8"
)

type ExportICSQuery struct {
	PropertyID string `validate:"required"`
	StartDate  string
	EndDate    string
}

func (q ExportICSQuery) Key() string { return ExportICSKey }

type ExportICSHandler struct {
	Calendars calendar.Repository
	Codec     policies.CalendarCodec
	Now       func() time.Time
}

func (h *ExportICSHandler) Handle(ctx context.Context, q ExportICSQuery) (dto.CalendarDocument, error) {
	id, err := calendar.ParsePropertyID(q.PropertyID)
	if err != nil {
		return dto.CalendarDocument{}, err
	}
	b, err := windowFor(q.StartDate, q.EndDate, clock(h.Now))
	if err != nil {
		return dto.CalendarDocument{}, err
	}
	cal, err := h.Calendars.Calendar(ctx, id)
	if err != nil {
		return dto.CalendarDocument{}, err
	}
	body, err := render(h.Codec, cal, b)
	if err != nil {
		return dto.CalendarDocument{}, err
	}
	return dto.CalendarDocument{PropertyID: string(id), ContentType: ICSContentType, Body: body}, nil
}

func render(codec policies.CalendarCodec, cal *calendar.PropertyCalendar, b calendar.Bounds) ([]byte, error) {
	window := cal.Window(b)
	days := calendar.Resolve(window.Calendar, window.Reservations)
	return codec.Encode(cal.PropertyID, days, window.Reservations)
}

var _ queries.Handler[ExportICSQuery, dto.CalendarDocument] = (*ExportICSHandler)(nil)
