package availability

import (
	"context"
	"time"

	"staycal/internal/app/queries"
	"staycal/internal/domain/calendar"
)

const GetPayloadKey = "availability.payload"

// GetPayloadQuery is the widget's fetch: the stored payload of one property
// restricted to a window.
type GetPayloadQuery struct {
	PropertyID string `validate:"required"`
	StartDate  string
	EndDate    string
}

func (q GetPayloadQuery) Key() string { return GetPayloadKey }

type GetPayloadHandler struct {
	Calendars calendar.Repository
	Now       func() time.Time
}

func (h *GetPayloadHandler) Handle(ctx context.Context, q GetPayloadQuery) (calendar.Payload, error) {
	id, err := calendar.ParsePropertyID(q.PropertyID)
	if err != nil {
		return calendar.Payload{}, err
	}
	b, err := windowFor(q.StartDate, q.EndDate, clock(h.Now))
	if err != nil {
		return calendar.Payload{}, err
	}
	cal, err := h.Calendars.Calendar(ctx, id)
	if err != nil {
		return calendar.Payload{}, err
	}
	return cal.Window(b), nil
}

var _ queries.Handler[GetPayloadQuery, calendar.Payload] = (*GetPayloadHandler)(nil)
