package availability

import (
	"context"
	"time"

	"staycal/internal/app/dto"
	"staycal/internal/app/queries"
	"staycal/internal/domain/calendar"
)

const GetResolvedDaysKey = "availability.days"

type GetResolvedDaysQuery struct {
	PropertyID string `validate:"required"`
	StartDate  string
	EndDate    string
}

func (q GetResolvedDaysQuery) Key() string { return GetResolvedDaysKey }

type GetResolvedDaysHandler struct {
	Calendars calendar.Repository
	Now       func() time.Time
}

func (h *GetResolvedDaysHandler) Handle(ctx context.Context, q GetResolvedDaysQuery) (dto.ResolvedDays, error) {
	id, err := calendar.ParsePropertyID(q.PropertyID)
	if err != nil {
		return dto.ResolvedDays{}, err
	}
	b, err := windowFor(q.StartDate, q.EndDate, clock(h.Now))
	if err != nil {
		return dto.ResolvedDays{}, err
	}
	cal, err := h.Calendars.Calendar(ctx, id)
	if err != nil {
		return dto.ResolvedDays{}, err
	}
	days, bad := cal.Days(b)
	return dto.MapResolvedDays(id, b, days, bad), nil
}

var _ queries.Handler[GetResolvedDaysQuery, dto.ResolvedDays] = (*GetResolvedDaysHandler)(nil)
