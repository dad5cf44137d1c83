package sessions

import (
	"context"
	"errors"

	"staycal/internal/app/dto"
	"staycal/internal/app/queries"
	"staycal/internal/domain/calendar"
	"staycal/internal/domain/selection"
)

const GetViewKey = "sessions.view"

// maxViewMonths caps an explicit From..To range at one fetched window plus
// the month it is anchored in.
const maxViewMonths = 2*calendar.BoundsMonths + 1

var errViewRange = errors.New("sessions: view range is inverted or longer than the bounds window")

// GetViewQuery renders day views for From..To, or for the visible months
// when no range is given.
type GetViewQuery struct {
	SessionID string `validate:"required"`
	Role      string
	From      string
	To        string
}

func (q GetViewQuery) Key() string { return GetViewKey }

type GetViewHandler struct {
	Sessions Store
}

func (h *GetViewHandler) Handle(ctx context.Context, q GetViewQuery) (dto.SessionView, error) {
	s, err := h.Sessions.Get(ctx, q.SessionID)
	if err != nil {
		return dto.SessionView{}, err
	}
	role, err := selection.ParseRole(q.Role)
	if err != nil {
		return dto.SessionView{}, err
	}
	if role == selection.RoleEnd && !s.Widget.TwoCalendars() {
		role = selection.RoleStart
	}

	var views []dto.DayView
	if q.From == "" && q.To == "" {
		views = dto.MapDayViews(s.Widget.Render(role))
	} else {
		from, err := calendar.ParseDate(q.From)
		if err != nil {
			return dto.SessionView{}, errors.Join(ErrInvalidDate, err)
		}
		to, err := calendar.ParseDate(q.To)
		if err != nil {
			return dto.SessionView{}, errors.Join(ErrInvalidDate, err)
		}
		if to.Before(from) || to.After(from.AddMonths(maxViewMonths)) {
			return dto.SessionView{}, errors.Join(ErrInvalidDate, errViewRange)
		}
		views = dto.MapDayViews(s.Widget.View(role, from, to))
	}
	return dto.SessionView{Session: s.Snapshot(), Role: string(role), Days: views}, nil
}

var _ queries.Handler[GetViewQuery, dto.SessionView] = (*GetViewHandler)(nil)
