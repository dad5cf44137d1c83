package sessions

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"staycal/internal/app/commands"
	"staycal/internal/app/dto"
	"staycal/internal/app/widget"
	"staycal/internal/domain/calendar"
)

const OpenSessionKey = "sessions.open"

// OpenSessionCommand creates a picker widget for a property and issues its
// first fetch. Wait blocks until that fetch has completed.
type OpenSessionCommand struct {
	PropertyID      string
	TwoCalendars    bool
	Months          []int `validate:"omitempty,dive,min=1,max=12"`
	DefaultDate     string
	Locale          string
	HoverClass      string
	HoverClassStart string
	HoverClassEnd   string
	Wait            bool
}

func (c OpenSessionCommand) Key() string { return OpenSessionKey }

type OpenSessionHandler struct {
	Sessions Store
	Fetcher  widget.Fetcher
	Endpoint string
	// Baseline is resolved into every session's default days.
	Baseline calendar.Payload
	Logger   *slog.Logger
	Now      func() time.Time
	NewID    func() string
}

func (h *OpenSessionHandler) Handle(ctx context.Context, cmd OpenSessionCommand) (dto.Session, error) {
	opts := widget.DefaultOptions()
	if cmd.DefaultDate != "" {
		d, err := calendar.ParseDate(cmd.DefaultDate)
		if err != nil {
			return dto.Session{}, errors.Join(ErrInvalidDate, err)
		}
		opts.DefaultDate = d
	}
	newID := h.NewID
	if newID == nil {
		newID = uuid.NewString
	}

	s := &Session{ID: newID(), PropertyID: cmd.PropertyID}
	opts.EntityID = cmd.PropertyID
	opts.Fetch = cmd.PropertyID != ""
	if h.Endpoint != "" {
		opts.Endpoint = h.Endpoint
	}
	if len(cmd.Months) > 0 {
		opts.Months = cmd.Months
	}
	if cmd.Locale != "" {
		opts.Locale = cmd.Locale
	}
	opts.TwoCalendars = cmd.TwoCalendars
	opts.HoverClass = cmd.HoverClass
	opts.HoverClassStart = cmd.HoverClassStart
	opts.HoverClassEnd = cmd.HoverClassEnd
	opts.Baseline = h.Baseline.Calendar
	opts.BaselineReservations = h.Baseline.Reservations
	opts.Notify = s.notify
	opts.Logger = h.Logger
	if h.Now != nil {
		opts.Now = h.Now
	}

	s.Widget = widget.New(s.ID, opts, h.Fetcher, nil)
	if err := h.Sessions.Save(ctx, s); err != nil {
		return dto.Session{}, err
	}
	// The fetch outlives the request that opened the session.
	s.Widget.Load(context.WithoutCancel(ctx))
	if cmd.Wait {
		s.Widget.Wait()
	}
	return s.Snapshot(), nil
}

var _ commands.Handler[OpenSessionCommand, dto.Session] = (*OpenSessionHandler)(nil)
