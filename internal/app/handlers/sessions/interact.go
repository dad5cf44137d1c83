package sessions

import (
	"context"
	"time"

	"staycal/internal/app/commands"
	"staycal/internal/app/dto"
	"staycal/internal/app/outbox"
	"staycal/internal/domain/selection"
)

const (
	HoverKey    = "sessions.hover"
	LeaveKey    = "sessions.leave"
	ClickKey    = "sessions.click"
	CloseKey    = "sessions.close"
	NavigateKey = "sessions.navigate"
)

type HoverCommand struct {
	SessionID string `validate:"required"`
	Role      string
	Date      string `validate:"required"`
	X, Y      float64
	Width     float64 `validate:"gte=0"`
}

func (c HoverCommand) Key() string { return HoverKey }

type LeaveCommand struct {
	SessionID string `validate:"required"`
}

func (c LeaveCommand) Key() string { return LeaveKey }

type ClickCommand struct {
	SessionID string `validate:"required"`
	Role      string
	Date      string `validate:"required"`
}

func (c ClickCommand) Key() string { return ClickKey }

type CloseCalendarCommand struct {
	SessionID string `validate:"required"`
	Role      string
}

func (c CloseCalendarCommand) Key() string { return CloseKey }

// NavigateCommand reports that the visible months now start at Year/Month.
type NavigateCommand struct {
	SessionID string `validate:"required"`
	Year      int    `validate:"required"`
	Month     int    `validate:"min=1,max=12"`
	Wait      bool
}

func (c NavigateCommand) Key() string { return NavigateKey }

// Handler serves every interaction with an open session.
type Handler struct {
	Sessions Store
	Outbox   outbox.Outbox
	Encoder  outbox.EventEncoder
}

func (h *Handler) Hover(ctx context.Context, cmd HoverCommand) (dto.Session, error) {
	s, err := h.Sessions.Get(ctx, cmd.SessionID)
	if err != nil {
		return dto.Session{}, err
	}
	role, date, err := parseRoleDate(cmd.Role, cmd.Date)
	if err != nil {
		return dto.Session{}, err
	}
	s.Widget.Hover(role, date, selection.Pointer{X: cmd.X, Y: cmd.Y, Width: cmd.Width})
	return s.Snapshot(), nil
}

func (h *Handler) Leave(ctx context.Context, cmd LeaveCommand) (dto.Session, error) {
	s, err := h.Sessions.Get(ctx, cmd.SessionID)
	if err != nil {
		return dto.Session{}, err
	}
	s.Widget.Leave()
	return s.Snapshot(), nil
}

func (h *Handler) Click(ctx context.Context, cmd ClickCommand) (dto.Session, error) {
	s, err := h.Sessions.Get(ctx, cmd.SessionID)
	if err != nil {
		return dto.Session{}, err
	}
	role, date, err := parseRoleDate(cmd.Role, cmd.Date)
	if err != nil {
		return dto.Session{}, err
	}
	changes := s.Widget.Click(role, date)
	if err := flush(ctx, h.Outbox, h.Encoder, s); err != nil {
		return dto.Session{}, err
	}
	out := s.Snapshot()
	out.Changes = dto.MapChanges(changes)
	return out, nil
}

func (h *Handler) Close(ctx context.Context, cmd CloseCalendarCommand) (dto.Session, error) {
	s, err := h.Sessions.Get(ctx, cmd.SessionID)
	if err != nil {
		return dto.Session{}, err
	}
	role, err := selection.ParseRole(cmd.Role)
	if err != nil {
		return dto.Session{}, err
	}
	changes := s.Widget.Close(role)
	if err := flush(ctx, h.Outbox, h.Encoder, s); err != nil {
		return dto.Session{}, err
	}
	out := s.Snapshot()
	out.Changes = dto.MapChanges(changes)
	return out, nil
}

func (h *Handler) Navigate(ctx context.Context, cmd NavigateCommand) (dto.Session, error) {
	s, err := h.Sessions.Get(ctx, cmd.SessionID)
	if err != nil {
		return dto.Session{}, err
	}
	refetched := s.Widget.Navigate(context.WithoutCancel(ctx), cmd.Year, time.Month(cmd.Month))
	if refetched && cmd.Wait {
		s.Widget.Wait()
	}
	out := s.Snapshot()
	out.Refetched = refetched
	return out, nil
}

// Register wires every session command onto bus.
func Register(bus *commands.InMemoryBus, open *OpenSessionHandler, h *Handler) {
	commands.RegisterHandler[OpenSessionCommand, dto.Session](bus, OpenSessionKey, open)
	commands.RegisterHandler[HoverCommand, dto.Session](bus, HoverKey, commands.HandlerFunc[HoverCommand, dto.Session](h.Hover))
	commands.RegisterHandler[LeaveCommand, dto.Session](bus, LeaveKey, commands.HandlerFunc[LeaveCommand, dto.Session](h.Leave))
	commands.RegisterHandler[ClickCommand, dto.Session](bus, ClickKey, commands.HandlerFunc[ClickCommand, dto.Session](h.Click))
	commands.RegisterHandler[CloseCalendarCommand, dto.Session](bus, CloseKey, commands.HandlerFunc[CloseCalendarCommand, dto.Session](h.Close))
	commands.RegisterHandler[NavigateCommand, dto.Session](bus, NavigateKey, commands.HandlerFunc[NavigateCommand, dto.Session](h.Navigate))
}
