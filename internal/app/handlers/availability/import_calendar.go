package availability

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"staycal/internal/app/commands"
	"staycal/internal/app/dto"
	"staycal/internal/app/outbox"
	"staycal/internal/app/policies"
	"staycal/internal/domain/calendar"
)

const ImportCalendarKey = "availability.import"

const (
	FormatJSON = "json"
	FormatICS  = "ics"
)

var ErrUnsupportedFormat = errors.New("availability: unsupported import format")

// ImportCalendarCommand stores a payload (JSON) or a feed (ICS) for a
// property. Merge keeps existing keys that the import does not mention.
type ImportCalendarCommand struct {
	PropertyID string `validate:"required"`
	Format     string `validate:"required,oneof=json ics"`
	Mode       string `validate:"omitempty,oneof=merge replace"`
	Source     string
	Body       []byte `validate:"required"`
	RequestKey string
}

func (c ImportCalendarCommand) Key() string            { return ImportCalendarKey }
func (c ImportCalendarCommand) Protected() bool        { return true }
func (c ImportCalendarCommand) IdempotencyKey() string { return c.RequestKey }
func (c ImportCalendarCommand) ResultPrototype() any   { return &dto.ImportResult{} }

type ImportCalendarHandler struct {
	Calendars calendar.Repository
	Codec     policies.CalendarCodec
	Outbox    outbox.Outbox
	Encoder   outbox.EventEncoder
	Now       func() time.Time
}

func (h *ImportCalendarHandler) Handle(ctx context.Context, cmd ImportCalendarCommand) (*dto.ImportResult, error) {
	id, err := calendar.ParsePropertyID(cmd.PropertyID)
	if err != nil {
		return nil, err
	}
	now := clock(h.Now)
	payload, err := h.decode(cmd, now)
	if err != nil {
		return nil, err
	}

	cal, err := h.Calendars.Calendar(ctx, id)
	switch {
	case errors.Is(err, calendar.ErrPropertyNotFound):
		cal = calendar.NewPropertyCalendar(id)
	case err != nil:
		return nil, err
	}

	mode := calendar.ImportMode(cmd.Mode)
	if mode != calendar.ImportReplace {
		mode = calendar.ImportMerge
	}
	source := cmd.Source
	if source == "" {
		source = cmd.Format
	}
	cal.Import(payload, mode, source, now)
	if err := h.Calendars.Save(ctx, cal); err != nil {
		return nil, err
	}
	if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.Encoder, cal.Drain()); err != nil {
		return nil, err
	}
	return &dto.ImportResult{
		PropertyID:   string(id),
		Mode:         string(mode),
		Entries:      len(payload.Calendar),
		Reservations: payload.Reservations.Len(),
		Version:      cal.Version,
		UpdatedAt:    cal.UpdatedAt,
	}, nil
}

func (h *ImportCalendarHandler) decode(cmd ImportCalendarCommand, now time.Time) (calendar.Payload, error) {
	switch cmd.Format {
	case FormatJSON:
		var p calendar.Payload
		if err := json.Unmarshal(cmd.Body, &p); err != nil {
			return calendar.Payload{}, fmt.Errorf("availability: decode payload: %w", err)
		}
		return p, nil
	case FormatICS:
		if h.Codec == nil {
			return calendar.Payload{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, cmd.Format)
		}
		return h.Codec.Decode(bytes.NewReader(cmd.Body), calendar.NewBounds(calendar.FromTime(now)))
	default:
		return calendar.Payload{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, cmd.Format)
	}
}

var _ commands.Handler[ImportCalendarCommand, *dto.ImportResult] = (*ImportCalendarHandler)(nil)
