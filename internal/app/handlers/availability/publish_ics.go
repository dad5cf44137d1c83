package availability

import (
	"context"
	"time"

	"staycal/internal/app/commands"
	"staycal/internal/app/dto"
	"staycal/internal/app/outbox"
	"staycal/internal/app/policies"
	"staycal/internal/domain/calendar"
)

const PublishICSKey = "availability.publish_ics"

// PublishICSCommand renders the default window of a property as ICS and
// uploads it to the snapshot store.
type PublishICSCommand struct {
	PropertyID string `validate:"required"`
	RequestKey string
}

func (c PublishICSCommand) Key() string            { return PublishICSKey }
func (c PublishICSCommand) Protected() bool        { return true }
func (c PublishICSCommand) IdempotencyKey() string { return c.RequestKey }
func (c PublishICSCommand) ResultPrototype() any   { return &dto.PublishResult{} }

type PublishICSHandler struct {
	Calendars calendar.Repository
	Codec     policies.CalendarCodec
	Snapshots policies.SnapshotStore
	Outbox    outbox.Outbox
	Encoder   outbox.EventEncoder
	Now       func() time.Time
}

// SnapshotKey is the object name a property's feed is published under.
func SnapshotKey(id calendar.PropertyID) string {
	return "calendars/" + string(id) + ".ics"
}

func (h *PublishICSHandler) Handle(ctx context.Context, cmd PublishICSCommand) (*dto.PublishResult, error) {
	id, err := calendar.ParsePropertyID(cmd.PropertyID)
	if err != nil {
		return nil, err
	}
	now := clock(h.Now)
	cal, err := h.Calendars.Calendar(ctx, id)
	if err != nil {
		return nil, err
	}
	body, err := render(h.Codec, cal, calendar.NewBounds(calendar.FromTime(now)))
	if err != nil {
		return nil, err
	}
	location, err := h.Snapshots.Put(ctx, SnapshotKey(id), body, ICSContentType)
	if err != nil {
		return nil, err
	}
	cal.MarkPublished(location, now)
	if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.Encoder, cal.Drain()); err != nil {
		return nil, err
	}
	return &dto.PublishResult{PropertyID: string(id), Location: location, Bytes: len(body)}, nil
}

var _ commands.Handler[PublishICSCommand, *dto.PublishResult] = (*PublishICSHandler)(nil)
