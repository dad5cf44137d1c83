package inbox

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/IBM/sarama"

	"staycal/internal/app/commands"
	"staycal/internal/app/dto"
	availabilityapp "staycal/internal/app/handlers/availability"
	"staycal/internal/app/middleware"
)

var ErrMissingProperty = errors.New("inbox: message has no property-id header")

// FeedHandler imports calendar feeds published on Kafka. The message value is
// the payload (format "json") or an iCalendar document (format "ics"); the
// property-id, format and mode travel as headers.
type FeedHandler struct {
	Commands      commands.Bus
	Inbox         Deduper
	OperatorToken string
	Logger        *slog.Logger
}

func (h *FeedHandler) Handle(ctx context.Context, msg *sarama.ConsumerMessage) error {
	headers := headerMap(msg.Headers)
	eventID := headers["ce_id"]
	if eventID == "" {
		eventID = fmt.Sprintf("%s/%d/%d", msg.Topic, msg.Partition, msg.Offset)
	}
	seen, err := h.Inbox.Seen(ctx, eventID)
	if err != nil {
		return err
	}
	if seen {
		return nil
	}

	propertyID := headers["property-id"]
	if propertyID == "" {
		propertyID = string(msg.Key)
	}
	if propertyID == "" {
		// Redelivery cannot fix a message without a target, so it is acknowledged.
		h.log().Warn("calendar feed dropped", "event", eventID, "err", ErrMissingProperty)
		return nil
	}
	format := strings.ToLower(headers["format"])
	if format == "" {
		format = availabilityapp.FormatJSON
	}

	cmd := availabilityapp.ImportCalendarCommand{
		PropertyID: propertyID,
		Format:     format,
		Mode:       strings.ToLower(headers["mode"]),
		Source:     "kafka:" + msg.Topic,
		Body:       msg.Value,
		RequestKey: eventID,
	}
	ctx = middleware.WithOperatorToken(ctx, h.OperatorToken)
	res, err := commands.Dispatch[availabilityapp.ImportCalendarCommand, *dto.ImportResult](ctx, h.Commands, cmd)
	if err != nil {
		return err
	}
	h.log().Info("calendar feed imported", "event", eventID, "property", res.PropertyID, "entries", res.Entries, "version", res.Version)
	return nil
}

func (h *FeedHandler) log() *slog.Logger {
	if h.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return h.Logger
}

func headerMap(hs []*sarama.RecordHeader) map[string]string {
	out := make(map[string]string, len(hs))
	for _, h := range hs {
		if h == nil {
			continue
		}
		out[strings.ToLower(string(h.Key))] = string(h.Value)
	}
	return out
}
