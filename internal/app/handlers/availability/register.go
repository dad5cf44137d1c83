package availability

import (
	"staycal/internal/app/commands"
	"staycal/internal/app/dto"
	"staycal/internal/app/queries"
	"staycal/internal/domain/calendar"
)

// Handlers groups the availability handlers for registration.
type Handlers struct {
	Payload *GetPayloadHandler
	Days    *GetResolvedDaysHandler
	Export  *ExportICSHandler
	Import  *ImportCalendarHandler
	Publish *PublishICSHandler
}

func (h Handlers) Register(cmds *commands.InMemoryBus, qs *queries.InMemoryBus) {
	queries.RegisterHandler[GetPayloadQuery, calendar.Payload](qs, GetPayloadKey, h.Payload)
	queries.RegisterHandler[GetResolvedDaysQuery, dto.ResolvedDays](qs, GetResolvedDaysKey, h.Days)
	queries.RegisterHandler[ExportICSQuery, dto.CalendarDocument](qs, ExportICSKey, h.Export)
	commands.RegisterHandler[ImportCalendarCommand, *dto.ImportResult](cmds, ImportCalendarKey, h.Import)
	if h.Publish != nil {
		commands.RegisterHandler[PublishICSCommand, *dto.PublishResult](cmds, PublishICSKey, h.Publish)
	}
}
