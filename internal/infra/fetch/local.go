package fetch

import (
	"context"

	"staycal/internal/app/handlers/availability"
	"staycal/internal/app/queries"
	"staycal/internal/app/widget"
	"staycal/internal/domain/calendar"
)

// QueryFetcher serves sessions from this process's own payload query, so
// hosted sessions see exactly what the public endpoint would return.
type QueryFetcher struct {
	Queries queries.Bus
}

func (f QueryFetcher) Fetch(ctx context.Context, req widget.FetchRequest) (calendar.Payload, error) {
	return queries.Ask[availability.GetPayloadQuery, calendar.Payload](ctx, f.Queries, availability.GetPayloadQuery{
		PropertyID: req.EntityID,
		StartDate:  req.Bounds.Start.String(),
		EndDate:    req.Bounds.End.String(),
	})
}

var _ widget.Fetcher = QueryFetcher{}
