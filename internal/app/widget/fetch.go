package widget

import (
	"context"
	"fmt"
	"net/url"

	"staycal/internal/domain/calendar"
)

// FetchRequest asks the backend for one property's payload within bounds.
type FetchRequest struct {
	Endpoint string
	EntityID string
	Bounds   calendar.Bounds
}

// Path renders endpoint + entity id + ?startDate=&endDate=.
func (r FetchRequest) Path() string {
	return r.Endpoint + url.PathEscape(r.EntityID) +
		"?startDate=" + url.QueryEscape(r.Bounds.Start.String()) +
		"&endDate=" + url.QueryEscape(r.Bounds.End.String())
}

// Fetcher is the asynchronous data source. Implementations must honour ctx.
type Fetcher interface {
	Fetch(ctx context.Context, req FetchRequest) (calendar.Payload, error)
}

type FetcherFunc func(ctx context.Context, req FetchRequest) (calendar.Payload, error)

func (f FetcherFunc) Fetch(ctx context.Context, req FetchRequest) (calendar.Payload, error) {
	return f(ctx, req)
}

// Renderer paints the calendars. Refresh asks for a repaint; the renderer
// pulls day views through Widget.View.
type Renderer interface {
	Loading(on bool)
	Refresh()
}

type nopRenderer struct{}

func (nopRenderer) Loading(bool) {}
func (nopRenderer) Refresh()     {}

// FetchFailure is reported when the fetch collaborator fails. Previously
// fetched days stay in place.
type FetchFailure struct {
	EntityID string
	Bounds   calendar.Bounds
	Err      error
}

func (f *FetchFailure) Error() string {
	return fmt.Sprintf("widget: fetch %s %s..%s: %v", f.EntityID, f.Bounds.Start, f.Bounds.End, f.Err)
}

func (f *FetchFailure) Unwrap() error { return f.Err }
