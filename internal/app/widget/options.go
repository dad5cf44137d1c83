package widget

import (
	"io"
	"log/slog"
	"time"

	"staycal/internal/domain/calendar"
	"staycal/internal/domain/selection"
)

// DefaultEndpoint is where availability payloads are fetched from.
const DefaultEndpoint = "/hai/availabilityCalendar/"

// CellRef identifies the day cell a callback fired for.
type CellRef struct {
	Role selection.Role
	Date calendar.Date
	Cell selection.Cell
}

type ClickFunc func(ref CellRef, day calendar.DayRecord)

type HoverFunc func(ref CellRef, reservations []calendar.DayRecord)

type HoverHandlers struct {
	On  HoverFunc
	Off HoverFunc
}

// Options configures one widget instance. The zero value of every callback
// is valid.
type Options struct {
	EntityID string
	Endpoint string
	Fetch    bool
	// Months is the month layout, e.g. [2] or [2, 3] for two rows.
	Months       []int
	DefaultDate  calendar.Date
	Locale       string
	TwoCalendars bool

	HoverClass      string
	HoverClassStart string
	HoverClassEnd   string

	Baseline             calendar.Table
	BaselineReservations calendar.Reservations

	Clicked map[calendar.Status]ClickFunc
	Hovered HoverHandlers
	Error   func(err error)
	Changed func(change selection.Change)
	// Notify is the generic notification raised on the widget root, named
	// after the event ("error", a status tag, "changed").
	Notify func(name string)
	// AfterShow runs after every refresh of the rendered calendars.
	AfterShow func()

	Logger *slog.Logger
	Now    func() time.Time
}

// DefaultOptions mirrors the stock widget: one month, fetching on, en_US,
// the default endpoint and no-op click handlers for the common statuses.
func DefaultOptions() Options {
	noop := func(CellRef, calendar.DayRecord) {}
	return Options{
		Endpoint: DefaultEndpoint,
		Fetch:    true,
		Months:   []int{1},
		Locale:   "en_US",
		Clicked: map[calendar.Status]ClickFunc{
			calendar.StatusInquiry:     noop,
			calendar.StatusUnavailable: noop,
			calendar.StatusHold:        noop,
			calendar.StatusReserve:     noop,
			calendar.StatusDelete:      noop,
		},
	}
}

func (o Options) withDefaults() Options {
	if o.Endpoint == "" {
		o.Endpoint = DefaultEndpoint
	}
	if len(o.Months) == 0 {
		o.Months = []int{1}
	}
	if o.Locale == "" {
		o.Locale = "en_US"
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return o
}
