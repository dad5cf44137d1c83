package widget

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"staycal/internal/domain/calendar"
	"staycal/internal/domain/selection"
	"staycal/internal/domain/shared/events"
)

// Widget is one availability calendar (or linked start/end pair). It owns the
// fetched window, the resolved days and the selection state. Methods are safe
// for concurrent use; callbacks run without the widget lock held.
type Widget struct {
	opts     Options
	fetcher  Fetcher
	renderer Renderer
	log      *slog.Logger

	window calendar.Window
	wg     sync.WaitGroup

	mu        sync.Mutex
	defaults  []calendar.DayRecord
	fetched   []calendar.DayRecord
	loading   bool
	picker    *selection.Picker
	hoveredID string
	hoverRef  CellRef
	visible   calendar.Date
}

// New builds a widget. The baseline table is resolved immediately so default
// styling is available before any fetch. A nil renderer is allowed.
func New(id string, opts Options, fetcher Fetcher, renderer Renderer) *Widget {
	opts = opts.withDefaults()
	if renderer == nil {
		renderer = nopRenderer{}
	}
	w := &Widget{
		opts:     opts,
		fetcher:  fetcher,
		renderer: renderer,
		log:      opts.Logger.With("widget", id, "entity", opts.EntityID),
		picker:   selection.NewPicker(id, opts.TwoCalendars),
	}
	days, bad := calendar.ResolveReport(opts.Baseline, opts.BaselineReservations)
	w.defaults = days
	w.logMalformed("baseline", bad)
	return w
}

// Load establishes the initial bounds around the default date (today when
// unset) and issues the first fetch. Loading again with an unchanged window
// does not refetch.
func (w *Widget) Load(ctx context.Context) calendar.Bounds {
	anchor := w.opts.DefaultDate
	if anchor.IsZero() {
		anchor = calendar.FromTime(w.opts.Now())
	}
	w.mu.Lock()
	b, changed := w.window.Set(anchor)
	w.visible = anchor.FirstOfMonth()
	w.mu.Unlock()
	if changed {
		w.fetch(ctx, b)
	}
	return b
}

// Navigate reacts to the visible months moving to year/month. When fewer than
// one full month of data remains on either side the window is recentred on
// the new month and refetched. It reports whether a fetch was issued.
func (w *Widget) Navigate(ctx context.Context, year int, month time.Month) bool {
	visible := calendar.NewDate(year, month, 1)
	w.mu.Lock()
	w.visible = visible
	if !w.fetching() || !w.window.Current().NearEdge(year, month, calendar.TotalMonths(w.opts.Months...)) {
		w.mu.Unlock()
		return false
	}
	// The window only moves under w.mu so complete can compare and install
	// fetched days atomically.
	b, changed := w.window.Set(visible)
	w.mu.Unlock()
	if !changed {
		return false
	}
	w.fetch(ctx, b)
	return true
}

func (w *Widget) fetching() bool {
	return w.opts.Fetch && w.opts.EntityID != "" && w.fetcher != nil
}

func (w *Widget) fetch(ctx context.Context, b calendar.Bounds) {
	if !w.fetching() {
		return
	}
	w.mu.Lock()
	w.loading = true
	w.mu.Unlock()
	w.renderer.Loading(true)
	w.refresh()

	req := FetchRequest{Endpoint: w.opts.Endpoint, EntityID: w.opts.EntityID, Bounds: b}
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		payload, err := w.fetcher.Fetch(ctx, req)
		w.complete(req, payload, err)
	}()
}

func (w *Widget) complete(req FetchRequest, payload calendar.Payload, err error) {
	var failure *FetchFailure
	w.mu.Lock()
	if !w.window.Current().SameRange(req.Bounds) {
		w.mu.Unlock()
		w.log.Debug("stale fetch discarded", "start", req.Bounds.Start.String(), "end", req.Bounds.End.String())
		return
	}
	w.loading = false
	if err != nil {
		failure = &FetchFailure{EntityID: req.EntityID, Bounds: req.Bounds, Err: err}
	} else {
		days, bad := calendar.ResolveReport(payload.Calendar, payload.Reservations)
		w.fetched = days
		w.logMalformed(req.Path(), bad)
	}
	w.mu.Unlock()

	if failure != nil {
		w.log.Warn("calendar fetch failed", "path", req.Path(), "err", err)
		if w.opts.Error != nil {
			w.opts.Error(failure)
		}
		w.notify("error")
	}
	w.renderer.Loading(false)
	w.refresh()
}

// Wait blocks until every issued fetch has completed.
func (w *Widget) Wait() {
	w.wg.Wait()
}

// Days returns the default days followed by the fetched ones.
func (w *Widget) Days() []calendar.DayRecord {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.daysLocked()
}

func (w *Widget) daysLocked() []calendar.DayRecord {
	out := make([]calendar.DayRecord, 0, len(w.defaults)+len(w.fetched))
	out = append(out, w.defaults...)
	return append(out, w.fetched...)
}

func (w *Widget) Loading() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.loading
}

func (w *Widget) Bounds() calendar.Bounds {
	return w.window.Current()
}

// Visible is the first day of the first month on screen.
func (w *Widget) Visible() calendar.Date {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.visible
}

func (w *Widget) TwoCalendars() bool { return w.opts.TwoCalendars }

// WeekStart is the first column of the rendered month grid.
func (w *Widget) WeekStart() time.Weekday { return calendar.WeekStart(w.opts.Locale) }

// Selection returns the start and end calendar states.
func (w *Widget) Selection() (selection.State, selection.State) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.picker.Start(), w.picker.End()
}

// HoveredReservation is the id currently under the pointer, if any.
func (w *Widget) HoveredReservation() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.hoveredID
}

// DrainEvents hands over the selection events recorded since the last call.
func (w *Widget) DrainEvents() []events.DomainEvent {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.picker.Drain()
}

// Hover moves the pointer over date in role's calendar. The pointer position
// picks between two reservations sharing the day.
func (w *Widget) Hover(role selection.Role, date calendar.Date, ptr selection.Pointer) {
	var on, off func()

	w.mu.Lock()
	moved := w.picker.Hover(role, date)
	days := w.daysLocked()
	cell := selection.CellFor(days, date)
	ref := CellRef{Role: role, Date: date, Cell: cell}
	id, _, ok := cell.Target(ptr)
	if ok && id != w.hoveredID {
		off = w.offLocked(days)
		w.hoveredID = id
		w.hoverRef = ref
		records := calendar.ReservationsByID(days, id)
		if w.opts.Hovered.On != nil {
			on = func() { w.opts.Hovered.On(ref, records) }
		}
		moved = true
	}
	w.mu.Unlock()

	if off != nil {
		off()
	}
	if on != nil {
		on()
	}
	if moved {
		w.refresh()
	}
}

// Leave ends hovering over the current cell.
func (w *Widget) Leave() {
	w.mu.Lock()
	had := w.hoveredID != ""
	off := w.offLocked(w.daysLocked())
	w.hoveredID = ""
	w.hoverRef = CellRef{}
	w.mu.Unlock()

	if off != nil {
		off()
	}
	if had {
		w.refresh()
	}
}

func (w *Widget) offLocked(days []calendar.DayRecord) func() {
	if w.hoveredID == "" || w.opts.Hovered.Off == nil {
		return nil
	}
	ref, records := w.hoverRef, calendar.ReservationsByID(days, w.hoveredID)
	return func() { w.opts.Hovered.Off(ref, records) }
}

// Click commits date for role. Every record of the hovered reservation on
// that day is handed to the click handler for its status; statuses without a
// handler raise a notification named after the status instead.
func (w *Widget) Click(role selection.Role, date calendar.Date) []selection.Change {
	w.mu.Lock()
	days := w.daysLocked()
	cell := selection.CellFor(days, date)
	target := w.hoveredID
	if !cell.Has(target) {
		target = cell.IDs[0]
	}
	ref := CellRef{Role: role, Date: date, Cell: cell}
	var clicked []calendar.DayRecord
	if target != "" {
		for _, d := range days {
			if d.Date.Equal(date) && d.ReservationID == target {
				clicked = append(clicked, d)
			}
		}
	}
	changes := w.picker.Commit(role, date, w.opts.Now())
	w.mu.Unlock()

	for _, d := range clicked {
		status := calendar.NormalizeStatus(string(d.Status))
		if handler, ok := w.opts.Clicked[status]; ok && handler != nil {
			handler(ref, d)
			continue
		}
		w.notify(string(status))
	}
	w.announce(changes)
	w.refresh()
	return changes
}

// Close ends interaction with role's calendar.
func (w *Widget) Close(role selection.Role) []selection.Change {
	w.mu.Lock()
	changes := w.picker.Close(role, w.opts.Now())
	w.mu.Unlock()

	w.announce(changes)
	w.refresh()
	return changes
}

// announce hands every change to Changed but raises the root "changed"
// notification once per interaction, even when a commit snapped both roles.
func (w *Widget) announce(changes []selection.Change) {
	if len(changes) == 0 {
		return
	}
	if w.opts.Changed != nil {
		for _, c := range changes {
			w.opts.Changed(c)
		}
	}
	w.notify("changed")
}

func (w *Widget) notify(name string) {
	if w.opts.Notify != nil {
		w.opts.Notify(name)
	}
}

func (w *Widget) refresh() {
	w.renderer.Refresh()
	if w.opts.AfterShow != nil {
		w.opts.AfterShow()
	}
}

func (w *Widget) logMalformed(source string, bad []calendar.MalformedEntry) {
	for _, m := range bad {
		w.log.Debug("calendar entry degraded", "source", source, "key", m.Key, "reservation", m.ReservationID, "reason", m.Reason)
	}
}
