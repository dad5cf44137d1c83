package widget

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"staycal/internal/domain/calendar"
	"staycal/internal/domain/selection"
)

type recordingRenderer struct {
	mu       sync.Mutex
	loading  []bool
	refreshs int
}

func (r *recordingRenderer) Loading(on bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loading = append(r.loading, on)
}

func (r *recordingRenderer) Refresh() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.refreshs++
}

type stubFetcher struct {
	mu      sync.Mutex
	calls   []FetchRequest
	respond func(req FetchRequest) (calendar.Payload, error)
}

func (s *stubFetcher) Fetch(_ context.Context, req FetchRequest) (calendar.Payload, error) {
	s.mu.Lock()
	s.calls = append(s.calls, req)
	s.mu.Unlock()
	return s.respond(req)
}

func (s *stubFetcher) Calls() []FetchRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]FetchRequest(nil), s.calls...)
}

func day(raw string) calendar.Date { return calendar.MustParseDate(raw) }

func pointPayload(date, id, status string) calendar.Payload {
	return calendar.Payload{
		Calendar: calendar.Table{{Key: date, ReservationID: id, Duration: calendar.DurationFull}},
		Reservations: calendar.NewReservations(calendar.ReservationEvent{
			ID: id, Status: status, CheckinDate: day(date), CheckoutDate: day(date),
		}),
	}
}

func fixedNow() time.Time { return time.Date(2013, time.January, 15, 9, 0, 0, 0, time.UTC) }

func TestLoadFetchesAndMergesDefaults(t *testing.T) {
	t.Parallel()

	fetcher := &stubFetcher{respond: func(FetchRequest) (calendar.Payload, error) {
		return pointPayload("2013-01-20", "r1", "RESERVE"), nil
	}}
	renderer := &recordingRenderer{}
	shown := 0

	opts := DefaultOptions()
	opts.EntityID = "prop-1"
	opts.Now = fixedNow
	opts.AfterShow = func() { shown++ }
	base := pointPayload("2013-01-01", "closed", "UNAVAILABLE")
	opts.Baseline, opts.BaselineReservations = base.Calendar, base.Reservations

	w := New("w1", opts, fetcher, renderer)
	if got := w.Days(); len(got) != 1 || got[0].Status != calendar.StatusUnavailable {
		t.Fatalf("baseline days should be ready before fetch: %+v", got)
	}

	b := w.Load(context.Background())
	w.Wait()

	if b.Start.String() != "2012-01-15" || b.End.String() != "2014-01-15" {
		t.Fatalf("unexpected bounds %+v", b)
	}
	calls := fetcher.Calls()
	if len(calls) != 1 {
		t.Fatalf("expected one fetch, got %d", len(calls))
	}
	if want := "/hai/availabilityCalendar/prop-1?startDate=2012-01-15&endDate=2014-01-15"; calls[0].Path() != want {
		t.Fatalf("path = %s, want %s", calls[0].Path(), want)
	}
	days := w.Days()
	if len(days) != 2 || days[0].ReservationID != "closed" || days[1].ReservationID != "r1" {
		t.Fatalf("expected defaults then fetched days, got %+v", days)
	}
	if w.Loading() {
		t.Fatalf("loading flag must clear after fetch")
	}
	renderer.mu.Lock()
	loading := append([]bool(nil), renderer.loading...)
	renderer.mu.Unlock()
	if len(loading) != 2 || !loading[0] || loading[1] {
		t.Fatalf("expected loading on then off, got %v", loading)
	}
	if shown < 2 {
		t.Fatalf("AfterShow should run after each refresh, ran %d times", shown)
	}
}

func TestFetchFailureKeepsPreviousDays(t *testing.T) {
	t.Parallel()

	boom := errors.New("backend down")
	var fail bool
	var mu sync.Mutex
	fetcher := &stubFetcher{respond: func(FetchRequest) (calendar.Payload, error) {
		mu.Lock()
		defer mu.Unlock()
		if fail {
			return calendar.Payload{}, boom
		}
		return pointPayload("2013-01-20", "r1", "HOLD"), nil
	}}

	var reported error
	var notes []string
	opts := DefaultOptions()
	opts.EntityID = "prop-1"
	opts.Now = fixedNow
	opts.Error = func(err error) { reported = err }
	opts.Notify = func(name string) { notes = append(notes, name) }

	w := New("w1", opts, fetcher, nil)
	w.Load(context.Background())
	w.Wait()

	mu.Lock()
	fail = true
	mu.Unlock()
	if !w.Navigate(context.Background(), 2012, time.February) {
		t.Fatalf("navigating next to the start edge should refetch")
	}
	w.Wait()

	var failure *FetchFailure
	if !errors.As(reported, &failure) || !errors.Is(reported, boom) {
		t.Fatalf("expected FetchFailure wrapping the cause, got %v", reported)
	}
	if failure.Bounds.Start.String() != "2011-02-01" {
		t.Fatalf("failure should carry requested bounds, got %+v", failure.Bounds)
	}
	if len(notes) != 1 || notes[0] != "error" {
		t.Fatalf("expected a single error notification, got %v", notes)
	}
	if days := w.Days(); len(days) != 1 || days[0].ReservationID != "r1" {
		t.Fatalf("previous days should survive a failed fetch: %+v", days)
	}
	if w.Loading() {
		t.Fatalf("loading must clear on failure")
	}
}

func TestStaleFetchIsDiscarded(t *testing.T) {
	t.Parallel()

	gates := map[string]chan struct{}{
		"2012-01-15": make(chan struct{}),
		"2011-02-01": make(chan struct{}),
	}
	fetcher := &stubFetcher{respond: func(req FetchRequest) (calendar.Payload, error) {
		<-gates[req.Bounds.Start.String()]
		if req.Bounds.Start.String() == "2012-01-15" {
			return pointPayload("2013-01-10", "old", "RESERVE"), nil
		}
		return pointPayload("2012-03-10", "new", "RESERVE"), nil
	}}

	opts := DefaultOptions()
	opts.EntityID = "prop-1"
	opts.Now = fixedNow
	w := New("w1", opts, fetcher, nil)
	w.Load(context.Background())
	if !w.Navigate(context.Background(), 2012, time.February) {
		t.Fatalf("expected a second fetch")
	}
	close(gates["2011-02-01"])
	close(gates["2012-01-15"])
	w.Wait()

	days := w.Days()
	if len(days) != 1 || days[0].ReservationID != "new" {
		t.Fatalf("expected only the current window's data, got %+v", days)
	}
	if w.Loading() {
		t.Fatalf("loading should be clear")
	}
}

func TestNavigateOnlyNearEdges(t *testing.T) {
	t.Parallel()

	fetcher := &stubFetcher{respond: func(FetchRequest) (calendar.Payload, error) { return calendar.Payload{}, nil }}
	opts := DefaultOptions()
	opts.EntityID = "prop-1"
	opts.Now = fixedNow
	opts.Months = []int{2}
	w := New("w1", opts, fetcher, nil)
	w.Load(context.Background())
	w.Wait()

	if w.Navigate(context.Background(), 2013, time.June) {
		t.Fatalf("middle of the window must not refetch")
	}
	if !w.Navigate(context.Background(), 2013, time.November) {
		t.Fatalf("two visible months touching the end should refetch")
	}
	w.Wait()
	if got := w.Bounds().Anchor.String(); got != "2013-11-01" {
		t.Fatalf("window should recentre on the visible month, got %s", got)
	}
	if len(fetcher.Calls()) != 2 {
		t.Fatalf("expected two fetches, got %d", len(fetcher.Calls()))
	}

	off := DefaultOptions()
	off.Fetch = false
	quiet := New("w2", off, fetcher, nil)
	quiet.Load(context.Background())
	if quiet.Navigate(context.Background(), 1990, time.January) || quiet.Loading() {
		t.Fatalf("fetch disabled widget must never fetch")
	}
}

func changeoverOptions() Options {
	opts := DefaultOptions()
	opts.Fetch = false
	opts.Now = fixedNow
	opts.Baseline = calendar.Table{
		{Key: "stay", StartDate: "2013-03-01", EndDate: "2013-03-03", ReservationID: "r1"},
		{Key: "2013-03-03", ReservationID: "r2"},
		{Key: "2013-03-08", ReservationID: "ask"},
	}
	opts.BaselineReservations = calendar.NewReservations(
		calendar.ReservationEvent{ID: "r1", Status: "RESERVE", CheckinDate: day("2013-03-01"), CheckoutDate: day("2013-03-03")},
		calendar.ReservationEvent{ID: "r2", Status: "HOLD", CheckinDate: day("2013-03-03"), CheckoutDate: day("2013-03-05")},
		calendar.ReservationEvent{ID: "ask", Status: "INQUIRY", CheckinDate: day("2013-03-07"), CheckoutDate: day("2013-03-09")},
	)
	return opts
}

func TestClickDispatchesByStatus(t *testing.T) {
	t.Parallel()

	var clicked []calendar.DayRecord
	var notes []string
	var changed []selection.Change
	opts := changeoverOptions()
	opts.Clicked = map[calendar.Status]ClickFunc{
		calendar.StatusReserve: func(_ CellRef, d calendar.DayRecord) { clicked = append(clicked, d) },
	}
	opts.Notify = func(name string) { notes = append(notes, name) }
	opts.Changed = func(c selection.Change) { changed = append(changed, c) }

	w := New("w1", opts, nil, nil)
	w.Click(selection.RoleStart, day("2013-03-02"))
	if len(clicked) != 1 || clicked[0].ReservationID != "r1" || clicked[0].Duration != calendar.DurationFull {
		t.Fatalf("reserve handler not called correctly: %+v", clicked)
	}

	w.Click(selection.RoleStart, day("2013-03-05"))
	if len(notes) != 3 || notes[1] != "hold" {
		t.Fatalf("missing handler should notify by status: %v", notes)
	}
	if len(changed) != 2 || !changed[1].To.Equal(day("2013-03-05")) {
		t.Fatalf("expected two changes, got %+v", changed)
	}

	if again := w.Click(selection.RoleStart, day("2013-03-05")); len(again) != 0 {
		t.Fatalf("repeat click should not change anything: %+v", again)
	}
	if events := w.DrainEvents(); len(events) != 2 || events[0].EventName() != "selection.changed" {
		t.Fatalf("expected recorded selection events, got %+v", events)
	}
}

func TestHoverDisambiguatesAndNotifies(t *testing.T) {
	t.Parallel()

	type call struct {
		kind string
		n    int
		id   string
	}
	var calls []call
	opts := changeoverOptions()
	opts.Hovered = HoverHandlers{
		On:  func(_ CellRef, rs []calendar.DayRecord) { calls = append(calls, call{"on", len(rs), rs[0].ReservationID}) },
		Off: func(_ CellRef, rs []calendar.DayRecord) { calls = append(calls, call{"off", len(rs), rs[0].ReservationID}) },
	}
	w := New("w1", opts, nil, nil)

	w.Hover(selection.RoleStart, day("2013-03-03"), selection.Pointer{X: 4, Y: 4, Width: 40})
	w.Hover(selection.RoleStart, day("2013-03-03"), selection.Pointer{X: 35, Y: 35, Width: 40})
	w.Hover(selection.RoleStart, day("2013-03-03"), selection.Pointer{X: 36, Y: 36, Width: 40})
	w.Leave()

	want := []call{{"on", 3, "r1"}, {"off", 3, "r1"}, {"on", 2, "r2"}, {"off", 2, "r2"}}
	if len(calls) != len(want) {
		t.Fatalf("got calls %+v, want %+v", calls, want)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Fatalf("call %d: got %+v, want %+v", i, calls[i], want[i])
		}
	}
	if w.HoveredReservation() != "" {
		t.Fatalf("leave should clear hovered reservation")
	}
}

func TestViewClasses(t *testing.T) {
	t.Parallel()

	opts := changeoverOptions()
	opts.TwoCalendars = true
	opts.HoverClass = "in-range"
	opts.HoverClassStart = "range-start"
	opts.HoverClassEnd = "range-end"
	w := New("w1", opts, nil, nil)

	w.Hover(selection.RoleStart, day("2013-03-03"), selection.Pointer{X: 30, Y: 30, Width: 40})
	w.Click(selection.RoleStart, day("2013-03-03"))
	w.Click(selection.RoleEnd, day("2013-03-06"))

	views := w.View(selection.RoleStart, day("2013-03-03"), day("2013-03-06"))
	if len(views) != 4 {
		t.Fatalf("expected 4 views, got %d", len(views))
	}
	if got := views[0].Class; got != "am-reserve pm-hold-hover range-start" {
		t.Fatalf("changeover class = %q", got)
	}
	if !views[0].Hovered || views[0].Highlight != selection.HighlightStartCap {
		t.Fatalf("unexpected first view %+v", views[0])
	}
	if got := views[1].Class; got != "in-range" {
		t.Fatalf("empty interior class = %q", got)
	}
	if got := views[2].Class; got != "am-hold-hover in-range" {
		t.Fatalf("checkout interior class = %q", got)
	}
	if got := views[3].Class; got != "range-end" {
		t.Fatalf("end cap class = %q", got)
	}

	w.Hover(selection.RoleStart, day("2013-03-08"), selection.Pointer{})
	inquiry := w.View(selection.RoleStart, day("2013-03-08"), day("2013-03-08"))[0]
	if strings.Contains(inquiry.Class, "hover") {
		t.Fatalf("inquiry days never get hover styling: %q", inquiry.Class)
	}
}

func TestSnappedCommitNotifiesChangedOnce(t *testing.T) {
	t.Parallel()

	var notes []string
	var changed []selection.Change
	opts := DefaultOptions()
	opts.Fetch = false
	opts.Now = fixedNow
	opts.TwoCalendars = true
	opts.Notify = func(name string) { notes = append(notes, name) }
	opts.Changed = func(c selection.Change) { changed = append(changed, c) }
	w := New("w1", opts, nil, nil)

	w.Click(selection.RoleStart, day("2013-02-10"))
	notes, changed = nil, nil

	changes := w.Click(selection.RoleEnd, day("2013-02-01"))
	if len(changes) != 2 || len(changed) != 2 {
		t.Fatalf("expected end commit plus snapped start, got %+v (callback saw %+v)", changes, changed)
	}
	start, end := w.Selection()
	if !start.Committed.Equal(day("2013-02-01")) || !end.Committed.Equal(day("2013-02-01")) {
		t.Fatalf("start should snap to the end, got %+v %+v", start, end)
	}
	if len(notes) != 1 || notes[0] != "changed" {
		t.Fatalf("expected exactly one changed notification, got %v", notes)
	}

	notes = nil
	w.Click(selection.RoleEnd, day("2013-02-01"))
	if len(notes) != 0 {
		t.Fatalf("idempotent commit must not notify, got %v", notes)
	}
}

func TestLoadTwiceFetchesOnce(t *testing.T) {
	t.Parallel()

	fetcher := &stubFetcher{respond: func(FetchRequest) (calendar.Payload, error) { return calendar.Payload{}, nil }}
	opts := DefaultOptions()
	opts.EntityID = "prop-1"
	opts.Now = fixedNow
	w := New("w1", opts, fetcher, nil)

	first := w.Load(context.Background())
	second := w.Load(context.Background())
	w.Wait()

	if !first.SameRange(second) {
		t.Fatalf("same anchor should give the same bounds: %+v %+v", first, second)
	}
	if n := len(fetcher.Calls()); n != 1 {
		t.Fatalf("expected one fetch for an unchanged window, got %d", n)
	}
}
