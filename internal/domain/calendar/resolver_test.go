package calendar

import (
	"encoding/json"
	"reflect"
	"testing"
)

func mustPayload(t *testing.T, raw string) Payload {
	t.Helper()
	var p Payload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	return p
}

func TestResolveInquiryRange(t *testing.T) {
	t.Parallel()

	p := mustPayload(t, `{
		"calendar": {"range": {"startDate": "2013-01-02", "endDate": "2013-01-05", "reservationId": "inquiry"}},
		"reservations": {"inquiry": {"status": "INQUIRY", "checkinDate": "2013-01-02", "checkoutDate": "2013-01-05", "guestFirstName": "Ana"}}
	}`)

	days := Resolve(p.Calendar, p.Reservations)
	want := []struct {
		date     string
		duration Duration
	}{
		{"2013-01-02", DurationPM},
		{"2013-01-03", DurationFull},
		{"2013-01-04", DurationFull},
		{"2013-01-05", DurationAM},
	}
	if len(days) != len(want) {
		t.Fatalf("expected %d records, got %d: %+v", len(want), len(days), days)
	}
	for i, w := range want {
		got := days[i]
		if got.Date.String() != w.date || got.Duration != w.duration {
			t.Fatalf("record %d: got %s/%s, want %s/%s", i, got.Date, got.Duration, w.date, w.duration)
		}
		if got.Status != StatusInquiry {
			t.Fatalf("record %d: status %q, want inquiry", i, got.Status)
		}
		if got.ReservationID != "inquiry" || got.GuestFirstName != "Ana" {
			t.Fatalf("record %d: missing event fields: %+v", i, got)
		}
	}
}

func TestResolveSameDayRangeYieldsSinglePM(t *testing.T) {
	t.Parallel()

	table := Table{{Key: "r", StartDate: "2013-03-10", EndDate: "2013-03-10", ReservationID: "r1"}}
	events := NewReservations(ReservationEvent{ID: "r1", Status: "HOLD", CheckinDate: MustParseDate("2013-03-10"), CheckoutDate: MustParseDate("2013-03-10")})

	days := Resolve(table, events)
	if len(days) != 1 {
		t.Fatalf("expected exactly one record, got %+v", days)
	}
	if days[0].Duration != DurationPM || days[0].Date.String() != "2013-03-10" {
		t.Fatalf("unexpected record %+v", days[0])
	}
}

func TestResolveRangeRecordCount(t *testing.T) {
	t.Parallel()

	cases := []struct {
		start, end string
		want       int
	}{
		{"2013-01-30", "2013-01-31", 2},
		{"2013-01-30", "2013-02-02", 4},
		{"2012-02-27", "2012-03-01", 4},
		{"2013-12-31", "2014-01-02", 3},
	}
	for _, tc := range cases {
		table := Table{{Key: "k", StartDate: tc.start, EndDate: tc.end, ReservationID: "x"}}
		events := NewReservations(ReservationEvent{ID: "x", Status: "RESERVE", CheckinDate: MustParseDate(tc.start), CheckoutDate: MustParseDate(tc.end)})
		days := Resolve(table, events)
		if len(days) != tc.want {
			t.Fatalf("%s..%s: expected %d records, got %d", tc.start, tc.end, tc.want, len(days))
		}
		if days[0].Duration != DurationPM || days[len(days)-1].Duration != DurationAM {
			t.Fatalf("%s..%s: wrong boundary durations %+v", tc.start, tc.end, days)
		}
		for _, d := range days[1 : len(days)-1] {
			if d.Duration != DurationFull {
				t.Fatalf("%s..%s: interior record %s is %s", tc.start, tc.end, d.Date, d.Duration)
			}
		}
	}
}

func TestResolvePointDurationPriority(t *testing.T) {
	t.Parallel()

	events := NewReservations(ReservationEvent{
		ID:           "r1",
		Status:       "Reserve",
		CheckinDate:  MustParseDate("2013-05-01"),
		CheckoutDate: MustParseDate("2013-05-04"),
	})
	table := Table{
		{Key: "2013-05-01", ReservationID: "r1"},
		{Key: "a", Date: "2013-05-02", ReservationID: "r1"},
		{Key: "2013-05-03", ReservationID: "r1", Duration: DurationAM},
		{Key: "2013-05-04", ReservationID: "r1"},
		{Key: "2013-05-05", ReservationID: "r1", Duration: "evening"},
	}

	days := Resolve(table, events)
	want := []Duration{DurationPM, DurationFull, DurationAM, DurationAM, DurationFull}
	if len(days) != len(want) {
		t.Fatalf("expected %d records, got %+v", len(want), days)
	}
	for i, d := range days {
		if d.Duration != want[i] {
			t.Fatalf("record %d (%s): got %s, want %s", i, d.Date, d.Duration, want[i])
		}
		if d.Status != StatusReserve {
			t.Fatalf("record %d: status %q", i, d.Status)
		}
	}
}

func TestResolveSynthesizesMissingCheckout(t *testing.T) {
	t.Parallel()

	events := NewReservations(
		ReservationEvent{ID: "a", Status: "RESERVE", CheckinDate: MustParseDate("2013-06-01"), CheckoutDate: MustParseDate("2013-06-03"), GuestLastName: "Silva"},
		ReservationEvent{ID: "b", Status: "HOLD", CheckinDate: MustParseDate("2013-06-10"), CheckoutDate: MustParseDate("2013-06-12")},
	)
	table := Table{
		{Key: "2013-06-01", ReservationID: "a"},
		{Key: "2013-06-02", ReservationID: "a"},
	}

	days := Resolve(table, events)
	if len(days) != 4 {
		t.Fatalf("expected 4 records, got %+v", days)
	}
	synth := days[2]
	if synth.Date.String() != "2013-06-03" || synth.Duration != DurationAM || synth.ReservationID != "a" || synth.GuestLastName != "Silva" {
		t.Fatalf("unexpected synthesized record for a: %+v", synth)
	}
	if days[3].Date.String() != "2013-06-12" || days[3].Status != StatusHold {
		t.Fatalf("unexpected synthesized record for b: %+v", days[3])
	}
}

func TestResolveDoesNotDuplicateExplicitCheckout(t *testing.T) {
	t.Parallel()

	events := NewReservations(ReservationEvent{ID: "a", Status: "RESERVE", CheckinDate: MustParseDate("2013-06-01"), CheckoutDate: MustParseDate("2013-06-02")})
	table := Table{
		{Key: "2013-06-01", ReservationID: "a"},
		{Key: "2013-06-02", ReservationID: "a"},
	}

	days := Resolve(table, events)
	if len(days) != 2 {
		t.Fatalf("expected 2 records, got %+v", days)
	}
}

func TestResolveOverlappingStaysShareDate(t *testing.T) {
	t.Parallel()

	events := NewReservations(
		ReservationEvent{ID: "out", Status: "RESERVE", CheckinDate: MustParseDate("2013-07-01"), CheckoutDate: MustParseDate("2013-07-03")},
		ReservationEvent{ID: "in", Status: "RESERVE", CheckinDate: MustParseDate("2013-07-03"), CheckoutDate: MustParseDate("2013-07-05")},
	)
	table := Table{
		{Key: "one", StartDate: "2013-07-01", EndDate: "2013-07-03", ReservationID: "out"},
		{Key: "two", StartDate: "2013-07-03", EndDate: "2013-07-05", ReservationID: "in"},
	}

	days := Resolve(table, events)
	var onDay []DayRecord
	for _, d := range days {
		if d.Date.String() == "2013-07-03" {
			onDay = append(onDay, d)
		}
	}
	if len(onDay) != 2 {
		t.Fatalf("expected two records on the changeover day, got %+v", onDay)
	}
	if onDay[0].ReservationID != "out" || onDay[0].Duration != DurationAM {
		t.Fatalf("expected checkout morning first, got %+v", onDay[0])
	}
	if onDay[1].ReservationID != "in" || onDay[1].Duration != DurationPM {
		t.Fatalf("expected checkin afternoon second, got %+v", onDay[1])
	}
}

func TestResolveLeavesInputsUntouchedAndIsIdempotent(t *testing.T) {
	t.Parallel()

	p := mustPayload(t, `{
		"calendar": {
			"r": {"startDate": "2013-01-02", "endDate": "2013-01-04", "reservationId": "a"},
			"2013-02-01": {"reservationId": "b"}
		},
		"reservations": {
			"a": {"status": "RESERVE", "checkinDate": "2013-01-02", "checkoutDate": "2013-01-04"},
			"b": {"status": "HOLD", "checkinDate": "2013-02-01", "checkoutDate": "2013-02-03"}
		}
	}`)

	first := Resolve(p.Calendar, p.Reservations)
	if p.Reservations.Len() != 2 {
		t.Fatalf("reservations mutated: %d left", p.Reservations.Len())
	}
	if _, ok := p.Reservations.Get("a"); !ok {
		t.Fatalf("consumed reservation removed from caller's set")
	}
	second := Resolve(p.Calendar, p.Reservations)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("resolve is not idempotent:\n%+v\n%+v", first, second)
	}
}

func TestResolveKeepsInsertionOrder(t *testing.T) {
	t.Parallel()

	p := mustPayload(t, `{
		"calendar": {
			"2013-09-20": {"reservationId": "z", "duration": "full"},
			"2013-01-01": {"reservationId": "z", "duration": "full"},
			"2013-05-05": {"reservationId": "z", "duration": "full"}
		},
		"reservations": {
			"z": {"status": "UNAVAILABLE", "checkinDate": "2013-01-01", "checkoutDate": "2013-09-20"}
		}
	}`)

	days := Resolve(p.Calendar, p.Reservations)
	got := []string{days[0].Date.String(), days[1].Date.String(), days[2].Date.String()}
	want := []string{"2013-09-20", "2013-01-01", "2013-05-05"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("order changed: got %v, want %v", got, want)
	}
	if len(days) != 3 {
		t.Fatalf("checkout already present, expected no synthesized record: %+v", days)
	}
}

func TestResolveReportDegradesMalformedEntries(t *testing.T) {
	t.Parallel()

	table := Table{
		{Key: "bad-range", StartDate: "2013-13-01", EndDate: "2013-13-04", ReservationID: "a"},
		{Key: "nowhere", ReservationID: "a"},
		{Key: "2013-04-01", ReservationID: "ghost"},
		{Key: "2013-04-02"},
	}
	events := NewReservations(ReservationEvent{ID: "a", Status: "RESERVE", CheckinDate: MustParseDate("2013-04-05")})

	days, bad := ResolveReport(table, events)
	if len(days) != 2 {
		t.Fatalf("expected the two dateable points, got %+v", days)
	}
	for _, d := range days {
		if d.Status != StatusNone || d.Duration != DurationFull {
			t.Fatalf("expected degraded record, got %+v", d)
		}
	}
	if len(bad) != 5 {
		t.Fatalf("expected 5 malformed reports, got %d: %v", len(bad), bad)
	}
	if bad[len(bad)-1].ReservationID != "a" {
		t.Fatalf("expected missing checkout reported last, got %v", bad[len(bad)-1])
	}
}

func TestEmptyStringDatesAreAPoint(t *testing.T) {
	t.Parallel()

	p := mustPayload(t, `{
		"calendar": {"2013-08-08": {"startDate": "", "endDate": "2013-08-10", "reservationId": "a", "duration": "full"}},
		"reservations": {"a": {"status": "hold", "checkinDate": "2013-08-08", "checkoutDate": "2013-08-08"}}
	}`)
	if p.Calendar[0].IsRange() {
		t.Fatalf("empty start date must not form a range")
	}
	days := Resolve(p.Calendar, p.Reservations)
	if len(days) != 1 || days[0].Date.String() != "2013-08-08" {
		t.Fatalf("expected one point record, got %+v", days)
	}
}

func TestReservationsByID(t *testing.T) {
	t.Parallel()

	days := []DayRecord{
		{Date: MustParseDate("2013-01-01"), ReservationID: "a"},
		{Date: MustParseDate("2013-01-02"), ReservationID: "b"},
		{Date: MustParseDate("2013-01-03"), ReservationID: "a"},
	}
	got := ReservationsByID(days, "a")
	if len(got) != 2 || got[1].Date.String() != "2013-01-03" {
		t.Fatalf("unexpected filter result %+v", got)
	}
	if ReservationsByID(days, "missing") != nil {
		t.Fatalf("expected nil for unknown id")
	}
}
