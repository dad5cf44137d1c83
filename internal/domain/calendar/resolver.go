package calendar

import "fmt"

// MalformedEntry describes an input row that resolution had to degrade or skip.
type MalformedEntry struct {
	Key           string
	ReservationID string
	Reason        string
}

func (m MalformedEntry) Error() string {
	if m.ReservationID == "" {
		return fmt.Sprintf("calendar entry %q: %s", m.Key, m.Reason)
	}
	return fmt.Sprintf("calendar entry %q (reservation %q): %s", m.Key, m.ReservationID, m.Reason)
}

// Resolve flattens table and reservations into one ordered list of day
// records. Neither input is modified.
func Resolve(table Table, reservations Reservations) []DayRecord {
	days, _ := ResolveReport(table, reservations)
	return days
}

// DefaultDays resolves a baseline table that is independent of fetched data,
// so default styling is available before the first fetch completes.
func DefaultDays(baseline Table, reservations Reservations) []DayRecord {
	return Resolve(baseline, reservations)
}

// ResolveReport is Resolve plus the entries that could not be fully resolved.
// Entries that cannot be dated are skipped; entries without a known
// reservation are emitted with empty status and guest fields.
func ResolveReport(table Table, reservations Reservations) ([]DayRecord, []MalformedEntry) {
	r := resolver{
		events: reservations.Clone(),
		seen:   make(map[recordKey]struct{}),
	}
	for _, entry := range table {
		if entry.IsRange() {
			r.expandRange(entry)
		} else {
			r.point(entry)
		}
	}
	for _, ev := range r.events.All() {
		if ev.CheckoutDate.IsZero() {
			r.malformed(MalformedEntry{Key: ev.ID, ReservationID: ev.ID, Reason: "reservation has no checkout date"})
			continue
		}
		rec := recordFor(ev, true)
		rec.Date = ev.CheckoutDate
		rec.ReservationID = ev.ID
		rec.Duration = DurationAM
		r.emit(rec)
	}
	return r.out, r.bad
}

// ReservationsByID returns every record of one reservation, in input order.
func ReservationsByID(days []DayRecord, id string) []DayRecord {
	var out []DayRecord
	for _, d := range days {
		if d.ReservationID == id {
			out = append(out, d)
		}
	}
	return out
}

type recordKey struct {
	date Date
	id   string
}

type resolver struct {
	events Reservations
	seen   map[recordKey]struct{}
	out    []DayRecord
	bad    []MalformedEntry
}

func (r *resolver) expandRange(entry Entry) {
	start, errStart := ParseDate(entry.StartDate)
	end, errEnd := ParseDate(entry.EndDate)
	if errStart != nil || errEnd != nil {
		r.malformed(MalformedEntry{Key: entry.Key, ReservationID: entry.ReservationID, Reason: "range dates are not YYYY-MM-DD"})
		return
	}
	ev, ok := r.lookup(entry)
	base := recordFor(ev, ok)
	base.ReservationID = entry.ReservationID

	first := base
	first.Date = start
	first.Duration = DurationPM
	r.emit(first)
	if !start.Equal(end) {
		for d := start.AddDays(1); d.Before(end); d = d.AddDays(1) {
			mid := base
			mid.Date = d
			mid.Duration = DurationFull
			r.emit(mid)
		}
		last := base
		last.Date = end
		last.Duration = DurationAM
		r.emit(last)
	}
	if entry.ReservationID != "" {
		r.events.Delete(entry.ReservationID)
	}
}

func (r *resolver) point(entry Entry) {
	date, err := ParseDate(entry.PointDate())
	if err != nil {
		r.malformed(MalformedEntry{Key: entry.Key, ReservationID: entry.ReservationID, Reason: "point has no usable date"})
		return
	}
	ev, ok := r.lookup(entry)
	rec := recordFor(ev, ok)
	rec.Date = date
	rec.ReservationID = entry.ReservationID
	switch {
	case entry.Duration.Valid():
		rec.Duration = entry.Duration
	case ok && date.Equal(ev.CheckinDate):
		rec.Duration = DurationPM
	case ok && date.Equal(ev.CheckoutDate):
		rec.Duration = DurationAM
	default:
		rec.Duration = DurationFull
	}
	r.emit(rec)
}

func (r *resolver) lookup(entry Entry) (ReservationEvent, bool) {
	if entry.ReservationID == "" {
		r.malformed(MalformedEntry{Key: entry.Key, Reason: "no reservation id"})
		return ReservationEvent{}, false
	}
	ev, ok := r.events.Get(entry.ReservationID)
	if !ok {
		r.malformed(MalformedEntry{Key: entry.Key, ReservationID: entry.ReservationID, Reason: "unknown reservation"})
	}
	return ev, ok
}

// emit appends rec unless a record for the same date and reservation exists.
func (r *resolver) emit(rec DayRecord) {
	key := recordKey{date: rec.Date, id: rec.ReservationID}
	if _, dup := r.seen[key]; dup {
		return
	}
	r.seen[key] = struct{}{}
	r.out = append(r.out, rec)
}

func (r *resolver) malformed(m MalformedEntry) {
	r.bad = append(r.bad, m)
}

func recordFor(ev ReservationEvent, ok bool) DayRecord {
	if !ok {
		return DayRecord{}
	}
	return DayRecord{
		Status:         NormalizeStatus(ev.Status),
		GuestFirstName: ev.GuestFirstName,
		GuestLastName:  ev.GuestLastName,
		CheckinTime:    ev.CheckinTime,
		CheckoutTime:   ev.CheckoutTime,
	}
}
