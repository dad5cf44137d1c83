package calendar

// Payload is what the fetch endpoint returns for one property and window.
type Payload struct {
	Calendar     Table        `json:"calendar"`
	Reservations Reservations `json:"reservations"`
}

// Window keeps the entries touching b and the reservations they reference,
// plus any reservation whose stay overlaps b. Undatable entries are dropped.
func (p Payload) Window(b Bounds) Payload {
	span := Span{Start: b.Start, End: b.End}
	var out Payload
	referenced := make(map[string]struct{})
	for _, e := range p.Calendar {
		if !entryTouches(e, span) {
			continue
		}
		out.Calendar = append(out.Calendar, e)
		if e.ReservationID != "" {
			referenced[e.ReservationID] = struct{}{}
		}
	}
	for _, ev := range p.Reservations.All() {
		_, keep := referenced[ev.ID]
		if !keep {
			if stay, ok := ev.Stay(); ok && stay.Overlaps(span) {
				keep = true
			}
		}
		if keep {
			out.Reservations.Put(ev)
		}
	}
	return out
}

// Merge appends other's entries and reservations; other wins on key clashes.
func (p Payload) Merge(other Payload) Payload {
	out := Payload{Reservations: p.Reservations.Clone()}
	index := make(map[string]int, len(p.Calendar))
	for _, e := range p.Calendar {
		index[e.Key] = len(out.Calendar)
		out.Calendar = append(out.Calendar, e)
	}
	for _, e := range other.Calendar {
		if i, ok := index[e.Key]; ok {
			out.Calendar[i] = e
			continue
		}
		index[e.Key] = len(out.Calendar)
		out.Calendar = append(out.Calendar, e)
	}
	for _, ev := range other.Reservations.All() {
		out.Reservations.Put(ev)
	}
	return out
}

func entryTouches(e Entry, span Span) bool {
	if e.IsRange() {
		start, err1 := ParseDate(e.StartDate)
		end, err2 := ParseDate(e.EndDate)
		if err1 != nil || err2 != nil {
			return false
		}
		if end.Before(start) {
			start, end = end, start
		}
		return Span{Start: start, End: end}.Overlaps(span)
	}
	d, err := ParseDate(e.PointDate())
	if err != nil {
		return false
	}
	return span.ContainsDate(d)
}
