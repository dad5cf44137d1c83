package selection

import "staycal/internal/domain/calendar"

// Cell is the typed id/status pair attached to a rendered day. A changeover
// day carries two reservations: the checkout morning first, the checkin
// afternoon second.
type Cell struct {
	Date     calendar.Date
	IDs      [2]string
	Statuses [2]calendar.Status
	Count    int
}

// CellFor collects the first two distinct reservations on d. Morning records
// are ordered ahead of the rest.
func CellFor(days []calendar.DayRecord, d calendar.Date) Cell {
	c := Cell{Date: d}
	var morning, rest []calendar.DayRecord
	for _, rec := range days {
		if !rec.Date.Equal(d) || rec.ReservationID == "" {
			continue
		}
		if rec.Duration == calendar.DurationAM {
			morning = append(morning, rec)
		} else {
			rest = append(rest, rec)
		}
	}
	for _, rec := range append(morning, rest...) {
		if c.Count == len(c.IDs) {
			break
		}
		if c.Count == 1 && c.IDs[0] == rec.ReservationID {
			continue
		}
		c.IDs[c.Count] = rec.ReservationID
		c.Statuses[c.Count] = rec.Status
		c.Count++
	}
	return c
}

// Pointer is a position relative to the top-left corner of a cell.
type Pointer struct {
	X, Y  float64
	Width float64
}

// Target picks the reservation under the pointer. The upper-left quadrant
// selects the first id and everything else the second; an inquiry yields to
// the other reservation when there is one.
func (c Cell) Target(p Pointer) (string, calendar.Status, bool) {
	switch c.Count {
	case 0:
		return "", calendar.StatusNone, false
	case 1:
		return c.IDs[0], c.Statuses[0], true
	}
	idx := 1
	half := p.Width / 2
	if p.X < half && p.Y < half {
		idx = 0
	}
	if c.Statuses[idx] == calendar.StatusInquiry {
		idx = 1 - idx
	}
	return c.IDs[idx], c.Statuses[idx], true
}

func (c Cell) Has(id string) bool {
	for i := 0; i < c.Count; i++ {
		if c.IDs[i] == id {
			return true
		}
	}
	return false
}
