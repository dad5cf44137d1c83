package widget

import (
	"strings"

	"staycal/internal/domain/calendar"
	"staycal/internal/domain/selection"
)

// DayView is everything the renderer needs to paint one day cell.
type DayView struct {
	Date      calendar.Date
	Records   []calendar.DayRecord
	Cell      selection.Cell
	Highlight selection.Highlight
	Hovered   bool
	Class     string
}

// View builds day views for from..to inclusive as seen from role's calendar.
func (w *Widget) View(role selection.Role, from, to calendar.Date) []DayView {
	if to.Before(from) {
		from, to = to, from
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	byDate := make(map[calendar.Date][]calendar.DayRecord)
	for _, d := range w.daysLocked() {
		if d.Date.Before(from) || d.Date.After(to) {
			continue
		}
		byDate[d.Date] = append(byDate[d.Date], d)
	}

	views := make([]DayView, 0, from.DaysUntil(to)+1)
	for d := from; !d.After(to); d = d.AddDays(1) {
		records := morningFirst(byDate[d])
		v := DayView{
			Date:      d,
			Records:   records,
			Cell:      selection.CellFor(records, d),
			Highlight: w.picker.Classify(role, d),
		}
		v.Hovered = w.hoveredID != "" && v.Cell.Has(w.hoveredID)
		v.Class = w.classFor(records, v.Highlight)
		views = append(views, v)
	}
	return views
}

// Render returns the day views of every visible month for role.
func (w *Widget) Render(role selection.Role) []DayView {
	from := w.Visible()
	if from.IsZero() {
		from = calendar.FromTime(w.opts.Now()).FirstOfMonth()
	}
	to := from.AddMonths(calendar.TotalMonths(w.opts.Months...)).AddDays(-1)
	return w.View(role, from, to)
}

// classFor renders "duration-status" per record, marking the hovered
// reservation with a -hover suffix, then appends the range class.
func (w *Widget) classFor(records []calendar.DayRecord, h selection.Highlight) string {
	parts := make([]string, 0, len(records)+1)
	for _, r := range records {
		class := string(r.Duration) + "-" + string(r.Status)
		if r.ReservationID != "" && r.ReservationID == w.hoveredID && r.Status != calendar.StatusInquiry {
			class += "-hover"
		}
		parts = append(parts, class)
	}
	switch h {
	case selection.HighlightInterior:
		parts = append(parts, w.opts.HoverClass)
	case selection.HighlightStartCap:
		parts = append(parts, w.opts.HoverClassStart)
	case selection.HighlightEndCap:
		parts = append(parts, w.opts.HoverClassEnd)
	}
	return strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
}

func morningFirst(records []calendar.DayRecord) []calendar.DayRecord {
	if len(records) < 2 {
		return records
	}
	out := make([]calendar.DayRecord, 0, len(records))
	for _, r := range records {
		if r.Duration == calendar.DurationAM {
			out = append(out, r)
		}
	}
	for _, r := range records {
		if r.Duration != calendar.DurationAM {
			out = append(out, r)
		}
	}
	return out
}
