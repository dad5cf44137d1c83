package dto

import (
	"time"

	"staycal/internal/app/widget"
	"staycal/internal/domain/calendar"
	"staycal/internal/domain/selection"
)

// ResolvedDays is the flat, ordered day list of one property window.
type ResolvedDays struct {
	PropertyID string               `json:"property_id"`
	StartDate  string               `json:"start_date"`
	EndDate    string               `json:"end_date"`
	Days       []calendar.DayRecord `json:"days"`
	Degraded   []DegradedEntry      `json:"degraded,omitempty"`
}

type DegradedEntry struct {
	Key           string `json:"key"`
	ReservationID string `json:"reservation_id,omitempty"`
	Reason        string `json:"reason"`
}

func MapResolvedDays(id calendar.PropertyID, b calendar.Bounds, days []calendar.DayRecord, bad []calendar.MalformedEntry) ResolvedDays {
	out := ResolvedDays{
		PropertyID: string(id),
		StartDate:  b.Start.String(),
		EndDate:    b.End.String(),
		Days:       days,
	}
	if out.Days == nil {
		out.Days = []calendar.DayRecord{}
	}
	for _, m := range bad {
		out.Degraded = append(out.Degraded, DegradedEntry{Key: m.Key, ReservationID: m.ReservationID, Reason: m.Reason})
	}
	return out
}

type ImportResult struct {
	PropertyID   string    `json:"property_id"`
	Mode         string    `json:"mode"`
	Entries      int       `json:"entries"`
	Reservations int       `json:"reservations"`
	Version      int64     `json:"version"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type PublishResult struct {
	PropertyID string `json:"property_id"`
	Location   string `json:"location"`
	Bytes      int    `json:"bytes"`
}

type SelectionState struct {
	Committed string `json:"committed,omitempty"`
	Hovered   string `json:"hovered,omitempty"`
}

type Change struct {
	Role string `json:"role"`
	From string `json:"from,omitempty"`
	To   string `json:"to,omitempty"`
}

type Session struct {
	ID           string         `json:"id"`
	PropertyID   string         `json:"property_id,omitempty"`
	TwoCalendars bool           `json:"two_calendars"`
	StartDate    string         `json:"start_date"`
	EndDate      string         `json:"end_date"`
	DefaultDate  string         `json:"default_date"`
	WeekStart    string         `json:"week_start"`
	Loading      bool           `json:"loading"`
	Start        SelectionState `json:"start"`
	End          SelectionState `json:"end"`
	Hovered      string         `json:"hovered_reservation,omitempty"`
	Changes      []Change       `json:"changes,omitempty"`
	Refetched    bool           `json:"refetched,omitempty"`
	// Notifications raised on the widget root since the previous response.
	Notifications []string `json:"notifications,omitempty"`
}

type DayView struct {
	Date      string               `json:"date"`
	Class     string               `json:"class"`
	Highlight string               `json:"highlight"`
	Hovered   bool                 `json:"hovered"`
	IDs       []string             `json:"ids,omitempty"`
	Statuses  []string             `json:"statuses,omitempty"`
	Records   []calendar.DayRecord `json:"records,omitempty"`
}

type SessionView struct {
	Session Session   `json:"session"`
	Role    string    `json:"role"`
	Days    []DayView `json:"days"`
}

func MapSession(id, propertyID string, w *widget.Widget) Session {
	start, end := w.Selection()
	b := w.Bounds()
	return Session{
		ID:           id,
		PropertyID:   propertyID,
		TwoCalendars: w.TwoCalendars(),
		StartDate:    b.Start.String(),
		EndDate:      b.End.String(),
		DefaultDate:  b.Anchor.String(),
		WeekStart:    w.WeekStart().String(),
		Loading:      w.Loading(),
		Start:        SelectionState{Committed: start.Committed.String(), Hovered: start.Hovered.String()},
		End:          SelectionState{Committed: end.Committed.String(), Hovered: end.Hovered.String()},
		Hovered:      w.HoveredReservation(),
	}
}

func MapChanges(changes []selection.Change) []Change {
	out := make([]Change, 0, len(changes))
	for _, c := range changes {
		out = append(out, Change{Role: string(c.Role), From: c.From.String(), To: c.To.String()})
	}
	return out
}

func MapDayViews(views []widget.DayView) []DayView {
	out := make([]DayView, 0, len(views))
	for _, v := range views {
		dv := DayView{
			Date:      v.Date.String(),
			Class:     v.Class,
			Highlight: v.Highlight.String(),
			Hovered:   v.Hovered,
			Records:   v.Records,
		}
		for i := 0; i < v.Cell.Count; i++ {
			dv.IDs = append(dv.IDs, v.Cell.IDs[i])
			dv.Statuses = append(dv.Statuses, string(v.Cell.Statuses[i]))
		}
		out = append(out, dv)
	}
	return out
}

// CalendarDocument is a rendered iCalendar file.
type CalendarDocument struct {
	PropertyID  string `json:"property_id"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}
