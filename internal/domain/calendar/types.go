package calendar

import "strings"

// Duration is the part of a day a record covers.
type Duration string

const (
	DurationAM   Duration = "am"
	DurationPM   Duration = "pm"
	DurationFull Duration = "full"
)

func (d Duration) Valid() bool {
	switch d {
	case DurationAM, DurationPM, DurationFull:
		return true
	default:
		return false
	}
}

// Status is a lower-case reservation status tag.
type Status string

const (
	StatusNone        Status = ""
	StatusReserve     Status = "reserve"
	StatusHold        Status = "hold"
	StatusDelete      Status = "delete"
	StatusCancel      Status = "cancel"
	StatusUnavailable Status = "unavailable"
	// StatusInquiry marks a tentative, unsaved request.
	StatusInquiry Status = "inquiry"
)

// KnownStatuses lists the tags in the precedence used by StatusFromText.
var KnownStatuses = []Status{StatusReserve, StatusHold, StatusDelete, StatusCancel, StatusUnavailable, StatusInquiry}

// NormalizeStatus lower-cases a status as it arrives from the backend ("RESERVE").
func NormalizeStatus(raw string) Status {
	return Status(strings.ToLower(strings.TrimSpace(raw)))
}

// StatusFromText finds the first known tag mentioned in text, or StatusNone.
func StatusFromText(text string) Status {
	lower := strings.ToLower(text)
	for _, s := range KnownStatuses {
		if strings.Contains(lower, string(s)) {
			return s
		}
	}
	return StatusNone
}

// DayRecord is the resolved, renderable state of one date for one reservation.
type DayRecord struct {
	Date           Date     `json:"date"`
	ReservationID  string   `json:"reservationId,omitempty"`
	Duration       Duration `json:"duration"`
	Status         Status   `json:"status"`
	GuestFirstName string   `json:"guestFirstName,omitempty"`
	GuestLastName  string   `json:"guestLastName,omitempty"`
	CheckinTime    string   `json:"checkinTime,omitempty"`
	CheckoutTime   string   `json:"checkoutTime,omitempty"`
}

// Entry is one raw calendar row: either a range (both StartDate and EndDate
// non-empty) or a single point day. Dates stay as the caller sent them so
// that emptiness, not absence, decides the kind.
type Entry struct {
	Key           string   `json:"-"`
	Date          string   `json:"date,omitempty"`
	StartDate     string   `json:"startDate,omitempty"`
	EndDate       string   `json:"endDate,omitempty"`
	ReservationID string   `json:"reservationId,omitempty"`
	Duration      Duration `json:"duration,omitempty"`
}

func (e Entry) IsRange() bool {
	return e.StartDate != "" && e.EndDate != ""
}

// PointDate is the explicit date of a point entry, falling back to its key.
func (e Entry) PointDate() string {
	if e.Date != "" {
		return e.Date
	}
	return e.Key
}

// ReservationEvent carries display fields and status for a reservation id.
type ReservationEvent struct {
	ID             string `json:"-"`
	GuestFirstName string `json:"guestFirstName,omitempty"`
	GuestLastName  string `json:"guestLastName,omitempty"`
	CheckinDate    Date   `json:"checkinDate"`
	CheckoutDate   Date   `json:"checkoutDate"`
	CheckinTime    string `json:"checkinTime,omitempty"`
	CheckoutTime   string `json:"checkoutTime,omitempty"`
	Status         string `json:"status,omitempty"`
}

// Stay returns the check-in to check-out span when both dates are known.
func (r ReservationEvent) Stay() (Span, bool) {
	s := Span{Start: r.CheckinDate, End: r.CheckoutDate}
	if s.Validate() != nil {
		return Span{}, false
	}
	return s, true
}
