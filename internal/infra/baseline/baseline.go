// Package baseline loads default-day tables and seed fixtures from YAML.
package baseline

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/teambition/rrule-go"
	"gopkg.in/yaml.v3"

	"staycal/internal/domain/calendar"
)

var ErrInvalidRule = errors.New("baseline: invalid rule")

// Document is the YAML shape shared by baseline files and fixture properties.
type Document struct {
	Entries      []EntrySpec       `yaml:"entries"`
	Reservations []ReservationSpec `yaml:"reservations"`
	Rules        []RuleSpec        `yaml:"rules"`
}

type EntrySpec struct {
	Key           string `yaml:"key"`
	Date          string `yaml:"date"`
	StartDate     string `yaml:"start_date"`
	EndDate       string `yaml:"end_date"`
	ReservationID string `yaml:"reservation_id"`
	Duration      string `yaml:"duration"`
}

type ReservationSpec struct {
	ID             string `yaml:"id"`
	Status         string `yaml:"status"`
	GuestFirstName string `yaml:"guest_first_name"`
	GuestLastName  string `yaml:"guest_last_name"`
	CheckinDate    string `yaml:"checkin_date"`
	CheckoutDate   string `yaml:"checkout_date"`
	CheckinTime    string `yaml:"checkin_time"`
	CheckoutTime   string `yaml:"checkout_time"`
}

// RuleSpec marks every occurrence of an RRULE as one day of its own
// reservation id, e.g. a property that is closed every Monday.
type RuleSpec struct {
	ID       string `yaml:"id"`
	RRule    string `yaml:"rrule"`
	Start    string `yaml:"start"`
	Status   string `yaml:"status"`
	Duration string `yaml:"duration"`
}

func Decode(r io.Reader) (Document, error) {
	var doc Document
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return Document{}, fmt.Errorf("baseline: decode: %w", err)
	}
	return doc, nil
}

// LoadFile reads a baseline document; an empty path yields an empty document.
func LoadFile(path string) (Document, error) {
	if path == "" {
		return Document{}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return Document{}, fmt.Errorf("baseline: open %s: %w", path, err)
	}
	defer f.Close()
	return Decode(f)
}

// Payload turns the document into a table, expanding rules inside window.
func (d Document) Payload(window calendar.Bounds) (calendar.Payload, error) {
	var out calendar.Payload
	for i, e := range d.Entries {
		key := e.Key
		if key == "" {
			key = firstNonEmpty(e.Date, fmt.Sprintf("entry-%d", i))
		}
		out.Calendar = append(out.Calendar, calendar.Entry{
			Key:           key,
			Date:          e.Date,
			StartDate:     e.StartDate,
			EndDate:       e.EndDate,
			ReservationID: e.ReservationID,
			Duration:      calendar.Duration(strings.ToLower(e.Duration)),
		})
	}
	for _, r := range d.Reservations {
		in, _ := calendar.ParseDate(r.CheckinDate)
		outDate, _ := calendar.ParseDate(r.CheckoutDate)
		out.Reservations.Put(calendar.ReservationEvent{
			ID:             r.ID,
			GuestFirstName: r.GuestFirstName,
			GuestLastName:  r.GuestLastName,
			CheckinDate:    in,
			CheckoutDate:   outDate,
			CheckinTime:    r.CheckinTime,
			CheckoutTime:   r.CheckoutTime,
			Status:         r.Status,
		})
	}
	for _, rule := range d.Rules {
		if err := expandRule(&out, rule, window); err != nil {
			return calendar.Payload{}, err
		}
	}
	return out, nil
}

func expandRule(p *calendar.Payload, rule RuleSpec, window calendar.Bounds) error {
	if rule.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidRule)
	}
	start := window.Start
	if rule.Start != "" {
		d, err := calendar.ParseDate(rule.Start)
		if err != nil {
			return fmt.Errorf("%w %s: %v", ErrInvalidRule, rule.ID, err)
		}
		start = d
	}
	opt, err := rrule.StrToROption(rule.RRule)
	if err != nil {
		return fmt.Errorf("%w %s: %v", ErrInvalidRule, rule.ID, err)
	}
	opt.Dtstart = start.Time()
	r, err := rrule.NewRRule(*opt)
	if err != nil {
		return fmt.Errorf("%w %s: %v", ErrInvalidRule, rule.ID, err)
	}

	duration := calendar.Duration(strings.ToLower(rule.Duration))
	if !duration.Valid() {
		duration = calendar.DurationFull
	}
	var first, last calendar.Date
	for _, t := range r.Between(window.Start.Time(), window.End.Time(), true) {
		d := calendar.FromTime(t.UTC())
		if first.IsZero() {
			first = d
		}
		last = d
		p.Calendar = append(p.Calendar, calendar.Entry{
			Key:           rule.ID + "/" + d.String(),
			Date:          d.String(),
			ReservationID: rule.ID,
			Duration:      duration,
		})
	}
	if first.IsZero() {
		return nil
	}
	// The synthesized checkout lands on the last occurrence and collapses
	// into its record.
	p.Reservations.Put(calendar.ReservationEvent{
		ID:           rule.ID,
		Status:       firstNonEmpty(rule.Status, string(calendar.StatusUnavailable)),
		CheckinDate:  first,
		CheckoutDate: last,
	})
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
