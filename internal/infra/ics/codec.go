// Package ics converts property calendars to and from iCalendar feeds.
package ics

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"

	"staycal/internal/app/policies"
	"staycal/internal/domain/calendar"
)

const (
	DefaultProductID = "-//staycal//availability//EN"

	propKind      = ical.ComponentProperty("X-STAYCAL-KIND")
	propStatus    = ical.ComponentProperty("X-STAYCAL-STATUS")
	propFirstName = ical.ComponentProperty("X-STAYCAL-GUEST-FIRST")
	propLastName  = ical.ComponentProperty("X-STAYCAL-GUEST-LAST")
	propCheckin   = ical.ComponentProperty("X-STAYCAL-CHECKIN-TIME")
	propCheckout  = ical.ComponentProperty("X-STAYCAL-CHECKOUT-TIME")

	kindDays = "DAYS"
	icsDate  = "20060102"
)

var (
	ErrEmptyFeed     = errors.New("ics: empty calendar feed")
	ErrMalformedFeed = errors.New("ics: malformed calendar feed")
)

// Codec is the golang-ical backed calendar codec. A reservation whose days
// run pm..am is written as a stay (DTEND is the checkout day); anything else
// is written as whole days and marked with X-STAYCAL-KIND:DAYS.
type Codec struct {
	ProductID string
	Now       func() time.Time
}

func NewCodec() *Codec {
	return &Codec{ProductID: DefaultProductID, Now: time.Now}
}

func (c *Codec) Encode(id calendar.PropertyID, days []calendar.DayRecord, reservations calendar.Reservations) ([]byte, error) {
	cal := ical.NewCalendar()
	cal.SetProductId(c.productID())
	cal.SetMethod(ical.MethodPublish)
	cal.SetXWRCalName(string(id))
	stamp := c.now().UTC()

	for _, group := range groupByReservation(days) {
		first, last := group.days[0], group.days[len(group.days)-1]
		ev := cal.AddEvent(group.id)
		ev.SetDtStampTime(stamp)
		ev.SetAllDayStartAt(first.Date.Time())
		if isStay(group.days) {
			ev.SetAllDayEndAt(last.Date.Time())
		} else {
			ev.SetAllDayEndAt(last.Date.AddDays(1).Time())
			ev.SetProperty(propKind, kindDays)
		}

		info, _ := reservations.Get(group.id)
		status := first.Status
		if status == calendar.StatusNone {
			status = calendar.NormalizeStatus(info.Status)
		}
		ev.SetSummary(summary(status, first))
		if status != calendar.StatusNone {
			ev.SetProperty(propStatus, string(status))
		}
		if s := icalStatus(status); s != "" {
			ev.SetProperty(ical.ComponentPropertyStatus, s)
		}
		setIf(ev, propFirstName, first.GuestFirstName)
		setIf(ev, propLastName, first.GuestLastName)
		setIf(ev, propCheckin, first.CheckinTime)
		setIf(ev, propCheckout, last.CheckoutTime)
	}
	return []byte(cal.Serialize()), nil
}

// Decode reads a feed into a payload keyed by event UID. Events repeating by
// RRULE become one reservation per occurrence that starts inside window.
func (c *Codec) Decode(r io.Reader, window calendar.Bounds) (calendar.Payload, error) {
	cal, err := ical.ParseCalendar(r)
	if err != nil {
		return calendar.Payload{}, fmt.Errorf("%w: %v", ErrMalformedFeed, err)
	}
	var out calendar.Payload
	for _, ev := range cal.Events() {
		uid := value(ev, ical.ComponentPropertyUniqueId)
		start, ok := dateOf(ev, ical.ComponentPropertyDtStart)
		if uid == "" || !ok {
			continue
		}
		end, ok := dateOf(ev, ical.ComponentPropertyDtEnd)
		if !ok || end.Before(start) {
			end = start.AddDays(1)
		}
		base := reservationFrom(ev)
		days := strings.EqualFold(value(ev, propKind), kindDays)

		rule := value(ev, ical.ComponentPropertyRrule)
		if rule == "" {
			addEvent(&out, uid, start, end, days, base)
			continue
		}
		occurrences, err := expand(rule, start, exdates(ev), window)
		if err != nil {
			return calendar.Payload{}, fmt.Errorf("%w: event %q: %v", ErrMalformedFeed, uid, err)
		}
		length := start.DaysUntil(end)
		for _, occ := range occurrences {
			addEvent(&out, uid+"#"+occ.String(), occ, occ.AddDays(length), days, base)
		}
	}
	if len(cal.Events()) == 0 {
		return out, ErrEmptyFeed
	}
	return out, nil
}

func addEvent(p *calendar.Payload, id string, start, end calendar.Date, days bool, base calendar.ReservationEvent) {
	ev := base
	ev.ID = id
	ev.CheckinDate = start
	if !days {
		ev.CheckoutDate = end
		p.Calendar = append(p.Calendar, calendar.Entry{
			Key:           id,
			StartDate:     start.String(),
			EndDate:       end.String(),
			ReservationID: id,
		})
		p.Reservations.Put(ev)
		return
	}
	// DTEND is exclusive for whole days; the last day doubles as checkout so
	// the resolver's synthesized record collapses into the full one.
	last := end.AddDays(-1)
	if last.Before(start) {
		last = start
	}
	ev.CheckoutDate = last
	for d := start; !d.After(last); d = d.AddDays(1) {
		p.Calendar = append(p.Calendar, calendar.Entry{
			Key:           id + "/" + d.String(),
			Date:          d.String(),
			ReservationID: id,
			Duration:      calendar.DurationFull,
		})
	}
	p.Reservations.Put(ev)
}

func reservationFrom(ev *ical.VEvent) calendar.ReservationEvent {
	status := calendar.NormalizeStatus(value(ev, propStatus))
	if status == calendar.StatusNone {
		status = calendar.StatusFromText(value(ev, ical.ComponentPropertySummary))
	}
	if status == calendar.StatusNone {
		status = fromICalStatus(value(ev, ical.ComponentPropertyStatus))
	}
	return calendar.ReservationEvent{
		GuestFirstName: value(ev, propFirstName),
		GuestLastName:  value(ev, propLastName),
		CheckinTime:    value(ev, propCheckin),
		CheckoutTime:   value(ev, propCheckout),
		Status:         string(status),
	}
}

func expand(rule string, start calendar.Date, ex []calendar.Date, window calendar.Bounds) ([]calendar.Date, error) {
	opt, err := rrule.StrToROption(rule)
	if err != nil {
		return nil, err
	}
	opt.Dtstart = start.Time()
	r, err := rrule.NewRRule(*opt)
	if err != nil {
		return nil, err
	}
	set := rrule.Set{}
	set.RRule(r)
	for _, d := range ex {
		set.ExDate(d.Time())
	}
	var out []calendar.Date
	for _, t := range set.Between(window.Start.Time(), window.End.Time(), true) {
		out = append(out, calendar.FromTime(t.UTC()))
	}
	return out, nil
}

func exdates(ev *ical.VEvent) []calendar.Date {
	var out []calendar.Date
	for _, p := range ev.GetProperties(ical.ComponentPropertyExdate) {
		for _, part := range strings.Split(p.Value, ",") {
			if d, ok := parseICSDate(part); ok {
				out = append(out, d)
			}
		}
	}
	return out
}

func dateOf(ev *ical.VEvent, prop ical.ComponentProperty) (calendar.Date, bool) {
	p := ev.GetProperty(prop)
	if p == nil {
		return calendar.Date{}, false
	}
	return parseICSDate(p.Value)
}

// parseICSDate keeps the calendar day of DATE and DATE-TIME values alike.
func parseICSDate(raw string) (calendar.Date, bool) {
	raw = strings.TrimSpace(raw)
	if len(raw) < len(icsDate) {
		return calendar.Date{}, false
	}
	t, err := time.Parse(icsDate, raw[:len(icsDate)])
	if err != nil {
		return calendar.Date{}, false
	}
	return calendar.FromTime(t), true
}

func value(ev *ical.VEvent, prop ical.ComponentProperty) string {
	if p := ev.GetProperty(prop); p != nil {
		return strings.TrimSpace(p.Value)
	}
	return ""
}

func setIf(ev *ical.VEvent, prop ical.ComponentProperty, v string) {
	if v != "" {
		ev.SetProperty(prop, v)
	}
}

func summary(status calendar.Status, rec calendar.DayRecord) string {
	label := "Unavailable"
	if status != calendar.StatusNone {
		label = strings.ToUpper(string(status[:1])) + string(status[1:])
	}
	guest := strings.TrimSpace(rec.GuestFirstName + " " + rec.GuestLastName)
	if guest == "" {
		return label
	}
	return label + ": " + guest
}

func icalStatus(s calendar.Status) string {
	switch s {
	case calendar.StatusReserve:
		return "CONFIRMED"
	case calendar.StatusHold, calendar.StatusInquiry:
		return "TENTATIVE"
	case calendar.StatusCancel, calendar.StatusDelete:
		return "CANCELLED"
	default:
		return ""
	}
}

func fromICalStatus(s string) calendar.Status {
	switch strings.ToUpper(s) {
	case "CONFIRMED":
		return calendar.StatusReserve
	case "TENTATIVE":
		return calendar.StatusHold
	case "CANCELLED":
		return calendar.StatusCancel
	default:
		return calendar.StatusUnavailable
	}
}

type reservationDays struct {
	id   string
	days []calendar.DayRecord
}

// groupByReservation keeps first-seen order of ids; records without an id
// carry nothing a feed consumer could use.
func groupByReservation(days []calendar.DayRecord) []reservationDays {
	index := make(map[string]int)
	var out []reservationDays
	for _, d := range days {
		if d.ReservationID == "" {
			continue
		}
		i, ok := index[d.ReservationID]
		if !ok {
			i = len(out)
			index[d.ReservationID] = i
			out = append(out, reservationDays{id: d.ReservationID})
		}
		out[i].days = append(out[i].days, d)
	}
	for _, g := range out {
		sort.SliceStable(g.days, func(a, b int) bool { return g.days[a].Date.Before(g.days[b].Date) })
	}
	return out
}

func isStay(days []calendar.DayRecord) bool {
	return len(days) >= 2 &&
		days[0].Duration == calendar.DurationPM &&
		days[len(days)-1].Duration == calendar.DurationAM
}

func (c *Codec) productID() string {
	if c.ProductID == "" {
		return DefaultProductID
	}
	return c.ProductID
}

func (c *Codec) now() time.Time {
	if c.Now == nil {
		return time.Now()
	}
	return c.Now()
}

var _ policies.CalendarCodec = (*Codec)(nil)
