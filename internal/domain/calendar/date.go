package calendar

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Layout is the wire format for every date crossing the package boundary.
const Layout = "2006-01-02"

var ErrInvalidDate = errors.New("calendar: date must be YYYY-MM-DD")

// Date is a calendar day without time or zone. The zero value is "no date".
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// NewDate normalises out-of-range fields the same way time.Date does,
// so 2013-02-31 becomes 2013-03-03.
func NewDate(year int, month time.Month, day int) Date {
	return FromTime(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// FromTime drops the clock part of t, keeping its calendar day in t's location.
func FromTime(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// Today returns the current day in loc (UTC when loc is nil).
func Today(loc *time.Location) Date {
	if loc == nil {
		loc = time.UTC
	}
	return FromTime(time.Now().In(loc))
}

// ParseDate accepts YYYY-MM-DD and, like the widget it serves, tolerates
// missing zero padding ("2013-2-1").
func ParseDate(raw string) (Date, error) {
	parts := strings.Split(strings.TrimSpace(raw), "-")
	if len(parts) != 3 {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, raw)
	}
	nums := [3]int{}
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, raw)
		}
		nums[i] = n
	}
	if nums[1] < 1 || nums[1] > 12 || nums[2] < 1 || nums[2] > 31 {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, raw)
	}
	return NewDate(nums[0], time.Month(nums[1]), nums[2]), nil
}

// MustParseDate is ParseDate for literals known to be valid.
func MustParseDate(raw string) Date {
	d, err := ParseDate(raw)
	if err != nil {
		panic(err)
	}
	return d
}

func (d Date) IsZero() bool { return d == Date{} }

// Time returns midnight UTC of the day.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

func (d Date) AddDays(n int) Date { return FromTime(d.Time().AddDate(0, 0, n)) }

// AddMonths shifts by whole months; a day that does not exist in the target
// month overflows into the next one (Jan 31 + 1 month = Mar 3 or Mar 2).
func (d Date) AddMonths(n int) Date { return FromTime(d.Time().AddDate(0, n, 0)) }

// FirstOfMonth returns the first day of d's month.
func (d Date) FirstOfMonth() Date { return Date{Year: d.Year, Month: d.Month, Day: 1} }

func (d Date) Compare(other Date) int {
	switch {
	case d.Year != other.Year:
		return cmpInt(d.Year, other.Year)
	case d.Month != other.Month:
		return cmpInt(int(d.Month), int(other.Month))
	default:
		return cmpInt(d.Day, other.Day)
	}
}

func (d Date) Before(other Date) bool { return d.Compare(other) < 0 }
func (d Date) After(other Date) bool  { return d.Compare(other) > 0 }
func (d Date) Equal(other Date) bool  { return d == other }

// DaysUntil counts calendar days from d to other (negative when other is earlier).
func (d Date) DaysUntil(other Date) int {
	return int(other.Time().Sub(d.Time()).Hours() / 24)
}

// MonthsUntil counts whole calendar months between the months of d and other,
// ignoring the day of month.
func (d Date) MonthsUntil(other Date) int {
	return (other.Year-d.Year)*12 + int(other.Month) - int(d.Month)
}

func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Date) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
