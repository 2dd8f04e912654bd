// Package studyday maps wall-clock instants onto the facility's operational "study day".
//
// The room opens at 07:30 and closes at 01:30 the next morning. An instant between local
// midnight and 07:30 is the overnight tail of the previous day. All computations use an
// explicit fixed offset, never the host's local timezone.
package studyday

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
)

const (
	OpenHour    = 7
	OpenMinute  = 30
	CloseHour   = 1
	CloseMinute = 30

	// DayLength is the length of every study day window.
	DayLength = 18 * time.Hour

	dateLayout = "2006-01-02"
)

// Date is a calendar date without a timezone.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

func NewDate(year int, month time.Month, day int) Date {
	// normalize through time.Date so 2024-02-30 rolls over the same way time does
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return Date{t.Year(), t.Month(), t.Day()}
}

func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, errors.Wrapf(err, "parse date %q", s)
	}
	return Date{t.Year(), t.Month(), t.Day()}, nil
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

func (d Date) AddDays(n int) Date {
	return NewDate(d.Year, d.Month, d.Day+n)
}

func (d Date) Weekday() time.Weekday {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC).Weekday()
}

func (d Date) Before(o Date) bool {
	return d.String() < o.String()
}

func (d Date) IsZero() bool {
	return d == Date{}
}

// Clock holds the facility timezone and week convention.
type Clock struct {
	loc          *time.Location
	firstWeekday time.Weekday
}

// NewClock builds a clock for a facility at the given UTC offset (in minutes).
func NewClock(utcOffsetMinutes int, firstWeekday time.Weekday) *Clock {
	name := fmt.Sprintf("UTC%+03d:%02d", utcOffsetMinutes/60, abs(utcOffsetMinutes%60))
	return &Clock{
		loc:          time.FixedZone(name, utcOffsetMinutes*60),
		firstWeekday: firstWeekday,
	}
}

func (c *Clock) Location() *time.Location { return c.loc }

func (c *Clock) FirstWeekday() time.Weekday { return c.firstWeekday }

// StudyDateOf returns the study date an instant belongs to.
func (c *Clock) StudyDateOf(t time.Time) Date {
	local := t.In(c.loc)
	d := Date{local.Year(), local.Month(), local.Day()}
	if local.Hour()*60+local.Minute() < OpenHour*60+OpenMinute {
		return d.AddDays(-1)
	}
	return d
}

// Bounds returns the [start, end) window of a study date as absolute instants.
func (c *Clock) Bounds(d Date) (start, end time.Time) {
	start = time.Date(d.Year, d.Month, d.Day, OpenHour, OpenMinute, 0, 0, c.loc)
	next := d.AddDays(1)
	end = time.Date(next.Year, next.Month, next.Day, CloseHour, CloseMinute, 0, 0, c.loc)
	return start, end
}

// WeekStartOf returns the first-weekday study date of the week containing t's study date.
func (c *Clock) WeekStartOf(t time.Time) Date {
	return c.WeekStartOfDate(c.StudyDateOf(t))
}

func (c *Clock) WeekStartOfDate(d Date) Date {
	offset := (int(d.Weekday()) - int(c.firstWeekday) + 7) % 7
	return d.AddDays(-offset)
}

// WeekDates lists the seven calendar dates starting at weekStart.
func (c *Clock) WeekDates(weekStart Date) []Date {
	dates := make([]Date, 7)
	for i := range dates {
		dates[i] = weekStart.AddDays(i)
	}
	return dates
}

// FromStamp parses an access-control "YYYYMMDD" + "HHmmss" pair in facility time.
func (c *Clock) FromStamp(dateStamp, timeStamp string) (time.Time, error) {
	t, err := time.ParseInLocation("20060102150405", dateStamp+timeStamp, c.loc)
	if err != nil {
		return time.Time{}, errors.Wrapf(err, "parse stamp %s%s", dateStamp, timeStamp)
	}
	return t, nil
}

// Stamp formats an instant as the access-control "YYYYMMDD", "HHmmss" pair in facility time.
func (c *Clock) Stamp(t time.Time) (dateStamp, timeStamp string) {
	local := t.In(c.loc)
	return local.Format("20060102"), local.Format("150405")
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
