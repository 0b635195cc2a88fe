/*
Package generic provides the calendar primitives the leave engine is built on.

PURPOSE:
  Leave requests, holidays and balances all reason about whole calendar days.
  This package owns that notion: a TimePoint is a calendar day, a Period is an
  inclusive range of days, and WorkingDays counts the business days inside a
  Period against a HolidayCalendar.

KEY CONCEPTS IN THIS FILE (time.go):
  - TimePoint: A calendar day. Time-of-day is discarded on construction.
  - HolidayCalendar: Lookup interface implemented by the holiday package.
  - Holiday: A named public holiday or company closure day.

DESIGN PRINCIPLES:
  1. Day granularity: two TimePoints on the same local date are equal,
     regardless of the clock time or location they were built from.
  2. Totality: nothing in this package panics or errors on odd input; an
     inverted range simply contains no days.

SEE ALSO:
  - period.go: Inclusive day ranges and intersection
  - workdays.go: Working-day counting
  - holiday/german.go: The German public-holiday calendar
*/
package generic

import (
	"fmt"
	"time"
)

// DateLayout is the wire and storage format of a TimePoint.
const DateLayout = "2006-01-02"

// =============================================================================
// TIME POINT - A calendar day
// =============================================================================

// TimePoint is a single calendar day. The zero value is the zero time.
type TimePoint struct {
	Time time.Time
}

// NewTimePoint builds a TimePoint for the given calendar date.
func NewTimePoint(year int, month time.Month, day int) TimePoint {
	return TimePoint{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DayOf truncates t to the calendar day it falls on in its own location.
// 2025-06-02T23:30+02:00 is June 2nd, not June 1st.
func DayOf(t time.Time) TimePoint {
	if t.IsZero() {
		return TimePoint{}
	}
	return NewTimePoint(t.Year(), t.Month(), t.Day())
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (TimePoint, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return TimePoint{}, fmt.Errorf("invalid date %q (use YYYY-MM-DD): %w", s, err)
	}
	return DayOf(t), nil
}

// MustParseDate is ParseDate for literals in tests and fixtures.
func MustParseDate(s string) TimePoint {
	tp, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return tp
}

// Comparison
func (tp TimePoint) Before(other TimePoint) bool        { return tp.normalize().Before(other.normalize()) }
func (tp TimePoint) Equal(other TimePoint) bool         { return tp.normalize().Equal(other.normalize()) }
func (tp TimePoint) After(other TimePoint) bool         { return tp.normalize().After(other.normalize()) }
func (tp TimePoint) BeforeOrEqual(other TimePoint) bool { return !tp.After(other) }
func (tp TimePoint) AfterOrEqual(other TimePoint) bool  { return !tp.Before(other) }

// normalize re-derives the day from the stored time so hand-built TimePoints
// carrying a clock time still compare by date.
func (tp TimePoint) normalize() time.Time {
	return time.Date(tp.Time.Year(), tp.Time.Month(), tp.Time.Day(), 0, 0, 0, 0, time.UTC)
}

// Arithmetic
func (tp TimePoint) AddDays(n int) TimePoint { return TimePoint{Time: tp.normalize().AddDate(0, 0, n)} }

// Properties
func (tp TimePoint) Year() int             { return tp.Time.Year() }
func (tp TimePoint) Month() time.Month     { return tp.Time.Month() }
func (tp TimePoint) Day() int              { return tp.Time.Day() }
func (tp TimePoint) Weekday() time.Weekday { return tp.normalize().Weekday() }
func (tp TimePoint) IsZero() bool          { return tp.Time.IsZero() }
func (tp TimePoint) IsWeekend() bool {
	wd := tp.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}
func (tp TimePoint) IsWorkday() bool { return !tp.IsWeekend() }

func (tp TimePoint) String() string {
	return tp.normalize().Format(DateLayout)
}

// MarshalText renders the day as YYYY-MM-DD so TimePoints travel through
// encoding/json as plain date strings.
func (tp TimePoint) MarshalText() ([]byte, error) {
	if tp.IsZero() {
		return []byte{}, nil
	}
	return []byte(tp.String()), nil
}

func (tp *TimePoint) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*tp = TimePoint{}
		return nil
	}
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*tp = parsed
	return nil
}

// =============================================================================
// HOLIDAY CALENDAR
// =============================================================================

// Holiday is a named non-working day.
type Holiday struct {
	Date TimePoint
	Name string
	// Custom marks company closure days added on top of the public table.
	Custom bool
}

// HolidayCalendar provides holiday lookup functionality.
type HolidayCalendar interface {
	// IsHoliday reports whether the day is a holiday.
	IsHoliday(date TimePoint) bool

	// HolidayName returns the holiday's display name. Informational only.
	HolidayName(date TimePoint) (string, bool)

	// HolidaysInYear returns every holiday in the year, sorted by date.
	HolidaysInYear(year int) []Holiday
}

// NoHolidays is a calendar without holidays; only weekends are excluded.
type NoHolidays struct{}

func (NoHolidays) IsHoliday(TimePoint) bool             { return false }
func (NoHolidays) HolidayName(TimePoint) (string, bool) { return "", false }
func (NoHolidays) HolidaysInYear(int) []Holiday         { return nil }

// IsWorkdayWithHolidays checks if a date is a working day, considering holidays.
func (tp TimePoint) IsWorkdayWithHolidays(calendar HolidayCalendar) bool {
	if tp.IsWeekend() {
		return false
	}
	if calendar != nil && calendar.IsHoliday(tp) {
		return false
	}
	return true
}

// =============================================================================
// TIME UTILITIES
// =============================================================================

func DaysBetween(from, to TimePoint) int {
	return int(to.normalize().Sub(from.normalize()).Hours() / 24)
}
func StartOfYear(year int) TimePoint { return NewTimePoint(year, time.January, 1) }
func EndOfYear(year int) TimePoint   { return NewTimePoint(year, time.December, 31) }
