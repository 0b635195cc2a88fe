// Package holiday provides the German public-holiday calendar used for
// working-day counting.
//
// The table is fixed: six fixed-date holidays plus five holidays that move
// with Easter Sunday, computed per year with the Meeus/Jones/Butcher
// algorithm. Company closure days can be layered on top with
// AddCustomHoliday; they count as holidays for working-day purposes.
//
//	cal := holiday.NewGerman()
//	cal.IsHoliday(generic.NewTimePoint(2025, time.April, 18)) // true, Karfreitag
package holiday

import (
	"sort"
	"sync"
	"time"

	"github.com/warp/leave-planner/generic"
)

type fixedHoliday struct {
	month time.Month
	day   int
	name  string
}

var fixedHolidays = []fixedHoliday{
	{time.January, 1, "Neujahr"},
	{time.May, 1, "Tag der Arbeit"},
	{time.October, 3, "Tag der Deutschen Einheit"},
	{time.October, 31, "Reformationstag"},
	{time.December, 25, "1. Weihnachtstag"},
	{time.December, 26, "2. Weihnachtstag"},
}

// Offsets in days from Easter Sunday.
var easterHolidays = map[int]string{
	-2: "Karfreitag",
	0:  "Ostersonntag",
	1:  "Ostermontag",
	39: "Christi Himmelfahrt",
	50: "Pfingstmontag",
}

// German is the public-holiday calendar. All methods are safe for concurrent use.
type German struct {
	mu     sync.RWMutex
	custom map[string]string
}

var _ generic.HolidayCalendar = (*German)(nil)

// NewGerman creates a calendar with the public table and no custom days.
func NewGerman() *German {
	return &German{custom: make(map[string]string)}
}

// Easter returns Easter Sunday of the Gregorian year.
func Easter(year int) generic.TimePoint {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := ((h + l - 7*m + 114) % 31) + 1
	return generic.NewTimePoint(year, time.Month(month), day)
}

// IsHoliday reports whether the day is a public holiday or a custom closure day.
func (c *German) IsHoliday(date generic.TimePoint) bool {
	_, ok := c.HolidayName(date)
	return ok
}

// HolidayName returns the name of the holiday on date. Public holidays win
// over custom days on the same date.
func (c *German) HolidayName(date generic.TimePoint) (string, bool) {
	if date.IsZero() {
		return "", false
	}
	if name, ok := publicHolidayName(date); ok {
		return name, true
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	name, ok := c.custom[date.String()]
	return name, ok
}

func publicHolidayName(date generic.TimePoint) (string, bool) {
	for _, f := range fixedHolidays {
		if date.Month() == f.month && date.Day() == f.day {
			return f.name, true
		}
	}
	offset := generic.DaysBetween(Easter(date.Year()), date)
	name, ok := easterHolidays[offset]
	return name, ok
}

// HolidaysInYear returns all holidays of the year, public and custom, sorted by date.
func (c *German) HolidaysInYear(year int) []generic.Holiday {
	seen := make(map[string]bool)
	var result []generic.Holiday

	for _, f := range fixedHolidays {
		d := generic.NewTimePoint(year, f.month, f.day)
		seen[d.String()] = true
		result = append(result, generic.Holiday{Date: d, Name: f.name})
	}
	easter := Easter(year)
	for offset, name := range easterHolidays {
		d := easter.AddDays(offset)
		if seen[d.String()] {
			continue
		}
		seen[d.String()] = true
		result = append(result, generic.Holiday{Date: d, Name: name})
	}

	c.mu.RLock()
	for key, name := range c.custom {
		d, err := generic.ParseDate(key)
		if err != nil || d.Year() != year || seen[key] {
			continue
		}
		result = append(result, generic.Holiday{Date: d, Name: name, Custom: true})
	}
	c.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		return result[i].Date.Before(result[j].Date)
	})
	return result
}

// AddCustomHoliday registers a company closure day, overwriting any custom
// entry on the same date.
func (c *German) AddCustomHoliday(date generic.TimePoint, name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.custom[date.String()] = name
}

// RemoveCustomHoliday removes a closure day. Public holidays cannot be removed.
func (c *German) RemoveCustomHoliday(date generic.TimePoint) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.custom, date.String())
}

// CustomHolidays lists the closure days, sorted by date.
func (c *German) CustomHolidays() []generic.Holiday {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make([]generic.Holiday, 0, len(c.custom))
	for key, name := range c.custom {
		d, err := generic.ParseDate(key)
		if err != nil {
			continue
		}
		result = append(result, generic.Holiday{Date: d, Name: name, Custom: true})
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Date.Before(result[j].Date)
	})
	return result
}
