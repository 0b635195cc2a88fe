package generic

// =============================================================================
// PERIOD - Inclusive range of calendar days
// =============================================================================

// Period is the inclusive day range [Start, End].
//
// Examples:
//   - A single sick day: 2025-06-03 .. 2025-06-03
//   - A vacation week:   2025-06-02 .. 2025-06-06
//   - Calendar year:     Jan 1 .. Dec 31
type Period struct {
	Start TimePoint
	End   TimePoint
}

// NewPeriod builds a period from two days. Order is not checked; see Valid.
func NewPeriod(start, end TimePoint) Period {
	return Period{Start: start, End: end}
}

// CalendarYear returns Jan 1 - Dec 31 of year.
func CalendarYear(year int) Period {
	return Period{Start: StartOfYear(year), End: EndOfYear(year)}
}

// Valid reports whether End is not earlier than Start.
func (p Period) Valid() bool {
	return p.Start.BeforeOrEqual(p.End)
}

// Overlaps reports whether the two inclusive ranges share at least one day.
// The test is symmetric: a.Overlaps(b) == b.Overlaps(a).
func (p Period) Overlaps(other Period) bool {
	return p.Start.BeforeOrEqual(other.End) && other.Start.BeforeOrEqual(p.End)
}

// Len is the number of calendar days in the period, 0 when inverted.
func (p Period) Len() int {
	if !p.Valid() {
		return 0
	}
	return DaysBetween(p.Start, p.End) + 1
}

// SingleDay reports whether the period covers exactly one day.
func (p Period) SingleDay() bool {
	return p.Start.Equal(p.End)
}

// String returns a string representation of the period.
func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}
