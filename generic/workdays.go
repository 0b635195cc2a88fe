package generic

// WorkingDays counts the days in [start, end] that fall Monday through Friday
// and are not holidays in cal. Both ends are reduced to their calendar day
// first, so the result does not depend on time-of-day. An inverted range
// yields 0. A nil calendar excludes weekends only.
//
// The cost is linear in the range length; callers taking ranges from
// clients bound them with ValidatePeriod first.
func WorkingDays(cal HolidayCalendar, start, end TimePoint) int {
	count := 0
	for day := DayOf(start.Time); day.BeforeOrEqual(end); day = day.AddDays(1) {
		if day.IsWorkdayWithHolidays(cal) {
			count++
		}
	}
	return count
}

// WorkingDaysIn is WorkingDays over a Period.
func WorkingDaysIn(cal HolidayCalendar, p Period) int {
	return WorkingDays(cal, p.Start, p.End)
}
