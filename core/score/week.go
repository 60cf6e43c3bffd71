package score

import "time"

// DateOf truncates `t` to its date, at midnight UTC.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// WeekStart returns the Monday of the week containing `t`.
// Weeks run Monday through Sunday: for a Sunday the result is the Monday six
// days earlier, never the next day.
func WeekStart(t time.Time) time.Time {
	var delta int
	if wd := int(t.Weekday()); wd == 0 { // Sunday
		delta = -6
	} else {
		delta = 1 - wd
	}
	return DateOf(t).AddDate(0, 0, delta)
}

// CurrentWeek returns the window from the Monday of `now`'s week through
// `now`'s date, inclusive.
func CurrentWeek(now time.Time) (from, to time.Time) {
	return WeekStart(now), DateOf(now)
}

// WeekToMonthEnd returns the window from the Monday of `now`'s week through the
// last day of `now`'s month; used by the monthly report variant.
func WeekToMonthEnd(now time.Time) (from, to time.Time) {
	from = WeekStart(now)
	to = DateOf(now).AddDate(0, 1, 0)
	to = time.Date(to.Year(), to.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)
	return from, to
}

// LastNDays returns the rolling window of `n` days ending on `now`'s date,
// inclusive on both ends.
func LastNDays(now time.Time, n int) (from, to time.Time) {
	to = DateOf(now)
	from = to.AddDate(0, 0, -(n - 1))
	return from, to
}
