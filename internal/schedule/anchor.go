package schedule

import "time"

// Dates are handled as civil days: midnight UTC, so subtracting two of
// them always yields a whole number of days regardless of DST.

// CivilDate returns midnight UTC of the given day.
func CivilDate(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Civil strips the clock and zone from t, keeping its calendar day.
func Civil(t time.Time) time.Time {
	return CivilDate(t.Year(), t.Month(), t.Day())
}

// DaysBetween returns b - a in whole days for civil dates.
func DaysBetween(a, b time.Time) int {
	return int(Civil(b).Sub(Civil(a)) / (24 * time.Hour))
}

// CycleAnchor is the Sunday on or before January 1 of startYear. Every
// cyclic offset in a run is measured from it.
func CycleAnchor(startYear int) time.Time {
	jan1 := CivilDate(startYear, time.January, 1)
	return jan1.AddDate(0, 0, -int(jan1.Weekday()))
}

// FloorMod is a mod n reduced into [0, n), including for negative a.
func FloorMod(a, n int) int {
	m := a % n
	if m < 0 {
		m += n
	}
	return m
}

// DayInCycle is the zero-based day of a cycle of cycleDays days that date
// falls on, counting from anchor.
func DayInCycle(date, anchor time.Time, cycleDays int) int {
	return FloorMod(DaysBetween(anchor, date), cycleDays)
}
