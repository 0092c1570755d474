package schedule

import (
	"time"

	"custodycal/internal/model"
)

// ProjectCalendar produces one DayEntry per calendar day from January 1 of
// m.StartYear through December 31 of m.EndYear. The entry for date d sits
// at index DaysBetween(start, d). Days in weeks that belong to neither
// regime stay unassigned with no interaction window.
func ProjectCalendar(m model.ScheduleMap, anchor time.Time, regimes *Regimes) []model.DayEntry {
	start := CivilDate(m.StartYear, time.January, 1)
	end := CivilDate(m.EndYear, time.December, 31)
	if end.Before(start) {
		return nil
	}

	sel := newSelector(m)
	days := make([]model.DayEntry, 0, DaysBetween(start, end)+1)

	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		_, week := d.ISOWeek()
		rs := regimes.Get(sel.For(week))
		if rs == nil || rs.Cycle.Weeks <= 0 {
			days = append(days, model.DayEntry{Custody: make([]string, SlotsPerDay)})
			continue
		}

		entry := model.DayEntry{
			Custody: rs.Cycle.Day(DayInCycle(d, anchor, rs.Cycle.Days())),
		}
		if w, ok := rs.Interaction[WeekdayKey(d.Weekday())]; ok {
			win := w
			entry.Interaction = &win
		}
		days = append(days, entry)
	}
	return days
}
