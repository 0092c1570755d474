package schedule

import (
	"fmt"
	"slices"
	"time"

	"github.com/teambition/rrule-go"

	"custodycal/internal/model"
	appLog "custodycal/internal/log"
)

// ProjectEvents replays every rule of both regimes across the map's year
// range as concrete events in loc, then merges touching events of the same
// custodian. Each rule recurs weekly with an interval of its regime's
// cycle length, starting from its first slot after anchor. Occurrences
// whose ISO week is not governed by the rule's regime are dropped.
//
// Returns ErrNoEventsGenerated when nothing falls inside the range.
func ProjectEvents(m model.ScheduleMap, anchor time.Time, regimes *Regimes, loc *time.Location) ([]model.Event, error) {
	if loc == nil {
		loc = time.Local
	}
	rangeStart := time.Date(m.StartYear, time.January, 1, 0, 0, 0, 0, loc)
	rangeEnd := time.Date(m.EndYear, time.December, 31, 23, 59, 59, 0, loc)
	sel := newSelector(m)

	var events []model.Event
	for _, rs := range regimes.All() {
		for _, r := range rs.Rules {
			if checkRule(r) != nil || r.Week > rs.Cycle.Weeks {
				continue
			}
			occ, err := ruleOccurrences(r, rs.Cycle.Weeks, anchor, loc, rangeStart, rangeEnd)
			if err != nil {
				appLog.Error("events: cannot expand rule", err,
					"regime", rs.Regime.String(),
					"file", r.Source,
					"row", r.Row,
				)
				continue
			}
			start, end := ruleSpan(r)
			days := end/SlotsPerDay - start/SlotsPerDay
			for _, t := range occ {
				if _, week := t.ISOWeek(); sel.For(week) != rs.Regime {
					continue
				}
				events = append(events, model.Event{
					Custodian: r.Custodian,
					Regime:    rs.Regime.String(),
					Start:     t,
					End:       wallClock(t, days, end%SlotsPerDay),
				})
			}
		}
	}

	if len(events) == 0 {
		return nil, fmt.Errorf("events: %d-%d: %w", m.StartYear, m.EndYear, ErrNoEventsGenerated)
	}

	merged := MergeEvents(events)
	appLog.Debug("events projected", "raw", len(events), "merged", len(merged))
	return merged, nil
}

// wallClock is the given slot, on the local clock, of the day `days`
// after t's date. Event ends stay on the slot grid across DST changes.
func wallClock(t time.Time, days, slot int) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day()+days,
		slot/2, (slot%2)*SlotMinutes, 0, 0, t.Location())
}

// ruleOccurrences lists the starts of every occurrence of r inside
// [from, to]. The first occurrence is anchor + (week-1) weeks + start day.
func ruleOccurrences(r model.Rule, cycleWeeks int, anchor time.Time, loc *time.Location, from, to time.Time) ([]time.Time, error) {
	first := anchor.AddDate(0, 0, (r.Week-1)*DaysPerWeek+int(r.StartDay))
	dtstart := time.Date(first.Year(), first.Month(), first.Day(),
		r.StartSlot/2, (r.StartSlot%2)*SlotMinutes, 0, 0, loc)

	rule, err := rrule.NewRRule(rrule.ROption{
		Freq:     rrule.WEEKLY,
		Interval: cycleWeeks,
		Dtstart:  dtstart,
		Until:    to,
	})
	if err != nil {
		return nil, err
	}
	return rule.Between(from, to, true), nil
}

// MergeEvents sorts events by start and joins consecutive events of the
// same custodian whose boundaries touch exactly. Any gap keeps them apart.
func MergeEvents(events []model.Event) []model.Event {
	sorted := slices.Clone(events)
	slices.SortStableFunc(sorted, func(a, b model.Event) int {
		if c := a.Start.Compare(b.Start); c != 0 {
			return c
		}
		return a.End.Compare(b.End)
	})

	out := make([]model.Event, 0, len(sorted))
	for _, ev := range sorted {
		if n := len(out); n > 0 {
			last := &out[n-1]
			if last.Custodian == ev.Custodian && last.End.Equal(ev.Start) {
				last.End = ev.End
				continue
			}
		}
		out = append(out, ev)
	}
	return out
}
