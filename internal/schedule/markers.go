package schedule

import (
	"fmt"
	"time"

	"custodycal/internal/model"
)

// DateKey is the map key used for per-date outputs.
const DateKey = "2006-01-02"

// Markers annotates the calendar with the opening and closing points of
// every rule window. They are derived from the rules themselves rather
// than from the compiled cycle, so windows hidden by a later overlapping
// rule still get their labels.
type Markers struct {
	// List holds every marker in date order.
	List []model.Marker
	// Labels maps date -> slot -> window labels.
	Labels map[string]map[int][]string
	// EndLabels maps date -> slot -> clock label of a window end.
	EndLabels map[string]map[int]string
}

// pendingMarker is a marker positioned within a cycle, waiting to be
// placed on every matching calendar day.
type pendingMarker struct {
	slot     int
	label    string
	isStart  bool
	endLabel string
}

// BuildMarkers walks every date in the map's range and emits the markers
// of the regime active on that date whose window starts or ends on that
// day of the cycle.
func BuildMarkers(m model.ScheduleMap, anchor time.Time, regimes *Regimes) Markers {
	out := Markers{
		Labels:    make(map[string]map[int][]string),
		EndLabels: make(map[string]map[int]string),
	}

	byRegime := make(map[Regime]map[int][]pendingMarker, 2)
	for _, rs := range regimes.All() {
		byRegime[rs.Regime] = pendingMarkers(rs)
	}

	start := CivilDate(m.StartYear, time.January, 1)
	end := CivilDate(m.EndYear, time.December, 31)
	sel := newSelector(m)

	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		_, week := d.ISOWeek()
		r := sel.For(week)
		rs := regimes.Get(r)
		if rs == nil || rs.Cycle.Weeks <= 0 {
			continue
		}
		pending := byRegime[r][DayInCycle(d, anchor, rs.Cycle.Days())]
		if len(pending) == 0 {
			continue
		}
		key := d.Format(DateKey)
		for _, p := range pending {
			out.List = append(out.List, model.Marker{Date: d, Slot: p.slot, Label: p.label, IsStart: p.isStart})
			if out.Labels[key] == nil {
				out.Labels[key] = make(map[int][]string)
			}
			out.Labels[key][p.slot] = append(out.Labels[key][p.slot], p.label)
			if p.endLabel != "" {
				if out.EndLabels[key] == nil {
					out.EndLabels[key] = make(map[int]string)
				}
				out.EndLabels[key][p.slot] = p.endLabel
			}
		}
	}
	return out
}

// pendingMarkers indexes a regime's rule windows by day of cycle.
func pendingMarkers(rs *RegimeSchedule) map[int][]pendingMarker {
	byDay := make(map[int][]pendingMarker)
	total := rs.Cycle.Weeks * SlotsPerWeek
	if total == 0 {
		return byDay
	}
	for _, r := range rs.Rules {
		if checkRule(r) != nil || r.Week > rs.Cycle.Weeks {
			continue
		}
		label := fmt.Sprintf("%s %d-%s", rs.Regime.Title(), r.Week, r.WindowID)
		start, end := ruleSpan(r)
		end %= total

		startDay, startSlot := start/SlotsPerDay, start%SlotsPerDay
		endDay, endSlot := end/SlotsPerDay, end%SlotsPerDay

		byDay[startDay] = append(byDay[startDay], pendingMarker{slot: startSlot, label: label, isStart: true})
		em := pendingMarker{slot: endSlot, label: label}
		if endSlot != 0 {
			em.endLabel = SlotLabel(endSlot)
		}
		byDay[endDay] = append(byDay[endDay], em)
	}
	return byDay
}

// At returns the labels placed on date at slot.
func (mk Markers) At(date time.Time, slot int) []string {
	return mk.Labels[Civil(date).Format(DateKey)][slot]
}

// EndLabelAt returns the end-time label placed on date at slot, if any.
func (mk Markers) EndLabelAt(date time.Time, slot int) string {
	return mk.EndLabels[Civil(date).Format(DateKey)][slot]
}
