package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"custodycal/internal/model"
)

var weekdayByName = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
	"sun":       time.Sunday,
	"mon":       time.Monday,
	"tue":       time.Tuesday,
	"wed":       time.Wednesday,
	"thu":       time.Thursday,
	"fri":       time.Friday,
	"sat":       time.Saturday,
}

// ParseWeekday accepts full or three-letter English weekday names in any
// case.
func ParseWeekday(name string) (time.Weekday, bool) {
	d, ok := weekdayByName[strings.ToLower(strings.TrimSpace(name))]
	return d, ok
}

// WeekdayKey is the lowercase weekday name used to key interaction
// windows.
func WeekdayKey(d time.Weekday) string {
	return strings.ToLower(d.String())
}

// ParseRule validates one raw row. The first bad field wins and is
// reported as a *MalformedRuleError.
func ParseRule(raw model.RawRule) (model.Rule, error) {
	bad := func(field, value string, err error) (model.Rule, error) {
		return model.Rule{}, &MalformedRuleError{Source: raw.Source, Row: raw.Row, Field: field, Value: value, Err: err}
	}

	week, err := strconv.Atoi(strings.TrimSpace(raw.Week))
	if err != nil {
		return bad("week", raw.Week, err)
	}
	if week < 1 || week > MaxCycleWeeks {
		return bad("week", raw.Week, fmt.Errorf("week must be within 1..%d", MaxCycleWeeks))
	}
	startDay, ok := ParseWeekday(raw.StartDay)
	if !ok {
		return bad("start_day", raw.StartDay, fmt.Errorf("unknown weekday"))
	}
	endDay, ok := ParseWeekday(raw.EndDay)
	if !ok {
		return bad("end_day", raw.EndDay, fmt.Errorf("unknown weekday"))
	}
	startSlot, err := TimeToSlot(raw.StartTime)
	if err != nil {
		return bad("start_time", raw.StartTime, err)
	}
	if startSlot == EndOfDay {
		return bad("start_time", raw.StartTime, fmt.Errorf("%w: 24:00 is only valid as an end time", ErrInvalidTimeFormat))
	}
	endSlot, err := TimeToSlot(raw.EndTime)
	if err != nil {
		return bad("end_time", raw.EndTime, err)
	}
	custodian := strings.TrimSpace(raw.Custodian)
	if custodian == "" {
		return bad("custodian", raw.Custodian, fmt.Errorf("custodian is empty"))
	}

	return model.Rule{
		Week:      week,
		StartDay:  startDay,
		StartSlot: startSlot,
		EndDay:    endDay,
		EndSlot:   endSlot,
		Custodian: custodian,
		WindowID:  strings.TrimSpace(raw.WindowID),
		Source:    raw.Source,
		Row:       raw.Row,
	}, nil
}

// checkRule re-validates a typed rule. Rules built in code rather than via
// ParseRule go through the same gate before touching a cycle.
func checkRule(r model.Rule) error {
	bad := func(field string, err error) error {
		return &MalformedRuleError{Source: r.Source, Row: r.Row, Field: field, Err: err}
	}
	switch {
	case r.Week < 1 || r.Week > MaxCycleWeeks:
		return bad("week", fmt.Errorf("week %d must be within 1..%d", r.Week, MaxCycleWeeks))
	case r.StartDay < time.Sunday || r.StartDay > time.Saturday:
		return bad("start_day", fmt.Errorf("weekday %d out of range", r.StartDay))
	case r.EndDay < time.Sunday || r.EndDay > time.Saturday:
		return bad("end_day", fmt.Errorf("weekday %d out of range", r.EndDay))
	case r.StartSlot < 0 || r.StartSlot >= SlotsPerDay:
		return bad("start_time", fmt.Errorf("%w: slot %d", ErrInvalidTimeFormat, r.StartSlot))
	case r.EndSlot < 0 || r.EndSlot > EndOfDay:
		return bad("end_time", fmt.Errorf("%w: slot %d", ErrInvalidTimeFormat, r.EndSlot))
	case r.Custodian == "":
		return bad("custodian", fmt.Errorf("custodian is empty"))
	}
	return nil
}

// ruleSpan returns the absolute [start, end) slot range of a rule within
// its cycle. When the raw end does not come after the start, the window
// wraps forward by exactly one week. The same rule is used by the cycle
// compiler, the marker builder and the event projector. end may exceed the
// cycle length; callers reduce it modulo the cycle.
func ruleSpan(r model.Rule) (start, end int) {
	base := (r.Week - 1) * DaysPerWeek
	start = (base+int(r.StartDay))*SlotsPerDay + r.StartSlot
	end = (base+int(r.EndDay))*SlotsPerDay + r.EndSlot
	if end <= start {
		end += SlotsPerWeek
	}
	return start, end
}
