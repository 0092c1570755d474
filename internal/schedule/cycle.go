package schedule

import (
	"custodycal/internal/model"
	appLog "custodycal/internal/log"
)

// Cycle is the canonical repeating pattern of one regime: Weeks*7*48
// slots, each holding a custodian or "" when unassigned. A Cycle is not
// modified after CompileCycle returns it.
type Cycle struct {
	Weeks int
	Slots []string
}

// Days is the cycle length in days.
func (c Cycle) Days() int {
	return c.Weeks * DaysPerWeek
}

// Day returns a copy of the 48 slots of the given day of the cycle.
func (c Cycle) Day(dayInCycle int) []string {
	out := make([]string, SlotsPerDay)
	copy(out, c.Slots[dayInCycle*SlotsPerDay:(dayInCycle+1)*SlotsPerDay])
	return out
}

// EmptyCycle is an all-unassigned cycle of the given length.
func EmptyCycle(weeks int) Cycle {
	return Cycle{Weeks: weeks, Slots: make([]string, weeks*SlotsPerWeek)}
}

// CompileCycle resolves a regime's rules into its canonical cycle. The
// cycle length is the highest week number among valid rules, or
// DefaultCycleWeeks when there is none. Rules apply in input order; a later
// rule overwrites an earlier one wherever they overlap. Invalid rules are
// logged, returned and skipped.
func CompileCycle(regime Regime, rules []model.Rule) (Cycle, []error) {
	var problems []error
	valid := make([]model.Rule, 0, len(rules))
	for _, r := range rules {
		if err := checkRule(r); err != nil {
			appLog.Warn("cycle: skipping malformed rule",
				"regime", regime.String(),
				"file", r.Source,
				"row", r.Row,
				"reason", err.Error(),
			)
			problems = append(problems, err)
			continue
		}
		valid = append(valid, r)
	}

	if len(valid) == 0 {
		if len(rules) > 0 {
			appLog.Warn("cycle: no usable rules; using default cycle length",
				"regime", regime.String(),
				"weeks", DefaultCycleWeeks,
			)
		}
		return EmptyCycle(DefaultCycleWeeks), problems
	}

	weeks := 0
	for _, r := range valid {
		weeks = max(weeks, r.Week)
	}

	cycle := EmptyCycle(weeks)
	total := len(cycle.Slots)
	for _, r := range valid {
		start, end := ruleSpan(r)
		for i := start; i < end; i++ {
			cycle.Slots[i%total] = r.Custodian
		}
	}

	appLog.Debug("cycle compiled",
		"regime", regime.String(),
		"weeks", weeks,
		"rules", len(valid),
		"skipped", len(problems),
	)
	return cycle, problems
}
