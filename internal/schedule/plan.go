package schedule

import (
	"fmt"
	"slices"
	"time"

	"custodycal/internal/model"
	appLog "custodycal/internal/log"
)

// PlanInput is the complete core input contract for one run.
type PlanInput struct {
	Map model.ScheduleMap

	SchoolRules []model.Rule
	SummerRules []model.Rule

	SchoolInteraction model.InteractionWindows
	SummerInteraction model.InteractionWindows

	// Problems are anomalies found while loading the inputs, such as
	// skipped rule rows. They lead Plan.Warnings.
	Problems []error
}

// Plan is the result of one pipeline run: compiled cycles, the cycle
// anchor, the daily lookup and the window markers. A Plan is read-only
// once NewPlan returns.
type Plan struct {
	Map     model.ScheduleMap
	Anchor  time.Time
	Start   time.Time
	End     time.Time
	Regimes Regimes

	Days    []model.DayEntry
	Markers Markers

	// Warnings collects every non-fatal problem found while building.
	Warnings []error
}

// ValidateMap checks the schedule map. A non-nil error wraps
// ErrConfiguration and is fatal; warnings are not.
func ValidateMap(m model.ScheduleMap) (warnings []error, err error) {
	if m.StartYear <= 0 || m.EndYear <= 0 {
		return nil, fmt.Errorf("%w: start_year and end_year are required", ErrConfiguration)
	}
	if m.EndYear < m.StartYear {
		return nil, fmt.Errorf("%w: end_year %d is before start_year %d", ErrConfiguration, m.EndYear, m.StartYear)
	}

	school := make(map[int]bool, len(m.SchoolWeeks))
	for _, w := range m.SchoolWeeks {
		school[w] = true
	}
	var overlap []int
	for _, w := range m.SummerWeeks {
		if school[w] {
			overlap = append(overlap, w)
		}
	}
	if len(overlap) > 0 {
		slices.Sort(overlap)
		warnings = append(warnings, fmt.Errorf("weeks %v are listed as both school and summer; school wins", overlap))
	}
	for _, w := range slices.Concat(m.SchoolWeeks, m.SummerWeeks) {
		if w < 1 || w > 53 {
			warnings = append(warnings, fmt.Errorf("week %d is not an ISO week number and never matches", w))
		}
	}
	return warnings, nil
}

// checkInteraction reports windows the aggregator will ignore.
func checkInteraction(regime Regime, w model.InteractionWindows) []error {
	var problems []error
	for day, win := range w {
		if d, ok := ParseWeekday(day); !ok || WeekdayKey(d) != day {
			problems = append(problems, fmt.Errorf("%s interaction: unknown weekday key %q", regime, day))
			continue
		}
		if _, _, ok := windowSlots(win); !ok {
			problems = append(problems, fmt.Errorf("%s interaction %s: window %s-%s is not a valid half-hour range", regime, day, win.Start, win.End))
		}
	}
	return problems
}

// NewPlan runs the pipeline: compile both cycles, fix the anchor, project
// the calendar and derive the markers.
func NewPlan(in PlanInput) (*Plan, error) {
	warnings, err := ValidateMap(in.Map)
	if err != nil {
		return nil, err
	}

	p := &Plan{
		Map:    in.Map,
		Anchor: CycleAnchor(in.Map.StartYear),
		Start:  CivilDate(in.Map.StartYear, time.January, 1),
		End:    CivilDate(in.Map.EndYear, time.December, 31),
	}

	schoolCycle, schoolProblems := CompileCycle(RegimeSchool, in.SchoolRules)
	summerCycle, summerProblems := CompileCycle(RegimeSummer, in.SummerRules)
	p.Regimes = Regimes{
		School: RegimeSchedule{Regime: RegimeSchool, Rules: in.SchoolRules, Cycle: schoolCycle, Interaction: in.SchoolInteraction},
		Summer: RegimeSchedule{Regime: RegimeSummer, Rules: in.SummerRules, Cycle: summerCycle, Interaction: in.SummerInteraction},
	}

	warnings = append(warnings, schoolProblems...)
	warnings = append(warnings, summerProblems...)
	warnings = append(warnings, checkInteraction(RegimeSchool, in.SchoolInteraction)...)
	warnings = append(warnings, checkInteraction(RegimeSummer, in.SummerInteraction)...)
	for _, w := range warnings {
		appLog.Warn("plan: input anomaly", "detail", w.Error())
	}
	p.Warnings = append(slices.Clone(in.Problems), warnings...)

	p.Days = ProjectCalendar(p.Map, p.Anchor, &p.Regimes)
	p.Markers = BuildMarkers(p.Map, p.Anchor, &p.Regimes)

	appLog.Info("plan built",
		"start_year", p.Map.StartYear,
		"end_year", p.Map.EndYear,
		"anchor", p.Anchor.Format(DateKey),
		"days", len(p.Days),
		"school_cycle_weeks", schoolCycle.Weeks,
		"summer_cycle_weeks", summerCycle.Weeks,
		"markers", len(p.Markers.List),
		"warnings", len(p.Warnings),
	)
	return p, nil
}

// DayIndex is the lookup index of date; it may fall outside Days.
func (p *Plan) DayIndex(date time.Time) int {
	return DaysBetween(p.Start, date)
}

// Date is the calendar date at lookup index idx.
func (p *Plan) Date(idx int) time.Time {
	return p.Start.AddDate(0, 0, idx)
}

// Day returns the entry for date, or false outside the projected range.
func (p *Plan) Day(date time.Time) (model.DayEntry, bool) {
	i := p.DayIndex(date)
	if i < 0 || i >= len(p.Days) {
		return model.DayEntry{}, false
	}
	return p.Days[i], true
}

// Aggregate sums the inclusive index range [from, to].
func (p *Plan) Aggregate(from, to int) Stats {
	return Aggregate(p.Days, from, to)
}

// AggregateDates sums the inclusive date range [from, to].
func (p *Plan) AggregateDates(from, to time.Time) Stats {
	return Aggregate(p.Days, p.DayIndex(from), p.DayIndex(to))
}

// MonthStats aggregates one calendar month.
func (p *Plan) MonthStats(year int, month time.Month) Stats {
	first := CivilDate(year, month, 1)
	return p.AggregateDates(first, first.AddDate(0, 1, -1))
}

// YearStats aggregates one calendar year.
func (p *Plan) YearStats(year int) Stats {
	return p.AggregateDates(CivilDate(year, time.January, 1), CivilDate(year, time.December, 31))
}

// Overall aggregates the whole projected span.
func (p *Plan) Overall() Stats {
	return Aggregate(p.Days, 0, len(p.Days)-1)
}

// Events projects the merged export events in loc.
func (p *Plan) Events(loc *time.Location) ([]model.Event, error) {
	return ProjectEvents(p.Map, p.Anchor, &p.Regimes, loc)
}

// Years lists every year of the projected span.
func (p *Plan) Years() []int {
	years := make([]int, 0, p.Map.EndYear-p.Map.StartYear+1)
	for y := p.Map.StartYear; y <= p.Map.EndYear; y++ {
		years = append(years, y)
	}
	return years
}
