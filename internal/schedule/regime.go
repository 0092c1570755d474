package schedule

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"custodycal/internal/model"
)

// Regime selects which custody program governs a date.
type Regime int

const (
	RegimeNone Regime = iota
	RegimeSchool
	RegimeSummer
)

var titleCaser = cases.Title(language.English)

func (r Regime) String() string {
	switch r {
	case RegimeSchool:
		return "school"
	case RegimeSummer:
		return "summer"
	default:
		return "none"
	}
}

// Title is the display form used in marker labels ("School").
func (r Regime) Title() string {
	return titleCaser.String(r.String())
}

// RegimeFor selects the regime for an ISO week. School wins when a week is
// listed in both sets.
func RegimeFor(m model.ScheduleMap, isoWeek int) Regime {
	return newSelector(m).For(isoWeek)
}

// selector is RegimeFor with the week lists turned into lookup tables.
type selector struct {
	school map[int]bool
	summer map[int]bool
}

func newSelector(m model.ScheduleMap) selector {
	s := selector{
		school: make(map[int]bool, len(m.SchoolWeeks)),
		summer: make(map[int]bool, len(m.SummerWeeks)),
	}
	for _, w := range m.SchoolWeeks {
		s.school[w] = true
	}
	for _, w := range m.SummerWeeks {
		s.summer[w] = true
	}
	return s
}

func (s selector) For(isoWeek int) Regime {
	switch {
	case s.school[isoWeek]:
		return RegimeSchool
	case s.summer[isoWeek]:
		return RegimeSummer
	default:
		return RegimeNone
	}
}

// RegimeSchedule is everything the projector needs for one regime: the
// validated rules in input order, the compiled cycle, and the optional
// interaction windows.
type RegimeSchedule struct {
	Regime      Regime
	Rules       []model.Rule
	Cycle       Cycle
	Interaction model.InteractionWindows
}

// Regimes holds both custody programs.
type Regimes struct {
	School RegimeSchedule
	Summer RegimeSchedule
}

// Get returns the schedule for r, or nil for RegimeNone.
func (rs *Regimes) Get(r Regime) *RegimeSchedule {
	switch r {
	case RegimeSchool:
		return &rs.School
	case RegimeSummer:
		return &rs.Summer
	default:
		return nil
	}
}

// All lists the regimes in fixed order (school, then summer).
func (rs *Regimes) All() []*RegimeSchedule {
	return []*RegimeSchedule{&rs.School, &rs.Summer}
}
