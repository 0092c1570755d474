package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"custodycal/internal/model"
)

func TestNewPlanRejectsBadMap(t *testing.T) {
	_, err := NewPlan(PlanInput{Map: model.ScheduleMap{StartYear: 2024}})
	assert.ErrorIs(t, err, ErrConfiguration)

	_, err = NewPlan(PlanInput{Map: model.ScheduleMap{StartYear: 2025, EndYear: 2024}})
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestValidateMapWarnings(t *testing.T) {
	warnings, err := ValidateMap(model.ScheduleMap{
		StartYear: 2024, EndYear: 2024,
		SchoolWeeks: []int{1, 2, 60},
		SummerWeeks: []int{2, 3},
	})
	require.NoError(t, err)
	require.Len(t, warnings, 2)
	assert.Contains(t, warnings[0].Error(), "[2]")
	assert.Contains(t, warnings[1].Error(), "60")
}

func TestNewPlan(t *testing.T) {
	bad := rule(1, time.Monday, "00:00", time.Monday, "08:00", "Dad")
	bad.Week = -1
	p, err := NewPlan(PlanInput{
		Map: model.ScheduleMap{StartYear: 2024, EndYear: 2024, SchoolWeeks: []int{1, 2, 3, 4}, SummerWeeks: []int{26, 27}},
		SchoolRules: []model.Rule{
			rule(1, time.Monday, "00:00", time.Monday, "08:00", "Dad"),
			rule(1, time.Monday, "08:00", time.Wednesday, "08:00", "Mom"),
			bad,
		},
		SummerRules:       []model.Rule{rule(2, time.Sunday, "00:00", time.Sunday, "00:00", "Dad")},
		SchoolInteraction: model.InteractionWindows{"monday": {Start: "15:00", End: "18:00"}, "Funday": {Start: "x", End: "y"}},
	})
	require.NoError(t, err)
	assert.Len(t, p.Warnings, 2)
	assert.Equal(t, CivilDate(2023, time.December, 31), p.Anchor)
	require.Len(t, p.Days, 366)
	assert.Equal(t, 1, p.Regimes.School.Cycle.Weeks)
	assert.Equal(t, 2, p.Regimes.Summer.Cycle.Weeks)

	jan1 := CivilDate(2024, time.January, 1)
	assert.Equal(t, 0, p.DayIndex(jan1))
	assert.Equal(t, jan1, p.Date(0))
	day, ok := p.Day(jan1)
	require.True(t, ok)
	assert.Equal(t, "Dad", day.Custody[15])
	assert.Equal(t, "Mom", day.Custody[16])
	_, ok = p.Day(CivilDate(2025, time.January, 1))
	assert.False(t, ok)

	// Monday of week 1: six interaction slots, all Mom.
	s := p.AggregateDates(jan1, jan1)
	assert.Equal(t, 6, s.Interaction["Mom"])

	// Summer is active only in weeks 26-27.
	june := p.MonthStats(2024, time.June)
	assert.Zero(t, june.Custody["Mom"])
	assert.Positive(t, june.Custody["Dad"])

	events, err := p.Events(time.UTC)
	require.NoError(t, err)
	assert.NotEmpty(t, events)
	assert.NotEmpty(t, p.Markers.List)
	assert.Len(t, p.Years(), 1)
}

func TestNewPlanLeadsWithLoadProblems(t *testing.T) {
	skipped := &MalformedRuleError{Source: "school.csv", Row: 4, Field: "start_day", Value: "Funday"}
	in := PlanInput{
		Map:         model.ScheduleMap{StartYear: 2024, EndYear: 2024, SchoolWeeks: []int{1}, SummerWeeks: []int{1}},
		SchoolRules: []model.Rule{rule(1, time.Monday, "00:00", time.Monday, "08:00", "Dad")},
		Problems:    []error{skipped},
	}
	p, err := NewPlan(in)
	require.NoError(t, err)
	require.Len(t, p.Warnings, 2)
	assert.Same(t, skipped, p.Warnings[0])
	assert.Contains(t, p.Warnings[1].Error(), "school wins")

	// The caller's slice is not shared with the plan.
	p.Warnings[0] = nil
	assert.Same(t, skipped, in.Problems[0])
}
