package input

import (
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"custodycal/internal/config"
	"custodycal/internal/schedule"
)

const schoolCSV = "\xEF\xBB\xBFWeek of Four Week Cycle,Start Day of Window,Start Time of Window,End Day of Window,End Time of Window,Custodian,Window Number\n" +
	"1,Monday,08:00,Wednesday,08:00,Mom,A\n" +
	"1,Wednesday,08:00,Monday,08:00,Dad,B\n" +
	",,,,,,\n" +
	"1,Funday,08:00,Monday,08:00,Dad,C\n" +
	"2,Monday,08:15,Monday,09:00,Dad,D\n"

func newFS(t *testing.T, files map[string]string) afero.Fs {
	t.Helper()
	fsys := afero.NewMemMapFs()
	for name, body := range files {
		require.NoError(t, afero.WriteFile(fsys, "/in/"+name, []byte(body), 0o644))
	}
	return fsys
}

func TestReadRawRules(t *testing.T) {
	l := NewLoader(newFS(t, map[string]string{"school.csv": schoolCSV}), "/in")

	raws, err := l.ReadRawRules("school.csv")
	require.NoError(t, err)
	require.Len(t, raws, 4)

	assert.Equal(t, "1", raws[0].Week)
	assert.Equal(t, "Monday", raws[0].StartDay)
	assert.Equal(t, "A", raws[0].WindowID)
	assert.Equal(t, 1, raws[0].Row)
	// The blank third row is skipped but still counted.
	assert.Equal(t, 4, raws[2].Row)
}

func TestReadRawRulesMissingColumn(t *testing.T) {
	l := NewLoader(newFS(t, map[string]string{"bad.csv": "Week of Cycle,Custodian\n1,Mom\n"}), "/in")
	_, err := l.ReadRawRules("bad.csv")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "start day of window")
}

func TestLoadRulesSkipsMalformed(t *testing.T) {
	l := NewLoader(newFS(t, map[string]string{"school.csv": schoolCSV}), "/in")

	rules, problems, err := l.LoadRules("school.csv", true)
	require.NoError(t, err)
	require.Len(t, rules, 2)
	require.Len(t, problems, 2)

	assert.Equal(t, time.Monday, rules[0].StartDay)
	assert.Equal(t, 16, rules[0].StartSlot)
	assert.Equal(t, "Dad", rules[1].Custodian)
	for _, p := range problems {
		assert.ErrorIs(t, p, schedule.ErrMalformedRule)
	}
	assert.ErrorIs(t, problems[1], schedule.ErrInvalidTimeFormat)
}

func TestLoadRulesMissingFile(t *testing.T) {
	l := NewLoader(afero.NewMemMapFs(), "/in")

	_, _, err := l.LoadRules("school.csv", true)
	assert.ErrorIs(t, err, schedule.ErrConfiguration)

	_, _, err = l.LoadRules("summer.csv", false)
	assert.ErrorIs(t, err, schedule.ErrMissingOptionalInput)
	assert.NotErrorIs(t, err, schedule.ErrConfiguration)
}

func TestLoadRulesEmptyRequired(t *testing.T) {
	header := "Week of Cycle,Start Day of Window,Start Time of Window,End Day of Window,End Time of Window,Custodian\n"
	l := NewLoader(newFS(t, map[string]string{"school.csv": header, "summer.csv": header}), "/in")

	_, _, err := l.LoadRules("school.csv", true)
	assert.ErrorIs(t, err, schedule.ErrConfiguration)

	rules, problems, err := l.LoadRules("summer.csv", false)
	require.NoError(t, err)
	assert.Empty(t, rules)
	assert.Empty(t, problems)
}

func TestLoadScheduleMap(t *testing.T) {
	l := NewLoader(newFS(t, map[string]string{
		"map.json":     `{"start_year": 2024, "end_year": 2025, "school_weeks": [1, 2], "summer_weeks": [27]}`,
		"map.yaml":     "start_year: 2024\nend_year: 2024\n",
		"noyear.json":  `{"school_weeks": [1]}`,
		"inverted.yml": "start_year: 2025\nend_year: 2024\n",
		"broken.json":  `{"start_year": `,
	}), "/in")

	m, err := l.LoadScheduleMap("map.json")
	require.NoError(t, err)
	assert.Equal(t, 2024, m.StartYear)
	assert.Equal(t, 2025, m.EndYear)
	assert.Equal(t, []int{1, 2}, m.SchoolWeeks)
	assert.Equal(t, []int{27}, m.SummerWeeks)

	m, err = l.LoadScheduleMap("map.yaml")
	require.NoError(t, err)
	assert.Empty(t, m.SchoolWeeks)

	for _, name := range []string{"noyear.json", "inverted.yml", "broken.json", "absent.json"} {
		_, err := l.LoadScheduleMap(name)
		assert.ErrorIs(t, err, schedule.ErrConfiguration, name)
	}
}

func TestLoadInteraction(t *testing.T) {
	l := NewLoader(newFS(t, map[string]string{
		"school_interaction.json": `{"Monday": {"start": "15:00", "end": "18:00"}, "friday": {"start": "16:00", "end": "19:30"}}`,
	}), "/in")

	w, err := l.LoadInteraction("school_interaction.json")
	require.NoError(t, err)
	require.Len(t, w, 2)
	assert.Equal(t, "15:00", w["monday"].Start)
	assert.Equal(t, "19:30", w["friday"].End)

	_, err = l.LoadInteraction("summer_interaction.json")
	assert.ErrorIs(t, err, schedule.ErrMissingOptionalInput)
	_, err = l.LoadInteraction("")
	assert.ErrorIs(t, err, schedule.ErrMissingOptionalInput)
}

func TestLoadPlanInput(t *testing.T) {
	fsys := newFS(t, map[string]string{
		"schedule_map.json":       `{"start_year": 2024, "end_year": 2024, "school_weeks": [1, 2, 3]}`,
		"school_schedule.csv":     schoolCSV,
		"school_interaction.json": `{"monday": {"start": "15:00", "end": "18:00"}}`,
	})
	l := NewLoader(fsys, "/in")

	in, problems, err := l.LoadPlanInput(config.DefaultConfig().Files)
	require.NoError(t, err)
	assert.Len(t, problems, 2)
	assert.Len(t, in.SchoolRules, 2)
	assert.Empty(t, in.SummerRules)
	assert.Len(t, in.SchoolInteraction, 1)
	assert.Nil(t, in.SummerInteraction)

	p, err := schedule.NewPlan(in)
	require.NoError(t, err)
	assert.Len(t, p.Days, 366)
}

func TestLoadPlanInputRequiresSchoolRules(t *testing.T) {
	fsys := newFS(t, map[string]string{
		"schedule_map.json": `{"start_year": 2024, "end_year": 2024}`,
	})
	_, _, err := NewLoader(fsys, "/in").LoadPlanInput(config.DefaultConfig().Files)
	assert.ErrorIs(t, err, schedule.ErrConfiguration)
}
