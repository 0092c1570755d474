package pipeline

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"custodycal/internal/config"
	"custodycal/internal/ics"
	"custodycal/internal/metrics"
	"custodycal/internal/model"
	"custodycal/internal/schedule"
)

const rulesCSV = `Week of Cycle,Start Day of Window,Start Time of Window,End Day of Window,End Time of Window,Custodian,Window Number
1,Sunday,00:00,Thursday,00:00,Mom,1
1,Thursday,00:00,Sunday,00:00,Dad,2
1,Blursday,00:00,Sunday,00:00,Dad,3
`

func fixture(t *testing.T, scheduleMap string) (*Pipeline, afero.Fs) {
	t.Helper()
	fsys := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fsys, "/in/schedule_map.json", []byte(scheduleMap), 0o644))
	require.NoError(t, afero.WriteFile(fsys, "/in/school_schedule.csv", []byte(rulesCSV), 0o644))
	require.NoError(t, afero.WriteFile(fsys, "/in/school_interaction.json", []byte(`{"monday": {"start": "15:00", "end": "18:00"}}`), 0o644))

	cfg := config.DefaultConfig()
	cfg.InputDir = "/in"
	cfg.OutputDir = "/out"
	cfg.Timezone = "UTC"
	cfg.Outputs.LookupJSON = "lookup.json"

	rec, err := metrics.NewRecorder(prometheus.NewRegistry())
	require.NoError(t, err)
	p := New(cfg, fsys, rec)
	p.Now = func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) }
	return p, fsys
}

const fullYear = `{"start_year": 2024, "end_year": 2024, "school_weeks": [1,2,3,4,5,6,7,8,9,10,11,12,13,14,15,16,17,18,19,20,21,22,23,24,25,26,27,28,29,30,31,32,33,34,35,36,37,38,39,40,41,42,43,44,45,46,47,48,49,50,51,52,53]}`

func TestBuild(t *testing.T) {
	p, _ := fixture(t, fullYear)

	plan, err := p.Build()
	require.NoError(t, err)
	assert.Len(t, plan.Days, 366)
	require.NotEmpty(t, plan.Warnings)
	assert.ErrorIs(t, plan.Warnings[0], schedule.ErrMalformedRule)
}

func TestBuildMissingMap(t *testing.T) {
	p, fsys := fixture(t, fullYear)
	require.NoError(t, fsys.Remove("/in/schedule_map.json"))

	_, err := p.Build()
	assert.ErrorIs(t, err, schedule.ErrConfiguration)
}

func TestGenerate(t *testing.T) {
	p, fsys := fixture(t, fullYear)
	plan, err := p.Build()
	require.NoError(t, err)

	written, err := p.Generate(context.Background(), plan)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		"/out/style.css",
		"/out/custody_calendar.html",
		"/out/lookup.json",
		"/out/custody_calculation_audit.csv",
		"/out/custody_schedule.ics",
	}, written)

	page, err := afero.ReadFile(fsys, "/out/custody_calendar.html")
	require.NoError(t, err)
	assert.Contains(t, string(page), `href="style.css"`)
	assert.Contains(t, string(page), `href="custody_schedule.ics"`)

	audit, err := afero.ReadFile(fsys, "/out/custody_calculation_audit.csv")
	require.NoError(t, err)
	assert.Contains(t, string(audit), "Generated On:,2024-06-01")

	cal, err := afero.ReadFile(fsys, "/out/custody_schedule.ics")
	require.NoError(t, err)
	assert.Contains(t, string(cal), "X-WR-TIMEZONE:UTC")
	// One merged Mom block and one Dad block per week.
	assert.Greater(t, strings.Count(string(cal), "SUMMARY:Mom"), 50)
}

func TestGenerateWithoutEvents(t *testing.T) {
	p, fsys := fixture(t, `{"start_year": 2024, "end_year": 2024}`)
	plan, err := p.Build()
	require.NoError(t, err)

	written, err := p.Generate(context.Background(), plan)
	require.NoError(t, err)
	assert.NotContains(t, written, "/out/custody_schedule.ics")
	exists, err := afero.Exists(fsys, "/out/custody_schedule.ics")
	require.NoError(t, err)
	assert.False(t, exists)

	assert.ErrorIs(t, p.WriteICS(plan, "/out/x.ics"), schedule.ErrNoEventsGenerated)
}

func TestHTMLFileURLNeedsOSFs(t *testing.T) {
	p, _ := fixture(t, fullYear)
	_, err := p.HTMLFileURL()
	assert.Error(t, err)

	cfg := config.DefaultConfig()
	cfg.OutputDir = t.TempDir()
	u, err := New(cfg, nil, nil).HTMLFileURL()
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(u, "/custody_calendar.html"), u)
}

func TestVerifyICS(t *testing.T) {
	start := time.Date(2024, time.January, 7, 0, 0, 0, 0, time.UTC)
	events := []model.Event{
		{Custodian: "Mom", Regime: "school", Start: start, End: start.AddDate(0, 0, 4)},
		{Custodian: "Dad", Regime: "school", Start: start.AddDate(0, 0, 4), End: start.AddDate(0, 0, 7)},
	}
	var buf bytes.Buffer
	require.NoError(t, ics.Encode(&buf, events, ics.Options{Stamp: start}))

	assert.NoError(t, verifyICS(buf.Bytes(), 2))
	assert.ErrorContains(t, verifyICS(buf.Bytes(), 3), "2 of 3 events")

	// A VEVENT without SUMMARY is skipped by the reader and caught here.
	broken := bytes.Replace(buf.Bytes(), []byte("SUMMARY:Dad"), []byte("X-NOTE:Dad"), 1)
	assert.ErrorContains(t, verifyICS(broken, 2), "1 of 2 events")
}

func TestWriteICSReadsBack(t *testing.T) {
	p, fsys := fixture(t, fullYear)
	plan, err := p.Build()
	require.NoError(t, err)
	require.NoError(t, p.WriteICS(plan, "/out/check.ics"))

	data, err := afero.ReadFile(fsys, "/out/check.ics")
	require.NoError(t, err)
	events, err := p.Events(plan)
	require.NoError(t, err)
	got, err := ics.ReadEvents(bytes.NewReader(data), time.UTC)
	require.NoError(t, err)
	assert.Len(t, got, len(events))
}
