package ics

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"custodycal/internal/model"
)

func sampleEvents(loc *time.Location) []model.Event {
	return []model.Event{
		{Custodian: "Mom", Regime: "school", Start: time.Date(2024, 1, 7, 0, 0, 0, 0, loc), End: time.Date(2024, 1, 11, 0, 0, 0, 0, loc)},
		{Custodian: "Dad", Regime: "school", Start: time.Date(2024, 1, 11, 0, 0, 0, 0, loc), End: time.Date(2024, 1, 14, 8, 30, 0, 0, loc)},
	}
}

func TestEncodeReadRoundTrip(t *testing.T) {
	loc := time.FixedZone("CST", -6*3600)
	events := sampleEvents(loc)

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, events, Options{Timezone: "America/Chicago", Stamp: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}))
	out := buf.String()

	assert.Equal(t, 2, strings.Count(out, "BEGIN:VEVENT"))
	assert.Contains(t, out, "X-WR-CALNAME:Custody Schedule")
	assert.Contains(t, out, "X-WR-TIMEZONE:America/Chicago")
	assert.Contains(t, out, "SUMMARY:Mom")
	assert.Contains(t, out, "UID:"+EventUID(events[0]))

	got, err := ReadEvents(strings.NewReader(out), loc)
	require.NoError(t, err)
	require.Len(t, got, 2)
	for i := range events {
		assert.Equal(t, events[i].Custodian, got[i].Custodian)
		assert.Equal(t, events[i].Regime, got[i].Regime)
		assert.True(t, events[i].Start.Equal(got[i].Start), "start %d", i)
		assert.True(t, events[i].End.Equal(got[i].End), "end %d", i)
		assert.Equal(t, loc, got[i].Start.Location())
	}
}

func TestEventUIDStable(t *testing.T) {
	events := sampleEvents(time.UTC)
	assert.Equal(t, EventUID(events[0]), EventUID(events[0]))
	assert.NotEqual(t, EventUID(events[0]), EventUID(events[1]))

	// Same instant in another zone is the same block.
	shifted := events[0]
	shifted.Start = shifted.Start.In(time.FixedZone("X", 3600))
	assert.Equal(t, EventUID(events[0]), EventUID(shifted))
	assert.True(t, strings.HasSuffix(EventUID(events[0]), "@custodycal"))
}

func TestReadEventsSkipsBadVEvents(t *testing.T) {
	feed := strings.Join([]string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//test//EN",
		"BEGIN:VEVENT",
		"UID:no-summary",
		"DTSTART:20240101T000000Z",
		"DTEND:20240102T000000Z",
		"END:VEVENT",
		"BEGIN:VEVENT",
		"UID:backwards",
		"SUMMARY:Dad",
		"DTSTART:20240102T000000Z",
		"DTEND:20240101T000000Z",
		"END:VEVENT",
		"BEGIN:VEVENT",
		"UID:ok",
		"SUMMARY:Mom",
		"DTSTART:20240103T000000Z",
		"DTEND:20240104T120000Z",
		"END:VEVENT",
		"END:VCALENDAR",
		"",
	}, "\r\n")

	got, err := ReadEvents(strings.NewReader(feed), time.UTC)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Mom", got[0].Custodian)
	assert.Equal(t, 36*time.Hour, got[0].End.Sub(got[0].Start))
}
