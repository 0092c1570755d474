package model

import (
	"encoding/json"
	"time"
)

// RawRule is one row of a rule file exactly as the loader read it. Nothing
// is validated yet; schedule.ParseRule turns it into a Rule.
type RawRule struct {
	Source string // file the row came from, for diagnostics
	Row    int    // 1-based data row (header excluded)

	Week      string
	StartDay  string
	StartTime string
	EndDay    string
	EndTime   string
	Custodian string
	WindowID  string
}

// Rule is a validated recurring custodial window inside an N-week cycle.
type Rule struct {
	Week      int // 1..N
	StartDay  time.Weekday
	StartSlot int // 0..47
	EndDay    time.Weekday
	EndSlot   int // 0..48, 48 meaning "24:00"
	Custodian string
	WindowID  string

	Source string
	Row    int
}

// Window is a time-of-day range in "HH:MM" form. End may be "24:00".
type Window struct {
	Start string `json:"start" yaml:"start"`
	End   string `json:"end" yaml:"end"`
}

// InteractionWindows maps a lowercase weekday name ("monday") to the
// contact window defined for that day.
type InteractionWindows map[string]Window

// ScheduleMap declares the projected year span and which ISO weeks run
// under the school and summer regimes.
type ScheduleMap struct {
	StartYear   int   `json:"start_year" yaml:"start_year"`
	EndYear     int   `json:"end_year" yaml:"end_year"`
	SchoolWeeks []int `json:"school_weeks" yaml:"school_weeks"`
	SummerWeeks []int `json:"summer_weeks" yaml:"summer_weeks"`
}

// DayEntry is the projected custody of a single calendar day. Custody has
// one element per half-hour slot; "" means unassigned.
type DayEntry struct {
	Custody     []string
	Interaction *Window
}

type dayEntryJSON struct {
	Custody     []*string `json:"custody"`
	Interaction *Window   `json:"interaction"`
}

// MarshalJSON writes unassigned slots as null, matching the lookup handoff
// consumed by the calendar page.
func (d DayEntry) MarshalJSON() ([]byte, error) {
	out := dayEntryJSON{
		Custody:     make([]*string, len(d.Custody)),
		Interaction: d.Interaction,
	}
	for i := range d.Custody {
		if d.Custody[i] != "" {
			out.Custody[i] = &d.Custody[i]
		}
	}
	return json.Marshal(out)
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (d *DayEntry) UnmarshalJSON(data []byte) error {
	var in dayEntryJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	d.Custody = make([]string, len(in.Custody))
	for i, c := range in.Custody {
		if c != nil {
			d.Custody[i] = *c
		}
	}
	d.Interaction = in.Interaction
	return nil
}

// Marker is a point annotation on the calendar where a rule window opens
// (IsStart) or closes.
type Marker struct {
	Date    time.Time
	Slot    int
	Label   string
	IsStart bool
}

// Event is one concrete custody block on the export path. Start/End carry
// the export timezone.
type Event struct {
	Custodian string
	Regime    string

	Start time.Time
	End   time.Time
}
