package ics

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	appLog "custodycal/internal/log"
	"custodycal/internal/model"
)

// ReadEvents parses an iCalendar feed written by Encode back into events,
// converted to loc (nil means time.Local). VEVENTs that cannot be read
// are logged and skipped.
func ReadEvents(r io.Reader, loc *time.Location) ([]model.Event, error) {
	if loc == nil {
		loc = time.Local
	}
	cal, err := ical.ParseCalendar(r)
	if err != nil {
		appLog.Error("ics parse failed", err)
		return nil, fmt.Errorf("ics: parse: %w", err)
	}

	events := make([]model.Event, 0)
	for _, ve := range cal.Events() {
		ev, perr := readVEvent(ve, loc)
		if perr != nil {
			uid := ""
			if p := ve.GetProperty(ical.ComponentPropertyUniqueId); p != nil {
				uid = p.Value
			}
			appLog.Error("ics vevent parse failed", perr, "uid", uid)
			continue
		}
		events = append(events, ev)
	}

	appLog.Debug("ics parse completed", "event_count", len(events))
	return events, nil
}

func readVEvent(ve *ical.VEvent, loc *time.Location) (model.Event, error) {
	var out model.Event

	p := ve.GetProperty(ical.ComponentPropertySummary)
	if p == nil || strings.TrimSpace(p.Value) == "" {
		return out, errors.New("missing SUMMARY")
	}
	out.Custodian = strings.TrimSpace(p.Value)

	if p := ve.GetProperty(ical.ComponentPropertyCategories); p != nil {
		out.Regime = p.Value
	}

	start, err := ve.GetStartAt()
	if err != nil {
		return out, fmt.Errorf("DTSTART: %w", err)
	}
	end, err := ve.GetEndAt()
	if err != nil {
		return out, fmt.Errorf("DTEND: %w", err)
	}
	if !end.After(start) {
		return out, fmt.Errorf("DTEND %s is not after DTSTART %s", end, start)
	}
	out.Start = start.In(loc)
	out.End = end.In(loc)
	return out, nil
}
