// Package ics serializes custody events as an iCalendar feed and reads
// such feeds back.
package ics

import (
	"fmt"
	"io"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/google/uuid"

	appLog "custodycal/internal/log"
	"custodycal/internal/model"
)

// uidNamespace seeds the name-based UIDs of exported events, so the same
// block gets the same UID on every export.
var uidNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("custodycal:event"))

const (
	defaultProductID = "-//custodycal//Custody Schedule//EN"
	defaultName      = "Custody Schedule"
)

// Options controls the calendar envelope.
type Options struct {
	// Name is the X-WR-CALNAME of the feed.
	Name string
	// ProductID is the PRODID of the feed.
	ProductID string
	// Timezone is advertised as X-WR-TIMEZONE. Event times are written in
	// UTC and are unaffected.
	Timezone string
	// Stamp is DTSTAMP for every event. Zero means now.
	Stamp time.Time
}

// EventUID is the stable UID of an exported event.
func EventUID(ev model.Event) string {
	key := fmt.Sprintf("%s|%s|%s", ev.Custodian, ev.Start.UTC().Format(time.RFC3339), ev.End.UTC().Format(time.RFC3339))
	return uuid.NewSHA1(uidNamespace, []byte(key)).String() + "@custodycal"
}

// Encode writes events as a VCALENDAR. Each event becomes one VEVENT whose
// SUMMARY is the custodian and whose CATEGORIES is the regime.
func Encode(w io.Writer, events []model.Event, opts Options) error {
	if opts.Name == "" {
		opts.Name = defaultName
	}
	if opts.ProductID == "" {
		opts.ProductID = defaultProductID
	}
	if opts.Stamp.IsZero() {
		opts.Stamp = time.Now()
	}

	cal := ical.NewCalendar()
	cal.SetProductId(opts.ProductID)
	cal.SetMethod(ical.MethodPublish)
	cal.SetXWRCalName(opts.Name)
	if opts.Timezone != "" {
		cal.SetXWRTimezone(opts.Timezone)
	}

	for _, ev := range events {
		ve := cal.AddEvent(EventUID(ev))
		ve.SetDtStampTime(opts.Stamp)
		ve.SetStartAt(ev.Start)
		ve.SetEndAt(ev.End)
		ve.SetSummary(ev.Custodian)
		ve.SetDescription(fmt.Sprintf("Custody: %s", ev.Custodian))
		if ev.Regime != "" {
			ve.AddProperty(ical.ComponentPropertyCategories, ev.Regime)
		}
	}

	if err := cal.SerializeTo(w); err != nil {
		return fmt.Errorf("ics: encode: %w", err)
	}
	appLog.Info("ics export written", "events", len(events), "name", opts.Name)
	return nil
}
