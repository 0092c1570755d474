package web

import (
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"time"

	appLog "custodycal/internal/log"
	"custodycal/internal/model"
	"custodycal/internal/render"
	"custodycal/internal/schedule"
)

func parseDate(s string, def time.Time) (time.Time, error) {
	if s == "" {
		return def, nil
	}
	t, err := time.Parse(schedule.DateKey, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("date %q: want YYYY-MM-DD", s)
	}
	return t, nil
}

// handleLookup returns the daily lookup, or a single day with ?date=.
//
// GET /api/lookup[?date=2024-03-01]
func (s *Server) handleLookup(w http.ResponseWriter, r *http.Request, plan *schedule.Plan) {
	q := r.URL.Query().Get("date")
	if q == "" {
		writeJSON(w, http.StatusOK, plan.Days)
		return
	}
	date, err := parseDate(q, time.Time{})
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	day, ok := plan.Day(date)
	if !ok {
		writeError(w, http.StatusNotFound, "date outside the scheduled range")
		return
	}
	writeJSON(w, http.StatusOK, day)
}

// statsResponse is the JSON response shape for /api/stats.
type statsResponse struct {
	From string `json:"from"`
	To   string `json:"to"`

	TotalSlots int               `json:"totalSlots"`
	Custody    map[string]int    `json:"custody"`
	Percent    map[string]string `json:"percent"`

	TotalInteraction   int               `json:"totalInteraction"`
	Interaction        map[string]int    `json:"interaction"`
	InteractionPercent map[string]string `json:"interactionPercent"`

	// Record is the two-custodian summary the audit export uses.
	Record schedule.StatsRecord `json:"record"`
}

// handleStats aggregates an inclusive date range, by default the whole
// schedule.
//
// GET /api/stats?from=2024-01-01&to=2024-01-31
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request, plan *schedule.Plan) {
	q := r.URL.Query()
	from, err := parseDate(q.Get("from"), plan.Start)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	to, err := parseDate(q.Get("to"), plan.End)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if to.Before(from) {
		writeError(w, http.StatusBadRequest, "to is before from")
		return
	}

	st := plan.AggregateDates(from, to)
	opts := s.pipe.RenderOptions().ForPlan(plan)
	resp := statsResponse{
		From:               from.Format(schedule.DateKey),
		To:                 to.Format(schedule.DateKey),
		TotalSlots:         st.TotalSlots,
		Custody:            st.Custody,
		Percent:            make(map[string]string, len(opts.Custodians)),
		TotalInteraction:   st.TotalInteraction,
		Interaction:        st.Interaction,
		InteractionPercent: make(map[string]string, len(opts.Custodians)),
		Record:             st.Record(opts.Custodians[0].Name, opts.Custodians[1].Name),
	}
	for _, c := range opts.Custodians {
		resp.Percent[c.Name] = render.FormatPercent(st.Percent(c.Name))
		resp.InteractionPercent[c.Name] = render.FormatPercent(st.InteractionPercent(c.Name))
	}
	writeJSON(w, http.StatusOK, resp)
}

// markerDTO is a JSON-friendly view of a window marker.
type markerDTO struct {
	Date  string `json:"date"`
	Slot  int    `json:"slot"`
	Time  string `json:"time"`
	Label string `json:"label"`
	Start bool   `json:"start"`
}

// handleMarkers lists window markers, optionally for one year.
//
// GET /api/markers[?year=2024]
func (s *Server) handleMarkers(w http.ResponseWriter, r *http.Request, plan *schedule.Plan) {
	year := 0
	if q := r.URL.Query().Get("year"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil {
			writeError(w, http.StatusBadRequest, "year must be a number")
			return
		}
		year = n
	}

	out := make([]markerDTO, 0)
	for _, m := range plan.Markers.List {
		if year != 0 && m.Date.Year() != year {
			continue
		}
		out = append(out, markerDTO{
			Date:  m.Date.Format(schedule.DateKey),
			Slot:  m.Slot,
			Time:  schedule.SlotToTime(m.Slot),
			Label: m.Label,
			Start: m.IsStart,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// eventDTO is a JSON-friendly view of a custody event.
type eventDTO struct {
	Custodian string    `json:"custodian"`
	Regime    string    `json:"regime"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
}

// handleEvents returns the merged export events in the configured
// timezone, optionally restricted to those overlapping [from, to].
//
// GET /api/events[?from=2024-01-01&to=2024-01-31]
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request, plan *schedule.Plan) {
	q := r.URL.Query()
	from, err := parseDate(q.Get("from"), time.Time{})
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	to, err := parseDate(q.Get("to"), time.Time{})
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	events, err := s.pipe.Events(plan)
	if err != nil && !errors.Is(err, schedule.ErrNoEventsGenerated) {
		appLog.Error("event projection failed", err)
		writeError(w, http.StatusInternalServerError, "failed to project events")
		return
	}

	out := make([]eventDTO, 0, len(events))
	for _, ev := range filterEvents(events, from, to) {
		out = append(out, eventDTO{Custodian: ev.Custodian, Regime: ev.Regime, Start: ev.Start, End: ev.End})
	}
	writeJSON(w, http.StatusOK, out)
}

// filterEvents keeps events overlapping the civil days [from, to]. A zero
// bound is open.
func filterEvents(events []model.Event, from, to time.Time) []model.Event {
	return slices.DeleteFunc(slices.Clone(events), func(ev model.Event) bool {
		if !from.IsZero() {
			start := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, ev.End.Location())
			if !ev.End.After(start) {
				return true
			}
		}
		if !to.IsZero() {
			end := time.Date(to.Year(), to.Month(), to.Day()+1, 0, 0, 0, 0, ev.Start.Location())
			if !ev.Start.Before(end) {
				return true
			}
		}
		return false
	})
}
