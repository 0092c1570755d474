package schedule

import (
	"custodycal/internal/model"
)

// Stats are slot counts over a range of days. Counts are additive: the
// stats of a range equal the Add of the stats of any partition of it.
type Stats struct {
	TotalSlots int
	Custody    map[string]int

	TotalInteraction int
	Interaction      map[string]int
}

func newStats() Stats {
	return Stats{Custody: map[string]int{}, Interaction: map[string]int{}}
}

// Aggregate sums days[from..to] inclusive. Out-of-range bounds are
// clamped; an empty or inverted range yields zero stats. Every day counts
// 48 slots toward TotalSlots whether assigned or not. Interaction windows
// that do not parse or are empty are ignored.
func Aggregate(days []model.DayEntry, from, to int) Stats {
	s := newStats()
	from = max(from, 0)
	to = min(to, len(days)-1)

	for i := from; i <= to; i++ {
		day := days[i]
		for _, c := range day.Custody {
			if c != "" {
				s.Custody[c]++
			}
		}
		s.TotalSlots += len(day.Custody)

		if day.Interaction == nil {
			continue
		}
		lo, hi, ok := windowSlots(*day.Interaction)
		if !ok {
			continue
		}
		for slot := lo; slot < hi && slot < len(day.Custody); slot++ {
			if c := day.Custody[slot]; c != "" {
				s.Interaction[c]++
			}
		}
		s.TotalInteraction += hi - lo
	}
	return s
}

// windowSlots resolves an interaction window to [lo, hi).
func windowSlots(w model.Window) (lo, hi int, ok bool) {
	lo, err := TimeToSlot(w.Start)
	if err != nil || lo == EndOfDay {
		return 0, 0, false
	}
	hi, err = TimeToSlot(w.End)
	if err != nil || lo >= hi {
		return 0, 0, false
	}
	return lo, hi, true
}

// Add combines two stats.
func (s Stats) Add(o Stats) Stats {
	out := newStats()
	out.TotalSlots = s.TotalSlots + o.TotalSlots
	out.TotalInteraction = s.TotalInteraction + o.TotalInteraction
	for _, src := range []Stats{s, o} {
		for k, v := range src.Custody {
			out.Custody[k] += v
		}
		for k, v := range src.Interaction {
			out.Interaction[k] += v
		}
	}
	return out
}

// Percent is the custodian's share of all slots. ok is false when there
// are no slots, in which case the share is undefined (N/A).
func (s Stats) Percent(custodian string) (pct float64, ok bool) {
	return percent(s.Custody[custodian], s.TotalSlots)
}

// InteractionPercent is the custodian's share of interaction-window slots.
func (s Stats) InteractionPercent(custodian string) (pct float64, ok bool) {
	return percent(s.Interaction[custodian], s.TotalInteraction)
}

func percent(n, total int) (float64, bool) {
	if total == 0 {
		return 0, false
	}
	return float64(n) / float64(total) * 100, true
}

// StatsRecord is the two-custodian summary handed to renderers.
type StatsRecord struct {
	MomSlots         int `json:"momSlots"`
	DadSlots         int `json:"dadSlots"`
	TotalSlots       int `json:"totalSlots"`
	MomInteraction   int `json:"momInteraction"`
	DadInteraction   int `json:"dadInteraction"`
	TotalInteraction int `json:"totalInteraction"`
}

// Record flattens the stats for the two named custodians.
func (s Stats) Record(mom, dad string) StatsRecord {
	return StatsRecord{
		MomSlots:         s.Custody[mom],
		DadSlots:         s.Custody[dad],
		TotalSlots:       s.TotalSlots,
		MomInteraction:   s.Interaction[mom],
		DadInteraction:   s.Interaction[dad],
		TotalInteraction: s.TotalInteraction,
	}
}
