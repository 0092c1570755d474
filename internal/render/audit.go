package render

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"custodycal/internal/schedule"
)

const auditPurpose = "This file breaks down the custody schedule to show how time percentages are calculated. All time is measured in 30-minute blocks (slots)."

// WriteAudit writes the calculation audit CSV: an overall summary followed
// by a monthly breakdown for the first two custodians of opts. Percentages
// with a zero denominator read N/A.
func WriteAudit(w io.Writer, p *schedule.Plan, opts Options, generated time.Time) error {
	opts = opts.normalized()
	mom, dad := opts.Custodians[0].Name, opts.Custodians[1].Name
	pct := func(n, total int) string {
		if total == 0 {
			return NA
		}
		return FormatPercent(float64(n)/float64(total)*100, true)
	}
	itoa := strconv.Itoa

	cw := csv.NewWriter(w)
	rows := [][]string{
		{"Custody Percentage Calculation Audit File"},
		{"Generated On:", generated.Format("2006-01-02")},
		{"Purpose:", auditPurpose},
		{},
		{fmt.Sprintf("OVERALL SUMMARY (%d - %d)", p.Map.StartYear, p.Map.EndYear)},
		{"Calculation Type", mom + "'s Slots", dad + "'s Slots", "Total Slots", mom + "'s Percentage", dad + "'s Percentage"},
	}

	o := p.Overall().Record(mom, dad)
	rows = append(rows, []string{"Total Custody Time", itoa(o.MomSlots), itoa(o.DadSlots), itoa(o.TotalSlots),
		pct(o.MomSlots, o.TotalSlots), pct(o.DadSlots, o.TotalSlots)})
	if o.TotalInteraction > 0 {
		rows = append(rows, []string{"Interaction Time", itoa(o.MomInteraction), itoa(o.DadInteraction), itoa(o.TotalInteraction),
			pct(o.MomInteraction, o.TotalInteraction), pct(o.DadInteraction, o.TotalInteraction)})
	}
	rows = append(rows, []string{}, []string{},
		[]string{"MONTHLY BREAKDOWN"},
		[]string{"Year", "Month", "Total Slots", mom + "'s Slots", dad + "'s Slots", mom + " %", dad + " %",
			"Interaction " + mom + " Slots", "Interaction " + dad + " Slots", "Interaction Total",
			"Interaction " + mom + " %", "Interaction " + dad + " %"},
	)

	for _, year := range p.Years() {
		for m := time.January; m <= time.December; m++ {
			s := p.MonthStats(year, m).Record(mom, dad)
			rows = append(rows, []string{
				itoa(year), m.String(), itoa(s.TotalSlots), itoa(s.MomSlots), itoa(s.DadSlots),
				pct(s.MomSlots, s.TotalSlots), pct(s.DadSlots, s.TotalSlots),
				itoa(s.MomInteraction), itoa(s.DadInteraction), itoa(s.TotalInteraction),
				pct(s.MomInteraction, s.TotalInteraction), pct(s.DadInteraction, s.TotalInteraction),
			})
		}
	}

	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("render: audit: %w", err)
	}
	return nil
}
