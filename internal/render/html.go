package render

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"slices"
	"strings"
	"time"

	"custodycal/internal/config"
	"custodycal/internal/schedule"
)

//go:embed templates/calendar.html.tmpl
var templateFS embed.FS

var calendarTmpl = template.Must(template.ParseFS(templateFS, "templates/calendar.html.tmpl"))

// unknownColor paints custodians that appear in rules but not in config.
const unknownColor = "#cccccc"

// ForPlan returns opts with every custodian named by p's rules appended
// to the legend, so each block has a colour class.
func (o Options) ForPlan(p *schedule.Plan) Options {
	o = o.normalized()
	known := make(map[string]bool, len(o.Custodians))
	for _, c := range o.Custodians {
		known[c.Name] = true
	}
	custodians := slices.Clone(o.Custodians)
	for _, rs := range p.Regimes.All() {
		for _, r := range rs.Rules {
			if r.Custodian != "" && !known[r.Custodian] {
				known[r.Custodian] = true
				custodians = append(custodians, config.Custodian{Name: r.Custodian, Color: unknownColor})
			}
		}
	}
	o.Custodians = custodians
	return o
}

type pageView struct {
	StartYear, EndYear int
	StylesheetHref     string
	ICSHref            string
	AuditHref          string
	Legend             []shareView
	Overall            statsView
	Years              []yearView
}

type statsView struct {
	Custody     []shareView
	Interaction []shareView
}

type shareView struct {
	Name    string
	Class   string
	Percent string
}

type yearView struct {
	Year   int
	Stats  statsView
	Months []monthView
}

type monthView struct {
	ID    string
	Name  string
	Year  int
	Stats statsView
	Weeks [][]dayView
}

type dayView struct {
	Blank  bool
	Day    int
	Date   string
	Blocks []blockView
}

type blockView struct {
	Class    string
	Title    string
	EndLabel string
}

// markerKind flags which window edges sit on a slot.
type markerKind struct{ start, end bool }

type htmlBuilder struct {
	plan    *schedule.Plan
	classes map[string]string
	names   []string
	edges   map[string]map[int]markerKind
}

// WriteHTML renders the full calendar page for p. Links to the ICS and
// audit exports are shown only when their hrefs are set.
func WriteHTML(w io.Writer, p *schedule.Plan, opts Options, icsHref, auditHref string) error {
	opts = opts.ForPlan(p)
	b := newHTMLBuilder(p, opts.Custodians)

	view := pageView{
		StartYear:      p.Map.StartYear,
		EndYear:        p.Map.EndYear,
		StylesheetHref: opts.StylesheetHref,
		ICSHref:        icsHref,
		AuditHref:      auditHref,
		Overall:        b.stats(p.Overall()),
	}
	for _, name := range b.names {
		view.Legend = append(view.Legend, shareView{Name: name, Class: b.classes[name]})
	}
	for _, year := range p.Years() {
		view.Years = append(view.Years, b.year(year))
	}

	if err := calendarTmpl.Execute(w, view); err != nil {
		return fmt.Errorf("render: html: %w", err)
	}
	return nil
}

func newHTMLBuilder(p *schedule.Plan, custodians []config.Custodian) *htmlBuilder {
	b := &htmlBuilder{
		plan:    p,
		classes: make(map[string]string, len(custodians)),
		edges:   make(map[string]map[int]markerKind),
	}
	for i, c := range custodians {
		b.classes[c.Name] = custodianClass(i)
		b.names = append(b.names, c.Name)
	}
	for _, m := range p.Markers.List {
		key := m.Date.Format(schedule.DateKey)
		if b.edges[key] == nil {
			b.edges[key] = make(map[int]markerKind)
		}
		k := b.edges[key][m.Slot]
		if m.IsStart {
			k.start = true
		} else {
			k.end = true
		}
		b.edges[key][m.Slot] = k
	}
	return b
}

func (b *htmlBuilder) stats(s schedule.Stats) statsView {
	var v statsView
	for _, name := range b.names {
		pct, ok := s.Percent(name)
		v.Custody = append(v.Custody, shareView{Name: name, Class: b.classes[name], Percent: FormatPercent(pct, ok)})
		ipct, iok := s.InteractionPercent(name)
		v.Interaction = append(v.Interaction, shareView{Name: name, Class: b.classes[name], Percent: FormatPercent(ipct, iok)})
	}
	return v
}

func (b *htmlBuilder) year(year int) yearView {
	yv := yearView{Year: year, Stats: b.stats(b.plan.YearStats(year))}
	for m := time.January; m <= time.December; m++ {
		yv.Months = append(yv.Months, b.month(year, m))
	}
	return yv
}

func (b *htmlBuilder) month(year int, month time.Month) monthView {
	first := schedule.CivilDate(year, month, 1)
	mv := monthView{
		ID:    fmt.Sprintf("month-%d-%02d", year, int(month)),
		Name:  month.String(),
		Year:  year,
		Stats: b.stats(b.plan.MonthStats(year, month)),
	}

	var cells []dayView
	for range int(first.Weekday()) {
		cells = append(cells, dayView{Blank: true})
	}
	for d := first; d.Month() == month; d = d.AddDate(0, 0, 1) {
		cells = append(cells, b.day(d))
	}
	for len(cells)%schedule.DaysPerWeek != 0 {
		cells = append(cells, dayView{Blank: true})
	}
	for i := 0; i < len(cells); i += schedule.DaysPerWeek {
		mv.Weeks = append(mv.Weeks, cells[i:i+schedule.DaysPerWeek])
	}
	return mv
}

func (b *htmlBuilder) day(d time.Time) dayView {
	dv := dayView{Day: d.Day(), Date: d.Format(schedule.DateKey)}
	entry, ok := b.plan.Day(d)
	if !ok {
		return dv
	}
	edges := b.edges[dv.Date]
	dv.Blocks = make([]blockView, len(entry.Custody))
	for slot, who := range entry.Custody {
		classes := []string{"custody-block"}
		if cls, ok := b.classes[who]; ok && who != "" {
			classes = append(classes, cls)
		}
		k := edges[slot]
		if k.start {
			classes = append(classes, "marker-start")
		}
		if k.end {
			classes = append(classes, "marker-end")
		}

		owner := who
		if owner == "" {
			owner = "unassigned"
		}
		title := fmt.Sprintf("%s %s: %s", dv.Date, schedule.SlotToTime(slot), owner)
		if labels := b.plan.Markers.At(d, slot); len(labels) > 0 {
			title += " (" + strings.Join(labels, ", ") + ")"
		}
		dv.Blocks[slot] = blockView{
			Class:    strings.Join(classes, " "),
			Title:    title,
			EndLabel: b.plan.Markers.EndLabelAt(d, slot),
		}
	}
	return dv
}
