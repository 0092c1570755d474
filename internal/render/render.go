// Package render turns a computed schedule.Plan into the files people
// look at: the HTML calendar and its stylesheet, the audit CSV and the raw
// daily lookup as JSON. None of it makes scheduling decisions.
package render

import (
	"encoding/json"
	"fmt"
	"io"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"custodycal/internal/config"
	"custodycal/internal/schedule"
)

// NA is printed wherever a percentage has a zero denominator.
const NA = "N/A"

// Options carries presentation settings.
type Options struct {
	// Custodians in legend order; the first two fill the audit columns.
	Custodians []config.Custodian
	// StylesheetHref is the link target of the stylesheet in the page.
	StylesheetHref string
}

func (o Options) normalized() Options {
	// The audit columns need two custodians.
	if len(o.Custodians) < 2 {
		o.Custodians = config.DefaultConfig().Custodians
	}
	if o.StylesheetHref == "" {
		o.StylesheetHref = "style.css"
	}
	return o
}

var printer = message.NewPrinter(language.English)

// FormatPercent renders a percentage with two decimals, or N/A.
func FormatPercent(pct float64, ok bool) string {
	if !ok {
		return NA
	}
	return printer.Sprintf("%.2f%%", pct)
}

// FormatCount renders a slot count with thousands separators.
func FormatCount(n int) string {
	return printer.Sprintf("%d", n)
}

// WriteLookupJSON writes the daily lookup exactly as the calendar page
// consumes it: one {custody, interaction} object per day.
func WriteLookupJSON(w io.Writer, p *schedule.Plan) error {
	enc := json.NewEncoder(w)
	if err := enc.Encode(p.Days); err != nil {
		return fmt.Errorf("render: lookup json: %w", err)
	}
	return nil
}
