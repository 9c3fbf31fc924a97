package output

import (
	"fmt"
	"io"

	"esim-pricing/core/engine"
	"esim-pricing/core/pricing"
	"esim-pricing/core/ui"
)

// CLIFormatter renders quotes as a table grouped by display size
type CLIFormatter struct {
	noColor bool

	// verbose lists each hidden plan and collapsed group under its count
	verbose bool
}

// NewCLIFormatter creates a CLI formatter
func NewCLIFormatter(noColor, verbose bool) *CLIFormatter {
	return &CLIFormatter{noColor: noColor, verbose: verbose}
}

// Format returns FormatCLI
func (f *CLIFormatter) Format() Format { return FormatCLI }

// Render writes one table per size group, then hidden and collapsed counts
func (f *CLIFormatter) Render(w io.Writer, result *engine.Result) error {
	out := ui.NewWriter(w, f.noColor)
	if f.verbose {
		out.SetVerbosity(ui.VerbosityVerbose)
	}
	out.Header(fmt.Sprintf("eSIM quotes (%s)", result.Currency))

	if len(result.Quotes) == 0 {
		out.Warning("no visible plans")
	}

	for _, group := range engine.GroupBySize(result.Quotes) {
		out.SubHeader(group.Label)
		table := out.NewTable("PACKAGE", "DAYS", "DISCOUNT", "USD", "PRICE")
		for _, q := range group.Quotes {
			table.AddRow(
				q.PackageCode,
				days(q),
				discountCell(q),
				q.FinalUSD.StringFixed(2),
				Money(q),
			)
		}
		table.Render()
		out.Println("")
	}

	if n := len(result.Hidden); n > 0 {
		out.Info("%d plan(s) hidden", n)
		for _, h := range result.Hidden {
			out.Debug("%s: %s", h.PackageCode, h.Reason)
		}
	}
	if n := len(result.Collapsed); n > 0 {
		out.Info("%d duplicate group(s) collapsed", n)
		for _, c := range result.Collapsed {
			out.Debug("kept %s over %v (%s)", c.Kept, c.Dropped, c.Reason)
		}
	}
	out.Println("%s", out.Dim(fmt.Sprintf("run %s  discounts %s", result.RunID, result.ConfigHash.Short())))
	return nil
}

// Money formats a quote's final price in its currency, e.g. "7.20 EUR"
func Money(q engine.Quote) string {
	s := q.FinalPrice.StringFixed(pricing.MinorUnits(q.Currency)) + " " + q.Currency.String()
	if !q.Converted {
		s += "*"
	}
	return s
}

func days(q engine.Quote) string {
	if q.DailyUnlimited {
		return fmt.Sprintf("%d (daily)", q.Days)
	}
	unit := string(q.Plan.DurationUnit.Normalize())
	if q.Plan.Duration != 1 {
		unit += "s"
	}
	return fmt.Sprintf("%d %s", q.Plan.Duration, unit)
}

func discountCell(q engine.Quote) string {
	if q.DiscountPercent.IsZero() {
		return "-"
	}
	return q.DiscountPercent.String() + "% " + string(q.DiscountSource)
}
