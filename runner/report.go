package runner

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/antoninbas/benchguard/regression"
	"github.com/antoninbas/benchguard/stats"
)

// Report renders the outcomes as a comparison table and reports whether any
// of them failed. With onlyFailures, passing outcomes are left out.
func Report(w io.Writer, outcomes []*Outcome, onlyFailures bool) bool {
	table := tablewriter.NewWriter(w)
	table.SetAutoFormatHeaders(false)
	table.SetAlignment(tablewriter.ALIGN_CENTER)
	table.SetRowLine(true)
	table.SetHeader([]string{"Name", "Strategy", "Baseline", "Measured", "Delta", "Verdict"})

	var failed bool
	for _, o := range outcomes {
		if o.Err != nil {
			failed = true
		} else if onlyFailures {
			continue
		}
		v := o.Verdict
		verdict := v.Kind.String()
		if errors.Is(o.Err, regression.ErrDivisionByZero) {
			verdict = "DivisionByZero"
		}
		if o.Err != nil {
			verdict += " (FAIL)"
		}
		row := []string{
			o.Group + "." + o.Name,
			string(v.Strategy),
			formatSeconds(v.Baseline),
			formatSeconds(v.Measured),
			formatDelta(v),
			verdict,
		}
		colors := []tablewriter.Colors{{}, {}, {}, {}, deltaColor(v), {}}
		table.Rich(row, colors)
	}
	if table.NumLines() > 0 {
		fmt.Fprintln(w, "\nComparison")
		fmt.Fprintf(w, "%s\n\n", strings.Repeat("=", 10))
		table.Render()
		fmt.Fprintln(w)
	}
	return failed
}

func formatSeconds(s float64) string {
	if s == 0 {
		return "-"
	}
	return stats.FormatSeconds(s)
}

func formatDelta(v regression.Verdict) string {
	switch v.Kind {
	case regression.Improved, regression.WithinTolerance, regression.Regressed:
	case regression.Inconclusive:
		return fmt.Sprintf("RSD %.2f%%", v.RelativeStandardDeviation)
	default:
		return "-"
	}
	percent := v.Percent
	if -0.0001 < percent && percent < 0.0001 {
		percent = 0
	}
	return fmt.Sprintf("%+.2f%%", percent)
}

func deltaColor(v regression.Verdict) tablewriter.Colors {
	switch v.Kind {
	case regression.Regressed:
		return tablewriter.Colors{tablewriter.Bold, tablewriter.FgHiRedColor}
	case regression.WithinTolerance, regression.Inconclusive:
		return tablewriter.Colors{tablewriter.Bold, tablewriter.FgYellowColor}
	case regression.Improved:
		return tablewriter.Colors{tablewriter.Bold, tablewriter.FgBlueColor}
	}
	return tablewriter.Colors{}
}
