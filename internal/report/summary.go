package report

import (
	"fmt"
	"io"
	"text/tabwriter"

	"code.cloudfoundry.org/bytefmt"

	"github.com/imishinist/perfreport/internal/models"
)

func formatFloat(v models.Float, format string) string {
	if v.IsNaN() {
		return "-"
	}
	return fmt.Sprintf(format, float64(v))
}

func formatMiB(v models.Float) string {
	if v.IsNaN() || v < 0 {
		return "-"
	}
	return bytefmt.ByteSize(uint64(float64(v) * bytefmt.MEGABYTE))
}

func writeRollup(w io.Writer, name string, r Rollup) {
	fmt.Fprintf(w, "%s\t%d\t%d\t%.2f%%\t%s\t%s\t%s\t%s\t%s\t%s\n",
		name,
		r.Tests,
		r.Transactions,
		r.ErrorRate*100,
		formatFloat(models.Float(r.AvgResponseTime), "%.2f"),
		r.Verdict,
		formatFloat(r.AvgCPU, "%.0f"),
		formatFloat(r.MaxCPU, "%.0f"),
		formatMiB(r.AvgMemoryMiB),
		formatMiB(r.MaxMemoryMiB),
	)
}

// WriteSummary prints a per-test, per-suite and overall table.
func WriteSummary(out io.Writer, d *Document) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	fmt.Fprintln(w, "TEST\tTRANSACTIONS\tERRORS\tERROR RATE\tAVG RESP (ms)\tP95 (ms)\tDURATION (s)\tVERDICT\tREASON")
	for _, r := range d.Requests {
		fmt.Fprintf(w, "%s\t%d\t%d\t%.2f%%\t%s\t%s\t%d\t%s\t%s\n",
			r.TestName,
			r.OverallTransactionCount,
			r.OverallErrorCount,
			r.ErrorRate()*100,
			formatFloat(r.OverallAvgResponseTime, "%.2f"),
			formatFloat(r.OverallPercentiles["p95"], "%.2f"),
			r.DurationSeconds,
			r.Verdict,
			r.VerdictReason,
		)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "SUITE\tTESTS\tTRANSACTIONS\tERROR RATE\tAVG RESP (ms)\tVERDICT\tAVG CPU (m)\tMAX CPU (m)\tAVG MEM\tMAX MEM")
	for _, s := range d.Suites {
		writeRollup(w, s.Name, s.Rollup)
	}
	writeRollup(w, "OVERALL", d.Overall)

	return w.Flush()
}
