package bench

import (
	"fmt"
	"io"
	"strings"
)

const reportRule = 60

// WriteResult prints one run's measurements in a fixed-width report.
func WriteResult(w io.Writer, name string, r *Result) {
	p := ComputePercentiles(r.Latencies)

	rule := strings.Repeat("=", reportRule)
	fmt.Fprintf(w, "\n%s\n%s Results\n%s\n", rule, name, rule)
	fmt.Fprintf(w, "Completed:         %d (%d errors)\n", r.Completed(), r.Errors)
	fmt.Fprintf(w, "Total Cost:        $%.2f\n", r.EstimatedCost)
	fmt.Fprintf(w, "Cost per Request:  $%.4f\n", r.CostPerRequest())
	fmt.Fprintf(w, "\nLatency:\n")
	fmt.Fprintf(w, "  Min:             %.0fms\n", p.Min*1000)
	fmt.Fprintf(w, "  Avg:             %.0fms\n", p.Avg*1000)
	fmt.Fprintf(w, "  P50:             %.0fms\n", p.P50*1000)
	fmt.Fprintf(w, "  P95:             %.0fms\n", p.P95*1000)
	fmt.Fprintf(w, "  P99:             %.0fms\n", p.P99*1000)
	fmt.Fprintf(w, "  Max:             %.0fms\n", p.Max*1000)
}

// WriteComparison prints the savings of the proxied run relative to the
// direct run.
func WriteComparison(w io.Writer, direct, proxied *Result) {
	if direct.Completed() == 0 || proxied.Completed() == 0 {
		return
	}

	costSavings := relativeImprovement(direct.CostPerRequest(), proxied.CostPerRequest())
	directAvg := ComputePercentiles(direct.Latencies).Avg
	proxiedAvg := ComputePercentiles(proxied.Latencies).Avg
	latencyImprovement := relativeImprovement(directAvg, proxiedAvg)

	rule := strings.Repeat("=", reportRule)
	fmt.Fprintf(w, "\n%s\nCACHE SAVINGS\n%s\n", rule, rule)
	fmt.Fprintf(w, "Cost Savings:      %.1f%%\n", costSavings)
	fmt.Fprintf(w, "Latency Improved:  %.1f%%\n", latencyImprovement)
	fmt.Fprintf(w, "\nEstimated cache hit rate: %.1f%%\n", costSavings)
	fmt.Fprintf(w, "(Based on %d identical requests)\n", proxied.Completed()+proxied.Errors)
}

// relativeImprovement returns how much smaller the measured value is than
// the base, in percent.
func relativeImprovement(base, measured float64) float64 {
	if base == 0 {
		return 0
	}
	return (base - measured) / base * 100
}
