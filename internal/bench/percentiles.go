package bench

import "sort"

// Percentiles summarizes a latency distribution. All values are in seconds.
type Percentiles struct {
	P50 float64
	P95 float64
	P99 float64
	Min float64
	Max float64
	Avg float64
}

// ComputePercentiles summarizes the given latencies. The input is not
// modified. Returns the zero value for an empty input.
func ComputePercentiles(latencies []float64) Percentiles {
	if len(latencies) == 0 {
		return Percentiles{}
	}

	sorted := make([]float64, len(latencies))
	copy(sorted, latencies)
	sort.Float64s(sorted)

	n := len(sorted)
	sum := 0.0
	for _, v := range sorted {
		sum += v
	}

	return Percentiles{
		P50: median(sorted),
		P95: sorted[rankIndex(n, 0.95)],
		P99: sorted[rankIndex(n, 0.99)],
		Min: sorted[0],
		Max: sorted[n-1],
		Avg: sum / float64(n),
	}
}

// median of a sorted slice; even lengths average the two middle values.
func median(sorted []float64) float64 {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// rankIndex converts a quantile to a slice index, clamped to the last element.
func rankIndex(n int, q float64) int {
	i := int(float64(n) * q)
	if i >= n {
		return n - 1
	}
	return i
}
