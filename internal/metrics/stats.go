package metrics

import (
	"math"
	"sort"
)

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// coefficientOfVariation is the sample standard deviation (Bessel-corrected) over the mean.
func coefficientOfVariation(values []float64, avg float64) float64 {
	if len(values) < 2 || avg == 0 {
		return 0
	}
	var variance float64
	for _, v := range values {
		variance += (v - avg) * (v - avg)
	}
	variance /= float64(len(values) - 1)
	return math.Sqrt(variance) / avg
}

// iqrFilter drops values outside [q1 - 1.5*IQR, q3 + 1.5*IQR]. The input is not modified.
func iqrFilter(values []float64) []float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	q1 := sorted[len(sorted)/4]
	q3 := sorted[len(sorted)*3/4]
	iqr := q3 - q1

	out := make([]float64, 0, len(sorted))
	for _, v := range sorted {
		if v >= q1-1.5*iqr && v <= q3+1.5*iqr {
			out = append(out, v)
		}
	}
	return out
}

// capAtPercentile drops values above factor times the given percentile.
func capAtPercentile(values []float64, percentile, factor float64) []float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	idx := int(float64(len(sorted)) * percentile)
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	limit := sorted[idx] * factor

	out := make([]float64, 0, len(values))
	for _, v := range values {
		if v <= limit {
			out = append(out, v)
		}
	}
	return out
}

// trimmed removes the lowest and highest fraction of values.
func trimmed(values []float64, fraction float64) []float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	n := int(math.Floor(float64(len(sorted)) * fraction))
	if n == 0 {
		return sorted
	}
	return sorted[n : len(sorted)-n]
}

func distance(x1, y1, x2, y2 float64) float64 {
	return math.Hypot(x2-x1, y2-y1)
}
