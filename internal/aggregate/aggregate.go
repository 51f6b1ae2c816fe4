// Package aggregate computes the summary statistics behind reliability scores.
package aggregate

import (
	"math"
	"sort"
)

// MinConsistencySamples is the sample count below which consistency is unknown
const MinConsistencySamples = 3

// NeutralConsistency is reported when there is too little data to judge
const NeutralConsistency = 50.0

// Sum adds the values
func Sum(values []float64) float64 {
	var total float64
	for _, v := range values {
		total += v
	}
	return total
}

// Mean is the arithmetic mean, 0 for an empty slice
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return Sum(values) / float64(len(values))
}

// StdDev is the population standard deviation
func StdDev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	mean := Mean(values)
	var sq float64
	for _, v := range values {
		d := v - mean
		sq += d * d
	}
	return math.Sqrt(sq / float64(len(values)))
}

// CoefficientOfVariation is stddev/mean in percent. ok is false when the mean is zero.
func CoefficientOfVariation(values []float64) (cv float64, ok bool) {
	mean := Mean(values)
	if mean == 0 {
		return 0, false
	}
	return StdDev(values) / mean * 100, true
}

// Consistency maps dispersion to a 0-100 score: 100 - 2*CV%, floored at 0.
// Fewer than MinConsistencySamples values, or a zero mean, yield NeutralConsistency.
func Consistency(values []float64) float64 {
	if len(values) < MinConsistencySamples {
		return NeutralConsistency
	}
	cv, ok := CoefficientOfVariation(values)
	if !ok {
		return NeutralConsistency
	}
	return math.Max(0, 100-2*cv)
}

// Median returns the middle value, averaging the two middle values for even counts
func Median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	n := len(sorted)
	if n%2 == 0 {
		return (sorted[n/2-1] + sorted[n/2]) / 2
	}
	return sorted[n/2]
}

// Round rounds v to the given number of decimal places
func Round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
