package peakfile

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// LogTransform returns ln(1 + v).
func LogTransform(v float64) float64 {
	return math.Log1p(v)
}

// Standardize sets LogValueScaled of every summit to its LogValue centered on
// the mean and divided by the population standard deviation of the set.  When
// the standard deviation is zero (including sets of one summit) the values are
// only centered.
func Standardize(summits []Summit) {
	if len(summits) == 0 {
		return
	}
	x := make([]float64, len(summits))
	for i := range summits {
		x[i] = summits[i].LogValue
	}
	mean, sd := popMeanStdDev(x)
	if sd == 0 || math.IsNaN(sd) {
		sd = 1
	}
	for i := range summits {
		summits[i].LogValueScaled = (summits[i].LogValue - mean) / sd
	}
}

// popMeanStdDev returns the mean and the population (divide by n) standard
// deviation of x.
func popMeanStdDev(x []float64) (mean, sd float64) {
	n := float64(len(x))
	if len(x) < 2 {
		return stat.Mean(x, nil), 0
	}
	mean, variance := stat.MeanVariance(x, nil)
	return mean, math.Sqrt(variance * (n - 1) / n)
}
