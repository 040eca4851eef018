package sim

import (
	"math"
	"sort"
)

// Interpolate evaluates a graphical function at index. Points are
// ascending in x by construction. Indexes outside the table clamp to
// the first or last sample; exact matches return the sample value;
// everything else is linearly interpolated between the bracketing
// samples. An empty table returns NaN.
func Interpolate(xs, ys []float64, index float64) float64 {
	n := len(xs)
	if n == 0 {
		return math.NaN()
	}
	if index <= xs[0] {
		return ys[0]
	}
	if index >= xs[n-1] {
		return ys[n-1]
	}

	// Smallest i with xs[i] >= index; the checks above guarantee
	// 0 < i < n.
	i := sort.SearchFloat64s(xs, index)
	if xs[i] == index {
		return ys[i]
	}

	slope := (ys[i] - ys[i-1]) / (xs[i] - xs[i-1])
	return ys[i-1] + slope*(index-xs[i-1])
}
