package fit

import (
	"math"
	"slices"
	"sort"
)

// madScale converts a median absolute deviation to a Gaussian sigma.
const madScale = 1.4826

// reject flags points of y whose residual against model falls below
// -lower or above +upper standard deviations and returns the new inlier
// mask together with whether it equals current.
//
// The rejection is not sticky: every point of inMask is re-scored, so a
// point rejected in an earlier round may come back. Only points in inMask
// can be inliers. When invVar is nil the dispersion is the scaled median
// absolute residual over points that are inliers in both current and
// inMask. At most maxRej points (largest standardised residual first) are
// rejected when maxRej > 0. A NaN threshold disables that side.
func reject(y, model []float64, current, inMask []bool, invVar []float64, lower, upper float64, maxRej int) ([]bool, bool) {
	n := len(y)

	var sigma float64
	if invVar == nil {
		sigma = madSigma(y, model, current, inMask)
	}

	badness := make([]float64, n)
	flagged := 0
	for i := range n {
		if !inMask[i] {
			continue
		}

		diff := y[i] - model[i]
		sig := sigma
		if invVar != nil {
			if invVar[i] <= 0 {
				continue
			}

			sig = 1 / math.Sqrt(invVar[i])
		}

		unit := sig
		if unit == 0 {
			unit = 1
		}

		if !math.IsNaN(lower) && diff < -lower*sig {
			badness[i] = -diff / unit
		}

		if !math.IsNaN(upper) && diff > upper*sig {
			badness[i] = diff / unit
		}

		if badness[i] > 0 {
			flagged++
		}
	}

	if maxRej > 0 && flagged > maxRej {
		order := make([]int, 0, flagged)
		for i, b := range badness {
			if b > 0 {
				order = append(order, i)
			}
		}

		sort.SliceStable(order, func(a, b int) bool {
			return badness[order[a]] > badness[order[b]]
		})

		for _, i := range order[maxRej:] {
			badness[i] = 0
		}
	}

	next := make([]bool, n)
	for i := range n {
		next[i] = inMask[i] && badness[i] == 0
	}

	return next, slices.Equal(next, current)
}

func madSigma(y, model []float64, current, inMask []bool) float64 {
	dev := make([]float64, 0, len(y))
	for i := range y {
		if current[i] && inMask[i] {
			dev = append(dev, math.Abs(y[i]-model[i]))
		}
	}

	if len(dev) == 0 {
		return 0
	}

	return madScale * median(dev)
}

// median sorts values in place and returns the midpoint of the middle
// pair for even lengths.
func median(values []float64) float64 {
	sort.Float64s(values)

	mid := len(values) / 2
	if len(values)%2 == 1 {
		return values[mid]
	}

	return 0.5 * (values[mid-1] + values[mid])
}
