package pca

import (
	"fmt"
	"math"
	"sort"
)

// growthCurve returns the cumulative explained variance, in percent, of the
// first kFull components given all singular values of the centred data.
// Per-component ratios are rounded to six decimals before accumulation.
func growthCurve(s []float64, kFull int) []float64 {
	total := 0.0
	for _, v := range s {
		total += v * v
	}

	growth := make([]float64, kFull)
	acc := 0.0
	for i := range growth {
		ratio := 0.0
		if total > 0 {
			ratio = s[i] * s[i] / total
		}

		acc += math.RoundToEven(ratio*1e6) / 1e6 * 100
		growth[i] = acc
	}

	return growth
}

// chooseComponents resolves the number of components to keep.
func chooseComponents(cfg DecomposeConfig, growth []float64) (int, error) {
	kFull := len(growth)

	if cfg.fixed {
		if cfg.Components <= 0 {
			return 0, fmt.Errorf("pca: %d component(s) requested: %w", cfg.Components, ErrInsufficientComponents)
		}

		if kFull < cfg.Components {
			return 0, fmt.Errorf("pca: full decomposition has %d component(s), %d requested: %w",
				kFull, cfg.Components, ErrInsufficientComponents)
		}

		return cfg.Components, nil
	}

	if !cfg.hasTarget() {
		return 0, ErrMissingTarget
	}

	if growth[0] >= cfg.ExplainedVariance {
		return 1, nil
	}

	index := make([]float64, kFull)
	for i := range index {
		index[i] = float64(i + 1)
	}

	return int(math.Ceil(interp(cfg.ExplainedVariance, growth, index))), nil
}

// interp is piecewise-linear interpolation of (xp, fp) at x; xp must be
// non-decreasing. Values outside the table clamp to the end points.
func interp(x float64, xp, fp []float64) float64 {
	n := len(xp)
	if x <= xp[0] {
		return fp[0]
	}

	if x >= xp[n-1] {
		return fp[n-1]
	}

	// xp[j] <= x < xp[j+1]
	j := sort.Search(n, func(i int) bool { return xp[i] > x }) - 1

	return fp[j] + (fp[j+1]-fp[j])*(x-xp[j])/(xp[j+1]-xp[j])
}
