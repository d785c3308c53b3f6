package testutil

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// DeterministicNoise generates uniform noise in [-amplitude, amplitude]
// with a fixed seed for reproducibility.
func DeterministicNoise(seed int64, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	rng := rand.New(rand.NewSource(seed))
	for i := range out {
		out[i] = (rng.Float64()*2 - 1) * amplitude
	}
	return out
}

// Ramp returns start, start+step, ... of the given length.
func Ramp(start, step float64, length int) []float64 {
	out := make([]float64, length)
	for i := range out {
		out[i] = start + step*float64(i)
	}
	return out
}

// TraceFamily builds ntrace synthetic order traces sampled at npix
// spectral pixels. Trace i sits at spatial position 20+15i and bends with
// a curvature that drifts smoothly with position, the shape echelle order
// edges have on a detector. noise adds seeded jitter of that amplitude.
func TraceFamily(ntrace, npix int, noise float64, seed int64) *mat.Dense {
	traces := mat.NewDense(ntrace, npix, nil)
	jitter := DeterministicNoise(seed, noise, ntrace*npix)
	mid := float64(npix-1) / 2
	for i := range ntrace {
		pos := 20 + 15*float64(i)
		curv := 2e-3 + 1e-5*pos
		for p := range npix {
			dp := float64(p) - mid
			v := pos + curv*dp*dp + 0.01*pos*math.Sin(dp/float64(npix))
			traces.Set(i, p, v+jitter[i*npix+p])
		}
	}
	return traces
}
