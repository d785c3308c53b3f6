package fit

import (
	"fmt"
	"slices"

	"github.com/go-logr/logr"
	"gonum.org/v1/gonum/floats"
)

// Request describes one robust fit.
//
// InMask, Weights and InvVar are optional (nil means all-true, uniform and
// absent respectively). When InvVar is nil the rejection dispersion comes
// from the median absolute deviation. Lower and Upper are rejection
// thresholds in standard deviations; NaN disables a side. MaxRej <= 0
// means no per-round limit. A nil MinX or MaxX is taken from X.
type Request struct {
	X, Y     []float64
	Order    int
	InMask   []bool
	Weights  []float64
	InvVar   []float64
	Function Function
	Lower    float64
	Upper    float64
	MaxRej   int
	MaxIter  int
	MinX     *float64
	MaxX     *float64
}

// Result holds the outcome of a fit.
type Result struct {
	Coefficients []float64
	// GoodMask is true for points used by the final fit.
	GoodMask   []bool
	Iterations int
	Model      Evaluator
}

// Fitter performs a robust fit of a single data set.
type Fitter interface {
	Fit(req Request) (*Result, error)
}

// Robust is the default Fitter: iterative weighted least squares with
// non-sticky sigma clipping.
type Robust struct {
	log logr.Logger
}

var _ Fitter = (*Robust)(nil)

// NewRobust creates a Robust fitter that reports warnings to log.
func NewRobust(log logr.Logger) *Robust {
	return &Robust{log: log}
}

func (r Request) validate() error {
	n := len(r.X)
	if n == 0 {
		return ErrEmptyInput
	}

	if len(r.Y) != n {
		return fmt.Errorf("fit: y has %d points, x has %d: %w", len(r.Y), n, ErrLengthMismatch)
	}

	if r.InMask != nil && len(r.InMask) != n {
		return fmt.Errorf("fit: mask has %d points, x has %d: %w", len(r.InMask), n, ErrLengthMismatch)
	}

	if r.Weights != nil && len(r.Weights) != n {
		return fmt.Errorf("fit: weights have %d points, x has %d: %w", len(r.Weights), n, ErrLengthMismatch)
	}

	if r.InvVar != nil && len(r.InvVar) != n {
		return fmt.Errorf("fit: inverse variance has %d points, x has %d: %w", len(r.InvVar), n, ErrLengthMismatch)
	}

	if r.Order < 0 {
		return fmt.Errorf("fit: order %d: %w", r.Order, ErrInvalidOrder)
	}

	if !r.Function.Valid() {
		return fmt.Errorf("fit: %d: %w", int(r.Function), ErrUnknownFunction)
	}

	return nil
}

func (r Request) bounds() (float64, float64) {
	minx, maxx := floats.Min(r.X), floats.Max(r.X)
	if r.MinX != nil {
		minx = *r.MinX
	}

	if r.MaxX != nil {
		maxx = *r.MaxX
	}

	return minx, maxx
}

// Fit runs up to MaxIter rejection rounds and a final fit on the surviving
// points.
func (f *Robust) Fit(req Request) (*Result, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	n := len(req.X)
	minx, maxx := req.bounds()

	inMask := req.InMask
	if inMask == nil {
		inMask = make([]bool, n)
		for i := range inMask {
			inMask[i] = true
		}
	}

	mask := slices.Clone(inMask)
	w := make([]float64, n)
	model := &Model{Function: req.Function, Order: req.Order, MinX: minx, MaxX: maxx}

	iter := 0
	done := false
	for !done && iter < req.MaxIter {
		if countTrue(mask) <= req.Order+1 {
			f.log.Info("more parameters than data points; fit might be undesirable",
				"order", req.Order, "points", countTrue(mask))
		}

		coef, err := solveWeighted(req.Function, req.Order, req.X, req.Y, req.pointWeights(w, mask), minx, maxx)
		if err != nil {
			return nil, err
		}

		model.Coefficients = coef
		mask, done = reject(req.Y, model.EvaluateAll(req.X), mask, inMask, req.InvVar,
			req.Lower, req.Upper, req.MaxRej)
		iter++
	}

	if !done && req.MaxIter > 0 {
		f.log.Info("maximum number of rejection iterations reached", "maxiter", req.MaxIter)
	}

	coef, err := solveWeighted(req.Function, req.Order, req.X, req.Y, req.pointWeights(w, mask), minx, maxx)
	if err != nil {
		return nil, err
	}

	model.Coefficients = coef
	f.log.V(1).Info("robust fit", "function", req.Function.String(), "order", req.Order,
		"iterations", iter, "rejected", n-countTrue(mask))

	return &Result{
		Coefficients: slices.Clone(coef),
		GoodMask:     mask,
		Iterations:   iter,
		Model:        model,
	}, nil
}

// pointWeights fills w with the least-squares weight of every point:
// weight × inverse variance, zero outside mask.
func (r Request) pointWeights(w []float64, mask []bool) []float64 {
	for i := range w {
		w[i] = 0
		if !mask[i] {
			continue
		}

		w[i] = 1
		if r.Weights != nil {
			w[i] = r.Weights[i]
		}

		if r.InvVar != nil {
			w[i] *= r.InvVar[i]
		}
	}

	return w
}

func countTrue(mask []bool) int {
	n := 0
	for _, b := range mask {
		if b {
			n++
		}
	}

	return n
}
