package pca

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/cwbudde/algo-pca/fit"
)

// DebugCurvePoints is the number of samples in DebugFrame.CurveX.
const DebugCurvePoints = 100

// DebugFrame describes one component fit for inspection.
type DebugFrame struct {
	Component  int
	Coordinate []float64
	Values     []float64
	// InMask is the mask the fit started from; GoodMask is the mask it
	// returned.
	InMask   []bool
	GoodMask []bool
	Order    int
	// CurveX spans the coordinate range; CurveY is the fitted model on it.
	CurveX []float64
	CurveY []float64
}

// DebugHook receives a frame after every component fit.
type DebugHook func(DebugFrame)

// CoefficientFit is the result of FitCoefficients.
type CoefficientFit struct {
	// Rejected[i][k] is true when vector i was excluded from the fit of
	// component k.
	Rejected [][]bool
	// Params holds the fitted function coefficients of each component.
	Params     [][]float64
	MinX, MaxX float64
	Models     []fit.Evaluator
}

// RejectedMask returns the rejection flags of component k over all vectors.
func (f *CoefficientFit) RejectedMask(k int) []bool {
	out := make([]bool, len(f.Rejected))
	for i, row := range f.Rejected {
		out[i] = row[k]
	}

	return out
}

// ComponentFit is the result of FitCoefficientVector.
type ComponentFit struct {
	Rejected   []bool
	Params     []float64
	MinX, MaxX float64
	Model      fit.Evaluator
}

// FitCoefficients fits a smooth function of the coordinate to every column
// of coeff (N vectors × K components).
//
// Components are fit in order. The fit of component k+1 starts from the
// good-point mask returned for component k, not from the full set; the
// first component starts with every vector. All fits share the same
// rescaling bounds. A component that rejects every vector is not an error.
func FitCoefficients(coeff mat.Matrix, opts ...CoefficientOption) (*CoefficientFit, error) {
	cfg := ApplyCoefficientOptions(opts...)

	if coeff == nil {
		return nil, fmt.Errorf("pca: nil coefficients: %w", ErrInvalidShape)
	}

	n, k := coeff.Dims()
	if n == 0 || k == 0 {
		return nil, fmt.Errorf("pca: %d×%d coefficients: %w", n, k, ErrInvalidShape)
	}

	if err := cfg.validate(n, k); err != nil {
		return nil, err
	}

	orders := cfg.orders(k)
	coo := cfg.coordinate(n)
	minx, maxx := cfg.bounds(coo)

	fitter := cfg.Fitter
	if fitter == nil {
		fitter = fit.NewRobust(cfg.Logger)
	}

	out := &CoefficientFit{
		Rejected: make([][]bool, n),
		Params:   make([][]float64, k),
		MinX:     minx,
		MaxX:     maxx,
		Models:   make([]fit.Evaluator, k),
	}
	for i := range out.Rejected {
		out.Rejected[i] = make([]bool, k)
	}

	inMask := make([]bool, n)
	for i := range inMask {
		inMask[i] = true
	}

	for c := 0; c < k; c++ {
		values := mat.Col(nil, c, coeff)

		res, err := fitter.Fit(fit.Request{
			X:        coo,
			Y:        values,
			Order:    orders[c],
			InMask:   inMask,
			Weights:  perVector(cfg.Weights, cfg.WeightsMatrix, c),
			InvVar:   perVector(cfg.InverseVariance, cfg.InverseVarianceMatrix, c),
			Function: cfg.Function,
			Lower:    cfg.Lower,
			Upper:    cfg.Upper,
			MaxRej:   cfg.MaxRej,
			MaxIter:  cfg.MaxIter,
			MinX:     &minx,
			MaxX:     &maxx,
		})
		if err != nil {
			return nil, fmt.Errorf("pca: fit of component %d: %w", c, err)
		}

		if len(res.GoodMask) != n {
			return nil, fmt.Errorf("pca: fit of component %d returned %d mask entries for %d vectors: %w",
				c, len(res.GoodMask), n, ErrShapeMismatch)
		}

		rejected := 0
		for i, good := range res.GoodMask {
			out.Rejected[i][c] = !good
			if !good {
				rejected++
			}
		}

		out.Params[c] = res.Coefficients
		out.Models[c] = res.Model

		cfg.Logger.V(1).Info("fit PCA coefficients", "component", c, "order", orders[c],
			"rejected", rejected)

		if cfg.Debug != nil {
			cfg.Debug(debugFrame(c, orders[c], coo, values, inMask, res))
		}

		inMask = res.GoodMask
	}

	return out, nil
}

// FitCoefficientVector is FitCoefficients for a single component.
func FitCoefficientVector(coeff []float64, opts ...CoefficientOption) (*ComponentFit, error) {
	if len(coeff) == 0 {
		return nil, fmt.Errorf("pca: empty coefficients: %w", ErrInvalidShape)
	}

	res, err := FitCoefficients(mat.NewDense(len(coeff), 1, coeff), opts...)
	if err != nil {
		return nil, err
	}

	return &ComponentFit{
		Rejected: res.RejectedMask(0),
		Params:   res.Params[0],
		MinX:     res.MinX,
		MaxX:     res.MaxX,
		Model:    res.Models[0],
	}, nil
}

func (cfg CoefficientConfig) validate(n, k int) error {
	if len(cfg.Orders) != 1 && len(cfg.Orders) != k {
		return fmt.Errorf("pca: %d orders for %d components: %w", len(cfg.Orders), k, ErrShapeMismatch)
	}

	if cfg.Coordinate != nil && len(cfg.Coordinate) != n {
		return fmt.Errorf("pca: coordinate has %d entries for %d vectors: %w", len(cfg.Coordinate), n, ErrShapeMismatch)
	}

	if cfg.InverseVariance != nil && len(cfg.InverseVariance) != n {
		return fmt.Errorf("pca: inverse variance has %d entries for %d vectors: %w",
			len(cfg.InverseVariance), n, ErrShapeMismatch)
	}

	if cfg.Weights != nil && len(cfg.Weights) != n {
		return fmt.Errorf("pca: weights have %d entries for %d vectors: %w", len(cfg.Weights), n, ErrShapeMismatch)
	}

	for _, in := range []struct {
		name string
		m    mat.Matrix
	}{
		{name: "inverse variance", m: cfg.InverseVarianceMatrix},
		{name: "weights", m: cfg.WeightsMatrix},
	} {
		if in.m == nil {
			continue
		}

		if r, c := in.m.Dims(); r != n || c != k {
			return fmt.Errorf("pca: %s is %d×%d, coefficients are %d×%d: %w", in.name, r, c, n, k, ErrShapeMismatch)
		}
	}

	return nil
}

func (cfg CoefficientConfig) orders(k int) []int {
	if len(cfg.Orders) == k {
		return cfg.Orders
	}

	orders := make([]int, k)
	for i := range orders {
		orders[i] = cfg.Orders[0]
	}

	return orders
}

func (cfg CoefficientConfig) coordinate(n int) []float64 {
	if cfg.Coordinate != nil {
		return cfg.Coordinate
	}

	coo := make([]float64, n)
	for i := range coo {
		coo[i] = float64(i)
	}

	return coo
}

func (cfg CoefficientConfig) bounds(coo []float64) (float64, float64) {
	minx, maxx := cfg.MinX, cfg.MaxX
	if math.IsNaN(minx) {
		minx = floats.Min(coo)
	}

	if math.IsNaN(maxx) {
		maxx = floats.Max(coo)
	}

	return minx, maxx
}

// perVector returns the values for component c: the shared vector if set,
// else column c of the matrix, else nil.
func perVector(shared []float64, m mat.Matrix, c int) []float64 {
	if shared != nil {
		return shared
	}

	if m != nil {
		return mat.Col(nil, c, m)
	}

	return nil
}

func debugFrame(c, order int, coo, values []float64, inMask []bool, res *fit.Result) DebugFrame {
	curveX := floats.Span(make([]float64, DebugCurvePoints), floats.Min(coo), floats.Max(coo))
	curveY := make([]float64, len(curveX))
	for i, x := range curveX {
		curveY[i] = res.Model.Evaluate(x)
	}

	return DebugFrame{
		Component:  c,
		Coordinate: coo,
		Values:     values,
		InMask:     inMask,
		GoodMask:   res.GoodMask,
		Order:      order,
		CurveX:     curveX,
		CurveY:     curveY,
	}
}
