package pca

import (
	"math"

	"github.com/go-logr/logr"
	"gonum.org/v1/gonum/mat"

	"github.com/cwbudde/algo-pca/fit"
)

// DefaultExplainedVariance is the variance percentage targeted when no
// component count is given.
const DefaultExplainedVariance = 99.0

// DecomposeConfig configures Decompose.
type DecomposeConfig struct {
	// Components is the number of components to keep. It is only used
	// when set through WithComponents; otherwise ExplainedVariance selects.
	Components int
	// ExplainedVariance is the target percentage (not fraction) of the
	// variance to capture. NaN means no target.
	ExplainedVariance float64
	// Mean overrides the per-vector offsets removed before the analysis.
	Mean   []float64
	Logger logr.Logger

	fixed bool
}

// DecomposeOption mutates a DecomposeConfig.
type DecomposeOption func(*DecomposeConfig)

// DefaultDecomposeConfig returns the defaults: select components to
// capture 99% of the variance.
func DefaultDecomposeConfig() DecomposeConfig {
	return DecomposeConfig{
		ExplainedVariance: DefaultExplainedVariance,
		Logger:            logr.Discard(),
	}
}

// WithComponents keeps exactly k components. Decompose fails with
// ErrInsufficientComponents unless 0 < k <= min(N-1, P).
func WithComponents(k int) DecomposeOption {
	return func(cfg *DecomposeConfig) {
		cfg.Components = k
		cfg.fixed = true
	}
}

// WithExplainedVariance sets the variance target in percent.
func WithExplainedVariance(pct float64) DecomposeOption {
	return func(cfg *DecomposeConfig) {
		if pct > 0 {
			cfg.ExplainedVariance = pct
		}
	}
}

// WithoutVarianceTarget removes the variance target; Decompose then needs
// WithComponents.
func WithoutVarianceTarget() DecomposeOption {
	return func(cfg *DecomposeConfig) {
		cfg.ExplainedVariance = math.NaN()
	}
}

// WithMean sets the per-vector offsets subtracted before the analysis.
func WithMean(mean []float64) DecomposeOption {
	return func(cfg *DecomposeConfig) {
		cfg.Mean = mean
	}
}

// WithLogger sets the logger used by Decompose.
func WithLogger(log logr.Logger) DecomposeOption {
	return func(cfg *DecomposeConfig) {
		cfg.Logger = log
	}
}

// ApplyDecomposeOptions applies zero or more options to the default config.
func ApplyDecomposeOptions(opts ...DecomposeOption) DecomposeConfig {
	cfg := DefaultDecomposeConfig()

	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	return cfg
}

func (cfg DecomposeConfig) hasTarget() bool {
	return !math.IsNaN(cfg.ExplainedVariance)
}

// CoefficientConfig configures FitCoefficients.
type CoefficientConfig struct {
	// Orders holds one fit order, applied to every component, or one
	// order per component.
	Orders []int
	// Coordinate is the abscissa of each vector; nil means 0..N-1.
	Coordinate []float64

	InverseVariance       []float64
	InverseVarianceMatrix mat.Matrix
	Weights               []float64
	WeightsMatrix         mat.Matrix

	Function fit.Function
	// Lower and Upper are rejection thresholds in standard deviations;
	// NaN disables a side.
	Lower, Upper float64
	MaxRej       int
	MaxIter      int
	// MinX and MaxX rescale the coordinate; NaN takes the coordinate's
	// own minimum or maximum.
	MinX, MaxX float64

	// Fitter performs the per-component fits; nil uses fit.Robust.
	Fitter fit.Fitter
	Debug  DebugHook
	Logger logr.Logger
}

// CoefficientOption mutates a CoefficientConfig.
type CoefficientOption func(*CoefficientConfig)

// DefaultCoefficientConfig returns first-order Legendre fits with 3-sigma
// rejection, at most one rejection per round and 25 rounds.
func DefaultCoefficientConfig() CoefficientConfig {
	return CoefficientConfig{
		Orders:   []int{1},
		Function: fit.FunctionLegendre,
		Lower:    3,
		Upper:    3,
		MaxRej:   1,
		MaxIter:  25,
		MinX:     math.NaN(),
		MaxX:     math.NaN(),
		Logger:   logr.Discard(),
	}
}

// WithOrder uses the same fit order for every component.
func WithOrder(order int) CoefficientOption {
	return func(cfg *CoefficientConfig) {
		cfg.Orders = []int{order}
	}
}

// WithOrders sets one fit order per component.
func WithOrders(orders ...int) CoefficientOption {
	return func(cfg *CoefficientConfig) {
		cfg.Orders = orders
	}
}

// WithCoordinate sets the abscissa of each vector.
func WithCoordinate(coo []float64) CoefficientOption {
	return func(cfg *CoefficientConfig) {
		cfg.Coordinate = coo
	}
}

// WithInverseVariance sets per-vector inverse variances shared by all
// components.
func WithInverseVariance(ivar []float64) CoefficientOption {
	return func(cfg *CoefficientConfig) {
		cfg.InverseVariance, cfg.InverseVarianceMatrix = ivar, nil
	}
}

// WithInverseVarianceMatrix sets inverse variances per coefficient; the
// shape must match the coefficients.
func WithInverseVarianceMatrix(ivar mat.Matrix) CoefficientOption {
	return func(cfg *CoefficientConfig) {
		cfg.InverseVariance, cfg.InverseVarianceMatrix = nil, ivar
	}
}

// WithWeights sets per-vector fit weights shared by all components.
func WithWeights(w []float64) CoefficientOption {
	return func(cfg *CoefficientConfig) {
		cfg.Weights, cfg.WeightsMatrix = w, nil
	}
}

// WithWeightsMatrix sets fit weights per coefficient; the shape must match
// the coefficients.
func WithWeightsMatrix(w mat.Matrix) CoefficientOption {
	return func(cfg *CoefficientConfig) {
		cfg.Weights, cfg.WeightsMatrix = nil, w
	}
}

// WithFunction sets the basis family.
func WithFunction(fn fit.Function) CoefficientOption {
	return func(cfg *CoefficientConfig) {
		cfg.Function = fn
	}
}

// WithRejection sets the lower and upper rejection thresholds.
func WithRejection(lower, upper float64) CoefficientOption {
	return func(cfg *CoefficientConfig) {
		cfg.Lower, cfg.Upper = lower, upper
	}
}

// WithMaxRej limits the rejections per round; n <= 0 removes the limit.
func WithMaxRej(n int) CoefficientOption {
	return func(cfg *CoefficientConfig) {
		cfg.MaxRej = n
	}
}

// WithMaxIter sets the number of rejection rounds; 0 disables rejection.
func WithMaxIter(n int) CoefficientOption {
	return func(cfg *CoefficientConfig) {
		if n >= 0 {
			cfg.MaxIter = n
		}
	}
}

// WithBounds fixes the coordinate rescaling bounds. NaN keeps the
// data-derived value for that side.
func WithBounds(minx, maxx float64) CoefficientOption {
	return func(cfg *CoefficientConfig) {
		cfg.MinX, cfg.MaxX = minx, maxx
	}
}

// WithFitter replaces the robust fitter.
func WithFitter(f fit.Fitter) CoefficientOption {
	return func(cfg *CoefficientConfig) {
		cfg.Fitter = f
	}
}

// WithDebugHook installs a hook called after every component fit.
func WithDebugHook(hook DebugHook) CoefficientOption {
	return func(cfg *CoefficientConfig) {
		cfg.Debug = hook
	}
}

// WithCoefficientLogger sets the logger used by FitCoefficients and the
// default fitter.
func WithCoefficientLogger(log logr.Logger) CoefficientOption {
	return func(cfg *CoefficientConfig) {
		cfg.Logger = log
	}
}

// ApplyCoefficientOptions applies zero or more options to the default config.
func ApplyCoefficientOptions(opts ...CoefficientOption) CoefficientConfig {
	cfg := DefaultCoefficientConfig()

	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	return cfg
}
