// Package trace builds a PCA model of a set of spectral traces and predicts
// traces at new spatial positions.
//
// Traces are rows of an N×P matrix: trace i gives its spatial position at
// each of P spectral pixels. The position at a reference pixel is both the
// coordinate the PCA coefficients are fit against and the per-trace mean
// removed before the decomposition, so a prediction at position x is
// pinned to x at the reference pixel.
package trace

import (
	"fmt"

	"github.com/go-logr/logr"
	"gonum.org/v1/gonum/mat"

	"github.com/cwbudde/algo-pca/pca"
)

// PCA is a fitted trace model. It is immutable once built.
type PCA struct {
	Params Params
	// Reference is the spectral pixel that defines Coordinate.
	Reference  int
	Coordinate []float64

	Decomposition *pca.Decomposition
	Fit           *pca.CoefficientFit
}

type options struct {
	coordinate []float64
	log        logr.Logger
	debug      pca.DebugHook
}

// Option configures New.
type Option func(*options)

// WithCoordinate replaces the reference-pixel positions as the fit
// coordinate and vector mean.
func WithCoordinate(coo []float64) Option {
	return func(o *options) {
		o.coordinate = coo
	}
}

// WithLogger sets the logger passed to the decomposition and the fits.
func WithLogger(log logr.Logger) Option {
	return func(o *options) {
		o.log = log
	}
}

// WithDebugHook installs a hook called after each coefficient fit.
func WithDebugHook(hook pca.DebugHook) Option {
	return func(o *options) {
		o.debug = hook
	}
}

// New decomposes traces and fits the component coefficients against the
// trace positions at the reference pixel.
func New(traces mat.Matrix, p Params, opts ...Option) (*PCA, error) {
	o := options{log: logr.Discard()}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}

	if traces == nil {
		return nil, fmt.Errorf("trace: nil traces: %w", pca.ErrInvalidShape)
	}

	n, npix := traces.Dims()
	ref := p.ReferenceRow
	if ref < 0 {
		ref = npix / 2
	}

	if ref >= npix {
		return nil, fmt.Errorf("trace: reference_row %d outside %d pixels: %w", ref, npix, ErrInvalidParams)
	}

	coo := o.coordinate
	if coo == nil {
		coo = mat.Col(nil, ref, traces)
	} else if len(coo) != n {
		return nil, fmt.Errorf("trace: coordinate has %d entries for %d traces: %w", len(coo), n, pca.ErrShapeMismatch)
	}

	log := o.log.WithValues("traces", n, "pixels", npix, "reference", ref)

	dec, err := pca.Decompose(traces, append(p.decomposeOptions(),
		pca.WithMean(coo), pca.WithLogger(log))...)
	if err != nil {
		return nil, err
	}

	cf, err := pca.FitCoefficients(dec.Coefficients, append(p.coefficientOptions(),
		pca.WithCoordinate(coo), pca.WithCoefficientLogger(log), pca.WithDebugHook(o.debug))...)
	if err != nil {
		return nil, err
	}

	return &PCA{
		Params:        p,
		Reference:     ref,
		Coordinate:    coo,
		Decomposition: dec,
		Fit:           cf,
	}, nil
}

// NumComponents returns the number of PCA components in the model.
func (m *PCA) NumComponents() int {
	return m.Decomposition.NumComponents()
}

// Predict returns one predicted trace per position in x, as rows.
func (m *PCA) Predict(x ...float64) (*mat.Dense, error) {
	return pca.Predict(x, m.Fit.Models, m.Decomposition.Components, m.Decomposition.ComponentMean, x)
}

// PredictTrace returns the trace through position x at the reference pixel.
func (m *PCA) PredictTrace(x float64) ([]float64, error) {
	return pca.PredictAt(x, m.Fit.Models, m.Decomposition.Components, m.Decomposition.ComponentMean, x)
}
