package trace

import (
	"errors"
	"fmt"
	"io"
	"math"

	"gopkg.in/yaml.v3"

	"github.com/cwbudde/algo-pca/fit"
	"github.com/cwbudde/algo-pca/pca"
)

// ErrInvalidParams is returned by Params.Validate.
var ErrInvalidParams = errors.New("trace: invalid parameters")

// Params configures a trace PCA model. The YAML keys follow the usual
// edge-tracing parameter names.
type Params struct {
	// Components is the number of PCA components; 0 selects them by
	// ExplainedVariance.
	Components int `yaml:"npca"`
	// ExplainedVariance is a percentage.
	ExplainedVariance float64 `yaml:"pca_explained_var"`
	// Order is the order of the coefficient fits.
	Order    int          `yaml:"coeff_npoly"`
	Function fit.Function `yaml:"function"`
	// Lower and Upper are rejection thresholds in sigma; .nan disables a
	// side.
	Lower   float64 `yaml:"lower"`
	Upper   float64 `yaml:"upper"`
	MaxRej  int     `yaml:"maxrej"`
	MaxIter int     `yaml:"maxiter"`
	// ReferenceRow is the spectral pixel whose trace positions become the
	// coordinate; -1 selects the middle pixel.
	ReferenceRow int `yaml:"reference_row"`
}

// DefaultParams returns second-order Legendre coefficient fits of enough
// components for 99% of the variance, measured at the middle pixel.
func DefaultParams() Params {
	return Params{
		ExplainedVariance: 99,
		Order:             2,
		Function:          fit.FunctionLegendre,
		Lower:             3,
		Upper:             3,
		MaxRej:            1,
		MaxIter:           25,
		ReferenceRow:      -1,
	}
}

// LoadParams decodes YAML parameters on top of DefaultParams and validates
// the result. Unknown keys are an error; an empty document yields the
// defaults.
func LoadParams(r io.Reader) (Params, error) {
	p := DefaultParams()

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil && !errors.Is(err, io.EOF) {
		return Params{}, fmt.Errorf("trace: decode parameters: %w", err)
	}

	if err := p.Validate(); err != nil {
		return Params{}, err
	}

	return p, nil
}

// Validate reports the first inconsistent field.
func (p Params) Validate() error {
	switch {
	case p.Components < 0:
		return fmt.Errorf("trace: npca %d: %w", p.Components, ErrInvalidParams)
	case p.Components == 0 && !(p.ExplainedVariance > 0):
		return fmt.Errorf("trace: pca_explained_var %v without npca: %w", p.ExplainedVariance, ErrInvalidParams)
	case p.Order < 0:
		return fmt.Errorf("trace: coeff_npoly %d: %w", p.Order, ErrInvalidParams)
	case !p.Function.Valid():
		return fmt.Errorf("trace: function %d: %w", int(p.Function), ErrInvalidParams)
	case p.Lower < 0 || p.Upper < 0:
		return fmt.Errorf("trace: rejection thresholds %v, %v: %w", p.Lower, p.Upper, ErrInvalidParams)
	case p.MaxIter < 0:
		return fmt.Errorf("trace: maxiter %d: %w", p.MaxIter, ErrInvalidParams)
	case p.ReferenceRow < -1:
		return fmt.Errorf("trace: reference_row %d: %w", p.ReferenceRow, ErrInvalidParams)
	}

	return nil
}

func (p Params) decomposeOptions() []pca.DecomposeOption {
	if p.Components > 0 {
		return []pca.DecomposeOption{pca.WithComponents(p.Components)}
	}

	return []pca.DecomposeOption{pca.WithExplainedVariance(p.ExplainedVariance)}
}

func (p Params) coefficientOptions() []pca.CoefficientOption {
	return []pca.CoefficientOption{
		pca.WithOrder(p.Order),
		pca.WithFunction(p.Function),
		pca.WithRejection(p.Lower, p.Upper),
		pca.WithMaxRej(p.MaxRej),
		pca.WithMaxIter(p.MaxIter),
	}
}

func optional(v float64) *float64 {
	if math.IsNaN(v) {
		return nil
	}

	return &v
}

func fromOptional(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}

	return *v
}
