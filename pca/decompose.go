package pca

import (
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Decomposition is a truncated principal-component basis of a vector set.
//
// The input vectors are recovered, up to the discarded variance, by
//
//	Coefficients·Components + ComponentMean (per column) + VectorMean (per row)
type Decomposition struct {
	// Coefficients holds one row per vector and one column per component.
	Coefficients *mat.Dense
	// Components holds one unit-length component per row, K×P.
	Components *mat.Dense
	// ComponentMean is the per-pixel mean removed before the SVD.
	ComponentMean []float64
	// VectorMean is the per-vector offset removed first.
	VectorMean []float64
	// Growth is the cumulative explained variance in percent of the
	// unconstrained decomposition, one entry per available component.
	Growth []float64
}

// NumComponents returns K.
func (d *Decomposition) NumComponents() int {
	k, _ := d.Components.Dims()
	return k
}

// ExplainedVariance returns the percentage of the variance captured by the
// kept components.
func (d *Decomposition) ExplainedVariance() float64 {
	return d.Growth[d.NumComponents()-1]
}

// Reconstruct returns the N×P approximation of the decomposed vectors.
func (d *Decomposition) Reconstruct() *mat.Dense {
	n, _ := d.Coefficients.Dims()
	_, p := d.Components.Dims()

	out := mat.NewDense(n, p, nil)
	out.Mul(d.Coefficients, d.Components)
	out.Apply(func(i, j int, v float64) float64 {
		return v + d.ComponentMean[j] + d.VectorMean[i]
	}, out)

	return out
}

// Decompose performs a principal-component analysis of the rows of
// vectors (N vectors of P pixels).
//
// The vector mean (WithMean, or each row's own mean) is removed from every
// row, then the per-pixel mean from every column. An unconstrained SVD
// yields the variance growth curve with min(N-1, P) entries. The number of
// kept components is either given (WithComponents) or the smallest count
// reaching the explained-variance target. Each component's
// largest-magnitude entry is positive.
func Decompose(vectors mat.Matrix, opts ...DecomposeOption) (*Decomposition, error) {
	cfg := ApplyDecomposeOptions(opts...)

	if vectors == nil {
		return nil, fmt.Errorf("pca: nil vectors: %w", ErrInvalidShape)
	}

	n, p := vectors.Dims()
	if n < 2 || p < 1 {
		return nil, fmt.Errorf("pca: %d×%d vectors, need at least 2 vectors of 1 pixel: %w",
			n, p, ErrInvalidShape)
	}

	mean, err := vectorMean(vectors, cfg.Mean)
	if err != nil {
		return nil, err
	}

	centred := mat.NewDense(n, p, nil)
	centred.Apply(func(i, _ int, v float64) float64 { return v - mean[i] }, vectors)

	componentMean := make([]float64, p)
	col := make([]float64, n)
	for j := range componentMean {
		mat.Col(col, j, centred)
		componentMean[j] = stat.Mean(col, nil)
	}

	centred.Apply(func(_, j int, v float64) float64 { return v - componentMean[j] }, centred)

	var svd mat.SVD
	if !svd.Factorize(centred, mat.SVDThin) {
		return nil, ErrFactorization
	}

	s := svd.Values(nil)
	growth := growthCurve(s, min(n-1, p))
	cfg.Logger.Info("unconstrained PCA", "components", len(growth))

	k, err := chooseComponents(cfg, growth)
	if err != nil {
		return nil, err
	}

	cfg.Logger.Info("PCA components selected", "components", k, "explainedVariance", growth[k-1])

	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)

	coefficients := mat.NewDense(n, k, nil)
	components := mat.NewDense(k, p, nil)
	uc := make([]float64, n)
	vc := make([]float64, p)
	for c := 0; c < k; c++ {
		mat.Col(uc, c, &u)
		mat.Col(vc, c, &v)

		sign := 1.0
		if vc[maxAbsIndex(vc)] < 0 {
			sign = -1
		}

		floats.Scale(sign, vc)
		floats.Scale(sign*s[c], uc)
		components.SetRow(c, vc)
		coefficients.SetCol(c, uc)
	}

	return &Decomposition{
		Coefficients:  coefficients,
		Components:    components,
		ComponentMean: componentMean,
		VectorMean:    mean,
		Growth:        growth,
	}, nil
}

// DecomposeRows is Decompose for a slice of equal-length rows.
func DecomposeRows(rows [][]float64, opts ...DecomposeOption) (*Decomposition, error) {
	if len(rows) < 2 || len(rows[0]) == 0 {
		return nil, fmt.Errorf("pca: %d row(s), need at least 2 non-empty rows: %w", len(rows), ErrInvalidShape)
	}

	p := len(rows[0])
	data := make([]float64, 0, len(rows)*p)
	for i, row := range rows {
		if len(row) != p {
			return nil, fmt.Errorf("pca: row %d has %d pixels, row 0 has %d: %w", i, len(row), p, ErrInvalidShape)
		}

		data = append(data, row...)
	}

	return Decompose(mat.NewDense(len(rows), p, data), opts...)
}

func vectorMean(vectors mat.Matrix, override []float64) ([]float64, error) {
	n, p := vectors.Dims()

	if override != nil {
		if len(override) != n {
			return nil, fmt.Errorf("pca: mean has %d entries for %d vectors: %w", len(override), n, ErrShapeMismatch)
		}

		return slices.Clone(override), nil
	}

	mean := make([]float64, n)
	row := make([]float64, p)
	for i := range mean {
		mat.Row(row, i, vectors)
		mean[i] = stat.Mean(row, nil)
	}

	return mean, nil
}

func maxAbsIndex(x []float64) int {
	idx, best := 0, -1.0
	for i, v := range x {
		if a := math.Abs(v); a > best {
			idx, best = i, a
		}
	}

	return idx
}
