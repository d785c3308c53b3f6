package fit

import (
	"math"

	"github.com/cwbudde/algo-vecmath"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// solveWeighted returns the coefficients c minimising
//
//	Σ w[i]·(y[i] − Σ c[j]·B_j(x[i]))²
//
// through an SVD pseudo-inverse of the column-normalised design matrix.
// Singular values below len(x)·ε relative to the largest are dropped, so
// rank-deficient systems yield the minimum-norm solution and a fully
// zero-weighted system yields all-zero coefficients.
func solveWeighted(fn Function, order int, x, y, w []float64, minx, maxx float64) ([]float64, error) {
	n, m := len(x), order+1
	coef := make([]float64, m)

	sw := make([]float64, n)
	for i, wi := range w {
		if wi > 0 {
			sw[i] = math.Sqrt(wi)
		}
	}

	if floats.Max(sw) == 0 {
		return coef, nil
	}

	// Weighted design matrix, built column by column.
	row := make([]float64, m)
	cols := make([][]float64, m)
	for j := range cols {
		cols[j] = make([]float64, n)
	}

	for i, xi := range x {
		fn.basis(row, fn.rescale(xi, minx, maxx))
		for j := range m {
			cols[j][i] = row[j]
		}
	}

	design := mat.NewDense(n, m, nil)
	scale := make([]float64, m)
	for j, col := range cols {
		vecmath.MulBlockInPlace(col, sw)

		scale[j] = floats.Norm(col, 2)
		if scale[j] == 0 {
			scale[j] = 1
		}

		floats.Scale(1/scale[j], col)
		design.SetCol(j, col)
	}

	rhs := make([]float64, n)
	vecmath.MulBlock(rhs, y, sw)

	var svd mat.SVD
	if ok := svd.Factorize(design, mat.SVDThin); !ok {
		return nil, ErrSolve
	}

	values := svd.Values(nil)

	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)

	cutoff := float64(n) * epsilon * values[0]
	ucol := make([]float64, n)
	vcol := make([]float64, m)
	for k, s := range values {
		if s <= cutoff || s == 0 {
			continue
		}

		mat.Col(ucol, k, &u)
		mat.Col(vcol, k, &v)
		floats.AddScaled(coef, floats.Dot(ucol, rhs)/s, vcol)
	}

	floats.Div(coef, scale)

	return coef, nil
}

const epsilon = 2.220446049250313e-16
