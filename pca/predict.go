package pca

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/cwbudde/algo-pca/fit"
)

// Predict builds one vector per coordinate in x from the coefficient models.
//
// Row i of the result is
//
//	Σ_k models[k](x[i])·components[k] + componentMean + meanAtX[i]
//
// meanAtX is the vector offset at each coordinate; for trace positions it is
// usually x itself.
func Predict(x []float64, models []fit.Evaluator, components mat.Matrix, componentMean, meanAtX []float64) (*mat.Dense, error) {
	if len(x) == 0 {
		return nil, fmt.Errorf("pca: no prediction coordinates: %w", ErrInvalidShape)
	}

	if len(meanAtX) != len(x) {
		return nil, fmt.Errorf("pca: %d mean values for %d coordinates: %w", len(meanAtX), len(x), ErrInvalidShape)
	}

	if components == nil {
		return nil, fmt.Errorf("pca: nil components: %w", ErrInvalidShape)
	}

	k, p := components.Dims()
	if len(models) != k {
		return nil, fmt.Errorf("pca: %d models for %d components: %w", len(models), k, ErrShapeMismatch)
	}

	if len(componentMean) != p {
		return nil, fmt.Errorf("pca: component mean has %d entries for %d pixels: %w",
			len(componentMean), p, ErrShapeMismatch)
	}

	c := mat.NewDense(len(x), k, nil)
	for i, xi := range x {
		row := c.RawRowView(i)
		for j, model := range models {
			row[j] = model.Evaluate(xi)
		}
	}

	out := mat.NewDense(len(x), p, nil)
	out.Mul(c, components)
	out.Apply(func(i, j int, v float64) float64 {
		return v + componentMean[j] + meanAtX[i]
	}, out)

	return out, nil
}

// PredictAt is Predict for a single coordinate; it returns the P pixels of
// the predicted vector.
func PredictAt(x float64, models []fit.Evaluator, components mat.Matrix, componentMean []float64, meanAtX float64) ([]float64, error) {
	out, err := Predict([]float64{x}, models, components, componentMean, []float64{meanAtX})
	if err != nil {
		return nil, err
	}

	return out.RawRowView(0), nil
}
