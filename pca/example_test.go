package pca_test

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/cwbudde/algo-pca/pca"
)

func Example() {
	// Vector i is the constant i; keep the offsets in the basis.
	vectors := mat.NewDense(5, 8, nil)
	vectors.Apply(func(i, _ int, _ float64) float64 { return float64(i) }, vectors)

	dec, err := pca.Decompose(vectors, pca.WithMean(make([]float64, 5)))
	if err != nil {
		fmt.Println(err)
		return
	}

	fmt.Printf("%d component(s), %.1f%% of the variance\n", dec.NumComponents(), dec.ExplainedVariance())

	cf, err := pca.FitCoefficients(dec.Coefficients, pca.WithOrder(1), pca.WithMaxIter(0))
	if err != nil {
		fmt.Println(err)
		return
	}

	v, err := pca.PredictAt(2.5, cf.Models, dec.Components, dec.ComponentMean, 0)
	if err != nil {
		fmt.Println(err)
		return
	}

	fmt.Printf("%.3f %.3f\n", v[0], v[7])
	// Output:
	// 1 component(s), 100.0% of the variance
	// 2.500 2.500
}
