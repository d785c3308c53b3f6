// Package pca models a family of equal-length vectors with a truncated
// principal-component basis and predicts new vectors from an external
// coordinate.
//
// The three steps are used in order:
//
//   - [Decompose] removes the per-vector and per-pixel means and keeps the
//     leading components of an SVD, either a fixed number or enough to reach
//     an explained-variance target.
//   - [FitCoefficients] fits a smooth function of the coordinate to each
//     component's coefficients with an outlier-rejecting fit.Fitter.
//   - [Predict] evaluates those functions at new coordinates and rebuilds
//     the vectors.
//
// # Usage
//
//	dec, err := pca.Decompose(vectors, pca.WithExplainedVariance(99.5))
//	if err != nil {
//	    return err
//	}
//
//	cf, err := pca.FitCoefficients(dec.Coefficients,
//	    pca.WithCoordinate(coo), pca.WithOrder(2))
//	if err != nil {
//	    return err
//	}
//
//	v, err := pca.Predict([]float64{12.5}, cf.Models, dec.Components,
//	    dec.ComponentMean, []float64{12.5})
//
// All functions are pure and safe for concurrent use on distinct inputs.
package pca
