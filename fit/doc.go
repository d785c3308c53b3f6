// Package fit provides robust 1D least-squares fitting with iterative
// outlier rejection.
//
// A fit expands y(x) in one of the basis families of [Function]
// (Legendre, Chebyshev or plain polynomial) and minimises the weighted sum
// of squared residuals. Points whose residual exceeds lower/upper
// standard deviations are rejected round by round, at most maxrej per
// round, until the mask stops changing or maxiter rounds have run.
// Without inverse variances the dispersion is estimated from the median
// absolute deviation of the current inliers.
//
// # Usage
//
//	res, err := fit.NewRobust(logr.Discard()).Fit(fit.Request{
//	    X: x, Y: y, Order: 2,
//	    Function: fit.FunctionLegendre,
//	    Lower: 3, Upper: 3, MaxRej: 1, MaxIter: 25,
//	})
//	y0 := res.Model.Evaluate(12.5)
//
// [Fitter] is the capability consumed by the pca package; alternative
// function families can be plugged in by implementing it.
package fit
