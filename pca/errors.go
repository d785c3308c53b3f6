package pca

import "errors"

var (
	// ErrInvalidShape is returned for inputs of the wrong dimensionality:
	// fewer than two vectors, empty vectors, ragged rows, or an empty
	// prediction grid.
	ErrInvalidShape = errors.New("pca: invalid shape")

	// ErrShapeMismatch is returned when the lengths of related inputs do
	// not agree (coordinates, weights, orders, models, means).
	ErrShapeMismatch = errors.New("pca: shape mismatch")

	// ErrInsufficientComponents is returned when more components are
	// requested than the vectors support.
	ErrInsufficientComponents = errors.New("pca: too few vectors for the requested number of components")

	// ErrMissingTarget is returned when neither a component count nor an
	// explained-variance target is configured.
	ErrMissingTarget = errors.New("pca: no component count or explained variance target")

	// ErrFactorization is returned when the SVD does not converge.
	ErrFactorization = errors.New("pca: singular value decomposition failed")
)
