package fit

import "errors"

var (
	ErrEmptyInput      = errors.New("fit: input is empty")
	ErrLengthMismatch  = errors.New("fit: input lengths differ")
	ErrInvalidOrder    = errors.New("fit: order must be >= 0")
	ErrUnknownFunction = errors.New("fit: unknown function family")
	ErrSolve           = errors.New("fit: least-squares solve failed")
)
