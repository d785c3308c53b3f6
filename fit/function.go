package fit

import (
	"fmt"
	"strings"
)

// Function identifies the basis family of a fit.
type Function int

const (
	FunctionLegendre Function = iota
	FunctionPolynomial
	FunctionChebyshev
)

var functionNames = map[Function]string{
	FunctionLegendre:   "legendre",
	FunctionPolynomial: "polynomial",
	FunctionChebyshev:  "chebyshev",
}

// ParseFunction returns the Function registered under name (case-insensitive).
func ParseFunction(name string) (Function, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	for f, n := range functionNames {
		if n == key {
			return f, nil
		}
	}

	return 0, fmt.Errorf("fit: %q: %w", name, ErrUnknownFunction)
}

// String returns the canonical lower-case name.
func (f Function) String() string {
	if n, ok := functionNames[f]; ok {
		return n
	}

	return fmt.Sprintf("Function(%d)", int(f))
}

// Valid reports whether f is a known family.
func (f Function) Valid() bool {
	_, ok := functionNames[f]
	return ok
}

// MarshalText implements encoding.TextMarshaler.
func (f Function) MarshalText() ([]byte, error) {
	if !f.Valid() {
		return nil, fmt.Errorf("fit: %d: %w", int(f), ErrUnknownFunction)
	}

	return []byte(f.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *Function) UnmarshalText(text []byte) error {
	parsed, err := ParseFunction(string(text))
	if err != nil {
		return err
	}

	*f = parsed

	return nil
}

// rescale maps x into the natural domain of the family. Orthogonal
// families use [-1, 1] over [minx, maxx]; polynomials use x unchanged.
func (f Function) rescale(x, minx, maxx float64) float64 {
	if f == FunctionPolynomial {
		return x
	}

	span := maxx - minx
	if span == 0 {
		return 0
	}

	return 2*(x-minx)/span - 1
}

// basis fills dst with the len(dst) leading basis functions at xv.
func (f Function) basis(dst []float64, xv float64) {
	if len(dst) == 0 {
		return
	}

	dst[0] = 1
	if len(dst) == 1 {
		return
	}

	dst[1] = xv
	for n := 1; n+1 < len(dst); n++ {
		switch f {
		case FunctionPolynomial:
			dst[n+1] = dst[n] * xv
		case FunctionChebyshev:
			dst[n+1] = 2*xv*dst[n] - dst[n-1]
		default:
			nf := float64(n)
			dst[n+1] = ((2*nf+1)*xv*dst[n] - nf*dst[n-1]) / (nf + 1)
		}
	}
}

// sum evaluates Σ coef[j]·B_j(xv) without allocating.
func (f Function) sum(coef []float64, xv float64) float64 {
	if len(coef) == 0 {
		return 0
	}

	prev, cur := 0.0, 1.0
	total := coef[0]
	for n := 1; n < len(coef); n++ {
		var next float64
		switch {
		case n == 1:
			next = xv
		case f == FunctionPolynomial:
			next = cur * xv
		case f == FunctionChebyshev:
			next = 2*xv*cur - prev
		default:
			nf := float64(n - 1)
			next = ((2*nf+1)*xv*cur - nf*prev) / (nf + 1)
		}

		prev, cur = cur, next
		total += coef[n] * cur
	}

	return total
}
