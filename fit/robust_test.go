package fit

import (
	"errors"
	"math"
	"testing"

	"github.com/go-logr/logr"

	"github.com/cwbudde/algo-pca/internal/testutil"
)

func line(x []float64, slope, intercept float64) []float64 {
	y := make([]float64, len(x))
	for i, xi := range x {
		y[i] = slope*xi + intercept
	}

	return y
}

func TestRobustOrderZeroIsWeightedMean(t *testing.T) {
	x := testutil.Ramp(0, 1, 4)
	res, err := NewRobust(logr.Discard()).Fit(Request{
		X:        x,
		Y:        []float64{1, 2, 3, 4},
		Weights:  []float64{1, 1, 1, 5},
		Order:    0,
		Function: FunctionLegendre,
		Lower:    3,
		Upper:    3,
		MaxRej:   1,
		MaxIter:  0,
	})
	if err != nil {
		t.Fatal(err)
	}

	if len(res.Coefficients) != 1 || math.Abs(res.Coefficients[0]-3.25) > 1e-12 {
		t.Fatalf("coefficients = %v, want [3.25]", res.Coefficients)
	}

	for i, ok := range res.GoodMask {
		if !ok {
			t.Fatalf("point %d rejected with maxiter=0", i)
		}
	}

	if res.Iterations != 0 {
		t.Fatalf("iterations = %d, want 0", res.Iterations)
	}
}

func TestRobustExactLine(t *testing.T) {
	x := testutil.Ramp(0, 1, 10)
	y := line(x, 2, 1)

	for _, fn := range []Function{FunctionLegendre, FunctionChebyshev, FunctionPolynomial} {
		res, err := NewRobust(testutil.NewLogger(t)).Fit(Request{
			X: x, Y: y, Order: 1, Function: fn,
			Lower: 3, Upper: 3, MaxRej: 1, MaxIter: 5,
		})
		if err != nil {
			t.Fatalf("%s: %v", fn, err)
		}

		for _, xi := range []float64{0, 4.5, 9, 20} {
			if got, want := res.Model.Evaluate(xi), 2*xi+1; math.Abs(got-want) > 1e-9 {
				t.Fatalf("%s: Evaluate(%v) = %v, want %v", fn, xi, got, want)
			}
		}
	}

	res, err := NewRobust(logr.Discard()).Fit(Request{X: x, Y: y, Order: 1, Function: FunctionPolynomial})
	if err != nil {
		t.Fatal(err)
	}

	testutil.RequireSliceNearlyEqual(t, res.Coefficients, []float64{1, 2}, 1e-10)
}

func TestRobustRejectsPlantedOutlier(t *testing.T) {
	x := testutil.Ramp(0, 1, 10)
	y := line(x, 2, 1)
	for i := range y {
		y[i] += 0.01 * math.Sin(1.7*x[i])
	}
	y[5] += 100

	res, err := NewRobust(testutil.NewLogger(t)).Fit(Request{
		X: x, Y: y, Order: 1, Function: FunctionLegendre,
		Lower: 3, Upper: 3, MaxRej: 1, MaxIter: 10,
	})
	if err != nil {
		t.Fatal(err)
	}

	for i, ok := range res.GoodMask {
		if want := i != 5; ok != want {
			t.Fatalf("GoodMask[%d] = %v, want %v", i, ok, want)
		}
	}

	slope := (res.Model.Evaluate(9) - res.Model.Evaluate(0)) / 9
	if math.Abs(slope-2) > 1e-2 {
		t.Fatalf("slope = %v, want 2", slope)
	}
}

func TestRobustRespectsInputMask(t *testing.T) {
	x := testutil.Ramp(0, 1, 6)
	y := line(x, -1, 3)
	y[2] = 50
	inMask := []bool{true, true, false, true, true, true}

	res, err := NewRobust(logr.Discard()).Fit(Request{
		X: x, Y: y, Order: 1, InMask: inMask, Function: FunctionLegendre,
		Lower: 3, Upper: 3, MaxRej: 1, MaxIter: 0,
	})
	if err != nil {
		t.Fatal(err)
	}

	if res.GoodMask[2] {
		t.Fatal("masked input point reported as good")
	}

	if got := res.Model.Evaluate(2); math.Abs(got-1) > 1e-10 {
		t.Fatalf("Evaluate(2) = %v, want 1 (masked point must not pull the fit)", got)
	}
}

func TestRobustInverseVarianceWeighting(t *testing.T) {
	res, err := NewRobust(logr.Discard()).Fit(Request{
		X:        []float64{0, 1, 2, 3},
		Y:        []float64{1, 1, 100, 1},
		InvVar:   []float64{1, 1, 0, 1},
		Order:    0,
		Function: FunctionLegendre,
		Lower:    3,
		Upper:    3,
		MaxIter:  5,
	})
	if err != nil {
		t.Fatal(err)
	}

	if math.Abs(res.Coefficients[0]-1) > 1e-12 {
		t.Fatalf("coefficient = %v, want 1", res.Coefficients[0])
	}

	// Zero inverse variance means infinite sigma; the point is never flagged.
	if !res.GoodMask[2] {
		t.Fatal("zero-ivar point rejected")
	}
}

func TestRobustAllMaskedIsNotAnError(t *testing.T) {
	res, err := NewRobust(testutil.NewLogger(t)).Fit(Request{
		X:        []float64{0, 1, 2},
		Y:        []float64{4, 5, 6},
		InMask:   []bool{false, false, false},
		Order:    1,
		Function: FunctionLegendre,
		Lower:    3,
		Upper:    3,
		MaxIter:  25,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	testutil.RequireSliceNearlyEqual(t, res.Coefficients, []float64{0, 0}, 0)
	for i, ok := range res.GoodMask {
		if ok {
			t.Fatalf("GoodMask[%d] = true, want all false", i)
		}
	}
}

func TestRobustValidation(t *testing.T) {
	fitter := NewRobust(logr.Discard())
	for _, tc := range []struct {
		name string
		req  Request
		want error
	}{
		{name: "empty", req: Request{}, want: ErrEmptyInput},
		{name: "y length", req: Request{X: []float64{0, 1}, Y: []float64{0}}, want: ErrLengthMismatch},
		{name: "mask length", req: Request{X: []float64{0, 1}, Y: []float64{0, 1}, InMask: []bool{true}}, want: ErrLengthMismatch},
		{name: "weights length", req: Request{X: []float64{0, 1}, Y: []float64{0, 1}, Weights: []float64{1}}, want: ErrLengthMismatch},
		{name: "ivar length", req: Request{X: []float64{0, 1}, Y: []float64{0, 1}, InvVar: []float64{1, 1, 1}}, want: ErrLengthMismatch},
		{name: "order", req: Request{X: []float64{0, 1}, Y: []float64{0, 1}, Order: -1}, want: ErrInvalidOrder},
		{name: "function", req: Request{X: []float64{0, 1}, Y: []float64{0, 1}, Function: Function(9)}, want: ErrUnknownFunction},
	} {
		if _, err := fitter.Fit(tc.req); !errors.Is(err, tc.want) {
			t.Fatalf("%s: err = %v, want %v", tc.name, err, tc.want)
		}
	}
}

func TestRobustUnderdeterminedFitInterpolates(t *testing.T) {
	// Order 4 through 3 points: minimum-norm solution still passes through the data.
	x := []float64{0, 1, 2}
	y := []float64{3, -1, 2}

	res, err := NewRobust(logr.Discard()).Fit(Request{X: x, Y: y, Order: 4, Function: FunctionLegendre})
	if err != nil {
		t.Fatal(err)
	}

	testutil.RequireSliceNearlyEqual(t, res.Model.(*Model).EvaluateAll(x), y, 1e-9)
}

func TestRobustKeepsExplicitBounds(t *testing.T) {
	x := testutil.Ramp(0, 1, 5)
	y := line(x, 2, 1)
	zero, low := 0.0, -4.0

	// [0, 0] collapses the rescaled coordinate, leaving the mean of y.
	res, err := NewRobust(logr.Discard()).Fit(Request{
		X: x, Y: y, Order: 1, Function: FunctionLegendre, MinX: &zero, MaxX: &zero,
	})
	if err != nil {
		t.Fatal(err)
	}

	m := res.Model.(*Model)
	if m.MinX != 0 || m.MaxX != 0 {
		t.Fatalf("bounds = [%v, %v], want [0, 0]", m.MinX, m.MaxX)
	}

	if got := m.Evaluate(10); math.Abs(got-5) > 1e-9 {
		t.Fatalf("Evaluate(10) = %v, want 5", got)
	}

	// An unset side is taken from the data.
	res, err = NewRobust(logr.Discard()).Fit(Request{
		X: x, Y: y, Order: 1, Function: FunctionChebyshev, MinX: &low,
	})
	if err != nil {
		t.Fatal(err)
	}

	m = res.Model.(*Model)
	if m.MinX != -4 || m.MaxX != 4 {
		t.Fatalf("bounds = [%v, %v], want [-4, 4]", m.MinX, m.MaxX)
	}

	testutil.RequireSliceNearlyEqual(t, m.EvaluateAll(x), y, 1e-9)
}
