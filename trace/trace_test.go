package trace

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/cwbudde/algo-pca/fit"
	"github.com/cwbudde/algo-pca/internal/testutil"
	"github.com/cwbudde/algo-pca/pca"
)

func TestNewPredictsTrainingTraces(t *testing.T) {
	traces := testutil.TraceFamily(10, 60, 0.01, 7)

	model, err := New(traces, DefaultParams(), WithLogger(testutil.NewLogger(t)))
	require.NoError(t, err)
	require.Equal(t, 30, model.Reference)
	require.Equal(t, mat.Col(nil, 30, traces), model.Coordinate)
	require.GreaterOrEqual(t, model.Decomposition.ExplainedVariance(), 99.0)

	got, err := model.Predict(model.Coordinate...)
	require.NoError(t, err)
	testutil.RequireMatrixNearlyEqual(t, got, traces, 0.05)
}

func TestPredictInterpolatesHeldOutTrace(t *testing.T) {
	all := testutil.TraceFamily(11, 48, 0, 1)

	// Train on the even traces only.
	train := mat.NewDense(6, 48, nil)
	for i := 0; i < 6; i++ {
		train.SetRow(i, all.RawRowView(2*i))
	}

	model, err := New(train, DefaultParams())
	require.NoError(t, err)
	require.Equal(t, 1, model.NumComponents())

	for _, i := range []int{1, 5, 9} {
		want := all.RawRowView(i)
		got, err := model.PredictTrace(want[model.Reference])
		require.NoError(t, err)
		diff, err := testutil.MaxAbsDiff(got, want)
		require.NoError(t, err)
		require.Less(t, diff, 1e-6, "held-out trace %d", i)
	}
}

func TestPredictIsPinnedAtReference(t *testing.T) {
	model, err := New(testutil.TraceFamily(8, 40, 0.05, 3), DefaultParams())
	require.NoError(t, err)

	for _, x := range []float64{22.5, 60, 101.25} {
		got, err := model.PredictTrace(x)
		require.NoError(t, err)
		require.InDelta(t, x, got[model.Reference], 1e-9)
	}
}

func TestNewFixedComponentsAndReference(t *testing.T) {
	p := DefaultParams()
	p.Components = 2
	p.ReferenceRow = 5

	var frames int
	model, err := New(testutil.TraceFamily(7, 30, 0.02, 9), p,
		WithDebugHook(func(pca.DebugFrame) { frames++ }))
	require.NoError(t, err)
	require.Equal(t, 2, model.NumComponents())
	require.Equal(t, 5, model.Reference)
	require.Equal(t, 2, frames)
}

func TestNewErrors(t *testing.T) {
	traces := testutil.TraceFamily(4, 10, 0, 1)

	p := DefaultParams()
	p.ReferenceRow = 10
	_, err := New(traces, p)
	require.ErrorIs(t, err, ErrInvalidParams)

	_, err = New(traces, DefaultParams(), WithCoordinate([]float64{1, 2}))
	require.ErrorIs(t, err, pca.ErrShapeMismatch)

	_, err = New(nil, DefaultParams())
	require.ErrorIs(t, err, pca.ErrInvalidShape)

	p = DefaultParams()
	p.Components = 4
	_, err = New(traces, p)
	require.ErrorIs(t, err, pca.ErrInsufficientComponents)

	p = DefaultParams()
	p.Order = -1
	_, err = New(traces, p)
	require.ErrorIs(t, err, ErrInvalidParams)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	p := DefaultParams()
	p.Function = fit.FunctionChebyshev
	model, err := New(testutil.TraceFamily(9, 50, 0.02, 4), p)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, model.Save(&buf))

	loaded, err := Load(&buf)
	require.NoError(t, err)
	require.Equal(t, model.Params, loaded.Params)
	require.Equal(t, model.Reference, loaded.Reference)
	require.Equal(t, model.Fit.Rejected, loaded.Fit.Rejected)
	require.Equal(t, model.Fit.Params, loaded.Fit.Params)

	x := []float64{25, 47.5, 90, 130}
	want, err := model.Predict(x...)
	require.NoError(t, err)
	got, err := loaded.Predict(x...)
	require.NoError(t, err)
	testutil.RequireMatrixNearlyEqual(t, got, want, 0)
}

type linear struct{}

func (linear) Evaluate(x float64) float64 { return x }

func TestSaveRejectsForeignModels(t *testing.T) {
	model, err := New(testutil.TraceFamily(5, 20, 0.01, 2), DefaultParams())
	require.NoError(t, err)

	model.Fit.Models[0] = linear{}
	require.ErrorIs(t, model.Save(&bytes.Buffer{}), ErrUnsupportedModel)
}

func TestLoadRejectsBadData(t *testing.T) {
	_, err := Load(bytes.NewReader([]byte("TP")))
	require.ErrorIs(t, err, ErrInvalidFile)

	_, err = Load(bytes.NewReader([]byte("NOPE\x01rest")))
	require.ErrorIs(t, err, ErrInvalidFile)

	_, err = Load(bytes.NewReader([]byte("TPCA\x09")))
	require.ErrorIs(t, err, ErrUnsupportedVersion)
}

func TestLoadRejectsInconsistentModels(t *testing.T) {
	model, err := New(testutil.TraceFamily(6, 24, 0.01, 5), DefaultParams())
	require.NoError(t, err)

	for name, mutate := range map[string]func(*fileModel){
		"npca":           func(f *fileModel) { f.Params.Components = -3 },
		"order":          func(f *fileModel) { f.Params.Order = -1 },
		"reference":      func(f *fileModel) { f.Reference = 24 },
		"negative ref":   func(f *fileModel) { f.Reference = -1 },
		"reference row":  func(f *fileModel) { f.Params.ReferenceRow = 3 },
		"rejection rows": func(f *fileModel) { f.Rejected = f.Rejected[1:] },
	} {
		file, err := model.toFile()
		require.NoError(t, err)
		mutate(file)

		var buf bytes.Buffer
		require.NoError(t, file.write(&buf))

		_, err = Load(&buf)
		require.ErrorIs(t, err, ErrInvalidFile, name)
	}
}
