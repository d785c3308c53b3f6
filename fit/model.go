package fit

// Evaluator evaluates a fitted function at a coordinate.
type Evaluator interface {
	Evaluate(x float64) float64
}

// Model is a fitted basis expansion. It is immutable once returned by a
// Fitter; callers must not modify Coefficients.
type Model struct {
	Function     Function  `json:"function"`
	Order        int       `json:"order"`
	Coefficients []float64 `json:"coefficients"`
	MinX         float64   `json:"minx"`
	MaxX         float64   `json:"maxx"`
}

// Evaluate returns the model value at x, rescaled with the fit bounds.
func (m *Model) Evaluate(x float64) float64 {
	return m.Function.sum(m.Coefficients, m.Function.rescale(x, m.MinX, m.MaxX))
}

// EvaluateAll evaluates the model at every element of x.
func (m *Model) EvaluateAll(x []float64) []float64 {
	out := make([]float64, len(x))
	for i, xi := range x {
		out[i] = m.Evaluate(xi)
	}

	return out
}
