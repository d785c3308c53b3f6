package trace

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	gojson "github.com/goccy/go-json"
	"github.com/klauspost/compress/zstd"
	"gonum.org/v1/gonum/mat"

	"github.com/cwbudde/algo-pca/fit"
	"github.com/cwbudde/algo-pca/pca"
)

// File layout: magic, one version byte, then a zstd stream holding the
// model as JSON.
const (
	fileMagic   = "TPCA"
	fileVersion = 1
)

var (
	// ErrUnsupportedModel is returned by Save when a coefficient model is
	// not a *fit.Model.
	ErrUnsupportedModel = errors.New("trace: coefficient model cannot be saved")

	// ErrInvalidFile is returned by Load for data that is not a saved model.
	ErrInvalidFile = errors.New("trace: not a trace PCA file")

	// ErrUnsupportedVersion is returned by Load for files from a newer
	// format.
	ErrUnsupportedVersion = errors.New("trace: unsupported file version")
)

type fileParams struct {
	Components        int          `json:"npca"`
	ExplainedVariance *float64     `json:"pca_explained_var,omitempty"`
	Order             int          `json:"coeff_npoly"`
	Function          fit.Function `json:"function"`
	Lower             *float64     `json:"lower,omitempty"`
	Upper             *float64     `json:"upper,omitempty"`
	MaxRej            int          `json:"maxrej"`
	MaxIter           int          `json:"maxiter"`
	ReferenceRow      int          `json:"reference_row"`
}

type fileMatrix struct {
	Rows int       `json:"rows"`
	Cols int       `json:"cols"`
	Data []float64 `json:"data"`
}

type fileModel struct {
	Params        fileParams   `json:"params"`
	Reference     int          `json:"reference"`
	Coordinate    []float64    `json:"coordinate"`
	Coefficients  fileMatrix   `json:"coefficients"`
	Components    fileMatrix   `json:"components"`
	ComponentMean []float64    `json:"component_mean"`
	VectorMean    []float64    `json:"vector_mean"`
	Growth        []float64    `json:"growth"`
	Rejected      [][]bool     `json:"rejected"`
	MinX          float64      `json:"minx"`
	MaxX          float64      `json:"maxx"`
	Models        []*fit.Model `json:"models"`
}

// Save writes the model to w.
func (m *PCA) Save(w io.Writer) error {
	file, err := m.toFile()
	if err != nil {
		return err
	}

	return file.write(w)
}

func (f *fileModel) write(w io.Writer) error {
	body, err := gojson.Marshal(f)
	if err != nil {
		return fmt.Errorf("trace: encode model: %w", err)
	}

	if _, err := w.Write(append([]byte(fileMagic), fileVersion)); err != nil {
		return err
	}

	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}

	if _, err := enc.Write(body); err != nil {
		enc.Close()
		return err
	}

	return enc.Close()
}

// Load reads a model written by Save.
func Load(r io.Reader) (*PCA, error) {
	head := make([]byte, len(fileMagic)+1)
	if _, err := io.ReadFull(r, head); err != nil {
		return nil, fmt.Errorf("trace: read header: %w", errors.Join(ErrInvalidFile, err))
	}

	if !bytes.Equal(head[:len(fileMagic)], []byte(fileMagic)) {
		return nil, ErrInvalidFile
	}

	if v := head[len(fileMagic)]; v != fileVersion {
		return nil, fmt.Errorf("trace: version %d: %w", v, ErrUnsupportedVersion)
	}

	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	var file fileModel
	if err := gojson.NewDecoder(dec).Decode(&file); err != nil {
		return nil, fmt.Errorf("trace: decode model: %w", errors.Join(ErrInvalidFile, err))
	}

	return file.toPCA()
}

func (m *PCA) toFile() (*fileModel, error) {
	models := make([]*fit.Model, len(m.Fit.Models))
	for i, e := range m.Fit.Models {
		fm, ok := e.(*fit.Model)
		if !ok {
			return nil, fmt.Errorf("trace: component %d is %T: %w", i, e, ErrUnsupportedModel)
		}

		models[i] = fm
	}

	p := m.Params
	d := m.Decomposition

	return &fileModel{
		Params: fileParams{
			Components:        p.Components,
			ExplainedVariance: optional(p.ExplainedVariance),
			Order:             p.Order,
			Function:          p.Function,
			Lower:             optional(p.Lower),
			Upper:             optional(p.Upper),
			MaxRej:            p.MaxRej,
			MaxIter:           p.MaxIter,
			ReferenceRow:      p.ReferenceRow,
		},
		Reference:     m.Reference,
		Coordinate:    m.Coordinate,
		Coefficients:  toFileMatrix(d.Coefficients),
		Components:    toFileMatrix(d.Components),
		ComponentMean: d.ComponentMean,
		VectorMean:    d.VectorMean,
		Growth:        d.Growth,
		Rejected:      m.Fit.Rejected,
		MinX:          m.Fit.MinX,
		MaxX:          m.Fit.MaxX,
		Models:        models,
	}, nil
}

func (f *fileModel) toPCA() (*PCA, error) {
	coefficients, err := f.Coefficients.dense()
	if err != nil {
		return nil, err
	}

	components, err := f.Components.dense()
	if err != nil {
		return nil, err
	}

	n, k := coefficients.Dims()
	kc, p := components.Dims()
	switch {
	case kc != k, len(f.Models) != k, len(f.Growth) < k:
		return nil, fmt.Errorf("trace: inconsistent component count: %w", ErrInvalidFile)
	case len(f.ComponentMean) != p:
		return nil, fmt.Errorf("trace: component mean has %d entries for %d pixels: %w", len(f.ComponentMean), p, ErrInvalidFile)
	case len(f.VectorMean) != n, len(f.Coordinate) != n, len(f.Rejected) != n:
		return nil, fmt.Errorf("trace: per-trace data does not match %d traces: %w", n, ErrInvalidFile)
	}

	switch {
	case f.Reference < 0 || f.Reference >= p:
		return nil, fmt.Errorf("trace: reference %d outside %d pixels: %w", f.Reference, p, ErrInvalidFile)
	case f.Params.ReferenceRow >= 0 && f.Params.ReferenceRow != f.Reference:
		return nil, fmt.Errorf("trace: reference %d saved with reference_row %d: %w", f.Reference, f.Params.ReferenceRow, ErrInvalidFile)
	}

	for i, row := range f.Rejected {
		if len(row) != k {
			return nil, fmt.Errorf("trace: rejection row %d has %d entries for %d components: %w", i, len(row), k, ErrInvalidFile)
		}
	}

	models := make([]fit.Evaluator, k)
	coefParams := make([][]float64, k)
	for i, fm := range f.Models {
		if fm == nil || !fm.Function.Valid() || len(fm.Coefficients) != fm.Order+1 {
			return nil, fmt.Errorf("trace: model %d: %w", i, ErrInvalidFile)
		}

		models[i] = fm
		coefParams[i] = fm.Coefficients
	}

	fp := f.Params
	params := Params{
		Components:        fp.Components,
		ExplainedVariance: fromOptional(fp.ExplainedVariance),
		Order:             fp.Order,
		Function:          fp.Function,
		Lower:             fromOptional(fp.Lower),
		Upper:             fromOptional(fp.Upper),
		MaxRej:            fp.MaxRej,
		MaxIter:           fp.MaxIter,
		ReferenceRow:      fp.ReferenceRow,
	}

	if err := params.Validate(); err != nil {
		return nil, errors.Join(ErrInvalidFile, err)
	}

	return &PCA{
		Params:     params,
		Reference:  f.Reference,
		Coordinate: f.Coordinate,
		Decomposition: &pca.Decomposition{
			Coefficients:  coefficients,
			Components:    components,
			ComponentMean: f.ComponentMean,
			VectorMean:    f.VectorMean,
			Growth:        f.Growth,
		},
		Fit: &pca.CoefficientFit{
			Rejected: f.Rejected,
			Params:   coefParams,
			MinX:     f.MinX,
			MaxX:     f.MaxX,
			Models:   models,
		},
	}, nil
}

func toFileMatrix(m *mat.Dense) fileMatrix {
	r, c := m.Dims()
	data := make([]float64, 0, r*c)
	for i := 0; i < r; i++ {
		data = append(data, m.RawRowView(i)...)
	}

	return fileMatrix{Rows: r, Cols: c, Data: data}
}

func (f fileMatrix) dense() (*mat.Dense, error) {
	if f.Rows <= 0 || f.Cols <= 0 || len(f.Data) != f.Rows*f.Cols {
		return nil, fmt.Errorf("trace: %dx%d matrix with %d values: %w", f.Rows, f.Cols, len(f.Data), ErrInvalidFile)
	}

	return mat.NewDense(f.Rows, f.Cols, f.Data), nil
}
