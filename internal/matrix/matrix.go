// Package matrix bridges dense and CSR tensors to gonum's mat.Matrix.
package matrix

import (
	"fmt"

	"github.com/born-ml/sparse/internal/memory"
	"github.com/born-ml/sparse/internal/sparse"
	"github.com/born-ml/sparse/internal/tensor"
	"github.com/x448/float16"
	"gonum.org/v1/gonum/mat"
)

// FromMat copies a gonum matrix into a Float64 dense tensor allocated by dst,
// which must be host addressable.
func FromMat(m mat.Matrix, dst memory.Allocator) (*tensor.Dense, error) {
	if !dst.Location().HostAddressable() {
		return nil, fmt.Errorf("from mat: %w: %s", tensor.ErrNotHostAddressable, dst.Location())
	}
	rows, cols := m.Dims()
	buf, err := dst.Allocate(tensor.Float64, rows*cols)
	if err != nil {
		return nil, fmt.Errorf("from mat: %w", err)
	}
	data := tensor.View[float64](buf)
	if raw, ok := m.(mat.RawMatrixer); ok && raw.RawMatrix().Stride == cols {
		copy(data, raw.RawMatrix().Data[:rows*cols])
	} else {
		for i := range rows {
			for j := range cols {
				data[i*cols+j] = m.At(i, j)
			}
		}
	}
	d, err := tensor.NewDense(tensor.Shape{rows, cols}, buf)
	if err != nil {
		buf.Release()
		return nil, fmt.Errorf("from mat: %w", err)
	}
	return d, nil
}

// ToMat copies a host dense tensor into a new gonum matrix. A 1-D tensor
// becomes a single row. Numeric element types are widened to float64.
func ToMat(d *tensor.Dense) (*mat.Dense, error) {
	if !d.Location().HostAddressable() {
		return nil, fmt.Errorf("to mat: %w: %s", tensor.ErrNotHostAddressable, d.Location())
	}
	rows, cols, err := d.Shape().Matrix()
	if err != nil {
		return nil, fmt.Errorf("to mat: %w", err)
	}
	data, err := float64s(d.Buffer())
	if err != nil {
		return nil, fmt.Errorf("to mat: %w", err)
	}
	return mat.NewDense(rows, cols, data), nil
}

// SparseFromMat converts a gonum matrix to a CSR tensor at dst, keeping every
// entry whose bits are non-zero.
func SparseFromMat(c *sparse.Converter, m mat.Matrix, dst memory.Allocator) (*tensor.Sparse, error) {
	d, err := FromMat(m, memory.NewHostAllocator())
	if err != nil {
		return nil, err
	}
	defer d.Release()
	return c.DenseToCSR(d, dst)
}

// CSRMatrix is a read-only mat.Matrix view of a host CSR tensor.
type CSRMatrix struct {
	rows, cols int
	inner      []int64
	outer      []int64
	values     []float64
}

var _ mat.Matrix = (*CSRMatrix)(nil)

// NewCSRMatrix validates s and copies its values as float64.
// Index arrays are shared with s, which must stay alive and unmodified.
func NewCSRMatrix(s *tensor.Sparse) (*CSRMatrix, error) {
	if s.Format() != tensor.CSR {
		return nil, fmt.Errorf("csr matrix: %w: got %s", tensor.ErrUnsupportedFormat, s.Format())
	}
	view, err := sparse.CSRIndices(s)
	if err != nil {
		return nil, fmt.Errorf("csr matrix: %w", err)
	}
	rows, cols, _ := s.Shape().Matrix()
	values, err := float64s(s.Values())
	if err != nil {
		return nil, fmt.Errorf("csr matrix: %w", err)
	}
	outer := view.Outer()
	if len(outer) < rows+1 {
		outer = make([]int64, rows+1)
	}
	return &CSRMatrix{rows: rows, cols: cols, inner: view.Inner(), outer: outer, values: values}, nil
}

// Dims implements mat.Matrix.
func (m *CSRMatrix) Dims() (r, c int) {
	return m.rows, m.cols
}

// At implements mat.Matrix. Missing entries are zero.
func (m *CSRMatrix) At(i, j int) float64 {
	if i < 0 || i >= m.rows {
		panic(mat.ErrRowAccess)
	}
	if j < 0 || j >= m.cols {
		panic(mat.ErrColAccess)
	}
	for k := m.outer[i]; k < m.outer[i+1]; k++ {
		if m.inner[k] == int64(j) {
			return m.values[k]
		}
	}
	return 0
}

// T implements mat.Matrix.
func (m *CSRMatrix) T() mat.Matrix {
	return mat.Transpose{Matrix: m}
}

// NNZ returns the number of stored values.
func (m *CSRMatrix) NNZ() int {
	return len(m.values)
}

// DotRows returns the dot product of row i of a and row j of b. Both rows
// must list their columns in ascending order, as conversions produce them.
func DotRows(a *CSRMatrix, i int, b *CSRMatrix, j int) float64 {
	if a.cols != b.cols {
		panic(mat.ErrShape)
	}
	aStart, aEnd := a.outer[i], a.outer[i+1]
	bStart, bEnd := b.outer[j], b.outer[j+1]
	var sum float64
	sparse.ScanForSparseMatches(a.inner[aStart:aEnd], b.inner[bStart:bEnd], func(ai, bi int) {
		sum += a.values[aStart+int64(ai)] * b.values[bStart+int64(bi)]
	})
	return sum
}

// float64s widens a host buffer of numeric elements to float64.
func float64s(b *tensor.Buffer) ([]float64, error) {
	out := make([]float64, b.Len())
	switch b.DType() {
	case tensor.Float64:
		copy(out, tensor.View[float64](b))
	case tensor.Float32:
		widen(out, tensor.View[float32](b))
	case tensor.Float16:
		for i, h := range tensor.View[float16.Float16](b) {
			out[i] = float64(h.Float32())
		}
	case tensor.Int8:
		widen(out, tensor.View[int8](b))
	case tensor.Uint8:
		widen(out, tensor.View[uint8](b))
	case tensor.Int16:
		widen(out, tensor.View[int16](b))
	case tensor.Uint16:
		widen(out, tensor.View[uint16](b))
	case tensor.Int32:
		widen(out, tensor.View[int32](b))
	case tensor.Uint32:
		widen(out, tensor.View[uint32](b))
	case tensor.Int64:
		widen(out, tensor.View[int64](b))
	case tensor.Uint64:
		widen(out, tensor.View[uint64](b))
	default:
		return nil, fmt.Errorf("%w: %s elements have no float64 reading", tensor.ErrUnsupportedElementWidth, b.DType())
	}
	return out, nil
}

type number interface {
	~int8 | ~uint8 | ~int16 | ~uint16 | ~int32 | ~uint32 | ~int64 | ~uint64 | ~float32
}

func widen[T number](dst []float64, src []T) {
	for i, v := range src {
		dst[i] = float64(v)
	}
}
