package tensor

import "fmt"

// Format is a sparse storage layout.
type Format int

// Supported sparse formats.
const (
	COO Format = iota + 1 // Coordinate list (linear or 2-D indices)
	CSR                   // Compressed sparse row (inner/outer indices)
)

// String returns the format name.
func (f Format) String() string {
	switch f {
	case COO:
		return "COO"
	case CSR:
		return "CSR"
	default:
		return "Unknown"
	}
}

// Sparse holds the stored values of a logically dense tensor together with
// the index structure of one format. All buffers share one location and index
// buffers are always Int64.
//
// COO indices are either linear (one row-major offset per value) or 2-D
// (row, col pairs). CSR keeps a column per value in inner and rows+1 row
// pointers in outer. A CSR tensor with no values may carry a shorter outer
// array; readers treat that as "all rows empty".
type Sparse struct {
	shape  Shape
	format Format
	values *Buffer

	indices *Buffer // COO
	linear  bool    // COO indices are linear offsets

	inner *Buffer // CSR column per value
	outer *Buffer // CSR row pointers
}

// NewCOO assembles a COO tensor. Index lengths are not checked here;
// conversions report inconsistencies as ErrMalformedIndices.
// The tensor takes over the caller's references to the buffers.
func NewCOO(shape Shape, values, indices *Buffer, linear bool) (*Sparse, error) {
	if err := checkSparse(shape, values, indices); err != nil {
		return nil, fmt.Errorf("coo tensor: %w", err)
	}
	return &Sparse{
		shape:   shape.Clone(),
		format:  COO,
		values:  values,
		indices: indices,
		linear:  linear,
	}, nil
}

// NewCSR assembles a CSR tensor. Index lengths are not checked here;
// conversions report inconsistencies as ErrMalformedIndices.
// The tensor takes over the caller's references to the buffers.
func NewCSR(shape Shape, values, inner, outer *Buffer) (*Sparse, error) {
	if err := checkSparse(shape, values, inner, outer); err != nil {
		return nil, fmt.Errorf("csr tensor: %w", err)
	}
	return &Sparse{
		shape:  shape.Clone(),
		format: CSR,
		values: values,
		inner:  inner,
		outer:  outer,
	}, nil
}

func checkSparse(shape Shape, values *Buffer, indices ...*Buffer) error {
	if len(shape) < 1 || len(shape) > 2 {
		return fmt.Errorf("%w: got %d dimensions, want 1 or 2", ErrUnsupportedRank, len(shape))
	}
	if err := shape.Validate(); err != nil {
		return fmt.Errorf("invalid shape: %w", err)
	}
	if values == nil {
		return fmt.Errorf("%w: nil values buffer", ErrMalformedIndices)
	}
	for _, ind := range indices {
		if ind == nil {
			return fmt.Errorf("%w: nil index buffer", ErrMalformedIndices)
		}
		if ind.DType() != Int64 {
			return fmt.Errorf("%w: index buffer dtype is %s, want int64", ErrMalformedIndices, ind.DType())
		}
		if ind.Location() != values.Location() {
			return fmt.Errorf("index buffer on %s, values on %s", ind.Location(), values.Location())
		}
	}
	return nil
}

// Shape returns the logical dense shape.
func (s *Sparse) Shape() Shape {
	return s.shape
}

// DType returns the element type.
func (s *Sparse) DType() DataType {
	return s.values.DType()
}

// Format returns the storage layout.
func (s *Sparse) Format() Format {
	return s.format
}

// Location returns where the tensor's buffers live.
func (s *Sparse) Location() Location {
	return s.values.Location()
}

// NumValues returns nnz, the number of stored values.
func (s *Sparse) NumValues() int {
	return s.values.Len()
}

// Values returns the value buffer.
func (s *Sparse) Values() *Buffer {
	return s.values
}

// Indices returns the COO index buffer, nil for CSR.
func (s *Sparse) Indices() *Buffer {
	return s.indices
}

// LinearIndices reports whether COO indices are linear offsets rather than (row, col) pairs.
func (s *Sparse) LinearIndices() bool {
	return s.linear
}

// Inner returns the CSR inner (column) index buffer, nil for COO.
func (s *Sparse) Inner() *Buffer {
	return s.inner
}

// Outer returns the CSR outer (row pointer) index buffer, nil for COO.
func (s *Sparse) Outer() *Buffer {
	return s.outer
}

// COOIndices returns the host COO indices.
func (s *Sparse) COOIndices() []int64 {
	return s.indices.Int64s()
}

// InnerIndices returns the host CSR inner indices.
func (s *Sparse) InnerIndices() []int64 {
	return s.inner.Int64s()
}

// OuterIndices returns the host CSR outer indices.
func (s *Sparse) OuterIndices() []int64 {
	return s.outer.Int64s()
}

// Release drops the tensor's references to all of its buffers.
func (s *Sparse) Release() {
	if s == nil {
		return
	}
	s.values.Release()
	s.indices.Release()
	s.inner.Release()
	s.outer.Release()
}

// String returns a short description of the tensor.
func (s *Sparse) String() string {
	return fmt.Sprintf("Sparse[%s,%s]%v nnz=%d on %s", s.format, s.DType(), s.shape, s.NumValues(), s.Location())
}
