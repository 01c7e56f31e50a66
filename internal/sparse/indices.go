package sparse

import (
	"fmt"

	"github.com/born-ml/sparse/internal/tensor"
)

// Ownership tells whether an index view aliases tensor storage or owns a
// freshly computed sequence.
type Ownership int

// Ownership kinds.
const (
	// Borrowed views alias the source tensor's index buffer. They are valid only
	// while the source tensor is alive and must not be modified.
	Borrowed Ownership = iota

	// Owned views hold a sequence computed for the view.
	Owned
)

// String returns the ownership name.
func (o Ownership) String() string {
	if o == Owned {
		return "owned"
	}
	return "borrowed"
}

// IndicesView is a read-only sequence of linear COO indices.
type IndicesView struct {
	indices []int64
	own     Ownership
}

// Indices returns the linear indices.
func (v IndicesView) Indices() []int64 { return v.indices }

// Len returns the number of indices.
func (v IndicesView) Len() int { return len(v.indices) }

// Ownership reports whether the view borrows or owns its indices.
func (v IndicesView) Ownership() Ownership { return v.own }

// CSRIndicesView is a read-only CSR index structure.
//
// When ValueMapping is non-nil the indices describe the values in a different
// order than the source stores them: position i corresponds to source value
// ValueMapping()[i]. Callers copying values must apply the mapping.
//
// RowVector marks the vector exemption: for sources shaped 1×n or n×1 the view
// always describes a 1×n row vector (inner holds the linear indices, outer is
// [0, nnz]) and the caller is responsible for the declared dimensions.
type CSRIndicesView struct {
	inner     []int64
	outer     []int64
	mapping   []int
	own       Ownership
	rowVector bool
}

// Inner returns the column of each value.
func (v CSRIndicesView) Inner() []int64 { return v.inner }

// Outer returns the row pointers.
func (v CSRIndicesView) Outer() []int64 { return v.outer }

// ValueMapping returns the value permutation, or nil when values keep their order.
func (v CSRIndicesView) ValueMapping() []int { return v.mapping }

// Ownership reports whether the view borrows or owns its indices.
// A view is Borrowed when its inner indices alias the source tensor.
func (v CSRIndicesView) Ownership() Ownership { return v.own }

// RowVector reports whether the vector exemption applied.
func (v CSRIndicesView) RowVector() bool { return v.rowVector }

// Convert2DCOOIndicesTo1D converts (row, col) pairs in in to linear offsets in
// out for a matrix with cols columns. out must hold len(in)/2 entries.
func Convert2DCOOIndicesTo1D(cols int, in, out []int64) error {
	if len(in)%2 != 0 || len(out) != len(in)/2 {
		return fmt.Errorf("%w: %d coordinates into %d linear indices", tensor.ErrMalformedIndices, len(in), len(out))
	}
	for i := range out {
		row, col := in[2*i], in[2*i+1]
		if row < 0 {
			return &tensor.IndexError{Kind: tensor.ErrIndexOutOfRange, Array: "coo row", Position: 2 * i, Value: row, Limit: 0}
		}
		if col < 0 || col >= int64(cols) {
			return &tensor.IndexError{Kind: tensor.ErrIndexOutOfRange, Array: "coo col", Position: 2*i + 1, Value: col, Limit: int64(cols)}
		}
		out[i] = row*int64(cols) + col
	}
	return nil
}

// ConvertCSRIndicesToCOOIndices writes the linear offset of every CSR entry to
// out, which must hold len(inner) entries. Rows are taken from outer.
func ConvertCSRIndicesToCOOIndices(cols int, inner, outer, out []int64) error {
	if len(out) != len(inner) {
		return fmt.Errorf("%w: %d inner indices into %d linear indices", tensor.ErrMalformedIndices, len(inner), len(out))
	}
	if len(inner) == 0 {
		return nil
	}
	if len(outer) == 0 {
		return fmt.Errorf("%w: no outer indices for %d values", tensor.ErrMalformedIndices, len(inner))
	}
	rows := len(outer) - 1
	if err := validateCSR(rows, cols, len(inner), inner, outer); err != nil {
		return err
	}
	for r := range rows {
		for i := outer[r]; i < outer[r+1]; i++ {
			out[i] = int64(r)*int64(cols) + inner[i]
		}
	}
	return nil
}

// COOIndices1D returns the linear COO indices of a host tensor. Linear COO
// indices and the inner indices of a single-row CSR tensor are borrowed; 2-D
// COO and multi-row CSR indices are converted into an owned sequence.
func COOIndices1D(s *tensor.Sparse) (IndicesView, error) {
	rows, cols, err := checkHostIndices(s)
	if err != nil {
		return IndicesView{}, fmt.Errorf("coo indices: %w", err)
	}
	nnz := s.NumValues()
	switch s.Format() {
	case tensor.COO:
		indices := s.COOIndices()
		if err := validateCOO(s.Shape(), nnz, indices, s.LinearIndices()); err != nil {
			return IndicesView{}, fmt.Errorf("coo indices: %w", err)
		}
		if s.LinearIndices() {
			return IndicesView{indices: indices, own: Borrowed}, nil
		}
		out := make([]int64, nnz)
		if err := Convert2DCOOIndicesTo1D(cols, indices, out); err != nil {
			return IndicesView{}, fmt.Errorf("coo indices: %w", err)
		}
		return IndicesView{indices: out, own: Owned}, nil
	case tensor.CSR:
		inner, outer := s.InnerIndices(), s.OuterIndices()
		if err := validateCSR(rows, cols, nnz, inner, outer); err != nil {
			return IndicesView{}, fmt.Errorf("coo indices: %w", err)
		}
		if nnz == 0 {
			return IndicesView{indices: []int64{}, own: Owned}, nil
		}
		if rows == 1 {
			return IndicesView{indices: inner, own: Borrowed}, nil
		}
		out := make([]int64, nnz)
		if err := ConvertCSRIndicesToCOOIndices(cols, inner, outer, out); err != nil {
			return IndicesView{}, fmt.Errorf("coo indices: %w", err)
		}
		return IndicesView{indices: out, own: Owned}, nil
	default:
		return IndicesView{}, fmt.Errorf("coo indices: %w: %s", tensor.ErrUnsupportedFormat, s.Format())
	}
}

// CSRIndices returns the CSR indices of a host tensor without transposing.
// CSR input is borrowed as is. COO input is converted: vector shapes reuse
// the linear indices as inner with outer [0, nnz] (see CSRIndicesView.RowVector),
// ascending coordinates are split directly, and anything else is regrouped
// into row order with a value mapping. Repeated coordinates fail with
// ErrDuplicateCoordinate.
func CSRIndices(s *tensor.Sparse) (CSRIndicesView, error) {
	rows, cols, err := checkHostIndices(s)
	if err != nil {
		return CSRIndicesView{}, fmt.Errorf("csr indices: %w", err)
	}
	if s.Format() == tensor.CSR {
		inner, outer := s.InnerIndices(), s.OuterIndices()
		if err := validateCSR(rows, cols, s.NumValues(), inner, outer); err != nil {
			return CSRIndicesView{}, fmt.Errorf("csr indices: %w", err)
		}
		return CSRIndicesView{inner: inner, outer: outer, own: Borrowed}, nil
	}
	if err := validateIndices(s, rows, cols); err != nil {
		return CSRIndicesView{}, fmt.Errorf("csr indices: %w", err)
	}
	if s.NumValues() == 0 {
		return emptyCSRView(rows), nil
	}
	if s.Shape().IsVector() {
		v, err := vectorView(s)
		if err != nil {
			return CSRIndicesView{}, fmt.Errorf("csr indices: %w", err)
		}
		return v, nil
	}
	v, err := rowOrder(s, rows, cols)
	if err != nil {
		return CSRIndicesView{}, fmt.Errorf("csr indices: %w", err)
	}
	return v, nil
}

// CSRIndicesTransposed returns the CSR indices of the transposed matrix of a
// host tensor, grouped by source column, together with the value mapping.
//
// Vector shapes are exempt from transposition: their indices come back as a
// row vector exactly as CSRIndices would return them, and the caller swaps the
// declared dimensions if it needs to. CSR input is not passed through as is:
// a 1×n tensor borrows its inner indices, while an n×1 tensor (inner all zero,
// one outer step per stored row) is rewritten into an Owned view whose inner
// holds the row numbers and whose outer is [0, nnz].
func CSRIndicesTransposed(s *tensor.Sparse) (CSRIndicesView, error) {
	rows, cols, err := checkHostIndices(s)
	if err != nil {
		return CSRIndicesView{}, fmt.Errorf("transposed csr indices: %w", err)
	}
	if err := validateIndices(s, rows, cols); err != nil {
		return CSRIndicesView{}, fmt.Errorf("transposed csr indices: %w", err)
	}
	if s.NumValues() == 0 {
		if s.Shape().IsVector() {
			return emptyCSRView(1), nil
		}
		return emptyCSRView(cols), nil
	}
	if s.Shape().IsVector() {
		v, err := vectorView(s)
		if err != nil {
			return CSRIndicesView{}, fmt.Errorf("transposed csr indices: %w", err)
		}
		return v, nil
	}
	v, err := transposed(s, cols)
	if err != nil {
		return CSRIndicesView{}, fmt.Errorf("transposed csr indices: %w", err)
	}
	return v, nil
}

// checkHostIndices requires host indices and a 1-D or 2-D shape.
func checkHostIndices(s *tensor.Sparse) (rows, cols int, err error) {
	if !s.Location().HostAddressable() {
		return 0, 0, fmt.Errorf("%w: indices on %s", tensor.ErrNotHostAddressable, s.Location())
	}
	return s.Shape().Matrix()
}

// validateIndices validates either format against a rows×cols shape.
func validateIndices(s *tensor.Sparse, rows, cols int) error {
	switch s.Format() {
	case tensor.COO:
		return validateCOO(s.Shape(), s.NumValues(), s.COOIndices(), s.LinearIndices())
	case tensor.CSR:
		return validateCSR(rows, cols, s.NumValues(), s.InnerIndices(), s.OuterIndices())
	default:
		return fmt.Errorf("%w: %s", tensor.ErrUnsupportedFormat, s.Format())
	}
}

func emptyCSRView(rows int) CSRIndicesView {
	return CSRIndicesView{inner: []int64{}, outer: make([]int64, rows+1), own: Owned}
}

// vectorView reads a vector-shaped tensor as a 1×n row vector: the linear
// indices become inner and outer is [0, nnz].
func vectorView(s *tensor.Sparse) (CSRIndicesView, error) {
	linear, err := COOIndices1D(s)
	if err != nil {
		return CSRIndicesView{}, err
	}
	return CSRIndicesView{
		inner:     linear.Indices(),
		outer:     []int64{0, int64(linear.Len())},
		own:       linear.Ownership(),
		rowVector: true,
	}, nil
}

// rowOrder converts validated host COO indices to CSR. Strictly ascending
// coordinates split directly; otherwise they are regrouped by row.
func rowOrder(s *tensor.Sparse, rows, cols int) (CSRIndicesView, error) {
	linear, err := COOIndices1D(s)
	if err != nil {
		return CSRIndicesView{}, err
	}
	indices := linear.Indices()
	if ascending(indices) {
		inner := make([]int64, len(indices))
		outer := make([]int64, rows+1)
		for i, idx := range indices {
			row := idx / int64(cols)
			inner[i] = idx - row*int64(cols)
			outer[row+1]++
		}
		for r := 1; r <= rows; r++ {
			outer[r] += outer[r-1]
		}
		return CSRIndicesView{inner: inner, outer: outer, own: Owned}, nil
	}

	g := newRegrouper()
	for i, idx := range indices {
		if err := g.insert(idx/int64(cols), idx%int64(cols), i); err != nil {
			return CSRIndicesView{}, err
		}
	}
	inner, outer, mapping := g.build(rows)
	return CSRIndicesView{inner: inner, outer: outer, mapping: mapping, own: Owned}, nil
}

// transposed regroups validated host indices by column.
func transposed(s *tensor.Sparse, cols int) (CSRIndicesView, error) {
	g := newRegrouper()
	err := forEachCoordinate(s, cols, func(row, col int64, offset int) error {
		return g.insert(col, row, offset)
	})
	if err != nil {
		return CSRIndicesView{}, err
	}
	inner, outer, mapping := g.build(cols)
	return CSRIndicesView{inner: inner, outer: outer, mapping: mapping, own: Owned}, nil
}

// ascending reports whether indices are strictly increasing.
func ascending(indices []int64) bool {
	for i := 1; i < len(indices); i++ {
		if indices[i] <= indices[i-1] {
			return false
		}
	}
	return true
}
