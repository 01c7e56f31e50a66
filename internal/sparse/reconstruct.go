package sparse

import (
	"fmt"

	"github.com/born-ml/sparse/internal/memory"
	"github.com/born-ml/sparse/internal/tensor"
)

// ToDense reconstructs the dense tensor described by src, dispatching on its format.
func (c *Converter) ToDense(src *tensor.Sparse, dst memory.Allocator) (*tensor.Dense, error) {
	switch src.Format() {
	case tensor.COO:
		return c.COOToDense(src, dst)
	case tensor.CSR:
		return c.CSRToDense(src, dst)
	default:
		return nil, fmt.Errorf("to dense: %w: %s", tensor.ErrUnsupportedFormat, src.Format())
	}
}

// CSRToDense reconstructs a dense tensor from a CSR tensor. Missing elements are
// zero, or empty strings for string tensors.
func (c *Converter) CSRToDense(src *tensor.Sparse, dst memory.Allocator) (*tensor.Dense, error) {
	host, codec, release, err := c.prepareSparse(src, tensor.CSR, dst)
	if err != nil {
		return nil, fmt.Errorf("csr to dense: %w", err)
	}
	defer release()

	rows, cols, _ := host.Shape().Matrix()
	out, err := c.workAllocator(dst).Allocate(src.DType(), rows*cols)
	if err != nil {
		return nil, fmt.Errorf("csr to dense: %w", err)
	}
	if host.NumValues() > 0 {
		values := host.Values()
		inner, outer := host.InnerIndices(), host.OuterIndices()
		for r := range rows {
			base := r * cols
			for i := outer[r]; i < outer[r+1]; i++ {
				codec.copyElement(out, values, base+int(inner[i]), int(i))
			}
		}
	}
	return c.finishDense(src.Shape(), dst, out, "csr to dense")
}

// COOToDense reconstructs a dense tensor from a COO tensor with linear or 2-D
// indices. Missing elements are zero, or empty strings for string tensors.
// 2-D indices on a 1-D shape fail with ErrInvalidIndexMode.
func (c *Converter) COOToDense(src *tensor.Sparse, dst memory.Allocator) (*tensor.Dense, error) {
	host, codec, release, err := c.prepareSparse(src, tensor.COO, dst)
	if err != nil {
		return nil, fmt.Errorf("coo to dense: %w", err)
	}
	defer release()

	shape := host.Shape()
	out, err := c.workAllocator(dst).Allocate(src.DType(), shape.NumElements())
	if err != nil {
		return nil, fmt.Errorf("coo to dense: %w", err)
	}
	values, indices := host.Values(), host.COOIndices()
	cols := shape[len(shape)-1]
	for i := range host.NumValues() {
		var offset int
		if host.LinearIndices() {
			offset = int(indices[i])
		} else {
			offset = int(indices[2*i])*cols + int(indices[2*i+1])
		}
		codec.copyElement(out, values, offset, i)
	}
	return c.finishDense(shape, dst, out, "coo to dense")
}

// finishDense publishes a host-built dense buffer to dst and wraps it.
func (c *Converter) finishDense(shape tensor.Shape, dst memory.Allocator, buf *tensor.Buffer, op string) (*tensor.Dense, error) {
	out, err := c.publish(dst, buf)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	d, err := tensor.NewDense(shape, out[0])
	if err != nil {
		out[0].Release()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return d, nil
}

// validateCSR checks the CSR structure against a rows×cols shape holding nnz values.
// With no values, an outer array shorter than rows+1 means every row is empty.
func validateCSR(rows, cols, nnz int, inner, outer []int64) error {
	if len(inner) != nnz {
		return fmt.Errorf("%w: %d inner indices for %d values", tensor.ErrMalformedIndices, len(inner), nnz)
	}
	if nnz == 0 && len(outer) < rows+1 {
		for i, v := range outer {
			if v != 0 {
				return &tensor.IndexError{Kind: tensor.ErrMalformedIndices, Array: "outer", Position: i, Value: v, Limit: 0}
			}
		}
		return nil
	}
	if len(outer) != rows+1 {
		return fmt.Errorf("%w: %d outer indices for %d rows", tensor.ErrMalformedIndices, len(outer), rows)
	}
	if outer[0] != 0 {
		return &tensor.IndexError{Kind: tensor.ErrMalformedIndices, Array: "outer", Position: 0, Value: outer[0], Limit: 0}
	}
	for r := 1; r <= rows; r++ {
		if outer[r] < outer[r-1] {
			return &tensor.IndexError{Kind: tensor.ErrMalformedIndices, Array: "outer", Position: r, Value: outer[r], Limit: outer[r-1]}
		}
	}
	if outer[rows] != int64(nnz) {
		return &tensor.IndexError{Kind: tensor.ErrMalformedIndices, Array: "outer", Position: rows, Value: outer[rows], Limit: int64(nnz)}
	}
	for i, col := range inner {
		if col < 0 || col >= int64(cols) {
			return &tensor.IndexError{Kind: tensor.ErrIndexOutOfRange, Array: "inner", Position: i, Value: col, Limit: int64(cols)}
		}
	}
	return nil
}

// validateCOO checks COO index lengths and bounds against shape.
func validateCOO(shape tensor.Shape, nnz int, indices []int64, linear bool) error {
	if linear {
		if len(indices) != nnz {
			return fmt.Errorf("%w: %d linear indices for %d values", tensor.ErrMalformedIndices, len(indices), nnz)
		}
		limit := int64(shape.NumElements())
		for i, idx := range indices {
			if idx < 0 || idx >= limit {
				return &tensor.IndexError{Kind: tensor.ErrIndexOutOfRange, Array: "coo", Position: i, Value: idx, Limit: limit}
			}
		}
		return nil
	}
	if len(shape) != 2 {
		return fmt.Errorf("%w: 2-D indices on a %d-D shape", tensor.ErrInvalidIndexMode, len(shape))
	}
	if len(indices) != 2*nnz {
		return fmt.Errorf("%w: %d coordinates for %d values", tensor.ErrMalformedIndices, len(indices), nnz)
	}
	for i := 0; i < len(indices); i += 2 {
		if row := indices[i]; row < 0 || row >= int64(shape[0]) {
			return &tensor.IndexError{Kind: tensor.ErrIndexOutOfRange, Array: "coo row", Position: i, Value: row, Limit: int64(shape[0])}
		}
		if col := indices[i+1]; col < 0 || col >= int64(shape[1]) {
			return &tensor.IndexError{Kind: tensor.ErrIndexOutOfRange, Array: "coo col", Position: i + 1, Value: col, Limit: int64(shape[1])}
		}
	}
	return nil
}
