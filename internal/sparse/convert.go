package sparse

import (
	"fmt"

	"github.com/born-ml/sparse/internal/memory"
	"github.com/born-ml/sparse/internal/tensor"
)

// COOToCSR converts a COO tensor to CSR with the same shape. Values are
// copied, reordered to match the row grouping when the coordinates are not in
// row-major order. Repeated coordinates fail with ErrDuplicateCoordinate.
func (c *Converter) COOToCSR(src *tensor.Sparse, dst memory.Allocator) (*tensor.Sparse, error) {
	host, codec, release, err := c.prepareSparse(src, tensor.COO, dst)
	if err != nil {
		return nil, fmt.Errorf("coo to csr: %w", err)
	}
	defer release()

	rows, cols, _ := host.Shape().Matrix()
	view := emptyCSRView(rows)
	if host.NumValues() > 0 {
		if view, err = rowOrder(host, rows, cols); err != nil {
			return nil, fmt.Errorf("coo to csr: %w", err)
		}
	}
	out, err := c.emitCSR(src, host, codec, dst, host.Shape(), view)
	if err != nil {
		return nil, fmt.Errorf("coo to csr: %w", err)
	}
	return out, nil
}

// CSRToCOO converts a CSR tensor to COO with the same shape and value order.
// The result owns a copy of the values.
// linear selects linear offsets; 1-D tensors only support linear indices.
func (c *Converter) CSRToCOO(src *tensor.Sparse, dst memory.Allocator, linear bool) (*tensor.Sparse, error) {
	if len(src.Shape()) == 1 && !linear {
		return nil, fmt.Errorf("csr to coo: %w: 1-D tensors only support linear indices", tensor.ErrInvalidIndexMode)
	}
	host, codec, release, err := c.prepareSparse(src, tensor.CSR, dst)
	if err != nil {
		return nil, fmt.Errorf("csr to coo: %w", err)
	}
	defer release()

	_, cols, _ := host.Shape().Matrix()
	nnz := host.NumValues()
	inner, outer := host.InnerIndices(), host.OuterIndices()
	var indices []int64
	switch {
	case nnz == 0:
	case linear:
		indices = make([]int64, nnz)
		if err := ConvertCSRIndicesToCOOIndices(cols, inner, outer, indices); err != nil {
			return nil, fmt.Errorf("csr to coo: %w", err)
		}
	default:
		indices = make([]int64, 0, 2*nnz)
		for r := 0; r+1 < len(outer); r++ {
			for i := outer[r]; i < outer[r+1]; i++ {
				indices = append(indices, int64(r), inner[i])
			}
		}
	}

	work := c.workAllocator(dst)
	values, err := c.ownedValues(src, host, work, codec)
	if err != nil {
		return nil, fmt.Errorf("csr to coo: %w", err)
	}
	indBuf, err := allocIndices(work, indices)
	if err != nil {
		values.Release()
		return nil, fmt.Errorf("csr to coo: %w", err)
	}
	bufs, err := c.publish(dst, values, indBuf)
	if err != nil {
		return nil, fmt.Errorf("csr to coo: %w", err)
	}
	out, err := tensor.NewCOO(host.Shape(), bufs[0], bufs[1], linear)
	if err != nil {
		releaseAll(bufs...)
		return nil, fmt.Errorf("csr to coo: %w", err)
	}
	return out, nil
}

// Transpose returns the CSR tensor of the transposed matrix of src, which may
// be COO or CSR. A 1-D tensor of length n is read as a 1×n row vector and
// becomes n×1. Values are permuted to follow the new row order.
// Repeated coordinates fail with ErrDuplicateCoordinate.
func (c *Converter) Transpose(src *tensor.Sparse, dst memory.Allocator) (*tensor.Sparse, error) {
	host, codec, release, err := c.prepareSparse(src, 0, dst)
	if err != nil {
		return nil, fmt.Errorf("transpose: %w", err)
	}
	defer release()

	rows, cols, _ := host.Shape().Matrix()
	view := emptyCSRView(cols)
	if host.NumValues() > 0 {
		if view, err = transposed(host, cols); err != nil {
			return nil, fmt.Errorf("transpose: %w", err)
		}
	}
	out, err := c.emitCSR(src, host, codec, dst, tensor.Shape{cols, rows}, view)
	if err != nil {
		return nil, fmt.Errorf("transpose: %w", err)
	}
	return out, nil
}

// CopyCOO makes a deep copy of a COO tensor at dst.
func (c *Converter) CopyCOO(src *tensor.Sparse, dst memory.Allocator) (*tensor.Sparse, error) {
	host, codec, release, err := c.prepareSparse(src, tensor.COO, dst)
	if err != nil {
		return nil, fmt.Errorf("copy coo: %w", err)
	}
	defer release()

	work := c.workAllocator(dst)
	values, err := c.gather(work, codec, host.Values(), identity(host.NumValues()))
	if err != nil {
		return nil, fmt.Errorf("copy coo: %w", err)
	}
	indBuf, err := allocIndices(work, host.COOIndices())
	if err != nil {
		values.Release()
		return nil, fmt.Errorf("copy coo: %w", err)
	}
	bufs, err := c.publish(dst, values, indBuf)
	if err != nil {
		return nil, fmt.Errorf("copy coo: %w", err)
	}
	out, err := tensor.NewCOO(host.Shape(), bufs[0], bufs[1], host.LinearIndices())
	if err != nil {
		releaseAll(bufs...)
		return nil, fmt.Errorf("copy coo: %w", err)
	}
	return out, nil
}

// ConvertCOOIndicesTo1D returns a COO tensor at dst holding the values of src
// with linear indices. Values are always copied; sources that already use
// linear indices are copied whole.
func (c *Converter) ConvertCOOIndicesTo1D(src *tensor.Sparse, dst memory.Allocator) (*tensor.Sparse, error) {
	if src.Format() == tensor.COO && src.LinearIndices() {
		return c.CopyCOO(src, dst)
	}
	host, codec, release, err := c.prepareSparse(src, tensor.COO, dst)
	if err != nil {
		return nil, fmt.Errorf("coo indices to 1d: %w", err)
	}
	defer release()

	linear, err := COOIndices1D(host)
	if err != nil {
		return nil, fmt.Errorf("coo indices to 1d: %w", err)
	}
	work := c.workAllocator(dst)
	values, err := c.ownedValues(src, host, work, codec)
	if err != nil {
		return nil, fmt.Errorf("coo indices to 1d: %w", err)
	}
	indBuf, err := allocIndices(work, linear.Indices())
	if err != nil {
		values.Release()
		return nil, fmt.Errorf("coo indices to 1d: %w", err)
	}
	bufs, err := c.publish(dst, values, indBuf)
	if err != nil {
		return nil, fmt.Errorf("coo indices to 1d: %w", err)
	}
	out, err := tensor.NewCOO(host.Shape(), bufs[0], bufs[1], true)
	if err != nil {
		releaseAll(bufs...)
		return nil, fmt.Errorf("coo indices to 1d: %w", err)
	}
	return out, nil
}

// prepareSparse runs the checks shared by sparse inputs, stages src on the
// host and validates its indices. format 0 accepts COO and CSR.
func (c *Converter) prepareSparse(src *tensor.Sparse, format tensor.Format, dst memory.Allocator) (
	host *tensor.Sparse, codec elementCodec, release func(), err error,
) {
	if format != 0 && src.Format() != format {
		return nil, nil, nil, fmt.Errorf("%w: got %s, want %s", tensor.ErrUnsupportedFormat, src.Format(), format)
	}
	rows, cols, err := src.Shape().Matrix()
	if err != nil {
		return nil, nil, nil, err
	}
	if codec, err = codecFor(src.DType()); err != nil {
		return nil, nil, nil, err
	}
	if err := c.checkDestination(src.DType(), dst); err != nil {
		return nil, nil, nil, err
	}
	host, release, err = c.stageSparse(src)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := validateIndices(host, rows, cols); err != nil {
		release()
		return nil, nil, nil, err
	}
	return host, codec, release, nil
}

// emitCSR assembles a CSR tensor at dst from a view over host's values,
// applying the view's value mapping. host is src staged by prepareSparse.
func (c *Converter) emitCSR(src, host *tensor.Sparse, codec elementCodec, dst memory.Allocator, shape tensor.Shape, view CSRIndicesView) (*tensor.Sparse, error) {
	work := c.workAllocator(dst)
	var (
		values *tensor.Buffer
		err    error
	)
	if mapping := view.ValueMapping(); mapping != nil {
		values, err = c.gather(work, codec, host.Values(), mapping)
	} else {
		values, err = c.ownedValues(src, host, work, codec)
	}
	if err != nil {
		return nil, err
	}
	inner, err := allocIndices(work, view.Inner())
	if err != nil {
		values.Release()
		return nil, err
	}
	outer, err := allocIndices(work, view.Outer())
	if err != nil {
		releaseAll(values, inner)
		return nil, err
	}
	bufs, err := c.publish(dst, values, inner, outer)
	if err != nil {
		return nil, err
	}
	out, err := tensor.NewCSR(shape, bufs[0], bufs[1], bufs[2])
	if err != nil {
		releaseAll(bufs...)
		return nil, err
	}
	return out, nil
}

// ownedValues returns a values buffer that no caller-visible tensor shares.
// A staged copy of src already qualifies; values still held by src are copied.
func (c *Converter) ownedValues(src, host *tensor.Sparse, work memory.Allocator, codec elementCodec) (*tensor.Buffer, error) {
	if host != src {
		return host.Values().Retain(), nil
	}
	return c.gather(work, codec, host.Values(), identity(host.NumValues()))
}

func identity(n int) []int {
	p := make([]int, n)
	for i := range p {
		p[i] = i
	}
	return p
}
