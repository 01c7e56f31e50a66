package sparse

import (
	"fmt"

	"github.com/born-ml/sparse/internal/memory"
	"github.com/born-ml/sparse/internal/parallel"
	"github.com/born-ml/sparse/internal/tensor"
)

// DenseToCOO scans src once and records its non-zero elements as a COO tensor
// placed by dst. linear selects one row-major offset per value; otherwise each
// value gets a (row, col) pair. 1-D inputs only support linear indices.
func (c *Converter) DenseToCOO(src *tensor.Dense, dst memory.Allocator, linear bool) (*tensor.Sparse, error) {
	shape := src.Shape()
	if len(shape) < 1 || len(shape) > 2 {
		return nil, fmt.Errorf("dense to coo: %w: got %d dimensions, want 1 or 2", tensor.ErrUnsupportedRank, len(shape))
	}
	if len(shape) == 1 && !linear {
		return nil, fmt.Errorf("dense to coo: %w: 1-D tensors only support linear indices", tensor.ErrInvalidIndexMode)
	}
	codec, err := codecFor(src.DType())
	if err != nil {
		return nil, fmt.Errorf("dense to coo: %w", err)
	}
	if err := c.checkDestination(src.DType(), dst); err != nil {
		return nil, fmt.Errorf("dense to coo: %w", err)
	}

	host, release, err := c.stageDense(src)
	if err != nil {
		return nil, fmt.Errorf("dense to coo: %w", err)
	}
	defer release()

	cols := shape[len(shape)-1]
	var positions []int
	indices := make([]int64, 0, host.NumElements()/2)
	codec.scan(host.Buffer(), func(i int) {
		positions = append(positions, i)
		if linear {
			indices = append(indices, int64(i))
			return
		}
		row := i / cols
		indices = append(indices, int64(row), int64(i-row*cols))
	})

	work := c.workAllocator(dst)
	values, err := c.gather(work, codec, host.Buffer(), positions)
	if err != nil {
		return nil, fmt.Errorf("dense to coo: %w", err)
	}
	indBuf, err := allocIndices(work, indices)
	if err != nil {
		values.Release()
		return nil, fmt.Errorf("dense to coo: %w", err)
	}
	out, err := c.publish(dst, values, indBuf)
	if err != nil {
		return nil, fmt.Errorf("dense to coo: %w", err)
	}
	result, err := tensor.NewCOO(shape, out[0], out[1], linear)
	if err != nil {
		releaseAll(out...)
		return nil, fmt.Errorf("dense to coo: %w", err)
	}
	return result, nil
}

// DenseToCSR scans src once and records its non-zero elements as a CSR tensor
// placed by dst. A 1-D input is read as a 1×n row vector. The result always
// has rows+1 outer entries, so fully zero rows repeat the previous count.
func (c *Converter) DenseToCSR(src *tensor.Dense, dst memory.Allocator) (*tensor.Sparse, error) {
	shape := src.Shape()
	rows, cols, err := shape.Matrix()
	if err != nil {
		return nil, fmt.Errorf("dense to csr: %w", err)
	}
	codec, err := codecFor(src.DType())
	if err != nil {
		return nil, fmt.Errorf("dense to csr: %w", err)
	}
	if err := c.checkDestination(src.DType(), dst); err != nil {
		return nil, fmt.Errorf("dense to csr: %w", err)
	}

	host, release, err := c.stageDense(src)
	if err != nil {
		return nil, fmt.Errorf("dense to csr: %w", err)
	}
	defer release()

	var positions []int
	inner := make([]int64, 0, host.NumElements()/2)
	outer := make([]int64, 1, rows+1)
	row := 0
	codec.scan(host.Buffer(), func(i int) {
		cur := i / cols
		for ; row < cur; row++ {
			outer = append(outer, int64(len(inner)))
		}
		positions = append(positions, i)
		inner = append(inner, int64(i-cur*cols))
	})
	for ; row < rows; row++ {
		outer = append(outer, int64(len(inner)))
	}

	work := c.workAllocator(dst)
	values, err := c.gather(work, codec, host.Buffer(), positions)
	if err != nil {
		return nil, fmt.Errorf("dense to csr: %w", err)
	}
	innerBuf, err := allocIndices(work, inner)
	if err != nil {
		values.Release()
		return nil, fmt.Errorf("dense to csr: %w", err)
	}
	outerBuf, err := allocIndices(work, outer)
	if err != nil {
		releaseAll(values, innerBuf)
		return nil, fmt.Errorf("dense to csr: %w", err)
	}
	out, err := c.publish(dst, values, innerBuf, outerBuf)
	if err != nil {
		return nil, fmt.Errorf("dense to csr: %w", err)
	}
	result, err := tensor.NewCSR(shape, out[0], out[1], out[2])
	if err != nil {
		releaseAll(out...)
		return nil, fmt.Errorf("dense to csr: %w", err)
	}
	return result, nil
}

// gather allocates exactly len(positions) values and copies src[positions[k]] into slot k.
// Strings are only referenced by position during the scan and copied here once.
// Every slot is written by one chunk, so large gathers are split across workers.
func (c *Converter) gather(alloc memory.Allocator, codec elementCodec, src *tensor.Buffer, positions []int) (*tensor.Buffer, error) {
	values, err := alloc.Allocate(src.DType(), len(positions))
	if err != nil {
		return nil, err
	}
	parallel.ForChunks(len(positions), func(start, end int) {
		for k := start; k < end; k++ {
			codec.copyElement(values, src, k, positions[k])
		}
	}, c.parallel)
	return values, nil
}
