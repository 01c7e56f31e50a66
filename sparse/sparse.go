// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package sparse

import (
	"github.com/born-ml/sparse/internal/parallel"
	"github.com/born-ml/sparse/internal/sparse"
	"github.com/born-ml/sparse/tensor"
)

// Config wires a Converter to its transfer manager and host scratch allocator.
type Config = sparse.Config

// ParallelConfig controls how large value gathers are split across goroutines.
// The zero value runs every conversion on the calling goroutine.
type ParallelConfig = parallel.Config

// Converter runs conversions. It is safe for concurrent use.
type Converter = sparse.Converter

// Ownership tells whether an index view aliases tensor storage.
type Ownership = sparse.Ownership

// Ownership kinds.
const (
	Borrowed Ownership = sparse.Borrowed
	Owned    Ownership = sparse.Owned
)

// IndicesView is a read-only sequence of linear COO indices.
type IndicesView = sparse.IndicesView

// CSRIndicesView is a read-only CSR index structure with an optional value
// mapping.
type CSRIndicesView = sparse.CSRIndicesView

// DefaultConfig returns a host-only configuration.
func DefaultConfig() Config {
	return sparse.DefaultConfig()
}

// DefaultParallelConfig uses one worker per CPU. DefaultConfig leaves
// Config.Parallel sequential; assign this to opt in.
func DefaultParallelConfig() ParallelConfig {
	return parallel.DefaultConfig()
}

// New creates a Converter. Nil fields of cfg fall back to DefaultConfig.
func New(cfg Config) *Converter {
	return sparse.New(cfg)
}

// Convert2DCOOIndicesTo1D converts (row, col) pairs to row-major offsets
// for a matrix with cols columns. out must hold len(in)/2 entries.
//
// Example:
//
//	out := make([]int64, 2)
//	_ = sparse.Convert2DCOOIndicesTo1D(3, []int64{0, 2, 1, 0}, out)
//	// out = [2 3]
func Convert2DCOOIndicesTo1D(cols int, in, out []int64) error {
	return sparse.Convert2DCOOIndicesTo1D(cols, in, out)
}

// ConvertCSRIndicesToCOOIndices writes the row-major offset of every CSR
// entry to out, which must hold len(inner) entries.
func ConvertCSRIndicesToCOOIndices(cols int, inner, outer, out []int64) error {
	return sparse.ConvertCSRIndicesToCOOIndices(cols, inner, outer, out)
}

// COOIndices1D returns the linear COO indices of a host sparse tensor.
func COOIndices1D(s *tensor.Sparse) (IndicesView, error) {
	return sparse.COOIndices1D(s)
}

// CSRIndices returns the CSR indices of a host sparse tensor.
// Vector shapes are always described as a 1×n row; check RowVector.
func CSRIndices(s *tensor.Sparse) (CSRIndicesView, error) {
	return sparse.CSRIndices(s)
}

// CSRIndicesTransposed returns the CSR indices of the transposed matrix,
// with a value mapping from transposed positions to source values.
func CSRIndicesTransposed(s *tensor.Sparse) (CSRIndicesView, error) {
	return sparse.CSRIndicesTransposed(s)
}

// ScanForSparseMatches calls fn(ai, bi) for every pair of positions with
// a[ai] == b[bi], in ascending order. Both inputs must be strictly ascending.
//
// Example:
//
//	sparse.ScanForSparseMatches([]int64{1, 4, 6}, []int64{0, 4, 6, 9}, func(ai, bi int) {
//	    fmt.Println(ai, bi) // 1 1, then 2 2
//	})
func ScanForSparseMatches(a, b []int64, fn func(ai, bi int)) {
	sparse.ScanForSparseMatches(a, b, fn)
}
