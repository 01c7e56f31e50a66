// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package matrix connects tensors to gonum's linear algebra types.
//
// Dense tensors convert to and from *mat.Dense, and a host CSR tensor can be
// read in place through CSRMatrix, which implements mat.Matrix:
//
//	c := sparse.New(sparse.DefaultConfig())
//	csr, _ := matrix.SparseFromMat(c, m, memory.NewHostAllocator())
//	view, _ := matrix.NewCSRMatrix(csr)
//	fmt.Println(mat.Formatted(view))
//
// All numeric element types are read as float64; string tensors are rejected.
package matrix

import (
	"github.com/born-ml/sparse/internal/matrix"
	"github.com/born-ml/sparse/memory"
	"github.com/born-ml/sparse/sparse"
	"github.com/born-ml/sparse/tensor"
	"gonum.org/v1/gonum/mat"
)

// CSRMatrix is a read-only mat.Matrix view of a host CSR tensor.
type CSRMatrix = matrix.CSRMatrix

// FromMat copies m into a new Float64 dense tensor allocated by dst.
// dst must be host addressable.
func FromMat(m mat.Matrix, dst memory.Allocator) (*tensor.Dense, error) {
	return matrix.FromMat(m, dst)
}

// ToMat copies a host dense tensor into a new *mat.Dense.
func ToMat(d *tensor.Dense) (*mat.Dense, error) {
	return matrix.ToMat(d)
}

// SparseFromMat converts m to a CSR tensor at dst.
func SparseFromMat(c *sparse.Converter, m mat.Matrix, dst memory.Allocator) (*tensor.Sparse, error) {
	return matrix.SparseFromMat(c, m, dst)
}

// NewCSRMatrix validates a host CSR tensor and wraps it as a mat.Matrix.
// The tensor must stay alive while the view is in use.
func NewCSRMatrix(s *tensor.Sparse) (*CSRMatrix, error) {
	return matrix.NewCSRMatrix(s)
}

// DotRows returns the dot product of row i of a and row j of b, visiting
// only the columns both rows store.
func DotRows(a *CSRMatrix, i int, b *CSRMatrix, j int) float64 {
	return matrix.DotRows(a, i, b, j)
}
