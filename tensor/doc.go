// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the dense and sparse tensor types used by the sparse
// conversion library.
//
// # Overview
//
// A tensor is a shape plus reference-counted element storage at a memory
// location. This package provides:
//   - Dense tensors (Dense): contiguous row-major elements
//   - Sparse tensors (Sparse) in COO or CSR layout
//   - Element types (DataType) from 1-byte bools to 8-byte words, plus strings
//   - Memory locations (Location) naming a device and its index
//
// # Basic Usage
//
//	import "github.com/born-ml/sparse/tensor"
//
//	func main() {
//	    d, _ := tensor.FromSlice([]float32{0, 5, 3, 0}, tensor.Shape{2, 2})
//	    defer d.Release()
//
//	    coo, _ := tensor.COOFromSlices(tensor.Shape{2, 2}, []float32{5, 3}, []int64{1, 2}, true)
//	    defer coo.Release()
//	}
//
// # Sparse Layouts
//
// COO stores one index per value: either a linear row-major offset, or a
// (row, col) pair. CSR stores the column of every value in Inner and rows+1
// row pointers in Outer, so row r holds values Outer[r] to Outer[r+1].
//
// Index buffers are always Int64.
//
// # Element Types
//
// Conversions only look at an element's byte width (1, 2, 4 or 8) and whether
// it is a string. An element is zero when all of its bytes are zero; a string
// is zero when it is empty. Complex128 tensors can be stored but not converted.
//
// # Memory Management
//
// Buffers are reference-counted. Constructors take over the caller's reference
// and Release drops it. Device buffers (see package memory) are freed by their
// allocator when the last reference goes away.
//
// # Errors
//
// Every error returned by this module wraps one of the Err* sentinels
// declared here; test for them with errors.Is. Index problems additionally
// carry an *IndexError with the offending position and value.
package tensor
