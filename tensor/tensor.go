// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"github.com/born-ml/sparse/internal/tensor"
)

// Type aliases for public API

// DataType represents the element type of a tensor.
type DataType = tensor.DataType

// Data type constants.
const (
	Bool       DataType = tensor.Bool
	Int8       DataType = tensor.Int8
	Uint8      DataType = tensor.Uint8
	Int16      DataType = tensor.Int16
	Uint16     DataType = tensor.Uint16
	Float16    DataType = tensor.Float16
	BFloat16   DataType = tensor.BFloat16
	Int32      DataType = tensor.Int32
	Uint32     DataType = tensor.Uint32
	Float32    DataType = tensor.Float32
	Int64      DataType = tensor.Int64
	Uint64     DataType = tensor.Uint64
	Float64    DataType = tensor.Float64
	Complex64  DataType = tensor.Complex64
	Complex128 DataType = tensor.Complex128
	String     DataType = tensor.String
)

// POD is a constraint for element types stored as raw bytes.
type POD = tensor.POD

// Device represents the kind of memory a buffer lives in.
type Device = tensor.Device

// Device constants.
const (
	CPU        Device = tensor.CPU
	CUDA       Device = tensor.CUDA
	WebGPU     Device = tensor.WebGPU
	Compressed Device = tensor.Compressed
)

// Location names a memory location: a device plus an instance index.
// Only CPU locations are host addressable.
type Location = tensor.Location

// Host is the default host location.
var Host = tensor.Host

// Shape represents the dimensions of a tensor.
// Conversions accept 1-D shapes, read as 1×n row vectors, and 2-D shapes.
type Shape = tensor.Shape

// Buffer is reference-counted element storage at a memory location.
type Buffer = tensor.Buffer

// Dense is a fully materialized row-major tensor.
type Dense = tensor.Dense

// Sparse is a tensor stored as its non-zero values plus COO or CSR indices.
type Sparse = tensor.Sparse

// Format is a sparse storage layout.
type Format = tensor.Format

// Sparse formats.
const (
	COO Format = tensor.COO
	CSR Format = tensor.CSR
)

// IndexError reports an index that is out of range or structurally invalid.
type IndexError = tensor.IndexError

// Errors returned by conversions. Use errors.Is to test for them.
var (
	ErrUnsupportedRank               = tensor.ErrUnsupportedRank
	ErrInvalidIndexMode              = tensor.ErrInvalidIndexMode
	ErrUnsupportedElementWidth       = tensor.ErrUnsupportedElementWidth
	ErrUnsupportedLocationForStrings = tensor.ErrUnsupportedLocationForStrings
	ErrMalformedIndices              = tensor.ErrMalformedIndices
	ErrIndexOutOfRange               = tensor.ErrIndexOutOfRange
	ErrDuplicateCoordinate           = tensor.ErrDuplicateCoordinate
	ErrNoTransferPath                = tensor.ErrNoTransferPath
	ErrAllocationFailure             = tensor.ErrAllocationFailure
	ErrUnsupportedFormat             = tensor.ErrUnsupportedFormat
	ErrCorruptBuffer                 = tensor.ErrCorruptBuffer
	ErrSizeMismatch                  = tensor.ErrSizeMismatch
	ErrNotHostAddressable            = tensor.ErrNotHostAddressable
)

// ParseDataType returns the data type with the given name, such as "float32".
func ParseDataType(name string) (DataType, bool) {
	return tensor.ParseDataType(name)
}

// Creation functions

// Zeros creates a zero-filled host tensor. String tensors hold empty strings.
//
// Example:
//
//	d, err := tensor.Zeros(tensor.Shape{3, 3}, tensor.Float32)
func Zeros(shape Shape, dtype DataType) (*Dense, error) {
	return tensor.Zeros(shape, dtype)
}

// FromSlice creates a host tensor from a Go slice.
//
// Example:
//
//	data := []float32{0, 5, 3, 0}
//	d, err := tensor.FromSlice(data, tensor.Shape{2, 2})
func FromSlice[T POD](data []T, shape Shape) (*Dense, error) {
	return tensor.FromSlice(data, shape)
}

// FromStrings creates a host string tensor. Empty strings are zero elements.
func FromStrings(data []string, shape Shape) (*Dense, error) {
	return tensor.FromStrings(data, shape)
}

// FromFloat16 creates a host Float16 tensor from float32 values.
func FromFloat16(data []float32, shape Shape) (*Dense, error) {
	return tensor.FromFloat16(data, shape)
}

// NewDense wraps a buffer as a dense tensor.
//
// This is a low-level function. Most users should use Zeros or FromSlice instead.
func NewDense(shape Shape, buf *Buffer) (*Dense, error) {
	return tensor.NewDense(shape, buf)
}

// NewCOO assembles a COO tensor from its buffers.
//
// This is a low-level function. Most users should use COOFromSlices instead.
func NewCOO(shape Shape, values, indices *Buffer, linear bool) (*Sparse, error) {
	return tensor.NewCOO(shape, values, indices, linear)
}

// NewCSR assembles a CSR tensor from its buffers.
//
// This is a low-level function. Most users should use CSRFromSlices instead.
func NewCSR(shape Shape, values, inner, outer *Buffer) (*Sparse, error) {
	return tensor.NewCSR(shape, values, inner, outer)
}

// COOFromSlices builds a host COO tensor.
//
// Example:
//
//	// [[0, 5], [3, 0]] with linear indices
//	s, err := tensor.COOFromSlices(tensor.Shape{2, 2}, []float32{5, 3}, []int64{1, 2}, true)
func COOFromSlices[T POD](shape Shape, values []T, indices []int64, linear bool) (*Sparse, error) {
	return tensor.COOFromSlices(shape, values, indices, linear)
}

// CSRFromSlices builds a host CSR tensor.
//
// Example:
//
//	// [[0, 5], [3, 0]]
//	s, err := tensor.CSRFromSlices(tensor.Shape{2, 2}, []float32{5, 3}, []int64{1, 0}, []int64{0, 1, 2})
func CSRFromSlices[T POD](shape Shape, values []T, inner, outer []int64) (*Sparse, error) {
	return tensor.CSRFromSlices(shape, values, inner, outer)
}

// COOFromStrings builds a host COO string tensor.
func COOFromStrings(shape Shape, values []string, indices []int64, linear bool) (*Sparse, error) {
	return tensor.COOFromStrings(shape, values, indices, linear)
}

// CSRFromStrings builds a host CSR string tensor.
func CSRFromStrings(shape Shape, values []string, inner, outer []int64) (*Sparse, error) {
	return tensor.CSRFromStrings(shape, values, inner, outer)
}

// View interprets a host buffer as []T without copying.
// Panics if the buffer is off the host or T has the wrong width.
func View[T POD](b *Buffer) []T {
	return tensor.View[T](b)
}
