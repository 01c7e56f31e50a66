package tensor

import (
	"fmt"

	"github.com/x448/float16"
)

// Zeros creates a zero-filled host tensor. String tensors hold empty strings.
//
// Example:
//
//	d, _ := tensor.Zeros(tensor.Shape{3, 4}, tensor.Float32)
func Zeros(shape Shape, dtype DataType) (*Dense, error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shape: %w", err)
	}
	return NewDense(shape, NewHostBuffer(Host, dtype, shape.NumElements()))
}

// FromSlice creates a host tensor from a Go slice.
// The slice is copied into the tensor's memory.
//
// Example:
//
//	d, _ := tensor.FromSlice([]float32{0, 5, 3, 0}, tensor.Shape{2, 2})
func FromSlice[T POD](data []T, shape Shape) (*Dense, error) {
	if shape.NumElements() != len(data) {
		return nil, fmt.Errorf("shape %v requires %d elements, but got %d", shape, shape.NumElements(), len(data))
	}
	var dummy T
	d, err := Zeros(shape, inferDataType(dummy))
	if err != nil {
		return nil, err
	}
	copy(View[T](d.buf), data)
	return d, nil
}

// FromStrings creates a host string tensor. Empty strings are the zero element.
func FromStrings(data []string, shape Shape) (*Dense, error) {
	if shape.NumElements() != len(data) {
		return nil, fmt.Errorf("shape %v requires %d elements, but got %d", shape, shape.NumElements(), len(data))
	}
	d, err := Zeros(shape, String)
	if err != nil {
		return nil, err
	}
	copy(d.Strings(), data)
	return d, nil
}

// FromFloat16 creates a host Float16 tensor, rounding each value to half precision.
func FromFloat16(data []float32, shape Shape) (*Dense, error) {
	if shape.NumElements() != len(data) {
		return nil, fmt.Errorf("shape %v requires %d elements, but got %d", shape, shape.NumElements(), len(data))
	}
	d, err := Zeros(shape, Float16)
	if err != nil {
		return nil, err
	}
	half := d.AsFloat16()
	for i, v := range data {
		half[i] = float16.Fromfloat32(v)
	}
	return d, nil
}

// HostInt64 copies indices into a new host Int64 buffer.
func HostInt64(indices []int64) *Buffer {
	b := NewHostBuffer(Host, Int64, len(indices))
	copy(b.Int64s(), indices)
	return b
}

// hostValues copies values into a new host buffer.
func hostValues[T POD](values []T) *Buffer {
	var dummy T
	b := NewHostBuffer(Host, inferDataType(dummy), len(values))
	copy(View[T](b), values)
	return b
}

func hostStrings(values []string) *Buffer {
	b := NewHostBuffer(Host, String, len(values))
	copy(b.Strings(), values)
	return b
}

// COOFromSlices builds a host COO tensor from values and indices.
// linear selects linear offsets over (row, col) pairs.
func COOFromSlices[T POD](shape Shape, values []T, indices []int64, linear bool) (*Sparse, error) {
	return NewCOO(shape, hostValues(values), HostInt64(indices), linear)
}

// CSRFromSlices builds a host CSR tensor from values, inner and outer indices.
func CSRFromSlices[T POD](shape Shape, values []T, inner, outer []int64) (*Sparse, error) {
	return NewCSR(shape, hostValues(values), HostInt64(inner), HostInt64(outer))
}

// COOFromStrings builds a host COO string tensor.
func COOFromStrings(shape Shape, values []string, indices []int64, linear bool) (*Sparse, error) {
	return NewCOO(shape, hostStrings(values), HostInt64(indices), linear)
}

// CSRFromStrings builds a host CSR string tensor.
func CSRFromStrings(shape Shape, values []string, inner, outer []int64) (*Sparse, error) {
	return NewCSR(shape, hostStrings(values), HostInt64(inner), HostInt64(outer))
}
