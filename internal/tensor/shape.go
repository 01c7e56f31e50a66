package tensor

import "fmt"

// Shape represents the dimensions of a tensor.
type Shape []int

// NumElements returns the total number of elements in the tensor.
func (s Shape) NumElements() int {
	if len(s) == 0 {
		return 1 // Scalar has 1 element
	}
	n := 1
	for _, dim := range s {
		n *= dim
	}
	return n
}

// Validate checks if the shape is valid (all dimensions > 0).
func (s Shape) Validate() error {
	for i, dim := range s {
		if dim <= 0 {
			return fmt.Errorf("invalid dimension at index %d: %d (must be > 0)", i, dim)
		}
	}
	return nil
}

// Equal checks if two shapes are equal.
func (s Shape) Equal(other Shape) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}

// Clone returns a copy of the shape.
func (s Shape) Clone() Shape {
	clone := make(Shape, len(s))
	copy(clone, s)
	return clone
}

// Matrix returns the shape as rows and columns.
// A 1-D shape of length n is read as a 1×n row vector.
// Other ranks fail with ErrUnsupportedRank.
func (s Shape) Matrix() (rows, cols int, err error) {
	switch len(s) {
	case 1:
		return 1, s[0], nil
	case 2:
		return s[0], s[1], nil
	default:
		return 0, 0, fmt.Errorf("%w: got %d dimensions, want 1 or 2", ErrUnsupportedRank, len(s))
	}
}

// IsVector reports whether a 2-D shape has a single row or a single column.
// 1-D shapes are always vectors.
func (s Shape) IsVector() bool {
	switch len(s) {
	case 1:
		return true
	case 2:
		return s[0] == 1 || s[1] == 1
	default:
		return false
	}
}
