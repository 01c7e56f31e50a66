package tensor

import (
	"fmt"

	"github.com/x448/float16"
)

// Dense is a fully materialized tensor: a shape plus a contiguous row-major buffer.
type Dense struct {
	shape Shape
	buf   *Buffer
}

// NewDense wraps buf as a dense tensor of the given shape.
// The buffer must hold exactly shape.NumElements() elements. The tensor takes
// over the caller's reference to buf.
func NewDense(shape Shape, buf *Buffer) (*Dense, error) {
	if len(shape) == 0 {
		return nil, fmt.Errorf("dense tensor: %w: scalar shape", ErrUnsupportedRank)
	}
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("dense tensor: invalid shape: %w", err)
	}
	if buf.Len() != shape.NumElements() {
		return nil, fmt.Errorf("dense tensor: shape %v requires %d elements, buffer holds %d",
			shape, shape.NumElements(), buf.Len())
	}
	return &Dense{shape: shape.Clone(), buf: buf}, nil
}

// Shape returns the tensor's shape.
func (d *Dense) Shape() Shape {
	return d.shape
}

// DType returns the element type.
func (d *Dense) DType() DataType {
	return d.buf.DType()
}

// Location returns where the tensor's buffer lives.
func (d *Dense) Location() Location {
	return d.buf.Location()
}

// Buffer returns the underlying buffer.
func (d *Dense) Buffer() *Buffer {
	return d.buf
}

// NumElements returns the total number of elements.
func (d *Dense) NumElements() int {
	return d.shape.NumElements()
}

// ByteSize returns the total memory size in bytes.
func (d *Dense) ByteSize() int {
	return d.buf.ByteSize()
}

// Bytes returns the raw host bytes of a POD tensor.
func (d *Dense) Bytes() []byte {
	return d.buf.Bytes()
}

// Strings returns the host elements of a string tensor.
func (d *Dense) Strings() []string {
	return d.buf.Strings()
}

// Release drops the tensor's reference to its buffer.
func (d *Dense) Release() {
	if d != nil {
		d.buf.Release()
	}
}

// String returns a short description of the tensor.
func (d *Dense) String() string {
	return fmt.Sprintf("Dense[%s]%v on %s", d.DType(), d.shape, d.Location())
}

func (d *Dense) mustBe(dt DataType) {
	if d.DType() != dt {
		panic(fmt.Sprintf("tensor dtype is %s, not %s", d.DType(), dt))
	}
}

// AsFloat32 interprets the data as []float32.
// Panics if the tensor's dtype is not Float32.
func (d *Dense) AsFloat32() []float32 {
	d.mustBe(Float32)
	return View[float32](d.buf)
}

// AsFloat64 interprets the data as []float64.
// Panics if the tensor's dtype is not Float64.
func (d *Dense) AsFloat64() []float64 {
	d.mustBe(Float64)
	return View[float64](d.buf)
}

// AsInt32 interprets the data as []int32.
// Panics if the tensor's dtype is not Int32.
func (d *Dense) AsInt32() []int32 {
	d.mustBe(Int32)
	return View[int32](d.buf)
}

// AsInt64 interprets the data as []int64.
// Panics if the tensor's dtype is not Int64.
func (d *Dense) AsInt64() []int64 {
	d.mustBe(Int64)
	return View[int64](d.buf)
}

// AsUint8 interprets the data as []uint8.
// Panics if the tensor's dtype is not Uint8.
func (d *Dense) AsUint8() []uint8 {
	d.mustBe(Uint8)
	return d.buf.Bytes()
}

// AsBool interprets the data as []bool.
// Panics if the tensor's dtype is not Bool.
func (d *Dense) AsBool() []bool {
	d.mustBe(Bool)
	return View[bool](d.buf)
}

// AsFloat16 interprets the data as []float16.Float16.
// Panics if the tensor's dtype is not Float16.
func (d *Dense) AsFloat16() []float16.Float16 {
	d.mustBe(Float16)
	return View[float16.Float16](d.buf)
}
