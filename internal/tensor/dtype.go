// Package tensor provides the dense and sparse tensor types shared by the conversion core.
package tensor

import "unsafe"

// DataType describes the element type of a tensor.
// Conversions only care about its byte width and whether it is a string.
type DataType int

// Supported element types.
const (
	Bool DataType = iota
	Int8
	Uint8
	Int16
	Uint16
	Float16
	BFloat16
	Int32
	Uint32
	Float32
	Int64
	Uint64
	Float64
	Complex64
	Complex128
	String
)

// stringSize is the in-memory size of a Go string header.
var stringSize = int(unsafe.Sizeof(""))

// Size returns the byte size of one element.
// String reports the size of a string header, which is never copied as raw bytes.
func (dt DataType) Size() int {
	switch dt {
	case Bool, Int8, Uint8:
		return 1
	case Int16, Uint16, Float16, BFloat16:
		return 2
	case Int32, Uint32, Float32:
		return 4
	case Int64, Uint64, Float64, Complex64:
		return 8
	case Complex128:
		return 16
	case String:
		return stringSize
	default:
		panic("unknown data type")
	}
}

// IsString reports whether elements are strings.
func (dt DataType) IsString() bool {
	return dt == String
}

// String returns a human-readable name for the data type.
func (dt DataType) String() string {
	switch dt {
	case Bool:
		return "bool"
	case Int8:
		return "int8"
	case Uint8:
		return "uint8"
	case Int16:
		return "int16"
	case Uint16:
		return "uint16"
	case Float16:
		return "float16"
	case BFloat16:
		return "bfloat16"
	case Int32:
		return "int32"
	case Uint32:
		return "uint32"
	case Float32:
		return "float32"
	case Int64:
		return "int64"
	case Uint64:
		return "uint64"
	case Float64:
		return "float64"
	case Complex64:
		return "complex64"
	case Complex128:
		return "complex128"
	case String:
		return "string"
	default:
		return "unknown"
	}
}

// ParseDataType returns the DataType with the given name.
func ParseDataType(name string) (DataType, bool) {
	for dt := Bool; dt <= String; dt++ {
		if dt.String() == name {
			return dt, true
		}
	}
	return 0, false
}

// POD is a constraint for element types stored as raw bytes.
type POD interface {
	~bool | ~int8 | ~uint8 | ~int16 | ~uint16 | ~int32 | ~uint32 | ~float32 |
		~int64 | ~uint64 | ~float64 | ~complex64 | ~complex128
}

// inferDataType infers DataType from a generic type T.
func inferDataType[T POD](dummy T) DataType {
	switch any(dummy).(type) {
	case bool:
		return Bool
	case int8:
		return Int8
	case uint8:
		return Uint8
	case int16:
		return Int16
	case uint16:
		return Uint16
	case int32:
		return Int32
	case uint32:
		return Uint32
	case float32:
		return Float32
	case int64:
		return Int64
	case uint64:
		return Uint64
	case float64:
		return Float64
	case complex64:
		return Complex64
	case complex128:
		return Complex128
	default:
		panic("unsupported type")
	}
}
