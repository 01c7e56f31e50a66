package tensor

import (
	"errors"
	"fmt"
)

// Conversion errors. Every error returned by this module wraps exactly one of these.
var (
	ErrUnsupportedRank               = errors.New("unsupported rank")
	ErrInvalidIndexMode              = errors.New("invalid index mode")
	ErrUnsupportedElementWidth       = errors.New("unsupported element width")
	ErrUnsupportedLocationForStrings = errors.New("string elements require a host location")
	ErrMalformedIndices              = errors.New("malformed indices")
	ErrIndexOutOfRange               = errors.New("index out of range")
	ErrDuplicateCoordinate           = errors.New("duplicate coordinate")
	ErrNoTransferPath                = errors.New("no transfer path")
	ErrAllocationFailure             = errors.New("allocation failure")
	ErrUnsupportedFormat             = errors.New("unsupported sparse format")
	ErrCorruptBuffer                 = errors.New("buffer checksum mismatch")
	ErrSizeMismatch                  = errors.New("buffer size mismatch")
	ErrNotHostAddressable            = errors.New("buffer is not host addressable")
)

// IndexError provides detailed information about a bad index.
type IndexError struct {
	Kind     error  // ErrIndexOutOfRange or ErrMalformedIndices
	Array    string // Index array involved (e.g. "inner", "outer", "coo")
	Position int    // Position within the array, -1 when not applicable
	Value    int64  // Offending value
	Limit    int64  // Bound the value violated
}

// Error implements the error interface.
func (e *IndexError) Error() string {
	if e.Position < 0 {
		return fmt.Sprintf("%v: %s: %d (limit %d)", e.Kind, e.Array, e.Value, e.Limit)
	}
	return fmt.Sprintf("%v: %s[%d] = %d (limit %d)", e.Kind, e.Array, e.Position, e.Value, e.Limit)
}

// Unwrap returns the sentinel kind so errors.Is works.
func (e *IndexError) Unwrap() error {
	return e.Kind
}
