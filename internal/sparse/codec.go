package sparse

import (
	"fmt"
	"unsafe"

	"github.com/born-ml/sparse/internal/tensor"
)

// elementCodec holds the per-element primitives of one element width.
// A conversion picks its codec once and reuses it for the whole scan.
//
// Variants form a closed set: 1, 2, 4 and 8 byte words, and strings.
type elementCodec interface {
	// nonZero reports whether element i of b is non-zero.
	nonZero(b *tensor.Buffer, i int) bool

	// scan calls visit with the index of every non-zero element of b, in order.
	scan(b *tensor.Buffer, visit func(i int))

	// copyElement copies src[srcIdx] into dst[dstIdx].
	copyElement(dst, src *tensor.Buffer, dstIdx, srcIdx int)
}

// codecFor selects the codec for an element type.
func codecFor(dt tensor.DataType) (elementCodec, error) {
	if dt.IsString() {
		return stringCodec{}, nil
	}
	switch dt.Size() {
	case 1:
		return wordCodec[uint8]{}, nil
	case 2:
		return wordCodec[uint16]{}, nil
	case 4:
		return wordCodec[uint32]{}, nil
	case 8:
		return wordCodec[uint64]{}, nil
	default:
		return nil, fmt.Errorf("%w: %s is %d bytes", tensor.ErrUnsupportedElementWidth, dt, dt.Size())
	}
}

type word interface {
	~uint8 | ~uint16 | ~uint32 | ~uint64
}

// words views a host buffer as fixed-width words. Zero is the all-zero bit
// pattern, so -0.0 and NaN payloads count as non-zero and survive round trips.
func words[W word](b *tensor.Buffer) []W {
	data := b.Bytes()
	if len(data) == 0 {
		return nil
	}
	//nolint:gosec // unsafe.Slice for zero-copy access, length taken from the buffer
	return unsafe.Slice((*W)(unsafe.Pointer(&data[0])), b.Len())
}

type wordCodec[W word] struct{}

func (wordCodec[W]) nonZero(b *tensor.Buffer, i int) bool {
	return words[W](b)[i] != 0
}

func (wordCodec[W]) scan(b *tensor.Buffer, visit func(i int)) {
	for i, v := range words[W](b) {
		if v != 0 {
			visit(i)
		}
	}
}

func (wordCodec[W]) copyElement(dst, src *tensor.Buffer, dstIdx, srcIdx int) {
	words[W](dst)[dstIdx] = words[W](src)[srcIdx]
}

// stringCodec assigns elements instead of copying bytes; an empty string is zero.
type stringCodec struct{}

func (stringCodec) nonZero(b *tensor.Buffer, i int) bool {
	return b.Strings()[i] != ""
}

func (stringCodec) scan(b *tensor.Buffer, visit func(i int)) {
	for i, s := range b.Strings() {
		if s != "" {
			visit(i)
		}
	}
}

func (stringCodec) copyElement(dst, src *tensor.Buffer, dstIdx, srcIdx int) {
	dst.Strings()[dstIdx] = src.Strings()[srcIdx]
}
