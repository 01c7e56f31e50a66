package tensor

import (
	"fmt"
	"sync"
	"sync/atomic"
	"unsafe"
)

// Buffer is reference-counted element storage tied to a memory location.
//
// Host buffers keep POD elements as raw bytes and string elements as a []string.
// Buffers on other locations carry an opaque handle that only the owning
// allocator and its transfers understand.
type Buffer struct {
	loc    Location
	dtype  DataType
	count  int
	data   []byte
	strs   []string
	handle any

	refCount atomic.Int32
	mu       sync.Mutex       // Guards handle and deallocation
	free     func(handle any) // Called once when refCount reaches 0
}

// NewHostBuffer allocates zeroed storage for count elements at a host location.
// String buffers start with empty strings.
func NewHostBuffer(loc Location, dtype DataType, count int) *Buffer {
	if !loc.HostAddressable() {
		panic(fmt.Sprintf("tensor: %s is not host addressable", loc))
	}
	b := &Buffer{loc: loc, dtype: dtype, count: count}
	if dtype.IsString() {
		b.strs = make([]string, count)
	} else {
		b.data = make([]byte, count*dtype.Size())
	}
	b.refCount.Store(1)
	return b
}

// NewDeviceBuffer wraps device storage described by handle.
// free, if non-nil, runs when the last reference is released.
func NewDeviceBuffer(loc Location, dtype DataType, count int, handle any, free func(handle any)) *Buffer {
	b := &Buffer{loc: loc, dtype: dtype, count: count, handle: handle, free: free}
	b.refCount.Store(1)
	return b
}

// Location returns where the buffer lives.
func (b *Buffer) Location() Location {
	return b.loc
}

// DType returns the element type.
func (b *Buffer) DType() DataType {
	return b.dtype
}

// Len returns the number of elements.
func (b *Buffer) Len() int {
	return b.count
}

// ByteSize returns the storage size in bytes.
func (b *Buffer) ByteSize() int {
	return b.count * b.dtype.Size()
}

// Bytes returns the raw host storage of a POD buffer.
// It returns nil for string buffers and for buffers that are not host addressable.
//
// WARNING: Direct access to underlying memory.
func (b *Buffer) Bytes() []byte {
	return b.data
}

// Strings returns the host storage of a string buffer, nil otherwise.
func (b *Buffer) Strings() []string {
	return b.strs
}

// Handle returns the device-specific storage handle.
func (b *Buffer) Handle() any {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.handle
}

// SetHandle replaces the device-specific storage handle.
// Used by transfers whose storage is immutable (e.g. compressed blobs).
func (b *Buffer) SetHandle(h any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handle = h
}

// Retain adds a reference and returns the buffer.
func (b *Buffer) Retain() *Buffer {
	b.refCount.Add(1)
	return b
}

// Release drops a reference and frees the storage when none remain.
// Releasing a nil buffer is a no-op.
func (b *Buffer) Release() {
	if b == nil {
		return
	}
	if b.refCount.Add(-1) != 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.free != nil {
		b.free(b.handle)
		b.free = nil
	}
	b.data = nil
	b.strs = nil
	b.handle = nil
}

// IsUnique returns true if this is the only reference to the buffer.
func (b *Buffer) IsUnique() bool {
	return b.refCount.Load() == 1
}

// View interprets a host POD buffer as []T.
// Panics if the buffer is not host addressable or T has a different width than the element type.
func View[T POD](b *Buffer) []T {
	var dummy T
	if !b.loc.HostAddressable() {
		panic(fmt.Sprintf("tensor: buffer on %s is not host addressable", b.loc))
	}
	if int(unsafe.Sizeof(dummy)) != b.dtype.Size() {
		panic(fmt.Sprintf("tensor: cannot view %s elements as %T", b.dtype, dummy))
	}
	if b.count == 0 {
		return nil
	}
	//nolint:gosec // unsafe.Slice for zero-copy access, bounds checked by element count
	return unsafe.Slice((*T)(unsafe.Pointer(&b.data[0])), b.count)
}

// Int64s interprets a host Int64 buffer as []int64. Index arrays are always Int64.
func (b *Buffer) Int64s() []int64 {
	if b.dtype != Int64 {
		panic(fmt.Sprintf("tensor: buffer dtype is %s, not int64", b.dtype))
	}
	return View[int64](b)
}
