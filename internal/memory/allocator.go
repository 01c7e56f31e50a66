// Package memory provides the allocator and data transfer collaborators used
// by the conversion core to place buffers at named memory locations.
package memory

import (
	"fmt"
	"math"

	"github.com/born-ml/sparse/internal/tensor"
)

// Allocator creates buffers at one memory location.
type Allocator interface {
	// Location returns where allocated buffers live.
	Location() tensor.Location

	// Allocate returns zeroed storage for count elements of dtype,
	// i.e. count*dtype.Size() bytes. Failures wrap tensor.ErrAllocationFailure.
	Allocate(dtype tensor.DataType, count int) (*tensor.Buffer, error)
}

// HostAllocator allocates host-addressable buffers.
type HostAllocator struct {
	Loc   tensor.Location // Host location (Device must be CPU)
	Limit int             // Maximum bytes per allocation, 0 = unlimited
}

// NewHostAllocator returns an unlimited allocator for tensor.Host.
func NewHostAllocator() *HostAllocator {
	return &HostAllocator{Loc: tensor.Host}
}

// Location implements Allocator.
func (a *HostAllocator) Location() tensor.Location {
	return a.Loc
}

// Allocate implements Allocator.
func (a *HostAllocator) Allocate(dtype tensor.DataType, count int) (*tensor.Buffer, error) {
	if !a.Loc.HostAddressable() {
		return nil, fmt.Errorf("host allocator: %w: %s is not a host location", tensor.ErrAllocationFailure, a.Loc)
	}
	size, err := byteSize(dtype, count)
	if err != nil {
		return nil, fmt.Errorf("host allocator: %w", err)
	}
	if a.Limit > 0 && size > a.Limit {
		return nil, fmt.Errorf("host allocator: %w: %d bytes exceeds limit of %d",
			tensor.ErrAllocationFailure, size, a.Limit)
	}
	return tensor.NewHostBuffer(a.Loc, dtype, count), nil
}

// byteSize computes count*dtype.Size() and rejects negative or overflowing requests.
func byteSize(dtype tensor.DataType, count int) (int, error) {
	if count < 0 {
		return 0, fmt.Errorf("%w: negative element count %d", tensor.ErrAllocationFailure, count)
	}
	elem := dtype.Size()
	if count > 0 && elem > math.MaxInt/count {
		return 0, fmt.Errorf("%w: %d elements of %s overflow", tensor.ErrAllocationFailure, count, dtype)
	}
	return count * elem, nil
}
