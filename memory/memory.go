// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package memory

import (
	"github.com/born-ml/sparse/internal/memory"
)

// Allocator creates zeroed buffers at one memory location.
//
// Failures wrap tensor.ErrAllocationFailure.
type Allocator = memory.Allocator

// Transfer copies buffer contents between memory locations.
type Transfer = memory.Transfer

// Manager finds a Transfer for a pair of locations.
//
// Register transfers during setup. Lookups and copies are safe for concurrent use.
type Manager = memory.Manager

// HostAllocator allocates host-addressable buffers.
// Set Limit to cap the size of a single allocation in bytes.
type HostAllocator = memory.HostAllocator

// HostTransfer copies between host-addressable locations.
type HostTransfer = memory.HostTransfer

// CompressedDevice is a non-host location whose buffers stay compressed in
// host memory. It implements both Allocator and Transfer.
type CompressedDevice = memory.CompressedDevice

// Codec selects the compression used by a CompressedDevice.
type Codec = memory.Codec

// Supported codecs.
const (
	CodecZstd Codec = memory.CodecZstd
	CodecLZ4  Codec = memory.CodecLZ4
)

// Compile-time checks.
var (
	_ Allocator = (*HostAllocator)(nil)
	_ Allocator = (*CompressedDevice)(nil)
	_ Transfer  = HostTransfer{}
	_ Transfer  = (*CompressedDevice)(nil)
)

// NewHostAllocator returns an unlimited allocator for tensor.Host.
func NewHostAllocator() *HostAllocator {
	return memory.NewHostAllocator()
}

// NewManager returns a manager with the given transfers registered in order.
// Earlier registrations win when several transfers can serve a copy.
//
// Example:
//
//	dev, _ := memory.NewCompressedDevice(memory.CodecLZ4, 0)
//	m := memory.NewManager(memory.HostTransfer{}, dev)
func NewManager(transfers ...Transfer) *Manager {
	return memory.NewManager(transfers...)
}

// NewCompressedDevice creates a compressed location with the given codec.
// The index distinguishes several compressed devices in one process.
// Call Close when done to release the codec state.
func NewCompressedDevice(codec Codec, index int) (*CompressedDevice, error) {
	return memory.NewCompressedDevice(codec, index)
}
