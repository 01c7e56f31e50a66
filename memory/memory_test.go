// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package memory_test

import (
	"testing"

	"github.com/born-ml/sparse/memory"
	"github.com/born-ml/sparse/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestCompressedRoundTrip moves a dense tensor through a compressed device.
func TestCompressedRoundTrip(t *testing.T) {
	dev, err := memory.NewCompressedDevice(memory.CodecLZ4, 3)
	require.NoError(t, err)
	defer dev.Close()
	assert.Equal(t, tensor.Location{Device: tensor.Compressed, Index: 3}, dev.Location())
	assert.Equal(t, memory.CodecLZ4, dev.Codec())

	m := memory.NewManager(memory.HostTransfer{}, dev)
	src, err := tensor.FromSlice([]uint16{0, 7, 0, 9}, tensor.Shape{2, 2})
	require.NoError(t, err)
	defer src.Release()

	buf, err := dev.Allocate(tensor.Uint16, 4)
	require.NoError(t, err)
	onDev, err := tensor.NewDense(src.Shape(), buf)
	require.NoError(t, err)
	defer onDev.Release()
	require.NoError(t, m.CopyDense(src, onDev))

	back, err := tensor.Zeros(src.Shape(), tensor.Uint16)
	require.NoError(t, err)
	defer back.Release()
	require.NoError(t, m.CopyDense(onDev, back))
	assert.Equal(t, []uint16{0, 7, 0, 9}, tensor.View[uint16](back.Buffer()))
}

// TestHostAllocatorLimit checks that the per-allocation cap is enforced.
func TestHostAllocatorLimit(t *testing.T) {
	a := &memory.HostAllocator{Loc: tensor.Host, Limit: 8}
	_, err := a.Allocate(tensor.Int64, 2)
	assert.ErrorIs(t, err, tensor.ErrAllocationFailure)

	b, err := a.Allocate(tensor.Int64, 1)
	require.NoError(t, err)
	assert.Equal(t, tensor.Host, b.Location())
}

// TestManagerNoPath checks the error for unreachable locations.
func TestManagerNoPath(t *testing.T) {
	m := memory.NewManager(memory.HostTransfer{})
	_, err := m.Find(tensor.Host, tensor.Location{Device: tensor.Compressed})
	assert.ErrorIs(t, err, tensor.ErrNoTransferPath)
}
