package memory

import (
	"bytes"
	"testing"

	"github.com/born-ml/sparse/internal/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHostAllocator(t *testing.T) {
	a := NewHostAllocator()
	assert.Equal(t, tensor.Host, a.Location())

	b, err := a.Allocate(tensor.Float64, 3)
	require.NoError(t, err)
	assert.Equal(t, 24, len(b.Bytes()))
	assert.Equal(t, make([]byte, 24), b.Bytes())

	s, err := a.Allocate(tensor.String, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"", ""}, s.Strings())

	_, err = a.Allocate(tensor.Float32, -1)
	assert.ErrorIs(t, err, tensor.ErrAllocationFailure)

	limited := &HostAllocator{Loc: tensor.Host, Limit: 16}
	_, err = limited.Allocate(tensor.Float32, 4)
	require.NoError(t, err)
	_, err = limited.Allocate(tensor.Float32, 5)
	assert.ErrorIs(t, err, tensor.ErrAllocationFailure)

	offHost := &HostAllocator{Loc: tensor.Location{Device: tensor.CUDA}}
	_, err = offHost.Allocate(tensor.Float32, 1)
	assert.ErrorIs(t, err, tensor.ErrAllocationFailure)
}

func TestManager_Find(t *testing.T) {
	m := NewManager(HostTransfer{})
	cuda := tensor.Location{Device: tensor.CUDA}

	tr, err := m.Find(tensor.Host, tensor.Location{Device: tensor.CPU, Index: 2})
	require.NoError(t, err)
	assert.Equal(t, HostTransfer{}, tr)

	_, err = m.Find(tensor.Host, cuda)
	assert.ErrorIs(t, err, tensor.ErrNoTransferPath)
}

func TestManager_CopyDense(t *testing.T) {
	m := NewManager(HostTransfer{})
	src, err := tensor.FromSlice([]int32{1, 2, 3, 4}, tensor.Shape{2, 2})
	require.NoError(t, err)
	dst, err := tensor.Zeros(tensor.Shape{2, 2}, tensor.Int32)
	require.NoError(t, err)

	require.NoError(t, m.CopyDense(src, dst))
	assert.Equal(t, []int32{1, 2, 3, 4}, dst.AsInt32())

	wrong, err := tensor.Zeros(tensor.Shape{4}, tensor.Int32)
	require.NoError(t, err)
	assert.ErrorIs(t, m.CopyDense(src, wrong), tensor.ErrSizeMismatch)

	other, err := tensor.Zeros(tensor.Shape{2, 2}, tensor.Float32)
	require.NoError(t, err)
	assert.ErrorIs(t, m.CopyDense(src, other), tensor.ErrSizeMismatch)
}

func TestManager_CopySparse(t *testing.T) {
	m := NewManager(HostTransfer{})
	src, err := tensor.CSRFromStrings(tensor.Shape{2, 2}, []string{"a", "b"}, []int64{1, 0}, []int64{0, 1, 2})
	require.NoError(t, err)
	dst, err := tensor.CSRFromStrings(tensor.Shape{2, 2}, make([]string, 2), make([]int64, 2), make([]int64, 3))
	require.NoError(t, err)

	require.NoError(t, m.CopySparse(src, dst))
	assert.Equal(t, []string{"a", "b"}, dst.Values().Strings())
	assert.Equal(t, []int64{1, 0}, dst.InnerIndices())
	assert.Equal(t, []int64{0, 1, 2}, dst.OuterIndices())

	coo, err := tensor.COOFromStrings(tensor.Shape{2, 2}, []string{"a"}, []int64{0}, true)
	require.NoError(t, err)
	assert.ErrorIs(t, m.CopySparse(src, coo), tensor.ErrUnsupportedFormat)
}

func TestCompressedDevice_RoundTrip(t *testing.T) {
	for _, codec := range []Codec{CodecZstd, CodecLZ4} {
		t.Run(codec.String(), func(t *testing.T) {
			dev, err := NewCompressedDevice(codec, 0)
			require.NoError(t, err)
			defer dev.Close()
			m := NewManager(HostTransfer{}, dev)
			host := NewHostAllocator()

			raw := bytes.Repeat([]byte{0, 0, 0, 0, 1, 2, 3, 4}, 512)
			src, err := host.Allocate(tensor.Uint8, len(raw))
			require.NoError(t, err)
			copy(src.Bytes(), raw)

			onDev, err := dev.Allocate(tensor.Uint8, len(raw))
			require.NoError(t, err)
			assert.Equal(t, dev.Location(), onDev.Location())
			require.NoError(t, m.CopyBuffer(src, onDev))
			assert.Less(t, dev.StoredBytes(onDev), len(raw), "repetitive data should compress")

			shared, err := dev.Allocate(tensor.Uint8, len(raw))
			require.NoError(t, err)
			require.NoError(t, m.CopyBuffer(onDev, shared))

			back, err := host.Allocate(tensor.Uint8, len(raw))
			require.NoError(t, err)
			require.NoError(t, m.CopyBuffer(shared, back))
			assert.Equal(t, raw, back.Bytes())
		})
	}
}

func TestCompressedDevice_UnwrittenBufferReadsZero(t *testing.T) {
	dev, err := NewCompressedDevice(CodecLZ4, 0)
	require.NoError(t, err)
	defer dev.Close()

	onDev, err := dev.Allocate(tensor.Int64, 4)
	require.NoError(t, err)
	out := tensor.HostInt64([]int64{1, 2, 3, 4})
	require.NoError(t, dev.Copy(onDev, out))
	assert.Equal(t, []int64{0, 0, 0, 0}, out.Int64s())
}

func TestCompressedDevice_Corruption(t *testing.T) {
	dev, err := NewCompressedDevice(CodecZstd, 0)
	require.NoError(t, err)
	defer dev.Close()

	src := tensor.HostInt64([]int64{1, 2, 3})
	onDev, err := dev.Allocate(tensor.Int64, 3)
	require.NoError(t, err)
	require.NoError(t, dev.Copy(src, onDev))

	p := onDev.Handle().(*packed)
	onDev.SetHandle(&packed{blob: p.blob, size: p.size, sum: p.sum + 1})
	err = dev.Copy(onDev, tensor.HostInt64(make([]int64, 3)))
	assert.ErrorIs(t, err, tensor.ErrCorruptBuffer)
}

func TestCompressedDevice_RejectsStrings(t *testing.T) {
	dev, err := NewCompressedDevice(CodecZstd, 0)
	require.NoError(t, err)
	defer dev.Close()

	_, err = dev.Allocate(tensor.String, 1)
	assert.ErrorIs(t, err, tensor.ErrUnsupportedLocationForStrings)
	assert.False(t, dev.CanCopy(dev.Location(), tensor.Location{Device: tensor.CUDA}))
	assert.True(t, dev.CanCopy(tensor.Host, dev.Location()))
}
