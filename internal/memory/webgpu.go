//go:build windows

package memory

import (
	"fmt"
	"unsafe"

	"github.com/born-ml/sparse/internal/tensor"
	"github.com/go-webgpu/webgpu/wgpu"
)

// WebGPUDevice places buffers in WebGPU storage buffers.
// The caller owns the wgpu device and queue and must keep them alive while
// buffers allocated here are in use.
//
// WebGPUDevice implements both Allocator and Transfer.
type WebGPUDevice struct {
	loc    tensor.Location
	device *wgpu.Device
	queue  *wgpu.Queue
}

// NewWebGPUDevice wraps an initialized wgpu device and its queue.
func NewWebGPUDevice(device *wgpu.Device, queue *wgpu.Queue, index int) *WebGPUDevice {
	return &WebGPUDevice{
		loc:    tensor.Location{Device: tensor.WebGPU, Index: index},
		device: device,
		queue:  queue,
	}
}

// gpuBuffer is the handle stored in WebGPU-backed tensor buffers.
type gpuBuffer struct {
	buf  *wgpu.Buffer
	size uint64 // Aligned allocation size
}

// alignedSize rounds n up to the 4-byte copy alignment, with a 4-byte minimum.
func alignedSize(n int) uint64 {
	size := uint64(n)
	if size < 4 {
		return 4
	}
	return (size + 3) &^ 3
}

// Location implements Allocator.
func (g *WebGPUDevice) Location() tensor.Location {
	return g.loc
}

// Allocate implements Allocator. String elements are rejected.
func (g *WebGPUDevice) Allocate(dtype tensor.DataType, count int) (*tensor.Buffer, error) {
	if dtype.IsString() {
		return nil, fmt.Errorf("webgpu device: %w: %s", tensor.ErrUnsupportedLocationForStrings, g.loc)
	}
	size, err := byteSize(dtype, count)
	if err != nil {
		return nil, fmt.Errorf("webgpu device: %w", err)
	}
	aligned := alignedSize(size)
	buf := g.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage: wgpu.BufferUsageStorage | wgpu.BufferUsageCopySrc | wgpu.BufferUsageCopyDst,
		Size:  aligned,
	})
	if buf == nil {
		return nil, fmt.Errorf("webgpu device: %w: %d bytes", tensor.ErrAllocationFailure, aligned)
	}
	return tensor.NewDeviceBuffer(g.loc, dtype, count, &gpuBuffer{buf: buf, size: aligned}, func(h any) {
		h.(*gpuBuffer).buf.Release()
	}), nil
}

// CanCopy implements Transfer: host to GPU, GPU to host, and GPU to GPU on this device.
func (g *WebGPUDevice) CanCopy(src, dst tensor.Location) bool {
	switch {
	case src == g.loc && dst == g.loc:
		return true
	case src == g.loc:
		return dst.HostAddressable()
	case dst == g.loc:
		return src.HostAddressable()
	default:
		return false
	}
}

// Copy implements Transfer.
func (g *WebGPUDevice) Copy(src, dst *tensor.Buffer) error {
	if err := checkCopy(src, dst); err != nil {
		return err
	}
	size := alignedSize(src.ByteSize())
	switch {
	case src.Location() == g.loc && dst.Location() == g.loc:
		g.copyBuffer(src.Handle().(*gpuBuffer).buf, dst.Handle().(*gpuBuffer).buf, size)
		return nil
	case dst.Location() == g.loc:
		staging := g.createBuffer(src.Bytes(), size)
		defer staging.Release()
		g.copyBuffer(staging, dst.Handle().(*gpuBuffer).buf, size)
		return nil
	default:
		data, err := g.readBuffer(src.Handle().(*gpuBuffer).buf, size)
		if err != nil {
			return fmt.Errorf("webgpu device: %w", err)
		}
		copy(dst.Bytes(), data)
		return nil
	}
}

// createBuffer creates a mapped-at-creation copy source holding data, zero padded to size.
func (g *WebGPUDevice) createBuffer(data []byte, size uint64) *wgpu.Buffer {
	buffer := g.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage:            wgpu.BufferUsageCopySrc,
		Size:             size,
		MappedAtCreation: wgpu.True,
	})

	mappedPtr := buffer.GetMappedRange(0, size)
	//nolint:gosec // unsafe.Slice for zero-copy conversion from unsafe.Pointer
	mappedSlice := unsafe.Slice((*byte)(mappedPtr), size)
	copy(mappedSlice, data)
	clear(mappedSlice[len(data):])
	buffer.Unmap()

	return buffer
}

func (g *WebGPUDevice) copyBuffer(src, dst *wgpu.Buffer, size uint64) {
	encoder := g.device.CreateCommandEncoder(nil)
	encoder.CopyBufferToBuffer(src, 0, dst, 0, size)
	cmdBuffer := encoder.Finish(nil)
	g.queue.Submit(cmdBuffer)
}

// readBuffer reads data back through a MapRead staging buffer,
// since storage buffers can't be mapped directly.
func (g *WebGPUDevice) readBuffer(srcBuffer *wgpu.Buffer, size uint64) ([]byte, error) {
	stagingBuffer := g.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
		Size:  size,
	})
	defer stagingBuffer.Release()

	g.copyBuffer(srcBuffer, stagingBuffer, size)

	if err := stagingBuffer.MapAsync(g.device, wgpu.MapModeRead, 0, size); err != nil {
		return nil, fmt.Errorf("failed to map staging buffer: %w", err)
	}

	mappedPtr := stagingBuffer.GetMappedRange(0, size)
	//nolint:gosec // unsafe.Slice for zero-copy conversion from unsafe.Pointer
	mappedSlice := unsafe.Slice((*byte)(mappedPtr), size)
	result := make([]byte, size)
	copy(result, mappedSlice)
	stagingBuffer.Unmap()

	return result, nil
}
