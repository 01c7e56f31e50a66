//go:build windows

// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package memory

import (
	"github.com/born-ml/sparse/internal/memory"
	"github.com/go-webgpu/webgpu/wgpu"
)

// WebGPUDevice places buffers in WebGPU storage buffers.
// It implements both Allocator and Transfer.
type WebGPUDevice = memory.WebGPUDevice

// Compile-time checks.
var (
	_ Allocator = (*WebGPUDevice)(nil)
	_ Transfer  = (*WebGPUDevice)(nil)
)

// NewWebGPUDevice wraps an initialized wgpu device and its queue.
//
// The caller owns device and queue and must keep them alive while any buffer
// allocated here is in use.
//
// Example:
//
//	gpu := memory.NewWebGPUDevice(device, device.GetQueue(), 0)
//	cfg := sparse.DefaultConfig()
//	cfg.Transfers.Register(gpu)
//	csr, err := sparse.New(cfg).DenseToCSR(d, gpu)
func NewWebGPUDevice(device *wgpu.Device, queue *wgpu.Queue, index int) *WebGPUDevice {
	return memory.NewWebGPUDevice(device, queue, index)
}
