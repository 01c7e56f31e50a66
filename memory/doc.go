// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package memory provides allocators and transfers that place tensor buffers
// at memory locations.
//
// # Overview
//
// Conversions never allocate on their own. The caller passes an Allocator for
// the destination location, and the converter moves data between locations
// through a Manager of registered Transfer implementations:
//   - HostAllocator: plain host memory, optionally with a per-allocation limit
//   - HostTransfer: copies between any two host-addressable locations
//   - CompressedDevice: buffers kept zstd or lz4 compressed, reachable only by copy
//   - WebGPUDevice: GPU storage buffers (Windows builds)
//
// # Basic Usage
//
//	dev, err := memory.NewCompressedDevice(memory.CodecZstd, 0)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer dev.Close()
//
//	transfers := memory.NewManager(memory.HostTransfer{}, dev)
//	buf, _ := dev.Allocate(tensor.Float32, 1024)
//	defer buf.Release()
//
// # Integrity
//
// CompressedDevice records an xxh3 checksum of every buffer it stores and
// reports tensor.ErrCorruptBuffer when a read does not match.
package memory
