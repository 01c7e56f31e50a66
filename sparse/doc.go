// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package sparse converts tensors between dense, COO and CSR layouts.
//
// # Overview
//
// A Converter turns a dense matrix into COO or CSR, reconstructs dense
// tensors, interconverts the two sparse layouts and transposes them. Every
// conversion takes the destination Allocator explicitly; results live wherever
// that allocator places them, and inputs may live at any location the
// converter's transfer manager can reach.
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/sparse/memory"
//	    "github.com/born-ml/sparse/sparse"
//	    "github.com/born-ml/sparse/tensor"
//	)
//
//	func main() {
//	    c := sparse.New(sparse.DefaultConfig())
//	    host := memory.NewHostAllocator()
//
//	    d, _ := tensor.FromSlice([]float32{0, 5, 3, 0}, tensor.Shape{2, 2})
//	    csr, err := c.DenseToCSR(d, host)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    defer csr.Release()
//	    // csr.InnerIndices() = [1 0], csr.OuterIndices() = [0 1 2]
//	}
//
// # Devices
//
// Inputs that are not host addressable are staged to host memory first, and
// results are assembled on the host and then copied to the destination.
// Register a transfer for each device on Config.Transfers:
//
//	dev, _ := memory.NewCompressedDevice(memory.CodecZstd, 0)
//	cfg := sparse.DefaultConfig()
//	cfg.Transfers.Register(dev)
//	c := sparse.New(cfg)
//	csr, err := c.DenseToCSR(d, dev)
//
// String tensors cannot leave the host: asking for a device destination fails
// with tensor.ErrUnsupportedLocationForStrings before any work is done.
//
// # Index Views
//
// COOIndices1D, CSRIndices and CSRIndicesTransposed read the index structure
// of a host tensor without building a new tensor. A view either borrows the
// tensor's index buffer or owns a freshly computed sequence; see Ownership.
// When a view reorders entries it carries a value mapping that the caller
// must apply to the values.
//
// # Validation
//
// Every sparse input is validated before use. Out-of-range or non-monotone
// indices fail with a *tensor.IndexError wrapping tensor.ErrIndexOutOfRange or
// tensor.ErrMalformedIndices, and a coordinate listed twice fails with
// tensor.ErrDuplicateCoordinate. A failed conversion leaves no result behind.
package sparse
